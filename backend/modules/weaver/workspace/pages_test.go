package workspace

import (
	"testing"

	"github.com/fpokrzywa/weaver-live/cli/modules/core/navigation"
	"github.com/fpokrzywa/weaver-live/cli/modules/core/sections"
	"github.com/fpokrzywa/weaver-live/cli/modules/platform/auth"
	"github.com/fpokrzywa/weaver-live/cli/modules/ui/widgets"
	"github.com/stretchr/testify/require"
)

func TestPagesDemotedAdmin(t *testing.T) {
	pages := NewPages()
	t.Cleanup(pages.Close)

	admin := &auth.Identity{UserID: 1, Email: "root@example.com", Role: "Admin", IsAdmin: true}
	v := pages.For(admin).View()
	require.Equal(t, sections.Admin, v.Sidebar.Active)
	require.True(t, v.MainContent.AdminVisible)
	require.False(t, v.RightPanel.Visible)

	demoted := &auth.Identity{UserID: 1, Email: "root@example.com", Role: "User"}
	page := pages.For(demoted)
	v = page.View()
	require.False(t, v.Sidebar.IsAdmin)
	require.Equal(t, sections.Default, v.Sidebar.Active)
	require.False(t, v.MainContent.AdminVisible)
	require.True(t, v.RightPanel.Visible)
	require.Len(t, v.Sidebar.Groups, 2)

	require.NoError(t, page.Dispatch(navigation.Intent{Kind: navigation.IntentSelect, Section: sections.Admin}, "test"))
	require.Equal(t, sections.Default, page.View().MainContent.Active)
	require.Equal(t, 1, pages.Count())
}

func TestPagesDrop(t *testing.T) {
	pages := NewPages()
	t.Cleanup(pages.Close)

	id := &auth.Identity{UserID: 7, Email: "jane@example.com", Role: "User"}
	held := pages.For(id)
	require.NoError(t, held.Dispatch(navigation.Intent{Kind: navigation.IntentSelect, Section: sections.TimeOff}, "test"))

	pages.Drop(id.UserID)
	pages.Drop(id.UserID)
	require.Zero(t, pages.Count())
	require.True(t, held.Closed())

	err := held.Dispatch(navigation.Intent{Kind: navigation.IntentSelect, Section: sections.ConferenceRooms}, "test")
	require.ErrorIs(t, err, widgets.ErrPageClosed)

	fresh := pages.For(id)
	require.NotSame(t, held, fresh)
	require.Equal(t, sections.Default, fresh.View().Sidebar.Active)
	require.NoError(t, fresh.Dispatch(navigation.Intent{Kind: navigation.IntentSelect, Section: sections.ConferenceRooms}, "test"))
	require.True(t, fresh.View().MainContent.Visible)
}
