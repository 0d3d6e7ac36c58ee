package widgets

import (
	"sync"
	"testing"

	"github.com/fpokrzywa/weaver-live/cli/modules/core/navigation"
	"github.com/fpokrzywa/weaver-live/cli/modules/core/sections"
	"github.com/fpokrzywa/weaver-live/cli/modules/platform/eventbus"
	"github.com/stretchr/testify/require"
)

func newTestPage(t *testing.T) *Page {
	t.Helper()
	p := NewPage(eventbus.NewBus())
	t.Cleanup(p.Close)
	return p
}

func TestSidebarSelectReachesEveryWidget(t *testing.T) {
	t.Parallel()

	p := newTestPage(t)
	p.Sidebar.Select(sections.ConferenceRooms)

	v := p.View()
	require.Equal(t, sections.ConferenceRooms, v.Sidebar.Active)
	require.Equal(t, sections.ConferenceRooms, v.MainContent.Active)
	require.True(t, v.MainContent.Visible)
	require.False(t, v.MainContent.Collapsed)
	require.False(t, v.RightPanel.Expanded)
	require.Equal(t, "Conference Rooms", v.MainContent.Display.Title)
}

func TestCollapseAndExpandAll(t *testing.T) {
	t.Parallel()

	p := newTestPage(t)
	p.Sidebar.Select(sections.KnowledgeArticles)
	p.Sidebar.CollapseAll()

	v := p.View()
	require.False(t, v.Sidebar.Visible)
	require.True(t, v.MainContent.Collapsed)
	require.True(t, v.RightPanel.Expanded)
	require.True(t, v.RightPanel.FullScreen)

	p.RightPanel.ExpandAll()
	v = p.View()
	require.True(t, v.Sidebar.Visible)
	require.False(t, v.MainContent.Collapsed)
	require.False(t, v.RightPanel.Expanded)
	require.False(t, v.RightPanel.FullScreen)
}

func TestRightPanelFollowsSectionCategory(t *testing.T) {
	t.Parallel()

	p := newTestPage(t)
	p.Sidebar.Select(sections.OrganizationChart)
	require.False(t, p.RightPanel.View().Expanded)

	p.Sidebar.Select(sections.ResetPassword)
	require.True(t, p.RightPanel.View().Expanded)
	require.False(t, p.MainContent.View().Visible)
}

func TestToggleMainContent(t *testing.T) {
	t.Parallel()

	p := newTestPage(t)
	p.Sidebar.Select(sections.ExpenseReports)
	p.Sidebar.ToggleMainContent()

	v := p.View()
	require.True(t, v.MainContent.Collapsed)
	require.True(t, v.RightPanel.Expanded)
	require.False(t, v.RightPanel.FullScreen)
}

func TestArticles(t *testing.T) {
	t.Parallel()

	p := newTestPage(t)
	p.MainContent.ToggleArticle("india-leave")

	v := p.MainContent.View()
	require.Len(t, v.Articles, len(sections.Articles()))
	for _, a := range v.Articles {
		if a.ID == "india-leave" {
			require.True(t, a.Expanded)
			require.Equal(t, "Sample content for india leave policies...", a.Body)
		} else {
			require.False(t, a.Expanded)
			require.Empty(t, a.Body)
		}
	}
}

func TestAdminGateAndSignOut(t *testing.T) {
	t.Parallel()

	p := newTestPage(t)
	p.SignIn("jane@example.com", false)
	p.Sidebar.Select(sections.Admin)
	require.Equal(t, sections.KnowledgeArticles, p.Sidebar.View().Active)
	require.Len(t, p.Sidebar.View().Groups, 2)

	p.SignOut()
	p.SignIn("root@example.com", true)
	v := p.View()
	require.Equal(t, sections.Admin, v.Sidebar.Active)
	require.Equal(t, "Welcome, root", v.Sidebar.Greeting)
	require.Len(t, v.Sidebar.Groups, 3)
	require.True(t, v.MainContent.AdminVisible)
	require.False(t, v.MainContent.Visible)
	require.False(t, v.RightPanel.Visible)

	p.SignOut()
	v = p.View()
	require.Equal(t, sections.KnowledgeArticles, v.Sidebar.Active)
	require.False(t, v.Sidebar.IsAdmin)
}

func TestDispatch(t *testing.T) {
	t.Parallel()

	p := newTestPage(t)
	require.NoError(t, p.Dispatch(navigation.Intent{Kind: navigation.IntentSelect, Section: sections.CustomerAccounts}, "test"))
	require.NoError(t, p.Dispatch(navigation.Intent{Kind: navigation.IntentCollapseAll}, "test"))
	require.True(t, p.RightPanel.View().FullScreen)

	require.Error(t, p.Dispatch(navigation.Intent{Kind: "explode"}, "test"))
	require.Error(t, p.Dispatch(navigation.Intent{Kind: navigation.IntentSelect}, "test"))
	require.Error(t, p.Dispatch(navigation.Intent{Kind: navigation.IntentToggleArticle}, "test"))

	history := p.Bus().GetHistory(0)
	require.Len(t, history, 2)
	require.Equal(t, "test", history[0].Source)
}

func TestWidgetsSharingABusAgreeWithMachine(t *testing.T) {
	t.Parallel()

	p := newTestPage(t)
	ref := navigation.New()
	intents := []navigation.Intent{
		{Kind: navigation.IntentSelect, Section: sections.KnowledgeArticles},
		{Kind: navigation.IntentToggleMainContent},
		{Kind: navigation.IntentSelect, Section: sections.TimeOff},
		{Kind: navigation.IntentCollapseAll},
		{Kind: navigation.IntentSelect, Section: "nonexistent-xyz"},
		{Kind: navigation.IntentExpandAll},
		{Kind: navigation.IntentToggleArticle, Article: "us-leave"},
	}
	for _, in := range intents {
		require.NoError(t, p.Dispatch(in, "test"))
		require.NoError(t, ref.Apply(in))

		want := ref.Snapshot()
		v := p.View()
		require.Equal(t, want.SidebarVisible, v.Sidebar.Visible)
		require.Equal(t, want.MainContentVisible, v.MainContent.Visible)
		require.Equal(t, want.RightPanelExpanded, v.RightPanel.Expanded)
		require.Equal(t, want.RightPanelFullScreen, v.RightPanel.FullScreen)
	}
}

func TestRightPanelLocalState(t *testing.T) {
	t.Parallel()

	p := newTestPage(t)
	require.Equal(t, sections.DefaultModel, p.RightPanel.View().Model)
	require.NoError(t, p.RightPanel.SelectModel("o3-pro"))
	require.Error(t, p.RightPanel.SelectModel("gpt-9"))

	p.RightPanel.TogglePrompts()
	p.RightPanel.SetQuery("What is our vacation policy?")
	v := p.RightPanel.View()
	require.Equal(t, "o3-pro", v.Model)
	require.True(t, v.ShowPrompts)
	require.Equal(t, sections.SamplePrompts(), v.Prompts)
	require.Equal(t, "What is our vacation policy?", v.Query)
}

func TestSidebarGroups(t *testing.T) {
	t.Parallel()

	p := newTestPage(t)
	groups := p.Sidebar.View().Groups
	require.False(t, groups[0].Expanded)
	require.True(t, groups[1].Expanded)

	p.Sidebar.ToggleGroup(sections.CategoryFindAnswers)
	require.True(t, p.Sidebar.View().Groups[0].Expanded)
}

func TestClosedPageRejectsIntents(t *testing.T) {
	t.Parallel()

	p := NewPage(eventbus.NewBus())
	require.NoError(t, p.Dispatch(navigation.Intent{Kind: navigation.IntentSelect, Section: sections.TimeOff}, "test"))
	require.False(t, p.Closed())

	p.Close()
	p.Close()
	require.True(t, p.Closed())
	err := p.Dispatch(navigation.Intent{Kind: navigation.IntentSelect, Section: sections.ConferenceRooms}, "test")
	require.ErrorIs(t, err, ErrPageClosed)

	p.Sidebar.CollapseAll()
	require.Len(t, p.Bus().GetHistory(0), 1)
	require.Equal(t, sections.TimeOff, p.View().Sidebar.Active)
}

func TestConcurrentWidgetCallsKeepMirrorsInStep(t *testing.T) {
	t.Parallel()

	p := newTestPage(t)
	p.Sidebar.Select(sections.KnowledgeArticles)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 25; j++ {
				switch (i + j) % 4 {
				case 0:
					p.Sidebar.ToggleMainContent()
				case 1:
					p.Sidebar.CollapseAll()
				case 2:
					p.RightPanel.ExpandAll()
				case 3:
					_ = p.Dispatch(navigation.Intent{Kind: navigation.IntentToggleMainContent}, "test")
				}
				p.MainContent.ToggleArticle("us-leave")
			}
		}(i)
	}
	wg.Wait()

	// Replaying the bus history gives the state every mirror holds
	ref := navigation.New()
	for _, e := range p.Bus().GetHistory(0) {
		ApplyEvent(ref, e)
	}
	want := ref.Snapshot()
	for _, m := range []*mirror{p.Sidebar.mirror, p.MainContent.mirror, p.RightPanel.mirror} {
		require.Equal(t, want, m.snapshot())
	}
}
