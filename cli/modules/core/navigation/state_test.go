package navigation

import (
	"math/rand"
	"testing"

	"github.com/fpokrzywa/weaver-live/cli/modules/core/sections"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	t.Parallel()

	s := New().Snapshot()
	require.Equal(t, sections.KnowledgeArticles, s.ActiveSection)
	require.False(t, s.ShowMainContent)
	require.True(t, s.SidebarVisible)
	require.False(t, s.MainContentVisible)
	require.True(t, s.RightPanelExpanded)
	require.False(t, s.RightPanelFullScreen)
	require.Empty(t, s.ExpandedArticles)
}

func TestSelectFindAnswersShowsMainContent(t *testing.T) {
	t.Parallel()

	m := New()
	m.CollapseAll()
	require.True(t, m.Select(sections.ConferenceRooms))

	s := m.Snapshot()
	require.Equal(t, sections.ConferenceRooms, s.ActiveSection)
	require.True(t, s.ShowMainContent)
	require.False(t, s.SidebarCollapsed)
	require.False(t, s.MainContentCollapsed)
	require.True(t, s.MainContentVisible)
	require.False(t, s.RightPanelExpanded)
}

func TestSelectAutomateTasksHidesMainContent(t *testing.T) {
	t.Parallel()

	m := New()
	m.Select(sections.OrganizationChart)
	m.Select(sections.TimeOff)

	s := m.Snapshot()
	require.False(t, s.ShowMainContent)
	require.False(t, s.MainContentVisible)
	require.True(t, s.RightPanelExpanded)
	require.False(t, s.RightPanelFullScreen)
	require.Equal(t, "Request Time Off", s.Display.Title)
}

func TestCollapseAllMakesRightPanelFullScreen(t *testing.T) {
	t.Parallel()

	m := New()
	m.Select(sections.KnowledgeArticles)
	m.CollapseAll()

	s := m.Snapshot()
	require.False(t, s.SidebarVisible)
	require.False(t, s.MainContentVisible)
	require.True(t, s.RightPanelExpanded)
	require.True(t, s.RightPanelFullScreen)

	m.ExpandAll()
	s = m.Snapshot()
	require.True(t, s.SidebarVisible)
	require.True(t, s.MainContentVisible)
	require.False(t, s.RightPanelExpanded)
	require.False(t, s.RightPanelFullScreen)
}

func TestToggleMainContent(t *testing.T) {
	t.Parallel()

	m := New()
	m.Select(sections.ExpenseReports)
	m.ToggleMainContent()

	s := m.Snapshot()
	require.True(t, s.MainContentCollapsed)
	require.False(t, s.MainContentVisible)
	require.True(t, s.RightPanelExpanded)
	require.False(t, s.RightPanelFullScreen)

	m.ToggleMainContent()
	require.True(t, m.Snapshot().MainContentVisible)
}

func TestToggleArticleIsIndependentOfLayout(t *testing.T) {
	t.Parallel()

	m := New()
	require.True(t, m.ToggleArticle("us-leave"))
	require.True(t, m.ToggleArticle("travel-expense"))
	m.CollapseAll()
	m.Select(sections.TimeOff)

	s := m.Snapshot()
	require.Equal(t, []string{"travel-expense", "us-leave"}, s.ExpandedArticles)
	require.True(t, s.ArticleExpanded("us-leave"))

	require.False(t, m.ToggleArticle("us-leave"))
	require.Equal(t, []string{"travel-expense"}, m.Snapshot().ExpandedArticles)
}

func TestUnknownSectionDegrades(t *testing.T) {
	t.Parallel()

	m := New()
	m.Select(sections.OrganizationChart)
	require.True(t, m.Select("nonexistent-xyz"))

	s := m.Snapshot()
	require.Equal(t, sections.ID("nonexistent-xyz"), s.ActiveSection)
	require.False(t, s.ShowMainContent)
	require.True(t, s.RightPanelExpanded)
	require.Equal(t, "Knowledge Articles", s.Display.Title)
	require.Equal(t, "Find answers to your questions.", s.Display.Description)
	require.Equal(t, "search", s.Display.Icon)
}

func TestAdminGate(t *testing.T) {
	t.Parallel()

	m := New()
	m.SignIn("jane@example.com", false)
	m.Select(sections.TimeOff)
	require.False(t, m.Select(sections.Admin))
	require.Equal(t, sections.TimeOff, m.Active())

	m.SignOut()
	m.SignIn("root@example.com", true)
	s := m.Snapshot()
	require.Equal(t, sections.Admin, s.ActiveSection)
	require.True(t, s.AdminVisible)
	require.False(t, s.MainContentVisible)
	require.False(t, s.RightPanelVisible)
	require.False(t, s.ShowMainContent)
	require.Equal(t, "Welcome, root", s.Greeting())
}

func TestDemotedAdminLeavesAdminSection(t *testing.T) {
	t.Parallel()

	m := New()
	m.SignIn("root@example.com", true)
	m.ToggleArticle("us-leave")
	m.SignIn("root@example.com", false)

	s := m.Snapshot()
	require.False(t, s.IsAdmin)
	require.True(t, s.SignedIn)
	require.Equal(t, "root@example.com", s.Email)
	require.Equal(t, sections.Default, s.ActiveSection)
	require.False(t, s.AdminVisible)
	require.True(t, s.RightPanelVisible)
	require.Empty(t, s.ExpandedArticles)
	require.False(t, m.Select(sections.Admin))

	// Off the admin section the layout is kept
	m = New()
	m.SignIn("root@example.com", true)
	m.Select(sections.TimeOff)
	m.CollapseAll()
	m.SignIn("root@example.com", false)
	s = m.Snapshot()
	require.Equal(t, sections.TimeOff, s.ActiveSection)
	require.True(t, s.SidebarCollapsed)
}

func TestMainContentVisibilityPerSection(t *testing.T) {
	t.Parallel()

	for _, sec := range sections.All() {
		sec := sec
		t.Run(string(sec.ID), func(t *testing.T) {
			t.Parallel()

			m := New()
			m.SignIn("root@example.com", true)
			m.CollapseAll()
			require.True(t, m.Select(sec.ID))

			s := m.Snapshot()
			want := sections.IsFindAnswers(sec.ID)
			require.Equal(t, want, s.ShowMainContent)
			require.Equal(t, want, s.MainContentVisible)
			require.Equal(t, !want, s.RightPanelExpanded)
			require.Equal(t, sec.ID == sections.Admin, s.AdminVisible)
		})
	}
}

func TestExpandAllKeepsRightPanelExpandedOutsideFindAnswers(t *testing.T) {
	t.Parallel()

	m := New()
	require.True(t, m.Select(sections.SoftwareApps))
	m.CollapseAll()
	m.ExpandAll()

	s := m.Snapshot()
	require.True(t, s.SidebarVisible)
	require.False(t, s.MainContentVisible)
	require.True(t, s.RightPanelExpanded)
	require.False(t, s.RightPanelFullScreen)

	m.ExpandAll()
	require.True(t, m.Snapshot().RightPanelExpanded)
}

func TestAdminHiddenWhenCollapsed(t *testing.T) {
	t.Parallel()

	m := New()
	m.SignIn("root@example.com", true)
	m.ToggleMainContent()

	s := m.Snapshot()
	require.False(t, s.AdminVisible)
	require.False(t, s.MainContentVisible)
	require.False(t, s.RightPanelVisible)
}

func TestSignOutResets(t *testing.T) {
	t.Parallel()

	m := New()
	m.SignIn("root@example.com", true)
	m.ToggleArticle("us-leave")
	m.CollapseAll()
	m.SignOut()

	require.Equal(t, New().Snapshot(), m.Snapshot())
}

func TestApply(t *testing.T) {
	t.Parallel()

	m := New()
	require.NoError(t, m.Apply(Intent{Kind: IntentSelect, Section: sections.CustomerAccounts}))
	require.NoError(t, m.Apply(Intent{Kind: IntentCollapseAll}))
	require.NoError(t, m.Apply(Intent{Kind: IntentToggleArticle, Article: "india-leave"}))
	require.True(t, m.Snapshot().RightPanelFullScreen)

	require.Error(t, m.Apply(Intent{Kind: IntentSelect}))
	require.Error(t, m.Apply(Intent{Kind: IntentToggleArticle}))
	require.Error(t, m.Apply(Intent{Kind: "explode"}))
}

func TestDerivedRulesHoldUnderRandomIntents(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewSource(42))
	ids := append([]sections.ID{"nonexistent-xyz"}, sectionIDs()...)
	m := New()
	m.SignIn("root@example.com", true)

	for i := 0; i < 2000; i++ {
		switch rng.Intn(5) {
		case 0:
			m.Select(ids[rng.Intn(len(ids))])
		case 1:
			m.ToggleMainContent()
		case 2:
			m.CollapseAll()
		case 3:
			m.ExpandAll()
		case 4:
			m.ToggleArticle("us-leave")
		}

		s := m.Snapshot()
		require.Equal(t, !s.SidebarCollapsed, s.SidebarVisible)
		if s.SidebarCollapsed && s.MainContentCollapsed {
			require.True(t, s.RightPanelExpanded)
			require.True(t, s.RightPanelFullScreen)
		}
		require.Equal(t, sections.IsFindAnswers(s.ActiveSection), s.ShowMainContent)
		require.False(t, s.MainContentVisible && s.AdminVisible)
		if s.ActiveSection == sections.Admin {
			require.False(t, s.MainContentVisible)
			require.False(t, s.RightPanelVisible)
		}
	}
}

func sectionIDs() []sections.ID {
	var ids []sections.ID
	for _, s := range sections.All() {
		ids = append(ids, s.ID)
	}
	return ids
}
