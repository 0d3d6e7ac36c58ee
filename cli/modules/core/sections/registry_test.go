package sections

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDescribeKnownSection(t *testing.T) {
	t.Parallel()

	d := Describe(TimeOff)
	require.Equal(t, "Request Time Off", d.Title)
	require.Equal(t, "Submit and manage your vacation and time-off requests.", d.Description)
	require.Equal(t, "calendar", d.Icon)
}

func TestDescribeUnknownFallsBack(t *testing.T) {
	t.Parallel()

	d := Describe("nonexistent-xyz")
	require.Equal(t, Display{
		Title:       "Knowledge Articles",
		Description: "Find answers to your questions.",
		Icon:        "search",
	}, d)
	require.Equal(t, CategoryUnknown, CategoryOf("nonexistent-xyz"))
	require.False(t, IsFindAnswers("nonexistent-xyz"))
}

func TestCategories(t *testing.T) {
	t.Parallel()

	find := []ID{KnowledgeArticles, OrganizationChart, ConferenceRooms, CustomerAccounts, ExpenseReports}
	for _, id := range find {
		require.True(t, IsFindAnswers(id), id)
	}
	automate := []ID{SoftwareApps, SupportTickets, EmailGroups, TimeOff, ResetPassword}
	for _, id := range automate {
		require.Equal(t, CategoryAutomateTasks, CategoryOf(id), id)
	}
	require.Equal(t, CategoryAdmin, CategoryOf(Admin))
	require.Len(t, All(), len(find)+len(automate)+1)
}

func TestNavGroupsHidesAdminForRegularUsers(t *testing.T) {
	t.Parallel()

	groups := NavGroups(false)
	require.Len(t, groups, 2)
	for _, g := range groups {
		require.NotEqual(t, CategoryAdmin, g.Category)
	}

	groups = NavGroups(true)
	require.Len(t, groups, 3)
	require.Equal(t, Admin, groups[2].Sections[0].ID)
	require.False(t, groups[0].Expanded)
	require.True(t, groups[1].Expanded)
}

func TestParse(t *testing.T) {
	t.Parallel()

	require.Equal(t, TimeOff, Parse("time-off"))
	require.Equal(t, TimeOff, Parse("request time off"))
	require.Equal(t, SupportTickets, Parse("Support Tickets"))
	require.Equal(t, ID("whatever"), Parse(" whatever "))
}

func TestArticlesAndModels(t *testing.T) {
	t.Parallel()

	a, ok := ArticleByID("laptop-refresh")
	require.True(t, ok)
	require.Equal(t, "Sample content for bannertech laptop refresh policy...", a.Body)

	_, ok = ArticleByID("missing")
	require.False(t, ok)

	require.Equal(t, "o3", NextModel(DefaultModel))
	require.Equal(t, DefaultModel, NextModel("Gemini Pro"))
	require.Equal(t, DefaultModel, NextModel("unknown"))
	require.Len(t, SamplePrompts(), 3)
}
