package sections

import "strings"

// fallback is returned for ids that are not in the table
var fallback = Display{
	Title:       "Knowledge Articles",
	Description: "Find answers to your questions.",
	Icon:        "search",
}

// table is the single source of truth for navigation entries, headers and renderers.
// Order matters: it is the sidebar order.
var table = []Section{
	{ID: KnowledgeArticles, Category: CategoryFindAnswers, Label: "Knowledge articles", Content: ContentArticles, Display: fallback},
	{ID: OrganizationChart, Category: CategoryFindAnswers, Label: "Organization chart", Content: ContentGeneric, Display: Display{
		Title:       "Organization Chart",
		Description: "View and navigate your company's organizational structure with ease.",
		Icon:        "users",
	}},
	{ID: ConferenceRooms, Category: CategoryFindAnswers, Label: "Conference rooms", Content: ContentGeneric, Display: Display{
		Title:       "Conference Rooms",
		Description: "Find and book available conference rooms for your meetings.",
		Icon:        "video",
	}},
	{ID: CustomerAccounts, Category: CategoryFindAnswers, Label: "Customer accounts", Content: ContentGeneric, Display: Display{
		Title:       "Customer Accounts",
		Description: "Access and manage customer account information and details.",
		Icon:        "credit-card",
	}},
	{ID: ExpenseReports, Category: CategoryFindAnswers, Label: "Expense reports", Content: ContentGeneric, Display: Display{
		Title:       "Expense Reports",
		Description: "Submit, track, and manage your expense reports efficiently.",
		Icon:        "receipt",
	}},
	{ID: SoftwareApps, Category: CategoryAutomateTasks, Label: "Get software apps", Content: ContentGeneric, Display: Display{
		Title:       "Get Software Apps",
		Description: "Request and download approved software applications for your work.",
		Icon:        "download",
	}},
	{ID: SupportTickets, Category: CategoryAutomateTasks, Label: "Track and update support tickets", Content: ContentGeneric, Display: Display{
		Title:       "Support Tickets",
		Description: "Track and update your IT support tickets and requests.",
		Icon:        "ticket",
	}},
	{ID: EmailGroups, Category: CategoryAutomateTasks, Label: "Manage email groups", Content: ContentGeneric, Display: Display{
		Title:       "Email Groups",
		Description: "Manage your email group memberships and distribution lists.",
		Icon:        "mail",
	}},
	{ID: TimeOff, Category: CategoryAutomateTasks, Label: "Request time off", Content: ContentGeneric, Display: Display{
		Title:       "Request Time Off",
		Description: "Submit and manage your vacation and time-off requests.",
		Icon:        "calendar",
	}},
	{ID: ResetPassword, Category: CategoryAutomateTasks, Label: "Reset password", Content: ContentGeneric, Display: Display{
		Title:       "Reset Password",
		Description: "Securely reset your passwords for various systems and applications.",
		Icon:        "lock",
	}},
	{ID: Admin, Category: CategoryAdmin, Label: "User Management", Content: ContentAdmin, Display: Display{
		Title:       "User Management",
		Description: "Manage users, roles and permissions.",
		Icon:        "users",
	}},
}

var index = func() map[ID]int {
	m := make(map[ID]int, len(table))
	for i, s := range table {
		m[s.ID] = i
	}
	return m
}()

// Lookup returns the registry row for id
func Lookup(id ID) (Section, bool) {
	i, ok := index[id]
	if !ok {
		return Section{}, false
	}
	return table[i], true
}

// Describe returns the header metadata for id, falling back to the knowledge defaults
func Describe(id ID) Display {
	if s, ok := Lookup(id); ok {
		return s.Display
	}
	return fallback
}

// CategoryOf returns the category of id, or CategoryUnknown
func CategoryOf(id ID) Category {
	if s, ok := Lookup(id); ok {
		return s.Category
	}
	return CategoryUnknown
}

// ContentOf returns the renderer kind for id. Unknown ids render as knowledge articles.
func ContentOf(id ID) ContentKind {
	if s, ok := Lookup(id); ok {
		return s.Content
	}
	return ContentArticles
}

// IsFindAnswers reports whether id belongs to the find-answers group
func IsFindAnswers(id ID) bool {
	return CategoryOf(id) == CategoryFindAnswers
}

// All returns a copy of every section in sidebar order
func All() []Section {
	out := make([]Section, len(table))
	copy(out, table)
	return out
}

// InCategory returns the sections of one category in sidebar order
func InCategory(c Category) []Section {
	var out []Section
	for _, s := range table {
		if s.Category == c {
			out = append(out, s)
		}
	}
	return out
}

// NavGroups returns the sidebar groups. The administration group is only listed for admins.
func NavGroups(isAdmin bool) []Group {
	groups := []Group{
		{Category: CategoryFindAnswers, Title: "Find answers", Expanded: false, Sections: InCategory(CategoryFindAnswers)},
		{Category: CategoryAutomateTasks, Title: "Automate tasks", Expanded: true, Sections: InCategory(CategoryAutomateTasks)},
	}
	if isAdmin {
		groups = append(groups, Group{Category: CategoryAdmin, Title: "Administration", Expanded: true, Sections: InCategory(CategoryAdmin)})
	}
	return groups
}

// Parse resolves user input (id or label, case-insensitive) to a section id.
// Unrecognised input is returned as-is so callers can still select it.
func Parse(s string) ID {
	s = strings.TrimSpace(s)
	if _, ok := index[ID(s)]; ok {
		return ID(s)
	}
	for _, row := range table {
		if strings.EqualFold(row.Label, s) || strings.EqualFold(row.Title, s) || strings.EqualFold(string(row.ID), s) {
			return row.ID
		}
	}
	return ID(s)
}
