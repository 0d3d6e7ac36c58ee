package sections

// ID identifies a navigable section
type ID string

const (
	KnowledgeArticles ID = "knowledge-articles"
	OrganizationChart ID = "organization-chart"
	ConferenceRooms   ID = "conference-rooms"
	CustomerAccounts  ID = "customer-accounts"
	ExpenseReports    ID = "expense-reports"
	SoftwareApps      ID = "software-apps"
	SupportTickets    ID = "support-tickets"
	EmailGroups       ID = "email-groups"
	TimeOff           ID = "time-off"
	ResetPassword     ID = "reset-password"
	Admin             ID = "admin"
)

// Default is the section shown before any selection and after sign-out
const Default = KnowledgeArticles

// Category groups sections in the sidebar
type Category string

const (
	CategoryFindAnswers   Category = "find-answers"
	CategoryAutomateTasks Category = "automate-tasks"
	CategoryAdmin         Category = "admin"
	CategoryUnknown       Category = ""
)

// ContentKind selects how the main area renders a section
type ContentKind string

const (
	ContentArticles ContentKind = "articles"
	ContentGeneric  ContentKind = "generic"
	ContentAdmin    ContentKind = "admin"
)

// Display is the header metadata of a section
type Display struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

// Section is one row of the registry
type Section struct {
	ID       ID          `json:"id"`
	Category Category    `json:"category"`
	Label    string      `json:"label"` // Sidebar label
	Content  ContentKind `json:"content"`
	Display
}

// Group is a titled block of sidebar entries
type Group struct {
	Category Category  `json:"category"`
	Title    string    `json:"title"`
	Expanded bool      `json:"expanded"` // Initial disclosure state
	Sections []Section `json:"sections"`
}

// Article is a knowledge article listed under the knowledge section
type Article struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Body  string `json:"body"`
}

// Model is an assistant model offered by the right panel
type Model struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	More        bool   `json:"more,omitempty"` // Listed under "More models"
}
