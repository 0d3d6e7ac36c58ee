package sections

import "strings"

var articles = []Article{
	{ID: "us-leave", Title: "US Leave Policies"},
	{ID: "india-leave", Title: "India Leave Policies"},
	{ID: "laptop-refresh", Title: "BannerTech Laptop Refresh Policy"},
	{ID: "printer-troubleshooting", Title: "Troubleshooting Printers"},
	{ID: "travel-expense", Title: "Global Travel & Expense Policy"},
	{ID: "workday-update", Title: "How to Update Personal Information in Workday"},
}

// Articles returns the knowledge articles with their sample bodies
func Articles() []Article {
	out := make([]Article, len(articles))
	for i, a := range articles {
		a.Body = "Sample content for " + strings.ToLower(a.Title) + "..."
		out[i] = a
	}
	return out
}

// ArticleByID finds an article by id
func ArticleByID(id string) (Article, bool) {
	for _, a := range Articles() {
		if a.ID == id {
			return a, true
		}
	}
	return Article{}, false
}

// SamplePrompts are offered by the right panel
func SamplePrompts() []string {
	return []string{
		"What is our vacation policy?",
		"How do I request time off?",
		"When can I get a laptop refresh?",
	}
}

// DefaultModel is preselected in the model selector
const DefaultModel = "GPT-4o"

// Models returns the assistant models, main ones first
func Models() []Model {
	return []Model{
		{Name: "GPT-4o", Description: "Great for most tasks"},
		{Name: "o3", Description: "Uses advanced reasoning"},
		{Name: "o3-pro", Description: "Best at reasoning"},
		{Name: "o4-mini", Description: "Fastest at advanced reasoning"},
		{Name: "o4-mini-high", Description: "Great at coding and visual reasoning"},
		{Name: "GPT-3.5 Turbo", Description: "Fast and efficient", More: true},
		{Name: "Claude 3.5 Sonnet", Description: "Excellent for creative writing", More: true},
		{Name: "Gemini Pro", Description: "Strong multimodal capabilities", More: true},
	}
}

// NextModel returns the model after current, wrapping around
func NextModel(current string) string {
	models := Models()
	for i, m := range models {
		if m.Name == current {
			return models[(i+1)%len(models)].Name
		}
	}
	return DefaultModel
}
