package navigation

import (
	"strings"

	"github.com/fpokrzywa/weaver-live/cli/modules/core/sections"
)

// Snapshot is an immutable view of the Machine. Visibility fields are derived, never stored.
type Snapshot struct {
	ActiveSection        sections.ID          `json:"active_section"`
	Category             sections.Category    `json:"category"`
	Display              sections.Display     `json:"display"`
	Content              sections.ContentKind `json:"content"`
	SidebarCollapsed     bool                 `json:"sidebar_collapsed"`
	MainContentCollapsed bool                 `json:"main_content_collapsed"`
	ShowMainContent      bool                 `json:"show_main_content"`
	ExpandedArticles     []string             `json:"expanded_articles"`

	SidebarVisible       bool `json:"sidebar_visible"`
	MainContentVisible   bool `json:"main_content_visible"`
	AdminVisible         bool `json:"admin_visible"`
	RightPanelVisible    bool `json:"right_panel_visible"`
	RightPanelExpanded   bool `json:"right_panel_expanded"`
	RightPanelFullScreen bool `json:"right_panel_full_screen"`

	SignedIn bool   `json:"signed_in"`
	Email    string `json:"email,omitempty"`
	IsAdmin  bool   `json:"is_admin"`
}

// ArticleExpanded reports whether an article is disclosed
func (s Snapshot) ArticleExpanded(id string) bool {
	for _, a := range s.ExpandedArticles {
		if a == id {
			return true
		}
	}
	return false
}

// Greeting returns the welcome line built from the email local part
func (s Snapshot) Greeting() string {
	if !s.SignedIn || s.Email == "" {
		return "Welcome"
	}
	name, _, _ := strings.Cut(s.Email, "@")
	return "Welcome, " + name
}
