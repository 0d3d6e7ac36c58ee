package navigation

import (
	"fmt"
	"sort"

	"github.com/fpokrzywa/weaver-live/cli/modules/core/sections"
)

// IntentKind names a user action understood by the Machine
type IntentKind string

const (
	IntentSelect            IntentKind = "select"
	IntentToggleMainContent IntentKind = "toggle_main_content"
	IntentCollapseAll       IntentKind = "collapse_all"
	IntentExpandAll         IntentKind = "expand_all"
	IntentToggleArticle     IntentKind = "toggle_article"
)

// Intent is a serialisable user action
type Intent struct {
	Kind    IntentKind  `json:"intent"`
	Section sections.ID `json:"section,omitempty"`
	Article string      `json:"article,omitempty"`
}

// Machine holds the panel layout state shared by the sidebar, main content and right panel.
// It is not safe for concurrent use; adapters serialise access.
type Machine struct {
	active               sections.ID
	sidebarCollapsed     bool
	mainContentCollapsed bool
	showMainContent      bool
	expandedArticles     map[string]struct{}

	signedIn bool
	email    string
	isAdmin  bool
}

// New creates a Machine in its default state
func New() *Machine {
	m := &Machine{}
	m.Reset()
	return m
}

// Reset restores every default, including the signed-out identity
func (m *Machine) Reset() {
	m.active = sections.Default
	m.sidebarCollapsed = false
	m.mainContentCollapsed = false
	m.showMainContent = false
	m.expandedArticles = make(map[string]struct{})
	m.signedIn = false
	m.email = ""
	m.isAdmin = false
}

// SignIn records the identity supplied by the auth collaborator.
// Admins land directly on the admin section. An identity that lost admin
// rights while on the admin section gets the default layout back.
func (m *Machine) SignIn(email string, isAdmin bool) {
	if !isAdmin && m.active == sections.Admin {
		m.Reset()
	}
	m.signedIn = true
	m.email = email
	m.isAdmin = isAdmin
	if isAdmin {
		m.Select(sections.Admin)
	}
}

// SignOut clears the identity and the layout
func (m *Machine) SignOut() {
	m.Reset()
}

// Select makes id the active section and reveals both panels.
// Returns false when id is the admin section and the identity is not an admin.
func (m *Machine) Select(id sections.ID) bool {
	if id == sections.Admin && !m.isAdmin {
		return false
	}
	m.active = id
	m.sidebarCollapsed = false
	m.mainContentCollapsed = false
	m.showMainContent = sections.IsFindAnswers(id)
	return true
}

// ToggleMainContent flips the main content collapse flag
func (m *Machine) ToggleMainContent() {
	m.mainContentCollapsed = !m.mainContentCollapsed
}

// CollapseAll hides the sidebar and the main content
func (m *Machine) CollapseAll() {
	m.sidebarCollapsed = true
	m.mainContentCollapsed = true
}

// ExpandAll shows the sidebar and the main content
func (m *Machine) ExpandAll() {
	m.sidebarCollapsed = false
	m.mainContentCollapsed = false
}

// ToggleArticle flips the disclosure of one article and reports whether it is now expanded
func (m *Machine) ToggleArticle(id string) bool {
	if _, ok := m.expandedArticles[id]; ok {
		delete(m.expandedArticles, id)
		return false
	}
	m.expandedArticles[id] = struct{}{}
	return true
}

// Apply dispatches an intent. Only malformed intents return an error.
func (m *Machine) Apply(in Intent) error {
	switch in.Kind {
	case IntentSelect:
		if in.Section == "" {
			return fmt.Errorf("select intent requires a section")
		}
		m.Select(in.Section)
	case IntentToggleMainContent:
		m.ToggleMainContent()
	case IntentCollapseAll:
		m.CollapseAll()
	case IntentExpandAll:
		m.ExpandAll()
	case IntentToggleArticle:
		if in.Article == "" {
			return fmt.Errorf("toggle_article intent requires an article")
		}
		m.ToggleArticle(in.Article)
	default:
		return fmt.Errorf("unknown intent: %q", in.Kind)
	}
	return nil
}

// Active returns the active section id
func (m *Machine) Active() sections.ID {
	return m.active
}

// IsAdmin reports whether the current identity may reach the admin section
func (m *Machine) IsAdmin() bool {
	return m.isAdmin
}

// Snapshot returns the state together with the derived visibility flags
func (m *Machine) Snapshot() Snapshot {
	expanded := make([]string, 0, len(m.expandedArticles))
	for id := range m.expandedArticles {
		expanded = append(expanded, id)
	}
	sort.Strings(expanded)

	adminActive := m.active == sections.Admin

	return Snapshot{
		ActiveSection:        m.active,
		Category:             sections.CategoryOf(m.active),
		Display:              sections.Describe(m.active),
		Content:              sections.ContentOf(m.active),
		SidebarCollapsed:     m.sidebarCollapsed,
		MainContentCollapsed: m.mainContentCollapsed,
		ShowMainContent:      m.showMainContent,
		ExpandedArticles:     expanded,

		SidebarVisible:       !m.sidebarCollapsed,
		MainContentVisible:   m.showMainContent && !m.mainContentCollapsed && !m.sidebarCollapsed && !adminActive,
		AdminVisible:         adminActive && !m.mainContentCollapsed && !m.sidebarCollapsed,
		RightPanelVisible:    !adminActive,
		RightPanelExpanded:   !m.showMainContent || m.mainContentCollapsed || m.sidebarCollapsed,
		RightPanelFullScreen: m.sidebarCollapsed,

		SignedIn: m.signedIn,
		Email:    m.email,
		IsAdmin:  m.isAdmin,
	}
}
