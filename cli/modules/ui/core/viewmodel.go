package core

import (
	"time"

	"github.com/fpokrzywa/weaver-live/cli/modules/core/accounts"
	"github.com/fpokrzywa/weaver-live/cli/modules/core/navigation"
	"github.com/fpokrzywa/weaver-live/cli/modules/core/sections"
)

// ViewModelType identifies the type of view model
type ViewModelType string

const (
	VMLanding    ViewModelType = "landing"
	VMSignIn     ViewModelType = "signin"
	VMGetStarted ViewModelType = "get_started"
	VMWorkspace  ViewModelType = "workspace"
	VMAdmin      ViewModelType = "admin"
	VMLogs       ViewModelType = "logs"
)

// ViewModel is the base interface for all view models
type ViewModel interface {
	Type() ViewModelType
	LastUpdated() time.Time
}

// BaseViewModel provides common fields for all view models
type BaseViewModel struct {
	VMType    ViewModelType `json:"type"`
	UpdatedAt time.Time     `json:"updated_at"`
	Error     string        `json:"error,omitempty"`
	IsLoading bool          `json:"is_loading"`
}

func (vm *BaseViewModel) Type() ViewModelType    { return vm.VMType }
func (vm *BaseViewModel) LastUpdated() time.Time { return vm.UpdatedAt }

// FeatureVM is one card of the landing page
type FeatureVM struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// LandingVM is the marketing page shown before sign-in
type LandingVM struct {
	BaseViewModel
	Headline string      `json:"headline"`
	Tagline  string      `json:"tagline"`
	Features []FeatureVM `json:"features"`
}

// SignInVM is the state of the sign-in form
type SignInVM struct {
	BaseViewModel
	Email string `json:"email"`
}

// GetStartedVM is the state of the contact form
type GetStartedVM struct {
	BaseViewModel
	Submitted bool   `json:"submitted"`
	Name      string `json:"name,omitempty"`
}

// NavItemVM is one sidebar entry
type NavItemVM struct {
	ID     sections.ID `json:"id"`
	Label  string      `json:"label"`
	Icon   string      `json:"icon"`
	Active bool        `json:"active"`
}

// NavGroupVM is a collapsible sidebar group
type NavGroupVM struct {
	Category sections.Category `json:"category"`
	Title    string            `json:"title"`
	Expanded bool              `json:"expanded"`
	Items    []NavItemVM       `json:"items"`
}

// ArticleVM is a knowledge article disclosure
type ArticleVM struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Body     string `json:"body"`
	Expanded bool   `json:"expanded"`
}

// WorkspaceVM is the three-panel application screen
type WorkspaceVM struct {
	BaseViewModel
	Nav      navigation.Snapshot `json:"nav"`
	Greeting string              `json:"greeting"`
	Groups   []NavGroupVM        `json:"groups"`

	// Main content
	Display  sections.Display     `json:"display"`
	Content  sections.ContentKind `json:"content"`
	Articles []ArticleVM          `json:"articles,omitempty"`

	// Right panel
	ShowPrompts bool     `json:"show_prompts"`
	Prompts     []string `json:"prompts"`
	Model       string   `json:"model"`
	Query       string   `json:"query"`
}

// AdminTab selects the admin table
type AdminTab string

const (
	TabUsers AdminTab = "users"
	TabRoles AdminTab = "roles"
)

// UserVM is a user row of the admin console
type UserVM struct {
	ID        int64      `json:"id"`
	Email     string     `json:"email"`
	Name      string     `json:"name"`
	Role      string     `json:"role"`
	IsActive  bool       `json:"is_active"`
	LastLogin *time.Time `json:"last_login,omitempty"`
}

// RoleVM is a role row of the admin console
type RoleVM struct {
	ID          int64    `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Permissions []string `json:"permissions"`
	UserCount   int      `json:"user_count"`
}

// AdminVM is the user management console
type AdminVM struct {
	BaseViewModel
	Tab           AdminTab `json:"tab"`
	Query         string   `json:"query"`
	Users         []UserVM `json:"users"`
	Roles         []RoleVM `json:"roles"`
	SelectedIndex int      `json:"selected_index"`
}

// LogLineVM represents a log line for display
type LogLineVM struct {
	Timestamp time.Time `json:"timestamp"`
	TimeStr   string    `json:"time"`
	Source    string    `json:"source"`
	Level     string    `json:"level"`
	Message   string    `json:"message"`
}

// LogsVM holds the recent log lines
type LogsVM struct {
	BaseViewModel
	Lines    []LogLineVM `json:"lines"`
	MaxLines int         `json:"max_lines"`
}

func userToVM(u accounts.User) UserVM {
	return UserVM{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.FullName(),
		Role:      u.RoleName,
		IsActive:  u.IsActive,
		LastLogin: u.LastLogin,
	}
}

func roleToVM(r accounts.Role, users []accounts.User) RoleVM {
	count := 0
	for _, u := range users {
		if u.RoleID == r.ID {
			count++
		}
	}
	return RoleVM{
		ID:          r.ID,
		Name:        r.Name,
		Description: r.Description,
		Permissions: r.Permissions,
		UserCount:   count,
	}
}
