package core

import (
	"strconv"

	"github.com/fpokrzywa/weaver-live/cli/modules/core/sections"
)

// EventType identifies the type of UI event
type EventType string

const (
	// Screen events
	EventNavigate EventType = "navigate"
	EventBack     EventType = "back"
	EventRefresh  EventType = "refresh"
	EventQuit     EventType = "quit"

	// Identity events
	EventSignIn        EventType = "sign_in"
	EventSignOut       EventType = "sign_out"
	EventSubmitContact EventType = "submit_contact"

	// Panel layout events
	EventSelectSection     EventType = "select_section"
	EventToggleMainContent EventType = "toggle_main_content"
	EventCollapseAll       EventType = "collapse_all"
	EventExpandAll         EventType = "expand_all"
	EventToggleArticle     EventType = "toggle_article"
	EventToggleGroup       EventType = "toggle_group"

	// Right panel events
	EventTogglePrompts EventType = "toggle_prompts"
	EventSelectModel   EventType = "select_model"
	EventSetQuery      EventType = "set_query"
	EventUsePrompt     EventType = "use_prompt"

	// Admin console events
	EventAdminTab         EventType = "admin_tab"
	EventFilter           EventType = "filter"
	EventToggleUserActive EventType = "toggle_user_active"
	EventDeleteUser       EventType = "delete_user"
	EventDeleteRole       EventType = "delete_role"
)

// Event represents a user action in the UI
type Event struct {
	Type   EventType         `json:"type"`
	Target string            `json:"target,omitempty"` // View, section, article or record id
	Value  interface{}       `json:"value,omitempty"`  // Generic payload
	Data   map[string]string `json:"data,omitempty"`   // Additional data
}

// NewEvent creates a new event
func NewEvent(eventType EventType) *Event {
	return &Event{
		Type: eventType,
		Data: make(map[string]string),
	}
}

// WithTarget sets the target
func (e *Event) WithTarget(target string) *Event {
	e.Target = target
	return e
}

// WithValue sets the value
func (e *Event) WithValue(value interface{}) *Event {
	e.Value = value
	return e
}

// WithData adds data key-value pairs
func (e *Event) WithData(key, value string) *Event {
	if e.Data == nil {
		e.Data = make(map[string]string)
	}
	e.Data[key] = value
	return e
}

// TargetID parses the target as a record id
func (e *Event) TargetID() (int64, bool) {
	id, err := strconv.ParseInt(e.Target, 10, 64)
	return id, err == nil && id > 0
}

// StringValue returns the value when it is a string
func (e *Event) StringValue() string {
	s, _ := e.Value.(string)
	return s
}

// ============================================
// Notification events (from presenter to view)
// ============================================

// NotificationType identifies the type of notification
type NotificationType string

const (
	NotifyInfo    NotificationType = "info"
	NotifySuccess NotificationType = "success"
	NotifyWarning NotificationType = "warning"
	NotifyError   NotificationType = "error"
)

// Notification represents a message to display to the user
type Notification struct {
	Type        NotificationType `json:"type"`
	Title       string           `json:"title"`
	Message     string           `json:"message"`
	Duration    int              `json:"duration"` // seconds, 0 = persistent
	Dismissable bool             `json:"dismissable"`
}

// NewNotification creates a new notification
func NewNotification(ntype NotificationType, title, message string) *Notification {
	return &Notification{
		Type:        ntype,
		Title:       title,
		Message:     message,
		Duration:    5,
		Dismissable: true,
	}
}

// ============================================
// State update events (from presenter to view)
// ============================================

// StateUpdate represents a state change notification
type StateUpdate struct {
	ViewType  ViewModelType `json:"view_type"`
	ViewModel ViewModel     `json:"view_model"`
	Partial   bool          `json:"partial"` // If true, merge with existing state
}

// ============================================
// Common event helpers
// ============================================

// NavigateEvent creates a navigation event
func NavigateEvent(target ViewModelType) *Event {
	return NewEvent(EventNavigate).WithTarget(string(target))
}

// SelectSectionEvent selects a section in the sidebar
func SelectSectionEvent(id sections.ID) *Event {
	return NewEvent(EventSelectSection).WithTarget(string(id))
}

// SignInEvent submits the sign-in form
func SignInEvent(email, password string) *Event {
	return NewEvent(EventSignIn).WithData("email", email).WithData("password", password)
}

// ContactEvent submits the get-started form
func ContactEvent(c ContactRequest) *Event {
	return NewEvent(EventSubmitContact).
		WithData("name", c.Name).
		WithData("email", c.Email).
		WithData("company", c.Company).
		WithData("message", c.Message)
}

// FilterEvent creates a filter event
func FilterEvent(filterText string) *Event {
	return NewEvent(EventFilter).WithValue(filterText)
}
