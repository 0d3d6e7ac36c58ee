package core

import (
	"sync"
	"time"
)

// AppState represents the global application state
type AppState struct {
	mu sync.RWMutex

	// Current screen
	CurrentView ViewModelType

	// View models (cached)
	Landing    *LandingVM
	SignIn     *SignInVM
	GetStarted *GetStartedVM
	Workspace  *WorkspaceVM
	Admin      *AdminVM
	Logs       *LogsVM

	// Global state
	LastRefresh   time.Time
	Notifications []*Notification
}

// NewAppState creates a new application state
func NewAppState() *AppState {
	return &AppState{
		CurrentView:   VMLanding,
		Landing:       newLandingVM(),
		SignIn:        &SignInVM{BaseViewModel: BaseViewModel{VMType: VMSignIn}},
		GetStarted:    &GetStartedVM{BaseViewModel: BaseViewModel{VMType: VMGetStarted}},
		Workspace:     &WorkspaceVM{BaseViewModel: BaseViewModel{VMType: VMWorkspace}},
		Admin:         &AdminVM{BaseViewModel: BaseViewModel{VMType: VMAdmin}, Tab: TabUsers},
		Logs:          &LogsVM{BaseViewModel: BaseViewModel{VMType: VMLogs}, MaxLines: 500},
		Notifications: make([]*Notification, 0),
	}
}

func newLandingVM() *LandingVM {
	return &LandingVM{
		BaseViewModel: BaseViewModel{VMType: VMLanding},
		Headline:      "Transform Your Workplace",
		Tagline: "Agentic Weaver revolutionizes how employees find answers, automate tasks, and collaborate. " +
			"Experience the future of workplace productivity with intelligent AI assistance.",
		Features: []FeatureVM{
			{Title: "AI-Powered Intelligence", Description: "Advanced AI that understands context and provides intelligent responses to complex queries."},
			{Title: "Lightning Fast", Description: "Get instant answers and automate tasks with unprecedented speed and efficiency."},
			{Title: "Enterprise Security", Description: "Bank-level security with role-based access control and data encryption."},
			{Title: "Team Collaboration", Description: "Seamlessly integrate with your existing workflows and team processes."},
		},
	}
}

func (s *AppState) viewModel(t ViewModelType) ViewModel {
	switch t {
	case VMLanding:
		return s.Landing
	case VMSignIn:
		return s.SignIn
	case VMGetStarted:
		return s.GetStarted
	case VMWorkspace:
		return s.Workspace
	case VMAdmin:
		return s.Admin
	case VMLogs:
		return s.Logs
	default:
		return nil
	}
}

// SetCurrentView changes the current view
func (s *AppState) SetCurrentView(view ViewModelType) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.CurrentView = view
}

// GetCurrentView returns the current view
func (s *AppState) GetCurrentView() ViewModelType {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.CurrentView
}

// UpdateViewModel updates a specific view model
func (s *AppState) UpdateViewModel(vm ViewModel) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch v := vm.(type) {
	case *LandingVM:
		s.Landing = v
	case *SignInVM:
		s.SignIn = v
	case *GetStartedVM:
		s.GetStarted = v
	case *WorkspaceVM:
		s.Workspace = v
	case *AdminVM:
		s.Admin = v
	case *LogsVM:
		s.Logs = v
	}
}

// AppendLog adds a line to the log view, dropping the oldest beyond MaxLines
func (s *AppState) AppendLog(line LogLineVM) {
	s.mu.Lock()
	defer s.mu.Unlock()

	lines := append(s.Logs.Lines, line)
	if max := s.Logs.MaxLines; max > 0 && len(lines) > max {
		lines = lines[len(lines)-max:]
	}
	s.Logs = &LogsVM{
		BaseViewModel: BaseViewModel{VMType: VMLogs, UpdatedAt: time.Now()},
		Lines:         lines,
		MaxLines:      s.Logs.MaxLines,
	}
}

// AddNotification adds a notification
func (s *AppState) AddNotification(n *Notification) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Notifications = append(s.Notifications, n)
}

// ============================================
// State selectors (for views to query state)
// ============================================

// SelectNotifications returns all notifications
func SelectNotifications(state *AppState) []*Notification {
	state.mu.RLock()
	defer state.mu.RUnlock()
	return state.Notifications
}

// SelectUserByID returns an admin row by id
func SelectUserByID(state *AppState, id int64) *UserVM {
	state.mu.RLock()
	defer state.mu.RUnlock()
	if state.Admin == nil {
		return nil
	}
	for _, u := range state.Admin.Users {
		if u.ID == id {
			return &u
		}
	}
	return nil
}

// SelectInactiveUsers returns the disabled accounts
func SelectInactiveUsers(state *AppState) []UserVM {
	state.mu.RLock()
	defer state.mu.RUnlock()
	if state.Admin == nil {
		return nil
	}
	var out []UserVM
	for _, u := range state.Admin.Users {
		if !u.IsActive {
			out = append(out, u)
		}
	}
	return out
}
