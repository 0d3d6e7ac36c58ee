package core

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/fpokrzywa/weaver-live/cli/modules/core/accounts"
	"github.com/fpokrzywa/weaver-live/cli/modules/core/navigation"
	"github.com/fpokrzywa/weaver-live/cli/modules/core/sections"
	"github.com/fpokrzywa/weaver-live/cli/modules/platform/auth"
	"github.com/fpokrzywa/weaver-live/cli/modules/platform/eventbus"
	"github.com/fpokrzywa/weaver-live/cli/modules/platform/logger"
)

// ErrNotAdmin is returned for admin console events from a non-admin session
var ErrNotAdmin = errors.New("administrator access required")

// AppPresenter is the main presenter implementation.
// It owns the navigation Machine and renders every panel from the same Snapshot.
type AppPresenter struct {
	mu sync.RWMutex

	// Collaborators
	authn     Authenticator
	directory AccountDirectory
	bus       *eventbus.Bus

	// Navigation and right panel state
	nav         *navigation.Machine
	session     *auth.Session
	groups      map[sections.Category]bool
	showPrompts bool
	model       string
	query       string

	// State
	state *AppState
	subID string

	// Callbacks
	stateCallbacks        []func(StateUpdate)
	notificationCallbacks []func(*Notification)

	// Context
	ctx    context.Context
	cancel context.CancelFunc
}

// NewAppPresenter creates a new application presenter. bus may be nil.
func NewAppPresenter(authn Authenticator, directory AccountDirectory, bus *eventbus.Bus) *AppPresenter {
	p := &AppPresenter{
		authn:                 authn,
		directory:             directory,
		bus:                   bus,
		nav:                   navigation.New(),
		model:                 sections.DefaultModel,
		state:                 NewAppState(),
		stateCallbacks:        make([]func(StateUpdate), 0),
		notificationCallbacks: make([]func(*Notification), 0),
		ctx:                   context.Background(),
	}
	p.resetGroups(false)
	return p
}

// SetDefaultModel overrides the model preselected in the right panel
func (p *AppPresenter) SetDefaultModel(name string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, m := range sections.Models() {
		if m.Name == name {
			p.model = name
			return
		}
	}
}

// Initialize sets up the presenter
func (p *AppPresenter) Initialize(ctx context.Context) error {
	p.ctx, p.cancel = context.WithCancel(ctx)

	if p.bus != nil {
		p.subID = p.bus.Subscribe([]eventbus.EventType{eventbus.EventLogLine, eventbus.EventAccountsUpdated}, p.handleBusEvent)
	}

	p.refreshWorkspace()
	p.broadcastFullState()
	return nil
}

// broadcastFullState sends the current full state to all subscribers
func (p *AppPresenter) broadcastFullState() {
	for _, viewType := range []ViewModelType{VMLanding, VMSignIn, VMGetStarted, VMWorkspace, VMAdmin, VMLogs} {
		vm, _ := p.GetViewModel(viewType)
		if vm != nil {
			p.notifyStateUpdate(viewType, vm)
		}
	}
}

// HandleEvent processes a user event
func (p *AppPresenter) HandleEvent(event *Event) error {
	switch event.Type {
	// Screens
	case EventNavigate:
		return p.handleNavigate(event)
	case EventBack:
		return p.handleBack()
	case EventRefresh:
		return p.Refresh()
	case EventQuit:
		return p.Shutdown()

	// Identity
	case EventSignIn:
		return p.handleSignIn(event)
	case EventSignOut:
		return p.handleSignOut()
	case EventSubmitContact:
		return p.handleSubmitContact(event)

	// Panel layout
	case EventSelectSection:
		return p.handleSelectSection(event)
	case EventToggleMainContent:
		return p.withNav(func(m *navigation.Machine) { m.ToggleMainContent() })
	case EventCollapseAll:
		return p.withNav(func(m *navigation.Machine) { m.CollapseAll() })
	case EventExpandAll:
		return p.withNav(func(m *navigation.Machine) { m.ExpandAll() })
	case EventToggleArticle:
		if event.Target == "" {
			return fmt.Errorf("toggle_article requires an article id")
		}
		return p.withNav(func(m *navigation.Machine) { m.ToggleArticle(event.Target) })
	case EventToggleGroup:
		return p.handleToggleGroup(event)

	// Right panel
	case EventTogglePrompts:
		return p.withNav(func(*navigation.Machine) { p.showPrompts = !p.showPrompts })
	case EventSelectModel:
		return p.handleSelectModel(event)
	case EventSetQuery:
		return p.withNav(func(*navigation.Machine) { p.query = event.StringValue() })
	case EventUsePrompt:
		return p.handleUsePrompt(event)

	// Admin console
	case EventAdminTab:
		return p.handleAdminTab(event)
	case EventFilter:
		return p.handleFilter(event)
	case EventToggleUserActive:
		return p.handleToggleUserActive(event)
	case EventDeleteUser:
		return p.handleDeleteUser(event)
	case EventDeleteRole:
		return p.handleDeleteRole(event)

	default:
		return fmt.Errorf("unknown event type: %s", event.Type)
	}
}

// GetViewModel returns the view model for a view type
func (p *AppPresenter) GetViewModel(viewType ViewModelType) (ViewModel, error) {
	p.state.mu.RLock()
	defer p.state.mu.RUnlock()

	vm := p.state.viewModel(viewType)
	if vm == nil {
		return nil, fmt.Errorf("unknown view type: %s", viewType)
	}
	return vm, nil
}

// CurrentView returns the screen the view should render
func (p *AppPresenter) CurrentView() ViewModelType {
	return p.state.GetCurrentView()
}

// Snapshot returns the navigation state
func (p *AppPresenter) Snapshot() navigation.Snapshot {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.nav.Snapshot()
}

// Session returns the signed-in session, if any
func (p *AppPresenter) Session() *auth.Session {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.session
}

// Subscribe registers a callback for state updates
func (p *AppPresenter) Subscribe(callback func(StateUpdate)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stateCallbacks = append(p.stateCallbacks, callback)
}

// SubscribeNotifications registers a callback for notifications
func (p *AppPresenter) SubscribeNotifications(callback func(*Notification)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.notificationCallbacks = append(p.notificationCallbacks, callback)
}

// Refresh forces a refresh of all data
func (p *AppPresenter) Refresh() error {
	p.refreshWorkspace()
	if p.Snapshot().IsAdmin {
		if err := p.refreshAdmin(); err != nil {
			return err
		}
	}

	p.state.mu.Lock()
	p.state.LastRefresh = time.Now()
	p.state.mu.Unlock()
	return nil
}

// Shutdown cleans up resources
func (p *AppPresenter) Shutdown() error {
	if p.cancel != nil {
		p.cancel()
	}
	if p.bus != nil && p.subID != "" {
		p.bus.Unsubscribe(p.subID)
		p.subID = ""
	}
	return nil
}

// GetState returns the full application state
func (p *AppPresenter) GetState() *AppState {
	return p.state
}

// ============================================
// Private handlers
// ============================================

func (p *AppPresenter) handleNavigate(event *Event) error {
	target := ViewModelType(event.Target)
	switch target {
	case VMLanding, VMSignIn, VMGetStarted:
	case VMWorkspace:
		if !p.Snapshot().SignedIn {
			target = VMSignIn
		}
	default:
		return fmt.Errorf("cannot navigate to %q", event.Target)
	}

	p.setView(target)
	return nil
}

func (p *AppPresenter) handleBack() error {
	switch p.state.GetCurrentView() {
	case VMSignIn, VMGetStarted:
		p.setView(VMLanding)
	}
	return nil
}

func (p *AppPresenter) setView(target ViewModelType) {
	p.state.SetCurrentView(target)
	vm, _ := p.GetViewModel(target)
	p.notifyStateUpdate(target, vm)
}

func (p *AppPresenter) handleSignIn(event *Event) error {
	email := strings.TrimSpace(event.Data["email"])
	password := event.Data["password"]

	var session *auth.Session
	var err error
	if p.authn == nil {
		err = fmt.Errorf("authentication is not configured")
	} else {
		session, err = p.authn.Login(p.ctx, email, password)
	}
	if err != nil {
		p.state.UpdateViewModel(&SignInVM{
			BaseViewModel: BaseViewModel{VMType: VMSignIn, UpdatedAt: time.Now(), Error: signInMessage(err)},
			Email:         email,
		})
		p.setView(VMSignIn)
		logger.Warn("Sign-in failed for %s: %v", email, err)
		return nil
	}

	p.mu.Lock()
	p.session = session
	p.nav.SignIn(session.User.Email, session.Identity.IsAdmin)
	p.resetGroups(session.Identity.IsAdmin)
	p.mu.Unlock()

	p.state.UpdateViewModel(&SignInVM{BaseViewModel: BaseViewModel{VMType: VMSignIn}})
	logger.Info("Signed in %s (admin=%t)", session.User.Email, session.Identity.IsAdmin)

	if p.bus != nil {
		p.bus.Publish(eventbus.NewEvent(eventbus.EventSignedIn).
			WithSource("presenter").
			WithData("email", session.User.Email).
			WithData("is_admin", session.Identity.IsAdmin))
	}

	if session.Identity.IsAdmin {
		if err := p.refreshAdmin(); err != nil {
			p.notify(NotifyError, "Admin", err.Error())
		}
	}
	p.refreshWorkspace()
	p.setView(VMWorkspace)
	return nil
}

// signInMessage maps auth errors to what the form shows
func signInMessage(err error) string {
	switch {
	case errors.Is(err, auth.ErrMissingCredentials):
		return "Email and password are required"
	case errors.Is(err, auth.ErrInvalidCredentials):
		return "Invalid credentials"
	case errors.Is(err, auth.ErrAccountDisabled):
		return "Account is disabled"
	default:
		return "Sign in failed"
	}
}

func (p *AppPresenter) handleSignOut() error {
	p.mu.Lock()
	email := ""
	if p.session != nil {
		email = p.session.User.Email
	}
	p.session = nil
	p.nav.SignOut()
	p.resetGroups(false)
	p.showPrompts = false
	p.query = ""
	p.mu.Unlock()

	p.state.UpdateViewModel(&AdminVM{BaseViewModel: BaseViewModel{VMType: VMAdmin}, Tab: TabUsers})
	if email != "" {
		logger.Info("Signed out %s", email)
	}
	if p.bus != nil {
		p.bus.Publish(eventbus.NewEvent(eventbus.EventSignedOut).WithSource("presenter"))
	}

	p.refreshWorkspace()
	p.setView(VMLanding)
	return nil
}

func (p *AppPresenter) handleSubmitContact(event *Event) error {
	req := contactFromEvent(event)
	if errs := req.Validate(); len(errs) > 0 {
		msgs := make([]string, 0, len(errs))
		for _, field := range []string{"name", "email", "message"} {
			if m, ok := errs[field]; ok {
				msgs = append(msgs, m)
			}
		}
		p.state.UpdateViewModel(&GetStartedVM{
			BaseViewModel: BaseViewModel{VMType: VMGetStarted, UpdatedAt: time.Now(), Error: strings.Join(msgs, "; ")},
			Name:          req.Name,
		})
		p.setView(VMGetStarted)
		return nil
	}

	logger.Info("Get started request from %s <%s> (%s): %s", req.Name, req.Email, req.Company, req.Message)
	p.state.UpdateViewModel(&GetStartedVM{
		BaseViewModel: BaseViewModel{VMType: VMGetStarted, UpdatedAt: time.Now()},
		Submitted:     true,
		Name:          req.Name,
	})
	p.notify(NotifySuccess, "Get started", "Thank you for your interest! We will contact you soon.")
	p.setView(VMLanding)
	return nil
}

func (p *AppPresenter) handleSelectSection(event *Event) error {
	id := sections.Parse(event.Target)
	if id == "" {
		return fmt.Errorf("select_section requires a section id")
	}

	p.mu.Lock()
	ok := p.nav.Select(id)
	p.mu.Unlock()

	if !ok {
		p.notify(NotifyWarning, "Administration", "Administrator access required")
		return nil
	}
	if id == sections.Admin {
		if err := p.refreshAdmin(); err != nil {
			p.notify(NotifyError, "Admin", err.Error())
		}
	}
	p.refreshWorkspace()
	return nil
}

// withNav applies fn under the lock and re-renders the workspace
func (p *AppPresenter) withNav(fn func(m *navigation.Machine)) error {
	p.mu.Lock()
	fn(p.nav)
	p.mu.Unlock()

	p.refreshWorkspace()
	return nil
}

func (p *AppPresenter) handleToggleGroup(event *Event) error {
	c := sections.Category(event.Target)
	return p.withNav(func(m *navigation.Machine) {
		if _, ok := p.groups[c]; ok {
			p.groups[c] = !p.groups[c]
		}
	})
}

func (p *AppPresenter) handleSelectModel(event *Event) error {
	name := event.StringValue()
	if name == "" {
		return p.withNav(func(*navigation.Machine) { p.model = sections.NextModel(p.model) })
	}
	for _, m := range sections.Models() {
		if strings.EqualFold(m.Name, name) {
			return p.withNav(func(*navigation.Machine) { p.model = m.Name })
		}
	}
	return fmt.Errorf("unknown model: %s", name)
}

func (p *AppPresenter) handleUsePrompt(event *Event) error {
	prompts := sections.SamplePrompts()
	i, err := strconv.Atoi(event.Target)
	if err != nil || i < 0 || i >= len(prompts) {
		return fmt.Errorf("no sample prompt %q", event.Target)
	}
	return p.withNav(func(*navigation.Machine) { p.query = prompts[i] })
}

func (p *AppPresenter) resetGroups(isAdmin bool) {
	p.groups = make(map[sections.Category]bool)
	for _, g := range sections.NavGroups(isAdmin) {
		p.groups[g.Category] = g.Expanded
	}
}

// ============================================
// Admin console
// ============================================

func (p *AppPresenter) requireAdmin() error {
	if !p.Snapshot().IsAdmin {
		return ErrNotAdmin
	}
	if p.directory == nil {
		return fmt.Errorf("account directory is not configured")
	}
	return nil
}

func (p *AppPresenter) handleAdminTab(event *Event) error {
	tab := AdminTab(event.Target)
	if tab != TabUsers && tab != TabRoles {
		return fmt.Errorf("unknown admin tab: %s", event.Target)
	}

	p.state.mu.Lock()
	admin := *p.state.Admin
	admin.Tab = tab
	admin.SelectedIndex = 0
	p.state.Admin = &admin
	p.state.mu.Unlock()

	p.notifyStateUpdate(VMAdmin, &admin)
	return nil
}

func (p *AppPresenter) handleFilter(event *Event) error {
	if err := p.requireAdmin(); err != nil {
		return err
	}
	p.state.mu.Lock()
	admin := *p.state.Admin
	admin.Query = event.StringValue()
	p.state.Admin = &admin
	p.state.mu.Unlock()

	return p.refreshAdmin()
}

func (p *AppPresenter) handleToggleUserActive(event *Event) error {
	if err := p.requireAdmin(); err != nil {
		return err
	}
	id, ok := event.TargetID()
	if !ok {
		return fmt.Errorf("invalid user id %q", event.Target)
	}
	row := SelectUserByID(p.state, id)
	if row == nil {
		return accounts.ErrUserNotFound
	}
	if s := p.Session(); s != nil && s.User.ID == id && row.IsActive {
		p.notify(NotifyWarning, "Users", "You cannot disable your own account")
		return nil
	}

	u, err := p.directory.SetUserActive(p.ctx, id, !row.IsActive)
	if err != nil {
		p.notify(NotifyError, "Users", err.Error())
		return err
	}
	state := "disabled"
	if u.IsActive {
		state = "enabled"
	}
	p.notify(NotifySuccess, "Users", fmt.Sprintf("%s %s", u.Email, state))
	return p.accountsChanged()
}

func (p *AppPresenter) handleDeleteUser(event *Event) error {
	if err := p.requireAdmin(); err != nil {
		return err
	}
	id, ok := event.TargetID()
	if !ok {
		return fmt.Errorf("invalid user id %q", event.Target)
	}
	if s := p.Session(); s != nil && s.User.ID == id {
		p.notify(NotifyWarning, "Users", "You cannot delete your own account")
		return nil
	}

	if err := p.directory.DeleteUser(p.ctx, id); err != nil {
		p.notify(NotifyError, "Users", err.Error())
		return err
	}
	p.notify(NotifySuccess, "Users", "User deleted successfully")
	return p.accountsChanged()
}

func (p *AppPresenter) handleDeleteRole(event *Event) error {
	if err := p.requireAdmin(); err != nil {
		return err
	}
	id, ok := event.TargetID()
	if !ok {
		return fmt.Errorf("invalid role id %q", event.Target)
	}

	if err := p.directory.DeleteRole(p.ctx, id); err != nil {
		msg := err.Error()
		if errors.Is(err, accounts.ErrRoleInUse) {
			msg = "Cannot delete role that is assigned to users"
		}
		p.notify(NotifyError, "Roles", msg)
		return err
	}
	p.notify(NotifySuccess, "Roles", "Role deleted successfully")
	return p.accountsChanged()
}

// accountsChanged reloads the console and tells other listeners
func (p *AppPresenter) accountsChanged() error {
	if p.bus != nil {
		p.bus.Publish(eventbus.NewEvent(eventbus.EventAccountsUpdated).WithSource("presenter"))
		return nil
	}
	return p.refreshAdmin()
}

func (p *AppPresenter) handleBusEvent(e *eventbus.Event) {
	switch e.Type {
	case eventbus.EventLogLine:
		p.state.AppendLog(LogLineVM{
			Timestamp: e.Timestamp,
			TimeStr:   e.String("time"),
			Source:    e.Source,
			Level:     e.String("level"),
			Message:   e.String("message"),
		})
		vm, _ := p.GetViewModel(VMLogs)
		p.notifyStateUpdate(VMLogs, vm)
	case eventbus.EventAccountsUpdated:
		if p.Snapshot().IsAdmin {
			if err := p.refreshAdmin(); err != nil {
				p.notify(NotifyError, "Admin", err.Error())
			}
		}
	}
}

// ============================================
// View model builders
// ============================================

func (p *AppPresenter) refreshWorkspace() {
	p.mu.RLock()
	snap := p.nav.Snapshot()
	vm := &WorkspaceVM{
		BaseViewModel: BaseViewModel{VMType: VMWorkspace, UpdatedAt: time.Now()},
		Nav:           snap,
		Greeting:      snap.Greeting(),
		Display:       snap.Display,
		Content:       snap.Content,
		ShowPrompts:   p.showPrompts,
		Prompts:       sections.SamplePrompts(),
		Model:         p.model,
		Query:         p.query,
	}
	for _, g := range sections.NavGroups(snap.IsAdmin) {
		group := NavGroupVM{Category: g.Category, Title: g.Title, Expanded: p.groups[g.Category]}
		for _, s := range g.Sections {
			group.Items = append(group.Items, NavItemVM{
				ID:     s.ID,
				Label:  s.Label,
				Icon:   s.Display.Icon,
				Active: s.ID == snap.ActiveSection,
			})
		}
		vm.Groups = append(vm.Groups, group)
	}
	p.mu.RUnlock()

	if snap.Content == sections.ContentArticles {
		for _, a := range sections.Articles() {
			vm.Articles = append(vm.Articles, ArticleVM{
				ID:       a.ID,
				Title:    a.Title,
				Body:     a.Body,
				Expanded: snap.ArticleExpanded(a.ID),
			})
		}
	}

	p.state.UpdateViewModel(vm)
	p.notifyStateUpdate(VMWorkspace, vm)
}

func (p *AppPresenter) refreshAdmin() error {
	if err := p.requireAdmin(); err != nil {
		return err
	}

	p.state.mu.RLock()
	prev := *p.state.Admin
	p.state.mu.RUnlock()

	users, err := p.directory.ListUsers(p.ctx, accounts.UserFilter{Query: prev.Query})
	if err != nil {
		return fmt.Errorf("failed to list users: %w", err)
	}
	roles, err := p.directory.ListRoles(p.ctx)
	if err != nil {
		return fmt.Errorf("failed to list roles: %w", err)
	}
	// Role counts need every user, not just the filtered ones
	all := users
	if prev.Query != "" {
		if all, err = p.directory.ListUsers(p.ctx, accounts.UserFilter{}); err != nil {
			return fmt.Errorf("failed to list users: %w", err)
		}
	}

	vm := &AdminVM{
		BaseViewModel: BaseViewModel{VMType: VMAdmin, UpdatedAt: time.Now()},
		Tab:           prev.Tab,
		Query:         prev.Query,
		SelectedIndex: prev.SelectedIndex,
	}
	if vm.Tab == "" {
		vm.Tab = TabUsers
	}
	for _, u := range users {
		vm.Users = append(vm.Users, userToVM(u))
	}
	for _, r := range roles {
		vm.Roles = append(vm.Roles, roleToVM(r, all))
	}

	rows := len(vm.Users)
	if vm.Tab == TabRoles {
		rows = len(vm.Roles)
	}
	if vm.SelectedIndex >= rows {
		vm.SelectedIndex = rows - 1
	}
	if vm.SelectedIndex < 0 {
		vm.SelectedIndex = 0
	}

	p.state.UpdateViewModel(vm)
	p.notifyStateUpdate(VMAdmin, vm)
	return nil
}

// ============================================
// Notification helpers
// ============================================

func (p *AppPresenter) notify(ntype NotificationType, title, message string) {
	n := NewNotification(ntype, title, message)
	p.state.AddNotification(n)

	p.mu.RLock()
	callbacks := p.notificationCallbacks
	p.mu.RUnlock()

	for _, cb := range callbacks {
		cb(n)
	}

	if p.bus != nil {
		p.bus.Publish(eventbus.NewEvent(eventbus.EventNotification).
			WithSource("presenter").
			WithData("level", string(ntype)).
			WithData("title", title).
			WithData("message", message))
	}
}

func (p *AppPresenter) notifyStateUpdate(viewType ViewModelType, vm ViewModel) {
	update := StateUpdate{
		ViewType:  viewType,
		ViewModel: vm,
	}

	p.mu.RLock()
	callbacks := p.stateCallbacks
	p.mu.RUnlock()

	for _, cb := range callbacks {
		cb(update)
	}
}
