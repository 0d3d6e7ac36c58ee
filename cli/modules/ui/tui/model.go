package tui

import (
	"strconv"
	"time"

	"github.com/fpokrzywa/weaver-live/cli/modules/core/sections"
	"github.com/fpokrzywa/weaver-live/cli/modules/platform/system"
	"github.com/fpokrzywa/weaver-live/cli/modules/ui/core"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// FocusArea represents which panel has focus
type FocusArea int

const (
	FocusSidebar FocusArea = iota
	FocusMain
	FocusRight
)

// Form field indexes
const (
	fieldEmail = iota
	fieldPassword
)

const (
	fieldName = iota
	fieldContactEmail
	fieldCompany
	fieldMessage
)

// sidebarRow is one line of the flattened sidebar: a group header or a section
type sidebarRow struct {
	header   bool
	category sections.Category
	title    string
	expanded bool
	item     core.NavItemVM
}

// shownNotification is a notification with the time it arrived
type shownNotification struct {
	*core.Notification
	at time.Time
}

// Model is the main Bubble Tea model for the TUI
type Model struct {
	// Core
	presenter core.Presenter
	state     *core.AppState
	keys      KeyMap
	metrics   *system.MetricsCollector

	// UI state
	width       int
	height      int
	ready       bool
	currentView core.ViewModelType

	// Focus management
	focusArea    FocusArea
	sidebarIndex int // Row in the flattened sidebar
	mainIndex    int // Article or admin row
	promptIndex  int // Sample prompt in the right panel

	// Forms
	signInInputs  []textinput.Model
	contactInputs []textinput.Model
	formIndex     int

	// Right panel and admin inputs
	queryInput   textinput.Model
	queryActive  bool
	filterInput  textinput.Model
	filterActive bool

	// Overlays
	showHelp       bool
	showLogs       bool
	showTimestamps bool // In the logs overlay
	showDialog     bool
	dialogMessage  string
	dialogConfirm  bool
	pendingEvent   *core.Event // Run when the dialog is confirmed

	// Components
	help help.Model

	// Notifications
	notifications []shownNotification

	// Errors
	lastError     string
	lastErrorTime time.Time
}

// NewModel creates a new TUI model
func NewModel(presenter core.Presenter) *Model {
	h := help.New()
	h.ShowAll = false
	h.Styles.ShortKey = HelpKeyStyle
	h.Styles.ShortDesc = HelpDescStyle
	h.Styles.ShortSeparator = HelpDescStyle
	h.Styles.FullKey = HelpKeyStyle
	h.Styles.FullDesc = HelpDescStyle

	query := textinput.New()
	query.Placeholder = "Ask me anything..."
	query.CharLimit = 500
	query.Prompt = "› "

	filter := textinput.New()
	filter.Placeholder = "Search by name or email"
	filter.CharLimit = 100
	filter.Prompt = "/ "

	m := &Model{
		presenter:      presenter,
		state:          core.NewAppState(),
		keys:           DefaultKeyMap(),
		currentView:    core.VMLanding,
		focusArea:      FocusSidebar,
		signInInputs:   newSignInInputs(),
		contactInputs:  newContactInputs(),
		queryInput:     query,
		filterInput:    filter,
		help:           h,
		showTimestamps: true,
		notifications:  make([]shownNotification, 0),
	}
	m.sync()
	return m
}

func newSignInInputs() []textinput.Model {
	email := textinput.New()
	email.Placeholder = "you@company.com"
	email.CharLimit = 254
	email.Prompt = "Email     "

	password := textinput.New()
	password.Placeholder = "password"
	password.CharLimit = 128
	password.Prompt = "Password  "
	password.EchoMode = textinput.EchoPassword
	password.EchoCharacter = '•'

	return []textinput.Model{email, password}
}

func newContactInputs() []textinput.Model {
	fields := []struct {
		prompt, placeholder string
		limit               int
	}{
		{"Name      ", "Jane Doe", 100},
		{"Email     ", "jane@company.com", 254},
		{"Company   ", "optional", 100},
		{"Message   ", "How can we help?", 1000},
	}
	inputs := make([]textinput.Model, len(fields))
	for i, f := range fields {
		in := textinput.New()
		in.Prompt = f.prompt
		in.Placeholder = f.placeholder
		in.CharLimit = f.limit
		inputs[i] = in
	}
	return inputs
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		func() tea.Msg { return syncMsg{} },
		tea.WindowSize(),
		tickCmd(),
	)
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.help.Width = msg.Width
		m.queryInput.Width = RightPanelWidth - 8
		m.filterInput.Width = 30

	case tea.KeyMsg:
		if cmd := m.handleKey(msg); cmd != nil {
			cmds = append(cmds, cmd)
		}

	case tea.MouseMsg:
		if msg.Action == tea.MouseActionPress {
			switch msg.Button {
			case tea.MouseButtonWheelUp:
				m.navigateUp()
			case tea.MouseButtonWheelDown:
				m.navigateDown()
			}
		}

	case stateUpdateMsg:
		m.handleStateUpdate(msg.update)

	case syncMsg:
		m.sync()

	case notificationMsg:
		m.handleNotification(msg.notification)

	case errMsg:
		m.lastError = msg.Error()
		m.lastErrorTime = time.Now()
		m.sync()

	case tickMsg:
		m.expireNotifications(time.Time(msg))
		cmds = append(cmds, tickCmd())
	}

	return m, tea.Batch(cmds...)
}

// handleKey routes a key press to the focused input, overlay or screen
func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	if key.Matches(msg, m.keys.Cancel) {
		return tea.Quit
	}

	switch {
	case m.showDialog:
		return m.handleDialogKey(msg)
	case m.showHelp:
		m.showHelp = false
		return nil
	case m.showLogs:
		if key.Matches(msg, m.keys.Logs, m.keys.Escape, m.keys.Quit) {
			m.showLogs = false
		}
		return nil
	case m.queryActive:
		return m.handleQueryInput(msg)
	case m.filterActive:
		return m.handleFilterInput(msg)
	}

	switch m.currentView {
	case core.VMSignIn:
		return m.handleSignInKey(msg)
	case core.VMGetStarted:
		return m.handleContactKey(msg)
	case core.VMWorkspace:
		return m.handleWorkspaceKey(msg)
	default:
		return m.handleLandingKey(msg)
	}
}

// ============================================
// Landing and forms
// ============================================

func (m *Model) handleLandingKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
	case key.Matches(msg, m.keys.Logs):
		m.showLogs = true
	case key.Matches(msg, m.keys.SignIn), key.Matches(msg, m.keys.Enter):
		return m.sendEvent(core.NavigateEvent(core.VMWorkspace))
	case key.Matches(msg, m.keys.GetStarted):
		return m.sendEvent(core.NavigateEvent(core.VMGetStarted))
	}
	return nil
}

func (m *Model) handleSignInKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "esc":
		return m.sendEvent(core.NewEvent(core.EventBack))
	case "tab", "down":
		return m.focusField(m.signInInputs, m.formIndex+1)
	case "shift+tab", "up":
		return m.focusField(m.signInInputs, m.formIndex-1)
	case "enter":
		if m.formIndex < fieldPassword {
			return m.focusField(m.signInInputs, fieldPassword)
		}
		email := m.signInInputs[fieldEmail].Value()
		password := m.signInInputs[fieldPassword].Value()
		m.signInInputs[fieldPassword].SetValue("")
		return m.sendEvent(core.SignInEvent(email, password))
	}

	var cmd tea.Cmd
	m.signInInputs[m.formIndex], cmd = m.signInInputs[m.formIndex].Update(msg)
	return cmd
}

func (m *Model) handleContactKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "esc":
		return m.sendEvent(core.NewEvent(core.EventBack))
	case "tab", "down":
		return m.focusField(m.contactInputs, m.formIndex+1)
	case "shift+tab", "up":
		return m.focusField(m.contactInputs, m.formIndex-1)
	case "enter":
		if m.formIndex < fieldMessage {
			return m.focusField(m.contactInputs, m.formIndex+1)
		}
		return m.sendEvent(core.ContactEvent(m.contactRequest()))
	}

	var cmd tea.Cmd
	m.contactInputs[m.formIndex], cmd = m.contactInputs[m.formIndex].Update(msg)
	return cmd
}

func (m *Model) contactRequest() core.ContactRequest {
	return core.ContactRequest{
		Name:    m.contactInputs[fieldName].Value(),
		Email:   m.contactInputs[fieldContactEmail].Value(),
		Company: m.contactInputs[fieldCompany].Value(),
		Message: m.contactInputs[fieldMessage].Value(),
	}
}

// focusField moves form focus, wrapping around
func (m *Model) focusField(inputs []textinput.Model, index int) tea.Cmd {
	n := len(inputs)
	if n == 0 {
		return nil
	}
	m.formIndex = (index%n + n) % n
	for i := range inputs {
		inputs[i].Blur()
	}
	return inputs[m.formIndex].Focus()
}

// ============================================
// Workspace
// ============================================

func (m *Model) handleWorkspaceKey(msg tea.KeyMsg) tea.Cmd {
	nav := m.workspace().Nav

	switch {
	case key.Matches(msg, m.keys.Quit):
		return tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		return nil
	case key.Matches(msg, m.keys.Logs):
		m.showLogs = true
		return nil
	case key.Matches(msg, m.keys.SignOut):
		return m.sendEvent(core.NewEvent(core.EventSignOut))
	case key.Matches(msg, m.keys.Refresh):
		return m.sendEvent(core.NewEvent(core.EventRefresh))

	// Layout
	case key.Matches(msg, m.keys.CollapseAll):
		return m.sendEvent(core.NewEvent(core.EventCollapseAll))
	case key.Matches(msg, m.keys.ExpandAll):
		return m.sendEvent(core.NewEvent(core.EventExpandAll))
	case key.Matches(msg, m.keys.ToggleMainContent):
		return m.sendEvent(core.NewEvent(core.EventToggleMainContent))

	// Focus
	case key.Matches(msg, m.keys.Tab):
		m.cycleFocus(1)
		return nil
	case key.Matches(msg, m.keys.ShiftTab):
		m.cycleFocus(-1)
		return nil
	case key.Matches(msg, m.keys.Up):
		m.navigateUp()
		return nil
	case key.Matches(msg, m.keys.Down):
		m.navigateDown()
		return nil
	case key.Matches(msg, m.keys.Enter):
		return m.handleEnter()
	case key.Matches(msg, m.keys.Space):
		return m.handleSpace()
	}

	// Right panel
	if nav.RightPanelVisible {
		switch {
		case key.Matches(msg, m.keys.Prompts):
			return m.sendEvent(core.NewEvent(core.EventTogglePrompts))
		case key.Matches(msg, m.keys.Model):
			return m.sendEvent(core.NewEvent(core.EventSelectModel))
		case key.Matches(msg, m.keys.Ask):
			m.queryActive = true
			m.queryInput.SetValue(m.workspace().Query)
			m.queryInput.CursorEnd()
			m.focusArea = FocusRight
			return m.queryInput.Focus()
		}
	}

	// Admin console
	if nav.AdminVisible {
		switch {
		case key.Matches(msg, m.keys.Users):
			m.mainIndex = 0
			return m.sendEvent(core.NewEvent(core.EventAdminTab).WithTarget(string(core.TabUsers)))
		case key.Matches(msg, m.keys.Roles):
			m.mainIndex = 0
			return m.sendEvent(core.NewEvent(core.EventAdminTab).WithTarget(string(core.TabRoles)))
		case key.Matches(msg, m.keys.Filter):
			m.filterActive = true
			m.filterInput.SetValue(m.admin().Query)
			m.filterInput.CursorEnd()
			return m.filterInput.Focus()
		case key.Matches(msg, m.keys.ToggleActive):
			if u := m.selectedUser(); u != nil {
				return m.sendEvent(core.NewEvent(core.EventToggleUserActive).WithTarget(strconv.FormatInt(u.ID, 10)))
			}
		case key.Matches(msg, m.keys.Delete):
			m.confirmDelete()
		}
	}

	return nil
}

// visibleAreas lists the panels that can take focus, in order
func (m *Model) visibleAreas() []FocusArea {
	nav := m.workspace().Nav
	var areas []FocusArea
	if nav.SidebarVisible {
		areas = append(areas, FocusSidebar)
	}
	if nav.MainContentVisible || nav.AdminVisible {
		areas = append(areas, FocusMain)
	}
	if nav.RightPanelVisible {
		areas = append(areas, FocusRight)
	}
	return areas
}

// cycleFocus cycles through the visible panels
func (m *Model) cycleFocus(direction int) {
	areas := m.visibleAreas()
	if len(areas) == 0 {
		return
	}
	current := 0
	for i, a := range areas {
		if a == m.focusArea {
			current = i
			break
		}
	}
	next := (current + direction + len(areas)) % len(areas)
	m.focusArea = areas[next]
}

// ensureFocusVisible moves focus off a panel that was just hidden
func (m *Model) ensureFocusVisible() {
	areas := m.visibleAreas()
	for _, a := range areas {
		if a == m.focusArea {
			return
		}
	}
	if len(areas) > 0 {
		m.focusArea = areas[0]
	}
}

func (m *Model) navigateUp() {
	switch m.focusArea {
	case FocusSidebar:
		if m.sidebarIndex > 0 {
			m.sidebarIndex--
		}
	case FocusMain:
		if m.mainIndex > 0 {
			m.mainIndex--
		}
	case FocusRight:
		if m.promptIndex > 0 {
			m.promptIndex--
		}
	}
}

func (m *Model) navigateDown() {
	switch m.focusArea {
	case FocusSidebar:
		if m.sidebarIndex < len(m.sidebarRows())-1 {
			m.sidebarIndex++
		}
	case FocusMain:
		if m.mainIndex < m.mainRowCount()-1 {
			m.mainIndex++
		}
	case FocusRight:
		if m.promptIndex < len(m.workspace().Prompts)-1 {
			m.promptIndex++
		}
	}
}

// handleEnter activates the row under the cursor
func (m *Model) handleEnter() tea.Cmd {
	switch m.focusArea {
	case FocusSidebar:
		rows := m.sidebarRows()
		if m.sidebarIndex < 0 || m.sidebarIndex >= len(rows) {
			return nil
		}
		row := rows[m.sidebarIndex]
		if row.header {
			return m.sendEvent(core.NewEvent(core.EventToggleGroup).WithTarget(string(row.category)))
		}
		m.mainIndex = 0
		return m.sendEvent(core.SelectSectionEvent(row.item.ID))
	case FocusMain:
		return m.toggleSelectedArticle()
	case FocusRight:
		ws := m.workspace()
		if ws.ShowPrompts && m.promptIndex < len(ws.Prompts) {
			return m.sendEvent(core.NewEvent(core.EventUsePrompt).WithTarget(strconv.Itoa(m.promptIndex)))
		}
	}
	return nil
}

func (m *Model) handleSpace() tea.Cmd {
	switch m.focusArea {
	case FocusSidebar:
		rows := m.sidebarRows()
		if m.sidebarIndex >= 0 && m.sidebarIndex < len(rows) && rows[m.sidebarIndex].header {
			return m.sendEvent(core.NewEvent(core.EventToggleGroup).WithTarget(string(rows[m.sidebarIndex].category)))
		}
	case FocusMain:
		return m.toggleSelectedArticle()
	}
	return nil
}

func (m *Model) toggleSelectedArticle() tea.Cmd {
	ws := m.workspace()
	if !ws.Nav.MainContentVisible || m.mainIndex < 0 || m.mainIndex >= len(ws.Articles) {
		return nil
	}
	return m.sendEvent(core.NewEvent(core.EventToggleArticle).WithTarget(ws.Articles[m.mainIndex].ID))
}

// sidebarRows flattens the nav groups into selectable rows
func (m *Model) sidebarRows() []sidebarRow {
	var rows []sidebarRow
	for _, g := range m.workspace().Groups {
		rows = append(rows, sidebarRow{header: true, category: g.Category, title: g.Title, expanded: g.Expanded})
		if !g.Expanded {
			continue
		}
		for _, item := range g.Items {
			rows = append(rows, sidebarRow{category: g.Category, item: item})
		}
	}
	return rows
}

// mainRowCount is the number of selectable rows in the middle panel
func (m *Model) mainRowCount() int {
	nav := m.workspace().Nav
	switch {
	case nav.AdminVisible:
		admin := m.admin()
		if admin.Tab == core.TabRoles {
			return len(admin.Roles)
		}
		return len(admin.Users)
	case nav.MainContentVisible:
		return len(m.workspace().Articles)
	}
	return 0
}

// ============================================
// Admin console
// ============================================

func (m *Model) selectedUser() *core.UserVM {
	admin := m.admin()
	if admin.Tab != core.TabUsers || m.mainIndex < 0 || m.mainIndex >= len(admin.Users) {
		return nil
	}
	u := admin.Users[m.mainIndex]
	return &u
}

func (m *Model) selectedRole() *core.RoleVM {
	admin := m.admin()
	if admin.Tab != core.TabRoles || m.mainIndex < 0 || m.mainIndex >= len(admin.Roles) {
		return nil
	}
	r := admin.Roles[m.mainIndex]
	return &r
}

// confirmDelete opens the confirmation dialog for the selected row
func (m *Model) confirmDelete() {
	if u := m.selectedUser(); u != nil {
		m.pendingEvent = core.NewEvent(core.EventDeleteUser).WithTarget(strconv.FormatInt(u.ID, 10))
		m.dialogMessage = "Are you sure you want to delete user " + u.Email + "?"
	} else if r := m.selectedRole(); r != nil {
		m.pendingEvent = core.NewEvent(core.EventDeleteRole).WithTarget(strconv.FormatInt(r.ID, 10))
		m.dialogMessage = "Are you sure you want to delete role " + r.Name + "?"
	} else {
		return
	}
	m.showDialog = true
	m.dialogConfirm = false
}

// handleDialogKey handles the confirmation dialog
func (m *Model) handleDialogKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "left", "right", "tab", "h", "l":
		m.dialogConfirm = !m.dialogConfirm
		return nil
	case "y", "Y":
		m.dialogConfirm = true
		return m.closeDialog()
	case "n", "N", "esc":
		m.dialogConfirm = false
		return m.closeDialog()
	case "enter":
		return m.closeDialog()
	}
	return nil
}

func (m *Model) closeDialog() tea.Cmd {
	event := m.pendingEvent
	confirmed := m.dialogConfirm
	m.showDialog = false
	m.dialogConfirm = false
	m.pendingEvent = nil
	if confirmed && event != nil {
		return m.sendEvent(event)
	}
	return nil
}

// ============================================
// Inputs
// ============================================

func (m *Model) handleQueryInput(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "esc":
		m.queryActive = false
		m.queryInput.Blur()
		return nil
	case "enter":
		m.queryActive = false
		m.queryInput.Blur()
		return m.sendEvent(core.NewEvent(core.EventSetQuery).WithValue(m.queryInput.Value()))
	}
	var cmd tea.Cmd
	m.queryInput, cmd = m.queryInput.Update(msg)
	return cmd
}

func (m *Model) handleFilterInput(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "esc":
		m.filterActive = false
		m.filterInput.Blur()
		return nil
	case "enter":
		m.filterActive = false
		m.filterInput.Blur()
		m.mainIndex = 0
		return m.sendEvent(core.FilterEvent(m.filterInput.Value()))
	}
	var cmd tea.Cmd
	m.filterInput, cmd = m.filterInput.Update(msg)
	return cmd
}

// ============================================
// Presenter plumbing
// ============================================

// sendEvent sends an event to the presenter and resyncs afterwards
func (m *Model) sendEvent(event *core.Event) tea.Cmd {
	presenter := m.presenter
	return func() tea.Msg {
		if presenter == nil {
			return nil
		}
		if err := presenter.HandleEvent(event); err != nil {
			return errMsg{err}
		}
		return syncMsg{}
	}
}

// handleStateUpdate handles state updates from presenter
func (m *Model) handleStateUpdate(update core.StateUpdate) {
	if update.ViewModel != nil {
		m.state.UpdateViewModel(update.ViewModel)
	}
	m.clampCursors()
}

// sync pulls every view model and the current screen from the presenter
func (m *Model) sync() {
	if m.presenter == nil {
		return
	}
	for _, t := range []core.ViewModelType{core.VMLanding, core.VMSignIn, core.VMGetStarted, core.VMWorkspace, core.VMAdmin, core.VMLogs} {
		if vm, err := m.presenter.GetViewModel(t); err == nil && vm != nil {
			m.state.UpdateViewModel(vm)
		}
	}
	m.setView(m.presenter.CurrentView())
	m.ensureFocusVisible()
	m.clampCursors()
}

// setView switches screens and resets the per-screen input state
func (m *Model) setView(view core.ViewModelType) {
	if view == m.currentView {
		return
	}
	m.currentView = view
	m.state.SetCurrentView(view)
	m.queryActive = false
	m.filterActive = false

	switch view {
	case core.VMSignIn:
		m.signInInputs = newSignInInputs()
		if m.state.SignIn != nil {
			m.signInInputs[fieldEmail].SetValue(m.state.SignIn.Email)
		}
		m.formIndex = 0
		m.signInInputs[fieldEmail].Focus()
	case core.VMGetStarted:
		m.contactInputs = newContactInputs()
		m.formIndex = 0
		m.contactInputs[fieldName].Focus()
	case core.VMWorkspace:
		m.focusArea = FocusSidebar
		m.sidebarIndex = 0
		m.mainIndex = 0
		m.promptIndex = 0
	}
}

func (m *Model) clampCursors() {
	if n := len(m.sidebarRows()); m.sidebarIndex >= n {
		m.sidebarIndex = max(0, n-1)
	}
	if n := m.mainRowCount(); m.mainIndex >= n {
		m.mainIndex = max(0, n-1)
	}
	if n := len(m.workspace().Prompts); m.promptIndex >= n {
		m.promptIndex = max(0, n-1)
	}
}

func (m *Model) workspace() *core.WorkspaceVM {
	if m.state.Workspace == nil {
		return &core.WorkspaceVM{}
	}
	return m.state.Workspace
}

func (m *Model) logs() []core.LogLineVM {
	if m.state.Logs == nil {
		return nil
	}
	return m.state.Logs.Lines
}

func (m *Model) admin() *core.AdminVM {
	if m.state.Admin == nil {
		return &core.AdminVM{Tab: core.TabUsers}
	}
	return m.state.Admin
}

// handleNotification handles notifications
func (m *Model) handleNotification(n *core.Notification) {
	m.notifications = append(m.notifications, shownNotification{Notification: n, at: time.Now()})
	// Keep only last 5
	if len(m.notifications) > 5 {
		m.notifications = m.notifications[1:]
	}
}

// expireNotifications drops notifications past their duration
func (m *Model) expireNotifications(now time.Time) {
	kept := m.notifications[:0]
	for _, n := range m.notifications {
		if n.Duration > 0 && now.Sub(n.at) > time.Duration(n.Duration)*time.Second {
			continue
		}
		kept = append(kept, n)
	}
	m.notifications = kept
	if m.lastError != "" && now.Sub(m.lastErrorTime) > 5*time.Second {
		m.lastError = ""
	}
}

// Message types
type stateUpdateMsg struct {
	update core.StateUpdate
}

type notificationMsg struct {
	notification *core.Notification
}

type syncMsg struct{}

type errMsg struct {
	error
}

type tickMsg time.Time

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second*2, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}
