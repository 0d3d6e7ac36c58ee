package tui

import (
	"fmt"
	"strings"

	"github.com/fpokrzywa/weaver-live/cli/modules"
	"github.com/fpokrzywa/weaver-live/cli/modules/core/sections"
	"github.com/fpokrzywa/weaver-live/cli/modules/ui/core"

	"github.com/charmbracelet/lipgloss"
)

// View renders the UI
func (m Model) View() string {
	if !m.ready {
		return "\n  Initializing..."
	}

	header := m.renderHeader()
	footer := m.renderFooter()
	bodyHeight := max(1, m.height-HeaderHeight-lipgloss.Height(footer))

	var body string
	switch m.currentView {
	case core.VMSignIn:
		body = m.renderSignIn(m.width, bodyHeight)
	case core.VMGetStarted:
		body = m.renderGetStarted(m.width, bodyHeight)
	case core.VMWorkspace:
		body = m.renderWorkspace(m.width, bodyHeight)
	default:
		body = m.renderLanding(m.width, bodyHeight)
	}

	switch {
	case m.showDialog:
		body = m.renderDialogOverlay(m.width, bodyHeight)
	case m.showHelp:
		body = m.renderHelpOverlay(m.width, bodyHeight)
	case m.showLogs:
		body = m.renderLogsOverlay(m.width, bodyHeight)
	}

	return lipgloss.JoinVertical(lipgloss.Left, header, body, footer)
}

// renderHeader renders the top header bar
func (m *Model) renderHeader() string {
	title := TitleStyle.Render(modules.AppName)
	version := SubtitleStyle.Render("v" + modules.AppVersion)

	left := fmt.Sprintf(" %s %s │ %s", title, version, strings.ToUpper(strings.ReplaceAll(string(m.currentView), "_", " ")))

	var parts []string
	if m.metrics != nil {
		parts = append(parts, SubtitleStyle.Render(m.metrics.Get().Summary()))
	}
	if nav := m.workspace().Nav; nav.SignedIn {
		who := nav.Email
		if nav.IsAdmin {
			who += " (admin)"
		}
		parts = append(parts, StatusActive.Render(IconActive+" "+who))
	} else {
		parts = append(parts, StatusInactive.Render(IconInactive+" Signed out"))
	}
	right := strings.Join(parts, "  ") + " "

	padding := max(0, m.width-lipgloss.Width(left)-lipgloss.Width(right))
	header := lipgloss.JoinHorizontal(lipgloss.Center, left, strings.Repeat(" ", padding), right)

	return HeaderStyle.Width(m.width).Render(header)
}

// renderFooter renders notifications and key help
func (m *Model) renderFooter() string {
	var lines []string

	if len(m.notifications) > 0 {
		n := m.notifications[len(m.notifications)-1]
		lines = append(lines, notificationStyle(n.Type).Render(n.Title+": "+n.Message))
	} else if m.lastError != "" {
		lines = append(lines, StatusError.Render("Error: "+m.lastError))
	} else {
		lines = append(lines, "")
	}

	switch m.currentView {
	case core.VMWorkspace:
		lines = append(lines, " "+m.help.ShortHelpView(m.keys.ShortHelp()))
	case core.VMSignIn, core.VMGetStarted:
		lines = append(lines, " "+m.help.ShortHelpView(hints("Tab", "next field", "Enter", "submit", "Esc", "back")))
	default:
		lines = append(lines, " "+m.help.ShortHelpView(hints("s", "sign in", "g", "get started", "?", "help", "q", "quit")))
	}

	return strings.Join(lines, "\n")
}

func notificationStyle(t core.NotificationType) lipgloss.Style {
	switch t {
	case core.NotifySuccess:
		return NotifySuccessStyle
	case core.NotifyWarning:
		return NotifyWarningStyle
	case core.NotifyError:
		return NotifyErrorStyle
	default:
		return NotifyInfoStyle
	}
}

// ============================================
// Landing and forms
// ============================================

func (m *Model) renderLanding(width, height int) string {
	vm := m.state.Landing
	if vm == nil {
		return ""
	}

	var cards []string
	for _, f := range vm.Features {
		cards = append(cards, CardStyle.Render(
			PanelTitleStyle.Render(f.Title)+"\n"+SubtitleStyle.Render(f.Description),
		))
	}
	var rows []string
	for i := 0; i < len(cards); i += 2 {
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, cards[i:min(i+2, len(cards))]...))
	}

	content := lipgloss.JoinVertical(lipgloss.Center,
		TitleStyle.Render(vm.Headline),
		"",
		lipgloss.NewStyle().Width(min(70, width-4)).Align(lipgloss.Center).Render(vm.Tagline),
		"",
		lipgloss.JoinVertical(lipgloss.Left, rows...),
		"",
		lipgloss.JoinHorizontal(lipgloss.Center,
			ButtonActiveStyle.Render("s  Sign In"), "  ", ButtonStyle.Render("g  Get Started")),
	)

	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, content)
}

func (m *Model) renderSignIn(width, height int) string {
	lines := []string{
		DialogTitleStyle.Render("Sign in to " + modules.AppName),
	}
	for _, in := range m.signInInputs {
		lines = append(lines, in.View())
	}
	if vm := m.state.SignIn; vm != nil && vm.Error != "" {
		lines = append(lines, "", StatusError.Render(vm.Error))
	}

	form := DialogStyle.Width(min(60, width-4)).Render(strings.Join(lines, "\n"))
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, form)
}

func (m *Model) renderGetStarted(width, height int) string {
	lines := []string{
		DialogTitleStyle.Render("Get Started"),
		SubtitleStyle.Render("Tell us about your team and we will be in touch."),
		"",
	}
	for _, in := range m.contactInputs {
		lines = append(lines, in.View())
	}
	if vm := m.state.GetStarted; vm != nil && vm.Error != "" {
		lines = append(lines, "", StatusError.Render(vm.Error))
	}

	form := DialogStyle.Width(min(70, width-4)).Render(strings.Join(lines, "\n"))
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, form)
}

// ============================================
// Workspace
// ============================================

// renderWorkspace lays out the three panels from the navigation snapshot
func (m *Model) renderWorkspace(width, height int) string {
	ws := m.workspace()
	nav := ws.Nav
	var panels []string
	remaining := width

	if nav.SidebarVisible {
		panels = append(panels, m.renderSidebar(SidebarWidth, height))
		remaining -= SidebarWidth
	}

	rightWidth := 0
	if nav.RightPanelVisible {
		if nav.RightPanelFullScreen || nav.RightPanelExpanded {
			rightWidth = remaining
		} else {
			rightWidth = min(RightPanelWidth, remaining/2)
		}
	}

	middleWidth := remaining - rightWidth
	switch {
	case nav.AdminVisible:
		panels = append(panels, m.renderAdmin(middleWidth, height))
	case nav.MainContentVisible && middleWidth > 0:
		panels = append(panels, m.renderMainContent(middleWidth, height))
	}

	if rightWidth > 0 {
		panels = append(panels, m.renderRightPanel(rightWidth, height))
	}

	return lipgloss.JoinHorizontal(lipgloss.Top, panels...)
}

func (m *Model) panelStyle(area FocusArea, width, height int) lipgloss.Style {
	style := UnfocusedBorderStyle
	if m.focusArea == area {
		style = FocusedBorderStyle
	}
	return style.Width(max(1, width-2)).Height(max(1, height-2))
}

// renderSidebar renders the collapsible navigation groups
func (m *Model) renderSidebar(width, height int) string {
	itemWidth := width - 4
	lines := []string{PanelTitleStyle.Render(m.workspace().Greeting), ""}

	for i, row := range m.sidebarRows() {
		cursor := m.focusArea == FocusSidebar && i == m.sidebarIndex
		if row.header {
			icon := IconCollapsed
			if row.expanded {
				icon = IconExpanded
			}
			text := truncate(icon+" "+row.title, itemWidth)
			if cursor {
				lines = append(lines, NavItemCursorStyle.Width(itemWidth).Render(text))
			} else {
				lines = append(lines, NavGroupStyle.Render(text))
			}
			continue
		}

		text := truncate(SectionIcon(row.item.Icon)+" "+row.item.Label, itemWidth-2)
		switch {
		case row.item.Active:
			lines = append(lines, NavItemActiveStyle.Width(itemWidth).Render(text))
		case cursor:
			lines = append(lines, NavItemCursorStyle.Width(itemWidth).Render(text))
		default:
			lines = append(lines, NavItemStyle.Render(text))
		}
	}

	return m.panelStyle(FocusSidebar, width, height).Render(strings.Join(lines, "\n"))
}

// renderMainContent renders the active section's display and articles
func (m *Model) renderMainContent(width, height int) string {
	ws := m.workspace()
	inner := width - 4
	lines := []string{
		TitleStyle.Render(ws.Display.Title),
		lipgloss.NewStyle().Width(inner).Foreground(ColorMuted).Render(ws.Display.Description),
		"",
	}

	switch ws.Content {
	case sections.ContentArticles:
		for i, a := range ws.Articles {
			icon := IconCollapsed
			if a.Expanded {
				icon = IconExpanded
			}
			title := truncate(icon+" "+a.Title, inner)
			if m.focusArea == FocusMain && i == m.mainIndex {
				lines = append(lines, TableRowSelectedStyle.Width(inner).Render(title))
			} else {
				lines = append(lines, title)
			}
			if a.Expanded {
				lines = append(lines, lipgloss.NewStyle().Width(inner).PaddingLeft(2).Render(a.Body), "")
			}
		}
	default:
		lines = append(lines, SubtitleStyle.Render("Use the assistant on the right to get started."))
	}

	return m.panelStyle(FocusMain, width, height).Render(strings.Join(lines, "\n"))
}

// renderRightPanel renders the assistant: prompts, model selector and query
func (m *Model) renderRightPanel(width, height int) string {
	ws := m.workspace()
	inner := width - 4

	lines := []string{
		PanelTitleStyle.Render("How can I help you today?"),
		SubtitleStyle.Render("Model: ") + HelpKeyStyle.Render(ws.Model),
		"",
	}

	if ws.ShowPrompts {
		lines = append(lines, PanelTitleStyle.Render("Sample prompts"))
		for i, p := range ws.Prompts {
			text := truncate(p, inner-2)
			if m.focusArea == FocusRight && i == m.promptIndex {
				lines = append(lines, TableRowSelectedStyle.Render(IconCursor+" "+text))
			} else {
				lines = append(lines, "  "+text)
			}
		}
		lines = append(lines, "")
	}

	if m.queryActive {
		lines = append(lines, m.queryInput.View())
	} else if ws.Query != "" {
		lines = append(lines, "› "+truncate(ws.Query, inner-2))
	} else {
		lines = append(lines, SubtitleStyle.Render("› press i to ask"))
	}

	return m.panelStyle(FocusRight, width, height).Render(strings.Join(lines, "\n"))
}

// ============================================
// Admin console
// ============================================

func (m *Model) renderAdmin(width, height int) string {
	admin := m.admin()
	inner := width - 4

	usersTab, rolesTab := TabStyle, TabStyle
	if admin.Tab == core.TabRoles {
		rolesTab = TabActiveStyle
	} else {
		usersTab = TabActiveStyle
	}

	lines := []string{
		TitleStyle.Render("User Management"),
		lipgloss.JoinHorizontal(lipgloss.Top,
			usersTab.Render(fmt.Sprintf("Users (%d)", len(admin.Users))),
			rolesTab.Render(fmt.Sprintf("Roles (%d)", len(admin.Roles))),
		),
	}

	if m.filterActive {
		lines = append(lines, m.filterInput.View())
	} else if admin.Query != "" {
		lines = append(lines, SubtitleStyle.Render("filter: "+admin.Query))
	}
	lines = append(lines, "")

	if admin.Tab == core.TabRoles {
		lines = append(lines, m.renderRolesTable(admin, inner)...)
	} else {
		lines = append(lines, m.renderUsersTable(admin, inner)...)
	}

	lines = append(lines, "", SubtitleStyle.Render("u users  r roles  / search  e enable/disable  x delete"))
	return m.panelStyle(FocusMain, width, height).Render(strings.Join(lines, "\n"))
}

func (m *Model) renderUsersTable(admin *core.AdminVM, width int) []string {
	if len(admin.Users) == 0 {
		return []string{SubtitleStyle.Render("No users found")}
	}

	emailW := max(16, width/3)
	nameW := max(12, width/4)
	row := func(email, name, role, last string) string {
		return fmt.Sprintf("%-*s %-*s %-12s %s", emailW, truncate(email, emailW), nameW, truncate(name, nameW), truncate(role, 12), last)
	}

	lines := []string{"  " + TableHeaderStyle.Render(row("Email", "Name", "Role", "Last login"))}
	for i, u := range admin.Users {
		last := "never"
		if u.LastLogin != nil {
			last = u.LastLogin.Local().Format("2006-01-02 15:04")
		}
		line := row(u.Email, u.Name, u.Role, last)
		if m.focusArea == FocusMain && i == m.mainIndex {
			line = TableRowSelectedStyle.Render(line)
		}
		lines = append(lines, ActiveIcon(u.IsActive)+" "+line)
	}
	return lines
}

func (m *Model) renderRolesTable(admin *core.AdminVM, width int) []string {
	if len(admin.Roles) == 0 {
		return []string{SubtitleStyle.Render("No roles found")}
	}

	descW := max(16, width-40)
	row := func(name, users, desc string) string {
		return fmt.Sprintf("%-14s %-6s %s", truncate(name, 14), users, truncate(desc, descW))
	}

	lines := []string{TableHeaderStyle.Render(row("Role", "Users", "Description"))}
	for i, r := range admin.Roles {
		line := row(r.Name, fmt.Sprintf("%d", r.UserCount), r.Description)
		if m.focusArea == FocusMain && i == m.mainIndex {
			line = TableRowSelectedStyle.Render(line)
			lines = append(lines, line,
				SubtitleStyle.Render("  "+truncate(strings.Join(r.Permissions, ", "), width-2)))
			continue
		}
		lines = append(lines, line)
	}
	return lines
}

// ============================================
// Overlays
// ============================================

// renderDialogOverlay renders a dialog overlay
func (m *Model) renderDialogOverlay(width, height int) string {
	yesStyle := ButtonStyle
	noStyle := ButtonStyle
	if m.dialogConfirm {
		yesStyle = ButtonActiveStyle
	} else {
		noStyle = ButtonActiveStyle
	}

	dialog := DialogStyle.Render(
		lipgloss.JoinVertical(lipgloss.Center,
			DialogTitleStyle.Render("Confirm"),
			"",
			m.dialogMessage,
			"",
			lipgloss.JoinHorizontal(lipgloss.Center,
				yesStyle.Render(" Yes "),
				"  ",
				noStyle.Render(" No "),
			),
		),
	)

	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, dialog)
}

// renderHelpOverlay renders the help overlay
func (m *Model) renderHelpOverlay(width, height int) string {
	content := lipgloss.JoinVertical(lipgloss.Left,
		DialogTitleStyle.Render("Keyboard Shortcuts"),
		m.help.FullHelpView(m.keys.FullHelp()),
		"",
		SubtitleStyle.Render("Press any key to close"),
	)
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, DialogStyle.Render(content))
}

// renderLogsOverlay shows the newest log lines that fit
func (m *Model) renderLogsOverlay(width, height int) string {
	inner := max(20, width-8)
	rows := max(1, height-8)

	lines := m.logs()
	if len(lines) > rows {
		lines = lines[len(lines)-rows:]
	}

	out := []string{DialogTitleStyle.Render("Logs")}
	if len(lines) == 0 {
		out = append(out, SubtitleStyle.Render("Nothing logged yet"))
	}
	for _, l := range lines {
		style, ok := LogLevelStyles[l.Level]
		if !ok {
			style = SubtitleStyle
		}
		prefix := style.Render(fmt.Sprintf("%-5s", strings.ToUpper(l.Level)))
		if m.showTimestamps {
			prefix = SubtitleStyle.Render(l.Timestamp.Format("15:04:05")) + " " + prefix
		}
		out = append(out, prefix+" "+truncate(l.Message, inner-lipgloss.Width(prefix)-1))
	}
	out = append(out, "", SubtitleStyle.Render("L or Esc to close"))

	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center,
		DialogStyle.Width(inner).Render(lipgloss.JoinVertical(lipgloss.Left, out...)))
}

// Helper functions
func truncate(s string, max int) string {
	r := []rune(s)
	if max <= 0 {
		return ""
	}
	if len(r) <= max {
		return s
	}
	if max <= 3 {
		return string(r[:max])
	}
	return string(r[:max-3]) + "..."
}
