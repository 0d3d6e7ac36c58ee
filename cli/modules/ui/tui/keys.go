package tui

import (
	"github.com/charmbracelet/bubbles/key"
)

// KeyMap defines all keyboard shortcuts
type KeyMap struct {
	// Navigation
	Up       key.Binding
	Down     key.Binding
	Tab      key.Binding
	ShiftTab key.Binding

	// Actions
	Enter   key.Binding
	Space   key.Binding
	Escape  key.Binding
	Delete  key.Binding
	Refresh key.Binding

	// Landing
	SignIn     key.Binding
	GetStarted key.Binding

	// Panel layout
	CollapseAll       key.Binding
	ExpandAll         key.Binding
	ToggleMainContent key.Binding

	// Right panel
	Prompts key.Binding
	Model   key.Binding
	Ask     key.Binding

	// Admin console
	Users        key.Binding
	Roles        key.Binding
	ToggleActive key.Binding

	// Other
	Help    key.Binding
	Logs    key.Binding
	Quit    key.Binding
	SignOut key.Binding
	Filter  key.Binding
	Cancel  key.Binding
}

// DefaultKeyMap returns the default key bindings
func DefaultKeyMap() KeyMap {
	return KeyMap{
		// Navigation
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		Tab: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("Tab", "next panel"),
		),
		ShiftTab: key.NewBinding(
			key.WithKeys("shift+tab"),
			key.WithHelp("S-Tab", "prev panel"),
		),

		// Actions
		Enter: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("Enter", "select"),
		),
		Space: key.NewBinding(
			key.WithKeys(" "),
			key.WithHelp("Space", "toggle"),
		),
		Escape: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("Esc", "back/cancel"),
		),
		Delete: key.NewBinding(
			key.WithKeys("delete", "x"),
			key.WithHelp("x", "delete"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("ctrl+r"),
			key.WithHelp("C-r", "refresh"),
		),

		// Landing
		SignIn: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "sign in"),
		),
		GetStarted: key.NewBinding(
			key.WithKeys("g"),
			key.WithHelp("g", "get started"),
		),

		// Panel layout
		CollapseAll: key.NewBinding(
			key.WithKeys("["),
			key.WithHelp("[", "collapse all"),
		),
		ExpandAll: key.NewBinding(
			key.WithKeys("]"),
			key.WithHelp("]", "expand all"),
		),
		ToggleMainContent: key.NewBinding(
			key.WithKeys("t"),
			key.WithHelp("t", "toggle content"),
		),

		// Right panel
		Prompts: key.NewBinding(
			key.WithKeys("p"),
			key.WithHelp("p", "sample prompts"),
		),
		Model: key.NewBinding(
			key.WithKeys("m"),
			key.WithHelp("m", "next model"),
		),
		Ask: key.NewBinding(
			key.WithKeys("i"),
			key.WithHelp("i", "ask"),
		),

		// Admin console
		Users: key.NewBinding(
			key.WithKeys("u"),
			key.WithHelp("u", "users"),
		),
		Roles: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "roles"),
		),
		ToggleActive: key.NewBinding(
			key.WithKeys("e"),
			key.WithHelp("e", "enable/disable"),
		),

		// Other
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Logs: key.NewBinding(
			key.WithKeys("L"),
			key.WithHelp("L", "logs"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q"),
			key.WithHelp("q", "quit"),
		),
		SignOut: key.NewBinding(
			key.WithKeys("o"),
			key.WithHelp("o", "sign out"),
		),
		Filter: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "search"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("C-c", "quit"),
		),
	}
}

// ShortHelp returns a brief help display
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{
		k.Up, k.Down, k.Enter, k.Tab,
		k.CollapseAll, k.ExpandAll, k.ToggleMainContent,
		k.Help, k.SignOut, k.Quit,
	}
}

// FullHelp returns detailed help for all keys
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		// Navigation
		{k.Up, k.Down, k.Tab, k.ShiftTab, k.Enter, k.Space, k.Escape},
		// Layout
		{k.CollapseAll, k.ExpandAll, k.ToggleMainContent},
		// Right panel
		{k.Prompts, k.Model, k.Ask},
		// Admin
		{k.Users, k.Roles, k.Filter, k.ToggleActive, k.Delete},
		// Other
		{k.Refresh, k.Logs, k.Help, k.SignOut, k.Quit},
	}
}

// hints builds display-only bindings from key/description pairs
func hints(pairs ...string) []key.Binding {
	bindings := make([]key.Binding, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		bindings = append(bindings, key.NewBinding(
			key.WithKeys(pairs[i]),
			key.WithHelp(pairs[i], pairs[i+1]),
		))
	}
	return bindings
}
