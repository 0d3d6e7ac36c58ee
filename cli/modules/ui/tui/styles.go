package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Layout constants
const (
	SidebarWidth    = 30
	RightPanelWidth = 44
	HeaderHeight    = 1
	FooterHeight    = 2
)

// Palette is the set of colors a theme is built from
type Palette struct {
	Primary   lipgloss.Color
	Secondary lipgloss.Color
	Success   lipgloss.Color
	Warning   lipgloss.Color
	Error     lipgloss.Color
	Muted     lipgloss.Color
	Text      lipgloss.Color // Text on Primary and BgAlt
	Bg        lipgloss.Color
	BgAlt     lipgloss.Color
	Border    lipgloss.Color
}

var (
	DarkPalette = Palette{
		Primary:   "#F97316",
		Secondary: "#06B6D4",
		Success:   "#10B981",
		Warning:   "#F59E0B",
		Error:     "#EF4444",
		Muted:     "#6B7280",
		Text:      "#F9FAFB",
		Bg:        "#111827",
		BgAlt:     "#1F2937",
		Border:    "#374151",
	}

	LightPalette = Palette{
		Primary:   "#C2410C",
		Secondary: "#0E7490",
		Success:   "#047857",
		Warning:   "#B45309",
		Error:     "#B91C1C",
		Muted:     "#6B7280",
		Text:      "#FFFFFF",
		Bg:        "#F9FAFB",
		BgAlt:     "#475569",
		Border:    "#CBD5E1",
	}
)

// ColorMuted is the muted text color of the active theme
var ColorMuted lipgloss.Color

// Styles of the active theme, rebuilt by ApplyTheme
var (
	HeaderStyle   lipgloss.Style
	TitleStyle    lipgloss.Style
	SubtitleStyle lipgloss.Style

	StatusActive   lipgloss.Style
	StatusInactive lipgloss.Style
	StatusError    lipgloss.Style

	NavGroupStyle      lipgloss.Style
	NavItemStyle       lipgloss.Style
	NavItemActiveStyle lipgloss.Style
	NavItemCursorStyle lipgloss.Style

	FocusedBorderStyle   lipgloss.Style
	UnfocusedBorderStyle lipgloss.Style
	PanelTitleStyle      lipgloss.Style

	TableHeaderStyle      lipgloss.Style
	TableRowSelectedStyle lipgloss.Style

	TabStyle       lipgloss.Style
	TabActiveStyle lipgloss.Style

	NotifyInfoStyle    lipgloss.Style
	NotifySuccessStyle lipgloss.Style
	NotifyWarningStyle lipgloss.Style
	NotifyErrorStyle   lipgloss.Style

	HelpKeyStyle  lipgloss.Style
	HelpDescStyle lipgloss.Style

	DialogStyle      lipgloss.Style
	DialogTitleStyle lipgloss.Style

	CardStyle lipgloss.Style

	ButtonStyle       lipgloss.Style
	ButtonActiveStyle lipgloss.Style

	LogLevelStyles map[string]lipgloss.Style
)

func init() {
	ApplyTheme("dark")
}

// ApplyTheme switches the package styles to the named theme.
// Anything but "light" selects the dark theme.
// Call it before NewModel: the help component copies its styles.
func ApplyTheme(name string) {
	p := DarkPalette
	if strings.EqualFold(name, "light") {
		p = LightPalette
	}
	buildStyles(p)
}

func buildStyles(p Palette) {
	ColorMuted = p.Muted

	HeaderStyle = lipgloss.NewStyle().Background(p.BgAlt)
	TitleStyle = lipgloss.NewStyle().Bold(true).Foreground(p.Primary)
	SubtitleStyle = lipgloss.NewStyle().Foreground(p.Muted)

	StatusActive = lipgloss.NewStyle().Foreground(p.Success).Bold(true)
	StatusInactive = lipgloss.NewStyle().Foreground(p.Muted)
	StatusError = lipgloss.NewStyle().Foreground(p.Error).Bold(true)

	NavGroupStyle = lipgloss.NewStyle().Bold(true).Foreground(p.Secondary).Padding(0, 1)
	NavItemStyle = lipgloss.NewStyle().Padding(0, 2)
	NavItemActiveStyle = NavItemStyle.Background(p.Primary).Foreground(p.Text).Bold(true)
	NavItemCursorStyle = NavItemStyle.Background(p.BgAlt).Foreground(p.Text)

	panel := lipgloss.NewStyle().Border(lipgloss.RoundedBorder())
	FocusedBorderStyle = panel.BorderForeground(p.Primary)
	UnfocusedBorderStyle = panel.BorderForeground(p.Border)
	PanelTitleStyle = lipgloss.NewStyle().Bold(true).Foreground(p.Secondary)

	TableHeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(p.Secondary)
	TableRowSelectedStyle = lipgloss.NewStyle().Background(p.BgAlt).Foreground(p.Text).Bold(true)

	TabStyle = lipgloss.NewStyle().Padding(0, 2).Foreground(p.Muted)
	TabActiveStyle = lipgloss.NewStyle().Padding(0, 2).Foreground(p.Primary).Bold(true).Underline(true)

	notify := lipgloss.NewStyle().Foreground(p.Text).Padding(0, 1)
	NotifyInfoStyle = notify.Background(p.Secondary)
	NotifySuccessStyle = notify.Background(p.Success)
	NotifyWarningStyle = notify.Background(p.Warning).Foreground(p.Bg)
	NotifyErrorStyle = notify.Background(p.Error)

	HelpKeyStyle = lipgloss.NewStyle().Foreground(p.Secondary).Bold(true)
	HelpDescStyle = lipgloss.NewStyle().Foreground(p.Muted)

	DialogStyle = panel.BorderForeground(p.Primary).Padding(1, 2)
	DialogTitleStyle = lipgloss.NewStyle().Bold(true).Foreground(p.Primary).MarginBottom(1)

	CardStyle = panel.BorderForeground(p.Border).Padding(0, 1).Width(34)

	ButtonStyle = lipgloss.NewStyle().Padding(0, 2).Background(p.BgAlt).Foreground(p.Text)
	ButtonActiveStyle = ButtonStyle.Background(p.Primary).Bold(true)

	LogLevelStyles = map[string]lipgloss.Style{
		"debug": lipgloss.NewStyle().Foreground(p.Muted),
		"info":  lipgloss.NewStyle().Foreground(p.Secondary),
		"warn":  lipgloss.NewStyle().Foreground(p.Warning),
		"error": lipgloss.NewStyle().Foreground(p.Error).Bold(true),
	}
}

// Icons
const (
	IconExpanded  = "▾"
	IconCollapsed = "▸"
	IconActive    = "●"
	IconInactive  = "○"
	IconCursor    = ">"
)

// sectionIcons maps registry icon tokens to terminal glyphs
var sectionIcons = map[string]string{
	"search":      "⌕",
	"users":       "☺",
	"video":       "▶",
	"credit-card": "▭",
	"receipt":     "≡",
	"download":    "↓",
	"ticket":      "✉",
	"mail":        "@",
	"calendar":    "▦",
	"lock":        "⚿",
}

// SectionIcon returns the glyph for an icon token
func SectionIcon(token string) string {
	if g, ok := sectionIcons[token]; ok {
		return g
	}
	return "•"
}

// ActiveIcon renders a user's active flag
func ActiveIcon(active bool) string {
	if active {
		return StatusActive.Render(IconActive)
	}
	return StatusInactive.Render(IconInactive)
}
