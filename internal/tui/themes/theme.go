// Package themes defines the color palettes of the terminal UI.
package themes

import "github.com/charmbracelet/lipgloss"

// Theme defines the visual style for the TUI.
type Theme struct {
	Navbar        lipgloss.Style
	Brand         lipgloss.Style
	Title         lipgloss.Style
	Subtitle      lipgloss.Style
	Normal        lipgloss.Style
	Bold          lipgloss.Style
	Amount        lipgloss.Style
	Selected      lipgloss.Style
	TabActive     lipgloss.Style
	TabInactive   lipgloss.Style
	Card          lipgloss.Style
	Badge         lipgloss.Style
	Help          lipgloss.Style
	StatusSuccess lipgloss.Style
	StatusError   lipgloss.Style
	StatusInfo    lipgloss.Style
	Primary       lipgloss.Color
	Muted         lipgloss.Color
	Border        lipgloss.Color
	Error         lipgloss.Color
	Success       lipgloss.Color
}

func build(primary, muted, border, fg, success, errColor, amount lipgloss.Color) Theme {
	return Theme{
		Primary: primary,
		Muted:   muted,
		Border:  border,
		Error:   errColor,
		Success: success,

		Navbar: lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderBottom(true).
			BorderForeground(border).
			Padding(0, 1),
		Brand: lipgloss.NewStyle().
			Bold(true).
			Foreground(primary),
		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(fg).
			MarginBottom(1),
		Subtitle: lipgloss.NewStyle().
			Foreground(muted),
		Normal: lipgloss.NewStyle().
			Foreground(fg),
		Bold: lipgloss.NewStyle().
			Bold(true).
			Foreground(fg),
		Amount: lipgloss.NewStyle().
			Bold(true).
			Foreground(amount),
		Selected: lipgloss.NewStyle().
			Foreground(primary).
			Bold(true),
		TabActive: lipgloss.NewStyle().
			Bold(true).
			Foreground(primary).
			Underline(true).
			Padding(0, 1),
		TabInactive: lipgloss.NewStyle().
			Foreground(muted).
			Padding(0, 1),
		Card: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(border).
			Padding(0, 1),
		Badge: lipgloss.NewStyle().
			Foreground(fg).
			Background(border).
			Padding(0, 1),
		Help: lipgloss.NewStyle().
			Foreground(muted),
		StatusSuccess: lipgloss.NewStyle().
			Foreground(success).
			Bold(true),
		StatusError: lipgloss.NewStyle().
			Foreground(errColor).
			Bold(true),
		StatusInfo: lipgloss.NewStyle().
			Foreground(muted).
			Italic(true),
	}
}

// Default is the default theme.
var Default = build(
	lipgloss.Color("#2E9E6B"),
	lipgloss.Color("#737373"),
	lipgloss.Color("#404040"),
	lipgloss.Color("#FAFAFA"),
	lipgloss.Color("#10B981"),
	lipgloss.Color("#EF4444"),
	lipgloss.Color("#F4A261"),
)

// CatppuccinMocha is the Catppuccin Mocha theme.
var CatppuccinMocha = build(
	lipgloss.Color("#A6E3A1"),
	lipgloss.Color("#6C7086"),
	lipgloss.Color("#45475A"),
	lipgloss.Color("#CDD6F4"),
	lipgloss.Color("#A6E3A1"),
	lipgloss.Color("#F38BA8"),
	lipgloss.Color("#FAB387"),
)

// GetTheme returns a theme by name.
func GetTheme(name string) Theme {
	switch name {
	case "catppuccin-mocha":
		return CatppuccinMocha
	default:
		return Default
	}
}

// CategoryIcons maps expense and group categories to emoji icons.
var CategoryIcons = map[string]string{
	"food":          "🍽️",
	"accommodation": "🏨",
	"transport":     "🚕",
	"entertainment": "🎬",
	"utilities":     "💡",
	"trip":          "✈️",
	"household":     "🏠",
	"event":         "🎉",
	"other":         "📦",
}

// GetCategoryIcon returns an icon for a category.
func GetCategoryIcon(category string) string {
	if icon, ok := CategoryIcons[category]; ok {
		return icon
	}
	return CategoryIcons["other"]
}
