package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines all keyboard shortcuts.
type KeyMap struct {
	// Navigation
	Up      key.Binding
	Down    key.Binding
	NextTab key.Binding
	PrevTab key.Binding
	Next    key.Binding
	Prev    key.Binding
	Left    key.Binding
	Right   key.Binding
	Select  key.Binding
	Back    key.Binding

	// Group actions
	AddExpense  key.Binding
	EditExpense key.Binding
	Delete      key.Binding
	Settle      key.Binding
	AddMember   key.Binding
	Export      key.Binding
	NewGroup    key.Binding
	Refresh     key.Binding
	Confirm     key.Binding
	Deny        key.Binding

	// Session
	Logout         key.Binding
	ToggleRegister key.Binding

	// Application
	Quit      key.Binding
	ForceQuit key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("↓/j", "down"),
		),
		NextTab: key.NewBinding(
			key.WithKeys("tab", "l", "right"),
			key.WithHelp("Tab", "next tab"),
		),
		PrevTab: key.NewBinding(
			key.WithKeys("shift+tab", "h", "left"),
			key.WithHelp("Shift+Tab", "previous tab"),
		),
		Next: key.NewBinding(
			key.WithKeys("tab", "down"),
			key.WithHelp("Tab", "next field"),
		),
		Prev: key.NewBinding(
			key.WithKeys("shift+tab", "up"),
			key.WithHelp("Shift+Tab", "previous field"),
		),
		Left: key.NewBinding(
			key.WithKeys("left"),
			key.WithHelp("←", "previous option"),
		),
		Right: key.NewBinding(
			key.WithKeys("right"),
			key.WithHelp("→", "next option"),
		),
		Select: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("Enter", "open/submit"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("Esc", "back"),
		),

		AddExpense: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "add expense"),
		),
		EditExpense: key.NewBinding(
			key.WithKeys("e"),
			key.WithHelp("e", "edit"),
		),
		Delete: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "delete"),
		),
		Settle: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "settle"),
		),
		AddMember: key.NewBinding(
			key.WithKeys("m"),
			key.WithHelp("m", "add member"),
		),
		Export: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "export CSV"),
		),
		NewGroup: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "new group"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh"),
		),
		Confirm: key.NewBinding(
			key.WithKeys("y"),
			key.WithHelp("y", "yes"),
		),
		Deny: key.NewBinding(
			key.WithKeys("n", "esc"),
			key.WithHelp("n", "no"),
		),

		Logout: key.NewBinding(
			key.WithKeys("ctrl+o"),
			key.WithHelp("Ctrl+O", "logout"),
		),
		ToggleRegister: key.NewBinding(
			key.WithKeys("ctrl+r"),
			key.WithHelp("Ctrl+R", "login/register"),
		),

		Quit: key.NewBinding(
			key.WithKeys("q"),
			key.WithHelp("q", "quit"),
		),
		ForceQuit: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("Ctrl+C", "force quit"),
		),
	}
}

// helpLine renders bindings as "key action" pairs.
func helpLine(bindings ...key.Binding) string {
	out := ""
	for i, b := range bindings {
		if i > 0 {
			out += " • "
		}
		h := b.Help()
		out += h.Key + " " + h.Desc
	}
	return out
}
