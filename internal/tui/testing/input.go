package testing

import (
	tea "github.com/charmbracelet/bubbletea"
)

// KeyPress creates a key press message for testing.
func KeyPress(key string) tea.KeyMsg {
	return tea.KeyMsg{
		Type:  tea.KeyRunes,
		Runes: []rune(key),
	}
}

// KeyDown creates a down arrow key message.
func KeyDown() tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyDown}
}

// KeyUp creates an up arrow key message.
func KeyUp() tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyUp}
}

// KeyLeft creates a left arrow key message.
func KeyLeft() tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyLeft}
}

// KeyRight creates a right arrow key message.
func KeyRight() tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRight}
}

// KeyEnter creates an enter key message.
func KeyEnter() tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyEnter}
}

// KeyEsc creates an escape key message.
func KeyEsc() tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyEsc}
}

// KeyTab creates a tab key message.
func KeyTab() tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyTab}
}

// KeyCtrl creates a ctrl+letter key message.
func KeyCtrl(key string) tea.KeyMsg {
	if len(key) != 1 {
		panic("KeyCtrl requires a single character")
	}

	r := rune(key[0])
	if r >= 'A' && r <= 'Z' {
		r += 'a' - 'A'
	}
	// Ctrl+A is 1 through Ctrl+Z at 26, matching tea.KeyCtrlA..tea.KeyCtrlZ.
	return tea.KeyMsg{Type: tea.KeyType(r - 'a' + 1)}
}

// WindowSize creates a window size message for testing responsive layouts.
func WindowSize(width, height int) tea.WindowSizeMsg {
	return tea.WindowSizeMsg{
		Width:  width,
		Height: height,
	}
}

// Type returns one key message per rune of text.
func Type(text string) []tea.Msg {
	msgs := make([]tea.Msg, 0, len(text))
	for _, r := range text {
		msgs = append(msgs, tea.KeyMsg{
			Type:  tea.KeyRunes,
			Runes: []rune{r},
		})
	}
	return msgs
}
