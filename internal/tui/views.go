package tui

import (
	"github.com/Veraticus/splitflow/internal/guard"
	"github.com/Veraticus/splitflow/internal/notify"
	"github.com/charmbracelet/lipgloss"
)

// View renders the current state.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		m.navbar.view(m),
		"",
		m.bodyView(),
		"",
		m.statusView(),
	)
}

func (m Model) bodyView() string {
	if m.guard == nil {
		return m.spinner.View() + " Starting..."
	}

	if m.guard.State() == guard.Indeterminate {
		return lipgloss.JoinVertical(lipgloss.Left,
			m.theme.StatusError.Render("Could not reach the server to verify your session."),
			m.theme.Help.Render("Press r to retry or q to quit"))
	}

	switch m.guard.Decision().Action {
	case guard.Loading, guard.Nothing:
		return m.spinner.View() + " Checking session..."
	case guard.Redirect:
		return m.spinner.View() + " Redirecting..."
	}

	if !m.rendered {
		return m.spinner.View() + " Loading..."
	}

	switch m.route.Path {
	case guard.LoginRoute:
		return m.login.view(m)
	case guard.HomeRoute:
		return m.dash.view(m)
	default:
		return m.group.view(m)
	}
}

func (m Model) statusView() string {
	if m.toast == nil {
		return m.theme.Help.Render(helpLine(m.keymap.Quit, m.keymap.ForceQuit))
	}
	switch m.toast.Level {
	case notify.Failure:
		return m.theme.StatusError.Render("✗ " + m.toast.Message)
	default:
		return m.theme.StatusSuccess.Render("✓ " + m.toast.Message)
	}
}
