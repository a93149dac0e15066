package tui

import (
	"github.com/Veraticus/splitflow/internal/cli"
	"github.com/Veraticus/splitflow/internal/model"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// navbar shows the brand and, while a credential exists, who is signed in.
type navbar struct {
	user     *model.User
	seq      uint64
	signedIn bool
}

// refresh re-reads the credential and resolves the user in the background.
// Each refresh supersedes the previous one.
func (n navbar) refresh(m Model) (navbar, tea.Cmd) {
	n.seq++
	n.signedIn = m.config.Session.HasCredential()
	n.user = nil
	if !n.signedIn {
		return n, nil
	}

	seq, ctx, backend := n.seq, m.ctx, m.config.Backend
	return n, func() tea.Msg {
		user, err := backend.Me(ctx)
		if err != nil {
			return whoamiMsg{seq: seq}
		}
		return whoamiMsg{seq: seq, user: &user}
	}
}

func (n navbar) resolved(msg whoamiMsg) navbar {
	if msg.seq == n.seq {
		n.user = msg.user
	}
	return n
}

// name is the greeting name; "User" until the server answers.
func (n navbar) name() string {
	if n.user == nil || n.user.Name == "" {
		return "User"
	}
	return n.user.Name
}

func (n navbar) view(m Model) string {
	brand := m.theme.Brand.Render(cli.AppTitle)
	if !n.signedIn {
		return m.theme.Navbar.Width(max(m.width, 20)).Render(brand)
	}

	right := m.theme.Normal.Render("Welcome, "+n.name()) + "  " +
		m.theme.Help.Render(helpLine(m.keymap.Logout))

	gap := max(m.width-lipgloss.Width(brand)-lipgloss.Width(right)-2, 1)
	line := brand + lipgloss.NewStyle().Width(gap).Render("") + right
	return m.theme.Navbar.Width(max(m.width, 20)).Render(line)
}
