package tui

import (
	"strings"

	"github.com/Veraticus/splitflow/internal/cli"
	"github.com/Veraticus/splitflow/internal/dashboard"
	"github.com/Veraticus/splitflow/internal/model"
	"github.com/Veraticus/splitflow/internal/tui/themes"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const (
	groupFieldName = iota
	groupFieldDescription
	groupFieldCategory
	groupFieldCount
)

// dashboardScreen lists the caller's groups and creates new ones.
type dashboardScreen struct {
	dir      *dashboard.Directory
	inputs   []textinput.Model
	current  dashboard.View
	cursor   int
	category int
	focus    int
	creating bool
	pending  bool
}

func newDashboardScreen(m Model) (dashboardScreen, tea.Cmd) {
	s := dashboardScreen{
		dir: dashboard.New(m.config.Backend,
			dashboard.WithNotifier(m.bridge),
			dashboard.WithInvalidator(m.config.Session),
		),
		inputs:  newGroupInputs(m),
		pending: true,
	}
	s.category = len(model.GroupCategories()) - 1
	s.current = s.dir.View()
	return s, s.refresh(m)
}

func newGroupInputs(m Model) []textinput.Model {
	name := newTextInput(m, 100)
	name.Placeholder = "Weekend in Lisbon"

	desc := newTextInput(m, 500)
	desc.Placeholder = "Optional"

	return []textinput.Model{name, desc}
}

func (s dashboardScreen) refresh(m Model) tea.Cmd {
	dir, ctx, epoch := s.dir, m.ctx, m.epoch
	return func() tea.Msg {
		return directoryMsg{epoch: epoch, err: dir.Refresh(ctx)}
	}
}

// typing reports whether printable keys belong to a text field.
func (s dashboardScreen) typing() bool {
	return s.creating && s.focus != groupFieldCategory
}

func (s *dashboardScreen) close() {
	if s.dir != nil {
		s.dir.Close()
	}
}

func (s dashboardScreen) handleKey(m Model, msg tea.KeyMsg) (dashboardScreen, tea.Cmd) {
	if s.dir == nil {
		return s, nil
	}
	if s.creating {
		return s.handleFormKey(m, msg)
	}

	switch {
	case key.Matches(msg, m.keymap.Up):
		if s.cursor > 0 {
			s.cursor--
		}
	case key.Matches(msg, m.keymap.Down):
		if s.cursor < len(s.current.Groups)-1 {
			s.cursor++
		}
	case key.Matches(msg, m.keymap.Select):
		if s.cursor < len(s.current.Groups) {
			return s, navigateTo("/group/" + s.current.Groups[s.cursor].ID)
		}
	case key.Matches(msg, m.keymap.NewGroup):
		s.creating = true
		s.focus = groupFieldName
		s = s.focusInputs()
		return s, textinput.Blink
	case key.Matches(msg, m.keymap.Refresh):
		s.pending = true
		return s, s.refresh(m)
	}
	return s, nil
}

func (s dashboardScreen) handleFormKey(m Model, msg tea.KeyMsg) (dashboardScreen, tea.Cmd) {
	categories := model.GroupCategories()

	switch {
	case key.Matches(msg, m.keymap.Back):
		return s.resetForm(), nil
	case key.Matches(msg, m.keymap.Next):
		s.focus = (s.focus + 1) % groupFieldCount
		return s.focusInputs(), nil
	case key.Matches(msg, m.keymap.Prev):
		s.focus = (s.focus + groupFieldCount - 1) % groupFieldCount
		return s.focusInputs(), nil
	case s.focus == groupFieldCategory && key.Matches(msg, m.keymap.Left):
		s.category = (s.category + len(categories) - 1) % len(categories)
		return s, nil
	case s.focus == groupFieldCategory && key.Matches(msg, m.keymap.Right):
		s.category = (s.category + 1) % len(categories)
		return s, nil
	case key.Matches(msg, m.keymap.Select):
		return s, s.create(m)
	}

	if s.focus == groupFieldCategory {
		return s, nil
	}
	var cmd tea.Cmd
	s.inputs[s.focus], cmd = s.inputs[s.focus].Update(msg)
	return s, cmd
}

func (s dashboardScreen) create(m Model) tea.Cmd {
	form := dashboard.GroupForm{
		Name:        s.inputs[groupFieldName].Value(),
		Description: s.inputs[groupFieldDescription].Value(),
		Category:    model.GroupCategories()[s.category],
	}
	dir, ctx, epoch := s.dir, m.ctx, m.epoch
	return func() tea.Msg {
		_, err := dir.Create(ctx, form)
		return groupCreatedMsg{epoch: epoch, err: err}
	}
}

func (s dashboardScreen) focusInputs() dashboardScreen {
	for i := range s.inputs {
		if i == s.focus {
			s.inputs[i].Focus()
		} else {
			s.inputs[i].Blur()
		}
	}
	return s
}

func (s dashboardScreen) resetForm() dashboardScreen {
	s.creating = false
	s.focus = groupFieldName
	s.category = len(model.GroupCategories()) - 1
	for i := range s.inputs {
		s.inputs[i].Reset()
		s.inputs[i].Blur()
	}
	return s
}

func (s dashboardScreen) handleResult(m Model, msg tea.Msg) (dashboardScreen, tea.Cmd) {
	if s.dir == nil {
		return s, nil
	}
	switch msg := msg.(type) {
	case directoryMsg:
		if msg.epoch != m.epoch {
			return s, nil
		}
		s.pending = false
	case groupCreatedMsg:
		if msg.epoch != m.epoch {
			return s, nil
		}
		if msg.err == nil {
			s = s.resetForm()
		}
	}

	s.current = s.dir.View()
	if s.cursor >= len(s.current.Groups) {
		s.cursor = max(len(s.current.Groups)-1, 0)
	}
	return s, nil
}

func (s dashboardScreen) view(m Model) string {
	if s.creating {
		return s.formView(m)
	}

	header := m.theme.Title.Render("My Groups")
	var body string
	switch {
	case s.pending && len(s.current.Groups) == 0:
		body = m.spinner.View() + " Loading groups..."
	case s.current.Status == dashboard.StatusError && len(s.current.Groups) == 0:
		body = m.theme.StatusError.Render(dashboard.MsgLoadFailed) + "\n" +
			m.theme.Help.Render("Press r to try again")
	case len(s.current.Groups) == 0:
		body = m.theme.Subtitle.Render("No groups yet") + "\n" +
			m.theme.Help.Render("Create your first group to start splitting expenses (press n)")
	default:
		cards := make([]string, 0, len(s.current.Groups))
		for i, g := range s.current.Groups {
			card := themes.GetCategoryIcon(string(g.Category)) + " " + cli.GroupCard(g)
			if i == s.cursor {
				card = m.theme.Selected.Render("▸ ") + card
			} else {
				card = "  " + card
			}
			cards = append(cards, card)
		}
		body = strings.Join(cards, "\n")
	}

	help := m.theme.Help.Render(helpLine(m.keymap.Up, m.keymap.Down, m.keymap.Select,
		m.keymap.NewGroup, m.keymap.Refresh, m.keymap.Quit))
	return lipgloss.JoinVertical(lipgloss.Left, header, "", body, "", help)
}

func (s dashboardScreen) formView(m Model) string {
	label := func(field int, text string) string {
		if field == s.focus {
			return m.theme.Selected.Render(text)
		}
		return m.theme.Subtitle.Render(text)
	}

	var options []string
	for i, c := range model.GroupCategories() {
		text := themes.GetCategoryIcon(string(c)) + " " + string(c)
		if i == s.category {
			options = append(options, m.theme.TabActive.Render(text))
		} else {
			options = append(options, m.theme.TabInactive.Render(text))
		}
	}

	rows := []string{
		m.theme.Title.Render("Create New Group"),
		label(groupFieldName, "Group Name"),
		s.inputs[groupFieldName].View(),
		label(groupFieldDescription, "Description"),
		s.inputs[groupFieldDescription].View(),
		label(groupFieldCategory, "Category"),
		strings.Join(options, " "),
		"",
		m.theme.Help.Render("Tab next field • ←/→ category • Enter create • Esc cancel"),
	}
	return m.theme.Card.Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}
