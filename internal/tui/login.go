package tui

import (
	"strings"

	"github.com/Veraticus/splitflow/internal/api"
	"github.com/Veraticus/splitflow/internal/common"
	"github.com/Veraticus/splitflow/internal/notify"
	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Toast messages for the login screen.
const (
	MsgLoggedIn       = "Logged in successfully!"
	MsgLoginFailed    = "Login failed"
	MsgRegistered     = "Account created successfully!"
	MsgRegisterFailed = "Registration failed"
)

const (
	fieldName = iota
	fieldEmail
	fieldPassword
)

type loginForm struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required"`
}

type registerForm struct {
	Name     string `validate:"required,max=100"`
	Email    string `validate:"required,email"`
	Password string `validate:"required,min=6"`
}

// loginScreen signs in, or with register mode on, creates an account.
type loginScreen struct {
	inputs     []textinput.Model
	focus      int
	register   bool
	submitting bool
}

func newLoginScreen(m Model) loginScreen {
	inputs := make([]textinput.Model, 3)
	for i := range inputs {
		inputs[i] = newTextInput(m, 128)
	}
	inputs[fieldName].Placeholder = "Your name"
	inputs[fieldEmail].Placeholder = "you@example.com"
	inputs[fieldPassword].Placeholder = "password"
	inputs[fieldPassword].EchoMode = textinput.EchoPassword
	inputs[fieldPassword].EchoCharacter = '•'

	s := loginScreen{inputs: inputs, focus: fieldEmail}
	s.inputs[fieldEmail].Focus()
	return s
}

func (s loginScreen) fields() []int {
	if s.register {
		return []int{fieldName, fieldEmail, fieldPassword}
	}
	return []int{fieldEmail, fieldPassword}
}

func (s loginScreen) focusCmd() tea.Cmd {
	return textinput.Blink
}

func (s loginScreen) moveFocus(delta int) loginScreen {
	fields := s.fields()
	pos := 0
	for i, f := range fields {
		if f == s.focus {
			pos = i
		}
	}
	pos = (pos + delta + len(fields)) % len(fields)
	return s.setFocus(fields[pos])
}

func (s loginScreen) setFocus(field int) loginScreen {
	for i := range s.inputs {
		if i == field {
			s.inputs[i].Focus()
		} else {
			s.inputs[i].Blur()
		}
	}
	s.focus = field
	return s
}

func (s loginScreen) value(field int) string {
	return strings.TrimSpace(s.inputs[field].Value())
}

func (s loginScreen) handleKey(m Model, msg tea.KeyMsg) (loginScreen, tea.Cmd) {
	if s.submitting {
		return s, nil
	}

	switch {
	case key.Matches(msg, m.keymap.ToggleRegister):
		s.register = !s.register
		if s.register {
			return s.setFocus(fieldName), nil
		}
		return s.setFocus(fieldEmail), nil
	case key.Matches(msg, m.keymap.Next):
		return s.moveFocus(1), nil
	case key.Matches(msg, m.keymap.Prev):
		return s.moveFocus(-1), nil
	case key.Matches(msg, m.keymap.Select):
		fields := s.fields()
		if s.focus != fields[len(fields)-1] {
			return s.moveFocus(1), nil
		}
		return s.submit(m)
	}

	var cmd tea.Cmd
	s.inputs[s.focus], cmd = s.inputs[s.focus].Update(msg)
	return s, cmd
}

func (s loginScreen) submit(m Model) (loginScreen, tea.Cmd) {
	email, password := s.value(fieldEmail), s.inputs[fieldPassword].Value()

	var err error
	if s.register {
		err = common.Validate(registerForm{Name: s.value(fieldName), Email: email, Password: password})
	} else {
		err = common.Validate(loginForm{Email: email, Password: password})
	}
	if err != nil {
		toast := notify.Toast{Level: notify.Failure, Message: err.Error()}
		return s, func() tea.Msg { return toastMsg{toast: toast} }
	}

	s.submitting = true
	register, name := s.register, s.value(fieldName)
	ctx, backend, sess, epoch := m.ctx, m.config.Backend, m.config.Session, m.epoch

	return s, func() tea.Msg {
		var token string
		var err error
		if register {
			token, err = backend.Register(ctx, api.Registration{Name: name, Email: email, Password: password})
		} else {
			token, err = backend.Login(ctx, api.Credentials{Email: email, Password: password})
		}
		if err == nil {
			err = sess.SignIn(token)
		}
		return authResultMsg{epoch: epoch, register: register, err: err}
	}
}

func (s loginScreen) view(m Model) string {
	title := "Welcome Back"
	button := "Login"
	switch {
	case s.register && s.submitting:
		title, button = "Create Account", "Creating account..."
	case s.register:
		title, button = "Create Account", "Register"
	case s.submitting:
		button = "Logging in..."
	}

	labels := map[int]string{fieldName: "Name", fieldEmail: "Email", fieldPassword: "Password"}
	rows := []string{m.theme.Title.Render(title)}
	for _, f := range s.fields() {
		label := m.theme.Subtitle.Render(labels[f])
		if f == s.focus {
			label = m.theme.Selected.Render(labels[f])
		}
		rows = append(rows, label, s.inputs[f].View(), "")
	}
	rows = append(rows, m.theme.Brand.Render("[ "+button+" ]"))

	toggle := "Don't have an account? Ctrl+R to register"
	if s.register {
		toggle = "Already have an account? Ctrl+R to log in"
	}
	rows = append(rows, "", m.theme.Help.Render(toggle))

	box := m.theme.Card.Width(44).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
	return lipgloss.PlaceHorizontal(max(m.width, 48), lipgloss.Center, box)
}

// newTextInput returns an unprompted input styled for the theme. The cursor
// does not blink in test mode, since blinking schedules timers.
func newTextInput(m Model, limit int) textinput.Model {
	in := textinput.New()
	in.Prompt = ""
	in.CharLimit = limit
	in.Cursor.Style = m.theme.Brand
	if m.config.TestMode {
		in.Cursor.SetMode(cursor.CursorStatic)
	}
	return in
}

// errorMessage prefers a server-provided message over fallback.
func errorMessage(err error, fallback string) string {
	if msg, ok := common.UserMessage(err); ok {
		return msg
	}
	return api.Message(err, fallback)
}
