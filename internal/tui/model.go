// Package tui is the interactive terminal client: a navbar over three
// guarded routes (login, dashboard, and group detail).
package tui

import (
	"context"
	"strings"
	"time"

	"github.com/Veraticus/splitflow/internal/guard"
	"github.com/Veraticus/splitflow/internal/notify"
	"github.com/Veraticus/splitflow/internal/tui/themes"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

const toastDuration = 4 * time.Second

// Route is a parsed location.
type Route struct {
	Path    string
	GroupID string
}

// ParseRoute maps a path onto a known route. Unknown paths go home.
func ParseRoute(path string) Route {
	switch {
	case path == guard.LoginRoute:
		return Route{Path: guard.LoginRoute}
	case strings.HasPrefix(path, "/group/") && len(path) > len("/group/"):
		id := strings.TrimPrefix(path, "/group/")
		if !strings.Contains(id, "/") {
			return Route{Path: "/group/" + id, GroupID: id}
		}
	}
	return Route{Path: guard.HomeRoute}
}

// Model holds the main TUI state.
type Model struct {
	ctx      context.Context
	theme    themes.Theme
	guard    *guard.Guard
	bridge   *bridge
	toast    *notify.Toast
	config   Config
	keymap   KeyMap
	route    Route
	navbar   navbar
	login    loginScreen
	dash     dashboardScreen
	group    groupScreen
	spinner  spinner.Model
	epoch    uint64
	toastID  int
	width    int
	height   int
	rendered bool
	quitting bool
}

// newModel creates a model for cfg. It subscribes to the session bus; call
// shutdown when the program exits.
func newModel(ctx context.Context, cfg Config) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = cfg.Theme.Brand

	m := Model{
		ctx:     ctx,
		config:  cfg,
		theme:   cfg.Theme,
		keymap:  DefaultKeyMap(),
		bridge:  newBridge(cfg.Session),
		spinner: sp,
		width:   cfg.Width,
		height:  cfg.Height,
	}
	m.route = ParseRoute(cfg.StartPath)
	return m
}

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	var cmds []tea.Cmd
	if !m.config.TestMode {
		cmds = append(cmds,
			tea.EnterAltScreen,
			m.bridge.waitForAuthChange(),
			m.bridge.waitForToast(),
			m.spinner.Tick,
		)
	}
	path := m.route.Path
	cmds = append(cmds, func() tea.Msg { return startMsg{path: path} })
	return tea.Batch(cmds...)
}

// startMsg resolves the navbar and opens the first route.
type startMsg struct {
	path string
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case startMsg:
		var navCmd tea.Cmd
		m.navbar, navCmd = m.navbar.refresh(m)
		next, cmd := m.navigate(msg.path)
		return next, tea.Batch(navCmd, cmd)

	case navigateMsg:
		return m.navigate(msg.path)

	case authChangedMsg:
		return m.handleAuthChanged()

	case toastMsg:
		next, cmd := m.showToast(msg.toast)
		if !m.config.TestMode {
			cmd = tea.Batch(cmd, m.bridge.waitForToast())
		}
		return next, cmd

	case clearToastMsg:
		if msg.id == m.toastID {
			m.toast = nil
		}
		return m, nil

	case whoamiMsg:
		m.navbar = m.navbar.resolved(msg)
		return m, nil

	case guardCheckedMsg:
		if msg.epoch != m.epoch {
			return m, nil
		}
		return m.applyDecision()

	case authResultMsg:
		return m.handleAuthResult(msg)

	case directoryMsg, groupCreatedMsg:
		if m.route.Path != guard.HomeRoute {
			return m, nil
		}
		var cmd tea.Cmd
		m.dash, cmd = m.dash.handleResult(m, msg)
		return m, cmd

	case ledgerMsg, exportMsg:
		if m.route.GroupID == "" {
			return m, nil
		}
		var cmd tea.Cmd
		m.group, cmd = m.group.handleResult(m, msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keymap.ForceQuit):
		return m.quit()
	case key.Matches(msg, m.keymap.Logout) && m.navbar.signedIn:
		// Publishing runs the guard's subscriber synchronously; the redirect
		// follows from the authChangedMsg the bridge delivers.
		if err := m.config.Session.SignOut(); err != nil {
			return m.showToast(notify.Toast{Level: notify.Failure, Message: "Failed to log out: " + err.Error()})
		}
		return m, nil
	}

	if m.guard == nil {
		return m, nil
	}

	decision := m.guard.Decision()
	if decision.Action != guard.Render || !m.rendered {
		// Only retry and quit are meaningful while the session is unresolved.
		switch {
		case key.Matches(msg, m.keymap.Refresh) && m.guard.State() == guard.Indeterminate:
			return m, m.checkGuard()
		case key.Matches(msg, m.keymap.Quit):
			return m.quit()
		}
		return m, nil
	}

	var cmd tea.Cmd
	switch m.route.Path {
	case guard.LoginRoute:
		m.login, cmd = m.login.handleKey(m, msg)
	case guard.HomeRoute:
		if !m.dash.typing() && key.Matches(msg, m.keymap.Quit) {
			return m.quit()
		}
		m.dash, cmd = m.dash.handleKey(m, msg)
	default:
		if !m.group.typing() && key.Matches(msg, m.keymap.Quit) {
			return m.quit()
		}
		m.group, cmd = m.group.handleKey(m, msg)
	}
	return m, cmd
}

func (m Model) quit() (tea.Model, tea.Cmd) {
	m.quitting = true
	m.leave()
	return m, tea.Quit
}

// navigate leaves the current route and mounts a fresh guard for path.
func (m Model) navigate(path string) (tea.Model, tea.Cmd) {
	m.leave()

	m.epoch++
	m.route = ParseRoute(path)
	m.rendered = false

	policy := guard.Protected
	if m.route.Path == guard.LoginRoute {
		policy = guard.PublicOnly
	}
	m.guard = guard.New(policy, m.config.Session, m.config.Backend)
	m.guard.Mount()

	return m, m.checkGuard()
}

// leave disarms everything owned by the current route.
func (m *Model) leave() {
	if m.guard != nil {
		m.guard.Unmount()
	}
	m.dash.close()
	m.group.close()
}

func (m Model) checkGuard() tea.Cmd {
	g, epoch, ctx := m.guard, m.epoch, m.ctx
	guardEpoch := g.Epoch()
	return func() tea.Msg {
		return guardCheckedMsg{epoch: epoch, state: g.Check(ctx, guardEpoch)}
	}
}

// applyDecision acts on the guard's current decision.
func (m Model) applyDecision() (tea.Model, tea.Cmd) {
	decision := m.guard.Decision()
	switch decision.Action {
	case guard.Redirect:
		return m.navigate(decision.Target)
	case guard.Render:
		if m.rendered {
			return m, nil
		}
		m.rendered = true
		return m.enterRoute()
	default:
		return m, nil
	}
}

// enterRoute builds the screen for the current route once access is granted.
func (m Model) enterRoute() (tea.Model, tea.Cmd) {
	m.dash.close()
	m.group.close()

	var cmd tea.Cmd
	switch m.route.Path {
	case guard.LoginRoute:
		m.login = newLoginScreen(m)
		cmd = m.login.focusCmd()
	case guard.HomeRoute:
		m.dash, cmd = newDashboardScreen(m)
	default:
		payer := ""
		if user, ok := m.guard.User(); ok {
			payer = user.ID
		}
		m.group, cmd = newGroupScreen(m, m.route.GroupID, payer)
	}
	return m, cmd
}

func (m Model) handleAuthChanged() (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	if !m.config.TestMode {
		cmds = append(cmds, m.bridge.waitForAuthChange())
	}

	var cmd tea.Cmd
	m.navbar, cmd = m.navbar.refresh(m)
	cmds = append(cmds, cmd)

	if m.guard != nil {
		switch {
		case m.guard.Decision().Action == guard.Redirect:
			next, navCmd := m.navigate(m.guard.Decision().Target)
			return next, tea.Batch(append(cmds, navCmd)...)
		case m.guard.Policy() == guard.Protected && m.guard.State() == guard.Unknown:
			m.rendered = false
			cmds = append(cmds, m.checkGuard())
		}
	}
	return m, tea.Batch(cmds...)
}

// showToast replaces the status bar message and schedules its removal.
func (m Model) showToast(t notify.Toast) (tea.Model, tea.Cmd) {
	m.toastID++
	m.toast = &t
	if m.config.TestMode {
		return m, nil
	}
	id := m.toastID
	return m, tea.Tick(toastDuration, func(time.Time) tea.Msg { return clearToastMsg{id: id} })
}

func (m Model) handleAuthResult(msg authResultMsg) (tea.Model, tea.Cmd) {
	var toast notify.Toast
	switch {
	case msg.err == nil && msg.register:
		toast = notify.Toast{Level: notify.Success, Message: MsgRegistered}
	case msg.err == nil:
		toast = notify.Toast{Level: notify.Success, Message: MsgLoggedIn}
	case msg.register:
		toast = notify.Toast{Level: notify.Failure, Message: errorMessage(msg.err, MsgRegisterFailed)}
	default:
		toast = notify.Toast{Level: notify.Failure, Message: errorMessage(msg.err, MsgLoginFailed)}
	}

	if msg.epoch == m.epoch && m.route.Path == guard.LoginRoute {
		m.login.submitting = false
	}
	return m.showToast(toast)
}

// shutdown releases the bus subscription and disarms the current route.
func (m *Model) shutdown() {
	m.leave()
	m.bridge.close()
}
