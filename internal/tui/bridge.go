package tui

import (
	"log/slog"

	"github.com/Veraticus/splitflow/internal/notify"
	"github.com/Veraticus/splitflow/internal/session"
	tea "github.com/charmbracelet/bubbletea"
)

// bridge carries bus notifications and controller toasts into the program.
//
// Bus subscribers and notifiers run on whatever goroutine publishes, which
// may be the Update loop itself, so they must never block or call
// Program.Send. They only do non-blocking channel sends; a re-armed command
// turns each send into a message.
type bridge struct {
	auth        chan struct{}
	toasts      chan notify.Toast
	unsubscribe func()
}

func newBridge(sess *session.Session) *bridge {
	b := &bridge{
		// One slot: several changes before the loop catches up collapse into one.
		auth:   make(chan struct{}, 1),
		toasts: make(chan notify.Toast, 16),
	}
	b.unsubscribe = sess.Subscribe(b.authChanged)
	return b
}

func (b *bridge) authChanged() {
	select {
	case b.auth <- struct{}{}:
	default:
	}
}

// Notify implements notify.Notifier.
func (b *bridge) Notify(t notify.Toast) {
	select {
	case b.toasts <- t:
	default:
		slog.Warn("Dropping toast, UI is not keeping up", "message", t.Message)
	}
}

func (b *bridge) waitForAuthChange() tea.Cmd {
	return func() tea.Msg {
		<-b.auth
		return authChangedMsg{}
	}
}

func (b *bridge) waitForToast() tea.Cmd {
	return func() tea.Msg {
		return toastMsg{toast: <-b.toasts}
	}
}

// pending drains whatever is queued without blocking.
func (b *bridge) pending() []tea.Msg {
	var msgs []tea.Msg
	for {
		select {
		case t := <-b.toasts:
			msgs = append(msgs, toastMsg{toast: t})
			continue
		default:
		}
		break
	}
	select {
	case <-b.auth:
		msgs = append(msgs, authChangedMsg{})
	default:
	}
	return msgs
}

func (b *bridge) close() {
	b.unsubscribe()
}
