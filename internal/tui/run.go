package tui

import (
	"context"
	"errors"
	"fmt"

	"github.com/Veraticus/splitflow/internal/session"
	tea "github.com/charmbracelet/bubbletea"
)

// Run starts the interactive client and blocks until the user quits or ctx
// is canceled.
func Run(ctx context.Context, sess *session.Session, backend Backend, opts ...Option) error {
	cfg := defaultConfig()
	cfg.Session = sess
	cfg.Backend = backend
	for _, opt := range opts {
		opt(&cfg)
	}

	model := newModel(ctx, cfg)
	p := tea.NewProgram(model, tea.WithContext(ctx))
	final, err := p.Run()
	if fm, ok := final.(Model); ok {
		fm.shutdown()
	} else {
		model.shutdown()
	}
	if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	return nil
}
