package tui

import (
	"context"

	"github.com/Veraticus/splitflow/internal/api"
	"github.com/Veraticus/splitflow/internal/dashboard"
	"github.com/Veraticus/splitflow/internal/guard"
	"github.com/Veraticus/splitflow/internal/ledger"
	"github.com/Veraticus/splitflow/internal/session"
	"github.com/Veraticus/splitflow/internal/tui/themes"
)

// Backend is every server call the TUI makes. *api.Client implements it.
type Backend interface {
	guard.Verifier
	ledger.Backend
	dashboard.Backend
	Login(ctx context.Context, creds api.Credentials) (string, error)
	Register(ctx context.Context, reg api.Registration) (string, error)
}

// Config holds TUI configuration.
type Config struct {
	Theme     themes.Theme
	Session   *session.Session
	Backend   Backend
	StartPath string
	ReportDir string
	Width     int
	Height    int
	// TestMode disables background listeners, timers, and the alternate
	// screen so Update can be driven directly.
	TestMode bool
}

// Option is a functional option for configuring the TUI.
type Option func(*Config)

// defaultConfig returns the default configuration.
func defaultConfig() Config {
	return Config{
		Theme:     themes.Default,
		StartPath: guard.HomeRoute,
		ReportDir: ".",
		Width:     80,
		Height:    24,
	}
}

// WithTheme sets the visual theme.
func WithTheme(theme themes.Theme) Option {
	return func(c *Config) {
		c.Theme = theme
	}
}

// WithSize sets the initial terminal size.
func WithSize(width, height int) Option {
	return func(c *Config) {
		c.Width = width
		c.Height = height
	}
}

// WithStartPath opens the UI at path instead of the dashboard.
func WithStartPath(path string) Option {
	return func(c *Config) {
		c.StartPath = path
	}
}

// WithReportDir sets where exported reports are written.
func WithReportDir(dir string) Option {
	return func(c *Config) {
		if dir != "" {
			c.ReportDir = dir
		}
	}
}

// WithTestMode enables test mode.
func WithTestMode(enabled bool) Option {
	return func(c *Config) {
		c.TestMode = enabled
	}
}
