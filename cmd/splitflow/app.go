package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Veraticus/splitflow/internal/api"
	"github.com/Veraticus/splitflow/internal/cli"
	"github.com/Veraticus/splitflow/internal/config"
	"github.com/Veraticus/splitflow/internal/guard"
	"github.com/Veraticus/splitflow/internal/model"
	"github.com/Veraticus/splitflow/internal/notify"
	"github.com/Veraticus/splitflow/internal/session"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Session check failures reported to the user.
var (
	ErrNotLoggedIn     = errors.New("not logged in, run 'splitflow login' first")
	ErrAlreadyLoggedIn = errors.New("already logged in, run 'splitflow logout' first")
	ErrServerUnreached = errors.New("could not verify your session, the server is unreachable")
)

// app is everything a command needs to talk to the server.
type app struct {
	settings config.Settings
	session  *session.Session
	client   *api.Client
	notifier notify.Notifier
	close    func() error
}

// loadApp resolves settings and opens the credential store.
func loadApp(cmd *cobra.Command) (*app, error) {
	settings, err := config.Load(viper.GetViper())
	if err != nil {
		return nil, err
	}
	return newApp(cmd.Context(), settings, cli.NewConsoleNotifier(cmd.ErrOrStderr()))
}

func newApp(ctx context.Context, settings config.Settings, notifier notify.Notifier) (*app, error) {
	var (
		store   session.Store
		closeFn = func() error { return nil }
	)
	switch settings.CredentialBackend {
	case config.BackendSQLite:
		s, err := session.NewSQLiteStore(ctx, settings.CredentialPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open credential database: %w", err)
		}
		store, closeFn = s, s.Close
	default:
		s, err := session.NewFileStore(settings.CredentialPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open credential file: %w", err)
		}
		store = s
	}

	sess := session.New(store, nil, session.WithTTL(settings.CredentialTTL))

	opts := []api.GatewayOption{api.WithUserAgent("splitflow/" + version)}
	if settings.Timeout > 0 {
		opts = append(opts, api.WithTimeout(settings.Timeout))
	}
	gw, err := api.NewGateway(settings.BaseURL, sess, opts...)
	if err != nil {
		_ = closeFn()
		return nil, err
	}

	return &app{
		settings: settings,
		session:  sess,
		client:   api.NewClient(gw),
		notifier: notifier,
		close:    closeFn,
	}, nil
}

func (a *app) Close() {
	if err := a.close(); err != nil {
		slog.Error("failed to close credential store", "error", err)
	}
}

// requireUser runs a Protected session check and returns the signed-in user.
func (a *app) requireUser(ctx context.Context) (model.User, error) {
	state, user := guard.New(guard.Protected, a.session, a.client).Run(ctx)
	switch {
	case state == guard.Authenticated && user != nil:
		return *user, nil
	case state == guard.Indeterminate:
		return model.User{}, ErrServerUnreached
	default:
		return model.User{}, ErrNotLoggedIn
	}
}

// requireSignedOut runs a PublicOnly session check.
func (a *app) requireSignedOut(ctx context.Context) error {
	state, _ := guard.New(guard.PublicOnly, a.session, a.client).Run(ctx)
	if state == guard.Authenticated {
		return ErrAlreadyLoggedIn
	}
	return nil
}

// withUser loads the app, checks the session, and runs fn.
func withUser(cmd *cobra.Command, fn func(ctx context.Context, a *app, user model.User) error) error {
	a, err := loadApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := cmd.Context()
	user, err := a.requireUser(ctx)
	if err != nil {
		return err
	}
	return fn(ctx, a, user)
}
