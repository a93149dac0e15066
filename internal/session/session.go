package session

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Session is the single writer of the stored credential. Every write
// publishes on the bus before returning so readers never miss a change.
type Session struct {
	store Store
	bus   *Bus
	now   func() time.Time
	ttl   time.Duration
	mu    sync.Mutex
}

// Option configures a Session.
type Option func(*Session)

// WithTTL overrides the credential lifetime.
func WithTTL(ttl time.Duration) Option {
	return func(s *Session) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Session) {
		s.now = now
	}
}

// New builds a session over store, publishing changes on bus.
func New(store Store, bus *Bus, opts ...Option) *Session {
	if bus == nil {
		bus = NewBus()
	}
	s := &Session{
		store: store,
		bus:   bus,
		ttl:   DefaultTTL,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Bus returns the auth change bus the session publishes on.
func (s *Session) Bus() *Bus {
	return s.bus
}

// Subscribe registers fn for auth change notifications.
func (s *Session) Subscribe(fn func()) (unsubscribe func()) {
	return s.bus.Subscribe(fn)
}

// Credential returns the stored credential or ErrNoCredential.
func (s *Session) Credential() (Credential, error) {
	return s.store.Load()
}

// Token returns the current bearer token, if any. It never touches the network.
func (s *Session) Token() (string, bool) {
	cred, err := s.store.Load()
	if err != nil {
		if !errors.Is(err, ErrNoCredential) {
			slog.Warn("Failed to read credential", "error", err)
		}
		return "", false
	}
	return cred.Token, true
}

// HasCredential reports whether a usable credential is stored.
func (s *Session) HasCredential() bool {
	_, ok := s.Token()
	return ok
}

// SignIn stores token with the configured lifetime and publishes the change.
func (s *Session) SignIn(token string) error {
	if token == "" {
		return fmt.Errorf("sign in: empty token")
	}

	s.mu.Lock()
	err := s.store.Save(NewCredential(token, s.now(), s.ttl))
	s.mu.Unlock()
	if err != nil {
		return fmt.Errorf("sign in: %w", err)
	}

	slog.Debug("Credential stored", "ttl", s.ttl)
	s.bus.Publish()
	return nil
}

// SignOut removes the credential and publishes the change.
func (s *Session) SignOut() error {
	return s.clear("sign out")
}

// Invalidate removes a credential the server rejected and publishes the change.
func (s *Session) Invalidate(reason string) error {
	slog.Info("Credential invalidated", "reason", reason)
	return s.clear("invalidate")
}

func (s *Session) clear(op string) error {
	s.mu.Lock()
	err := s.store.Clear()
	s.mu.Unlock()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.bus.Publish()
	return nil
}
