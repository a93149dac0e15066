// Package guard decides whether a screen or command may run for the current
// credential.
//
// A Guard is a small state machine shared by two policies. Protected asks the
// server who the caller is; PublicOnly only looks for a stored credential.
// Results are fenced by an epoch so a check that completes after the guard
// was unmounted or re-mounted never changes what the host sees.
package guard

import (
	"context"
	"log/slog"
	"sync"

	"github.com/Veraticus/splitflow/internal/api"
	"github.com/Veraticus/splitflow/internal/model"
)

// State is the authentication state a guard has resolved.
type State int

// Guard states.
const (
	Unknown State = iota
	Authenticated
	Unauthenticated
	Indeterminate
)

func (s State) String() string {
	switch s {
	case Authenticated:
		return "authenticated"
	case Unauthenticated:
		return "unauthenticated"
	case Indeterminate:
		return "indeterminate"
	default:
		return "unknown"
	}
}

// Policy selects how a guard checks and what it decides.
type Policy int

// Guard policies.
const (
	// Protected requires a credential the server accepts.
	Protected Policy = iota
	// PublicOnly is for screens that make no sense while signed in, such as login.
	PublicOnly
)

func (p Policy) String() string {
	if p == PublicOnly {
		return "public-only"
	}
	return "protected"
}

// Route targets used by redirects.
const (
	LoginRoute = "/login"
	HomeRoute  = "/"
)

// Action is what the host should do for the current state.
type Action int

// Guard actions.
const (
	Nothing Action = iota
	Loading
	Render
	Redirect
)

// Decision pairs an action with its redirect target.
type Decision struct {
	Target string
	Action Action
}

// Decide maps a state to a decision under policy.
func Decide(policy Policy, state State) Decision {
	if policy == PublicOnly {
		switch state {
		case Authenticated:
			return Decision{Action: Redirect, Target: HomeRoute}
		case Unauthenticated:
			return Decision{Action: Render}
		default:
			return Decision{Action: Nothing}
		}
	}

	switch state {
	case Authenticated:
		return Decision{Action: Render}
	case Unauthenticated:
		return Decision{Action: Redirect, Target: LoginRoute}
	default:
		return Decision{Action: Loading}
	}
}

// Verifier resolves the current credential to a user.
type Verifier interface {
	Me(ctx context.Context) (model.User, error)
}

// Credentials is the part of the session a guard reads and reacts to.
type Credentials interface {
	HasCredential() bool
	Invalidate(reason string) error
	Subscribe(fn func()) (unsubscribe func())
}

// Epoch identifies one mount. Checks carry the epoch they were started under.
type Epoch uint64

// Guard tracks authentication state for one screen or command.
type Guard struct {
	creds       Credentials
	verifier    Verifier
	onChange    func(State)
	unsubscribe func()
	user        *model.User
	policy      Policy
	state       State
	epoch       Epoch
	mounted     bool
	mu          sync.Mutex
}

// Option configures a Guard.
type Option func(*Guard)

// WithOnChange registers fn to be called after every state change.
// It runs on the goroutine that caused the change and must not block.
func WithOnChange(fn func(State)) Option {
	return func(g *Guard) {
		g.onChange = fn
	}
}

// New creates an unmounted guard. verifier may be nil for PublicOnly guards.
func New(policy Policy, creds Credentials, verifier Verifier, opts ...Option) *Guard {
	g := &Guard{
		policy:   policy,
		creds:    creds,
		verifier: verifier,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Policy returns the guard's policy.
func (g *Guard) Policy() Policy {
	return g.policy
}

// Mount arms the guard, resets it to Unknown, and starts following credential
// changes. It returns the epoch the first check must use.
func (g *Guard) Mount() Epoch {
	g.mu.Lock()
	if g.unsubscribe != nil {
		g.unsubscribe()
	}
	g.epoch++
	g.mounted = true
	g.state = Unknown
	g.user = nil
	epoch := g.epoch
	g.mu.Unlock()

	unsubscribe := g.creds.Subscribe(g.credentialsChanged)

	g.mu.Lock()
	if g.mounted && g.epoch == epoch {
		g.unsubscribe = unsubscribe
	} else {
		unsubscribe()
	}
	g.mu.Unlock()
	return epoch
}

// Unmount disarms the guard. Checks still in flight are discarded.
func (g *Guard) Unmount() {
	g.mu.Lock()
	unsubscribe := g.unsubscribe
	g.unsubscribe = nil
	g.mounted = false
	g.epoch++
	g.user = nil
	g.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
}

// Epoch returns the epoch a new check should carry.
func (g *Guard) Epoch() Epoch {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.epoch
}

// Mounted reports whether the guard is armed.
func (g *Guard) Mounted() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.mounted
}

// State returns the current state.
func (g *Guard) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// Decision returns what the host should do right now.
func (g *Guard) Decision() Decision {
	return Decide(g.policy, g.State())
}

// User returns the user resolved by the last successful Protected check of
// this mount.
func (g *Guard) User() (model.User, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.user == nil {
		return model.User{}, false
	}
	return *g.user, true
}

// Check resolves the state and applies it if epoch is still current.
// It returns the resolved state whether or not it was applied.
//
// A credential the server rejects is invalidated even when the result
// itself is discarded.
func (g *Guard) Check(ctx context.Context, epoch Epoch) State {
	state, user := g.resolve(ctx)
	g.apply(epoch, state, user)
	return state
}

// Run mounts, checks once, and unmounts. It suits one-shot callers such as
// CLI commands.
func (g *Guard) Run(ctx context.Context) (State, *model.User) {
	epoch := g.Mount()
	defer g.Unmount()

	state, user := g.resolve(ctx)
	g.apply(epoch, state, user)
	return state, user
}

func (g *Guard) resolve(ctx context.Context) (State, *model.User) {
	if !g.creds.HasCredential() {
		return Unauthenticated, nil
	}
	if g.policy == PublicOnly {
		return Authenticated, nil
	}

	user, err := g.verifier.Me(ctx)
	switch {
	case err == nil:
		return Authenticated, &user
	case api.IsAuth(err):
		slog.Info("Server rejected credential", "error", err)
		if invErr := g.creds.Invalidate("server rejected credential"); invErr != nil {
			slog.Warn("Failed to clear rejected credential", "error", invErr)
		}
		return Unauthenticated, nil
	default:
		slog.Debug("Session check failed", "kind", api.KindOf(err), "error", err)
		return Indeterminate, nil
	}
}

func (g *Guard) apply(epoch Epoch, state State, user *model.User) {
	g.mu.Lock()
	if !g.mounted || epoch != g.epoch {
		g.mu.Unlock()
		slog.Debug("Discarding stale guard result", "policy", g.policy, "state", state)
		return
	}
	changed := g.state != state
	g.state = state
	g.user = user
	g.mu.Unlock()

	if changed {
		g.notify(state)
	}
}

// credentialsChanged follows the auth change bus while mounted.
func (g *Guard) credentialsChanged() {
	present := g.creds.HasCredential()

	g.mu.Lock()
	if !g.mounted {
		g.mu.Unlock()
		return
	}

	var next State
	switch {
	case !present:
		next = Unauthenticated
	case g.policy == PublicOnly:
		next = Authenticated
	default:
		// A new credential must be verified again.
		next = Unknown
	}

	if next == g.state && next != Unknown {
		g.mu.Unlock()
		return
	}
	g.epoch++
	g.state = next
	g.user = nil
	g.mu.Unlock()

	g.notify(next)
}

func (g *Guard) notify(state State) {
	if g.onChange != nil {
		g.onChange(state)
	}
}
