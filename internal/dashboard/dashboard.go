// Package dashboard keeps the caller's group list in sync with the server.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/Veraticus/splitflow/internal/api"
	"github.com/Veraticus/splitflow/internal/common"
	"github.com/Veraticus/splitflow/internal/model"
	"github.com/Veraticus/splitflow/internal/notify"
)

// Toast messages shown for directory actions.
const (
	MsgLoadFailed   = "Failed to load groups"
	MsgCreated      = "Group created successfully!"
	MsgCreateFailed = "Failed to create group"
)

// ErrClosed is returned by actions on a closed directory.
var ErrClosed = errors.New("group directory closed")

// Backend is the subset of the API client the directory needs.
type Backend interface {
	ListGroups(ctx context.Context) ([]model.Group, error)
	CreateGroup(ctx context.Context, in api.NewGroup) (model.Group, error)
}

// Invalidator clears a credential the server rejected.
type Invalidator interface {
	Invalidate(reason string) error
}

// Status is the load state of the directory.
type Status int

// Directory statuses.
const (
	StatusLoading Status = iota
	StatusReady
	StatusError
)

// GroupForm is the create-group form.
type GroupForm struct {
	Name        string              `validate:"required,max=100"`
	Description string              `validate:"max=500"`
	Category    model.GroupCategory `validate:"required,oneof=trip household event other"`
}

// View is what a renderer reads from the directory.
type View struct {
	Err    error
	Groups []model.Group
	Status Status
}

// Directory lists and creates groups.
type Directory struct {
	backend     Backend
	notifier    notify.Notifier
	invalidator Invalidator
	err         error
	groups      []model.Group
	seq         uint64
	status      Status
	closed      bool
	mu          sync.Mutex
}

// Option configures a Directory.
type Option func(*Directory)

// WithNotifier sends toasts to n.
func WithNotifier(n notify.Notifier) Option {
	return func(d *Directory) {
		d.notifier = n
	}
}

// WithInvalidator clears the credential when the server rejects it.
func WithInvalidator(inv Invalidator) Option {
	return func(d *Directory) {
		d.invalidator = inv
	}
}

// New creates a directory. Call Refresh to load it.
func New(backend Backend, opts ...Option) *Directory {
	d := &Directory{
		backend:  backend,
		notifier: notify.Discard,
		status:   StatusLoading,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// View returns a copy of the current state.
func (d *Directory) View() View {
	d.mu.Lock()
	defer d.mu.Unlock()

	groups := make([]model.Group, len(d.groups))
	for i, g := range d.groups {
		groups[i] = g.Clone()
	}
	return View{Status: d.status, Err: d.err, Groups: groups}
}

// Refresh re-fetches the group list.
func (d *Directory) Refresh(ctx context.Context) error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return ErrClosed
	}
	d.seq++
	seq := d.seq
	d.mu.Unlock()

	groups, err := d.backend.ListGroups(ctx)

	d.mu.Lock()
	if d.closed || seq != d.seq {
		d.mu.Unlock()
		slog.Debug("Discarding stale group list", "seq", seq)
		return nil
	}
	if err != nil {
		d.status = StatusError
		d.err = err
		d.mu.Unlock()

		d.invalidateIfRejected(err)
		d.notifier.Notify(notify.Toast{Level: notify.Failure, Message: MsgLoadFailed})
		return fmt.Errorf("list groups: %w", err)
	}
	d.groups = groups
	d.status = StatusReady
	d.err = nil
	d.mu.Unlock()
	return nil
}

// Create validates form, creates the group, and re-fetches the list. Once the
// server accepts the group Create succeeds, whatever the re-fetch does.
func (d *Directory) Create(ctx context.Context, form GroupForm) (model.Group, error) {
	form.Name = strings.TrimSpace(form.Name)
	form.Description = strings.TrimSpace(form.Description)
	if form.Category == "" {
		form.Category = model.GroupCategoryOther
	}
	if err := common.Validate(form); err != nil {
		verr := api.NewValidationError(err.Error(), err)
		d.fail(verr)
		return model.Group{}, verr
	}

	if d.isClosed() {
		return model.Group{}, ErrClosed
	}
	group, err := d.backend.CreateGroup(ctx, api.NewGroup{
		Name:        form.Name,
		Description: form.Description,
		Category:    form.Category,
	})
	if d.isClosed() {
		return group, ErrClosed
	}
	if err != nil {
		d.fail(err)
		return model.Group{}, err
	}

	d.notifier.Notify(notify.Toast{Level: notify.Success, Message: MsgCreated})
	// A failed reload has already toasted.
	if err := d.Refresh(ctx); err != nil && !errors.Is(err, ErrClosed) {
		slog.Warn("Group list reload failed after create", "group", group.ID, "error", err)
	}
	return group, nil
}

// Close disarms the directory. Results still in flight are dropped.
func (d *Directory) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	d.seq++
}

func (d *Directory) isClosed() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.closed
}

func (d *Directory) fail(err error) {
	d.invalidateIfRejected(err)
	d.notifier.Notify(notify.Toast{Level: notify.Failure, Message: api.Message(err, MsgCreateFailed)})
}

func (d *Directory) invalidateIfRejected(err error) {
	if !api.IsAuth(err) || d.invalidator == nil {
		return
	}
	if invErr := d.invalidator.Invalidate("server rejected credential"); invErr != nil {
		slog.Warn("Failed to clear rejected credential", "error", invErr)
	}
}
