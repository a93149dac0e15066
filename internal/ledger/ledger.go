// Package ledger keeps one group's expenses, settlements, and summary in sync
// with the server.
//
// Every read is a four-resource snapshot fetched concurrently and applied only
// when all four succeed. Every mutation is a single request followed by a full
// re-fetch; responses are never merged into local state.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/Veraticus/splitflow/internal/api"
	"github.com/Veraticus/splitflow/internal/model"
	"github.com/Veraticus/splitflow/internal/notify"
	"golang.org/x/sync/errgroup"
)

// Toast messages shown for ledger actions.
const (
	MsgLoadFailed     = "Failed to load group data"
	MsgMemberAdded    = "Member added successfully!"
	MsgMemberFailed   = "Failed to add member"
	MsgExpenseAdded   = "Expense added successfully!"
	MsgExpenseUpdated = "Expense updated successfully!"
	MsgExpenseFailed  = "Failed to save expense"
	MsgDeleted        = "Expense deleted successfully!"
	MsgDeleteFailed   = "Failed to delete expense"
	MsgSettled        = "Payment marked as settled!"
	MsgSettleFailed   = "Failed to settle payment"
	MsgExported       = "Report exported successfully!"
	MsgExportFailed   = "Failed to export report"
)

// ErrClosed is returned by actions on a closed controller.
var ErrClosed = errors.New("ledger controller closed")

// Backend is the subset of the API client the controller needs.
type Backend interface {
	GetGroup(ctx context.Context, groupID string) (model.Group, error)
	ListExpenses(ctx context.Context, groupID string) ([]model.Expense, error)
	ListSettlements(ctx context.Context, groupID string) ([]model.Settlement, error)
	SettlementSummary(ctx context.Context, groupID string) (*model.Summary, error)
	AddMember(ctx context.Context, groupID, email string) error
	CreateExpense(ctx context.Context, in api.ExpenseInput) error
	UpdateExpense(ctx context.Context, expenseID string, in api.ExpenseInput) error
	DeleteExpense(ctx context.Context, expenseID string) error
	Settle(ctx context.Context, settlementID string) error
	Report(ctx context.Context, groupID string) ([]byte, error)
}

// Invalidator clears a credential the server rejected.
type Invalidator interface {
	Invalidate(reason string) error
}

// Status is the load state of the controller.
type Status int

// Controller statuses.
const (
	StatusLoading Status = iota
	StatusReady
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusReady:
		return "ready"
	case StatusError:
		return "error"
	default:
		return "loading"
	}
}

// Snapshot is one consistent view of a group.
type Snapshot struct {
	Summary     *model.Summary
	Group       model.Group
	Expenses    []model.Expense
	Settlements []model.Settlement
}

// Clone returns a deep copy of s.
func (s Snapshot) Clone() Snapshot {
	out := Snapshot{Group: s.Group.Clone()}
	if s.Summary != nil {
		summary := *s.Summary
		out.Summary = &summary
	}
	out.Expenses = make([]model.Expense, len(s.Expenses))
	for i, e := range s.Expenses {
		out.Expenses[i] = e.Clone()
	}
	out.Settlements = append([]model.Settlement{}, s.Settlements...)
	return out
}

// Expense returns the expense with id.
func (s Snapshot) Expense(id string) (model.Expense, bool) {
	for _, e := range s.Expenses {
		if e.ID == id {
			return e, true
		}
	}
	return model.Expense{}, false
}

// View is what a renderer reads from the controller.
type View struct {
	Err        error
	Snapshot   *Snapshot
	Form       ExpenseForm
	EditingID  string
	Status     Status
	Refreshing bool
}

// Editing reports whether the form targets an existing expense.
func (v View) Editing() bool {
	return v.EditingID != ""
}

// Report is a downloaded CSV expense report.
type Report struct {
	Filename string
	Data     []byte
}

// Controller owns the state of one group screen.
type Controller struct {
	backend     Backend
	notifier    notify.Notifier
	invalidator Invalidator
	snapshot    *Snapshot
	err         error
	groupID     string
	payer       string
	editingID   string
	form        ExpenseForm
	seq         uint64
	inflight    int
	status      Status
	closed      bool
	mu          sync.Mutex
}

// Option configures a Controller.
type Option func(*Controller)

// WithNotifier sends toasts to n.
func WithNotifier(n notify.Notifier) Option {
	return func(c *Controller) {
		c.notifier = n
	}
}

// WithInvalidator clears the credential when the server rejects it.
func WithInvalidator(inv Invalidator) Option {
	return func(c *Controller) {
		c.invalidator = inv
	}
}

// WithPayer sets the default payer for new expenses.
func WithPayer(userID string) Option {
	return func(c *Controller) {
		c.payer = userID
	}
}

// New creates a controller for groupID. Call Refresh to load it.
func New(groupID string, backend Backend, opts ...Option) *Controller {
	c := &Controller{
		groupID:  groupID,
		backend:  backend,
		notifier: notify.Discard,
		status:   StatusLoading,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.form = NewExpenseForm(c.payer)
	return c
}

// GroupID returns the group this controller tracks.
func (c *Controller) GroupID() string {
	return c.groupID
}

// View returns a copy of the current state.
func (c *Controller) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()

	v := View{
		Status:     c.status,
		Err:        c.err,
		Form:       c.form,
		EditingID:  c.editingID,
		Refreshing: c.inflight > 0,
	}
	if c.snapshot != nil {
		snap := c.snapshot.Clone()
		v.Snapshot = &snap
	}
	return v
}

// Refresh fetches group, expenses, settlements, and summary concurrently and
// replaces the snapshot only if all four succeed. A refresh superseded by a
// later one, or finishing after Close, is dropped.
func (c *Controller) Refresh(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	c.seq++
	seq := c.seq
	c.inflight++
	c.mu.Unlock()

	snap, err := c.fetch(ctx)

	c.mu.Lock()
	c.inflight--
	if c.closed || seq != c.seq {
		c.mu.Unlock()
		slog.Debug("Discarding stale group snapshot", "group", c.groupID, "seq", seq)
		return nil
	}
	if err != nil {
		c.status = StatusError
		c.err = err
		c.mu.Unlock()

		slog.Warn("Failed to load group", "group", c.groupID, "error", err)
		c.invalidateIfRejected(err)
		c.notifier.Notify(notify.Toast{Level: notify.Failure, Message: api.Message(err, MsgLoadFailed)})
		return fmt.Errorf("refresh group %s: %w", c.groupID, err)
	}
	c.snapshot = &snap
	c.status = StatusReady
	c.err = nil
	c.mu.Unlock()

	slog.Debug("Group snapshot applied",
		"group", c.groupID,
		"expenses", len(snap.Expenses),
		"settlements", len(snap.Settlements))
	return nil
}

func (c *Controller) fetch(ctx context.Context) (Snapshot, error) {
	var snap Snapshot
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		group, err := c.backend.GetGroup(gctx, c.groupID)
		snap.Group = group
		return err
	})
	g.Go(func() error {
		expenses, err := c.backend.ListExpenses(gctx, c.groupID)
		snap.Expenses = expenses
		return err
	})
	g.Go(func() error {
		settlements, err := c.backend.ListSettlements(gctx, c.groupID)
		snap.Settlements = settlements
		return err
	})
	g.Go(func() error {
		summary, err := c.backend.SettlementSummary(gctx, c.groupID)
		snap.Summary = summary
		return err
	})

	if err := g.Wait(); err != nil {
		return Snapshot{}, err
	}
	if snap.Expenses == nil {
		snap.Expenses = []model.Expense{}
	}
	if snap.Settlements == nil {
		snap.Settlements = []model.Settlement{}
	}
	return snap, nil
}

// AddMember adds the user with email to the group.
func (c *Controller) AddMember(ctx context.Context, email string) error {
	if err := validateEmail(email); err != nil {
		c.fail(err, MsgMemberFailed)
		return err
	}
	return c.mutate(ctx, func(ctx context.Context) error {
		return c.backend.AddMember(ctx, c.groupID, trim(email))
	}, MsgMemberAdded, MsgMemberFailed)
}

// DeleteExpense removes an expense.
func (c *Controller) DeleteExpense(ctx context.Context, expenseID string) error {
	return c.mutate(ctx, func(ctx context.Context) error {
		if err := c.backend.DeleteExpense(ctx, expenseID); err != nil {
			return err
		}
		c.mu.Lock()
		if c.editingID == expenseID {
			c.resetFormLocked()
		}
		c.mu.Unlock()
		return nil
	}, MsgDeleted, MsgDeleteFailed)
}

// Settle marks a settlement as paid.
func (c *Controller) Settle(ctx context.Context, settlementID string) error {
	return c.mutate(ctx, func(ctx context.Context) error {
		return c.backend.Settle(ctx, settlementID)
	}, MsgSettled, MsgSettleFailed)
}

// ExportReport downloads the group's CSV report. Saving it is up to the caller.
func (c *Controller) ExportReport(ctx context.Context) (Report, error) {
	if c.isClosed() {
		return Report{}, ErrClosed
	}

	data, err := c.backend.Report(ctx, c.groupID)
	if c.isClosed() {
		return Report{}, ErrClosed
	}
	if err != nil {
		c.fail(err, MsgExportFailed)
		return Report{}, fmt.Errorf("export report: %w", err)
	}

	c.succeed(MsgExported)
	return Report{Filename: ReportFilename(c.groupID), Data: data}, nil
}

// ReportFilename is the suggested file name for a group's report.
func ReportFilename(groupID string) string {
	return fmt.Sprintf("expense-report-%s.csv", groupID)
}

// Close disarms the controller. Results still in flight are dropped.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	c.seq++
}

// mutate runs op, then re-fetches on success. Failures leave state untouched.
// Once op succeeds mutate reports success even if the re-fetch fails, so a
// caller never retries a write the server already applied.
func (c *Controller) mutate(ctx context.Context, op func(context.Context) error, success, failure string) error {
	if c.isClosed() {
		return ErrClosed
	}

	err := op(ctx)
	if c.isClosed() {
		if err != nil {
			return err
		}
		return ErrClosed
	}
	if err != nil {
		c.fail(err, failure)
		return err
	}

	c.succeed(success)
	if err := c.Refresh(ctx); err != nil && !errors.Is(err, ErrClosed) {
		// Refresh has already toasted and set StatusError.
		slog.Warn("Group refresh failed after a saved change", "group", c.groupID, "error", err)
	}
	return nil
}

func (c *Controller) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *Controller) succeed(message string) {
	c.notifier.Notify(notify.Toast{Level: notify.Success, Message: message})
}

// fail reports err to the user, preferring the server's message over fallback.
func (c *Controller) fail(err error, fallback string) {
	c.invalidateIfRejected(err)
	c.notifier.Notify(notify.Toast{Level: notify.Failure, Message: api.Message(err, fallback)})
}

func (c *Controller) invalidateIfRejected(err error) {
	if !api.IsAuth(err) || c.invalidator == nil {
		return
	}
	if invErr := c.invalidator.Invalidate("server rejected credential"); invErr != nil {
		slog.Warn("Failed to clear rejected credential", "error", invErr)
	}
}
