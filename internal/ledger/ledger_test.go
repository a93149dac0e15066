package ledger

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/Veraticus/splitflow/internal/api"
	"github.com/Veraticus/splitflow/internal/model"
	"github.com/Veraticus/splitflow/internal/notify"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type updateCall struct {
	in api.ExpenseInput
	id string
}

type fakeBackend struct {
	errs        map[string]error
	onGetGroup  func(call int)
	onRead      func(op string) error
	summary     *model.Summary
	calls       map[string]int
	members     []string
	creates     []api.ExpenseInput
	updates     []updateCall
	expenses    []model.Expense
	settlements []model.Settlement
	report      []byte
	groupName   string
	mu          sync.Mutex
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		errs:      map[string]error{},
		calls:     map[string]int{},
		groupName: "Trip",
		members:   []string{"u1", "u2"},
		expenses: []model.Expense{
			{ID: "E1", Description: "Dinner", Amount: decimal.RequireFromString("30"), Category: model.ExpenseCategoryFood, PaidBy: ref("u1")},
			{ID: "E2", Description: "Taxi", Amount: decimal.RequireFromString("12.50"), Category: model.ExpenseCategoryTransport, PaidBy: ref("u2")},
		},
		settlements: []model.Settlement{
			{ID: "S1", From: ref("u2"), To: ref("u1"), Amount: decimal.RequireFromString("8.75")},
		},
		summary: &model.Summary{TotalExpenses: decimal.RequireFromString("42.50"), PendingSettlements: 1},
		report:  []byte("Description,Amount\nDinner,30\n"),
	}
}

func ref(id string) model.UserRef {
	return model.UserRef{User: model.User{ID: id, Name: id}}
}

func (f *fakeBackend) record(op string) (int, error) {
	f.mu.Lock()
	f.calls[op]++
	call, err, onRead := f.calls[op], f.errs[op], f.onRead
	f.mu.Unlock()

	if onRead != nil && isRead(op) {
		if hookErr := onRead(op); hookErr != nil {
			return call, hookErr
		}
	}
	return call, err
}

func isRead(op string) bool {
	switch op {
	case "group", "expenses", "settlements", "summary":
		return true
	}
	return false
}

func (f *fakeBackend) SetOnRead(fn func(op string) error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.onRead = fn
}

func (f *fakeBackend) Calls(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

func (f *fakeBackend) SetErr(op string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errs[op] = err
}

func (f *fakeBackend) SetGroupName(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.groupName = name
}

func (f *fakeBackend) GetGroup(_ context.Context, groupID string) (model.Group, error) {
	call, err := f.record("group")

	f.mu.Lock()
	g := model.Group{ID: groupID, Name: f.groupName}
	for _, id := range f.members {
		g.Members = append(g.Members, model.Member{User: ref(id)})
	}
	f.mu.Unlock()

	if f.onGetGroup != nil {
		f.onGetGroup(call)
	}
	if err != nil {
		return model.Group{}, err
	}
	return g, nil
}

func (f *fakeBackend) ListExpenses(context.Context, string) ([]model.Expense, error) {
	if _, err := f.record("expenses"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.Expense(nil), f.expenses...), nil
}

func (f *fakeBackend) ListSettlements(context.Context, string) ([]model.Settlement, error) {
	if _, err := f.record("settlements"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.Settlement(nil), f.settlements...), nil
}

func (f *fakeBackend) SettlementSummary(context.Context, string) (*model.Summary, error) {
	if _, err := f.record("summary"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	summary := *f.summary
	return &summary, nil
}

func (f *fakeBackend) AddMember(_ context.Context, _, email string) error {
	if _, err := f.record("addMember"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.members = append(f.members, email)
	return nil
}

func (f *fakeBackend) CreateExpense(_ context.Context, in api.ExpenseInput) error {
	if _, err := f.record("create"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.creates = append(f.creates, in)
	f.expenses = append(f.expenses, model.Expense{ID: "E3", Description: in.Description, Amount: in.Amount})
	return nil
}

func (f *fakeBackend) UpdateExpense(_ context.Context, id string, in api.ExpenseInput) error {
	if _, err := f.record("update"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates = append(f.updates, updateCall{id: id, in: in})
	for i := range f.expenses {
		if f.expenses[i].ID == id {
			f.expenses[i].Description = in.Description
			f.expenses[i].Amount = in.Amount
		}
	}
	return nil
}

func (f *fakeBackend) DeleteExpense(_ context.Context, id string) error {
	if _, err := f.record("delete"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	kept := f.expenses[:0]
	for _, e := range f.expenses {
		if e.ID != id {
			kept = append(kept, e)
		}
	}
	f.expenses = kept
	return nil
}

func (f *fakeBackend) Settle(_ context.Context, id string) error {
	if _, err := f.record("settle"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.settlements {
		if f.settlements[i].ID == id {
			f.settlements[i].Settled = true
		}
	}
	return nil
}

func (f *fakeBackend) Report(context.Context, string) ([]byte, error) {
	if _, err := f.record("report"); err != nil {
		return nil, err
	}
	return f.report, nil
}

type fakeInvalidator struct {
	calls int
}

func (f *fakeInvalidator) Invalidate(string) error {
	f.calls++
	return nil
}

func newController(t *testing.T, backend *fakeBackend, opts ...Option) (*Controller, *notify.Recorder) {
	t.Helper()
	rec := &notify.Recorder{}
	opts = append([]Option{WithNotifier(rec), WithPayer("u1")}, opts...)
	return New("G1", backend, opts...), rec
}

func loaded(t *testing.T, backend *fakeBackend, opts ...Option) (*Controller, *notify.Recorder) {
	t.Helper()
	c, rec := newController(t, backend, opts...)
	require.NoError(t, c.Refresh(context.Background()))
	return c, rec
}

var (
	networkErr = &api.Error{Kind: api.KindNetwork, Err: errors.New("connection refused")}
	authErr    = &api.Error{Kind: api.KindAuth, Status: http.StatusUnauthorized}
)

func TestRefresh_AppliesSnapshot(t *testing.T) {
	backend := newFakeBackend()
	c, _ := newController(t, backend)
	assert.Equal(t, StatusLoading, c.View().Status)
	assert.Nil(t, c.View().Snapshot)

	require.NoError(t, c.Refresh(context.Background()))

	v := c.View()
	assert.Equal(t, StatusReady, v.Status)
	require.NotNil(t, v.Snapshot)
	assert.Equal(t, "Trip", v.Snapshot.Group.Name)
	assert.Len(t, v.Snapshot.Expenses, 2)
	assert.Len(t, v.Snapshot.Settlements, 1)
	assert.Equal(t, 1, v.Snapshot.Summary.PendingSettlements)
	for _, op := range []string{"group", "expenses", "settlements", "summary"} {
		assert.Equal(t, 1, backend.Calls(op), op)
	}
}

func TestRefresh_IsAllOrNothing(t *testing.T) {
	for _, op := range []string{"group", "expenses", "settlements", "summary"} {
		t.Run(op, func(t *testing.T) {
			backend := newFakeBackend()
			c, rec := loaded(t, backend)
			before := c.View().Snapshot

			backend.SetGroupName("Renamed")
			backend.SetErr(op, networkErr)

			err := c.Refresh(context.Background())
			require.Error(t, err)

			v := c.View()
			assert.Equal(t, StatusError, v.Status)
			assert.Equal(t, before, v.Snapshot)
			assert.Equal(t, "Trip", v.Snapshot.Group.Name)
			assert.Equal(t, []string{MsgLoadFailed}, rec.Messages())
		})
	}
}

func TestRefresh_FirstLoadFailureLeavesNoSnapshot(t *testing.T) {
	backend := newFakeBackend()
	backend.SetErr("summary", &api.Error{Kind: api.KindServer, Status: http.StatusInternalServerError})
	c, _ := newController(t, backend)

	require.Error(t, c.Refresh(context.Background()))

	v := c.View()
	assert.Equal(t, StatusError, v.Status)
	assert.Nil(t, v.Snapshot)
	assert.Equal(t, api.KindServer, api.KindOf(v.Err))
}

func TestRefresh_FailureToastPrefersServerMessage(t *testing.T) {
	backend := newFakeBackend()
	c, rec := loaded(t, backend)
	backend.SetErr("settlements", &api.Error{Kind: api.KindServer, Status: http.StatusServiceUnavailable, Message: "Database unavailable"})

	require.Error(t, c.Refresh(context.Background()))

	assert.Equal(t, []string{"Database unavailable"}, rec.Messages())
}

func TestRefresh_RequestsRunConcurrently(t *testing.T) {
	backend := newFakeBackend()
	c, _ := loaded(t, backend)

	var (
		mu      sync.Mutex
		entered int
	)
	allIn := make(chan struct{})
	release := make(chan struct{})
	backend.SetGroupName("Renamed")
	backend.SetOnRead(func(op string) error {
		mu.Lock()
		entered++
		if entered == 4 {
			close(allIn)
		}
		mu.Unlock()

		select {
		case <-allIn:
		case <-time.After(2 * time.Second):
			return errors.New(op + " ran without the other reads in flight")
		}
		<-release
		return nil
	})

	done := make(chan error, 1)
	go func() { done <- c.Refresh(context.Background()) }()

	select {
	case <-allIn:
	case <-time.After(3 * time.Second):
		close(release)
		t.Fatal("the four reads were never in flight together")
	}

	// Nothing is applied until every read has returned.
	v := c.View()
	assert.True(t, v.Refreshing)
	assert.Equal(t, StatusReady, v.Status)
	assert.Equal(t, "Trip", v.Snapshot.Group.Name)

	close(release)
	require.NoError(t, <-done)
	assert.Equal(t, "Renamed", c.View().Snapshot.Group.Name)
}

func TestRefresh_IsIdempotent(t *testing.T) {
	backend := newFakeBackend()
	c, _ := loaded(t, backend)
	first := c.View()

	require.NoError(t, c.Refresh(context.Background()))

	assert.Equal(t, first, c.View())
}

func TestRefresh_SupersededResultIsDropped(t *testing.T) {
	backend := newFakeBackend()
	started := make(chan struct{})
	release := make(chan struct{})
	backend.onGetGroup = func(call int) {
		if call == 1 {
			close(started)
			<-release
		}
	}
	c, _ := newController(t, backend)

	done := make(chan error)
	go func() { done <- c.Refresh(context.Background()) }()
	<-started

	// The group name read by the first refresh was captured before the rename,
	// so only the second refresh can produce "Second".
	backend.SetGroupName("Second")
	require.NoError(t, c.Refresh(context.Background()))
	close(release)
	require.NoError(t, <-done)

	assert.Equal(t, "Second", c.View().Snapshot.Group.Name)
}

func TestRefresh_ResultAfterCloseIsDropped(t *testing.T) {
	backend := newFakeBackend()
	started := make(chan struct{})
	release := make(chan struct{})
	backend.onGetGroup = func(int) {
		close(started)
		<-release
	}
	c, rec := newController(t, backend)

	done := make(chan error)
	go func() { done <- c.Refresh(context.Background()) }()
	<-started
	c.Close()
	close(release)
	require.NoError(t, <-done)

	v := c.View()
	assert.Equal(t, StatusLoading, v.Status)
	assert.Nil(t, v.Snapshot)
	assert.Empty(t, rec.Messages())
	assert.ErrorIs(t, c.Refresh(context.Background()), ErrClosed)
}

func TestView_ReturnsCopy(t *testing.T) {
	c, _ := loaded(t, newFakeBackend())

	v := c.View()
	v.Snapshot.Expenses[0].Description = "mutated"
	v.Snapshot.Summary.PendingSettlements = 99

	again := c.View()
	assert.Equal(t, "Dinner", again.Snapshot.Expenses[0].Description)
	assert.Equal(t, 1, again.Snapshot.Summary.PendingSettlements)
}

func TestMutations_RefetchOnSuccess(t *testing.T) {
	tests := []struct {
		run         func(context.Context, *Controller) error
		name        string
		op          string
		wantMessage string
	}{
		{name: "add member", op: "addMember", wantMessage: MsgMemberAdded, run: func(ctx context.Context, c *Controller) error {
			return c.AddMember(ctx, "new@x.com")
		}},
		{name: "delete", op: "delete", wantMessage: MsgDeleted, run: func(ctx context.Context, c *Controller) error {
			return c.DeleteExpense(ctx, "E2")
		}},
		{name: "settle", op: "settle", wantMessage: MsgSettled, run: func(ctx context.Context, c *Controller) error {
			return c.Settle(ctx, "S1")
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend := newFakeBackend()
			c, rec := loaded(t, backend)

			require.NoError(t, tt.run(context.Background(), c))

			assert.Equal(t, 1, backend.Calls(tt.op))
			for _, op := range []string{"group", "expenses", "settlements", "summary"} {
				assert.Equal(t, 2, backend.Calls(op), op)
			}
			assert.Equal(t, []string{tt.wantMessage}, rec.Messages())
			assert.Equal(t, StatusReady, c.View().Status)
		})
	}
}

func TestMutations_FailureLeavesStateUntouched(t *testing.T) {
	tests := []struct {
		err         error
		run         func(context.Context, *Controller) error
		name        string
		op          string
		wantMessage string
	}{
		{
			name: "delete network failure", op: "delete", err: networkErr, wantMessage: MsgDeleteFailed,
			run: func(ctx context.Context, c *Controller) error { return c.DeleteExpense(ctx, "E2") },
		},
		{
			name: "add member with server message", op: "addMember", wantMessage: "User not found",
			err: &api.Error{Kind: api.KindValidation, Status: http.StatusNotFound, Message: "User not found"},
			run: func(ctx context.Context, c *Controller) error { return c.AddMember(ctx, "ghost@x.com") },
		},
		{
			name: "settle server failure", op: "settle", wantMessage: MsgSettleFailed,
			err: &api.Error{Kind: api.KindServer, Status: http.StatusInternalServerError},
			run: func(ctx context.Context, c *Controller) error { return c.Settle(ctx, "S1") },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend := newFakeBackend()
			c, rec := loaded(t, backend)
			before := c.View()
			backend.SetErr(tt.op, tt.err)

			err := tt.run(context.Background(), c)

			require.Error(t, err)
			assert.Equal(t, before, c.View())
			assert.Equal(t, 1, backend.Calls("group"))
			assert.Equal(t, []string{tt.wantMessage}, rec.Messages())
		})
	}
}

func TestSubmitExpense_EditReplacesSelectedExpense(t *testing.T) {
	backend := newFakeBackend()
	c, rec := loaded(t, backend)

	require.NoError(t, c.BeginEdit("E1"))
	form, editing := c.Form()
	assert.Equal(t, "E1", editing)
	assert.Equal(t, "Dinner", form.Description)
	assert.Equal(t, "30", form.Amount)
	assert.Equal(t, "u1", form.PaidBy)

	form.Amount = "36.40"
	require.NoError(t, c.SubmitExpense(context.Background(), form))

	assert.Equal(t, 0, backend.Calls("create"))
	require.Len(t, backend.updates, 1)
	update := backend.updates[0]
	assert.Equal(t, "E1", update.id)
	assert.Equal(t, "G1", update.in.GroupID)
	assert.Equal(t, "36.4", update.in.Amount.String())
	assert.Equal(t, []string{"u1", "u2"}, update.in.Participants)
	assert.Equal(t, []string{MsgExpenseUpdated}, rec.Messages())

	v := c.View()
	assert.False(t, v.Editing())
	assert.Equal(t, NewExpenseForm("u1"), v.Form)
	e, ok := v.Snapshot.Expense("E1")
	require.True(t, ok)
	assert.Equal(t, "36.4", e.Amount.String())
}

func TestSubmitExpense_SavedEditSurvivesFailedReload(t *testing.T) {
	backend := newFakeBackend()
	c, rec := loaded(t, backend)

	require.NoError(t, c.BeginEdit("E1"))
	form, _ := c.Form()
	form.Description = "Dinner and drinks"
	backend.SetErr("group", networkErr)

	require.NoError(t, c.SubmitExpense(context.Background(), form))

	require.Len(t, backend.updates, 1)
	assert.Equal(t, "E1", backend.updates[0].id)
	assert.Equal(t, []string{MsgExpenseUpdated, MsgLoadFailed}, rec.Messages())

	v := c.View()
	assert.False(t, v.Editing())
	assert.Equal(t, StatusError, v.Status)
	assert.Equal(t, "Dinner", v.Snapshot.Expenses[0].Description, "the stale snapshot is kept")

	// A retry once the server recovers is a plain reload, not another write.
	backend.SetErr("group", nil)
	require.NoError(t, c.Refresh(context.Background()))
	assert.Equal(t, 0, backend.Calls("create"))
	assert.Equal(t, 1, backend.Calls("update"))
	assert.Equal(t, "Dinner and drinks", c.View().Snapshot.Expenses[0].Description)
}

func TestSubmitExpense_CreateWithoutEdit(t *testing.T) {
	backend := newFakeBackend()
	c, rec := loaded(t, backend)

	require.NoError(t, c.BeginEdit("E1"))
	c.CancelForm()

	err := c.SubmitExpense(context.Background(), ExpenseForm{
		Description: "  Museum ",
		Amount:      "18",
		Category:    model.ExpenseCategoryEntertainment,
		PaidBy:      "u2",
	})
	require.NoError(t, err)

	assert.Equal(t, 0, backend.Calls("update"))
	require.Len(t, backend.creates, 1)
	assert.Equal(t, "Museum", backend.creates[0].Description)
	assert.Equal(t, "u2", backend.creates[0].PaidBy)
	assert.Equal(t, []string{MsgExpenseAdded}, rec.Messages())
	assert.Len(t, c.View().Snapshot.Expenses, 3)
}

func TestSubmitExpense_ValidationSendsNothing(t *testing.T) {
	tests := []struct {
		name    string
		wantMsg string
		form    ExpenseForm
	}{
		{name: "missing description", form: ExpenseForm{Amount: "5", Category: "food", PaidBy: "u1"}, wantMsg: "Description is required"},
		{name: "zero amount", form: ExpenseForm{Description: "x", Amount: "0", Category: "food", PaidBy: "u1"}, wantMsg: "Amount must be greater than zero"},
		{name: "not a number", form: ExpenseForm{Description: "x", Amount: "abc", Category: "food", PaidBy: "u1"}, wantMsg: "Amount must be a number"},
		{name: "too precise", form: ExpenseForm{Description: "x", Amount: "1.005", Category: "food", PaidBy: "u1"}, wantMsg: "Amount can have at most two decimal places"},
		{name: "bad category", form: ExpenseForm{Description: "x", Amount: "5", Category: "toys", PaidBy: "u1"}, wantMsg: "Category must be one of: food, accommodation, transport, entertainment, utilities, other"},
		{name: "payer outside group", form: ExpenseForm{Description: "x", Amount: "5", Category: "food", PaidBy: "u9"}, wantMsg: "Payer must be a group member"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend := newFakeBackend()
			c, rec := loaded(t, backend)

			err := c.SubmitExpense(context.Background(), tt.form)

			require.Error(t, err)
			assert.Equal(t, api.KindValidation, api.KindOf(err))
			assert.Equal(t, 0, backend.Calls("create"))
			assert.Equal(t, 0, backend.Calls("update"))
			assert.Equal(t, tt.form, c.View().Form)
			assert.Equal(t, []string{tt.wantMsg}, rec.Messages())
		})
	}
}

func TestSubmitExpense_ServerFailureKeepsForm(t *testing.T) {
	backend := newFakeBackend()
	c, rec := loaded(t, backend)
	require.NoError(t, c.BeginEdit("E2"))
	backend.SetErr("update", networkErr)

	form, _ := c.Form()
	form.Description = "Airport taxi"
	require.Error(t, c.SubmitExpense(context.Background(), form))

	v := c.View()
	assert.Equal(t, "E2", v.EditingID)
	assert.Equal(t, "Airport taxi", v.Form.Description)
	assert.Equal(t, []string{MsgExpenseFailed}, rec.Messages())
}

func TestBeginEdit_UnknownExpense(t *testing.T) {
	c, _ := loaded(t, newFakeBackend())
	assert.Error(t, c.BeginEdit("missing"))
	assert.False(t, c.View().Editing())
}

func TestDeleteExpense_ClearsEditOfDeletedExpense(t *testing.T) {
	c, _ := loaded(t, newFakeBackend())
	require.NoError(t, c.BeginEdit("E2"))

	require.NoError(t, c.DeleteExpense(context.Background(), "E2"))

	v := c.View()
	assert.False(t, v.Editing())
	_, ok := v.Snapshot.Expense("E2")
	assert.False(t, ok)
}

func TestAddMember_InvalidEmail(t *testing.T) {
	backend := newFakeBackend()
	c, rec := loaded(t, backend)

	err := c.AddMember(context.Background(), "not-an-email")

	assert.Equal(t, api.KindValidation, api.KindOf(err))
	assert.Equal(t, 0, backend.Calls("addMember"))
	assert.Equal(t, []string{"Email must be a valid email address"}, rec.Messages())
}

func TestRejectedCredentialIsInvalidated(t *testing.T) {
	backend := newFakeBackend()
	inv := &fakeInvalidator{}
	c, _ := loaded(t, backend, WithInvalidator(inv))
	backend.SetErr("settle", authErr)

	require.Error(t, c.Settle(context.Background(), "S1"))
	assert.Equal(t, 1, inv.calls)

	backend.SetErr("expenses", authErr)
	require.Error(t, c.Refresh(context.Background()))
	assert.Equal(t, 2, inv.calls)
}

func TestExportReport(t *testing.T) {
	backend := newFakeBackend()
	c, rec := loaded(t, backend)

	report, err := c.ExportReport(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "expense-report-G1.csv", report.Filename)
	assert.Equal(t, backend.report, report.Data)
	assert.Equal(t, []string{MsgExported}, rec.Messages())

	backend.SetErr("report", networkErr)
	_, err = c.ExportReport(context.Background())
	require.Error(t, err)
	assert.Equal(t, []string{MsgExported, MsgExportFailed}, rec.Messages())
	assert.Equal(t, 1, backend.Calls("group"))
}
