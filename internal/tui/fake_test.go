package tui

import (
	"context"
	"sync"

	"github.com/Veraticus/splitflow/internal/api"
	"github.com/Veraticus/splitflow/internal/model"
	"github.com/shopspring/decimal"
)

type fakeBackend struct {
	errs        map[string]error
	user        model.User
	groups      []model.Group
	expenses    []model.Expense
	settlements []model.Settlement
	created     []api.ExpenseInput
	updated     map[string]api.ExpenseInput
	deleted     []string
	settled     []string
	members     []string
	newGroups   []api.NewGroup
	logins      []api.Credentials
	report      []byte
	mu          sync.Mutex
}

func newFakeBackend() *fakeBackend {
	ana := model.User{ID: "u1", Name: "Ana", Email: "ana@example.com"}
	ben := model.User{ID: "u2", Name: "Ben", Email: "ben@example.com"}
	return &fakeBackend{
		errs:    map[string]error{},
		updated: map[string]api.ExpenseInput{},
		user:    ana,
		groups: []model.Group{{
			ID:          "G1",
			Name:        "Lisbon Trip",
			Description: "Spring break",
			Category:    model.GroupCategoryTrip,
			Members:     []model.Member{{User: model.UserRef{User: ana}}, {User: model.UserRef{User: ben}}},
		}},
		expenses: []model.Expense{{
			ID:          "E1",
			Description: "Dinner",
			Amount:      decimal.RequireFromString("30"),
			Category:    model.ExpenseCategoryFood,
			PaidBy:      model.UserRef{User: ana},
		}},
		settlements: []model.Settlement{{
			ID:     "S1",
			From:   model.UserRef{User: ben},
			To:     model.UserRef{User: ana},
			Amount: decimal.RequireFromString("15"),
		}},
		report: []byte("Description,Amount\nDinner,30\n"),
	}
}

func (f *fakeBackend) setErr(op string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errs[op] = err
}

func (f *fakeBackend) err(op string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.errs[op]
}

func (f *fakeBackend) Me(context.Context) (model.User, error) {
	if err := f.err("me"); err != nil {
		return model.User{}, err
	}
	return f.user, nil
}

func (f *fakeBackend) Login(_ context.Context, creds api.Credentials) (string, error) {
	f.mu.Lock()
	f.logins = append(f.logins, creds)
	f.mu.Unlock()
	if err := f.err("login"); err != nil {
		return "", err
	}
	return "token-login", nil
}

func (f *fakeBackend) Register(context.Context, api.Registration) (string, error) {
	if err := f.err("register"); err != nil {
		return "", err
	}
	return "token-register", nil
}

func (f *fakeBackend) ListGroups(context.Context) ([]model.Group, error) {
	if err := f.err("groups"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.Group{}, f.groups...), nil
}

func (f *fakeBackend) CreateGroup(_ context.Context, in api.NewGroup) (model.Group, error) {
	if err := f.err("createGroup"); err != nil {
		return model.Group{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.newGroups = append(f.newGroups, in)
	g := model.Group{ID: "G2", Name: in.Name, Description: in.Description, Category: in.Category}
	f.groups = append(f.groups, g)
	return g, nil
}

func (f *fakeBackend) GetGroup(_ context.Context, id string) (model.Group, error) {
	if err := f.err("group"); err != nil {
		return model.Group{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, g := range f.groups {
		if g.ID == id {
			return g.Clone(), nil
		}
	}
	return model.Group{}, &api.Error{Kind: api.KindValidation, Status: 404, Message: "Group not found"}
}

func (f *fakeBackend) ListExpenses(context.Context, string) ([]model.Expense, error) {
	if err := f.err("expenses"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.Expense{}, f.expenses...), nil
}

func (f *fakeBackend) ListSettlements(context.Context, string) ([]model.Settlement, error) {
	if err := f.err("settlements"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.Settlement{}, f.settlements...), nil
}

func (f *fakeBackend) SettlementSummary(context.Context, string) (*model.Summary, error) {
	if err := f.err("summary"); err != nil {
		return nil, err
	}
	return &model.Summary{
		TotalExpenses:      decimal.RequireFromString("30"),
		TotalUnsettled:     decimal.RequireFromString("15"),
		PendingSettlements: 1,
	}, nil
}

func (f *fakeBackend) AddMember(_ context.Context, _ string, email string) error {
	if err := f.err("addMember"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.members = append(f.members, email)
	return nil
}

func (f *fakeBackend) CreateExpense(_ context.Context, in api.ExpenseInput) error {
	if err := f.err("createExpense"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, in)
	return nil
}

func (f *fakeBackend) UpdateExpense(_ context.Context, id string, in api.ExpenseInput) error {
	if err := f.err("updateExpense"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updated[id] = in
	return nil
}

func (f *fakeBackend) DeleteExpense(_ context.Context, id string) error {
	if err := f.err("deleteExpense"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeBackend) Settle(_ context.Context, id string) error {
	if err := f.err("settle"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.settled = append(f.settled, id)
	return nil
}

func (f *fakeBackend) Report(context.Context, string) ([]byte, error) {
	if err := f.err("report"); err != nil {
		return nil, err
	}
	return f.report, nil
}
