package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/Veraticus/splitflow/internal/model"
	"github.com/shopspring/decimal"
)

// Client exposes one method per server endpoint.
type Client struct {
	gw *Gateway
}

// NewClient wraps gw.
func NewClient(gw *Gateway) *Client {
	return &Client{gw: gw}
}

// Gateway returns the underlying gateway.
func (c *Client) Gateway() *Gateway {
	return c.gw
}

// Credentials is the login request body.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Registration is the sign-up request body.
type Registration struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// NewGroup is the create-group request body.
type NewGroup struct {
	Name        string              `json:"name"`
	Description string              `json:"description"`
	Category    model.GroupCategory `json:"category"`
}

// ExpenseInput is the body for both creating and fully replacing an expense.
type ExpenseInput struct {
	GroupID      string                `json:"groupId"`
	Description  string                `json:"description"`
	Category     model.ExpenseCategory `json:"category"`
	PaidBy       string                `json:"paidBy"`
	Participants []string              `json:"participants"`
	Amount       decimal.Decimal       `json:"-"`
}

// MarshalJSON sends the amount as a JSON number.
func (in ExpenseInput) MarshalJSON() ([]byte, error) {
	type plain ExpenseInput
	return json.Marshal(struct {
		plain
		Amount json.Number `json:"amount"`
	}{
		plain:  plain(in),
		Amount: json.Number(in.Amount.String()),
	})
}

type tokenResponse struct {
	Token string `json:"token"`
}

// Me resolves the current credential to its user.
func (c *Client) Me(ctx context.Context) (model.User, error) {
	var resp struct {
		User model.User `json:"user"`
	}
	if err := c.gw.Do(ctx, http.MethodGet, "/api/auth/me", nil, &resp); err != nil {
		return model.User{}, err
	}
	return resp.User, nil
}

// Login exchanges credentials for a bearer token.
func (c *Client) Login(ctx context.Context, creds Credentials) (string, error) {
	var resp tokenResponse
	if err := c.gw.Do(ctx, http.MethodPost, "/api/auth/login", creds, &resp); err != nil {
		return "", err
	}
	if resp.Token == "" {
		return "", &Error{Kind: KindServer, Method: http.MethodPost, Path: "/api/auth/login", Message: "response has no token"}
	}
	return resp.Token, nil
}

// Register creates an account and returns its bearer token.
func (c *Client) Register(ctx context.Context, reg Registration) (string, error) {
	var resp tokenResponse
	if err := c.gw.Do(ctx, http.MethodPost, "/api/auth/register", reg, &resp); err != nil {
		return "", err
	}
	if resp.Token == "" {
		return "", &Error{Kind: KindServer, Method: http.MethodPost, Path: "/api/auth/register", Message: "response has no token"}
	}
	return resp.Token, nil
}

// ListGroups returns the caller's groups.
func (c *Client) ListGroups(ctx context.Context) ([]model.Group, error) {
	var resp struct {
		Groups []model.Group `json:"groups"`
	}
	if err := c.gw.Do(ctx, http.MethodGet, "/api/groups", nil, &resp); err != nil {
		return nil, err
	}
	return orEmpty(resp.Groups), nil
}

// CreateGroup creates a group owned by the caller.
func (c *Client) CreateGroup(ctx context.Context, in NewGroup) (model.Group, error) {
	var resp struct {
		Group model.Group `json:"group"`
	}
	if err := c.gw.Do(ctx, http.MethodPost, "/api/groups", in, &resp); err != nil {
		return model.Group{}, err
	}
	return resp.Group, nil
}

// GetGroup fetches one group with its members.
func (c *Client) GetGroup(ctx context.Context, groupID string) (model.Group, error) {
	var resp struct {
		Group *model.Group `json:"group"`
	}
	path := "/api/groups/" + url.PathEscape(groupID)
	if err := c.gw.Do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return model.Group{}, err
	}
	if resp.Group == nil {
		return model.Group{}, &Error{Kind: KindServer, Method: http.MethodGet, Path: path, Message: "response has no group"}
	}
	return *resp.Group, nil
}

// AddMember adds the user with email to the group.
func (c *Client) AddMember(ctx context.Context, groupID, email string) error {
	body := struct {
		Email string `json:"email"`
	}{Email: email}
	return c.gw.Do(ctx, http.MethodPost, "/api/groups/"+url.PathEscape(groupID)+"/members", body, nil)
}

// ListExpenses returns the group's expenses.
func (c *Client) ListExpenses(ctx context.Context, groupID string) ([]model.Expense, error) {
	var resp struct {
		Expenses []model.Expense `json:"expenses"`
	}
	if err := c.gw.Do(ctx, http.MethodGet, "/api/expenses/group/"+url.PathEscape(groupID), nil, &resp); err != nil {
		return nil, err
	}
	return orEmpty(resp.Expenses), nil
}

// CreateExpense adds an expense.
func (c *Client) CreateExpense(ctx context.Context, in ExpenseInput) error {
	return c.gw.Do(ctx, http.MethodPost, "/api/expenses", in, nil)
}

// UpdateExpense replaces the expense with id.
func (c *Client) UpdateExpense(ctx context.Context, expenseID string, in ExpenseInput) error {
	return c.gw.Do(ctx, http.MethodPut, "/api/expenses/"+url.PathEscape(expenseID), in, nil)
}

// DeleteExpense removes the expense with id.
func (c *Client) DeleteExpense(ctx context.Context, expenseID string) error {
	return c.gw.Do(ctx, http.MethodDelete, "/api/expenses/"+url.PathEscape(expenseID), nil, nil)
}

// ListSettlements returns the group's computed settlements.
func (c *Client) ListSettlements(ctx context.Context, groupID string) ([]model.Settlement, error) {
	var resp struct {
		Settlements []model.Settlement `json:"settlements"`
	}
	if err := c.gw.Do(ctx, http.MethodGet, "/api/settlements/"+url.PathEscape(groupID), nil, &resp); err != nil {
		return nil, err
	}
	return orEmpty(resp.Settlements), nil
}

// SettlementSummary returns the group's aggregate totals. A missing summary is nil.
func (c *Client) SettlementSummary(ctx context.Context, groupID string) (*model.Summary, error) {
	var resp struct {
		Summary *model.Summary `json:"summary"`
	}
	if err := c.gw.Do(ctx, http.MethodGet, "/api/settlements/"+url.PathEscape(groupID)+"/summary", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Summary, nil
}

// Settle marks a settlement as paid.
func (c *Client) Settle(ctx context.Context, settlementID string) error {
	return c.gw.Do(ctx, http.MethodPut, "/api/settlements/"+url.PathEscape(settlementID)+"/settle", nil, nil)
}

// Report downloads the group's CSV expense report.
func (c *Client) Report(ctx context.Context, groupID string) ([]byte, error) {
	data, _, err := c.gw.Raw(ctx, "/api/settlements/"+url.PathEscape(groupID)+"/report")
	return data, err
}

func orEmpty[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
