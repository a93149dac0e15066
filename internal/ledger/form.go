package ledger

import (
	"context"
	"fmt"
	"strings"

	"github.com/Veraticus/splitflow/internal/api"
	"github.com/Veraticus/splitflow/internal/common"
	"github.com/Veraticus/splitflow/internal/model"
	"github.com/shopspring/decimal"
)

// ExpenseForm holds the editable fields of an expense. Amount stays a string
// so partially typed input survives a failed submit.
type ExpenseForm struct {
	Description string                `validate:"required,max=200"`
	Amount      string                `validate:"required"`
	Category    model.ExpenseCategory `validate:"required,oneof=food accommodation transport entertainment utilities other"`
	PaidBy      string                `validate:"required"`
}

// NewExpenseForm returns an empty form paid by payer.
func NewExpenseForm(payer string) ExpenseForm {
	return ExpenseForm{
		Category: model.ExpenseCategoryOther,
		PaidBy:   payer,
	}
}

// FormFromExpense pre-populates a form with e.
func FormFromExpense(e model.Expense) ExpenseForm {
	return ExpenseForm{
		Description: e.Description,
		Amount:      e.Amount.String(),
		Category:    e.Category,
		PaidBy:      e.PaidBy.ID,
	}
}

// Validate checks the form and returns the parsed amount.
func (f ExpenseForm) Validate() (decimal.Decimal, error) {
	f.Description = trim(f.Description)
	f.Amount = trim(f.Amount)
	if err := common.Validate(f); err != nil {
		return decimal.Zero, api.NewValidationError(err.Error(), err)
	}

	amount, err := decimal.NewFromString(f.Amount)
	if err != nil {
		return decimal.Zero, api.NewValidationError("Amount must be a number", err)
	}
	if !amount.IsPositive() {
		return decimal.Zero, api.NewValidationError("Amount must be greater than zero", nil)
	}
	if amount.Exponent() < -2 {
		return decimal.Zero, api.NewValidationError("Amount can have at most two decimal places", nil)
	}
	return amount, nil
}

// BeginEdit loads the expense with id into the form. The next submit
// replaces that expense instead of creating one.
func (c *Controller) BeginEdit(expenseID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.snapshot == nil {
		return fmt.Errorf("expense %s: %w", expenseID, common.ErrNotFound)
	}
	e, ok := c.snapshot.Expense(expenseID)
	if !ok {
		return fmt.Errorf("expense %s: %w", expenseID, common.ErrNotFound)
	}
	c.editingID = expenseID
	c.form = FormFromExpense(e)
	return nil
}

// BeginCreate resets the form for a new expense.
func (c *Controller) BeginCreate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resetFormLocked()
}

// CancelForm discards the form and any edit in progress.
func (c *Controller) CancelForm() {
	c.BeginCreate()
}

// Form returns the current form and the id of the expense being edited, if any.
func (c *Controller) Form() (ExpenseForm, string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.form, c.editingID
}

// SubmitExpense validates form and saves it. While editing it replaces the
// selected expense; otherwise it creates one. Every current member
// participates. On failure the form is kept for another attempt.
func (c *Controller) SubmitExpense(ctx context.Context, form ExpenseForm) error {
	c.mu.Lock()
	c.form = form
	editingID := c.editingID
	var members []string
	if c.snapshot != nil {
		members = c.snapshot.Group.MemberIDs()
	}
	c.mu.Unlock()

	amount, err := form.Validate()
	if err == nil && members == nil {
		err = api.NewValidationError("Group is not loaded yet", nil)
	}
	if err == nil && !contains(members, form.PaidBy) {
		err = api.NewValidationError("Payer must be a group member", nil)
	}
	if err != nil {
		c.fail(err, MsgExpenseFailed)
		return err
	}

	in := api.ExpenseInput{
		GroupID:      c.groupID,
		Description:  trim(form.Description),
		Amount:       amount,
		Category:     form.Category,
		PaidBy:       form.PaidBy,
		Participants: members,
	}

	success := MsgExpenseAdded
	if editingID != "" {
		success = MsgExpenseUpdated
	}

	return c.mutate(ctx, func(ctx context.Context) error {
		var err error
		if editingID != "" {
			err = c.backend.UpdateExpense(ctx, editingID, in)
		} else {
			err = c.backend.CreateExpense(ctx, in)
		}
		if err != nil {
			return err
		}

		c.mu.Lock()
		c.resetFormLocked()
		c.mu.Unlock()
		return nil
	}, success, MsgExpenseFailed)
}

func (c *Controller) resetFormLocked() {
	c.editingID = ""
	c.form = NewExpenseForm(c.payer)
}

func validateEmail(email string) error {
	if err := common.ValidateVar("Email", trim(email), "required,email"); err != nil {
		return api.NewValidationError(err.Error(), err)
	}
	return nil
}

func trim(s string) string {
	return strings.TrimSpace(s)
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
