package model

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// ExpenseCategory classifies a single expense.
type ExpenseCategory string

// Expense categories accepted by the server.
const (
	ExpenseCategoryFood          ExpenseCategory = "food"
	ExpenseCategoryAccommodation ExpenseCategory = "accommodation"
	ExpenseCategoryTransport     ExpenseCategory = "transport"
	ExpenseCategoryEntertainment ExpenseCategory = "entertainment"
	ExpenseCategoryUtilities     ExpenseCategory = "utilities"
	ExpenseCategoryOther         ExpenseCategory = "other"
)

// ExpenseCategories lists the expense categories in display order.
func ExpenseCategories() []ExpenseCategory {
	return []ExpenseCategory{
		ExpenseCategoryFood,
		ExpenseCategoryAccommodation,
		ExpenseCategoryTransport,
		ExpenseCategoryEntertainment,
		ExpenseCategoryUtilities,
		ExpenseCategoryOther,
	}
}

// Valid reports whether c is a known expense category.
func (c ExpenseCategory) Valid() bool {
	for _, known := range ExpenseCategories() {
		if c == known {
			return true
		}
	}
	return false
}

// Expense is one paid-for item split among participants.
type Expense struct {
	Date         time.Time       `json:"date"`
	ID           string          `json:"_id"`
	Description  string          `json:"description"`
	Category     ExpenseCategory `json:"category"`
	PaidBy       UserRef         `json:"paidBy"`
	Participants []UserRef       `json:"participants"`
	Amount       decimal.Decimal `json:"amount"`
}

// UnmarshalJSON accepts both the "_id" and "id" spellings of the identifier.
func (e *Expense) UnmarshalJSON(data []byte) error {
	type plain Expense
	var raw struct {
		plain
		AltID string `json:"id"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*e = Expense(raw.plain)
	if e.ID == "" {
		e.ID = raw.AltID
	}
	return nil
}

// Clone returns a copy that shares no slices with e.
func (e Expense) Clone() Expense {
	out := e
	if e.Participants != nil {
		out.Participants = append([]UserRef(nil), e.Participants...)
	}
	return out
}
