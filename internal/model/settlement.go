package model

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// Settlement is a server-computed debt: From owes To the Amount.
type Settlement struct {
	ID      string          `json:"_id"`
	From    UserRef         `json:"from"`
	To      UserRef         `json:"to"`
	Amount  decimal.Decimal `json:"amount"`
	Settled bool            `json:"settled"`
}

// UnmarshalJSON accepts both the "_id" and "id" spellings of the identifier.
func (s *Settlement) UnmarshalJSON(data []byte) error {
	type plain Settlement
	var raw struct {
		plain
		AltID string `json:"id"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*s = Settlement(raw.plain)
	if s.ID == "" {
		s.ID = raw.AltID
	}
	return nil
}

// Summary aggregates a group's expenses and settlements.
type Summary struct {
	TotalExpenses      decimal.Decimal `json:"totalExpenses"`
	TotalUnsettled     decimal.Decimal `json:"totalUnsettled"`
	PendingSettlements int             `json:"pendingSettlements"`
}
