package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserRef_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantID   string
		wantName string
	}{
		{
			name:     "populated object",
			input:    `{"_id":"u1","name":"Ana","email":"ana@x.com"}`,
			wantID:   "u1",
			wantName: "Ana",
		},
		{
			name:   "bare id",
			input:  `"u2"`,
			wantID: "u2",
		},
		{
			name:     "plain id key",
			input:    `{"id":"u3","name":"Bo"}`,
			wantID:   "u3",
			wantName: "Bo",
		},
		{
			name:  "null",
			input: `null`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var ref UserRef
			require.NoError(t, json.Unmarshal([]byte(tt.input), &ref))
			assert.Equal(t, tt.wantID, ref.ID)
			assert.Equal(t, tt.wantName, ref.Name)
		})
	}
}

func TestUserRef_DisplayName(t *testing.T) {
	assert.Equal(t, "Ana", UserRef{User: User{ID: "u1", Name: "Ana"}}.DisplayName())
	assert.Equal(t, "u1", UserRef{User: User{ID: "u1"}}.DisplayName())
}

func TestExpense_UnmarshalJSON(t *testing.T) {
	input := `{
		"_id": "E1",
		"description": "Dinner",
		"amount": 12.5,
		"category": "food",
		"date": "2024-03-05T18:00:00.000Z",
		"paidBy": {"_id": "u1", "name": "Ana"},
		"participants": ["u1", "u2"]
	}`

	var e Expense
	require.NoError(t, json.Unmarshal([]byte(input), &e))

	assert.Equal(t, "E1", e.ID)
	assert.Equal(t, "12.5", e.Amount.String())
	assert.Equal(t, ExpenseCategoryFood, e.Category)
	assert.Equal(t, "Ana", e.PaidBy.Name)
	require.Len(t, e.Participants, 2)
	assert.Equal(t, "u2", e.Participants[1].ID)
	assert.Equal(t, 2024, e.Date.Year())
}

func TestExpenseCategory_Valid(t *testing.T) {
	for _, c := range ExpenseCategories() {
		assert.True(t, c.Valid(), c)
	}
	assert.False(t, ExpenseCategory("groceries").Valid())
}

func TestGroup_Members(t *testing.T) {
	input := `{
		"id": "G1",
		"name": "Trip",
		"category": "trip",
		"members": [{"userId": {"_id": "u1", "name": "Ana"}}, {"userId": "u2"}]
	}`

	var g Group
	require.NoError(t, json.Unmarshal([]byte(input), &g))

	assert.Equal(t, "G1", g.ID)
	assert.Equal(t, []string{"u1", "u2"}, g.MemberIDs())
	assert.True(t, g.HasMember("u2"))
	assert.False(t, g.HasMember("u3"))

	clone := g.Clone()
	clone.Members[0].User.Name = "changed"
	assert.Equal(t, "Ana", g.Members[0].User.Name)
}

func TestSettlementAndSummary_Decimals(t *testing.T) {
	var s Settlement
	require.NoError(t, json.Unmarshal([]byte(`{"_id":"S1","from":"u1","to":{"_id":"u2","name":"Bo"},"amount":"7.25"}`), &s))
	assert.Equal(t, "7.25", s.Amount.String())
	assert.False(t, s.Settled)
	assert.Equal(t, "Bo", s.To.DisplayName())

	var sum Summary
	require.NoError(t, json.Unmarshal([]byte(`{"totalExpenses":100,"totalUnsettled":40.5,"pendingSettlements":2}`), &sum))
	assert.Equal(t, "100", sum.TotalExpenses.String())
	assert.Equal(t, "40.5", sum.TotalUnsettled.String())
	assert.Equal(t, 2, sum.PendingSettlements)
}
