package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidate(t *testing.T) {
	type form struct {
		Name     string `validate:"required"`
		PaidBy   string `validate:"required"`
		Category string `validate:"oneof=trip household"`
	}

	tests := []struct {
		name    string
		wantErr string
		in      form
	}{
		{name: "valid", in: form{Name: "Trip", PaidBy: "u1", Category: "trip"}},
		{name: "missing name", in: form{PaidBy: "u1", Category: "trip"}, wantErr: "Name is required"},
		{name: "missing payer", in: form{Name: "Trip", Category: "trip"}, wantErr: "Paid by is required"},
		{name: "bad category", in: form{Name: "Trip", PaidBy: "u1", Category: "x"}, wantErr: "Category must be one of: trip, household"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.in)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.EqualError(t, err, tt.wantErr)
		})
	}
}

func TestValidateVar(t *testing.T) {
	assert.NoError(t, ValidateVar("Email", "a@x.com", "required,email"))
	assert.EqualError(t, ValidateVar("Email", "", "required,email"), "Email is required")
	assert.EqualError(t, ValidateVar("Email", "nope", "required,email"), "Email must be a valid email address")
}
