package common

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks v against its `validate` struct tags and returns the first
// failure phrased for display.
func Validate(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return err
	}
	return errors.New(describeField(fieldErrs[0]))
}

// ValidateVar checks a single value against tag. name labels the value in the message.
func ValidateVar(name string, value any, tag string) error {
	err := validate.Var(value, tag)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return err
	}
	fe := fieldErrs[0]
	return errors.New(describe(name, fe.Tag(), fe.Param()))
}

func describeField(fe validator.FieldError) string {
	return describe(fieldLabel(fe.Field()), fe.Tag(), fe.Param())
}

func describe(label, tag, param string) string {
	switch tag {
	case "required":
		return label + " is required"
	case "email":
		return label + " must be a valid email address"
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", label, strings.ReplaceAll(param, " ", ", "))
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", label, param)
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", label, param)
	default:
		return fmt.Sprintf("%s is invalid", label)
	}
}

// fieldLabel turns a Go field name like PaidBy into "Paid by".
func fieldLabel(field string) string {
	var b strings.Builder
	for i, r := range field {
		if i > 0 && r >= 'A' && r <= 'Z' {
			b.WriteByte(' ')
			r += 'a' - 'A'
		}
		b.WriteRune(r)
	}
	return b.String()
}
