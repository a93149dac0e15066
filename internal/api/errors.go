package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies every failure the gateway can return.
type Kind int

const (
	// KindServer covers 5xx responses and bodies that could not be decoded.
	KindServer Kind = iota
	// KindAuth is a 401 or 403: the credential is no longer accepted.
	KindAuth
	// KindNetwork means no response arrived at all.
	KindNetwork
	// KindValidation is any other 4xx, or input rejected before sending.
	KindValidation
)

func (k Kind) String() string {
	switch k {
	case KindAuth:
		return "auth"
	case KindNetwork:
		return "network"
	case KindValidation:
		return "validation"
	default:
		return "server"
	}
}

// Error is the single error type produced by the gateway.
type Error struct {
	Err     error
	Payload map[string]any
	Message string
	Method  string
	Path    string
	Kind    Kind
	Status  int
}

func (e *Error) Error() string {
	switch {
	case e.Status != 0 && e.Message != "":
		return fmt.Sprintf("%s %s: %s (status %d)", e.Method, e.Path, e.Message, e.Status)
	case e.Status != 0:
		return fmt.Sprintf("%s %s: status %d", e.Method, e.Path, e.Status)
	case e.Err != nil:
		return fmt.Sprintf("%s %s: %s error: %v", e.Method, e.Path, e.Kind, e.Err)
	default:
		return fmt.Sprintf("%s error: %s", e.Kind, e.Message)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindForStatus maps a non-2xx HTTP status onto the error taxonomy.
func KindForStatus(status int) Kind {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return KindAuth
	case status >= 400 && status < 500:
		return KindValidation
	default:
		return KindServer
	}
}

// NewValidationError reports input rejected on the client before any request.
func NewValidationError(message string, cause error) *Error {
	return &Error{Kind: KindValidation, Message: message, Err: cause}
}

// AsError extracts the gateway error from err.
func AsError(err error) (*Error, bool) {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// KindOf returns the kind of err. Unknown errors are treated as server errors,
// except context cancellation, which never got a response.
func KindOf(err error) Kind {
	if apiErr, ok := AsError(err); ok {
		return apiErr.Kind
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return KindNetwork
	}
	return KindServer
}

// IsAuth reports whether err means the credential was rejected.
func IsAuth(err error) bool {
	return err != nil && KindOf(err) == KindAuth
}

// Message returns the server-provided message for err, or fallback.
func Message(err error, fallback string) string {
	if apiErr, ok := AsError(err); ok && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}
