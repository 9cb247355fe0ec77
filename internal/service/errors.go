package service

import (
	"errors"
	"fmt"
	"strings"
)

// Common service errors
var (
	ErrNotFound           = errors.New("resource not found")
	ErrForbidden          = errors.New("access forbidden")
	ErrUserNotFound       = errors.New("user not found")
	ErrUserExists         = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")
)

// ValidationError carries per-field messages for input the caller can
// fix, grouped under a named bag so UIs can route messages to the form
// that triggered them. Bag "default" is used when no specific form is
// implied.
type ValidationError struct {
	Bag    string              `json:"bag"`
	Fields map[string][]string `json:"errors"`
}

// NewValidationError creates an empty validation error for the given
// bag.
func NewValidationError(bag string) *ValidationError {
	if bag == "" {
		bag = "default"
	}
	return &ValidationError{Bag: bag, Fields: make(map[string][]string)}
}

// Add appends a message for a field and returns the error so calls can
// chain.
func (e *ValidationError) Add(field, message string) *ValidationError {
	e.Fields[field] = append(e.Fields[field], message)
	return e
}

// HasErrors reports whether any field has a message.
func (e *ValidationError) HasErrors() bool {
	return len(e.Fields) > 0
}

func (e *ValidationError) Error() string {
	var parts []string
	for field, messages := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s: %s", field, strings.Join(messages, "; ")))
	}
	return fmt.Sprintf("validation failed [%s]: %s", e.Bag, strings.Join(parts, ", "))
}

// AsValidationError unwraps err into a *ValidationError if it is one.
func AsValidationError(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}

func validationFailed(bag, field, message string) error {
	return NewValidationError(bag).Add(field, message)
}
