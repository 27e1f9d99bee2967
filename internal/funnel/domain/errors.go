package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound         = errors.New("record not found")
	ErrContactNotLinked = errors.New("contact is not linked to this project")
)

// ValidationError is rejected before any record-store call is made.
// Field names the offending input field; Msg is safe to show inline.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Msg
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Msg)
}

// Invalid builds a ValidationError for a single field.
func Invalid(field, msg string) *ValidationError {
	return &ValidationError{Field: field, Msg: msg}
}
