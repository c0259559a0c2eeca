package balance

import (
	"errors"
	"fmt"
)

var (
	// ErrDegenerateResponse means the trial weight produced no measurable
	// change in vibration, so the influence coefficient is undefined.
	ErrDegenerateResponse = errors.New("degenerate response: trial weight produced no measurable vibration change")

	// ErrInvalidInput covers values outside the domain of the formulas.
	ErrInvalidInput = errors.New("invalid input")

	// ErrMissingField is reported by request decoders before the core runs.
	ErrMissingField = errors.New("missing field")
)

// FieldError ties a failure to the named input it came from.
type FieldError struct {
	Field  string
	Err    error
	Reason string
}

func (e *FieldError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("%s: %s: %s", e.Err, e.Field, e.Reason)
	}
	return fmt.Sprintf("%s: %s", e.Err, e.Field)
}

func (e *FieldError) Unwrap() error { return e.Err }

func invalid(field, reason string) error {
	return &FieldError{Field: field, Err: ErrInvalidInput, Reason: reason}
}

// Missing builds the MissingField error for field.
func Missing(field string) error {
	return &FieldError{Field: field, Err: ErrMissingField}
}
