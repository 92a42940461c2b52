package kernel

import (
	"errors"
	"fmt"
)

// ErrInvalidParameter is wrapped by every parameter validation failure.
var ErrInvalidParameter = errors.New("invalid parameter")

// ParamError describes one rejected generator parameter.
type ParamError struct {
	Shape  string
	Field  string
	Value  any
	Reason string
}

func (e *ParamError) Error() string {
	return fmt.Sprintf("%s: %s = %v: %s", e.Shape, e.Field, e.Value, e.Reason)
}

// Unwrap makes errors.Is(err, ErrInvalidParameter) hold.
func (e *ParamError) Unwrap() error {
	return ErrInvalidParameter
}

// Invalid is a shorthand for building a *ParamError.
func Invalid(shape, field string, value any, reason string) error {
	return &ParamError{Shape: shape, Field: field, Value: value, Reason: reason}
}
