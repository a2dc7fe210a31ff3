// Package calc implements the perfusion calculation engine: closed-form
// clinical formulas, unit conversions, and the recipes that compose them
// into calculation snapshots. Every function is pure and safe for concurrent
// use.
package calc

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrInvalidInput matches every input validation failure.
	ErrInvalidInput = errors.New("calc: invalid input")
	// ErrDivisionByZero matches formulas whose denominator evaluated to zero.
	ErrDivisionByZero = errors.New("calc: division by zero")
)

// InputError describes a rejected scalar input.
type InputError struct {
	Field  string
	Value  float64
	Reason string
}

func (e *InputError) Error() string {
	return fmt.Sprintf("calc: %s %s (got %g)", e.Field, e.Reason, e.Value)
}

// Is reports ErrInvalidInput as a match.
func (e *InputError) Is(target error) bool { return target == ErrInvalidInput }

func finite(field string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return &InputError{Field: field, Value: v, Reason: "must be a finite number"}
	}
	return nil
}

func positive(field string, v float64) error {
	if err := finite(field, v); err != nil {
		return err
	}
	if v <= 0 {
		return &InputError{Field: field, Value: v, Reason: "must be greater than 0"}
	}
	return nil
}

func nonNegative(field string, v float64) error {
	if err := finite(field, v); err != nil {
		return err
	}
	if v < 0 {
		return &InputError{Field: field, Value: v, Reason: "must not be negative"}
	}
	return nil
}

func percentage(field string, v float64) error {
	if err := finite(field, v); err != nil {
		return err
	}
	if v < 0 || v > 100 {
		return &InputError{Field: field, Value: v, Reason: "must be between 0 and 100"}
	}
	return nil
}

func divide(what string, num, den float64) (float64, error) {
	if den == 0 {
		return 0, fmt.Errorf("%w: %s", ErrDivisionByZero, what)
	}
	return num / den, nil
}

// firstErr returns the first non-nil error.
func firstErr(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
