package calc

import (
	"fmt"
	"strings"
)

// RangeError reports a value outside its permitted closed interval.
type RangeError struct {
	Field    string
	Value    float64
	Min, Max float64
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("%s must be between %g and %g (got %g)", e.Field, e.Min, e.Max, e.Value)
}

// Is reports ErrInvalidInput as a match.
func (e *RangeError) Is(target error) bool { return target == ErrInvalidInput }

// ValidateRange fails when value lies outside [min, max] or is not finite.
func ValidateRange(value, min, max float64, field string) error {
	if err := finite(field, value); err != nil {
		return err
	}
	if value < min || value > max {
		return &RangeError{Field: field, Value: value, Min: min, Max: max}
	}
	return nil
}

// MissingFieldsError lists every required field that was not supplied.
type MissingFieldsError struct {
	Fields []string
}

func (e *MissingFieldsError) Error() string {
	return "missing required fields: " + strings.Join(e.Fields, ", ")
}

// Is reports ErrInvalidInput as a match.
func (e *MissingFieldsError) Is(target error) bool { return target == ErrInvalidInput }

// ValidateRequired checks that every named field is present in data. A field
// is missing when absent, nil, or a blank string; numeric zero is present.
func ValidateRequired(data map[string]any, fields ...string) error {
	var missing []string
	for _, name := range fields {
		v, ok := data[name]
		if !ok || v == nil {
			missing = append(missing, name)
			continue
		}
		if s, isStr := v.(string); isStr && strings.TrimSpace(s) == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return &MissingFieldsError{Fields: missing}
	}
	return nil
}
