package validation

import (
	"fmt"
	"strings"

	"github.com/kbukum/genaikit/errors"
)

// Validator collects validation errors.
type Validator struct {
	errors []FieldError
}

// FieldError represents a validation error for a specific field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// New creates a new Validator.
func New() *Validator {
	return &Validator{
		errors: make([]FieldError, 0),
	}
}

// AddError adds a field error.
func (v *Validator) AddError(field, message string) {
	v.errors = append(v.errors, FieldError{
		Field:   field,
		Message: message,
	})
}

// HasErrors returns true if there are validation errors.
func (v *Validator) HasErrors() bool {
	return len(v.errors) > 0
}

// Errors returns all validation errors.
func (v *Validator) Errors() []FieldError {
	return v.errors
}

// Validate returns an AppError if there are validation errors, nil otherwise.
// The single-error case keeps the MISSING_FIELD code so callers can match on it.
func (v *Validator) Validate() error {
	if !v.HasErrors() {
		return nil
	}

	if len(v.errors) == 1 && v.errors[0].Message == msgRequired {
		return errors.MissingField(v.errors[0].Field)
	}

	messages := make([]string, len(v.errors))
	for i, e := range v.errors {
		messages[i] = fmt.Sprintf("%s: %s", e.Field, e.Message)
	}

	return errors.Validation(strings.Join(messages, "; ")).WithDetail("fields", v.errors)
}

const msgRequired = "is required"

// Required checks if a string is non-empty.
func (v *Validator) Required(field, value string) *Validator {
	if strings.TrimSpace(value) == "" {
		v.AddError(field, msgRequired)
	}
	return v
}

// Min checks if a number meets minimum value.
func (v *Validator) Min(field string, value, minVal int) *Validator {
	if value < minVal {
		v.AddError(field, fmt.Sprintf("must be at least %d", minVal))
	}
	return v
}

// NotEmpty checks that a collection of length n has at least one element.
func (v *Validator) NotEmpty(field string, n int) *Validator {
	if n == 0 {
		v.AddError(field, msgRequired)
	}
	return v
}

// OptionalMin checks *value against minVal when value is set.
func (v *Validator) OptionalMin(field string, value *int, minVal int) *Validator {
	if value != nil {
		v.Min(field, *value, minVal)
	}
	return v
}

// OptionalRange checks that *value lies within [minVal, maxVal] when value
// is set.
func (v *Validator) OptionalRange(field string, value *float64, minVal, maxVal float64) *Validator {
	if value != nil && (*value < minVal || *value > maxVal) {
		v.AddError(field, fmt.Sprintf("must be between %g and %g", minVal, maxVal))
	}
	return v
}

// OneOf checks if a value is one of the allowed values. Empty values pass.
func (v *Validator) OneOf(field, value string, allowed []string) *Validator {
	if value == "" {
		return v
	}
	for _, a := range allowed {
		if value == a {
			return v
		}
	}
	v.AddError(field, fmt.Sprintf("must be one of: %s", strings.Join(allowed, ", ")))
	return v
}

// Custom applies a custom validation condition.
func (v *Validator) Custom(condition bool, field, message string) *Validator {
	if !condition {
		v.AddError(field, message)
	}
	return v
}

// Required validates a single required field and returns an error if empty.
func Required(field, value string) error {
	return New().Required(field, value).Validate()
}
