package validation

import (
	"fmt"
	"unicode/utf8"
)

// Validator is a function that validates a string value and returns an error message if invalid.
type Validator func(v string) string

// MinLength validates that a field has at least minLen characters.
// Uses rune count for proper Unicode support.
func MinLength(fieldName string, minLen int) Validator {
	return func(v string) string {
		if utf8.RuneCountInString(v) < minLen {
			return fmt.Sprintf("%s must be at least %d characters.", fieldName, minLen)
		}
		return ""
	}
}

// MaxLength validates that a field has at most maxLen characters.
// Uses rune count for proper Unicode support.
func MaxLength(fieldName string, maxLen int) Validator {
	return func(v string) string {
		if utf8.RuneCountInString(v) > maxLen {
			return fmt.Sprintf("%s must be at most %d characters.", fieldName, maxLen)
		}
		return ""
	}
}

// Length validates that a field has between minLen and maxLen characters,
// reporting the lower bound first.
func Length(fieldName string, minLen, maxLen int) []Validator {
	return []Validator{MinLength(fieldName, minLen), MaxLength(fieldName, maxLen)}
}

// Equals validates that a field matches other exactly.
func Equals(other, message string) Validator {
	return func(v string) string {
		if v != other {
			return message
		}
		return ""
	}
}

// FieldValidator provides a fluent API for validating multiple fields.
type FieldValidator struct {
	errors map[string]string
}

// New creates a new FieldValidator instance.
func New() *FieldValidator {
	return &FieldValidator{errors: make(map[string]string)}
}

// Validate validates a field with one or more validators.
// It stops at the first error for each field.
func (fv *FieldValidator) Validate(field, value string, validators ...Validator) *FieldValidator {
	for _, v := range validators {
		if err := v(value); err != "" {
			fv.errors[field] = err
			break // Stop at first error per field
		}
	}
	return fv
}

// Errors returns the accumulated validation errors.
func (fv *FieldValidator) Errors() map[string]string {
	return fv.errors
}
