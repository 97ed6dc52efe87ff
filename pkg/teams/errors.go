package teams

import (
	"errors"
	"fmt"
	"strings"
)

// ValidationError describes one problem with user-supplied team data.
type ValidationError struct {
	Field   string `json:"field"`
	Value   string `json:"value,omitempty"`
	Message string `json:"message"`
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Value != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Field, e.Message, e.Value)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors aggregates every validation problem found in one pass so
// the user sees all of them at once instead of the first.
type ValidationErrors []ValidationError

// Error implements the error interface.
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return "validation failed"
	}
	if len(e) == 1 {
		return e[0].Error()
	}
	msgs := make([]string, len(e))
	for i, err := range e {
		msgs[i] = err.Error()
	}
	return fmt.Sprintf("validation failed with %d errors: %s", len(e), strings.Join(msgs, "; "))
}

// Add appends a validation error to the collection.
func (e *ValidationErrors) Add(field, value, message string) {
	*e = append(*e, ValidationError{Field: field, Value: value, Message: message})
}

// Merge appends every error from another collection.
func (e *ValidationErrors) Merge(other ValidationErrors) {
	*e = append(*e, other...)
}

// HasErrors reports whether any error was collected.
func (e ValidationErrors) HasErrors() bool { return len(e) > 0 }

// AsValidationErrors unwraps err into a ValidationErrors collection.
func AsValidationErrors(err error) (ValidationErrors, bool) {
	var verrs ValidationErrors
	if errors.As(err, &verrs) {
		return verrs, true
	}
	var verr *ValidationError
	if errors.As(err, &verr) {
		return ValidationErrors{*verr}, true
	}
	return nil, false
}
