package rules

import (
	"errors"
	"fmt"
)

// ValidationError reports a rule document that violates a model invariant:
// a missing required field, an invalid enum value, an out-of-range priority,
// or an oversized document.
//
// ValidationError is raised from direct parse calls. During directory scans
// the same conditions cause the offending file to be skipped and logged
// instead (see pkg/rules/store).
type ValidationError struct {
	// Rule is the rule name, when known at the point of failure.
	Rule string

	// Field is the frontmatter field that failed validation.
	Field string

	// Message describes the violation.
	Message string

	// Cause is the underlying error, if any.
	Cause error
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	prefix := "invalid rule"
	if e.Rule != "" {
		prefix = fmt.Sprintf("invalid rule %q", e.Rule)
	}
	if e.Field != "" {
		return fmt.Sprintf("%s: field %q: %s", prefix, e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", prefix, e.Message)
}

// Unwrap returns the underlying cause error.
func (e *ValidationError) Unwrap() error {
	return e.Cause
}

// IsValidationError reports whether err (or any error it wraps) is a
// *ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
