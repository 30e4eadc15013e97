package store

import (
	"fmt"
	"strings"
)

// StoreError reports a failed store mutation (save, delete, reload).
type StoreError struct {
	// Op is the operation that failed ("save", "delete", "reload").
	Op string

	// Scope and Name identify the affected rule, when applicable.
	Scope string
	Name  string

	// Message describes the failure.
	Message string

	// Cause is the underlying error.
	Cause error
}

// Error implements the error interface.
func (e *StoreError) Error() string {
	parts := []string{fmt.Sprintf("store %s failed", e.Op)}
	if e.Scope != "" || e.Name != "" {
		parts = append(parts, fmt.Sprintf("for rule %s/%s", e.Scope, e.Name))
	}
	if e.Message != "" {
		parts = append(parts, e.Message)
	}
	msg := strings.Join(parts, ": ")
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

// Unwrap returns the underlying cause error.
func (e *StoreError) Unwrap() error {
	return e.Cause
}

// SkippedFile records one document that could not be loaded during a scan.
type SkippedFile struct {
	// Path is the file that was skipped.
	Path string

	// Reason describes why it was skipped.
	Reason string
}

// LoadResult summarizes one directory scan.
type LoadResult struct {
	// Loaded is the number of rules successfully loaded.
	Loaded int

	// Skipped lists files that failed to parse and were left out.
	Skipped []SkippedFile
}
