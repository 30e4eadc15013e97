package rules

import (
	"errors"
	"fmt"
	"testing"
)

func TestValidationError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *ValidationError
		want string
	}{
		{
			"with rule and field",
			&ValidationError{Rule: "code-style", Field: "priority", Message: "priority 0 out of range [1, 100]"},
			`invalid rule "code-style": field "priority": priority 0 out of range [1, 100]`,
		},
		{
			"without rule",
			&ValidationError{Field: "name", Message: "name is required"},
			`invalid rule: field "name": name is required`,
		},
		{
			"without field",
			&ValidationError{Message: "document is too large"},
			"invalid rule: document is too large",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestValidationError_Unwrap(t *testing.T) {
	cause := errors.New("strconv failure")
	err := &ValidationError{Field: "priority", Message: "not an integer", Cause: cause}

	if !errors.Is(err, cause) {
		t.Error("errors.Is(err, cause) = false, want true")
	}
}

func TestIsValidationError(t *testing.T) {
	verr := &ValidationError{Field: "name", Message: "name is required"}

	if !IsValidationError(verr) {
		t.Error("IsValidationError(ValidationError) = false, want true")
	}
	if !IsValidationError(fmt.Errorf("parsing rule: %w", verr)) {
		t.Error("IsValidationError(wrapped) = false, want true")
	}
	if IsValidationError(errors.New("other")) {
		t.Error("IsValidationError(other) = true, want false")
	}
}
