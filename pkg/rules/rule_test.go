package rules

import (
	"errors"
	"strings"
	"testing"
)

func validRule() *Rule {
	return &Rule{
		Name:        "code-style",
		Description: "TypeScript style conventions",
		Content:     "Prefer functional components.",
		Scope:       ScopeProject,
		Inclusion:   InclusionAlways,
		Priority:    PriorityDefault,
		Enabled:     true,
	}
}

func TestScope_Precedence(t *testing.T) {
	tests := []struct {
		scope Scope
		want  int
	}{
		{ScopeSession, 4},
		{ScopeProject, 3},
		{ScopeUser, 2},
		{ScopeGlobal, 1},
		{Scope("bogus"), 0},
	}

	for _, tt := range tests {
		if got := tt.scope.Precedence(); got != tt.want {
			t.Errorf("Precedence(%q) = %d, want %d", tt.scope, got, tt.want)
		}
	}
}

func TestParseScope(t *testing.T) {
	for _, name := range []string{"global", "user", "project", "session"} {
		scope, err := ParseScope(name)
		if err != nil {
			t.Errorf("ParseScope(%q) error = %v, want nil", name, err)
		}
		if string(scope) != name {
			t.Errorf("ParseScope(%q) = %q", name, scope)
		}
	}
}

func TestParseScope_Unknown(t *testing.T) {
	_, err := ParseScope("workspace")
	if err == nil {
		t.Fatal("ParseScope(workspace) error = nil, want error")
	}
	if !strings.Contains(err.Error(), "unknown scope") {
		t.Errorf("error message = %q, want to contain 'unknown scope'", err.Error())
	}
}

func TestDirectoryScopes_ExcludesSession(t *testing.T) {
	for _, scope := range DirectoryScopes() {
		if scope == ScopeSession {
			t.Fatal("DirectoryScopes() includes session")
		}
	}
	if got := len(DirectoryScopes()); got != 3 {
		t.Errorf("len(DirectoryScopes()) = %d, want 3", got)
	}
}

func TestParseInclusionMode(t *testing.T) {
	for _, name := range []string{"always", "fileMatch", "manual"} {
		mode, err := ParseInclusionMode(name)
		if err != nil {
			t.Errorf("ParseInclusionMode(%q) error = %v, want nil", name, err)
		}
		if string(mode) != name {
			t.Errorf("ParseInclusionMode(%q) = %q", name, mode)
		}
	}

	if _, err := ParseInclusionMode("sometimes"); err == nil {
		t.Error("ParseInclusionMode(sometimes) error = nil, want error")
	}
}

func TestRule_Validate(t *testing.T) {
	if err := validRule().Validate(); err != nil {
		t.Fatalf("Validate() error = %v, want nil", err)
	}
}

func TestRule_Validate_Invalid(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Rule)
		wantField string
	}{
		{"missing name", func(r *Rule) { r.Name = "" }, "name"},
		{"missing description", func(r *Rule) { r.Description = "" }, "description"},
		{"bad scope", func(r *Rule) { r.Scope = "workspace" }, "scope"},
		{"bad inclusion", func(r *Rule) { r.Inclusion = "sometimes" }, "inclusion"},
		{"priority too low", func(r *Rule) { r.Priority = 0 }, "priority"},
		{"priority too high", func(r *Rule) { r.Priority = 101 }, "priority"},
		{"fileMatch without pattern", func(r *Rule) {
			r.Inclusion = InclusionFileMatch
			r.FileMatchPattern = ""
		}, "fileMatchPattern"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rule := validRule()
			tt.mutate(rule)

			err := rule.Validate()
			if err == nil {
				t.Fatal("Validate() error = nil, want error")
			}
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("Validate() error type = %T, want *ValidationError", err)
			}
			if verr.Field != tt.wantField {
				t.Errorf("ValidationError.Field = %q, want %q", verr.Field, tt.wantField)
			}
		})
	}
}

func TestRule_Key(t *testing.T) {
	rule := validRule()
	if got := rule.Key(); got != "project/code-style" {
		t.Errorf("Key() = %q, want %q", got, "project/code-style")
	}
}

func TestRule_Clone_Independent(t *testing.T) {
	rule := validRule()
	rule.Metadata = map[string]string{"team": "frontend"}

	clone := rule.Clone()
	clone.Name = "other"
	clone.Metadata["team"] = "backend"

	if rule.Name != "code-style" {
		t.Error("mutating clone changed original name")
	}
	if rule.Metadata["team"] != "frontend" {
		t.Error("mutating clone changed original metadata")
	}
}

func TestMatchContext_IsManuallyReferenced(t *testing.T) {
	ctx := &MatchContext{ManualRules: []string{"security-review"}}

	if !ctx.IsManuallyReferenced("security-review") {
		t.Error("IsManuallyReferenced(security-review) = false, want true")
	}
	if ctx.IsManuallyReferenced("code-style") {
		t.Error("IsManuallyReferenced(code-style) = true, want false")
	}
}

func TestMatchContext_SnapshotVariables(t *testing.T) {
	ctx := &MatchContext{Variables: map[string]string{"branch": "main"}}

	snapshot := ctx.SnapshotVariables()
	snapshot["branch"] = "dev"

	if ctx.Variables["branch"] != "main" {
		t.Error("mutating snapshot changed context variables")
	}

	empty := &MatchContext{}
	if empty.SnapshotVariables() != nil {
		t.Error("SnapshotVariables() on empty context = non-nil, want nil")
	}
}
