package rules

import (
	"fmt"
	"time"
)

// Scope identifies where a rule lives in the configuration hierarchy.
// Scopes with higher precedence win when same-named rules collide.
type Scope string

const (
	// ScopeGlobal is machine-wide configuration, lowest precedence.
	ScopeGlobal Scope = "global"

	// ScopeUser is per-user configuration.
	ScopeUser Scope = "user"

	// ScopeProject is per-project configuration.
	ScopeProject Scope = "project"

	// ScopeSession is per-session configuration, highest precedence.
	// Session rules have no backing directory; they are supplied directly
	// by the caller at evaluation time.
	ScopeSession Scope = "session"
)

// Precedence returns the numeric precedence of the scope.
// Higher values win: session=4, project=3, user=2, global=1.
func (s Scope) Precedence() int {
	switch s {
	case ScopeSession:
		return 4
	case ScopeProject:
		return 3
	case ScopeUser:
		return 2
	case ScopeGlobal:
		return 1
	default:
		return 0
	}
}

// IsValid returns true if the scope is one of the four known scopes.
func (s Scope) IsValid() bool {
	switch s {
	case ScopeGlobal, ScopeUser, ScopeProject, ScopeSession:
		return true
	}
	return false
}

// ParseScope converts a string to a Scope.
// Returns an error for unknown scope names.
func ParseScope(s string) (Scope, error) {
	scope := Scope(s)
	if !scope.IsValid() {
		return "", fmt.Errorf("unknown scope %q (valid: global, user, project, session)", s)
	}
	return scope, nil
}

// DirectoryScopes lists the scopes that have a backing directory,
// in ascending precedence order. Session is deliberately absent.
func DirectoryScopes() []Scope {
	return []Scope{ScopeGlobal, ScopeUser, ScopeProject}
}

// InclusionMode controls when a rule is considered applicable.
// It is a closed enum; the matcher switches over it exhaustively so that
// adding a mode is a compile-time-visible change.
type InclusionMode string

const (
	// InclusionAlways rules apply to every request.
	InclusionAlways InclusionMode = "always"

	// InclusionFileMatch rules apply when at least one file in the request
	// context matches the rule's glob pattern.
	InclusionFileMatch InclusionMode = "fileMatch"

	// InclusionManual rules apply only when explicitly referenced by name.
	InclusionManual InclusionMode = "manual"
)

// IsValid returns true if the inclusion mode is one of the known modes.
func (m InclusionMode) IsValid() bool {
	switch m {
	case InclusionAlways, InclusionFileMatch, InclusionManual:
		return true
	}
	return false
}

// ParseInclusionMode converts a string to an InclusionMode.
// Returns an error for unknown values.
func ParseInclusionMode(s string) (InclusionMode, error) {
	mode := InclusionMode(s)
	if !mode.IsValid() {
		return "", fmt.Errorf("unknown inclusion mode %q (valid: always, fileMatch, manual)", s)
	}
	return mode, nil
}

// Rule priority bounds. Priority orders rules within the same scope;
// higher priorities render earlier in the merged output.
const (
	PriorityMin     = 1
	PriorityMax     = 100
	PriorityDefault = 50
)

// MaxDocumentSize is the hard cap on a rule document's serialized size.
// Documents above this size are rejected on direct parse and skipped
// during directory scans.
const MaxDocumentSize = 1 << 20 // 1 MiB

// Rule is a single steering rule document.
type Rule struct {
	// Name uniquely identifies the rule within its scope.
	Name string

	// Description is a short human-readable summary. Required.
	Description string

	// Content is the rule's text body, rendered into the merged prompt
	// section when the rule applies.
	Content string

	// Scope is the configuration level the rule belongs to.
	Scope Scope

	// Inclusion controls when the rule applies.
	Inclusion InclusionMode

	// FileMatchPattern is the glob evaluated against the request's files.
	// Required iff Inclusion is InclusionFileMatch.
	FileMatchPattern string

	// Priority orders rules within a scope, PriorityMin..PriorityMax.
	Priority int

	// Override lets the rule displace a same-named rule that would
	// otherwise win by scope/priority ordering.
	Override bool

	// Enabled gates the rule entirely; disabled rules never match.
	Enabled bool

	// SourcePath is the file the rule was loaded from, empty for rules
	// created in memory (e.g. session rules).
	SourcePath string

	// CreatedAt and UpdatedAt track document lifecycle timestamps.
	CreatedAt time.Time
	UpdatedAt time.Time

	// Metadata carries free-form key/value pairs from the frontmatter
	// that are not part of the core schema.
	Metadata map[string]string
}

// Key returns the cache key for the rule: scope-qualified name.
func (r *Rule) Key() string {
	return string(r.Scope) + "/" + r.Name
}

// Validate checks the rule's invariants. It returns a *ValidationError
// describing the first violated invariant, or nil if the rule is valid.
func (r *Rule) Validate() error {
	if r.Name == "" {
		return &ValidationError{Field: "name", Message: "name is required"}
	}
	if r.Description == "" {
		return &ValidationError{Rule: r.Name, Field: "description", Message: "description is required"}
	}
	if !r.Scope.IsValid() {
		return &ValidationError{Rule: r.Name, Field: "scope", Message: fmt.Sprintf("unknown scope %q", r.Scope)}
	}
	if !r.Inclusion.IsValid() {
		return &ValidationError{Rule: r.Name, Field: "inclusion", Message: fmt.Sprintf("unknown inclusion mode %q", r.Inclusion)}
	}
	if r.Priority < PriorityMin || r.Priority > PriorityMax {
		return &ValidationError{
			Rule:    r.Name,
			Field:   "priority",
			Message: fmt.Sprintf("priority %d out of range [%d, %d]", r.Priority, PriorityMin, PriorityMax),
		}
	}
	if r.Inclusion == InclusionFileMatch && r.FileMatchPattern == "" {
		return &ValidationError{
			Rule:    r.Name,
			Field:   "fileMatchPattern",
			Message: "fileMatchPattern is required when inclusion is fileMatch",
		}
	}
	return nil
}

// Clone returns a deep copy of the rule.
// The store returns clones so callers can never mutate cached state.
func (r *Rule) Clone() *Rule {
	clone := *r
	if r.Metadata != nil {
		clone.Metadata = make(map[string]string, len(r.Metadata))
		for k, v := range r.Metadata {
			clone.Metadata[k] = v
		}
	}
	return &clone
}
