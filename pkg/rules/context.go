package rules

import (
	"time"
)

// MatchContext carries the per-request facts used to decide which rules
// apply. It is assembled by the caller from the live request and passed
// unchanged through matching and merging.
type MatchContext struct {
	// CurrentFiles is the ordered list of file paths in scope for the
	// request (open editors, referenced attachments, and so on).
	CurrentFiles []string

	// Query is the user's request text.
	Query string

	// SessionID identifies the session the request belongs to.
	SessionID string

	// AssistantID identifies the assistant handling the request.
	AssistantID string

	// ManualRules lists rule names the user referenced explicitly
	// (already parsed out of "@name" mentions by the caller).
	ManualRules []string

	// Variables carries extra request variables, snapshotted into each
	// RuleMatch for audit purposes.
	Variables map[string]string
}

// IsManuallyReferenced returns true if the named rule appears in the
// context's explicit rule references.
func (c *MatchContext) IsManuallyReferenced(name string) bool {
	for _, ref := range c.ManualRules {
		if ref == name {
			return true
		}
	}
	return false
}

// SnapshotVariables returns a copy of the context's variables map,
// or nil when no variables are set.
func (c *MatchContext) SnapshotVariables() map[string]string {
	if len(c.Variables) == 0 {
		return nil
	}
	snapshot := make(map[string]string, len(c.Variables))
	for k, v := range c.Variables {
		snapshot[k] = v
	}
	return snapshot
}

// RuleMatch records one rule that applied to a request, with the reason
// it matched and any files that triggered a fileMatch inclusion.
type RuleMatch struct {
	// Rule is the matched rule.
	Rule *Rule

	// Reason describes why the rule matched.
	Reason string

	// MatchedFiles lists every context file that matched the rule's
	// pattern. Empty for always and manual inclusion.
	MatchedFiles []string

	// Variables is the context variables snapshot at match time.
	Variables map[string]string
}

// SkippedRule records one rule that was evaluated but did not apply.
type SkippedRule struct {
	// Name is the skipped rule's name.
	Name string

	// Reason describes why the rule did not apply.
	Reason string
}

// Conflict records a collision between two rules detected during merging
// or static analysis.
type Conflict struct {
	// RuleA and RuleB name the two conflicting rules.
	RuleA string
	RuleB string

	// Reason describes the conflict and its resolution.
	Reason string
}

// EvaluationTrace is the audit record of one request's rule evaluation:
// everything considered, everything that applied, everything dropped, and
// the final merged set. It is the unit of audit data exposed to CLIs and
// APIs outside the engine core.
type EvaluationTrace struct {
	// RequestID uniquely identifies the evaluated request.
	RequestID string `json:"request_id"`

	// SessionID is the session the request belonged to, if any.
	SessionID string `json:"session_id,omitempty"`

	// Timestamp is when the evaluation ran.
	Timestamp time.Time `json:"timestamp"`

	// Evaluated lists the names of every rule considered.
	Evaluated []string `json:"evaluated"`

	// Matched lists every rule that applied, with match reasons.
	Matched []RuleMatch `json:"matched"`

	// Skipped lists every rule that did not apply, with reasons.
	Skipped []SkippedRule `json:"skipped"`

	// Conflicts lists duplicate-name and override collisions resolved
	// during merging.
	Conflicts []Conflict `json:"conflicts"`

	// FinalRules is the ordered list of rule names that survived
	// merging and truncation.
	FinalRules []string `json:"final_rules"`

	// TotalSize is the byte size of the merged rule content.
	TotalSize int `json:"total_size"`
}
