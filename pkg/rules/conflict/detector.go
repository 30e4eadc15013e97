package conflict

import (
	"fmt"
	"sort"
	"strings"

	"tillerhq/tiller/pkg/rules"
)

// KeywordPair is a pair of opposing content markers used by the
// contradiction heuristic.
type KeywordPair struct {
	A string
	B string
}

// DefaultKeywordPairs returns the default opposing-marker pairs.
func DefaultKeywordPairs() []KeywordPair {
	return []KeywordPair{
		{A: "always", B: "never"},
		{A: "must ", B: "must not"},
		{A: "enable", B: "disable"},
		{A: "required", B: "forbidden"},
		{A: "allow", B: "deny"},
	}
}

// ScopeConflict reports a rule name that exists in more than one scope.
type ScopeConflict struct {
	// Name is the duplicated rule name.
	Name string `json:"name"`

	// Scopes lists every scope holding a rule with this name, in
	// ascending precedence order.
	Scopes []rules.Scope `json:"scopes"`

	// Winner is the scope that wins under default precedence.
	// Override flags are deliberately not consulted here.
	Winner rules.Scope `json:"winner"`
}

// Contradiction reports a heuristic, warning-level content conflict
// between two rules.
type Contradiction struct {
	// RuleA and RuleB are the scope-qualified names of the two rules.
	RuleA string `json:"rule_a"`
	RuleB string `json:"rule_b"`

	// Reason names the opposing markers that triggered the finding.
	Reason string `json:"reason"`
}

// Report is the result of a full-store conflict analysis.
type Report struct {
	// ScopeConflicts lists same-named rules across scopes.
	ScopeConflicts []ScopeConflict `json:"scope_conflicts"`

	// Contradictions lists heuristic content conflicts. Warning-level
	// only; see the package documentation for caveats.
	Contradictions []Contradiction `json:"contradictions"`
}

// Empty returns true if the report contains no findings.
func (r *Report) Empty() bool {
	return len(r.ScopeConflicts) == 0 && len(r.Contradictions) == 0
}

// Detector performs static conflict analysis over a rule set.
type Detector struct {
	keywordPairs []KeywordPair
}

// NewDetector creates a detector with the default keyword pairs.
func NewDetector() *Detector {
	return &Detector{keywordPairs: DefaultKeywordPairs()}
}

// WithKeywordPairs replaces the contradiction heuristic's marker pairs.
// An empty slice disables the heuristic.
func (d *Detector) WithKeywordPairs(pairs []KeywordPair) *Detector {
	d.keywordPairs = pairs
	return d
}

// Detect analyzes the rule set and returns all findings.
// The report is deterministic for a given input set.
func (d *Detector) Detect(ruleList []*rules.Rule) *Report {
	report := &Report{}

	report.ScopeConflicts = d.detectScopeConflicts(ruleList)
	report.Contradictions = d.detectContradictions(ruleList)

	return report
}

// detectScopeConflicts groups rules by name and reports every name present
// in more than one scope.
func (d *Detector) detectScopeConflicts(ruleList []*rules.Rule) []ScopeConflict {
	byName := make(map[string][]rules.Scope)
	for _, rule := range ruleList {
		scopes := byName[rule.Name]
		if !containsScope(scopes, rule.Scope) {
			byName[rule.Name] = append(scopes, rule.Scope)
		}
	}

	names := make([]string, 0, len(byName))
	for name, scopes := range byName {
		if len(scopes) > 1 {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	conflicts := make([]ScopeConflict, 0, len(names))
	for _, name := range names {
		scopes := byName[name]
		sort.Slice(scopes, func(i, j int) bool {
			return scopes[i].Precedence() < scopes[j].Precedence()
		})

		winner := scopes[0]
		for _, scope := range scopes[1:] {
			if scope.Precedence() > winner.Precedence() {
				winner = scope
			}
		}

		conflicts = append(conflicts, ScopeConflict{
			Name:   name,
			Scopes: scopes,
			Winner: winner,
		})
	}

	return conflicts
}

// detectContradictions scans rule content pairs for opposing markers.
func (d *Detector) detectContradictions(ruleList []*rules.Rule) []Contradiction {
	if len(d.keywordPairs) == 0 {
		return nil
	}

	var findings []Contradiction
	for i := 0; i < len(ruleList); i++ {
		for j := i + 1; j < len(ruleList); j++ {
			a, b := ruleList[i], ruleList[j]
			contentA := strings.ToLower(a.Content)
			contentB := strings.ToLower(b.Content)

			for _, pair := range d.keywordPairs {
				forward := strings.Contains(contentA, pair.A) && strings.Contains(contentB, pair.B)
				backward := strings.Contains(contentA, pair.B) && strings.Contains(contentB, pair.A)
				if forward || backward {
					findings = append(findings, Contradiction{
						RuleA:  a.Key(),
						RuleB:  b.Key(),
						Reason: fmt.Sprintf("opposing markers %q and %q", pair.A, pair.B),
					})
					break
				}
			}
		}
	}

	return findings
}

func containsScope(scopes []rules.Scope, scope rules.Scope) bool {
	for _, s := range scopes {
		if s == scope {
			return true
		}
	}
	return false
}
