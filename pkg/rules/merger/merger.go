package merger

import (
	"fmt"
	"sort"

	"tillerhq/tiller/pkg/rules"
)

// DefaultMaxContentSize caps the merged rule content size in bytes.
const DefaultMaxContentSize = 100000

// Merge orders, deduplicates, and truncates the matched rules.
// It returns the final ordered rule list and the conflicts resolved along
// the way. maxContentSize <= 0 falls back to DefaultMaxContentSize.
//
// Merge is deterministic: identical inputs produce identical outputs.
func Merge(matches []rules.RuleMatch, maxContentSize int) ([]*rules.Rule, []rules.Conflict) {
	if maxContentSize <= 0 {
		maxContentSize = DefaultMaxContentSize
	}

	ordered := make([]*rules.Rule, 0, len(matches))
	for _, match := range matches {
		if match.Rule == nil {
			continue
		}
		ordered = append(ordered, match.Rule)
	}

	sortRules(ordered)

	// Dedupe by name. An override rule displaces the accepted occurrence
	// in place, keeping its (higher-precedence) slot in the ordering.
	var conflicts []rules.Conflict
	accepted := make([]*rules.Rule, 0, len(ordered))
	index := make(map[string]int, len(ordered))

	for _, rule := range ordered {
		at, seen := index[rule.Name]
		if !seen {
			index[rule.Name] = len(accepted)
			accepted = append(accepted, rule)
			continue
		}

		kept := accepted[at]
		if rule.Override {
			conflicts = append(conflicts, rules.Conflict{
				RuleA:  kept.Name,
				RuleB:  rule.Name,
				Reason: fmt.Sprintf("overridden by %s scope", rule.Scope),
			})
			accepted[at] = rule
		} else {
			conflicts = append(conflicts, rules.Conflict{
				RuleA:  kept.Name,
				RuleB:  rule.Name,
				Reason: fmt.Sprintf("duplicate name, keeping %s scope", kept.Scope),
			})
		}
	}

	// Truncate: accumulate content sizes and drop the tail once the next
	// rule would exceed the cap.
	final := make([]*rules.Rule, 0, len(accepted))
	totalSize := 0
	for _, rule := range accepted {
		if totalSize+len(rule.Content) > maxContentSize {
			break
		}
		totalSize += len(rule.Content)
		final = append(final, rule)
	}

	return final, conflicts
}

// TotalContentSize returns the combined content byte size of the rules.
func TotalContentSize(ruleList []*rules.Rule) int {
	total := 0
	for _, rule := range ruleList {
		total += len(rule.Content)
	}
	return total
}

// sortRules sorts by scope precedence descending, then rule priority
// descending, then name ascending.
func sortRules(ruleList []*rules.Rule) {
	sort.SliceStable(ruleList, func(i, j int) bool {
		a, b := ruleList[i], ruleList[j]

		if ap, bp := a.Scope.Precedence(), b.Scope.Precedence(); ap != bp {
			return ap > bp
		}
		if a.Priority != b.Priority {
			return a.Priority > b.Priority
		}
		return a.Name < b.Name
	})
}
