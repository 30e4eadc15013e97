package matcher

import (
	"fmt"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"

	"tillerhq/tiller/pkg/rules"
)

// Skip and match reason strings surfaced in evaluation traces.
const (
	ReasonDisabled      = "disabled"
	ReasonAlways        = "always included"
	ReasonManual        = "manually referenced"
	ReasonNotReferenced = "manual rule not referenced"
)

// Match evaluates every rule against the request context and partitions the
// list into matched and skipped rules. Input order is preserved in both
// result slices.
//
// Rules reaching the matcher are assumed to have passed parser validation;
// a fileMatch rule with an empty pattern is skipped defensively rather than
// treated as an error.
func Match(ruleList []*rules.Rule, ctx *rules.MatchContext) (matched []rules.RuleMatch, skipped []rules.SkippedRule) {
	if ctx == nil {
		ctx = &rules.MatchContext{}
	}

	for _, rule := range ruleList {
		if !rule.Enabled {
			skipped = append(skipped, rules.SkippedRule{Name: rule.Name, Reason: ReasonDisabled})
			continue
		}

		switch rule.Inclusion {
		case rules.InclusionAlways:
			matched = append(matched, rules.RuleMatch{
				Rule:      rule,
				Reason:    ReasonAlways,
				Variables: ctx.SnapshotVariables(),
			})

		case rules.InclusionManual:
			if ctx.IsManuallyReferenced(rule.Name) {
				matched = append(matched, rules.RuleMatch{
					Rule:      rule,
					Reason:    ReasonManual,
					Variables: ctx.SnapshotVariables(),
				})
			} else {
				skipped = append(skipped, rules.SkippedRule{Name: rule.Name, Reason: ReasonNotReferenced})
			}

		case rules.InclusionFileMatch:
			if rule.FileMatchPattern == "" {
				skipped = append(skipped, rules.SkippedRule{
					Name:   rule.Name,
					Reason: "fileMatch rule has no pattern",
				})
				continue
			}

			files := matchFiles(rule.FileMatchPattern, ctx.CurrentFiles)
			if len(files) > 0 {
				matched = append(matched, rules.RuleMatch{
					Rule:         rule,
					Reason:       fmt.Sprintf("matched %d file(s) against pattern %q", len(files), rule.FileMatchPattern),
					MatchedFiles: files,
					Variables:    ctx.SnapshotVariables(),
				})
			} else {
				skipped = append(skipped, rules.SkippedRule{
					Name:   rule.Name,
					Reason: fmt.Sprintf("no files matched pattern %q", rule.FileMatchPattern),
				})
			}

		default:
			skipped = append(skipped, rules.SkippedRule{
				Name:   rule.Name,
				Reason: fmt.Sprintf("unknown inclusion mode %q", rule.Inclusion),
			})
		}
	}

	return matched, skipped
}

// matchFiles returns every file matching the pattern, by full path or by
// basename. Invalid patterns match nothing.
func matchFiles(pattern string, files []string) []string {
	var matchedFiles []string
	for _, file := range files {
		if matchPath(pattern, file) || matchPath(pattern, filepath.Base(file)) {
			matchedFiles = append(matchedFiles, file)
		}
	}
	return matchedFiles
}

// matchPath evaluates one doublestar glob against one path.
func matchPath(pattern, path string) bool {
	// doublestar matches on forward slashes; normalize Windows paths.
	ok, err := doublestar.Match(pattern, filepath.ToSlash(path))
	if err != nil {
		return false
	}
	return ok
}
