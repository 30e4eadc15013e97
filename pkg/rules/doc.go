// Package rules defines the core value types of the Tiller rules engine:
// the Rule document model, the per-request MatchContext, and the evaluation
// result types (RuleMatch, SkippedRule, Conflict, EvaluationTrace).
//
// A Rule is a scoped, conditionally-included text document. Rules originate
// from frontmatter-delimited files on disk (see pkg/rules/parser), live in a
// scope-partitioned store (pkg/rules/store), and are selected, ordered, and
// merged per request by pkg/rules/matcher and pkg/rules/merger.
//
// All types in this package are plain values with no I/O. Functions that
// operate on them (matching, merging, rendering) are pure and safe for
// concurrent use.
package rules
