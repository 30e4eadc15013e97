// Package conflict performs static, whole-store conflict analysis over the
// loaded rule set, independent of any single request.
//
// Two kinds of findings are reported. Scope conflicts are same-named rules
// in multiple scopes; the report names the scopes involved and which one
// wins under the standard precedence table (deliberately ignoring any
// override flag, since the report describes the default outcome).
// Contradictions are a best-effort keyword heuristic: configured pairs of
// opposing markers flag a warning between two rules when each contains one
// side of a pair. The heuristic is explicitly approximate and may produce
// false positives and negatives; it must not be relied on for correctness.
package conflict
