// Package matcher decides which rules apply to a request.
//
// Match is a pure function over a rule list and a MatchContext: no I/O, no
// mutation, safe to call concurrently. Applicability follows the rule's
// inclusion mode: always rules always apply, manual rules apply when
// explicitly referenced, and fileMatch rules apply when at least one context
// file matches the rule's glob pattern by full path or basename. Glob
// matching uses doublestar syntax, so patterns like **/*.tsx work as
// expected across directory levels.
package matcher
