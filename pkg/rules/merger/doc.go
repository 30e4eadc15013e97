// Package merger turns the set of matched rules into a single, bounded,
// deterministically-ordered prompt section.
//
// Merging runs in three steps:
//
//  1. Ordering: rules sort by scope precedence descending (session > project
//     > user > global), then rule priority descending, then name ascending.
//  2. Deduplication: walking the sorted list, a same-named rule is normally
//     dropped in favor of the first (higher-precedence) occurrence; a rule
//     with the override flag instead displaces the already-accepted one.
//     Every collision is recorded as a Conflict.
//  3. Truncation: content byte sizes accumulate over the ordered list; once
//     the next rule would exceed the configured cap the tail is dropped, so
//     the result is always a precedence-ordered prefix.
//
// Merge and BuildPromptSection are pure functions and safe for concurrent
// use.
package merger
