// Package engine orchestrates one rule evaluation per request: it gathers
// the store's rules plus any caller-supplied session rules, runs matching
// and merging, renders the prompt section, and assembles the evaluation
// trace that callers surface through CLIs and APIs.
//
// The engine also passes through the store's CRUD surface and the static
// conflict report, so transports outside this core need only hold an
// *Engine. Evaluation itself touches no engine state besides reading the
// store's cache; concurrent Evaluate calls are safe.
package engine
