// Package store is the scope-partitioned repository for rule documents.
//
// A Store is backed by up to three directories, one each for the global,
// user, and project scopes. Session scope exists only as a merge concept:
// session rules are supplied by the caller at evaluation time and never
// pass through the store.
//
// Loaded rules live in an in-memory registry keyed by scope and name.
// Reload performs a full rescan, building a fresh cache and atomically
// swapping it in, so concurrent readers never observe a partially-rebuilt
// cache and never block on a reload in progress. Individual unparsable
// files are skipped and logged; a directory scan never aborts because of
// one bad document.
//
// Save and Delete are explicit, user-initiated mutations: they perform
// blocking filesystem I/O and propagate I/O failures to the caller.
//
// An optional Watcher (fsnotify with debouncing, plus an optional cron
// rescan schedule) keeps the cache in sync with external edits to the
// rule directories.
package store
