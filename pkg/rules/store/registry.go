package store

import (
	"crypto/sha256"
	"fmt"
	"sort"
	"sync"

	"tillerhq/tiller/pkg/rules"
)

// registry is the thread-safe in-memory cache of loaded rules, keyed by
// scope-qualified name. Reload builds a replacement map and swaps it in
// atomically; readers work against whichever map is current and never
// block on a rebuild.
type registry struct {
	mu      sync.RWMutex
	byKey   map[string]*rules.Rule
	version string
}

func newRegistry() *registry {
	return &registry{
		byKey: make(map[string]*rules.Rule),
	}
}

// replace swaps the entire cache for the given map.
func (r *registry) replace(byKey map[string]*rules.Rule) {
	version := computeVersion(byKey)

	r.mu.Lock()
	r.byKey = byKey
	r.version = version
	r.mu.Unlock()
}

// get returns the rule for the given scope and name.
func (r *registry) get(scope rules.Scope, name string) (*rules.Rule, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rule, ok := r.byKey[string(scope)+"/"+name]
	return rule, ok
}

// set inserts or replaces a single rule.
func (r *registry) set(rule *rules.Rule) {
	r.mu.Lock()
	r.byKey[rule.Key()] = rule
	r.version = computeVersion(r.byKey)
	r.mu.Unlock()
}

// remove deletes a single rule and reports whether it existed.
func (r *registry) remove(scope rules.Scope, name string) bool {
	key := string(scope) + "/" + name

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byKey[key]; !ok {
		return false
	}
	delete(r.byKey, key)
	r.version = computeVersion(r.byKey)
	return true
}

// list returns all cached rules in deterministic key order.
func (r *registry) list() []*rules.Rule {
	r.mu.RLock()
	defer r.mu.RUnlock()

	keys := make([]string, 0, len(r.byKey))
	for key := range r.byKey {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	out := make([]*rules.Rule, 0, len(keys))
	for _, key := range keys {
		out = append(out, r.byKey[key])
	}
	return out
}

// count returns the number of cached rules.
func (r *registry) count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byKey)
}

// currentVersion returns the cache content hash.
func (r *registry) currentVersion() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.version
}

// computeVersion hashes the cache keys and content sizes into a short
// version identifier, so callers can cheaply detect cache changes.
func computeVersion(byKey map[string]*rules.Rule) string {
	keys := make([]string, 0, len(byKey))
	for key := range byKey {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	h := sha256.New()
	for _, key := range keys {
		fmt.Fprintf(h, "%s:%d;", key, len(byKey[key].Content))
	}
	return fmt.Sprintf("%x", h.Sum(nil)[:8])
}
