package store

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"tillerhq/tiller/pkg/rules"
	"tillerhq/tiller/pkg/rules/parser"
	"tillerhq/tiller/pkg/telemetry/metrics"
)

// Config configures a Store.
type Config struct {
	// GlobalDir, UserDir, and ProjectDir are the backing directories per
	// scope. Empty entries disable that scope.
	GlobalDir  string
	UserDir    string
	ProjectDir string

	// AllowedExtensions lists the file extensions scanned for rule
	// documents. Default: [".md"].
	AllowedExtensions []string
}

// DefaultConfig returns a config with default extensions and no
// directories configured.
func DefaultConfig() *Config {
	return &Config{
		AllowedExtensions: []string{".md"},
	}
}

// Directories returns the configured scope/directory pairs in ascending
// precedence order, skipping unconfigured scopes.
func (c *Config) Directories() map[rules.Scope]string {
	dirs := make(map[rules.Scope]string, 3)
	if c.GlobalDir != "" {
		dirs[rules.ScopeGlobal] = c.GlobalDir
	}
	if c.UserDir != "" {
		dirs[rules.ScopeUser] = c.UserDir
	}
	if c.ProjectDir != "" {
		dirs[rules.ScopeProject] = c.ProjectDir
	}
	return dirs
}

// Store is the scope-partitioned rule repository. It owns the rule cache
// and is the only mutable, stateful component of the engine.
type Store struct {
	config   *Config
	parser   *parser.Parser
	registry *registry
	logger   *slog.Logger

	// metrics is optional; nil disables instrumentation.
	metrics *metrics.StoreMetrics
}

// New creates a store over the configured directories. The cache starts
// empty; call Reload to populate it.
func New(config *Config, p *parser.Parser, logger *slog.Logger) *Store {
	if config == nil {
		config = DefaultConfig()
	}
	if len(config.AllowedExtensions) == 0 {
		config.AllowedExtensions = []string{".md"}
	}
	if p == nil {
		p = parser.NewParser()
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Store{
		config:   config,
		parser:   p,
		registry: newRegistry(),
		logger:   logger.With("component", "rules.store"),
	}
}

// WithMetrics attaches store metrics. Call before the first Reload.
func (s *Store) WithMetrics(m *metrics.StoreMetrics) *Store {
	s.metrics = m
	return s
}

// Directories returns the configured scope directories.
func (s *Store) Directories() map[rules.Scope]string {
	return s.config.Directories()
}

// Reload rescans every configured directory, builds a fresh cache, and
// atomically swaps it in. Unparsable files are skipped and logged, never
// aborting the scan. The cancellation of ctx stops the scan between files.
func (s *Store) Reload(ctx context.Context) (*LoadResult, error) {
	start := time.Now()
	fresh := make(map[string]*rules.Rule)
	result := &LoadResult{}

	for _, scope := range rules.DirectoryScopes() {
		dir, ok := s.config.Directories()[scope]
		if !ok {
			continue
		}

		if err := s.scanDirectory(ctx, scope, dir, fresh, result); err != nil {
			scanErr := &StoreError{Op: "reload", Scope: string(scope), Message: "directory scan failed", Cause: err}
			if s.metrics != nil {
				s.metrics.RecordReload(scanErr, len(result.Skipped), time.Since(start))
			}
			return nil, scanErr
		}
	}

	s.registry.replace(fresh)

	if s.metrics != nil {
		s.metrics.RecordReload(nil, len(result.Skipped), time.Since(start))
		counts := make(map[rules.Scope]int)
		for _, rule := range fresh {
			counts[rule.Scope]++
		}
		for _, scope := range rules.DirectoryScopes() {
			s.metrics.SetCachedRules(string(scope), counts[scope])
		}
	}

	s.logger.Info("rule store reloaded",
		"loaded", result.Loaded,
		"skipped", len(result.Skipped),
		"version", s.registry.currentVersion(),
	)

	return result, nil
}

// scanDirectory loads every rule document under dir into the fresh cache.
// A missing directory is not an error; a configured scope may simply have
// no rules yet.
func (s *Store) scanDirectory(ctx context.Context, scope rules.Scope, dir string, fresh map[string]*rules.Rule, result *LoadResult) error {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return nil
	}

	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		// Skip hidden files and directories.
		if strings.HasPrefix(d.Name(), ".") && path != dir {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if !s.hasAllowedExtension(path) {
			return nil
		}

		rule, parseErr := s.parser.ParseFile(path, scope)
		if parseErr != nil {
			// One bad document never blocks the rest of the ruleset.
			s.logger.Warn("skipping unparsable rule document",
				"path", path,
				"error", parseErr,
			)
			result.Skipped = append(result.Skipped, SkippedFile{Path: path, Reason: parseErr.Error()})
			return nil
		}

		if existing, ok := fresh[rule.Key()]; ok {
			s.logger.Warn("duplicate rule name in scope, keeping first occurrence",
				"scope", scope,
				"name", rule.Name,
				"kept", existing.SourcePath,
				"ignored", path,
			)
			result.Skipped = append(result.Skipped, SkippedFile{
				Path:   path,
				Reason: "duplicate rule name " + rule.Name + " in scope " + string(scope),
			})
			return nil
		}

		fresh[rule.Key()] = rule
		result.Loaded++
		return nil
	})
}

// List returns all cached rules, cloned, in deterministic order.
func (s *Store) List() []*rules.Rule {
	return cloneAll(s.registry.list())
}

// ListScope returns the cached rules for one scope, cloned.
func (s *Store) ListScope(scope rules.Scope) []*rules.Rule {
	var out []*rules.Rule
	for _, rule := range s.registry.list() {
		if rule.Scope == scope {
			out = append(out, rule.Clone())
		}
	}
	return out
}

// GetScoped returns the rule with the given name in the given scope.
func (s *Store) GetScoped(name string, scope rules.Scope) (*rules.Rule, bool) {
	rule, ok := s.registry.get(scope, name)
	if !ok {
		return nil, false
	}
	return rule.Clone(), true
}

// Get searches project, then user, then global scope for the named rule
// and returns the first hit. Session rules never participate in this
// fallback; they are owned by the caller.
func (s *Store) Get(name string) (*rules.Rule, bool) {
	for _, scope := range []rules.Scope{rules.ScopeProject, rules.ScopeUser, rules.ScopeGlobal} {
		if rule, ok := s.registry.get(scope, name); ok {
			return rule.Clone(), true
		}
	}
	return nil, false
}

// Save serializes the rule into its scope's directory, creating the
// directory if needed, and updates the cache. I/O failures propagate.
func (s *Store) Save(rule *rules.Rule) error {
	if rule == nil {
		return &StoreError{Op: "save", Message: "rule cannot be nil"}
	}
	if err := rule.Validate(); err != nil {
		return err
	}

	dir, ok := s.config.Directories()[rule.Scope]
	if !ok {
		return &StoreError{
			Op:      "save",
			Scope:   string(rule.Scope),
			Name:    rule.Name,
			Message: "scope has no backing directory",
		}
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return &StoreError{Op: "save", Scope: string(rule.Scope), Name: rule.Name, Message: "cannot create scope directory", Cause: err}
	}

	path := rule.SourcePath
	if path == "" || filepath.Dir(path) != filepath.Clean(dir) {
		path = filepath.Join(dir, rule.Name+".md")
	}

	document := parser.Serialize(rule)
	if err := os.WriteFile(path, []byte(document), 0o644); err != nil {
		return &StoreError{Op: "save", Scope: string(rule.Scope), Name: rule.Name, Message: "write failed", Cause: err}
	}

	saved := rule.Clone()
	saved.SourcePath = path
	s.registry.set(saved)

	s.logger.Info("rule saved", "scope", rule.Scope, "name", rule.Name, "path", path)
	return nil
}

// Delete removes the backing document and cache entry for the named rule.
// It returns whether anything was deleted. I/O failures propagate.
func (s *Store) Delete(name string, scope rules.Scope) (bool, error) {
	rule, ok := s.registry.get(scope, name)
	if !ok {
		return false, nil
	}

	if rule.SourcePath != "" {
		if err := os.Remove(rule.SourcePath); err != nil && !os.IsNotExist(err) {
			return false, &StoreError{Op: "delete", Scope: string(scope), Name: name, Message: "remove failed", Cause: err}
		}
	}

	s.registry.remove(scope, name)
	s.logger.Info("rule deleted", "scope", scope, "name", name)
	return true, nil
}

// Count returns the number of cached rules.
func (s *Store) Count() int {
	return s.registry.count()
}

// Version returns the cache content hash, changing whenever the cached
// rule set changes.
func (s *Store) Version() string {
	return s.registry.currentVersion()
}

func (s *Store) hasAllowedExtension(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, allowed := range s.config.AllowedExtensions {
		if ext == strings.ToLower(allowed) {
			return true
		}
	}
	return false
}

func cloneAll(in []*rules.Rule) []*rules.Rule {
	out := make([]*rules.Rule, len(in))
	for i, rule := range in {
		out[i] = rule.Clone()
	}
	return out
}
