package engine

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"tillerhq/tiller/pkg/rules"
	"tillerhq/tiller/pkg/rules/audit"
	"tillerhq/tiller/pkg/rules/conflict"
	"tillerhq/tiller/pkg/rules/matcher"
	"tillerhq/tiller/pkg/rules/merger"
	"tillerhq/tiller/pkg/rules/store"
	"tillerhq/tiller/pkg/telemetry/metrics"
)

// Config configures the engine.
type Config struct {
	// MaxContentSize caps the merged rule content size in bytes.
	// Default: merger.DefaultMaxContentSize.
	MaxContentSize int
}

// DefaultConfig returns the default engine configuration.
func DefaultConfig() *Config {
	return &Config{
		MaxContentSize: merger.DefaultMaxContentSize,
	}
}

// Evaluation is the result of one rule evaluation: the rendered prompt
// fragment and the audit trace behind it.
type Evaluation struct {
	// PromptSection is the merged, rendered rule text.
	PromptSection string

	// Trace is the audit record of the evaluation.
	Trace *rules.EvaluationTrace
}

// Engine evaluates rules against requests and exposes the store's CRUD
// surface and the conflict detector's report.
type Engine struct {
	store    *store.Store
	detector *conflict.Detector
	config   *Config
	logger   *slog.Logger

	// Optional collaborators; nil disables them.
	metrics *metrics.EngineMetrics
	audit   audit.Storage
}

// Option customizes an Engine.
type Option func(*Engine)

// WithMetrics attaches evaluation metrics.
func WithMetrics(m *metrics.EngineMetrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithAuditStorage attaches evaluation trace persistence.
func WithAuditStorage(storage audit.Storage) Option {
	return func(e *Engine) { e.audit = storage }
}

// WithDetector replaces the default conflict detector.
func WithDetector(d *conflict.Detector) Option {
	return func(e *Engine) { e.detector = d }
}

// New creates an engine over the given store.
func New(s *store.Store, config *Config, logger *slog.Logger, opts ...Option) *Engine {
	if config == nil {
		config = DefaultConfig()
	}
	if config.MaxContentSize <= 0 {
		config.MaxContentSize = merger.DefaultMaxContentSize
	}
	if logger == nil {
		logger = slog.Default()
	}

	e := &Engine{
		store:    s,
		detector: conflict.NewDetector(),
		config:   config,
		logger:   logger.With("component", "rules.engine"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Evaluate runs one rule evaluation: store rules plus the caller's session
// rules are matched against the context, merged under the precedence
// policy, and rendered. The returned trace records every considered,
// matched, skipped, and conflicting rule plus the final ordered set.
//
// Session rules are normalized to session scope; rules failing validation
// are skipped with a reason rather than aborting the evaluation.
func (e *Engine) Evaluate(ctx context.Context, mctx *rules.MatchContext, sessionRules []*rules.Rule) (*Evaluation, error) {
	start := time.Now()

	if mctx == nil {
		mctx = &rules.MatchContext{}
	}

	ruleList := e.store.List()
	var invalid []rules.SkippedRule
	for _, rule := range sessionRules {
		session := rule.Clone()
		session.Scope = rules.ScopeSession
		if err := session.Validate(); err != nil {
			invalid = append(invalid, rules.SkippedRule{Name: session.Name, Reason: err.Error()})
			continue
		}
		ruleList = append(ruleList, session)
	}

	matched, skipped := matcher.Match(ruleList, mctx)
	skipped = append(skipped, invalid...)

	final, conflicts := merger.Merge(matched, e.config.MaxContentSize)
	section := merger.BuildPromptSection(final)

	trace := &rules.EvaluationTrace{
		RequestID:  uuid.NewString(),
		SessionID:  mctx.SessionID,
		Timestamp:  start,
		Evaluated:  ruleNames(ruleList),
		Matched:    matched,
		Skipped:    skipped,
		Conflicts:  conflicts,
		FinalRules: ruleNames(final),
		TotalSize:  merger.TotalContentSize(final),
	}

	// Each conflict drops exactly one duplicate; anything missing beyond
	// that was truncated to fit the size cap.
	truncated := len(final) < len(matched)-len(conflicts)
	duration := time.Since(start)

	if e.metrics != nil {
		e.metrics.RecordEvaluation(len(matched), len(skipped), len(conflicts), truncated, duration)
	}

	if e.audit != nil {
		if err := e.audit.Store(ctx, trace); err != nil {
			// Audit persistence is best-effort; the evaluation result
			// is still valid without it.
			e.logger.Error("failed to persist evaluation trace",
				"request_id", trace.RequestID,
				"error", err,
			)
		}
	}

	e.logger.Debug("evaluation complete",
		"request_id", trace.RequestID,
		"evaluated", len(trace.Evaluated),
		"matched", len(matched),
		"final", len(final),
		"total_size", trace.TotalSize,
		"truncated", truncated,
		"duration_ms", duration.Milliseconds(),
	)

	return &Evaluation{PromptSection: section, Trace: trace}, nil
}

// ConflictReport runs the static conflict analysis over all loaded rules.
func (e *Engine) ConflictReport() *conflict.Report {
	return e.detector.Detect(e.store.List())
}

// Reload rescans the store's rule directories.
func (e *Engine) Reload(ctx context.Context) (*store.LoadResult, error) {
	return e.store.Reload(ctx)
}

// List returns all loaded rules.
func (e *Engine) List() []*rules.Rule {
	return e.store.List()
}

// ListScope returns the loaded rules for one scope.
func (e *Engine) ListScope(scope rules.Scope) []*rules.Rule {
	return e.store.ListScope(scope)
}

// Get searches project, then user, then global scope for the named rule.
func (e *Engine) Get(name string) (*rules.Rule, bool) {
	return e.store.Get(name)
}

// GetScoped returns the named rule in the given scope.
func (e *Engine) GetScoped(name string, scope rules.Scope) (*rules.Rule, bool) {
	return e.store.GetScoped(name, scope)
}

// Save persists a rule into its scope's directory.
func (e *Engine) Save(rule *rules.Rule) error {
	return e.store.Save(rule)
}

// Delete removes a rule, returning whether anything was deleted.
func (e *Engine) Delete(name string, scope rules.Scope) (bool, error) {
	return e.store.Delete(name, scope)
}

func ruleNames(ruleList []*rules.Rule) []string {
	names := make([]string, len(ruleList))
	for i, rule := range ruleList {
		names[i] = rule.Name
	}
	return names
}
