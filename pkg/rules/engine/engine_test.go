package engine

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"tillerhq/tiller/pkg/rules"
	"tillerhq/tiller/pkg/rules/audit"
	"tillerhq/tiller/pkg/rules/store"
)

func writeDoc(t *testing.T, dir, file, doc string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, file), []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}
}

func newTestEngine(t *testing.T, opts ...Option) (*Engine, *store.Config) {
	t.Helper()
	cfg := &store.Config{
		UserDir:    filepath.Join(t.TempDir(), "user"),
		ProjectDir: filepath.Join(t.TempDir(), "project"),
	}
	for _, dir := range []string{cfg.UserDir, cfg.ProjectDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatal(err)
		}
	}
	s := store.New(cfg, nil, nil)
	e := New(s, nil, nil, opts...)
	return e, cfg
}

func sessionRule(name, content string) *rules.Rule {
	return &rules.Rule{
		Name:        name,
		Description: "session rule " + name,
		Content:     content,
		Inclusion:   rules.InclusionAlways,
		Priority:    rules.PriorityDefault,
		Enabled:     true,
	}
}

func TestEngine_Evaluate(t *testing.T) {
	e, cfg := newTestEngine(t)
	writeDoc(t, cfg.ProjectDir, "base.md",
		"---\nname: base\ndescription: always applies\n---\nProject baseline.\n")
	writeDoc(t, cfg.ProjectDir, "react.md",
		"---\nname: react\ndescription: react conventions\ninclusion: fileMatch\nfileMatchPattern: \"**/*.tsx\"\n---\nReact conventions.\n")
	if _, err := e.Reload(context.Background()); err != nil {
		t.Fatal(err)
	}

	evaluation, err := e.Evaluate(context.Background(), &rules.MatchContext{
		CurrentFiles: []string{"src/App.tsx"},
		SessionID:    "sess-1",
	}, nil)
	if err != nil {
		t.Fatalf("Evaluate() error = %v, want nil", err)
	}

	if !strings.Contains(evaluation.PromptSection, "Project baseline.") {
		t.Error("prompt section missing always-included rule")
	}
	if !strings.Contains(evaluation.PromptSection, "React conventions.") {
		t.Error("prompt section missing fileMatch rule")
	}

	trace := evaluation.Trace
	if trace.RequestID == "" {
		t.Error("trace missing request ID")
	}
	if trace.SessionID != "sess-1" {
		t.Errorf("trace SessionID = %q, want sess-1", trace.SessionID)
	}
	if len(trace.Evaluated) != 2 {
		t.Errorf("len(Evaluated) = %d, want 2", len(trace.Evaluated))
	}
	if len(trace.Matched) != 2 || len(trace.FinalRules) != 2 {
		t.Errorf("Matched/Final = %d/%d, want 2/2", len(trace.Matched), len(trace.FinalRules))
	}
	if trace.TotalSize == 0 {
		t.Error("trace TotalSize = 0, want rendered content size")
	}
}

func TestEngine_Evaluate_SessionRulesWin(t *testing.T) {
	e, cfg := newTestEngine(t)
	writeDoc(t, cfg.ProjectDir, "style.md",
		"---\nname: style\ndescription: project style\n---\nProject version.\n")
	if _, err := e.Reload(context.Background()); err != nil {
		t.Fatal(err)
	}

	session := sessionRule("style", "Session version.\n")
	session.Scope = rules.ScopeUser // normalized to session scope by Evaluate

	evaluation, err := e.Evaluate(context.Background(), &rules.MatchContext{}, []*rules.Rule{session})
	if err != nil {
		t.Fatalf("Evaluate() error = %v, want nil", err)
	}

	if !strings.Contains(evaluation.PromptSection, "Session version.") {
		t.Error("session rule did not win the name collision")
	}
	if strings.Contains(evaluation.PromptSection, "Project version.") {
		t.Error("losing duplicate still rendered")
	}
	if len(evaluation.Trace.Conflicts) != 1 {
		t.Errorf("len(Conflicts) = %d, want 1", len(evaluation.Trace.Conflicts))
	}
}

func TestEngine_Evaluate_InvalidSessionRuleSkipped(t *testing.T) {
	e, _ := newTestEngine(t)

	bad := &rules.Rule{Name: "broken"} // missing description

	evaluation, err := e.Evaluate(context.Background(), nil, []*rules.Rule{bad, sessionRule("good", "ok\n")})
	if err != nil {
		t.Fatalf("Evaluate() error = %v, want nil (invalid session rules are skipped)", err)
	}

	if !strings.Contains(evaluation.PromptSection, "ok") {
		t.Error("valid session rule missing from output")
	}
	foundSkip := false
	for _, skipped := range evaluation.Trace.Skipped {
		if skipped.Name == "broken" {
			foundSkip = true
		}
	}
	if !foundSkip {
		t.Error("invalid session rule not recorded in trace skips")
	}
}

func TestEngine_Evaluate_Truncation(t *testing.T) {
	e, cfg := newTestEngine(t)
	writeDoc(t, cfg.ProjectDir, "big.md", fmt.Sprintf(
		"---\nname: big\ndescription: big rule\npriority: 90\n---\n%s\n", strings.Repeat("a", 200)))
	writeDoc(t, cfg.ProjectDir, "small.md",
		"---\nname: small\ndescription: small rule\npriority: 10\n---\nsmall content\n")
	if _, err := e.Reload(context.Background()); err != nil {
		t.Fatal(err)
	}
	e.config.MaxContentSize = 210

	evaluation, err := e.Evaluate(context.Background(), nil, nil)
	if err != nil {
		t.Fatal(err)
	}

	if len(evaluation.Trace.FinalRules) != 1 || evaluation.Trace.FinalRules[0] != "big" {
		t.Errorf("FinalRules = %v, want [big] after truncation", evaluation.Trace.FinalRules)
	}
	if strings.Contains(evaluation.PromptSection, "small content") {
		t.Error("truncated rule still rendered")
	}
}

func TestEngine_Evaluate_EmptyStore(t *testing.T) {
	e, _ := newTestEngine(t)

	evaluation, err := e.Evaluate(context.Background(), nil, nil)
	if err != nil {
		t.Fatalf("Evaluate() error = %v, want nil", err)
	}
	if evaluation.PromptSection != "" {
		t.Errorf("PromptSection = %q, want empty string", evaluation.PromptSection)
	}
	if len(evaluation.Trace.FinalRules) != 0 {
		t.Errorf("FinalRules = %v, want empty", evaluation.Trace.FinalRules)
	}
}

func TestEngine_Evaluate_PersistsTrace(t *testing.T) {
	storage := audit.NewMemoryStorage()
	e, cfg := newTestEngine(t, WithAuditStorage(storage))
	writeDoc(t, cfg.ProjectDir, "base.md",
		"---\nname: base\ndescription: always applies\n---\ncontent\n")
	if _, err := e.Reload(context.Background()); err != nil {
		t.Fatal(err)
	}

	evaluation, err := e.Evaluate(context.Background(), &rules.MatchContext{SessionID: "sess-9"}, nil)
	if err != nil {
		t.Fatal(err)
	}

	stored, found, err := storage.Get(context.Background(), evaluation.Trace.RequestID)
	if err != nil {
		t.Fatalf("audit Get() error = %v", err)
	}
	if !found {
		t.Fatal("trace not persisted to audit storage")
	}
	if stored.SessionID != "sess-9" {
		t.Errorf("stored SessionID = %q, want sess-9", stored.SessionID)
	}
}

func TestEngine_Evaluate_UniqueRequestIDs(t *testing.T) {
	e, _ := newTestEngine(t)

	seen := make(map[string]bool)
	for i := 0; i < 10; i++ {
		evaluation, err := e.Evaluate(context.Background(), nil, nil)
		if err != nil {
			t.Fatal(err)
		}
		if seen[evaluation.Trace.RequestID] {
			t.Fatalf("duplicate request ID %q", evaluation.Trace.RequestID)
		}
		seen[evaluation.Trace.RequestID] = true
	}
}

func TestEngine_ConflictReport(t *testing.T) {
	e, cfg := newTestEngine(t)
	writeDoc(t, cfg.UserDir, "style.md",
		"---\nname: style\ndescription: user style\n---\nAlways use tabs.\n")
	writeDoc(t, cfg.ProjectDir, "style.md",
		"---\nname: style\ndescription: project style\n---\nNever use tabs.\n")
	if _, err := e.Reload(context.Background()); err != nil {
		t.Fatal(err)
	}

	report := e.ConflictReport()

	if len(report.ScopeConflicts) != 1 {
		t.Errorf("len(ScopeConflicts) = %d, want 1", len(report.ScopeConflicts))
	}
	if len(report.Contradictions) != 1 {
		t.Errorf("len(Contradictions) = %d, want 1", len(report.Contradictions))
	}
}

func TestEngine_CRUDPassThrough(t *testing.T) {
	e, _ := newTestEngine(t)
	if _, err := e.Reload(context.Background()); err != nil {
		t.Fatal(err)
	}

	rule := &rules.Rule{
		Name:        "via-engine",
		Description: "saved through the engine",
		Content:     "body\n",
		Scope:       rules.ScopeProject,
		Inclusion:   rules.InclusionAlways,
		Priority:    rules.PriorityDefault,
		Enabled:     true,
	}
	if err := e.Save(rule); err != nil {
		t.Fatalf("Save() error = %v, want nil", err)
	}

	if _, ok := e.Get("via-engine"); !ok {
		t.Error("Get() after Save() not found")
	}
	if got := e.ListScope(rules.ScopeProject); len(got) != 1 {
		t.Errorf("ListScope(project) = %d rules, want 1", len(got))
	}

	deleted, err := e.Delete("via-engine", rules.ScopeProject)
	if err != nil || !deleted {
		t.Errorf("Delete() = %t, %v, want true, nil", deleted, err)
	}
}
