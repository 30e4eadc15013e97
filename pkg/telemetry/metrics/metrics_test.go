package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestEngineMetrics_RecordEvaluation(t *testing.T) {
	registry := prometheus.NewRegistry()
	em := NewEngineMetrics(registry)

	em.RecordEvaluation(3, 1, 0, false, 2*time.Millisecond)
	em.RecordEvaluation(5, 0, 2, true, time.Millisecond)

	if got := testutil.ToFloat64(em.evaluationsTotal.WithLabelValues("complete")); got != 1 {
		t.Errorf("evaluations_total{complete} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(em.evaluationsTotal.WithLabelValues("truncated")); got != 1 {
		t.Errorf("evaluations_total{truncated} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(em.truncatedTotal); got != 1 {
		t.Errorf("truncated_total = %v, want 1", got)
	}
	if got := testutil.ToFloat64(em.mergeConflicts); got != 2 {
		t.Errorf("merge_conflicts_total = %v, want 2", got)
	}
}

func TestStoreMetrics_RecordReload(t *testing.T) {
	registry := prometheus.NewRegistry()
	sm := NewStoreMetrics(registry)

	sm.RecordReload(nil, 2, time.Millisecond)
	sm.RecordReload(errors.New("scan failed"), 0, time.Millisecond)

	if got := testutil.ToFloat64(sm.reloadsTotal.WithLabelValues("success")); got != 1 {
		t.Errorf("reloads_total{success} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(sm.reloadsTotal.WithLabelValues("error")); got != 1 {
		t.Errorf("reloads_total{error} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(sm.skippedDocument); got != 2 {
		t.Errorf("skipped_documents_total = %v, want 2", got)
	}
}

func TestStoreMetrics_SetCachedRules(t *testing.T) {
	registry := prometheus.NewRegistry()
	sm := NewStoreMetrics(registry)

	sm.SetCachedRules("project", 4)
	sm.SetCachedRules("project", 2)

	if got := testutil.ToFloat64(sm.cachedRules.WithLabelValues("project")); got != 2 {
		t.Errorf("store_rules{project} = %v, want latest value 2", got)
	}
}

func TestHandler_ServesExposition(t *testing.T) {
	registry := prometheus.NewRegistry()
	em := NewEngineMetrics(registry)
	em.RecordEvaluation(1, 0, 0, false, time.Millisecond)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	Handler(registry).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "tiller_rules_evaluations_total") {
		t.Error("exposition output missing tiller_rules_evaluations_total")
	}
}
