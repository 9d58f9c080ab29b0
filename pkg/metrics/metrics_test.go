package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func scrape(t *testing.T, r *Recorder) string {
	t.Helper()

	server := httptest.NewServer(r.Handler())
	defer server.Close()

	resp, err := http.Get(server.URL)
	if err != nil {
		t.Fatalf("scrape: %v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return string(body)
}

func TestRecorderExposesSessionMetrics(t *testing.T) {
	t.Parallel()

	r := New()
	r.OperationApplied("append")
	r.OperationApplied("append")
	r.OperationFailed("remove", "not_found")
	r.ActionActivated("Menu0Act")
	r.Published()
	r.PendingOperations(3)

	body := scrape(t, r)
	for _, want := range []string{
		`menuscript_operations_applied_total{kind="append"} 2`,
		`menuscript_operations_failed_total{category="not_found",kind="remove"} 1`,
		`menuscript_action_activations_total{action="Menu0Act"} 1`,
		`menuscript_publishes_total 1`,
		`menuscript_published 1`,
		`menuscript_pending_operations 3`,
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("metrics output missing %q", want)
		}
	}

	r.Unpublished()
	if body := scrape(t, r); !strings.Contains(body, "menuscript_published 0") {
		t.Fatal("expected published gauge to drop to 0")
	}
}

func TestNilRecorderIsSafe(t *testing.T) {
	t.Parallel()

	var r *Recorder
	r.OperationApplied("append")
	r.OperationFailed("append", "")
	r.ActionActivated("x")
	r.Published()
	r.Unpublished()
	r.PendingOperations(1)

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}
