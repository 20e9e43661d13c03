package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetrics_Record(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveSpecialist("backlink", "success", 120*time.Millisecond)
	m.ObserveSpecialist("backlink", "timeout", time.Second)
	m.ObserveTotalFailure()
	m.ObserveCache(true)
	m.ObserveCache(false)
	m.ObserveCache(false)

	if got := testutil.ToFloat64(m.SpecialistCallsTotal.WithLabelValues("backlink", "success")); got != 1 {
		t.Errorf("success calls = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.CoordinationFailsTotal); got != 1 {
		t.Errorf("total failures = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.CacheMissesTotal); got != 2 {
		t.Errorf("cache misses = %v, want 2", got)
	}
}

func TestMetrics_SeparateRegistries(t *testing.T) {
	// два экземпляра на разных регистрах не должны паниковать
	New(prometheus.NewRegistry())
	New(prometheus.NewRegistry())
}

func TestMetrics_Handler(t *testing.T) {
	m := New(prometheus.NewRegistry())
	m.RecordRequest("http", "ok", time.Second)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	if !strings.Contains(rec.Body.String(), "morvo_requests_total") {
		t.Errorf("metrics output missing morvo_requests_total:\n%s", rec.Body.String())
	}
}
