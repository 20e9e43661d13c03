package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	RequestsTotal    *prometheus.CounterVec
	RequestDuration  *prometheus.HistogramVec
	RequestsInFlight prometheus.Gauge

	SpecialistCallsTotal   *prometheus.CounterVec
	SpecialistCallDuration *prometheus.HistogramVec
	CoordinationFailsTotal prometheus.Counter
	RelevanceScore         prometheus.Histogram
	SessionsCreatedTotal   prometheus.Counter
	StateStoreErrorsTotal  prometheus.Counter

	CacheHitsTotal   prometheus.Counter
	CacheMissesTotal prometheus.Counter

	RateLimitHitsTotal prometheus.Counter

	handler http.Handler
}

// New регистрирует метрики в reg. nil = дефолтный регистр prometheus.
// В тестах передаем prometheus.NewRegistry(), иначе повторная регистрация паникует.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)

	m := &Metrics{
		RequestsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "morvo_requests_total",
				Help: "Total number of chat requests processed",
			},
			[]string{"channel", "status"},
		),
		RequestDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "morvo_request_duration_seconds",
				Help:    "Chat request duration in seconds",
				Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
			},
			[]string{"channel"},
		),
		RequestsInFlight: f.NewGauge(
			prometheus.GaugeOpts{
				Name: "morvo_requests_in_flight",
				Help: "Number of chat requests currently being processed",
			},
		),

		SpecialistCallsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "morvo_specialist_calls_total",
				Help: "Specialist invocations by name and outcome",
			},
			[]string{"specialist", "status"},
		),
		SpecialistCallDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "morvo_specialist_call_duration_seconds",
				Help:    "Specialist invocation duration in seconds",
				Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
			},
			[]string{"specialist"},
		),
		CoordinationFailsTotal: f.NewCounter(
			prometheus.CounterOpts{
				Name: "morvo_coordination_total_failures_total",
				Help: "Coordination passes where every data specialist failed",
			},
		),
		RelevanceScore: f.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "morvo_regional_relevance_score",
				Help:    "Distribution of computed regional relevance scores",
				Buckets: prometheus.LinearBuckets(0, 1, 11),
			},
		),
		SessionsCreatedTotal: f.NewCounter(
			prometheus.CounterOpts{
				Name: "morvo_sessions_created_total",
				Help: "Conversation sessions opened",
			},
		),
		StateStoreErrorsTotal: f.NewCounter(
			prometheus.CounterOpts{
				Name: "morvo_state_store_errors_total",
				Help: "Persistence failures that aborted a request",
			},
		),

		CacheHitsTotal: f.NewCounter(
			prometheus.CounterOpts{
				Name: "morvo_cache_hits_total",
				Help: "Total number of cache hits",
			},
		),
		CacheMissesTotal: f.NewCounter(
			prometheus.CounterOpts{
				Name: "morvo_cache_misses_total",
				Help: "Total number of cache misses",
			},
		),

		RateLimitHitsTotal: f.NewCounter(
			prometheus.CounterOpts{
				Name: "morvo_rate_limit_hits_total",
				Help: "Total number of rejected requests due to rate limiting",
			},
		),
	}

	if g, ok := reg.(prometheus.Gatherer); ok {
		m.handler = promhttp.HandlerFor(g, promhttp.HandlerOpts{})
	} else {
		m.handler = promhttp.Handler()
	}
	return m
}

// Handler отдает метрики того регистра, в котором они созданы
func (m *Metrics) Handler() http.Handler {
	return m.handler
}

func (m *Metrics) RecordRequest(channel, status string, duration time.Duration) {
	m.RequestsTotal.WithLabelValues(channel, status).Inc()
	m.RequestDuration.WithLabelValues(channel).Observe(duration.Seconds())
}

func (m *Metrics) ObserveSpecialist(name, status string, elapsed time.Duration) {
	m.SpecialistCallsTotal.WithLabelValues(name, status).Inc()
	m.SpecialistCallDuration.WithLabelValues(name).Observe(elapsed.Seconds())
}

func (m *Metrics) ObserveTotalFailure() {
	m.CoordinationFailsTotal.Inc()
}

func (m *Metrics) ObserveRelevanceScore(score float64) {
	m.RelevanceScore.Observe(score)
}

func (m *Metrics) ObserveCache(hit bool) {
	if hit {
		m.CacheHitsTotal.Inc()
		return
	}
	m.CacheMissesTotal.Inc()
}

func (m *Metrics) RecordSessionCreated() {
	m.SessionsCreatedTotal.Inc()
}

func (m *Metrics) RecordStateStoreError() {
	m.StateStoreErrorsTotal.Inc()
}

func (m *Metrics) RecordRateLimitHit() {
	m.RateLimitHitsTotal.Inc()
}

func (m *Metrics) IncRequestsInFlight() {
	m.RequestsInFlight.Inc()
}

func (m *Metrics) DecRequestsInFlight() {
	m.RequestsInFlight.Dec()
}
