package prometheus

import (
	"strconv"
	"time"
)

// AppMetrics holds every metric family of the service.
type AppMetrics struct {
	// HTTP
	HTTPRequestsTotal   CounterVec
	HTTPRequestDuration HistogramVec
	HTTPResponseSize    HistogramVec
	HTTPActiveRequests  GaugeVec

	// Document store
	FetchTotal    CounterVec
	FetchDuration HistogramVec
	CacheAccess   CounterVec

	// Aggregation
	AggregationTotal    CounterVec
	AggregationDuration HistogramVec

	// Chat proxy / LLM
	LLMRequestsTotal   CounterVec
	LLMRequestDuration HistogramVec
	RateLimitedTotal   CounterVec

	// Health
	HealthCheckStatus GaugeVec
	ErrorsTotal       CounterVec
}

// Default buckets.
var (
	DefaultHTTPDurationBuckets  = []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10}
	DefaultFetchDurationBuckets = []float64{.001, .005, .01, .05, .1, .5, 1, 2.5, 5, 15}
	DefaultLLMDurationBuckets   = []float64{.5, 1, 2, 5, 10, 30, 60, 120}
	DefaultSizeBuckets          = []float64{100, 1000, 10000, 100000, 1000000, 10000000}
	DefaultComputeBuckets       = []float64{.0001, .0005, .001, .005, .01, .05, .1, .5}
)

// NewAppMetrics registers all metrics on collector.
func NewAppMetrics(collector MetricsCollector) *AppMetrics {
	m := &AppMetrics{}

	m.HTTPRequestsTotal = collector.RegisterCounter("http_requests_total", "Total HTTP requests", "method", "path", "status_code")
	m.HTTPRequestDuration = collector.RegisterHistogram("http_request_duration_seconds", "HTTP request duration", DefaultHTTPDurationBuckets, "method", "path")
	m.HTTPResponseSize = collector.RegisterHistogram("http_response_size_bytes", "HTTP response size", DefaultSizeBuckets, "method", "path")
	m.HTTPActiveRequests = collector.RegisterGauge("http_active_requests", "Active HTTP requests", "method")

	m.FetchTotal = collector.RegisterCounter("docstore_fetch_total", "Document store fetches by outcome", "resource", "outcome")
	m.FetchDuration = collector.RegisterHistogram("docstore_fetch_duration_seconds", "Document store fetch duration", DefaultFetchDurationBuckets, "resource")
	m.CacheAccess = collector.RegisterCounter("docstore_cache_access_total", "Document store cache lookups", "resource", "result")

	m.AggregationTotal = collector.RegisterCounter("aggregation_total", "Relevance aggregations", "memo")
	m.AggregationDuration = collector.RegisterHistogram("aggregation_duration_seconds", "Relevance aggregation duration", DefaultComputeBuckets)

	m.LLMRequestsTotal = collector.RegisterCounter("llm_requests_total", "Upstream completion requests", "model", "status")
	m.LLMRequestDuration = collector.RegisterHistogram("llm_request_duration_seconds", "Upstream completion duration", DefaultLLMDurationBuckets, "model")
	m.RateLimitedTotal = collector.RegisterCounter("ratelimited_requests_total", "Requests rejected by the rate limiter", "path")

	m.HealthCheckStatus = collector.RegisterGauge("health_check_status", "Health check status (1=up, 0=down)", "component")
	m.ErrorsTotal = collector.RegisterCounter("errors_total", "Total errors", "component", "error_type")

	return m
}

// ─────────────────────────────────────────────────────────────────────────────
// Recording helpers
// ─────────────────────────────────────────────────────────────────────────────

// RecordHTTPRequest records one served request.
func (m *AppMetrics) RecordHTTPRequest(method, path string, statusCode int, duration time.Duration, respSize int64) {
	m.HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(statusCode)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
	m.HTTPResponseSize.WithLabelValues(method, path).Observe(float64(respSize))
}

// ObserveFetch records a document store fetch.  outcome is one of
// "ok", "stale", "error".
func (m *AppMetrics) ObserveFetch(resource, outcome string, duration time.Duration) {
	m.FetchTotal.WithLabelValues(resource, outcome).Inc()
	m.FetchDuration.WithLabelValues(resource).Observe(duration.Seconds())
}

// ObserveCache records a cache lookup.  result is "fresh", "stale" or "miss".
func (m *AppMetrics) ObserveCache(resource, result string) {
	m.CacheAccess.WithLabelValues(resource, result).Inc()
}

// ObserveAggregation records one aggregation run.
func (m *AppMetrics) ObserveAggregation(memoHit bool, duration time.Duration) {
	label := "miss"
	if memoHit {
		label = "hit"
	}
	m.AggregationTotal.WithLabelValues(label).Inc()
	m.AggregationDuration.WithLabelValues().Observe(duration.Seconds())
}

// ObserveLLM records one upstream completion call.
func (m *AppMetrics) ObserveLLM(model, status string, duration time.Duration) {
	m.LLMRequestsTotal.WithLabelValues(model, status).Inc()
	m.LLMRequestDuration.WithLabelValues(model).Observe(duration.Seconds())
}

// RecordRateLimited counts a rejected request.
func (m *AppMetrics) RecordRateLimited(path string) {
	m.RateLimitedTotal.WithLabelValues(path).Inc()
}

// SetHealth publishes a component health state.
func (m *AppMetrics) SetHealth(component string, up bool) {
	v := 0.0
	if up {
		v = 1
	}
	m.HealthCheckStatus.WithLabelValues(component).Set(v)
}

// RecordError counts an error by component and type.
func (m *AppMetrics) RecordError(component, errorType string) {
	m.ErrorsTotal.WithLabelValues(component, errorType).Inc()
}

//Personal.AI order the ending
