package handlers

import (
	"context"
	"net/http"
	"os"
	"runtime"
	"sync"
	"time"
)

// HealthChecker is an interface for components that can report their health.
type HealthChecker interface {
	Name() string
	Check(ctx context.Context) error
}

// CheckerFunc adapts a function to HealthChecker.
type CheckerFunc struct {
	name  string
	check func(ctx context.Context) error
}

// NewChecker names fn as a HealthChecker.
func NewChecker(name string, fn func(ctx context.Context) error) CheckerFunc {
	return CheckerFunc{name: name, check: fn}
}

func (c CheckerFunc) Name() string                    { return c.name }
func (c CheckerFunc) Check(ctx context.Context) error { return c.check(ctx) }

// HealthStatusRecorder receives per-component results, e.g. a Prometheus gauge.
type HealthStatusRecorder interface {
	SetHealth(component string, up bool)
}

// HealthHandler handles health check HTTP requests.
type HealthHandler struct {
	checkers    []HealthChecker
	version     string
	environment map[string]string
	recorder    HealthStatusRecorder
	startAt     time.Time
}

// HealthOption tunes NewHealthHandler.
type HealthOption func(*HealthHandler)

// WithEnvironment adds static key/value diagnostics (data source kind,
// cache backend, model) to GET /health.
func WithEnvironment(env map[string]string) HealthOption {
	return func(h *HealthHandler) { h.environment = env }
}

// WithStatusRecorder reports each checker result to r.
func WithStatusRecorder(r HealthStatusRecorder) HealthOption {
	return func(h *HealthHandler) { h.recorder = r }
}

// WithCheckers registers dependency checkers for readiness.
func WithCheckers(checkers ...HealthChecker) HealthOption {
	return func(h *HealthHandler) { h.checkers = append(h.checkers, checkers...) }
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(version string, opts ...HealthOption) *HealthHandler {
	h := &HealthHandler{version: version, startAt: time.Now()}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// LivenessResponse is the response for liveness probe.
type LivenessResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Uptime  string `json:"uptime"`
}

// ReadinessResponse is the response for readiness probe.
type ReadinessResponse struct {
	Status     string                    `json:"status"`
	Components map[string]ComponentCheck `json:"components,omitempty"`
}

// ComponentCheck represents the health status of a single component.
type ComponentCheck struct {
	Status  string `json:"status"`
	Latency string `json:"latency,omitempty"`
	Error   string `json:"error,omitempty"`
}

// DiagnosticsResponse is the body of GET /health.
type DiagnosticsResponse struct {
	Status      string                    `json:"status"`
	Version     string                    `json:"version"`
	Uptime      string                    `json:"uptime"`
	Timestamp   time.Time                 `json:"timestamp"`
	GoVersion   string                    `json:"go_version"`
	PID         int                       `json:"pid"`
	Hostname    string                    `json:"hostname,omitempty"`
	Goroutines  int                       `json:"goroutines"`
	HeapBytes   uint64                    `json:"heap_bytes"`
	Environment map[string]string         `json:"environment,omitempty"`
	Components  map[string]ComponentCheck `json:"components,omitempty"`
}

// Liveness handles GET /health/live.  Always 200 while the process runs.
func (h *HealthHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, LivenessResponse{
		Status:  "alive",
		Version: h.version,
		Uptime:  h.uptime(),
	})
}

// Readiness handles GET /health/ready.  503 when any dependency fails.
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	if len(h.checkers) == 0 {
		writeJSON(w, http.StatusOK, ReadinessResponse{Status: "ready"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	components, healthy := h.checkAll(ctx)
	resp := ReadinessResponse{Status: "ready", Components: components}
	code := http.StatusOK
	if !healthy {
		resp.Status = "not_ready"
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, resp)
}

// Diagnostics handles GET /health: process and environment diagnostics plus
// component status.  It answers 200 even when degraded so dashboards can
// always read it.
func (h *HealthHandler) Diagnostics(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	components, healthy := h.checkAll(ctx)
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)
	hostname, _ := os.Hostname()

	status := "healthy"
	if !healthy {
		status = "degraded"
	}
	writeJSON(w, http.StatusOK, DiagnosticsResponse{
		Status:      status,
		Version:     h.version,
		Uptime:      h.uptime(),
		Timestamp:   time.Now().UTC(),
		GoVersion:   runtime.Version(),
		PID:         os.Getpid(),
		Hostname:    hostname,
		Goroutines:  runtime.NumGoroutine(),
		HeapBytes:   mem.HeapAlloc,
		Environment: h.environment,
		Components:  components,
	})
}

func (h *HealthHandler) uptime() string {
	return time.Since(h.startAt).Truncate(time.Second).String()
}

// checkAll runs all health checkers concurrently.
func (h *HealthHandler) checkAll(ctx context.Context) (map[string]ComponentCheck, bool) {
	results := make(map[string]ComponentCheck, len(h.checkers))
	var mu sync.Mutex
	var wg sync.WaitGroup

	for _, checker := range h.checkers {
		wg.Add(1)
		go func(c HealthChecker) {
			defer wg.Done()

			start := time.Now()
			err := c.Check(ctx)
			cc := ComponentCheck{
				Status:  "healthy",
				Latency: time.Since(start).Truncate(time.Microsecond).String(),
			}
			if err != nil {
				cc.Status = "unhealthy"
				cc.Error = err.Error()
			}
			if h.recorder != nil {
				h.recorder.SetHealth(c.Name(), err == nil)
			}

			mu.Lock()
			results[c.Name()] = cc
			mu.Unlock()
		}(checker)
	}
	wg.Wait()

	healthy := true
	for _, c := range results {
		if c.Status != "healthy" {
			healthy = false
		}
	}
	return results, healthy
}

//Personal.AI order the ending
