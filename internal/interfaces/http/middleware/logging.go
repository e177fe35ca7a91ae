package middleware

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/turtacn/bref-insight/internal/infrastructure/monitoring/logging"
)

// LoggingConfig holds configuration for the request logging middleware.
type LoggingConfig struct {
	// SkipPaths are not logged (probes, metrics scrapes).
	SkipPaths []string

	// SlowThreshold is the duration above which a request is logged at warn.
	SlowThreshold time.Duration
}

// DefaultLoggingConfig returns the server's logging defaults.
func DefaultLoggingConfig() LoggingConfig {
	return LoggingConfig{
		SkipPaths:     []string{"/health/live", "/health/ready", "/metrics"},
		SlowThreshold: 3 * time.Second,
	}
}

// wrappedResponseWriter captures the status code and bytes written.
type wrappedResponseWriter struct {
	http.ResponseWriter
	statusCode   int
	bytesWritten int64
	wroteHeader  bool
}

func newWrappedResponseWriter(w http.ResponseWriter) *wrappedResponseWriter {
	if ww, ok := w.(*wrappedResponseWriter); ok {
		return ww
	}
	return &wrappedResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}
}

// WriteHeader captures the status code.
func (w *wrappedResponseWriter) WriteHeader(code int) {
	if !w.wroteHeader {
		w.statusCode = code
		w.wroteHeader = true
	}
	w.ResponseWriter.WriteHeader(code)
}

// Write captures the number of bytes written.
func (w *wrappedResponseWriter) Write(b []byte) (int, error) {
	if !w.wroteHeader {
		w.WriteHeader(http.StatusOK)
	}
	n, err := w.ResponseWriter.Write(b)
	w.bytesWritten += int64(n)
	return n, err
}

// Hijack implements http.Hijacker.
func (w *wrappedResponseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	if hijacker, ok := w.ResponseWriter.(http.Hijacker); ok {
		return hijacker.Hijack()
	}
	return nil, nil, fmt.Errorf("underlying ResponseWriter does not implement http.Hijacker")
}

// Flush implements http.Flusher.
func (w *wrappedResponseWriter) Flush() {
	if flusher, ok := w.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

// RequestLogging returns middleware that logs every completed request and
// puts a request-scoped logger into the context.
func RequestLogging(logger logging.Logger, config LoggingConfig) func(http.Handler) http.Handler {
	skipSet := make(map[string]bool, len(config.SkipPaths))
	for _, p := range config.SkipPaths {
		skipSet[p] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if skipSet[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()
			requestID := chimw.GetReqID(r.Context())
			if requestID == "" {
				requestID = r.Header.Get("X-Request-ID")
			}
			reqLogger := logger.With(logging.String("request_id", requestID))
			r = r.WithContext(logging.WithContext(r.Context(), reqLogger))

			wrapped := newWrappedResponseWriter(w)
			next.ServeHTTP(wrapped, r)
			duration := time.Since(start)

			path := r.URL.Path
			if r.URL.RawQuery != "" {
				path = path + "?" + r.URL.RawQuery
			}
			fields := []logging.Field{
				logging.String("method", r.Method),
				logging.String("path", path),
				logging.Int("status", wrapped.statusCode),
				logging.Duration("duration", duration),
				logging.Int64("bytes", wrapped.bytesWritten),
				logging.String("remote_addr", r.RemoteAddr),
			}
			if ua := r.UserAgent(); ua != "" {
				fields = append(fields, logging.String("user_agent", ua))
			}

			switch {
			case wrapped.statusCode >= 500:
				reqLogger.Error("HTTP request completed with server error", fields...)
			case wrapped.statusCode >= 400:
				reqLogger.Warn("HTTP request completed with client error", fields...)
			case config.SlowThreshold > 0 && duration >= config.SlowThreshold:
				reqLogger.Warn("HTTP request completed (slow)", fields...)
			default:
				reqLogger.Info("HTTP request completed", fields...)
			}
		})
	}
}

// LoggingMiddleware adapts RequestLogging to RouterConfig.
type LoggingMiddleware struct {
	handler func(http.Handler) http.Handler
}

// NewLoggingMiddleware creates a LoggingMiddleware.
func NewLoggingMiddleware(logger logging.Logger, config LoggingConfig) *LoggingMiddleware {
	return &LoggingMiddleware{handler: RequestLogging(logger, config)}
}

// Handler returns the middleware handler function.
func (m *LoggingMiddleware) Handler(next http.Handler) http.Handler {
	return m.handler(next)
}

//Personal.AI order the ending
