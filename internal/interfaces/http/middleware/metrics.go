package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

// HTTPMetrics receives one observation per served request.
type HTTPMetrics interface {
	RecordHTTPRequest(method, path string, statusCode int, duration time.Duration, respSize int64)
}

// Metrics records request counts, latency and response size.  The path
// label is the chi route pattern so /data/{file} style routes do not
// explode label cardinality; unmatched requests are labelled "unmatched".
func Metrics(m HTTPMetrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			wrapped := newWrappedResponseWriter(w)
			next.ServeHTTP(wrapped, r)

			route := "unmatched"
			if rctx := chi.RouteContext(r.Context()); rctx != nil {
				if p := rctx.RoutePattern(); p != "" {
					route = p
				}
			}
			m.RecordHTTPRequest(r.Method, route, wrapped.statusCode, time.Since(start), wrapped.bytesWritten)
		})
	}
}

//Personal.AI order the ending
