package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/searchlab/postsearch/pkg/metrics"
)

// Metrics returns middleware that records HTTP request count, latency, and
// in-flight gauge.
func Metrics(m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			m.HTTPRequestsInFlight.Inc()
			defer m.HTTPRequestsInFlight.Dec()

			sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(sw, r)

			path := normalizePath(r.URL.Path)
			m.HTTPRequestsTotal.WithLabelValues(
				r.Method,
				path,
				strconv.Itoa(sw.status),
			).Inc()
			m.HTTPRequestDuration.WithLabelValues(
				r.Method,
				path,
			).Observe(time.Since(start).Seconds())
		})
	}
}

// normalizePath collapses unknown paths to keep the path label cardinality
// bounded.
func normalizePath(path string) string {
	switch {
	case strings.HasPrefix(path, "/api/v1/search"):
		return "/api/v1/search"
	case strings.HasPrefix(path, "/api/v1/cache"):
		return "/api/v1/cache"
	case strings.HasPrefix(path, "/health"):
		return "/health"
	default:
		return "other"
	}
}

// statusWriter wraps http.ResponseWriter to capture the response status code.
type statusWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (sw *statusWriter) WriteHeader(code int) {
	if !sw.wroteHeader {
		sw.status = code
		sw.wroteHeader = true
	}
	sw.ResponseWriter.WriteHeader(code)
}

func (sw *statusWriter) Write(b []byte) (int, error) {
	if !sw.wroteHeader {
		sw.wroteHeader = true
	}
	return sw.ResponseWriter.Write(b)
}
