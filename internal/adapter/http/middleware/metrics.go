package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/obligent/obligent/internal/infrastructure/metrics"
)

// Metrics records request counts and latencies onto the shared
// metrics registry.
func Metrics(m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			wrapped := &metricsRecorder{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(wrapped, r)

			duration := time.Since(start).Seconds()
			path := normalizePath(r.URL.Path)

			m.HTTPRequests.WithLabelValues(r.Method, path, strconv.Itoa(wrapped.statusCode)).Inc()
			m.HTTPDuration.WithLabelValues(r.Method, path).Observe(duration)
		})
	}
}

type metricsRecorder struct {
	http.ResponseWriter

	statusCode int
}

func (r *metricsRecorder) WriteHeader(code int) {
	r.statusCode = code
	r.ResponseWriter.WriteHeader(code)
}

// resourcePrefixes are the collections whose element ids get collapsed
// to keep label cardinality bounded.
var resourcePrefixes = []string{
	"/api/v1/intents/",
	"/api/v1/transfers/",
	"/api/v1/accounts/",
	"/api/v1/mirror/transfers/",
	"/api/v1/mirror/accounts/",
}

// normalizePath collapses resource ids:
// /api/v1/intents/int_01ABC -> /api/v1/intents/:id
func normalizePath(path string) string {
	for _, prefix := range resourcePrefixes {
		if !strings.HasPrefix(path, prefix) || len(path) == len(prefix) {
			continue
		}

		rest := path[len(prefix):]
		if i := strings.IndexByte(rest, '/'); i >= 0 {
			return prefix + ":id" + rest[i:]
		}

		return prefix + ":id"
	}

	return path
}
