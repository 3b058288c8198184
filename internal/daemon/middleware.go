package daemon

import (
	"net/http"
	"strings"
	"time"
)

// authMiddleware validates bearer tokens. An empty token disables
// authentication and all requests pass through.
func authMiddleware(token string, next http.Handler) http.Handler {
	if token == "" {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")
		if !strings.HasPrefix(auth, "Bearer ") || strings.TrimPrefix(auth, "Bearer ") != token {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"code":"unauthorized","message":"missing or invalid bearer token"}`))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// statusRecorder captures the response status for metrics. Streaming
// handlers also need the flusher, so it forwards Flush when available.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// metricsMiddleware records request duration and status into the rolling
// window. Event streams are excluded; their lifetime is the client's
// attention span, not a latency.
func (s *apiServer) metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.daemon.metrics == nil || r.URL.Path == "/api/events" {
			next.ServeHTTP(w, r)
			return
		}
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r)
		s.daemon.metrics.Record(time.Since(start), rec.status)
	})
}
