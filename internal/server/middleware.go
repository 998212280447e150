package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/race-edge/internal/metrics"
)

// requestLogger logs every request and counts it by route pattern
func requestLogger(log *logrus.Entry) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}

			route := r.URL.Path
			if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
				route = rctx.RoutePattern()
			}
			metrics.RecordHTTPRequest(route, status)

			entry := log.WithFields(logrus.Fields{
				"method":      r.Method,
				"route":       route,
				"status":      status,
				"duration_ms": float64(time.Since(start).Microseconds()) / 1000.0,
				"request_id":  middleware.GetReqID(r.Context()),
				"remote_addr": r.RemoteAddr,
			})
			if status >= http.StatusInternalServerError {
				entry.Warn("HTTP request failed")
			} else {
				entry.Debug("HTTP request")
			}
		})
	}
}
