package middleware

import (
	"net/http"
	"time"

	"github.com/dom/bracket-sync/internal/telemetry"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

// Metrics records the latency and status of every request, labelled by the
// matched route pattern so path parameters do not explode cardinality.
func Metrics(metrics *telemetry.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				// Hijacked connections (websocket) never write a status.
				status = http.StatusSwitchingProtocols
			}
			metrics.ObserveHTTPRequest(RoutePattern(r), r.Method, status, time.Since(start))
		})
	}
}

// RoutePattern returns the chi pattern that matched r, or "unmatched".
func RoutePattern(r *http.Request) string {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		return "unmatched"
	}
	if pattern := rctx.RoutePattern(); pattern != "" {
		return pattern
	}
	return "unmatched"
}
