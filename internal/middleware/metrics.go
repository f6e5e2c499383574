package middleware

import (
	"net/http"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"

	"batchprofit/internal/infrastructure"
)

// HTTPMetrics records request count and latency per path. A nil metrics
// value disables recording.
func HTTPMetrics(metrics *infrastructure.PipelineMetrics) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if metrics == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			metrics.RecordHTTPRequest(r.Context(), r.URL.Path, ww.Status(), time.Since(start).Seconds())
		})
	}
}
