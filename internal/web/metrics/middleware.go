package metrics

import (
	"net/http"
	"time"

	"github.com/aussiebroadwan/launchpad/pkg/slogx"
)

// HTTPMiddleware records status and latency per route. It must wrap the
// ServeMux directly so the matched pattern is visible once the mux returns;
// unmatched requests are labelled "unmatched".
func HTTPMiddleware(rec Recorder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rw := &slogx.StatusRecorder{ResponseWriter: w}

			next.ServeHTTP(rw, r)

			route := r.Pattern
			if route == "" {
				route = "unmatched"
			}
			rec.RecordHTTP(r.Method, route, rw.Status(), time.Since(start))
		})
	}
}
