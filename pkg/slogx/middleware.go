package slogx

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/aussiebroadwan/launchpad/pkg/idx"
)

// RequestIDHeader is read from inbound requests and echoed on responses.
const RequestIDHeader = "X-Request-ID"

// HTTPMiddleware logs one line per request and puts a request scoped logger
// into the context. Paths listed in quiet are served but only logged at
// debug level, which keeps probe traffic out of the default log stream.
func HTTPMiddleware(base *slog.Logger, quiet ...string) func(http.Handler) http.Handler {
	skip := make(map[string]struct{}, len(quiet))
	for _, p := range quiet {
		skip[p] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			reqID := r.Header.Get(RequestIDHeader)
			if reqID == "" || len(reqID) > 128 {
				reqID = idx.New().String()
			}
			w.Header().Set(RequestIDHeader, reqID)

			logger := base.With(
				"method", r.Method,
				"path", r.URL.Path,
				"remote_addr", r.RemoteAddr,
			)
			ctx := WithRequestID(WithContext(r.Context(), logger), reqID)
			logger = FromContext(ctx)

			rw := &StatusRecorder{ResponseWriter: w}
			next.ServeHTTP(rw, r.WithContext(ctx))

			level := slog.LevelInfo
			switch status := rw.Status(); {
			case status >= 500:
				level = slog.LevelError
			case status >= 400:
				level = slog.LevelWarn
			}
			if _, ok := skip[r.URL.Path]; ok && level == slog.LevelInfo {
				level = slog.LevelDebug
			}

			logger.Log(ctx, level, "http_request",
				"status", rw.Status(),
				"bytes", rw.Bytes(),
				"duration_ms", time.Since(start).Milliseconds(),
				"user_agent", r.UserAgent(),
			)
		})
	}
}

// StatusRecorder remembers the status code and body size written through it.
type StatusRecorder struct {
	http.ResponseWriter

	status int
	bytes  int
}

func (rw *StatusRecorder) WriteHeader(code int) {
	if rw.status == 0 {
		rw.status = code
	}
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *StatusRecorder) Write(b []byte) (int, error) {
	if rw.status == 0 {
		rw.status = http.StatusOK
	}
	n, err := rw.ResponseWriter.Write(b)
	rw.bytes += n
	return n, err
}

// Status is the written status, or 200 if the handler never wrote one.
func (rw *StatusRecorder) Status() int {
	if rw.status == 0 {
		return http.StatusOK
	}
	return rw.status
}

func (rw *StatusRecorder) Bytes() int { return rw.bytes }

// Unwrap lets http.ResponseController reach the underlying writer.
func (rw *StatusRecorder) Unwrap() http.ResponseWriter { return rw.ResponseWriter }
