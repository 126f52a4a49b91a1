package alarm

import (
	"net/http"

	"github.com/felixge/httpsnoop"
	"github.com/google/uuid"

	"github.com/oshokin/alarm-clock/internal/logger"
)

// RequestIDHeader carries the request id; an incoming value is reused.
const RequestIDHeader = "X-Request-Id"

// requestLogger tags the request context with a request id and logs the
// outcome of every request.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}

		w.Header().Set(RequestIDHeader, id)

		ctx := logger.WithKV(r.Context(), "request_id", id)
		m := httpsnoop.CaptureMetrics(next, w, r.WithContext(ctx))

		logger.InfoKV(ctx, "Handled request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", m.Code,
			"bytes", m.Written,
			"duration", m.Duration,
		)
	})
}
