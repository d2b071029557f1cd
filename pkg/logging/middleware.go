package logging

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// RequestIDMiddleware tags every request with an ID, propagates it
// through the context, and logs the request/response pair. Hits on the
// embedded status page are logged at debug so they do not drown the API
// log while it is open in a browser.
func RequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		ctx := WithRequestID(r.Context(), requestID)
		w.Header().Set("X-Request-ID", requestID)

		wrapped := &responseWriter{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(wrapped, r.WithContext(ctx))
		elapsed := time.Since(start)

		attrs := []any{
			"method", r.Method,
			"path", r.URL.Path,
			"status", wrapped.status,
			"durationMs", elapsed.Milliseconds(),
		}
		switch {
		case wrapped.status >= 400:
			ErrorContext(ctx, "request failed", attrs...)
		case strings.HasPrefix(r.URL.Path, "/api/"):
			InfoContext(ctx, "request completed", attrs...)
		default:
			DebugContext(ctx, "static asset served", attrs...)
		}
	})
}

// responseWriter captures the status code for the completion log. A
// second WriteHeader is swallowed so a handler that errors mid-stream
// cannot corrupt the recorded status.
type responseWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (rw *responseWriter) WriteHeader(code int) {
	if rw.wroteHeader {
		return
	}
	rw.wroteHeader = true
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

// Flush keeps the event stream flushable through the wrapper.
func (rw *responseWriter) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}
