package rest

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/dmitrijs2005/gophfiles/internal/logging"
	"github.com/dmitrijs2005/gophfiles/internal/server/models"
	"github.com/google/uuid"
)

const requestIDHeader = "X-Request-ID"

var knownRoutes = map[string]struct{}{
	"/createFile": {},
	"/updateFile": {},
	"/deleteFile": {},
	"/getFiles":   {},
	"/getFile":    {},
	"/metrics":    {},
}

// routeLabel keeps metric cardinality bounded for arbitrary paths.
func routeLabel(path string) string {
	if _, ok := knownRoutes[path]; ok {
		return path
	}
	return "other"
}

// responseRecorder captures the status code and bytes written so they can
// be included in the access log line.
type responseRecorder struct {
	http.ResponseWriter
	status  int
	written int64
}

func (r *responseRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *responseRecorder) Write(b []byte) (int, error) {
	n, err := r.ResponseWriter.Write(b)
	r.written += int64(n)
	return n, err
}

// logRequests appends every inbound request to the request log before it
// is handled, then writes one access log line and records metrics. A failed
// append is reported but never fails the request.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := uuid.NewString()
		ctx := r.Context()

		entry := &models.LogEntry{
			Timestamp:  start.UTC(),
			Method:     r.Method,
			URL:        r.URL.RequestURI(),
			RequestID:  requestID,
			RemoteAddr: r.RemoteAddr,
		}
		if err := s.requestLog.Append(ctx, entry); err != nil {
			s.metrics.RequestLogFailed()
			s.logger.Error(ctx, "request log append failed", "request_id", requestID, "error", err)
		}

		w.Header().Set(requestIDHeader, requestID)
		rec := &responseRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		elapsed := time.Since(start)
		s.metrics.ObserveRequest(routeLabel(r.URL.Path), r.Method, rec.status, elapsed)
		s.logger.Info(ctx, "http",
			"request_id", requestID,
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration_ms", elapsed.Milliseconds(),
			"response_bytes", rec.written,
			"remote_addr", r.RemoteAddr,
		)
	})
}

// recoveryLogger adapts logging.Logger to handlers.RecoveryHandlerLogger.
type recoveryLogger struct {
	log logging.Logger
}

func (l recoveryLogger) Println(v ...interface{}) {
	l.log.Error(context.Background(), "handler panic", "panic", fmt.Sprint(v...))
}
