package server

import (
	"context"
	"net/http"
	"time"
)

// responseRecorder captures the status and body size of a response.
type responseRecorder struct {
	http.ResponseWriter
	status int
	bytes  int64
}

func (w *responseRecorder) WriteHeader(status int) {
	if w.status == 0 {
		w.status = status
	}
	w.ResponseWriter.WriteHeader(status)
}

func (w *responseRecorder) Write(p []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	n, err := w.ResponseWriter.Write(p)
	w.bytes += int64(n)
	return n, err
}

func (w *responseRecorder) Status() int {
	if w.status == 0 {
		return http.StatusOK
	}
	return w.status
}

func (w *responseRecorder) Flush() {
	if flusher, ok := w.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

func (w *responseRecorder) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

// requestLogEntry collects fields filled in by inner handlers.
type requestLogEntry struct {
	userID string
}

type requestLogKey struct{}

func requestLogFromContext(ctx context.Context) *requestLogEntry {
	entry, _ := ctx.Value(requestLogKey{}).(*requestLogEntry)
	return entry
}

func (s *Server) withRequestLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/status" {
			next.ServeHTTP(w, r)
			return
		}

		start := time.Now()
		entry := &requestLogEntry{}
		rw := &responseRecorder{ResponseWriter: w}
		inner := r.WithContext(context.WithValue(r.Context(), requestLogKey{}, entry))
		next.ServeHTTP(rw, inner)

		fields := []any{
			"method", r.Method,
			"path", r.URL.Path,
			"status", rw.Status(),
			"bytes", rw.bytes,
			"duration_ms", time.Since(start).Milliseconds(),
			"remote_addr", r.RemoteAddr,
		}
		if inner.Pattern != "" {
			fields = append(fields, "route", inner.Pattern)
		}
		if entry.userID != "" {
			fields = append(fields, "user_id", entry.userID)
		}

		if rw.Status() >= 500 {
			s.log().Error("request complete", fields...)
			return
		}
		s.log().Debug("request complete", fields...)
	})
}
