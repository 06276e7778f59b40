package http

import (
	"net/http"
	"time"

	"github.com/fjod/storefront/internal/telemetry"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// AccessLog writes one structured line per request.
func AccessLog(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			defer func() {
				status := ww.Status()
				if status == 0 {
					status = http.StatusOK
				}
				requestLogger(r, logger).Info("http request",
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.Int("status", status),
					zap.Int("bytes", ww.BytesWritten()),
					zap.Duration("duration", time.Since(start)),
					zap.String("remote_addr", r.RemoteAddr))
			}()

			next.ServeHTTP(ww, r)
		})
	}
}

func requestLogger(r *http.Request, logger *zap.Logger) *zap.Logger {
	l := telemetry.WithTrace(r.Context(), logger)
	if id := middleware.GetReqID(r.Context()); id != "" {
		l = l.With(zap.String("request_id", id))
	}
	return l
}
