package middleware

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/aditya/go-carpool/internal/observability"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// Logger logs every request once it completes and records HTTP metrics
// labelled by route pattern.
func Logger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			r = r.WithContext(context.WithValue(r.Context(), callerSlotKey, &callerSlot{}))

			defer func() {
				elapsed := time.Since(start)
				route := routePattern(r)
				status := ww.Status()
				if status == 0 {
					status = http.StatusOK
				}

				fields := []zap.Field{
					zap.String("method", r.Method),
					zap.String("route", route),
					zap.String("path", r.URL.Path),
					zap.Int("status", status),
					zap.Duration("duration", elapsed),
					zap.String("remote_addr", r.RemoteAddr),
				}
				if caller := CallerFromContext(r.Context()); caller != nil {
					fields = append(fields, zap.String("caller", caller.Username))
				}
				logger.Info("request completed", fields...)

				code := strconv.Itoa(status)
				observability.HTTPRequestsTotal.WithLabelValues(r.Method, route, code).Inc()
				observability.HTTPRequestDuration.WithLabelValues(r.Method, route, code).Observe(elapsed.Seconds())
			}()

			next.ServeHTTP(ww, r)
		})
	}
}

func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unmatched"
}
