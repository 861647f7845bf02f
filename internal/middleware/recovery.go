package middleware

import (
	"net/http"

	"github.com/aditya/go-carpool/internal/models"
	"github.com/aditya/go-carpool/pkg/utils"
	"go.uber.org/zap"
)

// Recovery turns a panic into a 500 carrying an ERROR envelope.
func Recovery(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					if err == http.ErrAbortHandler {
						panic(err)
					}
					logger.Error("panic recovered",
						zap.Any("panic", err),
						zap.String("method", r.Method),
						zap.String("path", r.URL.Path),
						zap.Stack("stack"),
					)
					utils.JSON(w, http.StatusInternalServerError, models.ErrorResponse("an unexpected error occurred"))
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
