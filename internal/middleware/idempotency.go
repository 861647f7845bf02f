package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	apperrors "github.com/aditya/go-carpool/internal/errors"
	"github.com/aditya/go-carpool/internal/models"
	"github.com/aditya/go-carpool/pkg/utils"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	IdempotencyHeader = "Idempotency-Key"
	idempotencyTTL    = 24 * time.Hour
	idempotencyPrefix = "idempotency:"
	idempotencyLock   = 30 * time.Second
)

// IdempotencyMiddleware replays the stored response of a repeated
// state-changing request. Keys are scoped to the caller, so it must run after
// authentication.
type IdempotencyMiddleware struct {
	redis  redis.Cmdable
	logger *zap.Logger
}

type cachedResponse struct {
	StatusCode int               `json:"status_code"`
	Headers    map[string]string `json:"headers"`
	Body       []byte            `json:"body"`
	BodyHash   string            `json:"body_hash"`
}

func NewIdempotencyMiddleware(redisClient redis.Cmdable, logger *zap.Logger) *IdempotencyMiddleware {
	return &IdempotencyMiddleware{redis: redisClient, logger: logger}
}

// responseWriter captures the response for caching
type responseWriter struct {
	http.ResponseWriter
	statusCode int
	body       bytes.Buffer
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	rw.body.Write(b)
	return rw.ResponseWriter.Write(b)
}

func (m *IdempotencyMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost && r.Method != http.MethodPut && r.Method != http.MethodPatch {
			next.ServeHTTP(w, r)
			return
		}

		idempotencyKey := r.Header.Get(IdempotencyHeader)
		if idempotencyKey == "" {
			next.ServeHTTP(w, r)
			return
		}

		bodyBytes, err := io.ReadAll(r.Body)
		if err != nil {
			utils.BadRequest(w, "failed to read request body")
			return
		}
		r.Body = io.NopCloser(bytes.NewBuffer(bodyBytes))

		bodyHash := hashRequest(r.Method, r.URL.Path, bodyBytes)
		cacheKey := idempotencyPrefix + clientKey(r) + ":" + idempotencyKey
		ctx := r.Context()

		cached, err := m.getCachedResponse(ctx, cacheKey)
		switch {
		case err == nil:
			if cached.BodyHash != bodyHash {
				utils.Error(w, apperrors.IdempotencyConflict())
				return
			}
			for k, v := range cached.Headers {
				w.Header().Set(k, v)
			}
			w.Header().Set("Idempotent-Replay", "true")
			w.WriteHeader(cached.StatusCode)
			w.Write(cached.Body)
			return
		case !errors.Is(err, redis.Nil):
			m.logger.Warn("idempotency store unavailable", zap.Error(err))
			next.ServeHTTP(w, r)
			return
		}

		lockKey := cacheKey + ":lock"
		locked, err := m.redis.SetNX(ctx, lockKey, "1", idempotencyLock).Result()
		if err != nil {
			m.logger.Warn("idempotency lock unavailable", zap.Error(err))
			next.ServeHTTP(w, r)
			return
		}
		if !locked {
			utils.Error(w, apperrors.RequestInProgress())
			return
		}
		defer m.redis.Del(context.WithoutCancel(ctx), lockKey)

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)

		// Only positive envelopes are replayed.
		if rw.statusCode == http.StatusOK && rw.Header().Get(utils.EnvelopeStatusHeader) == models.StatusPositive.String() {
			cached := cachedResponse{
				StatusCode: rw.statusCode,
				Headers: map[string]string{
					"Content-Type":             rw.Header().Get("Content-Type"),
					utils.EnvelopeStatusHeader: rw.Header().Get(utils.EnvelopeStatusHeader),
				},
				Body:     rw.body.Bytes(),
				BodyHash: bodyHash,
			}

			data, err := json.Marshal(cached)
			if err != nil {
				m.logger.Warn("failed to encode idempotent response", zap.Error(err))
				return
			}
			if err := m.redis.Set(context.WithoutCancel(ctx), cacheKey, data, idempotencyTTL).Err(); err != nil {
				m.logger.Warn("failed to store idempotent response", zap.Error(err))
			}
		}
	})
}

func (m *IdempotencyMiddleware) getCachedResponse(ctx context.Context, key string) (*cachedResponse, error) {
	data, err := m.redis.Get(ctx, key).Bytes()
	if err != nil {
		return nil, err
	}

	var cached cachedResponse
	if err := json.Unmarshal(data, &cached); err != nil {
		return nil, err
	}

	return &cached, nil
}

func hashRequest(method, path string, body []byte) string {
	h := sha256.New()
	h.Write([]byte(method + " " + path + "\n"))
	h.Write(body)
	return hex.EncodeToString(h.Sum(nil))
}
