package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	apperrors "github.com/aditya/go-carpool/internal/errors"
	"github.com/aditya/go-carpool/internal/models"
	"github.com/aditya/go-carpool/pkg/utils"
	"github.com/golang-jwt/jwt/v5"
	"github.com/newrelic/go-agent/v3/newrelic"
	"go.uber.org/zap"
)

type contextKey string

const (
	callerContextKey contextKey = "caller"
	callerSlotKey    contextKey = "caller_slot"
)

// callerSlot lets middleware running before authentication observe the
// caller once it has been resolved further down the chain.
type callerSlot struct {
	caller *models.Person
}

// CallerResolver maps a token subject to a stored person.
type CallerResolver interface {
	GetPersonByUsername(ctx context.Context, username string) (*models.Person, error)
}

type AuthMiddleware struct {
	secret   []byte
	resolver CallerResolver
	logger   *zap.Logger
}

func NewAuthMiddleware(secret string, resolver CallerResolver, logger *zap.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		secret:   []byte(secret),
		resolver: resolver,
		logger:   logger,
	}
}

// Handler rejects requests without a valid bearer token and stores the
// resolved caller in the request context.
func (am *AuthMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			utils.Error(w, apperrors.Unauthorized("missing or invalid Authorization header"))
			return
		}

		username, err := am.subject(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			utils.Error(w, apperrors.Unauthorized("invalid or expired token"))
			return
		}

		caller, err := am.resolver.GetPersonByUsername(r.Context(), username)
		if err != nil {
			am.logger.Error("failed to resolve caller", zap.String("username", username), zap.Error(err))
			utils.InternalError(w, "failed to resolve caller")
			return
		}
		if caller == nil {
			utils.Error(w, apperrors.Unauthorized("unknown caller"))
			return
		}

		newrelic.FromContext(r.Context()).AddAttribute("caller", caller.Username)
		next.ServeHTTP(w, r.WithContext(ContextWithCaller(r.Context(), caller)))
	})
}

func (am *AuthMiddleware) subject(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		return am.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", err
	}

	sub, err := token.Claims.GetSubject()
	if err != nil {
		return "", err
	}
	if sub == "" {
		return "", errors.New("token has no subject")
	}
	return sub, nil
}

// GenerateToken signs an HS256 token whose subject is the username.
func GenerateToken(secret, username string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   username,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

func ContextWithCaller(ctx context.Context, caller *models.Person) context.Context {
	if slot, ok := ctx.Value(callerSlotKey).(*callerSlot); ok {
		slot.caller = caller
	}
	return context.WithValue(ctx, callerContextKey, caller)
}

// CallerFromContext returns nil when the request was not authenticated.
func CallerFromContext(ctx context.Context) *models.Person {
	if caller, ok := ctx.Value(callerContextKey).(*models.Person); ok {
		return caller
	}
	if slot, ok := ctx.Value(callerSlotKey).(*callerSlot); ok {
		return slot.caller
	}
	return nil
}
