// Package middleware provides chi middleware for the stub backend
package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

type contextKey string

const userIDKey contextKey = "user_id"

// TokenVerifier checks a bearer token and returns the user it was issued to
type TokenVerifier interface {
	Verify(token, kind string) (userID int64, err error)
}

// Logger logs every request with its status and duration
func Logger(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			wrapped := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(wrapped, r)

			logger.Info("API Request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status_code", wrapped.Status()),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", r.Header.Get("X-Request-ID")),
			)
		})
	}
}

// Latency delays every request except health checks
func Latency(d time.Duration) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if d <= 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/health" {
				select {
				case <-time.After(d):
				case <-r.Context().Done():
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Authenticate rejects requests without a valid token of the given kind
func Authenticate(verifier TokenVerifier, kind string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, ok := bearerUser(r, verifier, kind)
			if !ok {
				WriteJSON(w, http.StatusUnauthorized, map[string]string{"error": "Authentication required"})
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userIDKey, userID)))
		})
	}
}

// OptionalAuth attaches the user when a valid token is present and lets
// anonymous requests through
func OptionalAuth(verifier TokenVerifier, kind string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if userID, ok := bearerUser(r, verifier, kind); ok {
				r = r.WithContext(context.WithValue(r.Context(), userIDKey, userID))
			}
			next.ServeHTTP(w, r)
		})
	}
}

func bearerUser(r *http.Request, verifier TokenVerifier, kind string) (int64, bool) {
	header := r.Header.Get("Authorization")
	token, found := strings.CutPrefix(header, "Bearer ")
	if !found || token == "" {
		return 0, false
	}
	userID, err := verifier.Verify(token, kind)
	if err != nil {
		return 0, false
	}
	return userID, true
}

// UserID returns the authenticated user from the request context
func UserID(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(userIDKey).(int64)
	return id, ok
}

// WriteJSON writes v as the response body
func WriteJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
