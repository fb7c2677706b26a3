package middleware

import (
	"context"
	"net/http"
	"strings"

	"auth-gateway/internal/token"
)

// unexported, collision-proof context key
type userIDContextKeyType struct{}

var userIDKey = userIDContextKeyType{}

// UserIDFromContext extracts the authenticated user ID from context.
func UserIDFromContext(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(userIDKey).(int64)
	return id, ok
}

type AuthMiddleware struct {
	Tokens *token.Service
}

func NewAuthMiddleware(tokens *token.Service) *AuthMiddleware {
	return &AuthMiddleware{Tokens: tokens}
}

func (a *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// 1. Read bearer token
		raw := bearerToken(r)
		if raw == "" {
			unauthorized(w)
			return
		}

		// 2. Validate token; every failure collapses to one verdict
		userID, err := a.Tokens.Validate(raw)
		if err != nil {
			unauthorized(w)
			return
		}

		// 3. Attach user_id to context
		ctx := context.WithValue(r.Context(), userIDKey, userID)

		// 4. Continue request
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}

	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return ""
	}

	return strings.TrimSpace(header[len(prefix):])
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"success":false,"message":"invalid or expired token"}`))
}
