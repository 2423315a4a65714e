package auth

import (
	"context"
	"net/http"
	"strings"
)

type contextKey string

const (
	IdentityIDKey contextKey = "identity_id"
	UsernameKey   contextKey = "username"
)

// JWTMiddleware authenticates requests with a Bearer token and places the
// caller's identity id and username on the request context.
func JWTMiddleware(jwtSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				writeError(w, http.StatusUnauthorized, "missing authorization header")
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
				writeError(w, http.StatusUnauthorized, "invalid authorization header")
				return
			}

			claims, err := ValidateToken(parts[1], jwtSecret)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "invalid or expired token")
				return
			}

			ctx := context.WithValue(r.Context(), IdentityIDKey, claims.IdentityID)
			ctx = context.WithValue(ctx, UsernameKey, claims.Username)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// IdentityFromContext returns the authenticated identity id, if any.
func IdentityFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(IdentityIDKey).(string)
	return id, ok
}
