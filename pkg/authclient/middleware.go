package authclient

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/BigRedEye/dc-hw/pkg/logger"
	"github.com/BigRedEye/dc-hw/pkg/role"
)

type contextKeyType string

const (
	userIDKey contextKeyType = "user_id"
	roleKey   contextKeyType = "role"
)

// Require returns middleware that guards routes behind a minimum role.
// Each request makes one blocking Validate call; there is no caching,
// so a revoked session is rejected on its very next request. Transport
// failures fail closed with 503.
func Require(authz Authorizer, min role.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				writeAuthError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing or malformed authorization header")
				return
			}

			verdict, err := authz.Validate(r.Context(), token)
			if err != nil {
				writeAuthError(w, http.StatusServiceUnavailable, "AUTH_UNAVAILABLE", "authorization service unavailable")
				return
			}
			if !verdict.Valid {
				writeAuthError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid or expired token")
				return
			}
			if !verdict.Role.AtLeast(min) {
				writeAuthError(w, http.StatusUnauthorized, "UNAUTHORIZED", "insufficient permissions")
				return
			}

			ctx := context.WithValue(r.Context(), userIDKey, verdict.UserID)
			ctx = context.WithValue(ctx, roleKey, verdict.Role)
			ctx = logger.WithUserID(ctx, verdict.UserID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// bearerToken extracts the token from an "Authorization: Bearer <token>" header.
func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

// UserIDFromContext extracts the authenticated user ID from the request context.
func UserIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(userIDKey).(string); ok {
		return id
	}
	return ""
}

// RoleFromContext extracts the authenticated role from the request context.
func RoleFromContext(ctx context.Context) role.Role {
	if r, ok := ctx.Value(roleKey).(role.Role); ok {
		return r
	}
	return role.User
}

func writeAuthError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]string{"code": code, "message": message},
	})
}
