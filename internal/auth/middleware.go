// Package auth provides request authentication for the API. Tokens are
// issued elsewhere; this service only verifies them and gates routes by role.
package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/karobar-labs/karobar-backend/internal/auth/jwt"
	"github.com/karobar-labs/karobar-backend/pkg/errors"
	"github.com/karobar-labs/karobar-backend/pkg/httputil"
)

type contextKey string

const claimsKey contextKey = "auth_claims"

// Middleware validates the Authorization header and stores the claims in
// the request context.
func Middleware(manager *jwt.Manager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				httputil.Error(w, errors.Unauthorized("missing authorization header"))
				return
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				httputil.Error(w, errors.Unauthorized("invalid authorization header format"))
				return
			}

			claims, err := manager.Validate(parts[1])
			if err != nil {
				httputil.Error(w, err)
				return
			}

			ctx := context.WithValue(r.Context(), claimsKey, claims)
			ctx = httputil.WithUserContext(ctx, claims.UserID, claims.Role)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole rejects requests whose token role is not in the allowed set.
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	allowed := make(map[string]struct{}, len(roles))
	for _, role := range roles {
		allowed[role] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims := ClaimsFromContext(r.Context())
			if claims == nil {
				httputil.Error(w, errors.Unauthorized("authentication required"))
				return
			}

			if _, ok := allowed[claims.Role]; !ok {
				httputil.Error(w, errors.Forbidden("insufficient role"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// ClaimsFromContext retrieves validated claims from the request context.
// Returns nil when the request was not authenticated.
func ClaimsFromContext(ctx context.Context) *jwt.Claims {
	if claims, ok := ctx.Value(claimsKey).(*jwt.Claims); ok {
		return claims
	}
	return nil
}

// WithClaims stores claims in a context. Test helper.
func WithClaims(ctx context.Context, claims *jwt.Claims) context.Context {
	return context.WithValue(ctx, claimsKey, claims)
}

// OwnerID returns the owner scope of the authenticated request. For owner
// tokens this is the user ID itself when no explicit owner_id claim is set.
func OwnerID(ctx context.Context) string {
	claims := ClaimsFromContext(ctx)
	if claims == nil {
		return ""
	}
	if claims.OwnerID != "" {
		return claims.OwnerID
	}
	if claims.Role == jwt.RoleOwner {
		return claims.UserID
	}
	return ""
}
