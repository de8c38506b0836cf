package middleware

import (
	"context"
	"net/http"
	"strings"

	"banking-service/internal/domain"
	"banking-service/pkg/jwtutil"
	"banking-service/pkg/response"
)

type contextKey string

const (
	ContextClaims    contextKey = "claims"
	ContextRequestID contextKey = "requestID"
)

type TokenVerifier interface {
	ParseAndValidate(token string) (*jwtutil.Claims, error)
}

// GetClaims returns the caller's claims set by RequireAuth.
func GetClaims(ctx context.Context) (domain.Claims, bool) {
	c, ok := ctx.Value(ContextClaims).(domain.Claims)
	return c, ok
}

func WithClaims(ctx context.Context, c domain.Claims) context.Context {
	return context.WithValue(ctx, ContextClaims, c)
}

func extractToken(r *http.Request) string {
	if authHeader := r.Header.Get("Authorization"); strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	}
	if cookie, err := r.Cookie("token"); err == nil {
		return cookie.Value
	}
	return ""
}

// RequireAuth verifies the bearer token and stores its claims on the request context.
func RequireAuth(v TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractToken(r)
			if token == "" {
				response.Error(w, http.StatusUnauthorized, "No token provided")
				return
			}

			claims, err := v.ParseAndValidate(token)
			if err != nil {
				response.Error(w, http.StatusUnauthorized, "Invalid or expired token")
				return
			}

			dc := domain.ClaimsFromMap(map[string]string{
				domain.ClaimRole:          claims.Role,
				domain.ClaimAccountNumber: claims.AccountNumber,
			})
			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), dc)))
		})
	}
}

// RequireRole rejects callers whose role is not one of roles. Use after RequireAuth.
func RequireRole(roles ...domain.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := GetClaims(r.Context())
			if !ok {
				response.Error(w, http.StatusUnauthorized, "Unauthorized")
				return
			}
			for _, role := range roles {
				if claims.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			response.Error(w, http.StatusForbidden, "Forbidden")
		})
	}
}
