package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/telemetryhq/fleethub/pkg/httpx"
)

type contextKey struct{}

// Identity is the authenticated caller attached to the request context.
type Identity struct {
	UserID    string
	TenantID  string
	Authority string
	Email     string
}

// IdentityFrom returns the caller identity, or nil for unauthenticated
// requests.
func IdentityFrom(ctx context.Context) *Identity {
	id, _ := ctx.Value(contextKey{}).(*Identity)
	return id
}

// WithIdentity attaches an identity to ctx.
func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

// Middleware validates the Bearer token and attaches the caller identity.
func Middleware(tokens *TokenProvider) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			const prefix = "Bearer "
			if !strings.HasPrefix(header, prefix) {
				httpx.RespondErrorString(w, http.StatusUnauthorized, "missing bearer token")
				return
			}

			claims, err := tokens.Validate(strings.TrimPrefix(header, prefix))
			if err != nil {
				httpx.RespondErrorString(w, http.StatusUnauthorized, "invalid token")
				return
			}

			identity := &Identity{
				UserID:    claims.Subject,
				TenantID:  claims.TenantID,
				Authority: claims.Authority,
				Email:     claims.Email,
			}
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
		})
	}
}

// RequireAuthority rejects callers whose authority does not match.
func RequireAuthority(authority string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := IdentityFrom(r.Context())
			if id == nil {
				httpx.RespondErrorString(w, http.StatusUnauthorized, "missing bearer token")
				return
			}
			if id.Authority != authority {
				httpx.RespondErrorString(w, http.StatusForbidden, "insufficient permissions")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
