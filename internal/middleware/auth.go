package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/sesbridge/sesbridge/internal/domain/user"
	"github.com/sesbridge/sesbridge/internal/service"
)

type principalCtxKey struct{}

// publicPaths are exempt from authentication.
var publicPaths = map[string]bool{
	"/health":              true,
	"/health/ready":        true,
	"/api/v1/auth/login":   true,
	"/api/v1/auth/refresh": true,
}

// Auth returns middleware that resolves the caller's principal from the
// session token on every request. No identity is ever trusted across
// requests; each call is validated from scratch.
//
// Browser navigation requests without credentials are redirected to
// loginPath; API clients get a 401 JSON body.
func Auth(authSvc *service.AuthService, loginPath string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if publicPaths[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}

			// WebSocket clients cannot set headers; token rides the query.
			token := ""
			if r.URL.Path == "/ws" {
				token = r.URL.Query().Get("token")
			} else {
				authHeader := r.Header.Get("Authorization")
				if after, ok := strings.CutPrefix(authHeader, "Bearer "); ok {
					token = after
				}
			}
			if token == "" {
				denyUnauthenticated(w, r, loginPath)
				return
			}

			claims, err := authSvc.ValidateAccessToken(token)
			if err != nil {
				denyUnauthenticated(w, r, loginPath)
				return
			}

			ctx := context.WithValue(r.Context(), principalCtxKey{}, claims.Principal())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// PrincipalFrom returns the authenticated principal from the request
// context.
func PrincipalFrom(ctx context.Context) (*user.Principal, bool) {
	p, ok := ctx.Value(principalCtxKey{}).(*user.Principal)
	return p, ok
}

// WithPrincipal injects a principal into ctx. Exported for handler tests
// that bypass the Auth middleware.
func WithPrincipal(ctx context.Context, p *user.Principal) context.Context {
	return context.WithValue(ctx, principalCtxKey{}, p)
}

func denyUnauthenticated(w http.ResponseWriter, r *http.Request, loginPath string) {
	if wantsJSON(r) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"authorization required"}`))
		return
	}
	http.Redirect(w, r, loginPath, http.StatusSeeOther)
}

// wantsJSON reports whether the client expects a JSON error rather than
// a login redirect.
func wantsJSON(r *http.Request) bool {
	if strings.HasPrefix(r.URL.Path, "/api/") || r.URL.Path == "/ws" {
		return true
	}
	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		return true
	}
	return r.Header.Get("X-Requested-With") == "XMLHttpRequest"
}
