package middleware

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sesbridge/sesbridge/internal/domain"
	"github.com/sesbridge/sesbridge/internal/domain/company"
	"github.com/sesbridge/sesbridge/internal/domain/user"
	"github.com/sesbridge/sesbridge/internal/service"
)

// Require returns middleware that runs the layered access decision for
// the given requirement. The decision order is fixed inside the
// authorization service; this wrapper only binds it to the HTTP request.
func Require(authz *service.AuthzService, req service.Requirement) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, _ := PrincipalFrom(r.Context())
			pathCompanyID := chi.URLParam(r, "companyID")

			if err := authz.Authorize(r.Context(), p, pathCompanyID, req); err != nil {
				writeAuthzError(w, err)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequireRole restricts access to principals with one of the given roles.
func RequireRole(authz *service.AuthzService, roles ...user.Role) func(http.Handler) http.Handler {
	return Require(authz, service.Requirement{AllowedRoles: roles})
}

// RequireCompanyScope restricts access to the company named in the URL.
func RequireCompanyScope(authz *service.AuthzService) func(http.Handler) http.Handler {
	return Require(authz, service.Requirement{TenantScope: true})
}

// RequireCompanyType restricts access to principals whose company is one
// of the given types.
func RequireCompanyType(authz *service.AuthzService, types ...company.Type) func(http.Handler) http.Handler {
	return Require(authz, service.Requirement{TenantTypes: types})
}

func writeAuthzError(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json")
	switch {
	case errors.Is(err, domain.ErrUnauthenticated):
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"authorization required"}`))
	case errors.Is(err, domain.ErrInsufficientRole),
		errors.Is(err, domain.ErrWrongTenant),
		errors.Is(err, domain.ErrWrongTenantType):
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error":"forbidden"}`))
	default:
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"internal error"}`))
	}
}
