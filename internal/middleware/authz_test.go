package middleware_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/sesbridge/sesbridge/internal/adapter/memory"
	"github.com/sesbridge/sesbridge/internal/domain/company"
	"github.com/sesbridge/sesbridge/internal/domain/user"
	"github.com/sesbridge/sesbridge/internal/middleware"
	"github.com/sesbridge/sesbridge/internal/service"
)

func newAuthzFixture(t *testing.T) (*service.AuthzService, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	companies := service.NewCompanyService(store, nil, nil)
	return service.NewAuthzService(companies, nil), store
}

func seedTestCompany(t *testing.T, store *memory.Store, typ company.Type) *company.Company {
	t.Helper()
	now := time.Now()
	c := &company.Company{
		ID:        uuid.NewString(),
		Name:      string(typ) + "-" + uuid.NewString(),
		Type:      typ,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := store.CreateCompany(context.Background(), c); err != nil {
		t.Fatalf("seed company: %v", err)
	}
	return c
}

// serve mounts the guard on a chi route so URL parameters resolve.
func serve(guard func(http.Handler) http.Handler, p *user.Principal, target string) *httptest.ResponseRecorder {
	r := chi.NewRouter()
	r.With(guard).Get("/companies/{companyID}/users", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r.With(guard).Get("/plain", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, target, http.NoBody)
	if p != nil {
		req = req.WithContext(middleware.WithPrincipal(req.Context(), p))
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestRequire_Unauthenticated(t *testing.T) {
	authz, _ := newAuthzFixture(t)
	guard := middleware.Require(authz, service.Requirement{})

	rec := serve(guard, nil, "/plain")
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestRequireRole(t *testing.T) {
	authz, _ := newAuthzFixture(t)
	guard := middleware.RequireRole(authz, user.RoleAdmin, user.RoleManager)

	member := &user.Principal{UserID: "u1", CompanyID: "c1", Role: user.RoleMember}
	if rec := serve(guard, member, "/plain"); rec.Code != http.StatusForbidden {
		t.Errorf("member status = %d, want 403", rec.Code)
	}

	admin := &user.Principal{UserID: "u2", CompanyID: "c1", Role: user.RoleAdmin}
	if rec := serve(guard, admin, "/plain"); rec.Code != http.StatusOK {
		t.Errorf("admin status = %d, want 200", rec.Code)
	}
}

func TestRequireCompanyScope(t *testing.T) {
	authz, _ := newAuthzFixture(t)
	guard := middleware.RequireCompanyScope(authz)

	p := &user.Principal{UserID: "u1", CompanyID: "c1", Role: user.RoleAdmin}
	if rec := serve(guard, p, "/companies/c1/users"); rec.Code != http.StatusOK {
		t.Errorf("own company status = %d, want 200", rec.Code)
	}
	if rec := serve(guard, p, "/companies/c2/users"); rec.Code != http.StatusForbidden {
		t.Errorf("other company status = %d, want 403", rec.Code)
	}
}

func TestRequireCompanyType(t *testing.T) {
	authz, store := newAuthzFixture(t)
	ses := seedTestCompany(t, store, company.TypeSES)
	end := seedTestCompany(t, store, company.TypeEnd)
	guard := middleware.RequireCompanyType(authz, company.TypeSES)

	sesP := &user.Principal{UserID: "u1", CompanyID: ses.ID, Role: user.RoleMember}
	if rec := serve(guard, sesP, "/plain"); rec.Code != http.StatusOK {
		t.Errorf("ses status = %d, want 200", rec.Code)
	}

	endP := &user.Principal{UserID: "u2", CompanyID: end.ID, Role: user.RoleMember}
	if rec := serve(guard, endP, "/plain"); rec.Code != http.StatusForbidden {
		t.Errorf("end status = %d, want 403", rec.Code)
	}
}

// Stacked guards report the first failing layer's status: an
// unauthenticated caller on a fully guarded route sees 401, not 403.
func TestRequire_LayerOrderOverHTTP(t *testing.T) {
	authz, store := newAuthzFixture(t)
	ses := seedTestCompany(t, store, company.TypeSES)

	guard := middleware.Require(authz, service.Requirement{
		AllowedRoles: []user.Role{user.RoleAdmin},
		TenantScope:  true,
		TenantTypes:  []company.Type{company.TypeEnd},
	})

	if rec := serve(guard, nil, "/companies/"+ses.ID+"/users"); rec.Code != http.StatusUnauthorized {
		t.Errorf("unauthenticated status = %d, want 401", rec.Code)
	}

	p := &user.Principal{UserID: "u1", CompanyID: ses.ID, Role: user.RoleAdmin}
	if rec := serve(guard, p, "/companies/"+ses.ID+"/users"); rec.Code != http.StatusForbidden {
		t.Errorf("wrong type status = %d, want 403", rec.Code)
	}
}
