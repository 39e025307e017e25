package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sesbridge/sesbridge/internal/domain/company"
	"github.com/sesbridge/sesbridge/internal/domain/user"
	"github.com/sesbridge/sesbridge/internal/middleware"
)

// MountRoutes registers all API routes on the given chi router.
//
// Guard composition is explicit per route group: company-scoped settings
// routes stack the tenant-scope check and a role check, resource routes
// additionally pin the company type that may own the resource.
func MountRoutes(r chi.Router, h *Handlers) {
	r.Get("/health", h.Health)
	r.Get("/health/ready", h.Readiness)

	r.Route("/api/v1", func(r chi.Router) {
		// Auth (login/refresh are public, exempted by the auth middleware)
		r.Post("/auth/login", h.Login)
		r.Post("/auth/refresh", h.Refresh)
		r.Post("/auth/logout", h.Logout)
		r.Get("/auth/me", h.Me)

		// Company onboarding and enumeration are admin-only; ordinary
		// members never see tenants other than their own counterparts.
		// First-company bootstrap goes through the admin CLI.
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(h.Authz, user.RoleAdmin))
			r.Get("/companies", h.ListCompanies)
			r.Post("/companies", h.CreateCompany)
		})

		r.Route("/companies/{companyID}", func(r chi.Router) {
			r.Get("/", h.GetCompany)

			// Company self-administration
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireCompanyScope(h.Authz))
				r.Use(middleware.RequireRole(h.Authz, user.RoleAdmin))
				r.Put("/", h.UpdateCompany)
				r.Delete("/", h.DeleteCompany)
			})

			// Member accounts, admin and manager only. The role hierarchy
			// guard inside the service decides per-target permissions.
			r.Route("/settings/users", func(r chi.Router) {
				r.Use(middleware.RequireCompanyScope(h.Authz))
				r.Use(middleware.RequireRole(h.Authz, user.RoleAdmin, user.RoleManager))
				r.Get("/", h.ListUsers)
				r.Post("/", h.CreateUser)
				r.Get("/{id}", h.GetUser)
				r.Put("/{id}", h.UpdateUser)
				r.Delete("/{id}", h.DeleteUser)
			})

			// Talents are owned by provider companies only.
			r.Route("/talents", func(r chi.Router) {
				r.Use(middleware.RequireCompanyScope(h.Authz))
				r.Use(middleware.RequireCompanyType(h.Authz, company.TypeSES))
				r.Get("/", h.ListTalents)
				r.Post("/", h.CreateTalent)
				r.Get("/{id}", h.GetTalent)
				r.Put("/{id}", h.UpdateTalent)
				r.Delete("/{id}", h.DeleteTalent)
				r.Post("/{id}/documents/{kind}", h.UploadTalentDocument)
			})

			// Opportunities are owned by client companies only.
			r.Route("/opportunities", func(r chi.Router) {
				r.Use(middleware.RequireCompanyScope(h.Authz))
				r.Use(middleware.RequireCompanyType(h.Authz, company.TypeEnd))
				r.Get("/", h.ListOpportunities)
				r.Post("/", h.CreateOpportunity)
				r.Put("/{id}", h.UpdateOpportunity)
				r.Delete("/{id}", h.DeleteOpportunity)
			})
		})

		// Cross-company opportunity browsing.
		r.Get("/opportunities/{id}", h.GetOpportunity)

		// Request workflow. Creation is pinned to the company type that
		// sits on the sending side of each kind; members may read but
		// only admins and managers act on the workflow.
		r.Route("/requests", func(r chi.Router) {
			r.Get("/inbox", h.ListInbox)
			r.Get("/sent", h.ListSent)
			r.Get("/{id}", h.GetRequest)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(h.Authz, user.RoleAdmin, user.RoleManager))
				r.With(middleware.RequireCompanyType(h.Authz, company.TypeEnd)).
					Post("/talent", h.CreateTalentRequest)
				r.With(middleware.RequireCompanyType(h.Authz, company.TypeSES)).
					Post("/opportunity", h.CreateOpportunityRequest)
				r.Patch("/{id}", h.UpdateRequest)
				r.Post("/{id}/withdraw", h.WithdrawRequest)
				r.Post("/{id}/respond", h.RespondRequest)
			})
		})
	})

	// Live inbox events, one stream per authenticated company.
	if h.Hub != nil {
		r.Get("/ws", h.Hub.HandleWS)
	}

	// Uploaded documents. Served behind authentication; references are
	// unguessable UUID names.
	if h.UploadsDir != "" {
		files := http.StripPrefix("/uploads/", http.FileServer(http.Dir(h.UploadsDir)))
		r.Get("/uploads/*", files.ServeHTTP)
	}
}

// Health handles GET /health
func (h *Handlers) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Readiness handles GET /health/ready
func (h *Handlers) Readiness(w http.ResponseWriter, r *http.Request) {
	if h.Ready != nil {
		if err := h.Ready(r.Context()); err != nil {
			writeError(w, http.StatusServiceUnavailable, "not ready")
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
