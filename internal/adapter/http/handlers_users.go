package http

import (
	"net/http"

	"github.com/sesbridge/sesbridge/internal/domain/user"
	"github.com/sesbridge/sesbridge/internal/middleware"
)

// CreateUser handles POST /api/v1/companies/{companyID}/settings/users
func (h *Handlers) CreateUser(w http.ResponseWriter, r *http.Request) {
	p, ok := middleware.PrincipalFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	req, ok := readJSON[user.CreateRequest](w, r)
	if !ok {
		return
	}

	u, err := h.Users.Create(r.Context(), p, urlParam(r, "companyID"), &req)
	if err != nil {
		writeDomainError(w, err, "could not create user")
		return
	}
	writeJSON(w, http.StatusCreated, u)
}

// ListUsers handles GET /api/v1/companies/{companyID}/settings/users
func (h *Handlers) ListUsers(w http.ResponseWriter, r *http.Request) {
	p, ok := middleware.PrincipalFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	users, err := h.Users.List(r.Context(), p, urlParam(r, "companyID"))
	if err != nil {
		writeDomainError(w, err, "could not list users")
		return
	}
	if users == nil {
		users = []user.User{}
	}
	writeJSON(w, http.StatusOK, users)
}

// GetUser handles GET /api/v1/companies/{companyID}/settings/users/{id}
func (h *Handlers) GetUser(w http.ResponseWriter, r *http.Request) {
	p, ok := middleware.PrincipalFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	u, err := h.Users.Get(r.Context(), p, urlParam(r, "companyID"), urlParam(r, "id"))
	if err != nil {
		writeDomainError(w, err, "user not found")
		return
	}
	writeJSON(w, http.StatusOK, u)
}

// UpdateUser handles PUT /api/v1/companies/{companyID}/settings/users/{id}
func (h *Handlers) UpdateUser(w http.ResponseWriter, r *http.Request) {
	p, ok := middleware.PrincipalFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	req, ok := readJSON[user.UpdateRequest](w, r)
	if !ok {
		return
	}

	u, err := h.Users.Update(r.Context(), p, urlParam(r, "companyID"), urlParam(r, "id"), &req)
	if err != nil {
		writeDomainError(w, err, "user not found")
		return
	}
	writeJSON(w, http.StatusOK, u)
}

// DeleteUser handles DELETE /api/v1/companies/{companyID}/settings/users/{id}
func (h *Handlers) DeleteUser(w http.ResponseWriter, r *http.Request) {
	p, ok := middleware.PrincipalFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	if err := h.Users.Delete(r.Context(), p, urlParam(r, "companyID"), urlParam(r, "id")); err != nil {
		writeDomainError(w, err, "user not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
