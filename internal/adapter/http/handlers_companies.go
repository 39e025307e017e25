package http

import (
	"net/http"

	"github.com/sesbridge/sesbridge/internal/domain/company"
)

// CreateCompany handles POST /api/v1/companies
func (h *Handlers) CreateCompany(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[company.CreateRequest](w, r)
	if !ok {
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	c, err := h.Companies.Create(r.Context(), &req)
	if err != nil {
		writeDomainError(w, err, "could not create company")
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

// ListCompanies handles GET /api/v1/companies
func (h *Handlers) ListCompanies(w http.ResponseWriter, r *http.Request) {
	companies, err := h.Companies.List(r.Context())
	if err != nil {
		writeDomainError(w, err, "could not list companies")
		return
	}
	if companies == nil {
		companies = []company.Company{}
	}
	writeJSON(w, http.StatusOK, companies)
}

// GetCompany handles GET /api/v1/companies/{companyID}
func (h *Handlers) GetCompany(w http.ResponseWriter, r *http.Request) {
	c, err := h.Companies.Get(r.Context(), urlParam(r, "companyID"))
	if err != nil {
		writeDomainError(w, err, "company not found")
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// UpdateCompany handles PUT /api/v1/companies/{companyID}
func (h *Handlers) UpdateCompany(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[company.UpdateRequest](w, r)
	if !ok {
		return
	}

	c, err := h.Companies.Update(r.Context(), urlParam(r, "companyID"), &req)
	if err != nil {
		writeDomainError(w, err, "company not found")
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// DeleteCompany handles DELETE /api/v1/companies/{companyID}
func (h *Handlers) DeleteCompany(w http.ResponseWriter, r *http.Request) {
	if err := h.Companies.Delete(r.Context(), urlParam(r, "companyID")); err != nil {
		writeDomainError(w, err, "company not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
