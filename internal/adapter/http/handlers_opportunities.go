package http

import (
	"net/http"

	"github.com/sesbridge/sesbridge/internal/domain/opportunity"
)

// CreateOpportunity handles POST /api/v1/companies/{companyID}/opportunities
func (h *Handlers) CreateOpportunity(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[opportunity.CreateRequest](w, r)
	if !ok {
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	o, err := h.Opportunities.Create(r.Context(), urlParam(r, "companyID"), &req)
	if err != nil {
		writeDomainError(w, err, "could not create opportunity")
		return
	}
	writeJSON(w, http.StatusCreated, o)
}

// ListOpportunities handles GET /api/v1/companies/{companyID}/opportunities
func (h *Handlers) ListOpportunities(w http.ResponseWriter, r *http.Request) {
	opps, err := h.Opportunities.List(r.Context(), urlParam(r, "companyID"))
	if err != nil {
		writeDomainError(w, err, "could not list opportunities")
		return
	}
	if opps == nil {
		opps = []opportunity.Opportunity{}
	}
	writeJSON(w, http.StatusOK, opps)
}

// GetOpportunity handles GET /api/v1/opportunities/{id}
//
// Opportunities are browsable across companies so providers can find
// openings to respond to.
func (h *Handlers) GetOpportunity(w http.ResponseWriter, r *http.Request) {
	o, err := h.Opportunities.Get(r.Context(), urlParam(r, "id"))
	if err != nil {
		writeDomainError(w, err, "opportunity not found")
		return
	}
	writeJSON(w, http.StatusOK, o)
}

// UpdateOpportunity handles PUT /api/v1/companies/{companyID}/opportunities/{id}
func (h *Handlers) UpdateOpportunity(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[opportunity.UpdateRequest](w, r)
	if !ok {
		return
	}

	o, err := h.Opportunities.Update(r.Context(), urlParam(r, "companyID"), urlParam(r, "id"), &req)
	if err != nil {
		writeDomainError(w, err, "opportunity not found")
		return
	}
	writeJSON(w, http.StatusOK, o)
}

// DeleteOpportunity handles DELETE /api/v1/companies/{companyID}/opportunities/{id}
func (h *Handlers) DeleteOpportunity(w http.ResponseWriter, r *http.Request) {
	if err := h.Opportunities.Delete(r.Context(), urlParam(r, "companyID"), urlParam(r, "id")); err != nil {
		writeDomainError(w, err, "opportunity not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
