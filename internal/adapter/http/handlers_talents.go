package http

import (
	"net/http"

	"github.com/sesbridge/sesbridge/internal/domain/talent"
	"github.com/sesbridge/sesbridge/internal/service"
)

const maxUploadSize = 20 << 20 // 20 MB

// CreateTalent handles POST /api/v1/companies/{companyID}/talents
func (h *Handlers) CreateTalent(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[talent.CreateRequest](w, r)
	if !ok {
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	t, err := h.Talents.Create(r.Context(), urlParam(r, "companyID"), &req)
	if err != nil {
		writeDomainError(w, err, "could not create talent")
		return
	}
	writeJSON(w, http.StatusCreated, t)
}

// ListTalents handles GET /api/v1/companies/{companyID}/talents
func (h *Handlers) ListTalents(w http.ResponseWriter, r *http.Request) {
	talents, err := h.Talents.List(r.Context(), urlParam(r, "companyID"))
	if err != nil {
		writeDomainError(w, err, "could not list talents")
		return
	}
	if talents == nil {
		talents = []talent.Talent{}
	}
	writeJSON(w, http.StatusOK, talents)
}

// GetTalent handles GET /api/v1/companies/{companyID}/talents/{id}
func (h *Handlers) GetTalent(w http.ResponseWriter, r *http.Request) {
	t, err := h.Talents.Get(r.Context(), urlParam(r, "companyID"), urlParam(r, "id"))
	if err != nil {
		writeDomainError(w, err, "talent not found")
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// UpdateTalent handles PUT /api/v1/companies/{companyID}/talents/{id}
func (h *Handlers) UpdateTalent(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[talent.UpdateRequest](w, r)
	if !ok {
		return
	}

	t, err := h.Talents.Update(r.Context(), urlParam(r, "companyID"), urlParam(r, "id"), &req)
	if err != nil {
		writeDomainError(w, err, "talent not found")
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// DeleteTalent handles DELETE /api/v1/companies/{companyID}/talents/{id}
func (h *Handlers) DeleteTalent(w http.ResponseWriter, r *http.Request) {
	if err := h.Talents.Delete(r.Context(), urlParam(r, "companyID"), urlParam(r, "id")); err != nil {
		writeDomainError(w, err, "talent not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// UploadTalentDocument handles POST /api/v1/companies/{companyID}/talents/{id}/documents/{kind}
//
// Accepts a multipart form with a single "file" field. Office documents
// are converted to PDF when a converter is available; the original is
// kept as-is otherwise.
func (h *Handlers) UploadTalentDocument(w http.ResponseWriter, r *http.Request) {
	kind := service.DocumentKind(urlParam(r, "kind"))
	if kind != service.DocumentSkillSheet && kind != service.DocumentPortfolio {
		writeError(w, http.StatusBadRequest, "unknown document kind")
		return
	}

	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file field is required")
		return
	}
	defer file.Close()

	t, err := h.Talents.UploadDocument(r.Context(), urlParam(r, "companyID"), urlParam(r, "id"), kind, header.Filename, file)
	if err != nil {
		writeDomainError(w, err, "talent not found")
		return
	}
	writeJSON(w, http.StatusOK, t)
}
