package http

import (
	"context"
	"net/http"

	"github.com/sesbridge/sesbridge/internal/domain/page"
	"github.com/sesbridge/sesbridge/internal/domain/request"
	"github.com/sesbridge/sesbridge/internal/domain/user"
	"github.com/sesbridge/sesbridge/internal/middleware"
	"github.com/sesbridge/sesbridge/internal/service"
)

// CreateTalentRequest handles POST /api/v1/requests/talent
func (h *Handlers) CreateTalentRequest(w http.ResponseWriter, r *http.Request) {
	h.createRequest(w, r, request.KindTalent)
}

// CreateOpportunityRequest handles POST /api/v1/requests/opportunity
func (h *Handlers) CreateOpportunityRequest(w http.ResponseWriter, r *http.Request) {
	h.createRequest(w, r, request.KindOpportunity)
}

func (h *Handlers) createRequest(w http.ResponseWriter, r *http.Request, kind request.Kind) {
	p, ok := middleware.PrincipalFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	in, ok := readJSON[request.CreateInput](w, r)
	if !ok {
		return
	}

	req, err := h.Requests.Create(r.Context(), p, kind, &in)
	if err != nil {
		writeDomainError(w, err, "subject not found")
		return
	}
	writeJSON(w, http.StatusCreated, req)
}

// GetRequest handles GET /api/v1/requests/{id}
func (h *Handlers) GetRequest(w http.ResponseWriter, r *http.Request) {
	p, ok := middleware.PrincipalFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	v, err := h.Requests.Get(r.Context(), p, urlParam(r, "id"))
	if err != nil {
		writeDomainError(w, err, "request not found")
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// UpdateRequest handles PATCH /api/v1/requests/{id}
func (h *Handlers) UpdateRequest(w http.ResponseWriter, r *http.Request) {
	p, ok := middleware.PrincipalFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	in, ok := readJSON[request.UpdateInput](w, r)
	if !ok {
		return
	}

	req, err := h.Requests.Update(r.Context(), p, urlParam(r, "id"), &in)
	if err != nil {
		writeDomainError(w, err, "request not found")
		return
	}
	writeJSON(w, http.StatusOK, req)
}

// WithdrawRequest handles POST /api/v1/requests/{id}/withdraw
func (h *Handlers) WithdrawRequest(w http.ResponseWriter, r *http.Request) {
	p, ok := middleware.PrincipalFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	req, err := h.Requests.Withdraw(r.Context(), p, urlParam(r, "id"))
	if err != nil {
		writeDomainError(w, err, "request not found")
		return
	}
	writeJSON(w, http.StatusOK, req)
}

type respondInput struct {
	Decision        request.Decision `json:"decision"`
	ResponseMessage string           `json:"response_message,omitempty"`
}

// RespondRequest handles POST /api/v1/requests/{id}/respond
func (h *Handlers) RespondRequest(w http.ResponseWriter, r *http.Request) {
	p, ok := middleware.PrincipalFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	in, ok := readJSON[respondInput](w, r)
	if !ok {
		return
	}

	v, err := h.Requests.Respond(r.Context(), p, urlParam(r, "id"), in.Decision, in.ResponseMessage)
	if err != nil {
		writeDomainError(w, err, "request not found")
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// ListInbox handles GET /api/v1/requests/inbox
func (h *Handlers) ListInbox(w http.ResponseWriter, r *http.Request) {
	h.listRequests(w, r, h.Requests.ListInbox)
}

// ListSent handles GET /api/v1/requests/sent
func (h *Handlers) ListSent(w http.ResponseWriter, r *http.Request) {
	h.listRequests(w, r, h.Requests.ListSent)
}

func (h *Handlers) listRequests(w http.ResponseWriter, r *http.Request,
	list func(ctx context.Context, p *user.Principal, f service.ListFilter) (*page.Page[request.View], error),
) {
	p, ok := middleware.PrincipalFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	f := service.ListFilter{
		Status:  r.URL.Query().Get("status"),
		Page:    queryInt(r, "page", 1),
		PerPage: queryInt(r, "per_page", 20),
	}

	pg, err := list(r.Context(), p, f)
	if err != nil {
		writeDomainError(w, err, "could not list requests")
		return
	}
	writeJSON(w, http.StatusOK, pg)
}
