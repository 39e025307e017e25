package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/sesbridge/sesbridge/internal/adapter/otel"
	"github.com/sesbridge/sesbridge/internal/domain"
	"github.com/sesbridge/sesbridge/internal/domain/page"
	"github.com/sesbridge/sesbridge/internal/domain/request"
	"github.com/sesbridge/sesbridge/internal/domain/user"
	"github.com/sesbridge/sesbridge/internal/port/database"
	"github.com/sesbridge/sesbridge/internal/port/messagequeue"
)

// WebSocket event types mirrored by the ws adapter.
const (
	eventRequestReceived  = "request.received"
	eventRequestUpdated   = "request.updated"
	eventRequestWithdrawn = "request.withdrawn"
	eventRequestResponded = "request.responded"
)

// EventBroadcaster pushes workflow events to a company's live clients.
// Implemented by the ws hub.
type EventBroadcaster interface {
	BroadcastEventToCompany(ctx context.Context, companyID, eventType string, payload any)
}

// ListFilter narrows inbox and sent listings. An unrecognized or empty
// Status means all statuses.
type ListFilter struct {
	Status  string
	Page    int
	PerPage int
}

// RequestService is the request workflow engine. It owns the lifecycle
// pending -> accepted | declined | expired, freezes the recipient at
// creation, and applies the sender disclosure rule on every read.
type RequestService struct {
	store     database.Store
	queue     messagequeue.Queue
	broadcast EventBroadcaster
	metrics   *otel.Metrics
}

// NewRequestService creates the workflow engine. queue, broadcast, and
// metrics may each be nil.
func NewRequestService(store database.Store, queue messagequeue.Queue, broadcast EventBroadcaster, metrics *otel.Metrics) *RequestService {
	return &RequestService{store: store, queue: queue, broadcast: broadcast, metrics: metrics}
}

// Create opens a new request. The recipient company is resolved from the
// subject resource's owning company at this moment and frozen on the
// record; later reassignment of the subject never moves the request.
func (s *RequestService) Create(ctx context.Context, p *user.Principal, kind request.Kind, in *request.CreateInput) (*request.Request, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	toCompanyID, err := s.subjectOwner(ctx, kind, in.SubjectID)
	if err != nil {
		return nil, err
	}
	if toCompanyID == p.CompanyID {
		return nil, fmt.Errorf("%w: cannot send a request about your own resource", domain.ErrValidation)
	}

	if kind == request.KindOpportunity {
		if in.OfferedTalentID == "" {
			return nil, fmt.Errorf("%w: offered_talent_id is required for opportunity requests", domain.ErrValidation)
		}
		t, err := s.store.GetTalent(ctx, in.OfferedTalentID)
		if err != nil {
			return nil, err
		}
		if t.CompanyID != p.CompanyID {
			return nil, fmt.Errorf("offered talent %s: %w", in.OfferedTalentID, domain.ErrNotFound)
		}
	} else if in.OfferedTalentID != "" {
		return nil, fmt.Errorf("%w: offered_talent_id is only valid on opportunity requests", domain.ErrValidation)
	}

	now := time.Now()
	r := &request.Request{
		ID:              uuid.NewString(),
		Kind:            kind,
		FromCompanyID:   p.CompanyID,
		FromUserID:      p.UserID,
		ToCompanyID:     toCompanyID,
		SubjectID:       in.SubjectID,
		OfferedTalentID: in.OfferedTalentID,
		Title:           in.Title,
		Message:         in.Message,
		Status:          request.StatusPending,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.store.CreateRequest(ctx, r); err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.RequestsCreated.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", string(kind))))
	}
	s.publish(ctx, messagequeue.SubjectRequestCreated, r)
	s.notify(ctx, r.ToCompanyID, eventRequestReceived, r)

	slog.Info("request created", "request_id", r.ID, "kind", kind,
		"from_company_id", r.FromCompanyID, "to_company_id", r.ToCompanyID)
	return r, nil
}

// Get returns the disclosure-filtered view of a request for the viewing
// principal. Companies on neither side of the request get a not-found.
func (s *RequestService) Get(ctx context.Context, p *user.Principal, id string) (*request.View, error) {
	r, err := s.store.GetRequest(ctx, id)
	if err != nil {
		return nil, err
	}
	if r.FromCompanyID != p.CompanyID && r.ToCompanyID != p.CompanyID {
		return nil, fmt.Errorf("get request %s: %w", id, domain.ErrNotFound)
	}

	v := r.ViewFor(p.CompanyID, s.senderEmail(ctx, r, p.CompanyID), s.subjectSummary(ctx, r))
	return &v, nil
}

// Update edits the title and message of a pending request. Only the
// sending company may edit, and only while the request is pending.
func (s *RequestService) Update(ctx context.Context, p *user.Principal, id string, in *request.UpdateInput) (*request.Request, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	r, err := s.store.UpdateRequestIfPending(ctx, id, p.CompanyID, in.Title, in.Message)
	if err != nil {
		return nil, s.refineState(ctx, err, id, p.CompanyID)
	}

	s.publish(ctx, messagequeue.SubjectRequestUpdated, r)
	s.notify(ctx, r.ToCompanyID, eventRequestUpdated, r)
	return r, nil
}

// Withdraw moves a pending request to expired. Only the sending company
// may withdraw, and only while the request is pending; a withdrawn
// request can never return to pending.
func (s *RequestService) Withdraw(ctx context.Context, p *user.Principal, id string) (*request.Request, error) {
	r, err := s.store.WithdrawRequest(ctx, id, p.CompanyID)
	if err != nil {
		return nil, s.refineState(ctx, err, id, p.CompanyID)
	}

	s.countTransition(ctx, r.Status)
	s.publish(ctx, messagequeue.SubjectRequestWithdrawn, r)
	s.notify(ctx, r.ToCompanyID, eventRequestWithdrawn, r)

	slog.Info("request withdrawn", "request_id", id, "from_company_id", p.CompanyID)
	return r, nil
}

// Respond accepts or declines a pending request. Only the recipient
// company may respond; both outcomes are terminal. Accepting is what
// discloses the sender's contact identity to the recipient.
func (s *RequestService) Respond(ctx context.Context, p *user.Principal, id string, decision request.Decision, responseMessage string) (*request.View, error) {
	to, err := decision.Status()
	if err != nil {
		return nil, err
	}

	r, err := s.store.RespondRequest(ctx, id, p.CompanyID, to, responseMessage)
	if err != nil {
		return nil, s.refineState(ctx, err, id, p.CompanyID)
	}

	s.countTransition(ctx, r.Status)
	s.publish(ctx, messagequeue.SubjectRequestResponded, r)
	s.notify(ctx, r.FromCompanyID, eventRequestResponded, r)

	slog.Info("request responded", "request_id", id, "status", r.Status,
		"to_company_id", p.CompanyID)

	v := r.ViewFor(p.CompanyID, s.senderEmail(ctx, r, p.CompanyID), s.subjectSummary(ctx, r))
	return &v, nil
}

// ListInbox returns requests addressed to the principal's company.
func (s *RequestService) ListInbox(ctx context.Context, p *user.Principal, f ListFilter) (*page.Page[request.View], error) {
	return s.list(ctx, p, f, s.store.ListInbox)
}

// ListSent returns requests sent by the principal's company.
func (s *RequestService) ListSent(ctx context.Context, p *user.Principal, f ListFilter) (*page.Page[request.View], error) {
	return s.list(ctx, p, f, s.store.ListSent)
}

func (s *RequestService) list(ctx context.Context, p *user.Principal, f ListFilter,
	fetch func(context.Context, string, database.RequestFilter) ([]request.Request, int, error),
) (*page.Page[request.View], error) {
	pageNum, perPage := page.Clamp(f.Page, f.PerPage)

	// Unrecognized filters fall back to all statuses rather than erroring.
	status, _ := request.NormalizeStatusFilter(f.Status)

	rows, total, err := fetch(ctx, p.CompanyID, database.RequestFilter{
		Status:  status,
		Page:    pageNum,
		PerPage: perPage,
	})
	if err != nil {
		return nil, err
	}

	views := make([]request.View, 0, len(rows))
	for i := range rows {
		r := &rows[i]
		views = append(views, r.ViewFor(p.CompanyID, s.senderEmail(ctx, r, p.CompanyID), s.subjectSummary(ctx, r)))
	}

	out := page.New(views, total, pageNum, perPage)
	return &out, nil
}

// senderEmail looks up the sending user's email when the disclosure rule
// allows the viewer to see it. It is read fresh on every call; a response
// cached from before acceptance would leak or hide state transitions.
func (s *RequestService) senderEmail(ctx context.Context, r *request.Request, viewerCompanyID string) string {
	if !r.Disclosed(viewerCompanyID) {
		return ""
	}
	u, err := s.store.GetUser(ctx, r.FromUserID)
	if err != nil {
		slog.Warn("sender lookup failed", "request_id", r.ID, "user_id", r.FromUserID, "error", err)
		return ""
	}
	return u.Email
}

// subjectSummary fetches the current display fields of the subject
// resource. A deleted subject yields an empty summary, not an error.
func (s *RequestService) subjectSummary(ctx context.Context, r *request.Request) request.SubjectSummary {
	switch r.Kind {
	case request.KindTalent:
		t, err := s.store.GetTalent(ctx, r.SubjectID)
		if err != nil {
			return request.SubjectSummary{}
		}
		name, rate, pref := t.Summary()
		return request.SubjectSummary{Name: name, Rate: rate, Prefecture: pref}
	case request.KindOpportunity:
		o, err := s.store.GetOpportunity(ctx, r.SubjectID)
		if err != nil {
			return request.SubjectSummary{}
		}
		return request.SubjectSummary{Name: o.Title, Rate: o.Budget, Prefecture: o.Prefecture}
	}
	return request.SubjectSummary{}
}

// subjectOwner resolves the company that owns the subject resource.
func (s *RequestService) subjectOwner(ctx context.Context, kind request.Kind, subjectID string) (string, error) {
	switch kind {
	case request.KindTalent:
		t, err := s.store.GetTalent(ctx, subjectID)
		if err != nil {
			return "", err
		}
		return t.CompanyID, nil
	case request.KindOpportunity:
		o, err := s.store.GetOpportunity(ctx, subjectID)
		if err != nil {
			return "", err
		}
		if !o.Active {
			return "", fmt.Errorf("%w: opportunity is closed", domain.ErrInvalidState)
		}
		return o.CompanyID, nil
	}
	return "", fmt.Errorf("%w: unknown request kind %q", domain.ErrValidation, kind)
}

// refineState upgrades a bare invalid-state failure: a request already
// answered by the recipient reports ErrAlreadyProcessed so callers can
// distinguish "someone beat you to it" from "withdrawn and gone".
func (s *RequestService) refineState(ctx context.Context, cause error, id, companyID string) error {
	if !errors.Is(cause, domain.ErrInvalidState) {
		return cause
	}
	r, err := s.store.GetRequest(ctx, id)
	if err != nil {
		return cause
	}
	if r.Status == request.StatusAccepted || r.Status == request.StatusDeclined {
		return fmt.Errorf("request %s is already %s: %w", id, r.Status, domain.ErrAlreadyProcessed)
	}
	return cause
}

func (s *RequestService) countTransition(ctx context.Context, to request.Status) {
	if s.metrics == nil {
		return
	}
	s.metrics.RequestTransitions.Add(ctx, 1, metric.WithAttributes(attribute.String("to", string(to))))
}

func (s *RequestService) publish(ctx context.Context, subject string, r *request.Request) {
	if s.queue == nil {
		return
	}
	data, err := json.Marshal(messagequeue.RequestEvent{
		RequestID:     r.ID,
		Kind:          string(r.Kind),
		FromCompanyID: r.FromCompanyID,
		ToCompanyID:   r.ToCompanyID,
		Status:        string(r.Status),
	})
	if err != nil {
		slog.Error("marshal request event", "request_id", r.ID, "error", err)
		return
	}
	if err := s.queue.Publish(ctx, subject, data); err != nil {
		slog.Warn("publish request event failed", "subject", subject, "request_id", r.ID, "error", err)
	}
}

func (s *RequestService) notify(ctx context.Context, companyID, eventType string, r *request.Request) {
	if s.broadcast == nil {
		return
	}
	s.broadcast.BroadcastEventToCompany(ctx, companyID, eventType, map[string]string{
		"request_id": r.ID,
		"kind":       string(r.Kind),
		"status":     string(r.Status),
	})
}
