// Package request defines the cross-company request domain model: the
// record exchanged between a sender company and a recipient company, its
// status state machine, and the disclosure rule for sender identity.
package request

import (
	"fmt"
	"strings"
	"time"

	"github.com/sesbridge/sesbridge/internal/domain"
)

// Kind distinguishes the two request flavors sharing one workflow.
type Kind string

const (
	// KindTalent is an introduction request for a talent owned by an SES
	// company, sent by an end company.
	KindTalent Kind = "talent"
	// KindOpportunity is an offer against an opportunity owned by an end
	// company, sent by an SES company.
	KindOpportunity Kind = "opportunity"
)

// Status represents the current state of a request.
type Status string

const (
	StatusPending  Status = "pending"
	StatusAccepted Status = "accepted"
	StatusDeclined Status = "declined"
	// StatusExpired means withdrawn by the sender. There is no time-based
	// expiry; a future one must use a distinct status.
	StatusExpired Status = "expired"
)

// ValidStatuses is the set of all recognized request statuses.
var ValidStatuses = map[Status]bool{
	StatusPending:  true,
	StatusAccepted: true,
	StatusDeclined: true,
	StatusExpired:  true,
}

// Terminal reports whether no further transition may leave this status.
func (s Status) Terminal() bool {
	return s == StatusAccepted || s == StatusDeclined || s == StatusExpired
}

// Decision is the recipient's answer to a pending request.
type Decision string

const (
	DecisionAccept  Decision = "accept"
	DecisionDecline Decision = "decline"
)

// Status returns the terminal status a decision transitions to.
func (d Decision) Status() (Status, error) {
	switch d {
	case DecisionAccept:
		return StatusAccepted, nil
	case DecisionDecline:
		return StatusDeclined, nil
	default:
		return "", fmt.Errorf("%w: unknown decision %q", domain.ErrValidation, string(d))
	}
}

// Title and message length invariants.
const (
	TitleMinLen   = 2
	TitleMaxLen   = 120
	MessageMinLen = 10
	MessageMaxLen = 4000
)

// Request is a cross-company proposal. ToCompanyID is resolved from the
// subject resource's owning company at creation time and frozen on the
// record; it never changes even if the resource is reassigned later.
type Request struct {
	ID            string    `json:"id"`
	Kind          Kind      `json:"kind"`
	FromCompanyID string    `json:"from_company_id"`
	FromUserID    string    `json:"from_user_id"`
	ToCompanyID   string    `json:"to_company_id"`
	SubjectID     string    `json:"subject_id"` // talent or opportunity ID
	// OfferedTalentID is set on opportunity requests only: the sender's own
	// talent being proposed for the opportunity.
	OfferedTalentID string     `json:"offered_talent_id,omitempty"`
	Title           string     `json:"title,omitempty"`
	Message         string     `json:"message"`
	Status          Status     `json:"status"`
	ResponseMessage string     `json:"response_message,omitempty"`
	RespondedAt     *time.Time `json:"responded_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// CreateInput holds the caller-supplied fields of a new request. The
// recipient company is never client-supplied.
type CreateInput struct {
	SubjectID       string `json:"subject_id"`
	OfferedTalentID string `json:"offered_talent_id,omitempty"`
	Title           string `json:"title"`
	Message         string `json:"message"`
}

// Validate checks the creation invariants on caller-supplied fields.
func (in *CreateInput) Validate() error {
	if in.SubjectID == "" {
		return fmt.Errorf("%w: subject_id is required", domain.ErrValidation)
	}
	if err := ValidateTitle(in.Title); err != nil {
		return err
	}
	return ValidateMessage(in.Message)
}

// UpdateInput holds the editable fields of a pending request. Nil means
// the field is left unchanged. Status, subject, and recipient are not
// editable through any input.
type UpdateInput struct {
	Title   *string `json:"title,omitempty"`
	Message *string `json:"message,omitempty"`
}

// Validate re-checks the length invariants on every supplied field.
func (in *UpdateInput) Validate() error {
	if in.Title == nil && in.Message == nil {
		return fmt.Errorf("%w: nothing to update", domain.ErrValidation)
	}
	if in.Title != nil {
		if err := ValidateTitle(*in.Title); err != nil {
			return err
		}
	}
	if in.Message != nil {
		if err := ValidateMessage(*in.Message); err != nil {
			return err
		}
	}
	return nil
}

// ValidateTitle enforces the title length invariant. An empty title is
// allowed; when present it must be 2-120 characters.
func ValidateTitle(title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil
	}
	if n := len([]rune(title)); n < TitleMinLen || n > TitleMaxLen {
		return fmt.Errorf("%w: title must be %d-%d characters", domain.ErrValidation, TitleMinLen, TitleMaxLen)
	}
	return nil
}

// ValidateMessage enforces the message length invariant (10-4000 characters).
func ValidateMessage(msg string) error {
	if n := len([]rune(strings.TrimSpace(msg))); n < MessageMinLen || n > MessageMaxLen {
		return fmt.Errorf("%w: message must be %d-%d characters", domain.ErrValidation, MessageMinLen, MessageMaxLen)
	}
	return nil
}

// NormalizeStatusFilter maps a listing status filter onto a recognized
// status. "all" and unrecognized values both mean no status predicate;
// this permissive fallback is deliberate and mirrors the listing API
// contract (an unknown filter never errors).
func NormalizeStatusFilter(filter string) (Status, bool) {
	s := Status(filter)
	if ValidStatuses[s] {
		return s, true
	}
	return "", false
}
