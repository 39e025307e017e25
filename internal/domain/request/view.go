package request

import "time"

// SubjectSummary carries the display fields of the subject resource that
// listing views show next to a request.
type SubjectSummary struct {
	Name       string `json:"name,omitempty"`
	Rate       string `json:"rate,omitempty"`
	Prefecture string `json:"prefecture,omitempty"`
}

// View is the disclosure-filtered projection of a request returned to a
// specific viewing company.
type View struct {
	ID              string         `json:"id"`
	Kind            Kind           `json:"kind"`
	FromCompanyID   string         `json:"from_company_id"`
	ToCompanyID     string         `json:"to_company_id"`
	SubjectID       string         `json:"subject_id"`
	OfferedTalentID string         `json:"offered_talent_id,omitempty"`
	Title           string         `json:"title,omitempty"`
	Message         string         `json:"message"`
	Status          Status         `json:"status"`
	ResponseMessage string         `json:"response_message,omitempty"`
	Subject         SubjectSummary `json:"subject"`
	// CanViewSender reports whether the sender's contact details are
	// disclosed to this viewer.
	CanViewSender bool   `json:"can_view_sender"`
	SenderEmail   string `json:"sender_email,omitempty"`
	RespondedAt   *time.Time `json:"responded_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// Disclosed reports whether the sender's contact identity is visible to
// the given viewing company: only the recipient company, and only once the
// request is accepted. This is the single disclosure rule governing
// cross-company privacy and must be evaluated fresh on every read.
func (r *Request) Disclosed(viewerCompanyID string) bool {
	return viewerCompanyID == r.ToCompanyID && r.Status == StatusAccepted
}

// ViewFor projects the request for the given viewing company. senderEmail
// is supplied by the caller (looked up from the sending user) and is only
// included when the disclosure rule allows it.
func (r *Request) ViewFor(viewerCompanyID, senderEmail string, subject SubjectSummary) View {
	v := View{
		ID:              r.ID,
		Kind:            r.Kind,
		FromCompanyID:   r.FromCompanyID,
		ToCompanyID:     r.ToCompanyID,
		SubjectID:       r.SubjectID,
		OfferedTalentID: r.OfferedTalentID,
		Title:           r.Title,
		Message:         r.Message,
		Status:          r.Status,
		ResponseMessage: r.ResponseMessage,
		Subject:         subject,
		RespondedAt:     r.RespondedAt,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}
	if r.Disclosed(viewerCompanyID) {
		v.CanViewSender = true
		v.SenderEmail = senderEmail
	}
	return v
}
