// Package talent defines the talent domain model: an engineer profile
// owned by an SES company and offered to end companies through the
// request workflow.
package talent

import (
	"errors"
	"time"
)

// Status represents the marketing state of a talent.
type Status string

const (
	StatusMarketing Status = "marketing"
	StatusInterview Status = "interview"
	StatusWorking   Status = "working"
	StatusLeft      Status = "left"
)

// ValidStatuses is the set of all valid talent statuses.
var ValidStatuses = map[Status]bool{
	StatusMarketing: true,
	StatusInterview: true,
	StatusWorking:   true,
	StatusLeft:      true,
}

// Talent is an engineer profile. CompanyID is the owning SES company and
// is what the request workflow freezes as the recipient at creation time.
type Talent struct {
	ID          string `json:"id"`
	CompanyID   string `json:"company_id"`
	Name        string `json:"name"`
	DesiredRate string `json:"desired_rate,omitempty"`
	Prefecture  string `json:"prefecture,omitempty"`
	Status      Status `json:"status"`
	// Document references are opaque filestore handles; the workflow engine
	// never inspects their content.
	SkillSheetRef string    `json:"skill_sheet_ref,omitempty"`
	PortfolioRef  string    `json:"portfolio_ref,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// CreateRequest holds the fields required to register a talent.
type CreateRequest struct {
	Name        string `json:"name"`
	DesiredRate string `json:"desired_rate,omitempty"`
	Prefecture  string `json:"prefecture,omitempty"`
	Status      Status `json:"status,omitempty"`
}

// Validate checks the CreateRequest fields.
func (r *CreateRequest) Validate() error {
	if r.Name == "" {
		return errors.New("talent name is required")
	}
	if len(r.Name) > 255 {
		return errors.New("talent name too long (max 255 chars)")
	}
	if r.Status != "" && !ValidStatuses[r.Status] {
		return errors.New("invalid talent status")
	}
	return nil
}

// UpdateRequest holds the updatable talent fields. CompanyID reassignment
// is a distinct administrative operation and deliberately absent here.
type UpdateRequest struct {
	Name        string `json:"name,omitempty"`
	DesiredRate string `json:"desired_rate,omitempty"`
	Prefecture  string `json:"prefecture,omitempty"`
	Status      Status `json:"status,omitempty"`
}

// Summary returns the display fields listing views show for this talent.
func (t *Talent) Summary() (name, rate, prefecture string) {
	return t.Name, t.DesiredRate, t.Prefecture
}
