// Package opportunity defines the opportunity domain model: a project
// opening owned by an end company that SES companies respond to with
// offer requests.
package opportunity

import (
	"errors"
	"time"
)

// Opportunity is a project opening. CompanyID is the owning end company
// and is what the request workflow freezes as the recipient at creation
// time.
type Opportunity struct {
	ID          string    `json:"id"`
	CompanyID   string    `json:"company_id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Budget      string    `json:"budget,omitempty"`
	Prefecture  string    `json:"prefecture,omitempty"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// CreateRequest holds the fields required to post an opportunity.
type CreateRequest struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Budget      string `json:"budget,omitempty"`
	Prefecture  string `json:"prefecture,omitempty"`
}

// Validate checks the CreateRequest fields.
func (r *CreateRequest) Validate() error {
	if r.Title == "" {
		return errors.New("opportunity title is required")
	}
	if len(r.Title) > 255 {
		return errors.New("opportunity title too long (max 255 chars)")
	}
	return nil
}

// UpdateRequest holds the updatable opportunity fields.
type UpdateRequest struct {
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	Budget      string `json:"budget,omitempty"`
	Prefecture  string `json:"prefecture,omitempty"`
	Active      *bool  `json:"active,omitempty"`
}
