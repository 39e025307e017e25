// Package company defines the company (tenant) domain model. Each company
// is the unit of data isolation: users, talents, and opportunities all
// belong to exactly one company.
package company

import (
	"errors"
	"time"
)

// Type classifies a company as a staffing provider or a client consumer.
// The type is immutable for the lifetime of the company.
type Type string

const (
	// TypeSES is a staffing (provider) company that owns talents.
	TypeSES Type = "ses"
	// TypeEnd is a client (consumer) company that owns opportunities.
	TypeEnd Type = "end"
)

// ValidTypes is the set of all valid company types.
var ValidTypes = map[Type]bool{
	TypeSES: true,
	TypeEnd: true,
}

// Company represents an isolated tenant in the marketplace.
type Company struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Domain    string    `json:"domain,omitempty"`
	Type      Type      `json:"company_type"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CreateRequest holds the fields required to register a new company.
type CreateRequest struct {
	Name   string `json:"name"`
	Domain string `json:"domain,omitempty"`
	Type   Type   `json:"company_type"`
}

// Validate checks that the CreateRequest has all required fields.
func (r *CreateRequest) Validate() error {
	if r.Name == "" {
		return errors.New("company name is required")
	}
	if len(r.Name) > 255 {
		return errors.New("company name too long (max 255 chars)")
	}
	if !ValidTypes[r.Type] {
		return errors.New("invalid company type: must be ses or end")
	}
	return nil
}

// UpdateRequest holds the fields that can be updated on a company.
// The company type is deliberately absent: it is immutable.
type UpdateRequest struct {
	Name   string `json:"name,omitempty"`
	Domain string `json:"domain,omitempty"`
	Active *bool  `json:"active,omitempty"`
}
