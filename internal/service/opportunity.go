package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/sesbridge/sesbridge/internal/domain"
	"github.com/sesbridge/sesbridge/internal/domain/opportunity"
	"github.com/sesbridge/sesbridge/internal/port/database"
)

// OpportunityService manages project openings posted by end companies.
type OpportunityService struct {
	store database.Store
}

// NewOpportunityService creates a new opportunity service.
func NewOpportunityService(store database.Store) *OpportunityService {
	return &OpportunityService{store: store}
}

// Create posts an opportunity owned by the given company.
func (s *OpportunityService) Create(ctx context.Context, companyID string, req *opportunity.CreateRequest) (*opportunity.Opportunity, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrValidation, err)
	}

	now := time.Now()
	o := &opportunity.Opportunity{
		ID:          uuid.NewString(),
		CompanyID:   companyID,
		Title:       req.Title,
		Description: req.Description,
		Budget:      req.Budget,
		Prefecture:  req.Prefecture,
		Active:      true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.CreateOpportunity(ctx, o); err != nil {
		return nil, err
	}

	slog.Info("opportunity created", "opportunity_id", o.ID, "company_id", companyID)
	return o, nil
}

// Get returns an opportunity. Opportunities are visible across companies
// so SES companies can browse and respond to them.
func (s *OpportunityService) Get(ctx context.Context, id string) (*opportunity.Opportunity, error) {
	return s.store.GetOpportunity(ctx, id)
}

// List returns all opportunities of a company.
func (s *OpportunityService) List(ctx context.Context, companyID string) ([]opportunity.Opportunity, error) {
	return s.store.ListOpportunities(ctx, companyID)
}

// Update applies the updatable fields to an opportunity owned by the
// given company.
func (s *OpportunityService) Update(ctx context.Context, companyID, id string, req *opportunity.UpdateRequest) (*opportunity.Opportunity, error) {
	o, err := s.store.GetOpportunity(ctx, id)
	if err != nil {
		return nil, err
	}
	if o.CompanyID != companyID {
		return nil, fmt.Errorf("update opportunity %s: %w", id, domain.ErrNotFound)
	}

	if req.Title != "" {
		o.Title = req.Title
	}
	if req.Description != "" {
		o.Description = req.Description
	}
	if req.Budget != "" {
		o.Budget = req.Budget
	}
	if req.Prefecture != "" {
		o.Prefecture = req.Prefecture
	}
	if req.Active != nil {
		o.Active = *req.Active
	}
	o.UpdatedAt = time.Now()

	if err := s.store.UpdateOpportunity(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}

// Delete removes an opportunity owned by the given company.
func (s *OpportunityService) Delete(ctx context.Context, companyID, id string) error {
	return s.store.DeleteOpportunity(ctx, companyID, id)
}
