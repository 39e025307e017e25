package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/sesbridge/sesbridge/internal/config"
	"github.com/sesbridge/sesbridge/internal/domain"
	"github.com/sesbridge/sesbridge/internal/domain/company"
	"github.com/sesbridge/sesbridge/internal/port/cache"
	"github.com/sesbridge/sesbridge/internal/port/database"
)

// CompanyService manages companies and serves type lookups for the
// access decision pipeline.
type CompanyService struct {
	store   database.Store
	cache   cache.Cache
	typeTTL time.Duration
}

// NewCompanyService creates a new company service. cache may be nil to
// disable type lookup caching.
func NewCompanyService(store database.Store, c cache.Cache, cfg *config.Cache) *CompanyService {
	ttl := time.Hour
	if cfg != nil && cfg.CompanyTypeTTL > 0 {
		ttl = cfg.CompanyTypeTTL
	}
	return &CompanyService{store: store, cache: c, typeTTL: ttl}
}

// Create registers a new company.
func (s *CompanyService) Create(ctx context.Context, req *company.CreateRequest) (*company.Company, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrValidation, err)
	}

	now := time.Now()
	c := &company.Company{
		ID:        uuid.NewString(),
		Name:      req.Name,
		Domain:    req.Domain,
		Type:      req.Type,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.CreateCompany(ctx, c); err != nil {
		return nil, err
	}

	slog.Info("company created", "company_id", c.ID, "type", c.Type)
	return c, nil
}

// Get returns a company by ID.
func (s *CompanyService) Get(ctx context.Context, id string) (*company.Company, error) {
	return s.store.GetCompany(ctx, id)
}

// List returns all companies.
func (s *CompanyService) List(ctx context.Context) ([]company.Company, error) {
	return s.store.ListCompanies(ctx)
}

// Update applies the updatable fields. The company type is immutable and
// has no update path.
func (s *CompanyService) Update(ctx context.Context, id string, req *company.UpdateRequest) (*company.Company, error) {
	c, err := s.store.GetCompany(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != "" {
		c.Name = req.Name
	}
	if req.Domain != "" {
		c.Domain = req.Domain
	}
	if req.Active != nil {
		c.Active = *req.Active
	}
	c.UpdatedAt = time.Now()

	if err := s.store.UpdateCompany(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// Delete removes a company that has no remaining users.
func (s *CompanyService) Delete(ctx context.Context, id string) error {
	if err := s.store.DeleteCompany(ctx, id); err != nil {
		return err
	}
	if s.cache != nil {
		_ = s.cache.Delete(ctx, typeCacheKey(id))
	}
	return nil
}

// TypeOf resolves a company's type, serving repeat lookups from the
// in-process cache. Types are immutable so a stale entry can only occur
// after a company is deleted, where the gate fails closed anyway.
func (s *CompanyService) TypeOf(ctx context.Context, companyID string) (company.Type, error) {
	key := typeCacheKey(companyID)
	if s.cache != nil {
		if data, ok, err := s.cache.Get(ctx, key); err == nil && ok {
			return company.Type(data), nil
		}
	}

	c, err := s.store.GetCompany(ctx, companyID)
	if err != nil {
		return "", err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, []byte(c.Type), s.typeTTL); err != nil {
			slog.Debug("company type cache set failed", "company_id", companyID, "error", err)
		}
	}
	return c.Type, nil
}

func typeCacheKey(companyID string) string {
	return "company-type:" + companyID
}
