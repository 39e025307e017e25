package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/sesbridge/sesbridge/internal/domain"
	"github.com/sesbridge/sesbridge/internal/domain/talent"
	"github.com/sesbridge/sesbridge/internal/port/database"
	"github.com/sesbridge/sesbridge/internal/port/filestore"
)

// DocumentKind selects which talent document an upload replaces.
type DocumentKind string

const (
	DocumentSkillSheet DocumentKind = "skill_sheet"
	DocumentPortfolio  DocumentKind = "portfolio"
)

// TalentService manages talent profiles and their documents.
type TalentService struct {
	store database.Store
	files filestore.Store
}

// NewTalentService creates a new talent service. files may be nil to
// disable document uploads.
func NewTalentService(store database.Store, files filestore.Store) *TalentService {
	return &TalentService{store: store, files: files}
}

// Create registers a talent owned by the given company.
func (s *TalentService) Create(ctx context.Context, companyID string, req *talent.CreateRequest) (*talent.Talent, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrValidation, err)
	}

	status := req.Status
	if status == "" {
		status = talent.StatusMarketing
	}

	now := time.Now()
	t := &talent.Talent{
		ID:          uuid.NewString(),
		CompanyID:   companyID,
		Name:        req.Name,
		DesiredRate: req.DesiredRate,
		Prefecture:  req.Prefecture,
		Status:      status,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.CreateTalent(ctx, t); err != nil {
		return nil, err
	}

	slog.Info("talent created", "talent_id", t.ID, "company_id", companyID)
	return t, nil
}

// Get returns a talent owned by the given company.
func (s *TalentService) Get(ctx context.Context, companyID, id string) (*talent.Talent, error) {
	t, err := s.store.GetTalent(ctx, id)
	if err != nil {
		return nil, err
	}
	if t.CompanyID != companyID {
		return nil, fmt.Errorf("get talent %s: %w", id, domain.ErrNotFound)
	}
	return t, nil
}

// List returns all talents of a company.
func (s *TalentService) List(ctx context.Context, companyID string) ([]talent.Talent, error) {
	return s.store.ListTalents(ctx, companyID)
}

// Update applies the updatable fields to a talent.
func (s *TalentService) Update(ctx context.Context, companyID, id string, req *talent.UpdateRequest) (*talent.Talent, error) {
	t, err := s.Get(ctx, companyID, id)
	if err != nil {
		return nil, err
	}

	if req.Status != "" && !talent.ValidStatuses[req.Status] {
		return nil, fmt.Errorf("%w: invalid talent status %q", domain.ErrValidation, req.Status)
	}

	if req.Name != "" {
		t.Name = req.Name
	}
	if req.DesiredRate != "" {
		t.DesiredRate = req.DesiredRate
	}
	if req.Prefecture != "" {
		t.Prefecture = req.Prefecture
	}
	if req.Status != "" {
		t.Status = req.Status
	}
	t.UpdatedAt = time.Now()

	if err := s.store.UpdateTalent(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// Delete removes a talent and its stored documents.
func (s *TalentService) Delete(ctx context.Context, companyID, id string) error {
	t, err := s.Get(ctx, companyID, id)
	if err != nil {
		return err
	}

	if err := s.store.DeleteTalent(ctx, companyID, id); err != nil {
		return err
	}

	if s.files != nil {
		for _, ref := range []string{t.SkillSheetRef, t.PortfolioRef} {
			if ref == "" {
				continue
			}
			if err := s.files.Delete(ctx, ref); err != nil {
				slog.Warn("failed to delete talent document", "ref", ref, "error", err)
			}
		}
	}
	return nil
}

// UploadDocument stores a skill sheet or portfolio for a talent. Office
// documents are converted to PDF so clients can preview them; other
// formats are kept as uploaded.
func (s *TalentService) UploadDocument(ctx context.Context, companyID, id string, kind DocumentKind, name string, r io.Reader) (*talent.Talent, error) {
	if s.files == nil {
		return nil, errors.New("document storage is not configured")
	}
	if kind != DocumentSkillSheet && kind != DocumentPortfolio {
		return nil, fmt.Errorf("%w: unknown document kind %q", domain.ErrValidation, kind)
	}

	t, err := s.Get(ctx, companyID, id)
	if err != nil {
		return nil, err
	}

	ref, err := s.files.Save(ctx, "talents/"+id, name, r)
	if err != nil {
		return nil, err
	}

	if pdfRef, err := s.files.ConvertToPDF(ctx, ref); err == nil {
		ref = pdfRef
	} else if !errors.Is(err, filestore.ErrUnsupportedFormat) {
		return nil, err
	}

	var old string
	switch kind {
	case DocumentSkillSheet:
		old, t.SkillSheetRef = t.SkillSheetRef, ref
	case DocumentPortfolio:
		old, t.PortfolioRef = t.PortfolioRef, ref
	}
	t.UpdatedAt = time.Now()

	if err := s.store.UpdateTalent(ctx, t); err != nil {
		return nil, err
	}

	if old != "" && old != ref {
		if err := s.files.Delete(ctx, old); err != nil {
			slog.Warn("failed to delete replaced document", "ref", old, "error", err)
		}
	}

	slog.Info("talent document uploaded", "talent_id", id, "kind", kind, "ref", ref)
	return t, nil
}
