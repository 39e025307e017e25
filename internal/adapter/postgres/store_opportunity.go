package postgres

import (
	"context"
	"fmt"

	"github.com/sesbridge/sesbridge/internal/domain/opportunity"
)

const opportunityColumns = `id, company_id, title, description, budget, prefecture, active, created_at, updated_at`

func scanOpportunity(row scannable) (*opportunity.Opportunity, error) {
	var o opportunity.Opportunity
	var desc, budget, pref *string
	err := row.Scan(&o.ID, &o.CompanyID, &o.Title, &desc, &budget, &pref,
		&o.Active, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}
	o.Description = emptyIfNull(desc)
	o.Budget = emptyIfNull(budget)
	o.Prefecture = emptyIfNull(pref)
	return &o, nil
}

func (s *Store) CreateOpportunity(ctx context.Context, o *opportunity.Opportunity) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO opportunities (id, company_id, title, description, budget, prefecture, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		o.ID, o.CompanyID, o.Title, nullIfEmpty(o.Description), nullIfEmpty(o.Budget),
		nullIfEmpty(o.Prefecture), o.Active, o.CreatedAt, o.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create opportunity %s: %w", o.Title, err)
	}
	return nil
}

func (s *Store) GetOpportunity(ctx context.Context, id string) (*opportunity.Opportunity, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+opportunityColumns+` FROM opportunities WHERE id = $1`, id)
	o, err := scanOpportunity(row)
	if err != nil {
		return nil, notFoundWrap(err, "get opportunity %s", id)
	}
	return o, nil
}

func (s *Store) ListOpportunities(ctx context.Context, companyID string) ([]opportunity.Opportunity, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+opportunityColumns+` FROM opportunities WHERE company_id = $1 ORDER BY created_at DESC`, companyID)
	if err != nil {
		return nil, fmt.Errorf("list opportunities for company %s: %w", companyID, err)
	}
	defer rows.Close()

	var out []opportunity.Opportunity
	for rows.Next() {
		o, err := scanOpportunity(rows)
		if err != nil {
			return nil, fmt.Errorf("scan opportunity: %w", err)
		}
		out = append(out, *o)
	}
	return out, rows.Err()
}

func (s *Store) UpdateOpportunity(ctx context.Context, o *opportunity.Opportunity) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE opportunities
		SET title = $3, description = $4, budget = $5, prefecture = $6, active = $7, updated_at = $8
		WHERE company_id = $1 AND id = $2`,
		o.CompanyID, o.ID, o.Title, nullIfEmpty(o.Description), nullIfEmpty(o.Budget),
		nullIfEmpty(o.Prefecture), o.Active, o.UpdatedAt)
	return execExpectOne(tag, err, "update opportunity %s", o.ID)
}

func (s *Store) DeleteOpportunity(ctx context.Context, companyID, id string) error {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM opportunities WHERE company_id = $1 AND id = $2`, companyID, id)
	return execExpectOne(tag, err, "delete opportunity %s", id)
}
