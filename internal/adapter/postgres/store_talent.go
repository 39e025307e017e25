package postgres

import (
	"context"
	"fmt"

	"github.com/sesbridge/sesbridge/internal/domain/talent"
)

const talentColumns = `id, company_id, name, desired_rate, prefecture, status, skill_sheet_ref, portfolio_ref, created_at, updated_at`

func scanTalent(row scannable) (*talent.Talent, error) {
	var t talent.Talent
	var rate, pref, sheet, portfolio *string
	err := row.Scan(&t.ID, &t.CompanyID, &t.Name, &rate, &pref, &t.Status,
		&sheet, &portfolio, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	t.DesiredRate = emptyIfNull(rate)
	t.Prefecture = emptyIfNull(pref)
	t.SkillSheetRef = emptyIfNull(sheet)
	t.PortfolioRef = emptyIfNull(portfolio)
	return &t, nil
}

func (s *Store) CreateTalent(ctx context.Context, t *talent.Talent) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO talents (id, company_id, name, desired_rate, prefecture, status, skill_sheet_ref, portfolio_ref, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		t.ID, t.CompanyID, t.Name, nullIfEmpty(t.DesiredRate), nullIfEmpty(t.Prefecture),
		t.Status, nullIfEmpty(t.SkillSheetRef), nullIfEmpty(t.PortfolioRef), t.CreatedAt, t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create talent %s: %w", t.Name, err)
	}
	return nil
}

func (s *Store) GetTalent(ctx context.Context, id string) (*talent.Talent, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+talentColumns+` FROM talents WHERE id = $1`, id)
	t, err := scanTalent(row)
	if err != nil {
		return nil, notFoundWrap(err, "get talent %s", id)
	}
	return t, nil
}

func (s *Store) ListTalents(ctx context.Context, companyID string) ([]talent.Talent, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+talentColumns+` FROM talents WHERE company_id = $1 ORDER BY created_at DESC`, companyID)
	if err != nil {
		return nil, fmt.Errorf("list talents for company %s: %w", companyID, err)
	}
	defer rows.Close()

	var out []talent.Talent
	for rows.Next() {
		t, err := scanTalent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan talent: %w", err)
		}
		out = append(out, *t)
	}
	return out, rows.Err()
}

func (s *Store) UpdateTalent(ctx context.Context, t *talent.Talent) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE talents
		SET name = $3, desired_rate = $4, prefecture = $5, status = $6,
		    skill_sheet_ref = $7, portfolio_ref = $8, updated_at = $9
		WHERE company_id = $1 AND id = $2`,
		t.CompanyID, t.ID, t.Name, nullIfEmpty(t.DesiredRate), nullIfEmpty(t.Prefecture),
		t.Status, nullIfEmpty(t.SkillSheetRef), nullIfEmpty(t.PortfolioRef), t.UpdatedAt)
	return execExpectOne(tag, err, "update talent %s", t.ID)
}

func (s *Store) DeleteTalent(ctx context.Context, companyID, id string) error {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM talents WHERE company_id = $1 AND id = $2`, companyID, id)
	return execExpectOne(tag, err, "delete talent %s", id)
}
