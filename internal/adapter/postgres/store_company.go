package postgres

import (
	"context"
	"fmt"

	"github.com/sesbridge/sesbridge/internal/domain"
	"github.com/sesbridge/sesbridge/internal/domain/company"
)

const companyColumns = `id, name, domain, company_type, active, created_at, updated_at`

func scanCompany(row scannable) (*company.Company, error) {
	var c company.Company
	var domainName *string
	err := row.Scan(&c.ID, &c.Name, &domainName, &c.Type, &c.Active, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	c.Domain = emptyIfNull(domainName)
	return &c, nil
}

func (s *Store) CreateCompany(ctx context.Context, c *company.Company) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO companies (id, name, domain, company_type, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		c.ID, c.Name, nullIfEmpty(c.Domain), c.Type, c.Active, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return uniqueWrap(err, "create company %s", c.Name)
	}
	return nil
}

func (s *Store) GetCompany(ctx context.Context, id string) (*company.Company, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+companyColumns+` FROM companies WHERE id = $1`, id)
	c, err := scanCompany(row)
	if err != nil {
		return nil, notFoundWrap(err, "get company %s", id)
	}
	return c, nil
}

func (s *Store) ListCompanies(ctx context.Context) ([]company.Company, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+companyColumns+` FROM companies ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list companies: %w", err)
	}
	defer rows.Close()

	var out []company.Company
	for rows.Next() {
		c, err := scanCompany(rows)
		if err != nil {
			return nil, fmt.Errorf("scan company: %w", err)
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

func (s *Store) UpdateCompany(ctx context.Context, c *company.Company) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE companies
		SET name = $2, domain = $3, active = $4, updated_at = $5
		WHERE id = $1`,
		c.ID, c.Name, nullIfEmpty(c.Domain), c.Active, c.UpdatedAt)
	return execExpectOne(tag, err, "update company %s", c.ID)
}

func (s *Store) DeleteCompany(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `
		DELETE FROM companies
		WHERE id = $1
		  AND NOT EXISTS (SELECT 1 FROM users WHERE company_id = $1)`, id)
	if err != nil {
		return fmt.Errorf("delete company %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		// Distinguish a missing company from one that still has members.
		var exists bool
		if err := s.pool.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM companies WHERE id = $1)`, id).Scan(&exists); err != nil {
			return fmt.Errorf("delete company %s: %w", id, err)
		}
		if !exists {
			return fmt.Errorf("delete company %s: %w", id, domain.ErrNotFound)
		}
		return fmt.Errorf("delete company %s: company still has users: %w", id, domain.ErrInvalidState)
	}
	return nil
}
