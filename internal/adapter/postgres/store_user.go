package postgres

import (
	"context"
	"fmt"
	"slices"

	"github.com/jackc/pgx/v5"

	"github.com/sesbridge/sesbridge/internal/domain"
	"github.com/sesbridge/sesbridge/internal/domain/user"
)

const userColumns = `id, company_id, email, name, password_hash, role, active, created_at, updated_at`

func scanUser(row scannable) (*user.User, error) {
	var u user.User
	err := row.Scan(&u.ID, &u.CompanyID, &u.Email, &u.Name, &u.PasswordHash,
		&u.Role, &u.Active, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *Store) CreateUser(ctx context.Context, u *user.User) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO users (id, company_id, email, name, password_hash, role, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		u.ID, u.CompanyID, u.Email, u.Name, u.PasswordHash, u.Role, u.Active, u.CreatedAt, u.UpdatedAt)
	if err != nil {
		return uniqueWrap(err, "create user %s", u.Email)
	}
	return nil
}

func (s *Store) GetUser(ctx context.Context, id string) (*user.User, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	u, err := scanUser(row)
	if err != nil {
		return nil, notFoundWrap(err, "get user %s", id)
	}
	return u, nil
}

func (s *Store) GetUserInCompany(ctx context.Context, companyID, id string) (*user.User, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE company_id = $1 AND id = $2`, companyID, id)
	u, err := scanUser(row)
	if err != nil {
		return nil, notFoundWrap(err, "get user %s in company %s", id, companyID)
	}
	return u, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*user.User, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	u, err := scanUser(row)
	if err != nil {
		return nil, notFoundWrap(err, "get user by email %s", email)
	}
	return u, nil
}

func (s *Store) ListUsers(ctx context.Context, companyID string) ([]user.User, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+userColumns+` FROM users WHERE company_id = $1 ORDER BY created_at`, companyID)
	if err != nil {
		return nil, fmt.Errorf("list users for company %s: %w", companyID, err)
	}
	defer rows.Close()

	var out []user.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		out = append(out, *u)
	}
	return out, rows.Err()
}

func (s *Store) UpdateUser(ctx context.Context, u *user.User) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE users
		SET email = $3, name = $4, password_hash = $5, role = $6, active = $7, updated_at = $8
		WHERE company_id = $1 AND id = $2`,
		u.CompanyID, u.ID, u.Email, u.Name, u.PasswordHash, u.Role, u.Active, u.UpdatedAt)
	return execExpectOne(tag, err, "update user %s", u.ID)
}

func (s *Store) CountAdmins(ctx context.Context, companyID string) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM users WHERE company_id = $1 AND role = 'admin'`, companyID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count admins for company %s: %w", companyID, err)
	}
	return n, nil
}

// lockCompanyAdmins row-locks every admin of a company in a stable order
// and returns their ids. Every admin-set mutation takes these locks
// before counting, so two sessions removing different admins serialize
// instead of each passing a stale count under READ COMMITTED.
func lockCompanyAdmins(ctx context.Context, tx pgx.Tx, companyID string) ([]string, error) {
	rows, err := tx.Query(ctx,
		`SELECT id FROM users WHERE company_id = $1 AND role = 'admin' ORDER BY id FOR UPDATE`,
		companyID)
	if err != nil {
		return nil, fmt.Errorf("lock admins for company %s: %w", companyID, err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan admin id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// DemoteAdminGuarded moves an admin to a lower role. The admin rows are
// locked and counted in the same transaction as the role change, so the
// last admin can never be demoted, concurrency included.
func (s *Store) DemoteAdminGuarded(ctx context.Context, companyID, id string, newRole user.Role) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("demote admin %s: begin tx: %w", id, err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	admins, err := lockCompanyAdmins(ctx, tx, companyID)
	if err != nil {
		return fmt.Errorf("demote admin %s: %w", id, err)
	}
	if !slices.Contains(admins, id) {
		return s.refineAdminGuardFailure(ctx, companyID, id, "demote admin")
	}
	if len(admins) == 1 {
		return fmt.Errorf("demote admin %s: %w", id, domain.ErrLastAdminProtected)
	}

	tag, err := tx.Exec(ctx, `
		UPDATE users
		SET role = $3, updated_at = NOW()
		WHERE company_id = $1 AND id = $2`,
		companyID, id, newRole)
	if err := execExpectOne(tag, err, "demote admin %s", id); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("demote admin %s: commit: %w", id, err)
	}
	return nil
}

// DeleteUserGuarded deletes a user. Deleting an admin takes the same
// admin-set locks as DemoteAdminGuarded, so the count the guard sees is
// the count the delete commits against.
func (s *Store) DeleteUserGuarded(ctx context.Context, companyID, id string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("delete user %s: begin tx: %w", id, err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	admins, err := lockCompanyAdmins(ctx, tx, companyID)
	if err != nil {
		return fmt.Errorf("delete user %s: %w", id, err)
	}
	if len(admins) == 1 && admins[0] == id {
		return fmt.Errorf("delete user %s: %w", id, domain.ErrLastAdminProtected)
	}

	tag, err := tx.Exec(ctx,
		`DELETE FROM users WHERE company_id = $1 AND id = $2`, companyID, id)
	if err := execExpectOne(tag, err, "delete user %s", id); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("delete user %s: commit: %w", id, err)
	}
	return nil
}

// refineAdminGuardFailure distinguishes a missing row from a last-admin
// denial when the target was not found among the company's admins.
func (s *Store) refineAdminGuardFailure(ctx context.Context, companyID, id, op string) error {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM users WHERE company_id = $1 AND id = $2)`,
		companyID, id).Scan(&exists)
	if err != nil {
		return fmt.Errorf("%s %s: %w", op, id, err)
	}
	if !exists {
		return fmt.Errorf("%s %s: %w", op, id, domain.ErrNotFound)
	}
	return fmt.Errorf("%s %s: %w", op, id, domain.ErrLastAdminProtected)
}
