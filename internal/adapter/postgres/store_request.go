package postgres

import (
	"context"
	"fmt"

	"github.com/sesbridge/sesbridge/internal/domain"
	"github.com/sesbridge/sesbridge/internal/domain/request"
	"github.com/sesbridge/sesbridge/internal/port/database"
)

const requestColumns = `id, kind, from_company_id, from_user_id, to_company_id, subject_id,
	offered_talent_id, title, message, status, response_message, responded_at, created_at, updated_at`

func scanRequest(row scannable) (*request.Request, error) {
	var r request.Request
	var offered, title, response *string
	err := row.Scan(&r.ID, &r.Kind, &r.FromCompanyID, &r.FromUserID, &r.ToCompanyID,
		&r.SubjectID, &offered, &title, &r.Message, &r.Status, &response,
		&r.RespondedAt, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return nil, err
	}
	r.OfferedTalentID = emptyIfNull(offered)
	r.Title = emptyIfNull(title)
	r.ResponseMessage = emptyIfNull(response)
	return &r, nil
}

func (s *Store) CreateRequest(ctx context.Context, r *request.Request) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO requests (id, kind, from_company_id, from_user_id, to_company_id, subject_id,
			offered_talent_id, title, message, status, response_message, responded_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		r.ID, r.Kind, r.FromCompanyID, r.FromUserID, r.ToCompanyID, r.SubjectID,
		nullIfEmpty(r.OfferedTalentID), nullIfEmpty(r.Title), r.Message, r.Status,
		nullIfEmpty(r.ResponseMessage), r.RespondedAt, r.CreatedAt, r.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	return nil
}

func (s *Store) GetRequest(ctx context.Context, id string) (*request.Request, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+requestColumns+` FROM requests WHERE id = $1`, id)
	r, err := scanRequest(row)
	if err != nil {
		return nil, notFoundWrap(err, "get request %s", id)
	}
	return r, nil
}

func (s *Store) ListInbox(ctx context.Context, toCompanyID string, f database.RequestFilter) ([]request.Request, int, error) {
	return s.listRequests(ctx, "to_company_id", toCompanyID, f)
}

func (s *Store) ListSent(ctx context.Context, fromCompanyID string, f database.RequestFilter) ([]request.Request, int, error) {
	return s.listRequests(ctx, "from_company_id", fromCompanyID, f)
}

func (s *Store) listRequests(ctx context.Context, sideColumn, companyID string, f database.RequestFilter) ([]request.Request, int, error) {
	where := sideColumn + ` = $1`
	args := []any{companyID}
	if f.Status != "" {
		where += ` AND status = $2`
		args = append(args, f.Status)
	}

	var total int
	err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM requests WHERE `+where, args...).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("count requests for company %s: %w", companyID, err)
	}

	offset := (f.Page - 1) * f.PerPage
	limitArgs := append(args, f.PerPage, offset)
	query := fmt.Sprintf(`SELECT %s FROM requests WHERE %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		requestColumns, where, len(args)+1, len(args)+2)
	rows, err := s.pool.Query(ctx, query, limitArgs...)
	if err != nil {
		return nil, 0, fmt.Errorf("list requests for company %s: %w", companyID, err)
	}
	defer rows.Close()

	var out []request.Request
	for rows.Next() {
		r, err := scanRequest(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan request: %w", err)
		}
		out = append(out, *r)
	}
	return out, total, rows.Err()
}

func (s *Store) UpdateRequestIfPending(ctx context.Context, id, fromCompanyID string, title, message *string) (*request.Request, error) {
	row := s.pool.QueryRow(ctx, `
		UPDATE requests
		SET title = COALESCE($3, title),
		    message = COALESCE($4, message),
		    updated_at = NOW()
		WHERE id = $1 AND from_company_id = $2 AND status = 'pending'
		RETURNING `+requestColumns,
		id, fromCompanyID, title, message)
	r, err := scanRequest(row)
	if err != nil {
		return nil, s.refineTransitionFailure(ctx, err, id, fromCompanyID, "from_company_id", "update request")
	}
	return r, nil
}

func (s *Store) WithdrawRequest(ctx context.Context, id, fromCompanyID string) (*request.Request, error) {
	row := s.pool.QueryRow(ctx, `
		UPDATE requests
		SET status = 'expired', updated_at = NOW()
		WHERE id = $1 AND from_company_id = $2 AND status = 'pending'
		RETURNING `+requestColumns,
		id, fromCompanyID)
	r, err := scanRequest(row)
	if err != nil {
		return nil, s.refineTransitionFailure(ctx, err, id, fromCompanyID, "from_company_id", "withdraw request")
	}
	return r, nil
}

func (s *Store) RespondRequest(ctx context.Context, id, toCompanyID string, to request.Status, responseMessage string) (*request.Request, error) {
	row := s.pool.QueryRow(ctx, `
		UPDATE requests
		SET status = $3, response_message = $4, responded_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND to_company_id = $2 AND status = 'pending'
		RETURNING `+requestColumns,
		id, toCompanyID, to, nullIfEmpty(responseMessage))
	r, err := scanRequest(row)
	if err != nil {
		return nil, s.refineTransitionFailure(ctx, err, id, toCompanyID, "to_company_id", "respond to request")
	}
	return r, nil
}

// refineTransitionFailure runs after a conditional transition matched
// nothing. A row that exists on the caller's side but is past pending
// yields ErrInvalidState; anything else is ErrNotFound, so a caller on
// the wrong side of a request cannot probe its status.
func (s *Store) refineTransitionFailure(ctx context.Context, cause error, id, companyID, sideColumn, op string) error {
	var status request.Status
	err := s.pool.QueryRow(ctx,
		`SELECT status FROM requests WHERE id = $1 AND `+sideColumn+` = $2`,
		id, companyID).Scan(&status)
	if err != nil {
		return notFoundWrap(cause, "%s %s", op, id)
	}
	return fmt.Errorf("%s %s: status is %s: %w", op, id, status, domain.ErrInvalidState)
}
