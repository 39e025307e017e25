// Package database defines the database store port (interface).
package database

import (
	"context"

	"github.com/sesbridge/sesbridge/internal/domain/company"
	"github.com/sesbridge/sesbridge/internal/domain/opportunity"
	"github.com/sesbridge/sesbridge/internal/domain/request"
	"github.com/sesbridge/sesbridge/internal/domain/talent"
	"github.com/sesbridge/sesbridge/internal/domain/user"
)

// RequestFilter narrows request listings. Status empty means no status
// predicate. Results are always ordered by creation time descending.
type RequestFilter struct {
	Status  request.Status
	Page    int
	PerPage int
}

// Store is the port interface for database operations. Implementations
// must serialize conflicting writes to the same row: the guarded and
// transition methods below are single-statement conditional updates, not
// read-then-write sequences.
type Store interface {
	// Companies
	CreateCompany(ctx context.Context, c *company.Company) error
	GetCompany(ctx context.Context, id string) (*company.Company, error)
	ListCompanies(ctx context.Context) ([]company.Company, error)
	UpdateCompany(ctx context.Context, c *company.Company) error
	// DeleteCompany fails while the company still has users.
	DeleteCompany(ctx context.Context, id string) error

	// Users
	CreateUser(ctx context.Context, u *user.User) error
	GetUser(ctx context.Context, id string) (*user.User, error)
	GetUserInCompany(ctx context.Context, companyID, id string) (*user.User, error)
	GetUserByEmail(ctx context.Context, email string) (*user.User, error)
	ListUsers(ctx context.Context, companyID string) ([]user.User, error)
	UpdateUser(ctx context.Context, u *user.User) error
	CountAdmins(ctx context.Context, companyID string) (int, error)
	// DemoteAdminGuarded changes an admin's role away from admin only if the
	// company retains at least one other admin, atomically with the count.
	// Returns domain.ErrLastAdminProtected when the target is the last admin.
	DemoteAdminGuarded(ctx context.Context, companyID, id string, newRole user.Role) error
	// DeleteUserGuarded removes a user; when the target is an admin the
	// delete only succeeds if another admin remains, atomically with the
	// count. Returns domain.ErrLastAdminProtected otherwise.
	DeleteUserGuarded(ctx context.Context, companyID, id string) error

	// Talents
	CreateTalent(ctx context.Context, t *talent.Talent) error
	GetTalent(ctx context.Context, id string) (*talent.Talent, error)
	ListTalents(ctx context.Context, companyID string) ([]talent.Talent, error)
	UpdateTalent(ctx context.Context, t *talent.Talent) error
	DeleteTalent(ctx context.Context, companyID, id string) error

	// Opportunities
	CreateOpportunity(ctx context.Context, o *opportunity.Opportunity) error
	GetOpportunity(ctx context.Context, id string) (*opportunity.Opportunity, error)
	ListOpportunities(ctx context.Context, companyID string) ([]opportunity.Opportunity, error)
	UpdateOpportunity(ctx context.Context, o *opportunity.Opportunity) error
	DeleteOpportunity(ctx context.Context, companyID, id string) error

	// Requests
	CreateRequest(ctx context.Context, r *request.Request) error
	GetRequest(ctx context.Context, id string) (*request.Request, error)
	ListInbox(ctx context.Context, toCompanyID string, f RequestFilter) ([]request.Request, int, error)
	ListSent(ctx context.Context, fromCompanyID string, f RequestFilter) ([]request.Request, int, error)
	// UpdateRequestIfPending rewrites title/message only while the record is
	// still pending, atomically with the status check. Returns
	// domain.ErrInvalidState when the record is no longer pending.
	UpdateRequestIfPending(ctx context.Context, id, fromCompanyID string, title, message *string) (*request.Request, error)
	// WithdrawRequest moves a pending request owned by fromCompanyID to
	// expired, atomically with the status precondition. Returns
	// domain.ErrInvalidState when the record is no longer pending.
	WithdrawRequest(ctx context.Context, id, fromCompanyID string) (*request.Request, error)
	// RespondRequest moves a pending request addressed to toCompanyID to
	// accepted or declined and stores the optional response message,
	// atomically with the status precondition. Returns
	// domain.ErrInvalidState when the record is no longer pending.
	RespondRequest(ctx context.Context, id, toCompanyID string, to request.Status, responseMessage string) (*request.Request, error)

	// Refresh tokens
	CreateRefreshToken(ctx context.Context, rt *user.RefreshToken) error
	GetRefreshTokenByHash(ctx context.Context, hash string) (*user.RefreshToken, error)
	DeleteRefreshToken(ctx context.Context, id string) error
	DeleteRefreshTokensForUser(ctx context.Context, userID string) error
}
