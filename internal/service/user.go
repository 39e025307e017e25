package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/sesbridge/sesbridge/internal/domain"
	"github.com/sesbridge/sesbridge/internal/domain/user"
	"github.com/sesbridge/sesbridge/internal/port/database"
)

// UserService manages member accounts within a company. Mutations of
// existing accounts run through the role hierarchy guard; the last-admin
// invariant is enforced atomically by the store.
type UserService struct {
	store database.Store
	auth  *AuthService
}

// NewUserService creates a new user service.
func NewUserService(store database.Store, auth *AuthService) *UserService {
	return &UserService{store: store, auth: auth}
}

// Create registers a new user in the company. Any role may be assigned,
// admin included: the hierarchy guard protects existing admin accounts,
// adding admins is unrestricted.
func (s *UserService) Create(ctx context.Context, _ *user.Principal, companyID string, req *user.CreateRequest) (*user.User, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrValidation, err)
	}

	hash, err := s.auth.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	u := &user.User{
		ID:           uuid.NewString(),
		CompanyID:    companyID,
		Email:        req.Email,
		Name:         req.Name,
		PasswordHash: hash,
		Role:         req.Role,
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.store.CreateUser(ctx, u); err != nil {
		return nil, err
	}

	slog.Info("user created", "user_id", u.ID, "company_id", companyID, "role", u.Role)
	return u, nil
}

// Get returns a user within the given company. Managers cannot view
// admin accounts; the denial is reported as not-found to avoid leaking
// which accounts exist above the caller.
func (s *UserService) Get(ctx context.Context, acting *user.Principal, companyID, id string) (*user.User, error) {
	target, err := s.store.GetUserInCompany(ctx, companyID, id)
	if err != nil {
		return nil, err
	}
	if err := user.CheckView(acting, target); err != nil {
		return nil, domain.ErrNotFound
	}
	return target, nil
}

// List returns the users of a company visible to the acting principal.
// Admin accounts are filtered out of a manager's listing.
func (s *UserService) List(ctx context.Context, acting *user.Principal, companyID string) ([]user.User, error) {
	users, err := s.store.ListUsers(ctx, companyID)
	if err != nil {
		return nil, err
	}
	if acting.Role != user.RoleManager {
		return users, nil
	}
	visible := users[:0]
	for _, u := range users {
		if user.CheckView(acting, &u) == nil {
			visible = append(visible, u)
		}
	}
	return visible, nil
}

// Update applies the updatable fields to a user, subject to the role
// hierarchy guard. Demoting an admin goes through the guarded store path
// so the last-admin check is atomic with the role change.
func (s *UserService) Update(ctx context.Context, acting *user.Principal, companyID, id string, req *user.UpdateRequest) (*user.User, error) {
	target, err := s.store.GetUserInCompany(ctx, companyID, id)
	if err != nil {
		return nil, err
	}

	if req.Role != "" && !user.ValidRoles[req.Role] {
		return nil, fmt.Errorf("%w: invalid role %q", domain.ErrValidation, req.Role)
	}

	change := user.Mutation{NewRole: req.Role}
	if err := user.CheckMutation(acting, target, change); err != nil {
		return nil, err
	}

	if change.IsAdminDemotion(target) {
		if err := s.store.DemoteAdminGuarded(ctx, companyID, id, req.Role); err != nil {
			return nil, err
		}
		target.Role = req.Role
	} else if req.Role != "" {
		target.Role = req.Role
	}

	if req.Name != "" {
		target.Name = req.Name
	}
	if req.Email != "" {
		target.Email = req.Email
	}
	if req.Active != nil {
		target.Active = *req.Active
	}
	target.UpdatedAt = time.Now()

	if err := s.store.UpdateUser(ctx, target); err != nil {
		return nil, err
	}

	slog.Info("user updated", "user_id", id, "company_id", companyID, "role", target.Role)
	return target, nil
}

// Delete removes a user, subject to the role hierarchy guard and the
// atomic last-admin protection. The user's sessions die with the account.
func (s *UserService) Delete(ctx context.Context, acting *user.Principal, companyID, id string) error {
	target, err := s.store.GetUserInCompany(ctx, companyID, id)
	if err != nil {
		return err
	}

	if err := user.CheckMutation(acting, target, user.Mutation{Delete: true}); err != nil {
		return err
	}

	if err := s.store.DeleteUserGuarded(ctx, companyID, id); err != nil {
		return err
	}

	if err := s.store.DeleteRefreshTokensForUser(ctx, id); err != nil {
		slog.Warn("failed to delete refresh tokens for removed user", "user_id", id, "error", err)
	}

	slog.Info("user deleted", "user_id", id, "company_id", companyID)
	return nil
}
