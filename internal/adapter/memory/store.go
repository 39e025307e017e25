// Package memory provides an in-memory database.Store used by service
// tests and local development. All guards mirror the SQL adapter's
// semantics, including the atomic last-admin and pending-only checks.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/sesbridge/sesbridge/internal/domain"
	"github.com/sesbridge/sesbridge/internal/domain/company"
	"github.com/sesbridge/sesbridge/internal/domain/opportunity"
	"github.com/sesbridge/sesbridge/internal/domain/request"
	"github.com/sesbridge/sesbridge/internal/domain/talent"
	"github.com/sesbridge/sesbridge/internal/domain/user"
	"github.com/sesbridge/sesbridge/internal/port/database"
)

// Store is a mutex-guarded map-backed database.Store.
type Store struct {
	mu            sync.RWMutex
	companies     map[string]company.Company
	users         map[string]user.User
	talents       map[string]talent.Talent
	opportunities map[string]opportunity.Opportunity
	requests      map[string]request.Request
	refreshTokens map[string]user.RefreshToken
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{
		companies:     make(map[string]company.Company),
		users:         make(map[string]user.User),
		talents:       make(map[string]talent.Talent),
		opportunities: make(map[string]opportunity.Opportunity),
		requests:      make(map[string]request.Request),
		refreshTokens: make(map[string]user.RefreshToken),
	}
}

var _ database.Store = (*Store)(nil)

// Companies

func (s *Store) CreateCompany(_ context.Context, c *company.Company) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.companies[c.ID]; ok {
		return fmt.Errorf("create company %s: %w", c.ID, domain.ErrUniqueViolation)
	}
	s.companies[c.ID] = *c
	return nil
}

func (s *Store) GetCompany(_ context.Context, id string) (*company.Company, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.companies[id]
	if !ok {
		return nil, fmt.Errorf("get company %s: %w", id, domain.ErrNotFound)
	}
	return &c, nil
}

func (s *Store) ListCompanies(_ context.Context) ([]company.Company, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]company.Company, 0, len(s.companies))
	for _, c := range s.companies {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *Store) UpdateCompany(_ context.Context, c *company.Company) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.companies[c.ID]; !ok {
		return fmt.Errorf("update company %s: %w", c.ID, domain.ErrNotFound)
	}
	s.companies[c.ID] = *c
	return nil
}

func (s *Store) DeleteCompany(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.companies[id]; !ok {
		return fmt.Errorf("delete company %s: %w", id, domain.ErrNotFound)
	}
	for _, u := range s.users {
		if u.CompanyID == id {
			return fmt.Errorf("delete company %s: company still has users: %w", id, domain.ErrInvalidState)
		}
	}
	delete(s.companies, id)
	return nil
}

// Users

func (s *Store) CreateUser(_ context.Context, u *user.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return fmt.Errorf("create user %s: %w", u.Email, domain.ErrUniqueViolation)
		}
	}
	s.users[u.ID] = *u
	return nil
}

func (s *Store) GetUser(_ context.Context, id string) (*user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, fmt.Errorf("get user %s: %w", id, domain.ErrNotFound)
	}
	return &u, nil
}

func (s *Store) GetUserInCompany(_ context.Context, companyID, id string) (*user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok || u.CompanyID != companyID {
		return nil, fmt.Errorf("get user %s in company %s: %w", id, companyID, domain.ErrNotFound)
	}
	return &u, nil
}

func (s *Store) GetUserByEmail(_ context.Context, email string) (*user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			return &u, nil
		}
	}
	return nil, fmt.Errorf("get user by email %s: %w", email, domain.ErrNotFound)
}

func (s *Store) ListUsers(_ context.Context, companyID string) ([]user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []user.User
	for _, u := range s.users {
		if u.CompanyID == companyID {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) UpdateUser(_ context.Context, u *user.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.users[u.ID]
	if !ok || existing.CompanyID != u.CompanyID {
		return fmt.Errorf("update user %s: %w", u.ID, domain.ErrNotFound)
	}
	s.users[u.ID] = *u
	return nil
}

func (s *Store) CountAdmins(_ context.Context, companyID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.countAdminsLocked(companyID), nil
}

func (s *Store) countAdminsLocked(companyID string) int {
	n := 0
	for _, u := range s.users {
		if u.CompanyID == companyID && u.Role == user.RoleAdmin {
			n++
		}
	}
	return n
}

func (s *Store) DemoteAdminGuarded(_ context.Context, companyID, id string, newRole user.Role) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok || u.CompanyID != companyID {
		return fmt.Errorf("demote admin %s: %w", id, domain.ErrNotFound)
	}
	if u.Role != user.RoleAdmin || s.countAdminsLocked(companyID) <= 1 {
		return fmt.Errorf("demote admin %s: %w", id, domain.ErrLastAdminProtected)
	}
	u.Role = newRole
	u.UpdatedAt = time.Now()
	s.users[id] = u
	return nil
}

func (s *Store) DeleteUserGuarded(_ context.Context, companyID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok || u.CompanyID != companyID {
		return fmt.Errorf("delete user %s: %w", id, domain.ErrNotFound)
	}
	if u.Role == user.RoleAdmin && s.countAdminsLocked(companyID) <= 1 {
		return fmt.Errorf("delete user %s: %w", id, domain.ErrLastAdminProtected)
	}
	delete(s.users, id)
	return nil
}

// Talents

func (s *Store) CreateTalent(_ context.Context, t *talent.Talent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.talents[t.ID] = *t
	return nil
}

func (s *Store) GetTalent(_ context.Context, id string) (*talent.Talent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.talents[id]
	if !ok {
		return nil, fmt.Errorf("get talent %s: %w", id, domain.ErrNotFound)
	}
	return &t, nil
}

func (s *Store) ListTalents(_ context.Context, companyID string) ([]talent.Talent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []talent.Talent
	for _, t := range s.talents {
		if t.CompanyID == companyID {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) UpdateTalent(_ context.Context, t *talent.Talent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.talents[t.ID]
	if !ok || existing.CompanyID != t.CompanyID {
		return fmt.Errorf("update talent %s: %w", t.ID, domain.ErrNotFound)
	}
	s.talents[t.ID] = *t
	return nil
}

func (s *Store) DeleteTalent(_ context.Context, companyID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.talents[id]
	if !ok || t.CompanyID != companyID {
		return fmt.Errorf("delete talent %s: %w", id, domain.ErrNotFound)
	}
	delete(s.talents, id)
	return nil
}

// Opportunities

func (s *Store) CreateOpportunity(_ context.Context, o *opportunity.Opportunity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.opportunities[o.ID] = *o
	return nil
}

func (s *Store) GetOpportunity(_ context.Context, id string) (*opportunity.Opportunity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.opportunities[id]
	if !ok {
		return nil, fmt.Errorf("get opportunity %s: %w", id, domain.ErrNotFound)
	}
	return &o, nil
}

func (s *Store) ListOpportunities(_ context.Context, companyID string) ([]opportunity.Opportunity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []opportunity.Opportunity
	for _, o := range s.opportunities {
		if o.CompanyID == companyID {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) UpdateOpportunity(_ context.Context, o *opportunity.Opportunity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.opportunities[o.ID]
	if !ok || existing.CompanyID != o.CompanyID {
		return fmt.Errorf("update opportunity %s: %w", o.ID, domain.ErrNotFound)
	}
	s.opportunities[o.ID] = *o
	return nil
}

func (s *Store) DeleteOpportunity(_ context.Context, companyID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.opportunities[id]
	if !ok || o.CompanyID != companyID {
		return fmt.Errorf("delete opportunity %s: %w", id, domain.ErrNotFound)
	}
	delete(s.opportunities, id)
	return nil
}

// Requests

func (s *Store) CreateRequest(_ context.Context, r *request.Request) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests[r.ID] = *r
	return nil
}

func (s *Store) GetRequest(_ context.Context, id string) (*request.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.requests[id]
	if !ok {
		return nil, fmt.Errorf("get request %s: %w", id, domain.ErrNotFound)
	}
	return &r, nil
}

func (s *Store) ListInbox(_ context.Context, toCompanyID string, f database.RequestFilter) ([]request.Request, int, error) {
	return s.listRequests(func(r *request.Request) string { return r.ToCompanyID }, toCompanyID, f)
}

func (s *Store) ListSent(_ context.Context, fromCompanyID string, f database.RequestFilter) ([]request.Request, int, error) {
	return s.listRequests(func(r *request.Request) string { return r.FromCompanyID }, fromCompanyID, f)
}

func (s *Store) listRequests(side func(*request.Request) string, companyID string, f database.RequestFilter) ([]request.Request, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var matched []request.Request
	for _, r := range s.requests {
		if side(&r) != companyID {
			continue
		}
		if f.Status != "" && r.Status != f.Status {
			continue
		}
		matched = append(matched, r)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].CreatedAt.After(matched[j].CreatedAt) })

	total := len(matched)
	start := (f.Page - 1) * f.PerPage
	if start >= total {
		return nil, total, nil
	}
	end := start + f.PerPage
	if end > total {
		end = total
	}
	return matched[start:end], total, nil
}

func (s *Store) UpdateRequestIfPending(_ context.Context, id, fromCompanyID string, title, message *string) (*request.Request, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, err := s.pendingLocked(id, fromCompanyID, func(r *request.Request) string { return r.FromCompanyID }, "update request")
	if err != nil {
		return nil, err
	}
	if title != nil {
		r.Title = *title
	}
	if message != nil {
		r.Message = *message
	}
	r.UpdatedAt = time.Now()
	s.requests[id] = *r
	return r, nil
}

func (s *Store) WithdrawRequest(_ context.Context, id, fromCompanyID string) (*request.Request, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, err := s.pendingLocked(id, fromCompanyID, func(r *request.Request) string { return r.FromCompanyID }, "withdraw request")
	if err != nil {
		return nil, err
	}
	r.Status = request.StatusExpired
	r.UpdatedAt = time.Now()
	s.requests[id] = *r
	return r, nil
}

func (s *Store) RespondRequest(_ context.Context, id, toCompanyID string, to request.Status, responseMessage string) (*request.Request, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, err := s.pendingLocked(id, toCompanyID, func(r *request.Request) string { return r.ToCompanyID }, "respond to request")
	if err != nil {
		return nil, err
	}
	now := time.Now()
	r.Status = to
	r.ResponseMessage = responseMessage
	r.RespondedAt = &now
	r.UpdatedAt = now
	s.requests[id] = *r
	return r, nil
}

// pendingLocked fetches a request visible from the caller's side and
// verifies it is still pending. Wrong-side callers get ErrNotFound so
// they cannot probe another company's request status.
func (s *Store) pendingLocked(id, companyID string, side func(*request.Request) string, op string) (*request.Request, error) {
	r, ok := s.requests[id]
	if !ok || side(&r) != companyID {
		return nil, fmt.Errorf("%s %s: %w", op, id, domain.ErrNotFound)
	}
	if r.Status != request.StatusPending {
		return nil, fmt.Errorf("%s %s: status is %s: %w", op, id, r.Status, domain.ErrInvalidState)
	}
	return &r, nil
}

// Refresh tokens

func (s *Store) CreateRefreshToken(_ context.Context, rt *user.RefreshToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refreshTokens[rt.ID] = *rt
	return nil
}

func (s *Store) GetRefreshTokenByHash(_ context.Context, hash string) (*user.RefreshToken, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, rt := range s.refreshTokens {
		if rt.TokenHash == hash {
			return &rt, nil
		}
	}
	return nil, fmt.Errorf("get refresh token: %w", domain.ErrNotFound)
}

func (s *Store) DeleteRefreshToken(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.refreshTokens[id]; !ok {
		return fmt.Errorf("delete refresh token %s: %w", id, domain.ErrNotFound)
	}
	delete(s.refreshTokens, id)
	return nil
}

func (s *Store) DeleteRefreshTokensForUser(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, rt := range s.refreshTokens {
		if rt.UserID == userID {
			delete(s.refreshTokens, id)
		}
	}
	return nil
}
