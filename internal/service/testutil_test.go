package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/sesbridge/sesbridge/internal/adapter/memory"
	"github.com/sesbridge/sesbridge/internal/config"
	"github.com/sesbridge/sesbridge/internal/domain/company"
	"github.com/sesbridge/sesbridge/internal/domain/opportunity"
	"github.com/sesbridge/sesbridge/internal/domain/talent"
	"github.com/sesbridge/sesbridge/internal/domain/user"
)

func newTestAuthService(store *memory.Store) *AuthService {
	cfg := config.Auth{
		Secret:             "test-secret-key-must-be-long-enough",
		AccessTokenExpiry:  15 * time.Minute,
		RefreshTokenExpiry: 7 * 24 * time.Hour,
		BcryptCost:         bcrypt.MinCost, // fast tests
	}
	return NewAuthService(store, &cfg)
}

func seedCompany(t *testing.T, store *memory.Store, name string, typ company.Type) *company.Company {
	t.Helper()
	now := time.Now()
	c := &company.Company{
		ID:        uuid.NewString(),
		Name:      name,
		Type:      typ,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := store.CreateCompany(context.Background(), c); err != nil {
		t.Fatalf("seed company %s: %v", name, err)
	}
	return c
}

func seedUser(t *testing.T, store *memory.Store, companyID, email string, role user.Role) *user.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	now := time.Now()
	u := &user.User{
		ID:           uuid.NewString(),
		CompanyID:    companyID,
		Email:        email,
		Name:         email,
		PasswordHash: string(hash),
		Role:         role,
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := store.CreateUser(context.Background(), u); err != nil {
		t.Fatalf("seed user %s: %v", email, err)
	}
	return u
}

func seedTalent(t *testing.T, store *memory.Store, companyID, name string) *talent.Talent {
	t.Helper()
	now := time.Now()
	tal := &talent.Talent{
		ID:          uuid.NewString(),
		CompanyID:   companyID,
		Name:        name,
		DesiredRate: "800000",
		Prefecture:  "Tokyo",
		Status:      talent.StatusMarketing,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := store.CreateTalent(context.Background(), tal); err != nil {
		t.Fatalf("seed talent %s: %v", name, err)
	}
	return tal
}

func seedOpportunity(t *testing.T, store *memory.Store, companyID, title string) *opportunity.Opportunity {
	t.Helper()
	now := time.Now()
	o := &opportunity.Opportunity{
		ID:         uuid.NewString(),
		CompanyID:  companyID,
		Title:      title,
		Budget:     "900000",
		Prefecture: "Osaka",
		Active:     true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := store.CreateOpportunity(context.Background(), o); err != nil {
		t.Fatalf("seed opportunity %s: %v", title, err)
	}
	return o
}

func principalOf(u *user.User) *user.Principal {
	return &user.Principal{UserID: u.ID, CompanyID: u.CompanyID, Role: u.Role}
}

// fakeCache is a map-backed cache.Cache that records lookups.
type fakeCache struct {
	mu   sync.Mutex
	data map[string][]byte
	gets int
	hits int
}

func newFakeCache() *fakeCache {
	return &fakeCache{data: make(map[string][]byte)}
}

func (c *fakeCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	v, ok := c.data[key]
	if ok {
		c.hits++
	}
	return v, ok, nil
}

func (c *fakeCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
	return nil
}

func (c *fakeCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	return nil
}
