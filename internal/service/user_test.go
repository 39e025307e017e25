package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/sesbridge/sesbridge/internal/adapter/memory"
	"github.com/sesbridge/sesbridge/internal/domain"
	"github.com/sesbridge/sesbridge/internal/domain/company"
	"github.com/sesbridge/sesbridge/internal/domain/user"
)

func newTestUserService(store *memory.Store) *UserService {
	return NewUserService(store, newTestAuthService(store))
}

func TestUserService_CreateByManager(t *testing.T) {
	store := memory.NewStore()
	svc := newTestUserService(store)
	ctx := context.Background()
	c := seedCompany(t, store, "acme", company.TypeSES)
	manager := seedUser(t, store, c.ID, "manager@acme.test", user.RoleManager)

	// A manager may create users of any role.
	u, err := svc.Create(ctx, principalOf(manager), c.ID, &user.CreateRequest{
		Email:    "new@acme.test",
		Name:     "New User",
		Password: "password123",
		Role:     user.RoleMember,
	})
	if err != nil {
		t.Fatalf("create member: %v", err)
	}
	if u.CompanyID != c.ID {
		t.Errorf("company = %q, want %q", u.CompanyID, c.ID)
	}

	// Adding admins is unrestricted; the hierarchy guard protects only
	// existing admin accounts.
	boss, err := svc.Create(ctx, principalOf(manager), c.ID, &user.CreateRequest{
		Email:    "boss@acme.test",
		Name:     "Boss",
		Password: "password123",
		Role:     user.RoleAdmin,
	})
	if err != nil {
		t.Fatalf("create admin: %v", err)
	}
	if boss.Role != user.RoleAdmin {
		t.Errorf("role = %q, want admin", boss.Role)
	}

	// But the manager still cannot touch the admin it just created.
	_, err = svc.Update(ctx, principalOf(manager), c.ID, boss.ID, &user.UpdateRequest{Name: "renamed"})
	if !errors.Is(err, domain.ErrManagerCannotTouchAdmin) {
		t.Errorf("update created admin error = %v, want ErrManagerCannotTouchAdmin", err)
	}
}

func TestUserService_ManagerCannotTouchAdmin(t *testing.T) {
	store := memory.NewStore()
	svc := newTestUserService(store)
	ctx := context.Background()
	c := seedCompany(t, store, "acme", company.TypeSES)
	admin := seedUser(t, store, c.ID, "admin@acme.test", user.RoleAdmin)
	manager := seedUser(t, store, c.ID, "manager@acme.test", user.RoleManager)

	_, err := svc.Update(ctx, principalOf(manager), c.ID, admin.ID, &user.UpdateRequest{Name: "renamed"})
	if !errors.Is(err, domain.ErrManagerCannotTouchAdmin) {
		t.Errorf("update error = %v, want ErrManagerCannotTouchAdmin", err)
	}

	err = svc.Delete(ctx, principalOf(manager), c.ID, admin.ID)
	if !errors.Is(err, domain.ErrManagerCannotTouchAdmin) {
		t.Errorf("delete error = %v, want ErrManagerCannotTouchAdmin", err)
	}
}

func TestUserService_ManagerCannotViewAdmin(t *testing.T) {
	store := memory.NewStore()
	svc := newTestUserService(store)
	ctx := context.Background()
	c := seedCompany(t, store, "acme", company.TypeSES)
	admin := seedUser(t, store, c.ID, "admin@acme.test", user.RoleAdmin)
	manager := seedUser(t, store, c.ID, "manager@acme.test", user.RoleManager)
	member := seedUser(t, store, c.ID, "member@acme.test", user.RoleMember)

	// Admins are reported as not-found, not forbidden, so a manager
	// cannot probe which accounts outrank it.
	if _, err := svc.Get(ctx, principalOf(manager), c.ID, admin.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("manager get admin error = %v, want ErrNotFound", err)
	}
	if _, err := svc.Get(ctx, principalOf(manager), c.ID, member.ID); err != nil {
		t.Errorf("manager get member: %v", err)
	}
	if _, err := svc.Get(ctx, principalOf(manager), c.ID, manager.ID); err != nil {
		t.Errorf("manager get self: %v", err)
	}

	// Listings hide admins from a manager but not from an admin.
	listed, err := svc.List(ctx, principalOf(manager), c.ID)
	if err != nil {
		t.Fatalf("manager list: %v", err)
	}
	for _, u := range listed {
		if u.Role == user.RoleAdmin {
			t.Errorf("manager listing contains admin %s", u.Email)
		}
	}
	if len(listed) != 2 {
		t.Errorf("manager listing = %d users, want 2", len(listed))
	}

	all, err := svc.List(ctx, principalOf(admin), c.ID)
	if err != nil {
		t.Fatalf("admin list: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("admin listing = %d users, want 3", len(all))
	}
}

func TestUserService_CannotDeleteSelf(t *testing.T) {
	store := memory.NewStore()
	svc := newTestUserService(store)
	c := seedCompany(t, store, "acme", company.TypeSES)
	seedUser(t, store, c.ID, "other-admin@acme.test", user.RoleAdmin)
	admin := seedUser(t, store, c.ID, "admin@acme.test", user.RoleAdmin)

	err := svc.Delete(context.Background(), principalOf(admin), c.ID, admin.ID)
	if !errors.Is(err, domain.ErrCannotDeleteSelf) {
		t.Errorf("error = %v, want ErrCannotDeleteSelf", err)
	}
}

func TestUserService_LastAdminProtection(t *testing.T) {
	store := memory.NewStore()
	svc := newTestUserService(store)
	ctx := context.Background()
	c := seedCompany(t, store, "acme", company.TypeSES)
	admin := seedUser(t, store, c.ID, "admin@acme.test", user.RoleAdmin)
	second := seedUser(t, store, c.ID, "second@acme.test", user.RoleAdmin)

	// With two admins, demotion succeeds.
	u, err := svc.Update(ctx, principalOf(admin), c.ID, second.ID, &user.UpdateRequest{Role: user.RoleMember})
	if err != nil {
		t.Fatalf("demote second admin: %v", err)
	}
	if u.Role != user.RoleMember {
		t.Errorf("role = %q, want member", u.Role)
	}

	// The remaining admin can neither be demoted nor deleted.
	_, err = svc.Update(ctx, principalOf(admin), c.ID, admin.ID, &user.UpdateRequest{Role: user.RoleManager})
	if !errors.Is(err, domain.ErrLastAdminProtected) {
		t.Errorf("demote last admin error = %v, want ErrLastAdminProtected", err)
	}

	// second still holds an admin session token, but the live count in
	// the store decides: the last admin cannot be deleted.
	err = svc.Delete(ctx, principalOf(second), c.ID, admin.ID)
	if !errors.Is(err, domain.ErrLastAdminProtected) {
		t.Errorf("delete last admin error = %v, want ErrLastAdminProtected", err)
	}
}

func TestUserService_ConcurrentDemotionsKeepOneAdmin(t *testing.T) {
	store := memory.NewStore()
	svc := newTestUserService(store)
	ctx := context.Background()
	c := seedCompany(t, store, "acme", company.TypeSES)
	a := seedUser(t, store, c.ID, "a@acme.test", user.RoleAdmin)
	b := seedUser(t, store, c.ID, "b@acme.test", user.RoleAdmin)

	// Each admin demotes the other. The guard counts admins under the
	// same lock as the role change, so whichever write lands second must
	// see a single remaining admin and be denied.
	var wg sync.WaitGroup
	errs := make([]error, 2)
	demote := func(i int, acting, target *user.User) {
		defer wg.Done()
		_, errs[i] = svc.Update(ctx, principalOf(acting), c.ID, target.ID,
			&user.UpdateRequest{Role: user.RoleManager})
	}
	wg.Add(2)
	go demote(0, a, b)
	go demote(1, b, a)
	wg.Wait()

	var denied int
	for _, err := range errs {
		switch {
		case err == nil:
		case errors.Is(err, domain.ErrLastAdminProtected):
			denied++
		default:
			t.Fatalf("unexpected demotion error: %v", err)
		}
	}
	if denied != 1 {
		t.Fatalf("denied = %d of 2 concurrent demotions, want exactly 1", denied)
	}
	if n, err := store.CountAdmins(ctx, c.ID); err != nil || n != 1 {
		t.Errorf("admins remaining = %d (err %v), want 1", n, err)
	}
}

func TestUserService_OnlyAdminMayDemote(t *testing.T) {
	store := memory.NewStore()
	svc := newTestUserService(store)
	c := seedCompany(t, store, "acme", company.TypeSES)
	seedUser(t, store, c.ID, "a1@acme.test", user.RoleAdmin)
	target := seedUser(t, store, c.ID, "a2@acme.test", user.RoleAdmin)
	member := seedUser(t, store, c.ID, "m@acme.test", user.RoleMember)

	_, err := svc.Update(context.Background(), principalOf(member), c.ID, target.ID,
		&user.UpdateRequest{Role: user.RoleMember})
	if !errors.Is(err, domain.ErrOnlyAdminMayDemote) {
		t.Errorf("error = %v, want ErrOnlyAdminMayDemote", err)
	}
}

func TestUserService_DeleteRemovesSessions(t *testing.T) {
	store := memory.NewStore()
	svc := newTestUserService(store)
	auth := newTestAuthService(store)
	ctx := context.Background()
	c := seedCompany(t, store, "acme", company.TypeSES)
	admin := seedUser(t, store, c.ID, "admin@acme.test", user.RoleAdmin)
	member := seedUser(t, store, c.ID, "member@acme.test", user.RoleMember)

	_, rawRefresh, err := auth.Login(ctx, user.LoginRequest{
		Email:    "member@acme.test",
		Password: "password123",
	})
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	if err := svc.Delete(ctx, principalOf(admin), c.ID, member.ID); err != nil {
		t.Fatalf("delete member: %v", err)
	}

	if _, _, err := auth.RefreshTokens(ctx, rawRefresh); err == nil {
		t.Error("refresh token survived account deletion")
	}
}
