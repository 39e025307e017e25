package service

import (
	"context"
	"testing"

	"github.com/sesbridge/sesbridge/internal/adapter/memory"
	"github.com/sesbridge/sesbridge/internal/domain/company"
	"github.com/sesbridge/sesbridge/internal/domain/user"
)

func TestAuthService_LoginAndValidate(t *testing.T) {
	store := memory.NewStore()
	svc := newTestAuthService(store)
	ctx := context.Background()

	c := seedCompany(t, store, "acme", company.TypeSES)
	u := seedUser(t, store, c.ID, "alice@acme.test", user.RoleAdmin)

	resp, rawRefresh, err := svc.Login(ctx, user.LoginRequest{
		Email:    "alice@acme.test",
		Password: "password123",
	})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if resp.AccessToken == "" {
		t.Error("access token is empty")
	}
	if rawRefresh == "" {
		t.Error("refresh token is empty")
	}

	claims, err := svc.ValidateAccessToken(resp.AccessToken)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if claims.UserID != u.ID {
		t.Errorf("claims.UserID = %q, want %q", claims.UserID, u.ID)
	}
	if claims.CompanyID != c.ID {
		t.Errorf("claims.CompanyID = %q, want %q", claims.CompanyID, c.ID)
	}
	if claims.Role != user.RoleAdmin {
		t.Errorf("claims.Role = %q, want admin", claims.Role)
	}

	p := claims.Principal()
	if p.CompanyID != c.ID || p.UserID != u.ID {
		t.Errorf("principal = %+v, want user %s of company %s", p, u.ID, c.ID)
	}
}

func TestAuthService_LoginWrongPassword(t *testing.T) {
	store := memory.NewStore()
	svc := newTestAuthService(store)
	c := seedCompany(t, store, "acme", company.TypeSES)
	seedUser(t, store, c.ID, "alice@acme.test", user.RoleAdmin)

	_, _, err := svc.Login(context.Background(), user.LoginRequest{
		Email:    "alice@acme.test",
		Password: "wrong-password",
	})
	if err == nil {
		t.Fatal("login with wrong password succeeded")
	}

	_, _, err = svc.Login(context.Background(), user.LoginRequest{
		Email:    "nobody@acme.test",
		Password: "password123",
	})
	if err == nil {
		t.Fatal("login with unknown email succeeded")
	}
}

func TestAuthService_LoginDisabledAccount(t *testing.T) {
	store := memory.NewStore()
	svc := newTestAuthService(store)
	c := seedCompany(t, store, "acme", company.TypeSES)
	u := seedUser(t, store, c.ID, "alice@acme.test", user.RoleAdmin)

	u.Active = false
	if err := store.UpdateUser(context.Background(), u); err != nil {
		t.Fatalf("disable user: %v", err)
	}

	if _, _, err := svc.Login(context.Background(), user.LoginRequest{
		Email:    "alice@acme.test",
		Password: "password123",
	}); err == nil {
		t.Fatal("login with disabled account succeeded")
	}
}

func TestAuthService_RefreshRotation(t *testing.T) {
	store := memory.NewStore()
	svc := newTestAuthService(store)
	ctx := context.Background()
	c := seedCompany(t, store, "acme", company.TypeSES)
	seedUser(t, store, c.ID, "alice@acme.test", user.RoleMember)

	_, rawRefresh, err := svc.Login(ctx, user.LoginRequest{
		Email:    "alice@acme.test",
		Password: "password123",
	})
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	resp, newRefresh, err := svc.RefreshTokens(ctx, rawRefresh)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if resp.AccessToken == "" {
		t.Error("refreshed access token is empty")
	}
	if newRefresh == rawRefresh {
		t.Error("refresh token was not rotated")
	}

	// The old token is single-use.
	if _, _, err := svc.RefreshTokens(ctx, rawRefresh); err == nil {
		t.Error("replayed refresh token succeeded")
	}
}

func TestAuthService_ValidateTampered(t *testing.T) {
	store := memory.NewStore()
	svc := newTestAuthService(store)
	c := seedCompany(t, store, "acme", company.TypeSES)
	seedUser(t, store, c.ID, "alice@acme.test", user.RoleMember)

	resp, _, err := svc.Login(context.Background(), user.LoginRequest{
		Email:    "alice@acme.test",
		Password: "password123",
	})
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	if _, err := svc.ValidateAccessToken(resp.AccessToken + "x"); err == nil {
		t.Error("tampered token validated")
	}
	if _, err := svc.ValidateAccessToken("not-a-token"); err == nil {
		t.Error("malformed token validated")
	}
}

func TestAuthService_Logout(t *testing.T) {
	store := memory.NewStore()
	svc := newTestAuthService(store)
	ctx := context.Background()
	c := seedCompany(t, store, "acme", company.TypeSES)
	u := seedUser(t, store, c.ID, "alice@acme.test", user.RoleMember)

	_, rawRefresh, err := svc.Login(ctx, user.LoginRequest{
		Email:    "alice@acme.test",
		Password: "password123",
	})
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	if err := svc.Logout(ctx, u.ID); err != nil {
		t.Fatalf("logout: %v", err)
	}

	if _, _, err := svc.RefreshTokens(ctx, rawRefresh); err == nil {
		t.Error("refresh after logout succeeded")
	}
}
