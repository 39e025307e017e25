package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	sbhttp "github.com/sesbridge/sesbridge/internal/adapter/http"
	"github.com/sesbridge/sesbridge/internal/adapter/memory"
	"github.com/sesbridge/sesbridge/internal/config"
	"github.com/sesbridge/sesbridge/internal/domain/company"
	"github.com/sesbridge/sesbridge/internal/domain/page"
	"github.com/sesbridge/sesbridge/internal/domain/request"
	"github.com/sesbridge/sesbridge/internal/domain/talent"
	"github.com/sesbridge/sesbridge/internal/domain/user"
	"github.com/sesbridge/sesbridge/internal/middleware"
	"github.com/sesbridge/sesbridge/internal/service"
)

const testPassword = "password123"

type testServer struct {
	router http.Handler
	store  *memory.Store
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	store := memory.NewStore()
	authCfg := config.Auth{
		Secret:             "test-secret-key-must-be-long-enough",
		AccessTokenExpiry:  15 * time.Minute,
		RefreshTokenExpiry: 7 * 24 * time.Hour,
		BcryptCost:         bcrypt.MinCost,
	}

	authSvc := service.NewAuthService(store, &authCfg)
	companySvc := service.NewCompanyService(store, nil, nil)
	authzSvc := service.NewAuthzService(companySvc, nil)

	h := &sbhttp.Handlers{
		Auth:          authSvc,
		Authz:         authzSvc,
		Companies:     companySvc,
		Users:         service.NewUserService(store, authSvc),
		Talents:       service.NewTalentService(store, nil),
		Opportunities: service.NewOpportunityService(store),
		Requests:      service.NewRequestService(store, nil, nil, nil),
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Auth(authSvc, "/auth/login"))
	sbhttp.MountRoutes(r, h)

	return &testServer{router: r, store: store}
}

func (ts *testServer) seedCompany(t *testing.T, name string, typ company.Type) *company.Company {
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
	if err := ts.store.CreateCompany(context.Background(), c); err != nil {
		t.Fatalf("seed company %s: %v", name, err)
	}
	return c
}

func (ts *testServer) seedUser(t *testing.T, companyID, email string, role user.Role) *user.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
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
	if err := ts.store.CreateUser(context.Background(), u); err != nil {
		t.Fatalf("seed user %s: %v", email, err)
	}
	return u
}

func (ts *testServer) seedTalent(t *testing.T, companyID, name string) *talent.Talent {
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
	if err := ts.store.CreateTalent(context.Background(), tal); err != nil {
		t.Fatalf("seed talent %s: %v", name, err)
	}
	return tal
}

// login authenticates the given user and returns a bearer token.
func (ts *testServer) login(t *testing.T, email string) string {
	t.Helper()
	rec := ts.do(t, http.MethodPost, "/api/v1/auth/login", "",
		map[string]string{"email": email, "password": testPassword})
	if rec.Code != http.StatusOK {
		t.Fatalf("login %s: status = %d, body = %s", email, rec.Code, rec.Body.String())
	}
	var resp user.LoginResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode login response: %v", err)
	}
	return resp.AccessToken
}

func (ts *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/health", "", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

func TestLoginAndMe(t *testing.T) {
	ts := newTestServer(t)
	c := ts.seedCompany(t, "Acme SES", company.TypeSES)
	u := ts.seedUser(t, c.ID, "admin@acme.example", user.RoleAdmin)

	token := ts.login(t, u.Email)

	rec := ts.do(t, http.MethodGet, "/api/v1/auth/me", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("me: status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var got user.User
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode me response: %v", err)
	}
	if got.ID != u.ID || got.CompanyID != c.ID {
		t.Errorf("me = %s in %s, want %s in %s", got.ID, got.CompanyID, u.ID, c.ID)
	}
}

func TestUnauthenticatedAPIRequest(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/api/v1/requests/inbox", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}
}

func TestUserSettingsGuards(t *testing.T) {
	ts := newTestServer(t)
	c := ts.seedCompany(t, "Acme SES", company.TypeSES)
	other := ts.seedCompany(t, "Beta End", company.TypeEnd)
	admin := ts.seedUser(t, c.ID, "admin@acme.example", user.RoleAdmin)
	member := ts.seedUser(t, c.ID, "member@acme.example", user.RoleMember)
	otherAdmin := ts.seedUser(t, other.ID, "admin@beta.example", user.RoleAdmin)

	adminToken := ts.login(t, admin.Email)
	memberToken := ts.login(t, member.Email)
	otherToken := ts.login(t, otherAdmin.Email)

	path := fmt.Sprintf("/api/v1/companies/%s/settings/users", c.ID)

	if rec := ts.do(t, http.MethodGet, path, adminToken, nil); rec.Code != http.StatusOK {
		t.Errorf("admin list: status = %d, want 200", rec.Code)
	}
	if rec := ts.do(t, http.MethodGet, path, memberToken, nil); rec.Code != http.StatusForbidden {
		t.Errorf("member list: status = %d, want 403", rec.Code)
	}
	if rec := ts.do(t, http.MethodGet, path, otherToken, nil); rec.Code != http.StatusForbidden {
		t.Errorf("cross-company list: status = %d, want 403", rec.Code)
	}
}

func TestTalentCompanyTypeGuard(t *testing.T) {
	ts := newTestServer(t)
	ses := ts.seedCompany(t, "Acme SES", company.TypeSES)
	end := ts.seedCompany(t, "Beta End", company.TypeEnd)
	sesAdmin := ts.seedUser(t, ses.ID, "admin@acme.example", user.RoleAdmin)
	endAdmin := ts.seedUser(t, end.ID, "admin@beta.example", user.RoleAdmin)

	sesToken := ts.login(t, sesAdmin.Email)
	endToken := ts.login(t, endAdmin.Email)

	body := map[string]string{"name": "Engineer A"}

	rec := ts.do(t, http.MethodPost, fmt.Sprintf("/api/v1/companies/%s/talents", ses.ID), sesToken, body)
	if rec.Code != http.StatusCreated {
		t.Errorf("ses create talent: status = %d, body = %s", rec.Code, rec.Body.String())
	}

	rec = ts.do(t, http.MethodPost, fmt.Sprintf("/api/v1/companies/%s/talents", end.ID), endToken, body)
	if rec.Code != http.StatusForbidden {
		t.Errorf("end create talent: status = %d, want 403", rec.Code)
	}
}

func TestRequestWorkflowOverHTTP(t *testing.T) {
	ts := newTestServer(t)
	ses := ts.seedCompany(t, "Acme SES", company.TypeSES)
	end := ts.seedCompany(t, "Beta End", company.TypeEnd)
	sesAdmin := ts.seedUser(t, ses.ID, "admin@acme.example", user.RoleAdmin)
	endAdmin := ts.seedUser(t, end.ID, "admin@beta.example", user.RoleAdmin)
	tal := ts.seedTalent(t, ses.ID, "Engineer A")

	sesToken := ts.login(t, sesAdmin.Email)
	endToken := ts.login(t, endAdmin.Email)

	// The end company requests the provider's talent.
	rec := ts.do(t, http.MethodPost, "/api/v1/requests/talent", endToken, map[string]string{
		"subject_id": tal.ID,
		"title":      "Interview request",
		"message":    "We would like to interview this engineer next week.",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create request: status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var created request.Request
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode created request: %v", err)
	}
	if created.ToCompanyID != ses.ID || created.Status != request.StatusPending {
		t.Fatalf("created = to %s status %s, want to %s pending", created.ToCompanyID, created.Status, ses.ID)
	}

	// Pending: the provider sees it in the inbox without sender identity.
	rec = ts.do(t, http.MethodGet, "/api/v1/requests/inbox", sesToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("inbox: status = %d", rec.Code)
	}
	var inbox page.Page[request.View]
	if err := json.Unmarshal(rec.Body.Bytes(), &inbox); err != nil {
		t.Fatalf("decode inbox: %v", err)
	}
	if len(inbox.Items) != 1 {
		t.Fatalf("inbox items = %d, want 1", len(inbox.Items))
	}
	if inbox.Items[0].CanViewSender || inbox.Items[0].SenderEmail != "" {
		t.Errorf("pending request discloses sender: %+v", inbox.Items[0])
	}

	// Sender cannot respond to its own request.
	rec = ts.do(t, http.MethodPost, "/api/v1/requests/"+created.ID+"/respond", endToken,
		map[string]string{"decision": "accept"})
	if rec.Code != http.StatusNotFound {
		t.Errorf("sender respond: status = %d, want 404", rec.Code)
	}

	// The provider accepts; the response view discloses the sender.
	rec = ts.do(t, http.MethodPost, "/api/v1/requests/"+created.ID+"/respond", sesToken,
		map[string]string{"decision": "accept", "response_message": "Happy to arrange it."})
	if rec.Code != http.StatusOK {
		t.Fatalf("respond: status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var accepted request.View
	if err := json.Unmarshal(rec.Body.Bytes(), &accepted); err != nil {
		t.Fatalf("decode respond view: %v", err)
	}
	if !accepted.CanViewSender || accepted.SenderEmail != endAdmin.Email {
		t.Errorf("accepted view sender = %q (can_view=%v), want %q", accepted.SenderEmail, accepted.CanViewSender, endAdmin.Email)
	}

	// The sender's own view never discloses its identity fields.
	rec = ts.do(t, http.MethodGet, "/api/v1/requests/sent", endToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("sent: status = %d", rec.Code)
	}
	var sent page.Page[request.View]
	if err := json.Unmarshal(rec.Body.Bytes(), &sent); err != nil {
		t.Fatalf("decode sent: %v", err)
	}
	if len(sent.Items) != 1 || sent.Items[0].Status != request.StatusAccepted {
		t.Fatalf("sent = %+v, want one accepted item", sent.Items)
	}
	if sent.Items[0].CanViewSender {
		t.Error("sender side view claims sender disclosure")
	}

	// Accept is terminal: edits now conflict.
	newTitle := "Changed my mind"
	rec = ts.do(t, http.MethodPatch, "/api/v1/requests/"+created.ID, endToken,
		request.UpdateInput{Title: &newTitle})
	if rec.Code != http.StatusConflict {
		t.Errorf("edit accepted request: status = %d, want 409", rec.Code)
	}
}

func TestRequestRoleGuard(t *testing.T) {
	ts := newTestServer(t)
	ses := ts.seedCompany(t, "Acme SES", company.TypeSES)
	end := ts.seedCompany(t, "Beta End", company.TypeEnd)
	member := ts.seedUser(t, end.ID, "member@beta.example", user.RoleMember)
	tal := ts.seedTalent(t, ses.ID, "Engineer A")

	memberToken := ts.login(t, member.Email)

	rec := ts.do(t, http.MethodPost, "/api/v1/requests/talent", memberToken, map[string]string{
		"subject_id": tal.ID,
		"message":    "We would like to interview this engineer.",
	})
	if rec.Code != http.StatusForbidden {
		t.Errorf("member create request: status = %d, want 403", rec.Code)
	}

	// Members still read the inbox.
	if rec := ts.do(t, http.MethodGet, "/api/v1/requests/inbox", memberToken, nil); rec.Code != http.StatusOK {
		t.Errorf("member inbox: status = %d, want 200", rec.Code)
	}
}

func TestCompanyCRUDOverHTTP(t *testing.T) {
	ts := newTestServer(t)
	c := ts.seedCompany(t, "Acme SES", company.TypeSES)
	admin := ts.seedUser(t, c.ID, "admin@acme.example", user.RoleAdmin)
	token := ts.login(t, admin.Email)

	rec := ts.do(t, http.MethodPut, "/api/v1/companies/"+c.ID, token,
		map[string]string{"name": "Acme Staffing"})
	if rec.Code != http.StatusOK {
		t.Fatalf("update company: status = %d, body = %s", rec.Code, rec.Body.String())
	}

	// Deleting a company that still has users conflicts.
	rec = ts.do(t, http.MethodDelete, "/api/v1/companies/"+c.ID, token, nil)
	if rec.Code != http.StatusConflict {
		t.Errorf("delete populated company: status = %d, want 409", rec.Code)
	}
}

func TestCompanyOnboardingAdminOnly(t *testing.T) {
	ts := newTestServer(t)
	c := ts.seedCompany(t, "Acme SES", company.TypeSES)
	admin := ts.seedUser(t, c.ID, "admin@acme.example", user.RoleAdmin)
	member := ts.seedUser(t, c.ID, "member@acme.example", user.RoleMember)

	adminToken := ts.login(t, admin.Email)
	memberToken := ts.login(t, member.Email)

	body := map[string]string{"name": "Gamma End", "company_type": "end"}

	// Members can neither register new tenants nor enumerate them.
	if rec := ts.do(t, http.MethodPost, "/api/v1/companies", memberToken, body); rec.Code != http.StatusForbidden {
		t.Errorf("member create company: status = %d, want 403", rec.Code)
	}
	if rec := ts.do(t, http.MethodGet, "/api/v1/companies", memberToken, nil); rec.Code != http.StatusForbidden {
		t.Errorf("member list companies: status = %d, want 403", rec.Code)
	}

	if rec := ts.do(t, http.MethodPost, "/api/v1/companies", adminToken, body); rec.Code != http.StatusCreated {
		t.Errorf("admin create company: status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if rec := ts.do(t, http.MethodGet, "/api/v1/companies", adminToken, nil); rec.Code != http.StatusOK {
		t.Errorf("admin list companies: status = %d, want 200", rec.Code)
	}
}

func TestDuplicateEmailConflict(t *testing.T) {
	ts := newTestServer(t)
	c := ts.seedCompany(t, "Acme SES", company.TypeSES)
	admin := ts.seedUser(t, c.ID, "admin@acme.example", user.RoleAdmin)
	token := ts.login(t, admin.Email)

	path := fmt.Sprintf("/api/v1/companies/%s/settings/users", c.ID)
	body := map[string]string{
		"email":    admin.Email,
		"name":     "Clone",
		"password": testPassword,
		"role":     "member",
	}

	rec := ts.do(t, http.MethodPost, path, token, body)
	if rec.Code != http.StatusConflict {
		t.Errorf("duplicate email: status = %d, want 409, body = %s", rec.Code, rec.Body.String())
	}
}
