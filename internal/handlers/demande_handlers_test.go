package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/assistancekmy/sos-service/internal/handlers"
	"github.com/assistancekmy/sos-service/internal/mailer"
	"github.com/assistancekmy/sos-service/internal/models"
	"github.com/assistancekmy/sos-service/internal/notifier"
	"github.com/assistancekmy/sos-service/internal/repository"
	"github.com/assistancekmy/sos-service/internal/router"
	"github.com/assistancekmy/sos-service/internal/security"
	"github.com/assistancekmy/sos-service/internal/services"

	"golang.org/x/crypto/bcrypt"
)

type memoryDenylist struct {
	mu      sync.Mutex
	revoked map[string]bool
}

func (d *memoryDenylist) Revoke(_ context.Context, tokenID string, _ time.Duration) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.revoked[tokenID] = true
	return nil
}

func (d *memoryDenylist) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.revoked[tokenID], nil
}

type memoryResetTokens struct {
	mu     sync.Mutex
	tokens map[string]string
}

func (s *memoryResetTokens) Put(_ context.Context, email, token string, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[email] = token
	return nil
}

func (s *memoryResetTokens) Check(_ context.Context, email, token string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tokens[email] == token, nil
}

func (s *memoryResetTokens) Delete(_ context.Context, email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tokens, email)
	return nil
}

type fixture struct {
	server http.Handler
	repo   *repository.MemoryDemandeRepository
	users  *repository.MemoryUserRepository
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := log.New(io.Discard, "", 0)
	repo := repository.NewMemoryDemandeRepository()
	users := repository.NewMemoryUserRepository()
	hasher := security.NewBcryptHasher(bcrypt.MinCost)

	tokens, err := security.NewTokenManager("test-secret", time.Hour)
	if err != nil {
		t.Fatalf("token manager: %v", err)
	}

	for _, seed := range []struct {
		name  string
		email string
		role  models.UserRole
	}{
		{"Admin KMY", "admin@assistancekmy.com", models.RoleAdmin},
		{"User A", "a@test.com", models.RoleUser},
		{"User B", "b@test.com", models.RoleUser},
	} {
		hash, err := hasher.Hash("password123")
		if err != nil {
			t.Fatalf("hash: %v", err)
		}
		if _, err := users.Create(context.Background(), seed.name, seed.email, hash, seed.role); err != nil {
			t.Fatalf("seed %s: %v", seed.email, err)
		}
	}

	demandeService := services.NewDemandeService(repo, users, &notifier.LogNotifier{Logger: logger}, logger)
	authService := services.NewAuthService(users, hasher, tokens, &memoryDenylist{revoked: map[string]bool{}})
	resetService := services.NewPasswordResetService(
		users, hasher, &memoryResetTokens{tokens: map[string]string{}},
		&mailer.LogMailer{Logger: logger}, logger, time.Hour, "http://localhost:8080")

	demandeHandler := handlers.NewDemandeHandler(demandeService, logger, 2*time.Second)
	authHandler := handlers.NewAuthHandler(authService, logger, 2*time.Second)
	resetHandler, err := handlers.NewResetHandler(resetService, logger, 2*time.Second)
	if err != nil {
		t.Fatalf("reset handler: %v", err)
	}
	authMW := handlers.NewAuthMiddleware(authService, logger)

	return &fixture{
		server: router.InitRoutes(demandeHandler, authHandler, resetHandler, authMW),
		repo:   repo,
		users:  users,
	}
}

func (f *fixture) do(t *testing.T, method, path, token string, body interface{}) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	f.server.ServeHTTP(rec, req)

	var decoded map[string]interface{}
	if strings.Contains(rec.Header().Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(rec.Body.Bytes(), &decoded); err != nil {
			t.Fatalf("decode response %q: %v", rec.Body.String(), err)
		}
	}
	return rec, decoded
}

func (f *fixture) login(t *testing.T, email string) string {
	t.Helper()
	rec, body := f.do(t, http.MethodPost, "/api/login", "", map[string]string{
		"email":    email,
		"password": "password123",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("login %s: status %d body %s", email, rec.Code, rec.Body.String())
	}
	token, _ := body["token"].(string)
	if token == "" {
		t.Fatalf("login %s: no token in response", email)
	}
	return token
}

func demandeBody() map[string]interface{} {
	return map[string]interface{}{
		"nom":       "Kouassi",
		"prenom":    "Marie",
		"telephone": "+2250701020304",
		"adresse":   "Cocody, Abidjan",
	}
}

func TestPing(t *testing.T) {
	f := newFixture(t)
	rec, _ := f.do(t, http.MethodGet, "/api/ping", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestAnonymousSubmission(t *testing.T) {
	f := newFixture(t)

	rec, body := f.do(t, http.MethodPost, "/api/demande-anonyme", "", demandeBody())
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if body["success"] != true {
		t.Error("expected success true")
	}
	demande, _ := body["demande"].(map[string]interface{})
	if demande["status"] != "pending" {
		t.Errorf("expected status pending, got %v", demande["status"])
	}
	if _, leaked := demande["user_id"]; leaked {
		t.Error("anonymous response must not expose an owner field")
	}
}

func TestAnonymousSubmissionLatitudeOutOfRange(t *testing.T) {
	f := newFixture(t)

	payload := demandeBody()
	payload["latitude"] = 95
	rec, body := f.do(t, http.MethodPost, "/api/demande-anonyme", "", payload)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d: %s", rec.Code, rec.Body.String())
	}
	errs, _ := body["errors"].(map[string]interface{})
	if _, ok := errs["latitude"]; !ok {
		t.Errorf("expected a latitude validation error, got %v", body)
	}
}

func TestAuthenticatedSubmission(t *testing.T) {
	f := newFixture(t)

	rec, _ := f.do(t, http.MethodPost, "/api/demande", "", demandeBody())
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rec.Code)
	}

	token := f.login(t, "a@test.com")
	rec, body := f.do(t, http.MethodPost, "/api/demande", token, demandeBody())
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	demande, _ := body["demande"].(map[string]interface{})
	if demande["user_id"] == nil || demande["user_id"] == "" {
		t.Error("authenticated demande must carry its owner")
	}
}

func TestListVisibility(t *testing.T) {
	f := newFixture(t)

	tokenA := f.login(t, "a@test.com")
	rec, body := f.do(t, http.MethodPost, "/api/demande", tokenA, demandeBody())
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: %d", rec.Code)
	}
	created, _ := body["demande"].(map[string]interface{})
	createdID, _ := created["id"].(string)

	tokenB := f.login(t, "b@test.com")
	rec, body = f.do(t, http.MethodGet, "/api/demandes", tokenB, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list as B: %d", rec.Code)
	}
	demandes, _ := body["demandes"].([]interface{})
	if len(demandes) != 0 {
		t.Errorf("user B must not see user A's demandes, got %v", demandes)
	}

	adminToken := f.login(t, "admin@assistancekmy.com")
	rec, body = f.do(t, http.MethodGet, "/api/demandes", adminToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list as admin: %d", rec.Code)
	}
	demandes, _ = body["demandes"].([]interface{})
	if len(demandes) != 1 {
		t.Fatalf("admin must see all demandes, got %d", len(demandes))
	}

	rec, _ = f.do(t, http.MethodGet, "/api/demandes/"+createdID, tokenB, nil)
	if rec.Code != http.StatusForbidden {
		t.Errorf("expected 403 for non-owner view, got %d", rec.Code)
	}
}

func TestStatusUpdate(t *testing.T) {
	f := newFixture(t)

	tokenA := f.login(t, "a@test.com")
	_, body := f.do(t, http.MethodPost, "/api/demande", tokenA, demandeBody())
	created, _ := body["demande"].(map[string]interface{})
	id, _ := created["id"].(string)

	rec, _ := f.do(t, http.MethodPatch, "/api/demandes/"+id+"/status", tokenA, map[string]string{"status": "accepted"})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for non-admin status update, got %d", rec.Code)
	}

	adminToken := f.login(t, "admin@assistancekmy.com")
	rec, body = f.do(t, http.MethodPatch, "/api/demandes/"+id+"/status", adminToken, map[string]string{"status": "accepted"})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if body["success"] != true {
		t.Error("expected success true")
	}
	updated, _ := body["demande"].(map[string]interface{})
	if updated["status"] != "accepted" {
		t.Errorf("expected status accepted, got %v", updated["status"])
	}

	rec, _ = f.do(t, http.MethodPatch, "/api/demandes/"+id+"/status", adminToken, map[string]string{"status": "bogus"})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("expected 422 for unknown status, got %d", rec.Code)
	}

	rec, _ = f.do(t, http.MethodPatch, "/api/demandes/missing-id/status", adminToken, map[string]string{"status": "accepted"})
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 for missing demande, got %d", rec.Code)
	}
}

func TestDelete(t *testing.T) {
	f := newFixture(t)

	tokenA := f.login(t, "a@test.com")
	_, body := f.do(t, http.MethodPost, "/api/demande", tokenA, demandeBody())
	created, _ := body["demande"].(map[string]interface{})
	id, _ := created["id"].(string)

	rec, _ := f.do(t, http.MethodDelete, "/api/demandes/"+id, tokenA, nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for non-admin delete, got %d", rec.Code)
	}
	if _, err := f.repo.GetByID(context.Background(), id); err != nil {
		t.Fatal("demande must still exist after forbidden delete")
	}

	adminToken := f.login(t, "admin@assistancekmy.com")
	rec, _ = f.do(t, http.MethodDelete, "/api/demandes/"+id, adminToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for admin delete, got %d", rec.Code)
	}
	rec, _ = f.do(t, http.MethodGet, "/api/demandes/"+id, adminToken, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 after delete, got %d", rec.Code)
	}
}

func TestLogoutInvalidatesToken(t *testing.T) {
	f := newFixture(t)

	token := f.login(t, "a@test.com")
	rec, _ := f.do(t, http.MethodGet, "/api/user", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 before logout, got %d", rec.Code)
	}

	rec, _ = f.do(t, http.MethodPost, "/api/logout", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("logout: %d", rec.Code)
	}

	rec, _ = f.do(t, http.MethodGet, "/api/user", token, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 after logout, got %d", rec.Code)
	}
}

func TestRegisterEndpoint(t *testing.T) {
	f := newFixture(t)

	rec, body := f.do(t, http.MethodPost, "/api/register", "", map[string]string{
		"name":                  "New User",
		"email":                 "new@test.com",
		"password":              "password123",
		"password_confirmation": "password123",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if body["token"] == nil || body["token"] == "" {
		t.Error("expected a session token on register")
	}
	user, _ := body["user"].(map[string]interface{})
	if user["role"] != "user" {
		t.Errorf("expected role user, got %v", user["role"])
	}

	rec, body = f.do(t, http.MethodPost, "/api/register", "", map[string]string{
		"name":                  "Dup",
		"email":                 "new@test.com",
		"password":              "password123",
		"password_confirmation": "password123",
	})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for duplicate email, got %d", rec.Code)
	}
	errs, _ := body["errors"].(map[string]interface{})
	if _, ok := errs["email"]; !ok {
		t.Errorf("expected an email error, got %v", body)
	}
}

func TestResetWebPages(t *testing.T) {
	f := newFixture(t)

	rec, _ := f.do(t, http.MethodGet, "/reset-password/some-token?email=user%40test.com", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for reset form, got %d", rec.Code)
	}
	page := rec.Body.String()
	if !strings.Contains(page, "some-token") || !strings.Contains(page, "user@test.com") {
		t.Error("reset form must carry the token and email")
	}

	rec, _ = f.do(t, http.MethodGet, "/password-reset-success", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for success page, got %d", rec.Code)
	}
}
