package controller_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/vibast-solutions/ms-go-contacts/app/controller"
	"github.com/vibast-solutions/ms-go-contacts/app/middleware"
	"github.com/vibast-solutions/ms-go-contacts/app/repository"
	"github.com/vibast-solutions/ms-go-contacts/app/router"
	"github.com/vibast-solutions/ms-go-contacts/app/service"
	"github.com/vibast-solutions/ms-go-contacts/config"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

const (
	findByEmailQuery     = `(?s)SELECT id, username, email, hashed_password, avatar, is_verified, created_at, updated_at\s+FROM users WHERE email = \?`
	findByUsernameQuery  = `(?s)SELECT id, username, email, hashed_password, avatar, is_verified, created_at, updated_at\s+FROM users WHERE username = \?`
	insertUserQuery      = `(?s)INSERT INTO users \(username, email, hashed_password, avatar, is_verified, created_at, updated_at\)`
	setAvatarQuery       = `(?s)UPDATE users SET avatar = \?, updated_at = \? WHERE email = \?`
	setPasswordHashQuery = `(?s)UPDATE users SET hashed_password = \?, updated_at = \? WHERE email = \?`

	existsContactQuery = `(?s)SELECT 1 FROM contacts\s+WHERE user_id = \? AND \(email = \? OR phone = \?\)`
	insertContactQuery = `(?s)INSERT INTO contacts \(name, surname, email, phone, birthday, user_id, created_at, updated_at\)`
	listContactsQuery  = `(?s)SELECT id, name, surname, email, phone, birthday, user_id, created_at, updated_at FROM contacts WHERE user_id = \?`
	findOwnedQuery     = `(?s)FROM contacts WHERE id = \? AND user_id = \?`
	deleteContactQuery = `(?s)DELETE FROM contacts WHERE id = \? AND user_id = \?`
)

var userColumns = []string{"id", "username", "email", "hashed_password", "avatar", "is_verified", "created_at", "updated_at"}

var contactColumns = []string{"id", "name", "surname", "email", "phone", "birthday", "user_id", "created_at", "updated_at"}

type testUser struct {
	id       uint64
	username string
	email    string
	hash     string
	verified bool
}

func (u testUser) rows() *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows(userColumns).AddRow(u.id, u.username, u.email, u.hash, nil, u.verified, now, now)
}

var (
	alice = testUser{id: 1, username: "alice", email: "alice@example.com", hash: "x", verified: true}
	bob   = testUser{id: 2, username: "bob", email: "bob@example.com", hash: "x", verified: true}
)

type memoryKV struct {
	mu     sync.Mutex
	values map[string][]byte
}

func (m *memoryKV) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.values[key], nil
}

func (m *memoryKV) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

type sentMail struct {
	to   string
	link string
}

type recordingMailer struct {
	mu            sync.Mutex
	verifications []sentMail
	resets        []sentMail
}

func (m *recordingMailer) SendVerificationEmail(_ context.Context, to, _, link string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.verifications = append(m.verifications, sentMail{to: to, link: link})
	return nil
}

func (m *recordingMailer) SendPasswordResetEmail(_ context.Context, to, _, link string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resets = append(m.resets, sentMail{to: to, link: link})
	return nil
}

type fakeStorage struct {
	uploads int
}

func (s *fakeStorage) Upload(_ context.Context, key, _ string, body io.Reader, _ int64) (string, error) {
	s.uploads++
	_, _ = io.Copy(io.Discard, body)
	return "https://cdn.example.com/" + key, nil
}

type staticHealth struct {
	status healthpb.HealthCheckResponse_ServingStatus
}

func (s staticHealth) Status(context.Context) *healthpb.HealthCheckResponse {
	return &healthpb.HealthCheckResponse{Status: s.status}
}

type harness struct {
	e       *echo.Echo
	mock    sqlmock.Sqlmock
	tokens  *service.TokenService
	mailer  *recordingMailer
	storage *fakeStorage
}

type harnessOptions struct {
	today       time.Time
	mePerMinute int
	health      healthpb.HealthCheckResponse_ServingStatus
}

func newHarness(t *testing.T, opts harnessOptions) *harness {
	t.Helper()

	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	cfg := &config.Config{
		AppBaseURL: "http://localhost:8000",
		JWT:        config.JWTConfig{Secret: "test-secret", Algorithm: "HS256", AccessTokenTTL: time.Hour},
		Tokens:     config.TokenConfig{VerificationTTL: 24 * time.Hour, ResetTTL: time.Hour},
		Password:   config.PasswordConfig{BcryptCost: bcrypt.MinCost, Policy: config.PasswordPolicy{MinLength: 8}},
	}

	revocations := service.NewRedisRevocationStore(&memoryKV{values: map[string][]byte{}})
	tokens, err := service.NewTokenService(cfg.JWT, cfg.Tokens, service.WithRevocationStore(revocations))
	if err != nil {
		t.Fatalf("token service init failed: %v", err)
	}

	h := &harness{
		e:       echo.New(),
		mock:    mock,
		tokens:  tokens,
		mailer:  &recordingMailer{},
		storage: &fakeStorage{},
	}

	userRepo := repository.NewUserRepository(db)
	authService := service.NewUserAuthService(
		userRepo,
		service.NewBcryptHasher(bcrypt.MinCost),
		tokens,
		h.mailer,
		cfg,
		service.WithAsyncRunner(func(task func()) { task() }),
	)

	var contactOpts []service.ContactServiceOption
	if !opts.today.IsZero() {
		today := opts.today
		contactOpts = append(contactOpts, service.WithClock(func() time.Time { return today }))
	}

	if opts.mePerMinute == 0 {
		opts.mePerMinute = 100
	}
	if opts.health == healthpb.HealthCheckResponse_UNKNOWN {
		opts.health = healthpb.HealthCheckResponse_SERVING
	}

	router.Register(h.e, router.Controllers{
		Auth:    controller.NewUserAuthController(authService),
		User:    controller.NewUserController(service.NewUserService(userRepo, h.storage, 1<<20)),
		Contact: controller.NewContactController(service.NewContactService(repository.NewContactRepository(db), contactOpts...)),
		Health:  controller.NewHealthController(staticHealth{status: opts.health}),
	}, router.Options{
		AuthMiddleware:   middleware.NewAuthMiddleware(authService),
		APIKeyMiddleware: middleware.NewAPIKeyMiddleware(""),
		MePerMinute:      opts.mePerMinute,
		AvatarMaxBytes:   1 << 20,
	})

	return h
}

// login issues a session token and queues the user lookup RequireAuth makes.
func (h *harness) login(t *testing.T, u testUser) string {
	t.Helper()

	token, err := h.tokens.IssueSessionToken(u.username)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	h.expectSession(u)
	return token
}

func (h *harness) expectSession(u testUser) {
	h.mock.ExpectQuery(findByUsernameQuery).WithArgs(u.username).WillReturnRows(u.rows())
}

func (h *harness) do(method, path string, body any, token string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		payload, _ := json.Marshal(body)
		reader = bytes.NewReader(payload)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	return h.serve(req)
}

func (h *harness) serve(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.e.ServeHTTP(rec, req)
	return rec
}

func (h *harness) done(t *testing.T) {
	t.Helper()
	if err := h.mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func expectStatus(t *testing.T, rec *httptest.ResponseRecorder, status int) {
	t.Helper()
	if rec.Code != status {
		t.Fatalf("expected status %d, got %d: %s", status, rec.Code, rec.Body.String())
	}
}

func expectField(t *testing.T, rec *httptest.ResponseRecorder, field, want string) {
	t.Helper()

	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid json %q: %v", rec.Body.String(), err)
	}
	if got, _ := body[field].(string); got != want {
		t.Fatalf("expected %s %q, got %q", field, want, body[field])
	}
}

func mustHash(t *testing.T, plain string) string {
	t.Helper()

	digest, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash failed: %v", err)
	}
	return string(digest)
}
