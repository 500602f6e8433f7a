package service_test

import (
	"context"
	"database/sql"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/vibast-solutions/ms-go-contacts/app/service"
	"github.com/vibast-solutions/ms-go-contacts/config"

	"github.com/DATA-DOG/go-sqlmock"
	"golang.org/x/crypto/bcrypt"
)

var userColumns = []string{
	"id",
	"username",
	"email",
	"hashed_password",
	"avatar",
	"is_verified",
	"created_at",
	"updated_at",
}

const (
	findByEmailQuery     = `(?s)SELECT id, username, email, hashed_password, avatar, is_verified, created_at, updated_at\s+FROM users WHERE email = \?`
	findByUsernameQuery  = `(?s)SELECT id, username, email, hashed_password, avatar, is_verified, created_at, updated_at\s+FROM users WHERE username = \?`
	insertUserQuery      = `(?s)INSERT INTO users \(username, email, hashed_password, avatar, is_verified, created_at, updated_at\)`
	markVerifiedQuery    = `(?s)UPDATE users SET is_verified = TRUE`
	setAvatarQuery       = `(?s)UPDATE users SET avatar = \?, updated_at = \? WHERE email = \?`
	setPasswordHashQuery = `(?s)UPDATE users SET hashed_password = \?, updated_at = \? WHERE email = \?`
)

func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

func newTestConfig() *config.Config {
	return &config.Config{
		AppBaseURL: "http://localhost:8000",
		JWT: config.JWTConfig{
			Secret:         "test-secret",
			Algorithm:      "HS256",
			AccessTokenTTL: time.Hour,
		},
		Tokens: config.TokenConfig{
			VerificationTTL: 7 * 24 * time.Hour,
			ResetTTL:        time.Hour,
		},
		Password: config.PasswordConfig{
			BcryptCost: bcrypt.MinCost,
			Policy:     config.PasswordPolicy{MinLength: 8},
		},
	}
}

func newTestTokens(t *testing.T, cfg *config.Config, opts ...service.TokenOption) *service.TokenService {
	t.Helper()

	tokens, err := service.NewTokenService(cfg.JWT, cfg.Tokens, opts...)
	if err != nil {
		t.Fatalf("token service init failed: %v", err)
	}
	return tokens
}

func mustHash(t *testing.T, plain string) string {
	t.Helper()

	digest, err := service.NewBcryptHasher(bcrypt.MinCost).Hash(plain)
	if err != nil {
		t.Fatalf("hash failed: %v", err)
	}
	return digest
}

func userRows(id uint64, username, email, hash string, verified bool) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows(userColumns).AddRow(id, username, email, hash, nil, verified, now, now)
}

func syncRunner(task func()) {
	task()
}

type sentMail struct {
	to       string
	username string
	link     string
}

type recordingMailer struct {
	mu            sync.Mutex
	verifications []sentMail
	resets        []sentMail
	err           error
}

func (m *recordingMailer) SendVerificationEmail(_ context.Context, to, username, link string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.verifications = append(m.verifications, sentMail{to: to, username: username, link: link})
	return m.err
}

func (m *recordingMailer) SendPasswordResetEmail(_ context.Context, to, username, link string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resets = append(m.resets, sentMail{to: to, username: username, link: link})
	return m.err
}

func tokenFromLink(t *testing.T, link, prefix string) string {
	t.Helper()

	if !strings.HasPrefix(link, prefix) {
		t.Fatalf("expected link %q to start with %q", link, prefix)
	}
	return strings.TrimPrefix(link, prefix)
}

type memoryRevocations struct {
	mu      sync.Mutex
	revoked map[string]time.Duration
}

func newMemoryRevocations() *memoryRevocations {
	return &memoryRevocations{revoked: map[string]time.Duration{}}
}

func (m *memoryRevocations) Revoke(_ context.Context, jti string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.revoked[jti] = ttl
	return nil
}

func (m *memoryRevocations) IsRevoked(_ context.Context, jti string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.revoked[jti]
	return ok, nil
}
