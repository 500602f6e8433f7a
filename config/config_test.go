package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestPasswordPolicyValidate(t *testing.T) {
	policy := PasswordPolicy{
		MinLength:        8,
		RequireUppercase: true,
		RequireLowercase: true,
		RequireNumber:    true,
		RequireSpecial:   true,
	}

	if err := policy.Validate("short"); err == nil {
		t.Fatalf("expected error for short password")
	}
	if err := policy.Validate("lowercase1!"); err == nil {
		t.Fatalf("expected error for missing uppercase")
	}
	if err := policy.Validate("UPPERCASE1!"); err == nil {
		t.Fatalf("expected error for missing lowercase")
	}
	if err := policy.Validate("NoNumber!"); err == nil {
		t.Fatalf("expected error for missing number")
	}
	if err := policy.Validate("NoSpecial1"); err == nil {
		t.Fatalf("expected error for missing special")
	}
	if err := policy.Validate("GoodPass1!"); err != nil {
		t.Fatalf("expected valid password, got %v", err)
	}
}

func TestPasswordPolicyRejectsOverlongPassword(t *testing.T) {
	policy := loadPasswordPolicy()

	if err := policy.Validate(strings.Repeat("a", MaxPasswordBytes)); err != nil {
		t.Fatalf("expected %d bytes to pass, got %v", MaxPasswordBytes, err)
	}
	if err := policy.Validate(strings.Repeat("a", MaxPasswordBytes+1)); err == nil {
		t.Fatalf("expected error for password over %d bytes", MaxPasswordBytes)
	}
	// Multi-byte runes count by encoded length.
	if err := policy.Validate(strings.Repeat("é", 40)); err == nil {
		t.Fatalf("expected error for 80-byte password")
	}
}

func TestPasswordPolicyDefaultsAcceptDigitsOnly(t *testing.T) {
	if err := loadPasswordPolicy().Validate("12345678"); err != nil {
		t.Fatalf("expected default policy to accept 12345678, got %v", err)
	}
}

func TestGetEnvHelpers(t *testing.T) {
	t.Setenv("TEST_STRING", "value")
	if got := getEnv("TEST_STRING", "default"); got != "value" {
		t.Fatalf("expected value, got %q", got)
	}
	if got := getEnv("MISSING_STRING", "default"); got != "default" {
		t.Fatalf("expected default, got %q", got)
	}

	t.Setenv("TEST_DURATION", "30")
	if got := getDurationEnv("TEST_DURATION", 5*time.Minute); got != 30*time.Minute {
		t.Fatalf("expected 30m, got %v", got)
	}
	t.Setenv("TEST_DURATION", "invalid")
	if got := getDurationEnv("TEST_DURATION", 5*time.Minute); got != 5*time.Minute {
		t.Fatalf("expected default duration, got %v", got)
	}

	t.Setenv("TEST_BOOL", "true")
	if got := getBoolEnv("TEST_BOOL", false); got != true {
		t.Fatalf("expected true, got %v", got)
	}
	t.Setenv("TEST_BOOL", "invalid")
	if got := getBoolEnv("TEST_BOOL", true); got != true {
		t.Fatalf("expected default bool, got %v", got)
	}

	t.Setenv("TEST_INT", "42")
	if got := getIntEnv("TEST_INT", 5); got != 42 {
		t.Fatalf("expected 42, got %d", got)
	}
	t.Setenv("TEST_INT", "invalid")
	if got := getIntEnv("TEST_INT", 5); got != 5 {
		t.Fatalf("expected default int, got %d", got)
	}
}

func TestLoadRequiresJWTSecret(t *testing.T) {
	origDir, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd failed: %v", err)
	}
	tmp := t.TempDir()
	if err := os.Chdir(tmp); err != nil {
		t.Fatalf("chdir failed: %v", err)
	}
	t.Cleanup(func() {
		_ = os.Chdir(origDir)
	})

	t.Setenv("JWT_SECRET", "")
	t.Setenv("MYSQL_DSN", "")
	if cfg, err := Load(); err == nil || cfg != nil {
		t.Fatalf("expected error when JWT_SECRET is missing")
	}
}

func TestLoadRequiresMySQLDSN(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("MYSQL_DSN", "")
	if cfg, err := Load(); err == nil || cfg != nil {
		t.Fatalf("expected error when MYSQL_DSN is missing")
	}
}

func TestLoadSuccess(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("MYSQL_DSN", "user:pass@tcp(db:3306)/contacts?parseTime=true")
	t.Setenv("HTTP_PORT", "8081")
	t.Setenv("GRPC_PORT", "9091")
	t.Setenv("JWT_ALGORITHM", "HS512")
	t.Setenv("JWT_EXPIRATION_SECONDS", "1800")
	t.Setenv("RESET_TOKEN_TTL", "30")
	t.Setenv("PASSWORD_MIN_LENGTH", "10")
	t.Setenv("PASSWORD_REQUIRE_LOWERCASE", "true")
	t.Setenv("MAIL_SERVER", "smtp.example.com")
	t.Setenv("MAIL_PORT", "465")
	t.Setenv("AVATAR_S3_BUCKET", "avatars")
	t.Setenv("AVATAR_PUBLIC_BASE_URL", "https://cdn.example.com/avatars/")
	t.Setenv("REDIS_ADDR", "redis:6379")
	t.Setenv("ME_RATE_LIMIT_PER_MINUTE", "20")
	t.Setenv("APP_BASE_URL", "https://contacts.example.com/")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.HTTPPort != "8081" || cfg.GRPCPort != "9091" {
		t.Fatalf("unexpected ports: %s %s", cfg.HTTPPort, cfg.GRPCPort)
	}
	if cfg.MySQLDSN != "user:pass@tcp(db:3306)/contacts?parseTime=true" {
		t.Fatalf("unexpected mysql dsn: %s", cfg.MySQLDSN)
	}
	if cfg.JWT.Algorithm != "HS512" || cfg.JWT.AccessTokenTTL != 30*time.Minute {
		t.Fatalf("unexpected jwt config: %+v", cfg.JWT)
	}
	if cfg.Tokens.VerificationTTL != 7*24*time.Hour || cfg.Tokens.ResetTTL != 30*time.Minute {
		t.Fatalf("unexpected token ttl: %+v", cfg.Tokens)
	}
	if cfg.Password.Policy.MinLength != 10 || !cfg.Password.Policy.RequireLowercase || cfg.Password.Policy.RequireUppercase {
		t.Fatalf("unexpected password policy: %+v", cfg.Password.Policy)
	}
	if !cfg.Mail.Enabled() || cfg.Mail.Port != 465 {
		t.Fatalf("unexpected mail config: %+v", cfg.Mail)
	}
	if !cfg.Avatar.Enabled() || cfg.Avatar.PublicBaseURL != "https://cdn.example.com/avatars" {
		t.Fatalf("unexpected avatar config: %+v", cfg.Avatar)
	}
	if cfg.Redis.Addr != "redis:6379" || cfg.RateLimit.MePerMinute != 20 {
		t.Fatalf("unexpected redis/rate limit config: %+v %+v", cfg.Redis, cfg.RateLimit)
	}
	if cfg.AppBaseURL != "https://contacts.example.com" {
		t.Fatalf("expected trailing slash trimmed, got %q", cfg.AppBaseURL)
	}
}

func TestDSN(t *testing.T) {
	cfg := &Config{
		MySQLDSN: "user:pass@tcp(localhost:3306)/contacts?parseTime=true",
	}
	got := cfg.DSN()
	if got != cfg.MySQLDSN {
		t.Fatalf("expected %q, got %q", cfg.MySQLDSN, got)
	}
}

func TestLoadUsesDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("MYSQL_DSN", "user:pass@tcp(localhost:3306)/contacts?parseTime=true")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.HTTPPort == "" || cfg.GRPCPort == "" || cfg.MySQLDSN == "" {
		t.Fatalf("expected defaults to be populated")
	}
	if cfg.JWT.AccessTokenTTL != time.Hour || cfg.JWT.Algorithm != "HS256" {
		t.Fatalf("unexpected jwt defaults: %+v", cfg.JWT)
	}
	if cfg.RateLimit.MePerMinute != 5 || !cfg.AutoMigrate {
		t.Fatalf("unexpected defaults: %+v autoMigrate=%v", cfg.RateLimit, cfg.AutoMigrate)
	}
}

func TestLoadRespectsEnvFileLocation(t *testing.T) {
	origDir, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd failed: %v", err)
	}
	tmp := t.TempDir()
	if err := os.Chdir(tmp); err != nil {
		t.Fatalf("chdir failed: %v", err)
	}
	t.Cleanup(func() {
		_ = os.Chdir(origDir)
	})

	envPath := filepath.Join(tmp, ".env")
	if err := os.WriteFile(envPath, []byte("JWT_SECRET=envfile-secret\nMYSQL_DSN=user:pass@tcp(localhost:3306)/contacts?parseTime=true\nHTTP_PORT=9099\n"), 0600); err != nil {
		t.Fatalf("write .env failed: %v", err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.JWT.Secret != "envfile-secret" || cfg.HTTPPort != "9099" {
		t.Fatalf("expected env file values, got %s %s", cfg.JWT.Secret, cfg.HTTPPort)
	}
}
