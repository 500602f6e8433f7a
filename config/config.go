package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/joho/godotenv"
)

type Config struct {
	HTTPHost    string
	HTTPPort    string
	GRPCHost    string
	GRPCPort    string
	MySQLDSN    string
	AutoMigrate bool
	AppBaseURL  string
	JWT         JWTConfig
	Tokens      TokenConfig
	Password    PasswordConfig
	Mail        MailConfig
	Avatar      AvatarConfig
	Redis       RedisConfig
	RateLimit   RateLimitConfig
	Log         LogConfig
	Metrics     MetricsConfig
}

type JWTConfig struct {
	Secret         string
	Algorithm      string
	AccessTokenTTL time.Duration
}

type TokenConfig struct {
	VerificationTTL time.Duration
	ResetTTL        time.Duration
}

type PasswordConfig struct {
	BcryptCost int
	Policy     PasswordPolicy
}

type MailConfig struct {
	Host             string
	Port             int
	Username         string
	Password         string
	From             string
	FromName         string
	TLS              bool
	PasswordResetURL string
}

// Enabled reports whether an SMTP server is configured.
func (m MailConfig) Enabled() bool {
	return m.Host != ""
}

type AvatarConfig struct {
	Endpoint       string
	Region         string
	AccessKey      string
	SecretKey      string
	Bucket         string
	PublicBaseURL  string
	ForcePathStyle bool
	MaxBytes       int64
}

func (a AvatarConfig) Enabled() bool {
	return a.Bucket != ""
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type RateLimitConfig struct {
	MePerMinute int
}

type LogConfig struct {
	Level  string
	Format string
}

type MetricsConfig struct {
	APIKey string
}

// MaxPasswordBytes is the longest input bcrypt will hash.
const MaxPasswordBytes = 72

type PasswordPolicy struct {
	MinLength        int
	RequireUppercase bool
	RequireLowercase bool
	RequireNumber    bool
	RequireSpecial   bool
}

func (p PasswordPolicy) Validate(password string) error {
	if len(password) < p.MinLength {
		return fmt.Errorf("password must be at least %d characters long", p.MinLength)
	}
	if len(password) > MaxPasswordBytes {
		return fmt.Errorf("password must be at most %d bytes long", MaxPasswordBytes)
	}

	var hasUpper, hasLower, hasNumber, hasSpecial bool
	for _, ch := range password {
		switch {
		case unicode.IsUpper(ch):
			hasUpper = true
		case unicode.IsLower(ch):
			hasLower = true
		case unicode.IsDigit(ch):
			hasNumber = true
		case unicode.IsPunct(ch) || unicode.IsSymbol(ch):
			hasSpecial = true
		}
	}

	var missing []string
	if p.RequireUppercase && !hasUpper {
		missing = append(missing, "uppercase letter")
	}
	if p.RequireLowercase && !hasLower {
		missing = append(missing, "lowercase letter")
	}
	if p.RequireNumber && !hasNumber {
		missing = append(missing, "number")
	}
	if p.RequireSpecial && !hasSpecial {
		missing = append(missing, "special character")
	}

	if len(missing) > 0 {
		return fmt.Errorf("password must contain at least one: %s", strings.Join(missing, ", "))
	}

	return nil
}

func Load() (*Config, error) {
	// Load .env file if it exists (ignores error if not found)
	_ = godotenv.Load()

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		return nil, errors.New("JWT_SECRET environment variable is required")
	}

	mysqlDSN := os.Getenv("MYSQL_DSN")
	if mysqlDSN == "" {
		return nil, errors.New("MYSQL_DSN environment variable is required")
	}

	return &Config{
		HTTPHost:    getEnv("HTTP_HOST", ""),
		HTTPPort:    getEnv("HTTP_PORT", "8000"),
		GRPCHost:    getEnv("GRPC_HOST", ""),
		GRPCPort:    getEnv("GRPC_PORT", "9090"),
		MySQLDSN:    mysqlDSN,
		AutoMigrate: getBoolEnv("AUTO_MIGRATE", true),
		AppBaseURL:  strings.TrimRight(getEnv("APP_BASE_URL", "http://localhost:8000"), "/"),
		JWT: JWTConfig{
			Secret:         jwtSecret,
			Algorithm:      getEnv("JWT_ALGORITHM", "HS256"),
			AccessTokenTTL: time.Duration(getIntEnv("JWT_EXPIRATION_SECONDS", 3600)) * time.Second,
		},
		Tokens: TokenConfig{
			VerificationTTL: 7 * 24 * time.Hour,
			ResetTTL:        getDurationEnv("RESET_TOKEN_TTL", time.Hour),
		},
		Password: PasswordConfig{
			BcryptCost: getIntEnv("BCRYPT_COST", 10),
			Policy:     loadPasswordPolicy(),
		},
		Mail: MailConfig{
			Host:             getEnv("MAIL_SERVER", ""),
			Port:             getIntEnv("MAIL_PORT", 587),
			Username:         getEnv("MAIL_USERNAME", ""),
			Password:         getEnv("MAIL_PASSWORD", ""),
			From:             getEnv("MAIL_FROM", "no-reply@localhost"),
			FromName:         getEnv("MAIL_FROM_NAME", "Contacts"),
			TLS:              getBoolEnv("MAIL_TLS", true),
			PasswordResetURL: getEnv("PASSWORD_RESET_URL", ""),
		},
		Avatar: AvatarConfig{
			Endpoint:       getEnv("AVATAR_S3_ENDPOINT", ""),
			Region:         getEnv("AVATAR_S3_REGION", "us-east-1"),
			AccessKey:      getEnv("AVATAR_S3_ACCESS_KEY", ""),
			SecretKey:      getEnv("AVATAR_S3_SECRET_KEY", ""),
			Bucket:         getEnv("AVATAR_S3_BUCKET", ""),
			PublicBaseURL:  strings.TrimRight(getEnv("AVATAR_PUBLIC_BASE_URL", ""), "/"),
			ForcePathStyle: getBoolEnv("AVATAR_S3_FORCE_PATH_STYLE", true),
			MaxBytes:       int64(getIntEnv("AVATAR_MAX_BYTES", 5<<20)),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getIntEnv("REDIS_DB", 0),
		},
		RateLimit: RateLimitConfig{
			MePerMinute: getIntEnv("ME_RATE_LIMIT_PER_MINUTE", 5),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "text"),
		},
		Metrics: MetricsConfig{
			APIKey: getEnv("METRICS_API_KEY", ""),
		},
	}, nil
}

func (c *Config) DSN() string {
	return c.MySQLDSN
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if minutes, err := strconv.Atoi(value); err == nil {
			return time.Duration(minutes) * time.Minute
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func loadPasswordPolicy() PasswordPolicy {
	return PasswordPolicy{
		MinLength:        getIntEnv("PASSWORD_MIN_LENGTH", 8),
		RequireUppercase: getBoolEnv("PASSWORD_REQUIRE_UPPERCASE", false),
		RequireLowercase: getBoolEnv("PASSWORD_REQUIRE_LOWERCASE", false),
		RequireNumber:    getBoolEnv("PASSWORD_REQUIRE_NUMBER", false),
		RequireSpecial:   getBoolEnv("PASSWORD_REQUIRE_SPECIAL", false),
	}
}
