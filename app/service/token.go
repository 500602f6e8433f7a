package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/vibast-solutions/ms-go-contacts/config"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	PurposeSession           = "session"
	PurposeEmailVerification = "email_verification"
	PurposePasswordReset     = "password_reset"
)

var ErrUnsupportedAlgorithm = errors.New("unsupported jwt algorithm")

type Claims struct {
	Purpose  string `json:"purpose"`
	Password string `json:"password,omitempty"`
	jwt.RegisteredClaims
}

type TokenOption func(*TokenService)

// TokenService mints and verifies every token the service hands out. All
// purposes share the secret and algorithm; the purpose claim keeps them apart.
type TokenService struct {
	secret          []byte
	method          jwt.SigningMethod
	sessionTTL      time.Duration
	verificationTTL time.Duration
	resetTTL        time.Duration
	now             func() time.Time
	revocations     RevocationStore
}

func NewTokenService(jwtCfg config.JWTConfig, tokenCfg config.TokenConfig, opts ...TokenOption) (*TokenService, error) {
	method, ok := jwt.GetSigningMethod(jwtCfg.Algorithm).(*jwt.SigningMethodHMAC)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedAlgorithm, jwtCfg.Algorithm)
	}
	if jwtCfg.Secret == "" {
		return nil, errors.New("jwt secret is empty")
	}

	s := &TokenService{
		secret:          []byte(jwtCfg.Secret),
		method:          method,
		sessionTTL:      jwtCfg.AccessTokenTTL,
		verificationTTL: tokenCfg.VerificationTTL,
		resetTTL:        tokenCfg.ResetTTL,
		now:             time.Now,
		revocations:     noopRevocationStore{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func WithTokenClock(now func() time.Time) TokenOption {
	return func(s *TokenService) {
		if now != nil {
			s.now = now
		}
	}
}

func WithRevocationStore(store RevocationStore) TokenOption {
	return func(s *TokenService) {
		if store != nil {
			s.revocations = store
		}
	}
}

func (s *TokenService) IssueSessionToken(username string) (string, error) {
	return s.issue(username, PurposeSession, "", s.sessionTTL)
}

func (s *TokenService) IssueVerificationToken(email string) (string, error) {
	return s.issue(email, PurposeEmailVerification, "", s.verificationTTL)
}

// IssueResetToken binds the token to the current password hash through its
// fingerprint, so it stops verifying once the password changes.
func (s *TokenService) IssueResetToken(email, fingerprint string) (string, error) {
	return s.issue(email, PurposePasswordReset, fingerprint, s.resetTTL)
}

func (s *TokenService) issue(subject, purpose, fingerprint string, ttl time.Duration) (string, error) {
	now := s.now()
	claims := &Claims{
		Purpose:  purpose,
		Password: fingerprint,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	return jwt.NewWithClaims(s.method, claims).SignedString(s.secret)
}

// Decode checks signature, algorithm, expiry and subject. Any failure is
// reported as ErrInvalidToken.
func (s *TokenService) Decode(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{s.method.Alg()}),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Subject == "" {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

func (s *TokenService) SubjectOf(tokenString string) (string, error) {
	claims, err := s.Decode(tokenString)
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}

// Verify decodes the token and additionally requires the expected purpose
// and that the token was not revoked.
func (s *TokenService) Verify(ctx context.Context, tokenString, purpose string) (*Claims, error) {
	claims, err := s.Decode(tokenString)
	if err != nil {
		return nil, err
	}
	if claims.Purpose != purpose {
		return nil, ErrInvalidToken
	}

	revoked, err := s.revocations.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

// Revoke denies the token for the rest of its lifetime.
func (s *TokenService) Revoke(ctx context.Context, claims *Claims) error {
	if claims == nil || claims.ExpiresAt == nil {
		return nil
	}
	return s.revocations.Revoke(ctx, claims.ID, claims.ExpiresAt.Sub(s.now()))
}

// PasswordFingerprint is a short digest of a password hash, safe to embed in
// a token.
func PasswordFingerprint(hash string) string {
	sum := sha256.Sum256([]byte(hash))
	return hex.EncodeToString(sum[:8])
}
