package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/vibast-solutions/ms-go-contacts/app/entity"
	"github.com/vibast-solutions/ms-go-contacts/app/repository"
	"github.com/vibast-solutions/ms-go-contacts/app/types"
	"github.com/vibast-solutions/ms-go-contacts/config"

	"github.com/sirupsen/logrus"
)

var (
	ErrUserExists         = errors.New("user already exists")
	ErrEmailTaken         = fmt.Errorf("%w: email is taken", ErrUserExists)
	ErrUsernameTaken      = fmt.Errorf("%w: username is taken", ErrUserExists)
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailNotVerified   = errors.New("email is not verified")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrVerificationFailed = errors.New("verification target does not exist")
	ErrWeakPassword       = errors.New("password does not meet policy requirements")
)

const (
	mailTimeout       = 30 * time.Second
	dummyPasswordSeed = "timing-equalizer"
)

type userRepository interface {
	Create(ctx context.Context, user *entity.User) error
	FindByEmail(ctx context.Context, email string) (*entity.User, error)
	FindByUsername(ctx context.Context, username string) (*entity.User, error)
	MarkVerified(ctx context.Context, email string) error
	SetPasswordHash(ctx context.Context, email, hash string) error
}

type Mailer interface {
	SendVerificationEmail(ctx context.Context, to, username, link string) error
	SendPasswordResetEmail(ctx context.Context, to, username, link string) error
}

type UserAuthService interface {
	Register(ctx context.Context, req *types.RegisterRequest) (*entity.User, error)
	Login(ctx context.Context, req *types.LoginRequest) (string, error)
	Logout(ctx context.Context, claims *Claims) error
	ConfirmEmail(ctx context.Context, req *types.ConfirmEmailRequest) (alreadyVerified bool, err error)
	RequestEmail(ctx context.Context, req *types.EmailRequest) (alreadyVerified bool, err error)
	ForgotPassword(ctx context.Context, req *types.EmailRequest) error
	ConfirmResetPassword(ctx context.Context, req *types.ConfirmResetPasswordRequest) error
	Authenticate(ctx context.Context, bearer string) (*entity.User, *Claims, error)
}

type AsyncRunner func(task func())

type UserAuthServiceOption func(*userAuthService)

type userAuthService struct {
	userRepo    userRepository
	hasher      PasswordHasher
	tokens      *TokenService
	mailer      Mailer
	cfg         *config.Config
	asyncRunner AsyncRunner

	dummyOnce sync.Once
	dummyHash string
}

func NewUserAuthService(
	userRepo userRepository,
	hasher PasswordHasher,
	tokens *TokenService,
	mailer Mailer,
	cfg *config.Config,
	opts ...UserAuthServiceOption,
) UserAuthService {
	svc := &userAuthService{
		userRepo: userRepo,
		hasher:   hasher,
		tokens:   tokens,
		mailer:   mailer,
		cfg:      cfg,
		asyncRunner: func(task func()) {
			go task()
		},
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

func WithAsyncRunner(runner AsyncRunner) UserAuthServiceOption {
	return func(s *userAuthService) {
		if runner != nil {
			s.asyncRunner = runner
		}
	}
}

func (s *userAuthService) Register(ctx context.Context, req *types.RegisterRequest) (*entity.User, error) {
	email := NormalizeEmail(req.Email)

	existing, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrEmailTaken
	}

	existing, err = s.userRepo.FindByUsername(ctx, req.Username)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrUsernameTaken
	}

	if err = s.cfg.Password.Policy.Validate(req.Password); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrWeakPassword, err.Error())
	}

	hashedPassword, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	user := &entity.User{
		Username:       req.Username,
		Email:          email,
		HashedPassword: hashedPassword,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err = s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEntry) {
			return nil, ErrUserExists
		}
		return nil, err
	}

	s.scheduleVerificationEmail(user)

	return user, nil
}

func (s *userAuthService) Login(ctx context.Context, req *types.LoginRequest) (string, error) {
	user, err := s.userRepo.FindByEmail(ctx, NormalizeEmail(req.Email))
	if err != nil {
		return "", err
	}
	if user == nil {
		// Same bcrypt work as a real mismatch so response time does not reveal
		// whether the email exists.
		s.hasher.Verify(req.Password, s.dummyDigest())
		return "", ErrInvalidCredentials
	}

	if !s.hasher.Verify(req.Password, user.HashedPassword) {
		return "", ErrInvalidCredentials
	}

	if !user.IsVerified {
		return "", ErrEmailNotVerified
	}

	return s.tokens.IssueSessionToken(user.Username)
}

func (s *userAuthService) Logout(ctx context.Context, claims *Claims) error {
	return s.tokens.Revoke(ctx, claims)
}

func (s *userAuthService) ConfirmEmail(ctx context.Context, req *types.ConfirmEmailRequest) (bool, error) {
	claims, err := s.tokens.Verify(ctx, req.Token, PurposeEmailVerification)
	if err != nil {
		return false, err
	}

	user, err := s.userRepo.FindByEmail(ctx, claims.Subject)
	if err != nil {
		return false, err
	}
	if user == nil {
		return false, ErrVerificationFailed
	}
	if user.IsVerified {
		return true, nil
	}

	if err = s.userRepo.MarkVerified(ctx, user.Email); err != nil {
		return false, err
	}
	return false, nil
}

// RequestEmail answers an unknown address exactly like a successful send.
func (s *userAuthService) RequestEmail(ctx context.Context, req *types.EmailRequest) (bool, error) {
	user, err := s.userRepo.FindByEmail(ctx, NormalizeEmail(req.Email))
	if err != nil {
		return false, err
	}
	if user == nil {
		return false, nil
	}
	if user.IsVerified {
		return true, nil
	}

	s.scheduleVerificationEmail(user)
	return false, nil
}

func (s *userAuthService) ForgotPassword(ctx context.Context, req *types.EmailRequest) error {
	user, err := s.userRepo.FindByEmail(ctx, NormalizeEmail(req.Email))
	if err != nil {
		return err
	}
	if user == nil {
		return ErrUserNotFound
	}

	token, err := s.tokens.IssueResetToken(user.Email, PasswordFingerprint(user.HashedPassword))
	if err != nil {
		return err
	}

	link := s.resetLink(token)
	email, username := user.Email, user.Username
	s.asyncRunner(func() {
		mailCtx, cancel := context.WithTimeout(context.Background(), mailTimeout)
		defer cancel()

		if sendErr := s.mailer.SendPasswordResetEmail(mailCtx, email, username, link); sendErr != nil {
			logrus.WithError(sendErr).WithField("email", email).Error("failed to send password reset email")
		}
	})

	return nil
}

func (s *userAuthService) ConfirmResetPassword(ctx context.Context, req *types.ConfirmResetPasswordRequest) error {
	claims, err := s.tokens.Verify(ctx, req.Token, PurposePasswordReset)
	if err != nil {
		return err
	}

	if err = s.cfg.Password.Policy.Validate(req.NewPassword); err != nil {
		return fmt.Errorf("%w: %s", ErrWeakPassword, err.Error())
	}

	user, err := s.userRepo.FindByEmail(ctx, claims.Subject)
	if err != nil {
		return err
	}
	if user == nil || claims.Password != PasswordFingerprint(user.HashedPassword) {
		return ErrInvalidToken
	}

	hashedPassword, err := s.hasher.Hash(req.NewPassword)
	if err != nil {
		return err
	}
	if err = s.userRepo.SetPasswordHash(ctx, user.Email, hashedPassword); err != nil {
		return err
	}

	if err = s.tokens.Revoke(ctx, claims); err != nil {
		logrus.WithError(err).WithField("email", user.Email).Warn("failed to revoke password reset token")
	}
	return nil
}

func (s *userAuthService) Authenticate(ctx context.Context, bearer string) (*entity.User, *Claims, error) {
	claims, err := s.tokens.Verify(ctx, bearer, PurposeSession)
	if err != nil {
		return nil, nil, err
	}

	user, err := s.userRepo.FindByUsername(ctx, claims.Subject)
	if err != nil {
		return nil, nil, err
	}
	if user == nil {
		return nil, nil, ErrInvalidToken
	}

	return user, claims, nil
}

func (s *userAuthService) scheduleVerificationEmail(user *entity.User) {
	email, username := user.Email, user.Username
	s.asyncRunner(func() {
		token, err := s.tokens.IssueVerificationToken(email)
		if err != nil {
			logrus.WithError(err).WithField("email", email).Error("failed to issue verification token")
			return
		}

		mailCtx, cancel := context.WithTimeout(context.Background(), mailTimeout)
		defer cancel()

		link := s.cfg.AppBaseURL + "/api/auth/confirmed_email/" + url.PathEscape(token)
		if sendErr := s.mailer.SendVerificationEmail(mailCtx, email, username, link); sendErr != nil {
			logrus.WithError(sendErr).WithField("email", email).Error("failed to send verification email")
		}
	})
}

func (s *userAuthService) resetLink(token string) string {
	base := s.cfg.Mail.PasswordResetURL
	if base == "" {
		base = s.cfg.AppBaseURL + "/api/auth/confirm_reset_password"
	}
	return base + "/" + url.PathEscape(token)
}

func (s *userAuthService) dummyDigest() string {
	s.dummyOnce.Do(func() {
		digest, err := s.hasher.Hash(dummyPasswordSeed)
		if err != nil {
			logrus.WithError(err).Warn("failed to prepare dummy password digest")
			return
		}
		s.dummyHash = digest
	})
	return s.dummyHash
}
