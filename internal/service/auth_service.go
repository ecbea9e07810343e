package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/finance-tracker/internal/auth"
	"github.com/spec-kit/finance-tracker/internal/config"
	"github.com/spec-kit/finance-tracker/internal/domain"
	"github.com/spec-kit/finance-tracker/internal/repository"
	apperrors "github.com/spec-kit/finance-tracker/pkg/util/errorutil"
)

var errInvalidCredentials = apperrors.NewUnauthorized("invalid email or password")

// LockoutPolicy bounds repeated failed logins for one email.
type LockoutPolicy struct {
	MaxFailures int
	Window      time.Duration
	Duration    time.Duration
}

// AuthResult is returned by register and login.
type AuthResult struct {
	User  *domain.User
	Token domain.Token
}

// TokenCheck is the outcome of validating a raw token.
type TokenCheck struct {
	Valid bool
	Email string
}

// AuthService coordinates registration and login flows.
type AuthService struct {
	users      repository.UserRepository
	codec      *auth.TokenCodec
	validator  *auth.TokenValidator
	lockout    auth.LockoutStore
	policy     LockoutPolicy
	bcryptCost int
	logger     *zap.Logger
}

// AuthDependencies encapsulates requirements for the auth service.
// Lockout may be nil, which disables login lockout.
type AuthDependencies struct {
	UserRepo  repository.UserRepository
	Codec     *auth.TokenCodec
	Validator *auth.TokenValidator
	Lockout   auth.LockoutStore
	Logger    *zap.Logger
}

// NewAuthService builds the service.
func NewAuthService(cfg config.AuthConfig, deps AuthDependencies) *AuthService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{
		users:     deps.UserRepo,
		codec:     deps.Codec,
		validator: deps.Validator,
		lockout:   deps.Lockout,
		policy: LockoutPolicy{
			MaxFailures: cfg.LockoutMaxFailures,
			Window:      cfg.LockoutWindow(),
			Duration:    cfg.LockoutDuration(),
		},
		bcryptCost: cfg.BcryptCost,
		logger:     logger.Named("auth"),
	}
}

// RegisterInput carries a new account.
type RegisterInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
}

// Register creates an account and issues its first token.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*AuthResult, error) {
	email := normalizeEmail(input.Email)

	exists, err := s.users.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, apperrors.NewConflict("email already registered", map[string]any{"email": email})
	}

	hash, err := auth.HashPassword(input.Password, s.bcryptCost)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Email:        email,
		PasswordHash: hash,
		FirstName:    strings.TrimSpace(input.FirstName),
		LastName:     strings.TrimSpace(input.LastName),
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	token, err := s.codec.Issue(user.Email)
	if err != nil {
		return nil, err
	}
	s.logger.Info("user registered", zap.String("user_id", user.ID))
	return &AuthResult{User: user, Token: token}, nil
}

// Login authenticates by email and password.
func (s *AuthService) Login(ctx context.Context, emailInput, password string) (*AuthResult, error) {
	email := normalizeEmail(emailInput)

	if locked, until := s.isLocked(ctx, email); locked {
		return nil, apperrors.NewTooManyRequests("ACCOUNT_LOCKED", "too many failed login attempts", map[string]any{
			"lockedUntil": until.UTC().Format(time.RFC3339),
		})
	}

	user, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, pgx.ErrNoRows) {
		auth.BurnPasswordCompare(password)
		s.recordFailure(ctx, email)
		return nil, errInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		if !errors.Is(err, auth.ErrPasswordMismatch) {
			return nil, err
		}
		s.recordFailure(ctx, email)
		return nil, errInvalidCredentials
	}

	if s.lockout != nil {
		if err := s.lockout.ClearFailures(ctx, email); err != nil {
			s.logger.Warn("clear login failures", zap.Error(err))
		}
	}

	token, err := s.codec.Issue(user.Email)
	if err != nil {
		return nil, err
	}
	return &AuthResult{User: user, Token: token}, nil
}

// Validate reports whether token is a live token for its own subject.
// A correctly signed token reports its email even once expired; undecodable tokens report none.
func (s *AuthService) Validate(token string) TokenCheck {
	subject, err := s.validator.ExtractSubject(token)
	if err != nil {
		return TokenCheck{}
	}
	return TokenCheck{Valid: s.validator.IsValid(token, subject), Email: subject}
}

// ResolveUser loads the account a bound identity refers to.
func (s *AuthService) ResolveUser(ctx context.Context, email string) (*domain.User, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.NewUnauthorized("user not found")
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (s *AuthService) isLocked(ctx context.Context, email string) (bool, time.Time) {
	if s.lockout == nil {
		return false, time.Time{}
	}
	locked, until, err := s.lockout.IsLocked(ctx, email)
	if err != nil {
		s.logger.Warn("lockout check failed, allowing login", zap.Error(err))
		return false, time.Time{}
	}
	return locked, until
}

func (s *AuthService) recordFailure(ctx context.Context, email string) {
	if s.lockout == nil || s.policy.MaxFailures <= 0 {
		return
	}
	failures, err := s.lockout.RecordFailure(ctx, email, s.policy.Window)
	if err != nil {
		s.logger.Warn("record login failure", zap.Error(err))
		return
	}
	if failures < s.policy.MaxFailures {
		return
	}
	if err := s.lockout.Lock(ctx, email, s.policy.Duration); err != nil {
		s.logger.Warn("lock account", zap.Error(err))
		return
	}
	s.logger.Warn("account locked", zap.Int("failures", failures), zap.Duration("duration", s.policy.Duration))
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
