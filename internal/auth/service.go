package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/hongminglow/loft-be/internal/logger"
	"github.com/hongminglow/loft-be/internal/metrics"
	"github.com/hongminglow/loft-be/internal/models"
	"github.com/hongminglow/loft-be/internal/models/dto"
	"github.com/hongminglow/loft-be/internal/storage"
)

var (
	ErrDuplicateEmail       = errors.New("email already registered")
	ErrInvalidCredentials   = errors.New("invalid email or password")
	ErrEmailNotVerified     = errors.New("email not verified")
	ErrAccountMisconfigured = errors.New("account has no password set")
	ErrInvalidResetToken    = errors.New("invalid or expired reset token")
)

// Store is the persistence the auth service needs.
type Store interface {
	storage.UserStore
	storage.SessionStore
}

// ResetNotifier delivers password reset tokens to account holders.
type ResetNotifier interface {
	SendPasswordReset(ctx context.Context, email, token string, expiresAt time.Time) error
}

// Options tunes the service. Zero values fall back to the defaults.
type Options struct {
	SessionTTL    time.Duration
	ResetTokenTTL time.Duration
	BcryptCost    int
	Notifier      ResetNotifier
}

// SessionInfo is an authenticated session together with its user.
type SessionInfo struct {
	User      models.User
	Token     string
	ExpiresAt time.Time
}

// Service implements registration, login, session lookup and password reset.
type Service struct {
	store      Store
	log        *zap.Logger
	metrics    *metrics.Metrics
	notifier   ResetNotifier
	sessionTTL time.Duration
	resetTTL   time.Duration
	cost       int
	now        func() time.Time
}

// NewService wires a Service. m may be nil.
func NewService(store Store, log *zap.Logger, m *metrics.Metrics, opts Options) *Service {
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = 7 * 24 * time.Hour
	}
	if opts.ResetTokenTTL <= 0 {
		opts.ResetTokenTTL = time.Hour
	}
	if opts.BcryptCost == 0 {
		opts.BcryptCost = DefaultBcryptCost
	}
	if opts.Notifier == nil {
		opts.Notifier = logNotifier{log: log}
	}
	return &Service{
		store:      store,
		log:        log,
		metrics:    m,
		notifier:   opts.Notifier,
		sessionTTL: opts.SessionTTL,
		resetTTL:   opts.ResetTokenTTL,
		cost:       opts.BcryptCost,
		now:        time.Now,
	}
}

// SessionTTL is the lifetime of newly issued sessions.
func (s *Service) SessionTTL() time.Duration {
	return s.sessionTTL
}

// Register creates a verified account and opens a session for it.
func (s *Service) Register(ctx context.Context, req dto.RegisterRequest) (SessionInfo, error) {
	email := strings.TrimSpace(req.Email)
	fullName := strings.TrimSpace(req.FullName)
	if err := models.ValidateEmail(email); err != nil {
		return SessionInfo{}, err
	}
	if err := models.ValidatePassword(req.Password); err != nil {
		return SessionInfo{}, err
	}
	if fullName == "" {
		return SessionInfo{}, &models.ValidationError{Field: "full_name", Message: "is required"}
	}
	role, err := models.ParseRole(req.Role)
	if err != nil {
		return SessionInfo{}, err
	}

	hash, err := HashPassword(req.Password, s.cost)
	if err != nil {
		return SessionInfo{}, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.store.CreateUser(ctx, models.User{
		Email:         email,
		FullName:      fullName,
		Role:          role,
		PasswordHash:  hash,
		EmailVerified: true,
	})
	if err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			return SessionInfo{}, ErrDuplicateEmail
		}
		return SessionInfo{}, fmt.Errorf("create user: %w", err)
	}

	info, err := s.openSession(ctx, user)
	if err != nil {
		return SessionInfo{}, err
	}
	s.metrics.SessionCreated("register")
	logger.FromContext(ctx).Info("user registered", zap.String("user_id", user.ID.String()), zap.String("role", string(role)))
	return info, nil
}

// Login checks credentials and opens a session. A missing account and a wrong password
// both yield ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, req dto.LoginRequest) (SessionInfo, error) {
	email := strings.TrimSpace(req.Email)
	if email == "" || req.Password == "" {
		return SessionInfo{}, ErrInvalidCredentials
	}

	user, err := s.store.FindUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			s.metrics.LoginFailed("invalid_credentials")
			return SessionInfo{}, ErrInvalidCredentials
		}
		return SessionInfo{}, fmt.Errorf("find user: %w", err)
	}
	if !user.EmailVerified {
		s.metrics.LoginFailed("email_not_verified")
		return SessionInfo{}, ErrEmailNotVerified
	}
	if user.PasswordHash == "" {
		s.metrics.LoginFailed("misconfigured")
		return SessionInfo{}, ErrAccountMisconfigured
	}

	ok, err := CheckPassword(user.PasswordHash, req.Password)
	if err != nil {
		logger.FromContext(ctx).Error("stored password hash unreadable", zap.String("user_id", user.ID.String()), zap.Error(err))
		s.metrics.LoginFailed("misconfigured")
		return SessionInfo{}, ErrAccountMisconfigured
	}
	if !ok {
		s.metrics.LoginFailed("invalid_credentials")
		return SessionInfo{}, ErrInvalidCredentials
	}

	info, err := s.openSession(ctx, user)
	if err != nil {
		return SessionInfo{}, err
	}
	s.metrics.SessionCreated("login")
	return info, nil
}

// openSession stores a fresh token for user and stamps last_login.
func (s *Service) openSession(ctx context.Context, user models.User) (SessionInfo, error) {
	token, err := GenerateSessionToken()
	if err != nil {
		return SessionInfo{}, err
	}
	now := s.now()
	session := models.Session{
		UserID:    user.ID,
		Token:     token,
		ExpiresAt: now.Add(s.sessionTTL),
		CreatedAt: now,
	}
	if err := s.store.CreateSession(ctx, session); err != nil {
		return SessionInfo{}, fmt.Errorf("create session: %w", err)
	}
	if err := s.store.TouchLastLogin(ctx, user.ID, now); err != nil {
		return SessionInfo{}, fmt.Errorf("touch last login: %w", err)
	}
	user.LastLogin = &now
	return SessionInfo{User: user, Token: token, ExpiresAt: session.ExpiresAt}, nil
}

// GetSession resolves token to an active session. The boolean is false when the token is
// empty, unknown or expired; expired rows are removed on that lookup.
func (s *Service) GetSession(ctx context.Context, token string) (SessionInfo, bool, error) {
	if token == "" {
		return SessionInfo{}, false, nil
	}
	session, user, err := s.store.FindActiveSession(ctx, token, s.now())
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			return SessionInfo{}, false, fmt.Errorf("find session: %w", err)
		}
		if err := s.store.DeleteSession(ctx, token); err != nil {
			logger.FromContext(ctx).Warn("drop stale session failed", zap.Error(err))
		}
		return SessionInfo{}, false, nil
	}
	return SessionInfo{User: user, Token: session.Token, ExpiresAt: session.ExpiresAt}, true, nil
}

// Logout revokes token. Storage failures are logged, never returned.
func (s *Service) Logout(ctx context.Context, token string) {
	if token == "" {
		return
	}
	if err := s.store.DeleteSession(ctx, token); err != nil {
		logger.FromContext(ctx).Error("delete session failed", zap.Error(err))
	}
}

// RequestPasswordReset issues a reset token when email belongs to an account. The caller
// sees success either way.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) {
	email = strings.TrimSpace(email)
	if email == "" {
		return
	}
	log := logger.FromContext(ctx)

	token, err := GenerateSessionToken()
	if err != nil {
		log.Error("generate reset token failed", zap.Error(err))
		return
	}
	expiresAt := s.now().Add(s.resetTTL)
	if err := s.store.SetResetToken(ctx, email, token, expiresAt); err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			log.Error("store reset token failed", zap.Error(err))
		}
		return
	}
	if err := s.notifier.SendPasswordReset(ctx, email, token, expiresAt); err != nil {
		log.Error("send password reset failed", zap.Error(err))
	}
}

// ResetPassword replaces the password of the account holding token and signs it out everywhere.
func (s *Service) ResetPassword(ctx context.Context, req dto.ResetPasswordRequest) error {
	if strings.TrimSpace(req.Token) == "" {
		return ErrInvalidResetToken
	}
	if err := models.ValidatePassword(req.Password); err != nil {
		return err
	}
	hash, err := HashPassword(req.Password, s.cost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.store.ResetPassword(ctx, req.Token, hash, s.now()); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrInvalidResetToken
		}
		return fmt.Errorf("reset password: %w", err)
	}
	return nil
}

type logNotifier struct {
	log *zap.Logger
}

// SendPasswordReset only records that a reset was issued; no mail transport is configured.
func (n logNotifier) SendPasswordReset(_ context.Context, email, _ string, expiresAt time.Time) error {
	n.log.Info("password reset issued", zap.String("email", email), zap.Time("expires_at", expiresAt))
	return nil
}
