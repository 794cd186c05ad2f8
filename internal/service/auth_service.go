package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/spec-kit/blog-service/internal/auth"
	"github.com/spec-kit/blog-service/internal/config"
	"github.com/spec-kit/blog-service/internal/domain"
	"github.com/spec-kit/blog-service/internal/events"
	"github.com/spec-kit/blog-service/internal/repository"
	apperrors "github.com/spec-kit/blog-service/pkg/util/errorutil"
)

const (
	MinUsernameLength = 3
	MinPasswordLength = 6
)

// AuthService coordinates registration, login and logout flows.
type AuthService struct {
	users       repository.UserRepository
	revocations auth.RevocationRegistry
	tokenMgr    *auth.TokenManager
	hasher      *auth.PasswordHasher
	dispatcher  events.Dispatcher
	logger      *zap.Logger
	now         func() time.Time

	dummyOnce sync.Once
	dummyHash string
}

// AuthDependencies encapsulates collaborators for the auth service.
type AuthDependencies struct {
	UserRepo    repository.UserRepository
	Revocations auth.RevocationRegistry
	// Tokens overrides the manager built from config.
	Tokens     *auth.TokenManager
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
	Clock      func() time.Time
}

// NewAuthService builds the service.
func NewAuthService(cfg config.Config, deps AuthDependencies) *AuthService {
	s := &AuthService{
		users:       deps.UserRepo,
		revocations: deps.Revocations,
		tokenMgr:    deps.Tokens,
		hasher:      auth.NewPasswordHasher(cfg.Auth),
		dispatcher:  deps.Dispatcher,
		logger:      deps.Logger,
		now:         deps.Clock,
	}
	if s.tokenMgr == nil {
		s.tokenMgr = auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes)
	}
	if s.revocations == nil {
		s.revocations = auth.NewMemoryRevocations()
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// Register creates a new account and issues its first token.
func (s *AuthService) Register(ctx context.Context, username, password string) (*domain.User, *domain.Token, error) {
	username = strings.TrimSpace(username)
	password = strings.TrimSpace(password)
	if err := validateRegistration(username, password); err != nil {
		return nil, nil, err
	}

	if _, err := s.users.GetByUsername(ctx, username); err == nil {
		return nil, nil, apperrors.NewDuplicateUsername()
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, nil, apperrors.NewInternalError(err)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, nil, apperrors.NewInternalError(fmt.Errorf("hash password: %w", err))
	}

	user := &domain.User{Username: username, PasswordHash: hash}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateUsername) {
			return nil, nil, apperrors.NewDuplicateUsername()
		}
		return nil, nil, apperrors.NewInternalError(err)
	}

	token, err := s.tokenMgr.Issue(user.ID)
	if err != nil {
		return nil, nil, apperrors.NewInternalError(err)
	}

	s.logger.Info("user registered", zap.Int64("user_id", user.ID))
	publish(ctx, s.dispatcher, s.logger, events.New(events.EventUserRegistered, user.ID, events.UserPayload{Username: user.Username}))
	return user, token, nil
}

// Login authenticates a user. Unknown usernames and wrong passwords produce the same error.
func (s *AuthService) Login(ctx context.Context, username, password string) (*domain.User, *domain.Token, error) {
	username = strings.TrimSpace(username)
	password = strings.TrimSpace(password)
	if username == "" || password == "" {
		return nil, nil, apperrors.NewValidationError("username and password are required", nil)
	}

	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.compareDummy(password)
			return nil, nil, apperrors.NewInvalidCredentials()
		}
		return nil, nil, apperrors.NewInternalError(err)
	}

	if err := s.hasher.Compare(user.PasswordHash, password); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			return nil, nil, apperrors.NewInvalidCredentials()
		}
		return nil, nil, apperrors.NewInternalError(fmt.Errorf("verify password for user %d: %w", user.ID, err))
	}

	if err := s.users.RecordLogin(ctx, user, s.now().UTC()); err != nil {
		return nil, nil, apperrors.NewInternalError(err)
	}

	token, err := s.tokenMgr.Issue(user.ID)
	if err != nil {
		return nil, nil, apperrors.NewInternalError(err)
	}

	s.logger.Info("user logged in", zap.Int64("user_id", user.ID))
	publish(ctx, s.dispatcher, s.logger, events.New(events.EventUserLoggedIn, user.ID, events.UserPayload{Username: user.Username}))
	return user, token, nil
}

// Logout revokes the token the caller authenticated with.
func (s *AuthService) Logout(ctx context.Context, userID int64, token *domain.Token) error {
	if token == nil || token.Value == "" {
		return apperrors.NewUnauthorized("token is missing")
	}
	if err := s.revocations.Revoke(ctx, token.Value, token.ExpiresAt); err != nil {
		return apperrors.NewInternalError(err)
	}

	s.logger.Info("user logged out", zap.Int64("user_id", userID))
	publish(ctx, s.dispatcher, s.logger, events.New(events.EventUserLoggedOut, userID, events.LogoutPayload{TokenExpiresAt: token.ExpiresAt}))
	return nil
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}

// Revocations exposes the registry shared with the middleware.
func (s *AuthService) Revocations() auth.RevocationRegistry {
	return s.revocations
}

func validateRegistration(username, password string) error {
	if username == "" {
		return apperrors.NewFieldError("username", "username cannot be empty")
	}
	if password == "" {
		return apperrors.NewFieldError("password", "password cannot be empty")
	}
	if utf8.RuneCountInString(password) < MinPasswordLength {
		return apperrors.NewFieldError("password", fmt.Sprintf("password must be at least %d characters long", MinPasswordLength))
	}
	if utf8.RuneCountInString(username) < MinUsernameLength {
		return apperrors.NewFieldError("username", fmt.Sprintf("username must be at least %d characters long", MinUsernameLength))
	}
	return nil
}

// compareDummy spends the same hashing work as a real comparison.
func (s *AuthService) compareDummy(password string) {
	s.dummyOnce.Do(func() {
		hash, err := s.hasher.Hash("dummy-password-for-timing")
		if err != nil {
			s.logger.Warn("dummy hash unavailable", zap.Error(err))
			return
		}
		s.dummyHash = hash
	})
	if s.dummyHash != "" {
		_ = s.hasher.Compare(s.dummyHash, password)
	}
}
