package auth

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"go.uber.org/zap"

	"github.com/spec-kit/blog-service/internal/domain"
	"github.com/spec-kit/blog-service/internal/repository"
	apperrors "github.com/spec-kit/blog-service/pkg/util/errorutil"
)

const (
	principalKey = "auth_principal"

	// TokenHeader carries the access token on protected requests.
	TokenHeader = "x-access-token"
)

// Rejection reasons reported to a FailureRecorder.
const (
	ReasonMissing  = "missing"
	ReasonRevoked  = "revoked"
	ReasonExpired  = "expired"
	ReasonInvalid  = "invalid"
	ReasonNoSuchID = "user_not_found"
)

// Principal represents the authenticated caller.
type Principal struct {
	User  *domain.User
	Token *domain.Token
}

// FailureRecorder observes rejected requests.
type FailureRecorder interface {
	RecordAuthFailure(reason string)
}

// AuthMiddleware validates access tokens and loads principals.
type AuthMiddleware struct {
	tokens      *TokenManager
	revocations RevocationRegistry
	users       repository.UserRepository
	failures    FailureRecorder
	logger      *zap.Logger
}

// NewAuthMiddleware constructs middleware. failures and logger may be nil.
func NewAuthMiddleware(tokens *TokenManager, revocations RevocationRegistry, users repository.UserRepository, failures FailureRecorder, logger *zap.Logger) *AuthMiddleware {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthMiddleware{tokens: tokens, revocations: revocations, users: users, failures: failures, logger: logger}
}

// Handle enforces authentication for protected routes. Checks run in order:
// presence, revocation, signature and expiry, then the user lookup.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	raw := utils.CopyString(c.Get(TokenHeader))
	if raw == "" {
		return m.reject(ReasonMissing, "token is missing")
	}

	revoked, err := m.revocations.IsRevoked(c.UserContext(), raw)
	if err != nil {
		return apperrors.NewInternalError(fmt.Errorf("check revocation: %w", err))
	}
	if revoked {
		return m.reject(ReasonRevoked, "token has been revoked")
	}

	token, err := m.tokens.Verify(raw)
	if err != nil {
		if errors.Is(err, ErrTokenExpired) {
			return m.reject(ReasonExpired, "token has expired")
		}
		m.logger.Debug("token rejected", zap.Error(err))
		return m.reject(ReasonInvalid, "token is invalid")
	}

	user, err := m.users.GetByID(c.UserContext(), token.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return m.reject(ReasonNoSuchID, "user not found")
		}
		return apperrors.NewInternalError(err)
	}
	user.PasswordHash = ""

	c.Locals(principalKey, &Principal{User: user, Token: token})
	return c.Next()
}

func (m *AuthMiddleware) reject(reason, message string) error {
	if m.failures != nil {
		m.failures.RecordAuthFailure(reason)
	}
	return apperrors.NewUnauthorized(message)
}

// PrincipalFromContext retrieves the authenticated entity.
func PrincipalFromContext(c *fiber.Ctx) (*Principal, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	principal, ok := val.(*Principal)
	return principal, ok
}
