package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/crypto/pbkdf2"

	"github.com/spec-kit/blog-service/internal/config"
)

const (
	pbkdf2Prefix      = "pbkdf2:sha256"
	pbkdf2KeyLen      = 32
	saltLength        = 16
	saltChars         = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
	defaultIterations = 600000
)

var (
	// ErrPasswordMismatch is returned when a password does not match its stored hash.
	ErrPasswordMismatch = errors.New("password mismatch")
	// ErrUnknownHashFormat is returned for stored hashes no scheme recognizes.
	ErrUnknownHashFormat = errors.New("unknown password hash format")
)

// PasswordHasher hashes new passwords with the configured scheme and verifies any supported format.
type PasswordHasher struct {
	scheme     string
	iterations int
	bcryptCost int
}

// NewPasswordHasher builds a hasher from auth settings.
func NewPasswordHasher(cfg config.AuthConfig) *PasswordHasher {
	h := &PasswordHasher{
		scheme:     cfg.PasswordScheme,
		iterations: cfg.PBKDF2Iterations,
		bcryptCost: cfg.BcryptCost,
	}
	if h.scheme == "" {
		h.scheme = config.PasswordSchemePBKDF2
	}
	if h.iterations <= 0 {
		h.iterations = defaultIterations
	}
	if h.bcryptCost <= 0 {
		h.bcryptCost = bcrypt.DefaultCost
	}
	return h
}

// Hash derives a salted one-way hash of the password.
func (h *PasswordHasher) Hash(password string) (string, error) {
	if h.scheme == config.PasswordSchemeBcrypt {
		hashed, err := bcrypt.GenerateFromPassword([]byte(password), h.bcryptCost)
		if err != nil {
			return "", err
		}
		return string(hashed), nil
	}

	salt, err := generateSalt(saltLength)
	if err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}
	digest := pbkdf2.Key([]byte(password), []byte(salt), h.iterations, pbkdf2KeyLen, sha256.New)
	return fmt.Sprintf("%s:%d$%s$%s", pbkdf2Prefix, h.iterations, salt, hex.EncodeToString(digest)), nil
}

// Compare verifies a password against its hashed value.
func (h *PasswordHasher) Compare(hashed, plain string) error {
	switch {
	case strings.HasPrefix(hashed, pbkdf2Prefix):
		return comparePBKDF2(hashed, plain)
	case strings.HasPrefix(hashed, "$2"):
		if err := bcrypt.CompareHashAndPassword([]byte(hashed), []byte(plain)); err != nil {
			if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
				return ErrPasswordMismatch
			}
			return err
		}
		return nil
	default:
		return ErrUnknownHashFormat
	}
}

func comparePBKDF2(hashed, plain string) error {
	parts := strings.SplitN(hashed, "$", 3)
	if len(parts) != 3 {
		return ErrUnknownHashFormat
	}
	method := strings.Split(parts[0], ":")
	if len(method) != 3 {
		return ErrUnknownHashFormat
	}
	iterations, err := strconv.Atoi(method[2])
	if err != nil || iterations <= 0 {
		return ErrUnknownHashFormat
	}
	want, err := hex.DecodeString(parts[2])
	if err != nil || len(want) == 0 {
		return ErrUnknownHashFormat
	}

	got := pbkdf2.Key([]byte(plain), []byte(parts[1]), iterations, len(want), sha256.New)
	if subtle.ConstantTimeCompare(got, want) != 1 {
		return ErrPasswordMismatch
	}
	return nil
}

func generateSalt(n int) (string, error) {
	var sb strings.Builder
	sb.Grow(n)
	max := big.NewInt(int64(len(saltChars)))
	for i := 0; i < n; i++ {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		sb.WriteByte(saltChars[idx.Int64()])
	}
	return sb.String(), nil
}
