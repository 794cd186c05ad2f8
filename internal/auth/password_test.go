package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/blog-service/internal/config"
)

func testHasher(scheme string) *PasswordHasher {
	return NewPasswordHasher(config.AuthConfig{
		PasswordScheme:   scheme,
		PBKDF2Iterations: 1000,
		BcryptCost:       bcrypt.MinCost,
	})
}

func TestPasswordHasherPBKDF2RoundTrip(t *testing.T) {
	h := testHasher(config.PasswordSchemePBKDF2)

	hashed, err := h.Hash("secret1")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(hashed, "pbkdf2:sha256:1000$"))
	assert.NotContains(t, hashed, "secret1")

	parts := strings.Split(hashed, "$")
	require.Len(t, parts, 3)
	assert.Len(t, parts[1], saltLength)
	assert.Len(t, parts[2], pbkdf2KeyLen*2)

	require.NoError(t, h.Compare(hashed, "secret1"))
	assert.ErrorIs(t, h.Compare(hashed, "secret2"), ErrPasswordMismatch)
}

func TestPasswordHasherSaltsEachHash(t *testing.T) {
	h := testHasher(config.PasswordSchemePBKDF2)

	first, err := h.Hash("secret1")
	require.NoError(t, err)
	second, err := h.Hash("secret1")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestPasswordHasherVerifiesExternalPBKDF2Hash(t *testing.T) {
	h := testHasher(config.PasswordSchemePBKDF2)
	stored := "pbkdf2:sha256:1000$Zq3XcV8bNm2LkP0w$f8667d2a2b1e7c0ed4d83a94c663f12a41e60c5c15e527526be6c31fbc32b550"

	require.NoError(t, h.Compare(stored, "secret1"))
	assert.ErrorIs(t, h.Compare(stored, "secret11"), ErrPasswordMismatch)
}

func TestPasswordHasherBcrypt(t *testing.T) {
	h := testHasher(config.PasswordSchemeBcrypt)

	hashed, err := h.Hash("secret1")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(hashed, "$2"))

	require.NoError(t, h.Compare(hashed, "secret1"))
	assert.ErrorIs(t, h.Compare(hashed, "nope-nope"), ErrPasswordMismatch)

	// A pbkdf2 hasher still verifies bcrypt hashes stored earlier.
	require.NoError(t, testHasher(config.PasswordSchemePBKDF2).Compare(hashed, "secret1"))
}

func TestPasswordHasherRejectsUnknownFormats(t *testing.T) {
	h := testHasher(config.PasswordSchemePBKDF2)

	for _, stored := range []string{
		"",
		"plaintext",
		"pbkdf2:sha256$salt$abcd",
		"pbkdf2:sha256:abc$salt$abcd",
		"pbkdf2:sha256:1000$salt$zz",
		"pbkdf2:sha256:1000$salt",
	} {
		assert.ErrorIs(t, h.Compare(stored, "secret1"), ErrUnknownHashFormat, stored)
	}
}

func TestNewPasswordHasherDefaults(t *testing.T) {
	h := NewPasswordHasher(config.AuthConfig{})
	assert.Equal(t, config.PasswordSchemePBKDF2, h.scheme)
	assert.Equal(t, defaultIterations, h.iterations)
	assert.Equal(t, bcrypt.DefaultCost, h.bcryptCost)
}
