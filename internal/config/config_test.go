package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"APP_NAME", "APP_ENV", "APP_HOST", "APP_PORT", "HTTP_REQUEST_TIMEOUT_SECONDS",
		"POSTGRES_DSN", "REDIS_ADDR", "REDIS_DB", "AUTH_JWT_SECRET", "AUTH_ACCESS_TOKEN_TTL_MINUTES",
		"AUTH_PASSWORD_SCHEME", "AUTH_REVOCATION_BACKEND", "AUTH_REVOCATION_PRUNE_SECONDS",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "blog-service", cfg.App.Name)
	assert.Equal(t, "0.0.0.0:8080", cfg.App.Addr())
	assert.Equal(t, 30*time.Second, cfg.App.RequestTimeout())
	assert.Equal(t, 60, cfg.Auth.AccessTokenTTLMinutes)
	assert.Equal(t, PasswordSchemePBKDF2, cfg.Auth.PasswordScheme)
	assert.Equal(t, RevocationBackendMemory, cfg.Auth.RevocationBackend)
	assert.Equal(t, 5*time.Minute, cfg.Auth.RevocationPruneInterval())
	assert.Empty(t, cfg.Postgres.DSN)
}

func TestLoadOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("APP_ENV", "production")
	t.Setenv("AUTH_JWT_SECRET", "prod-secret")
	t.Setenv("AUTH_ACCESS_TOKEN_TTL_MINUTES", "15")
	t.Setenv("AUTH_PASSWORD_SCHEME", "BCRYPT")
	t.Setenv("AUTH_REVOCATION_BACKEND", "redis")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("HTTP_REQUEST_TIMEOUT_SECONDS", "0")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 15, cfg.Auth.AccessTokenTTLMinutes)
	assert.Equal(t, PasswordSchemeBcrypt, cfg.Auth.PasswordScheme)
	assert.Equal(t, RevocationBackendRedis, cfg.Auth.RevocationBackend)
	assert.Equal(t, 3, cfg.Redis.DB)
	assert.Zero(t, cfg.App.RequestTimeout())
}

func TestLoadRejectsDefaultSecretOutsideDevelopment(t *testing.T) {
	clearEnv(t)
	t.Setenv("APP_ENV", "production")
	t.Setenv("AUTH_JWT_SECRET", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "AUTH_JWT_SECRET")
}

func TestLoadInvalidRedisDB(t *testing.T) {
	clearEnv(t)
	t.Setenv("REDIS_DB", "abc")

	_, err := Load()
	require.Error(t, err)
}

// unsetEnv removes key for the duration of the test so an env file can supply it.
func unsetEnv(t *testing.T, key string) {
	t.Helper()
	prev, had := os.LookupEnv(key)
	require.NoError(t, os.Unsetenv(key))
	t.Cleanup(func() {
		if had {
			os.Setenv(key, prev)
		} else {
			os.Unsetenv(key)
		}
	})
}

func TestLoadFromEnvFile(t *testing.T) {
	clearEnv(t)
	unsetEnv(t, "APP_VERSION")
	t.Setenv("APP_PORT", "9090")

	path := filepath.Join(t.TempDir(), "service.env")
	require.NoError(t, os.WriteFile(path, []byte("APP_VERSION=1.2.3\nAPP_PORT=7070\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "1.2.3", cfg.App.Version)
	assert.Equal(t, "0.0.0.0:9090", cfg.App.Addr(), "process environment wins over the file")
}

func TestLoadMissingEnvFile(t *testing.T) {
	clearEnv(t)
	_, err := Load(filepath.Join(t.TempDir(), "absent.env"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			App:   AppConfig{Env: "development"},
			Redis: RedisConfig{Addr: "127.0.0.1:6379"},
			Auth: AuthConfig{
				JWTSecret:         DefaultJWTSecret,
				PasswordScheme:    PasswordSchemePBKDF2,
				RevocationBackend: RevocationBackendMemory,
			},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "unknown scheme", mutate: func(c *Config) { c.Auth.PasswordScheme = "md5" }, wantErr: "AUTH_PASSWORD_SCHEME"},
		{name: "unknown backend", mutate: func(c *Config) { c.Auth.RevocationBackend = "etcd" }, wantErr: "AUTH_REVOCATION_BACKEND"},
		{name: "redis without addr", mutate: func(c *Config) {
			c.Auth.RevocationBackend = RevocationBackendRedis
			c.Redis.Addr = ""
		}, wantErr: "REDIS_ADDR"},
		{name: "bolt without path", mutate: func(c *Config) {
			c.Auth.RevocationBackend = RevocationBackendBolt
			c.Auth.RevocationBoltPath = ""
		}, wantErr: "AUTH_REVOCATION_BOLT_PATH"},
		{name: "bolt with path", mutate: func(c *Config) {
			c.Auth.RevocationBackend = RevocationBackendBolt
			c.Auth.RevocationBoltPath = "/tmp/revocations.db"
		}},
		{name: "blank secret", mutate: func(c *Config) { c.Auth.JWTSecret = "  " }, wantErr: "must not be empty"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
