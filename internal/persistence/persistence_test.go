package persistence

import (
	"context"
	"io/fs"
	"os"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/blog-service/internal/config"
	"github.com/spec-kit/blog-service/migrations"
)

func TestNewRedis(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	r, err := NewRedis(context.Background(), config.RedisConfig{Addr: mr.Addr()}, zap.NewNop())
	require.NoError(t, err)
	defer r.Close()

	assert.True(t, r.Enabled())
	assert.NoError(t, r.Ping(context.Background()))
}

func TestNewRedisUnreachable(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	addr := mr.Addr()
	mr.Close()

	_, err = NewRedis(context.Background(), config.RedisConfig{Addr: addr}, zap.NewNop())
	assert.Error(t, err)
}

func TestUnconfiguredDependencies(t *testing.T) {
	ctx := context.Background()

	pg, err := NewPostgres(ctx, config.PostgresConfig{}, zap.NewNop())
	require.NoError(t, err)
	assert.False(t, pg.Enabled())
	assert.Nil(t, pg.PoolHandle())
	assert.ErrorIs(t, pg.Ping(ctx), ErrNotConfigured)
	_, ok := pg.Stats()
	assert.False(t, ok)
	pg.Close()

	var nilPG *Postgres
	_, ok = nilPG.Stats()
	assert.False(t, ok)
	nilPG.Close()

	var r *Redis
	assert.False(t, r.Enabled())
	assert.ErrorIs(t, r.Ping(ctx), ErrNotConfigured)
	r.Close()
}

func TestRunMigrationsWithoutPool(t *testing.T) {
	assert.NoError(t, RunMigrations(context.Background(), nil, migrations.FS, zap.NewNop()))
}

func TestEmbeddedMigrations(t *testing.T) {
	names, err := fs.Glob(migrations.FS, "*.sql")
	require.NoError(t, err)
	assert.Equal(t, []string{"0001_create_users.sql", "0002_create_blogs.sql"}, names)

	users, err := fs.ReadFile(migrations.FS, "0001_create_users.sql")
	require.NoError(t, err)
	assert.Contains(t, string(users), "UNIQUE (username)")

	for _, name := range names {
		body, err := fs.ReadFile(migrations.FS, name)
		require.NoError(t, err)
		assert.Contains(t, string(body), "-- +goose Up", name)
		assert.Contains(t, string(body), "-- +goose Down", name)
	}
}

func TestNewPostgresRejectsBadDSN(t *testing.T) {
	_, err := NewPostgres(context.Background(), config.PostgresConfig{DSN: "postgres://%zz"}, zap.NewNop())
	assert.ErrorContains(t, err, "parse postgres dsn")
}

func TestApplyPoolLimits(t *testing.T) {
	poolCfg, err := pgxpool.ParseConfig("postgres://user@localhost:5432/blog")
	require.NoError(t, err)

	applyPoolLimits(poolCfg, config.PostgresConfig{MaxConns: 4, MinConns: 8, ConnMaxIdleSec: 30, ConnMaxLifeSec: 300})
	assert.Equal(t, int32(4), poolCfg.MaxConns)
	assert.NotEqual(t, int32(8), poolCfg.MinConns, "min above max is ignored")
	assert.Equal(t, 30*time.Second, poolCfg.MaxConnIdleTime)
	assert.Equal(t, 5*time.Minute, poolCfg.MaxConnLifetime)
}

func TestPostgresStats(t *testing.T) {
	dsn := os.Getenv("TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("TEST_POSTGRES_DSN not set")
	}
	pg, err := NewPostgres(context.Background(), config.PostgresConfig{DSN: dsn, MaxConns: 3}, zap.NewNop())
	require.NoError(t, err)
	defer pg.Close()

	stats, ok := pg.Stats()
	require.True(t, ok)
	assert.Equal(t, int32(3), stats.MaxConns)
	assert.GreaterOrEqual(t, stats.TotalConns, int32(1))
}
