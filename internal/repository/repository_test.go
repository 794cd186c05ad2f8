package repository

import (
	"context"
	"fmt"
	"math"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/blog-service/internal/domain"
	"github.com/spec-kit/blog-service/internal/persistence"
	"github.com/spec-kit/blog-service/migrations"
)

type stores struct {
	users UserRepository
	blogs BlogRepository
}

// backends returns the memory stores plus Postgres ones when TEST_POSTGRES_DSN is set.
func backends(t *testing.T) map[string]func(t *testing.T) stores {
	t.Helper()
	out := map[string]func(t *testing.T) stores{
		"memory": func(*testing.T) stores {
			return stores{users: NewMemoryUserRepository(), blogs: NewMemoryBlogRepository()}
		},
	}
	dsn := os.Getenv("TEST_POSTGRES_DSN")
	if dsn == "" {
		return out
	}
	out["postgres"] = func(t *testing.T) stores {
		ctx := context.Background()
		pool, err := pgxpool.New(ctx, dsn)
		require.NoError(t, err)
		t.Cleanup(pool.Close)
		require.NoError(t, persistence.RunMigrations(ctx, pool, migrations.FS, zap.NewNop()))
		_, err = pool.Exec(ctx, `TRUNCATE blogs, users RESTART IDENTITY CASCADE`)
		require.NoError(t, err)
		return stores{users: NewUserRepository(pool), blogs: NewBlogRepository(pool)}
	}
	return out
}

func TestUserRepository(t *testing.T) {
	for name, open := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := open(t)

			alice := &domain.User{Username: "alice", PasswordHash: "hash-a"}
			require.NoError(t, s.users.Create(ctx, alice))
			assert.Equal(t, int64(1), alice.ID)
			assert.False(t, alice.CreatedAt.IsZero())
			assert.Nil(t, alice.LastLogin)

			bob := &domain.User{Username: "bob", PasswordHash: "hash-b"}
			require.NoError(t, s.users.Create(ctx, bob))
			assert.Equal(t, int64(2), bob.ID)

			err := s.users.Create(ctx, &domain.User{Username: "alice", PasswordHash: "other"})
			assert.ErrorIs(t, err, ErrDuplicateUsername)

			byName, err := s.users.GetByUsername(ctx, "alice")
			require.NoError(t, err)
			assert.Equal(t, alice.ID, byName.ID)
			assert.Equal(t, "hash-a", byName.PasswordHash)

			byID, err := s.users.GetByID(ctx, bob.ID)
			require.NoError(t, err)
			assert.Equal(t, "bob", byID.Username)

			_, err = s.users.GetByUsername(ctx, "carol")
			assert.ErrorIs(t, err, ErrNotFound)
			_, err = s.users.GetByID(ctx, 999)
			assert.ErrorIs(t, err, ErrNotFound)

			at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
			require.NoError(t, s.users.RecordLogin(ctx, byName, at))
			require.NotNil(t, byName.LastLogin)
			assert.True(t, byName.LastLogin.Equal(at))

			reloaded, err := s.users.GetByID(ctx, alice.ID)
			require.NoError(t, err)
			require.NotNil(t, reloaded.LastLogin)
			assert.True(t, reloaded.LastLogin.Equal(at))

			assert.ErrorIs(t, s.users.RecordLogin(ctx, &domain.User{ID: 999}, at), ErrNotFound)
		})
	}
}

func TestUserRepositoryConcurrentDuplicateCreate(t *testing.T) {
	for name, open := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := open(t)

			const attempts = 8
			errs := make([]error, attempts)
			var wg sync.WaitGroup
			for i := 0; i < attempts; i++ {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					errs[i] = s.users.Create(ctx, &domain.User{Username: "alice", PasswordHash: "h"})
				}(i)
			}
			wg.Wait()

			successes, duplicates := 0, 0
			for _, err := range errs {
				switch {
				case err == nil:
					successes++
				case assert.ErrorIs(t, err, ErrDuplicateUsername):
					duplicates++
				}
			}
			assert.Equal(t, 1, successes)
			assert.Equal(t, attempts-1, duplicates)
		})
	}
}

func TestMemoryUserRepositoryReturnsCopies(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryUserRepository()

	user := &domain.User{Username: "alice", PasswordHash: "hash"}
	require.NoError(t, repo.Create(ctx, user))
	user.Username = "mallory"

	stored, err := repo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", stored.Username)

	stored.PasswordHash = "tampered"
	again, err := repo.GetByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "hash", again.PasswordHash)
}

func TestBlogRepository(t *testing.T) {
	for name, open := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := open(t)

			author := &domain.User{Username: "alice", PasswordHash: "h"}
			require.NoError(t, s.users.Create(ctx, author))

			titles := []string{"Go Concurrency", "Cooking pasta", "Advanced go tooling", "100% coverage", "snake_case names"}
			for _, title := range titles {
				blog := &domain.Blog{Title: title, Content: "body of " + title, AuthorID: author.ID}
				require.NoError(t, s.blogs.Create(ctx, blog))
				assert.NotZero(t, blog.ID)
			}

			page, total, err := s.blogs.List(ctx, 2, 0)
			require.NoError(t, err)
			assert.Equal(t, 5, total)
			require.Len(t, page, 2)
			assert.Equal(t, "Go Concurrency", page[0].Title)
			assert.Equal(t, "Cooking pasta", page[1].Title)

			page, _, err = s.blogs.List(ctx, 2, 4)
			require.NoError(t, err)
			require.Len(t, page, 1)
			assert.Equal(t, "snake_case names", page[0].Title)

			page, total, err = s.blogs.List(ctx, 2, 10)
			require.NoError(t, err)
			assert.Empty(t, page)
			assert.Equal(t, 5, total)

			found, err := s.blogs.SearchByTitle(ctx, "GO")
			require.NoError(t, err)
			require.Len(t, found, 2)
			assert.Equal(t, "Go Concurrency", found[0].Title)
			assert.Equal(t, "Advanced go tooling", found[1].Title)

			found, err = s.blogs.SearchByTitle(ctx, "%")
			require.NoError(t, err)
			require.Len(t, found, 1, "wildcards are matched literally")
			assert.Equal(t, "100% coverage", found[0].Title)

			found, err = s.blogs.SearchByTitle(ctx, "_")
			require.NoError(t, err)
			require.Len(t, found, 1)

			found, err = s.blogs.SearchByTitle(ctx, "rust")
			require.NoError(t, err)
			assert.Empty(t, found)

			blog, err := s.blogs.GetByID(ctx, 1)
			require.NoError(t, err)
			blog.Title = "Go Concurrency, revised"
			blog.Content = "new body"
			require.NoError(t, s.blogs.Update(ctx, blog))

			reloaded, err := s.blogs.GetByID(ctx, 1)
			require.NoError(t, err)
			assert.Equal(t, "Go Concurrency, revised", reloaded.Title)
			assert.Equal(t, "new body", reloaded.Content)
			assert.Equal(t, author.ID, reloaded.AuthorID)

			_, err = s.blogs.GetByID(ctx, 999)
			assert.ErrorIs(t, err, ErrNotFound)
			assert.ErrorIs(t, s.blogs.Update(ctx, &domain.Blog{ID: 999, Title: "x", Content: "y"}), ErrNotFound)
		})
	}
}

func TestMemoryBlogRepositoryListBounds(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryBlogRepository()
	require.NoError(t, repo.Create(ctx, &domain.Blog{Title: "one", Content: "body", AuthorID: 1}))

	for _, tc := range []struct{ limit, offset int }{
		{2, -2},
		{2, math.MinInt},
		{0, 0},
		{math.MaxInt, 0},
	} {
		var (
			page  []domain.Blog
			total int
			err   error
		)
		require.NotPanics(t, func() { page, total, err = repo.List(ctx, tc.limit, tc.offset) })
		require.NoError(t, err)
		assert.Equal(t, 1, total)
		if tc.limit == math.MaxInt {
			assert.Len(t, page, 1)
		} else {
			assert.Empty(t, page)
		}
	}
}

func TestEscapeLike(t *testing.T) {
	tests := map[string]string{
		"plain":  "plain",
		"100%":   `100\%`,
		"a_b":    `a\_b`,
		`back\`:  `back\\`,
		`%_\mix`: `\%\_\\mix`,
	}
	for in, want := range tests {
		assert.Equal(t, want, escapeLike(in), fmt.Sprintf("escapeLike(%q)", in))
	}
}
