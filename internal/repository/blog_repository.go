package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/blog-service/internal/domain"
)

// BlogRepository encapsulates blog persistence.
type BlogRepository interface {
	Create(ctx context.Context, blog *domain.Blog) error
	Update(ctx context.Context, blog *domain.Blog) error
	GetByID(ctx context.Context, id int64) (*domain.Blog, error)
	// List returns one page ordered by id together with the total number of blogs.
	List(ctx context.Context, limit, offset int) ([]domain.Blog, int, error)
	// SearchByTitle matches term case-insensitively anywhere in the title.
	SearchByTitle(ctx context.Context, term string) ([]domain.Blog, error)
}

type blogRepository struct {
	pool *pgxpool.Pool
}

// NewBlogRepository instantiates repository.
func NewBlogRepository(pool *pgxpool.Pool) BlogRepository {
	return &blogRepository{pool: pool}
}

func (r *blogRepository) Create(ctx context.Context, blog *domain.Blog) error {
	const query = `
        INSERT INTO blogs (title, content, author_id)
        VALUES ($1,$2,$3)
        RETURNING id, created_at, updated_at`
	if err := r.pool.QueryRow(ctx, query,
		blog.Title,
		blog.Content,
		blog.AuthorID,
	).Scan(&blog.ID, &blog.CreatedAt, &blog.UpdatedAt); err != nil {
		return fmt.Errorf("insert blog: %w", err)
	}
	return nil
}

func (r *blogRepository) Update(ctx context.Context, blog *domain.Blog) error {
	const query = `
        UPDATE blogs SET title=$1, content=$2, updated_at=NOW()
        WHERE id=$3
        RETURNING updated_at`
	if err := r.pool.QueryRow(ctx, query, blog.Title, blog.Content, blog.ID).Scan(&blog.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("update blog: %w", err)
	}
	return nil
}

func (r *blogRepository) GetByID(ctx context.Context, id int64) (*domain.Blog, error) {
	const query = `
        SELECT id, title, content, author_id, created_at, updated_at
        FROM blogs WHERE id=$1`
	var blog domain.Blog
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&blog.ID,
		&blog.Title,
		&blog.Content,
		&blog.AuthorID,
		&blog.CreatedAt,
		&blog.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get blog: %w", err)
	}
	return &blog, nil
}

func (r *blogRepository) List(ctx context.Context, limit, offset int) ([]domain.Blog, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM blogs`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count blogs: %w", err)
	}

	const query = `
        SELECT id, title, content, author_id, created_at, updated_at
        FROM blogs ORDER BY id LIMIT $1 OFFSET $2`
	rows, err := r.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list blogs: %w", err)
	}
	defer rows.Close()

	blogs, err := scanBlogs(rows)
	if err != nil {
		return nil, 0, err
	}
	return blogs, total, nil
}

func (r *blogRepository) SearchByTitle(ctx context.Context, term string) ([]domain.Blog, error) {
	const query = `
        SELECT id, title, content, author_id, created_at, updated_at
        FROM blogs WHERE title ILIKE $1 ESCAPE '\' ORDER BY id`
	rows, err := r.pool.Query(ctx, query, "%"+escapeLike(term)+"%")
	if err != nil {
		return nil, fmt.Errorf("search blogs: %w", err)
	}
	defer rows.Close()
	return scanBlogs(rows)
}

func scanBlogs(rows pgx.Rows) ([]domain.Blog, error) {
	var result []domain.Blog
	for rows.Next() {
		var blog domain.Blog
		if err := rows.Scan(
			&blog.ID,
			&blog.Title,
			&blog.Content,
			&blog.AuthorID,
			&blog.CreatedAt,
			&blog.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, blog)
	}
	return result, rows.Err()
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(term string) string {
	return likeEscaper.Replace(term)
}
