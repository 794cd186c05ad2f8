package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/spec-kit/blog-service/internal/domain"
)

type memoryBlogRepository struct {
	mu     sync.RWMutex
	nextID int64
	blogs  map[int64]domain.Blog
	now    func() time.Time
}

// NewMemoryBlogRepository builds an in-memory blog store used when no database is configured.
func NewMemoryBlogRepository() BlogRepository {
	return &memoryBlogRepository{blogs: make(map[int64]domain.Blog), now: time.Now}
}

func (r *memoryBlogRepository) Create(_ context.Context, blog *domain.Blog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	now := r.now().UTC()
	blog.ID = r.nextID
	blog.CreatedAt = now
	blog.UpdatedAt = now
	r.blogs[blog.ID] = *blog
	return nil
}

func (r *memoryBlogRepository) Update(_ context.Context, blog *domain.Blog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.blogs[blog.ID]
	if !ok {
		return ErrNotFound
	}
	stored.Title = blog.Title
	stored.Content = blog.Content
	stored.UpdatedAt = r.now().UTC()
	r.blogs[blog.ID] = stored
	blog.UpdatedAt = stored.UpdatedAt
	return nil
}

func (r *memoryBlogRepository) GetByID(_ context.Context, id int64) (*domain.Blog, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	blog, ok := r.blogs[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &blog, nil
}

func (r *memoryBlogRepository) List(_ context.Context, limit, offset int) ([]domain.Blog, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	all := r.sortedLocked()
	if offset < 0 || limit <= 0 || offset >= len(all) {
		return nil, len(all), nil
	}
	end := offset + limit
	if end > len(all) || end < offset {
		end = len(all)
	}
	return all[offset:end], len(all), nil
}

func (r *memoryBlogRepository) SearchByTitle(_ context.Context, term string) ([]domain.Blog, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	needle := strings.ToLower(term)
	var result []domain.Blog
	for _, blog := range r.sortedLocked() {
		if strings.Contains(strings.ToLower(blog.Title), needle) {
			result = append(result, blog)
		}
	}
	return result, nil
}

func (r *memoryBlogRepository) sortedLocked() []domain.Blog {
	all := make([]domain.Blog, 0, len(r.blogs))
	for _, blog := range r.blogs {
		all = append(all, blog)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	return all
}
