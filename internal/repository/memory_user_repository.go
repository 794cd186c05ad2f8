package repository

import (
	"context"
	"sync"
	"time"

	"github.com/spec-kit/blog-service/internal/domain"
)

type memoryUserRepository struct {
	mu         sync.RWMutex
	nextID     int64
	byID       map[int64]*domain.User
	byUsername map[string]int64
	now        func() time.Time
}

// NewMemoryUserRepository builds an in-memory user store used when no database is configured.
func NewMemoryUserRepository() UserRepository {
	return &memoryUserRepository{
		byID:       make(map[int64]*domain.User),
		byUsername: make(map[string]int64),
		now:        time.Now,
	}
}

func (r *memoryUserRepository) Create(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byUsername[user.Username]; exists {
		return ErrDuplicateUsername
	}
	r.nextID++
	user.ID = r.nextID
	user.CreatedAt = r.now().UTC()

	stored := *user
	r.byID[stored.ID] = &stored
	r.byUsername[stored.Username] = stored.ID
	return nil
}

func (r *memoryUserRepository) GetByID(_ context.Context, id int64) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	user, ok := r.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneUser(user), nil
}

func (r *memoryUserRepository) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byUsername[username]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneUser(r.byID[id]), nil
}

func (r *memoryUserRepository) RecordLogin(_ context.Context, user *domain.User, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.byID[user.ID]
	if !ok {
		return ErrNotFound
	}
	lastLogin := at
	stored.LastLogin = &lastLogin
	user.LastLogin = &at
	return nil
}

func cloneUser(user *domain.User) *domain.User {
	clone := *user
	if user.LastLogin != nil {
		lastLogin := *user.LastLogin
		clone.LastLogin = &lastLogin
	}
	return &clone
}
