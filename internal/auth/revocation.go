package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultRevocationPrefix = "auth:revoked:"

// RevocationRegistry tracks tokens invalidated before their natural expiry.
// Implementations must be safe for concurrent use.
type RevocationRegistry interface {
	// Revoke marks token as unusable until expiresAt. Revoking twice has no extra effect.
	Revoke(ctx context.Context, token string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, token string) (bool, error)
}

// MemoryRevocations keeps revoked tokens in process memory.
type MemoryRevocations struct {
	mu      sync.RWMutex
	entries map[string]time.Time
}

// NewMemoryRevocations returns an empty in-process registry.
func NewMemoryRevocations() *MemoryRevocations {
	return &MemoryRevocations{entries: make(map[string]time.Time)}
}

func (m *MemoryRevocations) Revoke(_ context.Context, token string, expiresAt time.Time) error {
	if token == "" {
		return errors.New("empty token")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if current, ok := m.entries[token]; ok && !expiresAt.After(current) {
		return nil
	}
	m.entries[token] = expiresAt
	return nil
}

func (m *MemoryRevocations) IsRevoked(_ context.Context, token string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.entries[token]
	return ok, nil
}

// Prune drops entries whose token has already expired; those can never verify again.
// It returns the number of removed entries.
func (m *MemoryRevocations) Prune(now time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	removed := 0
	for token, expiresAt := range m.entries {
		if !now.Before(expiresAt) {
			delete(m.entries, token)
			removed++
		}
	}
	return removed, nil
}

// Len returns the number of tracked tokens.
func (m *MemoryRevocations) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// RedisRevocations shares revoked tokens across instances through Redis.
// Keys expire together with the token, so the set never outgrows live tokens.
type RedisRevocations struct {
	client *redis.Client
	prefix string
	now    func() time.Time
}

// NewRedisRevocations builds a Redis-backed registry. An empty prefix uses "auth:revoked:".
func NewRedisRevocations(client *redis.Client, prefix string) *RedisRevocations {
	if prefix == "" {
		prefix = defaultRevocationPrefix
	}
	return &RedisRevocations{client: client, prefix: prefix, now: time.Now}
}

func (r *RedisRevocations) Revoke(ctx context.Context, token string, expiresAt time.Time) error {
	if token == "" {
		return errors.New("empty token")
	}
	ttl := expiresAt.Sub(r.now())
	if ttl <= 0 {
		return nil
	}
	if ttl < time.Second {
		ttl = time.Second
	}
	if err := r.client.Set(ctx, r.key(token), expiresAt.Unix(), ttl).Err(); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

func (r *RedisRevocations) IsRevoked(ctx context.Context, token string) (bool, error) {
	n, err := r.client.Exists(ctx, r.key(token)).Result()
	if err != nil {
		return false, fmt.Errorf("check revocation: %w", err)
	}
	return n > 0, nil
}

func (r *RedisRevocations) key(token string) string {
	return r.prefix + hex.EncodeToString(tokenDigest(token))
}

// tokenDigest keys persistent stores so raw tokens are never written out.
func tokenDigest(token string) []byte {
	sum := sha256.Sum256([]byte(token))
	return sum[:]
}
