package auth

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"go.etcd.io/bbolt"
)

var bucketRevoked = []byte("revoked_tokens")

// BoltRevocations persists revoked tokens in a local bbolt file, so a single
// instance keeps its revocations across restarts without Redis.
type BoltRevocations struct {
	db *bbolt.DB
}

// OpenBoltRevocations opens (or creates) the registry file at path.
func OpenBoltRevocations(path string) (*BoltRevocations, error) {
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open revocation store: %w", err)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketRevoked)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("init revocation bucket: %w", err)
	}
	return &BoltRevocations{db: db}, nil
}

// Close releases the underlying file.
func (b *BoltRevocations) Close() error {
	return b.db.Close()
}

func (b *BoltRevocations) Revoke(_ context.Context, token string, expiresAt time.Time) error {
	if token == "" {
		return errors.New("empty token")
	}
	key := tokenDigest(token)
	return b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketRevoked)
		if current := bucket.Get(key); current != nil && !expiresAt.After(decodeExpiry(current)) {
			return nil
		}
		return bucket.Put(key, encodeExpiry(expiresAt))
	})
}

func (b *BoltRevocations) IsRevoked(_ context.Context, token string) (bool, error) {
	var revoked bool
	err := b.db.View(func(tx *bbolt.Tx) error {
		revoked = tx.Bucket(bucketRevoked).Get(tokenDigest(token)) != nil
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("check revocation: %w", err)
	}
	return revoked, nil
}

// Prune deletes entries whose token has expired and returns how many were removed.
// A failed transaction removes nothing.
func (b *BoltRevocations) Prune(now time.Time) (int, error) {
	removed := 0
	err := b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketRevoked)
		var expired [][]byte
		err := bucket.ForEach(func(k, v []byte) error {
			if !now.Before(decodeExpiry(v)) {
				expired = append(expired, append([]byte(nil), k...))
			}
			return nil
		})
		if err != nil {
			return err
		}
		for _, k := range expired {
			if err := bucket.Delete(k); err != nil {
				return err
			}
		}
		removed = len(expired)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("prune revocations: %w", err)
	}
	return removed, nil
}

// Len returns the number of stored entries.
func (b *BoltRevocations) Len() int {
	n := 0
	_ = b.db.View(func(tx *bbolt.Tx) error {
		n = tx.Bucket(bucketRevoked).Stats().KeyN
		return nil
	})
	return n
}

func encodeExpiry(t time.Time) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, uint64(t.Unix()))
	return buf
}

func decodeExpiry(raw []byte) time.Time {
	if len(raw) != 8 {
		return time.Time{}
	}
	return time.Unix(int64(binary.BigEndian.Uint64(raw)), 0)
}
