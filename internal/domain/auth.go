package domain

import "time"

// Token describes an issued access token. Tokens are self-contained and never persisted.
type Token struct {
	Value     string
	UserID    int64
	IssuedAt  time.Time
	ExpiresAt time.Time
}
