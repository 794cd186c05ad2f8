package domain

import "time"

// User is an account that can author blog posts.
type User struct {
	ID           int64
	Username     string
	PasswordHash string
	LastLogin    *time.Time
	CreatedAt    time.Time
}
