package events

import (
	"time"

	"github.com/google/uuid"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventUserRegistered EventType = "user_registered"
	EventUserLoggedIn   EventType = "user_logged_in"
	EventUserLoggedOut  EventType = "user_logged_out"
	EventBlogCreated    EventType = "blog_created"
	EventBlogUpdated    EventType = "blog_updated"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	ActorID   int64       `json:"actor_id"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload,omitempty"`
}

// New stamps an event with a fresh id and the current time.
func New(eventType EventType, actorID int64, payload interface{}) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		ActorID:   actorID,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
}

// UserPayload accompanies user lifecycle events.
type UserPayload struct {
	Username string `json:"username"`
}

// LogoutPayload records when the revoked token would have expired.
type LogoutPayload struct {
	TokenExpiresAt time.Time `json:"token_expires_at"`
}

// BlogPayload accompanies blog events.
type BlogPayload struct {
	BlogID int64  `json:"blog_id"`
	Title  string `json:"title"`
}
