package service

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/spec-kit/blog-service/internal/events"
)

const defaultAuditHistory = 100

// AuditService records account and blog events to the log.
type AuditService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger

	mu      sync.Mutex
	history []events.Event
	limit   int
}

// NewAuditService creates the service. history bounds the events kept in memory.
func NewAuditService(dispatcher events.Dispatcher, logger *zap.Logger, history int) *AuditService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if history <= 0 {
		history = defaultAuditHistory
	}
	return &AuditService{
		dispatcher: dispatcher,
		logger:     logger.Named("audit"),
		limit:      history,
	}
}

// RegisterHandlers subscribes to events.
func (a *AuditService) RegisterHandlers() {
	if a.dispatcher == nil {
		return
	}
	a.dispatcher.Subscribe(events.EventUserRegistered, a.handleUserEvent)
	a.dispatcher.Subscribe(events.EventUserLoggedIn, a.handleUserEvent)
	a.dispatcher.Subscribe(events.EventUserLoggedOut, a.handleLogout)
	a.dispatcher.Subscribe(events.EventBlogCreated, a.handleBlogEvent)
	a.dispatcher.Subscribe(events.EventBlogUpdated, a.handleBlogEvent)
}

// recent returns the latest recorded events, oldest first.
func (a *AuditService) recent() []events.Event {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]events.Event(nil), a.history...)
}

func (a *AuditService) handleUserEvent(_ context.Context, event events.Event) error {
	fields := a.baseFields(event)
	if payload, ok := event.Payload.(events.UserPayload); ok {
		fields = append(fields, zap.String("username", payload.Username))
	}
	a.logger.Info(string(event.Type), fields...)
	a.remember(event)
	return nil
}

func (a *AuditService) handleLogout(_ context.Context, event events.Event) error {
	fields := a.baseFields(event)
	if payload, ok := event.Payload.(events.LogoutPayload); ok {
		fields = append(fields, zap.Time("token_expires_at", payload.TokenExpiresAt))
	}
	a.logger.Info(string(event.Type), fields...)
	a.remember(event)
	return nil
}

func (a *AuditService) handleBlogEvent(_ context.Context, event events.Event) error {
	fields := a.baseFields(event)
	if payload, ok := event.Payload.(events.BlogPayload); ok {
		fields = append(fields, zap.Int64("blog_id", payload.BlogID), zap.String("title", payload.Title))
	}
	a.logger.Info(string(event.Type), fields...)
	a.remember(event)
	return nil
}

func (a *AuditService) baseFields(event events.Event) []zap.Field {
	return []zap.Field{
		zap.String("event_id", event.ID),
		zap.Int64("actor_id", event.ActorID),
		zap.Time("at", event.Timestamp),
	}
}

func (a *AuditService) remember(event events.Event) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.history = append(a.history, event)
	if over := len(a.history) - a.limit; over > 0 {
		a.history = append([]events.Event(nil), a.history[over:]...)
	}
}
