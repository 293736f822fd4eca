package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/character-service/internal/events"
)

// AuditService writes an audit log line for every domain event.
type AuditService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// NewAuditService creates the service.
func NewAuditService(dispatcher events.Dispatcher, logger *zap.Logger) *AuditService {
	return &AuditService{dispatcher: dispatcher, logger: logger.Named("audit")}
}

// RegisterHandlers subscribes to events.
func (a *AuditService) RegisterHandlers() {
	if a.dispatcher == nil {
		return
	}
	a.dispatcher.Subscribe(events.EventCharacterCreated, a.handleCharacterChange)
	a.dispatcher.Subscribe(events.EventCharacterUpdated, a.handleCharacterChange)
	a.dispatcher.Subscribe(events.EventCharacterDeleted, a.handleCharacterChange)
	a.dispatcher.Subscribe(events.EventTokenRevoked, a.handleTokenRevoked)
}

func (a *AuditService) handleCharacterChange(_ context.Context, event events.Event) error {
	fields := []zap.Field{
		zap.String("event_type", string(event.Type)),
		zap.String("actor", event.Actor.Subject),
		zap.String("actor_role", string(event.Actor.Role)),
		zap.Time("at", event.Timestamp),
	}
	if payload, ok := event.Payload.(events.CharacterPayload); ok {
		fields = append(fields, zap.Int64("character_id", payload.Character.ID))
	}
	a.logger.Info("character changed", fields...)
	return nil
}

func (a *AuditService) handleTokenRevoked(_ context.Context, event events.Event) error {
	fields := []zap.Field{
		zap.String("actor", event.Actor.Subject),
		zap.String("actor_role", string(event.Actor.Role)),
		zap.Time("at", event.Timestamp),
	}
	if payload, ok := event.Payload.(events.TokenRevokedPayload); ok {
		fields = append(fields,
			zap.String("subject", payload.Subject),
			zap.Bool("self_issued", payload.SelfIssued),
		)
		if payload.ExpiresAt != nil {
			fields = append(fields, zap.Time("expires_at", *payload.ExpiresAt))
		}
	}
	a.logger.Info("token revoked", fields...)
	return nil
}
