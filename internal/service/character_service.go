package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/character-service/internal/domain"
	"github.com/spec-kit/character-service/internal/events"
	"github.com/spec-kit/character-service/internal/repository"
)

// CharacterService exposes character operations and emits change events.
type CharacterService struct {
	repo       repository.CharacterRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
	now        func() time.Time
}

// NewCharacterService builds the service.
func NewCharacterService(repo repository.CharacterRepository, dispatcher events.Dispatcher, logger *zap.Logger) *CharacterService {
	return &CharacterService{repo: repo, dispatcher: dispatcher, logger: logger, now: time.Now}
}

// List returns every character in creation order.
func (s *CharacterService) List(ctx context.Context) ([]domain.Character, error) {
	return s.repo.List(ctx)
}

// Get returns one character or repository.ErrNotFound.
func (s *CharacterService) Get(ctx context.Context, id int64) (domain.Character, error) {
	return s.repo.Get(ctx, id)
}

// Create stores a new character under a store-assigned id.
func (s *CharacterService) Create(ctx context.Context, actor domain.Identity, character domain.Character) (domain.Character, error) {
	character.ID = 0
	created, err := s.repo.Create(ctx, character)
	if err != nil {
		return domain.Character{}, err
	}
	s.publish(ctx, events.EventCharacterCreated, actor, created)
	return created, nil
}

// Update replaces the fields of an existing character.
func (s *CharacterService) Update(ctx context.Context, actor domain.Identity, id int64, character domain.Character) (domain.Character, error) {
	updated, err := s.repo.Update(ctx, id, character)
	if err != nil {
		return domain.Character{}, err
	}
	s.publish(ctx, events.EventCharacterUpdated, actor, updated)
	return updated, nil
}

// Delete removes a character.
func (s *CharacterService) Delete(ctx context.Context, actor domain.Identity, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.publish(ctx, events.EventCharacterDeleted, actor, domain.Character{ID: id})
	return nil
}

// publish runs after the mutation committed, so a subscriber failure is logged
// rather than failing the request.
func (s *CharacterService) publish(ctx context.Context, eventType events.EventType, actor domain.Identity, character domain.Character) {
	if s.dispatcher == nil {
		return
	}
	event := events.Event{
		Type:      eventType,
		Actor:     events.ActorFrom(actor),
		Timestamp: s.now().UTC(),
		Payload:   events.CharacterPayload{Character: character},
	}
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("event subscriber failed", zap.String("event_type", string(eventType)), zap.Error(err))
	}
}
