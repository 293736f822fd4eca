package repository

import (
	"context"

	"github.com/spec-kit/character-service/internal/domain"
)

// CharacterRepository defines storage access for characters.
type CharacterRepository interface {
	List(ctx context.Context) ([]domain.Character, error)
	Get(ctx context.Context, id int64) (domain.Character, error)
	Create(ctx context.Context, character domain.Character) (domain.Character, error)
	Update(ctx context.Context, id int64, character domain.Character) (domain.Character, error)
	Delete(ctx context.Context, id int64) error
}

// NewCharacterRepository returns an empty in-memory implementation.
func NewCharacterRepository() CharacterRepository {
	return NewMemoryStore[domain.Character]()
}
