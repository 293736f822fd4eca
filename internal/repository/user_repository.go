package repository

import (
	"context"
	"strings"
	"sync"

	"github.com/spec-kit/character-service/internal/domain"
)

// UserRepository defines storage access for user accounts.
type UserRepository interface {
	Create(ctx context.Context, user domain.User) (domain.User, error)
	GetByID(ctx context.Context, id int64) (domain.User, error)
	GetByEmail(ctx context.Context, email string) (domain.User, error)
}

type userRepository struct {
	mu      sync.Mutex
	store   *MemoryStore[domain.User]
	byEmail map[string]int64
}

// NewUserRepository returns an in-memory implementation with a unique email index.
func NewUserRepository() UserRepository {
	return &userRepository{
		store:   NewMemoryStore[domain.User](),
		byEmail: make(map[string]int64),
	}
}

func (r *userRepository) Create(ctx context.Context, user domain.User) (domain.User, error) {
	key := normalizeEmail(user.Email)

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, taken := r.byEmail[key]; taken {
		return domain.User{}, ErrConflict
	}
	created, err := r.store.Create(ctx, user)
	if err != nil {
		return domain.User{}, err
	}
	r.byEmail[key] = created.ID
	return created, nil
}

func (r *userRepository) GetByID(ctx context.Context, id int64) (domain.User, error) {
	return r.store.Get(ctx, id)
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	r.mu.Lock()
	id, ok := r.byEmail[normalizeEmail(email)]
	r.mu.Unlock()
	if !ok {
		return domain.User{}, ErrNotFound
	}
	return r.store.Get(ctx, id)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
