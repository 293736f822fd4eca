package service

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/character-service/internal/auth"
	"github.com/spec-kit/character-service/internal/config"
	"github.com/spec-kit/character-service/internal/domain"
	"github.com/spec-kit/character-service/internal/events"
	"github.com/spec-kit/character-service/internal/repository"
)

// AuthService coordinates registration, login and revocation flows.
type AuthService struct {
	users      repository.UserRepository
	revoked    auth.RevocationStore
	tokenMgr   *auth.TokenManager
	dispatcher events.Dispatcher
	logger     *zap.Logger
	bcryptCost int
}

// AuthDependencies encapsulates collaborators for the auth service.
type AuthDependencies struct {
	UserRepo    repository.UserRepository
	Revocations auth.RevocationStore
	Dispatcher  events.Dispatcher
	Logger      *zap.Logger
}

// NewAuthService builds the service.
func NewAuthService(cfg config.AuthConfig, deps AuthDependencies) *AuthService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{
		users:      deps.UserRepo,
		revoked:    deps.Revocations,
		tokenMgr:   auth.NewTokenManager(cfg.JWTSecret, cfg.AccessTokenTTL()),
		dispatcher: deps.Dispatcher,
		logger:     logger,
		bcryptCost: cfg.BcryptCost,
	}
}

// RegisterUser creates a USER account and issues its first token.
func (s *AuthService) RegisterUser(ctx context.Context, email, password string) (domain.User, string, time.Time, error) {
	user, err := s.createUser(ctx, email, password, domain.RoleUser)
	if err != nil {
		return domain.User{}, "", time.Time{}, err
	}
	token, exp, err := s.issue(user)
	if err != nil {
		return domain.User{}, "", time.Time{}, err
	}
	return user, token, exp, nil
}

// LoginUser authenticates by email and password. Unknown emails and wrong
// passwords both yield auth.ErrInvalidCredentials.
func (s *AuthService) LoginUser(ctx context.Context, email, password string) (domain.User, string, time.Time, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.User{}, "", time.Time{}, auth.ErrInvalidCredentials
		}
		return domain.User{}, "", time.Time{}, err
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return domain.User{}, "", time.Time{}, err
	}
	token, exp, err := s.issue(user)
	if err != nil {
		return domain.User{}, "", time.Time{}, err
	}
	return user, token, exp, nil
}

// SeedAdmin creates the bootstrap ADMIN account unless the email is taken.
func (s *AuthService) SeedAdmin(ctx context.Context, email, password string) error {
	_, err := s.createUser(ctx, email, password, domain.RoleAdmin)
	if errors.Is(err, repository.ErrConflict) {
		return nil
	}
	return err
}

// Logout revokes the token the caller authenticated with.
func (s *AuthService) Logout(ctx context.Context, principal *auth.Principal) error {
	if err := s.revoked.Revoke(ctx, principal.Token); err != nil {
		return err
	}
	expiresAt := principal.ExpiresAt
	s.publishRevoked(ctx, principal.Identity, events.TokenRevokedPayload{
		Subject:    principal.Subject,
		ExpiresAt:  &expiresAt,
		SelfIssued: true,
	})
	return nil
}

// Revoke denies token from now on. Tokens that do not parse are still
// revoked; the payload then carries no subject.
func (s *AuthService) Revoke(ctx context.Context, actor domain.Identity, token string) error {
	token = strings.TrimSpace(token)
	if err := s.revoked.Revoke(ctx, token); err != nil {
		return err
	}
	payload := events.TokenRevokedPayload{}
	if claims, err := s.tokenMgr.ParseToken(token); err == nil {
		payload.Subject = claims.Subject
		expiresAt := claims.ExpiresAt.Time
		payload.ExpiresAt = &expiresAt
	}
	s.publishRevoked(ctx, actor, payload)
	return nil
}

// TokenManager exposes the underlying token manager for verifier wiring.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}

func (s *AuthService) createUser(ctx context.Context, email, password string, role domain.Role) (domain.User, error) {
	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return domain.User{}, err
	}
	return s.users.Create(ctx, domain.User{
		Email:        strings.TrimSpace(email),
		PasswordHash: hash,
		Role:         role,
		CreatedAt:    time.Now().UTC(),
	})
}

func (s *AuthService) issue(user domain.User) (string, time.Time, error) {
	return s.tokenMgr.GenerateToken(strconv.FormatInt(user.ID, 10), user.Role)
}

func (s *AuthService) publishRevoked(ctx context.Context, actor domain.Identity, payload events.TokenRevokedPayload) {
	if s.dispatcher == nil {
		return
	}
	event := events.Event{
		Type:      events.EventTokenRevoked,
		Actor:     events.ActorFrom(actor),
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("event subscriber failed", zap.String("event_type", string(event.Type)), zap.Error(err))
	}
}
