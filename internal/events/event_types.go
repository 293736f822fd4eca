package events

import (
	"time"

	"github.com/spec-kit/character-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventCharacterCreated EventType = "character_created"
	EventCharacterUpdated EventType = "character_updated"
	EventCharacterDeleted EventType = "character_deleted"
	EventTokenRevoked     EventType = "token_revoked"
)

// Actor identifies who triggered an event.
type Actor struct {
	Subject string      `json:"subject"`
	Role    domain.Role `json:"role"`
}

// ActorFrom builds an Actor from an authenticated identity.
func ActorFrom(identity domain.Identity) Actor {
	return Actor{Subject: identity.Subject, Role: identity.Role}
}

// Event represents a domain event emitted by services.
type Event struct {
	Type      EventType `json:"type"`
	Actor     Actor     `json:"actor"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload"`
}

// CharacterPayload carries the character affected by a change.
type CharacterPayload struct {
	Character domain.Character `json:"character"`
}

// TokenRevokedPayload describes a revocation without exposing the token.
type TokenRevokedPayload struct {
	Subject    string     `json:"subject,omitempty"`
	// ExpiresAt is nil when the revoked token could not be parsed.
	ExpiresAt  *time.Time `json:"expires_at,omitempty"`
	SelfIssued bool       `json:"self_issued"`
}
