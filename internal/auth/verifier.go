package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"github.com/spec-kit/character-service/internal/domain"
)

const bearerPrefix = "Bearer "

// Principal is a verified identity together with the credential that proved it.
type Principal struct {
	domain.Identity
	Token     string
	ExpiresAt time.Time
}

// Verifier turns an Authorization header value into a Principal.
type Verifier struct {
	tokens  *TokenManager
	revoked RevocationStore
}

// NewVerifier constructs a verifier.
func NewVerifier(tokens *TokenManager, revoked RevocationStore) *Verifier {
	return &Verifier{tokens: tokens, revoked: revoked}
}

// Authenticate validates the bearer credential. Every failure is one of the
// authentication sentinels, or a wrapped store error when the revocation
// lookup itself failed.
func (v *Verifier) Authenticate(ctx context.Context, authorization string) (*Principal, error) {
	token, err := BearerToken(authorization)
	if err != nil {
		return nil, err
	}

	revoked, err := v.revoked.IsRevoked(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("check revocation: %w", err)
	}
	if revoked {
		return nil, ErrRevokedCredentials
	}

	claims, err := v.tokens.ParseToken(token)
	if err != nil {
		return nil, classifyTokenError(err)
	}

	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: subject claim missing", ErrMalformedCredentials)
	}
	if !claims.Role.Valid() {
		return nil, fmt.Errorf("%w: unknown role %q", ErrMalformedCredentials, claims.Role)
	}

	return &Principal{
		Identity:  domain.Identity{Subject: claims.Subject, Role: claims.Role},
		Token:     token,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// BearerToken extracts the token from a "Bearer <token>" header value.
// The scheme is case-sensitive and separated by exactly one space.
func BearerToken(authorization string) (string, error) {
	if authorization == "" {
		return "", ErrMissingCredentials
	}
	if !strings.HasPrefix(authorization, bearerPrefix) {
		if authorization == strings.TrimSpace(bearerPrefix) {
			return "", fmt.Errorf("%w: empty bearer token", ErrMalformedCredentials)
		}
		return "", fmt.Errorf("%w: expected Bearer scheme", ErrMalformedCredentials)
	}
	token := authorization[len(bearerPrefix):]
	if token == "" {
		return "", fmt.Errorf("%w: empty bearer token", ErrMalformedCredentials)
	}
	if strings.ContainsAny(token, " \t") {
		return "", fmt.Errorf("%w: unexpected whitespace in token", ErrMalformedCredentials)
	}
	return token, nil
}

func classifyTokenError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrExpiredCredentials
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return ErrInvalidCredentials
	case errors.Is(err, jwt.ErrTokenMalformed), errors.Is(err, jwt.ErrTokenRequiredClaimMissing):
		return fmt.Errorf("%w: %v", ErrMalformedCredentials, err)
	default:
		return fmt.Errorf("%w: %v", ErrInvalidCredentials, err)
	}
}
