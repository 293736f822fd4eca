package auth

import (
	"fmt"

	"github.com/spec-kit/character-service/internal/domain"
)

// RoleSet is the set of roles a route admits. An empty set admits any
// authenticated identity.
type RoleSet map[domain.Role]struct{}

// Roles builds a RoleSet.
func Roles(roles ...domain.Role) RoleSet {
	set := make(RoleSet, len(roles))
	for _, role := range roles {
		set[role] = struct{}{}
	}
	return set
}

// Contains reports whether role is in the set.
func (s RoleSet) Contains(role domain.Role) bool {
	_, ok := s[role]
	return ok
}

// Authorize checks the identity's role against allowed.
func Authorize(identity domain.Identity, allowed RoleSet) error {
	if len(allowed) == 0 {
		return nil
	}
	if !allowed.Contains(identity.Role) {
		return fmt.Errorf("%w: role %s", ErrInsufficientRole, identity.Role)
	}
	return nil
}
