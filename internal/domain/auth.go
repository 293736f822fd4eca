package domain

// Role enumerates the caller roles carried in access tokens.
type Role string

const (
	RoleAdmin Role = "ADMIN"
	RoleUser  Role = "USER"
)

// Valid reports whether r is a recognized role.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleUser:
		return true
	default:
		return false
	}
}

// Identity is the authenticated caller decoded from a verified token.
// It is built once per request and never mutated.
type Identity struct {
	Subject string
	Role    Role
}
