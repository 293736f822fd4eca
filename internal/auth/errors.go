package auth

import "errors"

// Sentinel errors for authentication and authorization.
var (
	// Authentication errors
	ErrMissingCredentials   = errors.New("auth: missing credentials")
	ErrMalformedCredentials = errors.New("auth: malformed credentials")
	ErrInvalidCredentials   = errors.New("auth: invalid credentials")
	ErrExpiredCredentials   = errors.New("auth: credentials expired")
	ErrRevokedCredentials   = errors.New("auth: credentials revoked")

	// Authorization errors
	ErrInsufficientRole = errors.New("auth: insufficient role")
)
