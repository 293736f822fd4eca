package domain

import "time"

// User is an account able to obtain access tokens.
type User struct {
	ID           int64
	Email        string
	PasswordHash string
	Role         Role
	CreatedAt    time.Time
}

// WithID returns a copy of the user carrying the store-assigned id.
func (u User) WithID(id int64) User {
	u.ID = id
	return u
}
