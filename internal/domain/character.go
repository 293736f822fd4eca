package domain

// Character is the single resource exposed by the service.
type Character struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	LastName string `json:"lastName"`
}

// WithID returns a copy of the character carrying the store-assigned id.
func (c Character) WithID(id int64) Character {
	c.ID = id
	return c
}
