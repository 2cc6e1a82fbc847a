package domain

import "github.com/google/uuid"

// NewID returns a time-ordered identifier, so sorting by id breaks created_at ties
// in insertion order.
func NewID() string {
	return uuid.Must(uuid.NewV7()).String()
}
