package domain

import "github.com/google/uuid"

// UserRef is the single identity value type the engine works with.
// It is supplied by the identity collaborator (directory lookup or
// token claims); the engine only records it and never authenticates.
type UserRef struct {
	ID       uuid.UUID
	Username string
	FullName string
}

// DisplayName returns the name used in audit comment text, falling
// back to the username when no full name is on record.
func (u UserRef) DisplayName() string {
	if u.FullName != "" {
		return u.FullName
	}
	return u.Username
}
