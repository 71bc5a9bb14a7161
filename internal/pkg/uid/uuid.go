package uid

import "github.com/google/uuid"

// UUID issues RFC 4122 identifiers, used for correlation ids on requests
// and consumed messages.
type UUID struct{}

// NewUUID returns a UUID generator.
func NewUUID() *UUID {
	return &UUID{}
}

// Generate returns a time-ordered v7 UUID, falling back to v4 when the
// randomness source fails.
func (u *UUID) Generate() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
