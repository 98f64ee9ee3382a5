package core

import "github.com/google/uuid"

// NewIdentifier returns a fresh random identifier for an engine resource.
func NewIdentifier() uuid.UUID {
	return uuid.New()
}

// ShortID is the first block of an identifier, used in log lines.
func ShortID(id uuid.UUID) string {
	return id.String()[:8]
}
