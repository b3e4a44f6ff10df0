package utils

import (
	"strings"

	"github.com/google/uuid"
)

// NewID returns a random UUID string used as a primary key
func NewID() string {
	return uuid.NewString()
}

// IsID reports whether s parses as a UUID. Malformed IDs can be rejected
// before they reach the database.
func IsID(s string) bool {
	_, err := uuid.Parse(strings.TrimSpace(s))
	return err == nil
}
