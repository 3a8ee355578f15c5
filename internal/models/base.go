package models

import (
	"github.com/google/uuid"
)

// newID returns a fresh random identifier when the current one is empty.
func newID(id string) string {
	if id != "" {
		return id
	}
	return uuid.NewString()
}
