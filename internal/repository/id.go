package repository

import "github.com/google/uuid"

// ensureID fills in a fresh UUID for rows created without one, so callers
// may either supply their own identifier or leave it to the store layer.
func ensureID(id string) string {
	if id == "" {
		return uuid.NewString()
	}
	return id
}
