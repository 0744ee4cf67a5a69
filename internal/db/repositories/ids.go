package repositories

import (
	"strings"

	"github.com/google/uuid"
)

// newID returns a UUIDv4 with dashes stripped: the 32-character hex form used
// as the primary key for every table.
func newID() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")
}
