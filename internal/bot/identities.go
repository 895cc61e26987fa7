package bot

import (
	"strings"

	"github.com/google/uuid"
)

// IDPrefix marks participant ids that belong to automated seats.
const IDPrefix = "ai-"

var displayNames = []string{
	"Smart Computer",
	"Skilled Robot",
	"Artificial Intelligence",
}

// Identity is the id and display name of an automated seat.
type Identity struct {
	ID   string
	Name string
}

// NewIdentity returns an identity for the n-th automated seat of a room
// (zero based). Ids are unique across rooms.
func NewIdentity(n int) Identity {
	return Identity{
		ID:   IDPrefix + uuid.NewString(),
		Name: displayNames[n%len(displayNames)],
	}
}

// IsBot reports whether id was issued by NewIdentity.
func IsBot(id string) bool {
	return strings.HasPrefix(id, IDPrefix)
}
