package booking

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Record is the part every booking kind shares.
type Record struct {
	ID        uuid.UUID `json:"id"`
	Status    Status    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ParseID turns a path parameter into a booking id. A malformed id cannot
// name an existing booking, so it is reported as not found.
func ParseID(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("booking %q: %w", raw, ErrNotFound)
	}
	return id, nil
}
