package doctor

import (
	"context"

	"github.com/google/uuid"

	"github.com/medconnect/medconnect/pkg/pagination"
)

type Repository interface {
	// Create assigns the id. A second doctor with the same email is
	// booking.ErrConflict.
	Create(ctx context.Context, d *Doctor) error
	GetByID(ctx context.Context, id uuid.UUID) (*Doctor, error)
	// List returns matches in insertion order.
	List(ctx context.Context, f Filter, page pagination.Params) ([]*Doctor, error)
}
