package ambulance

import (
	"context"

	"github.com/google/uuid"

	"github.com/medconnect/medconnect/internal/domain/booking"
	"github.com/medconnect/medconnect/pkg/pagination"
)

type Repository interface {
	// Create assigns the id and timestamps and stores b with status pending.
	Create(ctx context.Context, b *Booking) error
	GetByID(ctx context.Context, id uuid.UUID) (*Booking, error)
	// UpdateStatus changes the status only if it is still from, returning
	// booking.ErrConflict otherwise.
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to booking.Status) (*Booking, error)
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, f Filter, page pagination.Params) ([]*Booking, error)
}
