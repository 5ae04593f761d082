package appointment

import (
	"context"

	"github.com/google/uuid"

	"github.com/medconnect/medconnect/internal/domain/booking"
	"github.com/medconnect/medconnect/pkg/pagination"
)

type Repository interface {
	// Create assigns the id and timestamps and stores a with status pending.
	Create(ctx context.Context, a *Appointment) error
	GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	// UpdateStatus changes the status only if it is still from. It returns
	// booking.ErrConflict when another writer got there first.
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to booking.Status) (*Appointment, error)
	// List returns matches ordered by date and slot start.
	List(ctx context.Context, f Filter, page pagination.Params) ([]*Appointment, error)
}
