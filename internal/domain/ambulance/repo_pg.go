package ambulance

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/medconnect/medconnect/internal/domain/booking"
	"github.com/medconnect/medconnect/internal/platform/resilience"
	"github.com/medconnect/medconnect/pkg/pagination"
)

type repoPG struct {
	pool  *pgxpool.Pool
	guard *resilience.Guard
}

func NewRepoPG(pool *pgxpool.Pool, guard *resilience.Guard) Repository {
	return &repoPG{pool: pool, guard: guard}
}

const bookingCols = `id, from_location, destination, ambulance_type, date, name, phone,
	requested_by, status, created_at, updated_at`

func scanBooking(row pgx.Row) (*Booking, error) {
	var b Booking
	var status string
	err := row.Scan(&b.ID, &b.FromLocation, &b.Destination, &b.AmbulanceType, &b.Date, &b.Name, &b.Phone,
		&b.RequestedBy, &status, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return nil, err
	}
	b.Status = booking.Status(status)
	return &b, nil
}

func (r *repoPG) Create(ctx context.Context, b *Booking) error {
	return r.guard.Do(ctx, "ambulances.create", func(ctx context.Context) error {
		b.ID = uuid.New()
		b.Status = booking.StatusPending
		return r.pool.QueryRow(ctx, `
			INSERT INTO ambulance_booking (id, from_location, destination, ambulance_type, date,
				name, phone, requested_by, status)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
			RETURNING created_at, updated_at`,
			b.ID, b.FromLocation, b.Destination, b.AmbulanceType, b.Date,
			b.Name, b.Phone, b.RequestedBy, string(b.Status)).
			Scan(&b.CreatedAt, &b.UpdatedAt)
	})
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Booking, error) {
	var out *Booking
	err := r.guard.Do(ctx, "ambulances.get", func(ctx context.Context) error {
		b, err := scanBooking(r.pool.QueryRow(ctx, `SELECT `+bookingCols+` FROM ambulance_booking WHERE id = $1`, id))
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("ambulance booking %s: %w", id, booking.ErrNotFound)
		}
		out = b
		return err
	})
	return out, err
}

func (r *repoPG) UpdateStatus(ctx context.Context, id uuid.UUID, from, to booking.Status) (*Booking, error) {
	var out *Booking
	err := r.guard.Do(ctx, "ambulances.update_status", func(ctx context.Context) error {
		b, err := scanBooking(r.pool.QueryRow(ctx, `
			UPDATE ambulance_booking SET status = $3, updated_at = NOW()
			WHERE id = $1 AND status = $2
			RETURNING `+bookingCols, id, string(from), string(to)))
		if errors.Is(err, pgx.ErrNoRows) {
			var exists bool
			if err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM ambulance_booking WHERE id = $1)`, id).Scan(&exists); err != nil {
				return err
			}
			if !exists {
				return fmt.Errorf("ambulance booking %s: %w", id, booking.ErrNotFound)
			}
			return fmt.Errorf("ambulance booking %s: %w", id, booking.ErrConflict)
		}
		out = b
		return err
	})
	return out, err
}

func (r *repoPG) Delete(ctx context.Context, id uuid.UUID) error {
	return r.guard.Do(ctx, "ambulances.delete", func(ctx context.Context) error {
		tag, err := r.pool.Exec(ctx, `DELETE FROM ambulance_booking WHERE id = $1`, id)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("ambulance booking %s: %w", id, booking.ErrNotFound)
		}
		return nil
	})
}

func (r *repoPG) List(ctx context.Context, f Filter, page pagination.Params) ([]*Booking, error) {
	query := `SELECT ` + bookingCols + ` FROM ambulance_booking`
	var args []interface{}
	if f.Status != "" {
		query += ` WHERE status = $1`
		args = append(args, string(f.Status))
	}
	query += ` ORDER BY created_at, id ` + page.SQL()

	var out []*Booking
	err := r.guard.Do(ctx, "ambulances.list", func(ctx context.Context) error {
		rows, err := r.pool.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()
		out = out[:0]
		for rows.Next() {
			b, err := scanBooking(rows)
			if err != nil {
				return err
			}
			out = append(out, b)
		}
		return rows.Err()
	})
	return out, err
}
