package schedule

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/medconnect/medconnect/internal/domain/booking"
	"github.com/medconnect/medconnect/internal/platform/resilience"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

// Slots live one per row in schedule_slot so that a reservation is a single
// conditional UPDATE on one row.
type repoPG struct {
	pool  *pgxpool.Pool
	guard *resilience.Guard
}

func NewRepoPG(pool *pgxpool.Pool, guard *resilience.Guard) Repository {
	return &repoPG{pool: pool, guard: guard}
}

func (r *repoPG) Get(ctx context.Context, doctorID string) (*DoctorSchedule, error) {
	var out *DoctorSchedule
	err := r.guard.Do(ctx, "schedules.get", func(ctx context.Context) error {
		s, err := r.load(ctx, r.pool, doctorID, false)
		out = s
		return err
	})
	return out, err
}

func (r *repoPG) load(ctx context.Context, q queryable, doctorID string, lock bool) (*DoctorSchedule, error) {
	s := &DoctorSchedule{DoctorID: doctorID}
	err := q.QueryRow(ctx, `
		SELECT doctor_email, doctor_name, updated_at
		FROM doctor_schedule WHERE doctor_id = $1`, doctorID).
		Scan(&s.DoctorEmail, &s.DoctorName, &s.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("schedule for doctor %s: %w", doctorID, booking.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	query := `SELECT day, start_min, end_min, capacity, booked
		FROM schedule_slot WHERE doctor_id = $1 ORDER BY day, start_min`
	if lock {
		query += ` FOR UPDATE`
	}
	rows, err := q.Query(ctx, query, doctorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var day time.Time
		var sl Slot
		if err := rows.Scan(&day, &sl.Start, &sl.End, &sl.Capacity, &sl.Booked); err != nil {
			return nil, err
		}
		date := day.Format(DateLayout)
		if n := len(s.Days); n == 0 || s.Days[n-1].Date != date {
			s.Days = append(s.Days, Day{Date: date, Weekday: day.Weekday().String()})
		}
		last := &s.Days[len(s.Days)-1]
		last.Slots = append(last.Slots, sl)
	}
	if s.Days == nil {
		s.Days = []Day{}
	}
	return s, rows.Err()
}

func (r *repoPG) Replace(ctx context.Context, s *DoctorSchedule) (*DoctorSchedule, error) {
	err := r.guard.Do(ctx, "schedules.replace", func(ctx context.Context) error {
		tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
		if err != nil {
			return err
		}
		defer tx.Rollback(ctx)

		// Upserting the parent row first serializes concurrent replaces of the
		// same doctor.
		if _, err := tx.Exec(ctx, `
			INSERT INTO doctor_schedule (doctor_id, doctor_email, doctor_name, updated_at)
			VALUES ($1, $2, $3, NOW())
			ON CONFLICT (doctor_id) DO UPDATE
			SET doctor_email = EXCLUDED.doctor_email,
				doctor_name = EXCLUDED.doctor_name,
				updated_at = NOW()`,
			s.DoctorID, s.DoctorEmail, s.DoctorName); err != nil {
			return err
		}

		prev, err := r.load(ctx, tx, s.DoctorID, true)
		if err != nil {
			return err
		}
		CarryBookings(prev, s)

		if _, err := tx.Exec(ctx, `DELETE FROM schedule_slot WHERE doctor_id = $1`, s.DoctorID); err != nil {
			return err
		}

		var rows [][]interface{}
		for _, d := range s.Days {
			day, err := ParseDate(d.Date)
			if err != nil {
				return err
			}
			for _, sl := range d.Slots {
				rows = append(rows, []interface{}{s.DoctorID, day, sl.Start, sl.End, sl.Capacity, sl.Booked})
			}
		}
		if len(rows) > 0 {
			if _, err := tx.CopyFrom(ctx,
				pgx.Identifier{"schedule_slot"},
				[]string{"doctor_id", "day", "start_min", "end_min", "capacity", "booked"},
				pgx.CopyFromRows(rows),
			); err != nil {
				return err
			}
		}

		if err := tx.QueryRow(ctx, `SELECT updated_at FROM doctor_schedule WHERE doctor_id = $1`, s.DoctorID).
			Scan(&s.UpdatedAt); err != nil {
			return err
		}
		return tx.Commit(ctx)
	})
	if err != nil {
		return nil, err
	}
	return s, nil
}

// A Reserve or Release that was blocked on a row deleted by a concurrent
// Replace sees zero rows affected even though the re-inserted row may qualify.
// Both re-check the slot once and retry the conditional update when it does.
func (r *repoPG) Reserve(ctx context.Context, doctorID, date string, ts TimeSlot) error {
	day, err := ParseDate(date)
	if err != nil {
		return booking.Invalid("appointmentDate", "%v", err)
	}
	return r.guard.Do(ctx, "schedules.reserve", func(ctx context.Context) error {
		for attempt := 0; ; attempt++ {
			tag, err := r.pool.Exec(ctx, `
				UPDATE schedule_slot SET booked = booked + 1, updated_at = NOW()
				WHERE doctor_id = $1 AND day = $2 AND start_min = $3 AND end_min = $4
				  AND booked < capacity`,
				doctorID, day, ts.Start, ts.End)
			if err != nil {
				return err
			}
			if tag.RowsAffected() == 1 {
				return nil
			}
			st, err := r.slotState(ctx, doctorID, day, ts)
			if err != nil {
				return err
			}
			switch {
			case !st.exists:
				return booking.ErrScheduleNotFound
			case st.booked >= st.capacity || attempt > 0:
				return booking.ErrSlotUnavailable
			}
		}
	})
}

func (r *repoPG) Release(ctx context.Context, doctorID, date string, ts TimeSlot) error {
	day, err := ParseDate(date)
	if err != nil {
		return booking.Invalid("appointmentDate", "%v", err)
	}
	return r.guard.Do(ctx, "schedules.release", func(ctx context.Context) error {
		for attempt := 0; ; attempt++ {
			tag, err := r.pool.Exec(ctx, `
				UPDATE schedule_slot SET booked = booked - 1, updated_at = NOW()
				WHERE doctor_id = $1 AND day = $2 AND start_min = $3 AND end_min = $4
				  AND booked > 0`,
				doctorID, day, ts.Start, ts.End)
			if err != nil {
				return err
			}
			if tag.RowsAffected() == 1 {
				return nil
			}
			st, err := r.slotState(ctx, doctorID, day, ts)
			if err != nil {
				return err
			}
			switch {
			case !st.exists:
				return booking.ErrScheduleNotFound
			case st.booked == 0 || attempt > 0:
				return nil
			}
		}
	})
}

type slotState struct {
	exists   bool
	booked   int
	capacity int
}

func (r *repoPG) slotState(ctx context.Context, doctorID string, day time.Time, ts TimeSlot) (slotState, error) {
	var st slotState
	err := r.pool.QueryRow(ctx, `
		SELECT booked, capacity FROM schedule_slot
		WHERE doctor_id = $1 AND day = $2 AND start_min = $3 AND end_min = $4`,
		doctorID, day, ts.Start, ts.End).Scan(&st.booked, &st.capacity)
	if errors.Is(err, pgx.ErrNoRows) {
		return st, nil
	}
	if err != nil {
		return st, err
	}
	st.exists = true
	return st, nil
}
