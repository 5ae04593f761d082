package appointment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/medconnect/medconnect/internal/domain/booking"
	"github.com/medconnect/medconnect/internal/domain/schedule"
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

const apptCols = `id, doctor_id, doctor_name, doctor_email, patient_id, patient_name,
	patient_phone, patient_email, to_char(appointment_date, 'YYYY-MM-DD'), start_min, end_min,
	specialization, appointment_type, problem, status, created_at, updated_at`

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment
	var status string
	err := row.Scan(&a.ID, &a.DoctorID, &a.DoctorName, &a.DoctorEmail, &a.PatientID, &a.PatientName,
		&a.PatientPhone, &a.PatientEmail, &a.AppointmentDate, &a.TimeSlot.Start, &a.TimeSlot.End,
		&a.Specialization, &a.AppointmentType, &a.Problem, &status, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	a.Status = booking.Status(status)
	return &a, nil
}

func (r *repoPG) Create(ctx context.Context, a *Appointment) error {
	day, err := schedule.ParseDate(a.AppointmentDate)
	if err != nil {
		return booking.Invalid("appointmentDate", "%v", err)
	}
	return r.guard.Do(ctx, "appointments.create", func(ctx context.Context) error {
		a.ID = uuid.New()
		a.Status = booking.StatusPending
		return r.pool.QueryRow(ctx, `
			INSERT INTO appointment (id, doctor_id, doctor_name, doctor_email, patient_id,
				patient_name, patient_phone, patient_email, appointment_date, start_min, end_min,
				specialization, appointment_type, problem, status)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
			RETURNING created_at, updated_at`,
			a.ID, a.DoctorID, a.DoctorName, a.DoctorEmail, a.PatientID,
			a.PatientName, a.PatientPhone, a.PatientEmail, day, a.TimeSlot.Start, a.TimeSlot.End,
			a.Specialization, a.AppointmentType, a.Problem, string(a.Status)).
			Scan(&a.CreatedAt, &a.UpdatedAt)
	})
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	var out *Appointment
	err := r.guard.Do(ctx, "appointments.get", func(ctx context.Context) error {
		a, err := scanAppointment(r.pool.QueryRow(ctx, `SELECT `+apptCols+` FROM appointment WHERE id = $1`, id))
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("appointment %s: %w", id, booking.ErrNotFound)
		}
		out = a
		return err
	})
	return out, err
}

func (r *repoPG) UpdateStatus(ctx context.Context, id uuid.UUID, from, to booking.Status) (*Appointment, error) {
	var out *Appointment
	err := r.guard.Do(ctx, "appointments.update_status", func(ctx context.Context) error {
		a, err := scanAppointment(r.pool.QueryRow(ctx, `
			UPDATE appointment SET status = $3, updated_at = NOW()
			WHERE id = $1 AND status = $2
			RETURNING `+apptCols, id, string(from), string(to)))
		if errors.Is(err, pgx.ErrNoRows) {
			var exists bool
			if err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM appointment WHERE id = $1)`, id).Scan(&exists); err != nil {
				return err
			}
			if !exists {
				return fmt.Errorf("appointment %s: %w", id, booking.ErrNotFound)
			}
			return fmt.Errorf("appointment %s: %w", id, booking.ErrConflict)
		}
		out = a
		return err
	})
	return out, err
}

func (r *repoPG) List(ctx context.Context, f Filter, page pagination.Params) ([]*Appointment, error) {
	var (
		where []string
		args  []interface{}
	)
	add := func(clause string, v interface{}) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(clause, len(args)))
	}
	if f.DoctorID != "" {
		add("doctor_id = $%d", f.DoctorID)
	}
	if f.DoctorEmail != "" {
		add("lower(doctor_email) = lower($%d)", f.DoctorEmail)
	}
	if f.PatientID != "" {
		add("patient_id = $%d", f.PatientID)
	}
	if f.Status != "" {
		add("status = $%d", string(f.Status))
	}
	if f.Specialization != "" {
		add("specialization ILIKE $%d", "%"+likeEscaper.Replace(f.Specialization)+"%")
	}
	if f.AppointmentDate != "" {
		day, err := time.Parse(schedule.DateLayout, f.AppointmentDate)
		if err != nil {
			return nil, booking.Invalid("date", "date %q: expected YYYY-MM-DD", f.AppointmentDate)
		}
		add("appointment_date = $%d", day)
	}

	query := `SELECT ` + apptCols + ` FROM appointment`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY appointment_date, start_min, created_at ` + page.SQL()

	var out []*Appointment
	err := r.guard.Do(ctx, "appointments.list", func(ctx context.Context) error {
		rows, err := r.pool.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()
		out = out[:0]
		for rows.Next() {
			a, err := scanAppointment(rows)
			if err != nil {
				return err
			}
			out = append(out, a)
		}
		return rows.Err()
	})
	return out, err
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
