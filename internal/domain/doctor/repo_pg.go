package doctor

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/medconnect/medconnect/internal/domain/booking"
	"github.com/medconnect/medconnect/internal/platform/db"
	"github.com/medconnect/medconnect/internal/platform/resilience"
	"github.com/medconnect/medconnect/pkg/pagination"
)

// The variant fields are stored as jsonb in the shape they were written;
// hospital_name is kept alongside for filtering.
type repoPG struct {
	pool  *pgxpool.Pool
	guard *resilience.Guard
}

func NewRepoPG(pool *pgxpool.Pool, guard *resilience.Guard) Repository {
	return &repoPG{pool: pool, guard: guard}
}

const doctorCols = `id, name, email, specialization, gender, hospital, education, experience, fee, created_at`

func scanDoctor(row pgx.Row) (*Doctor, error) {
	var d Doctor
	err := row.Scan(&d.ID, &d.Name, &d.Email, &d.Specialization, &d.Gender,
		&d.Hospital, &d.Education, &d.Experience, &d.Fee, &d.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *repoPG) Create(ctx context.Context, d *Doctor) error {
	return r.guard.Do(ctx, "doctors.create", func(ctx context.Context) error {
		d.ID = uuid.New()
		education := d.Education
		if education == nil {
			education = []Qualification{}
		}
		err := r.pool.QueryRow(ctx, `
			INSERT INTO doctor (id, name, email, specialization, gender, hospital_name,
				hospital, education, experience, fee)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
			RETURNING created_at`,
			d.ID, d.Name, d.Email, d.Specialization, d.Gender, d.Hospital.Name,
			d.Hospital, education, d.Experience, d.Fee).
			Scan(&d.CreatedAt)
		if db.IsUniqueViolation(err) {
			return fmt.Errorf("doctor %s: %w", d.Email, booking.ErrConflict)
		}
		return err
	})
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Doctor, error) {
	var out *Doctor
	err := r.guard.Do(ctx, "doctors.get", func(ctx context.Context) error {
		d, err := scanDoctor(r.pool.QueryRow(ctx, `SELECT `+doctorCols+` FROM doctor WHERE id = $1`, id))
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("doctor %s: %w", id, booking.ErrNotFound)
		}
		out = d
		return err
	})
	return out, err
}

func (r *repoPG) List(ctx context.Context, f Filter, page pagination.Params) ([]*Doctor, error) {
	var (
		where []string
		args  []interface{}
	)
	add := func(clause string, v interface{}) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(clause, len(args)))
	}
	if f.Email != "" {
		add("lower(email) = lower($%d)", f.Email)
	}
	if f.Gender != "" {
		add("lower(gender) = lower($%d)", f.Gender)
	}
	if f.Specialization != "" {
		add("specialization ILIKE $%d", "%"+likeEscaper.Replace(f.Specialization)+"%")
	}
	if f.Hospital != "" {
		add("hospital_name ILIKE $%d", "%"+likeEscaper.Replace(f.Hospital)+"%")
	}

	query := `SELECT ` + doctorCols + ` FROM doctor`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY created_at, id ` + page.SQL()

	var out []*Doctor
	err := r.guard.Do(ctx, "doctors.list", func(ctx context.Context) error {
		rows, err := r.pool.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()
		out = out[:0]
		for rows.Next() {
			d, err := scanDoctor(rows)
			if err != nil {
				return err
			}
			out = append(out, d)
		}
		return rows.Err()
	})
	return out, err
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
