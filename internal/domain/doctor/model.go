package doctor

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/medconnect/medconnect/internal/domain/booking"
)

type Doctor struct {
	ID             uuid.UUID       `json:"id"`
	Name           string          `json:"name"`
	Email          string          `json:"email"`
	Specialization string          `json:"specialization"`
	Gender         string          `json:"gender,omitempty"`
	Hospital       HospitalRef     `json:"hospital"`
	Education      []Qualification `json:"education,omitempty"`
	Experience     Experience      `json:"experience"`
	Fee            float64         `json:"fee,omitempty"`
	CreatedAt      time.Time       `json:"createdAt"`
}

// Normalize trims the text fields and checks the required ones.
func (d *Doctor) Normalize() error {
	d.Name = strings.TrimSpace(d.Name)
	d.Email = strings.ToLower(strings.TrimSpace(d.Email))
	d.Specialization = strings.TrimSpace(d.Specialization)
	d.Gender = strings.TrimSpace(d.Gender)

	var r booking.Required
	r.Check("name", d.Name).Check("email", d.Email).Check("specialization", d.Specialization)
	if err := r.Err(); err != nil {
		return err
	}
	if !strings.Contains(d.Email, "@") {
		return booking.Invalid("email", "email %q is not an address", d.Email)
	}
	if d.Fee < 0 {
		return booking.Invalid("fee", "fee must not be negative")
	}
	return nil
}

// Filter narrows the directory. Email and gender match exactly ignoring
// case; specialization and hospital match as case-insensitive substrings.
type Filter struct {
	Email          string
	Specialization string
	Gender         string
	Hospital       string
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}

func (f Filter) Matches(d *Doctor) bool {
	if f.Email != "" && !strings.EqualFold(d.Email, f.Email) {
		return false
	}
	if f.Gender != "" && !strings.EqualFold(d.Gender, f.Gender) {
		return false
	}
	if f.Specialization != "" && !containsFold(d.Specialization, f.Specialization) {
		return false
	}
	if f.Hospital != "" && !containsFold(d.Hospital.Name, f.Hospital) {
		return false
	}
	return true
}
