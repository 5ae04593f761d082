package ambulance

import (
	"time"

	"github.com/google/uuid"

	"github.com/medconnect/medconnect/internal/domain/booking"
)

var sampleBookings = []struct {
	id                          string
	from, to, kind, name, phone string
	dayOffset                   int
	status                      booking.Status
}{
	{"0b6a3f5e-52c1-4b8e-9d0a-1f7e2c3b4a01", "Andheri East, Mumbai", "Lilavati Hospital", "Basic Life Support", "Sanjay Mehta", "+91 98200 11111", 0, booking.StatusConfirmed},
	{"0b6a3f5e-52c1-4b8e-9d0a-1f7e2c3b4a02", "Koramangala, Bengaluru", "Manipal Hospital", "Advanced Life Support", "Anita Rao", "+91 98450 22222", 0, booking.StatusPending},
	{"0b6a3f5e-52c1-4b8e-9d0a-1f7e2c3b4a03", "Salt Lake, Kolkata", "AMRI Hospital", "Patient Transport", "Debashis Sen", "+91 98300 33333", 1, booking.StatusPending},
}

// SampleBookings is the stand-in list served when the store cannot be read.
func SampleBookings(f Filter, now time.Time) []*Booking {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	out := make([]*Booking, 0, len(sampleBookings))
	for i, s := range sampleBookings {
		b := &Booking{
			Record: booking.Record{
				ID:        uuid.MustParse(s.id),
				Status:    s.status,
				CreatedAt: today.Add(time.Duration(i) * time.Minute),
				UpdatedAt: today.Add(time.Duration(i) * time.Minute),
			},
			FromLocation:  s.from,
			Destination:   s.to,
			AmbulanceType: s.kind,
			Date:          today.AddDate(0, 0, s.dayOffset).Format("2006-01-02"),
			Name:          s.name,
			Phone:         s.phone,
		}
		if f.Matches(b) {
			out = append(out, b)
		}
	}
	return out
}
