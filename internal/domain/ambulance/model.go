package ambulance

import (
	"github.com/medconnect/medconnect/internal/domain/booking"
)

// Booking is a request for ambulance transport. Ambulance capacity is not
// modeled, so any number of bookings may share a date.
type Booking struct {
	booking.Record
	FromLocation  string `json:"fromLocation"`
	Destination   string `json:"destination"`
	AmbulanceType string `json:"ambulanceType"`
	Date          string `json:"date"`
	Name          string `json:"name"`
	Phone         string `json:"phone"`
	RequestedBy   string `json:"requestedBy,omitempty"`
}

type CreateRequest struct {
	FromLocation  string `json:"fromLocation"`
	Destination   string `json:"destination"`
	AmbulanceType string `json:"ambulanceType"`
	Date          string `json:"date"`
	Name          string `json:"name"`
	Phone         string `json:"phone"`
}

// Validate reports every missing field in declaration order. Values are kept
// exactly as sent.
func (r CreateRequest) Validate() (*Booking, error) {
	var req booking.Required
	req.Check("fromLocation", r.FromLocation).
		Check("destination", r.Destination).
		Check("ambulanceType", r.AmbulanceType).
		Check("date", r.Date).
		Check("name", r.Name).
		Check("phone", r.Phone)
	if err := req.Err(); err != nil {
		return nil, err
	}
	return &Booking{
		FromLocation:  r.FromLocation,
		Destination:   r.Destination,
		AmbulanceType: r.AmbulanceType,
		Date:          r.Date,
		Name:          r.Name,
		Phone:         r.Phone,
	}, nil
}

// Filter narrows a listing. Bookings are listed in insertion order.
type Filter struct {
	Status booking.Status
}

func (f Filter) Matches(b *Booking) bool {
	return f.Status == "" || b.Status == f.Status
}
