package appointment

import (
	"encoding/json"
	"strings"

	"github.com/medconnect/medconnect/internal/domain/booking"
	"github.com/medconnect/medconnect/internal/domain/schedule"
)

// Appointment is a patient's hold on one unit of a doctor's slot.
type Appointment struct {
	booking.Record
	DoctorID        string            `json:"doctorId"`
	DoctorName      string            `json:"doctorName"`
	DoctorEmail     string            `json:"doctorEmail,omitempty"`
	PatientID       string            `json:"patientId,omitempty"`
	PatientName     string            `json:"patientName"`
	PatientPhone    string            `json:"patientPhone"`
	PatientEmail    string            `json:"patientEmail,omitempty"`
	AppointmentDate string            `json:"appointmentDate"`
	TimeSlot        schedule.TimeSlot `json:"-"`
	Specialization  string            `json:"specialization,omitempty"`
	AppointmentType string            `json:"appointmentType,omitempty"`
	Problem         string            `json:"problem,omitempty"`
}

// MarshalJSON writes the slot in its canonical "HH:MM - HH:MM" form.
func (a Appointment) MarshalJSON() ([]byte, error) {
	type plain Appointment
	return json.Marshal(struct {
		plain
		TimeSlot string `json:"timeSlot"`
	}{plain: plain(a), TimeSlot: a.TimeSlot.String()})
}

func (a *Appointment) UnmarshalJSON(b []byte) error {
	type plain Appointment
	var in struct {
		plain
		TimeSlot string `json:"timeSlot"`
	}
	if err := json.Unmarshal(b, &in); err != nil {
		return err
	}
	*a = Appointment(in.plain)
	if in.TimeSlot != "" {
		ts, err := schedule.ParseTimeSlot(in.TimeSlot)
		if err != nil {
			return err
		}
		a.TimeSlot = ts
	}
	return nil
}

// CreateRequest is the body of a booking request. Every field is taken as
// text so that missing and malformed values can be reported together.
type CreateRequest struct {
	DoctorID        string `json:"doctorId"`
	DoctorName      string `json:"doctorName"`
	DoctorEmail     string `json:"doctorEmail"`
	AppointmentDate string `json:"appointmentDate"`
	TimeSlot        string `json:"timeSlot"`
	PatientName     string `json:"patientName"`
	PatientPhone    string `json:"patientPhone"`
	PatientEmail    string `json:"patientEmail"`
	Specialization  string `json:"specialization"`
	AppointmentType string `json:"appointmentType"`
	Problem         string `json:"problem"`
}

// Validate checks the request and builds the appointment it describes.
func (r CreateRequest) Validate() (*Appointment, error) {
	var req booking.Required
	req.Check("doctorId", r.DoctorID).
		Check("doctorName", r.DoctorName).
		Check("appointmentDate", r.AppointmentDate).
		Check("timeSlot", r.TimeSlot).
		Check("patientName", r.PatientName).
		Check("patientPhone", r.PatientPhone)
	if err := req.Err(); err != nil {
		return nil, err
	}

	var bad []string
	var reasons []string
	date, err := schedule.NormalizeDate(r.AppointmentDate)
	if err != nil {
		bad = append(bad, "appointmentDate")
		reasons = append(reasons, err.Error())
	}
	ts, err := schedule.ParseTimeSlot(r.TimeSlot)
	if err != nil {
		bad = append(bad, "timeSlot")
		reasons = append(reasons, err.Error())
	}
	if len(bad) > 0 {
		return nil, &booking.ValidationError{Fields: bad, Reason: strings.Join(reasons, "; ")}
	}

	return &Appointment{
		DoctorID:        strings.TrimSpace(r.DoctorID),
		DoctorName:      strings.TrimSpace(r.DoctorName),
		DoctorEmail:     strings.ToLower(strings.TrimSpace(r.DoctorEmail)),
		PatientName:     strings.TrimSpace(r.PatientName),
		PatientPhone:    strings.TrimSpace(r.PatientPhone),
		PatientEmail:    strings.ToLower(strings.TrimSpace(r.PatientEmail)),
		AppointmentDate: date,
		TimeSlot:        ts,
		Specialization:  strings.TrimSpace(r.Specialization),
		AppointmentType: strings.TrimSpace(r.AppointmentType),
		Problem:         strings.TrimSpace(r.Problem),
	}, nil
}

// Filter narrows an appointment listing. Identifiers, the status and the
// date match exactly; Specialization matches case-insensitively as a
// substring. Empty fields do not constrain.
type Filter struct {
	DoctorID        string
	DoctorEmail     string
	PatientID       string
	Status          booking.Status
	Specialization  string
	AppointmentDate string
}

// DoctorScoped reports whether the filter asks for one doctor's appointments.
// A patient's own listing is never doctor scoped, whatever doctor it names.
func (f Filter) DoctorScoped() bool {
	return f.PatientID == "" && (f.DoctorID != "" || f.DoctorEmail != "")
}

// Matches applies the filter to one appointment.
func (f Filter) Matches(a *Appointment) bool {
	if f.DoctorID != "" && a.DoctorID != f.DoctorID {
		return false
	}
	if f.DoctorEmail != "" && !strings.EqualFold(a.DoctorEmail, f.DoctorEmail) {
		return false
	}
	if f.PatientID != "" && a.PatientID != f.PatientID {
		return false
	}
	if f.Status != "" && a.Status != f.Status {
		return false
	}
	if f.Specialization != "" && !strings.Contains(strings.ToLower(a.Specialization), strings.ToLower(f.Specialization)) {
		return false
	}
	if f.AppointmentDate != "" && a.AppointmentDate != f.AppointmentDate {
		return false
	}
	return true
}

// Less orders appointments by date, then slot start.
func Less(a, b *Appointment) bool {
	if a.AppointmentDate != b.AppointmentDate {
		return a.AppointmentDate < b.AppointmentDate
	}
	return a.TimeSlot.Start < b.TimeSlot.Start
}
