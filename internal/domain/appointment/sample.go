package appointment

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/medconnect/medconnect/internal/domain/booking"
	"github.com/medconnect/medconnect/internal/domain/schedule"
)

var sampleNamespace = uuid.MustParse("6f1c1b9e-3b1a-4d7e-9a57-0c2f8e5d4a10")

var sampleEntries = []struct {
	patient, phone, specialization, kind, problem string
	dayOffset, start                              int
	status                                        booking.Status
}{
	{"Rahul Sharma", "+91 98765 43210", "Cardiology", "consultation", "Chest pain on exertion", 1, 10 * 60, booking.StatusConfirmed},
	{"Priya Patel", "+91 98765 43211", "General Medicine", "follow-up", "Blood pressure review", 1, 11 * 60, booking.StatusPending},
	{"Amit Kumar", "+91 98765 43212", "Dermatology", "consultation", "Recurring rash", 2, 9*60 + 30, booking.StatusPending},
}

// SampleAppointments is the stand-in list served when real data cannot be
// shown. The records are stamped with the requested doctor so a doctor's
// dashboard renders them as its own.
func SampleAppointments(f Filter, now time.Time) []*Appointment {
	doctorID := f.DoctorID
	if doctorID == "" {
		doctorID = "sample-doctor"
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	out := make([]*Appointment, 0, len(sampleEntries))
	for i, e := range sampleEntries {
		out = append(out, &Appointment{
			Record: booking.Record{
				ID:        uuid.NewSHA1(sampleNamespace, []byte(fmt.Sprintf("%s/%d", doctorID, i))),
				Status:    e.status,
				CreatedAt: today,
				UpdatedAt: today,
			},
			DoctorID:        doctorID,
			DoctorName:      "Sample Doctor",
			DoctorEmail:     f.DoctorEmail,
			PatientName:     e.patient,
			PatientPhone:    e.phone,
			AppointmentDate: today.AddDate(0, 0, e.dayOffset).Format(schedule.DateLayout),
			TimeSlot:        schedule.TimeSlot{Start: e.start, End: e.start + 30},
			Specialization:  e.specialization,
			AppointmentType: e.kind,
			Problem:         e.problem,
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return Less(out[i], out[j]) })
	return out
}
