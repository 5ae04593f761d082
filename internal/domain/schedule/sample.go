package schedule

import (
	"time"
)

// SampleSchedule is the stand-in served when the store cannot be read: the
// next seven days, 09:00 to 12:00 in half-hour slots.
func SampleSchedule(doctorID string, now time.Time) *DoctorSchedule {
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	sched := &DoctorSchedule{
		DoctorID:  doctorID,
		Days:      make([]Day, 0, 7),
		UpdatedAt: start,
	}
	for d := 0; d < 7; d++ {
		date := start.AddDate(0, 0, d)
		day := Day{Date: date.Format(DateLayout), Weekday: date.Weekday().String()}
		for m := 9 * 60; m < 12*60; m += 30 {
			day.Slots = append(day.Slots, Slot{TimeSlot: TimeSlot{Start: m, End: m + 30}, Capacity: 1})
		}
		sched.Days = append(sched.Days, day)
	}
	return sched
}
