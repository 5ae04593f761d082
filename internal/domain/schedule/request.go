package schedule

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/medconnect/medconnect/internal/domain/booking"
)

// ReplaceRequest is the body of a schedule replace.
type ReplaceRequest struct {
	DoctorID    string        `json:"doctorId"`
	DoctorEmail string        `json:"doctorEmail"`
	DoctorName  string        `json:"doctorName"`
	Schedule    *ScheduleBody `json:"schedule"`
}

type ScheduleBody struct {
	Days   []DayInput    `json:"days"`
	Weekly []WeeklyInput `json:"weekly"`
}

type DayInput struct {
	Date  string      `json:"date"`
	Slots []SlotInput `json:"slots"`
}

// WeeklyInput repeats its slots on every matching weekday of the planning
// horizon.
type WeeklyInput struct {
	Weekday string      `json:"weekday"`
	Slots   []SlotInput `json:"slots"`
}

// SlotInput accepts either startTime/endTime or a combined timeSlot string.
type SlotInput struct {
	StartTime   string `json:"startTime"`
	EndTime     string `json:"endTime"`
	TimeSlot    string `json:"timeSlot"`
	MaxPatients *int   `json:"maxPatients"`
	IsAvailable *bool  `json:"isAvailable"`
}

func (in SlotInput) toSlot() (Slot, error) {
	var ts TimeSlot
	var err error
	if in.TimeSlot != "" {
		ts, err = ParseTimeSlot(in.TimeSlot)
	} else {
		ts, err = ParseClockRange(in.StartTime, in.EndTime)
	}
	if err != nil {
		return Slot{}, err
	}
	capacity := 1
	if in.MaxPatients != nil {
		if *in.MaxPatients < 0 {
			return Slot{}, fmt.Errorf("maxPatients must not be negative")
		}
		capacity = *in.MaxPatients
	}
	if in.IsAvailable != nil && !*in.IsAvailable {
		capacity = 0
	}
	return Slot{TimeSlot: ts, Capacity: capacity}, nil
}

var weekdays = map[string]time.Weekday{
	"sunday": time.Sunday, "sun": time.Sunday,
	"monday": time.Monday, "mon": time.Monday,
	"tuesday": time.Tuesday, "tue": time.Tuesday, "tues": time.Tuesday,
	"wednesday": time.Wednesday, "wed": time.Wednesday,
	"thursday": time.Thursday, "thu": time.Thursday, "thurs": time.Thursday,
	"friday": time.Friday, "fri": time.Friday,
	"saturday": time.Saturday, "sat": time.Saturday,
}

func parseWeekday(raw string) (time.Weekday, bool) {
	wd, ok := weekdays[strings.ToLower(strings.TrimSpace(raw))]
	return wd, ok
}

// Build validates req and turns it into a schedule of dated days. Weekly
// entries are expanded from today for horizonWeeks weeks; an explicit dated
// day replaces the weekly entry for the same date.
func Build(req ReplaceRequest, today time.Time, horizonWeeks int) (*DoctorSchedule, error) {
	var r booking.Required
	r.Check("doctorId", req.DoctorID)
	if req.Schedule == nil {
		r.Check("schedule", "")
	}
	if err := r.Err(); err != nil {
		return nil, err
	}

	days := make(map[string][]Slot)

	start := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)
	for i, w := range req.Schedule.Weekly {
		field := fmt.Sprintf("schedule.weekly[%d]", i)
		wd, ok := parseWeekday(w.Weekday)
		if !ok {
			return nil, booking.Invalid(field+".weekday", "%s.weekday: unknown weekday %q", field, w.Weekday)
		}
		slots, err := buildSlots(field, w.Slots)
		if err != nil {
			return nil, err
		}
		for d := 0; d < horizonWeeks*7; d++ {
			date := start.AddDate(0, 0, d)
			if date.Weekday() != wd {
				continue
			}
			key := date.Format(DateLayout)
			days[key] = append(days[key], slots...)
		}
	}

	explicit := make(map[string]bool)
	for i, d := range req.Schedule.Days {
		field := fmt.Sprintf("schedule.days[%d]", i)
		date, err := NormalizeDate(d.Date)
		if err != nil {
			return nil, booking.Invalid(field+".date", "%s.date: %v", field, err)
		}
		if explicit[date] {
			return nil, booking.Invalid(field+".date", "%s.date: %s appears twice", field, date)
		}
		explicit[date] = true
		slots, err := buildSlots(field, d.Slots)
		if err != nil {
			return nil, err
		}
		days[date] = slots
	}

	out := &DoctorSchedule{
		DoctorID:    strings.TrimSpace(req.DoctorID),
		DoctorEmail: strings.ToLower(strings.TrimSpace(req.DoctorEmail)),
		DoctorName:  strings.TrimSpace(req.DoctorName),
		Days:        make([]Day, 0, len(days)),
	}
	for date, slots := range days {
		sort.Slice(slots, func(i, j int) bool { return slots[i].Start < slots[j].Start })
		for k := 1; k < len(slots); k++ {
			if slots[k-1].Overlaps(slots[k].TimeSlot) {
				return nil, booking.Invalid("schedule", "slots %s and %s overlap on %s", slots[k-1], slots[k], date)
			}
		}
		d, _ := time.Parse(DateLayout, date)
		out.Days = append(out.Days, Day{Date: date, Weekday: d.Weekday().String(), Slots: slots})
	}
	sort.Slice(out.Days, func(i, j int) bool { return out.Days[i].Date < out.Days[j].Date })
	return out, nil
}

func buildSlots(field string, in []SlotInput) ([]Slot, error) {
	out := make([]Slot, 0, len(in))
	for j, s := range in {
		sl, err := s.toSlot()
		if err != nil {
			f := fmt.Sprintf("%s.slots[%d]", field, j)
			return nil, booking.Invalid(f, "%s: %v", f, err)
		}
		out = append(out, sl)
	}
	return out, nil
}
