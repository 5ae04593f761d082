package schedule

import (
	"encoding/json"
	"time"
)

// Slot is one bookable interval of a day. Capacity 0 marks a blocked slot.
type Slot struct {
	TimeSlot
	Capacity int
	Booked   int
}

func (s Slot) Available() bool { return s.Booked < s.Capacity }

func (s Slot) Remaining() int {
	if r := s.Capacity - s.Booked; r > 0 {
		return r
	}
	return 0
}

type slotJSON struct {
	StartTime   string `json:"startTime"`
	EndTime     string `json:"endTime"`
	TimeSlot    string `json:"timeSlot"`
	MaxPatients int    `json:"maxPatients"`
	Booked      int    `json:"booked"`
	IsAvailable bool   `json:"isAvailable"`
}

func (s Slot) MarshalJSON() ([]byte, error) {
	return json.Marshal(slotJSON{
		StartTime:   s.StartClock(),
		EndTime:     s.EndClock(),
		TimeSlot:    s.String(),
		MaxPatients: s.Capacity,
		Booked:      s.Booked,
		IsAvailable: s.Available(),
	})
}

func (s *Slot) UnmarshalJSON(b []byte) error {
	var in slotJSON
	if err := json.Unmarshal(b, &in); err != nil {
		return err
	}
	ts, err := ParseClockRange(in.StartTime, in.EndTime)
	if err != nil {
		return err
	}
	*s = Slot{TimeSlot: ts, Capacity: in.MaxPatients, Booked: in.Booked}
	return nil
}

type Day struct {
	Date    string `json:"date"`
	Weekday string `json:"weekday"`
	Slots   []Slot `json:"slots"`
}

// Slot returns the slot whose interval equals ts.
func (d *Day) Slot(ts TimeSlot) (*Slot, bool) {
	for i := range d.Slots {
		if d.Slots[i].TimeSlot == ts {
			return &d.Slots[i], true
		}
	}
	return nil, false
}

// DoctorSchedule is the single availability document of one doctor.
type DoctorSchedule struct {
	DoctorID    string    `json:"doctorId"`
	DoctorEmail string    `json:"doctorEmail,omitempty"`
	DoctorName  string    `json:"doctorName,omitempty"`
	Days        []Day     `json:"days"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func (s *DoctorSchedule) Day(date string) (*Day, bool) {
	for i := range s.Days {
		if s.Days[i].Date == date {
			return &s.Days[i], true
		}
	}
	return nil, false
}

// OnlyDate returns a copy that keeps just the given date.
func (s *DoctorSchedule) OnlyDate(date string) (*DoctorSchedule, bool) {
	d, ok := s.Day(date)
	if !ok {
		return nil, false
	}
	out := *s
	out.Days = []Day{*d}
	return &out, true
}

// CarryBookings copies booked counts from prev onto the slots of next that
// have the same date and interval, so replacing a schedule keeps the holds of
// existing appointments.
func CarryBookings(prev, next *DoctorSchedule) {
	if prev == nil {
		return
	}
	booked := make(map[string]map[TimeSlot]int, len(prev.Days))
	for _, d := range prev.Days {
		for _, sl := range d.Slots {
			if sl.Booked == 0 {
				continue
			}
			if booked[d.Date] == nil {
				booked[d.Date] = make(map[TimeSlot]int)
			}
			booked[d.Date][sl.TimeSlot] = sl.Booked
		}
	}
	for i := range next.Days {
		byTS := booked[next.Days[i].Date]
		for j := range next.Days[i].Slots {
			if n, ok := byTS[next.Days[i].Slots[j].TimeSlot]; ok {
				next.Days[i].Slots[j].Booked = n
			}
		}
	}
}
