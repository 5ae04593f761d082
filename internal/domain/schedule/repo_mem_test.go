package schedule

import (
	"context"
	"fmt"
	"sync"

	"github.com/medconnect/medconnect/internal/domain/booking"
)

// memRepo is a Repository backed by a map. The mutex makes Reserve and
// Release atomic the way the conditional updates of the real stores are.
type memRepo struct {
	mu        sync.Mutex
	schedules map[string]*DoctorSchedule
	gets      int
	err       error
}

func newMemRepo(scheds ...*DoctorSchedule) *memRepo {
	r := &memRepo{schedules: make(map[string]*DoctorSchedule)}
	for _, s := range scheds {
		r.schedules[s.DoctorID] = s
	}
	return r
}

func (r *memRepo) Get(_ context.Context, doctorID string) (*DoctorSchedule, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.gets++
	if r.err != nil {
		return nil, r.err
	}
	s, ok := r.schedules[doctorID]
	if !ok {
		return nil, fmt.Errorf("schedule for doctor %s: %w", doctorID, booking.ErrNotFound)
	}
	cp := *s
	cp.Days = append([]Day(nil), s.Days...)
	for i := range cp.Days {
		cp.Days[i].Slots = append([]Slot(nil), s.Days[i].Slots...)
	}
	return &cp, nil
}

func (r *memRepo) Replace(_ context.Context, s *DoctorSchedule) (*DoctorSchedule, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	CarryBookings(r.schedules[s.DoctorID], s)
	r.schedules[s.DoctorID] = s
	return s, nil
}

func (r *memRepo) slot(doctorID, date string, ts TimeSlot) (*Slot, bool) {
	s, ok := r.schedules[doctorID]
	if !ok {
		return nil, false
	}
	d, ok := s.Day(date)
	if !ok {
		return nil, false
	}
	return d.Slot(ts)
}

func (r *memRepo) Reserve(_ context.Context, doctorID, date string, ts TimeSlot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	sl, ok := r.slot(doctorID, date, ts)
	if !ok {
		return booking.ErrScheduleNotFound
	}
	if !sl.Available() {
		return booking.ErrSlotUnavailable
	}
	sl.Booked++
	return nil
}

func (r *memRepo) Release(_ context.Context, doctorID, date string, ts TimeSlot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	sl, ok := r.slot(doctorID, date, ts)
	if !ok {
		return booking.ErrScheduleNotFound
	}
	if sl.Booked > 0 {
		sl.Booked--
	}
	return nil
}

func (r *memRepo) booked(doctorID, date string, ts TimeSlot) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	sl, ok := r.slot(doctorID, date, ts)
	if !ok {
		return -1
	}
	return sl.Booked
}
