package appointment

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/medconnect/medconnect/internal/domain/booking"
	"github.com/medconnect/medconnect/internal/domain/schedule"
	"github.com/medconnect/medconnect/pkg/pagination"
)

type mockRepo struct {
	mu       sync.Mutex
	items    map[uuid.UUID]*Appointment
	order    []uuid.UUID
	err      error
	createFn func(*Appointment) error
	// beforeUpdate runs inside UpdateStatus before the status check.
	beforeUpdate func(a *Appointment)
}

func newMockRepo() *mockRepo {
	return &mockRepo{items: make(map[uuid.UUID]*Appointment)}
}

func (m *mockRepo) Create(_ context.Context, a *Appointment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	if m.createFn != nil {
		if err := m.createFn(a); err != nil {
			return err
		}
	}
	now := time.Now()
	a.ID = uuid.New()
	a.Status = booking.StatusPending
	a.CreatedAt, a.UpdatedAt = now, now
	cp := *a
	m.items[a.ID] = &cp
	m.order = append(m.order, a.ID)
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	a, ok := m.items[id]
	if !ok {
		return nil, fmt.Errorf("appointment %s: %w", id, booking.ErrNotFound)
	}
	cp := *a
	return &cp, nil
}

func (m *mockRepo) UpdateStatus(_ context.Context, id uuid.UUID, from, to booking.Status) (*Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	a, ok := m.items[id]
	if !ok {
		return nil, fmt.Errorf("appointment %s: %w", id, booking.ErrNotFound)
	}
	if m.beforeUpdate != nil {
		m.beforeUpdate(a)
		m.beforeUpdate = nil
	}
	if a.Status != from {
		return nil, fmt.Errorf("appointment %s: %w", id, booking.ErrConflict)
	}
	a.Status = to
	a.UpdatedAt = time.Now()
	cp := *a
	return &cp, nil
}

func (m *mockRepo) List(_ context.Context, f Filter, page pagination.Params) ([]*Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	var out []*Appointment
	for _, id := range m.order {
		if a := m.items[id]; f.Matches(a) {
			cp := *a
			out = append(out, &cp)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return Less(out[i], out[j]) })
	return pagination.Slice(out, page), nil
}

func (m *mockRepo) status(id uuid.UUID) booking.Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.items[id].Status
}

// fakeSlots is a SlotAllocator over a map of slot capacities.
type fakeSlots struct {
	mu       sync.Mutex
	capacity map[string]int
	booked   map[string]int
	releases int
}

func slotKey(doctorID, date string, ts schedule.TimeSlot) string {
	return doctorID + "/" + date + "/" + ts.String()
}

func newFakeSlots() *fakeSlots {
	return &fakeSlots{capacity: make(map[string]int), booked: make(map[string]int)}
}

func (f *fakeSlots) open(doctorID, date, slot string, capacity int) {
	ts, err := schedule.ParseTimeSlot(slot)
	if err != nil {
		panic(err)
	}
	f.capacity[slotKey(doctorID, date, ts)] = capacity
}

func (f *fakeSlots) CheckAndReserve(_ context.Context, doctorID, date string, ts schedule.TimeSlot) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	k := slotKey(doctorID, date, ts)
	capacity, ok := f.capacity[k]
	if !ok {
		return booking.ErrScheduleNotFound
	}
	if f.booked[k] >= capacity {
		return booking.ErrSlotUnavailable
	}
	f.booked[k]++
	return nil
}

func (f *fakeSlots) Release(_ context.Context, doctorID, date string, ts schedule.TimeSlot) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	k := slotKey(doctorID, date, ts)
	if _, ok := f.capacity[k]; !ok {
		return booking.ErrScheduleNotFound
	}
	f.releases++
	if f.booked[k] > 0 {
		f.booked[k]--
	}
	return nil
}

func (f *fakeSlots) bookedCount(doctorID, date, slot string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	ts, _ := schedule.ParseTimeSlot(slot)
	return f.booked[slotKey(doctorID, date, ts)]
}
