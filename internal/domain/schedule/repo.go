package schedule

import (
	"context"
)

// Repository stores doctor schedules. Reserve and Release are single
// conditional updates in the store, never read-modify-write.
type Repository interface {
	// Get returns booking.ErrNotFound when the doctor has no schedule.
	Get(ctx context.Context, doctorID string) (*DoctorSchedule, error)
	// Replace swaps the whole schedule, carrying booked counts over to slots
	// that survive, and returns what was stored.
	Replace(ctx context.Context, s *DoctorSchedule) (*DoctorSchedule, error)
	// Reserve takes one unit of the slot. It returns
	// booking.ErrScheduleNotFound when the doctor, date or slot does not exist
	// and booking.ErrSlotUnavailable when the slot is full.
	Reserve(ctx context.Context, doctorID, date string, ts TimeSlot) error
	// Release gives one unit back. Releasing a slot with nothing booked is a
	// no-op; a missing slot is booking.ErrScheduleNotFound.
	Release(ctx context.Context, doctorID, date string, ts TimeSlot) error
}
