package appointment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/medconnect/medconnect/internal/domain/booking"
	"github.com/medconnect/medconnect/internal/domain/schedule"
	"github.com/medconnect/medconnect/internal/platform/events"
	"github.com/medconnect/medconnect/internal/platform/metrics"
	"github.com/medconnect/medconnect/pkg/pagination"
)

// SlotAllocator reserves and releases units of a doctor's slot.
// *schedule.Allocator implements it.
type SlotAllocator interface {
	CheckAndReserve(ctx context.Context, doctorID, date string, ts schedule.TimeSlot) error
	Release(ctx context.Context, doctorID, date string, ts schedule.TimeSlot) error
}

type Service struct {
	repo     Repository
	slots    SlotAllocator
	notifier *events.Notifier
	metrics  *metrics.Collector
	logger   zerolog.Logger
	now      func() time.Time
}

func NewService(repo Repository, slots SlotAllocator, n *events.Notifier, m *metrics.Collector, logger zerolog.Logger) *Service {
	return &Service{repo: repo, slots: slots, notifier: n, metrics: m, logger: logger, now: time.Now}
}

// Create reserves the requested slot and then stores the appointment. If the
// store write fails the reservation is handed back.
func (s *Service) Create(ctx context.Context, req CreateRequest, patientID string) (*Appointment, error) {
	a, err := req.Validate()
	if err != nil {
		return nil, err
	}
	a.PatientID = patientID

	if err := s.slots.CheckAndReserve(ctx, a.DoctorID, a.AppointmentDate, a.TimeSlot); err != nil {
		return nil, fmt.Errorf("reserve %s on %s for doctor %s: %w", a.TimeSlot, a.AppointmentDate, a.DoctorID, err)
	}

	if err := s.repo.Create(ctx, a); err != nil {
		s.release(ctx, a, "compensate failed create")
		return nil, fmt.Errorf("create appointment: %w", err)
	}

	s.metrics.BookingCreated("appointment")
	s.logger.Info().
		Str("appointment_id", a.ID.String()).
		Str("doctor_id", a.DoctorID).
		Str("date", a.AppointmentDate).
		Str("time_slot", a.TimeSlot.String()).
		Msg("appointment booked")
	s.notifier.Notify(ctx, events.New(events.AppointmentBooked, a.ID.String(), a))
	return a, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return s.repo.GetByID(ctx, id)
}

// UpdateStatus moves the appointment to the status named by raw. The write is
// conditional on the status that was read; if another request changed it in
// between, the change is re-evaluated once against the fresh record.
func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, raw string) (*Appointment, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, &booking.ValidationError{Fields: []string{"status"}}
	}
	target, err := booking.ParseStatus(raw)
	if err != nil {
		return nil, booking.Invalid("status", "%v", err)
	}

	for attempt := 0; attempt < 2; attempt++ {
		current, err := s.repo.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		changed, err := booking.Transition(current.Status, target)
		if err != nil {
			return nil, err
		}
		if !changed {
			return current, nil
		}

		updated, err := s.repo.UpdateStatus(ctx, id, current.Status, target)
		if errors.Is(err, booking.ErrConflict) {
			continue
		}
		if err != nil {
			return nil, err
		}

		s.metrics.StatusChanged("appointment", string(current.Status), string(target))
		if target == booking.StatusCancelled {
			s.release(ctx, updated, "release cancelled appointment")
		}
		s.notifier.Notify(ctx, events.New(events.AppointmentStatus, id.String(), map[string]interface{}{
			"appointmentId": id.String(),
			"from":          current.Status,
			"to":            target,
		}))
		return updated, nil
	}
	return nil, fmt.Errorf("update appointment %s: %w", id, booking.ErrConflict)
}

// release gives the appointment's slot back. It runs detached from the
// request so a client that disconnects cannot leave the slot held. Failures
// are logged; the caller's outcome does not change.
func (s *Service) release(ctx context.Context, a *Appointment, msg string) {
	ctx = context.WithoutCancel(ctx)
	if err := s.slots.Release(ctx, a.DoctorID, a.AppointmentDate, a.TimeSlot); err != nil {
		s.logger.Error().Err(err).
			Str("doctor_id", a.DoctorID).
			Str("date", a.AppointmentDate).
			Str("time_slot", a.TimeSlot.String()).
			Msg(msg)
	}
}

// List returns the matching appointments. An unreachable store, or a
// doctor-scoped query with no matches, yields the tagged sample list.
func (s *Service) List(ctx context.Context, f Filter, page pagination.Params) (booking.Listing[*Appointment], error) {
	items, err := s.repo.List(ctx, f, page)
	switch {
	case errors.Is(err, booking.ErrStoreUnavailable):
		s.logger.Warn().Err(err).Msg("serving sample appointments")
		s.metrics.Fallback("appointments", booking.ReasonStoreUnavailable)
		return booking.FromSample(SampleAppointments(f, s.now()), booking.ReasonStoreUnavailable), nil
	case err != nil:
		return booking.Listing[*Appointment]{}, err
	}

	if len(items) == 0 && f.DoctorScoped() && page.Offset == 0 {
		s.logger.Warn().Str("doctor_id", f.DoctorID).Str("doctor_email", f.DoctorEmail).Msg("no appointments for doctor, serving samples")
		s.metrics.Fallback("appointments", booking.ReasonNoResults)
		return booking.FromSample(SampleAppointments(f, s.now()), booking.ReasonNoResults), nil
	}
	return booking.FromStore(items), nil
}
