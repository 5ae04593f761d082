package ambulance

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/medconnect/medconnect/internal/domain/booking"
	"github.com/medconnect/medconnect/internal/platform/events"
	"github.com/medconnect/medconnect/internal/platform/metrics"
	"github.com/medconnect/medconnect/pkg/pagination"
)

type Service struct {
	repo     Repository
	notifier *events.Notifier
	metrics  *metrics.Collector
	logger   zerolog.Logger
	now      func() time.Time
}

func NewService(repo Repository, n *events.Notifier, m *metrics.Collector, logger zerolog.Logger) *Service {
	return &Service{repo: repo, notifier: n, metrics: m, logger: logger, now: time.Now}
}

func (s *Service) Create(ctx context.Context, req CreateRequest, requestedBy string) (*Booking, error) {
	b, err := req.Validate()
	if err != nil {
		return nil, err
	}
	b.RequestedBy = requestedBy
	if err := s.repo.Create(ctx, b); err != nil {
		return nil, fmt.Errorf("create ambulance booking: %w", err)
	}
	s.metrics.BookingCreated("ambulance")
	s.logger.Info().Str("booking_id", b.ID.String()).Str("ambulance_type", b.AmbulanceType).Msg("ambulance booked")
	s.notifier.Notify(ctx, events.New(events.AmbulanceCreated, b.ID.String(), b))
	return b, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Booking, error) {
	return s.repo.GetByID(ctx, id)
}

// List returns bookings in insertion order, or the tagged sample list when
// the store is unreachable.
func (s *Service) List(ctx context.Context, f Filter, page pagination.Params) (booking.Listing[*Booking], error) {
	items, err := s.repo.List(ctx, f, page)
	if errors.Is(err, booking.ErrStoreUnavailable) {
		s.logger.Warn().Err(err).Msg("serving sample ambulance bookings")
		s.metrics.Fallback("ambulances", booking.ReasonStoreUnavailable)
		return booking.FromSample(SampleBookings(f, s.now()), booking.ReasonStoreUnavailable), nil
	}
	if err != nil {
		return booking.Listing[*Booking]{}, err
	}
	return booking.FromStore(items), nil
}

// UpdateStatus applies the lifecycle rules and writes the change conditioned
// on the status that was read, re-reading once if it lost a race.
func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, raw string) (*Booking, error) {
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
		s.metrics.StatusChanged("ambulance", string(current.Status), string(target))
		s.notifier.Notify(ctx, events.New(events.AmbulanceStatusChanged, id.String(), map[string]interface{}{
			"bookingId": id.String(),
			"from":      current.Status,
			"to":        target,
		}))
		return updated, nil
	}
	return nil, fmt.Errorf("update ambulance booking %s: %w", id, booking.ErrConflict)
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info().Str("booking_id", id.String()).Msg("ambulance booking deleted")
	s.notifier.Notify(ctx, events.New(events.AmbulanceDeleted, id.String(), nil))
	return nil
}
