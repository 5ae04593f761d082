package doctor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/medconnect/medconnect/internal/domain/booking"
	"github.com/medconnect/medconnect/internal/platform/metrics"
	"github.com/medconnect/medconnect/pkg/pagination"
)

type Service struct {
	repo    Repository
	metrics *metrics.Collector
	logger  zerolog.Logger
	now     func() time.Time
}

func NewService(repo Repository, m *metrics.Collector, logger zerolog.Logger) *Service {
	return &Service{repo: repo, metrics: m, logger: logger, now: time.Now}
}

func (s *Service) Create(ctx context.Context, d *Doctor) error {
	if err := d.Normalize(); err != nil {
		return err
	}
	if err := s.repo.Create(ctx, d); err != nil {
		return fmt.Errorf("create doctor: %w", err)
	}
	s.logger.Info().Str("doctor_id", d.ID.String()).Str("specialization", d.Specialization).Msg("doctor created")
	return nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Doctor, error) {
	return s.repo.GetByID(ctx, id)
}

// List returns the directory, or the tagged sample directory when the store
// is unreachable.
func (s *Service) List(ctx context.Context, f Filter, page pagination.Params) (booking.Listing[*Doctor], error) {
	items, err := s.repo.List(ctx, f, page)
	if errors.Is(err, booking.ErrStoreUnavailable) {
		s.logger.Warn().Err(err).Msg("serving sample doctors")
		s.metrics.Fallback("doctors", booking.ReasonStoreUnavailable)
		return booking.FromSample(SampleDoctors(f, s.now()), booking.ReasonStoreUnavailable), nil
	}
	if err != nil {
		return booking.Listing[*Doctor]{}, err
	}
	return booking.FromStore(items), nil
}
