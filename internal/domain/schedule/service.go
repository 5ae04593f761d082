package schedule

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/medconnect/medconnect/internal/domain/booking"
	"github.com/medconnect/medconnect/internal/platform/cache"
	"github.com/medconnect/medconnect/internal/platform/events"
	"github.com/medconnect/medconnect/internal/platform/metrics"
)

type Config struct {
	CacheTTL     time.Duration
	HorizonWeeks int
}

type Service struct {
	repo     Repository
	cache    cache.Cache
	notifier *events.Notifier
	metrics  *metrics.Collector
	logger   zerolog.Logger
	cfg      Config
	now      func() time.Time
}

func NewService(repo Repository, c cache.Cache, n *events.Notifier, m *metrics.Collector, logger zerolog.Logger, cfg Config) *Service {
	if c == nil {
		c = cache.Nop{}
	}
	if cfg.HorizonWeeks <= 0 {
		cfg.HorizonWeeks = 4
	}
	return &Service{repo: repo, cache: c, notifier: n, metrics: m, logger: logger, cfg: cfg, now: time.Now}
}

// Lookup is a schedule read tagged with where it came from.
type Lookup struct {
	Schedule *DoctorSchedule
	Source   booking.Source
	Reason   string
}

// Get returns the doctor's schedule, optionally narrowed to one date. When
// the store is unavailable the sample schedule is returned instead.
func (s *Service) Get(ctx context.Context, doctorID, date string) (*Lookup, error) {
	doctorID = strings.TrimSpace(doctorID)
	if doctorID == "" {
		return nil, &booking.ValidationError{Fields: []string{"doctorId"}}
	}
	if date != "" {
		d, err := NormalizeDate(date)
		if err != nil {
			return nil, booking.Invalid("date", "%v", err)
		}
		date = d
	}

	lookup := &Lookup{Source: booking.SourceStore}
	sched, err := s.load(ctx, doctorID)
	switch {
	case err == nil:
		lookup.Schedule = sched
	case errors.Is(err, booking.ErrStoreUnavailable):
		s.logger.Warn().Err(err).Str("doctor_id", doctorID).Msg("serving sample schedule")
		s.metrics.Fallback("schedules", booking.ReasonStoreUnavailable)
		lookup.Schedule = SampleSchedule(doctorID, s.now())
		lookup.Source = booking.SourceSample
		lookup.Reason = booking.ReasonStoreUnavailable
	default:
		return nil, err
	}

	if date != "" {
		narrowed, ok := lookup.Schedule.OnlyDate(date)
		if !ok {
			return nil, fmt.Errorf("schedule for %s on %s: %w", doctorID, date, booking.ErrNotFound)
		}
		lookup.Schedule = narrowed
	}
	return lookup, nil
}

func (s *Service) load(ctx context.Context, doctorID string) (*DoctorSchedule, error) {
	version, err := s.cache.Version(ctx, versionKey(doctorID))
	if err != nil {
		s.logger.Warn().Err(err).Str("doctor_id", doctorID).Msg("read schedule version")
		return s.repo.Get(ctx, doctorID)
	}

	var cached DoctorSchedule
	hit, err := s.cache.Get(ctx, cacheKey(doctorID, version), &cached)
	if err != nil {
		s.logger.Warn().Err(err).Str("doctor_id", doctorID).Msg("read cached schedule")
	}
	s.metrics.CacheLookup(hit)
	if hit {
		return &cached, nil
	}

	sched, err := s.repo.Get(ctx, doctorID)
	if err != nil {
		return nil, err
	}
	if s.cfg.CacheTTL > 0 {
		if err := s.cache.Set(ctx, cacheKey(doctorID, version), sched, s.cfg.CacheTTL); err != nil {
			s.logger.Warn().Err(err).Str("doctor_id", doctorID).Msg("cache schedule")
		}
	}
	return sched, nil
}

// OwnedBy reports whether the schedule stored for doctorID was registered
// under email. A doctor without a stored schedule is owned by nobody.
func (s *Service) OwnedBy(ctx context.Context, doctorID, email string) (bool, error) {
	email = strings.TrimSpace(email)
	if doctorID == "" || email == "" {
		return false, nil
	}
	stored, err := s.repo.Get(ctx, doctorID)
	switch {
	case errors.Is(err, booking.ErrNotFound):
		return false, nil
	case err != nil:
		return false, err
	}
	return stored.DoctorEmail != "" && strings.EqualFold(stored.DoctorEmail, email), nil
}

// Replace validates req and swaps the doctor's schedule wholesale.
func (s *Service) Replace(ctx context.Context, req ReplaceRequest) (*DoctorSchedule, error) {
	sched, err := Build(req, s.now(), s.cfg.HorizonWeeks)
	if err != nil {
		return nil, err
	}
	stored, err := s.repo.Replace(ctx, sched)
	if err != nil {
		return nil, err
	}
	invalidate(ctx, s.cache, s.logger, stored.DoctorID)
	s.notifier.Notify(ctx, events.New(events.ScheduleReplaced, stored.DoctorID, map[string]interface{}{
		"doctorId": stored.DoctorID,
		"days":     len(stored.Days),
	}))
	return stored, nil
}
