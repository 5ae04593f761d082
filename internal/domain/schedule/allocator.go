package schedule

import (
	"context"
	"errors"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/medconnect/medconnect/internal/domain/booking"
	"github.com/medconnect/medconnect/internal/platform/cache"
	"github.com/medconnect/medconnect/internal/platform/metrics"
)

// Allocator hands out slot capacity. Two concurrent reservations of the last
// unit of a slot cannot both succeed because the store applies the
// availability check and the decrement in one statement.
type Allocator struct {
	repo    Repository
	cache   cache.Cache
	metrics *metrics.Collector
	logger  zerolog.Logger
}

func NewAllocator(repo Repository, c cache.Cache, m *metrics.Collector, logger zerolog.Logger) *Allocator {
	if c == nil {
		c = cache.Nop{}
	}
	return &Allocator{repo: repo, cache: c, metrics: m, logger: logger}
}

func (a *Allocator) CheckAndReserve(ctx context.Context, doctorID, date string, ts TimeSlot) error {
	err := a.repo.Reserve(ctx, doctorID, date, ts)
	switch {
	case err == nil:
		a.metrics.Reservation("reserved")
		a.invalidate(ctx, doctorID)
		return nil
	case errors.Is(err, booking.ErrSlotUnavailable):
		a.metrics.Reservation("unavailable")
	case errors.Is(err, booking.ErrScheduleNotFound):
		a.metrics.Reservation("no_schedule")
	default:
		a.metrics.Reservation("error")
	}
	return err
}

func (a *Allocator) Release(ctx context.Context, doctorID, date string, ts TimeSlot) error {
	if err := a.repo.Release(ctx, doctorID, date, ts); err != nil {
		a.metrics.Release("error")
		return err
	}
	a.metrics.Release("released")
	a.invalidate(ctx, doctorID)
	return nil
}

func (a *Allocator) invalidate(ctx context.Context, doctorID string) {
	invalidate(ctx, a.cache, a.logger, doctorID)
}

// Cached schedules live under a key carrying the doctor's version counter.
// Invalidation bumps the counter instead of deleting, so a read that raced a
// reservation stores its copy under a version nobody reads any more.
func invalidate(ctx context.Context, c cache.Cache, logger zerolog.Logger, doctorID string) {
	if err := c.Bump(context.WithoutCancel(ctx), versionKey(doctorID)); err != nil {
		logger.Warn().Err(err).Str("doctor_id", doctorID).Msg("invalidate cached schedule")
	}
}

func versionKey(doctorID string) string {
	return "schedule-version:" + doctorID
}

func cacheKey(doctorID string, version int64) string {
	return "schedule:" + doctorID + ":" + strconv.FormatInt(version, 10)
}
