// Package resilience bounds and isolates calls into the record store.
//
// Every repository call runs through a Guard, which applies the store timeout,
// feeds a circuit breaker and classifies failures. Failures that mean "the
// store cannot answer right now" surface as ErrStoreUnavailable; domain
// failures (no rows, duplicate keys, failed conditional updates) pass through
// unchanged and never count against the breaker.
package resilience

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"
)

// ErrStoreUnavailable marks a retryable store failure.
var ErrStoreUnavailable = errors.New("store unavailable")

// UnavailableError carries the operation and the underlying cause of a
// store outage. It matches ErrStoreUnavailable with errors.Is.
type UnavailableError struct {
	Op  string
	Err error
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("%s: store unavailable: %v", e.Op, e.Err)
}

func (e *UnavailableError) Unwrap() []error {
	return []error{ErrStoreUnavailable, e.Err}
}

// GuardConfig configures a Guard.
type GuardConfig struct {
	Name        string
	Timeout     time.Duration
	MaxFailures uint32
	OpenTimeout time.Duration
	// Transient reports driver specific connectivity failures. Context
	// deadlines and net.Error values are always transient.
	Transient func(error) bool
	// OnStateChange is called after the breaker changes state.
	OnStateChange func(name string, from, to gobreaker.State)
}

// Guard wraps store calls with a timeout and a circuit breaker.
type Guard struct {
	name      string
	timeout   time.Duration
	transient func(error) bool
	cb        *gobreaker.CircuitBreaker[struct{}]
}

// NewGuard creates a Guard. Zero values in cfg fall back to a 5s timeout, 5
// consecutive failures and a 30s open period.
func NewGuard(cfg GuardConfig, logger zerolog.Logger) *Guard {
	if cfg.Name == "" {
		cfg.Name = "store"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	if cfg.MaxFailures == 0 {
		cfg.MaxFailures = 5
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = 30 * time.Second
	}

	g := &Guard{
		name:      cfg.Name,
		timeout:   cfg.Timeout,
		transient: cfg.Transient,
	}

	maxFailures := cfg.MaxFailures
	g.cb = gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: 1,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		IsSuccessful: func(err error) bool {
			return err == nil || !g.IsTransient(err)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("store circuit breaker state changed")
			if cfg.OnStateChange != nil {
				cfg.OnStateChange(name, from, to)
			}
		},
	})
	return g
}

// Do runs fn under the store timeout and the circuit breaker. op names the
// call in returned errors.
func (g *Guard) Do(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	_, err := g.cb.Execute(func() (struct{}, error) {
		callCtx, cancel := context.WithTimeout(ctx, g.timeout)
		defer cancel()
		return struct{}{}, fn(callCtx)
	})
	if err == nil {
		return nil
	}
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return &UnavailableError{Op: op, Err: err}
	}
	if ctx.Err() == context.Canceled {
		// The caller went away; that says nothing about the store.
		return err
	}
	if g.IsTransient(err) {
		return &UnavailableError{Op: op, Err: err}
	}
	return err
}

// IsTransient reports whether err means the store could not be reached or did
// not answer in time.
func (g *Guard) IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrStoreUnavailable) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	if g.transient != nil {
		return g.transient(err)
	}
	return false
}

// State returns the breaker's current state.
func (g *Guard) State() gobreaker.State {
	return g.cb.State()
}

// Name returns the guard name.
func (g *Guard) Name() string {
	return g.name
}

// IsUnavailable reports whether err is a store outage.
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrStoreUnavailable)
}
