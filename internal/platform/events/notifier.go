package events

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Notifier publishes events after a write has committed. Publish failures are
// logged and never reach the caller, and a request that goes away does not
// cancel the publish.
type Notifier struct {
	pub     Publisher
	logger  zerolog.Logger
	timeout time.Duration
	observe func(eventType string, err error)
}

// NewNotifier wraps pub. observe may be nil.
func NewNotifier(pub Publisher, logger zerolog.Logger, observe func(eventType string, err error)) *Notifier {
	return &Notifier{pub: pub, logger: logger, timeout: 5 * time.Second, observe: observe}
}

// Notify is a no-op on a nil Notifier.
func (n *Notifier) Notify(ctx context.Context, e Event) {
	if n == nil || n.pub == nil {
		return
	}
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), n.timeout)
	defer cancel()

	err := n.pub.Publish(pubCtx, e)
	if n.observe != nil {
		n.observe(e.Type, err)
	}
	if err != nil {
		n.logger.Error().Err(err).
			Str("event_type", e.Type).
			Str("aggregate_id", e.AggregateID).
			Msg("publish booking event")
	}
}
