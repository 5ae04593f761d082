// Package events publishes booking lifecycle events.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
)

const (
	AmbulanceCreated       = "ambulance.created"
	AmbulanceStatusChanged = "ambulance.status_changed"
	AmbulanceDeleted       = "ambulance.deleted"
	AppointmentBooked      = "appointment.booked"
	AppointmentStatus      = "appointment.status_changed"
	ScheduleReplaced       = "schedule.replaced"
)

type Event struct {
	ID          string      `json:"id"`
	Type        string      `json:"type"`
	AggregateID string      `json:"aggregateId"`
	OccurredAt  time.Time   `json:"occurredAt"`
	Data        interface{} `json:"data,omitempty"`
}

func New(eventType, aggregateID string, data interface{}) Event {
	return Event{
		ID:          uuid.NewString(),
		Type:        eventType,
		AggregateID: aggregateID,
		OccurredAt:  time.Now().UTC(),
		Data:        data,
	}
}

type Publisher interface {
	Publish(ctx context.Context, events ...Event) error
	Close() error
}

// KafkaPublisher writes events to one topic, keyed by aggregate id so the
// events of one booking stay ordered within a partition.
type KafkaPublisher struct {
	w *kafka.Writer
}

func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	return &KafkaPublisher{w: &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		BatchTimeout: 10 * time.Millisecond,
		WriteTimeout: 5 * time.Second,
	}}
}

func (p *KafkaPublisher) Publish(ctx context.Context, events ...Event) error {
	msgs := make([]kafka.Message, 0, len(events))
	for _, e := range events {
		m, err := toMessage(e)
		if err != nil {
			return err
		}
		msgs = append(msgs, m)
	}
	if err := p.w.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("write %d events: %w", len(msgs), err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.w.Close()
}

func toMessage(e Event) (kafka.Message, error) {
	value, err := json.Marshal(e)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("encode event %s: %w", e.Type, err)
	}
	return kafka.Message{
		Key:   []byte(e.AggregateID),
		Value: value,
		Time:  e.OccurredAt,
		Headers: []kafka.Header{
			{Key: "event-type", Value: []byte(e.Type)},
			{Key: "event-id", Value: []byte(e.ID)},
		},
	}, nil
}

// LogPublisher writes events to the log. It is used when no brokers are
// configured.
type LogPublisher struct {
	logger zerolog.Logger
}

func NewLogPublisher(logger zerolog.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) Publish(_ context.Context, events ...Event) error {
	for _, e := range events {
		p.logger.Info().
			Str("event_id", e.ID).
			Str("event_type", e.Type).
			Str("aggregate_id", e.AggregateID).
			Msg("booking event")
	}
	return nil
}

func (p *LogPublisher) Close() error { return nil }

// MemoryPublisher keeps published events in memory.
type MemoryPublisher struct {
	mu     sync.Mutex
	events []Event
	Err    error
}

func (p *MemoryPublisher) Publish(_ context.Context, events ...Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Err != nil {
		return p.Err
	}
	p.events = append(p.events, events...)
	return nil
}

func (p *MemoryPublisher) Close() error { return nil }

func (p *MemoryPublisher) Events() []Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Event, len(p.events))
	copy(out, p.events)
	return out
}

// Types returns the types of the published events in order.
func (p *MemoryPublisher) Types() []string {
	var out []string
	for _, e := range p.Events() {
		out = append(out, e.Type)
	}
	return out
}
