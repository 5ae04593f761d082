package events

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestToMessage(t *testing.T) {
	e := New(AppointmentBooked, "appt-1", map[string]string{"doctorId": "doc-1"})
	m, err := toMessage(e)
	if err != nil {
		t.Fatal(err)
	}
	if string(m.Key) != "appt-1" {
		t.Errorf("expected key appt-1, got %s", m.Key)
	}
	if len(m.Headers) != 2 || m.Headers[0].Key != "event-type" || string(m.Headers[0].Value) != AppointmentBooked {
		t.Errorf("unexpected headers: %+v", m.Headers)
	}

	var decoded Event
	if err := json.Unmarshal(m.Value, &decoded); err != nil {
		t.Fatal(err)
	}
	if decoded.ID != e.ID || decoded.Type != AppointmentBooked {
		t.Errorf("unexpected payload: %+v", decoded)
	}
}

func TestToMessage_Unencodable(t *testing.T) {
	if _, err := toMessage(New(AmbulanceCreated, "x", make(chan int))); err == nil {
		t.Fatal("expected encode error")
	}
}

func TestLogPublisher(t *testing.T) {
	var buf bytes.Buffer
	p := NewLogPublisher(zerolog.New(&buf))
	if err := p.Publish(context.Background(), New(AmbulanceDeleted, "amb-1", nil)); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), AmbulanceDeleted) {
		t.Errorf("expected event type in log, got %s", buf.String())
	}
}

func TestNotifier_SwallowsAndObservesErrors(t *testing.T) {
	var buf bytes.Buffer
	pub := &MemoryPublisher{Err: errors.New("broker down")}
	var observed []string
	n := NewNotifier(pub, zerolog.New(&buf), func(eventType string, err error) {
		if err != nil {
			observed = append(observed, eventType)
		}
	})

	n.Notify(context.Background(), New(AppointmentStatus, "appt-1", nil))

	if len(observed) != 1 || observed[0] != AppointmentStatus {
		t.Errorf("expected failed publish to be observed, got %v", observed)
	}
	if !strings.Contains(buf.String(), "broker down") {
		t.Errorf("expected error to be logged, got %s", buf.String())
	}
}

func TestNotifier_PublishesAfterCancel(t *testing.T) {
	pub := &MemoryPublisher{}
	n := NewNotifier(pub, zerolog.Nop(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	n.Notify(ctx, New(AmbulanceCreated, "amb-1", nil))

	if got := pub.Types(); len(got) != 1 || got[0] != AmbulanceCreated {
		t.Errorf("expected event despite cancelled request, got %v", got)
	}
}

func TestNotifier_Nil(t *testing.T) {
	var n *Notifier
	n.Notify(context.Background(), New(AmbulanceCreated, "amb-1", nil))
}
