// Package booking holds what ambulance bookings and appointments share: the
// status lifecycle, the error taxonomy and the tagged listing result.
package booking

import (
	"encoding/json"
	"fmt"
	"strings"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

var allowedTransitions = map[Status][]Status{
	StatusPending:   {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusCompleted, StatusCancelled},
}

// ParseStatus accepts any letter case ("Confirmed", "CONFIRMED") and returns
// the canonical lowercase value.
func ParseStatus(raw string) (Status, error) {
	s := Status(strings.ToLower(strings.TrimSpace(raw)))
	switch s {
	case StatusPending, StatusConfirmed, StatusCompleted, StatusCancelled:
		return s, nil
	}
	return "", fmt.Errorf("unknown status %q", raw)
}

func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

func (s Status) String() string { return string(s) }

func (s Status) CanTransitionTo(target Status) bool {
	for _, t := range allowedTransitions[s] {
		if t == target {
			return true
		}
	}
	return false
}

// Transition applies the lifecycle rules to a requested status change.
// It returns changed=false for a same-state request on a live booking. Every
// request against a terminal booking fails, including a same-state one.
func Transition(current, target Status) (changed bool, err error) {
	if current.IsTerminal() {
		return false, &TransitionError{From: current, To: target}
	}
	if current == target {
		return false, nil
	}
	if !current.CanTransitionTo(target) {
		return false, &TransitionError{From: current, To: target}
	}
	return true, nil
}

// UnmarshalJSON normalizes case so stored documents written by older clients
// ("Pending") still decode.
func (s *Status) UnmarshalJSON(b []byte) error {
	var raw string
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	parsed, err := ParseStatus(raw)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
