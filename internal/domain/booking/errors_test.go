package booking

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/medconnect/medconnect/internal/platform/resilience"
)

func TestRequired_ListsEveryMissingField(t *testing.T) {
	var r Required
	err := r.Check("fromLocation", "Downtown").
		Check("destination", "").
		Check("ambulanceType", "  ").
		Check("date", "2025-01-01").
		Check("name", "").
		Check("phone", "555").
		Err()

	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	want := []string{"destination", "ambulanceType", "name"}
	if len(ve.Fields) != len(want) {
		t.Fatalf("expected %v, got %v", want, ve.Fields)
	}
	for i := range want {
		if ve.Fields[i] != want[i] {
			t.Errorf("field %d: expected %s, got %s", i, want[i], ve.Fields[i])
		}
	}
	if ve.Error() != "missing required fields: destination, ambulanceType, name" {
		t.Errorf("unexpected message: %s", ve.Error())
	}
}

func TestRequired_NoneMissing(t *testing.T) {
	var r Required
	if err := r.Check("name", "Ann").Err(); err != nil {
		t.Errorf("expected nil, got %v", err)
	}
}

func TestHTTPError_Mapping(t *testing.T) {
	unavailable := &resilience.UnavailableError{Op: "appointments.create", Err: errors.New("dial tcp: refused")}

	tests := []struct {
		name string
		err  error
		code int
	}{
		{"validation", &ValidationError{Fields: []string{"name"}}, http.StatusBadRequest},
		{"malformed", Invalid("timeSlot", "bad slot"), http.StatusBadRequest},
		{"not found", fmt.Errorf("appointment abc: %w", ErrNotFound), http.StatusNotFound},
		{"slot unavailable", ErrSlotUnavailable, http.StatusConflict},
		{"schedule missing", fmt.Errorf("reserve: %w", ErrScheduleNotFound), http.StatusConflict},
		{"transition", &TransitionError{From: StatusCompleted, To: StatusCancelled}, http.StatusConflict},
		{"forbidden", ErrForbidden, http.StatusForbidden},
		{"store down", unavailable, http.StatusServiceUnavailable},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			he := HTTPError(tt.err)
			if he.Code != tt.code {
				t.Errorf("expected %d, got %d", tt.code, he.Code)
			}
			if !errors.Is(he.Internal, tt.err) {
				t.Error("expected domain error to be kept in Internal")
			}
		})
	}
}

func TestHTTPError_HidesInternalDetail(t *testing.T) {
	he := HTTPError(errors.New("pq: relation does not exist"))
	if he.Message != "internal server error" {
		t.Errorf("expected generic message, got %v", he.Message)
	}
}

func TestListing(t *testing.T) {
	l := FromStore[int](nil)
	if l.Items == nil || l.Fallback() {
		t.Errorf("store listing must be non-nil and untagged: %+v", l)
	}
	s := FromSample([]int{1}, ReasonNoResults)
	if !s.Fallback() || s.Reason != ReasonNoResults {
		t.Errorf("sample listing must be tagged: %+v", s)
	}
}
