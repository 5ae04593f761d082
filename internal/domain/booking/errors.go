package booking

import (
	"errors"
	"fmt"
	"strings"

	"github.com/medconnect/medconnect/internal/platform/resilience"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrSlotUnavailable   = errors.New("time slot is not available")
	ErrScheduleNotFound  = errors.New("doctor schedule not found for the requested date and slot")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrForbidden         = errors.New("forbidden")
	// ErrConflict reports that a conditional write lost a race.
	ErrConflict = errors.New("concurrent modification")

	ErrStoreUnavailable = resilience.ErrStoreUnavailable
)

// ValidationError lists every missing or malformed request field.
type ValidationError struct {
	Fields []string
	// Reason is set for a single malformed field.
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Reason != "" {
		return e.Reason
	}
	return "missing required fields: " + strings.Join(e.Fields, ", ")
}

// FieldNames lets the HTTP error handler list the fields.
func (e *ValidationError) FieldNames() []string {
	return e.Fields
}

// Invalid reports one malformed field.
func Invalid(field, format string, args ...interface{}) *ValidationError {
	return &ValidationError{Fields: []string{field}, Reason: fmt.Sprintf(format, args...)}
}

// Required collects the names of empty fields in order. Pass field name and
// value pairs.
type Required struct {
	missing []string
}

func (r *Required) Check(field, value string) *Required {
	if strings.TrimSpace(value) == "" {
		r.missing = append(r.missing, field)
	}
	return r
}

// Err returns nil when no field was missing.
func (r *Required) Err() error {
	if len(r.missing) == 0 {
		return nil
	}
	return &ValidationError{Fields: r.missing}
}

// TransitionError is an illegal status change. It matches
// ErrInvalidTransition.
type TransitionError struct {
	From Status
	To   Status
}

func (e *TransitionError) Error() string {
	if e.From.IsTerminal() {
		return fmt.Sprintf("booking is %s and cannot change to %s", e.From, e.To)
	}
	return fmt.Sprintf("cannot change status from %s to %s", e.From, e.To)
}

func (e *TransitionError) Is(target error) bool {
	return target == ErrInvalidTransition
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
