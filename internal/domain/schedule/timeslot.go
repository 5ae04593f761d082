package schedule

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const minutesPerDay = 24 * 60

// TimeSlot is a half-open interval [Start, End) in minutes from midnight.
// Its canonical text form is "HH:MM - HH:MM".
type TimeSlot struct {
	Start int
	End   int
}

// ParseTimeSlot accepts "10:00-10:30", "10:00 - 10:30", "10:00–10:30",
// "10:00 to 10:30" and 12-hour forms such as "9:30 AM - 10:00 AM".
func ParseTimeSlot(raw string) (TimeSlot, error) {
	s := strings.ToLower(strings.TrimSpace(raw))
	s = strings.NewReplacer("–", "-", "—", "-", " to ", "-").Replace(s)

	from, to, ok := strings.Cut(s, "-")
	if !ok || strings.Contains(to, "-") {
		return TimeSlot{}, fmt.Errorf("time slot %q: expected \"HH:MM - HH:MM\"", raw)
	}
	start, err := parseClock(from)
	if err != nil {
		return TimeSlot{}, fmt.Errorf("time slot %q: %w", raw, err)
	}
	end, err := parseClock(to)
	if err != nil {
		return TimeSlot{}, fmt.Errorf("time slot %q: %w", raw, err)
	}
	return NewTimeSlot(start, end)
}

// ParseClockRange builds a slot from separate start and end times.
func ParseClockRange(startRaw, endRaw string) (TimeSlot, error) {
	start, err := parseClock(startRaw)
	if err != nil {
		return TimeSlot{}, err
	}
	end, err := parseClock(endRaw)
	if err != nil {
		return TimeSlot{}, err
	}
	return NewTimeSlot(start, end)
}

func NewTimeSlot(start, end int) (TimeSlot, error) {
	if start < 0 || start >= minutesPerDay || end > minutesPerDay {
		return TimeSlot{}, fmt.Errorf("time slot outside the day")
	}
	if start >= end {
		return TimeSlot{}, fmt.Errorf("time slot must end after it starts")
	}
	return TimeSlot{Start: start, End: end}, nil
}

func parseClock(raw string) (int, error) {
	s := strings.ToLower(strings.TrimSpace(raw))
	meridiem := ""
	for _, m := range []string{"am", "pm", "a.m.", "p.m."} {
		if strings.HasSuffix(s, m) {
			meridiem = m[:1]
			s = strings.TrimSpace(strings.TrimSuffix(s, m))
			break
		}
	}

	hourPart, minPart, hasMin := strings.Cut(s, ":")
	if !hasMin {
		if meridiem == "" {
			return 0, fmt.Errorf("clock time %q: expected HH:MM", raw)
		}
		minPart = "00"
	}
	if len(minPart) != 2 || hourPart == "" || len(hourPart) > 2 {
		return 0, fmt.Errorf("clock time %q: expected HH:MM", raw)
	}
	hour, err := strconv.Atoi(hourPart)
	if err != nil {
		return 0, fmt.Errorf("clock time %q: bad hour", raw)
	}
	minute, err := strconv.Atoi(minPart)
	if err != nil || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("clock time %q: bad minute", raw)
	}

	switch meridiem {
	case "a", "p":
		if hour < 1 || hour > 12 {
			return 0, fmt.Errorf("clock time %q: bad hour", raw)
		}
		hour %= 12
		if meridiem == "p" {
			hour += 12
		}
	default:
		if hour == 24 && minute == 0 {
			return minutesPerDay, nil
		}
		if hour < 0 || hour > 23 {
			return 0, fmt.Errorf("clock time %q: bad hour", raw)
		}
	}
	return hour*60 + minute, nil
}

func formatClock(m int) string {
	return fmt.Sprintf("%02d:%02d", m/60, m%60)
}

func (t TimeSlot) StartClock() string { return formatClock(t.Start) }
func (t TimeSlot) EndClock() string   { return formatClock(t.End) }

func (t TimeSlot) String() string {
	return t.StartClock() + " - " + t.EndClock()
}

func (t TimeSlot) Overlaps(o TimeSlot) bool {
	return t.Start < o.End && o.Start < t.End
}

func (t TimeSlot) Duration() time.Duration {
	return time.Duration(t.End-t.Start) * time.Minute
}

const DateLayout = "2006-01-02"

// ParseDate accepts YYYY-MM-DD or an RFC 3339 timestamp, whose calendar date
// is taken as written.
func ParseDate(raw string) (time.Time, error) {
	s := strings.TrimSpace(raw)
	if len(s) > 10 && s[10] == 'T' {
		s = s[:10]
	}
	d, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("date %q: expected YYYY-MM-DD", raw)
	}
	return d, nil
}

// NormalizeDate returns the canonical YYYY-MM-DD form of raw.
func NormalizeDate(raw string) (string, error) {
	d, err := ParseDate(raw)
	if err != nil {
		return "", err
	}
	return d.Format(DateLayout), nil
}
