package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

const minutesPerDay = 24 * 60

// TimeOfDay is a wall-clock time stored as minutes since midnight. It
// round-trips through the database and JSON as "HH:MM".
type TimeOfDay int

// ParseTimeOfDay parses "HH:MM" (24h clock) into a TimeOfDay.
func ParseTimeOfDay(value string) (TimeOfDay, error) {
	trimmed := strings.TrimSpace(value)
	var h, m int
	if _, err := fmt.Sscanf(trimmed, "%02d:%02d", &h, &m); err != nil {
		return 0, fmt.Errorf("invalid time of day %q: expected HH:MM", value)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("invalid time of day %q: out of range", value)
	}
	return TimeOfDay(h*60 + m), nil
}

// TimeOfDayFromTime extracts the wall-clock portion of a timestamp (UTC).
func TimeOfDayFromTime(at time.Time) TimeOfDay {
	utc := at.UTC()
	return TimeOfDay(utc.Hour()*60 + utc.Minute())
}

// String renders the time as "HH:MM".
func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", int(t)/60, int(t)%60)
}

// Valid reports whether the value falls within a single day.
func (t TimeOfDay) Valid() bool {
	return t >= 0 && t < minutesPerDay
}

// MarshalJSON implements json.Marshaler.
func (t TimeOfDay) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *TimeOfDay) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := ParseTimeOfDay(raw)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Value implements driver.Valuer; times are stored as "HH:MM" text.
func (t TimeOfDay) Value() (driver.Value, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("time of day %d out of range", int(t))
	}
	return t.String(), nil
}

// Scan implements sql.Scanner.
func (t *TimeOfDay) Scan(src any) error {
	switch v := src.(type) {
	case string:
		parsed, err := ParseTimeOfDay(v)
		if err != nil {
			return err
		}
		*t = parsed
		return nil
	case []byte:
		return t.Scan(string(v))
	case int64:
		if v < 0 || v >= minutesPerDay {
			return fmt.Errorf("time of day %d out of range", v)
		}
		*t = TimeOfDay(v)
		return nil
	case nil:
		*t = 0
		return nil
	default:
		return fmt.Errorf("cannot scan %T into TimeOfDay", src)
	}
}

// TimeSlot is a single-day booking window. Start must precede End; the
// interval is half-open, so a slot ending at 12:00 does not collide with one
// starting at 12:00.
type TimeSlot struct {
	Date  time.Time `json:"date"`
	Start TimeOfDay `json:"start"`
	End   TimeOfDay `json:"end"`
}

// NewTimeSlot validates and normalizes a slot. The date is truncated to
// midnight UTC so equality and overlap checks ignore the time component.
func NewTimeSlot(date time.Time, start, end TimeOfDay) (TimeSlot, error) {
	if !start.Valid() || !end.Valid() {
		return TimeSlot{}, fmt.Errorf("slot times must fall within a single day")
	}
	if start >= end {
		return TimeSlot{}, fmt.Errorf("slot start %s must precede end %s", start, end)
	}
	return TimeSlot{Date: NormalizeDate(date), Start: start, End: end}, nil
}

// NormalizeDate truncates a timestamp to midnight UTC.
func NormalizeDate(date time.Time) time.Time {
	y, m, d := date.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// SameDate reports whether both slots fall on the same calendar day.
func (s TimeSlot) SameDate(other TimeSlot) bool {
	return NormalizeDate(s.Date).Equal(NormalizeDate(other.Date))
}

// Overlaps reports whether two slots collide. Slots on different days never
// overlap; on the same day the half-open intervals must intersect.
func (s TimeSlot) Overlaps(other TimeSlot) bool {
	if !s.SameDate(other) {
		return false
	}
	return s.Start < other.End && other.Start < s.End
}

// Less orders slots by (date, start) and is the chronological tie-break used
// by the completion protocol.
func (s TimeSlot) Less(other TimeSlot) bool {
	sd, od := NormalizeDate(s.Date), NormalizeDate(other.Date)
	if !sd.Equal(od) {
		return sd.Before(od)
	}
	return s.Start < other.Start
}

// String renders the slot for logs and error details.
func (s TimeSlot) String() string {
	return fmt.Sprintf("%s %s-%s", NormalizeDate(s.Date).Format("2006-01-02"), s.Start, s.End)
}
