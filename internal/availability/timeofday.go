package availability

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// TimeOfDay is a wall-clock time expressed as minutes since midnight.
// Valid values range from 0 (00:00) to EndOfDay (24:00).
type TimeOfDay int

const (
	// Midnight is 00:00. As a closing time it means "open until the end of the day".
	Midnight TimeOfDay = 0
	// EndOfDay is the exclusive upper bound of a calendar day (24:00).
	EndOfDay TimeOfDay = 24 * 60
)

// ErrInvalidTimeOfDay indicates a value that is not a 24-hour HH:MM time.
var ErrInvalidTimeOfDay = errors.New("availability: time must be HH:MM")

// ParseTimeOfDay parses a 24-hour "HH:MM" string. "24:00" is accepted as
// EndOfDay so a range may end exactly at midnight.
func ParseTimeOfDay(value string) (TimeOfDay, error) {
	value = strings.TrimSpace(value)
	if value == "24:00" {
		return EndOfDay, nil
	}
	hh, mm, ok := strings.Cut(value, ":")
	if !ok || len(hh) == 0 || len(hh) > 2 || len(mm) != 2 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimeOfDay, value)
	}
	hour, err := strconv.Atoi(hh)
	if err != nil || hour < 0 || hour > 23 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimeOfDay, value)
	}
	minute, err := strconv.Atoi(mm)
	if err != nil || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimeOfDay, value)
	}
	return TimeOfDay(hour*60 + minute), nil
}

// MustParseTimeOfDay is like ParseTimeOfDay but panics on malformed input.
// It is intended for constants and tests.
func MustParseTimeOfDay(value string) TimeOfDay {
	t, err := ParseTimeOfDay(value)
	if err != nil {
		panic(err)
	}
	return t
}

// Hour returns the hour component.
func (t TimeOfDay) Hour() int { return int(t) / 60 }

// Minute returns the minute component.
func (t TimeOfDay) Minute() int { return int(t) % 60 }

// String formats the value as HH:MM. EndOfDay renders as "24:00".
func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour(), t.Minute())
}

// Label formats the value for display, e.g. "9:30 AM".
func (t TimeOfDay) Label() string {
	hour := t.Hour() % 24
	suffix := "AM"
	if hour >= 12 {
		suffix = "PM"
	}
	display := hour % 12
	if display == 0 {
		display = 12
	}
	return fmt.Sprintf("%d:%02d %s", display, t.Minute(), suffix)
}

// Add returns t shifted by the given number of minutes.
func (t TimeOfDay) Add(minutes int) TimeOfDay { return t + TimeOfDay(minutes) }

// On combines the time of day with the calendar date of d in loc.
// EndOfDay yields midnight of the following day.
func (t TimeOfDay) On(d time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = d.Location()
	}
	y, m, day := d.In(loc).Date()
	return time.Date(y, m, day, 0, int(t), 0, 0, loc)
}

// ExistsOn reports whether the wall-clock time occurs on the date of d in loc.
// Times skipped by a forward DST transition do not.
func (t TimeOfDay) ExistsOn(d time.Time, loc *time.Location) bool {
	if loc == nil {
		loc = d.Location()
	}
	return TimeOfDayFrom(t.On(d, loc), loc) == t%EndOfDay
}

// TimeOfDayFrom extracts the wall-clock time of ts in loc.
func TimeOfDayFrom(ts time.Time, loc *time.Location) TimeOfDay {
	if loc != nil {
		ts = ts.In(loc)
	}
	return TimeOfDay(ts.Hour()*60 + ts.Minute())
}
