package availability

import (
	"fmt"
	"strings"
	"time"
)

// OperatingHours is the daily open/close window of a listing.
type OperatingHours struct {
	Open  TimeOfDay
	Close TimeOfDay
}

// ClosesAtMidnight reports whether Close is the "00:00" end-of-day sentinel.
func (h OperatingHours) ClosesAtMidnight() bool {
	return h.Close == Midnight
}

// Overnight reports whether the window wraps past midnight into the next day.
func (h OperatingHours) Overnight() bool {
	return !h.ClosesAtMidnight() && h.Close <= h.Open
}

// End returns the exclusive end of the window on the opening date.
// Overnight windows are cut at midnight; their tail belongs to the following date.
func (h OperatingHours) End() TimeOfDay {
	if h.ClosesAtMidnight() || h.Overnight() {
		return EndOfDay
	}
	return h.Close
}

// OperatingSchedule describes when a listing accepts bookings.
type OperatingSchedule struct {
	Days  []time.Weekday
	Hours OperatingHours
}

// HasDay reports whether day is explicitly listed.
func (s OperatingSchedule) HasDay(day time.Weekday) bool {
	for _, d := range s.Days {
		if d == day {
			return true
		}
	}
	return false
}

// BookingInterval is an existing reservation covering [Start, End).
type BookingInterval struct {
	ID    string
	Title string
	Start time.Time
	End   time.Time
}

// Overlaps reports whether [start, end) shares at least one instant with the interval.
func (b BookingInterval) Overlaps(start, end time.Time) bool {
	return start.Before(b.End) && b.Start.Before(end)
}

// TimeSlot is a candidate booking start (or end) on a specific date.
type TimeSlot struct {
	Date      time.Time
	Start     TimeOfDay
	Label     string
	Value     string
	Available bool
}

var weekdayNames = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// ParseWeekday accepts full or three-letter English weekday names in any case.
func ParseWeekday(name string) (time.Weekday, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if day, ok := weekdayNames[key]; ok {
		return day, nil
	}
	if len(key) == 3 {
		for full, day := range weekdayNames {
			if strings.HasPrefix(full, key) {
				return day, nil
			}
		}
	}
	return time.Sunday, fmt.Errorf("availability: unknown weekday %q", name)
}

// ParseSchedule builds a schedule from the wire representation used by the
// marketplace API: weekday names plus HH:MM open and close times.
func ParseSchedule(days []string, open, close string) (OperatingSchedule, error) {
	schedule := OperatingSchedule{Days: make([]time.Weekday, 0, len(days))}
	seen := make(map[time.Weekday]struct{}, len(days))
	for _, name := range days {
		day, err := ParseWeekday(name)
		if err != nil {
			return OperatingSchedule{}, err
		}
		if _, dup := seen[day]; dup {
			continue
		}
		seen[day] = struct{}{}
		schedule.Days = append(schedule.Days, day)
	}

	var err error
	if schedule.Hours.Open, err = ParseTimeOfDay(open); err != nil {
		return OperatingSchedule{}, fmt.Errorf("open: %w", err)
	}
	if schedule.Hours.Close, err = ParseTimeOfDay(close); err != nil {
		return OperatingSchedule{}, fmt.Errorf("close: %w", err)
	}
	return schedule, nil
}
