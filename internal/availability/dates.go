package availability

import (
	"errors"
	"iter"
	"time"
)

// MaxRangeDays bounds the number of dates OperatingDates walks.
const MaxRangeDays = 366

// ErrInvalidRange is returned when a date range ends before it starts or
// spans more than MaxRangeDays.
var ErrInvalidRange = errors.New("availability: invalid date range")

// OperatingDates yields every date in [from, to], both inclusive, on which the
// listing opens. Dates are midnights in the engine location; steps use calendar
// days so DST transitions never skip or repeat a date.
func (e *Engine) OperatingDates(schedule OperatingSchedule, from, to time.Time) (iter.Seq[time.Time], error) {
	loc := e.Location()
	first := Midnight.On(from, loc)
	last := Midnight.On(to, loc)
	if last.Before(first) {
		return nil, ErrInvalidRange
	}
	if DaysBetween(first, last) >= MaxRangeDays {
		return nil, ErrInvalidRange
	}

	return func(yield func(time.Time) bool) {
		for day := first; !day.After(last); day = day.AddDate(0, 0, 1) {
			if !e.IsOperationalDay(day, schedule) {
				continue
			}
			if !yield(day) {
				return
			}
		}
	}, nil
}

// DaysBetween counts calendar days from a to b, ignoring the time of day.
func DaysBetween(a, b time.Time) int {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	start := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	end := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)
	return int(end.Sub(start).Hours() / 24)
}
