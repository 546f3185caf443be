// Package availability computes selectable booking slots for a listing from its
// operating schedule and the reservations that already exist for a date.
//
// Every overlap test uses half-open intervals: [a, b) and [c, d) conflict iff
// a < d and c < b, so a booking ending at 14:00 never blocks one starting at 14:00.
package availability

import (
	"iter"
	"time"
)

// DefaultSlotMinutes is the granularity of start-time slots.
const DefaultSlotMinutes = 30

// EmptyDaysPolicy decides what an empty operating-days list means.
type EmptyDaysPolicy int

const (
	// EmptyDaysOpen treats a schedule without days as open every day.
	EmptyDaysOpen EmptyDaysPolicy = iota
	// EmptyDaysClosed treats a schedule without days as never open.
	EmptyDaysClosed
)

// RangeStatus classifies a requested [start, end) range on a date.
type RangeStatus string

const (
	// RangeAvailable means the range is valid, inside operating hours and free.
	RangeAvailable RangeStatus = "available"
	// RangeInvalid means end is not strictly after start, or a bound does not
	// exist on the date because of a DST transition.
	RangeInvalid RangeStatus = "invalid"
	// RangeClosedDay means the listing does not operate on the date.
	RangeClosedDay RangeStatus = "closed_day"
	// RangeOutsideHours means the range is not contained in an operating window.
	RangeOutsideHours RangeStatus = "outside_hours"
	// RangeConflicting means the range overlaps an existing booking.
	RangeConflicting RangeStatus = "conflicting"
)

// Window is a contiguous operating period within one calendar date.
type Window struct {
	Start TimeOfDay
	End   TimeOfDay
}

// Contains reports whether [start, end) lies inside the window.
func (w Window) Contains(start, end TimeOfDay) bool {
	return start >= w.Start && end <= w.End
}

// Engine evaluates availability. It holds configuration only and is safe for
// concurrent use.
type Engine struct {
	location    *time.Location
	slotMinutes int
	emptyDays   EmptyDaysPolicy
}

// Option configures an Engine.
type Option func(*Engine)

// WithSlotMinutes sets the slot length used by IsSlotAvailable and start options.
func WithSlotMinutes(minutes int) Option {
	return func(e *Engine) {
		if minutes > 0 {
			e.slotMinutes = minutes
		}
	}
}

// WithEmptyDaysPolicy overrides how an empty operating-days list is read.
func WithEmptyDaysPolicy(policy EmptyDaysPolicy) Option {
	return func(e *Engine) {
		e.emptyDays = policy
	}
}

// NewEngine constructs an Engine that interprets wall-clock times in loc.
// If loc is nil, UTC is used.
func NewEngine(loc *time.Location, opts ...Option) *Engine {
	if loc == nil {
		loc = time.UTC
	}
	e := &Engine{location: loc, slotMinutes: DefaultSlotMinutes, emptyDays: EmptyDaysOpen}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	return e
}

// Location returns the zone used for wall-clock math.
func (e *Engine) Location() *time.Location {
	if e == nil || e.location == nil {
		return time.UTC
	}
	return e.location
}

// SlotMinutes returns the configured slot length.
func (e *Engine) SlotMinutes() int {
	if e == nil || e.slotMinutes <= 0 {
		return DefaultSlotMinutes
	}
	return e.slotMinutes
}

// IsOperationalDay reports whether the listing accepts bookings on date.
func (e *Engine) IsOperationalDay(date time.Time, schedule OperatingSchedule) bool {
	if len(schedule.Days) == 0 {
		return e == nil || e.emptyDays == EmptyDaysOpen
	}
	return schedule.HasDay(date.In(e.Location()).Weekday())
}

// GenerateTimeSlots enumerates slot starts from open up to the end of the
// operating window, stepping by intervalMinutes (the engine slot length when
// intervalMinutes <= 0).
//
// A "00:00" close runs to 24:00 exclusive. An overnight window is enumerated up
// to midnight only; the part after midnight is reported for the following date
// by Windows and StartOptions. The returned sequence carries no state and can be
// ranged over repeatedly with identical results.
func (e *Engine) GenerateTimeSlots(schedule OperatingSchedule, intervalMinutes int) iter.Seq[TimeSlot] {
	window := Window{Start: schedule.Hours.Open, End: schedule.Hours.End()}
	return e.slotsIn(time.Time{}, window, e.step(intervalMinutes))
}

// Windows returns the operating windows that fall on date, in chronological order.
func (e *Engine) Windows(date time.Time, schedule OperatingSchedule) []Window {
	windows := make([]Window, 0, 2)
	hours := schedule.Hours
	if hours.Overnight() && e.IsOperationalDay(date.AddDate(0, 0, -1), schedule) {
		windows = append(windows, Window{Start: Midnight, End: hours.Close})
	}
	if e.IsOperationalDay(date, schedule) {
		windows = append(windows, Window{Start: hours.Open, End: hours.End()})
	}
	return windows
}

// IsSlotAvailable reports whether the slot [slotStart, slotStart+slotLength) on
// date overlaps none of the bookings. A start skipped by DST is never available.
func (e *Engine) IsSlotAvailable(slotStart TimeOfDay, date time.Time, bookings []BookingInterval) bool {
	loc := e.Location()
	if !slotStart.ExistsOn(date, loc) {
		return false
	}
	start := slotStart.On(date, loc)
	end := start.Add(time.Duration(e.SlotMinutes()) * time.Minute)
	return !overlapsAny(start, end, bookings)
}

// IsRangeValid reports whether end is strictly later than start within one day.
func IsRangeValid(start, end TimeOfDay) bool {
	return start >= Midnight && end <= EndOfDay && end > start
}

// IsRangeAvailable reports whether [start, end) on date is valid and overlaps
// none of the bookings.
func (e *Engine) IsRangeAvailable(start, end TimeOfDay, date time.Time, bookings []BookingInterval) bool {
	from, to, ok := e.absoluteRange(start, end, date)
	if !ok {
		return false
	}
	return !overlapsAny(from, to, bookings)
}

// absoluteRange resolves [start, end) on date to instants. ok is false unless
// both bounds exist on date and start resolves strictly before end.
func (e *Engine) absoluteRange(start, end TimeOfDay, date time.Time) (time.Time, time.Time, bool) {
	if !IsRangeValid(start, end) {
		return time.Time{}, time.Time{}, false
	}
	loc := e.Location()
	if !start.ExistsOn(date, loc) || !end.ExistsOn(date, loc) {
		return time.Time{}, time.Time{}, false
	}
	from, to := start.On(date, loc), end.On(date, loc)
	if !from.Before(to) {
		return time.Time{}, time.Time{}, false
	}
	return from, to, true
}

// CheckRange classifies a requested range against the schedule and bookings.
func (e *Engine) CheckRange(date time.Time, schedule OperatingSchedule, start, end TimeOfDay, bookings []BookingInterval) RangeStatus {
	if _, _, ok := e.absoluteRange(start, end, date); !ok {
		return RangeInvalid
	}
	windows := e.Windows(date, schedule)
	if len(windows) == 0 {
		return RangeClosedDay
	}
	inside := false
	for _, w := range windows {
		if w.Contains(start, end) {
			inside = true
			break
		}
	}
	if !inside {
		return RangeOutsideHours
	}
	if !e.IsRangeAvailable(start, end, date, bookings) {
		return RangeConflicting
	}
	return RangeAvailable
}

// StartOptions lists every start slot on date with its availability.
// Closed dates yield nil.
func (e *Engine) StartOptions(date time.Time, schedule OperatingSchedule, bookings []BookingInterval) []TimeSlot {
	var out []TimeSlot
	for _, w := range e.Windows(date, schedule) {
		for slot := range e.slotsIn(date, w, e.SlotMinutes()) {
			slot.Available = e.IsSlotAvailable(slot.Start, date, bookings)
			out = append(out, slot)
		}
	}
	return out
}

// EndOptions lists the end times selectable after start, stepping by
// intervalMinutes up to and including the end of start's operating window.
// An option is available when [start, option) is free.
func (e *Engine) EndOptions(date time.Time, schedule OperatingSchedule, start TimeOfDay, bookings []BookingInterval, intervalMinutes int) []TimeSlot {
	step := e.step(intervalMinutes)
	for _, w := range e.Windows(date, schedule) {
		if start < w.Start || start >= w.End {
			continue
		}
		var out []TimeSlot
		for t := start.Add(step); t <= w.End; t = t.Add(step) {
			if !t.ExistsOn(date, e.Location()) {
				continue
			}
			out = append(out, TimeSlot{
				Date:      dateOnly(date, e.Location()),
				Start:     t,
				Label:     t.Label(),
				Value:     t.String(),
				Available: e.IsRangeAvailable(start, t, date, bookings),
			})
		}
		return out
	}
	return nil
}

// Selectable filters slots down to the available ones.
func Selectable(slots []TimeSlot) []TimeSlot {
	out := make([]TimeSlot, 0, len(slots))
	for _, slot := range slots {
		if slot.Available {
			out = append(out, slot)
		}
	}
	return out
}

func (e *Engine) step(intervalMinutes int) int {
	if intervalMinutes > 0 {
		return intervalMinutes
	}
	return e.SlotMinutes()
}

func (e *Engine) slotsIn(date time.Time, w Window, step int) iter.Seq[TimeSlot] {
	var day time.Time
	if !date.IsZero() {
		day = dateOnly(date, e.Location())
	}
	return func(yield func(TimeSlot) bool) {
		for t := w.Start; t < w.End; t = t.Add(step) {
			if !day.IsZero() && !t.ExistsOn(day, e.Location()) {
				continue
			}
			slot := TimeSlot{
				Date:      day,
				Start:     t,
				Label:     t.Label(),
				Value:     t.String(),
				Available: true,
			}
			if !yield(slot) {
				return
			}
		}
	}
}

func overlapsAny(start, end time.Time, bookings []BookingInterval) bool {
	for _, b := range bookings {
		if b.Overlaps(start, end) {
			return true
		}
	}
	return false
}

func dateOnly(d time.Time, loc *time.Location) time.Time {
	y, m, day := d.In(loc).Date()
	return time.Date(y, m, day, 0, 0, 0, 0, loc)
}
