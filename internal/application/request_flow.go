package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/example/marketplace-booking/internal/availability"
)

// FlowState is the stage of a guest booking request.
type FlowState string

const (
	FlowIdle          FlowState = "idle"
	FlowDateSelected  FlowState = "date_selected"
	FlowTimesSelected FlowState = "times_selected"
	FlowSubmitting    FlowState = "submitting"
	FlowConfirmed     FlowState = "confirmed"
	FlowFailed        FlowState = "failed"
)

// SelectionValidity qualifies a FlowTimesSelected state.
type SelectionValidity string

const (
	SelectionNone        SelectionValidity = ""
	SelectionValid       SelectionValidity = "valid"
	SelectionInvalid     SelectionValidity = "invalid"
	SelectionConflicting SelectionValidity = "conflicting"
)

// ErrFlowClosed is returned when a request flow was closed while an operation was in flight.
var ErrFlowClosed = errors.New("application: request flow closed")

// TimeSelection carries the guest's chosen range and request details.
type TimeSelection struct {
	Start string
	End   string
	Notes string
	Price float64
}

// FlowSnapshot is a consistent copy of a request flow's state.
type FlowSnapshot struct {
	ID           string
	Listing      ListingRef
	State        FlowState
	Validity     SelectionValidity
	Date         time.Time
	Operational  bool
	Start        string
	End          string
	Notes        string
	Price        float64
	StartOptions []availability.TimeSlot
	EndOptions   []availability.TimeSlot
	Bookings     []Booking
	Error        string
	Confirmed    *Booking
}

// RequestFlow drives one guest booking dialog:
//
//	Idle -> DateSelected -> TimesSelected{Valid|Invalid|Conflicting} -> Submitting -> {Confirmed|Failed}
//
// Network calls are made without holding the lock; their results are dropped
// when the generation moved on (date re-selected or flow closed) meanwhile.
type RequestFlow struct {
	mu sync.Mutex

	id          string
	listing     ListingRef
	api         BookingAPI
	engine      *availability.Engine
	endInterval int
	logger      *zap.Logger

	generation uint64
	closed     bool

	state    FlowState
	validity SelectionValidity
	schedule availability.OperatingSchedule
	bookings []Booking
	date     time.Time
	start    availability.TimeOfDay
	end      availability.TimeOfDay
	hasStart bool
	hasEnd   bool
	notes    string
	price    float64
	lastErr  error
	confirm  *Booking
}

func newRequestFlow(id string, listing ListingRef, api BookingAPI, engine *availability.Engine, endInterval int, logger *zap.Logger) *RequestFlow {
	return &RequestFlow{
		id:          id,
		listing:     listing,
		api:         api,
		engine:      engine,
		endInterval: endInterval,
		logger:      defaultLogger(logger),
		state:       FlowIdle,
	}
}

// ID returns the flow identifier.
func (f *RequestFlow) ID() string { return f.id }

// load fetches the listing calendar. It runs once when the dialog opens.
func (f *RequestFlow) load(ctx context.Context) error {
	f.mu.Lock()
	gen := f.generation
	f.mu.Unlock()

	cal, err := f.api.Calendar(ctx, f.listing)
	if err != nil {
		return upstream("load calendar", err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed || gen != f.generation {
		return ErrFlowClosed
	}
	f.schedule = cal.Schedule
	f.bookings = cloneBookings(cal.Bookings)
	return nil
}

// SelectDate sets the date, clears the time selection and refreshes the
// date's bookings.
func (f *RequestFlow) SelectDate(ctx context.Context, date time.Time) (FlowSnapshot, error) {
	if date.IsZero() {
		return FlowSnapshot{}, newValidationError("date", "date is required")
	}

	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return FlowSnapshot{}, ErrFlowClosed
	}
	if f.state == FlowSubmitting {
		f.mu.Unlock()
		return FlowSnapshot{}, fmt.Errorf("%w: submission in progress", ErrConflict)
	}
	f.generation++
	gen := f.generation
	f.date = date
	f.clearSelectionLocked()
	f.state = FlowDateSelected
	f.lastErr = nil
	f.confirm = nil
	f.mu.Unlock()

	bookings, err := f.api.BookingsByDate(ctx, f.listing, date)

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return FlowSnapshot{}, ErrFlowClosed
	}
	if gen != f.generation {
		// A newer selection superseded this one.
		return f.snapshotLocked(), nil
	}
	if err != nil {
		f.lastErr = upstream("load bookings", err)
		return f.snapshotLocked(), f.lastErr
	}
	f.mergeBookingsLocked(date, bookings)
	return f.snapshotLocked(), nil
}

// SelectTimes records the guest's range and re-evaluates it. An empty End
// records only the start so end options can be offered.
func (f *RequestFlow) SelectTimes(sel TimeSelection) (FlowSnapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return FlowSnapshot{}, ErrFlowClosed
	}
	switch f.state {
	case FlowIdle:
		return FlowSnapshot{}, newValidationError("date", "select a date first")
	case FlowSubmitting:
		return FlowSnapshot{}, fmt.Errorf("%w: submission in progress", ErrConflict)
	}

	vErr := &ValidationError{}
	start, err := availability.ParseTimeOfDay(sel.Start)
	if err != nil || start == availability.EndOfDay {
		vErr.add("start_time", "start time must be HH:MM")
	}
	var end availability.TimeOfDay
	hasEnd := strings.TrimSpace(sel.End) != ""
	if hasEnd {
		if end, err = availability.ParseTimeOfDay(sel.End); err != nil {
			vErr.add("end_time", "end time must be HH:MM")
		}
	}
	if sel.Price < 0 {
		vErr.add("price", "price must not be negative")
	}
	if len(sel.Notes) > maxNotesLength {
		vErr.add("notes", fmt.Sprintf("notes must be at most %d characters", maxNotesLength))
	}
	if vErr.HasErrors() {
		return FlowSnapshot{}, vErr
	}

	f.start, f.hasStart = start, true
	f.end, f.hasEnd = end, hasEnd
	f.notes = strings.TrimSpace(sel.Notes)
	f.price = sel.Price
	f.lastErr = nil
	f.confirm = nil
	f.evaluateLocked()
	return f.snapshotLocked(), nil
}

// Submit hands a valid selection to the marketplace. On success the form is
// cleared and the date's bookings are re-fetched; on failure the form is kept.
func (f *RequestFlow) Submit(ctx context.Context, principal Principal) (FlowSnapshot, error) {
	if principal.UserID == "" {
		return FlowSnapshot{}, ErrUnauthorized
	}

	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return FlowSnapshot{}, ErrFlowClosed
	}
	if err := f.submittableLocked(); err != nil {
		f.mu.Unlock()
		return FlowSnapshot{}, err
	}
	loc := f.engine.Location()
	submission := BookingSubmission{
		UserID:  principal.UserID,
		Listing: f.listing,
		Start:   f.start.On(f.date, loc),
		End:     f.end.On(f.date, loc),
		Notes:   f.notes,
		Price:   f.price,
	}
	date := f.date
	gen := f.generation
	f.state = FlowSubmitting
	f.mu.Unlock()

	created, err := f.api.CreateBooking(ctx, submission)

	f.mu.Lock()
	if f.closed || gen != f.generation {
		f.mu.Unlock()
		return FlowSnapshot{}, ErrFlowClosed
	}
	if err != nil {
		f.state = FlowFailed
		f.lastErr = mutationFailed(err)
		snap := f.snapshotLocked()
		f.mu.Unlock()
		f.logger.Warn("booking request failed", zap.String("flow_id", f.id), zap.Error(err))
		return snap, f.lastErr
	}
	f.state = FlowConfirmed
	f.confirm = &created
	f.lastErr = nil
	f.clearSelectionLocked()
	f.mu.Unlock()

	bookings, refreshErr := f.api.BookingsByDate(ctx, f.listing, date)

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return FlowSnapshot{}, ErrFlowClosed
	}
	if gen != f.generation {
		return f.snapshotLocked(), nil
	}
	if refreshErr != nil {
		f.logger.Warn("failed to refresh bookings after submission", zap.String("flow_id", f.id), zap.Error(refreshErr))
		// Keep the confirmed booking visible to later selections.
		f.bookings = append(f.bookings, created)
	} else {
		f.mergeBookingsLocked(date, bookings)
	}
	return f.snapshotLocked(), nil
}

// Snapshot returns the current state.
func (f *RequestFlow) Snapshot() FlowSnapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snapshotLocked()
}

// Close abandons the flow. Responses for in-flight calls are ignored.
func (f *RequestFlow) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	f.generation++
}

func (f *RequestFlow) submittableLocked() error {
	switch f.state {
	case FlowSubmitting:
		return fmt.Errorf("%w: submission in progress", ErrConflict)
	case FlowTimesSelected, FlowFailed:
	default:
		return newValidationError("start_time", "select a start and end time first")
	}
	if !f.hasStart || !f.hasEnd {
		return newValidationError("end_time", "select an end time first")
	}
	// Re-evaluate in case bookings changed since the selection.
	f.evaluateLocked()
	switch f.validity {
	case SelectionValid:
		return nil
	case SelectionConflicting:
		return ErrConflict
	}
	return rangeError(f.engine.CheckRange(f.date, f.schedule, f.start, f.end, toIntervals(f.bookings)))
}

func (f *RequestFlow) evaluateLocked() {
	f.state = FlowTimesSelected
	if !f.hasEnd {
		f.validity = SelectionNone
		return
	}
	switch f.engine.CheckRange(f.date, f.schedule, f.start, f.end, toIntervals(f.bookings)) {
	case availability.RangeAvailable:
		f.validity = SelectionValid
	case availability.RangeConflicting:
		f.validity = SelectionConflicting
	default:
		f.validity = SelectionInvalid
	}
}

func (f *RequestFlow) clearSelectionLocked() {
	f.start, f.end = 0, 0
	f.hasStart, f.hasEnd = false, false
	f.notes = ""
	f.price = 0
	f.validity = SelectionNone
}

// mergeBookingsLocked replaces the bookings of date with fresh ones, keeping
// bookings on other dates.
func (f *RequestFlow) mergeBookingsLocked(date time.Time, fresh []Booking) {
	loc := f.engine.Location()
	dayStart := availability.Midnight.On(date, loc)
	dayEnd := availability.EndOfDay.On(date, loc)

	seen := make(map[string]struct{}, len(fresh))
	merged := make([]Booking, 0, len(f.bookings)+len(fresh))
	for _, b := range fresh {
		merged = append(merged, b)
		if b.ID != "" {
			seen[b.ID] = struct{}{}
		}
	}
	for _, b := range f.bookings {
		if _, dup := seen[b.ID]; dup && b.ID != "" {
			continue
		}
		if b.Start.Before(dayEnd) && dayStart.Before(b.End) {
			continue
		}
		merged = append(merged, b)
	}
	f.bookings = merged
}

func (f *RequestFlow) snapshotLocked() FlowSnapshot {
	snap := FlowSnapshot{
		ID:       f.id,
		Listing:  f.listing,
		State:    f.state,
		Validity: f.validity,
		Date:     f.date,
		Notes:    f.notes,
		Price:    f.price,
	}
	if f.lastErr != nil {
		snap.Error = f.lastErr.Error()
	}
	if f.confirm != nil {
		confirmed := *f.confirm
		snap.Confirmed = &confirmed
	}
	if f.date.IsZero() {
		return snap
	}

	intervals := toIntervals(f.bookings)
	loc := f.engine.Location()
	snap.Operational = f.engine.IsOperationalDay(f.date, f.schedule)
	snap.Bookings = bookingsOn(f.bookings, f.date, loc)
	snap.StartOptions = availability.Selectable(f.engine.StartOptions(f.date, f.schedule, intervals))
	if f.hasStart {
		snap.Start = f.start.String()
		snap.EndOptions = availability.Selectable(f.engine.EndOptions(f.date, f.schedule, f.start, intervals, f.endInterval))
	}
	if f.hasEnd {
		snap.End = f.end.String()
	}
	return snap
}
