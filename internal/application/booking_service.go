package application

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/example/marketplace-booking/internal/availability"
)

// BookingAPI captures the marketplace interactions needed by the booking services.
type BookingAPI interface {
	Calendar(ctx context.Context, listing ListingRef) (Calendar, error)
	BookingsByDate(ctx context.Context, listing ListingRef, date time.Time) ([]Booking, error)
	CreateBooking(ctx context.Context, submission BookingSubmission) (Booking, error)
	UpdateBooking(ctx context.Context, id string, submission BookingSubmission) (Booking, error)
	DeleteBooking(ctx context.Context, id string) error
}

const maxNotesLength = 1000

// BookingService answers availability questions and manages a listing's
// bookings. Every mutation is validated locally, submitted, and followed by a
// re-fetch of the affected date.
type BookingService struct {
	api         BookingAPI
	engine      *availability.Engine
	endInterval int
	logger      *zap.Logger
}

// NewBookingService wires dependencies for booking operations.
func NewBookingService(api BookingAPI, engine *availability.Engine, endInterval int) *BookingService {
	return NewBookingServiceWithLogger(api, engine, endInterval, nil)
}

// NewBookingServiceWithLogger wires dependencies for booking operations with a specified logger.
func NewBookingServiceWithLogger(api BookingAPI, engine *availability.Engine, endInterval int, logger *zap.Logger) *BookingService {
	if engine == nil {
		engine = availability.NewEngine(nil)
	}
	return &BookingService{api: api, engine: engine, endInterval: endInterval, logger: defaultLogger(logger)}
}

func (s *BookingService) loggerWith(ctx context.Context, operation string, fields ...zap.Field) *zap.Logger {
	return serviceLogger(ctx, s.logger, "BookingService", operation, fields...)
}

// Engine exposes the availability engine used by the service.
func (s *BookingService) Engine() *availability.Engine {
	return s.engine
}

// DayAvailability loads the listing calendar and evaluates date.
func (s *BookingService) DayAvailability(ctx context.Context, listing ListingRef, date time.Time) (DayAvailability, error) {
	if err := validateListingDate(listing, date); err != nil {
		return DayAvailability{}, err
	}
	cal, err := s.calendar(ctx, listing)
	if err != nil {
		return DayAvailability{}, err
	}
	return s.evaluate(listing, date, cal), nil
}

// EndOptions lists the end times selectable after start on date.
func (s *BookingService) EndOptions(ctx context.Context, listing ListingRef, date time.Time, start string) ([]availability.TimeSlot, error) {
	if err := validateListingDate(listing, date); err != nil {
		return nil, err
	}
	startTime, err := availability.ParseTimeOfDay(start)
	if err != nil {
		return nil, newValidationError("start_time", "start time must be HH:MM")
	}
	cal, err := s.calendar(ctx, listing)
	if err != nil {
		return nil, err
	}
	return s.engine.EndOptions(date, cal.Schedule, startTime, toIntervals(cal.Bookings), s.endInterval), nil
}

// OperatingDays lists the dates in [from, to] on which the listing opens.
func (s *BookingService) OperatingDays(ctx context.Context, listing ListingRef, from, to time.Time) ([]time.Time, error) {
	vErr := &ValidationError{}
	listing.validate(vErr)
	switch {
	case from.IsZero():
		vErr.add("from", "from is required")
	case to.IsZero():
		vErr.add("to", "to is required")
	case to.Before(from):
		vErr.add("to", "to must not be before from")
	case availability.DaysBetween(from, to) >= availability.MaxRangeDays:
		vErr.add("to", fmt.Sprintf("range must span fewer than %d days", availability.MaxRangeDays))
	}
	if vErr.HasErrors() {
		return nil, vErr
	}

	cal, err := s.calendar(ctx, listing)
	if err != nil {
		return nil, err
	}
	dates, err := s.engine.OperatingDates(cal.Schedule, from, to)
	if err != nil {
		return nil, newValidationError("to", err.Error())
	}
	return slices.Collect(dates), nil
}

// CheckRange classifies [start, end) on date.
func (s *BookingService) CheckRange(ctx context.Context, listing ListingRef, date time.Time, start, end string) (availability.RangeStatus, error) {
	draft := BookingDraft{Listing: listing, Date: date, Start: start, End: end}
	startTime, endTime, vErr := parseDraft(draft)
	if vErr.HasErrors() {
		return "", vErr
	}
	cal, err := s.calendar(ctx, listing)
	if err != nil {
		return "", err
	}
	return s.engine.CheckRange(date, cal.Schedule, startTime, endTime, toIntervals(cal.Bookings)), nil
}

// EventsForDate lists the bookings of a listing on date.
func (s *BookingService) EventsForDate(ctx context.Context, listing ListingRef, date time.Time) ([]Booking, error) {
	if err := validateListingDate(listing, date); err != nil {
		return nil, err
	}
	return s.refresh(ctx, listing, date)
}

// CreateBooking validates and submits a new booking, then returns the refreshed bookings of its date.
func (s *BookingService) CreateBooking(ctx context.Context, params CreateBookingParams) (bookings []Booking, err error) {
	if s == nil {
		return nil, fmt.Errorf("BookingService is nil")
	}
	logger := s.loggerWith(ctx, "CreateBooking",
		zap.String("principal_id", params.Principal.UserID),
		zap.String("listing_id", params.Draft.Listing.ID),
	)
	defer func() {
		logResult(logger, err, "failed to create booking", "booking created", zap.Int("bookings", len(bookings)))
	}()

	if params.Principal.UserID == "" {
		return nil, ErrUnauthorized
	}

	submission, err := s.prepare(ctx, params.Principal, params.Draft, "")
	if err != nil {
		return nil, err
	}
	if _, err = s.api.CreateBooking(ctx, submission); err != nil {
		return nil, mutationFailed(err)
	}
	return s.refresh(ctx, params.Draft.Listing, params.Draft.Date)
}

// UpdateBooking validates and submits changes to an existing booking. The
// booking being edited is excluded from conflict detection.
func (s *BookingService) UpdateBooking(ctx context.Context, params UpdateBookingParams) (bookings []Booking, err error) {
	if s == nil {
		return nil, fmt.Errorf("BookingService is nil")
	}
	logger := s.loggerWith(ctx, "UpdateBooking",
		zap.String("principal_id", params.Principal.UserID),
		zap.String("booking_id", params.BookingID),
	)
	defer func() {
		logResult(logger, err, "failed to update booking", "booking updated", zap.Int("bookings", len(bookings)))
	}()

	if params.Principal.UserID == "" {
		return nil, ErrUnauthorized
	}
	if strings.TrimSpace(params.BookingID) == "" {
		return nil, newValidationError("id", "booking id is required")
	}

	submission, err := s.prepare(ctx, params.Principal, params.Draft, params.BookingID)
	if err != nil {
		return nil, err
	}
	if _, err = s.api.UpdateBooking(ctx, params.BookingID, submission); err != nil {
		return nil, mutationFailed(err)
	}
	return s.refresh(ctx, params.Draft.Listing, params.Draft.Date)
}

// DeleteBooking removes a booking and returns the refreshed bookings of its date.
func (s *BookingService) DeleteBooking(ctx context.Context, params DeleteBookingParams) (bookings []Booking, err error) {
	if s == nil {
		return nil, fmt.Errorf("BookingService is nil")
	}
	logger := s.loggerWith(ctx, "DeleteBooking",
		zap.String("principal_id", params.Principal.UserID),
		zap.String("booking_id", params.BookingID),
	)
	defer func() {
		logResult(logger, err, "failed to delete booking", "booking deleted", zap.Int("bookings", len(bookings)))
	}()

	if params.Principal.UserID == "" {
		return nil, ErrUnauthorized
	}
	vErr := &ValidationError{}
	if strings.TrimSpace(params.BookingID) == "" {
		vErr.add("id", "booking id is required")
	}
	if err := validateListingDate(params.Listing, params.Date); err != nil {
		var inner *ValidationError
		if errors.As(err, &inner) {
			vErr.merge(inner)
		}
	}
	if vErr.HasErrors() {
		return nil, vErr
	}

	if err = s.api.DeleteBooking(ctx, params.BookingID); err != nil {
		return nil, mutationFailed(err)
	}
	return s.refresh(ctx, params.Listing, params.Date)
}

// prepare validates draft against the listing calendar and builds the submission.
func (s *BookingService) prepare(ctx context.Context, principal Principal, draft BookingDraft, excludeID string) (BookingSubmission, error) {
	start, end, vErr := parseDraft(draft)
	if vErr.HasErrors() {
		return BookingSubmission{}, vErr
	}

	cal, err := s.calendar(ctx, draft.Listing)
	if err != nil {
		return BookingSubmission{}, err
	}

	bookings := toIntervals(withoutBooking(cal.Bookings, excludeID))
	if err := rangeError(s.engine.CheckRange(draft.Date, cal.Schedule, start, end, bookings)); err != nil {
		return BookingSubmission{}, err
	}

	loc := s.engine.Location()
	return BookingSubmission{
		UserID:  principal.UserID,
		Listing: draft.Listing,
		Start:   start.On(draft.Date, loc),
		End:     end.On(draft.Date, loc),
		Notes:   strings.TrimSpace(draft.Notes),
		Price:   draft.Price,
	}, nil
}

func (s *BookingService) calendar(ctx context.Context, listing ListingRef) (Calendar, error) {
	if s.api == nil {
		return Calendar{}, fmt.Errorf("booking api not configured")
	}
	cal, err := s.api.Calendar(ctx, listing)
	if err != nil {
		return Calendar{}, upstream("load calendar", err)
	}
	return cal, nil
}

func (s *BookingService) refresh(ctx context.Context, listing ListingRef, date time.Time) ([]Booking, error) {
	if s.api == nil {
		return nil, fmt.Errorf("booking api not configured")
	}
	bookings, err := s.api.BookingsByDate(ctx, listing, date)
	if err != nil {
		return nil, upstream("load bookings", err)
	}
	return bookings, nil
}

func (s *BookingService) evaluate(listing ListingRef, date time.Time, cal Calendar) DayAvailability {
	intervals := toIntervals(cal.Bookings)
	return DayAvailability{
		Listing:      listing,
		Date:         date,
		Schedule:     cal.Schedule,
		Operational:  s.engine.IsOperationalDay(date, cal.Schedule),
		Bookings:     bookingsOn(cal.Bookings, date, s.engine.Location()),
		StartOptions: s.engine.StartOptions(date, cal.Schedule, intervals),
	}
}

// bookingsOn keeps bookings overlapping the calendar day of date.
func bookingsOn(bookings []Booking, date time.Time, loc *time.Location) []Booking {
	dayStart := availability.Midnight.On(date, loc)
	dayEnd := availability.EndOfDay.On(date, loc)
	var out []Booking
	for _, b := range bookings {
		if b.Start.Before(dayEnd) && dayStart.Before(b.End) {
			out = append(out, b)
		}
	}
	return out
}

func parseDraft(draft BookingDraft) (availability.TimeOfDay, availability.TimeOfDay, *ValidationError) {
	vErr := &ValidationError{}
	draft.Listing.validate(vErr)
	if draft.Date.IsZero() {
		vErr.add("date", "date is required")
	}

	start, startErr := availability.ParseTimeOfDay(draft.Start)
	if startErr != nil || start == availability.EndOfDay {
		vErr.add("start_time", "start time must be HH:MM")
	}
	end, endErr := availability.ParseTimeOfDay(draft.End)
	if endErr != nil {
		vErr.add("end_time", "end time must be HH:MM")
	}
	if startErr == nil && endErr == nil && !availability.IsRangeValid(start, end) {
		vErr.add("end_time", "end time must be after start time")
	}

	if draft.Price < 0 {
		vErr.add("price", "price must not be negative")
	}
	if len(draft.Notes) > maxNotesLength {
		vErr.add("notes", fmt.Sprintf("notes must be at most %d characters", maxNotesLength))
	}
	return start, end, vErr
}

func validateListingDate(listing ListingRef, date time.Time) error {
	vErr := &ValidationError{}
	listing.validate(vErr)
	if date.IsZero() {
		vErr.add("date", "date is required")
	}
	if vErr.HasErrors() {
		return vErr
	}
	return nil
}

func rangeError(status availability.RangeStatus) error {
	switch status {
	case availability.RangeAvailable:
		return nil
	case availability.RangeInvalid:
		return newValidationError("end_time", "end time must be after start time")
	case availability.RangeClosedDay:
		return ErrClosedDay
	case availability.RangeOutsideHours:
		return newValidationError("start_time", "requested time is outside operating hours")
	case availability.RangeConflicting:
		return ErrConflict
	}
	return fmt.Errorf("unknown range status %q", status)
}

func mutationFailed(err error) error {
	if errors.Is(err, ErrNotFound) {
		return err
	}
	return submissionFailed(err)
}
