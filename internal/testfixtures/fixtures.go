package testfixtures

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/example/marketplace-booking/internal/application"
	"github.com/example/marketplace-booking/internal/availability"
)

// referenceTime is a Wednesday.
var referenceTime = time.Date(2024, time.March, 13, 8, 0, 0, 0, time.UTC)

// ReferenceTime returns the canonical baseline timestamp used by fixtures.
func ReferenceTime() time.Time {
	return referenceTime
}

// Date returns midnight UTC of the given calendar date.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// At returns the instant hhmm on the calendar date of date, in date's location.
func At(date time.Time, hhmm string) time.Time {
	return availability.MustParseTimeOfDay(hhmm).On(date, date.Location())
}

// Schedule builds an operating schedule, panicking on malformed times.
func Schedule(days []time.Weekday, open, close string) availability.OperatingSchedule {
	return availability.OperatingSchedule{
		Days: slices.Clone(days),
		Hours: availability.OperatingHours{
			Open:  availability.MustParseTimeOfDay(open),
			Close: availability.MustParseTimeOfDay(close),
		},
	}
}

// WeekdaySchedule is open Monday to Friday, 09:00-17:00.
func WeekdaySchedule() availability.OperatingSchedule {
	return Schedule([]time.Weekday{time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday}, "09:00", "17:00")
}

// NewBooking builds a booking on date between two HH:MM times.
func NewBooking(id string, date time.Time, start, end string) application.Booking {
	return application.Booking{ID: id, Title: "Booking " + id, Start: At(date, start), End: At(date, end)}
}

// Venue returns a venue listing reference.
func Venue(id string) application.ListingRef {
	return application.ListingRef{Type: application.ListingVenue, ID: id}
}

// Marketplace operation names accepted by FakeMarketplace.Fail and CallCount.
const (
	OpCalendar       = "calendar"
	OpBookingsByDate = "bookings_by_date"
	OpCreate         = "create"
	OpUpdate         = "update"
	OpDelete         = "delete"
)

// FakeMarketplace is an in-memory application.BookingAPI.
type FakeMarketplace struct {
	mu          sync.Mutex
	schedule    availability.OperatingSchedule
	bookings    []application.Booking
	submissions []application.BookingSubmission
	calls       map[string]int
	failures    map[string]error
	ids         *IDGenerator
	hooks       map[string]func()
}

// NewFakeMarketplace returns a marketplace serving schedule and bookings for every listing.
func NewFakeMarketplace(schedule availability.OperatingSchedule, bookings ...application.Booking) *FakeMarketplace {
	return &FakeMarketplace{
		schedule: schedule,
		bookings: slices.Clone(bookings),
		calls:    make(map[string]int),
		failures: make(map[string]error),
		ids:      NewIDGenerator("booking"),
		hooks:    make(map[string]func()),
	}
}

// Fail makes every later call to op return err. A nil err clears the failure.
func (m *FakeMarketplace) Fail(op string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		delete(m.failures, op)
		return
	}
	m.failures[op] = err
}

// OnCall runs hook, without holding the fake's lock, before op is served.
func (m *FakeMarketplace) OnCall(op string, hook func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hooks[op] = hook
}

// CallCount reports how many times op was invoked.
func (m *FakeMarketplace) CallCount(op string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[op]
}

// Submissions returns the create and update payloads received so far.
func (m *FakeMarketplace) Submissions() []application.BookingSubmission {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.submissions)
}

// Bookings returns the current bookings.
func (m *FakeMarketplace) Bookings() []application.Booking {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.bookings)
}

// Calendar implements application.BookingAPI.
func (m *FakeMarketplace) Calendar(_ context.Context, _ application.ListingRef) (application.Calendar, error) {
	if err := m.begin(OpCalendar); err != nil {
		return application.Calendar{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return application.Calendar{Schedule: m.schedule, Bookings: slices.Clone(m.bookings)}, nil
}

// BookingsByDate implements application.BookingAPI.
func (m *FakeMarketplace) BookingsByDate(_ context.Context, _ application.ListingRef, date time.Time) ([]application.Booking, error) {
	if err := m.begin(OpBookingsByDate); err != nil {
		return nil, err
	}
	dayStart := availability.Midnight.On(date, date.Location())
	dayEnd := availability.EndOfDay.On(date, date.Location())

	m.mu.Lock()
	defer m.mu.Unlock()
	var out []application.Booking
	for _, b := range m.bookings {
		if b.Start.Before(dayEnd) && dayStart.Before(b.End) {
			out = append(out, b)
		}
	}
	return out, nil
}

// CreateBooking implements application.BookingAPI.
func (m *FakeMarketplace) CreateBooking(_ context.Context, sub application.BookingSubmission) (application.Booking, error) {
	if err := m.begin(OpCreate); err != nil {
		return application.Booking{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.submissions = append(m.submissions, sub)
	booking := application.Booking{ID: m.ids.Next(), Title: sub.Notes, Start: sub.Start, End: sub.End}
	m.bookings = append(m.bookings, booking)
	return booking, nil
}

// UpdateBooking implements application.BookingAPI.
func (m *FakeMarketplace) UpdateBooking(_ context.Context, id string, sub application.BookingSubmission) (application.Booking, error) {
	if err := m.begin(OpUpdate); err != nil {
		return application.Booking{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	idx := slices.IndexFunc(m.bookings, func(b application.Booking) bool { return b.ID == id })
	if idx < 0 {
		return application.Booking{}, application.ErrNotFound
	}
	m.submissions = append(m.submissions, sub)
	m.bookings[idx].Start, m.bookings[idx].End = sub.Start, sub.End
	return m.bookings[idx], nil
}

// DeleteBooking implements application.BookingAPI.
func (m *FakeMarketplace) DeleteBooking(_ context.Context, id string) error {
	if err := m.begin(OpDelete); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	before := len(m.bookings)
	m.bookings = slices.DeleteFunc(m.bookings, func(b application.Booking) bool { return b.ID == id })
	if len(m.bookings) == before {
		return application.ErrNotFound
	}
	return nil
}

func (m *FakeMarketplace) begin(op string) error {
	m.mu.Lock()
	m.calls[op]++
	hook := m.hooks[op]
	err := m.failures[op]
	m.mu.Unlock()

	if hook != nil {
		hook()
	}
	if err != nil {
		return fmt.Errorf("fake marketplace %s: %w", op, err)
	}
	return nil
}

// ErrMarketplaceDown is a convenience failure for FakeMarketplace.Fail.
var ErrMarketplaceDown = errors.New("marketplace unavailable")
