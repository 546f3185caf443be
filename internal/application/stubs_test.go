package application

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/example/marketplace-booking/internal/availability"
)

var (
	wednesday = time.Date(2024, time.March, 13, 0, 0, 0, 0, time.UTC)
	saturday  = time.Date(2024, time.March, 16, 0, 0, 0, 0, time.UTC)
	venue     = ListingRef{Type: ListingVenue, ID: "v-1"}
	guest     = Principal{UserID: "u-1", Token: "tok"}
)

func at(date time.Time, hhmm string) time.Time {
	return availability.MustParseTimeOfDay(hhmm).On(date, time.UTC)
}

func weekdaySchedule() availability.OperatingSchedule {
	return availability.OperatingSchedule{
		Days:  []time.Weekday{time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday},
		Hours: availability.OperatingHours{Open: availability.MustParseTimeOfDay("09:00"), Close: availability.MustParseTimeOfDay("17:00")},
	}
}

type bookingAPIStub struct {
	mu sync.Mutex

	calendar    Calendar
	calendarErr error
	byDate      []Booking
	byDateErr   error
	createErr   error
	updateErr   error
	deleteErr   error

	created []BookingSubmission
	updated map[string]BookingSubmission
	deleted []string
	calls   map[string]int

	// beforeCreate runs before CreateBooking returns, outside the stub lock.
	beforeCreate func()
	// beforeByDate runs before BookingsByDate returns, outside the stub lock.
	beforeByDate func()
}

func newBookingAPIStub(bookings ...Booking) *bookingAPIStub {
	return &bookingAPIStub{
		calendar: Calendar{Schedule: weekdaySchedule(), Bookings: bookings},
		byDate:   bookings,
		updated:  make(map[string]BookingSubmission),
		calls:    make(map[string]int),
	}
}

func (s *bookingAPIStub) count(op string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[op]
}

func (s *bookingAPIStub) Calendar(ctx context.Context, listing ListingRef) (Calendar, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls["calendar"]++
	if s.calendarErr != nil {
		return Calendar{}, s.calendarErr
	}
	cal := s.calendar
	cal.Bookings = slices.Clone(cal.Bookings)
	return cal, nil
}

func (s *bookingAPIStub) BookingsByDate(ctx context.Context, listing ListingRef, date time.Time) ([]Booking, error) {
	s.mu.Lock()
	s.calls["by_date"]++
	hook := s.beforeByDate
	out, err := slices.Clone(s.byDate), s.byDateErr
	s.mu.Unlock()
	if hook != nil {
		hook()
	}
	return out, err
}

func (s *bookingAPIStub) CreateBooking(ctx context.Context, submission BookingSubmission) (Booking, error) {
	s.mu.Lock()
	s.calls["create"]++
	hook := s.beforeCreate
	err := s.createErr
	s.mu.Unlock()
	if hook != nil {
		hook()
	}
	if err != nil {
		return Booking{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.created = append(s.created, submission)
	booking := Booking{ID: "new", Start: submission.Start, End: submission.End}
	s.byDate = append(s.byDate, booking)
	return booking, nil
}

func (s *bookingAPIStub) UpdateBooking(ctx context.Context, id string, submission BookingSubmission) (Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls["update"]++
	if s.updateErr != nil {
		return Booking{}, s.updateErr
	}
	s.updated[id] = submission
	return Booking{ID: id, Start: submission.Start, End: submission.End}, nil
}

func (s *bookingAPIStub) DeleteBooking(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls["delete"]++
	if s.deleteErr != nil {
		return s.deleteErr
	}
	s.deleted = append(s.deleted, id)
	return nil
}
