package application

import (
	"strings"
	"time"

	"github.com/example/marketplace-booking/internal/availability"
)

// Principal represents the signed-in user invoking a service method.
type Principal struct {
	UserID string
	Token  string
}

// ListingType distinguishes venues from services.
type ListingType string

const (
	ListingVenue   ListingType = "venue"
	ListingService ListingType = "service"
)

// Valid reports whether the listing type is known.
func (t ListingType) Valid() bool {
	return t == ListingVenue || t == ListingService
}

// ListingRef identifies a bookable listing.
type ListingRef struct {
	Type ListingType
	ID   string
}

func (l ListingRef) validate(v *ValidationError) {
	if !l.Type.Valid() {
		v.add("type", "type must be venue or service")
	}
	if strings.TrimSpace(l.ID) == "" {
		v.add("id", "listing id is required")
	}
}

// Booking is an existing reservation on a listing.
type Booking struct {
	ID    string
	Title string
	Start time.Time
	End   time.Time
}

// Calendar is a listing's operating schedule plus its known bookings.
type Calendar struct {
	Schedule availability.OperatingSchedule
	Bookings []Booking
}

// BookingSubmission is handed to the marketplace when creating or updating a booking.
type BookingSubmission struct {
	UserID  string
	Listing ListingRef
	Start   time.Time
	End     time.Time
	Notes   string
	Price   float64
}

// BookingDraft captures caller provided booking fields. Times are HH:MM on Date.
type BookingDraft struct {
	Listing ListingRef
	Date    time.Time
	Start   string
	End     string
	Notes   string
	Price   float64
}

// CreateBookingParams wraps the data required to create a booking.
type CreateBookingParams struct {
	Principal Principal
	Draft     BookingDraft
}

// UpdateBookingParams wraps the data required to update an existing booking.
type UpdateBookingParams struct {
	Principal Principal
	BookingID string
	Draft     BookingDraft
}

// DeleteBookingParams identifies a booking to delete and the date to refresh.
type DeleteBookingParams struct {
	Principal Principal
	BookingID string
	Listing   ListingRef
	Date      time.Time
}

// DayAvailability is the evaluated state of one listing on one date.
type DayAvailability struct {
	Listing      ListingRef
	Date         time.Time
	Schedule     availability.OperatingSchedule
	Operational  bool
	Bookings     []Booking
	StartOptions []availability.TimeSlot
}

// Session is the signed-in user's profile blob.
type Session struct {
	UserID    string    `json:"id"`
	Name      string    `json:"name,omitempty"`
	Email     string    `json:"email,omitempty"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt,omitzero"`
}

// Principal returns the acting principal for the session.
func (s Session) Principal() Principal {
	return Principal{UserID: s.UserID, Token: s.Token}
}

// CartItem is one line of the shopping cart.
type CartItem struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Quantity int     `json:"quantity"`
	Category string  `json:"category,omitempty"`
}

// CartSummary aggregates the cart contents.
type CartSummary struct {
	Items     []CartItem
	ItemCount int
	Subtotal  float64
}

// CheckoutLine is a single line item handed to the payment gateway.
type CheckoutLine struct {
	Name       string
	UnitAmount int64
	Quantity   int64
}

// CheckoutRequest is handed to the payment gateway.
type CheckoutRequest struct {
	CustomerID string
	Currency   string
	Lines      []CheckoutLine
}

// CheckoutResult is the external redirect the caller should follow.
type CheckoutResult struct {
	SessionID string
	URL       string
}

func toIntervals(bookings []Booking) []availability.BookingInterval {
	if len(bookings) == 0 {
		return nil
	}
	out := make([]availability.BookingInterval, 0, len(bookings))
	for _, b := range bookings {
		out = append(out, availability.BookingInterval{ID: b.ID, Title: b.Title, Start: b.Start, End: b.End})
	}
	return out
}

func withoutBooking(bookings []Booking, id string) []Booking {
	if id == "" {
		return bookings
	}
	out := make([]Booking, 0, len(bookings))
	for _, b := range bookings {
		if b.ID != id {
			out = append(out, b)
		}
	}
	return out
}

func cloneBookings(bookings []Booking) []Booking {
	if len(bookings) == 0 {
		return nil
	}
	out := make([]Booking, len(bookings))
	copy(out, bookings)
	return out
}
