package marketplace

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// ListingType identifies which kind of listing a booking targets.
type ListingType string

const (
	ListingVenue   ListingType = "venue"
	ListingService ListingType = "service"
)

// ParseListingType accepts "venue" or "service" in any case.
func ParseListingType(value string) (ListingType, error) {
	switch ListingType(strings.ToLower(strings.TrimSpace(value))) {
	case ListingVenue:
		return ListingVenue, nil
	case ListingService:
		return ListingService, nil
	}
	return "", fmt.Errorf("marketplace: unknown listing type %q", value)
}

// OperationHours is the listing's daily opening window as HH:MM strings.
type OperationHours struct {
	Open  string `json:"open"`
	Close string `json:"close"`
}

// Event is an existing booking as reported by the marketplace.
type Event struct {
	ID    string    `json:"id"`
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
	Title string    `json:"title,omitempty"`
}

// Calendar is the schedule and existing bookings of one listing.
type Calendar struct {
	OperationDays  []string       `json:"operationDays"`
	OperationHours OperationHours `json:"operationHours"`
	Events         []Event        `json:"events"`
}

// BookingPayload is the body of create and update requests.
type BookingPayload struct {
	UserID    string
	Type      ListingType
	ListingID string
	StartTime time.Time
	EndTime   time.Time
	Notes     string
	Price     float64
}

// MarshalJSON writes the listing ID as venueId or serviceId depending on Type.
func (p BookingPayload) MarshalJSON() ([]byte, error) {
	body := map[string]any{
		"userId":    p.UserID,
		"type":      p.Type,
		"startTime": p.StartTime.Format(time.RFC3339),
		"endTime":   p.EndTime.Format(time.RFC3339),
		"notes":     p.Notes,
		"price":     p.Price,
	}
	switch p.Type {
	case ListingVenue:
		body["venueId"] = p.ListingID
	case ListingService:
		body["serviceId"] = p.ListingID
	default:
		return nil, fmt.Errorf("marketplace: unknown listing type %q", p.Type)
	}
	return json.Marshal(body)
}

// APIError is returned for non-2xx responses.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("marketplace api returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("marketplace api returned status %d: %s", e.StatusCode, e.Message)
}
