package http

import (
	"time"

	"github.com/example/marketplace-booking/internal/application"
	"github.com/example/marketplace-booking/internal/availability"
)

type listingDTO struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

func toListingDTO(l application.ListingRef) listingDTO {
	return listingDTO{Type: string(l.Type), ID: l.ID}
}

type slotDTO struct {
	Value     string `json:"value"`
	Label     string `json:"label"`
	Available bool   `json:"available"`
}

func toSlotDTOs(slots []availability.TimeSlot) []slotDTO {
	out := make([]slotDTO, 0, len(slots))
	for _, slot := range slots {
		out = append(out, slotDTO{Value: slot.Value, Label: slot.Label, Available: slot.Available})
	}
	return out
}

type bookingDTO struct {
	ID    string `json:"id"`
	Title string `json:"title,omitempty"`
	Start string `json:"start"`
	End   string `json:"end"`
}

func toBookingDTO(b application.Booking, loc *time.Location) bookingDTO {
	return bookingDTO{
		ID:    b.ID,
		Title: b.Title,
		Start: b.Start.In(loc).Format(time.RFC3339),
		End:   b.End.In(loc).Format(time.RFC3339),
	}
}

func toBookingDTOs(bookings []application.Booking, loc *time.Location) []bookingDTO {
	out := make([]bookingDTO, 0, len(bookings))
	for _, b := range bookings {
		out = append(out, toBookingDTO(b, loc))
	}
	return out
}

type scheduleDTO struct {
	Days  []string `json:"operationDays"`
	Open  string   `json:"open"`
	Close string   `json:"close"`
}

func toScheduleDTO(s availability.OperatingSchedule) scheduleDTO {
	days := make([]string, 0, len(s.Days))
	for _, d := range s.Days {
		days = append(days, d.String())
	}
	return scheduleDTO{Days: days, Open: s.Hours.Open.String(), Close: s.Hours.Close.String()}
}

type bookingsResponse struct {
	Bookings []bookingDTO `json:"bookings"`
}

func formatDate(d time.Time) string {
	if d.IsZero() {
		return ""
	}
	return d.Format(dateLayout)
}
