package http

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/example/marketplace-booking/internal/application"
	"github.com/example/marketplace-booking/internal/availability"
)

type availabilityService interface {
	DayAvailability(ctx context.Context, listing application.ListingRef, date time.Time) (application.DayAvailability, error)
	EndOptions(ctx context.Context, listing application.ListingRef, date time.Time, start string) ([]availability.TimeSlot, error)
	CheckRange(ctx context.Context, listing application.ListingRef, date time.Time, start, end string) (availability.RangeStatus, error)
	OperatingDays(ctx context.Context, listing application.ListingRef, from, to time.Time) ([]time.Time, error)
}

// AvailabilityHandler answers calendar and slot questions for a listing.
type AvailabilityHandler struct {
	service   availabilityService
	location  *time.Location
	responder responder
	logger    *zap.Logger
}

func NewAvailabilityHandler(service availabilityService, loc *time.Location, logger *zap.Logger) *AvailabilityHandler {
	base := defaultLogger(logger)
	if loc == nil {
		loc = time.UTC
	}
	return &AvailabilityHandler{service: service, location: loc, responder: newResponder(base), logger: base}
}

func (h *AvailabilityHandler) log(ctx context.Context, operation string, fields ...zap.Field) *zap.Logger {
	return handlerLogger(ctx, h.logger, "AvailabilityHandler", operation, fields...)
}

// Calendar serves GET /listings/:type/:id/calendar?date=YYYY-MM-DD.
func (h *AvailabilityHandler) Calendar(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	listing := listingFromPath(r)
	date, ok := parseDate(r.URL.Query().Get("date"), h.location)
	if !ok {
		h.responder.writeInvalid(r.Context(), w, map[string]string{"date": "date must be YYYY-MM-DD"})
		return
	}

	logger := h.log(r.Context(), "Calendar", zap.String("listing_id", listing.ID), zap.String("date", formatDate(date)))
	day, err := h.service.DayAvailability(r.Context(), listing, date)
	if err != nil {
		logger.Warn("calendar lookup failed", zap.Error(err), zap.String("error_kind", application.ErrorKind(err)))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, calendarResponse{
		Listing:      toListingDTO(day.Listing),
		Date:         formatDate(day.Date),
		Operational:  day.Operational,
		Schedule:     toScheduleDTO(day.Schedule),
		Events:       toBookingDTOs(day.Bookings, h.location),
		StartOptions: toSlotDTOs(day.StartOptions),
	})
}

// EndOptions serves GET /listings/:type/:id/end-options?date=&start=.
func (h *AvailabilityHandler) EndOptions(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	listing := listingFromPath(r)
	query := r.URL.Query()
	date, ok := parseDate(query.Get("date"), h.location)
	if !ok {
		h.responder.writeInvalid(r.Context(), w, map[string]string{"date": "date must be YYYY-MM-DD"})
		return
	}
	start := query.Get("start")

	options, err := h.service.EndOptions(r.Context(), listing, date, start)
	if err != nil {
		h.log(r.Context(), "EndOptions", zap.String("listing_id", listing.ID)).
			Warn("end option lookup failed", zap.Error(err), zap.String("error_kind", application.ErrorKind(err)))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, endOptionsResponse{
		Date:       formatDate(date),
		Start:      start,
		EndOptions: toSlotDTOs(availability.Selectable(options)),
	})
}

// Check serves POST /listings/:type/:id/availability.
func (h *AvailabilityHandler) Check(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	listing := listingFromPath(r)
	var req rangeRequest
	fields, err := decodeBody(r, &req)
	if err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, err)
		return
	}
	if fields != nil {
		h.responder.writeInvalid(r.Context(), w, fields)
		return
	}
	date, _ := parseDate(req.Date, h.location)

	status, err := h.service.CheckRange(r.Context(), listing, date, req.Start, req.End)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, rangeResponse{
		Status:    string(status),
		Available: status == availability.RangeAvailable,
	})
}

// OperatingDays serves GET /listings/:type/:id/operating-days?from=&to=.
func (h *AvailabilityHandler) OperatingDays(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	listing := listingFromPath(r)
	query := r.URL.Query()
	fields := map[string]string{}
	from, ok := parseDate(query.Get("from"), h.location)
	if !ok {
		fields["from"] = "from must be YYYY-MM-DD"
	}
	to, ok := parseDate(query.Get("to"), h.location)
	if !ok {
		fields["to"] = "to must be YYYY-MM-DD"
	}
	if len(fields) > 0 {
		h.responder.writeInvalid(r.Context(), w, fields)
		return
	}

	dates, err := h.service.OperatingDays(r.Context(), listing, from, to)
	if err != nil {
		h.log(r.Context(), "OperatingDays", zap.String("listing_id", listing.ID)).
			Warn("operating day lookup failed", zap.Error(err), zap.String("error_kind", application.ErrorKind(err)))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	out := make([]string, 0, len(dates))
	for _, d := range dates {
		out = append(out, formatDate(d))
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, operatingDaysResponse{
		Listing: toListingDTO(listing),
		From:    formatDate(from),
		To:      formatDate(to),
		Dates:   out,
	})
}

type calendarResponse struct {
	Listing      listingDTO   `json:"listing"`
	Date         string       `json:"date"`
	Operational  bool         `json:"operational"`
	Schedule     scheduleDTO  `json:"schedule"`
	Events       []bookingDTO `json:"events"`
	StartOptions []slotDTO    `json:"startOptions"`
}

type endOptionsResponse struct {
	Date       string    `json:"date"`
	Start      string    `json:"start"`
	EndOptions []slotDTO `json:"endOptions"`
}

type rangeRequest struct {
	Date  string `json:"date" validate:"required,datetime=2006-01-02"`
	Start string `json:"start" validate:"required"`
	End   string `json:"end" validate:"required"`
}

type rangeResponse struct {
	Status    string `json:"status"`
	Available bool   `json:"available"`
}

type operatingDaysResponse struct {
	Listing listingDTO `json:"listing"`
	From    string     `json:"from"`
	To      string     `json:"to"`
	Dates   []string   `json:"dates"`
}
