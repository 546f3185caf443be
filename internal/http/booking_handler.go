package http

import (
	"context"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/example/marketplace-booking/internal/application"
)

type bookingService interface {
	EventsForDate(ctx context.Context, listing application.ListingRef, date time.Time) ([]application.Booking, error)
	CreateBooking(ctx context.Context, params application.CreateBookingParams) ([]application.Booking, error)
	UpdateBooking(ctx context.Context, params application.UpdateBookingParams) ([]application.Booking, error)
	DeleteBooking(ctx context.Context, params application.DeleteBookingParams) ([]application.Booking, error)
}

// BookingHandler exposes owner booking management. Every mutation responds
// with the refreshed bookings of the affected date.
type BookingHandler struct {
	service   bookingService
	location  *time.Location
	responder responder
	logger    *zap.Logger
}

func NewBookingHandler(service bookingService, loc *time.Location, logger *zap.Logger) *BookingHandler {
	base := defaultLogger(logger)
	if loc == nil {
		loc = time.UTC
	}
	return &BookingHandler{service: service, location: loc, responder: newResponder(base), logger: base}
}

func (h *BookingHandler) log(ctx context.Context, operation string, fields ...zap.Field) *zap.Logger {
	return handlerLogger(ctx, h.logger, "BookingHandler", operation, fields...)
}

// List serves GET /bookings?date=&postId=&type=.
func (h *BookingHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	listing, date, fields := h.listingDateFromQuery(r)
	if fields != nil {
		h.responder.writeInvalid(r.Context(), w, fields)
		return
	}

	bookings, err := h.service.EventsForDate(r.Context(), listing, date)
	if err != nil {
		h.log(r.Context(), "List", zap.String("listing_id", listing.ID)).
			Warn("booking list failed", zap.Error(err), zap.String("error_kind", application.ErrorKind(err)))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, bookingsResponse{Bookings: toBookingDTOs(bookings, h.location)})
}

// Create serves POST /bookings.
func (h *BookingHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	draft, ok := h.decodeDraft(w, r)
	if !ok {
		return
	}

	logger := h.log(r.Context(), "Create", zap.String("principal_id", principal.UserID), zap.String("listing_id", draft.Listing.ID))
	bookings, err := h.service.CreateBooking(r.Context(), application.CreateBookingParams{Principal: principal, Draft: draft})
	if err != nil {
		logger.Warn("booking creation failed", zap.Error(err), zap.String("error_kind", application.ErrorKind(err)))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.Info("booking created")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, bookingsResponse{Bookings: toBookingDTOs(bookings, h.location)})
}

// Update serves PUT /bookings/:id.
func (h *BookingHandler) Update(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	bookingID := pathParam(r, "id")
	if bookingID == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errMissingIdentifier)
		return
	}
	principal, _ := PrincipalFromContext(r.Context())
	draft, ok := h.decodeDraft(w, r)
	if !ok {
		return
	}

	logger := h.log(r.Context(), "Update", zap.String("principal_id", principal.UserID), zap.String("booking_id", bookingID))
	bookings, err := h.service.UpdateBooking(r.Context(), application.UpdateBookingParams{
		Principal: principal,
		BookingID: bookingID,
		Draft:     draft,
	})
	if err != nil {
		logger.Warn("booking update failed", zap.Error(err), zap.String("error_kind", application.ErrorKind(err)))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.Info("booking updated")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, bookingsResponse{Bookings: toBookingDTOs(bookings, h.location)})
}

// Delete serves DELETE /bookings/:id?date=&postId=&type=.
func (h *BookingHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	bookingID := pathParam(r, "id")
	listing, date, fields := h.listingDateFromQuery(r)
	if fields != nil {
		h.responder.writeInvalid(r.Context(), w, fields)
		return
	}
	principal, _ := PrincipalFromContext(r.Context())

	logger := h.log(r.Context(), "Delete", zap.String("principal_id", principal.UserID), zap.String("booking_id", bookingID))
	bookings, err := h.service.DeleteBooking(r.Context(), application.DeleteBookingParams{
		Principal: principal,
		BookingID: bookingID,
		Listing:   listing,
		Date:      date,
	})
	if err != nil {
		logger.Warn("booking delete failed", zap.Error(err), zap.String("error_kind", application.ErrorKind(err)))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.Info("booking deleted")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, bookingsResponse{Bookings: toBookingDTOs(bookings, h.location)})
}

func (h *BookingHandler) decodeDraft(w http.ResponseWriter, r *http.Request) (application.BookingDraft, bool) {
	var req bookingRequest
	fields, err := decodeBody(r, &req)
	if err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, err)
		return application.BookingDraft{}, false
	}
	if fields != nil {
		h.responder.writeInvalid(r.Context(), w, fields)
		return application.BookingDraft{}, false
	}
	return req.toDraft(h.location), true
}

func (h *BookingHandler) listingDateFromQuery(r *http.Request) (application.ListingRef, time.Time, map[string]string) {
	query := r.URL.Query()
	listing := application.ListingRef{
		Type: application.ListingType(strings.ToLower(strings.TrimSpace(query.Get("type")))),
		ID:   strings.TrimSpace(query.Get("postId")),
	}
	date, ok := parseDate(query.Get("date"), h.location)
	if !ok {
		return listing, time.Time{}, map[string]string{"date": "date must be YYYY-MM-DD"}
	}
	return listing, date, nil
}

type bookingRequest struct {
	Type      string  `json:"type" validate:"required,oneof=venue service"`
	ListingID string  `json:"postId" validate:"required"`
	Date      string  `json:"date" validate:"required,datetime=2006-01-02"`
	StartTime string  `json:"startTime" validate:"required"`
	EndTime   string  `json:"endTime" validate:"required"`
	Notes     string  `json:"notes" validate:"max=1000"`
	Price     float64 `json:"price" validate:"gte=0"`
}

func (r bookingRequest) toDraft(loc *time.Location) application.BookingDraft {
	date, _ := parseDate(r.Date, loc)
	return application.BookingDraft{
		Listing: application.ListingRef{Type: application.ListingType(r.Type), ID: strings.TrimSpace(r.ListingID)},
		Date:    date,
		Start:   r.StartTime,
		End:     r.EndTime,
		Notes:   r.Notes,
		Price:   r.Price,
	}
}
