package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/example/marketplace-booking/internal/application"
)

type requestFlowService interface {
	Open(ctx context.Context, listing application.ListingRef) (application.FlowSnapshot, error)
	Get(id string) (application.FlowSnapshot, error)
	SelectDate(ctx context.Context, id string, date time.Time) (application.FlowSnapshot, error)
	SelectTimes(id string, sel application.TimeSelection) (application.FlowSnapshot, error)
	Submit(ctx context.Context, principal application.Principal, id string) (application.FlowSnapshot, error)
	Close(id string) error
}

// RequestFlowHandler drives guest booking dialogs across requests.
type RequestFlowHandler struct {
	service   requestFlowService
	location  *time.Location
	responder responder
	logger    *zap.Logger
}

func NewRequestFlowHandler(service requestFlowService, loc *time.Location, logger *zap.Logger) *RequestFlowHandler {
	base := defaultLogger(logger)
	if loc == nil {
		loc = time.UTC
	}
	return &RequestFlowHandler{service: service, location: loc, responder: newResponder(base), logger: base}
}

func (h *RequestFlowHandler) log(ctx context.Context, operation string, fields ...zap.Field) *zap.Logger {
	return handlerLogger(ctx, h.logger, "RequestFlowHandler", operation, fields...)
}

// Open serves POST /booking-requests.
func (h *RequestFlowHandler) Open(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req openFlowRequest
	fields, err := decodeBody(r, &req)
	if err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, err)
		return
	}
	if fields != nil {
		h.responder.writeInvalid(r.Context(), w, fields)
		return
	}

	snap, err := h.service.Open(r.Context(), application.ListingRef{Type: application.ListingType(req.Type), ID: req.ID})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	w.Header().Set("Location", "/booking-requests/"+snap.ID)
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, toFlowDTO(snap, h.location))
}

// Get serves GET /booking-requests/:id.
func (h *RequestFlowHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	snap, err := h.service.Get(pathParam(r, "id"))
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toFlowDTO(snap, h.location))
}

// SelectDate serves PUT /booking-requests/:id/date.
func (h *RequestFlowHandler) SelectDate(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req selectDateRequest
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

	snap, err := h.service.SelectDate(r.Context(), pathParam(r, "id"), date)
	h.respond(w, r, snap, err)
}

// SelectTimes serves PUT /booking-requests/:id/times.
func (h *RequestFlowHandler) SelectTimes(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req selectTimesRequest
	fields, err := decodeBody(r, &req)
	if err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, err)
		return
	}
	if fields != nil {
		h.responder.writeInvalid(r.Context(), w, fields)
		return
	}

	snap, err := h.service.SelectTimes(pathParam(r, "id"), application.TimeSelection{
		Start: req.Start,
		End:   req.End,
		Notes: req.Notes,
		Price: req.Price,
	})
	h.respond(w, r, snap, err)
}

// Submit serves POST /booking-requests/:id/submit.
func (h *RequestFlowHandler) Submit(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	id := pathParam(r, "id")
	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "Submit", zap.String("flow_id", id), zap.String("principal_id", principal.UserID))

	snap, err := h.service.Submit(r.Context(), principal, id)
	if err != nil {
		logger.Warn("booking request not confirmed", zap.Error(err), zap.String("error_kind", application.ErrorKind(err)))
	}
	h.respond(w, r, snap, err)
}

// Close serves DELETE /booking-requests/:id.
func (h *RequestFlowHandler) Close(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	if err := h.service.Close(pathParam(r, "id")); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

// respond writes the snapshot, or the error. Failed submissions and refresh
// failures carry the flow state alongside the error.
func (h *RequestFlowHandler) respond(w http.ResponseWriter, r *http.Request, snap application.FlowSnapshot, err error) {
	if err == nil {
		h.responder.writeJSON(r.Context(), w, http.StatusOK, toFlowDTO(snap, h.location))
		return
	}
	if snap.ID != "" && (errors.Is(err, application.ErrSubmissionFailed) || errors.Is(err, application.ErrUpstream)) {
		h.responder.writeJSON(r.Context(), w, http.StatusBadGateway, flowErrorResponse{
			errorResponse: errorResponse{ErrorCode: "FLOW_FAILED", Message: snap.Error},
			Flow:          toFlowDTO(snap, h.location),
		})
		return
	}
	h.responder.handleServiceError(r.Context(), w, err)
}

type openFlowRequest struct {
	Type string `json:"type" validate:"required,oneof=venue service"`
	ID   string `json:"id" validate:"required"`
}

type selectDateRequest struct {
	Date string `json:"date" validate:"required,datetime=2006-01-02"`
}

type selectTimesRequest struct {
	Start string  `json:"start" validate:"required"`
	End   string  `json:"end"`
	Notes string  `json:"notes" validate:"max=1000"`
	Price float64 `json:"price" validate:"gte=0"`
}

type flowDTO struct {
	ID           string       `json:"id"`
	Listing      listingDTO   `json:"listing"`
	State        string       `json:"state"`
	Validity     string       `json:"validity,omitempty"`
	CanSubmit    bool         `json:"canSubmit"`
	Date         string       `json:"date,omitempty"`
	Operational  bool         `json:"operational"`
	Start        string       `json:"start,omitempty"`
	End          string       `json:"end,omitempty"`
	Notes        string       `json:"notes,omitempty"`
	Price        float64      `json:"price"`
	StartOptions []slotDTO    `json:"startOptions"`
	EndOptions   []slotDTO    `json:"endOptions"`
	Bookings     []bookingDTO `json:"bookings"`
	Error        string       `json:"error,omitempty"`
	Confirmed    *bookingDTO  `json:"confirmed,omitempty"`
}

type flowErrorResponse struct {
	errorResponse
	Flow flowDTO `json:"flow"`
}

func toFlowDTO(snap application.FlowSnapshot, loc *time.Location) flowDTO {
	dto := flowDTO{
		ID:           snap.ID,
		Listing:      toListingDTO(snap.Listing),
		State:        string(snap.State),
		Validity:     string(snap.Validity),
		Date:         formatDate(snap.Date),
		Operational:  snap.Operational,
		Start:        snap.Start,
		End:          snap.End,
		Notes:        snap.Notes,
		Price:        snap.Price,
		StartOptions: toSlotDTOs(snap.StartOptions),
		EndOptions:   toSlotDTOs(snap.EndOptions),
		Bookings:     toBookingDTOs(snap.Bookings, loc),
		Error:        snap.Error,
	}
	dto.CanSubmit = snap.Validity == application.SelectionValid &&
		(snap.State == application.FlowTimesSelected || snap.State == application.FlowFailed)
	if snap.Confirmed != nil {
		confirmed := toBookingDTO(*snap.Confirmed, loc)
		dto.Confirmed = &confirmed
	}
	return dto
}
