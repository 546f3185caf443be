package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/example/marketplace-booking/internal/application"
)

var (
	errBadRequestBody    = errors.New("request body is not valid JSON")
	errMissingPrincipal  = errors.New("sign in to continue")
	errMissingIdentifier = errors.New("identifier is required")
)

type responder struct {
	logger *zap.Logger
}

func newResponder(logger *zap.Logger) responder {
	return responder{logger: defaultLogger(logger)}
}

func (r responder) writeJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	if w == nil {
		return
	}

	if status == http.StatusNoContent || payload == nil {
		w.WriteHeader(status)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		r.loggerFor(ctx).Error("failed to encode response", zap.Error(err))
	}
}

func (r responder) writeError(ctx context.Context, w http.ResponseWriter, status int, err error) {
	message := http.StatusText(status)
	if err != nil {
		if msg := strings.TrimSpace(err.Error()); msg != "" {
			message = msg
		}
		r.loggerFor(ctx).Warn("request failed", zap.Int("status", status), zap.Error(err))
	}

	r.writeJSON(ctx, w, status, errorResponse{Message: message})
}

// writeInvalid reports request level field problems found before reaching a service.
func (r responder) writeInvalid(ctx context.Context, w http.ResponseWriter, fields map[string]string) {
	r.writeJSON(ctx, w, http.StatusUnprocessableEntity, errorResponse{
		ErrorCode: "VALIDATION_FAILED",
		Message:   "request contains invalid fields",
		Errors:    fields,
	})
}

func (r responder) handleServiceError(ctx context.Context, w http.ResponseWriter, err error) {
	if err == nil {
		r.writeError(ctx, w, http.StatusInternalServerError, errors.New("unknown error"))
		return
	}

	var vErr *application.ValidationError
	switch {
	case errors.As(err, &vErr):
		r.writeInvalid(ctx, w, vErr.FieldErrors)
	case errors.Is(err, application.ErrSessionExpired):
		r.writeJSON(ctx, w, http.StatusUnauthorized, errorResponse{ErrorCode: "SESSION_EXPIRED", Message: "session expired, sign in again"})
	case errors.Is(err, application.ErrUnauthorized):
		r.writeJSON(ctx, w, http.StatusUnauthorized, errorResponse{ErrorCode: "UNAUTHORIZED", Message: errMissingPrincipal.Error()})
	case errors.Is(err, application.ErrNotFound):
		r.writeJSON(ctx, w, http.StatusNotFound, errorResponse{ErrorCode: "NOT_FOUND", Message: "the requested resource was not found"})
	case errors.Is(err, application.ErrFlowClosed):
		r.writeJSON(ctx, w, http.StatusGone, errorResponse{ErrorCode: "FLOW_CLOSED", Message: "the booking request was closed"})
	case errors.Is(err, application.ErrConflict):
		r.writeJSON(ctx, w, http.StatusConflict, errorResponse{ErrorCode: "CONFLICT", Message: "the selected time overlaps an existing booking"})
	case errors.Is(err, application.ErrClosedDay):
		r.writeJSON(ctx, w, http.StatusUnprocessableEntity, errorResponse{ErrorCode: "CLOSED_DAY", Message: "the listing is closed on the selected date"})
	case errors.Is(err, application.ErrEmptyCart):
		r.writeJSON(ctx, w, http.StatusUnprocessableEntity, errorResponse{ErrorCode: "EMPTY_CART", Message: "the cart is empty"})
	case errors.Is(err, application.ErrCheckoutDisabled):
		r.writeJSON(ctx, w, http.StatusServiceUnavailable, errorResponse{ErrorCode: "CHECKOUT_DISABLED", Message: "checkout is not configured"})
	case errors.Is(err, application.ErrSubmissionFailed):
		r.writeJSON(ctx, w, http.StatusBadGateway, errorResponse{ErrorCode: "SUBMISSION_FAILED", Message: "the marketplace rejected the request"})
	case errors.Is(err, application.ErrUpstream):
		r.writeJSON(ctx, w, http.StatusBadGateway, errorResponse{ErrorCode: "UPSTREAM_UNAVAILABLE", Message: "the marketplace is unavailable"})
	default:
		r.loggerFor(ctx).Error("unhandled service error", zap.Error(err))
		r.writeJSON(ctx, w, http.StatusInternalServerError, errorResponse{ErrorCode: "INTERNAL", Message: "internal server error"})
	}
}

func (r responder) loggerFor(ctx context.Context) *zap.Logger {
	if logger := LoggerFromContext(ctx); logger != nil {
		return logger
	}
	return r.logger
}

type errorResponse struct {
	ErrorCode string            `json:"error_code,omitempty"`
	Message   string            `json:"message"`
	Errors    map[string]string `json:"errors,omitempty"`
}
