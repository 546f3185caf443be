package http

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/example/marketplace-booking/internal/application"
)

type checkoutService interface {
	Checkout(ctx context.Context) (application.CheckoutResult, error)
}

// CheckoutHandler starts a hosted payment for the cart.
type CheckoutHandler struct {
	service   checkoutService
	responder responder
	logger    *zap.Logger
}

func NewCheckoutHandler(service checkoutService, logger *zap.Logger) *CheckoutHandler {
	base := defaultLogger(logger)
	return &CheckoutHandler{service: service, responder: newResponder(base), logger: base}
}

// Create serves POST /checkout.
func (h *CheckoutHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	result, err := h.service.Checkout(r.Context())
	if err != nil {
		handlerLogger(r.Context(), h.logger, "CheckoutHandler", "Create").
			Warn("checkout failed", zap.Error(err), zap.String("error_kind", application.ErrorKind(err)))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, checkoutResponse{SessionID: result.SessionID, URL: result.URL})
}

type checkoutResponse struct {
	SessionID string `json:"sessionId"`
	URL       string `json:"url"`
}
