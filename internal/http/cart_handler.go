package http

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/example/marketplace-booking/internal/application"
)

type cartService interface {
	Summary(ctx context.Context) (application.CartSummary, error)
	Add(ctx context.Context, item application.CartItem) (application.CartSummary, error)
	UpdateQuantity(ctx context.Context, id string, quantity int) (application.CartSummary, error)
	Remove(ctx context.Context, id string) (application.CartSummary, error)
	Clear(ctx context.Context) error
}

// CartHandler exposes the shopping cart.
type CartHandler struct {
	service   cartService
	responder responder
	logger    *zap.Logger
}

func NewCartHandler(service cartService, logger *zap.Logger) *CartHandler {
	base := defaultLogger(logger)
	return &CartHandler{service: service, responder: newResponder(base), logger: base}
}

// Get serves GET /cart.
func (h *CartHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	summary, err := h.service.Summary(r.Context())
	h.respond(w, r, http.StatusOK, summary, err)
}

// AddItem serves POST /cart/items.
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req cartItemRequest
	fields, err := decodeBody(r, &req)
	if err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, err)
		return
	}
	if fields != nil {
		h.responder.writeInvalid(r.Context(), w, fields)
		return
	}

	summary, err := h.service.Add(r.Context(), application.CartItem{
		ID:       req.ID,
		Name:     req.Name,
		Price:    req.Price,
		Quantity: req.Quantity,
		Category: req.Category,
	})
	h.respond(w, r, http.StatusCreated, summary, err)
}

// UpdateItem serves PUT /cart/items/:id.
func (h *CartHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req quantityRequest
	fields, err := decodeBody(r, &req)
	if err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, err)
		return
	}
	if fields != nil {
		h.responder.writeInvalid(r.Context(), w, fields)
		return
	}

	summary, err := h.service.UpdateQuantity(r.Context(), pathParam(r, "id"), *req.Quantity)
	h.respond(w, r, http.StatusOK, summary, err)
}

// RemoveItem serves DELETE /cart/items/:id.
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	summary, err := h.service.Remove(r.Context(), pathParam(r, "id"))
	h.respond(w, r, http.StatusOK, summary, err)
}

// Clear serves DELETE /cart.
func (h *CartHandler) Clear(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	if err := h.service.Clear(r.Context()); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

func (h *CartHandler) respond(w http.ResponseWriter, r *http.Request, status int, summary application.CartSummary, err error) {
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, status, cartResponse{
		Items:     summary.Items,
		ItemCount: summary.ItemCount,
		Subtotal:  summary.Subtotal,
	})
}

type cartItemRequest struct {
	ID       string  `json:"id"`
	Name     string  `json:"name" validate:"required"`
	Price    float64 `json:"price" validate:"gte=0"`
	Quantity int     `json:"quantity" validate:"gte=0"`
	Category string  `json:"category"`
}

type quantityRequest struct {
	Quantity *int `json:"quantity" validate:"required,gte=0"`
}

type cartResponse struct {
	Items     []application.CartItem `json:"items"`
	ItemCount int                    `json:"itemCount"`
	Subtotal  float64                `json:"subtotal"`
}
