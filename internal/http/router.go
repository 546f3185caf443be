package http

import (
	"net/http"

	"github.com/julienschmidt/httprouter"
	"go.uber.org/zap"
)

// RouterConfig wires handlers into the router. Nil handlers leave their routes unregistered.
type RouterConfig struct {
	Availability *AvailabilityHandler
	Bookings     *BookingHandler
	Requests     *RequestFlowHandler
	Session      *SessionHandler
	Cart         *CartHandler
	Checkout     *CheckoutHandler
	// Sessions guards routes acting on behalf of the signed-in user.
	Sessions   SessionValidator
	Logger     *zap.Logger
	Middleware []func(http.Handler) http.Handler
}

func NewRouter(cfg RouterConfig) http.Handler {
	router := httprouter.New()
	responder := newResponder(cfg.Logger)

	router.NotFound = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		responder.writeJSON(r.Context(), w, http.StatusNotFound, errorResponse{ErrorCode: "NOT_FOUND", Message: "route not found"})
	})
	router.MethodNotAllowed = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		responder.writeJSON(r.Context(), w, http.StatusMethodNotAllowed, errorResponse{Message: http.StatusText(http.StatusMethodNotAllowed)})
	})
	router.PanicHandler = func(w http.ResponseWriter, r *http.Request, recovered any) {
		responder.loggerFor(r.Context()).Error("handler panic", zap.Any("panic", recovered), zap.Stack("stack"))
		responder.writeJSON(r.Context(), w, http.StatusInternalServerError, errorResponse{ErrorCode: "INTERNAL", Message: "internal server error"})
	}

	router.HandlerFunc(http.MethodGet, "/health", func(w http.ResponseWriter, r *http.Request) {
		responder.writeJSON(r.Context(), w, http.StatusOK, map[string]string{"status": "ok"})
	})

	authed := func(h http.HandlerFunc) http.Handler {
		if cfg.Sessions == nil {
			return h
		}
		return RequireSession(cfg.Sessions, cfg.Logger)(h)
	}

	if cfg.Availability != nil {
		router.HandlerFunc(http.MethodGet, "/listings/:type/:id/calendar", cfg.Availability.Calendar)
		router.HandlerFunc(http.MethodGet, "/listings/:type/:id/end-options", cfg.Availability.EndOptions)
		router.HandlerFunc(http.MethodPost, "/listings/:type/:id/availability", cfg.Availability.Check)
		router.HandlerFunc(http.MethodGet, "/listings/:type/:id/operating-days", cfg.Availability.OperatingDays)
	}

	if cfg.Bookings != nil {
		router.HandlerFunc(http.MethodGet, "/bookings", cfg.Bookings.List)
		router.Handler(http.MethodPost, "/bookings", authed(cfg.Bookings.Create))
		router.Handler(http.MethodPut, "/bookings/:id", authed(cfg.Bookings.Update))
		router.Handler(http.MethodDelete, "/bookings/:id", authed(cfg.Bookings.Delete))
	}

	if cfg.Requests != nil {
		router.HandlerFunc(http.MethodPost, "/booking-requests", cfg.Requests.Open)
		router.HandlerFunc(http.MethodGet, "/booking-requests/:id", cfg.Requests.Get)
		router.HandlerFunc(http.MethodDelete, "/booking-requests/:id", cfg.Requests.Close)
		router.HandlerFunc(http.MethodPut, "/booking-requests/:id/date", cfg.Requests.SelectDate)
		router.HandlerFunc(http.MethodPut, "/booking-requests/:id/times", cfg.Requests.SelectTimes)
		router.Handler(http.MethodPost, "/booking-requests/:id/submit", authed(cfg.Requests.Submit))
	}

	if cfg.Session != nil {
		router.HandlerFunc(http.MethodGet, "/session", cfg.Session.Get)
		router.HandlerFunc(http.MethodPut, "/session", cfg.Session.Put)
		router.HandlerFunc(http.MethodDelete, "/session", cfg.Session.Delete)
	}

	if cfg.Cart != nil {
		router.HandlerFunc(http.MethodGet, "/cart", cfg.Cart.Get)
		router.HandlerFunc(http.MethodDelete, "/cart", cfg.Cart.Clear)
		router.HandlerFunc(http.MethodPost, "/cart/items", cfg.Cart.AddItem)
		router.HandlerFunc(http.MethodPut, "/cart/items/:id", cfg.Cart.UpdateItem)
		router.HandlerFunc(http.MethodDelete, "/cart/items/:id", cfg.Cart.RemoveItem)
	}

	if cfg.Checkout != nil {
		router.Handler(http.MethodPost, "/checkout", authed(cfg.Checkout.Create))
	}

	var handler http.Handler = router
	for i := len(cfg.Middleware) - 1; i >= 0; i-- {
		if cfg.Middleware[i] != nil {
			handler = cfg.Middleware[i](handler)
		}
	}

	return handler
}
