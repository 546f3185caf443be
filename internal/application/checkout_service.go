package application

import (
	"context"
	"fmt"
	"math"
	"strings"

	"go.uber.org/zap"
)

// PaymentGateway creates a hosted checkout for the given request.
type PaymentGateway interface {
	CreateCheckout(ctx context.Context, req CheckoutRequest) (CheckoutResult, error)
}

// CheckoutService hands the signed-in user's cart to the payment gateway and
// returns the external redirect.
type CheckoutService struct {
	sessions *SessionService
	carts    *CartService
	gateway  PaymentGateway
	currency string
	logger   *zap.Logger
}

// NewCheckoutService wires dependencies for checkout. A nil gateway disables checkout.
func NewCheckoutService(sessions *SessionService, carts *CartService, gateway PaymentGateway, currency string, logger *zap.Logger) *CheckoutService {
	currency = strings.ToLower(strings.TrimSpace(currency))
	if currency == "" {
		currency = "usd"
	}
	return &CheckoutService{
		sessions: sessions,
		carts:    carts,
		gateway:  gateway,
		currency: currency,
		logger:   defaultLogger(logger),
	}
}

// Checkout creates a hosted checkout for the current cart.
func (s *CheckoutService) Checkout(ctx context.Context) (result CheckoutResult, err error) {
	logger := serviceLogger(ctx, s.logger, "CheckoutService", "Checkout")
	defer func() {
		logResult(logger, err, "failed to start checkout", "checkout started", zap.String("checkout_session_id", result.SessionID))
	}()

	if s.gateway == nil {
		return CheckoutResult{}, ErrCheckoutDisabled
	}
	principal, err := s.sessions.Principal(ctx)
	if err != nil {
		return CheckoutResult{}, err
	}
	summary, err := s.carts.Summary(ctx)
	if err != nil {
		return CheckoutResult{}, err
	}
	if summary.ItemCount == 0 {
		return CheckoutResult{}, ErrEmptyCart
	}

	req := CheckoutRequest{
		CustomerID: principal.UserID,
		Currency:   s.currency,
		Lines:      make([]CheckoutLine, 0, len(summary.Items)),
	}
	for _, item := range summary.Items {
		if item.Quantity <= 0 {
			continue
		}
		req.Lines = append(req.Lines, CheckoutLine{
			Name:       item.Name,
			UnitAmount: int64(math.Round(item.Price * 100)),
			Quantity:   int64(item.Quantity),
		})
	}

	result, err = s.gateway.CreateCheckout(ctx, req)
	if err != nil {
		return CheckoutResult{}, fmt.Errorf("create checkout: %w", submissionFailed(err))
	}
	return result, nil
}
