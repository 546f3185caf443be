// Package payment creates hosted checkout sessions with Stripe.
package payment

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"go.uber.org/zap"

	"github.com/example/marketplace-booking/internal/application"
)

// Config holds the values needed to create checkout sessions.
type Config struct {
	SecretKey  string
	SuccessURL string
	CancelURL  string
	// BaseURL overrides the Stripe API endpoint. Empty uses the default.
	BaseURL    string
	HTTPClient *http.Client
}

// StripeGateway implements application.PaymentGateway with Stripe Checkout.
type StripeGateway struct {
	api        *client.API
	successURL string
	cancelURL  string
	logger     *zap.Logger
}

// NewStripeGateway builds a gateway with its own Stripe client. Network retries
// are disabled so a failed checkout surfaces to the caller immediately.
func NewStripeGateway(cfg Config, logger *zap.Logger) (*StripeGateway, error) {
	if strings.TrimSpace(cfg.SecretKey) == "" {
		return nil, errors.New("payment: secret key is required")
	}
	if cfg.SuccessURL == "" || cfg.CancelURL == "" {
		return nil, errors.New("payment: success and cancel urls are required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	backendCfg := &stripe.BackendConfig{
		HTTPClient:        cfg.HTTPClient,
		LeveledLogger:     logger.Sugar(),
		MaxNetworkRetries: stripe.Int64(0),
	}
	if cfg.BaseURL != "" {
		backendCfg.URL = stripe.String(strings.TrimRight(cfg.BaseURL, "/"))
	}
	backends := &stripe.Backends{
		API:     stripe.GetBackendWithConfig(stripe.APIBackend, backendCfg),
		Connect: stripe.GetBackendWithConfig(stripe.ConnectBackend, backendCfg),
		Uploads: stripe.GetBackendWithConfig(stripe.UploadsBackend, backendCfg),
	}

	return &StripeGateway{
		api:        client.New(cfg.SecretKey, backends),
		successURL: cfg.SuccessURL,
		cancelURL:  cfg.CancelURL,
		logger:     logger,
	}, nil
}

// CreateCheckout opens a payment-mode checkout session with one inline price per line.
func (g *StripeGateway) CreateCheckout(ctx context.Context, req application.CheckoutRequest) (application.CheckoutResult, error) {
	if len(req.Lines) == 0 {
		return application.CheckoutResult{}, application.ErrEmptyCart
	}

	params := &stripe.CheckoutSessionParams{
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL: stripe.String(g.successURL),
		CancelURL:  stripe.String(g.cancelURL),
		LineItems:  make([]*stripe.CheckoutSessionLineItemParams, 0, len(req.Lines)),
	}
	params.Context = ctx
	if req.CustomerID != "" {
		params.ClientReferenceID = stripe.String(req.CustomerID)
	}
	for _, line := range req.Lines {
		params.LineItems = append(params.LineItems, &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:   stripe.String(req.Currency),
				UnitAmount: stripe.Int64(line.UnitAmount),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(line.Name),
				},
			},
			Quantity: stripe.Int64(line.Quantity),
		})
	}

	session, err := g.api.CheckoutSessions.New(params)
	if err != nil {
		var stripeErr *stripe.Error
		if errors.As(err, &stripeErr) {
			g.logger.Warn("stripe rejected checkout session",
				zap.String("stripe_code", string(stripeErr.Code)),
				zap.Int("http_status", stripeErr.HTTPStatusCode),
			)
		}
		return application.CheckoutResult{}, fmt.Errorf("create checkout session: %w", err)
	}
	return application.CheckoutResult{SessionID: session.ID, URL: session.URL}, nil
}
