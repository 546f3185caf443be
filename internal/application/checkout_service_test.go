package application

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/marketplace-booking/internal/persistence"
)

type gatewayStub struct {
	requests []CheckoutRequest
	err      error
}

func (g *gatewayStub) CreateCheckout(_ context.Context, req CheckoutRequest) (CheckoutResult, error) {
	g.requests = append(g.requests, req)
	if g.err != nil {
		return CheckoutResult{}, g.err
	}
	return CheckoutResult{SessionID: "cs_test_1", URL: "https://pay.example.com/cs_test_1"}, nil
}

func newCheckoutFixture(t *testing.T, gateway PaymentGateway) (*CheckoutService, *SessionService, *CartService) {
	t.Helper()
	store := persistence.NewMemoryStore()
	sessions := NewSessionService(store, "test", nil)
	carts := NewCartService(store, "test", nil)
	return NewCheckoutService(sessions, carts, gateway, " USD ", nil), sessions, carts
}

func TestCheckoutService_Checkout(t *testing.T) {
	t.Parallel()

	gateway := &gatewayStub{}
	svc, sessions, carts := newCheckoutFixture(t, gateway)
	ctx := context.Background()

	_, err := svc.Checkout(ctx)
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = sessions.Save(ctx, Session{UserID: "u-1", Token: "tok"})
	require.NoError(t, err)

	_, err = svc.Checkout(ctx)
	assert.ErrorIs(t, err, ErrEmptyCart)

	_, err = carts.Add(ctx, CartItem{ID: "tent", Name: "Tent", Price: 19.99, Quantity: 2})
	require.NoError(t, err)
	_, err = carts.Add(ctx, CartItem{ID: "chair", Name: "Chair", Price: 0.3})
	require.NoError(t, err)

	result, err := svc.Checkout(ctx)
	require.NoError(t, err)
	assert.Equal(t, "cs_test_1", result.SessionID)
	assert.Equal(t, "https://pay.example.com/cs_test_1", result.URL)

	require.Len(t, gateway.requests, 1)
	req := gateway.requests[0]
	assert.Equal(t, "u-1", req.CustomerID)
	assert.Equal(t, "usd", req.Currency)
	assert.Equal(t, []CheckoutLine{
		{Name: "Tent", UnitAmount: 1999, Quantity: 2},
		{Name: "Chair", UnitAmount: 30, Quantity: 1},
	}, req.Lines)

	summary, err := carts.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, summary.ItemCount, "cart is kept until payment settles")
}

func TestCheckoutService_Failures(t *testing.T) {
	t.Parallel()

	svc, _, _ := newCheckoutFixture(t, nil)
	_, err := svc.Checkout(context.Background())
	assert.ErrorIs(t, err, ErrCheckoutDisabled)

	gateway := &gatewayStub{err: errors.New("card network down")}
	svc, sessions, carts := newCheckoutFixture(t, gateway)
	ctx := context.Background()
	_, err = sessions.Save(ctx, Session{UserID: "u-1", Token: "tok"})
	require.NoError(t, err)
	_, err = carts.Add(ctx, CartItem{Name: "Tent", Price: 10})
	require.NoError(t, err)

	_, err = svc.Checkout(ctx)
	assert.ErrorIs(t, err, ErrSubmissionFailed)
}
