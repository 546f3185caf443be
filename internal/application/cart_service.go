package application

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/example/marketplace-booking/internal/persistence"
)

// CartService manages the cart stored as a JSON array under the profile's cart key.
type CartService struct {
	mu          sync.Mutex
	store       BlobStore
	key         string
	idGenerator func() string
	logger      *zap.Logger
}

// NewCartService wires dependencies for cart operations.
func NewCartService(store BlobStore, profile string, idGenerator func() string) *CartService {
	return NewCartServiceWithLogger(store, profile, idGenerator, nil)
}

// NewCartServiceWithLogger wires dependencies for cart operations with a specified logger.
func NewCartServiceWithLogger(store BlobStore, profile string, idGenerator func() string, logger *zap.Logger) *CartService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	return &CartService{
		store:       store,
		key:         persistence.ProfileKey(profile, persistence.KeyCart),
		idGenerator: idGenerator,
		logger:      defaultLogger(logger),
	}
}

func (s *CartService) loggerWith(ctx context.Context, operation string, fields ...zap.Field) *zap.Logger {
	return serviceLogger(ctx, s.logger, "CartService", operation, fields...)
}

// Summary returns the cart contents and totals.
func (s *CartService) Summary(ctx context.Context) (CartSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := s.loadLocked(ctx)
	if err != nil {
		return CartSummary{}, err
	}
	return summarize(items), nil
}

// Add puts item in the cart. An item whose ID is already present has its
// quantity increased instead.
func (s *CartService) Add(ctx context.Context, item CartItem) (summary CartSummary, err error) {
	logger := s.loggerWith(ctx, "Add", zap.String("item_id", item.ID))
	defer func() {
		logResult(logger, err, "failed to add cart item", "cart item added", zap.Int("item_count", summary.ItemCount))
	}()

	item.ID = strings.TrimSpace(item.ID)
	item.Name = strings.TrimSpace(item.Name)
	if item.Quantity == 0 {
		item.Quantity = 1
	}
	vErr := &ValidationError{}
	if item.Name == "" {
		vErr.add("name", "name is required")
	}
	if item.Price < 0 || math.IsNaN(item.Price) || math.IsInf(item.Price, 0) {
		vErr.add("price", "price must not be negative")
	}
	if item.Quantity < 0 {
		vErr.add("quantity", "quantity must be positive")
	}
	if vErr.HasErrors() {
		return CartSummary{}, vErr
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := s.loadLocked(ctx)
	if err != nil {
		return CartSummary{}, err
	}
	merged := false
	if item.ID != "" {
		for i := range items {
			if items[i].ID == item.ID {
				items[i].Quantity += item.Quantity
				merged = true
				break
			}
		}
	}
	if !merged {
		if item.ID == "" {
			item.ID = s.idGenerator()
		}
		items = append(items, item)
	}
	if err = s.saveLocked(ctx, items); err != nil {
		return CartSummary{}, err
	}
	return summarize(items), nil
}

// UpdateQuantity sets the quantity of an item. Zero removes it.
func (s *CartService) UpdateQuantity(ctx context.Context, id string, quantity int) (CartSummary, error) {
	if quantity < 0 {
		return CartSummary{}, newValidationError("quantity", "quantity must not be negative")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := s.loadLocked(ctx)
	if err != nil {
		return CartSummary{}, err
	}
	idx := indexOfItem(items, id)
	if idx < 0 {
		return CartSummary{}, ErrNotFound
	}
	if quantity == 0 {
		items = append(items[:idx], items[idx+1:]...)
	} else {
		items[idx].Quantity = quantity
	}
	if err := s.saveLocked(ctx, items); err != nil {
		return CartSummary{}, err
	}
	return summarize(items), nil
}

// Remove deletes an item from the cart.
func (s *CartService) Remove(ctx context.Context, id string) (CartSummary, error) {
	return s.UpdateQuantity(ctx, id, 0)
}

// Clear empties the cart.
func (s *CartService) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.Delete(ctx, s.key); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	s.loggerWith(ctx, "Clear").Info("cart cleared")
	return nil
}

func (s *CartService) loadLocked(ctx context.Context) ([]CartItem, error) {
	raw, err := s.store.Get(ctx, s.key)
	if errors.Is(err, persistence.ErrNotFound) || errors.Is(err, persistence.ErrSealed) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}
	var items []CartItem
	if err := json.Unmarshal(raw, &items); err != nil {
		s.loggerWith(ctx, "load").Warn("discarding unreadable cart blob", zap.Error(err))
		return nil, nil
	}
	return items, nil
}

func (s *CartService) saveLocked(ctx context.Context, items []CartItem) error {
	if items == nil {
		items = []CartItem{}
	}
	raw, err := json.Marshal(items)
	if err != nil {
		return err
	}
	if err := s.store.Put(ctx, s.key, raw); err != nil {
		return fmt.Errorf("save cart: %w", err)
	}
	return nil
}

func indexOfItem(items []CartItem, id string) int {
	for i, item := range items {
		if item.ID == id {
			return i
		}
	}
	return -1
}

func summarize(items []CartItem) CartSummary {
	summary := CartSummary{Items: items}
	if summary.Items == nil {
		summary.Items = []CartItem{}
	}
	for _, item := range items {
		summary.ItemCount += item.Quantity
		summary.Subtotal += item.Price * float64(item.Quantity)
	}
	summary.Subtotal = math.Round(summary.Subtotal*100) / 100
	return summary
}
