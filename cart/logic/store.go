package logic

import (
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Store owns the live cart of a shopping session.
//
// There is no "item not found" error: operations on absent products are
// silent no-ops.
type Store struct {
	cart   Cart
	logger *zap.Logger
}

// NewStore returns an empty store. A nil logger disables logging.
func NewStore(logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{logger: logger}
}

// AddItem increases productID's quantity by qty, inserting it if absent.
func (s *Store) AddItem(productID, title string, unitPrice decimal.Decimal, qty int) {
	s.logger.Debug("cart add item",
		zap.String("product_id", productID),
		zap.String("unit_price", unitPrice.String()),
		zap.Int("quantity", qty),
	)
	s.cart = s.cart.WithItem(productID, title, unitPrice, qty)
}

// AddOne adds a single unit of productID.
func (s *Store) AddOne(productID, title string, unitPrice decimal.Decimal) {
	s.AddItem(productID, title, unitPrice, 1)
}

// ChangeQuantity adds delta to productID's quantity, removing it at <= 0.
func (s *Store) ChangeQuantity(productID string, delta int) {
	s.logger.Debug("cart change quantity", zap.String("product_id", productID), zap.Int("delta", delta))
	s.cart = s.cart.WithQuantityChange(productID, delta)
}

// RemoveItem deletes productID unconditionally.
func (s *Store) RemoveItem(productID string) {
	s.logger.Debug("cart remove item", zap.String("product_id", productID))
	s.cart = s.cart.Without(productID)
}

// Clear empties the cart.
func (s *Store) Clear() {
	s.logger.Debug("cart clear", zap.Int("items", s.cart.Len()))
	s.cart = Cart{}
}

// Snapshot returns the current cart. Later mutations of the store do not
// affect the returned value.
func (s *Store) Snapshot() Cart {
	return s.cart
}
