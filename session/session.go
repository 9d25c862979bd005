// Package session is the single-shopper command surface. It owns the live
// cart, the active coupon and the balance ledger, and serializes every
// command so concurrent transports see a consistent shop.
package session

import (
	"context"
	"errors"
	"sync"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	cart "github.com/bearuzish-arch/SmartShop/cart/logic"
	"github.com/bearuzish-arch/SmartShop/catalog"
	checkout "github.com/bearuzish-arch/SmartShop/checkout/logic"
	coupon "github.com/bearuzish-arch/SmartShop/coupon/logic"
	"github.com/bearuzish-arch/SmartShop/events"
	ledger "github.com/bearuzish-arch/SmartShop/ledger/logic"
	"github.com/bearuzish-arch/SmartShop/metrics"
	pricing "github.com/bearuzish-arch/SmartShop/pricing/logic"
)

// TopUpAmount is what AddMoney credits.
var TopUpAmount = decimal.NewFromInt(1000)

var tracer = otel.Tracer("github.com/bearuzish-arch/SmartShop/session")

// Catalog resolves product IDs for AddProduct.
type Catalog interface {
	Lookup(id string) (catalog.Product, error)
}

type Session struct {
	mu        sync.Mutex
	cart      *cart.Store
	ledger    *ledger.Ledger
	fees      pricing.Fees
	coupon    *coupon.Coupon
	catalog   Catalog
	publisher events.Publisher
	metrics   *metrics.ShopMetrics
	logger    *zap.Logger
}

type Option func(*Session)

func WithFees(fees pricing.Fees) Option {
	return func(s *Session) { s.fees = fees }
}

func WithCatalog(c Catalog) Option {
	return func(s *Session) { s.catalog = c }
}

func WithPublisher(p events.Publisher) Option {
	return func(s *Session) {
		if p != nil {
			s.publisher = p
		}
	}
}

func WithMetrics(m *metrics.ShopMetrics) Option {
	return func(s *Session) { s.metrics = m }
}

func WithLogger(logger *zap.Logger) Option {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New starts a session with an empty cart over an opened ledger.
func New(l *ledger.Ledger, opts ...Option) *Session {
	s := &Session{
		ledger:    l,
		fees:      pricing.DefaultFees(),
		catalog:   catalog.New(),
		publisher: events.NopPublisher{},
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.cart = cart.NewStore(s.logger)
	s.metrics.SetBalance(l.Balance().InexactFloat64())
	return s
}

// AddProduct adds one unit of a catalog product, refusing when the
// resulting total would exceed the balance.
func (s *Session) AddProduct(ctx context.Context, productID string) error {
	p, err := s.catalog.Lookup(productID)
	if err != nil {
		return err
	}
	return s.AddItem(ctx, p.ID, p.Title, p.Price, 1)
}

// AddItem adds qty units of an item, refusing when the resulting total
// would exceed the balance. A refused add leaves the cart unchanged.
func (s *Session) AddItem(ctx context.Context, productID, title string, unitPrice decimal.Decimal, qty int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	hypothetical := s.cart.Snapshot().WithItem(productID, title, unitPrice, qty)
	if err := checkout.CheckAffordable(hypothetical, s.ledger.Balance(), s.fees, s.coupon); err != nil {
		s.logger.Info("add refused",
			zap.String("product_id", productID),
			zap.String("balance", s.ledger.Balance().String()),
			zap.Error(err),
		)
		return err
	}
	s.cart.AddItem(productID, title, unitPrice, qty)
	s.metrics.ObserveMutation("add")
	return nil
}

// Increment adds one unit to an item already in the cart.
func (s *Session) Increment(productID string) {
	s.changeQuantity(productID, 1, "increment")
}

// Decrement removes one unit, dropping the item at zero.
func (s *Session) Decrement(productID string) {
	s.changeQuantity(productID, -1, "decrement")
}

// ChangeQuantity applies delta to an item in one step, dropping it when the
// quantity reaches zero. Unknown products are ignored.
func (s *Session) ChangeQuantity(productID string, delta int) {
	switch {
	case delta > 0:
		s.changeQuantity(productID, delta, "increment")
	case delta < 0:
		s.changeQuantity(productID, delta, "decrement")
	}
}

func (s *Session) changeQuantity(productID string, delta int, op string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cart.ChangeQuantity(productID, delta)
	s.metrics.ObserveMutation(op)
}

func (s *Session) RemoveItem(productID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cart.RemoveItem(productID)
	s.metrics.ObserveMutation("remove")
}

// ApplyCoupon activates a coupon. An invalid code clears any active coupon
// and returns the validation error.
func (s *Session) ApplyCoupon(raw string) (*coupon.Coupon, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := coupon.Validate(raw)
	s.coupon = c
	if err != nil {
		s.logger.Info("coupon rejected", zap.String("code", raw))
		return nil, err
	}
	s.logger.Info("coupon applied", zap.String("code", c.Code))
	return c, nil
}

// ActiveCoupon returns the active coupon or nil.
func (s *Session) ActiveCoupon() *coupon.Coupon {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.coupon
}

func (s *Session) Totals() pricing.Totals {
	s.mu.Lock()
	defer s.mu.Unlock()
	return pricing.ComputeTotals(s.cart.Snapshot(), s.fees, s.coupon)
}

func (s *Session) Cart() cart.Cart {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.Snapshot()
}

func (s *Session) Balance() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.Balance()
}

// BalanceWarning reports whether the current total exceeds the balance.
func (s *Session) BalanceWarning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := pricing.ComputeTotals(s.cart.Snapshot(), s.fees, s.coupon).Total
	return !s.ledger.CanAfford(total)
}

// View is a consistent read of everything a cart screen shows.
type View struct {
	Cart    cart.Cart
	Totals  pricing.Totals
	Coupon  *coupon.Coupon
	Balance decimal.Decimal
	Warning bool
}

// View reads the cart, totals, coupon and balance under one lock.
func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.cart.Snapshot()
	totals := pricing.ComputeTotals(c, s.fees, s.coupon)
	return View{
		Cart:    c,
		Totals:  totals,
		Coupon:  s.coupon,
		Balance: s.ledger.Balance(),
		Warning: !s.ledger.CanAfford(totals.Total),
	}
}

// AddMoney credits TopUpAmount.
func (s *Session) AddMoney(ctx context.Context) (decimal.Decimal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ledger.Credit(ctx, TopUpAmount); err != nil {
		return s.ledger.Balance(), err
	}
	s.metrics.SetBalance(s.ledger.Balance().InexactFloat64())
	return s.ledger.Balance(), nil
}

func (s *Session) ResetBalance(ctx context.Context) (decimal.Decimal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ledger.ResetToDefault(ctx); err != nil {
		return s.ledger.Balance(), err
	}
	s.metrics.SetBalance(s.ledger.Balance().InexactFloat64())
	return s.ledger.Balance(), nil
}

// Checkout pays for the cart. On success the receipt is published; a
// publish failure is logged and does not fail the checkout.
func (s *Session) Checkout(ctx context.Context) (*checkout.Receipt, error) {
	ctx, span := tracer.Start(ctx, "session.Checkout")
	defer span.End()

	s.mu.Lock()
	receipt, err := checkout.Checkout(ctx, s.cart, s.ledger, s.fees, s.coupon)
	s.mu.Unlock()

	if err != nil {
		outcome := metrics.OutcomeError
		switch {
		case errors.Is(err, checkout.ErrEmptyCart):
			outcome = metrics.OutcomeEmptyCart
		case errors.Is(err, ledger.ErrInsufficientBalance):
			outcome = metrics.OutcomeInsufficient
		}
		s.metrics.ObserveCheckout(outcome)
		span.SetStatus(codes.Error, err.Error())
		s.logger.Info("checkout refused", zap.String("outcome", outcome), zap.Error(err))
		return nil, err
	}

	s.metrics.ObserveCheckout(metrics.OutcomeCompleted)
	s.metrics.SetBalance(receipt.BalanceAfter.InexactFloat64())
	span.SetAttributes(
		attribute.String("receipt.id", receipt.ID),
		attribute.String("receipt.amount", receipt.AmountCharged.String()),
	)
	s.logger.Info("checkout completed",
		zap.String("receipt_id", receipt.ID),
		zap.String("amount", receipt.AmountCharged.String()),
		zap.String("balance", receipt.BalanceAfter.String()),
	)

	if err := s.publisher.PublishReceipt(ctx, receipt); err != nil {
		s.logger.Warn("receipt not published", zap.String("receipt_id", receipt.ID), zap.Error(err))
	}
	return receipt, nil
}

