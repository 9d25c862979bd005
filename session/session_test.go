package session

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bearuzish-arch/SmartShop/catalog"
	checkout "github.com/bearuzish-arch/SmartShop/checkout/logic"
	coupon "github.com/bearuzish-arch/SmartShop/coupon/logic"
	ledger "github.com/bearuzish-arch/SmartShop/ledger/logic"
	"github.com/bearuzish-arch/SmartShop/metrics"
)

type capturePublisher struct {
	receipts []*checkout.Receipt
	err      error
}

func (p *capturePublisher) PublishReceipt(_ context.Context, r *checkout.Receipt) error {
	p.receipts = append(p.receipts, r)
	return p.err
}

func (p *capturePublisher) Close() error { return nil }

func d(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func newSession(t *testing.T, balance string, opts ...Option) (*Session, *ledger.MemoryStore) {
	t.Helper()
	store := ledger.NewMemoryStore()
	if balance != "" {
		require.NoError(t, store.Save(context.Background(), ledger.BalanceKey, balance))
	}
	l, err := ledger.Open(context.Background(), store)
	require.NoError(t, err)

	products := catalog.New(
		catalog.Product{ID: "1", Title: "Backpack", Price: d(250)},
		catalog.Product{ID: "2", Title: "Jacket", Price: d(500)},
	)
	return New(l, append([]Option{WithCatalog(products)}, opts...)...), store
}

func TestAddProduct_AddsOneUnit(t *testing.T) {
	s, _ := newSession(t, "")

	require.NoError(t, s.AddProduct(context.Background(), "1"))
	require.NoError(t, s.AddProduct(context.Background(), "1"))

	item, ok := s.Cart().Find("1")
	require.True(t, ok)
	assert.Equal(t, 2, item.Quantity)
	assert.Equal(t, "Backpack", item.Title)
}

func TestAddProduct_UnknownProduct(t *testing.T) {
	s, _ := newSession(t, "")

	err := s.AddProduct(context.Background(), "99")

	assert.ErrorIs(t, err, catalog.ErrProductNotFound)
	assert.True(t, s.Cart().IsEmpty())
}

func TestAddProduct_GuardRefusesUnaffordable(t *testing.T) {
	s, _ := newSession(t, "100")

	err := s.AddProduct(context.Background(), "2")

	assert.ErrorIs(t, err, ledger.ErrInsufficientBalance)
	assert.True(t, s.Cart().IsEmpty())
	assert.True(t, s.Balance().Equal(d(100)))
}

func TestAddItem_GuardCountsCouponAndExistingItems(t *testing.T) {
	s, _ := newSession(t, "600")
	_, err := s.ApplyCoupon("SMART10")
	require.NoError(t, err)

	// 500 + 130 - 50 = 580 fits
	require.NoError(t, s.AddItem(context.Background(), "2", "Jacket", d(500), 1))
	// 750 + 130 - 75 = 805 does not
	err = s.AddItem(context.Background(), "1", "Backpack", d(250), 1)
	assert.ErrorIs(t, err, ledger.ErrInsufficientBalance)
	assert.Equal(t, 1, s.Cart().Len())
}

func TestIncrementDecrementRemove(t *testing.T) {
	s, _ := newSession(t, "")
	require.NoError(t, s.AddProduct(context.Background(), "1"))

	s.Increment("1")
	item, _ := s.Cart().Find("1")
	assert.Equal(t, 2, item.Quantity)

	s.Decrement("1")
	s.Decrement("1")
	assert.True(t, s.Cart().IsEmpty())

	s.Increment("missing")
	s.RemoveItem("missing")
	assert.True(t, s.Cart().IsEmpty())
}

func TestChangeQuantity_AppliesWholeDelta(t *testing.T) {
	m := metrics.NewShopMetrics(prometheus.NewRegistry())
	s, _ := newSession(t, "", WithMetrics(m))
	require.NoError(t, s.AddProduct(context.Background(), "1"))

	s.ChangeQuantity("1", 4)
	item, _ := s.Cart().Find("1")
	assert.Equal(t, 5, item.Quantity)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CartMutations.WithLabelValues("increment")))

	s.ChangeQuantity("1", 0)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CartMutations.WithLabelValues("increment")))

	s.ChangeQuantity("1", -7)
	assert.True(t, s.Cart().IsEmpty())
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CartMutations.WithLabelValues("decrement")))
}

func TestView(t *testing.T) {
	s, _ := newSession(t, "")
	require.NoError(t, s.AddProduct(context.Background(), "2"))
	_, err := s.ApplyCoupon("SMART10")
	require.NoError(t, err)
	s.Increment("2")

	v := s.View()

	assert.Equal(t, 1, v.Cart.Len())
	assert.True(t, v.Totals.Subtotal.Equal(d(1000)))
	assert.True(t, v.Totals.Total.Equal(d(1030)))
	assert.Equal(t, coupon.CodeSmart10, v.Coupon.Code)
	assert.True(t, v.Balance.Equal(d(1000)))
	assert.True(t, v.Warning)
}

func TestApplyCoupon(t *testing.T) {
	s, _ := newSession(t, "")
	require.NoError(t, s.AddProduct(context.Background(), "2"))

	c, err := s.ApplyCoupon("  smart10 ")
	require.NoError(t, err)
	assert.Equal(t, coupon.CodeSmart10, c.Code)
	assert.True(t, s.Totals().Total.Equal(d(580)))

	_, err = s.ApplyCoupon("BOGUS")
	assert.ErrorIs(t, err, coupon.ErrInvalidCoupon)
	assert.Nil(t, s.ActiveCoupon())
	assert.True(t, s.Totals().Total.Equal(d(630)))
}

func TestBalanceWarning(t *testing.T) {
	s, _ := newSession(t, "")
	require.NoError(t, s.AddProduct(context.Background(), "2"))
	assert.False(t, s.BalanceWarning())

	s.Increment("2")
	assert.True(t, s.BalanceWarning(), "1130 exceeds 1000")
}

func TestAddMoneyAndReset(t *testing.T) {
	s, store := newSession(t, "")

	balance, err := s.AddMoney(context.Background())
	require.NoError(t, err)
	assert.True(t, balance.Equal(d(2000)))

	v, _, _ := store.Load(context.Background(), ledger.BalanceKey)
	assert.Equal(t, "2000", v)

	balance, err = s.ResetBalance(context.Background())
	require.NoError(t, err)
	assert.True(t, balance.Equal(d(1000)))
}

func TestCheckout_PublishesReceiptAndRecordsMetrics(t *testing.T) {
	pub := &capturePublisher{}
	m := metrics.NewShopMetrics(prometheus.NewRegistry())
	s, store := newSession(t, "", WithPublisher(pub), WithMetrics(m))
	require.NoError(t, s.AddProduct(context.Background(), "1"))

	receipt, err := s.Checkout(context.Background())
	require.NoError(t, err)

	assert.True(t, receipt.AmountCharged.Equal(d(380)))
	assert.True(t, s.Balance().Equal(d(620)))
	assert.True(t, s.Cart().IsEmpty())
	require.Len(t, pub.receipts, 1)
	assert.Equal(t, receipt.ID, pub.receipts[0].ID)

	v, _, _ := store.Load(context.Background(), ledger.BalanceKey)
	assert.Equal(t, "620", v)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Checkouts.WithLabelValues(metrics.OutcomeCompleted)))
	assert.Equal(t, 620.0, testutil.ToFloat64(m.Balance))
}

func TestCheckout_PublishFailureDoesNotFailCheckout(t *testing.T) {
	pub := &capturePublisher{err: errors.New("broker down")}
	s, _ := newSession(t, "", WithPublisher(pub))
	require.NoError(t, s.AddProduct(context.Background(), "1"))

	_, err := s.Checkout(context.Background())

	require.NoError(t, err)
	assert.True(t, s.Balance().Equal(d(620)))
}

func TestCheckout_Refusals(t *testing.T) {
	m := metrics.NewShopMetrics(prometheus.NewRegistry())
	s, _ := newSession(t, "", WithMetrics(m))

	_, err := s.Checkout(context.Background())
	assert.ErrorIs(t, err, checkout.ErrEmptyCart)

	require.NoError(t, s.AddProduct(context.Background(), "2"))
	s.Increment("2")
	_, err = s.Checkout(context.Background())
	assert.ErrorIs(t, err, ledger.ErrInsufficientBalance)
	assert.Equal(t, 1, s.Cart().Len())

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Checkouts.WithLabelValues(metrics.OutcomeEmptyCart)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Checkouts.WithLabelValues(metrics.OutcomeInsufficient)))
}
