// Package logic settles a cart against the balance ledger.
package logic

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	cart "github.com/bearuzish-arch/SmartShop/cart/logic"
	coupon "github.com/bearuzish-arch/SmartShop/coupon/logic"
	ledger "github.com/bearuzish-arch/SmartShop/ledger/logic"
	pricing "github.com/bearuzish-arch/SmartShop/pricing/logic"
	"github.com/bearuzish-arch/SmartShop/shop"
)

const ErrMsgCartEmpty = "Cart is empty"

// ErrEmptyCart marks a checkout attempted with nothing to pay.
var ErrEmptyCart = errors.New("empty cart")

// CartStore is the part of the cart store checkout needs.
type CartStore interface {
	Snapshot() cart.Cart
	Clear()
}

// Ledger is the part of the balance ledger checkout needs.
type Ledger interface {
	Balance() decimal.Decimal
	Debit(ctx context.Context, amount decimal.Decimal) error
}

// Receipt records a settled purchase.
type Receipt struct {
	ID            string
	AmountCharged decimal.Decimal
	Totals        pricing.Totals
	Items         []cart.CartItem
	CouponCode    string
	BalanceAfter  decimal.Decimal
	CheckedOutAt  time.Time
}

// Checkout prices the cart, debits the total and clears the cart.
//
// An empty cart fails with ErrEmptyCart and an unaffordable one with
// ledger.ErrInsufficientBalance; neither touches the ledger or the cart.
// The cart is cleared only after the debit has been persisted.
func Checkout(ctx context.Context, store CartStore, l Ledger, fees pricing.Fees, active *coupon.Coupon) (*Receipt, error) {
	snapshot := store.Snapshot()
	totals := pricing.ComputeTotals(snapshot, fees, active)

	if totals.Total.IsZero() {
		return nil, shop.NewFailedPrecondition(ErrMsgCartEmpty).WithKind(ErrEmptyCart)
	}
	if err := CheckAffordable(snapshot, l.Balance(), fees, active); err != nil {
		return nil, err
	}

	if err := l.Debit(ctx, totals.Total); err != nil {
		return nil, fmt.Errorf("checkout: %w", err)
	}
	store.Clear()

	receipt := &Receipt{
		ID:            uuid.NewString(),
		AmountCharged: totals.Total,
		Totals:        totals,
		Items:         snapshot.Items(),
		BalanceAfter:  l.Balance(),
		CheckedOutAt:  time.Now().UTC(),
	}
	if active != nil {
		receipt.CouponCode = active.Code
	}
	return receipt, nil
}

// CheckAffordable prices a hypothetical cart and fails with
// ledger.ErrInsufficientBalance when its total exceeds balance. It is an
// advisory check and changes nothing.
func CheckAffordable(hypothetical cart.Cart, balance decimal.Decimal, fees pricing.Fees, active *coupon.Coupon) error {
	total := pricing.ComputeTotals(hypothetical, fees, active).Total
	if err := shop.RequireCovered(balance, total, fmt.Sprintf(ledger.ErrMsgInsufficientBalanceF, balance, total)); err != nil {
		return err.WithKind(ledger.ErrInsufficientBalance)
	}
	return nil
}
