// Package logic turns a cart, a fee schedule and an optional coupon into a
// totals breakdown. Everything here is pure.
package logic

import (
	"github.com/shopspring/decimal"

	cart "github.com/bearuzish-arch/SmartShop/cart/logic"
	coupon "github.com/bearuzish-arch/SmartShop/coupon/logic"
)

// Fees is the flat fee schedule applied to any non-empty cart.
type Fees struct {
	Delivery decimal.Decimal
	Shipping decimal.Decimal
}

// DefaultFees returns delivery 50 and shipping 80.
func DefaultFees() Fees {
	return Fees{
		Delivery: decimal.NewFromInt(50),
		Shipping: decimal.NewFromInt(80),
	}
}

// Totals is the price breakdown of a cart. Values are exact; round only for
// display.
type Totals struct {
	Subtotal decimal.Decimal
	Delivery decimal.Decimal
	Shipping decimal.Decimal
	Discount decimal.Decimal
	Total    decimal.Decimal
}

// RoundedTotals is Totals rounded half away from zero to whole units.
type RoundedTotals struct {
	Subtotal int64
	Delivery int64
	Shipping int64
	Discount int64
	Total    int64
}

// Subtotal sums UnitPrice x Quantity over the cart.
func Subtotal(c cart.Cart) decimal.Decimal {
	sum := decimal.Zero
	for _, item := range c.Items() {
		sum = sum.Add(item.LineTotal())
	}
	return sum
}

// ComputeTotals prices c. Fees apply only when the subtotal is positive, the
// discount is taken from the un-rounded subtotal, and the total is floored
// at zero.
func ComputeTotals(c cart.Cart, fees Fees, active *coupon.Coupon) Totals {
	subtotal := Subtotal(c)

	delivery, shipping := decimal.Zero, decimal.Zero
	if subtotal.IsPositive() {
		delivery = fees.Delivery
		shipping = fees.Shipping
	}

	discount := active.Discount(subtotal)

	total := subtotal.Add(delivery).Add(shipping).Sub(discount)
	if total.IsNegative() {
		total = decimal.Zero
	}

	return Totals{
		Subtotal: subtotal,
		Delivery: delivery,
		Shipping: shipping,
		Discount: discount,
		Total:    total,
	}
}

// Rounded rounds every field for display.
func (t Totals) Rounded() RoundedTotals {
	return RoundedTotals{
		Subtotal: Round(t.Subtotal),
		Delivery: Round(t.Delivery),
		Shipping: Round(t.Shipping),
		Discount: Round(t.Discount),
		Total:    Round(t.Total),
	}
}

// Round rounds d half away from zero to a whole unit.
func Round(d decimal.Decimal) int64 {
	return d.Round(0).IntPart()
}
