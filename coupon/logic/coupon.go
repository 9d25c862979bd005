// Package logic validates coupon codes and computes the discount they grant.
package logic

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/bearuzish-arch/SmartShop/shop"
)

// CodeSmart10 is the only coupon code the shop recognizes.
const CodeSmart10 = "SMART10"

const ErrMsgInvalidCoupon = "Invalid coupon"

// ErrInvalidCoupon marks a rejected coupon code.
var ErrInvalidCoupon = errors.New("invalid coupon")

var hundred = decimal.NewFromInt(100)

// Coupon is an active discount rule. A nil *Coupon means no coupon.
type Coupon struct {
	Code        string
	Percent     decimal.Decimal
	Description string
}

var smart10 = Coupon{
	Code:        CodeSmart10,
	Percent:     decimal.NewFromInt(10),
	Description: "10% off",
}

// Normalize trims surrounding whitespace and upper-cases the code.
func Normalize(raw string) string {
	return strings.ToUpper(strings.TrimSpace(raw))
}

// Validate returns the coupon matching raw, or nil and an InvalidArgument
// error tagged with ErrInvalidCoupon. Callers clear any active coupon on error.
func Validate(raw string) (*Coupon, error) {
	if Normalize(raw) != CodeSmart10 {
		return nil, shop.NewInvalidArgument(ErrMsgInvalidCoupon).WithKind(ErrInvalidCoupon)
	}
	c := smart10
	return &c, nil
}

// Discount returns the amount taken off subtotal. A nil coupon discounts nothing.
func (c *Coupon) Discount(subtotal decimal.Decimal) decimal.Decimal {
	if c == nil {
		return decimal.Zero
	}
	return subtotal.Mul(c.Percent).Div(hundred)
}
