package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"

	cart "github.com/bearuzish-arch/SmartShop/cart/logic"
	"github.com/bearuzish-arch/SmartShop/catalog"
	checkout "github.com/bearuzish-arch/SmartShop/checkout/logic"
	pricing "github.com/bearuzish-arch/SmartShop/pricing/logic"
)

// ANSI color codes
const (
	Green  = "\033[92m"
	Yellow = "\033[93m"
	Cyan   = "\033[96m"
	Red    = "\033[91m"
	Bold   = "\033[1m"
	Dim    = "\033[2m"
	Reset  = "\033[0m"
)

const currency = "BDT"

// money formats an amount for display, rounded half away from zero.
func money(d decimal.Decimal) string {
	return fmt.Sprintf("%d %s", pricing.Round(d), currency)
}

func rule(w io.Writer) {
	fmt.Fprintf(w, "%s%s%s\n", Bold, strings.Repeat("─", 60), Reset)
}

func printProducts(w io.Writer, products []catalog.Product) {
	if len(products) == 0 {
		fmt.Fprintf(w, "%sno products%s\n", Dim, Reset)
		return
	}
	for _, p := range products {
		rating := "-"
		if p.Rating != nil {
			rating = fmt.Sprintf("%.1f", *p.Rating)
		}
		fmt.Fprintf(w, "  %s%-4s%s %-40.40s %10s  %s★ %s%s\n",
			Cyan, p.ID, Reset, p.Title, money(p.Price), Yellow, rating, Reset)
	}
}

func printReviews(w io.Writer, reviews []catalog.Review) {
	if len(reviews) == 0 {
		fmt.Fprintf(w, "%sno reviews%s\n", Dim, Reset)
		return
	}
	for _, r := range reviews {
		stars := max(0, min(5, r.Rating))
		fmt.Fprintf(w, "  %s%s%s %s%s%s%s  %s\n",
			Bold, r.Name, Reset, Yellow, strings.Repeat("★", stars), strings.Repeat("☆", 5-stars), Reset, r.Date)
		fmt.Fprintf(w, "    %s\n", r.Comment)
	}
}

func printCart(w io.Writer, c cart.Cart, t pricing.Totals, balance decimal.Decimal, warn bool) {
	rule(w)
	if c.IsEmpty() {
		fmt.Fprintf(w, "  %scart is empty%s\n", Dim, Reset)
	}
	for _, item := range c.Items() {
		fmt.Fprintf(w, "  %dx %-36.36s @ %s = %s\n", item.Quantity, item.Title, money(item.UnitPrice), money(item.LineTotal()))
	}
	printTotals(w, t)
	fmt.Fprintf(w, "  %sbalance:%s  %s\n", Dim, Reset, money(balance))
	if warn {
		fmt.Fprintf(w, "  %s%stotal exceeds balance, add money before checkout%s\n", Bold, Red, Reset)
	}
	rule(w)
}

func printTotals(w io.Writer, t pricing.Totals) {
	fmt.Fprintf(w, "  %ssubtotal:%s %s\n", Dim, Reset, money(t.Subtotal))
	fmt.Fprintf(w, "  %sdelivery:%s %s\n", Dim, Reset, money(t.Delivery))
	fmt.Fprintf(w, "  %sshipping:%s %s\n", Dim, Reset, money(t.Shipping))
	if !t.Discount.IsZero() {
		fmt.Fprintf(w, "  %sdiscount:%s %s-%s%s\n", Dim, Reset, Green, money(t.Discount), Reset)
	}
	fmt.Fprintf(w, "  %stotal:%s    %s%s%s\n", Dim, Reset, Bold, money(t.Total), Reset)
}

// printReceipt renders a completed checkout.
func printReceipt(w io.Writer, r *checkout.Receipt) {
	fmt.Fprintln(w)
	rule(w)
	fmt.Fprintf(w, "%s%sPayment successful%s  %s%s%s\n", Bold, Cyan, Reset, Dim, r.ID, Reset)
	fmt.Fprintln(w, strings.Repeat("─", 60))
	for _, item := range r.Items {
		fmt.Fprintf(w, "    - %dx %s @ %s = %s\n", item.Quantity, item.Title, money(item.UnitPrice), money(item.LineTotal()))
	}
	printTotals(w, r.Totals)
	if r.CouponCode != "" {
		fmt.Fprintf(w, "  %scoupon:%s   %s\n", Dim, Reset, r.CouponCode)
	}
	fmt.Fprintf(w, "  %spaid:%s     %s%s%s\n", Dim, Reset, Green, money(r.AmountCharged), Reset)
	fmt.Fprintf(w, "  %sbalance:%s  %s\n", Dim, Reset, money(r.BalanceAfter))
	fmt.Fprintf(w, "  %sat:%s       %s\n", Dim, Reset, r.CheckedOutAt.Format("2006-01-02T15:04:05"))
}

func printError(w io.Writer, err error) {
	fmt.Fprintf(w, "%s%s%s\n", Red, err, Reset)
}
