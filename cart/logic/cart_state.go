// Package logic provides the cart: an insertion-ordered set of line items.
//
// Cart is an immutable value. Every mutation returns a new Cart, so a
// hypothetical cart can be priced without touching the live Store.
package logic

import "github.com/shopspring/decimal"

type CartItem struct {
	ProductID string
	Title     string
	UnitPrice decimal.Decimal
	Quantity  int
}

// LineTotal returns UnitPrice x Quantity.
func (i CartItem) LineTotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Cart holds at most one item per ProductID and never an item with
// quantity <= 0.
type Cart struct {
	items []CartItem
}

// NewCart builds a cart by adding each item in order.
func NewCart(items ...CartItem) Cart {
	c := Cart{}
	for _, item := range items {
		c = c.WithItem(item.ProductID, item.Title, item.UnitPrice, item.Quantity)
	}
	return c
}

// Items returns a copy of the line items in insertion order.
func (c Cart) Items() []CartItem {
	out := make([]CartItem, len(c.items))
	copy(out, c.items)
	return out
}

func (c Cart) Len() int {
	return len(c.items)
}

func (c Cart) IsEmpty() bool {
	return len(c.items) == 0
}

// Find returns the item with productID, if present.
func (c Cart) Find(productID string) (CartItem, bool) {
	if idx := c.indexOf(productID); idx >= 0 {
		return c.items[idx], true
	}
	return CartItem{}, false
}

// TotalQuantity sums quantities across all items.
func (c Cart) TotalQuantity() int {
	total := 0
	for _, item := range c.items {
		total += item.Quantity
	}
	return total
}

// WithItem adds qty of productID. An existing item keeps its title and
// price and has its quantity increased; a new item is appended.
func (c Cart) WithItem(productID, title string, unitPrice decimal.Decimal, qty int) Cart {
	if idx := c.indexOf(productID); idx >= 0 {
		return c.withQuantityAt(idx, c.items[idx].Quantity+qty)
	}
	if qty <= 0 {
		return c
	}
	items := make([]CartItem, len(c.items), len(c.items)+1)
	copy(items, c.items)
	items = append(items, CartItem{
		ProductID: productID,
		Title:     title,
		UnitPrice: unitPrice,
		Quantity:  qty,
	})
	return Cart{items: items}
}

// WithQuantityChange adds delta to productID's quantity, dropping the item
// when the result is <= 0. Unknown products leave the cart unchanged.
func (c Cart) WithQuantityChange(productID string, delta int) Cart {
	idx := c.indexOf(productID)
	if idx < 0 {
		return c
	}
	return c.withQuantityAt(idx, c.items[idx].Quantity+delta)
}

// Without drops productID if present.
func (c Cart) Without(productID string) Cart {
	idx := c.indexOf(productID)
	if idx < 0 {
		return c
	}
	items := make([]CartItem, 0, len(c.items)-1)
	items = append(items, c.items[:idx]...)
	items = append(items, c.items[idx+1:]...)
	return Cart{items: items}
}

func (c Cart) withQuantityAt(idx, quantity int) Cart {
	if quantity <= 0 {
		return c.Without(c.items[idx].ProductID)
	}
	items := c.Items()
	items[idx].Quantity = quantity
	return Cart{items: items}
}

func (c Cart) indexOf(productID string) int {
	for i, item := range c.items {
		if item.ProductID == productID {
			return i
		}
	}
	return -1
}
