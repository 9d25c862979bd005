package logic

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"
)

func price(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func productIDs(c Cart) []string {
	var ids []string
	for _, item := range c.Items() {
		ids = append(ids, item.ProductID)
	}
	return ids
}

func TestStore_AddItem_InsertsNewItem(t *testing.T) {
	s := NewStore(nil)
	s.AddOne("1", "Backpack", price("109.95"))

	item, ok := s.Snapshot().Find("1")
	if !ok {
		t.Fatal("expected item in cart")
	}
	if item.Quantity != 1 {
		t.Errorf("expected quantity 1, got %d", item.Quantity)
	}
	if item.Title != "Backpack" {
		t.Errorf("expected title %q, got %q", "Backpack", item.Title)
	}
}

func TestStore_AddItem_ExistingIncreasesQuantity(t *testing.T) {
	s := NewStore(nil)
	s.AddOne("1", "Backpack", price("109.95"))
	s.AddItem("1", "Backpack", price("109.95"), 3)

	cart := s.Snapshot()
	if cart.Len() != 1 {
		t.Fatalf("expected 1 line, got %d", cart.Len())
	}
	item, _ := cart.Find("1")
	if item.Quantity != 4 {
		t.Errorf("expected quantity 4, got %d", item.Quantity)
	}
}

func TestStore_AddItem_NonPositiveQuantityNeverStored(t *testing.T) {
	s := NewStore(nil)
	s.AddItem("1", "Backpack", price("10"), 0)
	s.AddItem("2", "Shirt", price("10"), -2)
	if !s.Snapshot().IsEmpty() {
		t.Errorf("expected empty cart, got %v", productIDs(s.Snapshot()))
	}

	s.AddItem("3", "Ring", price("10"), 2)
	s.AddItem("3", "Ring", price("10"), -2)
	if !s.Snapshot().IsEmpty() {
		t.Error("expected item removed when quantity drops to zero")
	}
}

func TestStore_KeepsInsertionOrder(t *testing.T) {
	s := NewStore(nil)
	s.AddOne("3", "C", price("1"))
	s.AddOne("1", "A", price("1"))
	s.AddOne("2", "B", price("1"))
	s.AddOne("3", "C", price("1"))

	if diff := cmp.Diff([]string{"3", "1", "2"}, productIDs(s.Snapshot())); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}
}

func TestStore_ChangeQuantity(t *testing.T) {
	s := NewStore(nil)
	s.AddItem("1", "Backpack", price("10"), 2)

	s.ChangeQuantity("1", +1)
	item, _ := s.Snapshot().Find("1")
	if item.Quantity != 3 {
		t.Errorf("expected quantity 3, got %d", item.Quantity)
	}

	s.ChangeQuantity("1", -1)
	item, _ = s.Snapshot().Find("1")
	if item.Quantity != 2 {
		t.Errorf("expected quantity 2, got %d", item.Quantity)
	}
}

func TestStore_ChangeQuantity_ToZeroRemoves(t *testing.T) {
	s := NewStore(nil)
	s.AddOne("1", "Backpack", price("10"))
	s.AddOne("2", "Shirt", price("5"))

	s.ChangeQuantity("1", -1)
	if _, ok := s.Snapshot().Find("1"); ok {
		t.Error("expected item removed at quantity 0")
	}

	s.ChangeQuantity("2", -7)
	if !s.Snapshot().IsEmpty() {
		t.Error("expected item removed at negative quantity")
	}
}

func TestStore_ChangeQuantity_UnknownIsNoOp(t *testing.T) {
	s := NewStore(nil)
	s.AddOne("1", "Backpack", price("10"))
	before := s.Snapshot()

	s.ChangeQuantity("missing", 5)

	if diff := cmp.Diff(before.Items(), s.Snapshot().Items()); diff != "" {
		t.Errorf("cart changed (-before +after):\n%s", diff)
	}
}

func TestStore_RemoveItem(t *testing.T) {
	s := NewStore(nil)
	s.AddItem("1", "Backpack", price("10"), 5)
	s.AddOne("2", "Shirt", price("5"))

	s.RemoveItem("1")
	s.RemoveItem("missing")

	if diff := cmp.Diff([]string{"2"}, productIDs(s.Snapshot())); diff != "" {
		t.Errorf("unexpected items (-want +got):\n%s", diff)
	}
}

func TestStore_Clear(t *testing.T) {
	s := NewStore(nil)
	s.AddOne("1", "Backpack", price("10"))
	s.AddOne("2", "Shirt", price("5"))
	s.Clear()

	if !s.Snapshot().IsEmpty() {
		t.Error("expected empty cart after clear")
	}
}

func TestSnapshot_IsIsolatedFromLaterMutations(t *testing.T) {
	s := NewStore(nil)
	s.AddOne("1", "Backpack", price("10"))
	snap := s.Snapshot()

	s.ChangeQuantity("1", 4)
	s.AddOne("2", "Shirt", price("5"))

	item, _ := snap.Find("1")
	if item.Quantity != 1 || snap.Len() != 1 {
		t.Errorf("snapshot changed: %+v", snap.Items())
	}
}

func TestCart_WithItem_DoesNotMutateReceiver(t *testing.T) {
	base := NewCart(CartItem{ProductID: "1", Title: "Backpack", UnitPrice: price("10"), Quantity: 1})
	next := base.WithItem("1", "Backpack", price("10"), 1)

	a, _ := base.Find("1")
	b, _ := next.Find("1")
	if a.Quantity != 1 {
		t.Errorf("expected base quantity 1, got %d", a.Quantity)
	}
	if b.Quantity != 2 {
		t.Errorf("expected next quantity 2, got %d", b.Quantity)
	}
}

func TestCart_TotalQuantityAndLineTotal(t *testing.T) {
	c := NewCart(
		CartItem{ProductID: "1", Title: "A", UnitPrice: price("2.5"), Quantity: 4},
		CartItem{ProductID: "2", Title: "B", UnitPrice: price("1"), Quantity: 3},
	)
	if c.TotalQuantity() != 7 {
		t.Errorf("expected 7, got %d", c.TotalQuantity())
	}
	item, _ := c.Find("1")
	if !item.LineTotal().Equal(price("10")) {
		t.Errorf("expected line total 10, got %s", item.LineTotal())
	}
}
