package unmatched

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/sahithikokkula/lobcore/models"
)

func order(id int64, side models.Side, price string) *models.Order {
	return &models.Order{
		OrderID: id,
		Side:    side,
		Price:   decimal.RequireFromString(price),
		Size:    decimal.RequireFromString("1"),
	}
}

func buyOrder(id int64, price string) *models.Order {
	return order(id, models.Buy, price)
}

func TestUnmatchedOrderBook_PopAllIsPriorityOrdered(t *testing.T) {
	u := NewUnmatchedOrderBook()
	base := time.Unix(1_700_000_000, 0)

	u.Push(models.Buy, buyOrder(1, "99"), decimal.RequireFromString("1"), "ioc_residual", base)
	u.Push(models.Buy, buyOrder(2, "101"), decimal.RequireFromString("1"), "ioc_residual", base.Add(time.Second))
	u.Push(models.Buy, buyOrder(3, "101"), decimal.RequireFromString("1"), "ioc_residual", base)

	entries := u.PopAll(models.Buy)
	if len(entries) != 3 {
		t.Fatalf("PopAll(Buy) returned %d entries, want 3", len(entries))
	}
	// Buy side: higher price first; ties broken by arrival time.
	want := []int64{3, 2, 1}
	for i, e := range entries {
		if e.Order.OrderID != want[i] {
			t.Fatalf("entries[%d].Order.OrderID = %d, want %d", i, e.Order.OrderID, want[i])
		}
	}
	if u.Len() != 0 {
		t.Fatalf("Len() after PopAll = %d, want 0", u.Len())
	}
}

func TestUnmatchedOrderBook_PopUnmatchedWithFilterLeavesRest(t *testing.T) {
	u := NewUnmatchedOrderBook()
	base := time.Unix(1_700_000_000, 0)

	u.Push(models.Buy, buyOrder(1, "99"), decimal.RequireFromString("1"), "ioc_residual", base)
	u.Push(models.Buy, buyOrder(2, "101"), decimal.RequireFromString("1"), "fok_rejected", base)

	e, ok := u.PopUnmatchedWithFilter(models.Buy, func(e *Entry) bool { return e.Reason == "fok_rejected" })
	if !ok || e.Order.OrderID != 2 {
		t.Fatalf("PopUnmatchedWithFilter(Buy, fok_rejected) = %v, %v, want order 2, true", e, ok)
	}
	if u.LenSide(models.Buy) != 1 {
		t.Fatalf("LenSide(Buy) after matched pop = %d, want 1", u.LenSide(models.Buy))
	}
}

func TestUnmatchedOrderBook_PopUnmatchedWithFilterStopsAtFirst(t *testing.T) {
	u := NewUnmatchedOrderBook()
	base := time.Unix(1_700_000_000, 0)

	u.Push(models.Buy, buyOrder(1, "101"), decimal.RequireFromString("1"), "ioc_residual", base)
	u.Push(models.Buy, buyOrder(2, "101"), decimal.RequireFromString("1"), "ioc_residual", base.Add(time.Second))

	e, ok := u.PopUnmatchedWithFilter(models.Buy, func(e *Entry) bool { return e.Reason == "ioc_residual" })
	if !ok || e.Order.OrderID != 1 {
		t.Fatalf("PopUnmatchedWithFilter should return the highest-priority match first, got %v, %v", e, ok)
	}
	if u.LenSide(models.Buy) != 1 {
		t.Fatalf("LenSide(Buy) after single match pop = %d, want 1", u.LenSide(models.Buy))
	}
}

func TestUnmatchedOrderBook_PopUnmatchedWithFilterReportsNone(t *testing.T) {
	u := NewUnmatchedOrderBook()
	u.Push(models.Buy, buyOrder(1, "100"), decimal.RequireFromString("1"), "ioc_residual", time.Unix(1_700_000_000, 0))

	_, ok := u.PopUnmatchedWithFilter(models.Buy, func(e *Entry) bool { return e.Reason == "fok_rejected" })
	if ok {
		t.Fatalf("PopUnmatchedWithFilter should report ok=false when no entry matches")
	}
	if u.LenSide(models.Buy) != 1 {
		t.Fatalf("a non-matching PopUnmatchedWithFilter must not remove anything")
	}
}

// A regression test for the two-tree split: Buy and Sell entries must
// never influence each other's ordering, and popping one side must
// leave the other side completely untouched.
func TestUnmatchedOrderBook_SidesAreIndependent(t *testing.T) {
	u := NewUnmatchedOrderBook()
	base := time.Unix(1_700_000_000, 0)

	u.Push(models.Buy, order(1, models.Buy, "100"), decimal.RequireFromString("1"), "ioc_residual", base)
	u.Push(models.Sell, order(2, models.Sell, "90"), decimal.RequireFromString("1"), "ioc_residual", base)
	u.Push(models.Sell, order(3, models.Sell, "80"), decimal.RequireFromString("1"), "ioc_residual", base.Add(time.Second))

	if got := u.Len(); got != 3 {
		t.Fatalf("Len() = %d, want 3", got)
	}

	sellEntries := u.PopAll(models.Sell)
	if len(sellEntries) != 2 {
		t.Fatalf("PopAll(Sell) returned %d entries, want 2", len(sellEntries))
	}
	// Sell side: lower price first.
	if sellEntries[0].Order.OrderID != 3 || sellEntries[1].Order.OrderID != 2 {
		t.Fatalf("PopAll(Sell) order = [%d %d], want [3 2]", sellEntries[0].Order.OrderID, sellEntries[1].Order.OrderID)
	}

	if u.LenSide(models.Sell) != 0 {
		t.Fatalf("LenSide(Sell) after drain = %d, want 0", u.LenSide(models.Sell))
	}
	if u.LenSide(models.Buy) != 1 {
		t.Fatalf("LenSide(Buy) should be untouched by draining Sell, got %d", u.LenSide(models.Buy))
	}
}

func TestUnmatchedOrderBook_DrainAllTakesBothSides(t *testing.T) {
	u := NewUnmatchedOrderBook()
	base := time.Unix(1_700_000_000, 0)

	u.Push(models.Buy, order(1, models.Buy, "100"), decimal.RequireFromString("1"), "ioc_residual", base)
	u.Push(models.Sell, order(2, models.Sell, "90"), decimal.RequireFromString("1"), "ioc_residual", base)

	entries := u.DrainAll()
	if len(entries) != 2 {
		t.Fatalf("DrainAll() returned %d entries, want 2", len(entries))
	}
	if u.Len() != 0 {
		t.Fatalf("Len() after DrainAll = %d, want 0", u.Len())
	}
}
