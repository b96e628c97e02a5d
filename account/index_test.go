package account

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/sahithikokkula/lobcore/models"
)

func p(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func handle(id int64, side models.Side, price string) OrderHandle {
	return OrderHandle{OrderID: id, Side: side, Price: p(price)}
}

func TestAccountIndex_RegisterAndGet(t *testing.T) {
	idx := NewAccountIndex()
	idx.Register(7, handle(101, models.Buy, "100"))
	idx.Register(7, handle(102, models.Buy, "101"))
	idx.Register(8, handle(103, models.Sell, "99"))

	got := idx.Get(7)
	if len(got) != 2 || got[0].OrderID != 101 || got[1].OrderID != 102 {
		t.Fatalf("Get(7) = %v, want handles for [101 102]", got)
	}
	if got[0].Side != models.Buy || !got[0].Price.Equal(p("100")) {
		t.Fatalf("Get(7)[0] = %+v, want side=Buy price=100", got[0])
	}
	if idx.NOrders(8) != 1 {
		t.Fatalf("NOrders(8) = %d, want 1", idx.NOrders(8))
	}
	if idx.NAccounts() != 2 {
		t.Fatalf("NAccounts() = %d, want 2", idx.NAccounts())
	}
}

func TestAccountIndex_OwnerOf(t *testing.T) {
	idx := NewAccountIndex()
	idx.Register(7, handle(101, models.Buy, "100"))

	acctID, ok := idx.OwnerOf(101)
	if !ok || acctID != 7 {
		t.Fatalf("OwnerOf(101) = %d, %v, want 7, true", acctID, ok)
	}
	if _, ok := idx.OwnerOf(999); ok {
		t.Fatalf("OwnerOf(999) should report not found")
	}
}

func TestAccountIndex_UnregisterDropsEmptyAccount(t *testing.T) {
	idx := NewAccountIndex()
	idx.Register(7, handle(101, models.Buy, "100"))
	idx.Unregister(101)

	if idx.NAccounts() != 0 {
		t.Fatalf("NAccounts() after draining = %d, want 0", idx.NAccounts())
	}
	if _, ok := idx.OwnerOf(101); ok {
		t.Fatalf("OwnerOf(101) should report not found after unregister")
	}
	// Unregistering an already-gone id must be a no-op, not a panic.
	idx.Unregister(101)
}

func TestAccountIndex_UnregisterLeavesSiblingOrders(t *testing.T) {
	idx := NewAccountIndex()
	idx.Register(7, handle(101, models.Buy, "100"))
	idx.Register(7, handle(102, models.Buy, "101"))
	idx.Unregister(101)

	got := idx.Get(7)
	if len(got) != 1 || got[0].OrderID != 102 {
		t.Fatalf("Get(7) after partial unregister = %v, want [102]", got)
	}
}
