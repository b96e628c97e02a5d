package book

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/sahithikokkula/lobcore/models"
)

func limitOrder(id int64, side models.Side, price, size string) *models.Order {
	return &models.Order{
		OrderID: id,
		Side:    side,
		Price:   decimal.RequireFromString(price),
		Size:    decimal.RequireFromString(size),
		Traits:  models.VANILLA,
	}
}

func TestOneSidedBook_BestPriceForBids(t *testing.T) {
	b := NewOneSidedBook(models.Buy)
	b.AddOrder(limitOrder(1, models.Buy, "99", "1"))
	b.AddOrder(limitOrder(2, models.Buy, "101", "1"))
	b.AddOrder(limitOrder(3, models.Buy, "100", "1"))

	price, ok := b.BestPrice()
	if !ok || !price.Equal(decimal.RequireFromString("101")) {
		t.Fatalf("BestPrice() = %s, %v, want 101, true", price, ok)
	}
}

func TestOneSidedBook_BestPriceForAsks(t *testing.T) {
	b := NewOneSidedBook(models.Sell)
	b.AddOrder(limitOrder(1, models.Sell, "99", "1"))
	b.AddOrder(limitOrder(2, models.Sell, "101", "1"))
	b.AddOrder(limitOrder(3, models.Sell, "100", "1"))

	price, ok := b.BestPrice()
	if !ok || !price.Equal(decimal.RequireFromString("99")) {
		t.Fatalf("BestPrice() = %s, %v, want 99, true", price, ok)
	}
}

func TestOneSidedBook_TradeAtBestPartial(t *testing.T) {
	b := NewOneSidedBook(models.Sell)
	b.AddOrder(limitOrder(1, models.Sell, "100", "5"))

	price, head, traded, removed, ok := b.TradeAtBest(decimal.RequireFromString("2"))
	if !ok {
		t.Fatalf("TradeAtBest should succeed against resting liquidity")
	}
	if !price.Equal(decimal.RequireFromString("100")) {
		t.Fatalf("price = %s, want 100", price)
	}
	if head.OrderID != 1 {
		t.Fatalf("head.OrderID = %d, want 1", head.OrderID)
	}
	if !traded.Equal(decimal.RequireFromString("2")) {
		t.Fatalf("traded = %s, want 2", traded)
	}
	if removed {
		t.Fatalf("headRemoved should be false on a partial trade")
	}
	if b.Volume().String() != "3" {
		t.Fatalf("remaining volume = %s, want 3", b.Volume())
	}
}

func TestOneSidedBook_TradeAtBestFullyConsumesLevel(t *testing.T) {
	b := NewOneSidedBook(models.Sell)
	b.AddOrder(limitOrder(1, models.Sell, "100", "5"))

	_, _, traded, removed, ok := b.TradeAtBest(decimal.RequireFromString("5"))
	if !ok || !removed {
		t.Fatalf("TradeAtBest should fully consume the only resting order")
	}
	if !traded.Equal(decimal.RequireFromString("5")) {
		t.Fatalf("traded = %s, want 5", traded)
	}
	if b.NLevels() != 0 {
		t.Fatalf("empty level should be dropped from the tree, NLevels() = %d", b.NLevels())
	}
}

func TestOneSidedBook_TradeAtBestOnEmptySide(t *testing.T) {
	b := NewOneSidedBook(models.Buy)
	_, _, _, _, ok := b.TradeAtBest(decimal.RequireFromString("1"))
	if ok {
		t.Fatalf("TradeAtBest on an empty side should report ok=false")
	}
}

func TestOneSidedBook_RemoveOrder(t *testing.T) {
	b := NewOneSidedBook(models.Buy)
	b.AddOrder(limitOrder(1, models.Buy, "100", "5"))
	b.AddOrder(limitOrder(2, models.Buy, "100", "3"))

	o, ok := b.RemoveOrder(decimal.RequireFromString("100"), 1)
	if !ok || o.OrderID != 1 {
		t.Fatalf("RemoveOrder(100, 1) = %v, %v", o, ok)
	}
	if b.Len() != 1 {
		t.Fatalf("Len() after removal = %d, want 1", b.Len())
	}

	if _, ok := b.RemoveOrder(decimal.RequireFromString("100"), 99); ok {
		t.Fatalf("RemoveOrder for unknown id should fail")
	}
}

func TestOneSidedBook_AvailableUpToRespectsCrossingLimit(t *testing.T) {
	b := NewOneSidedBook(models.Sell)
	b.AddOrder(limitOrder(1, models.Sell, "100", "5"))
	b.AddOrder(limitOrder(2, models.Sell, "102", "5"))
	b.AddOrder(limitOrder(3, models.Sell, "105", "5"))

	got := b.AvailableUpTo(decimal.RequireFromString("102"), false)
	if !got.Equal(decimal.RequireFromString("10")) {
		t.Fatalf("AvailableUpTo(102) = %s, want 10", got)
	}

	got = b.AvailableUpTo(decimal.Zero, true)
	if !got.Equal(decimal.RequireFromString("15")) {
		t.Fatalf("AvailableUpTo unbounded = %s, want 15", got)
	}
}

func TestOneSidedBook_DrainAllReturnsBestFirstAndEmptiesTheSide(t *testing.T) {
	b := NewOneSidedBook(models.Buy)
	b.AddOrder(limitOrder(1, models.Buy, "99", "1"))
	b.AddOrder(limitOrder(2, models.Buy, "101", "1"))
	b.AddOrder(limitOrder(3, models.Buy, "100", "1"))

	drained := b.DrainAll()
	if len(drained) != 3 {
		t.Fatalf("DrainAll() returned %d orders, want 3", len(drained))
	}
	want := []int64{2, 3, 1}
	for i, o := range drained {
		if o.OrderID != want[i] {
			t.Fatalf("drained[%d].OrderID = %d, want %d", i, o.OrderID, want[i])
		}
	}
	if b.Len() != 0 || b.NLevels() != 0 {
		t.Fatalf("side should be empty after DrainAll, Len()=%d NLevels()=%d", b.Len(), b.NLevels())
	}
	if _, ok := b.BestPrice(); ok {
		t.Fatalf("BestPrice() should report false after DrainAll")
	}
}

func TestOneSidedBook_IterateFromBestOrder(t *testing.T) {
	b := NewOneSidedBook(models.Buy)
	b.AddOrder(limitOrder(1, models.Buy, "99", "1"))
	b.AddOrder(limitOrder(2, models.Buy, "101", "1"))
	b.AddOrder(limitOrder(3, models.Buy, "100", "1"))

	var seen []string
	b.IterateFromBest(func(lvl *PriceLevel) bool {
		seen = append(seen, lvl.Price.String())
		return true
	})
	want := []string{"101", "100", "99"}
	if len(seen) != len(want) {
		t.Fatalf("saw %v levels, want %v", seen, want)
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Fatalf("level order = %v, want %v", seen, want)
		}
	}
}
