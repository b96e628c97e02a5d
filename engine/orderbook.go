// Package engine implements the matching core: the price-time priority
// order book (OrderBook) and its single-goroutine actor wrapper (Engine).
package engine

import (
	"github.com/shopspring/decimal"

	"github.com/sahithikokkula/lobcore/account"
	"github.com/sahithikokkula/lobcore/book"
	"github.com/sahithikokkula/lobcore/metrics"
	"github.com/sahithikokkula/lobcore/models"
	"github.com/sahithikokkula/lobcore/notify"
	"github.com/sahithikokkula/lobcore/unmatched"
)

// residentLocation records which side and price a live resting order is
// filed under, so a cancel or a later partial fill never has to scan
// both sides of the book.
type residentLocation struct {
	side  models.Side
	price decimal.Decimal
}

// OrderBook is the synchronous matching core for a single instrument. It
// has no goroutines or locks of its own beyond what its book.OneSidedBook,
// account.AccountIndex and unmatched.UnmatchedOrderBook components already
// hold: every method here runs to completion in the caller's
// goroutine, which is how Engine is able to serialize access from a
// single worker without any further coordination.
type OrderBook struct {
	Instrument string

	bids *book.OneSidedBook
	asks *book.OneSidedBook

	accounts  *account.AccountIndex
	unmatched *unmatched.UnmatchedOrderBook
	bus       *notify.Bus

	locations map[int64]residentLocation
}

// NewOrderBook returns an empty book for instrument. bus may be nil, in
// which case fills and drops are simply not announced.
func NewOrderBook(instrument string, bus *notify.Bus) *OrderBook {
	return &OrderBook{
		Instrument: instrument,
		bids:       book.NewOneSidedBook(models.Buy),
		asks:       book.NewOneSidedBook(models.Sell),
		accounts:   account.NewAccountIndex(),
		unmatched:  unmatched.NewUnmatchedOrderBook(),
		bus:        bus,
		locations:  make(map[int64]residentLocation),
	}
}

func (ob *OrderBook) sideBook(side models.Side) *book.OneSidedBook {
	if side == models.Buy {
		return ob.bids
	}
	return ob.asks
}

func (ob *OrderBook) opposing(side models.Side) *book.OneSidedBook {
	return ob.sideBook(side.Opposite())
}

// rest files o on its own side, updating every index that tracks it.
func (ob *OrderBook) rest(o *models.Order) {
	ob.sideBook(o.Side).AddOrder(o)
	ob.locations[o.OrderID] = residentLocation{side: o.Side, price: o.Price}
	if o.AcctID != nil {
		ob.accounts.Register(*o.AcctID, account.OrderHandle{OrderID: o.OrderID, Side: o.Side, Price: o.Price})
	}
	ob.publishRested(o)
	ob.recordBookMetrics()
}

// forget drops every index entry for a resting order that is no longer
// resting, whether because it filled or because it was cancelled.
func (ob *OrderBook) forget(orderID int64) {
	delete(ob.locations, orderID)
	ob.accounts.Unregister(orderID)
}

// CancelOrder removes a resting order by id, checking the caller's
// belief about where it rests against what the book actually has on
// file. A side that disagrees with the resting order is reported as
// models.ErrSideMismatch rather than models.ErrUnknownOrder, so a
// client can tell "you have the wrong side" from "it's already gone".
// acctID, when non-nil, must match the resting order's owner or the
// cancel is refused as unknown, so a cancel request can never be used
// to probe whether an order id exists on someone else's account.
func (ob *OrderBook) CancelOrder(orderID int64, side models.Side, price decimal.Decimal, acctID *int64) (*models.Order, error) {
	loc, ok := ob.locations[orderID]
	if !ok {
		return nil, models.ErrUnknownOrder
	}
	if loc.side != side {
		return nil, models.ErrSideMismatch
	}
	if !loc.price.Equal(price) {
		return nil, models.ErrUnknownOrder
	}
	if acctID != nil {
		owner, ok := ob.accounts.OwnerOf(orderID)
		if !ok || owner != *acctID {
			return nil, models.ErrUnknownOrder
		}
	}
	o, ok := ob.sideBook(loc.side).RemoveOrder(loc.price, orderID)
	if !ok {
		return nil, models.ErrUnknownOrder
	}
	ob.forget(orderID)
	ob.publishCancelled(o)
	ob.recordBookMetrics()
	return o, nil
}

// GetOrder looks up a resting order without removing it.
func (ob *OrderBook) GetOrder(orderID int64) (*models.Order, bool) {
	loc, ok := ob.locations[orderID]
	if !ok {
		return nil, false
	}
	return ob.sideBook(loc.side).Find(loc.price, orderID)
}

// BestBidAsk returns the current best bid and ask prices.
func (ob *OrderBook) BestBidAsk() (bid decimal.Decimal, bidOK bool, ask decimal.Decimal, askOK bool) {
	bid, bidOK = ob.bids.BestPrice()
	ask, askOK = ob.asks.BestPrice()
	return
}

// VolumeBidAsk returns the total resting size on each side.
func (ob *OrderBook) VolumeBidAsk() (bidVol, askVol decimal.Decimal) {
	return ob.bids.Volume(), ob.asks.Volume()
}

// NOrdersBidAsk returns the total resting order count on each side.
func (ob *OrderBook) NOrdersBidAsk() (bidN, askN int) {
	return ob.bids.Len(), ob.asks.Len()
}

// Bids exposes the resting buy side for read-only iteration, e.g. by snapshot.
func (ob *OrderBook) Bids() *book.OneSidedBook {
	return ob.bids
}

// Asks exposes the resting sell side for read-only iteration, e.g. by snapshot.
func (ob *OrderBook) Asks() *book.OneSidedBook {
	return ob.asks
}

// GetAccount returns every order acctID currently has resting, ordered
// by order id. Each order is resolved fresh from the book rather than
// cached, so its reported size always reflects any partial fills.
func (ob *OrderBook) GetAccount(acctID int64) []*models.Order {
	handles := ob.accounts.Get(acctID)
	orders := make([]*models.Order, 0, len(handles))
	for _, h := range handles {
		if o, ok := ob.sideBook(h.Side).Find(h.Price, h.OrderID); ok {
			orders = append(orders, o.Clone())
		}
	}
	return orders
}

// UnmatchedLen reports how many unmatched entries are queued for
// notification, across both sides.
func (ob *OrderBook) UnmatchedLen() int {
	return ob.unmatched.Len()
}

// DrainUnmatched removes and returns every queued unmatched entry,
// publishing none of them a second time (they were already published
// when they were queued).
func (ob *OrderBook) DrainUnmatched() []*unmatched.Entry {
	return ob.unmatched.DrainAll()
}

// PopUnmatchedWithFilter removes and returns the highest-priority queued
// unmatched entry on side for which pred holds, leaving every other entry
// queued, and publishes notify.EventUnmatchedPopped so an external
// dispatcher can react to it (e.g. to retry an IOC residual now that the
// book has moved). Returns ok=false if no entry on side currently
// satisfies pred.
func (ob *OrderBook) PopUnmatchedWithFilter(side models.Side, pred func(*unmatched.Entry) bool) (*unmatched.Entry, bool) {
	e, ok := ob.unmatched.PopUnmatchedWithFilter(side, pred)
	if !ok {
		return nil, false
	}
	if ob.bus != nil {
		ob.bus.Publish(notify.Event{Type: notify.EventUnmatchedPopped, Data: notify.UnmatchedPoppedPayload{
			Order:     e.Order.Clone(),
			Unmatched: e.Unmatched,
			Reason:    e.Reason,
		}})
	}
	return e, true
}

// DepthLevel is the aggregate state of a single resting price level.
type DepthLevel struct {
	Price   decimal.Decimal
	Volume  decimal.Decimal
	NOrders int
}

// DepthInfo is a capped snapshot of book depth, best price first on
// each side.
type DepthInfo struct {
	Bids []DepthLevel
	Asks []DepthLevel
}

// BookDepthInfo returns up to levels resting price levels on each side,
// best price first. A levels of zero or less returns an empty snapshot.
func (ob *OrderBook) BookDepthInfo(levels int) DepthInfo {
	return DepthInfo{Bids: depthOfSide(ob.bids, levels), Asks: depthOfSide(ob.asks, levels)}
}

func depthOfSide(b *book.OneSidedBook, levels int) []DepthLevel {
	if levels <= 0 {
		return nil
	}
	out := make([]DepthLevel, 0, levels)
	b.IterateFromBest(func(lvl *book.PriceLevel) bool {
		out = append(out, DepthLevel{Price: lvl.Price, Volume: lvl.Volume(), NOrders: lvl.Len()})
		return len(out) < levels
	})
	return out
}

// Clear removes every resting order from both sides of the book and
// returns them, bids then asks, each best price first. Queued unmatched
// entries are left untouched since they have already left the book
// proper.
func (ob *OrderBook) Clear() []*models.Order {
	removed := append(ob.bids.DrainAll(), ob.asks.DrainAll()...)
	ob.locations = make(map[int64]residentLocation)
	ob.accounts = account.NewAccountIndex()
	ob.recordBookMetrics()
	return removed
}

// recordBookMetrics refreshes the depth, level and best-price gauges from
// the book's current state. Called at every point book state changes:
// resting, cancelling, walking, and clearing.
func (ob *OrderBook) recordBookMetrics() {
	metrics.UpdateOrderbookDepth(ob.Instrument, sideLabel(models.Buy), float64(ob.bids.Len()))
	metrics.UpdateOrderbookDepth(ob.Instrument, sideLabel(models.Sell), float64(ob.asks.Len()))
	metrics.UpdateOrderbookLevels(ob.Instrument, sideLabel(models.Buy), float64(ob.bids.NLevels()))
	metrics.UpdateOrderbookLevels(ob.Instrument, sideLabel(models.Sell), float64(ob.asks.NLevels()))
	bid, bidOK, ask, askOK := ob.BestBidAsk()
	bidF, _ := bid.Float64()
	askF, _ := ask.Float64()
	metrics.UpdateBestPrices(ob.Instrument, bidF, bidOK, askF, askOK)
}

func (ob *OrderBook) publishRested(o *models.Order) {
	if ob.bus == nil {
		return
	}
	ob.bus.Publish(notify.Event{Type: notify.EventRested, Data: notify.RestedPayload{Order: o.Clone()}})
}

func (ob *OrderBook) publishCancelled(o *models.Order) {
	if ob.bus == nil {
		return
	}
	ob.bus.Publish(notify.Event{Type: notify.EventCancelled, Data: notify.CancelledPayload{Order: o.Clone()}})
}

func (ob *OrderBook) publishUnmatched(o *models.Order, remaining decimal.Decimal, reason string) {
	ob.unmatched.Push(o.Side, o, remaining, reason, o.CreatedAt)
	metrics.RecordOrderUnmatched(ob.Instrument, reason)
	if ob.bus == nil {
		return
	}
	ob.bus.Publish(notify.Event{Type: notify.EventUnmatched, Data: notify.UnmatchedPayload{
		Order:     o.Clone(),
		Unmatched: remaining,
		Reason:    reason,
	}})
}

func (ob *OrderBook) publishTrade(t Trade) {
	metrics.RecordTrade(ob.Instrument, t.Size.InexactFloat64())
	if ob.bus == nil {
		return
	}
	ob.bus.Publish(notify.Event{Type: notify.EventTrade, Data: notify.TradePayload{
		TradeID:       t.TradeID,
		BuyOrderID:    t.BuyOrderID,
		SellOrderID:   t.SellOrderID,
		Price:         t.Price,
		Size:          t.Size,
		AggressorSide: t.AggressorSide,
		At:            t.At,
	}})
}
