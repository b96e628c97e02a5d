// Package unmatched holds orders (or order residuals) that could not
// rest on the book — immediate-or-cancel remainders, fill-or-kill
// rejections — in priority order, purely so external listeners can be
// notified about them after the fact. Nothing in the matching path reads
// this structure back; it is a one-way drop box.
package unmatched

import (
	"sync"
	"time"

	"github.com/google/btree"
	"github.com/shopspring/decimal"

	"github.com/sahithikokkula/lobcore/models"
)

const degree = 32

// Entry is an unmatched order together with the reason it landed here.
type Entry struct {
	Order     *models.Order
	Reason    string
	Unmatched decimal.Decimal
	At        time.Time
	seq       int64
}

// Less orders entries within a single side's tree: by price in that
// side's own crossing priority (buy descending, sell ascending), then by
// arrival time, then by order id, then by insertion order. Every pair of
// entries compared
// here is guaranteed to share the same side, since UnmatchedOrderBook
// never mixes Buy and Sell entries into one tree.
func (e *Entry) Less(than btree.Item) bool {
	o := than.(*Entry)
	if !e.Order.Price.Equal(o.Order.Price) {
		if e.Order.Side == models.Buy {
			return e.Order.Price.GreaterThan(o.Order.Price)
		}
		return e.Order.Price.LessThan(o.Order.Price)
	}
	if !e.At.Equal(o.At) {
		return e.At.Before(o.At)
	}
	if e.Order.OrderID != o.Order.OrderID {
		return e.Order.OrderID < o.Order.OrderID
	}
	return e.seq < o.seq
}

// UnmatchedOrderBook is a priority-ordered collection of Entry, kept as
// two independent trees, one per side. Buy's descending-price priority
// and Sell's ascending-price priority are opposite orderings that cannot
// share one btree.Item.Less relation, so each side gets its own tree
// rather than one shared tree branching on the entry's own side.
type UnmatchedOrderBook struct {
	mu    sync.Mutex
	trees map[models.Side]*btree.BTree
	next  int64
}

// NewUnmatchedOrderBook returns an empty collection.
func NewUnmatchedOrderBook() *UnmatchedOrderBook {
	return &UnmatchedOrderBook{
		trees: map[models.Side]*btree.BTree{
			models.Buy:  btree.New(degree),
			models.Sell: btree.New(degree),
		},
	}
}

// Push records an unmatched order for later notification, filed under
// side's own tree.
func (u *UnmatchedOrderBook) Push(side models.Side, o *models.Order, unmatchedSize decimal.Decimal, reason string, at time.Time) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.next++
	u.trees[side].ReplaceOrInsert(&Entry{
		Order:     o.Clone(),
		Reason:    reason,
		Unmatched: unmatchedSize,
		At:        at,
		seq:       u.next,
	})
}

// Len returns how many entries are currently queued across both sides.
func (u *UnmatchedOrderBook) Len() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.trees[models.Buy].Len() + u.trees[models.Sell].Len()
}

// LenSide returns how many entries are currently queued on side.
func (u *UnmatchedOrderBook) LenSide(side models.Side) int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.trees[side].Len()
}

// PopAll drains every entry on side, in priority order.
func (u *UnmatchedOrderBook) PopAll(side models.Side) []*Entry {
	u.mu.Lock()
	defer u.mu.Unlock()
	var drained []*Entry
	u.trees[side].Ascend(func(it btree.Item) bool {
		drained = append(drained, it.(*Entry))
		return true
	})
	u.trees[side] = btree.New(degree)
	return drained
}

// PopUnmatchedWithFilter scans side in priority order and removes the first entry
// for which pred reports true, leaving every other entry queued. It
// reports ok=false if no entry on side currently satisfies pred.
func (u *UnmatchedOrderBook) PopUnmatchedWithFilter(side models.Side, pred func(*Entry) bool) (*Entry, bool) {
	u.mu.Lock()
	defer u.mu.Unlock()
	tree := u.trees[side]
	var found *Entry
	tree.Ascend(func(it btree.Item) bool {
		e := it.(*Entry)
		if pred(e) {
			found = e
			return false
		}
		return true
	})
	if found == nil {
		return nil, false
	}
	tree.Delete(found)
	return found, true
}

// DrainAll removes and returns every queued entry on both sides, buy
// side first, each in its own priority order.
func (u *UnmatchedOrderBook) DrainAll() []*Entry {
	drained := u.PopAll(models.Buy)
	return append(drained, u.PopAll(models.Sell)...)
}
