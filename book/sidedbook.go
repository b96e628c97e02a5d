package book

import (
	"sync"

	"github.com/google/btree"
	"github.com/shopspring/decimal"

	"github.com/sahithikokkula/lobcore/models"
)

// degree mirrors the teacher's choice for the underlying btree's branching
// factor; it is not exposed because nothing outside this package needs to
// tune it.
const degree = 32

// OneSidedBook is the resting-order half of a book for one side (all bids
// or all asks), indexed by price via a balanced tree of PriceLevel queues.
type OneSidedBook struct {
	mu     sync.RWMutex
	side   models.Side
	tree   *btree.BTree
	levels map[string]*PriceLevel
	nOrd   int
}

// NewOneSidedBook returns an empty book for the given side. side determines
// which direction counts as "best": the highest price for Buy, the lowest
// for Sell.
func NewOneSidedBook(side models.Side) *OneSidedBook {
	return &OneSidedBook{
		side:   side,
		tree:   btree.New(degree),
		levels: make(map[string]*PriceLevel),
	}
}

func priceKey(p decimal.Decimal) string {
	return p.String()
}

func (b *OneSidedBook) levelAt(price decimal.Decimal) *PriceLevel {
	return b.levels[priceKey(price)]
}

func (b *OneSidedBook) getOrCreateLevel(price decimal.Decimal) *PriceLevel {
	if lvl := b.levelAt(price); lvl != nil {
		return lvl
	}
	lvl := newPriceLevel(price)
	b.levels[priceKey(price)] = lvl
	b.tree.ReplaceOrInsert(lvl)
	return lvl
}

func (b *OneSidedBook) dropLevelIfEmpty(lvl *PriceLevel) {
	if !lvl.Empty() {
		return
	}
	b.tree.Delete(lvl)
	delete(b.levels, priceKey(lvl.Price))
}

// AddOrder rests an order at its limit price. Callers own id uniqueness
// and side assignment; this only appends to the FIFO queue at that price.
func (b *OneSidedBook) AddOrder(o *models.Order) {
	b.mu.Lock()
	defer b.mu.Unlock()
	lvl := b.getOrCreateLevel(o.Price)
	lvl.PushBack(o)
	b.nOrd++
}

// RemoveOrder cancels a resting order given its price and id.
func (b *OneSidedBook) RemoveOrder(price decimal.Decimal, orderID int64) (*models.Order, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	lvl := b.levelAt(price)
	if lvl == nil {
		return nil, false
	}
	o, ok := lvl.Remove(orderID)
	if !ok {
		return nil, false
	}
	b.nOrd--
	b.dropLevelIfEmpty(lvl)
	return o, true
}

// bestLevel returns the level that would trade next: max price for bids,
// min price for asks.
func (b *OneSidedBook) bestLevel() *PriceLevel {
	var best btree.Item
	if b.side == models.Buy {
		best = b.tree.Max()
	} else {
		best = b.tree.Min()
	}
	if best == nil {
		return nil
	}
	return best.(*PriceLevel)
}

// BestPrice returns the best resting price and whether one exists.
func (b *OneSidedBook) BestPrice() (decimal.Decimal, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	lvl := b.bestLevel()
	if lvl == nil {
		return decimal.Zero, false
	}
	return lvl.Price, true
}

// BestVolume returns the aggregate remaining size at the best price.
func (b *OneSidedBook) BestVolume() decimal.Decimal {
	b.mu.RLock()
	defer b.mu.RUnlock()
	lvl := b.bestLevel()
	if lvl == nil {
		return decimal.Zero
	}
	return lvl.Volume()
}

// Len returns the total number of resting orders on this side.
func (b *OneSidedBook) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.nOrd
}

// Volume returns the total remaining size resting on this side.
func (b *OneSidedBook) Volume() decimal.Decimal {
	b.mu.RLock()
	defer b.mu.RUnlock()
	total := decimal.Zero
	b.tree.Ascend(func(it btree.Item) bool {
		total = total.Add(it.(*PriceLevel).Volume())
		return true
	})
	return total
}

// NLevels returns the number of distinct resting prices on this side.
func (b *OneSidedBook) NLevels() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.tree.Len()
}

// TradeAtBest matches up to want units against the head order of the best
// price level, FIFO. It returns the level's price, a snapshot of the head
// order as it stood before this trade, how much was traded against it,
// whether the head order was fully consumed (and so removed from the
// book), and ok=false if the side is empty.
func (b *OneSidedBook) TradeAtBest(want decimal.Decimal) (price decimal.Decimal, head *models.Order, traded decimal.Decimal, headRemoved bool, ok bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	lvl := b.bestLevel()
	if lvl == nil {
		return decimal.Zero, nil, decimal.Zero, false, false
	}
	live := lvl.Front()
	snapshot := live.Clone()
	traded = decimal.Min(want, live.Size)
	if traded.Equal(live.Size) {
		lvl.PopFront()
		headRemoved = true
	} else {
		lvl.Reduce(live.OrderID, traded)
		headRemoved = false
	}
	if headRemoved {
		b.nOrd--
	}
	b.dropLevelIfEmpty(lvl)
	return lvl.Price, snapshot, traded, headRemoved, true
}

// AvailableUpTo sums remaining size across every level a crossing order
// with limit limitPrice (or, for a market order, an unbounded limit) would
// be eligible to trade against, in priority order. It stops walking once
// a level's price no longer satisfies the limit. Used for the all-or-none
// liquidity precheck.
func (b *OneSidedBook) AvailableUpTo(limitPrice decimal.Decimal, unbounded bool) decimal.Decimal {
	b.mu.RLock()
	defer b.mu.RUnlock()
	total := decimal.Zero
	walk := func(it btree.Item) bool {
		lvl := it.(*PriceLevel)
		if !unbounded && !b.eligible(lvl.Price, limitPrice) {
			return false
		}
		total = total.Add(lvl.Volume())
		return true
	}
	if b.side == models.Buy {
		b.tree.Descend(walk)
	} else {
		b.tree.Ascend(walk)
	}
	return total
}

// eligible reports whether resting price p on this side crosses an
// incoming limit of limitPrice: bids must be priced at or above a sell
// limit's floor... this helper is evaluated from the resting side's own
// point of view, so it simply checks the resting price against the
// opposing limit using this side's natural crossing direction.
func (b *OneSidedBook) eligible(restingPrice, incomingLimit decimal.Decimal) bool {
	if b.side == models.Buy {
		return restingPrice.GreaterThanOrEqual(incomingLimit)
	}
	return restingPrice.LessThanOrEqual(incomingLimit)
}

// IterateFromBest walks price levels in priority order, best first,
// calling fn on each until fn returns false or the side is exhausted.
func (b *OneSidedBook) IterateFromBest(fn func(lvl *PriceLevel) bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.side == models.Buy {
		b.tree.Descend(func(it btree.Item) bool { return fn(it.(*PriceLevel)) })
	} else {
		b.tree.Ascend(func(it btree.Item) bool { return fn(it.(*PriceLevel)) })
	}
}

// Find locates a resting order by price and id without removing it.
func (b *OneSidedBook) Find(price decimal.Decimal, orderID int64) (*models.Order, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	lvl := b.levelAt(price)
	if lvl == nil {
		return nil, false
	}
	return lvl.Find(orderID)
}

// Clear removes every resting order from this side.
func (b *OneSidedBook) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.tree = btree.New(degree)
	b.levels = make(map[string]*PriceLevel)
	b.nOrd = 0
}

// DrainAll removes every resting order from this side and returns them,
// best price first and FIFO within a price.
func (b *OneSidedBook) DrainAll() []*models.Order {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []*models.Order
	walk := func(it btree.Item) bool {
		it.(*PriceLevel).Each(func(o *models.Order) { out = append(out, o) })
		return true
	}
	if b.side == models.Buy {
		b.tree.Descend(walk)
	} else {
		b.tree.Ascend(walk)
	}
	b.tree = btree.New(degree)
	b.levels = make(map[string]*PriceLevel)
	b.nOrd = 0
	return out
}
