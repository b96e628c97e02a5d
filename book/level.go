package book

import (
	"github.com/google/btree"
	"github.com/shopspring/decimal"
)

// PriceLevel is every resting order at a single price, held in arrival
// order. It implements btree.Item so a OneSidedBook can keep its levels
// in price order; direct lookup by price goes through the book's own
// price-keyed map.
type PriceLevel struct {
	Price decimal.Decimal
	*OrderQueue
}

func newPriceLevel(price decimal.Decimal) *PriceLevel {
	return &PriceLevel{Price: price, OrderQueue: NewOrderQueue()}
}

// Less orders price levels ascending by price, as required by btree.Item.
// A OneSidedBook walks this ascending for the ask side and in reverse for
// the bid side.
func (p *PriceLevel) Less(than btree.Item) bool {
	return p.Price.LessThan(than.(*PriceLevel).Price)
}
