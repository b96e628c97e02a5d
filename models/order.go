package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Side is the side of an order or a book: buy or sell.
type Side int8

const (
	Buy Side = iota
	Sell
)

// String renders a side the way the core's CSV snapshot format expects it.
func (s Side) String() string {
	if s == Buy {
		return "OrderSide(Buy)"
	}
	return "OrderSide(Sell)"
}

// Opposite returns the other side of the book.
func (s Side) Opposite() Side {
	if s == Buy {
		return Sell
	}
	return Buy
}

// OrderTraits is the triple of independent flags that parameterizes
// execution. See VANILLA, IOC and FOK for the three constants the book
// actually exercises.
type OrderTraits struct {
	AllOrNone         bool
	ImmediateOrCancel bool
	AllowCross        bool
}

// FillOrKill reports whether the traits require atomic full execution.
func (t OrderTraits) FillOrKill() bool {
	return t.AllOrNone && t.ImmediateOrCancel
}

// MayRest reports whether a residual of this order is allowed to rest.
func (t OrderTraits) MayRest() bool {
	return !t.ImmediateOrCancel
}

// MayPartialFill reports whether the order can be filled in pieces.
func (t OrderTraits) MayPartialFill() bool {
	return !t.AllOrNone
}

var (
	// VANILLA may partial-fill and may rest.
	VANILLA = OrderTraits{AllOrNone: false, ImmediateOrCancel: false, AllowCross: true}
	// IOC executes what is possible now and discards any residual.
	IOC = OrderTraits{AllOrNone: false, ImmediateOrCancel: true, AllowCross: true}
	// FOK executes the entire size atomically or not at all.
	FOK = OrderTraits{AllOrNone: true, ImmediateOrCancel: true, AllowCross: true}
)

// Order is a resting or transient limit order. Size is the remaining,
// unfilled quantity: it is decremented directly by matches, never tracked
// separately from a "filled" counter.
type Order struct {
	OrderID   int64
	AcctID    *int64
	Side      Side
	Size      decimal.Decimal
	Price     decimal.Decimal
	Traits    OrderTraits
	CreatedAt time.Time
}

// Clone returns a shallow copy safe to hand to a caller without letting
// them mutate the resting order's live state.
func (o *Order) Clone() *Order {
	c := *o
	return &c
}
