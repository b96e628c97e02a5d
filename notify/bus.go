// Package notify is the core's one-way notification channel: an
// in-process publish/subscribe bus that tells interested listeners about
// trades, rests, cancels and unmatched residuals after the fact. Nothing
// it publishes ever feeds back into matching decisions, and nothing here
// talks to a network transport.
package notify

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/sahithikokkula/lobcore/models"
)

// EventType discriminates the payload carried by an Event.
type EventType int

const (
	EventTrade EventType = iota
	EventRested
	EventCancelled
	EventUnmatched
	EventUnmatchedPopped
)

// TradePayload describes one execution between an aggressor and a
// resting order.
type TradePayload struct {
	TradeID      string
	BuyOrderID   int64
	SellOrderID  int64
	Price        decimal.Decimal
	Size         decimal.Decimal
	AggressorSide models.Side
	At           time.Time
}

// RestedPayload describes an order that came to rest on the book,
// whether newly submitted or left over after a partial match.
type RestedPayload struct {
	Order *models.Order
}

// CancelledPayload describes an order removed from the book by request.
type CancelledPayload struct {
	Order *models.Order
}

// UnmatchedPayload describes an order or residual that could not rest
// and was dropped, along with why.
type UnmatchedPayload struct {
	Order     *models.Order
	Unmatched decimal.Decimal
	Reason    string
}

// UnmatchedPoppedPayload describes an unmatched entry an external
// dispatcher pulled off the queue via OrderBook.PopUnmatchedWithFilter,
// e.g. because the book has since moved enough for it to be worth
// re-attempting.
type UnmatchedPoppedPayload struct {
	Order     *models.Order
	Unmatched decimal.Decimal
	Reason    string
}

// Event is one notification fired onto the bus.
type Event struct {
	Type EventType
	At   time.Time
	Data interface{}
}

// Listener receives events of the type it subscribed to.
type Listener func(Event)

// Bus fans a published event out to every listener subscribed to its
// type, each invoked on its own goroutine so a slow listener can never
// stall matching.
type Bus struct {
	mu        sync.RWMutex
	listeners map[EventType][]Listener
}

// NewBus returns an empty bus.
func NewBus() *Bus {
	return &Bus{listeners: make(map[EventType][]Listener)}
}

// Subscribe registers fn to be called for every future event of typ.
func (b *Bus) Subscribe(typ EventType, fn Listener) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.listeners[typ] = append(b.listeners[typ], fn)
}

// Publish fires ev to every listener subscribed to its type.
func (b *Bus) Publish(ev Event) {
	b.mu.RLock()
	fns := append([]Listener(nil), b.listeners[ev.Type]...)
	b.mu.RUnlock()
	for _, fn := range fns {
		go fn(ev)
	}
}

// NewTradeID mints a fresh unique identifier for a trade.
func NewTradeID() string {
	return uuid.New().String()
}

// ListenerCount reports how many listeners are subscribed to typ, mostly
// useful from tests.
func (b *Bus) ListenerCount(typ EventType) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.listeners[typ])
}
