package engine

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/sahithikokkula/lobcore/metrics"
	"github.com/sahithikokkula/lobcore/models"
	"github.com/sahithikokkula/lobcore/notify"
)

// LimitResult is what a limit order submission produced: the trades
// executed immediately, how much of the order's size was left over once
// the walk stopped, and whether that residual came to rest on the book
// (false means the order was fully filled, or its residual was dropped to
// the unmatched queue instead).
type LimitResult struct {
	Trades        []Trade
	ResidualSize  decimal.Decimal
	ResidualRests bool
}

// MarketSizeResult is what a size-denominated market order produced.
type MarketSizeResult struct {
	Trades       []Trade
	UnfilledSize decimal.Decimal
}

// MarketFundsResult is what a funds-denominated market order produced.
type MarketFundsResult struct {
	Trades        []Trade
	UnfilledFunds decimal.Decimal
}

// crosses reports whether a resting price on the opposing side satisfies
// an incoming order's limit: a buy crosses any ask at or below its
// price, a sell crosses any bid at or above its price.
func crosses(incomingSide models.Side, incomingLimit, restingPrice decimal.Decimal) bool {
	if incomingSide == models.Buy {
		return restingPrice.LessThanOrEqual(incomingLimit)
	}
	return restingPrice.GreaterThanOrEqual(incomingLimit)
}

func makeTrade(incoming *models.Order, head *models.Order, price, size decimal.Decimal, at time.Time) Trade {
	t := Trade{
		TradeID: notify.NewTradeID(),
		Price:   price,
		Size:    size,
		At:      at,
	}
	if incoming.Side == models.Buy {
		t.BuyOrderID, t.SellOrderID = incoming.OrderID, head.OrderID
	} else {
		t.BuyOrderID, t.SellOrderID = head.OrderID, incoming.OrderID
	}
	t.AggressorSide = incoming.Side
	return t
}

// walk matches incoming against the opposing side, best price first,
// until either incoming is fully filled, the opposing side runs out of
// eligible liquidity, or (when limited is true) the next best price no
// longer crosses incoming's limit. It returns the trades produced and
// the size of incoming still unfilled when the walk stopped.
func (ob *OrderBook) walk(incoming *models.Order, limited bool) ([]Trade, decimal.Decimal) {
	opposing := ob.opposing(incoming.Side)
	remaining := incoming.Size
	var trades []Trade

	for remaining.IsPositive() {
		bestPrice, ok := opposing.BestPrice()
		if !ok {
			break
		}
		if limited && !crosses(incoming.Side, incoming.Price, bestPrice) {
			break
		}
		price, head, traded, headRemoved, ok := opposing.TradeAtBest(remaining)
		if !ok {
			break
		}
		remaining = remaining.Sub(traded)
		trade := makeTrade(incoming, head, price, traded, incoming.CreatedAt)
		trades = append(trades, trade)
		ob.publishTrade(trade)
		if headRemoved {
			ob.forget(head.OrderID)
		}
	}
	if len(trades) > 0 {
		ob.recordBookMetrics()
	}
	return trades, remaining
}

// SubmitLimitOrder runs a limit order through the matching algorithm:
// it walks eligible opposing liquidity, then rests, discards or is
// rejected as a whole according to its traits.
//
// AllowCross=false skips the walk entirely and always rests the order;
// the book never rejects a resting-only order for crossing the spread,
// it simply declines to take liquidity on its way in.
func (ob *OrderBook) SubmitLimitOrder(o *models.Order) (LimitResult, error) {
	if _, exists := ob.locations[o.OrderID]; exists {
		metrics.RecordOrderRejected(ob.Instrument, "duplicate_order_id")
		return LimitResult{}, models.ErrDuplicateOrderID
	}
	if !o.Price.IsPositive() {
		metrics.RecordOrderRejected(ob.Instrument, "invalid_price")
		return LimitResult{}, models.ErrInvalidPrice
	}
	if !o.Size.IsPositive() {
		metrics.RecordOrderRejected(ob.Instrument, "invalid_size")
		return LimitResult{}, models.ErrInvalidSize
	}

	if !o.Traits.AllowCross {
		ob.rest(o)
		return LimitResult{ResidualSize: o.Size, ResidualRests: true}, nil
	}

	if o.Traits.FillOrKill() {
		available := ob.opposing(o.Side).AvailableUpTo(o.Price, false)
		if available.LessThan(o.Size) {
			ob.publishUnmatched(o, o.Size, "fok_rejected")
			return LimitResult{ResidualSize: o.Size, ResidualRests: false}, nil
		}
	}

	if !o.Traits.MayPartialFill() && !o.Traits.FillOrKill() {
		// All-or-none but not immediate-or-cancel: still requires the
		// full size to be available now, since a partially-filled
		// resting AON order is not representable by this book.
		available := ob.opposing(o.Side).AvailableUpTo(o.Price, false)
		if available.LessThan(o.Size) {
			ob.rest(o)
			return LimitResult{ResidualSize: o.Size, ResidualRests: true}, nil
		}
	}

	trades, remaining := ob.walk(o, true)

	if remaining.IsZero() {
		return LimitResult{Trades: trades, ResidualSize: decimal.Zero, ResidualRests: false}, nil
	}

	residual := o.Clone()
	residual.Size = remaining
	rests := residual.Traits.MayRest()
	if rests {
		ob.rest(residual)
	} else {
		ob.publishUnmatched(residual, remaining, "ioc_residual")
	}
	return LimitResult{Trades: trades, ResidualSize: remaining, ResidualRests: rests}, nil
}

// SubmitMarketOrderBySize matches an incoming order of the given size
// against the opposing side regardless of price, best price first.
// Market orders never rest: whatever cannot be filled immediately is
// dropped to the unmatched queue.
func (ob *OrderBook) SubmitMarketOrderBySize(orderID int64, acctID *int64, side models.Side, size decimal.Decimal, at time.Time) (MarketSizeResult, error) {
	if !size.IsPositive() {
		metrics.RecordOrderRejected(ob.Instrument, "invalid_size")
		return MarketSizeResult{}, models.ErrInvalidSize
	}
	o := &models.Order{
		OrderID:   orderID,
		AcctID:    acctID,
		Side:      side,
		Size:      size,
		Price:     decimal.Zero,
		Traits:    models.IOC,
		CreatedAt: at,
	}
	trades, remaining := ob.walk(o, false)
	if remaining.IsPositive() {
		ob.publishUnmatched(o, remaining, "market_unfilled")
	}
	return MarketSizeResult{Trades: trades, UnfilledSize: remaining}, nil
}

// SubmitMarketOrderByFunds spends up to funds buying (or selling into)
// the opposing side, best price first, converting remaining funds into
// a quantity to take at each level as it walks.
func (ob *OrderBook) SubmitMarketOrderByFunds(orderID int64, acctID *int64, side models.Side, funds decimal.Decimal, at time.Time) (MarketFundsResult, error) {
	if !funds.IsPositive() {
		metrics.RecordOrderRejected(ob.Instrument, "invalid_size")
		return MarketFundsResult{}, models.ErrInvalidSize
	}
	opposing := ob.opposing(side)
	remainingFunds := funds
	var trades []Trade

	for remainingFunds.IsPositive() {
		bestPrice, ok := opposing.BestPrice()
		if !ok {
			break
		}
		wantQty := remainingFunds.Div(bestPrice)
		if !wantQty.IsPositive() {
			break
		}
		price, head, traded, headRemoved, ok := opposing.TradeAtBest(wantQty)
		if !ok {
			break
		}
		spent := traded.Mul(price)
		remainingFunds = remainingFunds.Sub(spent)

		synthetic := &models.Order{OrderID: orderID, AcctID: acctID, Side: side, Price: price, Size: traded, Traits: models.IOC, CreatedAt: at}
		trade := makeTrade(synthetic, head, price, traded, at)
		trades = append(trades, trade)
		ob.publishTrade(trade)
		if headRemoved {
			ob.forget(head.OrderID)
		}
	}
	if len(trades) > 0 {
		ob.recordBookMetrics()
	}

	if remainingFunds.IsPositive() && len(trades) == 0 {
		ob.publishUnmatched(&models.Order{OrderID: orderID, AcctID: acctID, Side: side, Price: decimal.Zero, Size: remainingFunds, Traits: models.IOC, CreatedAt: at}, remainingFunds, "market_by_funds_unfilled")
	}
	return MarketFundsResult{Trades: trades, UnfilledFunds: remainingFunds}, nil
}
