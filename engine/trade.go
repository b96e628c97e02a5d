package engine

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/sahithikokkula/lobcore/models"
)

// Trade is one execution between an incoming order and a resting order,
// recorded at the resting order's price per price-time priority.
type Trade struct {
	TradeID       string
	BuyOrderID    int64
	SellOrderID   int64
	Price         decimal.Decimal
	Size          decimal.Decimal
	AggressorSide models.Side
	At            time.Time
}
