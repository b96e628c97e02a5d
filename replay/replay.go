// Package replay drives an order book from a scenario file: a plain
// text batch of SUBMIT and CANCEL lines, useful for deterministic tests
// and manual exploration. The core itself never reads a scenario file;
// only this package, and only by calling the same submit/cancel entry
// points any other caller would use.
//
// Line formats:
//
//	SUBMIT,<order_id>,<acct_id>,<side:BUY|SELL>,<price>,<size>,<traits:VANILLA|IOC|FOK>
//	CANCEL,<order_id>,<side:BUY|SELL>,<price>,<acct_id or empty>
//
// Blank lines and lines starting with # are ignored.
package replay

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/sahithikokkula/lobcore/engine"
	"github.com/sahithikokkula/lobcore/models"
)

// Outcome records what one scenario line did. ResidualSize and
// ResidualRests are only meaningful for a "submit" outcome.
type Outcome struct {
	Line          int
	Kind          string
	OrderID       int64
	Trades        []engine.Trade
	ResidualSize  decimal.Decimal
	ResidualRests bool
	Err           error
}

// Run executes every line of r in order against ob, stopping at the
// first line that fails to parse. Runtime errors from submit/cancel
// (duplicate id, unknown order) are recorded on the Outcome rather than
// aborting the run, since a scenario intentionally exercising a
// rejection is a normal scenario.
func Run(r io.Reader, ob *engine.OrderBook) ([]Outcome, error) {
	scanner := bufio.NewScanner(r)
	var outcomes []Outcome
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		outcome, err := runLine(lineNo, text, ob)
		if err != nil {
			return outcomes, fmt.Errorf("scenario line %d: %w", lineNo, err)
		}
		outcomes = append(outcomes, outcome)
	}
	if err := scanner.Err(); err != nil {
		return outcomes, err
	}
	return outcomes, nil
}

func runLine(lineNo int, text string, ob *engine.OrderBook) (Outcome, error) {
	fields := strings.Split(text, ",")
	switch strings.ToUpper(fields[0]) {
	case "SUBMIT":
		return runSubmit(lineNo, fields, ob)
	case "CANCEL":
		return runCancel(lineNo, fields, ob)
	default:
		return Outcome{}, fmt.Errorf("unknown command %q", fields[0])
	}
}

func runSubmit(lineNo int, fields []string, ob *engine.OrderBook) (Outcome, error) {
	if len(fields) != 7 {
		return Outcome{}, fmt.Errorf("SUBMIT wants 6 arguments, got %d", len(fields)-1)
	}
	orderID, err := strconv.ParseInt(fields[1], 10, 64)
	if err != nil {
		return Outcome{}, fmt.Errorf("order id: %w", err)
	}
	acctVal, err := strconv.ParseInt(fields[2], 10, 64)
	if err != nil {
		return Outcome{}, fmt.Errorf("account id: %w", err)
	}
	side, err := parseSide(fields[3])
	if err != nil {
		return Outcome{}, err
	}
	price, err := decimal.NewFromString(fields[4])
	if err != nil {
		return Outcome{}, fmt.Errorf("price: %w", err)
	}
	size, err := decimal.NewFromString(fields[5])
	if err != nil {
		return Outcome{}, fmt.Errorf("size: %w", err)
	}
	traits, err := parseTraits(fields[6])
	if err != nil {
		return Outcome{}, err
	}

	o := &models.Order{
		OrderID:   orderID,
		AcctID:    &acctVal,
		Side:      side,
		Price:     price,
		Size:      size,
		Traits:    traits,
		CreatedAt: time.Now(),
	}
	result, submitErr := ob.SubmitLimitOrder(o)
	return Outcome{
		Line:          lineNo,
		Kind:          "submit",
		OrderID:       orderID,
		Trades:        result.Trades,
		ResidualSize:  result.ResidualSize,
		ResidualRests: result.ResidualRests,
		Err:           submitErr,
	}, nil
}

func runCancel(lineNo int, fields []string, ob *engine.OrderBook) (Outcome, error) {
	if len(fields) != 5 {
		return Outcome{}, fmt.Errorf("CANCEL wants 4 arguments, got %d", len(fields)-1)
	}
	orderID, err := strconv.ParseInt(fields[1], 10, 64)
	if err != nil {
		return Outcome{}, fmt.Errorf("order id: %w", err)
	}
	side, err := parseSide(fields[2])
	if err != nil {
		return Outcome{}, err
	}
	price, err := decimal.NewFromString(fields[3])
	if err != nil {
		return Outcome{}, fmt.Errorf("price: %w", err)
	}
	var acctID *int64
	if fields[4] != "" {
		id, err := strconv.ParseInt(fields[4], 10, 64)
		if err != nil {
			return Outcome{}, fmt.Errorf("account id: %w", err)
		}
		acctID = &id
	}
	_, cancelErr := ob.CancelOrder(orderID, side, price, acctID)
	return Outcome{Line: lineNo, Kind: "cancel", OrderID: orderID, Err: cancelErr}, nil
}

func parseSide(s string) (models.Side, error) {
	switch strings.ToUpper(s) {
	case "BUY":
		return models.Buy, nil
	case "SELL":
		return models.Sell, nil
	default:
		return 0, fmt.Errorf("unknown side %q", s)
	}
}

func parseTraits(s string) (models.OrderTraits, error) {
	switch strings.ToUpper(s) {
	case "VANILLA":
		return models.VANILLA, nil
	case "IOC":
		return models.IOC, nil
	case "FOK":
		return models.FOK, nil
	default:
		return models.OrderTraits{}, fmt.Errorf("unknown traits %q", s)
	}
}
