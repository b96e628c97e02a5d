// Package snapshot writes and reads the book's plain-text CSV
// serialization: one line per resting order, best price first on each
// side, in the format "LMT,<order_id>,<side>,<size>,<price>,<acct_id>".
package snapshot

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/sahithikokkula/lobcore/book"
	"github.com/sahithikokkula/lobcore/models"
)

const recordKind = "LMT"

// Book is the minimal surface snapshot needs from an order book: read
// access to both resting sides.
type Book interface {
	Bids() *book.OneSidedBook
	Asks() *book.OneSidedBook
}

// Write serializes every resting order on both sides of ob to w, bids
// then asks, each side best price first and FIFO within a price.
func Write(w io.Writer, ob Book) error {
	bw := bufio.NewWriter(w)
	var writeErr error
	write := func(lvl *book.PriceLevel) bool {
		lvl.Each(func(o *models.Order) {
			if writeErr != nil {
				return
			}
			_, writeErr = fmt.Fprintln(bw, encode(o))
		})
		return writeErr == nil
	}
	ob.Bids().IterateFromBest(write)
	if writeErr == nil {
		ob.Asks().IterateFromBest(write)
	}
	if writeErr != nil {
		return writeErr
	}
	return bw.Flush()
}

func encode(o *models.Order) string {
	acct := ""
	if o.AcctID != nil {
		acct = strconv.FormatInt(*o.AcctID, 10)
	}
	return strings.Join([]string{
		recordKind,
		strconv.FormatInt(o.OrderID, 10),
		o.Side.String(),
		o.Size.String(),
		o.Price.String(),
		acct,
	}, ",")
}

// Record is one parsed line of a snapshot: enough to reconstruct an
// order via a submit call, but not itself a *models.Order since it
// carries no created-at timestamp.
type Record struct {
	OrderID int64
	Side    models.Side
	Size    decimal.Decimal
	Price   decimal.Decimal
	AcctID  *int64
}

// Read parses every line of r as a snapshot record.
func Read(r io.Reader) ([]Record, error) {
	scanner := bufio.NewScanner(r)
	var records []Record
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		rec, err := decode(text)
		if err != nil {
			return nil, fmt.Errorf("snapshot line %d: %w", line, err)
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

func decode(line string) (Record, error) {
	fields := strings.Split(line, ",")
	if len(fields) != 6 || fields[0] != recordKind {
		return Record{}, fmt.Errorf("malformed record %q", line)
	}
	orderID, err := strconv.ParseInt(fields[1], 10, 64)
	if err != nil {
		return Record{}, fmt.Errorf("order id: %w", err)
	}
	side, err := decodeSide(fields[2])
	if err != nil {
		return Record{}, err
	}
	size, err := decimal.NewFromString(fields[3])
	if err != nil {
		return Record{}, fmt.Errorf("size: %w", err)
	}
	price, err := decimal.NewFromString(fields[4])
	if err != nil {
		return Record{}, fmt.Errorf("price: %w", err)
	}
	var acctID *int64
	if fields[5] != "" {
		id, err := strconv.ParseInt(fields[5], 10, 64)
		if err != nil {
			return Record{}, fmt.Errorf("account id: %w", err)
		}
		acctID = &id
	}
	return Record{OrderID: orderID, Side: side, Size: size, Price: price, AcctID: acctID}, nil
}

func decodeSide(s string) (models.Side, error) {
	switch s {
	case "OrderSide(Buy)":
		return models.Buy, nil
	case "OrderSide(Sell)":
		return models.Sell, nil
	default:
		return 0, fmt.Errorf("unknown side %q", s)
	}
}
