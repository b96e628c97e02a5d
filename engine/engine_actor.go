package engine

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/sahithikokkula/lobcore/logging"
	"github.com/sahithikokkula/lobcore/metrics"
	"github.com/sahithikokkula/lobcore/models"
	"github.com/sahithikokkula/lobcore/notify"
)

// ErrMailboxFull is returned when an engine's command queue has no room
// left for a new command.
var ErrMailboxFull = errors.New("engine mailbox is full")

// ErrEngineNotRunning is returned when a command is submitted to an
// engine that has not been started, or that has already stopped.
var ErrEngineNotRunning = errors.New("engine is not running")

type commandKind int

const (
	cmdSubmitLimit commandKind = iota
	cmdSubmitMarketSize
	cmdSubmitMarketFunds
	cmdCancel
)

type command struct {
	kind     commandKind
	order    *models.Order
	orderID  int64
	acctID   *int64
	side     models.Side
	price    decimal.Decimal
	amount   decimal.Decimal
	response chan Result
}

// Result is what a mailbox command resolves to. Only the fields relevant
// to the command's own kind are populated: a limit submission fills in
// ResidualSize/ResidualRests, a size-denominated market order fills in
// UnfilledSize, a funds-denominated one fills in UnfilledFunds, and a
// cancel fills in Order alone.
type Result struct {
	Trades        []Trade
	Order         *models.Order
	ResidualSize  decimal.Decimal
	ResidualRests bool
	UnfilledSize  decimal.Decimal
	UnfilledFunds decimal.Decimal
	Err           error
}

// Engine wraps a synchronous OrderBook with a single worker goroutine
// that drains a command mailbox, so every mutation to the book happens
// on one goroutine without any lock of its own being required.
type Engine struct {
	cfg  Config
	book *OrderBook

	mailbox  chan *command
	stopChan chan struct{}
	wg       sync.WaitGroup

	mu      sync.RWMutex
	running bool
}

// NewEngine returns a stopped engine for instrument. Call Start to begin
// processing commands.
func NewEngine(instrument string, bus *notify.Bus, opts ...Option) *Engine {
	cfg := defaultConfig(instrument)
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Engine{
		cfg:  cfg,
		book: NewOrderBook(instrument, bus),
	}
}

// Start spawns the worker goroutine. It is a no-op if already running.
func (e *Engine) Start(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.running {
		return nil
	}
	e.mailbox = make(chan *command, e.cfg.mailboxDepth)
	e.stopChan = make(chan struct{})
	e.running = true
	e.wg.Add(1)
	go e.worker(ctx)
	logging.LogEngineStarted(e.cfg.instrument)
	return nil
}

// Stop signals the worker to process every command already queued and
// exit, and waits for it to do so. The mailbox channel itself is not
// closed.
func (e *Engine) Stop() error {
	e.mu.Lock()
	if !e.running {
		e.mu.Unlock()
		return nil
	}
	e.running = false
	close(e.stopChan)
	e.mu.Unlock()

	e.wg.Wait()
	logging.LogEngineStopped(e.cfg.instrument)
	return nil
}

// IsRunning reports whether the worker goroutine is active.
func (e *Engine) IsRunning() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.running
}

func (e *Engine) worker(ctx context.Context) {
	defer e.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case <-e.stopChan:
			e.drain()
			return
		case cmd := <-e.mailbox:
			e.process(cmd)
		}
	}
}

// drain finishes every command already queued before the worker exits,
// so a caller blocked waiting on response never hangs past Stop.
func (e *Engine) drain() {
	for {
		select {
		case cmd := <-e.mailbox:
			e.process(cmd)
		default:
			return
		}
	}
}

func (e *Engine) process(cmd *command) {
	start := time.Now()
	var res Result
	switch cmd.kind {
	case cmdSubmitLimit:
		lr, err := e.book.SubmitLimitOrder(cmd.order)
		res = Result{Trades: lr.Trades, Order: cmd.order, ResidualSize: lr.ResidualSize, ResidualRests: lr.ResidualRests, Err: err}
	case cmdSubmitMarketSize:
		mr, err := e.book.SubmitMarketOrderBySize(cmd.orderID, cmd.acctID, cmd.side, cmd.amount, time.Now())
		res = Result{Trades: mr.Trades, UnfilledSize: mr.UnfilledSize, Err: err}
	case cmdSubmitMarketFunds:
		mr, err := e.book.SubmitMarketOrderByFunds(cmd.orderID, cmd.acctID, cmd.side, cmd.amount, time.Now())
		res = Result{Trades: mr.Trades, UnfilledFunds: mr.UnfilledFunds, Err: err}
	case cmdCancel:
		o, err := e.book.CancelOrder(cmd.orderID, cmd.side, cmd.price, cmd.acctID)
		res = Result{Order: o, Err: err}
	}
	metrics.RecordOrderLatency(e.cfg.instrument, kindLabel(cmd.kind), time.Since(start).Seconds())
	cmd.response <- res
}

func kindLabel(k commandKind) string {
	switch k {
	case cmdSubmitLimit:
		return "limit"
	case cmdSubmitMarketSize:
		return "market_by_size"
	case cmdSubmitMarketFunds:
		return "market_by_funds"
	case cmdCancel:
		return "cancel"
	default:
		return "unknown"
	}
}

func (e *Engine) enqueue(cmd *command) (Result, error) {
	cmd.response = make(chan Result, 1)
	// The read lock is held across the hand-off so Stop cannot let the
	// worker drain and exit between the running check and the send.
	e.mu.RLock()
	if !e.running {
		e.mu.RUnlock()
		return Result{}, ErrEngineNotRunning
	}
	mailbox := e.mailbox
	select {
	case mailbox <- cmd:
	default:
		e.mu.RUnlock()
		logging.LogMailboxFull(e.cfg.instrument)
		return Result{}, ErrMailboxFull
	}
	e.mu.RUnlock()
	metrics.UpdateMailboxDepth(e.cfg.instrument, float64(len(mailbox)))
	return <-cmd.response, nil
}

// SubmitOrder queues a limit order for matching.
func (e *Engine) SubmitOrder(o *models.Order) (Result, error) {
	res, err := e.enqueue(&command{kind: cmdSubmitLimit, order: o})
	if err != nil {
		return res, err
	}
	if res.Err == nil {
		metrics.RecordOrderAccepted(e.cfg.instrument, sideLabel(o.Side), traitsLabel(o.Traits))
		logging.LogOrderAccepted("", o.OrderID, e.cfg.instrument, sideLabel(o.Side))
	}
	return res, res.Err
}

// SubmitMarketOrderBySize queues a market order for the given size.
func (e *Engine) SubmitMarketOrderBySize(orderID int64, acctID *int64, side models.Side, size decimal.Decimal) (Result, error) {
	res, err := e.enqueue(&command{kind: cmdSubmitMarketSize, orderID: orderID, acctID: acctID, side: side, amount: size})
	if err != nil {
		return res, err
	}
	return res, res.Err
}

// SubmitMarketOrderByFunds queues a market order sized by funds to spend.
func (e *Engine) SubmitMarketOrderByFunds(orderID int64, acctID *int64, side models.Side, funds decimal.Decimal) (Result, error) {
	res, err := e.enqueue(&command{kind: cmdSubmitMarketFunds, orderID: orderID, acctID: acctID, side: side, amount: funds})
	if err != nil {
		return res, err
	}
	return res, res.Err
}

// CancelOrder queues a cancel for orderID, resting on side at price.
// acctID, when non-nil, must match the resting order's owner.
func (e *Engine) CancelOrder(orderID int64, side models.Side, price decimal.Decimal, acctID *int64) (Result, error) {
	res, err := e.enqueue(&command{kind: cmdCancel, orderID: orderID, side: side, price: price, acctID: acctID})
	if err != nil {
		return res, err
	}
	return res, res.Err
}

// Book exposes the underlying order book directly, bypassing the
// mailbox. Aggregate queries that only touch book.OneSidedBook (best
// price, volume, order counts) are safe to call while the engine is
// running, since those structures own their own locking. Order-level
// lookups such as GetOrder are not: they read state the worker goroutine
// mutates without synchronization, so only call those while the engine
// is stopped or from within the worker goroutine itself.
func (e *Engine) Book() *OrderBook {
	return e.book
}

func sideLabel(s models.Side) string {
	if s == models.Buy {
		return "buy"
	}
	return "sell"
}

func traitsLabel(t models.OrderTraits) string {
	switch {
	case t.FillOrKill():
		return "fok"
	case t.ImmediateOrCancel:
		return "ioc"
	default:
		return "vanilla"
	}
}
