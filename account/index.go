// Package account maintains the secondary index from account id to the
// set of that account's resting orders, so cancels and account-level
// queries never need a full book scan.
package account

import (
	"sort"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/sahithikokkula/lobcore/models"
)

// OrderHandle is enough to find a resting order in the book proper
// without this index having to hold a second copy of the order itself,
// which would drift the moment the order partially filled.
type OrderHandle struct {
	OrderID int64
	Side    models.Side
	Price   decimal.Decimal
}

// location records where a resting order lives, as far as the index is
// concerned: its side and price are what the caller needs to find it in
// the book proper.
type location struct {
	orderID int64
	side    models.Side
	price   decimal.Decimal
}

func (l location) handle() OrderHandle {
	return OrderHandle{OrderID: l.orderID, Side: l.side, Price: l.price}
}

// AccountIndex maps account ids to the orders they currently have
// resting, ordered by order id for deterministic iteration.
type AccountIndex struct {
	mu       sync.RWMutex
	byAcct   map[int64]map[int64]location
	orderOwn map[int64]int64 // orderID -> acctID, for fast unregister-by-order-id
}

// NewAccountIndex returns an empty index.
func NewAccountIndex() *AccountIndex {
	return &AccountIndex{
		byAcct:   make(map[int64]map[int64]location),
		orderOwn: make(map[int64]int64),
	}
}

// Register records that acctID now has handle resting.
func (idx *AccountIndex) Register(acctID int64, handle OrderHandle) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	orders, ok := idx.byAcct[acctID]
	if !ok {
		orders = make(map[int64]location)
		idx.byAcct[acctID] = orders
	}
	orders[handle.OrderID] = location{orderID: handle.OrderID, side: handle.Side, price: handle.Price}
	idx.orderOwn[handle.OrderID] = acctID
}

// Unregister removes orderID from its owning account's resting set,
// wherever that account is.
func (idx *AccountIndex) Unregister(orderID int64) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.unregisterLocked(orderID)
}

func (idx *AccountIndex) unregisterLocked(orderID int64) {
	acctID, ok := idx.orderOwn[orderID]
	if !ok {
		return
	}
	delete(idx.orderOwn, orderID)
	orders := idx.byAcct[acctID]
	delete(orders, orderID)
	if len(orders) == 0 {
		delete(idx.byAcct, acctID)
	}
}

// OwnerOf returns the account id that owns orderID, if any.
func (idx *AccountIndex) OwnerOf(orderID int64) (int64, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	acctID, ok := idx.orderOwn[orderID]
	return acctID, ok
}

// Get returns a handle for every order currently resting for acctID,
// sorted ascending by order id for deterministic output.
func (idx *AccountIndex) Get(acctID int64) []OrderHandle {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	orders, ok := idx.byAcct[acctID]
	if !ok {
		return nil
	}
	ids := make([]int64, 0, len(orders))
	for id := range orders {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	handles := make([]OrderHandle, len(ids))
	for i, id := range ids {
		handles[i] = orders[id].handle()
	}
	return handles
}

// NOrders returns how many orders acctID currently has resting.
func (idx *AccountIndex) NOrders(acctID int64) int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.byAcct[acctID])
}

// NAccounts returns how many distinct accounts currently have resting
// orders.
func (idx *AccountIndex) NAccounts() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.byAcct)
}
