// Package book implements the price-ordered, time-ordered resting order
// storage used by one side of an order book: a FIFO queue per price level
// (OrderQueue) and the balanced-tree index over those levels (OneSidedBook).
package book

import (
	"container/list"

	"github.com/shopspring/decimal"

	"github.com/sahithikokkula/lobcore/models"
)

// OrderQueue is a FIFO queue of resting orders at a single price, with
// O(1) aggregate volume and count and O(1) removal by id through an
// id-to-element map.
type OrderQueue struct {
	orders  *list.List
	byID    map[int64]*list.Element
	volume  decimal.Decimal
	nOrders int
}

// NewOrderQueue returns an empty queue.
func NewOrderQueue() *OrderQueue {
	return &OrderQueue{
		orders: list.New(),
		byID:   make(map[int64]*list.Element),
		volume: decimal.Zero,
	}
}

// PushBack appends an order to the tail of the queue.
func (q *OrderQueue) PushBack(o *models.Order) {
	el := q.orders.PushBack(o)
	q.byID[o.OrderID] = el
	q.volume = q.volume.Add(o.Size)
	q.nOrders++
}

// PushFront re-queues an order at the head of the queue, ahead of every
// order already waiting. Used to restore an order to the front of its
// price level rather than losing its place in line, e.g. undoing a
// trade that failed to settle downstream of the walk.
func (q *OrderQueue) PushFront(o *models.Order) {
	el := q.orders.PushFront(o)
	q.byID[o.OrderID] = el
	q.volume = q.volume.Add(o.Size)
	q.nOrders++
}

// Front returns the head order without removing it.
func (q *OrderQueue) Front() *models.Order {
	if q.orders.Len() == 0 {
		return nil
	}
	return q.orders.Front().Value.(*models.Order)
}

// PopFront removes and returns the head order.
func (q *OrderQueue) PopFront() *models.Order {
	el := q.orders.Front()
	if el == nil {
		return nil
	}
	return q.removeElement(el)
}

// Remove deletes the order with the given id from anywhere in the queue.
func (q *OrderQueue) Remove(orderID int64) (*models.Order, bool) {
	el, ok := q.byID[orderID]
	if !ok {
		return nil, false
	}
	return q.removeElement(el), true
}

// Find returns the order with the given id without removing it.
func (q *OrderQueue) Find(orderID int64) (*models.Order, bool) {
	el, ok := q.byID[orderID]
	if !ok {
		return nil, false
	}
	return el.Value.(*models.Order), true
}

// Reduce shrinks the resting order's remaining size in place, keeping the
// queue's cached aggregate volume consistent. It never removes the order:
// reducing by the order's full size leaves it queued with zero size, so a
// fully consumed order is taken out with Remove or PopFront instead.
func (q *OrderQueue) Reduce(orderID int64, by decimal.Decimal) bool {
	el, ok := q.byID[orderID]
	if !ok {
		return false
	}
	o := el.Value.(*models.Order)
	o.Size = o.Size.Sub(by)
	q.volume = q.volume.Sub(by)
	return true
}

func (q *OrderQueue) removeElement(el *list.Element) *models.Order {
	o := el.Value.(*models.Order)
	q.orders.Remove(el)
	delete(q.byID, o.OrderID)
	q.volume = q.volume.Sub(o.Size)
	q.nOrders--
	return o
}

// Len returns the number of orders resting in the queue.
func (q *OrderQueue) Len() int {
	return q.nOrders
}

// Volume returns the cached sum of remaining sizes across the queue.
func (q *OrderQueue) Volume() decimal.Decimal {
	return q.volume
}

// Empty reports whether the queue holds no orders.
func (q *OrderQueue) Empty() bool {
	return q.nOrders == 0
}

// Each visits every order in the queue, head to tail, without removing any.
func (q *OrderQueue) Each(fn func(*models.Order)) {
	for el := q.orders.Front(); el != nil; el = el.Next() {
		fn(el.Value.(*models.Order))
	}
}
