// Package tracker keeps the per-instrument working-order slot: at most one
// outstanding order identifier per symbol. The venue is the source of truth
// for the order's actual state; this map is a local cache kept consistent
// with venue acknowledgments.
package tracker

import (
	"sync"

	"atc/internal/market"
	"atc/internal/venue"
)

// WorkingOrder is the locally cached view of one outstanding order.
type WorkingOrder struct {
	ID     string
	Symbol string
	Side   venue.Side
	Qty    int
	Price  float64
	Center market.MarketCenter
}

type Tracker struct {
	mu      sync.Mutex
	working map[string]WorkingOrder
}

func New() *Tracker {
	return &Tracker{working: map[string]WorkingOrder{}}
}

// Record stores the working order for its symbol after a successful submit.
func (t *Tracker) Record(order WorkingOrder) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.working[order.Symbol] = order
}

// Get returns the working order tracked for a symbol, if any.
func (t *Tracker) Get(symbol string) (WorkingOrder, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	order, ok := t.working[symbol]
	return order, ok
}

// Complete clears the slot holding the given order identifier and reports
// whether a slot was freed. A completing update is the only path that frees
// a slot for a new submission.
func (t *Tracker) Complete(orderID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	for symbol, order := range t.working {
		if order.ID == orderID {
			delete(t.working, symbol)
			return true
		}
	}
	return false
}

// Reprice updates the cached price of a working order after a cancel-replace.
func (t *Tracker) Reprice(orderID string, newPrice float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for symbol, order := range t.working {
		if order.ID == orderID {
			order.Price = newPrice
			t.working[symbol] = order
			return
		}
	}
}

// Working returns a snapshot of all tracked orders.
func (t *Tracker) Working() []WorkingOrder {
	t.mu.Lock()
	defer t.mu.Unlock()
	orders := make([]WorkingOrder, 0, len(t.working))
	for _, order := range t.working {
		orders = append(orders, order)
	}
	return orders
}

// Len returns the number of occupied slots.
func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.working)
}

// Reset clears every slot.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.working = map[string]WorkingOrder{}
}
