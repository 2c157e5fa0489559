package venue

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

// PaperOrder is an order resting on the paper venue.
type PaperOrder struct {
	ID     string
	Intent OrderIntent
	Open   bool
}

// Paper is an in-memory venue for dry runs and tests. Orders are accepted
// and rest until cancelled; nothing ever fills on its own.
type Paper struct {
	mu     sync.Mutex
	orders map[string]*PaperOrder
}

func NewPaper() *Paper {
	return &Paper{orders: map[string]*PaperOrder{}}
}

func (p *Paper) Submit(ctx context.Context, intent OrderIntent) (OrderRef, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	id := uuid.NewString()
	p.orders[id] = &PaperOrder{ID: id, Intent: intent, Open: true}
	slog.Info("paper order accepted", "order_id", id, "symbol", intent.Symbol, "side", intent.Side, "qty", intent.Qty, "limit", intent.LimitPrice, "center", intent.Center)
	return OrderRef{ID: id, ClientOrderID: intent.ClientOrderID, Status: "accepted"}, nil
}

func (p *Paper) Cancel(ctx context.Context, orderID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	order, ok := p.orders[orderID]
	if !ok || !order.Open {
		return fmt.Errorf("no open paper order %s", orderID)
	}
	order.Open = false
	slog.Info("paper order cancelled", "order_id", orderID)
	return nil
}

func (p *Paper) CancelReplace(ctx context.Context, orderID string, newPrice float64) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	order, ok := p.orders[orderID]
	if !ok || !order.Open {
		return fmt.Errorf("no open paper order %s", orderID)
	}
	order.Intent.LimitPrice = newPrice
	slog.Info("paper order repriced", "order_id", orderID, "limit", newPrice)
	return nil
}

func (p *Paper) CancelAll(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	count := 0
	for _, order := range p.orders {
		if order.Open {
			order.Open = false
			count++
		}
	}
	slog.Info("paper cancel all", "cancelled", count)
	return nil
}

// OpenOrdersSnapshot returns the currently resting orders.
func (p *Paper) OpenOrdersSnapshot() []PaperOrder {
	p.mu.Lock()
	defer p.mu.Unlock()

	open := make([]PaperOrder, 0, len(p.orders))
	for _, order := range p.orders {
		if order.Open {
			open = append(open, *order)
		}
	}
	return open
}
