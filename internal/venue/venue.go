// Package venue abstracts the order-routing backend: submitting, cancelling,
// and cancel-replacing limit orders. All calls return a synchronous
// accept/reject; fills arrive later as order updates.
package venue

import (
	"context"

	"atc/internal/market"
)

type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// SideForSize maps a signed trade size to an order side.
func SideForSize(tradeSize int) Side {
	if tradeSize > 0 {
		return SideBuy
	}
	return SideSell
}

const (
	TimeInForceDay = "day"
	TypeLimit      = "limit"
)

// OrderIntent is the full description of one order submission. Built fresh
// per call, never persisted.
type OrderIntent struct {
	Symbol        string
	Class         market.AssetClass
	Side          Side
	Qty           int
	LimitPrice    float64
	TimeInForce   string
	Type          string
	Center        market.MarketCenter
	ClientOrderID string
}

// OrderRef is the venue's acknowledgment of an accepted order.
type OrderRef struct {
	ID            string
	ClientOrderID string
	Status        string
}

// Venue is the minimal execution surface the trading core needs.
type Venue interface {
	Submit(ctx context.Context, intent OrderIntent) (OrderRef, error)
	Cancel(ctx context.Context, orderID string) error
	CancelReplace(ctx context.Context, orderID string, newPrice float64) error
	CancelAll(ctx context.Context) error
}
