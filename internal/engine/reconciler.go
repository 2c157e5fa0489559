package engine

import (
	"context"
	"log"
	"time"

	"atc/internal/portfolio"
	"atc/internal/venue"
)

// ReconcileLoop periodically pulls venue positions into the portfolio book
// so AdjustPortfolio sizes against fresh numbers. Runs outside the
// single-threaded event core; the book carries its own lock.
func ReconcileLoop(ctx context.Context, client *venue.Client, book *portfolio.Book, symbols []string, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			reconcileOnce(ctx, client, book, symbols)
		}
	}
}

func reconcileOnce(ctx context.Context, client *venue.Client, book *portfolio.Book, symbols []string) {
	for _, symbol := range symbols {
		qty, err := client.Position(ctx, symbol)
		if err != nil {
			log.Printf("reconcile position failed: %v", err)
			continue
		}
		book.Set(symbol, qty)
	}

	orders, err := client.OpenOrders(ctx)
	if err != nil {
		log.Printf("reconcile open orders failed: %v", err)
	} else {
		log.Printf("reconcile: %d open orders at venue", len(orders))
	}

	equity, buyingPower, err := client.Account(ctx)
	if err != nil {
		log.Printf("reconcile account failed: %v", err)
	} else {
		log.Printf("account equity=%.2f buying_power=%.2f", equity, buyingPower)
	}
}
