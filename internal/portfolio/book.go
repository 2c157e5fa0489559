// Package portfolio holds the position view the trading core reads when
// sizing orders. Positions are pushed in by the venue reconcile loop (or by
// tests); the core never blocks on a venue call to read them.
package portfolio

import "sync"

type Book struct {
	mu        sync.RWMutex
	positions map[string]int
}

func NewBook() *Book {
	return &Book{positions: map[string]int{}}
}

// Position returns the signed position for a symbol; unknown symbols are
// flat.
func (b *Book) Position(symbol string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.positions[symbol]
}

func (b *Book) Set(symbol string, qty int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.positions[symbol] = qty
}
