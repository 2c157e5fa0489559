package risk

import (
	"fmt"
	"log/slog"

	"atc/internal/market"
)

// Gate decides whether an instrument's top-of-book is usable for pricing an
// order. Prices below a penny mean the book is not fully initialized; we
// assume cash US equities here, so a real price is always positive.
type Gate struct{}

// Check returns nil when the top quote is usable. Only the ask-side validity
// flag is consulted; bid-side validity is not part of the gate.
func (g Gate) Check(inst *market.Instrument) error {
	quote := inst.Quote
	if quote.Ask < 0.01 || quote.Bid < 0.01 || !quote.AskValid {
		slog.Info("quote gate rejected",
			"symbol", inst.Symbol,
			"bid", quote.Bid,
			"ask", quote.Ask,
			"ask_valid", quote.AskValid,
		)
		return fmt.Errorf("missing quote data for %s: bid=%.2f ask=%.2f ask_valid=%t",
			inst.Symbol, quote.Bid, quote.Ask, quote.AskValid)
	}
	return nil
}
