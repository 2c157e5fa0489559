package md

import (
	"time"

	"atc/internal/market"
)

// TradeEvent is a single print on the tape.
type TradeEvent struct {
	Instrument *market.Instrument
	Price      float64
	Size       float64
	Time       time.Time
}

// QuoteEvent is a top-of-book update.
type QuoteEvent struct {
	Instrument *market.Instrument
	Quote      market.TopQuote
	Time       time.Time
}

// ApplyTrade folds a trade into the instrument's live view. Must run on the
// same goroutine that dispatches events to the engine.
func ApplyTrade(ev TradeEvent) {
	ev.Instrument.LastTrade = market.LastTrade{Price: ev.Price, Size: ev.Size, Time: ev.Time}
}

// ApplyQuote folds a quote into the instrument's live view. Must run on the
// same goroutine that dispatches events to the engine.
func ApplyQuote(ev QuoteEvent) {
	ev.Instrument.Quote = ev.Quote
}

// DepthEvent is a book depth update beyond the top level.
type DepthEvent struct {
	Instrument *market.Instrument
	Time       time.Time
}

// BarEvent is a time bar; only the close and the bar time matter to the
// trading core.
type BarEvent struct {
	Instrument *market.Instrument
	Open       float64
	High       float64
	Low        float64
	Close      float64
	Volume     float64
	Time       time.Time
}

// OrderUpdateEvent reports an order lifecycle change from the venue.
// Completes is set when the order reached a terminal state (filled,
// cancelled, rejected, expired).
type OrderUpdateEvent struct {
	OrderID   string
	Symbol    string
	Status    string
	Completes bool
	Time      time.Time
}
