// Package pricing derives limit prices from live market data and selects
// the market center an order routes to.
package pricing

import "atc/internal/market"

// SimpleAggressiveness is the fixed offset used by the last-trade pricing
// path: two pennies more aggressive than the last print.
const SimpleAggressiveness = 0.02

// LastTradePrice prices an order off the most recent trade. Buys pay up by
// the aggressiveness offset, sells give it back.
func LastTradePrice(inst *market.Instrument, tradeSize int, aggressiveness float64) float64 {
	last := inst.LastTrade.Price
	if tradeSize > 0 {
		return last + aggressiveness
	}
	return last - aggressiveness
}

// BookPrice prices an order off the top of book: bid plus the offset for
// buys, ask minus the offset for sells. With a zero offset the order joins
// the book exactly.
func BookPrice(inst *market.Instrument, tradeSize int, aggressiveness float64) float64 {
	if tradeSize > 0 {
		return inst.Quote.Bid + aggressiveness
	}
	return inst.Quote.Ask - aggressiveness
}

// BookPriceForSide is BookPrice for an already-working order, keyed on the
// order's side rather than a signed size.
func BookPriceForSide(inst *market.Instrument, buy bool, aggressiveness float64) float64 {
	if buy {
		return inst.Quote.Bid + aggressiveness
	}
	return inst.Quote.Ask - aggressiveness
}

// RouteSimple maps an asset class to the market center used by the
// last-trade path.
func RouteSimple(class market.AssetClass) market.MarketCenter {
	switch class {
	case market.Equity:
		return market.CenterIEX
	case market.Option:
		return market.CenterCBOE
	default:
		return market.CenterCMEGlobex
	}
}

// RouteBook maps an asset class to the market center used by the book path.
func RouteBook(class market.AssetClass) market.MarketCenter {
	switch class {
	case market.Equity:
		return market.CenterNasdaq
	case market.Option:
		return market.CenterCBOE
	default:
		return market.CenterCMEGlobex
	}
}
