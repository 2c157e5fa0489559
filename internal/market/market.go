package market

import "time"

type AssetClass string

const (
	Equity AssetClass = "equity"
	Option AssetClass = "option"
	Future AssetClass = "future"
)

// MarketCenter identifies the execution venue an order is routed to.
type MarketCenter string

const (
	CenterIEX       MarketCenter = "IEX"
	CenterNasdaq    MarketCenter = "NASDAQ"
	CenterCBOE      MarketCenter = "CBOE"
	CenterCMEGlobex MarketCenter = "CME_GLOBEX"
)

// LastTrade is the most recent print for an instrument.
type LastTrade struct {
	Price float64
	Size  float64
	Time  time.Time
}

// TopQuote is the best bid/ask for an instrument. The validity flags come
// from the feed; a side can carry a price before the book is fully built.
type TopQuote struct {
	Bid      float64
	Ask      float64
	BidSize  float64
	AskSize  float64
	BidValid bool
	AskValid bool
}

// Instrument holds the live market view for one tracked symbol. The feed
// owns and mutates these fields; the trading core only reads them.
type Instrument struct {
	Symbol string
	Class  AssetClass

	LastTrade LastTrade
	Quote     TopQuote
}

func NewInstrument(symbol string, class AssetClass) *Instrument {
	return &Instrument{Symbol: symbol, Class: class}
}
