package md

import (
	"context"
	"fmt"
	"log"

	"atc/internal/market"

	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"
	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata/stream"
)

// Handler receives normalized market events, one call at a time.
type Handler interface {
	OnTrade(ctx context.Context, ev TradeEvent)
	OnQuote(ctx context.Context, ev QuoteEvent)
	OnBar(ctx context.Context, ev BarEvent)
}

// StartStream connects to the Alpaca market data stream for the given
// instruments and forwards trades, quotes, and bars to the handler. Stream
// callbacks never touch the instrument's live fields themselves; the handler
// applies the event (ApplyTrade/ApplyQuote) on its own goroutine so the
// market view is only mutated where it is read. Blocks until ctx is
// cancelled.
func StartStream(ctx context.Context, apiKey, apiSecret, feed string, instruments map[string]*market.Instrument, handler Handler) error {
	client := stream.NewStocksClient(
		parseFeed(feed),
		stream.WithCredentials(apiKey, apiSecret),
	)

	// Connect must be called before subscribing in this SDK version.
	if err := client.Connect(ctx); err != nil {
		return fmt.Errorf("connect market data stream: %w", err)
	}

	symbols := make([]string, 0, len(instruments))
	for symbol := range instruments {
		symbols = append(symbols, symbol)
	}

	if err := client.SubscribeToTrades(func(t stream.Trade) {
		inst, ok := instruments[t.Symbol]
		if !ok {
			return
		}
		handler.OnTrade(ctx, TradeEvent{
			Instrument: inst,
			Price:      t.Price,
			Size:       float64(t.Size),
			Time:       t.Timestamp,
		})
	}, symbols...); err != nil {
		return fmt.Errorf("subscribe to trades: %w", err)
	}

	if err := client.SubscribeToQuotes(func(q stream.Quote) {
		inst, ok := instruments[q.Symbol]
		if !ok {
			return
		}
		handler.OnQuote(ctx, QuoteEvent{
			Instrument: inst,
			Quote: market.TopQuote{
				Bid:      q.BidPrice,
				Ask:      q.AskPrice,
				BidSize:  float64(q.BidSize),
				AskSize:  float64(q.AskSize),
				BidValid: q.BidPrice > 0 && q.BidSize > 0,
				AskValid: q.AskPrice > 0 && q.AskSize > 0,
			},
			Time: q.Timestamp,
		})
	}, symbols...); err != nil {
		return fmt.Errorf("subscribe to quotes: %w", err)
	}

	if err := client.SubscribeToBars(func(b stream.Bar) {
		inst, ok := instruments[b.Symbol]
		if !ok {
			return
		}
		handler.OnBar(ctx, BarEvent{
			Instrument: inst,
			Open:       b.Open,
			High:       b.High,
			Low:        b.Low,
			Close:      b.Close,
			Volume:     float64(b.Volume),
			Time:       b.Timestamp,
		})
	}, symbols...); err != nil {
		return fmt.Errorf("subscribe to bars: %w", err)
	}

	log.Printf("market data stream subscribed symbols=%v feed=%s", symbols, feed)

	<-ctx.Done()
	return ctx.Err()
}

func parseFeed(feed string) marketdata.Feed {
	switch feed {
	case "iex":
		return marketdata.IEX
	case "sip":
		return marketdata.SIP
	default:
		return marketdata.IEX
	}
}
