// Package engine is the decision-and-execution core: it routes inbound
// market and order events, runs the daily session gate, and submits,
// cancels, or reprices orders through the venue while keeping the
// one-working-order-per-instrument invariant.
package engine

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"sync/atomic"
	"time"

	"atc/internal/market"
	"atc/internal/md"
	"atc/internal/metrics"
	"atc/internal/portfolio"
	"atc/internal/pricing"
	"atc/internal/risk"
	"atc/internal/state"
	"atc/internal/tracker"
	"atc/internal/venue"
)

// Params are the strategy parameters. Aggressiveness, PositionSize, and
// Debug are runtime-adjustable; the window sizes are fixed at startup.
type Params struct {
	Aggressiveness float64
	PositionSize   int
	ShortWindow    int
	LongWindow     int
	Debug          bool
}

// Engine owns the session gate, the order executor, and the event entry
// points. Handlers must be invoked one at a time; the engine itself never
// blocks and never retries a failed venue call.
type Engine struct {
	vn          venue.Venue
	gate        risk.Gate
	tracker     *tracker.Tracker
	book        *portfolio.Book
	store       *state.Store
	actions     *ActionLogger
	instruments map[string]*market.Instrument

	params   Params
	momentum map[string]*md.Momentum

	runID       string
	orderSeqNum uint64
}

func New(vn venue.Venue, gate risk.Gate, trk *tracker.Tracker, book *portfolio.Book, store *state.Store, actions *ActionLogger, instruments map[string]*market.Instrument, params Params) *Engine {
	engine := &Engine{
		vn:          vn,
		gate:        gate,
		tracker:     trk,
		book:        book,
		store:       store,
		actions:     actions,
		instruments: instruments,
		params:      params,
		momentum:    map[string]*md.Momentum{},
		runID:       actions.RunID(),
	}
	metrics.SessionState(string(store.Session()))
	return engine
}

// OnTrade evaluates the session gate against a trade print. Sells trigger on
// the first trade of a new day with no time-of-day guard; buys trigger at
// 19:59 event time.
func (e *Engine) OnTrade(ctx context.Context, ev md.TradeEvent) {
	e.momentumFor(ev.Instrument.Symbol).Add(ev.Price)

	evDate := dateOf(ev.Time)
	if e.store.Session() == state.SessionSell && !sameDate(evDate, e.store.CurrentDate()) {
		e.store.SetCurrentDate(evDate)
		log.Printf("OnTrade: (%s) %s: %.0f @ $%.2f", ev.Time.Format(time.RFC3339), ev.Instrument.Symbol, ev.Size, ev.Price)
		e.SendSimpleOrder(ctx, ev.Instrument, -1)
		e.setSession(state.SessionBuy)
		return
	}

	if e.store.CurrentDate().IsZero() {
		e.store.SetCurrentDate(evDate)
	}
	if e.store.Session() == state.SessionBuy && ev.Time.Hour() == 19 && ev.Time.Minute() >= 59 {
		log.Printf("OnTrade: (%s) %s: %.0f @ $%.2f", ev.Time.Format(time.RFC3339), ev.Instrument.Symbol, ev.Size, ev.Price)
		e.SendSimpleOrder(ctx, ev.Instrument, 1)
		e.setSession(state.SessionSell)
	}
}

// OnBar evaluates the session gate against a time bar. Unlike the trade
// path, the morning sell waits for the 13:30 cutoff and prices off the book.
func (e *Engine) OnBar(ctx context.Context, ev md.BarEvent) {
	e.momentumFor(ev.Instrument.Symbol).Add(ev.Close)

	evDate := dateOf(ev.Time)
	if e.store.Session() == state.SessionSell && !sameDate(evDate, e.store.CurrentDate()) {
		if ev.Time.Hour() < 13 {
			return
		}
		if ev.Time.Hour() == 13 && ev.Time.Minute() < 30 {
			return
		}
		e.store.SetCurrentDate(evDate)
		log.Printf("OnBar: sending bar order (%s) %s", ev.Time.Format(time.RFC3339), ev.Instrument.Symbol)
		e.SendOrder(ctx, ev.Instrument, -1)
		e.setSession(state.SessionBuy)
		return
	}

	if e.store.CurrentDate().IsZero() {
		e.store.SetCurrentDate(evDate)
	}
	if e.store.Session() == state.SessionBuy && ev.Time.Hour() == 19 && ev.Time.Minute() >= 59 {
		log.Printf("OnBar: sending bar order (%s) %s", ev.Time.Format(time.RFC3339), ev.Instrument.Symbol)
		e.SendOrder(ctx, ev.Instrument, 1)
		e.setSession(state.SessionSell)
	}
}

// OnQuote is an extension point; quotes already updated the instrument's
// live view before dispatch.
func (e *Engine) OnQuote(ctx context.Context, ev md.QuoteEvent) {
	if e.params.Debug {
		log.Printf("OnQuote: %s bid=%.2f ask=%.2f", ev.Instrument.Symbol, ev.Quote.Bid, ev.Quote.Ask)
	}
}

// OnDepth is an extension point.
func (e *Engine) OnDepth(ctx context.Context, ev md.DepthEvent) {
	if e.params.Debug {
		log.Printf("OnDepth: %s", ev.Instrument.Symbol)
	}
}

// OnOrderUpdate reconciles a venue order update with the tracker. A
// completing update is the only way a slot frees up for a new submission.
func (e *Engine) OnOrderUpdate(ctx context.Context, ev md.OrderUpdateEvent) {
	log.Printf("OnOrderUpdate: %s order=%s status=%s", ev.Time.Format(time.RFC3339), ev.OrderID, ev.Status)
	if !ev.Completes {
		return
	}
	if e.tracker.Complete(ev.OrderID) {
		metrics.WorkingOrders(e.tracker.Len())
		log.Printf("OnOrderUpdate: order %s complete, slot freed", ev.OrderID)
	}
}

// OnCommand runs an operator command: 1 reprices all working orders, 2
// cancels them all. Unknown ids are logged and ignored.
func (e *Engine) OnCommand(ctx context.Context, commandID int) {
	switch commandID {
	case 1:
		metrics.Command("reprice_all")
		e.RepriceAll(ctx)
	case 2:
		metrics.Command("cancel_all")
		e.CancelAll(ctx)
	default:
		metrics.Command("unknown")
		log.Printf("OnCommand: unknown strategy command %d", commandID)
	}
}

// OnParamChanged applies a runtime parameter update by name.
func (e *Engine) OnParamChanged(name, value string) error {
	switch name {
	case "aggressiveness":
		parsed, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("parse aggressiveness: %w", err)
		}
		e.params.Aggressiveness = parsed
	case "position_size":
		parsed, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("parse position_size: %w", err)
		}
		e.params.PositionSize = parsed
	case "debug":
		parsed, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("parse debug: %w", err)
		}
		e.params.Debug = parsed
	case "short_window_size", "long_window_size":
		return fmt.Errorf("param %s is fixed at startup", name)
	default:
		return fmt.Errorf("unknown param %s", name)
	}
	return nil
}

// Reset clears the session gate, the tracked orders, and the momentum
// accumulators.
func (e *Engine) Reset() {
	e.store.Reset()
	e.tracker.Reset()
	e.momentum = map[string]*md.Momentum{}
	metrics.SessionState(string(state.SessionBuy))
	metrics.WorkingOrders(0)
}

// AdjustPortfolio moves the instrument toward the desired position. If an
// order is already working and its side conflicts with the needed trade, it
// is cancelled and nothing replaces it until a completion update frees the
// slot on a later call.
func (e *Engine) AdjustPortfolio(ctx context.Context, inst *market.Instrument, desiredPosition int) {
	tradeSize := desiredPosition - e.book.Position(inst.Symbol)
	if tradeSize == 0 {
		return
	}

	working, ok := e.tracker.Get(inst.Symbol)
	if !ok {
		e.SendOrder(ctx, inst, tradeSize)
		return
	}
	if (working.Side == venue.SideBuy && tradeSize < 0) || (working.Side == venue.SideSell && tradeSize > 0) {
		if err := e.vn.Cancel(ctx, working.ID); err != nil {
			log.Printf("AdjustPortfolio: cancel %s failed: %v", working.ID, err)
			return
		}
		metrics.Cancel("single")
	}
}

// SendSimpleOrder prices off the last trade, two pennies more aggressive
// than the print. The fixed offset overwrites the configured aggressiveness
// for subsequent calls as well.
func (e *Engine) SendSimpleOrder(ctx context.Context, inst *market.Instrument, tradeSize int) {
	e.params.Aggressiveness = pricing.SimpleAggressiveness
	price := pricing.LastTradePrice(inst, tradeSize, e.params.Aggressiveness)
	e.send(ctx, inst, tradeSize, price, pricing.RouteSimple(inst.Class), "simple")
}

// SendOrder prices off the top of book after the quote gate passes.
func (e *Engine) SendOrder(ctx context.Context, inst *market.Instrument, tradeSize int) {
	if err := e.gate.Check(inst); err != nil {
		metrics.GateAbort()
		log.Printf("SendOrder: aborted for %s qty %d: %v", inst.Symbol, tradeSize, err)
		e.actions.Append(Action{
			RunID:     e.runID,
			Timestamp: time.Now().UTC(),
			Kind:      "book",
			Session:   e.store.Session(),
			Symbol:    inst.Symbol,
			Side:      venue.SideForSize(tradeSize),
			Qty:       abs(tradeSize),
			Momentum:  e.momentumFor(inst.Symbol).Value(),
			Result:    "gate_abort",
			Reason:    err.Error(),
		})
		return
	}
	price := pricing.BookPrice(inst, tradeSize, e.params.Aggressiveness)
	e.send(ctx, inst, tradeSize, price, pricing.RouteBook(inst.Class), "book")
}

// RepriceAll cancel-replaces every working order at the current
// book-relative price, preserving side and size.
func (e *Engine) RepriceAll(ctx context.Context) {
	for _, working := range e.tracker.Working() {
		inst, ok := e.instruments[working.Symbol]
		if !ok {
			log.Printf("RepriceAll: no instrument for %s, skipping order %s", working.Symbol, working.ID)
			continue
		}
		price := pricing.BookPriceForSide(inst, working.Side == venue.SideBuy, e.params.Aggressiveness)
		if err := e.vn.CancelReplace(ctx, working.ID, price); err != nil {
			log.Printf("RepriceAll: replace %s failed: %v", working.ID, err)
			continue
		}
		metrics.Cancel("replace")
		e.tracker.Reprice(working.ID, price)
	}
}

// CancelAll issues a single bulk cancel for all working orders.
func (e *Engine) CancelAll(ctx context.Context) {
	if err := e.vn.CancelAll(ctx); err != nil {
		log.Printf("CancelAll: %v", err)
		return
	}
	metrics.Cancel("all")
}

func (e *Engine) send(ctx context.Context, inst *market.Instrument, tradeSize int, price float64, center market.MarketCenter, path string) {
	side := venue.SideForSize(tradeSize)
	intent := venue.OrderIntent{
		Symbol:        inst.Symbol,
		Class:         inst.Class,
		Side:          side,
		Qty:           abs(tradeSize),
		LimitPrice:    price,
		TimeInForce:   venue.TimeInForceDay,
		Type:          venue.TypeLimit,
		Center:        center,
		ClientOrderID: e.nextClientOrderID(),
	}

	log.Printf("send: about to send new order symbol=%s side=%s qty=%d limit=$%.2f center=%s path=%s", intent.Symbol, side, intent.Qty, price, center, path)

	action := Action{
		RunID:      e.runID,
		Timestamp:  time.Now().UTC(),
		Kind:       path,
		Session:    e.store.Session(),
		Symbol:     inst.Symbol,
		Side:       side,
		Qty:        intent.Qty,
		LimitPrice: price,
		Center:     center,
		Momentum:   e.momentumFor(inst.Symbol).Value(),
	}

	ref, err := e.vn.Submit(ctx, intent)
	if err != nil {
		metrics.OrderRejected(string(side), path)
		action.Result = "rejected"
		action.Reason = err.Error()
		e.actions.Append(action)
		log.Printf("send: error sending new order: %v", err)
		return
	}

	e.tracker.Record(tracker.WorkingOrder{
		ID:     ref.ID,
		Symbol: inst.Symbol,
		Side:   side,
		Qty:    intent.Qty,
		Price:  price,
		Center: center,
	})
	metrics.OrderSubmitted(string(side), path)
	metrics.WorkingOrders(e.tracker.Len())

	action.Result = "submitted"
	action.OrderID = ref.ID
	e.actions.Append(action)
}

func (e *Engine) setSession(session state.Session) {
	e.store.SetSession(session)
	metrics.SessionState(string(session))
}

func (e *Engine) momentumFor(symbol string) *md.Momentum {
	mom, ok := e.momentum[symbol]
	if !ok {
		mom = md.NewMomentum(e.params.ShortWindow, e.params.LongWindow)
		e.momentum[symbol] = mom
	}
	return mom
}

func (e *Engine) nextClientOrderID() string {
	seq := atomic.AddUint64(&e.orderSeqNum, 1)
	return fmt.Sprintf("%s-%d", e.runID, seq)
}

func dateOf(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, t.Location())
}

func sameDate(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
