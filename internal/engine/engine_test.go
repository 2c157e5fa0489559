package engine

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"atc/internal/market"
	"atc/internal/md"
	"atc/internal/portfolio"
	"atc/internal/risk"
	"atc/internal/state"
	"atc/internal/tracker"
	"atc/internal/venue"
)

type replaceCall struct {
	OrderID string
	Price   float64
}

type fakeVenue struct {
	submits    []venue.OrderIntent
	cancels    []string
	replaces   []replaceCall
	cancelAlls int
	nextID     int
	failSubmit bool
}

func (f *fakeVenue) Submit(ctx context.Context, intent venue.OrderIntent) (venue.OrderRef, error) {
	if f.failSubmit {
		return venue.OrderRef{}, fmt.Errorf("venue rejected")
	}
	f.nextID++
	f.submits = append(f.submits, intent)
	return venue.OrderRef{ID: fmt.Sprintf("ord-%d", f.nextID), ClientOrderID: intent.ClientOrderID, Status: "accepted"}, nil
}

func (f *fakeVenue) Cancel(ctx context.Context, orderID string) error {
	f.cancels = append(f.cancels, orderID)
	return nil
}

func (f *fakeVenue) CancelReplace(ctx context.Context, orderID string, newPrice float64) error {
	f.replaces = append(f.replaces, replaceCall{OrderID: orderID, Price: newPrice})
	return nil
}

func (f *fakeVenue) CancelAll(ctx context.Context) error {
	f.cancelAlls++
	return nil
}

type testRig struct {
	engine  *Engine
	venue   *fakeVenue
	tracker *tracker.Tracker
	book    *portfolio.Book
	store   *state.Store
	inst    *market.Instrument
}

func newTestRig(t *testing.T, params Params) *testRig {
	t.Helper()
	actions, err := NewActionLogger(filepath.Join(t.TempDir(), "actions.ndjson"), "test-run")
	if err != nil {
		t.Fatalf("action logger: %v", err)
	}
	t.Cleanup(func() { _ = actions.Close() })

	inst := market.NewInstrument("SPY", market.Equity)
	inst.LastTrade = market.LastTrade{Price: 10.00, Size: 100}
	inst.Quote = market.TopQuote{Bid: 9.99, Ask: 10.01, BidSize: 100, AskSize: 100, BidValid: true, AskValid: true}

	fv := &fakeVenue{}
	trk := tracker.New()
	book := portfolio.NewBook()
	store := state.NewStore()
	instruments := map[string]*market.Instrument{"SPY": inst}

	if params.ShortWindow == 0 {
		params.ShortWindow = 10
	}
	if params.LongWindow == 0 {
		params.LongWindow = 30
	}

	eng := New(fv, risk.Gate{}, trk, book, store, actions, instruments, params)
	return &testRig{engine: eng, venue: fv, tracker: trk, book: book, store: store, inst: inst}
}

func at(t *testing.T, value string) time.Time {
	t.Helper()
	parsed, err := time.Parse("2006-01-02 15:04:05", value)
	if err != nil {
		t.Fatalf("parse time %q: %v", value, err)
	}
	return parsed
}

func TestEveningTradeTriggersBuy(t *testing.T) {
	rig := newTestRig(t, Params{})
	ctx := context.Background()

	rig.engine.OnTrade(ctx, md.TradeEvent{Instrument: rig.inst, Price: 10.00, Size: 100, Time: at(t, "2024-01-02 19:59:30")})

	if len(rig.venue.submits) != 1 {
		t.Fatalf("expected 1 submit, got %d", len(rig.venue.submits))
	}
	order := rig.venue.submits[0]
	if order.Side != venue.SideBuy || order.Qty != 1 {
		t.Fatalf("expected buy qty=1, got %s qty=%d", order.Side, order.Qty)
	}
	if want := rig.inst.LastTrade.Price + 0.02; order.LimitPrice != want {
		t.Fatalf("expected limit %v, got %v", want, order.LimitPrice)
	}
	if order.Center != market.CenterIEX {
		t.Fatalf("expected IEX routing, got %s", order.Center)
	}
	if rig.store.Session() != state.SessionSell {
		t.Fatalf("expected session SELL, got %s", rig.store.Session())
	}
}

func TestTradeBeforeCutoffDoesNotBuy(t *testing.T) {
	rig := newTestRig(t, Params{})
	ctx := context.Background()

	rig.engine.OnTrade(ctx, md.TradeEvent{Instrument: rig.inst, Price: 10.00, Time: at(t, "2024-01-02 15:00:00")})

	if len(rig.venue.submits) != 0 {
		t.Fatalf("expected no submits, got %d", len(rig.venue.submits))
	}
	if rig.store.Session() != state.SessionBuy {
		t.Fatalf("expected session BUY, got %s", rig.store.Session())
	}
	if rig.store.CurrentDate().IsZero() {
		t.Fatalf("expected current date initialized from first event")
	}
}

func TestMorningBarSellWaitsForCutoff(t *testing.T) {
	rig := newTestRig(t, Params{})
	ctx := context.Background()
	rig.store.SetSession(state.SessionSell)
	rig.store.SetCurrentDate(at(t, "2024-01-02 00:00:00"))

	rig.engine.OnBar(ctx, md.BarEvent{Instrument: rig.inst, Close: 10.00, Time: at(t, "2024-01-03 09:35:00")})

	if len(rig.venue.submits) != 0 {
		t.Fatalf("expected sell suppressed before cutoff, got %d submits", len(rig.venue.submits))
	}
	if got := rig.store.CurrentDate(); got.Day() != 2 {
		t.Fatalf("expected current date unchanged, got %s", got)
	}
	if rig.store.Session() != state.SessionSell {
		t.Fatalf("expected session still SELL, got %s", rig.store.Session())
	}

	rig.engine.OnBar(ctx, md.BarEvent{Instrument: rig.inst, Close: 10.00, Time: at(t, "2024-01-03 13:31:00")})

	if len(rig.venue.submits) != 1 {
		t.Fatalf("expected sell after cutoff, got %d submits", len(rig.venue.submits))
	}
	order := rig.venue.submits[0]
	if order.Side != venue.SideSell || order.Qty != 1 {
		t.Fatalf("expected sell qty=1, got %s qty=%d", order.Side, order.Qty)
	}
	// Book path, zero aggressiveness: join the ask.
	if order.LimitPrice != 10.01 {
		t.Fatalf("expected limit 10.01, got %.2f", order.LimitPrice)
	}
	if order.Center != market.CenterNasdaq {
		t.Fatalf("expected NASDAQ routing, got %s", order.Center)
	}
	if rig.store.Session() != state.SessionBuy {
		t.Fatalf("expected session BUY, got %s", rig.store.Session())
	}
	if got := rig.store.CurrentDate(); got.Day() != 3 {
		t.Fatalf("expected current date advanced, got %s", got)
	}
}

func TestBadQuoteAbortsBookOrder(t *testing.T) {
	rig := newTestRig(t, Params{})
	ctx := context.Background()
	rig.inst.Quote.Bid = 0

	rig.engine.SendOrder(ctx, rig.inst, 1)

	if len(rig.venue.submits) != 0 {
		t.Fatalf("expected no venue call on unusable quote, got %d", len(rig.venue.submits))
	}
	if rig.tracker.Len() != 0 {
		t.Fatalf("expected no tracked order, got %d", rig.tracker.Len())
	}
}

func TestAdjustPortfolioNoopAtTarget(t *testing.T) {
	rig := newTestRig(t, Params{})
	rig.book.Set("SPY", 5)

	rig.engine.AdjustPortfolio(context.Background(), rig.inst, 5)

	if len(rig.venue.submits) != 0 || len(rig.venue.cancels) != 0 {
		t.Fatalf("expected no-op, got submits=%d cancels=%d", len(rig.venue.submits), len(rig.venue.cancels))
	}
}

func TestAdjustPortfolioCancelsConflictingSide(t *testing.T) {
	rig := newTestRig(t, Params{})
	ctx := context.Background()
	rig.book.Set("SPY", 3)
	rig.tracker.Record(tracker.WorkingOrder{ID: "ord-buy", Symbol: "SPY", Side: venue.SideBuy, Qty: 2, Price: 10.01})

	// Need to sell 3, but a buy is working: cancel it, send nothing.
	rig.engine.AdjustPortfolio(ctx, rig.inst, 0)

	if len(rig.venue.cancels) != 1 || rig.venue.cancels[0] != "ord-buy" {
		t.Fatalf("expected cancel of ord-buy, got %v", rig.venue.cancels)
	}
	if len(rig.venue.submits) != 0 {
		t.Fatalf("expected no replacement order, got %d submits", len(rig.venue.submits))
	}
	if rig.tracker.Len() != 1 {
		t.Fatalf("expected slot still occupied until completion, got %d", rig.tracker.Len())
	}

	// The completion update frees the slot; the next call may submit.
	rig.engine.OnOrderUpdate(ctx, md.OrderUpdateEvent{OrderID: "ord-buy", Symbol: "SPY", Status: "canceled", Completes: true, Time: time.Now()})
	if rig.tracker.Len() != 0 {
		t.Fatalf("expected slot freed, got %d", rig.tracker.Len())
	}

	rig.engine.AdjustPortfolio(ctx, rig.inst, 0)
	if len(rig.venue.submits) != 1 {
		t.Fatalf("expected sell submitted after slot freed, got %d", len(rig.venue.submits))
	}
	order := rig.venue.submits[0]
	if order.Side != venue.SideSell || order.Qty != 3 {
		t.Fatalf("expected sell qty=3, got %s qty=%d", order.Side, order.Qty)
	}
}

func TestAdjustPortfolioKeepsSameSideOrder(t *testing.T) {
	rig := newTestRig(t, Params{})
	rig.book.Set("SPY", 0)
	rig.tracker.Record(tracker.WorkingOrder{ID: "ord-buy", Symbol: "SPY", Side: venue.SideBuy, Qty: 2, Price: 10.01})

	rig.engine.AdjustPortfolio(context.Background(), rig.inst, 5)

	if len(rig.venue.submits) != 0 || len(rig.venue.cancels) != 0 {
		t.Fatalf("expected neither submit nor cancel while same-side order works, got submits=%d cancels=%d", len(rig.venue.submits), len(rig.venue.cancels))
	}
}

func TestRepriceAllUnchangedBookSamePrice(t *testing.T) {
	rig := newTestRig(t, Params{})
	ctx := context.Background()

	rig.engine.SendOrder(ctx, rig.inst, 1)
	if len(rig.venue.submits) != 1 {
		t.Fatalf("expected submit, got %d", len(rig.venue.submits))
	}
	placed := rig.venue.submits[0].LimitPrice

	rig.engine.RepriceAll(ctx)

	if len(rig.venue.replaces) != 1 {
		t.Fatalf("expected 1 cancel-replace, got %d", len(rig.venue.replaces))
	}
	if rig.venue.replaces[0].Price != placed {
		t.Fatalf("expected reprice to same price %.2f with unchanged book, got %.2f", placed, rig.venue.replaces[0].Price)
	}
}

func TestRepriceAllFollowsBook(t *testing.T) {
	rig := newTestRig(t, Params{})
	ctx := context.Background()

	rig.engine.SendOrder(ctx, rig.inst, 1)
	rig.inst.Quote.Bid = 10.05
	rig.inst.Quote.Ask = 10.07

	rig.engine.RepriceAll(ctx)

	if len(rig.venue.replaces) != 1 {
		t.Fatalf("expected 1 cancel-replace, got %d", len(rig.venue.replaces))
	}
	if rig.venue.replaces[0].Price != 10.05 {
		t.Fatalf("expected buy repriced to new bid 10.05, got %.2f", rig.venue.replaces[0].Price)
	}
	working, ok := rig.tracker.Get("SPY")
	if !ok || working.Price != 10.05 {
		t.Fatalf("expected tracked price updated to 10.05, got %+v ok=%t", working, ok)
	}
}

func TestCommands(t *testing.T) {
	rig := newTestRig(t, Params{})
	ctx := context.Background()
	rig.engine.SendOrder(ctx, rig.inst, 1)

	rig.engine.OnCommand(ctx, 1)
	if len(rig.venue.replaces) != 1 {
		t.Fatalf("expected command 1 to reprice, got %d replaces", len(rig.venue.replaces))
	}

	rig.engine.OnCommand(ctx, 2)
	if rig.venue.cancelAlls != 1 {
		t.Fatalf("expected command 2 to cancel all, got %d", rig.venue.cancelAlls)
	}

	rig.engine.OnCommand(ctx, 7)
	if len(rig.venue.replaces) != 1 || rig.venue.cancelAlls != 1 || len(rig.venue.submits) != 1 {
		t.Fatalf("expected unknown command to be a no-op")
	}
}

func TestSimplePathOverridesConfiguredAggressiveness(t *testing.T) {
	rig := newTestRig(t, Params{Aggressiveness: 0.50})
	ctx := context.Background()
	rig.store.SetSession(state.SessionSell)
	rig.store.SetCurrentDate(at(t, "2024-01-02 00:00:00"))

	rig.engine.OnTrade(ctx, md.TradeEvent{Instrument: rig.inst, Price: 10.00, Time: at(t, "2024-01-03 09:31:00")})

	if len(rig.venue.submits) != 1 {
		t.Fatalf("expected sell on first trade of new day, got %d", len(rig.venue.submits))
	}
	// 10.00 − 0.02, not 10.00 − 0.50.
	if want, got := rig.inst.LastTrade.Price-0.02, rig.venue.submits[0].LimitPrice; got != want {
		t.Fatalf("expected limit %v, got %v", want, got)
	}
}

func TestSessionFlipsEvenWhenSubmitFails(t *testing.T) {
	rig := newTestRig(t, Params{})
	ctx := context.Background()
	rig.venue.failSubmit = true

	rig.engine.OnTrade(ctx, md.TradeEvent{Instrument: rig.inst, Price: 10.00, Time: at(t, "2024-01-02 19:59:00")})

	if rig.store.Session() != state.SessionSell {
		t.Fatalf("expected session flipped despite rejection, got %s", rig.store.Session())
	}
	if rig.tracker.Len() != 0 {
		t.Fatalf("expected no tracked order after rejection, got %d", rig.tracker.Len())
	}
}

func TestSlotLifecycle(t *testing.T) {
	rig := newTestRig(t, Params{})
	ctx := context.Background()

	if rig.tracker.Len() != 0 {
		t.Fatalf("expected empty tracker before submit")
	}
	rig.engine.SendOrder(ctx, rig.inst, 1)
	working, ok := rig.tracker.Get("SPY")
	if !ok || working.ID == "" {
		t.Fatalf("expected tracked order after submit")
	}

	// A non-terminal update leaves the slot occupied.
	rig.engine.OnOrderUpdate(ctx, md.OrderUpdateEvent{OrderID: working.ID, Symbol: "SPY", Status: "partial_fill", Completes: false, Time: time.Now()})
	if rig.tracker.Len() != 1 {
		t.Fatalf("expected slot occupied after partial fill")
	}

	rig.engine.OnOrderUpdate(ctx, md.OrderUpdateEvent{OrderID: working.ID, Symbol: "SPY", Status: "fill", Completes: true, Time: time.Now()})
	if rig.tracker.Len() != 0 {
		t.Fatalf("expected slot freed after completion")
	}
}

func TestResetClearsSessionAndOrders(t *testing.T) {
	rig := newTestRig(t, Params{})
	ctx := context.Background()
	rig.engine.OnTrade(ctx, md.TradeEvent{Instrument: rig.inst, Price: 10.00, Time: at(t, "2024-01-02 19:59:00")})
	if rig.store.Session() != state.SessionSell || rig.tracker.Len() != 1 {
		t.Fatalf("expected armed state before reset")
	}

	rig.engine.Reset()

	if rig.store.Session() != state.SessionBuy {
		t.Fatalf("expected session BUY after reset, got %s", rig.store.Session())
	}
	if !rig.store.CurrentDate().IsZero() {
		t.Fatalf("expected current date cleared after reset")
	}
	if rig.tracker.Len() != 0 {
		t.Fatalf("expected tracker cleared after reset")
	}
}

func TestOnParamChanged(t *testing.T) {
	rig := newTestRig(t, Params{})

	if err := rig.engine.OnParamChanged("aggressiveness", "0.05"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	rig.engine.SendOrder(context.Background(), rig.inst, 1)
	if want, got := rig.inst.Quote.Bid+0.05, rig.venue.submits[0].LimitPrice; got != want {
		t.Fatalf("expected limit %v, got %v", want, got)
	}

	if err := rig.engine.OnParamChanged("short_window_size", "5"); err == nil {
		t.Fatalf("expected startup-only param to be rejected")
	}
	if err := rig.engine.OnParamChanged("nope", "1"); err == nil {
		t.Fatalf("expected unknown param to be rejected")
	}
}
