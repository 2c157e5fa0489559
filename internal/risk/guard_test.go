package risk

import (
	"testing"

	"atc/internal/market"
)

func usableInstrument() *market.Instrument {
	inst := market.NewInstrument("SPY", market.Equity)
	inst.Quote = market.TopQuote{Bid: 9.99, Ask: 10.01, BidSize: 100, AskSize: 100, BidValid: true, AskValid: true}
	return inst
}

func TestGateAcceptsUsableQuote(t *testing.T) {
	if err := (Gate{}).Check(usableInstrument()); err != nil {
		t.Fatalf("expected usable quote, got %v", err)
	}
}

func TestGateRejectsZeroBid(t *testing.T) {
	inst := usableInstrument()
	inst.Quote.Bid = 0
	if err := (Gate{}).Check(inst); err == nil {
		t.Fatalf("expected rejection for zero bid")
	}
}

func TestGateRejectsSubPennyAsk(t *testing.T) {
	inst := usableInstrument()
	inst.Quote.Ask = 0.005
	if err := (Gate{}).Check(inst); err == nil {
		t.Fatalf("expected rejection for sub-penny ask")
	}
}

func TestGateRejectsInvalidAskSide(t *testing.T) {
	inst := usableInstrument()
	inst.Quote.AskValid = false
	if err := (Gate{}).Check(inst); err == nil {
		t.Fatalf("expected rejection for invalid ask side")
	}
}

func TestGateIgnoresBidValidity(t *testing.T) {
	inst := usableInstrument()
	inst.Quote.BidValid = false
	if err := (Gate{}).Check(inst); err != nil {
		t.Fatalf("bid validity is not part of the gate, got %v", err)
	}
}
