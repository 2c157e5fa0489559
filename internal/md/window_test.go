package md

import "testing"

func TestWindowMean(t *testing.T) {
	window := NewWindow(5)
	for _, v := range []float64{1, 2, 3, 4, 5} {
		window.Add(v)
	}

	mean, err := window.Mean()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if mean != 3.0 {
		t.Fatalf("expected mean 3.0, got %.2f", mean)
	}
}

func TestWindowMeanWrapsAround(t *testing.T) {
	window := NewWindow(3)
	for _, v := range []float64{1, 2, 3, 4, 5} {
		window.Add(v)
	}

	mean, err := window.Mean()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if mean != 4.0 {
		t.Fatalf("expected mean of last three values 4.0, got %.2f", mean)
	}
}

func TestWindowMeanEmpty(t *testing.T) {
	window := NewWindow(3)
	if _, err := window.Mean(); err == nil {
		t.Fatalf("expected error for empty window")
	}
}

func TestMomentumValue(t *testing.T) {
	mom := NewMomentum(2, 4)
	for _, v := range []float64{10, 10, 12, 14} {
		mom.Add(v)
	}

	// short mean (12+14)/2 = 13, long mean (10+10+12+14)/4 = 11.5
	if got := mom.Value(); got != 1.5 {
		t.Fatalf("expected momentum 1.5, got %.2f", got)
	}
}

func TestMomentumValueZeroWhileEmpty(t *testing.T) {
	mom := NewMomentum(2, 4)
	if got := mom.Value(); got != 0 {
		t.Fatalf("expected 0 while empty, got %.2f", got)
	}
}
