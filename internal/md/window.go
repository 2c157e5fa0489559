package md

import "errors"

// Window is a fixed-size ring of recent prices.
type Window struct {
	values []float64
	size   int
	index  int
	filled bool
}

func NewWindow(size int) *Window {
	return &Window{
		values: make([]float64, size),
		size:   size,
	}
}

func (w *Window) Add(value float64) {
	w.values[w.index] = value
	w.index = (w.index + 1) % w.size
	if w.index == 0 {
		w.filled = true
	}
}

func (w *Window) Len() int {
	if w.filled {
		return w.size
	}
	return w.index
}

func (w *Window) Mean() (float64, error) {
	length := w.Len()
	if length == 0 {
		return 0, errors.New("empty window")
	}
	sum := 0.0
	if w.filled {
		for _, v := range w.values {
			sum += v
		}
		return sum / float64(w.size), nil
	}
	for _, v := range w.values[:w.index] {
		sum += v
	}
	return sum / float64(length), nil
}

// Momentum accumulates a short and a long rolling mean of trade prices.
// The value is recorded alongside order actions; the session gate does not
// consult it.
type Momentum struct {
	short *Window
	long  *Window
}

func NewMomentum(shortSize, longSize int) *Momentum {
	return &Momentum{
		short: NewWindow(shortSize),
		long:  NewWindow(longSize),
	}
}

func (m *Momentum) Add(price float64) {
	m.short.Add(price)
	m.long.Add(price)
}

// Value returns short mean minus long mean, or 0 while either window is
// still empty.
func (m *Momentum) Value() float64 {
	shortMean, err := m.short.Mean()
	if err != nil {
		return 0
	}
	longMean, err := m.long.Mean()
	if err != nil {
		return 0
	}
	return shortMean - longMean
}
