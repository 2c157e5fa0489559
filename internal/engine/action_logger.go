package engine

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"atc/internal/market"
	"atc/internal/state"
	"atc/internal/venue"
)

// Action is one line of the order-action log: what the engine tried to send
// and what came back.
type Action struct {
	RunID      string              `json:"run_id"`
	Timestamp  time.Time           `json:"timestamp"`
	Kind       string              `json:"kind"` // simple|book
	Session    state.Session       `json:"session"`
	Symbol     string              `json:"symbol"`
	Side       venue.Side          `json:"side"`
	Qty        int                 `json:"qty"`
	LimitPrice float64             `json:"limit_price,omitempty"`
	Center     market.MarketCenter `json:"center,omitempty"`
	Momentum   float64             `json:"momentum"`
	Result     string              `json:"result"`
	OrderID    string              `json:"order_id,omitempty"`
	Reason     string              `json:"reason,omitempty"`
}

// ActionLogger appends Actions to an NDJSON file.
type ActionLogger struct {
	runID  string
	file   *os.File
	writer *bufio.Writer
	mu     sync.Mutex
}

func NewActionLogger(path string, runID string) (*ActionLogger, error) {
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}
	return &ActionLogger{
		runID:  runID,
		file:   file,
		writer: bufio.NewWriter(file),
	}, nil
}

func (l *ActionLogger) RunID() string {
	return l.runID
}

func (l *ActionLogger) Append(action Action) {
	l.mu.Lock()
	defer l.mu.Unlock()
	payload, err := json.Marshal(action)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to marshal action: %v\n", err)
		return
	}
	if _, err := l.writer.Write(append(payload, '\n')); err != nil {
		fmt.Fprintf(os.Stderr, "failed to write action: %v\n", err)
		return
	}
	if err := l.writer.Flush(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to flush action log: %v\n", err)
	}
}

func (l *ActionLogger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.writer.Flush(); err != nil {
		_ = l.file.Close()
		return err
	}
	return l.file.Close()
}
