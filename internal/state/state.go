package state

import (
	"encoding/json"
	"os"
	"sync"
	"time"
)

// Session is the daily trading gate state.
type Session string

const (
	SessionBuy  Session = "BUY"
	SessionSell Session = "SELL"
)

// Snapshot is the persisted session checkpoint. CurrentDate is the calendar
// date of the last event that advanced the gate; zero means not yet
// initialized.
type Snapshot struct {
	Session     Session   `json:"session"`
	CurrentDate time.Time `json:"current_date"`
	SavedAt     time.Time `json:"saved_at"`
}

// Store holds the live session snapshot. The engine mutates it from event
// handlers; the checkpoint save at shutdown runs on another goroutine, hence
// the lock.
type Store struct {
	mu       sync.RWMutex
	snapshot Snapshot
}

func NewStore() *Store {
	return &Store{snapshot: Snapshot{Session: SessionBuy}}
}

func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot
}

func (s *Store) Session() Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot.Session
}

func (s *Store) SetSession(session Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot.Session = session
}

func (s *Store) CurrentDate() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot.CurrentDate
}

func (s *Store) SetCurrentDate(date time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot.CurrentDate = date
}

// Reset returns the store to its initial state: session BUY, date unset.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot = Snapshot{Session: SessionBuy}
}

func (s *Store) Save(path string) error {
	s.mu.Lock()
	s.snapshot.SavedAt = time.Now().UTC()
	s.mu.Unlock()

	data, err := json.MarshalIndent(s.Snapshot(), "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func (s *Store) Load(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var snapshot Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return err
	}
	if snapshot.Session == "" {
		snapshot.Session = SessionBuy
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot = snapshot
	return nil
}
