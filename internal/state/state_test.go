package state

import (
	"path/filepath"
	"testing"
	"time"
)

func TestStoreSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "checkpoint.json")

	store := NewStore()
	store.SetSession(SessionSell)
	store.SetCurrentDate(time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC))
	if err := store.Save(path); err != nil {
		t.Fatalf("save: %v", err)
	}

	restored := NewStore()
	if err := restored.Load(path); err != nil {
		t.Fatalf("load: %v", err)
	}
	snapshot := restored.Snapshot()
	if snapshot.Session != SessionSell {
		t.Fatalf("expected session SELL, got %s", snapshot.Session)
	}
	if snapshot.CurrentDate.Day() != 2 {
		t.Fatalf("expected current date restored, got %s", snapshot.CurrentDate)
	}
	if snapshot.SavedAt.IsZero() {
		t.Fatalf("expected save to stamp the snapshot")
	}
}

func TestResetReturnsToInitialState(t *testing.T) {
	store := NewStore()
	store.SetSession(SessionSell)
	store.SetCurrentDate(time.Now())

	store.Reset()

	if store.Session() != SessionBuy {
		t.Fatalf("expected session BUY after reset, got %s", store.Session())
	}
	if !store.CurrentDate().IsZero() {
		t.Fatalf("expected current date cleared after reset")
	}
}

func TestLoadDefaultsEmptySession(t *testing.T) {
	path := filepath.Join(t.TempDir(), "checkpoint.json")
	store := NewStore()
	if err := store.Load(path); err == nil {
		t.Fatalf("expected error for missing checkpoint")
	}
	if store.Session() != SessionBuy {
		t.Fatalf("expected initial session BUY, got %s", store.Session())
	}
}
