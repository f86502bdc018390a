package rotation

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"fyne.io/fyne/v2"
)

// Store keeps the mutable rotation state (pool, last change, history) in the
// preference store.
type Store struct {
	prefs fyne.Preferences
	mu    sync.Mutex
}

// NewStore wraps p.
func NewStore(p fyne.Preferences) *Store {
	return &Store{prefs: p}
}

// LoadPool decodes the persisted pool. A missing key is an empty pool.
func (s *Store) LoadPool() (*Pool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	raw := s.prefs.String(ImageURLsPrefKey)
	if raw == "" {
		return NewPool(), nil
	}
	pool := NewPool()
	if err := json.Unmarshal([]byte(raw), pool); err != nil {
		return NewPool(), err
	}
	return pool, nil
}

// SavePool persists p.
func (s *Store) SavePool(p *Pool) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encoding candidate pool: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prefs.SetString(ImageURLsPrefKey, string(data))
	return nil
}

// SetLastChange records the time of the last applied wallpaper.
func (s *Store) SetLastChange(t time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prefs.SetString(LastWallpaperChangePrefKey, t.Format(TimestampLayout))
}

// LastChange returns the formatted time of the last applied wallpaper, or "".
func (s *Store) LastChange() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.prefs.String(LastWallpaperChangePrefKey)
}

// AppendStatus adds a timestamped entry to the history, dropping the oldest
// entries beyond MaxStatusHistory.
func (s *Store) AppendStatus(at time.Time, msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	history := s.historyLocked()
	history = append(history, at.Format(TimestampLayout)+" "+msg)
	if len(history) > MaxStatusHistory {
		history = history[len(history)-MaxStatusHistory:]
	}
	data, _ := json.Marshal(history)
	s.prefs.SetString(StatusHistoryPrefKey, string(data))
}

// StatusHistory returns the history, oldest first.
func (s *Store) StatusHistory() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.historyLocked()
}

func (s *Store) historyLocked() []string {
	raw := s.prefs.String(StatusHistoryPrefKey)
	if raw == "" {
		return nil
	}
	var history []string
	if err := json.Unmarshal([]byte(raw), &history); err != nil {
		return nil
	}
	return history
}
