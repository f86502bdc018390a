// Package prefs provides a file-backed implementation of fyne.Preferences so
// that headless Wallify processes share the same key/value contract as the
// desktop preference store.
package prefs

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"fyne.io/fyne/v2"
	"github.com/rk/wallify/util/log"
)

var _ fyne.Preferences = (*Store)(nil)

// Store is a key/value preference store persisted as a single JSON document.
// A Store without a path lives only in memory.
type Store struct {
	mu        sync.RWMutex
	path      string
	values    map[string]interface{}
	listeners []func()
}

// NewInMemory returns a Store that never touches the filesystem.
func NewInMemory() *Store {
	return &Store{values: make(map[string]interface{})}
}

// Open loads the store at path. A missing file yields an empty store that is
// created on the first write.
func Open(path string) (*Store, error) {
	s := &Store{path: path, values: make(map[string]interface{})}
	if err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// Path returns the backing file, or "" for an in-memory store.
func (s *Store) Path() string {
	return s.path
}

// Reload replaces the in-memory values with the file contents so that edits
// made by another process become visible. Change listeners are notified.
func (s *Store) Reload() error {
	if s.path == "" {
		return nil
	}
	values, err := s.readFile()
	if err != nil || values == nil {
		return err
	}
	s.mu.Lock()
	s.values = values
	listeners := append([]func(){}, s.listeners...)
	s.mu.Unlock()

	for _, l := range listeners {
		l()
	}
	return nil
}

// Keys returns every key currently set.
func (s *Store) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.values))
	for k := range s.values {
		keys = append(keys, k)
	}
	return keys
}

// Value returns the raw value stored under key.
func (s *Store) Value(key string) (interface{}, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	return v, ok
}

// readFile parses the backing document. A missing file yields nil.
func (s *Store) readFile() (map[string]interface{}, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading preferences %s: %w", s.path, err)
	}
	values := make(map[string]interface{})
	if len(data) > 0 {
		if err := json.Unmarshal(data, &values); err != nil {
			return nil, fmt.Errorf("parsing preferences %s: %w", s.path, err)
		}
	}
	return values, nil
}

// refreshLocked picks up keys written by other processes since the last
// read so a write only replaces the key it names. If the file cannot be
// read the in-memory values are kept.
func (s *Store) refreshLocked() {
	if s.path == "" {
		return
	}
	values, err := s.readFile()
	if err != nil {
		log.Printf("prefs: keeping in-memory values: %v", err)
		return
	}
	if values != nil {
		s.values = values
	}
}

func (s *Store) set(key string, value interface{}) {
	s.mu.Lock()
	s.refreshLocked()
	s.values[key] = value
	err := s.saveLocked()
	listeners := append([]func(){}, s.listeners...)
	s.mu.Unlock()

	if err != nil {
		log.Printf("prefs: failed to persist %q: %v", key, err)
	}
	for _, l := range listeners {
		l()
	}
}

// saveLocked writes the document through a temp file and rename so readers
// never observe a partial file.
func (s *Store) saveLocked() error {
	if s.path == "" {
		return nil
	}
	data, err := json.MarshalIndent(s.values, "", "  ")
	if err != nil {
		return err
	}
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), s.path)
}

// Bool returns the boolean under key, or false.
func (s *Store) Bool(key string) bool {
	return s.BoolWithFallback(key, false)
}

// BoolWithFallback returns the boolean under key, or fallback.
func (s *Store) BoolWithFallback(key string, fallback bool) bool {
	if v, ok := s.Value(key); ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return fallback
}

// SetBool stores a boolean.
func (s *Store) SetBool(key string, value bool) {
	s.set(key, value)
}

// Float returns the float under key, or 0.
func (s *Store) Float(key string) float64 {
	return s.FloatWithFallback(key, 0)
}

// FloatWithFallback returns the float under key, or fallback.
func (s *Store) FloatWithFallback(key string, fallback float64) float64 {
	if v, ok := s.Value(key); ok {
		if f, ok := toFloat(v); ok {
			return f
		}
	}
	return fallback
}

// SetFloat stores a float.
func (s *Store) SetFloat(key string, value float64) {
	s.set(key, value)
}

// Int returns the integer under key, or 0.
func (s *Store) Int(key string) int {
	return s.IntWithFallback(key, 0)
}

// IntWithFallback returns the integer under key, or fallback.
func (s *Store) IntWithFallback(key string, fallback int) int {
	if v, ok := s.Value(key); ok {
		if f, ok := toFloat(v); ok {
			return int(f)
		}
	}
	return fallback
}

// SetInt stores an integer.
func (s *Store) SetInt(key string, value int) {
	s.set(key, value)
}

// String returns the string under key, or "".
func (s *Store) String(key string) string {
	return s.StringWithFallback(key, "")
}

// StringWithFallback returns the string under key, or fallback.
func (s *Store) StringWithFallback(key, fallback string) string {
	if v, ok := s.Value(key); ok {
		if str, ok := v.(string); ok {
			return str
		}
	}
	return fallback
}

// SetString stores a string.
func (s *Store) SetString(key, value string) {
	s.set(key, value)
}

// StringList returns the string list under key, or nil.
func (s *Store) StringList(key string) []string {
	return s.StringListWithFallback(key, nil)
}

// StringListWithFallback returns the string list under key, or fallback.
func (s *Store) StringListWithFallback(key string, fallback []string) []string {
	v, ok := s.Value(key)
	if !ok {
		return fallback
	}
	switch list := v.(type) {
	case []string:
		return append([]string(nil), list...)
	case []interface{}:
		out := make([]string, 0, len(list))
		for _, item := range list {
			str, ok := item.(string)
			if !ok {
				return fallback
			}
			out = append(out, str)
		}
		return out
	}
	return fallback
}

// SetStringList stores a string list.
func (s *Store) SetStringList(key string, value []string) {
	s.set(key, append([]string(nil), value...))
}

// BoolList returns the bool list under key, or nil.
func (s *Store) BoolList(key string) []bool {
	return s.BoolListWithFallback(key, nil)
}

// BoolListWithFallback returns the bool list under key, or fallback.
func (s *Store) BoolListWithFallback(key string, fallback []bool) []bool {
	v, ok := s.Value(key)
	if !ok {
		return fallback
	}
	switch list := v.(type) {
	case []bool:
		return append([]bool(nil), list...)
	case []interface{}:
		out := make([]bool, 0, len(list))
		for _, item := range list {
			b, ok := item.(bool)
			if !ok {
				return fallback
			}
			out = append(out, b)
		}
		return out
	}
	return fallback
}

// SetBoolList stores a bool list.
func (s *Store) SetBoolList(key string, value []bool) {
	s.set(key, append([]bool(nil), value...))
}

// FloatList returns the float list under key, or nil.
func (s *Store) FloatList(key string) []float64 {
	return s.FloatListWithFallback(key, nil)
}

// FloatListWithFallback returns the float list under key, or fallback.
func (s *Store) FloatListWithFallback(key string, fallback []float64) []float64 {
	v, ok := s.Value(key)
	if !ok {
		return fallback
	}
	switch list := v.(type) {
	case []float64:
		return append([]float64(nil), list...)
	case []interface{}:
		out := make([]float64, 0, len(list))
		for _, item := range list {
			f, ok := toFloat(item)
			if !ok {
				return fallback
			}
			out = append(out, f)
		}
		return out
	}
	return fallback
}

// SetFloatList stores a float list.
func (s *Store) SetFloatList(key string, value []float64) {
	s.set(key, append([]float64(nil), value...))
}

// IntList returns the int list under key, or nil.
func (s *Store) IntList(key string) []int {
	return s.IntListWithFallback(key, nil)
}

// IntListWithFallback returns the int list under key, or fallback.
func (s *Store) IntListWithFallback(key string, fallback []int) []int {
	v, ok := s.Value(key)
	if !ok {
		return fallback
	}
	switch list := v.(type) {
	case []int:
		return append([]int(nil), list...)
	case []interface{}:
		out := make([]int, 0, len(list))
		for _, item := range list {
			f, ok := toFloat(item)
			if !ok {
				return fallback
			}
			out = append(out, int(f))
		}
		return out
	}
	return fallback
}

// SetIntList stores an int list.
func (s *Store) SetIntList(key string, value []int) {
	s.set(key, append([]int(nil), value...))
}

// RemoveValue deletes key.
func (s *Store) RemoveValue(key string) {
	s.mu.Lock()
	s.refreshLocked()
	if _, ok := s.values[key]; !ok {
		s.mu.Unlock()
		return
	}
	delete(s.values, key)
	err := s.saveLocked()
	listeners := append([]func(){}, s.listeners...)
	s.mu.Unlock()

	if err != nil {
		log.Printf("prefs: failed to persist removal of %q: %v", key, err)
	}
	for _, l := range listeners {
		l()
	}
}

// AddChangeListener registers fn to run after every write.
func (s *Store) AddChangeListener(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// ChangeListeners returns the registered listeners.
func (s *Store) ChangeListeners() []func() {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]func(){}, s.listeners...)
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}
