// Package util holds small concurrency helpers shared across Wallify packages.
package util

import "sync/atomic"

// SafeCounter is safe to use concurrently.
type SafeCounter struct {
	value atomic.Int64
}

// NewSafeInt creates a new SafeCounter.
func NewSafeInt() *SafeCounter {
	return &SafeCounter{}
}

// NewSafeIntWithValue creates a new SafeCounter with an initial value.
func NewSafeIntWithValue(initialValue int) *SafeCounter {
	c := &SafeCounter{}
	c.value.Store(int64(initialValue))
	return c
}

// Increment increments the counter's value and returns the new value.
func (c *SafeCounter) Increment() int {
	return int(c.value.Add(1))
}

// Add adds a delta to the counter's value and returns the new value.
func (c *SafeCounter) Add(delta int) int {
	return int(c.value.Add(int64(delta)))
}

// Set sets the value of the counter.
func (c *SafeCounter) Set(newValue int) {
	c.value.Store(int64(newValue))
}

// Value returns the current value of the counter.
func (c *SafeCounter) Value() int {
	return int(c.value.Load())
}

// SafeFlag is safe to use concurrently.
type SafeFlag struct {
	value atomic.Bool
}

// NewSafeBool creates a new SafeFlag.
func NewSafeBool() *SafeFlag {
	return &SafeFlag{}
}

// NewSafeBoolWithValue creates a new SafeFlag with an initial value.
func NewSafeBoolWithValue(initialValue bool) *SafeFlag {
	f := &SafeFlag{}
	f.value.Store(initialValue)
	return f
}

// Set sets the flag and returns the new value.
func (f *SafeFlag) Set(newValue bool) bool {
	f.value.Store(newValue)
	return newValue
}

// Value returns the current value of the flag.
func (f *SafeFlag) Value() bool {
	return f.value.Load()
}

// Swap stores newValue and reports the previous value.
func (f *SafeFlag) Swap(newValue bool) bool {
	return f.value.Swap(newValue)
}
