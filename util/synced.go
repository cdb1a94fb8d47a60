package util

import "sync/atomic"

// Sequence hands out increasing ticket numbers. Only the holder of the
// latest ticket is current; older tickets are stale.
type Sequence struct {
	value atomic.Int64
}

// NewSequence creates a Sequence with no tickets issued.
func NewSequence() *Sequence {
	return &Sequence{}
}

// Next issues a new ticket, making every earlier ticket stale.
func (s *Sequence) Next() int {
	return int(s.value.Add(1))
}

// Latest returns the most recently issued ticket, or 0.
func (s *Sequence) Latest() int {
	return int(s.value.Load())
}

// IsCurrent reports whether ticket is still the latest one.
func (s *Sequence) IsCurrent(ticket int) bool {
	return ticket == s.Latest()
}

// SafeFlag is a bool safe to use concurrently.
type SafeFlag struct {
	value atomic.Bool
}

// NewSafeFlag creates a cleared flag.
func NewSafeFlag() *SafeFlag {
	return &SafeFlag{}
}

// Set stores newValue and returns it.
func (sf *SafeFlag) Set(newValue bool) bool {
	sf.value.Store(newValue)
	return newValue
}

// Value returns the current value.
func (sf *SafeFlag) Value() bool {
	return sf.value.Load()
}
