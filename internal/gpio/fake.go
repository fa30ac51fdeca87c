package gpio

import (
	"errors"
	"sync"
	"time"
)

// Edge is one recorded level change.
type Edge struct {
	High bool
	Time time.Time
}

// FakeWriter is a test double that records every Set call.
// It is safe for concurrent use: the generator writes while tests inspect.
type FakeWriter struct {
	mu     sync.Mutex
	sets   []Edge
	high   bool
	closes int
	onSet  func(high bool)
	setErr error

	// CloseErr, if set, is returned by Close. Set it before handing the
	// writer to a generator.
	CloseErr error
}

// NewFakeWriter creates a FakeWriter with the line low.
func NewFakeWriter() *FakeWriter {
	return &FakeWriter{}
}

// Opener returns an Opener that hands out this writer.
func (f *FakeWriter) Opener() Opener {
	return func() (Writer, error) { return f, nil }
}

// FailingOpener returns an Opener that always fails with err.
func FailingOpener(err error) Opener {
	if err == nil {
		err = errors.New("gpio: request failed")
	}
	return func() (Writer, error) { return nil, err }
}

// OnSet registers a hook called after each successful Set, outside the lock.
func (f *FakeWriter) OnSet(fn func(high bool)) {
	f.mu.Lock()
	f.onSet = fn
	f.mu.Unlock()
}

// Set records the level.
func (f *FakeWriter) Set(high bool) error {
	f.mu.Lock()
	if f.setErr != nil {
		err := f.setErr
		f.mu.Unlock()
		return err
	}
	f.sets = append(f.sets, Edge{High: high, Time: time.Now()})
	f.high = high
	hook := f.onSet
	f.mu.Unlock()

	if hook != nil {
		hook(high)
	}
	return nil
}

// Close counts the release.
func (f *FakeWriter) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closes++
	return f.CloseErr
}

// High reports the last level written.
func (f *FakeWriter) High() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.high
}

// Sets returns a copy of all recorded Set calls.
func (f *FakeWriter) Sets() []Edge {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Edge, len(f.sets))
	copy(out, f.sets)
	return out
}

// Closes returns how many times Close was called.
func (f *FakeWriter) Closes() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closes
}

// SetError sets the error returned by Set. Pass nil to clear.
func (f *FakeWriter) SetError(err error) {
	f.mu.Lock()
	f.setErr = err
	f.mu.Unlock()
}
