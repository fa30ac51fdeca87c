// Package shutdown coordinates cooperative stop of the control loop and the
// PWM generator.
package shutdown

import (
	"sync"
	"sync/atomic"
)

// Flag is a write-once stop request. The zero value is not usable; use NewFlag.
type Flag struct {
	stopped atomic.Bool
	once    sync.Once
	done    chan struct{}
}

// NewFlag returns a Flag that has not been requested.
func NewFlag() *Flag {
	return &Flag{done: make(chan struct{})}
}

// RequestStop sets the flag. Later calls are no-ops.
func (f *Flag) RequestStop() {
	f.once.Do(func() {
		f.stopped.Store(true)
		close(f.done)
	})
}

// ShouldStop reports whether a stop was requested. It never blocks.
func (f *Flag) ShouldStop() bool {
	return f.stopped.Load()
}

// Done is closed once a stop was requested.
func (f *Flag) Done() <-chan struct{} {
	return f.done
}

// Coordinator holds the two stop flags for the process.
//
// External termination requests set Controller. Only the controller sets
// Generator, after it has left its loop, and then joins the generator. This
// keeps line release on a single owner.
type Coordinator struct {
	Controller *Flag
	Generator  *Flag
}

// NewCoordinator returns a Coordinator with both flags clear.
func NewCoordinator() *Coordinator {
	return &Coordinator{
		Controller: NewFlag(),
		Generator:  NewFlag(),
	}
}
