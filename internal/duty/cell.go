// Package duty holds the PWM fraction shared between the control loop and
// the PWM generator.
//
// Access is deliberately asymmetric: the controller publishes with a blocking
// lock and never skips an update; the generator reads with TryLock and falls
// back to its previous value, so the real-time path never waits on the mutex.
package duty

import (
	"sync"

	"github.com/sweeney/fan-controller/internal/logic"
)

// Cell is a mutex-guarded fraction in [0, 1].
type Cell struct {
	mu       sync.Mutex
	fraction float64
}

// NewCell returns a Cell holding 1 (full speed).
func NewCell() *Cell {
	return &Cell{fraction: 1}
}

// Publish stores f, clamped to [0, 1]. It blocks until the lock is held.
func (c *Cell) Publish(f float64) {
	f = logic.Clamp(f)
	c.mu.Lock()
	c.fraction = f
	c.mu.Unlock()
}

// TryLoad returns the current fraction without blocking.
// ok is false if the writer holds the lock.
func (c *Cell) TryLoad() (f float64, ok bool) {
	if !c.mu.TryLock() {
		return 0, false
	}
	f = c.fraction
	c.mu.Unlock()
	return f, true
}

// Load returns the current fraction, blocking if needed.
// Not for use on the real-time path.
func (c *Cell) Load() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fraction
}
