package pwm

import (
	"sync"
	"time"
)

// Sleeper waits out one PWM phase. Swap it when the platform's sleep
// resolution is too coarse for the configured frequency.
type Sleeper interface {
	Sleep(d time.Duration)
}

// SystemSleeper uses time.Sleep. Resolution is whatever the kernel timer
// slack allows, typically 50-100µs on Linux.
type SystemSleeper struct{}

// Sleep blocks for d. Non-positive durations return immediately.
func (SystemSleeper) Sleep(d time.Duration) {
	if d > 0 {
		time.Sleep(d)
	}
}

// SpinSleeper sleeps for all but Threshold of the wait, then busy-waits to
// the deadline. It trades one core's worth of CPU for sub-timer accuracy.
type SpinSleeper struct {
	Threshold time.Duration
}

// Sleep blocks for d.
func (s SpinSleeper) Sleep(d time.Duration) {
	if d <= 0 {
		return
	}
	deadline := time.Now().Add(d)
	if coarse := d - s.Threshold; coarse > 0 {
		time.Sleep(coarse)
	}
	for time.Now().Before(deadline) {
	}
}

// FakeSleeper records requested waits without blocking.
type FakeSleeper struct {
	mu     sync.Mutex
	sleeps []time.Duration
	hook   func(n int)
}

// NewFakeSleeper creates a FakeSleeper. hook, if non-nil, is called after
// each recorded wait with the running count.
func NewFakeSleeper(hook func(n int)) *FakeSleeper {
	return &FakeSleeper{hook: hook}
}

// Sleep records d.
func (f *FakeSleeper) Sleep(d time.Duration) {
	f.mu.Lock()
	f.sleeps = append(f.sleeps, d)
	n := len(f.sleeps)
	hook := f.hook
	f.mu.Unlock()

	if hook != nil {
		hook(n)
	}
}

// Sleeps returns a copy of every recorded wait.
func (f *FakeSleeper) Sleeps() []time.Duration {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]time.Duration, len(f.sleeps))
	copy(out, f.sleeps)
	return out
}
