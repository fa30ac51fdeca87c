package thermal

import (
	"errors"
	"sync"
)

// Sample is a scripted sensor result.
type Sample struct {
	Celsius float64
	Err     error
}

// FakeSensor is a test double that returns scripted readings.
// Each call to Read() consumes the next sample; the last one repeats.
type FakeSensor struct {
	mu      sync.Mutex
	samples []Sample
	index   int
	reads   int
}

// NewFakeSensor creates a FakeSensor with the given samples.
func NewFakeSensor(samples ...Sample) *FakeSensor {
	return &FakeSensor{samples: samples}
}

// Readings is shorthand for a FakeSensor that never fails.
func Readings(celsius ...float64) *FakeSensor {
	samples := make([]Sample, len(celsius))
	for i, c := range celsius {
		samples[i] = Sample{Celsius: c}
	}
	return NewFakeSensor(samples...)
}

// Read returns the next scripted sample.
func (f *FakeSensor) Read() (float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.reads++
	if len(f.samples) == 0 {
		return 0, errors.New("no samples configured")
	}

	s := f.samples[f.index]
	if f.index < len(f.samples)-1 {
		f.index++
	}
	return s.Celsius, s.Err
}

// Reads returns how many times Read was called.
func (f *FakeSensor) Reads() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.reads
}
