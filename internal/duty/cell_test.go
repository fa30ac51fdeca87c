package duty

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewCellStartsAtFullSpeed(t *testing.T) {
	c := NewCell()
	f, ok := c.TryLoad()
	require.True(t, ok)
	require.Equal(t, 1.0, f)
}

func TestPublishThenLoad(t *testing.T) {
	c := NewCell()
	c.Publish(0.65)
	require.Equal(t, 0.65, c.Load())

	f, ok := c.TryLoad()
	require.True(t, ok)
	require.Equal(t, 0.65, f)
}

func TestPublishClamps(t *testing.T) {
	c := NewCell()
	c.Publish(1.7)
	require.Equal(t, 1.0, c.Load())
	c.Publish(-0.2)
	require.Equal(t, 0.0, c.Load())
}

func TestTryLoadFailsWhileWriterHoldsLock(t *testing.T) {
	c := NewCell()
	c.mu.Lock()
	_, ok := c.TryLoad()
	c.mu.Unlock()
	require.False(t, ok, "TryLoad must not block or succeed under contention")

	_, ok = c.TryLoad()
	require.True(t, ok)
}

// Readers only ever see values some writer published.
func TestConcurrentPublishAndTryLoad(t *testing.T) {
	c := NewCell()
	valid := map[float64]bool{1: true, 0: true, 0.3: true, 0.65: true}
	values := []float64{0, 0.3, 0.65, 1}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 10000; i++ {
			c.Publish(values[i%len(values)])
		}
	}()

	misses := 0
	for i := 0; i < 10000; i++ {
		f, ok := c.TryLoad()
		if !ok {
			misses++
			continue
		}
		if !valid[f] {
			t.Fatalf("observed torn value %v", f)
		}
	}
	wg.Wait()
	t.Logf("TryLoad misses under contention: %d", misses)
}
