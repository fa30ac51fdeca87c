package shutdown

import (
	"sync"
	"testing"
	"time"
)

func TestFlagInitiallyClear(t *testing.T) {
	f := NewFlag()
	if f.ShouldStop() {
		t.Error("new flag should not be set")
	}
	select {
	case <-f.Done():
		t.Error("Done should not be closed before RequestStop")
	default:
	}
}

func TestFlagRequestStop(t *testing.T) {
	f := NewFlag()
	f.RequestStop()

	if !f.ShouldStop() {
		t.Error("expected ShouldStop after RequestStop")
	}
	select {
	case <-f.Done():
	case <-time.After(time.Second):
		t.Fatal("Done not closed after RequestStop")
	}
}

func TestFlagRequestStopIdempotent(t *testing.T) {
	f := NewFlag()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			f.RequestStop()
		}()
	}
	wg.Wait()

	// A second close would panic.
	f.RequestStop()
	if !f.ShouldStop() {
		t.Error("expected ShouldStop")
	}
}

func TestCoordinatorFlagsIndependent(t *testing.T) {
	c := NewCoordinator()
	c.Controller.RequestStop()

	if !c.Controller.ShouldStop() {
		t.Error("controller flag should be set")
	}
	if c.Generator.ShouldStop() {
		t.Error("generator flag must only be set by the controller")
	}
}
