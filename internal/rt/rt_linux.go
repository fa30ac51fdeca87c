//go:build linux

package rt

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// Elevate switches the calling OS thread to SCHED_FIFO at priority.
// The caller must have called runtime.LockOSThread and keep it locked,
// otherwise the goroutine may migrate off the elevated thread.
func Elevate(priority int) error {
	if err := checkPriority(priority); err != nil {
		return err
	}
	attr := &unix.SchedAttr{
		Size:     unix.SizeofSchedAttr,
		Policy:   unix.SCHED_FIFO,
		Priority: uint32(priority),
	}
	// pid 0 is the calling thread.
	if err := unix.SchedSetAttr(0, attr, 0); err != nil {
		return fmt.Errorf("sched_setattr SCHED_FIFO %d: %w", priority, err)
	}
	return nil
}
