// Package rt raises the scheduling class of the calling thread so the
// software PWM loop is not delayed by ordinary time-sharing.
package rt

import (
	"errors"
	"fmt"
)

// MaxFIFOPriority is the highest SCHED_FIFO priority on Linux.
const MaxFIFOPriority = 99

// ErrUnsupported is returned where real-time scheduling is unavailable.
var ErrUnsupported = errors.New("rt: real-time scheduling not supported on this platform")

func checkPriority(priority int) error {
	if priority < 1 || priority > MaxFIFOPriority {
		return fmt.Errorf("rt: priority %d out of range [1, %d]", priority, MaxFIFOPriority)
	}
	return nil
}
