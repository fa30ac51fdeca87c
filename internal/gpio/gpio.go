// Package gpio provides the fan's digital output line with hardware abstraction.
// The real implementation uses Linux GPIO character device.
// The fake implementation allows testing without hardware.
package gpio

// Writer drives a single digital output line.
type Writer interface {
	// Set drives the line high (true) or low (false).
	Set(high bool) error

	// Close releases the line. It must be called exactly once.
	Close() error
}

// Opener acquires a Writer. The PWM generator calls it from its own
// goroutine so the line is owned there for its whole lifetime.
type Opener func() (Writer, error)

// Line defaults for the Orange Pi / Allwinner header pin the fan is wired to.
const (
	DefaultChip = "gpiochip1"
	DefaultLine = 98
)

// Consumer is the label shown by gpioinfo for the requested line.
const Consumer = "fan-controller"
