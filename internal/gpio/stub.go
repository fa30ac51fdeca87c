//go:build !linux

package gpio

import "errors"

// RealWriter is not available on non-Linux platforms.
type RealWriter struct{}

// NewRealWriter returns an error on non-Linux platforms.
func NewRealWriter(chipName string, offset int) (*RealWriter, error) {
	return nil, errors.New("gpio: not supported on this platform (requires Linux)")
}

// RealOpener returns an Opener that always fails on non-Linux platforms.
func RealOpener(chipName string, offset int) Opener {
	return func() (Writer, error) {
		return nil, errors.New("gpio: not supported on this platform (requires Linux)")
	}
}

// Set is not implemented on non-Linux platforms.
func (w *RealWriter) Set(high bool) error {
	return errors.New("gpio: not supported")
}

// Close is not implemented on non-Linux platforms.
func (w *RealWriter) Close() error {
	return nil
}
