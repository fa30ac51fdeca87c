//go:build !linux

package rt

// Elevate is not implemented on non-Linux platforms.
func Elevate(priority int) error {
	if err := checkPriority(priority); err != nil {
		return err
	}
	return ErrUnsupported
}
