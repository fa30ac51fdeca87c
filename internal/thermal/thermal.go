// Package thermal reads the temperature the fan is controlling against.
// The real implementation reads a Linux thermal zone file.
// The fake implementation allows testing without hardware.
package thermal

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// DefaultPath is the SoC thermal zone on most single-board computers.
const DefaultPath = "/sys/devices/virtual/thermal/thermal_zone0/temp"

// Sensor reads a temperature.
type Sensor interface {
	// Read returns the current temperature in degrees Celsius.
	Read() (float64, error)
}

// FileSensor reads a file holding an integer count of milli-degrees Celsius.
type FileSensor struct {
	Path string
}

// NewFileSensor creates a sensor for the given path.
func NewFileSensor(path string) *FileSensor {
	return &FileSensor{Path: path}
}

// Read opens the file fresh on every call; sysfs values are only current on open.
func (s *FileSensor) Read() (float64, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return 0, fmt.Errorf("read %s: %w", s.Path, err)
	}
	c, err := ParseMilliCelsius(string(data))
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", s.Path, err)
	}
	return c, nil
}

// ParseMilliCelsius converts "48312\n" into 48.312. Only a decimal
// integer count of millidegrees is accepted.
func ParseMilliCelsius(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty value")
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, err
	}
	return float64(v) / 1000, nil
}
