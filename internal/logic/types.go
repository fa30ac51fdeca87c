// Package logic contains the pure control law for the fan controller.
// This package has NO external dependencies (no GPIO, MQTT, OS, or time.Sleep).
// Durations are computed, never waited on.
package logic

import (
	"fmt"
	"math"
	"time"
)

// Policy selects how a failed temperature read feeds the control law.
type Policy string

const (
	// PolicyMax drives the duty fraction to 1 (full speed) on a failed read.
	PolicyMax Policy = "max"
	// PolicyHold keeps the duty fraction unchanged on a failed read.
	PolicyHold Policy = "hold"
	// PolicyLegacy substitutes SentinelC for the failed read. The sentinel is
	// below any plausible target, so the fan slows down while the sensor is broken.
	PolicyLegacy Policy = "legacy"
)

// SentinelC is the reading substituted for a failed read under PolicyLegacy.
const SentinelC = -1.0

// ParsePolicy converts a flag value into a Policy.
func ParsePolicy(s string) (Policy, error) {
	switch p := Policy(s); p {
	case PolicyMax, PolicyHold, PolicyLegacy:
		return p, nil
	}
	return "", fmt.Errorf("unknown sensor error policy %q (want max, hold or legacy)", s)
}

// Params are the injected control constants.
type Params struct {
	TargetC     float64 // setpoint in °C
	Step        float64 // duty change per tick, (0, 1]
	MinDuty     float64 // lowest non-zero published fraction, [0, 1]
	FrequencyHz float64 // PWM frequency
	Policy      Policy
}

// DefaultParams returns the stock constants: 45°C target, 0.05 step,
// 0.3 minimum duty, 100 Hz, fail to full speed.
func DefaultParams() Params {
	return Params{
		TargetC:     45,
		Step:        0.05,
		MinDuty:     0.3,
		FrequencyHz: 100,
		Policy:      PolicyMax,
	}
}

// Validate reports the first out-of-range parameter.
func (p Params) Validate() error {
	// Comparisons are written so that NaN fails them.
	if !(p.FrequencyHz > 0) || math.IsInf(p.FrequencyHz, 0) {
		return fmt.Errorf("frequency must be positive and finite, got %v", p.FrequencyHz)
	}
	if Period(p.FrequencyHz) <= 0 {
		return fmt.Errorf("frequency %v Hz too high for a software PWM period", p.FrequencyHz)
	}
	if !(p.MinDuty >= 0 && p.MinDuty <= 1) {
		return fmt.Errorf("min duty must be in [0, 1], got %v", p.MinDuty)
	}
	if !(p.Step > 0 && p.Step <= 1) {
		return fmt.Errorf("step must be in (0, 1], got %v", p.Step)
	}
	if !finite(p.TargetC) {
		return fmt.Errorf("target must be finite, got %v", p.TargetC)
	}
	if _, err := ParsePolicy(string(p.Policy)); err != nil {
		return err
	}
	return nil
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// Reading is one temperature sample. OK is false when the sensor could not
// be read or parsed, in which case Celsius is meaningless. A non-finite
// Celsius is handled as a failed read.
type Reading struct {
	Celsius float64
	OK      bool
	Time    time.Time
}
