package logic

import (
	"math"
	"time"
)

// Clamp limits d to [0, 1]. NaN maps to 1 (full speed).
func Clamp(d float64) float64 {
	if d > 1 || math.IsNaN(d) {
		return 1
	}
	if d < 0 {
		return 0
	}
	return d
}

// Next advances the duty fraction by one tick for a valid temperature.
// Below target lowers it, above target raises it, exact equality is a no-op.
func Next(d, celsius float64, p Params) float64 {
	if celsius < p.TargetC {
		d -= p.Step
	}
	if celsius > p.TargetC {
		d += p.Step
	}
	return Clamp(d)
}

// Apply advances the duty fraction for a reading, honouring the sensor
// failure policy when the reading is not OK or not finite.
func Apply(d float64, r Reading, p Params) float64 {
	if r.OK && finite(r.Celsius) {
		return Next(d, r.Celsius, p)
	}
	switch p.Policy {
	case PolicyHold:
		return Clamp(d)
	case PolicyLegacy:
		return Next(d, SentinelC, p)
	default:
		return 1
	}
}

// Remap converts the internal duty fraction into the published PWM fraction.
// Zero stays zero so the fan can stop; anything else lands in [minDuty, 1].
func Remap(d, minDuty float64) float64 {
	d = Clamp(d)
	if d == 0 {
		return 0
	}
	return Clamp(minDuty + (1-minDuty)*d)
}

// Period returns the PWM period for a frequency in Hz (1,000,000/freq µs).
func Period(freq float64) time.Duration {
	return time.Duration(float64(time.Second) / freq)
}

// Geometry splits one period into the high and low phase for a fraction.
// on+off always equals period.
func Geometry(fraction float64, period time.Duration) (on, off time.Duration) {
	on = time.Duration(Clamp(fraction) * float64(period))
	if on > period {
		on = period
	}
	return on, period - on
}
