package logic

import (
	"math"
	"testing"
	"time"
)

const eps = 1e-9

func approx(a, b float64) bool {
	return math.Abs(a-b) < eps
}

func TestNextStepLaw(t *testing.T) {
	p := DefaultParams()

	tests := []struct {
		name    string
		d       float64
		celsius float64
		want    float64
	}{
		{"below target decreases", 0.5, 40, 0.45},
		{"above target increases", 0.5, 50, 0.55},
		{"equal is no-op", 0.5, 45, 0.5},
		{"clamped at one", 1, 50, 1},
		{"clamped at zero", 0.02, 30, 0},
		{"zero stays zero below target", 0, 30, 0},
		{"zero rises above target", 0, 60, 0.05},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Next(tt.d, tt.celsius, p)
			if !approx(got, tt.want) {
				t.Errorf("Next(%v, %v): got %v, want %v", tt.d, tt.celsius, got, tt.want)
			}
		})
	}
}

func TestClampIdempotent(t *testing.T) {
	for _, v := range []float64{-3, -0.01, 0, 0.3, 0.999, 1, 1.01, 7} {
		once := Clamp(v)
		twice := Clamp(once)
		if once != twice {
			t.Errorf("Clamp(%v): once %v, twice %v", v, once, twice)
		}
		if once < 0 || once > 1 {
			t.Errorf("Clamp(%v) = %v, out of [0, 1]", v, once)
		}
	}
}

func TestRemapRange(t *testing.T) {
	minDuty := 0.3
	for i := 0; i <= 100; i++ {
		d := float64(i) / 100
		got := Remap(d, minDuty)
		if d == 0 {
			if got != 0 {
				t.Errorf("Remap(0): got %v, want exactly 0", got)
			}
			continue
		}
		if got < minDuty || got > 1 {
			t.Errorf("Remap(%v): got %v, want in [%v, 1]", d, got, minDuty)
		}
	}
}

func TestRemapZeroIsExactlyZero(t *testing.T) {
	if got := Remap(0, 0.3); got != 0 {
		t.Errorf("got %v, want 0 (not min duty)", got)
	}
	if got := Remap(1, 0.3); got != 1 {
		t.Errorf("got %v, want 1", got)
	}
}

func TestScenarioAboveTargetStaysAtMax(t *testing.T) {
	p := Params{TargetC: 45, Step: 0.05, MinDuty: 0.3, FrequencyHz: 100, Policy: PolicyMax}
	d := 1.0
	for i := 0; i < 3; i++ {
		d = Next(d, 50, p)
		if d != 1 {
			t.Fatalf("tick %d: d = %v, want 1", i, d)
		}
		if f := Remap(d, p.MinDuty); f != 1 {
			t.Fatalf("tick %d: fraction = %v, want 1", i, f)
		}
	}
}

func TestScenarioBelowTargetFourTicks(t *testing.T) {
	p := Params{TargetC: 45, Step: 0.05, MinDuty: 0.3, FrequencyHz: 100, Policy: PolicyMax}
	want := []float64{0.95, 0.90, 0.85, 0.80}
	d := 1.0
	for i, w := range want {
		d = Next(d, 40, p)
		if !approx(d, w) {
			t.Fatalf("tick %d: d = %v, want %v", i, d, w)
		}
		if f := Remap(d, p.MinDuty); !approx(f, 0.3+0.7*w) {
			t.Errorf("tick %d: fraction = %v, want %v", i, f, 0.3+0.7*w)
		}
	}
}

func TestApplyPolicies(t *testing.T) {
	failed := Reading{OK: false}

	tests := []struct {
		policy Policy
		d      float64
		want   float64
	}{
		{PolicyMax, 0.2, 1},
		{PolicyMax, 0, 1},
		{PolicyHold, 0.4, 0.4},
		{PolicyLegacy, 0.4, 0.35},
		{PolicyLegacy, 0, 0},
	}

	for _, tt := range tests {
		t.Run(string(tt.policy), func(t *testing.T) {
			p := DefaultParams()
			p.Policy = tt.policy
			got := Apply(tt.d, failed, p)
			if !approx(got, tt.want) {
				t.Errorf("Apply(%v) with %s: got %v, want %v", tt.d, tt.policy, got, tt.want)
			}
		})
	}
}

func TestApplyValidReadingIgnoresPolicy(t *testing.T) {
	p := DefaultParams()
	p.Policy = PolicyLegacy
	got := Apply(0.5, Reading{Celsius: 60, OK: true}, p)
	if !approx(got, 0.55) {
		t.Errorf("got %v, want 0.55", got)
	}
}

func TestPeriod(t *testing.T) {
	if got := Period(100); got != 10*time.Millisecond {
		t.Errorf("Period(100): got %v, want 10ms", got)
	}
	if got := Period(25000); got != 40*time.Microsecond {
		t.Errorf("Period(25000): got %v, want 40µs", got)
	}
}

func TestGeometrySumsToPeriod(t *testing.T) {
	periods := []time.Duration{Period(100), Period(60), Period(1000), Period(7)}
	for _, period := range periods {
		for i := 0; i <= 1000; i++ {
			f := float64(i) / 1000
			on, off := Geometry(f, period)
			if on+off != period {
				t.Fatalf("fraction %v period %v: on %v + off %v != period", f, period, on, off)
			}
			if on < 0 || off < 0 {
				t.Fatalf("fraction %v: negative phase on=%v off=%v", f, on, off)
			}
		}
	}
}

func TestGeometryBoundaries(t *testing.T) {
	period := Period(100)

	on, off := Geometry(0, period)
	if on != 0 || off != period {
		t.Errorf("fraction 0: got on=%v off=%v, want on=0 off=%v", on, off, period)
	}

	on, off = Geometry(1, period)
	if on != period || off != 0 {
		t.Errorf("fraction 1: got on=%v off=%v, want on=%v off=0", on, off, period)
	}

	on, off = Geometry(1.5, period)
	if on != period || off != 0 {
		t.Errorf("fraction 1.5: got on=%v off=%v, want clamped to full period", on, off)
	}
}

func TestClampNaNIsFullSpeed(t *testing.T) {
	if got := Clamp(math.NaN()); got != 1 {
		t.Errorf("Clamp(NaN): got %v, want 1", got)
	}
	if got := Remap(math.NaN(), 0.3); got != 1 {
		t.Errorf("Remap(NaN): got %v, want 1", got)
	}
}

func TestGeometryNonFiniteFraction(t *testing.T) {
	period := Period(100)
	for _, f := range []float64{math.NaN(), math.Inf(1), math.Inf(-1), Remap(0.5, math.NaN())} {
		on, off := Geometry(f, period)
		if on < 0 || off < 0 || on+off != period {
			t.Errorf("Geometry(%v): on=%v off=%v, want non-negative phases summing to %v", f, on, off, period)
		}
	}
	if on, _ := Geometry(math.NaN(), period); on != period {
		t.Errorf("Geometry(NaN): on=%v, want full period", on)
	}
}

func TestApplyNonFiniteReadingUsesPolicy(t *testing.T) {
	p := DefaultParams()
	for _, c := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		got := Apply(0.4, Reading{Celsius: c, OK: true}, p)
		if got != 1 {
			t.Errorf("Apply with %v°C under max policy: got %v, want 1", c, got)
		}
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Params)
		wantErr bool
	}{
		{"defaults", func(p *Params) {}, false},
		{"zero frequency", func(p *Params) { p.FrequencyHz = 0 }, true},
		{"negative frequency", func(p *Params) { p.FrequencyHz = -5 }, true},
		{"min duty above one", func(p *Params) { p.MinDuty = 1.2 }, true},
		{"min duty negative", func(p *Params) { p.MinDuty = -0.1 }, true},
		{"zero step", func(p *Params) { p.Step = 0 }, true},
		{"step above one", func(p *Params) { p.Step = 1.5 }, true},
		{"unknown policy", func(p *Params) { p.Policy = "panic" }, true},
		{"min duty zero ok", func(p *Params) { p.MinDuty = 0 }, false},
		{"min duty NaN", func(p *Params) { p.MinDuty = math.NaN() }, true},
		{"step NaN", func(p *Params) { p.Step = math.NaN() }, true},
		{"frequency NaN", func(p *Params) { p.FrequencyHz = math.NaN() }, true},
		{"frequency infinite", func(p *Params) { p.FrequencyHz = math.Inf(1) }, true},
		{"target NaN", func(p *Params) { p.TargetC = math.NaN() }, true},
		{"target infinite", func(p *Params) { p.TargetC = math.Inf(-1) }, true},
		{"negative target ok", func(p *Params) { p.TargetC = -10 }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DefaultParams()
			tt.mutate(&p)
			err := p.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate: err = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestParsePolicy(t *testing.T) {
	for _, s := range []string{"max", "hold", "legacy"} {
		p, err := ParsePolicy(s)
		if err != nil {
			t.Errorf("ParsePolicy(%q): %v", s, err)
		}
		if string(p) != s {
			t.Errorf("ParsePolicy(%q): got %q", s, p)
		}
	}
	if _, err := ParsePolicy("MAX"); err == nil {
		t.Error("expected error for unknown policy")
	}
}
