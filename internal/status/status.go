// Package status provides a thread-safe status tracker for the fan-controller daemon.
// It is written by the control loop and read by HTTP handlers and MQTT alerts.
package status

import (
	"sync"
	"time"

	"github.com/sweeney/fan-controller/internal/logic"
)

// NetworkInfo contains network state. This is a local copy to avoid
// importing internal/mqtt from status.
type NetworkInfo struct {
	Type       string
	IP         string
	Status     string
	Gateway    string
	WifiStatus string
	SSID       string
}

// Config contains daemon configuration for display.
type Config struct {
	TargetC     float64
	Step        float64
	MinDuty     float64
	FrequencyHz float64
	TickMs      int64
	Policy      string
	SensorPath  string
	Chip        string
	Line        int
	Priority    int
	Broker      string
	HTTPAddr    string
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type and safe to use after the lock is released.
type Snapshot struct {
	Temperature   float64 // last good reading, °C
	HasReading    bool    // whether Temperature has ever been set
	SensorOK      bool    // whether the most recent read succeeded
	SensorError   string  // most recent read error, cleared on recovery
	SensorFaults  int     // total failed reads since startup
	Duty          float64 // controller integrator state d
	Fraction      float64 // published PWM fraction
	Ticks         uint64
	LastTick      time.Time
	PWMPeriods    uint64
	RealtimeOK    bool
	RealtimeError string
	StartTime     time.Time
	Now           time.Time
	MQTTConnected bool
	Network       *NetworkInfo
	Config        Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Degraded reports whether control is currently running without a valid
// temperature.
func (s Snapshot) Degraded() bool {
	return s.Ticks > 0 && !s.SensorOK
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu      sync.RWMutex
	snap    Snapshot
	periods func() uint64
	mqtt    func() bool
}

// NewTracker creates a Tracker with the given start time and config.
// The duty fraction starts at full speed, matching the controller.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			Duty:      1,
			Fraction:  1,
			StartTime: startTime,
			Config:    cfg,
		},
	}
}

// Update records one control tick.
// Called from the controller on every tick.
func (t *Tracker) Update(r logic.Reading, sensorErr error, d, fraction float64) {
	t.mu.Lock()
	t.snap.Ticks++
	t.snap.LastTick = r.Time
	t.snap.SensorOK = r.OK
	if r.OK {
		t.snap.Temperature = r.Celsius
		t.snap.HasReading = true
		t.snap.SensorError = ""
	} else {
		t.snap.SensorFaults++
		if sensorErr != nil {
			t.snap.SensorError = sensorErr.Error()
		}
	}
	t.snap.Duty = d
	t.snap.Fraction = fraction
	t.mu.Unlock()
}

// SetRealtime records the outcome of the PWM thread's priority elevation.
func (t *Tracker) SetRealtime(err error) {
	t.mu.Lock()
	t.snap.RealtimeOK = err == nil
	t.snap.RealtimeError = ""
	if err != nil {
		t.snap.RealtimeError = err.Error()
	}
	t.mu.Unlock()
}

// SetPeriodSource registers a counter of completed PWM periods. It is read
// on Snapshot so the generator never touches the tracker.
func (t *Tracker) SetPeriodSource(fn func() uint64) {
	t.mu.Lock()
	t.periods = fn
	t.mu.Unlock()
}

// SetMQTTSource registers a live MQTT connection check, read on Snapshot.
// It takes precedence over SetMQTTConnected.
func (t *Tracker) SetMQTTSource(fn func() bool) {
	t.mu.Lock()
	t.mqtt = fn
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// SetNetwork sets the network info.
func (t *Tracker) SetNetwork(info *NetworkInfo) {
	t.mu.Lock()
	t.snap.Network = info
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	periods, connected := t.periods, t.mqtt
	t.mu.RUnlock()
	if periods != nil {
		s.PWMPeriods = periods()
	}
	if connected != nil {
		s.MQTTConnected = connected()
	}
	s.Now = time.Now()
	return s
}
