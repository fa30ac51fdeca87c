// Package control runs the slow duty-cycle loop: sample the temperature,
// step the duty fraction toward the setpoint, publish the remapped PWM
// fraction for the generator.
package control

import (
	"errors"
	"fmt"
	"log"
	"math"
	"time"

	"github.com/sweeney/fan-controller/internal/duty"
	"github.com/sweeney/fan-controller/internal/logic"
	"github.com/sweeney/fan-controller/internal/mqtt"
	"github.com/sweeney/fan-controller/internal/shutdown"
	"github.com/sweeney/fan-controller/internal/status"
	"github.com/sweeney/fan-controller/internal/thermal"
)

// Joiner is the generator as seen by the controller: something to wait for
// after its stop flag has been set.
type Joiner interface {
	Wait() error
}

// Config wires a Controller.
type Config struct {
	Params    logic.Params
	Sensor    thermal.Sensor
	Cell      *duty.Cell
	Stop      *shutdown.Coordinator
	Generator Joiner

	// Optional.
	Tracker *status.Tracker
	Alerts  mqtt.Publisher
	Now     func() time.Time
}

// Sample is the outcome of one tick.
type Sample struct {
	Reading  logic.Reading
	Err      error
	Duty     float64
	Fraction float64
}

// Controller owns the duty fraction d. It is not safe for concurrent use;
// only the control goroutine calls Tick and Run.
type Controller struct {
	params  logic.Params
	sensor  thermal.Sensor
	cell    *duty.Cell
	stop    *shutdown.Coordinator
	gen     Joiner
	tracker *status.Tracker
	alerts  mqtt.Publisher
	now     func() time.Time

	d          float64
	faulted    bool
	faultReads int
}

// New validates cfg and returns a Controller with d = 1 (full speed).
func New(cfg Config) (*Controller, error) {
	if err := cfg.Params.Validate(); err != nil {
		return nil, fmt.Errorf("invalid params: %w", err)
	}
	if cfg.Sensor == nil {
		return nil, errors.New("sensor is required")
	}
	if cfg.Cell == nil {
		return nil, errors.New("duty cell is required")
	}
	if cfg.Stop == nil {
		return nil, errors.New("shutdown coordinator is required")
	}

	c := &Controller{
		params:  cfg.Params,
		sensor:  cfg.Sensor,
		cell:    cfg.Cell,
		stop:    cfg.Stop,
		gen:     cfg.Generator,
		tracker: cfg.Tracker,
		alerts:  cfg.Alerts,
		now:     cfg.Now,
		d:       1,
	}
	if c.now == nil {
		c.now = time.Now
	}
	if c.alerts == nil {
		c.alerts = mqtt.NopPublisher{}
	}
	return c, nil
}

// Duty returns the current integrator state d.
func (c *Controller) Duty() float64 {
	return c.d
}

// Run ticks on every value from tick until the controller stop flag is
// set, then asks the generator to stop and waits for it to release the line.
func (c *Controller) Run(tick <-chan time.Time) error {
	for !c.stop.Controller.ShouldStop() {
		select {
		case <-tick:
			c.Tick()
		case <-c.stop.Controller.Done():
		}
	}

	c.stop.Generator.RequestStop()
	if c.gen == nil {
		return nil
	}
	if err := c.gen.Wait(); err != nil {
		return fmt.Errorf("pwm generator: %w", err)
	}
	return nil
}

// Tick samples the sensor once, updates d and publishes the PWM fraction.
func (c *Controller) Tick() Sample {
	celsius, err := c.sensor.Read()
	if err == nil && (math.IsNaN(celsius) || math.IsInf(celsius, 0)) {
		err = fmt.Errorf("non-finite reading %v", celsius)
	}
	r := logic.Reading{Celsius: celsius, OK: err == nil, Time: c.now()}

	c.d = logic.Apply(c.d, r, c.params)
	fraction := logic.Remap(c.d, c.params.MinDuty)
	c.cell.Publish(fraction)

	if c.tracker != nil {
		c.tracker.Update(r, err, c.d, fraction)
	}
	c.observeSensor(r, err)

	return Sample{Reading: r, Err: err, Duty: c.d, Fraction: fraction}
}

// observeSensor reports fault onset and recovery once each, not per tick.
func (c *Controller) observeSensor(r logic.Reading, err error) {
	if err != nil {
		c.faultReads++
		if !c.faulted {
			c.faulted = true
			log.Printf("sensor read failed, %s: %v", policyAction(c.params.Policy), err)
			c.alert(mqtt.EventSensorFault, err.Error(), r.Time)
		}
		return
	}

	if c.faulted {
		log.Printf("sensor recovered after %d failed reads: %.1f°C", c.faultReads, r.Celsius)
		c.faulted = false
		c.faultReads = 0
		c.alert(mqtt.EventSensorRecovered, "", r.Time)
	}
}

func (c *Controller) alert(event, reason string, t time.Time) {
	e := mqtt.SystemEvent{
		Timestamp: t,
		Event:     event,
		Reason:    reason,
	}
	if c.tracker != nil {
		e.RawPayload = status.FormatStatusEvent(c.tracker.Snapshot(), event, reason)
	}
	if err := c.alerts.PublishSystem(e); err != nil {
		log.Printf("failed to publish %s alert: %v", event, err)
	}
}

func policyAction(p logic.Policy) string {
	switch p {
	case logic.PolicyHold:
		return "holding duty"
	case logic.PolicyLegacy:
		return fmt.Sprintf("treating as %.1f°C", logic.SentinelC)
	default:
		return "running fan at full speed"
	}
}
