// Command fan-controller drives a GPIO fan with software PWM to hold a temperature setpoint.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/oklog/run"

	"github.com/sweeney/fan-controller/internal/control"
	"github.com/sweeney/fan-controller/internal/duty"
	"github.com/sweeney/fan-controller/internal/gpio"
	"github.com/sweeney/fan-controller/internal/logic"
	"github.com/sweeney/fan-controller/internal/mqtt"
	"github.com/sweeney/fan-controller/internal/pwm"
	"github.com/sweeney/fan-controller/internal/rt"
	"github.com/sweeney/fan-controller/internal/shutdown"
	"github.com/sweeney/fan-controller/internal/status"
	"github.com/sweeney/fan-controller/internal/thermal"
	"github.com/sweeney/fan-controller/internal/web"
)

type options struct {
	chip     string
	line     int
	tick     time.Duration
	sensor   string
	priority int
	spin     time.Duration
	broker   string
	httpAddr string
	params   logic.Params
}

func main() {
	o, err := parseFlags(os.Args[1:])
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		log.Fatalf("fatal: %v", err)
	}

	if err := runDaemon(o); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

func parseFlags(args []string) (options, error) {
	def := logic.DefaultParams()
	fs := flag.NewFlagSet("fan-controller", flag.ContinueOnError)

	chip := fs.String("chip", gpio.DefaultChip, "GPIO chip name")
	line := fs.Int("line", gpio.DefaultLine, "GPIO line offset driving the fan")
	freq := fs.Float64("freq", def.FrequencyHz, "PWM frequency in Hz")
	target := fs.Float64("target", def.TargetC, "Target temperature in °C")
	minDuty := fs.Float64("min-duty", def.MinDuty, "Lowest non-zero PWM fraction")
	step := fs.Float64("step", def.Step, "Duty change per control tick")
	tick := fs.Duration("tick", 100*time.Millisecond, "Control loop interval")
	sensor := fs.String("sensor", thermal.DefaultPath, "Thermal zone file (millidegrees Celsius)")
	policy := fs.String("on-sensor-error", string(def.Policy), "Behaviour on a failed read: max, hold or legacy")
	priority := fs.Int("priority", rt.MaxFIFOPriority, "SCHED_FIFO priority for the PWM thread (0 to disable)")
	spin := fs.Duration("spin", 0, "Busy-wait the last part of each PWM phase (0 to disable)")
	broker := fs.String("broker", "", "MQTT broker address for alerts (empty to disable)")
	httpAddr := fs.String("http", "", "HTTP health address (empty to disable)")

	if err := fs.Parse(args); err != nil {
		return options{}, err
	}

	p, err := logic.ParsePolicy(*policy)
	if err != nil {
		return options{}, err
	}
	o := options{
		chip:     *chip,
		line:     *line,
		tick:     *tick,
		sensor:   *sensor,
		priority: *priority,
		spin:     *spin,
		broker:   *broker,
		httpAddr: *httpAddr,
		params: logic.Params{
			TargetC:     *target,
			Step:        *step,
			MinDuty:     *minDuty,
			FrequencyHz: *freq,
			Policy:      p,
		},
	}
	if err := o.validate(); err != nil {
		return options{}, err
	}
	return o, nil
}

func (o options) validate() error {
	if err := o.params.Validate(); err != nil {
		return err
	}
	if o.tick <= 0 {
		return fmt.Errorf("tick must be positive, got %v", o.tick)
	}
	if o.line < 0 {
		return fmt.Errorf("line offset must not be negative, got %d", o.line)
	}
	if o.priority < 0 || o.priority > rt.MaxFIFOPriority {
		return fmt.Errorf("priority must be in [0, %d], got %d", rt.MaxFIFOPriority, o.priority)
	}
	if o.spin < 0 {
		return fmt.Errorf("spin must not be negative, got %v", o.spin)
	}
	return nil
}

func (o options) statusConfig() status.Config {
	return status.Config{
		TargetC:     o.params.TargetC,
		Step:        o.params.Step,
		MinDuty:     o.params.MinDuty,
		FrequencyHz: o.params.FrequencyHz,
		TickMs:      o.tick.Milliseconds(),
		Policy:      string(o.params.Policy),
		SensorPath:  o.sensor,
		Chip:        o.chip,
		Line:        o.line,
		Priority:    o.priority,
		Broker:      o.broker,
		HTTPAddr:    o.httpAddr,
	}
}

func (o options) sleeper() pwm.Sleeper {
	if o.spin > 0 {
		return pwm.SpinSleeper{Threshold: o.spin}
	}
	return pwm.SystemSleeper{}
}

func runDaemon(o options) error {
	tracker := status.NewTracker(time.Now(), o.statusConfig())
	if net := readNetworkInfo(); net != nil {
		tracker.SetNetwork(net)
	}

	var publisher mqtt.Publisher = mqtt.NopPublisher{}
	if o.broker != "" {
		rp := mqtt.NewRealPublisher(o.broker, clientID())
		tracker.SetMQTTSource(rp.IsConnected)
		publisher = rp
	}
	defer publisher.Close()

	stop := shutdown.NewCoordinator()
	cell := duty.NewCell()

	gen := pwm.New(gpio.RealOpener(o.chip, o.line), cell, stop.Generator, pwm.Options{
		FrequencyHz: o.params.FrequencyHz,
		Priority:    o.priority,
		Sleeper:     o.sleeper(),
	})

	ctrl, err := control.New(control.Config{
		Params:    o.params,
		Sensor:    thermal.NewFileSensor(o.sensor),
		Cell:      cell,
		Stop:      stop,
		Generator: gen,
		Tracker:   tracker,
		Alerts:    publisher,
	})
	if err != nil {
		return fmt.Errorf("init controller: %w", err)
	}

	if err := gen.Start(); err != nil {
		return fmt.Errorf("start pwm on %s line %d: %w", o.chip, o.line, err)
	}
	if o.priority > 0 {
		tracker.SetRealtime(gen.Realtime())
	} else {
		tracker.SetRealtime(errors.New("disabled"))
	}
	tracker.SetPeriodSource(gen.Periods)

	publishLifecycle(publisher, tracker, mqtt.EventStartup, "")

	var srv *web.Server
	if o.httpAddr != "" {
		srv = web.New(o.httpAddr, tracker)
	}

	log.Printf("started: chip=%s line=%d freq=%vHz period=%v target=%v°C tick=%v policy=%s",
		o.chip, o.line, o.params.FrequencyHz, gen.Period(), o.params.TargetC, o.tick, o.params.Policy)

	ticker := time.NewTicker(o.tick)
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	sig, err := runGroup(ctrl, stop, ticker.C, sigCh, srv)

	publishLifecycle(publisher, tracker, mqtt.EventShutdown, signalName(sig))
	if err != nil {
		return err
	}
	log.Printf("stopped: line released after %d pwm periods", gen.Periods())
	return nil
}

// runGroup runs the signal, controller and optional HTTP actors until a
// signal arrives or the controller exits. It returns the signal received,
// if any, and the controller's error, which includes the line release error.
func runGroup(ctrl *control.Controller, stop *shutdown.Coordinator, tick <-chan time.Time, sig <-chan os.Signal, srv *web.Server) (os.Signal, error) {
	var (
		g        run.Group
		received os.Signal
		ctrlErr  error
	)

	{
		cancel := make(chan struct{})
		g.Add(func() error {
			select {
			case s := <-sig:
				received = s
				log.Printf("received %v, shutting down", s)
				stop.Controller.RequestStop()
			case <-cancel:
			}
			return nil
		}, func(error) {
			close(cancel)
		})
	}

	g.Add(func() error {
		ctrlErr = ctrl.Run(tick)
		return ctrlErr
	}, func(error) {
		stop.Controller.RequestStop()
	})

	if srv != nil {
		done := make(chan struct{})
		g.Add(func() error {
			err := srv.ListenAndServe()
			if err != nil && err != http.ErrServerClosed {
				// The health page is optional; keep controlling the fan.
				log.Printf("http server error: %v", err)
				<-done
			}
			return nil
		}, func(error) {
			close(done)
			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			if err := srv.Shutdown(ctx); err != nil {
				log.Printf("http shutdown: %v", err)
			}
		})
	}

	_ = g.Run()
	return received, ctrlErr
}

// publishLifecycle publishes a retained STARTUP or SHUTDOWN event carrying
// a full status snapshot. Failures are logged, never fatal.
func publishLifecycle(pub mqtt.Publisher, tracker *status.Tracker, event, reason string) {
	snap := tracker.Snapshot()
	e := mqtt.SystemEvent{
		Timestamp:  snap.Now,
		Event:      event,
		Reason:     reason,
		Retained:   true,
		RawPayload: status.FormatStatusEvent(snap, event, reason),
	}
	if err := pub.PublishSystem(e); err != nil {
		log.Printf("failed to publish %s event: %v", event, err)
	}
}

func signalName(s os.Signal) string {
	switch s {
	case syscall.SIGINT:
		return "SIGINT"
	case syscall.SIGTERM:
		return "SIGTERM"
	case nil:
		return ""
	}
	return "UNKNOWN"
}

func clientID() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		return "fan-controller"
	}
	return "fan-controller-" + host
}

// pi-helper env var names (written to /run/pi-helper.env).
const (
	envNetworkType       = "NETWORK_TYPE"
	envNetworkIP         = "NETWORK_IP"
	envNetworkStatus     = "NETWORK_STATUS"
	envNetworkGateway    = "NETWORK_GATEWAY"
	envNetworkWifiStatus = "NETWORK_WIFI_STATUS"
	envNetworkWifiSSID   = "NETWORK_WIFI_SSID"
)

func readNetworkInfo() *status.NetworkInfo {
	s := os.Getenv(envNetworkStatus)
	if s == "" {
		return nil
	}
	return &status.NetworkInfo{
		Type:       os.Getenv(envNetworkType),
		IP:         os.Getenv(envNetworkIP),
		Status:     s,
		Gateway:    os.Getenv(envNetworkGateway),
		WifiStatus: os.Getenv(envNetworkWifiStatus),
		SSID:       os.Getenv(envNetworkWifiSSID),
	}
}
