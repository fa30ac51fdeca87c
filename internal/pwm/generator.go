// Package pwm generates a software PWM signal on a GPIO output line.
//
// The generator runs on its own locked OS thread, optionally at SCHED_FIFO
// priority. Once per period it takes the latest published fraction if the
// shared cell is free, otherwise it reuses the previous period's fraction.
// It checks its stop flag only at the top of a period, so no toggle is left
// half done and shutdown latency is at most one period.
package pwm

import (
	"fmt"
	"log"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/sweeney/fan-controller/internal/gpio"
	"github.com/sweeney/fan-controller/internal/logic"
	"github.com/sweeney/fan-controller/internal/rt"
	"github.com/sweeney/fan-controller/internal/shutdown"
)

// Source supplies the published fraction without blocking.
// *duty.Cell implements it.
type Source interface {
	TryLoad() (float64, bool)
}

// Options configure a Generator.
type Options struct {
	FrequencyHz float64

	// Priority is the SCHED_FIFO priority for the generator thread.
	// 0 leaves the thread at default priority.
	Priority int

	// Sleeper times the high and low phases. Defaults to SystemSleeper.
	Sleeper Sleeper

	// Elevate raises the thread priority. Defaults to rt.Elevate.
	Elevate func(priority int) error
}

// Generator drives one output line from a Source.
type Generator struct {
	open    gpio.Opener
	cell    Source
	stop    *shutdown.Flag
	period  time.Duration
	sleep   Sleeper
	prio    int
	elevate func(int) error

	done    chan struct{}
	err     error // written before done is closed
	rtErr   error // written before Start returns
	periods atomic.Uint64
}

// New creates a Generator. The line is not acquired until Start.
func New(open gpio.Opener, cell Source, stop *shutdown.Flag, opts Options) *Generator {
	g := &Generator{
		open:    open,
		cell:    cell,
		stop:    stop,
		period:  logic.Period(opts.FrequencyHz),
		sleep:   opts.Sleeper,
		prio:    opts.Priority,
		elevate: opts.Elevate,
		done:    make(chan struct{}),
	}
	if g.sleep == nil {
		g.sleep = SystemSleeper{}
	}
	if g.elevate == nil {
		g.elevate = rt.Elevate
	}
	return g
}

// Start launches the generator goroutine and returns once the line has been
// acquired. An acquisition failure is returned here and the goroutine exits.
func (g *Generator) Start() error {
	ready := make(chan error, 1)
	go g.run(ready)
	return <-ready
}

// Wait blocks until the generator has released its line and exited.
// It returns the acquisition or release error, if any.
func (g *Generator) Wait() error {
	<-g.done
	return g.err
}

// Period returns the PWM period.
func (g *Generator) Period() time.Duration {
	return g.period
}

// Periods returns the number of completed PWM periods.
func (g *Generator) Periods() uint64 {
	return g.periods.Load()
}

// Realtime returns the priority elevation error, nil if elevated or not
// requested. Only valid after Start returned nil.
func (g *Generator) Realtime() error {
	return g.rtErr
}

func (g *Generator) run(ready chan<- error) {
	defer close(g.done)

	// Never unlocked: the thread's scheduling class is changed below, so
	// it is discarded with the goroutine rather than returned to the pool.
	runtime.LockOSThread()

	if g.prio > 0 {
		if err := g.elevate(g.prio); err != nil {
			g.rtErr = err
			log.Printf("pwm: continuing at default priority: %v", err)
		} else {
			log.Printf("pwm: running at SCHED_FIFO priority %d", g.prio)
		}
	}

	line, err := g.open()
	if err != nil {
		g.err = fmt.Errorf("acquire line: %w", err)
		ready <- g.err
		return
	}
	ready <- nil

	g.err = g.loop(line)
}

func (g *Generator) loop(line gpio.Writer) error {
	fraction := 1.0
	out := &levelWriter{w: line}

	for !g.stop.ShouldStop() {
		if f, ok := g.cell.TryLoad(); ok {
			fraction = f
		}

		on, off := logic.Geometry(fraction, g.period)
		if on > 0 {
			out.set(true)
			g.sleep.Sleep(on)
		}
		if off > 0 {
			out.set(false)
			g.sleep.Sleep(off)
		}
		g.periods.Add(1)
	}

	if err := line.Close(); err != nil {
		return fmt.Errorf("release line: %w", err)
	}
	return nil
}

// levelWriter skips writes that would not change the line and logs write
// failures once per run of consecutive errors.
type levelWriter struct {
	w      gpio.Writer
	high   bool
	known  bool
	failed int
}

func (l *levelWriter) set(high bool) {
	if l.known && l.high == high {
		return
	}
	if err := l.w.Set(high); err != nil {
		if l.failed == 0 {
			log.Printf("pwm: line write failed: %v", err)
		}
		l.failed++
		l.known = false
		return
	}
	if l.failed > 0 {
		log.Printf("pwm: line write recovered after %d failures", l.failed)
		l.failed = 0
	}
	l.high, l.known = high, true
}
