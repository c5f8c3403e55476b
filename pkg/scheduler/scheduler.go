// Sketch execution scheduler
//
// Copyright (C) 2026  Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

// Package scheduler runs a sketch's setup() and loop() on a dedicated
// goroutine at a fixed frequency and supervises it with a watchdog.
//
// A sketch runs cooperatively: the scheduler can only ask a worker to stop
// between iterations, or cancel a Delay in progress. A loop that never
// returns is detected by the watchdog, which abandons the worker and moves
// the scheduler to FROZEN. Abandoned goroutines are counted but cannot be
// reclaimed.
package scheduler

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"arduino-emulator/pkg/debuglog"
	"arduino-emulator/pkg/errors"
	"arduino-emulator/pkg/log"
)

// Defaults.
const (
	DefaultFrequency        = 100
	MaxFrequency            = 10000
	DefaultFreezeTimeout    = 5 * time.Second
	DefaultWatchdogInterval = time.Second
)

// Sketch is user code in Arduino shape.
type Sketch interface {
	Setup()
	Loop()
}

// SketchFuncs adapts two functions to a Sketch. Nil functions are no-ops.
type SketchFuncs struct {
	SetupFunc func()
	LoopFunc  func()
}

func (s SketchFuncs) Setup() {
	if s.SetupFunc != nil {
		s.SetupFunc()
	}
}

func (s SketchFuncs) Loop() {
	if s.LoopFunc != nil {
		s.LoopFunc()
	}
}

// Facade is the part of the emulator the scheduler drives.
type Facade interface {
	Start()
	Stop()
	Reset()
	ClearVolatile()
}

// Observer receives scheduler events for instrumentation.
type Observer interface {
	LoopCompleted(d time.Duration)
	StateChanged(s State)
	Froze()
	WorkerAbandoned()
}

type nopObserver struct{}

func (nopObserver) LoopCompleted(time.Duration) {}
func (nopObserver) StateChanged(State)          {}
func (nopObserver) Froze()                      {}
func (nopObserver) WorkerAbandoned()            {}

// State is the scheduler's lifecycle state.
type State int32

const (
	StateStopped State = iota
	StateRunning
	StateFrozen
)

func (s State) String() string {
	switch s {
	case StateStopped:
		return "STOPPED"
	case StateRunning:
		return "RUNNING"
	case StateFrozen:
		return "FROZEN"
	default:
		return "UNKNOWN"
	}
}

// Config configures a Scheduler.
type Config struct {
	Emulator Facade
	Sketch   Sketch
	// Frequency is the loop rate in Hz, 1..MaxFrequency.
	Frequency        int
	FreezeTimeout    time.Duration
	WatchdogInterval time.Duration
	Debug            *debuglog.Log
	Logger           *log.Logger
	Observer         Observer
}

// Status is a point-in-time summary for the control plane.
type Status struct {
	Running bool   `json:"running"`
	State   string `json:"state"`
	Tick    uint64 `json:"tick"`
}

// Scheduler owns the execution worker and the watchdog.
type Scheduler struct {
	emu      Facade
	sketch   Sketch
	period   time.Duration
	freeze   time.Duration
	interval time.Duration
	debug    *debuglog.Log
	logger   *log.Logger
	observer Observer

	// mu serializes Start, Stop, Restart and Reset.
	mu      sync.Mutex
	current *run
	last    *Worker
	runs    uint64

	state     atomic.Int32
	running   atomic.Bool
	tick      atomic.Uint64
	abandoned atomic.Int64
}

// New validates cfg and returns a stopped scheduler.
func New(cfg Config) (*Scheduler, error) {
	if cfg.Emulator == nil {
		return nil, errors.New(errors.ErrStartup, "scheduler requires an emulator")
	}
	if cfg.Sketch == nil {
		return nil, errors.New(errors.ErrStartup, "scheduler requires a sketch")
	}
	if cfg.Frequency == 0 {
		cfg.Frequency = DefaultFrequency
	}
	if cfg.Frequency < 1 || cfg.Frequency > MaxFrequency {
		return nil, errors.ValueRangeError("frequency", cfg.Frequency, 1, MaxFrequency)
	}
	if cfg.FreezeTimeout <= 0 {
		cfg.FreezeTimeout = DefaultFreezeTimeout
	}
	if cfg.WatchdogInterval <= 0 {
		cfg.WatchdogInterval = DefaultWatchdogInterval
	}
	if cfg.Debug == nil {
		cfg.Debug = debuglog.New(0)
	}
	if cfg.Logger == nil {
		cfg.Logger = log.GetLogger("scheduler")
	}
	if cfg.Observer == nil {
		cfg.Observer = nopObserver{}
	}
	return &Scheduler{
		emu:      cfg.Emulator,
		sketch:   cfg.Sketch,
		period:   time.Second / time.Duration(cfg.Frequency),
		freeze:   cfg.FreezeTimeout,
		interval: cfg.WatchdogInterval,
		debug:    cfg.Debug,
		logger:   cfg.Logger,
		observer: cfg.Observer,
	}, nil
}

// State returns the lifecycle state.
func (s *Scheduler) State() State { return State(s.state.Load()) }

// Running reports whether a worker is currently live.
func (s *Scheduler) Running() bool { return s.running.Load() }

// Tick returns the number of loop() iterations completed in this run.
func (s *Scheduler) Tick() uint64 { return s.tick.Load() }

// Period returns the target interval between loop() calls.
func (s *Scheduler) Period() time.Duration { return s.period }

// Abandoned returns how many workers have been given up on since startup.
func (s *Scheduler) Abandoned() int64 { return s.abandoned.Load() }

// Status summarizes the scheduler for the control plane.
func (s *Scheduler) Status() Status {
	return Status{Running: s.Running(), State: s.State().String(), Tick: s.Tick()}
}

// Worker returns the handle of the most recent worker, or nil before the
// first Start.
func (s *Scheduler) Worker() *Worker {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

// Start begins execution. From FROZEN it behaves like Restart.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.State() {
	case StateRunning:
		return errors.SimRunningError()
	case StateFrozen:
		s.restartLocked()
		return nil
	}
	s.launchLocked()
	s.debug.Add(debuglog.System, "Simulation started")
	return nil
}

// Restart abandons the current worker without joining it and starts a
// fresh run. Pin configuration is kept; serial buffers and any tone are
// cleared.
func (s *Scheduler) Restart() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.restartLocked()
}

func (s *Scheduler) restartLocked() {
	if r := s.current; r != nil {
		r.halt(haltRestart)
		s.abandonLocked(r, "restart")
	}
	s.running.Store(false)
	s.emu.Stop()
	s.emu.ClearVolatile()
	s.launchLocked()
	s.debug.Add(debuglog.System, "Simulation restarted")
}

// Stop asks the worker to finish its current iteration and waits for it
// and the watchdog to exit. A frozen simulation reports SIM_FROZEN. If
// ctx expires first the worker is abandoned and a stop-timeout error is
// returned; the scheduler is STOPPED either way.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.State() {
	case StateFrozen:
		return errors.SimFrozenError()
	case StateStopped:
		return errors.SimNotRunningError()
	}
	return s.stopLocked(ctx)
}

func (s *Scheduler) stopLocked(ctx context.Context) error {
	r := s.current
	if !r.halt(haltStop) {
		// The watchdog or a fault got here first and owns the teardown.
		if r.haltedBy() == haltFreeze {
			return errors.SimFrozenError()
		}
		return errors.SimNotRunningError()
	}
	s.running.Store(false)
	s.emu.Stop()
	<-r.watchdogDone

	var err error
	select {
	case <-r.worker.Done():
	case <-ctx.Done():
		s.abandonLocked(r, "stop deadline")
		err = errors.SimStopTimeoutError(ctx.Err())
	}
	s.current = nil
	s.setState(StateStopped)
	s.debug.Add(debuglog.System, "Simulation stopped")
	return err
}

// Reset stops the simulation (abandoning the worker if it does not stop
// before ctx expires, or if it is frozen), restores the emulator to its
// construction defaults, zeroes the tick and restarts if it was running.
func (s *Scheduler) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	wasRunning := s.State() == StateRunning
	switch s.State() {
	case StateRunning:
		if err := s.stopLocked(ctx); err != nil && !errors.Is(err, errors.ErrSimStopTimeout) {
			// Frozen or faulted concurrently; make sure the worker is gone.
			if r := s.current; r != nil {
				s.abandonLocked(r, "reset")
			}
		}
	case StateFrozen:
		if r := s.current; r != nil {
			s.abandonLocked(r, "reset")
		}
	}
	s.running.Store(false)
	s.current = nil
	s.setState(StateStopped)

	s.emu.Reset()
	s.tick.Store(0)
	s.debug.Add(debuglog.System, "Emulator reset")

	if wasRunning {
		s.launchLocked()
	}
	return nil
}

// launchLocked starts the facade and a fresh worker/watchdog pair.
func (s *Scheduler) launchLocked() {
	s.runs++
	r := newRun(s.runs)
	s.current = r
	s.last = r.worker
	s.tick.Store(0)
	s.emu.Start()
	s.running.Store(true)
	s.setState(StateRunning)

	go s.work(r)
	go s.watch(r)
	s.logger.Debug("run %d started at %s period", s.runs, s.period)
}

func (s *Scheduler) abandonLocked(r *run, why string) {
	if !r.abandon() {
		return
	}
	n := s.abandoned.Add(1)
	s.observer.WorkerAbandoned()
	s.logger.WithField("worker", r.worker.ID()).Warn("abandoned execution worker (%s), %d total", why, n)
}

func (s *Scheduler) setState(st State) {
	if State(s.state.Swap(int32(st))) != st {
		s.observer.StateChanged(st)
	}
}

// work is the execution worker body.
func (s *Scheduler) work(r *run) {
	defer r.worker.exit()

	if !s.call(r, "setup", s.sketch.Setup) {
		return
	}
	next := time.Now()
	for !r.stopped() {
		start := time.Now()
		if !s.call(r, "loop", s.sketch.Loop) {
			return
		}
		if !r.countTick(&s.tick) {
			return
		}
		s.observer.LoopCompleted(time.Since(start))

		next = next.Add(s.period)
		wait := time.Until(next)
		if wait <= 0 {
			next = time.Now()
			continue
		}
		t := time.NewTimer(wait)
		select {
		case <-r.stop:
			t.Stop()
			return
		case <-t.C:
		}
	}
}

// call runs one sketch entry point, converting a panic into a fault.
func (s *Scheduler) call(r *run, phase string, fn func()) (ok bool) {
	defer func() {
		if err := errors.RecoverPanic(phase, recover()); err != nil {
			ok = false
			s.fault(r, phase, err)
		}
	}()
	fn()
	return true
}

// fault records a sketch panic and moves the scheduler to STOPPED. The
// teardown runs on its own goroutine because Stop may hold mu while
// waiting for this worker to exit.
func (s *Scheduler) fault(r *run, phase string, err *errors.EmulatorError) {
	if r.stopped() {
		return
	}
	s.debug.Add(debuglog.Error, "%s", err.Message)
	s.logger.WithError(err).Error("sketch faulted")
	go func() {
		if !r.halt(haltFault) {
			return
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.current != r {
			return
		}
		s.running.Store(false)
		s.emu.Stop()
		<-r.watchdogDone
		s.current = nil
		s.setState(StateStopped)
		s.debug.Add(debuglog.System, "Simulation stopped after %s() failed", phase)
	}()
}
