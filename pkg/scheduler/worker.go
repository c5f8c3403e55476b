// Execution workers and runs
//
// Copyright (C) 2026  Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package scheduler

import (
	"sync"
	"sync/atomic"
)

// WorkerState is the lifecycle of one execution worker.
type WorkerState int32

const (
	// WorkerRunning is executing Setup or Loop.
	WorkerRunning WorkerState = iota
	// WorkerExited returned normally after its run was signalled.
	WorkerExited
	// WorkerAbandoned was given up on while still inside sketch code.
	// It is never joined; if it ever returns it exits without side effects.
	WorkerAbandoned
)

func (s WorkerState) String() string {
	switch s {
	case WorkerRunning:
		return "running"
	case WorkerExited:
		return "exited"
	case WorkerAbandoned:
		return "abandoned"
	default:
		return "unknown"
	}
}

// Worker is a handle on the goroutine executing the sketch for one run.
type Worker struct {
	id    uint64
	state atomic.Int32
	done  chan struct{}
}

func newWorker(id uint64) *Worker {
	return &Worker{id: id, done: make(chan struct{})}
}

// ID returns the run number this worker belongs to.
func (w *Worker) ID() uint64 { return w.id }

// State returns the worker's current state.
func (w *Worker) State() WorkerState { return WorkerState(w.state.Load()) }

// Done is closed when the worker goroutine returns, abandoned or not.
func (w *Worker) Done() <-chan struct{} { return w.done }

// abandon moves a running worker to the terminal abandoned state. It
// reports whether this call made the transition.
func (w *Worker) abandon() bool {
	return w.state.CompareAndSwap(int32(WorkerRunning), int32(WorkerAbandoned))
}

func (w *Worker) exit() {
	w.state.CompareAndSwap(int32(WorkerRunning), int32(WorkerExited))
	close(w.done)
}

// haltReason records who tore a run down first.
type haltReason int

const (
	haltNone haltReason = iota
	haltStop
	haltRestart
	haltFreeze
	haltFault
)

// run is one Start..Stop cycle. Each run owns its stop channel so a
// stale worker from an earlier run can never count ticks on a newer one.
type run struct {
	worker       *Worker
	stop         chan struct{}
	watchdogDone chan struct{}
	mu           sync.Mutex
	reason       haltReason
}

func newRun(id uint64) *run {
	return &run{
		worker:       newWorker(id),
		stop:         make(chan struct{}),
		watchdogDone: make(chan struct{}),
	}
}

// halt closes the stop channel. Only the first caller wins; it reports
// whether this call did so.
func (r *run) halt(reason haltReason) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.reason != haltNone {
		return false
	}
	r.reason = reason
	close(r.stop)
	return true
}

func (r *run) haltedBy() haltReason {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.reason
}

func (r *run) stopped() bool {
	select {
	case <-r.stop:
		return true
	default:
		return false
	}
}

// abandon gives up on the run's worker. It holds mu so a tick that is
// being counted lands before any newer run resets the counter.
func (r *run) abandon() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.worker.abandon()
}

// countTick increments tick for a loop that returned on this run and
// reports whether the worker should keep looping. A loop that finishes
// while a cooperative stop waits for it still counts; after a restart,
// freeze, fault or abandonment it does not.
func (r *run) countTick(tick *atomic.Uint64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.reason != haltNone && r.reason != haltStop {
		return false
	}
	if r.worker.State() != WorkerRunning {
		return false
	}
	tick.Add(1)
	return r.reason == haltNone
}
