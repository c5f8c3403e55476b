// Emulated hardware timer
//
// Copyright (C) 2026  Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

// Package peripheral implements the emulated on-chip peripherals: the
// UART (Serial), the SPI controller and the system timer.
//
// Each peripheral is a self-contained, goroutine-safe state container.
// The emulator facade owns one of each and exposes them to sketches.
package peripheral

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// PollInterval is the granularity at which periodic callbacks are checked
// while the timer runs.
const PollInterval = time.Millisecond

// TimerCallback is a periodic function registered with AddCallback.
type TimerCallback func()

type periodic struct {
	id       uint64
	fn       TimerCallback
	interval time.Duration
	lastFire time.Time
}

// Timer tracks emulated uptime and dispatches periodic callbacks from a
// maintenance goroutine.
type Timer struct {
	mu        sync.Mutex
	start     time.Time
	callbacks []*periodic
	nextID    uint64

	running atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewTimer creates a stopped timer.
func NewTimer() *Timer {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	return &Timer{ctx: ctx, cancel: cancel}
}

// Start records the start time and launches the maintenance goroutine.
// Starting a running timer is a no-op.
func (t *Timer) Start() {
	if t.running.Swap(true) {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())

	t.mu.Lock()
	t.start = time.Now()
	for _, cb := range t.callbacks {
		cb.lastFire = t.start
	}
	t.ctx = ctx
	t.cancel = cancel
	t.mu.Unlock()

	t.wg.Add(1)
	go t.dispatchLoop(ctx)
}

// Stop clears the running flag, cancels in-flight delays and joins the
// maintenance goroutine.
func (t *Timer) Stop() {
	if !t.running.Swap(false) {
		return
	}
	t.mu.Lock()
	cancel := t.cancel
	t.mu.Unlock()
	cancel()
	t.wg.Wait()
}

// Running reports whether the timer has been started.
func (t *Timer) Running() bool {
	return t.running.Load()
}

// Context is cancelled when the timer stops.
func (t *Timer) Context() context.Context {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.ctx
}

// Elapsed returns the time since Start, or 0 when stopped.
func (t *Timer) Elapsed() time.Duration {
	if !t.running.Load() {
		return 0
	}
	t.mu.Lock()
	start := t.start
	t.mu.Unlock()
	return time.Since(start)
}

// Millis returns milliseconds since Start, or 0 when stopped.
func (t *Timer) Millis() uint64 {
	return uint64(t.Elapsed() / time.Millisecond)
}

// Micros returns microseconds since Start, or 0 when stopped.
func (t *Timer) Micros() uint64 {
	return uint64(t.Elapsed() / time.Microsecond)
}

// Delay sleeps for d. It returns early with the context error when ctx
// is done or the timer stops.
func (t *Timer) Delay(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	stopped := t.Context()
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-stopped.Done():
		return context.Canceled
	}
}

// AddCallback registers fn to run every interval while the timer runs.
// It returns an id for RemoveCallback.
func (t *Timer) AddCallback(fn TimerCallback, interval time.Duration) uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.nextID++
	t.callbacks = append(t.callbacks, &periodic{
		id:       t.nextID,
		fn:       fn,
		interval: interval,
		lastFire: time.Now(),
	})
	return t.nextID
}

// RemoveCallback unregisters a periodic callback.
func (t *Timer) RemoveCallback(id uint64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i, cb := range t.callbacks {
		if cb.id == id {
			t.callbacks = append(t.callbacks[:i], t.callbacks[i+1:]...)
			return true
		}
	}
	return false
}

// ClearCallbacks removes every periodic callback.
func (t *Timer) ClearCallbacks() {
	t.mu.Lock()
	t.callbacks = nil
	t.mu.Unlock()
}

// Callbacks returns the number of registered periodic callbacks.
func (t *Timer) Callbacks() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.callbacks)
}

// Update fires every callback whose interval has elapsed at now and
// returns how many fired. Callbacks run outside the timer lock so they
// may call back into the timer.
func (t *Timer) Update(now time.Time) int {
	t.mu.Lock()
	var due []TimerCallback
	for _, cb := range t.callbacks {
		if now.Sub(cb.lastFire) >= cb.interval {
			cb.lastFire = now
			due = append(due, cb.fn)
		}
	}
	t.mu.Unlock()

	for _, fn := range due {
		fn()
	}
	return len(due)
}

func (t *Timer) dispatchLoop(ctx context.Context) {
	defer t.wg.Done()

	ticker := time.NewTicker(PollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			t.Update(now)
		}
	}
}
