// Timing, pulse and random helpers
//
// Copyright (C) 2026  Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package emulator

import (
	"context"
	"time"
)

// Millis returns milliseconds since Start, or 0 when stopped.
func (e *Emulator) Millis() uint64 { return e.timer.Millis() }

// Micros returns microseconds since Start, or 0 when stopped.
func (e *Emulator) Micros() uint64 { return e.timer.Micros() }

// Delay sleeps for ms milliseconds. It returns early once the emulator
// is stopped so that a cooperative stop is not held up by long delays.
func (e *Emulator) Delay(ms int) {
	e.timer.Delay(context.Background(), time.Duration(ms)*time.Millisecond)
}

// DelayMicroseconds sleeps for us microseconds.
func (e *Emulator) DelayMicroseconds(us int) {
	e.timer.Delay(context.Background(), time.Duration(us)*time.Microsecond)
}

// DelayContext sleeps for d or until ctx is done or the emulator stops.
func (e *Emulator) DelayContext(ctx context.Context, d time.Duration) error {
	return e.timer.Delay(ctx, d)
}

// AddTimerCallback runs fn every interval while the emulator is running.
func (e *Emulator) AddTimerCallback(fn func(), interval time.Duration) uint64 {
	return e.timer.AddCallback(fn, interval)
}

// RemoveTimerCallback unregisters a callback added with AddTimerCallback.
func (e *Emulator) RemoveTimerCallback(id uint64) bool {
	return e.timer.RemoveCallback(id)
}

// PulseIn reports a pulse length in microseconds. Pulses are not
// simulated: when the pin is already at state a plausible width between
// 1000 and 1499 us is returned, otherwise 0 as if the timeout expired.
// timeout keeps the Arduino signature and is ignored; the call never
// blocks.
func (e *Emulator) PulseIn(pin int, state Level, timeout time.Duration) int64 {
	if e.DigitalRead(pin) != state {
		return 0
	}
	return 1000 + e.Random(500)
}

// Random returns a pseudo-random number in [0, max). It returns 0 when
// max <= 0.
func (e *Emulator) Random(max int64) int64 {
	if max <= 0 {
		return 0
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.rng.Int63n(max)
}

// RandomRange returns a pseudo-random number in [min, max). It returns
// min when the range is empty.
func (e *Emulator) RandomRange(min, max int64) int64 {
	if max <= min {
		return min
	}
	return min + e.Random(max-min)
}

// RandomSeed reseeds the generator.
func (e *Emulator) RandomSeed(seed int64) {
	e.mu.Lock()
	e.rng.Seed(seed)
	e.mu.Unlock()
}
