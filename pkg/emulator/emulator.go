// Arduino-style emulator facade
//
// Copyright (C) 2026  Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

// Package emulator implements the Arduino-style facade that sketches and
// the control plane operate on.
//
// The Emulator owns one Pin per board pin plus the peripherals (UART, SPI,
// timer, tone). Sketch-facing calls follow Arduino semantics: an invalid
// pin index is a silent no-op and reads return LOW or 0. Control-plane
// calls (SetPin, SetPWM, SetAnalog) validate their arguments and return
// coded errors instead.
package emulator

import (
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"arduino-emulator/pkg/board"
	"arduino-emulator/pkg/debuglog"
	"arduino-emulator/pkg/errors"
	"arduino-emulator/pkg/log"
	"arduino-emulator/pkg/peripheral"
)

// Default converter resolutions and analog reference.
const (
	DefaultReadResolution  = 10
	DefaultWriteResolution = 8
	DefaultReference       = 0
)

// Source identifies who performed a pin write.
type Source string

const (
	SourceSketch  Source = "sketch"
	SourceControl Source = "control"
)

// Observer receives emulator events for instrumentation. Methods are
// called synchronously and must not block.
type Observer interface {
	InterruptFired(pin int, source Source)
	SerialBytes(direction string, n int)
}

type nopObserver struct{}

func (nopObserver) InterruptFired(int, Source) {}
func (nopObserver) SerialBytes(string, int) {}

// Config configures an Emulator.
type Config struct {
	// Board defaults to the Uno preset.
	Board *board.Board
	// Debug receives user-visible notices. A private log is created when nil.
	Debug *debuglog.Log
	// Logger defaults to the "emulator" component logger.
	Logger *log.Logger
	// Observer receives instrumentation events.
	Observer Observer
	// Seed for random(); zero seeds from the clock.
	Seed int64
}

// Emulator is the Arduino facade.
type Emulator struct {
	board    *board.Board
	pins     []*Pin
	serial   *peripheral.Serial
	spi      *peripheral.SPI
	timer    *peripheral.Timer
	debug    *debuglog.Log
	logger   *log.Logger
	observer Observer

	tone toneState

	mu        sync.Mutex
	readRes   int
	writeRes  int
	reference int
	rng       *rand.Rand

	running atomic.Bool
}

// New builds an emulator with every pin in INPUT mode.
func New(cfg Config) *Emulator {
	if cfg.Board == nil {
		cfg.Board = board.Uno()
	}
	if cfg.Debug == nil {
		cfg.Debug = debuglog.New(0)
	}
	if cfg.Logger == nil {
		cfg.Logger = log.GetLogger("emulator")
	}
	if cfg.Observer == nil {
		cfg.Observer = nopObserver{}
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	e := &Emulator{
		board:     cfg.Board,
		pins:      make([]*Pin, cfg.Board.TotalPins()),
		serial:    peripheral.NewSerial(),
		spi:       peripheral.NewSPI(),
		timer:     peripheral.NewTimer(),
		debug:     cfg.Debug,
		logger:    cfg.Logger,
		observer:  cfg.Observer,
		readRes:   DefaultReadResolution,
		writeRes:  DefaultWriteResolution,
		reference: DefaultReference,
		rng:       rand.New(rand.NewSource(seed)),
	}
	for i := range e.pins {
		e.pins[i] = NewPin(i, cfg.Board.IsPWM(i))
	}
	e.tone.pin = -1
	return e
}

// Board returns the board layout.
func (e *Emulator) Board() *board.Board { return e.board }

// Debug returns the debug log shared with the scheduler and control plane.
func (e *Emulator) Debug() *debuglog.Log { return e.debug }

// Serial returns the UART peripheral.
func (e *Emulator) Serial() *peripheral.Serial { return e.serial }

// SPI returns the SPI peripheral.
func (e *Emulator) SPI() *peripheral.SPI { return e.spi }

// Timer returns the system timer.
func (e *Emulator) Timer() *peripheral.Timer { return e.timer }

// Pin returns pin i, or nil if i is not on the board.
func (e *Emulator) Pin(i int) *Pin {
	if i < 0 || i >= len(e.pins) {
		return nil
	}
	return e.pins[i]
}

func (e *Emulator) pin(op string, i int) *Pin {
	p := e.Pin(i)
	if p == nil && e.logger.Enabled(log.DEBUG) {
		e.logger.Debug("%s: ignoring invalid pin %d", op, i)
	}
	return p
}

func (e *Emulator) fired(pin int, source Source, fired bool) {
	if fired {
		e.observer.InterruptFired(pin, source)
	}
}

// PinMode configures a pin.
func (e *Emulator) PinMode(pin int, mode Mode) {
	if p := e.pin("pinMode", pin); p != nil {
		p.SetMode(mode)
	}
}

// DigitalWrite drives an OUTPUT pin.
func (e *Emulator) DigitalWrite(pin int, v Level) {
	if p := e.pin("digitalWrite", pin); p != nil {
		e.fired(pin, SourceSketch, p.WriteDigital(v))
	}
}

// DigitalRead returns the level of a pin, LOW for invalid pins.
func (e *Emulator) DigitalRead(pin int) Level {
	if p := e.pin("digitalRead", pin); p != nil {
		return p.ReadDigital()
	}
	return Low
}

// AnalogWrite sets a PWM duty cycle expressed in the current write
// resolution. Pins without PWM are left untouched.
func (e *Emulator) AnalogWrite(pin int, value int) {
	p := e.pin("analogWrite", pin)
	if p == nil {
		return
	}
	e.mu.Lock()
	duty := rescale(value, e.writeRes, 8)
	e.mu.Unlock()
	duty = clamp(duty, 0, MaxPWM)

	ok, fired := p.WritePWM(duty)
	if !ok {
		e.logger.Debug("analogWrite: pin %d is not PWM capable", pin)
		return
	}
	e.fired(pin, SourceSketch, fired)
}

// analogPin maps a logical analog channel to its physical pin; any other
// index is returned unchanged.
func (e *Emulator) analogPin(pin int) int {
	if pin >= 0 && pin < e.board.AnalogPins() {
		if phys, ok := e.board.AnalogChannel(pin); ok {
			return phys
		}
	}
	return pin
}

// AnalogRead samples a pin. Channel numbers 0..analog_pins-1 address the
// analog inputs (0 is A0); other indices read the pin directly. The 10-bit
// sample is scaled to the configured read resolution.
func (e *Emulator) AnalogRead(pin int) int {
	p := e.pin("analogRead", e.analogPin(pin))
	if p == nil {
		return 0
	}
	p.MarkConfigured()
	v := p.ReadAnalog()

	e.mu.Lock()
	res := e.readRes
	e.mu.Unlock()
	return rescale(v, 10, res)
}

// AnalogReadResolution sets the number of bits returned by AnalogRead.
func (e *Emulator) AnalogReadResolution(bits int) {
	e.mu.Lock()
	e.readRes = clamp(bits, 1, 32)
	e.mu.Unlock()
}

// AnalogWriteResolution sets the number of bits accepted by AnalogWrite.
func (e *Emulator) AnalogWriteResolution(bits int) {
	e.mu.Lock()
	e.writeRes = clamp(bits, 1, 32)
	e.mu.Unlock()
}

// AnalogReference records the reference selection. It has no effect on
// samples.
func (e *Emulator) AnalogReference(ref int) {
	e.mu.Lock()
	e.reference = ref
	e.mu.Unlock()
}

// Resolutions returns the read and write resolutions and the reference.
func (e *Emulator) Resolutions() (read, write, reference int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.readRes, e.writeRes, e.reference
}

// AttachInterrupt binds fn to level transitions on pin. fn runs on the
// goroutine that performed the triggering write.
func (e *Emulator) AttachInterrupt(pin int, fn InterruptFunc, mode InterruptMode) {
	if p := e.pin("attachInterrupt", pin); p != nil {
		p.Attach(fn, mode)
	}
}

// DetachInterrupt removes the binding on pin.
func (e *Emulator) DetachInterrupt(pin int) {
	if p := e.pin("detachInterrupt", pin); p != nil {
		p.Detach()
	}
}

// Control plane

// SetPin forces a pin level from outside the sketch. value -1 toggles;
// any other non-zero value means HIGH.
func (e *Emulator) SetPin(pin, value int) error {
	p := e.Pin(pin)
	if p == nil {
		return errors.PinRangeError(pin, len(e.pins))
	}
	var (
		level Level
		fired bool
	)
	if value == -1 {
		level, fired = p.Toggle()
	} else {
		level = LevelOf(value)
		fired = p.ForceDigital(level)
	}
	e.fired(pin, SourceControl, fired)
	e.debug.Add(debuglog.GPIO, "Pin %d set to %d", pin, level)
	return nil
}

// SetPWM sets the duty cycle of a PWM pin from the control plane.
func (e *Emulator) SetPWM(pin, duty int) error {
	p := e.Pin(pin)
	if p == nil {
		return errors.PinRangeError(pin, len(e.pins))
	}
	if !p.PWMCapable() {
		return errors.PinNotPWMError(pin)
	}
	if duty < 0 || duty > MaxPWM {
		return errors.ValueRangeError("PWM value", duty, 0, MaxPWM)
	}
	_, fired := p.WritePWM(duty)
	e.fired(pin, SourceControl, fired)
	e.debug.Add(debuglog.GPIO, "PWM on pin %d set to %d", pin, duty)
	return nil
}

// SetAnalog forces the sample on analog channel ch (0 is A0).
func (e *Emulator) SetAnalog(ch, value int) error {
	n := e.board.AnalogPins()
	if ch < 0 || ch >= n {
		return errors.AnalogRangeError(ch, n)
	}
	if value < 0 || value > MaxAnalog {
		return errors.ValueRangeError("analog value", value, 0, MaxAnalog)
	}
	phys, _ := e.board.AnalogChannel(ch)
	p := e.Pin(phys)
	if p == nil {
		return errors.PinRangeError(phys, len(e.pins))
	}
	e.fired(phys, SourceControl, p.ForceAnalog(value))
	e.debug.Add(debuglog.GPIO, "Analog A%d set to %d", ch, value)
	return nil
}

// PinStates returns a snapshot of every pin, indexed by pin number.
func (e *Emulator) PinStates() []PinState {
	out := make([]PinState, len(e.pins))
	for i, p := range e.pins {
		out[i] = p.State()
	}
	return out
}

// Lifecycle

// Start starts the timer and its callback goroutine.
func (e *Emulator) Start() {
	if e.running.Swap(true) {
		return
	}
	e.timer.Start()
}

// Stop cancels pending delays and joins the timer goroutine.
func (e *Emulator) Stop() {
	if !e.running.Swap(false) {
		return
	}
	e.timer.Stop()
}

// Running reports whether Start has been called without a matching Stop.
func (e *Emulator) Running() bool {
	return e.running.Load()
}

// Reset restores construction defaults. Pins are reset in place and lose
// their interrupt bindings. The running state is not changed.
func (e *Emulator) Reset() {
	for _, p := range e.pins {
		p.Reset()
	}
	e.serial.Reset()
	e.spi.Reset()
	e.clearTone()
	e.timer.ClearCallbacks()

	e.mu.Lock()
	e.readRes = DefaultReadResolution
	e.writeRes = DefaultWriteResolution
	e.reference = DefaultReference
	e.mu.Unlock()
}

// ClearVolatile empties the serial queues and silences any tone. Pin
// configuration is kept.
func (e *Emulator) ClearVolatile() {
	e.serial.Clear()
	e.clearTone()
}

func rescale(v, from, to int) int {
	switch {
	case to > from:
		return v << uint(to-from)
	case to < from:
		return v >> uint(from-to)
	}
	return v
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
