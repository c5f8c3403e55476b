// Digital and analog pin state
//
// Copyright (C) 2026  Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package emulator

import "sync"

// Level is a digital pin level.
type Level int

const (
	Low  Level = 0
	High Level = 1
)

// LevelOf converts an Arduino-style integer to a Level: any non-zero
// value is High.
func LevelOf(v int) Level {
	if v != 0 {
		return High
	}
	return Low
}

// Mode is a pin mode as passed to pinMode.
type Mode int

const (
	Input           Mode = 0
	Output          Mode = 1
	InputPullup     Mode = 2
	InputPulldown   Mode = 3
	OutputOpenDrain Mode = 4
)

func (m Mode) String() string {
	switch m {
	case Input:
		return "INPUT"
	case Output:
		return "OUTPUT"
	case InputPullup:
		return "INPUT_PULLUP"
	case InputPulldown:
		return "INPUT_PULLDOWN"
	case OutputOpenDrain:
		return "OUTPUT_OPEN_DRAIN"
	}
	return "UNKNOWN"
}

// InterruptMode selects which transitions trigger an interrupt.
type InterruptMode int

const (
	Change  InterruptMode = 1
	Rising  InterruptMode = 2
	Falling InterruptMode = 3
)

func (m InterruptMode) String() string {
	switch m {
	case Change:
		return "CHANGE"
	case Rising:
		return "RISING"
	case Falling:
		return "FALLING"
	}
	return "NONE"
}

// InterruptFunc is an interrupt service routine.
type InterruptFunc func()

// PWM and analog thresholds used to derive the digital level.
const (
	PWMHighThreshold    = 127
	AnalogHighThreshold = 512
	MaxPWM              = 255
	MaxAnalog           = 1023
)

// PinState is a point-in-time copy of a pin's observable fields.
type PinState struct {
	Value        Level `json:"value"`
	Mode         Mode  `json:"mode"`
	PWMCapable   bool  `json:"pwm_capable"`
	PWMValue     int   `json:"pwm_value"`
	AnalogValue  int   `json:"-"`
	Configured   bool  `json:"configured"`
	HasInterrupt bool  `json:"-"`
}

// Pin is one emulated GPIO. All fields are guarded by mu; interrupt
// callbacks run after mu is released, on the goroutine that made the
// write.
type Pin struct {
	mu         sync.Mutex
	index      int
	pwmCapable bool

	value      Level
	mode       Mode
	pwmValue   int
	analog     int
	configured bool

	isr       InterruptFunc
	isrMode   InterruptMode
	lastValue Level
}

// NewPin creates a pin in Input mode.
func NewPin(index int, pwmCapable bool) *Pin {
	return &Pin{index: index, pwmCapable: pwmCapable}
}

// Index returns the pin number.
func (p *Pin) Index() int { return p.index }

// PWMCapable reports whether the pin supports WritePWM.
func (p *Pin) PWMCapable() bool { return p.pwmCapable }

// SetMode configures the pin. Pull-up and pull-down modes force the level.
func (p *Pin) SetMode(m Mode) {
	p.mu.Lock()
	p.mode = m
	p.configured = true
	switch m {
	case InputPullup:
		p.value = High
	case InputPulldown:
		p.value = Low
	}
	p.mu.Unlock()
}

// WriteDigital drives the pin. It is ignored unless the pin is an Output.
// It reports whether an interrupt fired.
func (p *Pin) WriteDigital(v Level) bool {
	p.mu.Lock()
	if p.mode != Output {
		p.mu.Unlock()
		return false
	}
	p.value = v
	isr := p.evaluateLocked()
	p.mu.Unlock()
	return fire(isr)
}

// ReadDigital returns the current level regardless of mode.
func (p *Pin) ReadDigital() Level {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.value
}

// WritePWM sets the duty cycle on a PWM-capable pin, switching it to
// Output. It returns false when the pin has no PWM.
func (p *Pin) WritePWM(duty int) (ok, fired bool) {
	p.mu.Lock()
	if !p.pwmCapable {
		p.mu.Unlock()
		return false, false
	}
	p.mode = Output
	p.configured = true
	p.pwmValue = duty
	p.value = levelIf(duty > PWMHighThreshold)
	isr := p.evaluateLocked()
	p.mu.Unlock()
	return true, fire(isr)
}

// ReadAnalog returns the stored analog sample.
func (p *Pin) ReadAnalog() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.analog
}

// ForceDigital sets the level from outside the sketch, bypassing the
// mode check. Interrupts are still evaluated.
func (p *Pin) ForceDigital(v Level) bool {
	p.mu.Lock()
	p.value = v
	isr := p.evaluateLocked()
	p.mu.Unlock()
	return fire(isr)
}

// Toggle inverts the level atomically with respect to other writers and
// returns the new level.
func (p *Pin) Toggle() (Level, bool) {
	p.mu.Lock()
	if p.value == High {
		p.value = Low
	} else {
		p.value = High
	}
	v := p.value
	isr := p.evaluateLocked()
	p.mu.Unlock()
	return v, fire(isr)
}

// ForceAnalog stores an analog sample and derives the digital level.
func (p *Pin) ForceAnalog(v int) bool {
	p.mu.Lock()
	p.analog = v
	p.value = levelIf(v > AnalogHighThreshold)
	isr := p.evaluateLocked()
	p.mu.Unlock()
	return fire(isr)
}

// MarkConfigured flags the pin as used without changing its mode.
func (p *Pin) MarkConfigured() {
	p.mu.Lock()
	p.configured = true
	p.mu.Unlock()
}

// Attach binds an interrupt routine. The current level becomes the
// reference for edge detection.
func (p *Pin) Attach(fn InterruptFunc, mode InterruptMode) {
	p.mu.Lock()
	p.isr = fn
	p.isrMode = mode
	p.lastValue = p.value
	p.mu.Unlock()
}

// Detach removes the interrupt routine.
func (p *Pin) Detach() {
	p.mu.Lock()
	p.isr = nil
	p.isrMode = 0
	p.mu.Unlock()
}

// Reset restores construction defaults in place, including dropping any
// interrupt binding.
func (p *Pin) Reset() {
	p.mu.Lock()
	p.value = Low
	p.mode = Input
	p.pwmValue = 0
	p.analog = 0
	p.configured = false
	p.isr = nil
	p.isrMode = 0
	p.lastValue = Low
	p.mu.Unlock()
}

// State returns a snapshot of the pin.
func (p *Pin) State() PinState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return PinState{
		Value:        p.value,
		Mode:         p.mode,
		PWMCapable:   p.pwmCapable,
		PWMValue:     p.pwmValue,
		AnalogValue:  p.analog,
		Configured:   p.configured,
		HasInterrupt: p.isr != nil,
	}
}

// evaluateLocked compares the level with the last evaluated one and
// returns the routine to call, if any. p.mu must be held.
func (p *Pin) evaluateLocked() InterruptFunc {
	prev := p.lastValue
	p.lastValue = p.value
	if p.isr == nil {
		return nil
	}
	switch p.isrMode {
	case Change:
		if p.value != prev {
			return p.isr
		}
	case Rising:
		if prev == Low && p.value == High {
			return p.isr
		}
	case Falling:
		if prev == High && p.value == Low {
			return p.isr
		}
	}
	return nil
}

func fire(isr InterruptFunc) bool {
	if isr == nil {
		return false
	}
	isr()
	return true
}

func levelIf(b bool) Level {
	if b {
		return High
	}
	return Low
}
