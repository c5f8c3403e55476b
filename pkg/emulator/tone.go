// Tone generation
//
// Copyright (C) 2026  Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package emulator

import "sync"

// ToneState describes the square-wave generator. Only the contract
// (playing, frequency, pin) is modelled; no audio is produced.
type ToneState struct {
	Playing   bool `json:"playing"`
	Frequency int  `json:"frequency"`
	Pin       int  `json:"pin"`
}

type toneState struct {
	mu        sync.Mutex
	playing   bool
	frequency int
	pin       int
}

// Tone starts a tone on pin. An unconfigured pin is switched to OUTPUT,
// and the pin is driven HIGH while the tone plays.
func (e *Emulator) Tone(pin, frequency int) {
	p := e.pin("tone", pin)
	if p == nil {
		return
	}
	if !p.State().Configured {
		p.SetMode(Output)
	}
	e.DigitalWrite(pin, High)

	e.tone.mu.Lock()
	e.tone.playing = frequency > 0
	e.tone.frequency = frequency
	e.tone.pin = pin
	e.tone.mu.Unlock()
}

// ToneFor plays a tone for ms milliseconds, blocking the caller, then
// silences it and drives the pin LOW.
func (e *Emulator) ToneFor(pin, frequency, ms int) {
	if e.Pin(pin) == nil {
		return
	}
	e.Tone(pin, frequency)
	e.Delay(ms)
	e.clearTone()
	e.DigitalWrite(pin, Low)
}

// NoTone silences the generator and drives pin LOW.
func (e *Emulator) NoTone(pin int) {
	e.clearTone()
	e.DigitalWrite(pin, Low)
}

// ToneState returns the generator state.
func (e *Emulator) ToneState() ToneState {
	e.tone.mu.Lock()
	defer e.tone.mu.Unlock()
	return ToneState{
		Playing:   e.tone.playing,
		Frequency: e.tone.frequency,
		Pin:       e.tone.pin,
	}
}

func (e *Emulator) clearTone() {
	e.tone.mu.Lock()
	e.tone.playing = false
	e.tone.frequency = 0
	e.tone.pin = -1
	e.tone.mu.Unlock()
}
