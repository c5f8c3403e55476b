// Built-in sketches
//
// Copyright (C) 2026  Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package sketch

import (
	"fmt"
	"sync/atomic"

	"arduino-emulator/pkg/arduino"
	"arduino-emulator/pkg/emulator"
	"arduino-emulator/pkg/scheduler"
)

const (
	ledPin    = 13
	pwmPin    = 9
	buttonPin = 2
)

// Blink toggles the built-in LED once per second.
func Blink(emu *emulator.Emulator) scheduler.Sketch {
	led := ledPin
	if p, ok := emu.Board().Lookup("LED_BUILTIN"); ok {
		led = p
	}
	return scheduler.SketchFuncs{
		SetupFunc: func() {
			emu.PinMode(led, emulator.Output)
		},
		LoopFunc: func() {
			emu.DigitalWrite(led, emulator.High)
			emu.Delay(500)
			emu.DigitalWrite(led, emulator.Low)
			emu.Delay(500)
		},
	}
}

// Fade ramps the duty cycle on pin 9 up and down.
func Fade(emu *emulator.Emulator) scheduler.Sketch {
	brightness, step := 0, 5
	return scheduler.SketchFuncs{
		SetupFunc: func() {
			brightness, step = 0, 5
			emu.PinMode(pwmPin, emulator.Output)
		},
		LoopFunc: func() {
			emu.AnalogWrite(pwmPin, brightness)
			brightness += step
			if brightness <= 0 || brightness >= emulator.MaxPWM {
				brightness = arduino.Constrain(brightness, 0, emulator.MaxPWM)
				step = -step
			}
			emu.Delay(30)
		},
	}
}

// Button mirrors an active-low push button on pin 2 to the LED and
// reports every press over serial. Presses are counted by an interrupt.
func Button(emu *emulator.Emulator) scheduler.Sketch {
	var presses atomic.Int64
	var reported int64
	return scheduler.SketchFuncs{
		SetupFunc: func() {
			presses.Store(0)
			reported = 0
			emu.SerialBegin(9600)
			emu.PinMode(buttonPin, emulator.InputPullup)
			emu.PinMode(ledPin, emulator.Output)
			emu.AttachInterrupt(buttonPin, func() { presses.Add(1) }, emulator.Falling)
		},
		LoopFunc: func() {
			if emu.DigitalRead(buttonPin) == emulator.Low {
				emu.DigitalWrite(ledPin, emulator.High)
			} else {
				emu.DigitalWrite(ledPin, emulator.Low)
			}
			if n := presses.Load(); n != reported {
				reported = n
				emu.SerialPrintln(fmt.Sprintf("Button pressed (%d)", n))
			}
		},
	}
}

// SerialEcho writes back every byte it receives.
func SerialEcho(emu *emulator.Emulator) scheduler.Sketch {
	return scheduler.SketchFuncs{
		SetupFunc: func() {
			emu.SerialBegin(9600)
			emu.SerialPrintln("Echo ready")
		},
		LoopFunc: func() {
			echo(emu)
		},
	}
}

func echo(emu *emulator.Emulator) {
	for emu.SerialAvailable() > 0 {
		c := emu.SerialRead()
		if c < 0 {
			return
		}
		emu.SerialWrite(byte(c))
	}
}

// AnalogMonitor prints A0 and drives the PWM pin proportionally.
func AnalogMonitor(emu *emulator.Emulator) scheduler.Sketch {
	a0 := 0
	if p, ok := emu.Board().Lookup("A0"); ok {
		a0 = p
	}
	last := -1
	return scheduler.SketchFuncs{
		SetupFunc: func() {
			last = -1
			emu.SerialBegin(9600)
			emu.PinMode(pwmPin, emulator.Output)
		},
		LoopFunc: func() {
			v := emu.AnalogRead(a0)
			emu.AnalogWrite(pwmPin, arduino.Map(v, 0, 1023, 0, 255))
			if v != last {
				last = v
				emu.SerialPrintln(fmt.Sprintf("A0: %d", v))
			}
			emu.Delay(100)
		},
	}
}

// SPILoopback clocks a counter over SPI and prints the byte read back in
// hex.
func SPILoopback(emu *emulator.Emulator) scheduler.Sketch {
	var counter byte
	return scheduler.SketchFuncs{
		SetupFunc: func() {
			counter = 0
			emu.SerialBegin(9600)
			emu.SPIBegin()
		},
		LoopFunc: func() {
			in := emu.SPITransfer(counter)
			emu.SerialPrint("SPI: 0x")
			emu.SerialPrintNumber(int64(in), emulator.HEX)
			emu.SerialPrintln("")
			counter++
			emu.Delay(100)
		},
	}
}

// Hang blocks forever in loop so the watchdog reports a freeze.
func Hang(emu *emulator.Emulator) scheduler.Sketch {
	return scheduler.SketchFuncs{
		SetupFunc: func() {
			emu.PinMode(ledPin, emulator.Output)
			emu.DigitalWrite(ledPin, emulator.High)
		},
		LoopFunc: func() {
			select {}
		},
	}
}
