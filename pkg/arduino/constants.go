// Arduino core constants
//
// Copyright (C) 2026  Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package arduino

import "arduino-emulator/pkg/emulator"

// Digital levels.
const (
	HIGH = emulator.High
	LOW  = emulator.Low
)

// Pin modes.
const (
	INPUT             = emulator.Input
	OUTPUT            = emulator.Output
	INPUT_PULLUP      = emulator.InputPullup
	INPUT_PULLDOWN    = emulator.InputPulldown
	OUTPUT_OPEN_DRAIN = emulator.OutputOpenDrain
)

// Interrupt modes.
const (
	CHANGE  = emulator.Change
	RISING  = emulator.Rising
	FALLING = emulator.Falling
)

// Analog references.
const (
	DEFAULT  = 0
	INTERNAL = 1
	EXTERNAL = 2
)

// Print bases.
const (
	BIN = emulator.BIN
	OCT = emulator.OCT
	DEC = emulator.DEC
	HEX = emulator.HEX
)

// Uno pin aliases. Sketches targeting other boards should look names up
// through board.Board.Lookup instead.
const (
	A0          = 14
	A1          = 15
	A2          = 16
	A3          = 17
	A4          = 18
	A5          = 19
	LED_BUILTIN = 13
)

// Math constants from Arduino.h.
const (
	PI         = 3.1415926535897932384626433832795
	HALF_PI    = PI / 2
	TWO_PI     = PI * 2
	DEG_TO_RAD = PI / 180
	RAD_TO_DEG = 180 / PI
)
