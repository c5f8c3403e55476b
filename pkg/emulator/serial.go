// Serial API of the emulator facade
//
// Copyright (C) 2026  Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package emulator

import (
	"strconv"
	"strings"
)

// Number bases accepted by SerialPrintNumber.
const (
	BIN = 2
	OCT = 8
	DEC = 10
	HEX = 16
)

// SerialBegin enables the UART and clears both queues.
func (e *Emulator) SerialBegin(baud int) {
	e.serial.Begin(baud)
}

// SerialEnd disables the UART.
func (e *Emulator) SerialEnd() {
	e.serial.End()
}

// SerialPrint writes s to the UART. Output is dropped until SerialBegin.
func (e *Emulator) SerialPrint(s string) int {
	n, _ := e.serial.WriteString(s)
	if n > 0 {
		e.observer.SerialBytes("tx", n)
	}
	return n
}

// SerialPrintln writes s followed by a newline.
func (e *Emulator) SerialPrintln(s string) int {
	return e.SerialPrint(s + "\n")
}

// SerialWrite writes one raw byte.
func (e *Emulator) SerialWrite(b byte) int {
	n, _ := e.serial.Write([]byte{b})
	if n > 0 {
		e.observer.SerialBytes("tx", n)
	}
	return n
}

// SerialPrintNumber prints n in base (BIN, OCT, DEC or HEX; anything else
// is treated as DEC). Hex digits are upper case. Negative numbers carry a
// sign only in base 10; other bases print the magnitude.
func (e *Emulator) SerialPrintNumber(n int64, base int) int {
	return e.SerialPrint(FormatNumber(n, base))
}

// SerialPrintFloat prints f with six decimals.
func (e *Emulator) SerialPrintFloat(f float64) int {
	return e.SerialPrint(FormatFloat(f))
}

// SerialAvailable returns the number of unread input bytes.
func (e *Emulator) SerialAvailable() int {
	return e.serial.Available()
}

// SerialRead pops one input byte or returns -1.
func (e *Emulator) SerialRead() int {
	return e.serial.Read()
}

// SerialPeek returns the next input byte without consuming it, or -1.
func (e *Emulator) SerialPeek() int {
	return e.serial.Peek()
}

// SerialInput queues data for the sketch to read, as if it arrived on
// the wire.
func (e *Emulator) SerialInput(data []byte) {
	if len(data) == 0 {
		return
	}
	e.serial.AddInput(data)
	e.observer.SerialBytes("rx", len(data))
}

// SerialOutput drains everything the sketch wrote since the last call.
func (e *Emulator) SerialOutput() string {
	return e.serial.DrainOutput()
}

// FormatNumber renders n the way Serial.print(n, base) does.
func FormatNumber(n int64, base int) string {
	switch base {
	case BIN, OCT, DEC, HEX:
	default:
		base = DEC
	}
	if n == 0 {
		return "0"
	}
	neg := n < 0
	mag := uint64(n)
	if neg {
		mag = uint64(-n)
	}
	s := strings.ToUpper(strconv.FormatUint(mag, base))
	if neg && base == DEC {
		s = "-" + s
	}
	return s
}

// FormatFloat renders f with six decimals.
func FormatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', 6, 64)
}
