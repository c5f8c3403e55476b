// SPI API of the emulator facade
//
// Copyright (C) 2026  Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package emulator

// SPIBegin enables the SPI bus and clears its transfer log.
func (e *Emulator) SPIBegin() { e.spi.Begin() }

// SPIEnd disables the SPI bus.
func (e *Emulator) SPIEnd() { e.spi.End() }

// SPITransfer clocks one byte out and returns the byte clocked in.
func (e *Emulator) SPITransfer(b byte) byte {
	in, _ := e.spi.Transfer(b)
	return in
}

// SPIState is the control-plane view of the bus.
type SPIState struct {
	Enabled bool  `json:"enabled"`
	Buffer  []int `json:"buffer"`
}

// SPIState returns whether the bus is enabled and every byte transferred
// since SPIBegin.
func (e *Emulator) SPIState() SPIState {
	raw := e.spi.Buffer()
	buf := make([]int, len(raw))
	for i, b := range raw {
		buf[i] = int(b)
	}
	return SPIState{Enabled: e.spi.Enabled(), Buffer: buf}
}
