// Emulated SPI controller
//
// Copyright (C) 2026  Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package peripheral

import (
	"sync"

	"tinygo.org/x/drivers"
)

// SPI emulates a loopback SPI controller: every byte sent is recorded and
// echoed back while the bus is enabled.
type SPI struct {
	mu      sync.Mutex
	enabled bool
	buffer  []byte
}

var _ drivers.SPI = (*SPI)(nil)

// NewSPI returns a disabled bus.
func NewSPI() *SPI {
	return &SPI{}
}

// Begin enables the bus and clears the transfer log.
func (s *SPI) Begin() {
	s.mu.Lock()
	s.enabled = true
	s.buffer = nil
	s.mu.Unlock()
}

// End disables the bus.
func (s *SPI) End() {
	s.mu.Lock()
	s.enabled = false
	s.mu.Unlock()
}

// Enabled reports whether the bus is enabled.
func (s *SPI) Enabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enabled
}

// Transfer sends b and returns the byte clocked in, which is b itself on
// an enabled bus and 0 on a disabled one.
func (s *SPI) Transfer(b byte) (byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.enabled {
		return 0, nil
	}
	s.buffer = append(s.buffer, b)
	return b, nil
}

// Tx performs a full-duplex transfer. A nil w sends zeros; a nil r
// discards the received bytes.
func (s *SPI) Tx(w, r []byte) error {
	n := len(w)
	if len(r) > n {
		n = len(r)
	}
	for i := 0; i < n; i++ {
		var out byte
		if i < len(w) {
			out = w[i]
		}
		in, err := s.Transfer(out)
		if err != nil {
			return err
		}
		if i < len(r) {
			r[i] = in
		}
	}
	return nil
}

// Buffer returns a copy of every byte transferred since Begin.
func (s *SPI) Buffer() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]byte{}, s.buffer...)
}

// Reset disables the bus and clears the log.
func (s *SPI) Reset() {
	s.mu.Lock()
	s.enabled = false
	s.buffer = nil
	s.mu.Unlock()
}
