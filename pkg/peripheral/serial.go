// Emulated UART
//
// Copyright (C) 2026  Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package peripheral

import "sync"

// DefaultBaud is reported before Begin is called.
const DefaultBaud = 9600

// Tap receives a copy of every chunk the sketch writes to the UART.
type Tap func(p []byte)

// Serial emulates a UART with independent input and output queues.
// Input is fed by the control plane and read by the sketch; output is
// written by the sketch and drained by the control plane.
type Serial struct {
	mu      sync.Mutex
	input   []byte
	output  []byte
	enabled bool
	baud    int
	taps    []Tap
}

// NewSerial returns a disabled UART.
func NewSerial() *Serial {
	return &Serial{baud: DefaultBaud}
}

// Begin enables the UART at baud and clears both queues.
func (s *Serial) Begin(baud int) {
	s.mu.Lock()
	s.enabled = true
	if baud > 0 {
		s.baud = baud
	}
	s.input = nil
	s.output = nil
	s.mu.Unlock()
}

// End disables the UART. Queued bytes are kept.
func (s *Serial) End() {
	s.mu.Lock()
	s.enabled = false
	s.mu.Unlock()
}

// Enabled reports whether Begin has been called.
func (s *Serial) Enabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enabled
}

// Baud returns the configured baud rate.
func (s *Serial) Baud() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.baud
}

// AddTap registers a function that observes sketch output.
func (s *Serial) AddTap(fn Tap) {
	s.mu.Lock()
	s.taps = append(s.taps, fn)
	s.mu.Unlock()
}

// Write appends p to the output queue. Nothing is written while the
// UART is disabled.
func (s *Serial) Write(p []byte) (int, error) {
	s.mu.Lock()
	if !s.enabled || len(p) == 0 {
		s.mu.Unlock()
		return 0, nil
	}
	s.output = append(s.output, p...)
	taps := s.taps
	s.mu.Unlock()

	if len(taps) > 0 {
		chunk := append([]byte(nil), p...)
		for _, tap := range taps {
			tap(chunk)
		}
	}
	return len(p), nil
}

// WriteString appends str to the output queue.
func (s *Serial) WriteString(str string) (int, error) {
	return s.Write([]byte(str))
}

// Available returns the number of unread input bytes.
func (s *Serial) Available() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.input)
}

// Read pops one input byte, or returns -1 when the queue is empty.
func (s *Serial) Read() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.input) == 0 {
		return -1
	}
	b := s.input[0]
	s.input = s.input[1:]
	return int(b)
}

// Peek returns the next input byte without consuming it, or -1.
func (s *Serial) Peek() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.input) == 0 {
		return -1
	}
	return int(s.input[0])
}

// AddInput queues bytes for the sketch to read.
func (s *Serial) AddInput(p []byte) {
	s.mu.Lock()
	s.input = append(s.input, p...)
	s.mu.Unlock()
}

// DrainOutput returns everything written since the last drain and
// empties the output queue.
func (s *Serial) DrainOutput() string {
	s.mu.Lock()
	out := s.output
	s.output = nil
	s.mu.Unlock()
	return string(out)
}

// Clear empties both queues without changing the enabled state.
func (s *Serial) Clear() {
	s.mu.Lock()
	s.input = nil
	s.output = nil
	s.mu.Unlock()
}

// Reset returns the UART to its power-on state. Taps are kept.
func (s *Serial) Reset() {
	s.mu.Lock()
	s.input = nil
	s.output = nil
	s.enabled = false
	s.baud = DefaultBaud
	s.mu.Unlock()
}
