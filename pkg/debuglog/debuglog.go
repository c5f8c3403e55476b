// Debug message queue
//
// Copyright (C) 2026  Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

// Package debuglog holds the drainable message queue shown in the web UI.
//
// Messages are formatted "[CATEGORY] text". The queue is bounded; once it
// holds Capacity messages the oldest ones are dropped.
package debuglog

import (
	"fmt"
	"strings"
	"sync"

	"arduino-emulator/pkg/log"
)

// Capacity is the default maximum number of queued messages.
const Capacity = 1000

// Well-known categories.
const (
	System = "SYSTEM"
	Freeze = "FREEZE"
	Error  = "ERROR"
	GPIO   = "GPIO"
	Serial = "SERIAL"
)

// Log is a bounded FIFO of debug messages.
type Log struct {
	mu       sync.Mutex
	messages []string
	capacity int
	dropped  uint64
	mirror   *log.Logger
}

// New creates a log holding at most capacity messages (Capacity if <= 0).
func New(capacity int) *Log {
	if capacity <= 0 {
		capacity = Capacity
	}
	return &Log{capacity: capacity}
}

// Mirror copies every added message to l at DEBUG level.
func (d *Log) Mirror(l *log.Logger) {
	d.mu.Lock()
	d.mirror = l
	d.mu.Unlock()
}

// Add appends "[category] message".
func (d *Log) Add(category, format string, args ...interface{}) {
	msg := format
	if len(args) > 0 {
		msg = fmt.Sprintf(format, args...)
	}
	line := "[" + strings.ToUpper(category) + "] " + msg

	d.mu.Lock()
	if len(d.messages) >= d.capacity {
		n := len(d.messages) - d.capacity + 1
		d.messages = append(d.messages[:0], d.messages[n:]...)
		d.dropped += uint64(n)
	}
	d.messages = append(d.messages, line)
	mirror := d.mirror
	d.mu.Unlock()

	if mirror != nil {
		mirror.Debug("%s", line)
	}
}

// Drain returns all queued messages and empties the queue. The result is
// never nil.
func (d *Log) Drain() []string {
	d.mu.Lock()
	out := d.messages
	d.messages = nil
	d.mu.Unlock()
	if out == nil {
		out = []string{}
	}
	return out
}

// Len returns the number of queued messages.
func (d *Log) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.messages)
}

// Dropped returns how many messages were discarded due to the bound.
func (d *Log) Dropped() uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dropped
}

// Snapshot returns a copy of the queued messages without draining.
func (d *Log) Snapshot() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]string, len(d.messages))
	copy(out, d.messages)
	return out
}

// Count returns how many queued messages carry the given category.
func (d *Log) Count(category string) int {
	prefix := "[" + strings.ToUpper(category) + "]"
	d.mu.Lock()
	defer d.mu.Unlock()
	n := 0
	for _, m := range d.messages {
		if strings.HasPrefix(m, prefix) {
			n++
		}
	}
	return n
}
