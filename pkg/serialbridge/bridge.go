// UART to host stream bridge
//
// Copyright (C) 2026  Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

// Package serialbridge mirrors the emulated UART to a host stream: a
// pseudo-terminal or a real serial device.
package serialbridge

import (
	"errors"
	"io"
	"os"
	"sync"
	"sync/atomic"

	"arduino-emulator/pkg/log"
	"arduino-emulator/pkg/peripheral"
)

// DefaultBaud is used for device backends when no rate is given.
const DefaultBaud = 9600

// outQueue bounds how many sketch writes may be waiting for the host.
const outQueue = 256

// Target is the emulator side of the bridge.
type Target interface {
	Serial() *peripheral.Serial
	SerialInput(data []byte)
}

// Bridge copies sketch output to a stream and stream input to the sketch.
// Output reaches the bridge through a tap, so the REST output queue is
// left untouched.
type Bridge struct {
	stream io.ReadWriteCloser
	target Target
	logger *log.Logger

	out    chan []byte
	done   chan struct{}
	wg     sync.WaitGroup
	once   sync.Once
	closed atomic.Bool

	rx      atomic.Uint64
	tx      atomic.Uint64
	dropped atomic.Uint64
}

// New creates a bridge. Call Start to begin copying.
func New(stream io.ReadWriteCloser, target Target, logger *log.Logger) *Bridge {
	if logger == nil {
		logger = log.GetLogger("serialbridge")
	}
	return &Bridge{
		stream: stream,
		target: target,
		logger: logger,
		out:    make(chan []byte, outQueue),
		done:   make(chan struct{}),
	}
}

// Start registers the output tap and launches the copy goroutines.
func (b *Bridge) Start() {
	b.target.Serial().AddTap(b.tap)
	b.wg.Add(2)
	go b.readLoop()
	go b.writeLoop()
}

// tap runs on the sketch's goroutine and must never block it.
func (b *Bridge) tap(p []byte) {
	if b.closed.Load() {
		return
	}
	select {
	case b.out <- p:
	default:
		b.dropped.Add(uint64(len(p)))
	}
}

func (b *Bridge) readLoop() {
	defer b.wg.Done()
	buf := make([]byte, 256)
	for {
		n, err := b.stream.Read(buf)
		if n > 0 {
			data := make([]byte, n)
			copy(data, buf[:n])
			b.rx.Add(uint64(n))
			b.target.SerialInput(data)
		}
		if err != nil {
			if !b.closed.Load() && !errors.Is(err, io.EOF) && !errors.Is(err, os.ErrClosed) {
				b.logger.WithError(err).Warn("serial bridge read failed")
			}
			return
		}
		if b.closed.Load() {
			return
		}
	}
}

func (b *Bridge) writeLoop() {
	defer b.wg.Done()
	for {
		select {
		case <-b.done:
			return
		case p := <-b.out:
			if _, err := b.stream.Write(p); err != nil {
				if !b.closed.Load() {
					b.logger.WithError(err).Warn("serial bridge write failed")
				}
				return
			}
			b.tx.Add(uint64(len(p)))
		}
	}
}

// Stats reports bytes received from the host, bytes sent to it and bytes
// dropped because the host was not keeping up.
func (b *Bridge) Stats() (rx, tx, dropped uint64) {
	return b.rx.Load(), b.tx.Load(), b.dropped.Load()
}

// Close detaches the tap, closes the stream and waits for both loops.
func (b *Bridge) Close() error {
	var err error
	b.once.Do(func() {
		b.closed.Store(true)
		close(b.done)
		err = b.stream.Close()
		b.wg.Wait()
	})
	return err
}
