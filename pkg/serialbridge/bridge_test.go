// Serial bridge tests
//
// Copyright (C) 2026  Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package serialbridge

import (
	"io"
	"net"
	"testing"
	"time"

	"arduino-emulator/pkg/emulator"
)

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestBridgeCopiesBothWays(t *testing.T) {
	emu := emulator.New(emulator.Config{})
	emu.SerialBegin(9600)

	host, local := net.Pipe()
	defer host.Close()
	b := New(local, emu, nil)
	b.Start()
	defer b.Close()

	if _, err := host.Write([]byte("ping")); err != nil {
		t.Fatalf("host write: %v", err)
	}
	waitFor(t, func() bool { return emu.SerialAvailable() == 4 })
	if c := emu.SerialRead(); c != 'p' {
		t.Errorf("first byte = %q, want 'p'", rune(c))
	}

	emu.SerialPrint("pong")
	host.SetReadDeadline(time.Now().Add(2 * time.Second))
	buf := make([]byte, 16)
	n, err := io.ReadAtLeast(host, buf, 4)
	if err != nil {
		t.Fatalf("host read: %v", err)
	}
	if got := string(buf[:n]); got != "pong" {
		t.Errorf("host received %q, want %q", got, "pong")
	}

	// The tap copies; the control plane queue still holds the text.
	if got := emu.SerialOutput(); got != "pong" {
		t.Errorf("SerialOutput = %q, want %q", got, "pong")
	}

	waitFor(t, func() bool {
		rx, tx, dropped := b.Stats()
		return rx == 4 && tx == 4 && dropped == 0
	})
}

func TestBridgeIgnoresOutputWhileUARTDisabled(t *testing.T) {
	emu := emulator.New(emulator.Config{})

	host, local := net.Pipe()
	defer host.Close()
	b := New(local, emu, nil)
	b.Start()
	defer b.Close()

	emu.SerialPrint("lost")
	time.Sleep(20 * time.Millisecond)
	if _, tx, _ := b.Stats(); tx != 0 {
		t.Errorf("tx = %d, want 0", tx)
	}
}

func TestBridgeCloseStopsLoops(t *testing.T) {
	emu := emulator.New(emulator.Config{})
	emu.SerialBegin(9600)

	host, local := net.Pipe()
	defer host.Close()
	b := New(local, emu, nil)
	b.Start()

	done := make(chan struct{})
	go func() {
		b.Close()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Close did not return")
	}

	// Writes after close must not block the sketch.
	emu.SerialPrint("after close")
	if err := b.Close(); err != nil {
		t.Errorf("second Close = %v, want nil", err)
	}
}
