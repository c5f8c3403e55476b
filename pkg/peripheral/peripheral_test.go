// Peripheral tests
//
// Copyright (C) 2026  Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package peripheral

import (
	"bytes"
	"context"
	"sync/atomic"
	"testing"
	"time"
)

func TestSerialDisabledDropsOutput(t *testing.T) {
	s := NewSerial()
	if n, _ := s.WriteString("ignored"); n != 0 {
		t.Errorf("expected 0 bytes while disabled, got %d", n)
	}
	if s.DrainOutput() != "" {
		t.Error("disabled UART must not queue output")
	}
	if s.Baud() != DefaultBaud {
		t.Errorf("expected default baud, got %d", s.Baud())
	}
}

func TestSerialDrainOnce(t *testing.T) {
	s := NewSerial()
	s.Begin(115200)
	s.WriteString("hello ")
	s.Write([]byte("world"))

	if got := s.DrainOutput(); got != "hello world" {
		t.Errorf("unexpected output %q", got)
	}
	if got := s.DrainOutput(); got != "" {
		t.Errorf("second drain should be empty, got %q", got)
	}
	if s.Baud() != 115200 {
		t.Errorf("expected baud 115200, got %d", s.Baud())
	}
}

func TestSerialInput(t *testing.T) {
	s := NewSerial()
	s.Begin(9600)
	if s.Read() != -1 || s.Peek() != -1 {
		t.Error("empty input must read -1")
	}
	s.AddInput([]byte("ab"))
	if s.Available() != 2 {
		t.Errorf("expected 2 available, got %d", s.Available())
	}
	if s.Peek() != 'a' || s.Read() != 'a' || s.Read() != 'b' || s.Read() != -1 {
		t.Error("unexpected read sequence")
	}
}

func TestSerialBeginClearsQueues(t *testing.T) {
	s := NewSerial()
	s.Begin(9600)
	s.AddInput([]byte("x"))
	s.WriteString("y")
	s.Begin(9600)
	if s.Available() != 0 || s.DrainOutput() != "" {
		t.Error("Begin must clear both queues")
	}
}

func TestSerialTap(t *testing.T) {
	s := NewSerial()
	var tapped bytes.Buffer
	s.AddTap(func(p []byte) { tapped.Write(p) })
	s.Begin(9600)
	s.WriteString("abc")

	if tapped.String() != "abc" {
		t.Errorf("tap got %q", tapped.String())
	}
	if s.DrainOutput() != "abc" {
		t.Error("tap must not consume the output queue")
	}
}

func TestSerialReset(t *testing.T) {
	s := NewSerial()
	s.Begin(57600)
	s.WriteString("z")
	s.Reset()
	if s.Enabled() || s.Baud() != DefaultBaud || s.DrainOutput() != "" {
		t.Error("Reset must restore power-on state")
	}
}

func TestSPITransfer(t *testing.T) {
	s := NewSPI()
	if b, _ := s.Transfer(0x42); b != 0 {
		t.Errorf("disabled bus must return 0, got %#x", b)
	}
	s.Begin()
	if b, _ := s.Transfer(0x42); b != 0x42 {
		t.Errorf("enabled bus must echo, got %#x", b)
	}
	if !bytes.Equal(s.Buffer(), []byte{0x42}) {
		t.Errorf("unexpected buffer %v", s.Buffer())
	}
	s.Begin()
	if len(s.Buffer()) != 0 {
		t.Error("Begin must clear the log")
	}
}

func TestSPITx(t *testing.T) {
	s := NewSPI()
	s.Begin()

	r := make([]byte, 3)
	if err := s.Tx([]byte{1, 2, 3}, r); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(r, []byte{1, 2, 3}) {
		t.Errorf("unexpected rx %v", r)
	}

	r = make([]byte, 2)
	s.Tx(nil, r)
	if !bytes.Equal(r, []byte{0, 0}) {
		t.Errorf("nil write should clock zeros, got %v", r)
	}
	if len(s.Buffer()) != 5 {
		t.Errorf("expected 5 logged bytes, got %d", len(s.Buffer()))
	}
}

func TestTimerStoppedReturnsZero(t *testing.T) {
	tm := NewTimer()
	if tm.Millis() != 0 || tm.Micros() != 0 {
		t.Error("stopped timer must report 0")
	}
	tm.Start()
	time.Sleep(5 * time.Millisecond)
	if tm.Micros() == 0 {
		t.Error("running timer should advance")
	}
	tm.Stop()
	if tm.Millis() != 0 {
		t.Error("stopped timer must report 0")
	}
}

func TestTimerCallbacks(t *testing.T) {
	tm := NewTimer()
	var fired atomic.Int32
	id := tm.AddCallback(func() { fired.Add(1) }, 5*time.Millisecond)

	tm.Start()
	time.Sleep(60 * time.Millisecond)
	tm.Stop()

	n := fired.Load()
	if n < 3 {
		t.Errorf("expected periodic callback to fire several times, got %d", n)
	}
	time.Sleep(20 * time.Millisecond)
	if fired.Load() != n {
		t.Error("callbacks fired after Stop")
	}

	if !tm.RemoveCallback(id) || tm.Callbacks() != 0 {
		t.Error("RemoveCallback failed")
	}
	if tm.RemoveCallback(id) {
		t.Error("second RemoveCallback should report false")
	}
}

func TestTimerUpdateFiresDueOnly(t *testing.T) {
	tm := NewTimer()
	var a, b atomic.Int32
	tm.AddCallback(func() { a.Add(1) }, 10*time.Millisecond)
	tm.AddCallback(func() { b.Add(1) }, time.Hour)

	if n := tm.Update(time.Now().Add(20 * time.Millisecond)); n != 1 {
		t.Errorf("expected 1 due callback, got %d", n)
	}
	if a.Load() != 1 || b.Load() != 0 {
		t.Errorf("unexpected fire counts a=%d b=%d", a.Load(), b.Load())
	}
	tm.ClearCallbacks()
	if tm.Update(time.Now().Add(2*time.Hour)) != 0 {
		t.Error("cleared timer must not fire")
	}
}

func TestTimerDelayCancelledByStop(t *testing.T) {
	tm := NewTimer()
	tm.Start()

	done := make(chan error, 1)
	go func() {
		done <- tm.Delay(context.Background(), time.Minute)
	}()
	time.Sleep(10 * time.Millisecond)
	tm.Stop()

	select {
	case err := <-done:
		if err == nil {
			t.Error("expected cancellation error")
		}
	case <-time.After(time.Second):
		t.Fatal("Delay did not return after Stop")
	}
}

func TestTimerDelayCompletes(t *testing.T) {
	tm := NewTimer()
	tm.Start()
	defer tm.Stop()

	start := time.Now()
	if err := tm.Delay(context.Background(), 20*time.Millisecond); err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	if time.Since(start) < 20*time.Millisecond {
		t.Error("Delay returned early")
	}
}
