// Error handling tests
//
// Copyright (C) 2026  Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package errors

import (
	"fmt"
	"strings"
	"testing"
)

func TestErrorFormatting(t *testing.T) {
	err := PinNotPWMError(13)
	if got := err.Error(); got != "[PIN_NOT_PWM] Pin 13 is not PWM capable" {
		t.Errorf("unexpected message: %s", got)
	}
	if err.Pin != 13 {
		t.Errorf("expected pin 13, got %d", err.Pin)
	}

	err = SketchScriptError("blink.ino", 4, "unknown command 'foo'")
	if got := err.Error(); got != "[SKETCH_SCRIPT] blink.ino:4: unknown command 'foo'" {
		t.Errorf("unexpected message: %s", got)
	}
}

func TestIsThroughWrapping(t *testing.T) {
	base := AnalogRangeError(7, 6)
	wrapped := fmt.Errorf("set analog: %w", base)

	if !Is(wrapped, ErrAnalogRange) {
		t.Error("expected wrapped error to match ANALOG_RANGE")
	}
	if !IsAddressing(wrapped) {
		t.Error("expected wrapped error to be an addressing error")
	}
	if IsState(wrapped) {
		t.Error("addressing error reported as state error")
	}
	if Is(fmt.Errorf("plain"), ErrAnalogRange) {
		t.Error("plain error must not match")
	}
}

func TestCategories(t *testing.T) {
	tests := []struct {
		err       error
		addr      bool
		request   bool
		state     bool
		bootstrap bool
	}{
		{PinRangeError(40, 20), true, false, false, false},
		{RequestFieldError("pin"), false, true, false, false},
		{RequestParseError(fmt.Errorf("eof")), false, true, false, false},
		{SimRunningError(), false, false, true, false},
		{SimNotRunningError(), false, false, true, false},
		{SimFrozenError(), false, false, true, false},
		{BoardLoadError("b.json", fmt.Errorf("nope")), false, false, false, true},
		{StartupError("http", fmt.Errorf("bind")), false, false, false, true},
	}
	for _, tt := range tests {
		if IsAddressing(tt.err) != tt.addr {
			t.Errorf("%v: IsAddressing = %v", tt.err, !tt.addr)
		}
		if IsRequest(tt.err) != tt.request {
			t.Errorf("%v: IsRequest = %v", tt.err, !tt.request)
		}
		if IsState(tt.err) != tt.state {
			t.Errorf("%v: IsState = %v", tt.err, !tt.state)
		}
		if IsBootstrap(tt.err) != tt.bootstrap {
			t.Errorf("%v: IsBootstrap = %v", tt.err, !tt.bootstrap)
		}
	}
}

func TestRecoverPanic(t *testing.T) {
	run := func() (err *EmulatorError) {
		defer func() {
			err = RecoverPanic("loop", recover())
		}()
		var m map[string]int
		m["boom"] = 1
		return nil
	}

	err := run()
	if err == nil {
		t.Fatal("expected recovered error")
	}
	if err.Code != ErrSketchPanic {
		t.Errorf("expected SKETCH_PANIC, got %s", err.Code)
	}
	if !strings.Contains(err.Message, "loop() panicked") {
		t.Errorf("unexpected message: %s", err.Message)
	}
	if err.Context["phase"] != "loop" {
		t.Errorf("expected phase context, got %v", err.Context)
	}

	if RecoverPanic("setup", nil) != nil {
		t.Error("nil recover value must give nil error")
	}
}
