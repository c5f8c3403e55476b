// Command-line flag tests
//
// Copyright (C) 2026  Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package main

import (
	"io"
	"testing"
	"time"

	"arduino-emulator/pkg/errors"
)

func TestParseFlagsDefaults(t *testing.T) {
	o, done, err := parseFlags(nil, io.Discard)
	if err != nil || done {
		t.Fatalf("parseFlags = %v, %v", done, err)
	}
	if o.address != "0.0.0.0" || o.port != 8080 || o.frequency != 100 {
		t.Errorf("defaults = %s:%d @%dHz", o.address, o.port, o.frequency)
	}
	if o.freezeTimeout != 5*time.Second || o.autostart {
		t.Errorf("freeze-timeout = %s, autostart = %v", o.freezeTimeout, o.autostart)
	}
	if o.sketch != "blink" {
		t.Errorf("sketch = %q, want blink", o.sketch)
	}
}

func TestParseFlagsValidation(t *testing.T) {
	tests := []struct {
		args     []string
		rangeErr bool
	}{
		{[]string{"-port", "0"}, true},
		{[]string{"-port", "70000"}, true},
		{[]string{"-frequency", "0"}, true},
		{[]string{"-frequency", "10001"}, true},
		{[]string{"-freeze-timeout", "0s"}, false},
		{[]string{"-serial-pty", "-serial-device", "/dev/ttyUSB0"}, false},
		{[]string{"-bogus"}, false},
	}
	for _, tt := range tests {
		_, _, err := parseFlags(tt.args, io.Discard)
		if err == nil {
			t.Errorf("parseFlags(%v) accepted invalid input", tt.args)
			continue
		}
		if got := errors.Is(err, errors.ErrValueRange); got != tt.rangeErr {
			t.Errorf("parseFlags(%v) = %v, range error %v", tt.args, err, got)
		}
	}

	o, _, err := parseFlags([]string{"-frequency", "10000", "-port", "1", "-board", "mega"}, io.Discard)
	if err != nil {
		t.Fatalf("boundary values rejected: %v", err)
	}
	if o.frequency != 10000 || o.port != 1 || o.board != "mega" {
		t.Errorf("parsed = %+v", o)
	}
}
