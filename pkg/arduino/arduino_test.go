// Arduino helper tests
//
// Copyright (C) 2026  Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package arduino

import (
	"math"
	"testing"
)

func TestConstrain(t *testing.T) {
	if Constrain(5, 0, 10) != 5 || Constrain(-3, 0, 10) != 0 || Constrain(42, 0, 10) != 10 {
		t.Error("integer constrain failed")
	}
	if Constrain(1.5, 0.0, 1.0) != 1.0 {
		t.Error("float constrain failed")
	}
}

func TestMap(t *testing.T) {
	tests := []struct {
		v, inMin, inMax, outMin, outMax, want int
	}{
		{512, 0, 1023, 0, 255, 127},
		{1023, 0, 1023, 0, 255, 255},
		{0, 0, 1023, 255, 0, 255},
		{50, 0, 100, -10, 10, 0},
		{200, 0, 100, 0, 10, 20},
		{7, 3, 3, 9, 20, 9},
	}
	for _, tt := range tests {
		if got := Map(tt.v, tt.inMin, tt.inMax, tt.outMin, tt.outMax); got != tt.want {
			t.Errorf("Map(%d, %d, %d, %d, %d) = %d, want %d",
				tt.v, tt.inMin, tt.inMax, tt.outMin, tt.outMax, got, tt.want)
		}
	}
	if got := Map(0.5, 0.0, 1.0, 0.0, 10.0); got != 5.0 {
		t.Errorf("float Map = %v", got)
	}
}

func TestMinMaxAbsSq(t *testing.T) {
	if Min(3, 7) != 3 || Max(3, 7) != 7 {
		t.Error("min/max failed")
	}
	if Abs(-4) != 4 || Abs(int8(-5)) != 5 || Abs(-2.5) != 2.5 {
		t.Error("abs failed")
	}
	if Sq(9) != 81 || Sq(1.5) != 2.25 {
		t.Error("sq failed")
	}
}

func TestBits(t *testing.T) {
	if Bit(3) != 8 {
		t.Error("Bit(3) != 8")
	}
	v := 0b1010
	if BitRead(v, 1) != 1 || BitRead(v, 2) != 0 {
		t.Error("BitRead failed")
	}
	if BitSet(v, 0) != 0b1011 || BitClear(v, 3) != 0b0010 {
		t.Error("BitSet/BitClear failed")
	}
	if BitWrite(v, 2, 1) != 0b1110 || BitWrite(v, 1, 0) != 0b1000 {
		t.Error("BitWrite failed")
	}
	if HighByte(0xABCD) != 0xAB || LowByte(0xABCD) != 0xCD {
		t.Error("byte extraction failed")
	}
	if HighByte(int16(-2)) != 0xFF || LowByte(int16(-2)) != 0xFE {
		t.Error("signed byte extraction failed")
	}
	if Word(0x12, 0x34) != 0x1234 {
		t.Error("Word failed")
	}
}

func TestCharClasses(t *testing.T) {
	type class struct {
		name string
		fn   func(byte) bool
		yes  string
		no   string
	}
	classes := []class{
		{"IsAlpha", IsAlpha, "aZ", "1 _"},
		{"IsAlphaNumeric", IsAlphaNumeric, "a9Z", " -"},
		{"IsDigit", IsDigit, "09", "a "},
		{"IsHexadecimalDigit", IsHexadecimalDigit, "09afAF", "gG "},
		{"IsLowerCase", IsLowerCase, "az", "AZ1"},
		{"IsUpperCase", IsUpperCase, "AZ", "az1"},
		{"IsPunct", IsPunct, "!.-_~", "a1 "},
		{"IsSpace", IsSpace, " \t\n\v\f\r", "a_"},
		{"IsWhitespace", IsWhitespace, " \t", "x"},
		{"IsPrintable", IsPrintable, " a~", "\n\x7f"},
		{"IsGraph", IsGraph, "a~!", " \n"},
		{"IsControl", IsControl, "\x00\n\x7f", "a "},
	}
	for _, c := range classes {
		for i := 0; i < len(c.yes); i++ {
			if !c.fn(c.yes[i]) {
				t.Errorf("%s(%q) = false", c.name, c.yes[i])
			}
		}
		for i := 0; i < len(c.no); i++ {
			if c.fn(c.no[i]) {
				t.Errorf("%s(%q) = true", c.name, c.no[i])
			}
		}
	}
	if !IsAscii('~') || IsAscii(0x80) {
		t.Error("IsAscii failed")
	}
}

func TestConstants(t *testing.T) {
	if HIGH != 1 || LOW != 0 || OUTPUT != 1 || INPUT_PULLUP != 2 {
		t.Error("unexpected level/mode constants")
	}
	if CHANGE != 1 || RISING != 2 || FALLING != 3 {
		t.Error("unexpected interrupt constants")
	}
	if math.Abs(DEG_TO_RAD*180-PI) > 1e-12 {
		t.Error("unexpected angle constants")
	}
}
