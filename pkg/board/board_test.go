// Board layout tests
//
// Copyright (C) 2026  Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package board

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"arduino-emulator/pkg/errors"
)

func TestUnoDefaults(t *testing.T) {
	b := Uno()
	if b.Name() != "Arduino Uno" {
		t.Errorf("unexpected name %q", b.Name())
	}
	if b.TotalPins() != 20 || b.DigitalPins() != 14 || b.AnalogPins() != 6 {
		t.Errorf("unexpected counts total=%d digital=%d analog=%d",
			b.TotalPins(), b.DigitalPins(), b.AnalogPins())
	}
	for _, p := range []int{3, 5, 6, 9, 10, 11} {
		if !b.IsPWM(p) {
			t.Errorf("pin %d should be PWM capable", p)
		}
	}
	if b.IsPWM(13) {
		t.Error("pin 13 must not be PWM capable")
	}
	if pin, ok := b.Lookup("LED_BUILTIN"); !ok || pin != 13 {
		t.Errorf("LED_BUILTIN = %d, %v", pin, ok)
	}
}

func TestPresets(t *testing.T) {
	tests := []struct {
		name                  string
		total, digital, analg int
	}{
		{"uno", 20, 14, 6},
		{"nano", 22, 14, 8},
		{"MEGA", 70, 54, 16},
	}
	for _, tt := range tests {
		b, ok := Preset(tt.name)
		if !ok {
			t.Fatalf("missing preset %s", tt.name)
		}
		if b.TotalPins() != tt.total || b.DigitalPins() != tt.digital || b.AnalogPins() != tt.analg {
			t.Errorf("%s: total=%d digital=%d analog=%d", tt.name, b.TotalPins(), b.DigitalPins(), b.AnalogPins())
		}
	}
	nano, _ := Preset("nano")
	if !nano.IsAnalogOnly(20) || nano.IsAnalogOnly(19) {
		t.Error("nano analog-only pins wrong")
	}
	if _, ok := Preset("due"); ok {
		t.Error("unexpected preset due")
	}
	if !reflect.DeepEqual(Presets(), []string{"mega", "nano", "uno"}) {
		t.Errorf("unexpected preset list %v", Presets())
	}
}

func TestParseJSONKeepsDefaultsForMissingFields(t *testing.T) {
	b, err := Parse([]byte(`{"name": "Custom"}`), "custom.json")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if b.Name() != "Custom" {
		t.Errorf("unexpected name %q", b.Name())
	}
	if b.TotalPins() != 20 || !b.IsPWM(3) {
		t.Error("expected Uno layout for missing fields")
	}
}

func TestParseYAMLRemap(t *testing.T) {
	doc := `
name: Remapped
pwm_pins: [2, 4]
pin_mapping:
  A0: 11
  A1: 10
  LED_BUILTIN: 2
`
	b, err := Parse([]byte(doc), "remap.yaml")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if b.DigitalPins() != 10 || b.TotalPins() != 12 || b.AnalogPins() != 2 {
		t.Errorf("unexpected counts digital=%d total=%d analog=%d", b.DigitalPins(), b.TotalPins(), b.AnalogPins())
	}
	if pin, ok := b.AnalogChannel(0); !ok || pin != 11 {
		t.Errorf("A0 should map to 11 via pin_mapping, got %d", pin)
	}
	if pin, ok := b.AnalogChannel(1); !ok || pin != 10 {
		t.Errorf("A1 should map to 10, got %d", pin)
	}
	if _, ok := b.AnalogChannel(2); ok {
		t.Error("channel 2 must be out of range")
	}
	if !reflect.DeepEqual(b.AnalogInputPins(), []int{10, 11}) {
		t.Errorf("analog inputs not sorted: %v", b.AnalogInputPins())
	}
}

func TestAnalogChannelFallsBackToSortedList(t *testing.T) {
	b, err := New("Sparse", nil, map[string]int{"A0": 14, "A3": 17}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if pin, ok := b.AnalogChannel(1); !ok || pin != 17 {
		t.Errorf("channel 1 should fall back to sorted list entry 17, got %d", pin)
	}
}

func TestNoAnalogPins(t *testing.T) {
	b, err := New("Digital", []int{1}, map[string]int{"LED": 5}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if b.TotalPins() != DefaultPinCount || b.DigitalPins() != DefaultPinCount || b.AnalogPins() != 0 {
		t.Errorf("unexpected counts total=%d digital=%d", b.TotalPins(), b.DigitalPins())
	}
}

func TestInvalidBoards(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		code errors.ErrorCode
	}{
		{"malformed", `{"name": `, errors.ErrBoardLoad},
		{"pwm outside", `{"pwm_pins": [25]}`, errors.ErrBoardInvalid},
		{"negative", `{"pin_mapping": {"A0": -1}}`, errors.ErrBoardInvalid},
		{"empty name", `{"name": ""}`, errors.ErrBoardInvalid},
		{"too many", `{"pin_mapping": {"A0": 400}}`, errors.ErrBoardInvalid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc), "bad.json")
			if !errors.Is(err, tt.code) {
				t.Errorf("expected %s, got %v", tt.code, err)
			}
			if !errors.IsBootstrap(err) {
				t.Errorf("board errors must be bootstrap errors: %v", err)
			}
		})
	}
}

func TestResolve(t *testing.T) {
	b, err := Resolve("")
	if err != nil || b.Name() != "Arduino Uno" {
		t.Fatalf("empty ref should give Uno: %v", err)
	}
	b, err = Resolve("mega")
	if err != nil || b.TotalPins() != 70 {
		t.Fatalf("mega preset: %v", err)
	}

	path := filepath.Join(t.TempDir(), "board.json")
	os.WriteFile(path, []byte(`{"name":"File Board","pwm_pins":[3,5,6],"pin_mapping":{"A0":8}}`), 0644)
	b, err = Resolve(path)
	if err != nil {
		t.Fatalf("file board: %v", err)
	}
	if b.Name() != "File Board" || b.TotalPins() != 9 {
		t.Errorf("unexpected file board %s/%d", b.Name(), b.TotalPins())
	}

	if _, err := Resolve(filepath.Join(t.TempDir(), "missing.json")); !errors.Is(err, errors.ErrBoardLoad) {
		t.Errorf("expected BOARD_LOAD for missing file, got %v", err)
	}
}

func TestInfo(t *testing.T) {
	info := Uno().Info()
	if info.Name != "Arduino Uno" || info.TotalPins != 20 || info.AnalogPins != 6 {
		t.Errorf("unexpected info %+v", info)
	}
	info.PinMapping["A0"] = 99
	if pin, _ := Uno().AnalogChannel(0); pin != 14 {
		t.Error("Info must return a copy of the mapping")
	}
	if info.AnalogOnlyPins == nil {
		t.Error("analog_only_pins must serialize as an array")
	}
}
