// Board pin layouts
//
// Copyright (C) 2026  Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

// Package board describes the pin layout of an emulated board.
//
// A Board is either one of the built-in presets or decoded from a JSON or
// YAML document. Fields absent from a document keep the Arduino Uno
// defaults. Derived tables (analog inputs, digital/total pin counts) are
// computed once and the Board is treated as immutable afterwards.
package board

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"arduino-emulator/pkg/errors"
)

// DefaultPinCount is used for both digital and total pins when the
// mapping declares no analog inputs.
const DefaultPinCount = 20

// MaxPins bounds the size of a board so a bad document cannot allocate
// an absurd pin table.
const MaxPins = 256

// Board is an immutable pin layout.
type Board struct {
	name           string
	pwmPins        []int
	pinMapping     map[string]int
	analogOnlyPins []int

	analogInputs []int
	digitalPins  int
	totalPins    int
	pwmSet       map[int]bool
	analogOnly   map[int]bool
}

// Document is the on-disk shape of a board description. JSON documents
// decode through the same tags since JSON is a YAML subset.
type Document struct {
	Name           *string        `yaml:"name"`
	PWMPins        *[]int         `yaml:"pwm_pins"`
	PinMapping     map[string]int `yaml:"pin_mapping"`
	AnalogOnlyPins *[]int         `yaml:"analog_only_pins"`
}

// Info is the JSON view served by the control plane.
type Info struct {
	Name            string         `json:"name"`
	TotalPins       int            `json:"total_pins"`
	DigitalPins     int            `json:"digital_pins"`
	AnalogPins      int            `json:"analog_pins"`
	PWMPins         []int          `json:"pwm_pins"`
	AnalogInputPins []int          `json:"analog_input_pins"`
	PinMapping      map[string]int `json:"pin_mapping"`
	AnalogOnlyPins  []int          `json:"analog_only_pins"`
}

// New builds a board from explicit tables and validates it.
func New(name string, pwmPins []int, mapping map[string]int, analogOnly []int) (*Board, error) {
	b := &Board{
		name:           name,
		pwmPins:        append([]int(nil), pwmPins...),
		pinMapping:     make(map[string]int, len(mapping)),
		analogOnlyPins: append([]int(nil), analogOnly...),
	}
	for k, v := range mapping {
		b.pinMapping[k] = v
	}
	if err := b.initialize(); err != nil {
		return nil, err
	}
	return b, nil
}

// isAnalogKey reports whether a mapping key names an analog input
// ("A" followed by a digit).
func isAnalogKey(key string) bool {
	return len(key) >= 2 && key[0] == 'A' && key[1] >= '0' && key[1] <= '9'
}

func (b *Board) initialize() error {
	if b.name == "" {
		return errors.BoardInvalidError("", "board name must not be empty")
	}

	b.analogInputs = b.analogInputs[:0]
	for key, pin := range b.pinMapping {
		if pin < 0 {
			return errors.BoardInvalidError("", fmt.Sprintf("pin_mapping %s: negative pin %d", key, pin))
		}
		if isAnalogKey(key) {
			b.analogInputs = append(b.analogInputs, pin)
		}
	}
	sort.Ints(b.analogInputs)

	if len(b.analogInputs) > 0 {
		b.digitalPins = b.analogInputs[0]
		b.totalPins = b.analogInputs[len(b.analogInputs)-1] + 1
	} else {
		b.digitalPins = DefaultPinCount
		b.totalPins = DefaultPinCount
	}
	if b.totalPins > MaxPins {
		return errors.BoardInvalidError("", fmt.Sprintf("board declares %d pins, limit is %d", b.totalPins, MaxPins))
	}

	b.pwmSet = make(map[int]bool, len(b.pwmPins))
	for _, p := range b.pwmPins {
		if p < 0 || p >= b.totalPins {
			return errors.BoardInvalidError("", fmt.Sprintf("pwm pin %d outside [0, %d)", p, b.totalPins))
		}
		b.pwmSet[p] = true
	}
	b.analogOnly = make(map[int]bool, len(b.analogOnlyPins))
	for _, p := range b.analogOnlyPins {
		if p < 0 || p >= b.totalPins {
			return errors.BoardInvalidError("", fmt.Sprintf("analog-only pin %d outside [0, %d)", p, b.totalPins))
		}
		b.analogOnly[p] = true
	}
	return nil
}

// Parse decodes a JSON or YAML board document. source names the
// document in errors.
func Parse(data []byte, source string) (*Board, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.BoardLoadError(source, err)
	}

	def := Uno()
	name, pwm, mapping, analogOnly := def.name, def.pwmPins, def.pinMapping, def.analogOnlyPins
	if doc.Name != nil {
		name = *doc.Name
	}
	if doc.PWMPins != nil {
		pwm = *doc.PWMPins
	}
	if doc.PinMapping != nil {
		mapping = doc.PinMapping
	}
	if doc.AnalogOnlyPins != nil {
		analogOnly = *doc.AnalogOnlyPins
	}

	b, err := New(name, pwm, mapping, analogOnly)
	if err != nil {
		if e, ok := errors.As(err); ok {
			e.SetFile(source)
		}
		return nil, err
	}
	return b, nil
}

// Load reads and parses a board document from disk.
func Load(path string) (*Board, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.BoardLoadError(path, err)
	}
	return Parse(data, path)
}

// Resolve returns a preset when ref names one, the Uno preset when ref is
// empty, and otherwise loads ref as a file.
func Resolve(ref string) (*Board, error) {
	if ref == "" {
		return Uno(), nil
	}
	if b, ok := Preset(ref); ok {
		return b, nil
	}
	return Load(ref)
}

// Name returns the display name.
func (b *Board) Name() string { return b.name }

// TotalPins returns the number of addressable pins.
func (b *Board) TotalPins() int { return b.totalPins }

// DigitalPins returns the index of the first analog pin.
func (b *Board) DigitalPins() int { return b.digitalPins }

// AnalogPins returns the number of analog inputs.
func (b *Board) AnalogPins() int { return len(b.analogInputs) }

// AnalogInputPins returns the sorted physical analog pin indices.
func (b *Board) AnalogInputPins() []int {
	return append([]int(nil), b.analogInputs...)
}

// PWMPins returns the PWM-capable pins in declaration order.
func (b *Board) PWMPins() []int {
	return append([]int(nil), b.pwmPins...)
}

// IsPWM reports whether pin supports PWM.
func (b *Board) IsPWM(pin int) bool { return b.pwmSet[pin] }

// IsAnalogOnly reports whether pin has no digital function.
func (b *Board) IsAnalogOnly(pin int) bool { return b.analogOnly[pin] }

// Valid reports whether pin is addressable.
func (b *Board) Valid(pin int) bool { return pin >= 0 && pin < b.totalPins }

// AnalogChannel maps logical analog channel ch (0 for A0) to its physical
// pin. The mapping entry "A<ch>" wins; otherwise the ch-th entry of the
// sorted analog list is used.
func (b *Board) AnalogChannel(ch int) (int, bool) {
	if ch < 0 || ch >= len(b.analogInputs) {
		return 0, false
	}
	if pin, ok := b.pinMapping["A"+strconv.Itoa(ch)]; ok {
		return pin, true
	}
	return b.analogInputs[ch], true
}

// Lookup resolves a pin name ("A0", "LED_BUILTIN") or a decimal index.
func (b *Board) Lookup(name string) (int, bool) {
	if pin, ok := b.pinMapping[name]; ok {
		return pin, true
	}
	if pin, ok := b.pinMapping[strings.ToUpper(name)]; ok {
		return pin, true
	}
	n, err := strconv.Atoi(name)
	if err != nil || !b.Valid(n) {
		return 0, false
	}
	return n, true
}

// Info returns a copy of the board tables for serialization.
func (b *Board) Info() Info {
	mapping := make(map[string]int, len(b.pinMapping))
	for k, v := range b.pinMapping {
		mapping[k] = v
	}
	info := Info{
		Name:            b.name,
		TotalPins:       b.totalPins,
		DigitalPins:     b.digitalPins,
		AnalogPins:      len(b.analogInputs),
		PWMPins:         b.PWMPins(),
		AnalogInputPins: b.AnalogInputPins(),
		PinMapping:      mapping,
		AnalogOnlyPins:  append([]int{}, b.analogOnlyPins...),
	}
	if info.PWMPins == nil {
		info.PWMPins = []int{}
	}
	if info.AnalogInputPins == nil {
		info.AnalogInputPins = []int{}
	}
	return info
}
