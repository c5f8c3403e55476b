// Built-in board presets
//
// Copyright (C) 2026  Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package board

import (
	"sort"
	"strconv"
	"strings"
)

type preset struct {
	name       string
	pwm        []int
	analogBase int
	analogN    int
	analogOnly []int
}

var presets = map[string]preset{
	"uno": {
		name:       "Arduino Uno",
		pwm:        []int{3, 5, 6, 9, 10, 11},
		analogBase: 14,
		analogN:    6,
	},
	"nano": {
		name:       "Arduino Nano",
		pwm:        []int{3, 5, 6, 9, 10, 11},
		analogBase: 14,
		analogN:    8,
		analogOnly: []int{20, 21},
	},
	"mega": {
		name:       "Arduino Mega 2560",
		pwm:        []int{2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 44, 45, 46},
		analogBase: 54,
		analogN:    16,
	},
}

func (p preset) build() *Board {
	mapping := map[string]int{"LED_BUILTIN": 13}
	for i := 0; i < p.analogN; i++ {
		mapping["A"+strconv.Itoa(i)] = p.analogBase + i
	}
	b, err := New(p.name, p.pwm, mapping, p.analogOnly)
	if err != nil {
		panic("board: invalid preset " + p.name + ": " + err.Error())
	}
	return b
}

// Preset returns a fresh copy of the named built-in board.
func Preset(name string) (*Board, bool) {
	p, ok := presets[strings.ToLower(name)]
	if !ok {
		return nil, false
	}
	return p.build(), true
}

// Presets lists the built-in board names.
func Presets() []string {
	names := make([]string, 0, len(presets))
	for k := range presets {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Uno returns the default board.
func Uno() *Board {
	b, _ := Preset("uno")
	return b
}
