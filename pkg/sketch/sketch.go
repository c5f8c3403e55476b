// Sketch loading
//
// Copyright (C) 2026  Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

// Package sketch provides the programs the emulator can run: a set of
// built-in demos and a small line-oriented script language.
package sketch

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"arduino-emulator/pkg/emulator"
	"arduino-emulator/pkg/errors"
	"arduino-emulator/pkg/scheduler"
)

// Default is the sketch run when none is selected.
const Default = "blink"

// Factory binds a sketch to an emulator.
type Factory func(emu *emulator.Emulator) scheduler.Sketch

var builtins = map[string]Factory{
	"blink":          Blink,
	"fade":           Fade,
	"button":         Button,
	"serial-echo":    SerialEcho,
	"analog-monitor": AnalogMonitor,
	"spi-loopback":   SPILoopback,
	"hang":           Hang,
}

// Names lists the built-in sketches in alphabetical order.
func Names() []string {
	names := make([]string, 0, len(builtins))
	for name := range builtins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Builtin returns the named built-in sketch.
func Builtin(name string, emu *emulator.Emulator) (scheduler.Sketch, bool) {
	f, ok := builtins[name]
	if !ok {
		return nil, false
	}
	return f(emu), true
}

// Load resolves ref to a built-in name or, failing that, to a script file.
// An empty ref selects Default.
func Load(ref string, emu *emulator.Emulator) (scheduler.Sketch, error) {
	if ref == "" {
		ref = Default
	}
	if s, ok := Builtin(ref, emu); ok {
		return s, nil
	}
	data, err := os.ReadFile(ref)
	if err != nil {
		if os.IsNotExist(err) && !strings.ContainsAny(ref, `/\.`) {
			return nil, errors.SketchScriptError(ref, 0,
				fmt.Sprintf("unknown sketch; built-ins are %s", strings.Join(Names(), ", ")))
		}
		return nil, errors.StartupError("sketch "+ref, err)
	}
	prog, err := Parse(ref, data, emu.Board())
	if err != nil {
		return nil, err
	}
	return prog.Bind(emu), nil
}
