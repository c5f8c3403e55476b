// Sketch script parser
//
// Copyright (C) 2026  Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package sketch

import (
	"bufio"
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/shlex"

	"arduino-emulator/pkg/board"
	"arduino-emulator/pkg/emulator"
	"arduino-emulator/pkg/errors"
	"arduino-emulator/pkg/scheduler"
)

// A script is plain text with a setup: and a loop: section. Every other
// non-empty line is one command, tokenised with shell quoting rules:
//
//	# blink the LED
//	setup:
//	  pinMode LED_BUILTIN OUTPUT
//	loop:
//	  toggle LED_BUILTIN
//	  delay 500

// step is one compiled command.
type step func(emu *emulator.Emulator)

// Program is a parsed script, ready to bind to an emulator.
type Program struct {
	Name  string
	setup []step
	loop  []step
}

// Bind returns a sketch that runs p on emu.
func (p *Program) Bind(emu *emulator.Emulator) scheduler.Sketch {
	return scheduler.SketchFuncs{
		SetupFunc: func() { p.exec(p.setup, emu) },
		LoopFunc:  func() { p.exec(p.loop, emu) },
	}
}

func (p *Program) exec(steps []step, emu *emulator.Emulator) {
	for _, s := range steps {
		if !emu.Running() {
			return
		}
		s(emu)
	}
}

// Len reports the number of commands in each section.
func (p *Program) Len() (setup, loop int) { return len(p.setup), len(p.loop) }

var symbols = map[string]int{
	"HIGH":              int(emulator.High),
	"LOW":               int(emulator.Low),
	"INPUT":             int(emulator.Input),
	"OUTPUT":            int(emulator.Output),
	"INPUT_PULLUP":      int(emulator.InputPullup),
	"INPUT_PULLDOWN":    int(emulator.InputPulldown),
	"OUTPUT_OPEN_DRAIN": int(emulator.OutputOpenDrain),
}

// command describes one script instruction.
type command struct {
	usage   string
	minArgs int
	// maxArgs < 0 means unlimited.
	maxArgs int
	compile func(c *compiler, args []string) (step, error)
}

var commands = map[string]command{
	"pinMode": {"pinMode <pin> <mode>", 2, 2, func(c *compiler, a []string) (step, error) {
		pin, err := c.pin(a[0])
		if err != nil {
			return nil, err
		}
		mode, err := c.value(a[1])
		if err != nil {
			return nil, err
		}
		if mode < int(emulator.Input) || mode > int(emulator.OutputOpenDrain) {
			return nil, fmt.Errorf("invalid pin mode %q", a[1])
		}
		return func(e *emulator.Emulator) { e.PinMode(pin, emulator.Mode(mode)) }, nil
	}},
	"digitalWrite": {"digitalWrite <pin> <HIGH|LOW>", 2, 2, func(c *compiler, a []string) (step, error) {
		pin, err := c.pin(a[0])
		if err != nil {
			return nil, err
		}
		v, err := c.value(a[1])
		if err != nil {
			return nil, err
		}
		level := emulator.LevelOf(v)
		return func(e *emulator.Emulator) { e.DigitalWrite(pin, level) }, nil
	}},
	"analogWrite": {"analogWrite <pin> <value>", 2, 2, func(c *compiler, a []string) (step, error) {
		pin, err := c.pin(a[0])
		if err != nil {
			return nil, err
		}
		v, err := c.value(a[1])
		if err != nil {
			return nil, err
		}
		return func(e *emulator.Emulator) { e.AnalogWrite(pin, v) }, nil
	}},
	"toggle": {"toggle <pin>", 1, 1, func(c *compiler, a []string) (step, error) {
		pin, err := c.pin(a[0])
		if err != nil {
			return nil, err
		}
		return func(e *emulator.Emulator) {
			e.DigitalWrite(pin, emulator.LevelOf(1-int(e.DigitalRead(pin))))
		}, nil
	}},
	"delay": {"delay <ms>", 1, 1, func(c *compiler, a []string) (step, error) {
		ms, err := c.natural(a[0])
		if err != nil {
			return nil, err
		}
		return func(e *emulator.Emulator) { e.Delay(ms) }, nil
	}},
	"delayMicroseconds": {"delayMicroseconds <us>", 1, 1, func(c *compiler, a []string) (step, error) {
		us, err := c.natural(a[0])
		if err != nil {
			return nil, err
		}
		return func(e *emulator.Emulator) { e.DelayMicroseconds(us) }, nil
	}},
	"serialBegin": {"serialBegin [baud]", 0, 1, func(c *compiler, a []string) (step, error) {
		baud := 9600
		if len(a) == 1 {
			var err error
			if baud, err = c.natural(a[0]); err != nil {
				return nil, err
			}
		}
		return func(e *emulator.Emulator) { e.SerialBegin(baud) }, nil
	}},
	"print": {"print <text>...", 1, -1, func(c *compiler, a []string) (step, error) {
		text := strings.Join(a, " ")
		return func(e *emulator.Emulator) { e.SerialPrint(text) }, nil
	}},
	"println": {"println [text]...", 0, -1, func(c *compiler, a []string) (step, error) {
		text := strings.Join(a, " ")
		return func(e *emulator.Emulator) { e.SerialPrintln(text) }, nil
	}},
	"echo": {"echo", 0, 0, func(c *compiler, a []string) (step, error) {
		return echo, nil
	}},
	"tone": {"tone <pin> <hz> [ms]", 2, 3, func(c *compiler, a []string) (step, error) {
		pin, err := c.pin(a[0])
		if err != nil {
			return nil, err
		}
		hz, err := c.natural(a[1])
		if err != nil {
			return nil, err
		}
		if len(a) == 3 {
			ms, err := c.natural(a[2])
			if err != nil {
				return nil, err
			}
			return func(e *emulator.Emulator) { e.ToneFor(pin, hz, ms) }, nil
		}
		return func(e *emulator.Emulator) { e.Tone(pin, hz) }, nil
	}},
	"noTone": {"noTone <pin>", 1, 1, func(c *compiler, a []string) (step, error) {
		pin, err := c.pin(a[0])
		if err != nil {
			return nil, err
		}
		return func(e *emulator.Emulator) { e.NoTone(pin) }, nil
	}},
	"spiBegin": {"spiBegin", 0, 0, func(c *compiler, a []string) (step, error) {
		return func(e *emulator.Emulator) { e.SPIBegin() }, nil
	}},
	"spiTransfer": {"spiTransfer <byte>", 1, 1, func(c *compiler, a []string) (step, error) {
		v, err := c.value(a[0])
		if err != nil {
			return nil, err
		}
		if v < 0 || v > 0xFF {
			return nil, fmt.Errorf("byte %d out of range [0, 255]", v)
		}
		b := byte(v)
		return func(e *emulator.Emulator) { e.SPITransfer(b) }, nil
	}},
}

// compiler resolves symbols against one board.
type compiler struct {
	board *board.Board
}

// value parses a number (decimal, 0x hex, 0b binary) or a symbol.
func (c *compiler) value(tok string) (int, error) {
	if v, ok := symbols[tok]; ok {
		return v, nil
	}
	v, err := strconv.ParseInt(tok, 0, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid value %q", tok)
	}
	return int(v), nil
}

func (c *compiler) natural(tok string) (int, error) {
	v, err := c.value(tok)
	if err != nil {
		return 0, err
	}
	if v < 0 {
		return 0, fmt.Errorf("negative value %d", v)
	}
	return v, nil
}

// pin resolves a pin name such as A0 or LED_BUILTIN, or an index.
func (c *compiler) pin(tok string) (int, error) {
	if p, ok := c.board.Lookup(tok); ok {
		return p, nil
	}
	return 0, fmt.Errorf("unknown pin %q on board %s", tok, c.board.Name())
}

// Parse compiles a script for b. name identifies the script in errors.
func Parse(name string, src []byte, b *board.Board) (*Program, error) {
	if b == nil {
		b = board.Uno()
	}
	c := &compiler{board: b}
	prog := &Program{Name: name}

	var section *[]step
	seen := map[string]bool{}
	sc := bufio.NewScanner(bytes.NewReader(src))
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "//") {
			continue
		}
		if line == "setup:" || line == "loop:" {
			key := strings.TrimSuffix(line, ":")
			if seen[key] {
				return nil, errors.SketchScriptError(name, lineNo, "duplicate "+line+" section")
			}
			seen[key] = true
			if key == "setup" {
				section = &prog.setup
			} else {
				section = &prog.loop
			}
			continue
		}

		tokens, err := shlex.Split(line)
		if err != nil {
			return nil, errors.SketchScriptError(name, lineNo, err.Error())
		}
		if len(tokens) == 0 {
			continue
		}
		if section == nil {
			return nil, errors.SketchScriptError(name, lineNo, "command outside setup: or loop: section")
		}
		cmd, ok := commands[tokens[0]]
		if !ok {
			return nil, errors.SketchScriptError(name, lineNo, fmt.Sprintf("unknown command %q", tokens[0]))
		}
		args := tokens[1:]
		if len(args) < cmd.minArgs || (cmd.maxArgs >= 0 && len(args) > cmd.maxArgs) {
			return nil, errors.SketchScriptError(name, lineNo, "usage: "+cmd.usage)
		}
		run, err := cmd.compile(c, args)
		if err != nil {
			return nil, errors.SketchScriptError(name, lineNo, tokens[0]+": "+err.Error())
		}
		*section = append(*section, run)
	}
	if err := sc.Err(); err != nil {
		return nil, errors.SketchScriptError(name, lineNo, err.Error())
	}
	if !seen["loop"] {
		return nil, errors.SketchScriptError(name, 0, "missing loop: section")
	}
	return prog, nil
}
