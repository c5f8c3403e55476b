//go:build !linux

// Pseudo-terminal stub for other platforms
//
// Copyright (C) 2026  Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package serialbridge

import (
	"fmt"
	"runtime"
)

// PTY is only available on Linux.
type PTY struct{}

// OpenPTY reports that pseudo-terminals are unsupported on this platform.
func OpenPTY() (*PTY, error) {
	return nil, fmt.Errorf("serialbridge: pty backend unsupported on %s", runtime.GOOS)
}

func (p *PTY) SlavePath() string { return "" }

func (p *PTY) Read(b []byte) (int, error) { return 0, fmt.Errorf("serialbridge: pty unsupported") }

func (p *PTY) Write(b []byte) (int, error) { return 0, fmt.Errorf("serialbridge: pty unsupported") }

func (p *PTY) Close() error { return nil }
