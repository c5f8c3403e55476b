//go:build linux

// Pseudo-terminal endpoint for Linux
//
// Copyright (C) 2026  Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package serialbridge

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// PTY is a pseudo-terminal pair. The bridge talks to the master; host
// programs open SlavePath as if it were a board's USB serial port.
type PTY struct {
	master *os.File
	// slave stays open so reads on the master do not fail with EIO while
	// no host program has the terminal open.
	slave *os.File
	path  string
}

// OpenPTY allocates a pseudo-terminal in raw 8N1 mode.
func OpenPTY() (*PTY, error) {
	fd, err := unix.Open("/dev/ptmx", unix.O_RDWR|unix.O_NOCTTY|unix.O_NONBLOCK|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, fmt.Errorf("serialbridge: open /dev/ptmx: %w", err)
	}
	if err := unix.IoctlSetPointerInt(fd, unix.TIOCSPTLCK, 0); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("serialbridge: unlock pty: %w", err)
	}
	n, err := unix.IoctlGetInt(fd, unix.TIOCGPTN)
	if err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("serialbridge: pty number: %w", err)
	}
	path := fmt.Sprintf("/dev/pts/%d", n)

	sfd, err := unix.Open(path, unix.O_RDWR|unix.O_NOCTTY|unix.O_CLOEXEC, 0)
	if err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("serialbridge: open %s: %w", path, err)
	}
	if err := makeRaw(sfd); err != nil {
		unix.Close(sfd)
		unix.Close(fd)
		return nil, err
	}

	return &PTY{
		master: os.NewFile(uintptr(fd), "/dev/ptmx"),
		slave:  os.NewFile(uintptr(sfd), path),
		path:   path,
	}, nil
}

// makeRaw disables line discipline processing so bytes pass unchanged.
func makeRaw(fd int) error {
	termios, err := unix.IoctlGetTermios(fd, unix.TCGETS)
	if err != nil {
		return fmt.Errorf("serialbridge: get termios: %w", err)
	}
	termios.Iflag &^= unix.IGNBRK | unix.BRKINT | unix.PARMRK | unix.ISTRIP |
		unix.INLCR | unix.IGNCR | unix.ICRNL | unix.IXON | unix.IXOFF | unix.IXANY
	termios.Oflag &^= unix.OPOST
	termios.Cflag &^= unix.CSIZE | unix.PARENB | unix.PARODD | unix.CSTOPB
	termios.Cflag |= unix.CS8 | unix.CREAD | unix.CLOCAL
	termios.Lflag &^= unix.ECHO | unix.ECHONL | unix.ICANON | unix.ISIG | unix.IEXTEN
	termios.Cc[unix.VMIN] = 1
	termios.Cc[unix.VTIME] = 0
	if err := unix.IoctlSetTermios(fd, unix.TCSETS, termios); err != nil {
		return fmt.Errorf("serialbridge: set termios: %w", err)
	}
	return nil
}

// SlavePath is the terminal host programs should open.
func (p *PTY) SlavePath() string { return p.path }

func (p *PTY) Read(b []byte) (int, error) { return p.master.Read(b) }

func (p *PTY) Write(b []byte) (int, error) { return p.master.Write(b) }

// Close releases both ends.
func (p *PTY) Close() error {
	err := p.master.Close()
	if serr := p.slave.Close(); err == nil {
		err = serr
	}
	return err
}
