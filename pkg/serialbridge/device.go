// Host serial device access
//
// Copyright (C) 2026  Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package serialbridge

import (
	"fmt"

	"go.bug.st/serial"
)

// Device is a host serial port opened in 8N1 mode.
type Device struct {
	port serial.Port
	name string
}

// OpenDevice opens a real serial port such as /dev/ttyUSB0 or COM3.
func OpenDevice(name string, baud int) (*Device, error) {
	if baud <= 0 {
		baud = DefaultBaud
	}
	port, err := serial.Open(name, &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})
	if err != nil {
		return nil, fmt.Errorf("serialbridge: open %s: %w", name, err)
	}
	return &Device{port: port, name: name}, nil
}

// Name returns the device path.
func (d *Device) Name() string { return d.name }

// Read blocks until data arrives or Close is called.
func (d *Device) Read(p []byte) (int, error) { return d.port.Read(p) }

func (d *Device) Write(p []byte) (int, error) { return d.port.Write(p) }

func (d *Device) Close() error { return d.port.Close() }

// ListDevices returns the serial ports present on the host.
func ListDevices() ([]string, error) {
	ports, err := serial.GetPortsList()
	if err != nil {
		return nil, fmt.Errorf("serialbridge: list ports: %w", err)
	}
	return ports, nil
}
