// Arduino emulator command
//
// Copyright (C) 2026  Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

// arduino-emu runs an Arduino sketch against an emulated board and serves
// a browser control panel with a JSON API.
//
// Usage:
//
//	arduino-emu [options]
//
// Examples:
//
//	# Blink the LED on an Uno, control panel on :8080
//	arduino-emu
//
//	# Run a script sketch at 1 kHz on a Mega and start immediately
//	arduino-emu -board mega -sketch ./blink.sketch -frequency 1000 -autostart
//
//	# Expose the UART as a pseudo-terminal and serve metrics on :9100
//	arduino-emu -sketch serial-echo -serial-pty -metrics :9100
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"net"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"arduino-emulator/pkg/api"
	"arduino-emulator/pkg/board"
	"arduino-emulator/pkg/debuglog"
	"arduino-emulator/pkg/emulator"
	"arduino-emulator/pkg/errors"
	"arduino-emulator/pkg/log"
	"arduino-emulator/pkg/metrics"
	"arduino-emulator/pkg/scheduler"
	"arduino-emulator/pkg/serialbridge"
	"arduino-emulator/pkg/sketch"
)

type options struct {
	address       string
	port          int
	frequency     int
	board         string
	sketch        string
	freezeTimeout time.Duration
	autostart     bool
	logFile       string
	logLevel      string
	metricsAddr   string
	serialPTY     bool
	serialDevice  string
	serialBaud    int
}

func parseFlags(args []string, stderr io.Writer) (*options, bool, error) {
	fs := flag.NewFlagSet("arduino-emu", flag.ContinueOnError)
	fs.SetOutput(stderr)

	o := &options{}
	fs.StringVar(&o.address, "address", "0.0.0.0", "Control plane listen address")
	fs.IntVar(&o.port, "port", 8080, "Control plane port (1-65535)")
	fs.IntVar(&o.frequency, "frequency", scheduler.DefaultFrequency, "Loop frequency in Hz (1-10000)")
	fs.StringVar(&o.board, "board", "", "Board preset ("+strings.Join(board.Presets(), ", ")+") or a JSON/YAML board file (default uno)")
	fs.StringVar(&o.sketch, "sketch", sketch.Default, "Built-in sketch ("+strings.Join(sketch.Names(), ", ")+") or a script file")
	fs.DurationVar(&o.freezeTimeout, "freeze-timeout", scheduler.DefaultFreezeTimeout, "Declare the sketch frozen when loop() runs longer than this")
	fs.BoolVar(&o.autostart, "autostart", false, "Start the simulation immediately")
	fs.StringVar(&o.logFile, "logfile", "", "Also write logs to this file (rotated)")
	fs.StringVar(&o.logLevel, "log-level", "", "Log level: DEBUG, INFO, WARN, ERROR")
	fs.StringVar(&o.metricsAddr, "metrics", "", "Serve Prometheus metrics on a dedicated address, e.g. :9100")
	fs.BoolVar(&o.serialPTY, "serial-pty", false, "Mirror the UART to a pseudo-terminal (Linux)")
	fs.StringVar(&o.serialDevice, "serial-device", "", "Mirror the UART to a host serial device")
	fs.IntVar(&o.serialBaud, "serial-baud", serialbridge.DefaultBaud, "Baud rate for -serial-device")
	listSerial := fs.Bool("list-serial", false, "List host serial devices and exit")

	if err := fs.Parse(args); err != nil {
		return nil, false, err
	}
	if *listSerial {
		ports, err := serialbridge.ListDevices()
		if err != nil {
			return nil, false, err
		}
		for _, p := range ports {
			fmt.Println(p)
		}
		return nil, true, nil
	}

	if o.port < 1 || o.port > 65535 {
		return nil, false, errors.ValueRangeError("port", o.port, 1, 65535)
	}
	if o.frequency < 1 || o.frequency > scheduler.MaxFrequency {
		return nil, false, errors.ValueRangeError("frequency", o.frequency, 1, scheduler.MaxFrequency)
	}
	if o.freezeTimeout <= 0 {
		return nil, false, fmt.Errorf("freeze-timeout must be positive, got %s", o.freezeTimeout)
	}
	if o.serialPTY && o.serialDevice != "" {
		return nil, false, fmt.Errorf("-serial-pty and -serial-device are mutually exclusive")
	}
	return o, false, nil
}

func main() {
	opts, done, err := parseFlags(os.Args[1:], os.Stderr)
	if err == flag.ErrHelp || done {
		return
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if err := run(opts); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(opts *options) error {
	root := log.Default()
	if opts.logLevel != "" {
		root.SetLevel(log.ParseLevel(opts.logLevel))
	}
	if opts.logFile != "" {
		fw, err := log.TeeToFile(root, log.RotationConfig{Filename: opts.logFile, Compress: true})
		if err != nil {
			return errors.StartupError("log file", err)
		}
		defer fw.Close()
	}
	logger := log.GetLogger("main")

	b, err := board.Resolve(opts.board)
	if err != nil {
		return err
	}

	debug := debuglog.New(0)
	debug.Mirror(log.GetLogger("debug"))
	m := metrics.NewEmulatorMetrics()

	emu := emulator.New(emulator.Config{Board: b, Debug: debug, Observer: m})
	sk, err := sketch.Load(opts.sketch, emu)
	if err != nil {
		return err
	}

	sched, err := scheduler.New(scheduler.Config{
		Emulator:      emu,
		Sketch:        sk,
		Frequency:     opts.frequency,
		FreezeTimeout: opts.freezeTimeout,
		Debug:         debug,
		Observer:      m,
	})
	if err != nil {
		return err
	}

	logger.Info("Arduino emulator starting: board=%s sketch=%s frequency=%dHz", b.Name(), opts.sketch, opts.frequency)

	if bridge, err := openBridge(opts, emu); err != nil {
		return err
	} else if bridge != nil {
		bridge.Start()
		defer bridge.Close()
	}

	srv := api.New(api.Config{
		Addr:      net.JoinHostPort(opts.address, strconv.Itoa(opts.port)),
		Emulator:  emu,
		Scheduler: sched,
		Debug:     debug,
		Metrics:   m,
	})
	if err := srv.Start(); err != nil {
		return err
	}

	var metricsSrv *metrics.Server
	if opts.metricsAddr != "" {
		cfg := metrics.DefaultServerConfig()
		cfg.Address = opts.metricsAddr
		metricsSrv = metrics.NewServer(m, cfg)
		if err := metricsSrv.Start(); err != nil {
			srv.Shutdown(context.Background())
			return err
		}
	}

	if opts.autostart {
		if err := sched.Start(); err != nil {
			logger.WithError(err).Warn("autostart failed")
		}
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.Info("received %s, shutting down", sig)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if sched.Running() {
		if err := sched.Stop(ctx); err != nil {
			logger.WithError(err).Warn("simulation did not stop cleanly")
		}
	}
	if metricsSrv != nil {
		if err := metricsSrv.Shutdown(ctx); err != nil {
			logger.WithError(err).Warn("metrics shutdown")
		}
	}
	if err := srv.Shutdown(ctx); err != nil {
		logger.WithError(err).Warn("control plane shutdown")
	}
	logger.Info("stopped")
	return nil
}

// openBridge returns nil when no serial backend was requested.
func openBridge(opts *options, emu *emulator.Emulator) (*serialbridge.Bridge, error) {
	logger := log.GetLogger("serialbridge")
	switch {
	case opts.serialPTY:
		pty, err := serialbridge.OpenPTY()
		if err != nil {
			return nil, errors.StartupError("serial pty", err)
		}
		logger.Info("UART available at %s", pty.SlavePath())
		return serialbridge.New(pty, emu, logger), nil
	case opts.serialDevice != "":
		dev, err := serialbridge.OpenDevice(opts.serialDevice, opts.serialBaud)
		if err != nil {
			return nil, errors.StartupError("serial device", err)
		}
		logger.Info("UART mirrored to %s at %d baud", dev.Name(), opts.serialBaud)
		return serialbridge.New(dev, emu, logger), nil
	}
	return nil, nil
}
