// Emulator metrics definitions
//
// Loop timing, scheduler state, watchdog freezes, serial traffic,
// interrupts and control-plane requests.
//
// Copyright (C) 2026  Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package metrics

import (
	goruntime "runtime"
	"strconv"
	"time"

	"arduino-emulator/pkg/emulator"
	"arduino-emulator/pkg/scheduler"
)

var (
	_ emulator.Observer  = (*EmulatorMetrics)(nil)
	_ scheduler.Observer = (*EmulatorMetrics)(nil)
)

// EmulatorMetrics holds every metric the emulator exports. It observes
// both the facade and the scheduler.
type EmulatorMetrics struct {
	LoopTicks         *Counter
	LoopDuration      *Histogram
	SimulationRunning *Gauge
	Freezes           *Counter
	AbandonedWorkers  *Gauge
	SerialTraffic     *Counter
	Interrupts        *Counter
	ControlRequests   *Counter
	ControlLatency    *Histogram
	Goroutines        *GaugeFunc
	Uptime            *GaugeFunc

	startTime time.Time
	registry  *Registry
}

// NewEmulatorMetrics creates and registers all metrics.
func NewEmulatorMetrics() *EmulatorMetrics {
	m := &EmulatorMetrics{startTime: time.Now(), registry: NewRegistry()}

	m.LoopTicks = NewCounter("arduino_loop_ticks_total",
		"Completed loop() iterations")
	m.LoopDuration = NewHistogram("arduino_loop_duration_seconds",
		"Wall time spent inside loop()", ExponentialBuckets(0.00001, 4, 10))
	m.SimulationRunning = NewGauge("arduino_simulation_running",
		"1 while the sketch is running")
	m.Freezes = NewCounter("arduino_freezes_total",
		"Watchdog freeze detections")
	m.AbandonedWorkers = NewGauge("arduino_abandoned_workers",
		"Execution workers abandoned while stuck in sketch code")
	m.SerialTraffic = NewCounter("arduino_serial_bytes_total",
		"Bytes moved through the UART by direction")
	m.Interrupts = NewCounter("arduino_interrupts_total",
		"Interrupt callbacks fired by the source of the triggering write")
	m.ControlRequests = NewCounter("arduino_control_requests_total",
		"Control-plane requests by route and status")
	m.ControlLatency = NewHistogram("arduino_control_request_seconds",
		"Control-plane request latency", DefaultBuckets())
	m.Goroutines = NewGaugeFunc("arduino_go_goroutines",
		"Number of goroutines, including abandoned workers",
		func() float64 { return float64(goruntime.NumGoroutine()) })
	m.Uptime = NewGaugeFunc("arduino_uptime_seconds",
		"Seconds since the emulator process started",
		func() float64 { return time.Since(m.startTime).Seconds() })

	m.registry.MustRegister(
		m.LoopTicks, m.LoopDuration, m.SimulationRunning, m.Freezes,
		m.AbandonedWorkers, m.SerialTraffic, m.Interrupts,
		m.ControlRequests, m.ControlLatency, m.Goroutines, m.Uptime,
	)
	m.SimulationRunning.Set(nil, 0)
	m.AbandonedWorkers.Set(nil, 0)
	return m
}

// InterruptFired implements emulator.Observer.
func (m *EmulatorMetrics) InterruptFired(pin int, source emulator.Source) {
	m.Interrupts.Inc(Labels{"source": string(source)})
}

// SerialBytes implements emulator.Observer.
func (m *EmulatorMetrics) SerialBytes(direction string, n int) {
	if n > 0 {
		m.SerialTraffic.Add(Labels{"direction": direction}, uint64(n))
	}
}

// LoopCompleted implements scheduler.Observer.
func (m *EmulatorMetrics) LoopCompleted(d time.Duration) {
	m.LoopTicks.Inc(nil)
	m.LoopDuration.ObserveDuration(nil, d)
}

// StateChanged implements scheduler.Observer.
func (m *EmulatorMetrics) StateChanged(s scheduler.State) {
	m.SimulationRunning.SetBool(nil, s == scheduler.StateRunning)
}

// Froze implements scheduler.Observer.
func (m *EmulatorMetrics) Froze() { m.Freezes.Inc(nil) }

// WorkerAbandoned implements scheduler.Observer.
func (m *EmulatorMetrics) WorkerAbandoned() { m.AbandonedWorkers.Inc(nil) }

// RecordRequest counts one control-plane request.
func (m *EmulatorMetrics) RecordRequest(route string, status int, d time.Duration) {
	m.ControlRequests.Inc(Labels{"route": route, "status": strconv.Itoa(status)})
	m.ControlLatency.ObserveDuration(Labels{"route": route}, d)
}

// Gather renders all metrics in Prometheus text format.
func (m *EmulatorMetrics) Gather() string { return m.registry.Gather() }

// Registry returns the underlying registry.
func (m *EmulatorMetrics) Registry() *Registry { return m.registry }
