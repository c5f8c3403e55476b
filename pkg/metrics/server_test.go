// Unit tests for metrics HTTP exposition
//
// Copyright (C) 2026  Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package metrics

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"arduino-emulator/pkg/emulator"
	"arduino-emulator/pkg/scheduler"
)

func TestEmulatorMetricsObservers(t *testing.T) {
	m := NewEmulatorMetrics()
	m.InterruptFired(2, emulator.SourceControl)
	m.InterruptFired(2, emulator.SourceSketch)
	m.InterruptFired(3, emulator.SourceSketch)
	m.SerialBytes("tx", 14)
	m.SerialBytes("rx", 0)
	m.LoopCompleted(time.Millisecond)
	m.StateChanged(scheduler.StateRunning)
	m.Froze()
	m.WorkerAbandoned()
	m.StateChanged(scheduler.StateFrozen)
	m.RecordRequest("/api/start", 409, time.Millisecond)

	if m.Interrupts.Get(Labels{"source": "sketch"}) != 2 || m.Interrupts.Get(Labels{"source": "control"}) != 1 {
		t.Error("interrupt counts wrong")
	}
	if m.SerialTraffic.Get(Labels{"direction": "tx"}) != 14 || m.SerialTraffic.Get(Labels{"direction": "rx"}) != 0 {
		t.Error("serial counts wrong")
	}
	if m.LoopTicks.Get(nil) != 1 || m.LoopDuration.Snapshot(nil).Count != 1 {
		t.Error("loop metrics wrong")
	}
	if m.SimulationRunning.Get(nil) != 0 || m.Freezes.Get(nil) != 1 || m.AbandonedWorkers.Get(nil) != 1 {
		t.Error("scheduler metrics wrong")
	}
	if m.ControlRequests.Get(Labels{"route": "/api/start", "status": "409"}) != 1 {
		t.Error("request not counted")
	}
	if m.Goroutines.Get() < 1 {
		t.Error("goroutine gauge not sampled")
	}

	out := m.Gather()
	for _, name := range []string{
		"arduino_loop_ticks_total", "arduino_loop_duration_seconds_bucket",
		"arduino_simulation_running", "arduino_freezes_total",
		"arduino_abandoned_workers", "arduino_serial_bytes_total",
		"arduino_interrupts_total", "arduino_control_requests_total",
		"arduino_go_goroutines",
	} {
		if !strings.Contains(out, name) {
			t.Errorf("missing %s", name)
		}
	}
}

func TestHandler(t *testing.T) {
	m := NewEmulatorMetrics()
	h := Handler(m)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if w.Code != http.StatusOK || w.Header().Get("Content-Type") != ContentType {
		t.Fatalf("GET: %d %q", w.Code, w.Header().Get("Content-Type"))
	}
	if !strings.Contains(w.Body.String(), "# TYPE arduino_loop_ticks_total counter") {
		t.Error("body missing metrics")
	}

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodHead, "/metrics", nil))
	if w.Code != http.StatusOK || w.Body.Len() != 0 || w.Header().Get("Content-Length") == "" {
		t.Error("HEAD must send headers only")
	}

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/metrics", nil))
	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("POST: %d", w.Code)
	}
}

func TestServerBasicAuth(t *testing.T) {
	s := NewServer(NewEmulatorMetrics(), ServerConfig{Address: "127.0.0.1:0", Username: "admin", Password: "secret"})
	ts := httptest.NewServer(s.server.Handler)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/metrics")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("no credentials: %d", resp.StatusCode)
	}

	req, _ := http.NewRequest(http.MethodGet, ts.URL+"/metrics", nil)
	req.SetBasicAuth("admin", "secret")
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("with credentials: %d", resp.StatusCode)
	}

	resp, err = http.Get(ts.URL + "/health")
	if err != nil {
		t.Fatal(err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if string(body) != "OK\n" {
		t.Errorf("health = %q", body)
	}
}

func TestServerStartShutdown(t *testing.T) {
	s := NewServer(NewEmulatorMetrics(), ServerConfig{Address: "127.0.0.1:0"})
	if s.Addr() != "" {
		t.Error("address before start")
	}
	if err := s.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	resp, err := http.Get("http://" + s.Addr() + "/metrics")
	if err != nil {
		t.Fatalf("scrape: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("scrape status %d", resp.StatusCode)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.Shutdown(ctx); err != nil {
		t.Errorf("Shutdown: %v", err)
	}
}

func TestDefaultServerConfig(t *testing.T) {
	cfg := DefaultServerConfig()
	if cfg.Address != ":9100" || cfg.ReadTimeout != 10*time.Second {
		t.Errorf("unexpected defaults %+v", cfg)
	}
}
