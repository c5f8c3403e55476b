// Pin state tests
//
// Copyright (C) 2026  Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package emulator

import (
	"sync"
	"testing"
)

func TestPinDefaults(t *testing.T) {
	p := NewPin(4, false)
	s := p.State()
	if s.Mode != Input || s.Value != Low || s.Configured || s.PWMValue != 0 {
		t.Errorf("unexpected defaults %+v", s)
	}
	if p.Index() != 4 {
		t.Errorf("unexpected index %d", p.Index())
	}
}

func TestPinModeForcesPulls(t *testing.T) {
	p := NewPin(2, false)
	p.SetMode(InputPullup)
	if p.ReadDigital() != High {
		t.Error("INPUT_PULLUP must read HIGH")
	}
	p.SetMode(InputPulldown)
	if p.ReadDigital() != Low {
		t.Error("INPUT_PULLDOWN must read LOW")
	}
	if !p.State().Configured {
		t.Error("SetMode must mark configured")
	}
}

func TestWriteDigitalRequiresOutput(t *testing.T) {
	p := NewPin(7, false)
	p.WriteDigital(High)
	if p.ReadDigital() != Low {
		t.Error("write to INPUT pin must be ignored")
	}
	p.SetMode(Output)
	p.WriteDigital(High)
	if p.ReadDigital() != High {
		t.Error("write to OUTPUT pin must take effect")
	}
}

func TestWritePWMPromotesToOutput(t *testing.T) {
	for _, prior := range []Mode{Input, Output, InputPullup, InputPulldown, OutputOpenDrain} {
		p := NewPin(9, true)
		p.SetMode(prior)
		ok, _ := p.WritePWM(200)
		if !ok {
			t.Fatalf("mode %v: PWM pin rejected duty", prior)
		}
		s := p.State()
		if s.Mode != Output || !s.Configured {
			t.Errorf("mode %v: expected OUTPUT+configured, got %+v", prior, s)
		}
		if s.PWMValue != 200 || s.Value != High {
			t.Errorf("mode %v: unexpected pwm state %+v", prior, s)
		}
	}

	p := NewPin(9, true)
	p.WritePWM(127)
	if p.ReadDigital() != Low {
		t.Error("duty 127 must read LOW")
	}
	p.WritePWM(128)
	if p.ReadDigital() != High {
		t.Error("duty 128 must read HIGH")
	}
}

func TestWritePWMOnPlainPin(t *testing.T) {
	p := NewPin(13, false)
	if ok, _ := p.WritePWM(200); ok {
		t.Error("non-PWM pin accepted duty")
	}
	if s := p.State(); s.PWMValue != 0 || s.Configured {
		t.Errorf("non-PWM pin modified: %+v", s)
	}
}

func TestForceAnalog(t *testing.T) {
	p := NewPin(14, false)
	for _, v := range []int{0, 512, 513, 1023} {
		p.ForceAnalog(v)
		if p.ReadAnalog() != v {
			t.Errorf("ReadAnalog = %d, want %d", p.ReadAnalog(), v)
		}
		want := Low
		if v > 512 {
			want = High
		}
		if p.ReadDigital() != want {
			t.Errorf("analog %d: digital = %d, want %d", v, p.ReadDigital(), want)
		}
	}
}

func TestInterruptModes(t *testing.T) {
	tests := []struct {
		mode  InterruptMode
		seq   []Level
		fires int
	}{
		{Change, []Level{High, High, Low, High}, 3},
		{Rising, []Level{High, Low, High, High}, 2},
		{Falling, []Level{High, Low, High, Low}, 2},
	}
	for _, tt := range tests {
		p := NewPin(2, false)
		count := 0
		p.Attach(func() { count++ }, tt.mode)
		for _, v := range tt.seq {
			p.ForceDigital(v)
		}
		if count != tt.fires {
			t.Errorf("%v: fired %d times, want %d", tt.mode, count, tt.fires)
		}
	}
}

func TestAttachSnapshotsLevel(t *testing.T) {
	p := NewPin(2, false)
	p.ForceDigital(High)
	count := 0
	p.Attach(func() { count++ }, Rising)
	p.ForceDigital(High)
	if count != 0 {
		t.Error("RISING fired without a LOW->HIGH edge after attach")
	}
}

func TestInterruptRunsWithoutPinLock(t *testing.T) {
	p := NewPin(2, false)
	var seen Level
	p.Attach(func() { seen = p.ReadDigital() }, Change)
	if !p.ForceDigital(High) {
		t.Fatal("expected interrupt to fire")
	}
	if seen != High {
		t.Error("callback could not observe new level")
	}
}

func TestDetachAndReset(t *testing.T) {
	p := NewPin(3, true)
	count := 0
	p.Attach(func() { count++ }, Change)
	p.Detach()
	p.ForceDigital(High)
	if count != 0 {
		t.Error("detached interrupt fired")
	}

	p.Attach(func() { count++ }, Change)
	p.SetMode(Output)
	p.WritePWM(50)
	p.Reset()
	s := p.State()
	if s.Mode != Input || s.Configured || s.PWMValue != 0 || s.Value != Low || s.HasInterrupt {
		t.Errorf("reset left state behind: %+v", s)
	}
	if !s.PWMCapable {
		t.Error("reset must keep PWM capability")
	}
}

func TestToggle(t *testing.T) {
	p := NewPin(2, false)
	if v, _ := p.Toggle(); v != High {
		t.Error("toggle from LOW must give HIGH")
	}
	if v, _ := p.Toggle(); v != Low {
		t.Error("toggle from HIGH must give LOW")
	}
}

func TestPinConcurrentAccess(t *testing.T) {
	p := NewPin(5, true)
	p.SetMode(Output)
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 500; j++ {
				switch i % 4 {
				case 0:
					p.WriteDigital(LevelOf(j % 2))
				case 1:
					p.ForceAnalog(j)
				case 2:
					p.WritePWM(j % 256)
				default:
					_ = p.State()
				}
			}
		}(i)
	}
	wg.Wait()
}

func TestModeStrings(t *testing.T) {
	if InputPullup.String() != "INPUT_PULLUP" || Mode(9).String() != "UNKNOWN" {
		t.Error("unexpected mode names")
	}
	if Falling.String() != "FALLING" || InterruptMode(0).String() != "NONE" {
		t.Error("unexpected interrupt mode names")
	}
}
