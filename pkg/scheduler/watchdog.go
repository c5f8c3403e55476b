// Freeze watchdog
//
// Copyright (C) 2026  Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package scheduler

import (
	"time"

	"arduino-emulator/pkg/debuglog"
)

// watch samples the tick counter every interval. When it has not moved for
// the freeze timeout the run is declared frozen.
func (s *Scheduler) watch(r *run) {
	defer close(r.watchdogDone)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	last := s.tick.Load()
	lastChange := time.Now()
	for {
		select {
		case <-r.stop:
			return
		case now := <-ticker.C:
			cur := s.tick.Load()
			if cur != last {
				last = cur
				lastChange = now
				continue
			}
			if now.Sub(lastChange) >= s.freeze {
				s.freezeRun(r, cur)
				return
			}
		}
	}
}

// freezeRun abandons a worker stuck inside sketch code. The halt must be
// won before taking mu: Stop holds mu while waiting for this goroutine.
func (s *Scheduler) freezeRun(r *run, tick uint64) {
	if !r.halt(haltFreeze) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current != r {
		return
	}
	s.running.Store(false)
	s.emu.Stop()
	s.setState(StateFrozen)
	s.abandonLocked(r, "freeze")
	s.observer.Froze()
	s.debug.Add(debuglog.Freeze, "loop() has not returned for %s (tick %d); execution worker abandoned, start to restart", s.freeze, tick)
	s.logger.Warn("sketch frozen at tick %d", tick)
}
