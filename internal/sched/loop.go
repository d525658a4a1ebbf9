// Package sched implements a single-threaded cooperative main loop: one
// pass per tick over every component's Task method, in a fixed order, with
// no preemption in between. There is no
// concurrency here by design — the only concurrent actor in the real
// system is the radio task, which hands events across a channel boundary
// that never enters this loop (see internal/transport).
package sched

import "time"

// Stage is one named step of a tick, called in registration order. name is
// used only for diagnostics/logging, not for dispatch.
type Stage struct {
	Name string
	Task func(nowMicros uint64)
}

// Loop runs registered stages in order, once per tick, until Stop is
// called.
type Loop struct {
	stages []Stage
	nowFn  func() uint64
	stop   chan struct{}
}

// New returns a Loop that reads time via nowFn (normally hal.NowMicros).
func New(nowFn func() uint64) *Loop {
	return &Loop{nowFn: nowFn, stop: make(chan struct{})}
}

// Use appends a stage to the fixed tick order. Register stages in the
// order they must run: transport, device drivers, router, output modes,
// hotkeys, storage, control plane.
func (l *Loop) Use(name string, task func(nowMicros uint64)) {
	l.stages = append(l.stages, Stage{Name: name, Task: task})
}

// Tick runs every registered stage exactly once, in order.
func (l *Loop) Tick() {
	now := l.nowFn()
	for _, s := range l.stages {
		s.Task(now)
	}
}

// Run ticks at the given period until Stop is called. Suitable for the
// host-side simulation binary; real firmware instead calls Tick directly
// from its own bare-metal loop with no sleep.
func (l *Loop) Run(period time.Duration) {
	ticker := time.NewTicker(period)
	defer ticker.Stop()
	for {
		select {
		case <-l.stop:
			return
		case <-ticker.C:
			l.Tick()
		}
	}
}

// Stop ends a running Run loop.
func (l *Loop) Stop() {
	select {
	case <-l.stop:
	default:
		close(l.stop)
	}
}
