/*
NAME
  realtime.go

DESCRIPTION
  A wall-clock abstraction, generalized from github.com/ausocean/utils/realtime's
  usage pattern, so the driver's idle-seconds watchdog and read-rate limiter
  can be driven by a fixed clock in tests instead of wall time.

LICENSE
  Copyright (C) 2026 the tsrewrite contributors.

  Licensed under the Apache License, Version 2.0 (the "License");
  you may not use this file except in compliance with the License.
  You may obtain a copy of the License at

      http://www.apache.org/licenses/LICENSE-2.0
*/

// Package realtime provides a Clock abstraction over wall-clock time.
package realtime

import "time"

// Clock reports the current time and can sleep, standing in for direct
// calls to the time package so callers are testable with a fixed clock.
type Clock interface {
	Now() time.Time
	Sleep(d time.Duration)
}

// System is the real Clock, backed directly by the time package.
type System struct{}

// Now returns time.Now().
func (System) Now() time.Time { return time.Now() }

// Sleep calls time.Sleep.
func (System) Sleep(d time.Duration) { time.Sleep(d) }

// Fixed is a Clock test double that never advances on its own; advance it
// explicitly with Add.
type Fixed struct {
	t time.Time
}

// NewFixed returns a Fixed clock starting at t.
func NewFixed(t time.Time) *Fixed {
	return &Fixed{t: t}
}

// Now returns the clock's current fixed time.
func (f *Fixed) Now() time.Time { return f.t }

// Sleep advances the fixed clock by d instead of blocking.
func (f *Fixed) Sleep(d time.Duration) { f.t = f.t.Add(d) }

// Add advances the fixed clock by d.
func (f *Fixed) Add(d time.Duration) { f.t = f.t.Add(d) }
