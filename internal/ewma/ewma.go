// Copyright (c) 2026 The rsocket Go Authors
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.

// Package ewma implements a half-life exponentially weighted moving average
// over a monotonic clock, as used by FailureAccrualSocket, plus a per-sample
// variant (SampleEWMA) used by ReEnqueueFilter's reenqueue rate tracking.
package ewma

import (
	"math"
	"sync"
	"time"

	"github.com/go-rsocket/rsocket/internal/clock"
)

const ln2 = math.Ln2

// Ewma is a half-life decaying moving average. Insert(x) folds a new sample
// in at the current time; Value reads the current estimate, lazily decaying
// it toward nothing new (no interpolation with a sample) for time elapsed
// since the last update.
//
// The zero value is not usable; construct with New.
type Ewma struct {
	mu       sync.Mutex
	clock    clock.Clock
	halfLife time.Duration
	value    float64
	lastAt   time.Time
	started  bool
}

// New returns an Ewma with the given half-life and initial value, using the
// real clock.
func New(halfLife time.Duration, initial float64) *Ewma {
	return NewWithClock(clock.Real{}, halfLife, initial)
}

// NewWithClock returns an Ewma driven by the given clock, for deterministic
// tests.
func NewWithClock(c clock.Clock, halfLife time.Duration, initial float64) *Ewma {
	return &Ewma{
		clock:    c,
		halfLife: halfLife,
		value:    initial,
		lastAt:   c.Now(),
		started:  true,
	}
}

// HalfLife returns the configured half-life.
func (e *Ewma) HalfLife() time.Duration {
	return e.halfLife
}

// Insert folds x into the average at the current time:
//
//	alpha := exp(-(t - t_last) * ln2 / halfLife)
//	value := alpha*value + (1-alpha)*x
func (e *Ewma) Insert(x float64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.clock.Now()
	alpha := e.alpha(now)
	e.value = alpha*e.value + (1-alpha)*x
	e.lastAt = now
}

// Value returns the current estimate, decaying it (without folding in a new
// sample) for any time elapsed since the last Insert or Value call.
func (e *Ewma) Value() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.clock.Now()
	alpha := e.alpha(now)
	e.value *= alpha
	e.lastAt = now
	return e.value
}

// Peek returns the current estimate without advancing the decay clock or
// mutating state — used by callers that want to read the value repeatedly
// within a single logical instant (e.g. a snapshot).
func (e *Ewma) Peek() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.value
}

// Elapsed returns the duration since the last Insert or Value call.
func (e *Ewma) Elapsed() time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.clock.Now().Sub(e.lastAt)
}

// Reset snaps the average directly to v and resets the decay clock, without
// blending with the previous value. Used for the FailureAccrual window
// reset and the rsocket-go style availability recovery probe.
func (e *Ewma) Reset(v float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.value = v
	e.lastAt = e.clock.Now()
}

func (e *Ewma) alpha(now time.Time) float64 {
	elapsed := now.Sub(e.lastAt)
	if elapsed <= 0 {
		return 1
	}
	return math.Exp(-float64(elapsed) * ln2 / float64(e.halfLife))
}
