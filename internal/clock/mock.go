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

package clock

import (
	"sort"
	"sync"
	"time"
)

// Mock is a manually advanced Clock for deterministic tests. The zero value
// starts at the zero time.Time (January 1, year 1, UTC); use NewMock to
// start anywhere else.
type Mock struct {
	mu      sync.Mutex
	now     time.Time
	waiters []*mockTimer
}

// NewMock returns a Mock starting at the given instant.
func NewMock(start time.Time) *Mock {
	return &Mock{now: start}
}

// Now returns the mock's current instant.
func (m *Mock) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// Advance moves the mock clock forward by d, firing any timers or tickers
// whose deadline has passed, in deadline order.
func (m *Mock) Advance(d time.Duration) {
	m.mu.Lock()
	m.now = m.now.Add(d)
	now := m.now
	due := make([]*mockTimer, 0, len(m.waiters))
	var remaining []*mockTimer
	for _, w := range m.waiters {
		if !w.deadline.After(now) {
			due = append(due, w)
		} else {
			remaining = append(remaining, w)
		}
	}
	m.waiters = remaining
	m.mu.Unlock()

	sort.Slice(due, func(i, j int) bool { return due[i].deadline.Before(due[j].deadline) })
	for _, w := range due {
		w.fire(now)
	}
}

func (m *Mock) register(w *mockTimer) {
	m.mu.Lock()
	m.waiters = append(m.waiters, w)
	m.mu.Unlock()
}

func (m *Mock) unregister(w *mockTimer) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, cand := range m.waiters {
		if cand == w {
			m.waiters = append(m.waiters[:i], m.waiters[i+1:]...)
			return
		}
	}
}

// NewTimer returns a mock timer that fires on the next Advance crossing its
// deadline.
func (m *Mock) NewTimer(d time.Duration) Timer {
	t := &mockTimer{clock: m, ch: make(chan time.Time, 1), deadline: m.Now().Add(d)}
	m.register(t)
	return t
}

// NewTicker returns a mock ticker that fires repeatedly on Advance.
func (m *Mock) NewTicker(d time.Duration) Ticker {
	t := &mockTicker{clock: m, d: d, ch: make(chan time.Time, 1), deadline: m.Now().Add(d)}
	t.timer = &mockTimer{clock: m, ch: t.ch, deadline: t.deadline, repeat: t}
	m.register(t.timer)
	return t
}

// AfterFunc schedules f to run synchronously (on the goroutine calling
// Advance) once the deadline elapses.
func (m *Mock) AfterFunc(d time.Duration, f func()) Timer {
	t := &mockTimer{clock: m, deadline: m.Now().Add(d), fn: f}
	m.register(t)
	return t
}

type mockTimer struct {
	clock    *Mock
	ch       chan time.Time
	deadline time.Time
	fn       func()
	repeat   *mockTicker
	stopped  bool
}

func (t *mockTimer) C() <-chan time.Time { return t.ch }

func (t *mockTimer) Stop() bool {
	t.clock.unregister(t)
	wasActive := !t.stopped
	t.stopped = true
	return wasActive
}

func (t *mockTimer) Reset(d time.Duration) bool {
	active := !t.stopped
	t.stopped = false
	t.clock.unregister(t)
	t.deadline = t.clock.Now().Add(d)
	t.clock.register(t)
	return active
}

func (t *mockTimer) fire(now time.Time) {
	if t.stopped {
		return
	}
	if t.fn != nil {
		t.fn()
	}
	if t.ch != nil {
		select {
		case t.ch <- now:
		default:
		}
	}
	if t.repeat != nil {
		t.deadline = now.Add(t.repeat.d)
		t.clock.register(t)
	}
}

type mockTicker struct {
	clock    *Mock
	d        time.Duration
	ch       chan time.Time
	deadline time.Time
	timer    *mockTimer
}

func (t *mockTicker) C() <-chan time.Time { return t.ch }

func (t *mockTicker) Stop() {
	t.timer.Stop()
}
