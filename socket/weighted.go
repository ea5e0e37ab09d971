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

package socket

import (
	"context"
	"sync"
	"time"

	"github.com/go-rsocket/rsocket/internal/clock"
	"github.com/go-rsocket/rsocket/internal/slidingmedian"
)

const (
	// DefaultMedianWindow is the sliding median's sample window.
	DefaultMedianWindow = 64

	// DefaultInactivityPeriod is how long a socket may sit with zero
	// outstanding requests before its next predicted-latency read decays
	// the median estimate.
	DefaultInactivityPeriod = time.Second

	// decayFactor is applied to the median estimate when a socket has been
	// idle past its inactivity period.
	decayFactor = 0.8

	// startupPenaltyNanos penalizes a cold socket (no completed samples
	// yet) that already has requests outstanding, so P3C does not pile
	// every new request onto a socket still warming up.
	startupPenaltyNanos = float64(time.Second)
)

// WeightedSocket wraps a Socket with the bookkeeping the load balancer
// needs to predict latency: an outstanding-request counter, a round-trip
// sliding median, and a running (outstanding x elapsed) integral used to
// estimate instantaneous load between samples.
type WeightedSocket struct {
	inner  Socket
	clock  clock.Clock
	median *slidingmedian.Median

	inactivityPeriod time.Duration

	mu          sync.Mutex
	outstanding int64
	stamp       time.Time // last request start
	stamp0      time.Time // last activity (start or terminate)
	duration    float64   // accumulated outstanding*elapsed integral, in ns
}

// NewWeightedSocket wraps inner with the default window and inactivity
// period, using the real clock.
func NewWeightedSocket(inner Socket) *WeightedSocket {
	return NewWeightedSocketWithClock(inner, clock.Real{}, DefaultMedianWindow, DefaultInactivityPeriod)
}

// NewWeightedSocketWithClock wraps inner with an explicit clock, median
// window, and inactivity period — exposed for deterministic tests.
func NewWeightedSocketWithClock(inner Socket, c clock.Clock, window int, inactivityPeriod time.Duration) *WeightedSocket {
	return &WeightedSocket{
		inner:            inner,
		clock:            c,
		median:           slidingmedian.New(window),
		inactivityPeriod: inactivityPeriod,
	}
}

var _ Socket = (*WeightedSocket)(nil)

// RequestResponse forwards to the inner socket, updating the outstanding
// counter and the load integral on entry and the round-trip median and
// integral on exit, per the spec's request/response accounting rule.
func (w *WeightedSocket) RequestResponse(ctx context.Context, req Payload) (Payload, error) {
	w.mu.Lock()
	start := w.clock.Now()
	if !w.stamp0.IsZero() {
		w.duration += float64(start.Sub(w.stamp0)) * float64(w.outstanding)
	}
	w.outstanding++
	w.stamp = start
	w.stamp0 = start
	w.mu.Unlock()

	resp, err := w.inner.RequestResponse(ctx, req)

	now := w.clock.Now()
	w.mu.Lock()
	if err == nil {
		w.median.Insert(float64(now.Sub(start)))
	}
	w.duration += float64(now.Sub(w.stamp0))*float64(w.outstanding) - float64(now.Sub(start))
	w.outstanding--
	w.stamp0 = now
	w.mu.Unlock()

	return resp, err
}

// Availability delegates to the inner socket; WeightedSocket contributes
// predicted latency to selection, not its own availability signal.
func (w *WeightedSocket) Availability() float64 {
	return w.inner.Availability()
}

// Close delegates to the inner socket.
func (w *WeightedSocket) Close() error {
	return w.inner.Close()
}

// Outstanding returns the current in-flight request count.
func (w *WeightedSocket) Outstanding() int64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.outstanding
}

// PredictedLatency estimates this socket's current round-trip latency in
// nanoseconds, per the spec's four-way case split:
//
//   - no samples yet, idle: 0, so a fresh socket is attractive;
//   - no samples yet, requests already in flight: a fixed startup penalty
//     plus outstanding, so P3C does not pile more load onto it;
//   - idle past the inactivity period: decay the stale estimate by 0.8
//     and return the decayed value;
//   - otherwise: the plain median estimate when nothing is outstanding,
//     else the larger of the median estimate and the instantaneous load
//     integral divided by outstanding.
func (w *WeightedSocket) PredictedLatency() float64 {
	w.mu.Lock()
	defer w.mu.Unlock()

	estimate := w.median.Estimate()
	outstanding := w.outstanding

	if estimate == 0 {
		if outstanding == 0 {
			return 0
		}
		return startupPenaltyNanos + float64(outstanding)
	}

	now := w.clock.Now()
	if outstanding == 0 && now.Sub(w.stamp) > w.inactivityPeriod {
		w.median.Insert(estimate * decayFactor)
		w.stamp = now
		return w.median.Estimate()
	}
	if outstanding == 0 {
		return estimate
	}

	instantaneous := w.duration + float64(now.Sub(w.stamp0))*float64(outstanding)
	avg := instantaneous / float64(outstanding)
	if estimate > avg {
		return estimate
	}
	return avg
}
