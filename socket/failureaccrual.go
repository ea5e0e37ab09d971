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
	"math"
	"time"

	"github.com/go-rsocket/rsocket/internal/clock"
	"github.com/go-rsocket/rsocket/internal/ewma"
)

// DefaultFailureAccrualHalfLife is the half-life of the success-rate EWMA.
const DefaultFailureAccrualHalfLife = 30 * time.Second

// epsilon floors the failure-accrual signal so a socket that has gone
// fully to zero can still be resampled occasionally rather than being
// permanently excluded.
const epsilon = 1e-3

// FailureAccrualSocket tracks a success-rate EWMA (1.0 on response, 0.0 on
// any other terminal outcome) and folds it into Availability, so a flaky
// socket's selection weight decays smoothly rather than flipping from 1 to
// 0 on a single failure.
type FailureAccrualSocket struct {
	inner Socket
	clock clock.Clock
	ewma  *ewma.Ewma

	// resetWindow is the elapsed-since-last-update threshold past which a
	// read snaps the EWMA upward to allow recovery probing, per the spec's
	// half_life/ln2 constant.
	resetWindow time.Duration
}

// NewFailureAccrualSocket wraps inner with the default half-life, using the
// real clock.
func NewFailureAccrualSocket(inner Socket) *FailureAccrualSocket {
	return NewFailureAccrualSocketWithClock(inner, clock.Real{}, DefaultFailureAccrualHalfLife)
}

// NewFailureAccrualSocketWithClock wraps inner with an explicit clock and
// half-life — exposed for deterministic tests.
func NewFailureAccrualSocketWithClock(inner Socket, c clock.Clock, halfLife time.Duration) *FailureAccrualSocket {
	return &FailureAccrualSocket{
		inner:       inner,
		clock:       c,
		ewma:        ewma.NewWithClock(c, halfLife, 1.0),
		resetWindow: time.Duration(float64(halfLife) / math.Ln2),
	}
}

var _ Socket = (*FailureAccrualSocket)(nil)

// RequestResponse forwards to the inner socket and folds the outcome (1.0
// for a response, 0.0 for any error) into the success-rate EWMA exactly
// once per call.
func (f *FailureAccrualSocket) RequestResponse(ctx context.Context, req Payload) (Payload, error) {
	resp, err := f.inner.RequestResponse(ctx, req)
	if err == nil {
		f.ewma.Insert(1.0)
	} else {
		f.ewma.Insert(0.0)
	}
	return resp, err
}

// Availability is clamp_epsilon(ewma.value) * inner.Availability(), with a
// recovery-probe snap: if the EWMA has gone untouched longer than
// half_life/ln2, it is nudged up by 0.5 (capped at 1.0) before being read,
// so a socket that stopped failing gets occasional traffic again instead
// of starving forever.
func (f *FailureAccrualSocket) Availability() float64 {
	if f.ewma.Elapsed() > f.resetWindow {
		v := f.ewma.Peek()
		recovered := v + 0.5
		if recovered > 1.0 {
			recovered = 1.0
		}
		f.ewma.Reset(recovered)
	}
	return clampEpsilon(f.ewma.Value()) * f.inner.Availability()
}

// Close delegates to the inner socket.
func (f *FailureAccrualSocket) Close() error {
	return f.inner.Close()
}

func clampEpsilon(v float64) float64 {
	if v < epsilon {
		return epsilon
	}
	if v > 1.0 {
		return 1.0
	}
	return v
}
