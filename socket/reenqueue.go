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

	"golang.org/x/time/rate"

	"github.com/go-rsocket/rsocket/internal/ewma"
	"github.com/go-rsocket/rsocket/rsocketerrors"
)

// Defaults for ReEnqueueFilter, per the spec's configuration table.
const (
	DefaultMaxReenqueue     = 3
	DefaultMaxReenqueueRate = 0.05

	// reenqueueRateHalfLifeSamples is the ReEnqueueFilter's EWMA half-life,
	// in samples rather than wall-clock time.
	reenqueueRateHalfLifeSamples = 50

	// DefaultReenqueueBackstopPerSecond and DefaultReenqueueBackstopBurst
	// bound the hard token-bucket ceiling on reenqueues, independent of the
	// EWMA-tracked adaptive cap below: a sudden spike of retryable errors
	// can't push more than this many reenqueues through in any one second,
	// regardless of what the EWMA-derived effective max would otherwise
	// allow.
	DefaultReenqueueBackstopPerSecond = 50
	DefaultReenqueueBackstopBurst     = 100
)

// ReEnqueueFilter retries a request, on the same inner socket, when it
// terminates with a retryable error (CANCELED, REJECTED, or a connection
// error), subject to a hard attempt cap, an adaptive rate cap tracked by an
// EWMA of how often this filter has already been retrying, and a
// rate.Limiter token bucket backstopping both of those against a burst.
type ReEnqueueFilter struct {
	inner            Socket
	rate             *ewma.SampleEWMA
	limiter          *rate.Limiter
	maxReenqueue     int
	maxReenqueueRate float64
}

// NewReEnqueueFilter wraps inner with the spec's default caps.
func NewReEnqueueFilter(inner Socket) *ReEnqueueFilter {
	return NewReEnqueueFilterWithOptions(inner, DefaultMaxReenqueue, DefaultMaxReenqueueRate)
}

// NewReEnqueueFilterWithOptions wraps inner with explicit caps.
func NewReEnqueueFilterWithOptions(inner Socket, maxReenqueue int, maxReenqueueRate float64) *ReEnqueueFilter {
	return &ReEnqueueFilter{
		inner:            inner,
		rate:             ewma.NewSampleEWMA(reenqueueRateHalfLifeSamples, 0.0),
		limiter:          rate.NewLimiter(rate.Limit(DefaultReenqueueBackstopPerSecond), DefaultReenqueueBackstopBurst),
		maxReenqueue:     maxReenqueue,
		maxReenqueueRate: maxReenqueueRate,
	}
}

var _ Socket = (*ReEnqueueFilter)(nil)

// RequestResponse issues req on the inner socket, retrying on the same
// socket while the error is retryable and both the attempt cap and the
// rate-limited effective cap allow another try.
func (r *ReEnqueueFilter) RequestResponse(ctx context.Context, req Payload) (Payload, error) {
	attempts := 0
	for {
		resp, err := r.inner.RequestResponse(ctx, req)
		if err == nil {
			r.rate.Insert(0.0)
			return resp, nil
		}
		if !rsocketerrors.IsRetryable(err) {
			return resp, err
		}

		effectiveMax := r.maxReenqueueRate / r.rate.Value()
		if effectiveMax > float64(r.maxReenqueue) {
			effectiveMax = float64(r.maxReenqueue)
		}
		// One more reenqueue is allowed only if the total still fits within
		// effectiveMax, so a cap below 1 allows none.
		if float64(attempts+1) > effectiveMax {
			return resp, err
		}
		if !r.limiter.Allow() {
			return resp, err
		}

		r.rate.Insert(1.0)
		attempts++
	}
}

// Availability delegates to the inner socket.
func (r *ReEnqueueFilter) Availability() float64 {
	return r.inner.Availability()
}

// Close delegates to the inner socket.
func (r *ReEnqueueFilter) Close() error {
	return r.inner.Close()
}
