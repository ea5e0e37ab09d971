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
)

// DefaultDrainTimeout bounds how long Close waits for outstanding requests
// to finish before closing the inner socket anyway.
const DefaultDrainTimeout = 30 * time.Second

// DrainingSocket defers closing its inner Socket until every outstanding
// RequestResponse call has returned, or DrainTimeout elapses, whichever
// comes first. Once a close is pending, Availability reports 0 so the load
// balancer stops selecting it, while in-flight calls run to completion.
type DrainingSocket struct {
	inner Socket
	clock clock.Clock

	drainTimeout time.Duration

	mu          sync.Mutex
	outstanding int
	draining    bool
	closeErr    error
	closed      bool
	closedCh    chan struct{}
}

// NewDrainingSocket wraps inner with the default drain timeout.
func NewDrainingSocket(inner Socket) *DrainingSocket {
	return NewDrainingSocketWithClock(inner, clock.Real{}, DefaultDrainTimeout)
}

// NewDrainingSocketWithClock wraps inner, using c for the drain deadline —
// exposed for deterministic tests.
func NewDrainingSocketWithClock(inner Socket, c clock.Clock, drainTimeout time.Duration) *DrainingSocket {
	return &DrainingSocket{
		inner:        inner,
		clock:        c,
		drainTimeout: drainTimeout,
		closedCh:     make(chan struct{}),
	}
}

var _ Socket = (*DrainingSocket)(nil)

// RequestResponse forwards to the inner socket, tracking outstanding count
// around the call so Close knows when draining is complete.
func (d *DrainingSocket) RequestResponse(ctx context.Context, req Payload) (Payload, error) {
	d.mu.Lock()
	d.outstanding++
	d.mu.Unlock()

	resp, err := d.inner.RequestResponse(ctx, req)

	d.mu.Lock()
	d.outstanding--
	done := d.draining && d.outstanding == 0 && !d.closed
	d.mu.Unlock()

	if done {
		d.finish()
	}
	return resp, err
}

// Availability returns 0 once a close is pending; otherwise delegates to
// the inner socket.
func (d *DrainingSocket) Availability() float64 {
	d.mu.Lock()
	draining := d.draining
	d.mu.Unlock()
	if draining {
		return 0
	}
	return d.inner.Availability()
}

// Close marks the socket draining and blocks until the inner socket is
// actually closed: either all outstanding requests finish, or the drain
// timeout elapses. Idempotent.
func (d *DrainingSocket) Close() error {
	d.mu.Lock()
	if d.draining {
		ch := d.closedCh
		d.mu.Unlock()
		<-ch
		return d.closeErr
	}
	d.draining = true
	empty := d.outstanding == 0
	d.mu.Unlock()

	if empty {
		d.finish()
		return d.closeErr
	}

	timer := d.clock.NewTimer(d.drainTimeout)
	defer timer.Stop()
	select {
	case <-d.closedCh:
	case <-timer.C():
		d.finish()
	}
	return d.closeErr
}

func (d *DrainingSocket) finish() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	d.mu.Unlock()

	err := d.inner.Close()

	d.mu.Lock()
	d.closeErr = err
	d.mu.Unlock()
	close(d.closedCh)
}
