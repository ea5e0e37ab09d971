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

// Package metrics wraps github.com/uber-go/tally to give the runtime's
// components (Connection and LoadBalancer) a small, tagged set of counters,
// gauges and timers, matching
// the way x/retry.observer and x/throttle wire a component's own tally.Scope.
package metrics

import (
	"time"

	"github.com/uber-go/tally"
)

// ConnectionObserver reports the events emitted by a single Connection:
// setup outcome, keepalive activity, lease grants, and per-stream terminal
// outcomes.
type ConnectionObserver struct {
	setupSuccess    tally.Counter
	setupFailure    tally.Counter
	keepalivesSent  tally.Counter
	keepalivesMissed tally.Counter
	leasesReceived  tally.Counter
	requestsStarted tally.Counter
	requestsOK      tally.Counter
	requestsError   tally.Counter
	requestsTimeout tally.Counter
	requestLatency  tally.Timer
}

// NewConnectionObserver builds a ConnectionObserver from scope. A nil scope
// is replaced with tally.NoopScope, so callers never need to nil-check.
func NewConnectionObserver(scope tally.Scope) *ConnectionObserver {
	scope = orNoop(scope)
	errScope := scope.Tagged(map[string]string{"outcome": "error"})
	timeoutScope := scope.Tagged(map[string]string{"outcome": "timeout"})
	okScope := scope.Tagged(map[string]string{"outcome": "ok"})
	return &ConnectionObserver{
		setupSuccess:     scope.Tagged(map[string]string{"phase": "setup", "outcome": "ok"}).Counter("connection_setup"),
		setupFailure:     scope.Tagged(map[string]string{"phase": "setup", "outcome": "error"}).Counter("connection_setup"),
		keepalivesSent:   scope.Counter("keepalives_sent"),
		keepalivesMissed: scope.Counter("keepalives_missed"),
		leasesReceived:   scope.Counter("leases_received"),
		requestsStarted:  scope.Counter("requests_started"),
		requestsOK:       okScope.Counter("requests_finished"),
		requestsError:    errScope.Counter("requests_finished"),
		requestsTimeout:  timeoutScope.Counter("requests_finished"),
		requestLatency:   scope.Timer("request_latency"),
	}
}

// SetupSucceeded records a successful SETUP handshake.
func (o *ConnectionObserver) SetupSucceeded() { o.setupSuccess.Inc(1) }

// SetupFailed records a rejected or malformed SETUP handshake.
func (o *ConnectionObserver) SetupFailed() { o.setupFailure.Inc(1) }

// KeepaliveSent records an outbound KEEPALIVE frame.
func (o *ConnectionObserver) KeepaliveSent() { o.keepalivesSent.Inc(1) }

// KeepaliveMissed records a keepalive round trip that exceeded max lifetime.
func (o *ConnectionObserver) KeepaliveMissed() { o.keepalivesMissed.Inc(1) }

// LeaseReceived records an inbound LEASE frame.
func (o *ConnectionObserver) LeaseReceived() { o.leasesReceived.Inc(1) }

// RequestStarted records a REQUEST_RESPONSE frame being sent.
func (o *ConnectionObserver) RequestStarted() { o.requestsStarted.Inc(1) }

// RequestSucceeded records a request that resolved with a RESPONSE frame,
// recording its end-to-end latency.
func (o *ConnectionObserver) RequestSucceeded(d time.Duration) {
	o.requestsOK.Inc(1)
	o.requestLatency.Record(d)
}

// RequestFailed records a request that resolved with an ERROR frame or a
// connection failure, recording its end-to-end latency.
func (o *ConnectionObserver) RequestFailed(d time.Duration) {
	o.requestsError.Inc(1)
	o.requestLatency.Record(d)
}

// RequestTimedOut records a request that hit its local timeout and was
// canceled.
func (o *ConnectionObserver) RequestTimedOut(d time.Duration) {
	o.requestsTimeout.Inc(1)
	o.requestLatency.Record(d)
}

// BalancerObserver reports LoadBalancer-level events: aperture size,
// selection outcomes, and socket lifecycle.
type BalancerObserver struct {
	scope tally.Scope

	apertureSize    tally.Gauge
	connectedCount  tally.Gauge
	selectFailures  tally.Counter
	socketsAdded    tally.Counter
	socketsRemoved  tally.Counter
	socketsRecycled tally.Counter
}

// NewBalancerObserver builds a BalancerObserver from scope.
func NewBalancerObserver(scope tally.Scope) *BalancerObserver {
	scope = orNoop(scope)
	return &BalancerObserver{
		scope:           scope,
		apertureSize:    scope.Gauge("aperture_size"),
		connectedCount:  scope.Gauge("connected_sockets"),
		selectFailures:  scope.Counter("select_failures"),
		socketsAdded:    scope.Counter("sockets_added"),
		socketsRemoved:  scope.Counter("sockets_removed"),
		socketsRecycled: scope.Counter("sockets_recycled"),
	}
}

// ReportAperture updates the current aperture width and connected socket
// count gauges.
func (o *BalancerObserver) ReportAperture(width, connected int) {
	o.apertureSize.Update(float64(width))
	o.connectedCount.Update(float64(connected))
}

// SelectFailed records a request for which selection found no usable socket.
func (o *BalancerObserver) SelectFailed() { o.selectFailures.Inc(1) }

// SocketAdded records a socket entering the connected set.
func (o *BalancerObserver) SocketAdded() { o.socketsAdded.Inc(1) }

// SocketRemoved records a socket leaving the connected set (factory removed
// or eviction).
func (o *BalancerObserver) SocketRemoved() { o.socketsRemoved.Inc(1) }

// SocketRecycled records the periodic slowest-socket recycle firing.
func (o *BalancerObserver) SocketRecycled() { o.socketsRecycled.Inc(1) }

// Scope exposes the underlying tally.Scope so subordinate components (a
// per-socket EWMA failure accrual, say) can build their own tagged
// sub-observers without the balancer needing to know their shape.
func (o *BalancerObserver) Scope() tally.Scope { return o.scope }

func orNoop(scope tally.Scope) tally.Scope {
	if scope == nil {
		return tally.NoopScope
	}
	return scope
}
