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

// Package balancer implements a client-side, aperture-controlled load
// balancer over a set of peer.Factory targets: it keeps a small window of
// live sockets open (the aperture), grows or shrinks that window with
// traffic, spreads requests across the window with power-of-three-choices
// selection, and periodically recycles its slowest member to keep exploring
// the wider factory set.
package balancer

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"go.uber.org/multierr"

	"github.com/go-rsocket/rsocket/internal/clock"
	"github.com/go-rsocket/rsocket/peer"
	"github.com/go-rsocket/rsocket/rsocketerrors"
	"github.com/go-rsocket/rsocket/socket"
)

// member is one live socket in the balancer's connected set: the factory it
// came from (so it can be returned to the factory pool on removal), and the
// Draining(Weighted(...)) decorator chain the spec's "Socket construction"
// step wraps every spawned connection in.
type member struct {
	factory  peer.Factory
	draining *socket.DrainingSocket
	weighted *socket.WeightedSocket
}

func newMember(f peer.Factory, sock socket.Socket, cfg Config) *member {
	weighted := socket.NewWeightedSocketWithClock(sock, cfg.Clock, socket.DefaultMedianWindow, socket.DefaultInactivityPeriod)
	draining := socket.NewDrainingSocketWithClock(weighted, cfg.Clock, cfg.DrainTimeout)
	return &member{factory: f, draining: draining, weighted: weighted}
}

// LoadBalancer selects among the sockets it has built from a pool of
// factories, per §4.9: it satisfies socket.Socket itself, so it composes
// with the same decorators (ReEnqueueFilter, FailureAccrualSocket) a caller
// would wrap around any other Socket.
type LoadBalancer struct {
	cfg Config
	rng *rand.Rand

	mu                 sync.Mutex
	factories          []peer.Factory
	members            []*member
	pending            int
	target             int
	outstanding        int64
	lastApertureUpdate time.Time
	closed             bool

	recycleTicker clock.Ticker
	stopRecycle   chan struct{}
	stopOnce      sync.Once
}

var _ socket.Socket = (*LoadBalancer)(nil)

// New builds a LoadBalancer and starts its periodic recycle timer.
func New(opts ...Option) *LoadBalancer {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	lb := &LoadBalancer{
		cfg:         cfg,
		rng:         rand.New(rand.NewSource(time.Now().UnixNano())),
		target:      cfg.InitialAperture,
		stopRecycle: make(chan struct{}),
	}
	lb.recycleTicker = cfg.Clock.NewTicker(cfg.RecyclePeriod)
	go lb.recycleLoop()
	return lb
}

// AddFactory adds f to the factory pool and immediately tries to grow the
// connected set toward it, per the spec's "Factory add -> push,
// refreshSockets()".
func (lb *LoadBalancer) AddFactory(f peer.Factory) {
	lb.mu.Lock()
	if lb.closed {
		lb.mu.Unlock()
		return
	}
	lb.factories = append(lb.factories, f)
	lb.mu.Unlock()

	lb.refreshSockets()
}

// RemoveFactory drops f from the factory pool and closes every member
// socket that was built from it.
func (lb *LoadBalancer) RemoveFactory(f peer.Factory) {
	lb.mu.Lock()
	for i, existing := range lb.factories {
		if existing == f {
			lb.factories = append(lb.factories[:i], lb.factories[i+1:]...)
			break
		}
	}

	var dead []*member
	kept := lb.members[:0:0]
	for _, m := range lb.members {
		if m.factory == f {
			dead = append(dead, m)
		} else {
			kept = append(kept, m)
		}
	}
	lb.members = kept
	for range dead {
		lb.cfg.Observer.SocketRemoved()
	}
	lb.mu.Unlock()

	for _, m := range dead {
		m.draining.Close()
	}
}

// RequestResponse refreshes the connected set, selects a member via
// power-of-three-choices, and forwards req to it. A selection failure (no
// connected member) returns a CodeEmptyLoadBalancer error
// instead of blocking, matching the spec's pre-built "failing stream".
func (lb *LoadBalancer) RequestResponse(ctx context.Context, req socket.Payload) (socket.Payload, error) {
	lb.refreshSockets()

	lb.mu.Lock()
	if lb.closed {
		lb.mu.Unlock()
		return socket.Payload{}, rsocketerrors.ConnectionErrorf("load balancer closed")
	}
	idx, ok := choose3(len(lb.members), lb.memberAvailability, lb.memberLoad, lb.rng)
	if !ok {
		lb.mu.Unlock()
		lb.cfg.Observer.SelectFailed()
		return socket.Payload{}, rsocketerrors.EmptyLoadBalancerErrorf("no available sockets")
	}
	m := lb.members[idx]
	lb.outstanding++
	lb.mu.Unlock()

	resp, err := m.draining.RequestResponse(ctx, req)

	lb.mu.Lock()
	lb.outstanding--
	lb.mu.Unlock()

	// The Socket contract returns outcomes directly rather than emitting
	// error/close events, so a connection-level failure is treated as the
	// equivalent trigger for eviction: the spec's "subscribe to socket
	// error ... to trigger _removeSocket" adapted to a blocking call.
	if err != nil && rsocketerrors.IsCode(err, rsocketerrors.CodeConnectionError) {
		lb.removeMember(m)
	}
	return resp, err
}

// Availability is the arithmetic mean of member socket availabilities, 0
// when closed or empty.
func (lb *LoadBalancer) Availability() float64 {
	lb.mu.Lock()
	defer lb.mu.Unlock()
	if lb.closed || len(lb.members) == 0 {
		return 0
	}
	var sum float64
	for _, m := range lb.members {
		sum += m.draining.Availability()
	}
	return sum / float64(len(lb.members))
}

// Close stops the recycle timer and closes every member socket, aggregating
// their close errors. Idempotent.
func (lb *LoadBalancer) Close() error {
	lb.mu.Lock()
	if lb.closed {
		lb.mu.Unlock()
		return nil
	}
	lb.closed = true
	members := lb.members
	lb.members = nil
	lb.mu.Unlock()

	lb.stopOnce.Do(func() {
		lb.recycleTicker.Stop()
		close(lb.stopRecycle)
	})

	var err error
	for _, m := range members {
		err = multierr.Append(err, m.draining.Close())
	}
	return err
}

// refreshSockets updates the aperture target and then grows or shrinks the
// connected set by exactly one socket toward it, per the spec's refresh
// step: a single factory build or a single eviction per call, never a batch.
func (lb *LoadBalancer) refreshSockets() {
	lb.mu.Lock()
	if lb.closed {
		lb.mu.Unlock()
		return
	}
	lb.updateApertureLocked()

	n := len(lb.members) + lb.pending
	switch {
	case n < lb.target:
		if len(lb.factories) == 0 {
			lb.mu.Unlock()
			return
		}
		idx, ok := choose3(len(lb.factories), lb.factoryAvailability, lb.factoryAvailability, lb.rng)
		if !ok {
			lb.mu.Unlock()
			return
		}
		f := lb.factories[idx]
		lb.factories = append(lb.factories[:idx], lb.factories[idx+1:]...)
		lb.pending++
		lb.mu.Unlock()
		lb.spawnSocket(f)
		return
	case n > lb.target:
		lb.evictSlowestLocked()
	}
	lb.mu.Unlock()
}

// updateApertureLocked recomputes the target aperture, rate-limited to once
// per ApertureRefreshPeriod. Must be called with lb.mu held.
func (lb *LoadBalancer) updateApertureLocked() {
	now := lb.cfg.Clock.Now()
	if !lb.lastApertureUpdate.IsZero() && now.Sub(lb.lastApertureUpdate) < lb.cfg.ApertureRefreshPeriod {
		return
	}
	lb.lastApertureUpdate = now

	if len(lb.members) > 0 {
		avg := float64(lb.outstanding) / float64(len(lb.members))
		if avg < lowWatermark && lb.target > lb.cfg.MinAperture {
			lb.target--
		} else if avg > highWatermark && lb.target < lb.cfg.MaxAperture {
			lb.target++
		}
	}
	lb.cfg.Observer.ReportAperture(lb.target, len(lb.members))
}

// spawnSocket builds a socket from f on its own goroutine (Build is the
// fallible, potentially slow "future<Connection | error>") and, on success,
// adds the result to the connected set. On failure f is returned to the
// pool rather than discarded — a factory that fails to dial once isn't
// permanently dead, and its own Availability-driven backoff cooldown, not
// the balancer, decides when it's worth trying again.
func (lb *LoadBalancer) spawnSocket(f peer.Factory) {
	go func() {
		sock, err := f.Build(context.Background())

		lb.mu.Lock()
		defer lb.mu.Unlock()
		lb.pending--

		if lb.closed {
			if err == nil {
				sock.Close()
			}
			return
		}
		if err != nil {
			lb.cfg.Logger.Debug("load balancer socket build failed")
			lb.factories = append(lb.factories, f)
			return
		}

		m := newMember(f, sock, lb.cfg)
		lb.members = append(lb.members, m)
		lb.cfg.Observer.SocketAdded()
	}()
}

// evictSlowestLocked removes the member with the highest predicted latency
// (via power-of-three-choices maximizing predicted_latency), returning its
// factory to the pool and closing it asynchronously. Must be called with
// lb.mu held.
func (lb *LoadBalancer) evictSlowestLocked() {
	if len(lb.members) == 0 {
		return
	}
	idx, ok := choose3(len(lb.members), constantAvailability, lb.memberPredictedLatency, lb.rng)
	if !ok {
		return
	}
	m := lb.members[idx]
	lb.members = append(lb.members[:idx], lb.members[idx+1:]...)
	lb.factories = append(lb.factories, m.factory)
	lb.cfg.Observer.SocketRemoved()
	go m.draining.Close()
}

// removeMember splices m out of the connected set (if still present),
// returns its factory to the pool, and closes it asynchronously.
func (lb *LoadBalancer) removeMember(m *member) {
	lb.mu.Lock()
	found := false
	for i, existing := range lb.members {
		if existing == m {
			lb.members = append(lb.members[:i], lb.members[i+1:]...)
			found = true
			break
		}
	}
	if found {
		lb.factories = append(lb.factories, m.factory)
		lb.cfg.Observer.SocketRemoved()
	}
	lb.mu.Unlock()

	if found {
		go m.draining.Close()
	}
}

func (lb *LoadBalancer) recycleLoop() {
	for {
		select {
		case <-lb.recycleTicker.C():
			lb.mu.Lock()
			if !lb.closed && len(lb.members) > 0 && len(lb.factories) > 0 {
				lb.evictSlowestLocked()
				lb.cfg.Observer.SocketRecycled()
			}
			lb.mu.Unlock()
		case <-lb.stopRecycle:
			return
		}
	}
}

// memberAvailability, memberLoad, memberPredictedLatency, and
// factoryAvailability close over lb.members/lb.factories for choose3; all
// must be called with lb.mu held.

func (lb *LoadBalancer) memberAvailability(i int) float64 {
	return lb.members[i].draining.Availability()
}

func (lb *LoadBalancer) memberLoad(i int) float64 {
	avail := lb.members[i].draining.Availability()
	predicted := lb.members[i].weighted.PredictedLatency()
	outstanding := float64(lb.members[i].weighted.Outstanding())
	return avail / (1 + predicted*(outstanding+1))
}

func (lb *LoadBalancer) memberPredictedLatency(i int) float64 {
	return lb.members[i].weighted.PredictedLatency()
}

func (lb *LoadBalancer) factoryAvailability(i int) float64 {
	return lb.factories[i].Availability()
}

func constantAvailability(int) float64 { return 1 }
