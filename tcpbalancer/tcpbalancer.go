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

// Package tcpbalancer implements the simpler fixed-size pool variant: a
// target number of connections kept open over a discovered host list,
// rather than balancer's aperture-tracking Factory pool. Membership moves
// through three disjoint sets keyed by "host:port" — free, connecting, and
// connected — matching the invariant that a host lives in exactly one of
// them at a time.
package tcpbalancer

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/go-rsocket/rsocket/rsocketerrors"
	"github.com/go-rsocket/rsocket/socket"
)

// Dialer opens a Socket to addr ("host:port"), typically dialing
// transport/tcp and completing the RSocket handshake via rsocket.Dial.
type Dialer func(ctx context.Context, addr string) (socket.Socket, error)

// TcpLoadBalancer maintains size open connections over a discovered set of
// hosts, satisfying socket.Socket itself so it composes with the same
// decorators any other Socket does.
type TcpLoadBalancer struct {
	cfg  Config
	dial Dialer
	rng  *rand.Rand

	size int

	mu         sync.Mutex
	hosts      map[string]struct{}
	free       map[string]struct{}
	connecting map[string]struct{}
	connected  map[string]socket.Socket
	closed     bool

	stopCh chan struct{}
}

var _ socket.Socket = (*TcpLoadBalancer)(nil)

// New builds a TcpLoadBalancer over hosts, immediately dialing min(size,
// len(hosts)) candidates chosen uniformly at random from the free set, and
// starts its background reap-and-top-up loop.
func New(hosts []string, size int, dial Dialer, opts ...Option) *TcpLoadBalancer {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	lb := &TcpLoadBalancer{
		cfg:        cfg,
		dial:       dial,
		rng:        rand.New(rand.NewSource(time.Now().UnixNano())),
		size:       size,
		hosts:      toSet(hosts),
		free:       toSet(hosts),
		connecting: make(map[string]struct{}),
		connected:  make(map[string]socket.Socket),
		stopCh:     make(chan struct{}),
	}

	lb.mu.Lock()
	lb.topUpLocked()
	lb.mu.Unlock()

	go lb.maintainLoop()
	return lb
}

func toSet(hosts []string) map[string]struct{} {
	out := make(map[string]struct{}, len(hosts))
	for _, h := range hosts {
		out[h] = struct{}{}
	}
	return out
}

// UpdateHosts reconciles the desired host set: newly seen hosts join free,
// hosts no longer present are dropped from free and any active connection
// to them is closed, then the pool tops back up toward size.
func (lb *TcpLoadBalancer) UpdateHosts(hosts []string) {
	lb.mu.Lock()
	defer lb.mu.Unlock()
	if lb.closed {
		return
	}

	next := toSet(hosts)
	for addr := range next {
		if _, exists := lb.hosts[addr]; !exists {
			lb.hosts[addr] = struct{}{}
			lb.free[addr] = struct{}{}
		}
	}
	for addr := range lb.hosts {
		if _, keep := next[addr]; keep {
			continue
		}
		delete(lb.hosts, addr)
		delete(lb.free, addr)
		if sock, ok := lb.connected[addr]; ok {
			delete(lb.connected, addr)
			go sock.Close()
		}
	}
	lb.topUpLocked()
}

// topUpLocked dials up to the current deficit, choosing candidates
// uniformly at random from free. Must be called with lb.mu held.
func (lb *TcpLoadBalancer) topUpLocked() {
	deficit := lb.size - (len(lb.connecting) + len(lb.connected))
	for deficit > 0 && len(lb.free) > 0 {
		addr := lb.pickFreeLocked()
		delete(lb.free, addr)
		lb.connecting[addr] = struct{}{}
		deficit--
		go lb.connectOne(addr)
	}
}

func (lb *TcpLoadBalancer) pickFreeLocked() string {
	addrs := make([]string, 0, len(lb.free))
	for addr := range lb.free {
		addrs = append(addrs, addr)
	}
	return addrs[lb.rng.Intn(len(addrs))]
}

func (lb *TcpLoadBalancer) connectOne(addr string) {
	sock, err := lb.dial(context.Background(), addr)

	lb.mu.Lock()
	defer lb.mu.Unlock()
	delete(lb.connecting, addr)

	if lb.closed {
		if err == nil {
			sock.Close()
		}
		return
	}
	if err != nil {
		lb.cfg.Logger.Debug("tcp load balancer dial failed", zap.String("addr", addr))
		if _, stillWanted := lb.hosts[addr]; stillWanted {
			lb.free[addr] = struct{}{}
		}
		lb.topUpLocked()
		return
	}
	lb.connected[addr] = sock
}

// maintainLoop periodically reaps connections whose Availability has gone
// to zero (the Socket contract's stand-in for a close/error event) and
// tops the pool back up, the reactive half of the spec's "on a dialed
// connection's close" state transition.
func (lb *TcpLoadBalancer) maintainLoop() {
	ticker := lb.cfg.Clock.NewTicker(lb.cfg.ReapInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C():
			lb.reapAndTopUp()
		case <-lb.stopCh:
			return
		}
	}
}

func (lb *TcpLoadBalancer) reapAndTopUp() {
	lb.mu.Lock()
	defer lb.mu.Unlock()
	if lb.closed {
		return
	}
	for addr, sock := range lb.connected {
		if sock.Availability() > 0 {
			continue
		}
		delete(lb.connected, addr)
		go sock.Close()
		if _, stillWanted := lb.hosts[addr]; stillWanted {
			lb.free[addr] = struct{}{}
		}
	}
	lb.topUpLocked()
}

// RequestResponse selects a connected host via the configured Strategy and
// forwards req to it.
func (lb *TcpLoadBalancer) RequestResponse(ctx context.Context, req socket.Payload) (socket.Payload, error) {
	lb.mu.Lock()
	if lb.closed || len(lb.connected) == 0 {
		lb.mu.Unlock()
		return socket.Payload{}, rsocketerrors.EmptyLoadBalancerErrorf("no connected hosts")
	}
	addrs := make([]string, 0, len(lb.connected))
	for addr := range lb.connected {
		addrs = append(addrs, addr)
	}
	addr, ok := lb.cfg.Strategy.Choose(addrs, lb.availabilityLocked, lb.rng)
	if !ok {
		lb.mu.Unlock()
		return socket.Payload{}, rsocketerrors.EmptyLoadBalancerErrorf("selection strategy found no candidate")
	}
	sock := lb.connected[addr]
	lb.mu.Unlock()

	return sock.RequestResponse(ctx, req)
}

func (lb *TcpLoadBalancer) availabilityLocked(addr string) float64 {
	sock, ok := lb.connected[addr]
	if !ok {
		return 0
	}
	return sock.Availability()
}

// Availability is the arithmetic mean of connected socket availabilities, 0
// when closed or empty.
func (lb *TcpLoadBalancer) Availability() float64 {
	lb.mu.Lock()
	defer lb.mu.Unlock()
	if lb.closed || len(lb.connected) == 0 {
		return 0
	}
	var sum float64
	for _, sock := range lb.connected {
		sum += sock.Availability()
	}
	return sum / float64(len(lb.connected))
}

// Close stops the maintenance loop and closes every connected socket,
// aggregating their close errors. Idempotent.
func (lb *TcpLoadBalancer) Close() error {
	lb.mu.Lock()
	if lb.closed {
		lb.mu.Unlock()
		return nil
	}
	lb.closed = true
	conns := lb.connected
	lb.connected = make(map[string]socket.Socket)
	lb.mu.Unlock()

	close(lb.stopCh)

	var err error
	for _, sock := range conns {
		err = multierr.Append(err, sock.Close())
	}
	return err
}
