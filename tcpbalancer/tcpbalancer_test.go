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

package tcpbalancer

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-rsocket/rsocket/rsocketerrors"
	"github.com/go-rsocket/rsocket/socket"
)

type fakeSocket struct {
	mu        sync.Mutex
	available float64
	closed    bool
}

func newFakeSocket() *fakeSocket { return &fakeSocket{available: 1} }

func (s *fakeSocket) RequestResponse(ctx context.Context, req socket.Payload) (socket.Payload, error) {
	return req, nil
}

func (s *fakeSocket) Availability() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.available
}

func (s *fakeSocket) setAvailability(v float64) {
	s.mu.Lock()
	s.available = v
	s.mu.Unlock()
}

func (s *fakeSocket) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}

func (s *fakeSocket) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func dialAlways(socks map[string]*fakeSocket, mu *sync.Mutex) Dialer {
	return func(ctx context.Context, addr string) (socket.Socket, error) {
		mu.Lock()
		defer mu.Unlock()
		s := newFakeSocket()
		socks[addr] = s
		return s, nil
	}
}

func TestTcpLoadBalancerDialsUpToSize(t *testing.T) {
	hosts := []string{"a:1", "b:1", "c:1", "d:1"}
	socks := map[string]*fakeSocket{}
	var mu sync.Mutex

	lb := New(hosts, 2, dialAlways(socks, &mu))
	defer lb.Close()

	require.Eventually(t, func() bool {
		lb.mu.Lock()
		defer lb.mu.Unlock()
		return len(lb.connected) == 2
	}, time.Second, time.Millisecond)

	lb.mu.Lock()
	assert.Len(t, lb.free, 2)
	assert.Empty(t, lb.connecting)
	lb.mu.Unlock()
}

func TestTcpLoadBalancerRequestResponseRoundTrips(t *testing.T) {
	hosts := []string{"only:1"}
	socks := map[string]*fakeSocket{}
	var mu sync.Mutex

	lb := New(hosts, 1, dialAlways(socks, &mu))
	defer lb.Close()

	require.Eventually(t, func() bool {
		lb.mu.Lock()
		defer lb.mu.Unlock()
		return len(lb.connected) == 1
	}, time.Second, time.Millisecond)

	resp, err := lb.RequestResponse(context.Background(), socket.Payload{Data: []byte("ping")})
	require.NoError(t, err)
	assert.Equal(t, "ping", string(resp.Data))
}

func TestTcpLoadBalancerEmptyPoolReturnsError(t *testing.T) {
	lb := New(nil, 2, dialAlways(map[string]*fakeSocket{}, &sync.Mutex{}))
	defer lb.Close()

	_, err := lb.RequestResponse(context.Background(), socket.Payload{})
	require.Error(t, err)
	assert.True(t, rsocketerrors.IsCode(err, rsocketerrors.CodeEmptyLoadBalancer))
}

func TestTcpLoadBalancerUpdateHostsAddsAndDrops(t *testing.T) {
	hosts := []string{"a:1"}
	socks := map[string]*fakeSocket{}
	var mu sync.Mutex

	lb := New(hosts, 1, dialAlways(socks, &mu))
	defer lb.Close()

	require.Eventually(t, func() bool {
		lb.mu.Lock()
		defer lb.mu.Unlock()
		_, ok := lb.connected["a:1"]
		return ok
	}, time.Second, time.Millisecond)

	lb.UpdateHosts([]string{"b:1"})

	require.Eventually(t, func() bool {
		lb.mu.Lock()
		defer lb.mu.Unlock()
		_, hasB := lb.connected["b:1"]
		_, hasA := lb.connected["a:1"]
		return hasB && !hasA
	}, time.Second, time.Millisecond)

	mu.Lock()
	a := socks["a:1"]
	mu.Unlock()
	require.Eventually(t, a.isClosed, time.Second, time.Millisecond)
}

func TestTcpLoadBalancerReapsDeadConnectionAndRedials(t *testing.T) {
	hosts := []string{"a:1"}
	socks := map[string]*fakeSocket{}
	var mu sync.Mutex

	lb := New(hosts, 1, dialAlways(socks, &mu), WithReapInterval(5*time.Millisecond))
	defer lb.Close()

	require.Eventually(t, func() bool {
		lb.mu.Lock()
		defer lb.mu.Unlock()
		return len(lb.connected) == 1
	}, time.Second, time.Millisecond)

	mu.Lock()
	socks["a:1"].setAvailability(0)
	mu.Unlock()

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		s, ok := socks["a:1"]
		return ok && s.Availability() == 1 // redialed with a fresh fakeSocket
	}, time.Second, time.Millisecond)
}

func TestP2CStrategyPrefersHigherAvailability(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	avail := map[string]float64{"low": 0, "high": 1}
	candidates := make([]string, 0, 2)
	for k := range avail {
		candidates = append(candidates, k)
	}

	for i := 0; i < 20; i++ {
		addr, ok := P2CStrategy{}.Choose(candidates, func(a string) float64 { return avail[a] }, rng)
		require.True(t, ok)
		assert.Equal(t, "high", addr, fmt.Sprintf("iteration %d should pick the higher-availability candidate", i))
	}
}

func TestUniformRandomStrategyReturnsFalseWhenEmpty(t *testing.T) {
	_, ok := UniformRandomStrategy{}.Choose(nil, func(string) float64 { return 1 }, rand.New(rand.NewSource(1)))
	assert.False(t, ok)
}
