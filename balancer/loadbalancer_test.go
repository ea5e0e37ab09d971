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

package balancer

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-rsocket/rsocket/internal/clock"
	"github.com/go-rsocket/rsocket/rsocketerrors"
	"github.com/go-rsocket/rsocket/socket"
)

type fakeSocket struct {
	mu        sync.Mutex
	available float64
	closed    bool
	handle    func(req socket.Payload) (socket.Payload, error)
}

func newFakeSocket() *fakeSocket {
	return &fakeSocket{
		available: 1,
		handle: func(req socket.Payload) (socket.Payload, error) { return req, nil },
	}
}

func (s *fakeSocket) RequestResponse(ctx context.Context, req socket.Payload) (socket.Payload, error) {
	s.mu.Lock()
	h := s.handle
	s.mu.Unlock()
	return h(req)
}

func (s *fakeSocket) Availability() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.available
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

type fakeFactory struct {
	name  string
	build func(ctx context.Context) (socket.Socket, error)
}

func newFakeFactory(name string) *fakeFactory {
	return &fakeFactory{
		name: name,
		build: func(ctx context.Context) (socket.Socket, error) {
			return newFakeSocket(), nil
		},
	}
}

func (f *fakeFactory) Build(ctx context.Context) (socket.Socket, error) { return f.build(ctx) }
func (f *fakeFactory) Availability() float64                            { return 1 }
func (f *fakeFactory) Name() string                                    { return f.name }

func TestLoadBalancerGrowsConnectedSetTowardAperture(t *testing.T) {
	lb := New(WithAperture(2, 1, 4))
	defer lb.Close()

	for i := 0; i < 3; i++ {
		lb.AddFactory(newFakeFactory(fmt.Sprintf("peer-%d", i)))
	}

	assert.Eventually(t, func() bool {
		lb.mu.Lock()
		defer lb.mu.Unlock()
		return len(lb.members) == 2
	}, time.Second, time.Millisecond, "connected set should grow to the aperture target")
}

func TestLoadBalancerRequestResponseEchoesThroughMember(t *testing.T) {
	lb := New(WithAperture(1, 1, 1))
	defer lb.Close()

	lb.AddFactory(newFakeFactory("only"))

	var resp socket.Payload
	var err error
	require.Eventually(t, func() bool {
		resp, err = lb.RequestResponse(context.Background(), socket.Payload{Data: []byte("ping")})
		return err == nil
	}, time.Second, time.Millisecond)

	assert.Equal(t, "ping", string(resp.Data))
}

func TestLoadBalancerSelectionFailsWithNoFactories(t *testing.T) {
	lb := New()
	defer lb.Close()

	_, err := lb.RequestResponse(context.Background(), socket.Payload{})
	require.Error(t, err)
	assert.True(t, rsocketerrors.IsCode(err, rsocketerrors.CodeEmptyLoadBalancer))
}

func TestLoadBalancerRemoveFactoryClosesMembers(t *testing.T) {
	lb := New(WithAperture(1, 1, 1))
	defer lb.Close()

	f := newFakeFactory("doomed")
	var built *fakeSocket
	var mu sync.Mutex
	f.build = func(ctx context.Context) (socket.Socket, error) {
		mu.Lock()
		built = newFakeSocket()
		mu.Unlock()
		return built, nil
	}
	lb.AddFactory(f)

	require.Eventually(t, func() bool {
		lb.mu.Lock()
		defer lb.mu.Unlock()
		return len(lb.members) == 1
	}, time.Second, time.Millisecond)

	lb.RemoveFactory(f)

	mu.Lock()
	sock := built
	mu.Unlock()
	require.Eventually(t, sock.isClosed, time.Second, time.Millisecond)

	lb.mu.Lock()
	assert.Empty(t, lb.members)
	lb.mu.Unlock()
}

func TestLoadBalancerEvictsMemberOnConnectionError(t *testing.T) {
	lb := New(WithAperture(1, 1, 1))
	defer lb.Close()

	f := newFakeFactory("flaky")
	f.build = func(ctx context.Context) (socket.Socket, error) {
		s := newFakeSocket()
		s.handle = func(req socket.Payload) (socket.Payload, error) {
			return socket.Payload{}, rsocketerrors.ConnectionErrorf("peer hung up")
		}
		return s, nil
	}
	lb.AddFactory(f)

	require.Eventually(t, func() bool {
		lb.mu.Lock()
		defer lb.mu.Unlock()
		return len(lb.members) == 1
	}, time.Second, time.Millisecond)

	_, err := lb.RequestResponse(context.Background(), socket.Payload{})
	require.Error(t, err)

	require.Eventually(t, func() bool {
		lb.mu.Lock()
		defer lb.mu.Unlock()
		return len(lb.members) == 0
	}, time.Second, time.Millisecond, "a connection-error response should evict its member")
}

func TestLoadBalancerAvailabilityIsZeroWhenEmptyOrClosed(t *testing.T) {
	lb := New()
	assert.Equal(t, 0.0, lb.Availability())

	lb.AddFactory(newFakeFactory("only"))
	require.Eventually(t, func() bool { return lb.Availability() == 1 }, time.Second, time.Millisecond)

	require.NoError(t, lb.Close())
	assert.Equal(t, 0.0, lb.Availability())
}

func TestLoadBalancerUpdateApertureAdjustsWithLoad(t *testing.T) {
	mc := clock.NewMock(time.Unix(0, 0))
	lb := New(WithAperture(3, 1, 10), WithApertureRefreshPeriod(10*time.Millisecond), WithClock(mc))
	defer lb.Close()

	lb.mu.Lock()
	lb.members = []*member{
		newMember(newFakeFactory("a"), newFakeSocket(), lb.cfg),
		newMember(newFakeFactory("b"), newFakeSocket(), lb.cfg),
	}
	lb.outstanding = 10 // avg 5 per socket, above the high watermark
	lb.mu.Unlock()

	mc.Advance(20 * time.Millisecond)
	lb.refreshSockets()

	lb.mu.Lock()
	target := lb.target
	lb.mu.Unlock()
	assert.Equal(t, 4, target, "high average outstanding should grow the target by one")
}

func TestLoadBalancerSnapshotReportsApertureAndMembers(t *testing.T) {
	lb := New(WithAperture(1, 1, 1))
	defer lb.Close()

	lb.AddFactory(newFakeFactory("only"))
	require.Eventually(t, func() bool {
		return len(lb.Snapshot().Members) == 1
	}, time.Second, time.Millisecond)

	snap := lb.Snapshot()
	assert.Equal(t, 1, snap.Aperture)
	assert.Equal(t, 0, snap.FactoryCount, "the only factory is held by its live member, not idle in the pool")
	require.Len(t, snap.Members, 1)
	assert.Equal(t, "only", snap.Members[0].Name)
	assert.Equal(t, 1.0, snap.Members[0].Availability)
}
