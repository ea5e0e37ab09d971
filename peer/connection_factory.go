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

package peer

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/go-rsocket/rsocket/internal/backoff"
	"github.com/go-rsocket/rsocket/internal/clock"
	"github.com/go-rsocket/rsocket/rsocket"
	"github.com/go-rsocket/rsocket/socket"
	"github.com/go-rsocket/rsocket/transport"
)

// Dialer opens a fresh transport to this factory's target. Implementations
// typically close over a host:port and call transport/tcp.Dial.
type Dialer func(ctx context.Context) (transport.Transport, error)

var _ Factory = (*ConnectionFactory)(nil)

// ConnectionFactory is the default Factory: it dials a transport with Dialer
// and runs the RSocket handshake via rsocket.Dial. A failed Build backs the
// factory off with full-jitter exponential backoff (grounded on the HTTP
// transport's peer reconnect loop) instead of letting the balancer hammer a
// down host every refresh; Availability reports 0 for the duration of the
// current backoff window.
type ConnectionFactory struct {
	name     string
	dial     Dialer
	strategy backoff.Strategy
	connOpts []rsocket.Option

	logger *zap.Logger
	clock  clock.Clock

	mu          sync.Mutex
	attempts    uint
	nextAttempt time.Time
}

// Option configures a ConnectionFactory.
type Option func(*ConnectionFactory)

// WithConnectionOptions passes options through to every rsocket.Dial call
// this factory makes.
func WithConnectionOptions(opts ...rsocket.Option) Option {
	return func(f *ConnectionFactory) { f.connOpts = append(f.connOpts, opts...) }
}

// WithLogger injects a structured logger. Default zap.NewNop().
func WithLogger(logger *zap.Logger) Option {
	return func(f *ConnectionFactory) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// WithClock injects a clock, for deterministic backoff tests. Default
// clock.Real{}.
func WithClock(c clock.Clock) Option {
	return func(f *ConnectionFactory) {
		if c != nil {
			f.clock = c
		}
	}
}

// NewConnectionFactory builds a ConnectionFactory named name, dialing via
// dial and backing off between failures per strategy. A nil strategy falls
// back to backoff.NewExponential's defaults.
func NewConnectionFactory(name string, dial Dialer, strategy backoff.Strategy, opts ...Option) *ConnectionFactory {
	f := &ConnectionFactory{
		name:     name,
		dial:     dial,
		strategy: strategy,
		logger:   zap.NewNop(),
		clock:    clock.Real{},
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.strategy == nil {
		exp, err := backoff.NewExponential()
		if err == nil {
			f.strategy = constantStrategy{exp}
		}
	}
	return f
}

// constantStrategy adapts a single pre-built Backoff into a Strategy that
// always returns it, for factories that don't need a distinct random source
// per Backoff() call.
type constantStrategy struct{ b backoff.Backoff }

func (s constantStrategy) Backoff() backoff.Backoff { return s.b }

// Name returns the factory's dial target.
func (f *ConnectionFactory) Name() string { return f.name }

// Availability is 0 while a prior failure's backoff window is still open,
// and 1 otherwise — including before the first Build, so a freshly
// discovered peer is immediately eligible for selection.
func (f *ConnectionFactory) Availability() float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.nextAttempt.IsZero() || !f.clock.Now().Before(f.nextAttempt) {
		return 1
	}
	return 0
}

// Build dials a transport and performs the RSocket handshake. On success the
// backoff state resets so a future failure starts from the first step
// again; on failure the next Build (and Availability) is gated behind an
// increasing backoff window.
func (f *ConnectionFactory) Build(ctx context.Context) (socket.Socket, error) {
	t, err := f.dial(ctx)
	if err != nil {
		f.recordFailure()
		return nil, err
	}

	conn, err := rsocket.Dial(ctx, t, f.connOpts...)
	if err != nil {
		f.recordFailure()
		return nil, err
	}

	f.recordSuccess()
	return conn, nil
}

func (f *ConnectionFactory) recordFailure() {
	f.mu.Lock()
	defer f.mu.Unlock()

	delay := f.strategy.Backoff().Duration(f.attempts)
	f.attempts++
	f.nextAttempt = f.clock.Now().Add(delay)
	f.logger.Debug("peer factory dial failed, backing off",
		zap.String("name", f.name),
		zap.Duration("backoff", delay),
		zap.Uint("attempts", f.attempts),
	)
}

func (f *ConnectionFactory) recordSuccess() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.attempts = 0
	f.nextAttempt = time.Time{}
}
