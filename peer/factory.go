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

// Package peer defines the Factory contract a LoadBalancer draws sockets
// from, and a ConnectionFactory realization that dials a transport and
// performs the RSocket handshake, backing off between failed attempts.
//
// A Factory is deliberately thinner than the Socket it eventually produces:
// the balancer holds many factories (one discovered peer each) and only a
// handful of live sockets at once, so Availability must be cheap to poll
// across the whole factory set every refresh, while Build is the expensive,
// fallible operation performed only for the factories the balancer selects.
package peer

import (
	"context"

	"github.com/go-rsocket/rsocket/socket"
)

// Factory produces a Socket on demand, and reports how likely the next Build
// is to succeed so the balancer can prefer healthy factories over ones
// currently backing off from a failure.
type Factory interface {
	// Build dials and completes the handshake for a new Socket. Build may
	// be called again after a prior success; each call produces an
	// independent Socket.
	Build(ctx context.Context) (socket.Socket, error)

	// Availability reports in [0, 1] how eligible this factory is to be
	// selected for the next Build. 0 means "do not try this one right now".
	Availability() float64

	// Name identifies the factory, typically the dial target.
	Name() string
}
