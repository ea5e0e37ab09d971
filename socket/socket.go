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

// Package socket defines the Socket contract shared by a raw Connection and
// every decorator layered over it (DrainingSocket, WeightedSocket,
// FailureAccrualSocket, ReEnqueueFilter), and implements those decorators.
//
// The protocol's own event-emitter style ("response|error|...|terminate")
// is replaced here by a single blocking call returning a (Payload, error)
// pair, per the redesign note favoring an explicit result value over an
// event stream; context.Context supplies cancellation and deadlines in
// place of a bespoke cancellation handle.
package socket

import "context"

// Payload is a single request or response body: an optional metadata block
// plus a data block.
type Payload struct {
	Metadata    []byte
	HasMetadata bool
	Data        []byte
}

// Socket is the request/response contract the load balancer, the
// decorators, and a raw Connection all share.
type Socket interface {
	// RequestResponse sends req and blocks for the matching RESPONSE or
	// ERROR frame, or until ctx is done. A context deadline shorter than
	// the connection's configured request timeout wins; a context with no
	// deadline defers entirely to the connection's own timeout.
	RequestResponse(ctx context.Context, req Payload) (Payload, error)

	// Availability reports how eligible this socket is for new requests,
	// in [0, 1]. 0 means "do not route here right now".
	Availability() float64

	// Close releases the socket. Idempotent.
	Close() error
}
