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

// Package transport defines the bidirectional byte-channel contract the
// rsocket package's Connection state machine consumes. TCP is the only
// realization shipped here (see transport/tcp); a WebSocket adapter that
// delivers whole messages is an equally valid realization and would report
// Framed() == false so the Connection bypasses the length-prefix framer.
package transport

// Transport is a single bidirectional byte-stream connection to one peer.
// Every operation is safe to call from any goroutine; a Connection is the
// only thing that ever holds a Transport, and it fully owns the Handler
// wiring.
type Transport interface {
	// Write sends data to the peer. Write may be called concurrently with
	// itself; callers expecting frame atomicity must not interleave partial
	// frame writes across goroutines.
	Write(data []byte) error

	// SetHandler registers the receiver of inbound events. Must be called
	// exactly once, before the transport can deliver anything; a second
	// call replaces the first.
	SetHandler(h Handler)

	// Framed reports whether the Connection must run inbound bytes through
	// the length-prefix framer before decoding. TCP reports true; a
	// transport that already delivers discrete messages reports false.
	Framed() bool

	// End closes the transport from this side. Idempotent.
	End() error
}

// Handler receives the events a Transport produces: inbound bytes, a
// terminal error, and closure. A Connection implements Handler.
type Handler interface {
	// OnData delivers a chunk of inbound bytes. data is only valid for the
	// duration of the call; implementations that retain it must copy.
	OnData(data []byte)

	// OnError reports a terminal transport failure. OnClose always follows.
	OnError(err error)

	// OnClose reports that the transport is closed and will deliver
	// nothing further.
	OnClose()
}
