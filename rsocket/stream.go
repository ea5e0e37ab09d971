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

package rsocket

import (
	"sync"

	"github.com/go-rsocket/rsocket/frame"
	"github.com/go-rsocket/rsocket/socket"
)

// fragmentAccumulator reassembles a FOLLOWS-flagged run of frames into a
// single Payload. It backs both the client's pendingStream table (accumulating
// a RESPONSE) and the server's inbound table (accumulating a REQUEST_RESPONSE).
type fragmentAccumulator struct {
	metadata    []byte
	hasMetadata bool
	data        []byte
}

func (a *fragmentAccumulator) append(f *frame.Frame) {
	if f.HasMetadata {
		a.hasMetadata = true
		a.metadata = append(a.metadata, f.Metadata...)
	}
	a.data = append(a.data, f.Data...)
}

func (a *fragmentAccumulator) payload() socket.Payload {
	return socket.Payload{Metadata: a.metadata, HasMetadata: a.hasMetadata, Data: a.data}
}

// streamResult is what a pendingStream delivers once its exchange reaches a
// terminal state: a RESPONSE (possibly reassembled from FOLLOWS fragments),
// an ERROR, or the connection failing out from under it.
type streamResult struct {
	payload socket.Payload
	err     error
}

// pendingStream is a client-issued REQUEST_RESPONSE awaiting its terminal
// frame. One exists per outstanding stream id in Connection.streams.
type pendingStream struct {
	fragmentAccumulator

	id       uint32
	resultCh chan streamResult

	completeOnce sync.Once
}

func newPendingStream(id uint32) *pendingStream {
	return &pendingStream{id: id, resultCh: make(chan streamResult, 1)}
}

// complete delivers the terminal result. Only the first call has any effect,
// since both a RESPONSE/ERROR frame and the connection failing may try to
// complete the same stream. The request timer and ctx cancellation remove
// the stream without calling complete.
func (s *pendingStream) complete(payload socket.Payload, err error) {
	s.completeOnce.Do(func() {
		s.resultCh <- streamResult{payload: payload, err: err}
	})
}
