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
	"errors"
	"sync"

	"github.com/go-rsocket/rsocket/transport"
)

// pipeTransport is an in-memory, message-preserving duplex transport.fixture
// used to drive a client Connection directly against a server Connection
// without a real socket, in the same spirit as transport/tcp's Conn but
// backed by channels instead of net.Conn.
type pipeTransport struct {
	send chan []byte
	recv chan []byte

	mu      sync.Mutex
	handler transport.Handler

	closeOnce sync.Once
	closed    chan struct{}
}

// newPipePair returns two ends of a connected duplex pipe; writes on one side
// arrive as OnData calls on the other.
func newPipePair() (*pipeTransport, *pipeTransport) {
	ab := make(chan []byte, 256)
	ba := make(chan []byte, 256)
	a := &pipeTransport{send: ab, recv: ba, closed: make(chan struct{})}
	b := &pipeTransport{send: ba, recv: ab, closed: make(chan struct{})}
	return a, b
}

func (p *pipeTransport) Write(data []byte) error {
	buf := append([]byte(nil), data...)
	select {
	case p.send <- buf:
		return nil
	case <-p.closed:
		return errors.New("pipeTransport: write on closed pipe")
	}
}

func (p *pipeTransport) SetHandler(h transport.Handler) {
	p.mu.Lock()
	first := p.handler == nil
	p.handler = h
	p.mu.Unlock()
	if first {
		go p.pump()
	}
}

func (p *pipeTransport) Framed() bool { return true }

func (p *pipeTransport) End() error {
	p.closeOnce.Do(func() { close(p.closed) })
	return nil
}

func (p *pipeTransport) pump() {
	for {
		select {
		case data := <-p.recv:
			p.mu.Lock()
			h := p.handler
			p.mu.Unlock()
			if h != nil {
				h.OnData(data)
			}
		case <-p.closed:
			p.mu.Lock()
			h := p.handler
			p.mu.Unlock()
			if h != nil {
				h.OnClose()
			}
			return
		}
	}
}
