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

// Package tcp is the default transport.Transport realization: a plain TCP
// net.Conn, read on a dedicated goroutine and delivered to the registered
// transport.Handler.
package tcp

import (
	"net"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/go-rsocket/rsocket/transport"
)

// Conn adapts a net.Conn to transport.Transport.
type Conn struct {
	logger *zap.Logger
	conn   net.Conn

	mu      sync.Mutex
	handler transport.Handler

	closeOnce sync.Once
	closeErr  error
}

var _ transport.Transport = (*Conn)(nil)

// NewConn wraps an already-established net.Conn. The read loop does not
// start until SetHandler is called.
func NewConn(conn net.Conn, logger *zap.Logger) *Conn {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Conn{conn: conn, logger: logger}
}

// Dial opens a new TCP connection to addr with the given connect timeout
// and wraps it.
func Dial(addr string, timeout time.Duration, logger *zap.Logger) (*Conn, error) {
	d := &net.Dialer{Timeout: timeout}
	conn, err := d.Dial("tcp", addr)
	if err != nil {
		return nil, err
	}
	return NewConn(conn, logger), nil
}

// SetHandler registers h and starts the read loop. Calling it a second time
// replaces the handler but does not start a second read loop.
func (c *Conn) SetHandler(h transport.Handler) {
	c.mu.Lock()
	first := c.handler == nil
	c.handler = h
	c.mu.Unlock()

	if first {
		go c.readLoop()
	}
}

// Framed reports true: TCP delivers an undelimited byte stream, so the
// Connection must run it through the length-prefix framer.
func (c *Conn) Framed() bool { return true }

// Write writes data to the socket in full or returns the first error.
func (c *Conn) Write(data []byte) error {
	_, err := c.conn.Write(data)
	return err
}

// End closes the socket. Idempotent; safe to call from any goroutine,
// including the one running readLoop (Close unblocks the pending Read).
func (c *Conn) End() error {
	c.closeOnce.Do(func() {
		c.closeErr = c.conn.Close()
	})
	return c.closeErr
}

func (c *Conn) readLoop() {
	buf := make([]byte, 32*1024)
	for {
		n, err := c.conn.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			c.dispatch(chunk)
		}
		if err != nil {
			c.logger.Debug("tcp read loop exiting", zap.Error(err))
			c.mu.Lock()
			h := c.handler
			c.mu.Unlock()
			if h != nil {
				h.OnError(err)
				h.OnClose()
			}
			c.End()
			return
		}
	}
}

func (c *Conn) dispatch(chunk []byte) {
	c.mu.Lock()
	h := c.handler
	c.mu.Unlock()
	if h != nil {
		h.OnData(chunk)
	}
}
