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

package tcp

import (
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-rsocket/rsocket/transport"
)

type recordingHandler struct {
	mu     sync.Mutex
	chunks [][]byte
	err    error
	closed bool
	dataCh chan struct{}
}

func newRecordingHandler() *recordingHandler {
	return &recordingHandler{dataCh: make(chan struct{}, 16)}
}

func (h *recordingHandler) OnData(data []byte) {
	h.mu.Lock()
	cp := make([]byte, len(data))
	copy(cp, data)
	h.chunks = append(h.chunks, cp)
	h.mu.Unlock()
	h.dataCh <- struct{}{}
}

func (h *recordingHandler) OnError(err error) {
	h.mu.Lock()
	h.err = err
	h.mu.Unlock()
}

func (h *recordingHandler) OnClose() {
	h.mu.Lock()
	h.closed = true
	h.mu.Unlock()
}

func (h *recordingHandler) snapshot() ([][]byte, error, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.chunks, h.err, h.closed
}

func TestConnDeliversWrittenData(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()

	c := NewConn(server, nil)
	var _ transport.Transport = c

	h := newRecordingHandler()
	c.SetHandler(h)

	_, err := client.Write([]byte("hello"))
	require.NoError(t, err)

	select {
	case <-h.dataCh:
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for data")
	}

	chunks, _, _ := h.snapshot()
	require.Len(t, chunks, 1)
	assert.Equal(t, []byte("hello"), chunks[0])
}

func TestConnWritePropagatesToPeer(t *testing.T) {
	client, server := net.Pipe()
	defer server.Close()

	c := NewConn(server, nil)
	h := newRecordingHandler()
	c.SetHandler(h)

	writeErr := make(chan error, 1)
	go func() { writeErr <- c.Write([]byte("ping")) }()

	buf := make([]byte, 4)
	client.SetReadDeadline(time.Now().Add(time.Second))
	n, err := client.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, "ping", string(buf[:n]))
	require.NoError(t, <-writeErr)
}

func TestConnEndClosesAndNotifiesHandlerOnPeerClose(t *testing.T) {
	client, server := net.Pipe()

	c := NewConn(server, nil)
	h := newRecordingHandler()
	c.SetHandler(h)

	require.NoError(t, client.Close())

	assert.Eventually(t, func() bool {
		_, _, closed := h.snapshot()
		return closed
	}, time.Second, 10*time.Millisecond)

	assert.NoError(t, c.End())
}

func TestConnFramedIsTrue(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()
	c := NewConn(server, nil)
	assert.True(t, c.Framed())
}

func TestConnEndIsIdempotent(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	c := NewConn(server, nil)
	assert.NoError(t, c.End())
	assert.NoError(t, c.End())
}
