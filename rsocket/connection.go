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

// Package rsocket implements the connection state machine: the SETUP
// handshake (both roles), the client-side keepalive ticker, server-granted
// lease accounting, per-request timeouts, and the frame dispatch loop that
// drives all of it. Connection is the concrete socket.Socket a peer.Factory
// builds and the balancer package's decorator chain wraps.
package rsocket

import (
	"context"
	"encoding/binary"
	"sync"
	"time"

	"go.uber.org/atomic"
	"go.uber.org/zap"

	"github.com/go-rsocket/rsocket/frame"
	"github.com/go-rsocket/rsocket/internal/clock"
	"github.com/go-rsocket/rsocket/internal/lifecycle"
	"github.com/go-rsocket/rsocket/rsocketerrors"
	"github.com/go-rsocket/rsocket/socket"
	"github.com/go-rsocket/rsocket/transport"
)

// Connection is a single RSocket v0 session over one transport. It implements
// both transport.Handler (to receive inbound bytes) and socket.Socket (to
// offer RequestResponse/Availability/Close to whatever wraps it).
var _ transport.Handler = (*Connection)(nil)
var _ socket.Socket = (*Connection)(nil)

// Connection is not constructed directly; use Dial.
type Connection struct {
	cfg       Config
	transport transport.Transport
	framer    *frame.Framer
	once      *lifecycle.Once

	mu      sync.Mutex
	streams map[uint32]*pendingStream
	inbound map[uint32]*fragmentAccumulator

	streamIDCounter atomic.Uint32

	leaseBudget atomic.Uint32
	leaseExpiry atomic.Int64 // UnixNano; 0 means "lease enabled but never granted"

	setupOnce    sync.Once
	setupReadyCh chan struct{}

	leaseReadyOnce sync.Once
	leaseReadyCh   chan struct{}

	fatalOnce sync.Once
	fatalCh   chan struct{}
	fatalErr  atomic.Error

	keepaliveTicker    clock.Ticker
	lastKeepaliveAckAt atomic.Int64
}

// Dial constructs a Connection over t and runs the SETUP handshake. For
// RoleClient it writes SETUP immediately and, if cfg.Lease is set, blocks
// until the first LEASE arrives; for RoleServer it blocks until the peer's
// SETUP is received. Dial returns once the connection is ready to carry
// RequestResponse traffic, or once ctx is done, or if the handshake fails.
func Dial(ctx context.Context, t transport.Transport, opts ...Option) (*Connection, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	c := &Connection{
		cfg:          cfg,
		transport:    t,
		framer:       frame.NewFramer(),
		once:         lifecycle.NewOnce(),
		streams:      make(map[uint32]*pendingStream),
		inbound:      make(map[uint32]*fragmentAccumulator),
		setupReadyCh: make(chan struct{}),
		leaseReadyCh: make(chan struct{}),
		fatalCh:      make(chan struct{}),
	}
	t.SetHandler(c)

	err := c.once.Start(func() error {
		if cfg.Role == RoleClient {
			if err := c.sendSetup(); err != nil {
				return err
			}
		}
		return c.awaitHandshake(ctx)
	})
	if err != nil {
		cfg.Logger.Error("connection setup failed", zap.Stringer("role", cfg.Role), zap.Error(err))
		return nil, err
	}

	cfg.Logger.Debug("connection established", zap.Stringer("role", cfg.Role))
	if cfg.Role == RoleClient {
		c.startKeepalive()
	}
	return c, nil
}

// awaitHandshake blocks Start's callback until the connection is usable: a
// server waits for the first SETUP; a lease-enabled client waits for the
// first LEASE; everything else is ready as soon as SETUP has been written.
func (c *Connection) awaitHandshake(ctx context.Context) error {
	var readyCh chan struct{}
	switch {
	case c.cfg.Role == RoleServer:
		readyCh = c.setupReadyCh
	case c.cfg.Lease:
		readyCh = c.leaseReadyCh
	default:
		return nil
	}

	select {
	case <-readyCh:
		return nil
	case <-ctx.Done():
		return rsocketerrors.Newf(rsocketerrors.CodeTimeout, "context done while waiting for setup handshake: %v", ctx.Err())
	case <-c.fatalCh:
		return c.fatalErr.Load()
	}
}

// Role reports which side of the handshake this Connection plays.
func (c *Connection) Role() Role { return c.cfg.Role }

// State reports the underlying Start/Stop lifecycle state, mainly useful for
// diagnostics and tests.
func (c *Connection) State() lifecycle.State { return c.once.State() }

// SendLease grants the peer a fresh request budget over ttl. Valid only on a
// RoleServer connection; a client has nothing to grant a lease to in this
// runtime's scope.
func (c *Connection) SendLease(budget uint32, ttl time.Duration) error {
	if c.cfg.Role != RoleServer {
		return rsocketerrors.InvalidErrorf("SendLease called on a client-role connection")
	}
	return c.sendFrame(&frame.Frame{
		Header:         frame.Header{Type: frame.TypeLease, Flags: frame.FlagLease, StreamID: frame.SetupStreamID},
		LeaseTTLMillis: uint32(ttl / time.Millisecond),
		LeaseBudget:    budget,
	})
}

// RequestResponse implements socket.Socket. It is only valid on a RoleClient
// connection, since this runtime's server side is a responder only.
func (c *Connection) RequestResponse(ctx context.Context, req socket.Payload) (socket.Payload, error) {
	if c.cfg.Role != RoleClient {
		return socket.Payload{}, rsocketerrors.InvalidErrorf("RequestResponse called on a server-role connection")
	}
	select {
	case <-c.fatalCh:
		return socket.Payload{}, c.fatalErr.Load()
	default:
	}
	if c.cfg.Lease && c.Availability() == 0 {
		return socket.Payload{}, rsocketerrors.RejectedErrorf("lease budget exhausted")
	}

	id, err := c.nextStreamID()
	if err != nil {
		c.raiseFatal(err)
		return socket.Payload{}, err
	}

	st := newPendingStream(id)
	c.mu.Lock()
	c.streams[id] = st
	c.mu.Unlock()

	c.cfg.Observer.RequestStarted()
	start := c.cfg.Clock.Now()

	timeout := c.cfg.RequestTimeout
	if deadline, ok := ctx.Deadline(); ok {
		if d := deadline.Sub(start); d < timeout {
			timeout = d
		}
	}
	timer := c.cfg.Clock.NewTimer(timeout)
	defer timer.Stop()

	if err := c.sendRequest(id, req); err != nil {
		c.removeStream(id)
		c.cfg.Observer.RequestFailed(c.cfg.Clock.Now().Sub(start))
		return socket.Payload{}, rsocketerrors.ConnectionErrorf("failed to write REQUEST_RESPONSE: %v", err)
	}
	c.decrementLeaseBudget()

	select {
	case res := <-st.resultCh:
		d := c.cfg.Clock.Now().Sub(start)
		if res.err != nil {
			c.cfg.Observer.RequestFailed(d)
		} else {
			c.cfg.Observer.RequestSucceeded(d)
		}
		return res.payload, res.err
	case <-timer.C():
		c.removeStream(id)
		_ = c.sendCancel(id)
		c.cfg.Observer.RequestTimedOut(c.cfg.Clock.Now().Sub(start))
		return socket.Payload{}, rsocketerrors.TimeoutErrorf("request timed out after %s", timeout)
	case <-ctx.Done():
		c.removeStream(id)
		_ = c.sendCancel(id)
		return socket.Payload{}, rsocketerrors.CanceledErrorf("context done: %v", ctx.Err())
	case <-c.fatalCh:
		c.removeStream(id)
		return socket.Payload{}, c.fatalErr.Load()
	}
}

// Availability implements socket.Socket. Any connection reports 0 once
// fatally closed. Otherwise a server-role connection (never itself routed by
// a load balancer in this runtime) and a client without lease report full
// availability; a client with lease reports 0 until a lease arrives and once
// its lease budget or TTL is exhausted.
func (c *Connection) Availability() float64 {
	select {
	case <-c.fatalCh:
		return 0
	default:
	}
	if c.cfg.Role != RoleClient || !c.cfg.Lease {
		return 1.0
	}
	expiry := c.leaseExpiry.Load()
	if expiry == 0 || c.leaseBudget.Load() == 0 {
		return 0
	}
	if c.cfg.Clock.Now().UnixNano() >= expiry {
		return 0
	}
	return 1.0
}

// Close implements socket.Socket: it fails every outstanding stream, stops
// the keepalive ticker, and ends the transport. Idempotent.
func (c *Connection) Close() error {
	c.cfg.Logger.Debug("connection closing", zap.Stringer("role", c.cfg.Role))
	return c.shutdown(rsocketerrors.ConnectionErrorf("connection closed"))
}

// OnError implements transport.Handler.
func (c *Connection) OnError(err error) {
	c.raiseFatal(rsocketerrors.ConnectionErrorf("transport error: %v", err))
}

// OnClose implements transport.Handler.
func (c *Connection) OnClose() {
	c.raiseFatal(rsocketerrors.ConnectionErrorf("transport closed"))
}

// OnData implements transport.Handler: it decodes inbound bytes into frames,
// routing through the length-prefix framer for a framed transport or
// synthesizing the prefix once for a message-oriented one, and dispatches
// each complete frame in arrival order.
func (c *Connection) OnData(data []byte) {
	var frames []*frame.Frame
	if c.transport.Framed() {
		fs, err := c.framer.Push(data)
		if err != nil {
			c.raiseFatal(rsocketerrors.ConnectionErrorf("frame decode failed: %v", err))
			return
		}
		frames = fs
	} else {
		f, err := decodeUnframed(data)
		if err != nil {
			c.raiseFatal(rsocketerrors.ConnectionErrorf("frame decode failed: %v", err))
			return
		}
		frames = []*frame.Frame{f}
	}
	for _, f := range frames {
		c.handleFrame(f)
	}
}

// decodeUnframed synthesizes the 4-byte inclusive length prefix frame.Decode
// expects, so a message-oriented transport (Framed() == false, one transport
// message == one frame) can reuse the exact same decoder as TCP instead of a
// second hand-rolled parse path.
func decodeUnframed(data []byte) (*frame.Frame, error) {
	buf := make([]byte, frame.LengthPrefixLength+len(data))
	binary.BigEndian.PutUint32(buf[:frame.LengthPrefixLength], uint32(len(buf)))
	copy(buf[frame.LengthPrefixLength:], data)
	return frame.Decode(buf)
}

func (c *Connection) handleFrame(f *frame.Frame) {
	switch f.Type {
	case frame.TypeSetup:
		c.handleSetup(f)
	case frame.TypeLease:
		c.handleLease(f)
	case frame.TypeKeepalive:
		c.handleKeepalive(f)
	case frame.TypeRequestResponse:
		c.handleRequest(f)
	case frame.TypeResponse:
		c.handleResponse(f)
	case frame.TypeError:
		c.handleError(f)
	case frame.TypeCancel:
		c.handleCancel(f)
	default:
		c.raiseFatal(rsocketerrors.ConnectionErrorf("received unsupported frame type %s", f.Type))
	}
}

func (c *Connection) handleSetup(f *frame.Frame) {
	if c.cfg.Role != RoleServer {
		c.raiseFatal(rsocketerrors.InvalidSetupErrorf("received SETUP on a client-role connection"))
		return
	}
	first := false
	c.setupOnce.Do(func() {
		first = true
		c.cfg.MetadataEncoding = f.MetadataEncoding
		c.cfg.DataEncoding = f.DataEncoding
		c.cfg.Observer.SetupSucceeded()
		c.cfg.Logger.Debug("SETUP accepted",
			zap.String("metadataEncoding", f.MetadataEncoding),
			zap.String("dataEncoding", f.DataEncoding),
		)
		close(c.setupReadyCh)
	})
	if !first {
		c.cfg.Logger.Error("duplicate SETUP rejected")
		_ = c.sendError(frame.SetupStreamID, frame.ErrorCodeRejectedSetup, "duplicate SETUP")
	}
}

func (c *Connection) handleLease(f *frame.Frame) {
	if c.cfg.Role != RoleClient {
		return
	}
	c.leaseBudget.Store(f.LeaseBudget)
	c.leaseExpiry.Store(c.cfg.Clock.Now().Add(time.Duration(f.LeaseTTLMillis) * time.Millisecond).UnixNano())
	c.cfg.Observer.LeaseReceived()
	c.leaseReadyOnce.Do(func() { close(c.leaseReadyCh) })
}

func (c *Connection) handleKeepalive(f *frame.Frame) {
	if f.Flags.Has(frame.FlagKeepaliveRespond) {
		if err := c.sendKeepalive(false); err != nil {
			c.raiseFatal(rsocketerrors.ConnectionErrorf("failed to send keepalive reply: %v", err))
		}
		return
	}
	c.lastKeepaliveAckAt.Store(c.cfg.Clock.Now().UnixNano())
}

func (c *Connection) handleRequest(f *frame.Frame) {
	if c.cfg.Role != RoleServer {
		c.raiseFatal(rsocketerrors.InvalidErrorf("received REQUEST_RESPONSE on a client-role connection"))
		return
	}

	c.mu.Lock()
	acc, ok := c.inbound[f.StreamID]
	if !ok {
		acc = &fragmentAccumulator{}
		c.inbound[f.StreamID] = acc
	}
	acc.append(f)
	terminal := !f.Flags.Has(frame.FlagFollows)
	if terminal {
		delete(c.inbound, f.StreamID)
	}
	c.mu.Unlock()

	if !terminal {
		return
	}
	go c.serveRequest(f.StreamID, acc.payload())
}

// serveRequest runs the configured RequestHandler off the dispatch goroutine
// so a slow or blocking handler never stalls delivery to other streams.
func (c *Connection) serveRequest(id uint32, req socket.Payload) {
	resp, err := c.cfg.RequestHandler(req)
	if err != nil {
		st := rsocketerrors.FromError(err)
		_ = c.sendError(id, rsocketerrors.ToWireCode(st.Code()), st.Error())
		return
	}
	if err := c.sendResponse(id, resp); err != nil {
		c.raiseFatal(rsocketerrors.ConnectionErrorf("failed to write RESPONSE: %v", err))
	}
}

func (c *Connection) handleResponse(f *frame.Frame) {
	c.mu.Lock()
	st, ok := c.streams[f.StreamID]
	if ok {
		st.append(f)
		if !f.Flags.Has(frame.FlagFollows) {
			delete(c.streams, f.StreamID)
		}
	}
	c.mu.Unlock()

	if !ok || f.Flags.Has(frame.FlagFollows) {
		return
	}
	st.complete(st.payload(), nil)
}

func (c *Connection) handleError(f *frame.Frame) {
	status := rsocketerrors.FromWireCode(f.ErrorCode, string(f.Data))
	if f.StreamID == frame.SetupStreamID {
		c.raiseFatal(status)
		return
	}

	c.mu.Lock()
	st, ok := c.streams[f.StreamID]
	if ok {
		delete(c.streams, f.StreamID)
	}
	c.mu.Unlock()

	if ok {
		st.complete(socket.Payload{}, status)
	}
}

func (c *Connection) handleCancel(f *frame.Frame) {
	c.mu.Lock()
	delete(c.inbound, f.StreamID)
	delete(c.streams, f.StreamID)
	c.mu.Unlock()
}

func (c *Connection) removeStream(id uint32) {
	c.mu.Lock()
	delete(c.streams, id)
	c.mu.Unlock()
}

// failAllStreams drains the stream table and completes every pending
// RequestResponse call with err, used when the connection fails fatally.
func (c *Connection) failAllStreams(err error) {
	c.mu.Lock()
	streams := c.streams
	c.streams = make(map[uint32]*pendingStream)
	c.inbound = make(map[uint32]*fragmentAccumulator)
	c.mu.Unlock()

	for _, st := range streams {
		st.complete(socket.Payload{}, err)
	}
}

// shutdown is the single idempotent path from both a caller-initiated Close
// and an internally-detected fatal error (transport failure, protocol
// violation, stream id exhaustion) to the terminal Stopped/Errored state.
func (c *Connection) shutdown(err error) error {
	c.fatalOnce.Do(func() {
		c.fatalErr.Store(err)
		close(c.fatalCh)
		c.failAllStreams(err)
	})
	return c.once.Stop(func() error {
		if c.keepaliveTicker != nil {
			c.keepaliveTicker.Stop()
		}
		return c.transport.End()
	})
}

func (c *Connection) raiseFatal(err error) {
	_ = c.shutdown(err)
}

func (c *Connection) nextStreamID() (uint32, error) {
	id := c.streamIDCounter.Add(2)
	if id > frame.MaxStreamID {
		return 0, rsocketerrors.ConnectionErrorf("stream id space exhausted")
	}
	return id, nil
}

func (c *Connection) decrementLeaseBudget() {
	if !c.cfg.Lease {
		return
	}
	for {
		cur := c.leaseBudget.Load()
		if cur == 0 {
			return
		}
		if c.leaseBudget.CAS(cur, cur-1) {
			return
		}
	}
}

// startKeepalive runs the client-side-only periodic KEEPALIVE ping. If no
// reply has landed within MaxLifetime of the last one, the connection is
// treated as dead.
func (c *Connection) startKeepalive() {
	c.lastKeepaliveAckAt.Store(c.cfg.Clock.Now().UnixNano())
	c.keepaliveTicker = c.cfg.Clock.NewTicker(c.cfg.KeepaliveInterval)
	go func() {
		for {
			select {
			case <-c.keepaliveTicker.C():
				last := time.Unix(0, c.lastKeepaliveAckAt.Load())
				if c.cfg.Clock.Now().Sub(last) > c.cfg.MaxLifetime {
					c.cfg.Logger.Error("no keepalive reply within max lifetime", zap.Duration("maxLifetime", c.cfg.MaxLifetime))
					c.raiseFatal(rsocketerrors.ConnectionErrorf("no keepalive reply within max lifetime %s", c.cfg.MaxLifetime))
					return
				}
				if err := c.sendKeepalive(true); err != nil {
					c.cfg.Logger.Error("failed to send keepalive", zap.Error(err))
					c.raiseFatal(rsocketerrors.ConnectionErrorf("failed to send keepalive: %v", err))
					return
				}
				c.cfg.Observer.KeepaliveSent()
				c.cfg.Logger.Debug("keepalive sent")
			case <-c.fatalCh:
				return
			}
		}
	}()
}

func (c *Connection) sendFrame(f *frame.Frame) error {
	buf, err := frame.Encode(f)
	if err != nil {
		return err
	}
	if !c.transport.Framed() {
		buf = buf[frame.LengthPrefixLength:]
	}
	return c.transport.Write(buf)
}

func (c *Connection) sendRequest(id uint32, req socket.Payload) error {
	return c.sendFrame(&frame.Frame{
		Header:      frame.Header{Type: frame.TypeRequestResponse, StreamID: id},
		Metadata:    req.Metadata,
		HasMetadata: req.HasMetadata,
		Data:        req.Data,
	})
}

func (c *Connection) sendResponse(id uint32, resp socket.Payload) error {
	return c.sendFrame(&frame.Frame{
		Header:      frame.Header{Type: frame.TypeResponse, StreamID: id},
		Metadata:    resp.Metadata,
		HasMetadata: resp.HasMetadata,
		Data:        resp.Data,
	})
}

func (c *Connection) sendError(id uint32, code frame.ErrorCode, message string) error {
	return c.sendFrame(&frame.Frame{
		Header:    frame.Header{Type: frame.TypeError, StreamID: id},
		ErrorCode: code,
		Data:      []byte(message),
	})
}

func (c *Connection) sendCancel(id uint32) error {
	return c.sendFrame(&frame.Frame{Header: frame.Header{Type: frame.TypeCancel, StreamID: id}})
}

func (c *Connection) sendKeepalive(requestReply bool) error {
	flags := frame.FlagNone
	if requestReply {
		flags = frame.FlagKeepaliveRespond
	}
	return c.sendFrame(&frame.Frame{Header: frame.Header{Type: frame.TypeKeepalive, Flags: flags, StreamID: frame.SetupStreamID}})
}

func (c *Connection) sendSetup() error {
	flags := frame.FlagNone
	if c.cfg.Lease {
		flags |= frame.FlagLease
	}
	if c.cfg.Strict {
		flags |= frame.FlagStrict
	}
	return c.sendFrame(&frame.Frame{
		Header:            frame.Header{Type: frame.TypeSetup, Flags: flags, StreamID: frame.SetupStreamID},
		SetupVersion:      frame.Version,
		KeepaliveMillis:   uint32(c.cfg.KeepaliveInterval / time.Millisecond),
		MaxLifetimeMillis: uint32(c.cfg.MaxLifetime / time.Millisecond),
		MetadataEncoding:  c.cfg.MetadataEncoding,
		DataEncoding:      c.cfg.DataEncoding,
		Metadata:          c.cfg.SetupMetadata,
		HasMetadata:       len(c.cfg.SetupMetadata) > 0,
		Data:              c.cfg.SetupData,
	})
}
