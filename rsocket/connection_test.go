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
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-rsocket/rsocket/frame"
	"github.com/go-rsocket/rsocket/internal/clock"
	"github.com/go-rsocket/rsocket/rsocketerrors"
	"github.com/go-rsocket/rsocket/socket"
)

type dialOutcome struct {
	conn *Connection
	err  error
}

func mustEncode(t *testing.T, f *frame.Frame) []byte {
	t.Helper()
	b, err := frame.Encode(f)
	require.NoError(t, err)
	return b
}

func TestConnectionRequestResponseEchoesPayload(t *testing.T) {
	serverSide, clientSide := newPipePair()

	srvCh := make(chan dialOutcome, 1)
	go func() {
		srv, err := Dial(context.Background(), serverSide, WithRole(RoleServer))
		srvCh <- dialOutcome{srv, err}
	}()

	cli, err := Dial(context.Background(), clientSide)
	require.NoError(t, err)
	defer cli.Close()

	srvOutcome := <-srvCh
	require.NoError(t, srvOutcome.err)
	defer srvOutcome.conn.Close()

	resp, err := cli.RequestResponse(context.Background(), socket.Payload{Data: []byte("ping")})
	require.NoError(t, err)
	assert.Equal(t, "ping", string(resp.Data))
}

func TestConnectionRequestTimesOutWhenNoResponse(t *testing.T) {
	clientSide, _ := newPipePair()
	mc := clock.NewMock(time.Unix(0, 0))

	cli, err := Dial(context.Background(), clientSide, WithClock(mc), WithRequestTimeout(50*time.Millisecond))
	require.NoError(t, err)
	defer cli.Close()

	resCh := make(chan error, 1)
	go func() {
		_, err := cli.RequestResponse(context.Background(), socket.Payload{Data: []byte("ping")})
		resCh <- err
	}()
	time.Sleep(10 * time.Millisecond)

	var gotErr error
	assert.Eventually(t, func() bool {
		mc.Advance(10 * time.Millisecond)
		select {
		case gotErr = <-resCh:
			return true
		default:
			return false
		}
	}, time.Second, time.Millisecond)

	require.Error(t, gotErr)
	assert.True(t, rsocketerrors.IsCode(gotErr, rsocketerrors.CodeTimeout))
}

func TestConnectionCloseFailsOutstandingRequests(t *testing.T) {
	clientSide, _ := newPipePair()

	cli, err := Dial(context.Background(), clientSide)
	require.NoError(t, err)

	resCh := make(chan error, 1)
	go func() {
		_, err := cli.RequestResponse(context.Background(), socket.Payload{})
		resCh <- err
	}()
	time.Sleep(10 * time.Millisecond)

	require.NoError(t, cli.Close())

	select {
	case err := <-resCh:
		require.Error(t, err)
	case <-time.After(time.Second):
		t.Fatal("RequestResponse never returned after Close")
	}
}

func TestConnectionServerRejectsDuplicateSetup(t *testing.T) {
	serverSide, raw := newPipePair()

	outcomeCh := make(chan dialOutcome, 1)
	go func() {
		srv, err := Dial(context.Background(), serverSide, WithRole(RoleServer))
		outcomeCh <- dialOutcome{srv, err}
	}()

	setup := mustEncode(t, &frame.Frame{
		Header:           frame.Header{Type: frame.TypeSetup, StreamID: frame.SetupStreamID},
		SetupVersion:     frame.Version,
		MetadataEncoding: "utf-8",
		DataEncoding:     "utf-8",
	})
	require.NoError(t, raw.Write(setup))

	outcome := <-outcomeCh
	require.NoError(t, outcome.err)
	defer outcome.conn.Close()

	require.NoError(t, raw.Write(setup))

	select {
	case data := <-raw.recv:
		f, err := frame.Decode(data)
		require.NoError(t, err)
		assert.Equal(t, frame.TypeError, f.Type)
		assert.Equal(t, frame.ErrorCodeRejectedSetup, f.ErrorCode)
	case <-time.After(time.Second):
		t.Fatal("expected a REJECTED_SETUP error frame")
	}
}

func TestConnectionServerReassemblesFollowsFragments(t *testing.T) {
	serverSide, raw := newPipePair()

	gotCh := make(chan socket.Payload, 1)
	handler := func(req socket.Payload) (socket.Payload, error) {
		gotCh <- req
		return req, nil
	}

	outcomeCh := make(chan dialOutcome, 1)
	go func() {
		srv, err := Dial(context.Background(), serverSide, WithRole(RoleServer), WithRequestHandler(handler))
		outcomeCh <- dialOutcome{srv, err}
	}()

	setup := mustEncode(t, &frame.Frame{
		Header:           frame.Header{Type: frame.TypeSetup, StreamID: frame.SetupStreamID},
		SetupVersion:     frame.Version,
		MetadataEncoding: "utf-8",
		DataEncoding:     "utf-8",
	})
	require.NoError(t, raw.Write(setup))

	outcome := <-outcomeCh
	require.NoError(t, outcome.err)
	defer outcome.conn.Close()

	first := mustEncode(t, &frame.Frame{
		Header: frame.Header{Type: frame.TypeRequestResponse, Flags: frame.FlagFollows, StreamID: 2},
		Data:   []byte("hello "),
	})
	second := mustEncode(t, &frame.Frame{
		Header: frame.Header{Type: frame.TypeRequestResponse, StreamID: 2},
		Data:   []byte("world"),
	})
	require.NoError(t, raw.Write(first))
	require.NoError(t, raw.Write(second))

	select {
	case got := <-gotCh:
		assert.Equal(t, "hello world", string(got.Data))
	case <-time.After(time.Second):
		t.Fatal("handler never invoked")
	}
}

func TestConnectionLeaseGatesAvailabilityAndRejectsOnExhaustion(t *testing.T) {
	serverSide, clientSide := newPipePair()
	mc := clock.NewMock(time.Unix(0, 0))

	srvCh := make(chan dialOutcome, 1)
	go func() {
		srv, err := Dial(context.Background(), serverSide, WithRole(RoleServer))
		srvCh <- dialOutcome{srv, err}
	}()

	cliCh := make(chan dialOutcome, 1)
	go func() {
		cli, err := Dial(context.Background(), clientSide, WithLease(true), WithClock(mc))
		cliCh <- dialOutcome{cli, err}
	}()

	srvOutcome := <-srvCh
	require.NoError(t, srvOutcome.err)
	defer srvOutcome.conn.Close()

	require.NoError(t, srvOutcome.conn.SendLease(2, 100*time.Millisecond))

	cliOutcome := <-cliCh
	require.NoError(t, cliOutcome.err)
	cli := cliOutcome.conn
	defer cli.Close()

	assert.Equal(t, 1.0, cli.Availability())

	_, err := cli.RequestResponse(context.Background(), socket.Payload{})
	require.NoError(t, err)
	_, err = cli.RequestResponse(context.Background(), socket.Payload{})
	require.NoError(t, err)

	assert.Equal(t, 0.0, cli.Availability())

	_, err = cli.RequestResponse(context.Background(), socket.Payload{})
	assert.True(t, rsocketerrors.IsCode(err, rsocketerrors.CodeRejected))
}

func TestConnectionSnapshotReportsLeaseAndStreamState(t *testing.T) {
	serverSide, clientSide := newPipePair()
	mc := clock.NewMock(time.Unix(0, 0))

	srvCh := make(chan dialOutcome, 1)
	go func() {
		srv, err := Dial(context.Background(), serverSide, WithRole(RoleServer))
		srvCh <- dialOutcome{srv, err}
	}()

	cliCh := make(chan dialOutcome, 1)
	go func() {
		cli, err := Dial(context.Background(), clientSide, WithLease(true), WithClock(mc))
		cliCh <- dialOutcome{cli, err}
	}()

	srvOutcome := <-srvCh
	require.NoError(t, srvOutcome.err)
	defer srvOutcome.conn.Close()

	require.NoError(t, srvOutcome.conn.SendLease(3, time.Second))

	cliOutcome := <-cliCh
	require.NoError(t, cliOutcome.err)
	cli := cliOutcome.conn
	defer cli.Close()

	snap := cli.Snapshot()
	assert.Equal(t, RoleClient, snap.Role)
	assert.True(t, snap.LeaseEnabled)
	assert.Equal(t, uint32(3), snap.LeaseBudget)
	assert.False(t, snap.LeaseExpiry.IsZero())
	assert.Equal(t, 0, snap.StreamCount)

	srvSnap := srvOutcome.conn.Snapshot()
	assert.Equal(t, RoleServer, srvSnap.Role)
	assert.False(t, srvSnap.LeaseEnabled)
}
