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
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-rsocket/rsocket/internal/backoff"
	"github.com/go-rsocket/rsocket/internal/clock"
	"github.com/go-rsocket/rsocket/transport"
)

// noopTransport accepts every write and never calls its handler, enough to
// let a client-role rsocket.Dial complete: a client only blocks on the
// handshake when lease flow control is enabled.
type noopTransport struct{}

func (noopTransport) Write([]byte) error            { return nil }
func (noopTransport) SetHandler(transport.Handler)  {}
func (noopTransport) Framed() bool                  { return true }
func (noopTransport) End() error                    { return nil }

func TestConnectionFactoryBuildSucceedsAndResetsBackoff(t *testing.T) {
	dial := func(ctx context.Context) (transport.Transport, error) {
		return noopTransport{}, nil
	}
	f := NewConnectionFactory("peer-a", dial, nil)

	assert.Equal(t, 1.0, f.Availability())

	sock, err := f.Build(context.Background())
	require.NoError(t, err)
	require.NotNil(t, sock)
	defer sock.Close()

	assert.Equal(t, 1.0, f.Availability())
	assert.Equal(t, "peer-a", f.Name())
}

func TestConnectionFactoryBuildFailureBacksOff(t *testing.T) {
	mc := clock.NewMock(time.Unix(0, 0))
	strategy := constantStrategy{fixedBackoff(100 * time.Millisecond)}

	wantErr := errors.New("dial refused")
	dial := func(ctx context.Context) (transport.Transport, error) {
		return nil, wantErr
	}
	f := NewConnectionFactory("peer-b", dial, strategy, WithClock(mc))

	_, err := f.Build(context.Background())
	require.ErrorIs(t, err, wantErr)

	assert.Equal(t, 0.0, f.Availability())

	mc.Advance(150 * time.Millisecond)
	assert.Equal(t, 1.0, f.Availability())
}

// fixedBackoff always waits the same duration, for deterministic backoff
// assertions independent of the jittered Exponential default.
type fixedBackoff time.Duration

func (b fixedBackoff) Duration(uint) time.Duration { return time.Duration(b) }

var _ backoff.Backoff = fixedBackoff(0)
