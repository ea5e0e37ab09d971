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

package socket

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-rsocket/rsocket/internal/clock"
)

func TestDrainingSocketClosesImmediatelyWhenIdle(t *testing.T) {
	inner := newFakeSocket()
	d := NewDrainingSocket(inner)

	require.NoError(t, d.Close())
	assert.True(t, inner.isClosed())
}

func TestDrainingSocketAvailabilityZeroWhilePending(t *testing.T) {
	inner := newFakeSocket()
	inner.release = make(chan struct{})
	d := NewDrainingSocket(inner)

	done := make(chan struct{})
	go func() {
		_, _ = d.RequestResponse(context.Background(), Payload{})
		close(done)
	}()

	// Give the request a moment to register as outstanding.
	time.Sleep(10 * time.Millisecond)

	closeDone := make(chan struct{})
	go func() {
		_ = d.Close()
		close(closeDone)
	}()
	time.Sleep(10 * time.Millisecond)

	assert.Equal(t, 0.0, d.Availability())

	close(inner.release)
	<-done
	<-closeDone
	assert.True(t, inner.isClosed())
}

func TestDrainingSocketClosesOnTimeoutEvenIfOutstanding(t *testing.T) {
	inner := newFakeSocket()
	inner.release = make(chan struct{}) // never released

	mc := clock.NewMock(time.Unix(0, 0))
	d := NewDrainingSocketWithClock(inner, mc, 50*time.Millisecond)

	go func() {
		_, _ = d.RequestResponse(context.Background(), Payload{})
	}()
	time.Sleep(10 * time.Millisecond)

	closeDone := make(chan struct{})
	go func() {
		require.NoError(t, d.Close())
		close(closeDone)
	}()
	time.Sleep(10 * time.Millisecond)

	assert.Eventually(t, func() bool {
		mc.Advance(10 * time.Millisecond)
		select {
		case <-closeDone:
			return true
		default:
			return false
		}
	}, time.Second, time.Millisecond)

	assert.True(t, inner.isClosed())
}

func TestDrainingSocketCloseIsIdempotent(t *testing.T) {
	inner := newFakeSocket()
	d := NewDrainingSocket(inner)
	require.NoError(t, d.Close())
	require.NoError(t, d.Close())
}
