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

package metrics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uber-go/tally"
)

func TestConnectionObserverNilScopeDoesNotPanic(t *testing.T) {
	o := NewConnectionObserver(nil)
	assert.NotPanics(t, func() {
		o.SetupSucceeded()
		o.RequestStarted()
		o.RequestSucceeded(time.Millisecond)
	})
}

func TestConnectionObserverRecordsCounters(t *testing.T) {
	scope := tally.NewTestScope("", nil)
	o := NewConnectionObserver(scope)

	o.SetupSucceeded()
	o.RequestStarted()
	o.RequestSucceeded(5 * time.Millisecond)
	o.RequestFailed(1 * time.Millisecond)
	o.RequestTimedOut(2 * time.Millisecond)

	snap := scope.Snapshot()
	require.NotEmpty(t, snap.Counters())

	found := map[string]int64{}
	for _, c := range snap.Counters() {
		found[c.Name()] += c.Value()
	}
	assert.Equal(t, int64(1), found["connection_setup"])
	assert.Equal(t, int64(1), found["requests_started"])
}

func TestBalancerObserverReportsGauges(t *testing.T) {
	scope := tally.NewTestScope("", nil)
	o := NewBalancerObserver(scope)

	o.ReportAperture(7, 5)
	o.SocketAdded()
	o.SocketRemoved()
	o.SocketRecycled()
	o.SelectFailed()

	snap := scope.Snapshot()
	gauges := snap.Gauges()
	require.Contains(t, gauges, "aperture_size+")
	assert.Equal(t, float64(7), gauges["aperture_size+"].Value())
	assert.Equal(t, float64(5), gauges["connected_sockets+"].Value())
}

func TestBalancerObserverExposesScope(t *testing.T) {
	scope := tally.NewTestScope("", nil)
	o := NewBalancerObserver(scope)
	assert.Same(t, scope, o.Scope())
}
