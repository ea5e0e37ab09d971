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

package ewma

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/go-rsocket/rsocket/internal/clock"
)

func TestConvergesTowardOnes(t *testing.T) {
	mc := clock.NewMock(time.Unix(0, 0))
	e := NewWithClock(mc, 30*time.Second, 0)

	for i := 0; i < 2000; i++ {
		mc.Advance(time.Second)
		e.Insert(1.0)
	}
	assert.InDelta(t, 1.0, e.Value(), 1e-6)
}

func TestConvergesTowardZero(t *testing.T) {
	mc := clock.NewMock(time.Unix(0, 0))
	e := NewWithClock(mc, 30*time.Second, 1.0)

	for i := 0; i < 2000; i++ {
		mc.Advance(time.Second)
		e.Insert(0.0)
	}
	assert.InDelta(t, 0.0, e.Value(), 1e-6)
}

func TestHalfLifeHalvesValueAfterOneHalfLife(t *testing.T) {
	mc := clock.NewMock(time.Unix(0, 0))
	e := NewWithClock(mc, 10*time.Second, 1.0)

	mc.Advance(10 * time.Second)
	// Reading Value (no new sample) decays toward 0 by exactly one half-life.
	assert.InDelta(t, 0.5, e.Value(), 1e-9)
}

func TestInsertAtSameInstantKeepsValue(t *testing.T) {
	mc := clock.NewMock(time.Unix(0, 0))
	e := NewWithClock(mc, 10*time.Second, 1.0)
	// No time has elapsed, so alpha is 1 and the new sample carries no weight.
	e.Insert(0.0)
	assert.Equal(t, 1.0, e.Peek())
}

func TestResetSnapsValue(t *testing.T) {
	mc := clock.NewMock(time.Unix(0, 0))
	e := NewWithClock(mc, 10*time.Second, 1.0)
	mc.Advance(100 * time.Second)
	e.Reset(0.75)
	assert.Equal(t, 0.75, e.Peek())
	assert.Equal(t, time.Duration(0), e.Elapsed())
}
