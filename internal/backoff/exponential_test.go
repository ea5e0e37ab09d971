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

package backoff

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewExponentialValidatesBounds(t *testing.T) {
	_, err := NewExponential(MinBackoff(time.Second), MaxBackoff(time.Millisecond))
	assert.Error(t, err)

	_, err = NewExponential(BaseJump(0))
	assert.Error(t, err)
}

func TestDurationStaysWithinBounds(t *testing.T) {
	b, err := NewExponential(
		BaseJump(time.Millisecond),
		MinBackoff(10*time.Millisecond),
		MaxBackoff(time.Second),
		randGenerator(rand.New(rand.NewSource(1))),
	)
	require.NoError(t, err)

	for attempt := uint(0); attempt < 40; attempt++ {
		d := b.Duration(attempt)
		assert.GreaterOrEqual(t, d, 10*time.Millisecond)
		assert.LessOrEqual(t, d, time.Second)
	}
}

func TestDurationGrowsWithAttemptsBeforeSaturating(t *testing.T) {
	b, err := NewExponential(
		BaseJump(time.Millisecond),
		MinBackoff(0),
		MaxBackoff(time.Hour),
		randGenerator(rand.New(rand.NewSource(1))),
	)
	require.NoError(t, err)

	// With min=0 and a fixed seed, the ceiling of the jitter range is
	// nondecreasing in attempts until it saturates at max, and Duration
	// never exceeds it.
	var prevCeil int64
	for attempt := uint(0); attempt < 30; attempt++ {
		ceil := int64(1) << attempt * int64(time.Millisecond)
		if ceil > int64(time.Hour) || ceil <= 0 {
			ceil = int64(time.Hour)
		}
		assert.GreaterOrEqual(t, ceil, prevCeil)
		assert.LessOrEqual(t, b.Duration(attempt), time.Duration(ceil))
		prevCeil = ceil
	}
}
