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
	"math"
	"sync"
)

// SampleEWMA is a constant-alpha exponentially weighted moving average
// decayed per sample rather than per unit time, for signals like the
// ReEnqueueFilter's reenqueue rate where "half-life" means "after N
// samples", not "after N seconds".
type SampleEWMA struct {
	mu    sync.Mutex
	alpha float64
	value float64
}

// NewSampleEWMA returns a SampleEWMA whose weight halves every halfLife
// samples.
func NewSampleEWMA(halfLife float64, initial float64) *SampleEWMA {
	return &SampleEWMA{
		alpha: math.Exp(-ln2 / halfLife),
		value: initial,
	}
}

// Insert folds x into the average: value = alpha*value + (1-alpha)*x.
func (s *SampleEWMA) Insert(x float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.value = s.alpha*s.value + (1-s.alpha)*x
}

// Value returns the current estimate without mutating it.
func (s *SampleEWMA) Value() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.value
}
