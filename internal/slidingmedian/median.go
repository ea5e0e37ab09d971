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

// Package slidingmedian implements a bounded-window order-statistic
// estimator: the median of the last N samples inserted, maintained in a
// sorted buffer of capacity 2N so that the window can slide left or right
// without a full re-sort.
package slidingmedian

import "sync"

// DefaultWindow is the window size (N) used when a WeightedSocket builds a
// Median without an explicit size: 64 round-trip samples.
const DefaultWindow = 64

// Median is a fixed-window median estimator. The zero value is not usable;
// construct with New.
//
// The buffer holds up to 2N samples; the occupied range [from, to) never
// exceeds N elements once the window has filled. Insertions binary-search
// the half of the occupied range indicated by comparison with the midpoint
// element, then shift that half by one slot. When the window is already
// full, the insertion evicts the element from the side opposite the one it
// grew into — an approximate FIFO that keeps the buffer sorted without
// tracking exact insertion order. When a half runs out of slack (its
// boundary touches the edge of the backing array), a compaction recenters
// the occupied window within the buffer before the insertion proceeds.
type Median struct {
	mu       sync.Mutex
	n        int
	buf      []float64
	from, to int
}

// New returns a Median with the given window size N (capacity 2N).
func New(n int) *Median {
	if n <= 0 {
		n = DefaultWindow
	}
	buf := make([]float64, 2*n)
	return &Median{
		n:    n,
		buf:  buf,
		from: n,
		to:   n,
	}
}

// Insert adds a sample to the window, evicting the oldest-by-position
// sample once the window is full.
func (m *Median) Insert(v float64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.to == m.from {
		m.buf[m.from] = v
		m.to++
		return
	}

	mid := (m.from + m.to) / 2
	if v < m.buf[mid] {
		if m.from == 0 {
			m.recenter()
			mid = (m.from + m.to) / 2
		}
		m.insertLeft(v, mid)
		if m.to-m.from > m.n {
			m.to--
		}
		return
	}

	if m.to == len(m.buf) {
		m.recenter()
		mid = (m.from + m.to) / 2
	}
	m.insertRight(v, mid)
	if m.to-m.from > m.n {
		m.from++
	}
}

// Estimate returns the median of the current window, or 0 if no samples
// have been inserted.
func (m *Median) Estimate() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.to == m.from {
		return 0
	}
	return m.buf[(m.from+m.to)/2]
}

// Len reports how many samples are currently held.
func (m *Median) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.to - m.from
}

// insertLeft inserts v into the sorted sub-range [from, mid), shifting that
// half down by one slot. Must be called with the lock held and with from>0.
func (m *Median) insertLeft(v float64, mid int) {
	lo, hi := m.from, mid
	for lo < hi {
		h := (lo + hi) / 2
		if m.buf[h] < v {
			lo = h + 1
		} else {
			hi = h
		}
	}
	pos := lo
	copy(m.buf[m.from-1:pos-1], m.buf[m.from:pos])
	m.buf[pos-1] = v
	m.from--
}

// insertRight inserts v into the sorted sub-range [mid, to), shifting that
// half up by one slot. Must be called with the lock held and to<len(buf).
func (m *Median) insertRight(v float64, mid int) {
	lo, hi := mid, m.to
	for lo < hi {
		h := (lo + hi) / 2
		if m.buf[h] <= v {
			lo = h + 1
		} else {
			hi = h
		}
	}
	pos := lo
	copy(m.buf[pos+1:m.to+1], m.buf[pos:m.to])
	m.buf[pos] = v
	m.to++
}

// recenter moves the occupied range to the middle of the backing array,
// restoring slack on both sides. Must be called with the lock held.
func (m *Median) recenter() {
	count := m.to - m.from
	newFrom := (len(m.buf) - count) / 2
	if newFrom == m.from {
		return
	}
	tmp := make([]float64, count)
	copy(tmp, m.buf[m.from:m.to])
	copy(m.buf[newFrom:newFrom+count], tmp)
	m.from = newFrom
	m.to = newFrom + count
}
