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

package tcpbalancer

import "math/rand"

// Strategy picks one of candidates by address, given each candidate's
// current availability. It is the pool's selection plug-in point, mirroring
// the way an api/peer.Chooser can be swapped out independently of the list
// that maintains membership.
type Strategy interface {
	Choose(candidates []string, availability func(addr string) float64, rng *rand.Rand) (string, bool)
}

// P2CStrategy is the default: draw two distinct candidates at random and
// keep the one with higher availability (ties keep whichever was drawn
// first). With fewer than two candidates it just returns what there is.
type P2CStrategy struct{}

// Choose implements Strategy.
func (P2CStrategy) Choose(candidates []string, availability func(addr string) float64, rng *rand.Rand) (string, bool) {
	switch len(candidates) {
	case 0:
		return "", false
	case 1:
		return candidates[0], true
	}

	i := rng.Intn(len(candidates))
	j := i
	for j == i {
		j = rng.Intn(len(candidates))
	}

	a, b := candidates[i], candidates[j]
	if availability(b) > availability(a) {
		return b, true
	}
	return a, true
}

// UniformRandomStrategy ignores availability and picks uniformly at random,
// the spec's named fallback strategy.
type UniformRandomStrategy struct{}

// Choose implements Strategy.
func (UniformRandomStrategy) Choose(candidates []string, availability func(addr string) float64, rng *rand.Rand) (string, bool) {
	if len(candidates) == 0 {
		return "", false
	}
	return candidates[rng.Intn(len(candidates))], true
}
