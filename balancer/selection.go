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

package balancer

import "math/rand"

// maxResampleRounds bounds how many times choose3 re-draws its three sample
// indices looking for a set that is entirely available, before giving up and
// scoring whatever it last drew.
const maxResampleRounds = 5

// choose3 implements power-of-(up-to-)three-choices selection over n
// candidates. For fewer than three candidates it scores all of them
// directly; otherwise it draws three distinct indices (resampling up to
// maxResampleRounds times looking for a set where every member has positive
// availability) and returns the argmax of load among the final draw. Ties
// go to whichever index was considered first.
//
// n == 0 reports ok == false: there is nothing to choose from.
func choose3(n int, availability func(i int) float64, load func(i int) float64, rng *rand.Rand) (best int, ok bool) {
	if n == 0 {
		return 0, false
	}
	if n < 3 {
		return argmax(indices(n), load)
	}

	var sample [3]int
	for round := 0; round < maxResampleRounds; round++ {
		sample = sample3(n, rng)
		if availability(sample[0]) > 0 && availability(sample[1]) > 0 && availability(sample[2]) > 0 {
			break
		}
	}
	return argmax(sample[:], load)
}

func indices(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

// sample3 draws three distinct indices in [0, n) uniformly at random.
func sample3(n int, rng *rand.Rand) [3]int {
	var out [3]int
	seen := make(map[int]bool, 3)
	for i := 0; i < 3; i++ {
		for {
			candidate := rng.Intn(n)
			if !seen[candidate] {
				seen[candidate] = true
				out[i] = candidate
				break
			}
		}
	}
	return out
}

func argmax(candidates []int, load func(i int) float64) (int, bool) {
	if len(candidates) == 0 {
		return 0, false
	}
	best := candidates[0]
	bestLoad := load(best)
	for _, c := range candidates[1:] {
		if l := load(c); l > bestLoad {
			best = c
			bestLoad = l
		}
	}
	return best, true
}
