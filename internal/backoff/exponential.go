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

// Package backoff implements a full-jitter exponential backoff strategy used
// by a peer Factory between failed dial attempts.
package backoff

import (
	"math/rand"
	"sync"
	"time"

	"go.uber.org/multierr"

	"github.com/go-rsocket/rsocket/rsocketerrors"
)

// Strategy is a factory for backoff algorithms, each capturing its own
// random source so concurrent factories don't share state.
type Strategy interface {
	Backoff() Backoff
}

// Backoff decides how long to wait before the next attempt, given how many
// attempts have already been made.
type Backoff interface {
	Duration(attempts uint) time.Duration
}

// Option configures an Exponential strategy.
type Option func(*options)

type options struct {
	base, min, max time.Duration
	rand           *rand.Rand
	minMaxDiff     int64
}

func (o options) validate() error {
	var err error
	if o.base <= 0 {
		err = multierr.Append(err, rsocketerrors.InvalidErrorf("invalid base for exponential backoff, need greater than zero"))
	}
	if o.min < 0 {
		err = multierr.Append(err, rsocketerrors.InvalidErrorf("invalid min for exponential backoff, need greater than or equal to zero"))
	}
	if o.max < 0 {
		err = multierr.Append(err, rsocketerrors.InvalidErrorf("invalid max for exponential backoff, need greater than or equal to zero"))
	}
	if o.max < o.min {
		err = multierr.Append(err, rsocketerrors.InvalidErrorf("exponential max value must be greater than min value"))
	}
	return err
}

var defaultOptions = options{
	base: 50 * time.Millisecond,
	max:  time.Minute,
}

// BaseJump sets the initial backoff step.
func BaseJump(d time.Duration) Option {
	return func(o *options) { o.base = d }
}

// MaxBackoff sets the absolute ceiling ever returned.
func MaxBackoff(d time.Duration) Option {
	return func(o *options) { o.max = d }
}

// MinBackoff sets the absolute floor ever returned.
func MinBackoff(d time.Duration) Option {
	return func(o *options) { o.min = d }
}

// randGenerator overrides the random source, for deterministic tests.
func randGenerator(r *rand.Rand) Option {
	return func(o *options) { o.rand = r }
}

// Exponential is a full-jitter exponential backoff
// (https://aws.amazon.com/blogs/architecture/exponential-backoff-and-jitter/)
// with a configurable floor and ceiling. Every returned duration lies in the
// closed [min, max] interval. Stateless and safe for concurrent use; the one
// piece of mutable state is the embedded rand.Rand, which Duration guards
// with its own lock since math/rand.Rand is not concurrency-safe.
type Exponential struct {
	opts options
	mu   lockableRand
}

type lockableRand struct {
	sync.Mutex
	r *rand.Rand
}

// NewExponential builds an Exponential strategy from opts, validating that
// the resulting bounds make sense.
func NewExponential(opts ...Option) (*Exponential, error) {
	o := defaultOptions
	for _, opt := range opts {
		opt(&o)
	}
	if o.rand == nil {
		o.rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if err := o.validate(); err != nil {
		return nil, err
	}
	o.minMaxDiff = o.max.Nanoseconds() - o.min.Nanoseconds()
	return &Exponential{opts: o, mu: lockableRand{r: o.rand}}, nil
}

// Duration returns how long to wait before the (attempts+1)th dial attempt.
func (e *Exponential) Duration(attempts uint) time.Duration {
	minlessBackoff := (int64(1) << minUint(attempts, 62)) * e.opts.base.Nanoseconds()

	if minlessBackoff > e.opts.minMaxDiff || minlessBackoff <= 0 {
		minlessBackoff = e.opts.minMaxDiff
	}
	if minlessBackoff < 0 {
		minlessBackoff = 0
	}

	e.mu.Lock()
	jitter := e.mu.r.Int63n(minlessBackoff + 1)
	e.mu.Unlock()
	return e.opts.min + time.Duration(jitter)
}

func minUint(a, b uint) uint {
	if a < b {
		return a
	}
	return b
}
