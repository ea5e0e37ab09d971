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

package config

import (
	"time"

	"github.com/go-rsocket/rsocket/internal/backoff"
)

// Backoff specifies a dial backoff strategy for a peer.ConnectionFactory.
// Exponential with full jitter is the only strategy this package knows how
// to build; the field exists so a document can name it explicitly and leave
// room for alternates later.
//
//  exponential:
//    base: 50ms
//    min: 0s
//    max: 1m
type Backoff struct {
	Exponential ExponentialBackoff `config:"exponential"`
}

// Strategy builds the backoff.Strategy this configuration describes.
func (c Backoff) Strategy() (backoff.Strategy, error) {
	return c.Exponential.Strategy()
}

// ExponentialBackoff mirrors internal/backoff's Exponential bounds: base is
// the initial jitter step, min and max clamp every returned duration.
type ExponentialBackoff struct {
	Base time.Duration `config:"base"`
	Min  time.Duration `config:"min"`
	Max  time.Duration `config:"max"`
}

// Strategy builds an internal/backoff.Exponential from the non-zero fields,
// leaving internal/backoff's own defaults in place for the rest, and wraps
// it in a Strategy that always hands back that same instance.
func (c ExponentialBackoff) Strategy() (backoff.Strategy, error) {
	var opts []backoff.Option
	if c.Base > 0 {
		opts = append(opts, backoff.BaseJump(c.Base))
	}
	if c.Min > 0 {
		opts = append(opts, backoff.MinBackoff(c.Min))
	}
	if c.Max > 0 {
		opts = append(opts, backoff.MaxBackoff(c.Max))
	}
	exp, err := backoff.NewExponential(opts...)
	if err != nil {
		return nil, err
	}
	return staticStrategy{exp}, nil
}

// staticStrategy adapts a single, already-built Backoff into a Strategy
// that always returns it, for configuration sources that describe one
// strategy shared across every caller rather than a per-caller random
// source.
type staticStrategy struct{ b backoff.Backoff }

func (s staticStrategy) Backoff() backoff.Backoff { return s.b }
