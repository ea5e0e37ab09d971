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

	"github.com/go-rsocket/rsocket/balancer"
)

// Balancer is the YAML-facing shape of a balancer.Config.
//
//  aperture:
//    initial: 5
//    min: 4
//    max: 100
//  apertureRefreshPeriod: 100ms
//  recyclePeriod: 5m
//  drainTimeout: 30s
type Balancer struct {
	Aperture              ApertureWindow `config:"aperture"`
	ApertureRefreshPeriod time.Duration  `config:"apertureRefreshPeriod"`
	RecyclePeriod         time.Duration  `config:"recyclePeriod"`
	DrainTimeout          time.Duration  `config:"drainTimeout"`
}

// ApertureWindow names the initial, minimum, and maximum aperture targets.
type ApertureWindow struct {
	Initial int `config:"initial"`
	Min     int `config:"min"`
	Max     int `config:"max"`
}

// DecodeBalancer decodes a YAML-unmarshaled document into a Balancer.
func DecodeBalancer(src interface{}) (Balancer, error) {
	var b Balancer
	if err := decodeInto(&b, src); err != nil {
		return Balancer{}, err
	}
	return b, nil
}

// Options renders the decoded document into balancer.Options.
func (b Balancer) Options() []balancer.Option {
	var opts []balancer.Option
	if w := b.Aperture; w.Initial > 0 || w.Min > 0 || w.Max > 0 {
		initial, min, max := w.Initial, w.Min, w.Max
		if initial == 0 {
			initial = balancer.DefaultInitialAperture
		}
		if min == 0 {
			min = balancer.DefaultMinAperture
		}
		if max == 0 {
			max = balancer.DefaultMaxAperture
		}
		opts = append(opts, balancer.WithAperture(initial, min, max))
	}
	if b.ApertureRefreshPeriod > 0 {
		opts = append(opts, balancer.WithApertureRefreshPeriod(b.ApertureRefreshPeriod))
	}
	if b.RecyclePeriod > 0 {
		opts = append(opts, balancer.WithRecyclePeriod(b.RecyclePeriod))
	}
	if b.DrainTimeout > 0 {
		opts = append(opts, balancer.WithDrainTimeout(b.DrainTimeout))
	}
	return opts
}
