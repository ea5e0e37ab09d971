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

import (
	"time"

	"go.uber.org/zap"

	"github.com/go-rsocket/rsocket/internal/clock"
	"github.com/go-rsocket/rsocket/metrics"
)

// Defaults for LoadBalancer's aperture control, per the spec's configuration
// table.
const (
	DefaultInitialAperture = 5
	DefaultMinAperture     = 4
	DefaultMaxAperture     = 100

	DefaultApertureRefreshPeriod = 100 * time.Millisecond
	DefaultRecyclePeriod         = 5 * time.Minute
	DefaultDrainTimeout          = 30 * time.Second

	// lowWatermark and highWatermark bound the average-outstanding-per-socket
	// range within which the aperture holds steady.
	lowWatermark  = 1.5
	highWatermark = 2.5
)

// Config collects a LoadBalancer's tunables.
type Config struct {
	InitialAperture int
	MinAperture     int
	MaxAperture     int

	ApertureRefreshPeriod time.Duration
	RecyclePeriod         time.Duration
	DrainTimeout          time.Duration

	Logger   *zap.Logger
	Clock    clock.Clock
	Observer *metrics.BalancerObserver
}

// Option configures a Config.
type Option func(*Config)

func defaultConfig() Config {
	return Config{
		InitialAperture:       DefaultInitialAperture,
		MinAperture:           DefaultMinAperture,
		MaxAperture:           DefaultMaxAperture,
		ApertureRefreshPeriod: DefaultApertureRefreshPeriod,
		RecyclePeriod:         DefaultRecyclePeriod,
		DrainTimeout:          DefaultDrainTimeout,
		Logger:                zap.NewNop(),
		Clock:                 clock.Real{},
		Observer:              metrics.NewBalancerObserver(nil),
	}
}

// WithAperture overrides the initial/min/max aperture targets. Default 5/4/100.
func WithAperture(initial, min, max int) Option {
	return func(c *Config) {
		c.InitialAperture = initial
		c.MinAperture = min
		c.MaxAperture = max
	}
}

// WithApertureRefreshPeriod rate-limits how often updateAperture recomputes
// the target. Default 100ms.
func WithApertureRefreshPeriod(d time.Duration) Option {
	return func(c *Config) { c.ApertureRefreshPeriod = d }
}

// WithRecyclePeriod sets the periodic forced-eviction interval. Default 5m.
func WithRecyclePeriod(d time.Duration) Option {
	return func(c *Config) { c.RecyclePeriod = d }
}

// WithDrainTimeout sets the DrainingSocket timeout used when constructing
// member sockets. Default 30s.
func WithDrainTimeout(d time.Duration) Option {
	return func(c *Config) { c.DrainTimeout = d }
}

// WithLogger injects a structured logger. Default zap.NewNop().
func WithLogger(logger *zap.Logger) Option {
	return func(c *Config) {
		if logger != nil {
			c.Logger = logger
		}
	}
}

// WithClock injects a clock, for deterministic tests. Default clock.Real{}.
func WithClock(c2 clock.Clock) Option {
	return func(c *Config) {
		if c2 != nil {
			c.Clock = c2
		}
	}
}

// WithObserver injects a metrics observer. Default a no-op-scoped observer.
func WithObserver(o *metrics.BalancerObserver) Option {
	return func(c *Config) {
		if o != nil {
			c.Observer = o
		}
	}
}
