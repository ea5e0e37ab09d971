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

import (
	"time"

	"go.uber.org/zap"

	"github.com/go-rsocket/rsocket/internal/clock"
)

// DefaultReapInterval is how often the pool scans for dead connections and
// tops itself back up toward its target size.
const DefaultReapInterval = time.Second

// Config collects a TcpLoadBalancer's tunables.
type Config struct {
	Strategy     Strategy
	ReapInterval time.Duration

	Logger *zap.Logger
	Clock  clock.Clock
}

// Option configures a Config.
type Option func(*Config)

func defaultConfig() Config {
	return Config{
		Strategy:     P2CStrategy{},
		ReapInterval: DefaultReapInterval,
		Logger:       zap.NewNop(),
		Clock:        clock.Real{},
	}
}

// WithStrategy overrides the default P2CStrategy selection strategy.
func WithStrategy(s Strategy) Option {
	return func(c *Config) {
		if s != nil {
			c.Strategy = s
		}
	}
}

// WithReapInterval sets how often the pool reaps dead connections and tops
// up toward its target size. Default 1s.
func WithReapInterval(d time.Duration) Option {
	return func(c *Config) { c.ReapInterval = d }
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
