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

package rsocket

import (
	"time"

	"go.uber.org/zap"

	"github.com/go-rsocket/rsocket/internal/clock"
	"github.com/go-rsocket/rsocket/metrics"
	"github.com/go-rsocket/rsocket/socket"
)

// Role distinguishes which side of the handshake a Connection plays.
type Role int

// Recognized roles.
const (
	RoleClient Role = iota
	RoleServer
)

func (r Role) String() string {
	if r == RoleServer {
		return "server"
	}
	return "client"
}

// RequestHandler answers an inbound REQUEST_RESPONSE when this Connection
// plays RoleServer. The default handler echoes the request back, matching
// the spec's restriction to "server-side request routing beyond echoing
// frames back" being out of scope.
type RequestHandler func(req socket.Payload) (socket.Payload, error)

func echoHandler(req socket.Payload) (socket.Payload, error) {
	return req, nil
}

// Config collects a Connection's tunables. Construct with defaultConfig and
// apply Options, or use the config package to load one from YAML.
type Config struct {
	Role Role

	KeepaliveInterval time.Duration
	MaxLifetime       time.Duration
	RequestTimeout    time.Duration

	MetadataEncoding string
	DataEncoding     string

	Lease  bool
	Strict bool

	SetupMetadata []byte
	SetupData     []byte

	RequestHandler RequestHandler

	Logger   *zap.Logger
	Clock    clock.Clock
	Observer *metrics.ConnectionObserver
}

// Option configures a Config.
type Option func(*Config)

func defaultConfig() Config {
	return Config{
		Role:              RoleClient,
		KeepaliveInterval: time.Second,
		MaxLifetime:       10 * time.Second,
		RequestTimeout:    30 * time.Second,
		MetadataEncoding:  "utf-8",
		DataEncoding:      "utf-8",
		RequestHandler:    echoHandler,
		Logger:            zap.NewNop(),
		Clock:             clock.Real{},
		Observer:          metrics.NewConnectionObserver(nil),
	}
}

// WithRole sets the handshake role. Default RoleClient.
func WithRole(r Role) Option { return func(c *Config) { c.Role = r } }

// WithKeepaliveInterval sets the client keepalive period. Default 1s.
func WithKeepaliveInterval(d time.Duration) Option {
	return func(c *Config) { c.KeepaliveInterval = d }
}

// WithMaxLifetime sets the max-lifetime advertised in SETUP. Default 10s.
func WithMaxLifetime(d time.Duration) Option {
	return func(c *Config) { c.MaxLifetime = d }
}

// WithRequestTimeout sets the default per-request timeout. Default 30s.
func WithRequestTimeout(d time.Duration) Option {
	return func(c *Config) { c.RequestTimeout = d }
}

// WithEncodings sets the metadata and data encoding names advertised in
// SETUP. Default "utf-8" for both.
func WithEncodings(metadataEncoding, dataEncoding string) Option {
	return func(c *Config) {
		c.MetadataEncoding = metadataEncoding
		c.DataEncoding = dataEncoding
	}
}

// WithLease enables the LEASE flow-control handshake flag.
func WithLease(enabled bool) Option { return func(c *Config) { c.Lease = enabled } }

// WithStrict sets the STRICT handshake flag.
func WithStrict(enabled bool) Option { return func(c *Config) { c.Strict = enabled } }

// WithSetupPayload sets the metadata/data carried on the SETUP frame.
func WithSetupPayload(metadata, data []byte) Option {
	return func(c *Config) {
		c.SetupMetadata = metadata
		c.SetupData = data
	}
}

// WithRequestHandler overrides the default echo handler used when this
// Connection plays RoleServer.
func WithRequestHandler(h RequestHandler) Option {
	return func(c *Config) { c.RequestHandler = h }
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
func WithObserver(o *metrics.ConnectionObserver) Option {
	return func(c *Config) {
		if o != nil {
			c.Observer = o
		}
	}
}
