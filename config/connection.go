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
	"fmt"
	"time"

	"github.com/uber-go/mapdecode"

	"github.com/go-rsocket/rsocket/rsocket"
)

// Connection is the YAML-facing shape of a rsocket.Config.
//
//  role: client
//  keepaliveInterval: 1s
//  maxLifetime: 10s
//  requestTimeout: 30s
//  metadataEncoding: utf-8
//  dataEncoding: utf-8
//  lease: false
//  strict: false
type Connection struct {
	Role              role          `config:"role"`
	KeepaliveInterval time.Duration `config:"keepaliveInterval"`
	MaxLifetime       time.Duration `config:"maxLifetime"`
	RequestTimeout    time.Duration `config:"requestTimeout"`
	MetadataEncoding  string        `config:"metadataEncoding"`
	DataEncoding      string        `config:"dataEncoding"`
	Lease             bool          `config:"lease"`
	Strict            bool          `config:"strict"`
}

// DecodeConnection decodes a YAML-unmarshaled document (typically a
// map[string]interface{}) into a Connection.
func DecodeConnection(src interface{}) (Connection, error) {
	var c Connection
	if err := decodeInto(&c, src); err != nil {
		return Connection{}, err
	}
	return c, nil
}

// Options renders the decoded document into rsocket.Options. Duration and
// string fields are only applied when the document set them, leaving
// rsocket's own defaults in place otherwise; lease and strict are plain
// booleans with no unset state, so they're always applied.
func (c Connection) Options() []rsocket.Option {
	var opts []rsocket.Option
	if c.Role != 0 {
		opts = append(opts, rsocket.WithRole(rsocket.Role(c.Role-1)))
	}
	if c.KeepaliveInterval > 0 {
		opts = append(opts, rsocket.WithKeepaliveInterval(c.KeepaliveInterval))
	}
	if c.MaxLifetime > 0 {
		opts = append(opts, rsocket.WithMaxLifetime(c.MaxLifetime))
	}
	if c.RequestTimeout > 0 {
		opts = append(opts, rsocket.WithRequestTimeout(c.RequestTimeout))
	}
	if c.MetadataEncoding != "" || c.DataEncoding != "" {
		metadataEncoding := c.MetadataEncoding
		if metadataEncoding == "" {
			metadataEncoding = "utf-8"
		}
		dataEncoding := c.DataEncoding
		if dataEncoding == "" {
			dataEncoding = "utf-8"
		}
		opts = append(opts, rsocket.WithEncodings(metadataEncoding, dataEncoding))
	}
	opts = append(opts, rsocket.WithLease(c.Lease))
	opts = append(opts, rsocket.WithStrict(c.Strict))
	return opts
}

// role decodes the "client"/"server" strings a document names into
// rsocket.RoleClient/rsocket.RoleServer. It's offset by one internally so
// the zero value means "unset" rather than colliding with RoleClient's own
// zero value.
type role int

func (r *role) Decode(into mapdecode.Into) error {
	var s string
	if err := into(&s); err != nil {
		return fmt.Errorf("could not decode connection role: %v", err)
	}
	switch s {
	case "client":
		*r = role(rsocket.RoleClient) + 1
	case "server":
		*r = role(rsocket.RoleServer) + 1
	default:
		return fmt.Errorf("unrecognized connection role %q, want client or server", s)
	}
	return nil
}
