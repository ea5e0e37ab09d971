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

	"github.com/go-rsocket/rsocket/tcpbalancer"
)

// TcpBalancer is the YAML-facing shape of a tcpbalancer.Config.
//
//  size: 4
//  strategy: p2c
//  reapInterval: 1s
type TcpBalancer struct {
	Size         int           `config:"size"`
	Strategy     strategyName  `config:"strategy"`
	ReapInterval time.Duration `config:"reapInterval"`
}

// DecodeTcpBalancer decodes a YAML-unmarshaled document into a TcpBalancer.
func DecodeTcpBalancer(src interface{}) (TcpBalancer, error) {
	var b TcpBalancer
	if err := decodeInto(&b, src); err != nil {
		return TcpBalancer{}, err
	}
	return b, nil
}

// Options renders the decoded document into tcpbalancer.Options. Size is
// not one of them since tcpbalancer.New takes it as a positional argument;
// callers read TcpBalancer.Size directly.
func (b TcpBalancer) Options() []tcpbalancer.Option {
	var opts []tcpbalancer.Option
	if b.Strategy != "" {
		opts = append(opts, tcpbalancer.WithStrategy(b.Strategy.strategy()))
	}
	if b.ReapInterval > 0 {
		opts = append(opts, tcpbalancer.WithReapInterval(b.ReapInterval))
	}
	return opts
}

// strategyName names a tcpbalancer.Strategy by its configuration string.
type strategyName string

func (n *strategyName) Decode(into mapdecode.Into) error {
	var s string
	if err := into(&s); err != nil {
		return fmt.Errorf("could not decode tcp balancer strategy: %v", err)
	}
	switch s {
	case "p2c", "uniform", "":
		*n = strategyName(s)
	default:
		return fmt.Errorf("unrecognized tcp balancer strategy %q, want p2c or uniform", s)
	}
	return nil
}

func (n strategyName) strategy() tcpbalancer.Strategy {
	if n == "uniform" {
		return tcpbalancer.UniformRandomStrategy{}
	}
	return tcpbalancer.P2CStrategy{}
}
