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

// MemberSnapshot is a point-in-time summary of one connected member,
// mirroring api/x/introspection.PeerStatus's "name plus live state" shape.
type MemberSnapshot struct {
	Name             string
	Availability     float64
	PredictedLatency float64
	Outstanding      int64
}

// Snapshot is a point-in-time diagnostic summary of a LoadBalancer, never
// wired to any transport — exported purely for callers and tests that want
// to inspect live aperture/member state, the way
// api/x/introspection.ChooserStatus summarizes an abstractlist.List without
// participating in selection.
type Snapshot struct {
	Aperture      int
	PendingBuilds int
	FactoryCount  int
	Members       []MemberSnapshot
}

// Snapshot reports the current aperture target, how many Builds are in
// flight, how many factories are idle in the pool, and per-member
// availability/predicted-latency/outstanding-request state.
func (lb *LoadBalancer) Snapshot() Snapshot {
	lb.mu.Lock()
	defer lb.mu.Unlock()

	members := make([]MemberSnapshot, 0, len(lb.members))
	for _, m := range lb.members {
		members = append(members, MemberSnapshot{
			Name:             m.factory.Name(),
			Availability:     m.draining.Availability(),
			PredictedLatency: m.weighted.PredictedLatency(),
			Outstanding:      m.weighted.Outstanding(),
		})
	}

	return Snapshot{
		Aperture:      lb.target,
		PendingBuilds: lb.pending,
		FactoryCount:  len(lb.factories),
		Members:       members,
	}
}
