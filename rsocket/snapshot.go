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

import "time"

// ConnectionSnapshot is a point-in-time diagnostic summary of a Connection,
// never wired to any transport — exported purely for callers and tests that
// want to inspect live state, the way api/x/introspection.ChooserStatus
// summarizes an abstractlist.List without participating in selection.
type ConnectionSnapshot struct {
	Role        Role
	State       string
	StreamCount int

	LeaseEnabled bool
	LeaseBudget  uint32
	LeaseExpiry  time.Time
}

// Snapshot reports this Connection's current role, lifecycle state, live
// stream count, and (when lease flow control is enabled) the outstanding
// lease budget and its expiry.
func (c *Connection) Snapshot() ConnectionSnapshot {
	c.mu.Lock()
	streamCount := len(c.streams)
	c.mu.Unlock()

	snap := ConnectionSnapshot{
		Role:         c.cfg.Role,
		State:        c.once.State().String(),
		StreamCount:  streamCount,
		LeaseEnabled: c.cfg.Lease,
	}
	if c.cfg.Lease {
		snap.LeaseBudget = c.leaseBudget.Load()
		if expiry := c.leaseExpiry.Load(); expiry != 0 {
			snap.LeaseExpiry = time.Unix(0, expiry)
		}
	}
	return snap
}
