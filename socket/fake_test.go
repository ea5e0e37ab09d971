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

package socket

import (
	"context"
	"sync"
)

// fakeSocket is a hand-rolled Socket test double: a queue of canned
// responses/errors, a configurable block-until-release gate, and call
// counters, used across this package's decorator tests.
type fakeSocket struct {
	mu   sync.Mutex
	resp []Payload
	errs []error
	i    int

	availability float64
	calls        int
	closed       bool

	release chan struct{} // if non-nil, RequestResponse blocks until closed
}

func newFakeSocket() *fakeSocket {
	return &fakeSocket{availability: 1.0}
}

func (f *fakeSocket) withResults(results ...error) *fakeSocket {
	f.errs = results
	return f
}

func (f *fakeSocket) RequestResponse(ctx context.Context, req Payload) (Payload, error) {
	f.mu.Lock()
	f.calls++
	idx := f.i
	f.i++
	release := f.release
	f.mu.Unlock()

	if release != nil {
		<-release
	}

	var err error
	if idx < len(f.errs) {
		err = f.errs[idx]
	}
	var resp Payload
	if idx < len(f.resp) {
		resp = f.resp[idx]
	}
	return resp, err
}

func (f *fakeSocket) Availability() float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.availability
}

func (f *fakeSocket) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeSocket) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *fakeSocket) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}
