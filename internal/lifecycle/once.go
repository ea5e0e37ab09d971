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

// Package lifecycle provides a once-only Start/Stop state machine and its
// State enum. rsocket.Connection uses it to run its handshake once (in Dial)
// and its shutdown once (in Close and on fatal errors).
package lifecycle

import (
	"context"
	"fmt"

	"go.uber.org/atomic"

	"github.com/go-rsocket/rsocket/rsocketerrors"
)

// State is one point in the Once state machine.
type State int

// States, in transition order. Idle->Starting->Running is the happy start
// path; Running->Stopping->Stopped is the happy stop path. Errored is
// reachable from Starting or Stopping if the respective callback fails.
const (
	Idle State = iota
	Starting
	Running
	Stopping
	Stopped
	Errored
)

var stateNames = map[State]string{
	Idle:     "idle",
	Starting: "starting",
	Running:  "running",
	Stopping: "stopping",
	Stopped:  "stopped",
	Errored:  "errored",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Once is a Start/Stop state machine that runs its start and stop callbacks
// at most once each, and lets any number of goroutines observe or wait on
// the transitions. rsocket.Connection drives its Start from Dial and its
// Stop from its shutdown path.
type Once struct {
	state atomic.Int32

	started  chan struct{}
	stopping chan struct{}
	stopped  chan struct{}

	err atomic.Error
}

// NewOnce returns a new Once in the Idle state.
func NewOnce() *Once {
	return &Once{
		started:  make(chan struct{}),
		stopping: make(chan struct{}),
		stopped:  make(chan struct{}),
	}
}

// State returns the current state.
func (o *Once) State() State {
	return State(o.state.Load())
}

// IsRunning reports whether the state machine is in the Running state.
func (o *Once) IsRunning() bool {
	return o.State() == Running
}

// Started returns a channel that closes once Start's callback has returned,
// successfully or not (or immediately, if already past that point).
func (o *Once) Started() <-chan struct{} { return o.started }

// Stopping returns a channel that closes once Stop has been called.
func (o *Once) Stopping() <-chan struct{} { return o.stopping }

// Stopped returns a channel that closes once Stop's callback has returned,
// successfully or not.
func (o *Once) Stopped() <-chan struct{} { return o.stopped }

// Start transitions Idle->Starting->Running, calling f exactly once. Callers
// racing to Start concurrently all block until the one that won runs f to
// completion; they then observe the same result. Calling Start again after a
// successful start is a no-op returning nil; calling it again after a failed
// start returns the original error.
func (o *Once) Start(f func() error) error {
	if !o.state.CAS(int32(Idle), int32(Starting)) {
		<-o.started
		return o.loadError()
	}

	err := f()
	if err != nil {
		o.setError(err)
		o.state.Store(int32(Errored))
		close(o.started)
		return err
	}

	o.state.Store(int32(Running))
	close(o.started)
	return nil
}

// WaitUntilRunning blocks until the state machine reaches Running, ctx is
// canceled, or the state machine fails to start. Returns the start error, a
// CodeTimeout status whose message includes ctx.Err() if ctx finishes first,
// or nil once Running.
func (o *Once) WaitUntilRunning(ctx context.Context) error {
	select {
	case <-o.started:
		if err := o.loadError(); err != nil {
			return err
		}
		return nil
	case <-ctx.Done():
		return rsocketerrors.Newf(rsocketerrors.CodeTimeout, "context finished while waiting for start: %v", ctx.Err())
	}
}

// Stop transitions Running->Stopping->Stopped (or Starting->...->Stopped, if
// Stop races a not-yet-finished Start), calling f exactly once. Calling Stop
// before Start has ever been called still runs f, so resources allocated
// outside the Once (e.g. a transport handed in at construction) get cleaned
// up even if Start never ran. Calling Stop again after a successful stop is
// a no-op returning nil; calling it again after a failed stop returns the
// original error.
func (o *Once) Stop(f func() error) error {
	for {
		cur := State(o.state.Load())
		switch cur {
		case Stopping:
			<-o.stopped
			return o.loadError()
		case Stopped, Errored:
			return o.loadError()
		default:
			if !o.state.CAS(int32(cur), int32(Stopping)) {
				continue
			}
			close(o.stopping)
			err := f()
			if err != nil {
				o.setError(err)
				o.state.Store(int32(Errored))
			} else {
				o.state.Store(int32(Stopped))
			}
			close(o.stopped)
			return err
		}
	}
}

func (o *Once) setError(err error) {
	o.err.Store(err)
}

func (o *Once) loadError() error {
	return o.err.Load()
}
