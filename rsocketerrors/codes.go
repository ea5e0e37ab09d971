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

// Package rsocketerrors defines the local error taxonomy this runtime uses
// to classify both wire-level ERROR frames and purely local failures
// (timeouts, an exhausted load balancer). It mirrors the shape of
// go.uber.org/yarpc/yarpcerrors: a small Code enum, a Status error carrying
// a code and message, and predicates for classifying an arbitrary error.
package rsocketerrors

import "fmt"

// Code enumerates the error taxonomy from the spec's error handling design:
// wire error codes (Setup/Connection/Application/Rejected/Canceled/Invalid/
// Reserved) plus two purely local kinds (Timeout, EmptyLoadBalancer) that
// never cross the wire.
type Code int

// Recognized codes.
const (
	CodeOK Code = iota

	// CodeInvalidSetup, CodeUnsupportedSetup, CodeRejectedSetup are
	// connection-scoped: emitted on both the stream and the connection,
	// and fatal to the connection.
	CodeInvalidSetup
	CodeUnsupportedSetup
	CodeRejectedSetup

	// CodeConnectionError means the transport broke or the peer violated
	// the protocol; every non-setup stream on the connection is notified.
	CodeConnectionError

	// CodeApplicationError is a business-level failure surfaced on the
	// stream only.
	CodeApplicationError

	// CodeRejected, CodeCanceled, CodeInvalid, CodeReserved are
	// stream-scoped. Rejected and Canceled are candidates for idempotent
	// retry by the reenqueue filter.
	CodeRejected
	CodeCanceled
	CodeInvalid
	CodeReserved

	// CodeTimeout is local: a request timed out waiting for a response.
	// There is no wire signal for it other than the outbound CANCEL the
	// connection sends when the timer fires.
	CodeTimeout

	// CodeEmptyLoadBalancer is local: the load balancer had zero usable
	// sockets at request time.
	CodeEmptyLoadBalancer
)

var codeNames = map[Code]string{
	CodeOK:                 "ok",
	CodeInvalidSetup:       "invalid-setup",
	CodeUnsupportedSetup:   "unsupported-setup",
	CodeRejectedSetup:      "rejected-setup",
	CodeConnectionError:    "connection-error",
	CodeApplicationError:   "application-error",
	CodeRejected:           "rejected",
	CodeCanceled:           "canceled",
	CodeInvalid:            "invalid",
	CodeReserved:           "reserved",
	CodeTimeout:            "timeout",
	CodeEmptyLoadBalancer:  "empty-load-balancer",
}

func (c Code) String() string {
	if name, ok := codeNames[c]; ok {
		return name
	}
	return fmt.Sprintf("Code(%d)", int(c))
}

// Retryable reports whether the reenqueue filter may treat an error of this
// code as an idempotent-retry candidate (spec §7, §4.8).
func (c Code) Retryable() bool {
	switch c {
	case CodeRejected, CodeCanceled, CodeConnectionError:
		return true
	default:
		return false
	}
}
