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

package frame

import "errors"

// ErrTruncated indicates the buffer handed to Decode does not yet contain a
// complete frame. Callers (the Framer) should buffer more bytes and retry;
// it is never a connection-fatal error on its own.
var ErrTruncated = errors.New("frame: truncated buffer")

// MalformedError wraps a decode failure that is connection-fatal: the header
// was well-formed enough to read but the contents violate the wire format
// (unknown type, length field smaller than the header it claims to bound,
// encoding name longer than its declared length would allow, and so on).
type MalformedError struct {
	Reason string
}

func (e *MalformedError) Error() string { return "frame: malformed: " + e.Reason }

func malformed(reason string) error {
	return &MalformedError{Reason: reason}
}
