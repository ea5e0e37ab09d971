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

import "encoding/binary"

// Framer reassembles length-prefixed frames out of arbitrary transport
// chunks. A single Push call may yield zero, one, or many complete frames;
// partial frames (leading or trailing) are retained across calls.
//
// Framer is not safe for concurrent use; a Connection owns exactly one and
// serializes access to it from its single dispatch goroutine.
type Framer struct {
	buf []byte
}

// NewFramer returns an empty Framer.
func NewFramer() *Framer {
	return &Framer{}
}

// Push appends chunk to the internal buffer and returns every frame that is
// now complete, most-recently-received last. It retains any trailing partial
// frame for the next call.
//
// Push returns a *MalformedError, connection-fatal, if a length prefix is
// ever smaller than the minimum possible frame size; it never returns
// ErrTruncated since an incomplete frame simply stays buffered.
func (fr *Framer) Push(chunk []byte) ([]*Frame, error) {
	fr.buf = append(fr.buf, chunk...)

	var frames []*Frame
	for {
		if len(fr.buf) < LengthPrefixLength {
			break
		}
		total := binary.BigEndian.Uint32(fr.buf[0:4])
		if int(total) < LengthPrefixLength+HeaderLength {
			return frames, malformed("length prefix smaller than the minimum header size")
		}
		if len(fr.buf) < int(total) {
			break
		}

		f, err := Decode(fr.buf[:total])
		if err != nil && err != ErrTruncated {
			return frames, err
		}
		fr.buf = fr.buf[total:]
		if err == nil {
			frames = append(frames, f)
		}
	}

	// Shrink the retained partial-frame buffer's backing array once it is
	// the only thing left, so a long-lived connection doesn't pin memory
	// proportional to total bytes ever received.
	if len(frames) > 0 && len(fr.buf) > 0 {
		fr.buf = append([]byte(nil), fr.buf...)
	}

	return frames, nil
}

// Reset discards any buffered partial frame. Used when a connection closes.
func (fr *Framer) Reset() {
	fr.buf = nil
}
