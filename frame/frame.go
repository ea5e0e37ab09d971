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

// Header is the fixed portion of every frame, present regardless of kind.
type Header struct {
	Type     Type
	Flags    Flags
	StreamID uint32
}

// Frame is a fully decoded wire frame: the header, any kind-specific fixed
// fields, and the optional metadata/data payload.
//
// Not every field is populated for every Type; see the comment on each field
// for which kinds carry it. Encode/Decode are responsible for keeping this
// representation bit-exact with the wire format in both directions.
type Frame struct {
	Header

	// SETUP only.
	SetupVersion       uint32
	KeepaliveMillis    uint32
	MaxLifetimeMillis  uint32
	MetadataEncoding   string
	DataEncoding       string

	// LEASE only.
	LeaseTTLMillis uint32
	LeaseBudget    uint32

	// ERROR only.
	ErrorCode ErrorCode

	// Present when FlagMetadata is set, for any kind.
	Metadata []byte
	HasMetadata bool

	// Present for kinds that carry a data payload.
	Data []byte
}

// Clone returns a deep copy of f, so that accumulating fragments (FOLLOWS)
// never aliases a caller's buffer.
func (f *Frame) Clone() *Frame {
	clone := *f
	if f.Metadata != nil {
		clone.Metadata = append([]byte(nil), f.Metadata...)
	}
	if f.Data != nil {
		clone.Data = append([]byte(nil), f.Data...)
	}
	return &clone
}

// Equal reports whether two frames are structurally identical. Used by the
// codec's round-trip tests.
func (f *Frame) Equal(other *Frame) bool {
	if other == nil {
		return false
	}
	if f.Type != other.Type || f.Flags != other.Flags || f.StreamID != other.StreamID {
		return false
	}
	if f.SetupVersion != other.SetupVersion ||
		f.KeepaliveMillis != other.KeepaliveMillis ||
		f.MaxLifetimeMillis != other.MaxLifetimeMillis ||
		f.MetadataEncoding != other.MetadataEncoding ||
		f.DataEncoding != other.DataEncoding {
		return false
	}
	if f.LeaseTTLMillis != other.LeaseTTLMillis || f.LeaseBudget != other.LeaseBudget {
		return false
	}
	if f.ErrorCode != other.ErrorCode {
		return false
	}
	if f.HasMetadata != other.HasMetadata || !bytesEqual(f.Metadata, other.Metadata) {
		return false
	}
	return bytesEqual(f.Data, other.Data)
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
