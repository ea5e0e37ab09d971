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

// Decode parses a single complete wire record (as produced by Encode,
// including its leading length prefix) into a Frame.
//
// Decode returns ErrTruncated if buf does not yet hold a full record
// (recoverable: the framer should wait for more bytes) and a *MalformedError
// for anything else wrong with the header or fixed fields (connection-fatal).
func Decode(buf []byte) (*Frame, error) {
	if len(buf) < LengthPrefixLength+HeaderLength {
		return nil, ErrTruncated
	}

	total := binary.BigEndian.Uint32(buf[0:4])
	if int(total) < LengthPrefixLength+HeaderLength {
		return nil, malformed("length prefix smaller than the minimum header size")
	}
	if len(buf) < int(total) {
		return nil, ErrTruncated
	}
	buf = buf[:total]

	f := &Frame{}
	f.Type = Type(binary.BigEndian.Uint16(buf[4:6]))
	f.Flags = Flags(binary.BigEndian.Uint16(buf[6:8]))
	f.StreamID = binary.BigEndian.Uint32(buf[8:12])

	body := buf[LengthPrefixLength+HeaderLength:]

	fixedLen, err := decodeFixed(f, body)
	if err != nil {
		return nil, err
	}
	rest := body[fixedLen:]

	if f.Flags.Has(FlagMetadata) {
		if len(rest) < 4 {
			return nil, malformed("metadata flag set but no length field present")
		}
		mdLen := binary.BigEndian.Uint32(rest[0:4])
		if mdLen < 4 || int(mdLen) > len(rest) {
			return nil, malformed("metadata length field out of range")
		}
		f.HasMetadata = true
		f.Metadata = append([]byte(nil), rest[4:mdLen]...)
		rest = rest[mdLen:]
	}

	if len(rest) > 0 {
		f.Data = append([]byte(nil), rest...)
	}

	return f, nil
}

// decodeFixed parses the kind-specific fixed fields from body (which starts
// immediately after the 8-byte header) and returns how many bytes they
// occupied.
func decodeFixed(f *Frame, body []byte) (int, error) {
	switch f.Type {
	case TypeSetup:
		return decodeSetupFixed(f, body)
	case TypeLease:
		if len(body) < 8 {
			return 0, malformed("LEASE frame shorter than its fixed fields")
		}
		f.LeaseTTLMillis = binary.BigEndian.Uint32(body[0:4])
		f.LeaseBudget = binary.BigEndian.Uint32(body[4:8])
		return 8, nil
	case TypeError:
		if len(body) < 4 {
			return 0, malformed("ERROR frame shorter than its fixed fields")
		}
		f.ErrorCode = ErrorCode(binary.BigEndian.Uint32(body[0:4]))
		return 4, nil
	case TypeRequestResponse, TypeResponse, TypeCancel, TypeKeepalive:
		return 0, nil
	default:
		if !f.Type.Implemented() && f.Type > 0 && int(f.Type) <= int(TypeExt) {
			return 0, malformed("frame type " + f.Type.String() + " is reserved, not yet implemented")
		}
		return 0, malformed("unknown frame type")
	}
}

func decodeSetupFixed(f *Frame, body []byte) (int, error) {
	if len(body) < 13 {
		return 0, malformed("SETUP frame shorter than its fixed fields")
	}
	f.SetupVersion = binary.BigEndian.Uint32(body[0:4])
	f.KeepaliveMillis = binary.BigEndian.Uint32(body[4:8])
	f.MaxLifetimeMillis = binary.BigEndian.Uint32(body[8:12])

	off := 12
	metaEncLen := int(body[off])
	off++
	if len(body) < off+metaEncLen+1 {
		return 0, malformed("SETUP metadata encoding name truncated")
	}
	f.MetadataEncoding = string(body[off : off+metaEncLen])
	off += metaEncLen

	dataEncLen := int(body[off])
	off++
	if len(body) < off+dataEncLen {
		return 0, malformed("SETUP data encoding name truncated")
	}
	f.DataEncoding = string(body[off : off+dataEncLen])
	off += dataEncLen

	return off, nil
}
