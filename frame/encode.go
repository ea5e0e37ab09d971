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

import (
	"encoding/binary"
	"fmt"
)

// Encode serializes f into a complete wire record: the 4-byte length prefix
// (inclusive of itself, matching the metadata length field's convention),
// the 8-byte type/flags/stream-id header, any kind-specific fixed fields,
// the optional length-prefixed metadata block, and the optional data block.
func Encode(f *Frame) ([]byte, error) {
	fixed, err := encodeFixed(f)
	if err != nil {
		return nil, err
	}

	flags := f.Flags &^ FlagMetadata
	var metaBlock []byte
	if f.HasMetadata {
		flags |= FlagMetadata
		metaBlock = make([]byte, 4+len(f.Metadata))
		binary.BigEndian.PutUint32(metaBlock, uint32(4+len(f.Metadata)))
		copy(metaBlock[4:], f.Metadata)
	}

	total := LengthPrefixLength + HeaderLength + len(fixed) + len(metaBlock) + len(f.Data)
	buf := make([]byte, total)

	binary.BigEndian.PutUint32(buf[0:4], uint32(total))
	binary.BigEndian.PutUint16(buf[4:6], uint16(f.Type))
	binary.BigEndian.PutUint16(buf[6:8], uint16(flags))
	binary.BigEndian.PutUint32(buf[8:12], f.StreamID)

	off := LengthPrefixLength + HeaderLength
	off += copy(buf[off:], fixed)
	off += copy(buf[off:], metaBlock)
	copy(buf[off:], f.Data)

	return buf, nil
}

func encodeFixed(f *Frame) ([]byte, error) {
	switch f.Type {
	case TypeSetup:
		return encodeSetupFixed(f)
	case TypeLease:
		b := make([]byte, 8)
		binary.BigEndian.PutUint32(b[0:4], f.LeaseTTLMillis)
		binary.BigEndian.PutUint32(b[4:8], f.LeaseBudget)
		return b, nil
	case TypeError:
		b := make([]byte, 4)
		binary.BigEndian.PutUint32(b, uint32(f.ErrorCode))
		return b, nil
	case TypeRequestResponse, TypeResponse, TypeCancel, TypeKeepalive:
		return nil, nil
	default:
		return nil, fmt.Errorf("frame: encode: unsupported type %s", f.Type)
	}
}

func encodeSetupFixed(f *Frame) ([]byte, error) {
	metaEnc := f.MetadataEncoding
	if metaEnc == "" {
		metaEnc = DefaultEncoding
	}
	dataEnc := f.DataEncoding
	if dataEnc == "" {
		dataEnc = DefaultEncoding
	}
	if len(metaEnc) > 0xff || len(dataEnc) > 0xff {
		return nil, malformed("encoding name longer than 255 bytes")
	}

	b := make([]byte, 12+1+len(metaEnc)+1+len(dataEnc))
	binary.BigEndian.PutUint32(b[0:4], f.SetupVersion)
	binary.BigEndian.PutUint32(b[4:8], f.KeepaliveMillis)
	binary.BigEndian.PutUint32(b[8:12], f.MaxLifetimeMillis)

	off := 12
	b[off] = byte(len(metaEnc))
	off++
	off += copy(b[off:], metaEnc)
	b[off] = byte(len(dataEnc))
	off++
	copy(b[off:], dataEnc)

	return b, nil
}
