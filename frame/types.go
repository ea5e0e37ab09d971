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

// Package frame implements the length-prefixed, big-endian RSocket v0 wire
// format: header encode/decode for every frame kind this runtime supports,
// plus a streaming framer that reassembles frames out of arbitrary transport
// chunks.
package frame

import "fmt"

// Version is the RSocket protocol version this codec speaks.
const Version uint32 = 0

// MaxStreamID is the largest legal stream id (2^31 - 1); allocating past it
// is a fatal connection error.
const MaxStreamID uint32 = 1<<31 - 1

// SetupStreamID is the reserved stream id for SETUP, LEASE, and KEEPALIVE
// frames which are not bound to a request/response exchange.
const SetupStreamID uint32 = 0

// DefaultEncoding is the metadata/data encoding name used when none is
// negotiated explicitly.
const DefaultEncoding = "utf-8"

// HeaderLength is the fixed size, in bytes, of every frame's header once the
// leading u32 length prefix has been consumed: type(2) + flags(2) + stream
// id(4).
const HeaderLength = 8

// LengthPrefixLength is the size in bytes of the length prefix itself.
const LengthPrefixLength = 4

// Type identifies the kind of a frame.
type Type uint16

// Frame kinds. Only a subset is implemented end-to-end (see doc.go); the
// remainder are named so they can be reported, but Decode rejects them as
// malformed.
const (
	TypeSetup Type = iota + 1
	TypeLease
	TypeKeepalive
	TypeRequestResponse
	TypeRequestFNF
	TypeRequestStream
	TypeRequestSub
	TypeRequestChannel
	TypeRequestN
	TypeCancel
	TypeResponse
	TypeError
	TypeMetadataPush
	TypeNext
	TypeComplete
	TypeNextComplete
	TypeExt
)

var typeNames = map[Type]string{
	TypeSetup:           "SETUP",
	TypeLease:           "LEASE",
	TypeKeepalive:       "KEEPALIVE",
	TypeRequestResponse: "REQUEST_RESPONSE",
	TypeRequestFNF:      "REQUEST_FNF",
	TypeRequestStream:   "REQUEST_STREAM",
	TypeRequestSub:      "REQUEST_SUB",
	TypeRequestChannel:  "REQUEST_CHANNEL",
	TypeRequestN:        "REQUEST_N",
	TypeCancel:          "CANCEL",
	TypeResponse:        "RESPONSE",
	TypeError:           "ERROR",
	TypeMetadataPush:    "METADATA_PUSH",
	TypeNext:            "NEXT",
	TypeComplete:        "COMPLETE",
	TypeNextComplete:    "NEXT_COMPLETE",
	TypeExt:             "EXT",
}

func (t Type) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("Type(%d)", uint16(t))
}

// implementedTypes are the frame kinds this runtime's connection dispatch
// loop actually handles; Decode rejects a frame of any other type as
// malformed.
var implementedTypes = map[Type]bool{
	TypeSetup:           true,
	TypeLease:           true,
	TypeKeepalive:       true,
	TypeRequestResponse: true,
	TypeCancel:          true,
	TypeResponse:        true,
	TypeError:           true,
}

// Implemented reports whether the connection dispatch loop handles frames of
// this type; Decode rejects frames of types for which it reports false.
func (t Type) Implemented() bool {
	return implementedTypes[t]
}

// Flags is a bitfield carried on every frame header.
type Flags uint16

// Recognized flag bits.
const (
	FlagNone             Flags = 0
	FlagMetadata         Flags = 1 << 8
	FlagFollows          Flags = 1 << 7
	FlagLease            Flags = 1 << 6
	FlagStrict           Flags = 1 << 5
	FlagKeepaliveRespond Flags = 1 << 4
)

// Has reports whether every bit in mask is set.
func (f Flags) Has(mask Flags) bool { return f&mask == mask }

// ErrorCode is the wire error code carried by ERROR frames.
type ErrorCode uint32

// Recognized error codes.
const (
	ErrorCodeInvalidSetup ErrorCode = iota + 1
	ErrorCodeUnsupportedSetup
	ErrorCodeRejectedSetup
	ErrorCodeConnectionError
	ErrorCodeApplicationError
	ErrorCodeRejected
	ErrorCodeCanceled
	ErrorCodeInvalid
	ErrorCodeReserved
)

var errorCodeNames = map[ErrorCode]string{
	ErrorCodeInvalidSetup:     "INVALID_SETUP",
	ErrorCodeUnsupportedSetup: "UNSUPPORTED_SETUP",
	ErrorCodeRejectedSetup:    "REJECTED_SETUP",
	ErrorCodeConnectionError:  "CONNECTION_ERROR",
	ErrorCodeApplicationError: "APPLICATION_ERROR",
	ErrorCodeRejected:         "REJECTED",
	ErrorCodeCanceled:         "CANCELED",
	ErrorCodeInvalid:          "INVALID",
	ErrorCodeReserved:         "RESERVED",
}

func (c ErrorCode) String() string {
	if name, ok := errorCodeNames[c]; ok {
		return name
	}
	return fmt.Sprintf("ErrorCode(%d)", uint32(c))
}
