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

package rsocketerrors

import "github.com/go-rsocket/rsocket/frame"

// InvalidSetupErrorf builds a CodeInvalidSetup Status.
func InvalidSetupErrorf(format string, args ...interface{}) *Status {
	return Newf(CodeInvalidSetup, format, args...)
}

// UnsupportedSetupErrorf builds a CodeUnsupportedSetup Status.
func UnsupportedSetupErrorf(format string, args ...interface{}) *Status {
	return Newf(CodeUnsupportedSetup, format, args...)
}

// RejectedSetupErrorf builds a CodeRejectedSetup Status.
func RejectedSetupErrorf(format string, args ...interface{}) *Status {
	return Newf(CodeRejectedSetup, format, args...)
}

// ConnectionErrorf builds a CodeConnectionError Status.
func ConnectionErrorf(format string, args ...interface{}) *Status {
	return Newf(CodeConnectionError, format, args...)
}

// ApplicationErrorf builds a CodeApplicationError Status.
func ApplicationErrorf(format string, args ...interface{}) *Status {
	return Newf(CodeApplicationError, format, args...)
}

// RejectedErrorf builds a CodeRejected Status.
func RejectedErrorf(format string, args ...interface{}) *Status {
	return Newf(CodeRejected, format, args...)
}

// CanceledErrorf builds a CodeCanceled Status.
func CanceledErrorf(format string, args ...interface{}) *Status {
	return Newf(CodeCanceled, format, args...)
}

// InvalidErrorf builds a CodeInvalid Status.
func InvalidErrorf(format string, args ...interface{}) *Status {
	return Newf(CodeInvalid, format, args...)
}

// ReservedErrorf builds a CodeReserved Status.
func ReservedErrorf(format string, args ...interface{}) *Status {
	return Newf(CodeReserved, format, args...)
}

// TimeoutErrorf builds a CodeTimeout Status.
func TimeoutErrorf(format string, args ...interface{}) *Status {
	return Newf(CodeTimeout, format, args...)
}

// EmptyLoadBalancerErrorf builds a CodeEmptyLoadBalancer Status.
func EmptyLoadBalancerErrorf(format string, args ...interface{}) *Status {
	return Newf(CodeEmptyLoadBalancer, format, args...)
}

// wireCodeToLocal maps a frame.ErrorCode, received on the wire in an ERROR
// frame, to the local Code taxonomy.
var wireCodeToLocal = map[frame.ErrorCode]Code{
	frame.ErrorCodeInvalidSetup:     CodeInvalidSetup,
	frame.ErrorCodeUnsupportedSetup: CodeUnsupportedSetup,
	frame.ErrorCodeRejectedSetup:    CodeRejectedSetup,
	frame.ErrorCodeConnectionError:  CodeConnectionError,
	frame.ErrorCodeApplicationError: CodeApplicationError,
	frame.ErrorCodeRejected:         CodeRejected,
	frame.ErrorCodeCanceled:         CodeCanceled,
	frame.ErrorCodeInvalid:          CodeInvalid,
	frame.ErrorCodeReserved:         CodeReserved,
}

// localCodeToWire is the inverse of wireCodeToLocal, used when this runtime
// sends an ERROR frame of its own (e.g. a server rejecting a duplicate
// SETUP).
var localCodeToWire = map[Code]frame.ErrorCode{
	CodeInvalidSetup:     frame.ErrorCodeInvalidSetup,
	CodeUnsupportedSetup: frame.ErrorCodeUnsupportedSetup,
	CodeRejectedSetup:    frame.ErrorCodeRejectedSetup,
	CodeConnectionError:  frame.ErrorCodeConnectionError,
	CodeApplicationError: frame.ErrorCodeApplicationError,
	CodeRejected:         frame.ErrorCodeRejected,
	CodeCanceled:         frame.ErrorCodeCanceled,
	CodeInvalid:          frame.ErrorCodeInvalid,
	CodeReserved:         frame.ErrorCodeReserved,
}

// FromWireCode builds a Status classifying an inbound ERROR frame's code
// and message (spec §4.2 dispatch loop: "ERROR -> bind error to stream,
// classify code").
func FromWireCode(code frame.ErrorCode, message string) *Status {
	local, ok := wireCodeToLocal[code]
	if !ok {
		local = CodeApplicationError
	}
	if message == "" {
		message = code.String()
	}
	return Newf(local, "%s", message)
}

// ToWireCode returns the frame.ErrorCode to send for a local Code, defaulting
// to APPLICATION_ERROR for codes with no wire representation (Timeout,
// EmptyLoadBalancer are always local and never sent).
func ToWireCode(code Code) frame.ErrorCode {
	if wire, ok := localCodeToWire[code]; ok {
		return wire
	}
	return frame.ErrorCodeApplicationError
}
