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

import (
	"errors"
	"fmt"
)

// Status is an error carrying a Code and a message. All errors this runtime
// returns across package boundaries are, or wrap, a *Status.
type Status struct {
	code Code
	err  error
}

// Newf returns a new Status. Returns nil if code is CodeOK.
func Newf(code Code, format string, args ...interface{}) *Status {
	if code == CodeOK {
		return nil
	}
	var err error
	if len(args) == 0 {
		err = errors.New(format)
	} else {
		err = fmt.Errorf(format, args...)
	}
	return &Status{code: code, err: err}
}

// Code returns the Status's code.
func (s *Status) Code() Code { return s.code }

// Error implements the error interface.
func (s *Status) Error() string {
	if s == nil {
		return ""
	}
	return fmt.Sprintf("code:%s message:%s", s.code, s.err.Error())
}

// Unwrap lets errors.Is/errors.As see through a Status to its wrapped cause.
func (s *Status) Unwrap() error { return s.err }

type statusCarrier interface {
	RSocketStatus() *Status
}

// RSocketStatus implements statusCarrier so FromError recognizes a *Status
// produced anywhere in the module via errors.As.
func (s *Status) RSocketStatus() *Status { return s }

// FromError returns the Status for err.
//
//   - nil returns nil.
//   - a *Status (or anything implementing RSocketStatus() *Status, found via
//     errors.As) is returned directly.
//   - anything else is wrapped with CodeApplicationError, since an opaque
//     Go error surfacing from the handler path is, from the protocol's
//     perspective, a business-level failure.
func FromError(err error) *Status {
	if err == nil {
		return nil
	}
	var st *Status
	if errors.As(err, &st) {
		return st
	}
	var carrier statusCarrier
	if errors.As(err, &carrier) {
		return carrier.RSocketStatus()
	}
	return &Status{code: CodeApplicationError, err: err}
}

// ErrorCode returns the Code of err if it is, or wraps, a *Status;
// otherwise CodeApplicationError, matching FromError's default.
func ErrorCode(err error) Code {
	if err == nil {
		return CodeOK
	}
	return FromError(err).Code()
}

// IsCode reports whether err is, or wraps, a *Status with exactly code.
func IsCode(err error, code Code) bool {
	if err == nil {
		return false
	}
	var st *Status
	if !errors.As(err, &st) {
		return false
	}
	return st.code == code
}

// IsRetryable reports whether err's code is one the reenqueue filter may
// retry (spec §4.8, §7).
func IsRetryable(err error) bool {
	return ErrorCode(err).Retryable()
}
