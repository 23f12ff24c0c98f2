// Copyright (C) 2026 Michael J. Fromberger. All Rights Reserved.

package jtape

import (
	"errors"
	"fmt"
)

// ErrorCode identifies the outcome of a parser operation. The two success
// codes are not errors; every other code satisfies the error interface, so a
// code can be compared with errors.Is:
//
//	if errors.Is(err, jtape.Capacity) { ... }
type ErrorCode byte

// Constants defining the valid ErrorCode values.
const (
	Success                 ErrorCode = iota // no error
	SuccessAndHasMore                        // no error, and more documents follow
	Capacity                                 // input exceeds the parser capacity
	Memalloc                                 // buffers could not be allocated
	TapeError                                // malformed structure
	DepthError                               // nesting exceeds the maximum depth
	StringError                              // invalid string escape
	TAtomError                               // invalid literal beginning with t
	FAtomError                               // invalid literal beginning with f
	NAtomError                               // invalid literal beginning with n
	NumberError                              // invalid number
	UTF8Error                                // invalid UTF-8
	Uninitialized                            // nothing has been parsed
	Empty                                    // no JSON in the input
	UnescapedChars                           // raw control character in a string
	UnclosedString                           // input ends inside a string
	UnsupportedArchitecture                  // no usable structural implementation
	IOError                                  // file could not be read
	InternalError                            // internal invariant violated

	numErrorCodes
)

var codeName = [...]string{
	Success:                 "SUCCESS",
	SuccessAndHasMore:       "SUCCESS_AND_HAS_MORE",
	Capacity:                "CAPACITY",
	Memalloc:                "MEMALLOC",
	TapeError:               "TAPE_ERROR",
	DepthError:              "DEPTH_ERROR",
	StringError:             "STRING_ERROR",
	TAtomError:              "T_ATOM_ERROR",
	FAtomError:              "F_ATOM_ERROR",
	NAtomError:              "N_ATOM_ERROR",
	NumberError:             "NUMBER_ERROR",
	UTF8Error:               "UTF8_ERROR",
	Uninitialized:           "UNINITIALIZED",
	Empty:                   "EMPTY",
	UnescapedChars:          "UNESCAPED_CHARS",
	UnclosedString:          "UNCLOSED_STRING",
	UnsupportedArchitecture: "UNSUPPORTED_ARCHITECTURE",
	IOError:                 "IO_ERROR",
	InternalError:           "INTERNAL_ERROR",
}

var codeText = [...]string{
	Success:                 "no error",
	SuccessAndHasMore:       "no error, more documents follow",
	Capacity:                "document exceeds the parser capacity",
	Memalloc:                "unable to allocate parser buffers",
	TapeError:               "malformed JSON structure",
	DepthError:              "JSON nesting exceeds the maximum depth",
	StringError:             "invalid string escape",
	TAtomError:              "invalid literal, expected true",
	FAtomError:              "invalid literal, expected false",
	NAtomError:              "invalid literal, expected null",
	NumberError:             "invalid number",
	UTF8Error:               "invalid UTF-8 encoding",
	Uninitialized:           "no valid parse result is available",
	Empty:                   "no JSON found in the input",
	UnescapedChars:          "unescaped control character in string",
	UnclosedString:          "unclosed string",
	UnsupportedArchitecture: "no structural implementation supports this CPU",
	IOError:                 "error reading file",
	InternalError:           "internal parser invariant violated",
}

// String returns the symbolic name of c.
func (c ErrorCode) String() string {
	if c >= numErrorCodes {
		return fmt.Sprintf("ErrorCode(%d)", c)
	}
	return codeName[c]
}

// Error returns a human-readable description of c.
func (c ErrorCode) Error() string {
	if c >= numErrorCodes {
		return "unknown error"
	}
	return codeText[c]
}

// IsSuccess reports whether c is one of the success codes.
func (c ErrorCode) IsSuccess() bool { return c == Success || c == SuccessAndHasMore }

// Err returns nil if c is a success code, otherwise c.
func (c ErrorCode) Err() error {
	if c.IsSuccess() {
		return nil
	}
	return c
}

// Error is the concrete type of errors that carry a location in the input.
type Error struct {
	Code     ErrorCode
	Offset   int     // byte offset in the input, or -1 if unknown
	Location LineCol // line and column of Offset, if known
	Message  string  // optional detail

	err error
}

// Error satisfies the error interface.
func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = e.Code.Error()
	}
	if e.Offset < 0 {
		return msg
	}
	return fmt.Sprintf("at %s (offset %d): %s", e.Location, e.Offset, msg)
}

// Unwrap supports error wrapping.
func (e *Error) Unwrap() error { return e.err }

// Is reports whether target is the ErrorCode of e.
func (e *Error) Is(target error) bool {
	c, ok := target.(ErrorCode)
	return ok && c == e.Code
}

// CodeOf returns the ErrorCode described by err. It returns Success for nil
// and InternalError for errors that did not originate in this package.
func CodeOf(err error) ErrorCode {
	if err == nil {
		return Success
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	var c ErrorCode
	if errors.As(err, &c) {
		return c
	}
	return InternalError
}

// newError constructs an *Error for a failure at offset pos of buf.
func newError(code ErrorCode, buf []byte, pos int, msg string, args ...any) *Error {
	e := &Error{Code: code, Offset: pos}
	if len(args) != 0 {
		msg = fmt.Sprintf(msg, args...)
	}
	e.Message = msg
	if pos >= 0 {
		e.Location = locate(buf, pos)
	}
	return e
}

// rebase moves the location of err by off bytes within buf, the input err
// was reported against a window of.
func rebase(err error, buf []byte, off int) error {
	var e *Error
	if errors.As(err, &e) && e.Offset >= 0 {
		e.Offset += off
		e.Location = locate(buf, e.Offset)
	}
	return err
}
