// Copyright (C) 2026 Michael J. Fromberger. All Rights Reserved.

// Package padded implements byte buffers with mandatory trailing slack.
//
// A structural scanner may read a fixed number of bytes beyond the logical end
// of its input. A Buffer guarantees that at least Padding bytes of addressable
// memory follow the logical contents, so such reads never run off the end of
// the allocation.
package padded

import (
	"errors"
	"io"
)

// Padding is the number of slack bytes guaranteed after the logical end of
// every Buffer.
const Padding = 32

// A Buffer is an owned byte region with a logical length and an allocation
// that extends at least Padding bytes beyond it.
//
// The zero value is an empty buffer ready for use.
type Buffer struct {
	buf []byte // len(buf) == cap of logical contents + Padding
	n   int    // logical length
}

// New returns a buffer with logical length n whose contents are zero.
// It panics if n < 0.
func New(n int) *Buffer {
	if n < 0 {
		panic("padded: negative length")
	}
	return &Buffer{buf: make([]byte, n+Padding), n: n}
}

// FromBytes returns a buffer holding a copy of b.
func FromBytes(b []byte) *Buffer {
	p := New(len(b))
	copy(p.buf, b)
	return p
}

// FromString returns a buffer holding a copy of s.
func FromString(s string) *Buffer {
	p := New(len(s))
	copy(p.buf, s)
	return p
}

// Len reports the logical length of p.
func (p *Buffer) Len() int { return p.n }

// Cap reports the largest logical length p can hold without reallocating.
func (p *Buffer) Cap() int {
	if len(p.buf) < Padding {
		return 0
	}
	return len(p.buf) - Padding
}

// Bytes returns the logical contents of p. The capacity of the returned slice
// covers the padding, so cap(b)-len(b) >= Padding. The slice is only valid
// until the next call that modifies p.
func (p *Buffer) Bytes() []byte {
	if p.buf == nil {
		p.buf = make([]byte, Padding)
	}
	return p.buf[:p.n:len(p.buf)]
}

// Grow ensures p can hold a logical length of n without reallocating. If the
// current allocation is too small it is replaced by a fresh, zeroed one and
// the logical length is reset to zero; otherwise Grow does nothing. A Buffer
// never shrinks.
func (p *Buffer) Grow(n int) {
	if n < 0 {
		panic("padded: negative length")
	}
	if n <= p.Cap() && p.buf != nil {
		return
	}
	p.buf = make([]byte, n+Padding)
	p.n = 0
}

// SetLen sets the logical length of p to n, which must not exceed Cap.
// The bytes between the new length and the end of the padding are zeroed so
// that scanners reading into the slack see no stale input.
func (p *Buffer) SetLen(n int) {
	if n < 0 || n > p.Cap() {
		panic("padded: length out of range")
	}
	p.n = n
	clear(p.buf[n : n+Padding])
}

// Reset discards the contents of p but keeps its allocation.
func (p *Buffer) Reset() { p.n = 0 }

// Release drops the allocation held by p.
func (p *Buffer) Release() { p.buf, p.n = nil, 0 }

// ErrTooLarge is reported by ReadFrom if the input exceeds the requested limit.
var ErrTooLarge = errors.New("padded: input exceeds limit")

// ReadFrom replaces the contents of p with everything read from r until EOF.
// The hint is an expected size used to grow p once up front; a hint <= 0 means
// the size is unknown. If limit > 0 and more than limit bytes are available,
// ReadFrom stops and reports ErrTooLarge. The padding invariant holds on
// return whether or not an error occurs.
func (p *Buffer) ReadFrom(r io.Reader, hint, limit int) (int, error) {
	const minRead = 4096

	if hint > 0 {
		p.Grow(hint)
	}
	p.n = 0
	for {
		if p.Cap()-p.n < minRead {
			p.grow(minRead)
		}
		nr, err := r.Read(p.buf[p.n:p.Cap()])
		p.n += nr
		if limit > 0 && p.n > limit {
			p.SetLen(limit)
			return p.n, ErrTooLarge
		}
		if err == io.EOF {
			p.SetLen(p.n)
			return p.n, nil
		} else if err != nil {
			p.SetLen(p.n)
			return p.n, err
		}
	}
}

// grow extends the allocation so at least extra bytes are free past the
// logical end, preserving the contents.
func (p *Buffer) grow(extra int) {
	want := max(p.Cap()*2, p.n+extra)
	nb := make([]byte, want+Padding)
	copy(nb, p.buf[:p.n])
	p.buf = nb
}
