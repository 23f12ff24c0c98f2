// Copyright (C) 2026 Michael J. Fromberger. All Rights Reserved.

package jtape

import (
	"math"

	"github.com/creachadair/jtape/internal/stage1"
	"go4.org/mem"
)

// scanNumber returns the end of the JSON number beginning at offset pos of
// buf[:n], and whether it has a fractional part or exponent. It returns a
// non-empty reason if the text is not a valid number.
func scanNumber(buf []byte, pos, n int) (end int, isFloat bool, reason string) {
	i := pos
	if buf[i] == '-' {
		i++
	}
	start := i
	for i < n && isDigit(buf[i]) {
		i++
	}
	if i == start {
		return i, false, "missing digits"
	}

	// Check for extra leading zeroes, which are disallowed by the JSON grammar.
	// That is: 0.12 is OK, 01.2 is not.
	if hasExtraLeadingZeroes(buf[pos:i]) {
		return i, false, "extra leading zeroes"
	}

	if i < n && buf[i] == '.' {
		i++
		d := i
		for i < n && isDigit(buf[i]) {
			i++
		}
		if i == d {
			return i, false, "no digits after decimal point"
		}
		isFloat = true
	}

	if i < n && (buf[i] == 'e' || buf[i] == 'E') {
		i++
		if i < n && (buf[i] == '+' || buf[i] == '-') {
			i++
		}
		d := i
		for i < n && isDigit(buf[i]) {
			i++
		}
		if i == d {
			return i, false, "missing exponent digits"
		}
		isFloat = true
	}

	if i < n && !stage1.IsDelimiter(buf[i]) {
		return i, false, "invalid character after number"
	}
	return i, isFloat, ""
}

func isDigit(b byte) bool { return '0' <= b && b <= '9' }

// hasExtraLeadingZeroes reports whether the representation of an integer in
// buf has redundant leading zeroes, disallowed by the grammar.
//
// OK: 0, 0.1, -1.0, -0.1 are all OK.
// Bad: -01, 01.2, -01.0, 00.1.
func hasExtraLeadingZeroes(buf []byte) bool {
	if buf[0] == '-' {
		buf = buf[1:] // skip leading sign
	}
	if buf[0] == '0' {
		// A leading zero is OK if it's the only digit.
		return len(buf) > 1
	}
	return false
}

// parseNumber appends the number at offset pos to the tape and returns the
// offset where it ends. Integers that fit in an int64 are stored as such;
// non-negative integers that do not fit are stored as uint64; everything
// else is stored as a float64.
func (p *structuralParser) parseNumber(pos int) int {
	end, isFloat, reason := scanNumber(p.buf, pos, p.n)
	if reason != "" {
		p.onError(NumberError, end, "%s", reason)
	}
	text := mem.B(p.buf[pos:end])
	if !isFloat {
		if v, err := mem.ParseInt(text, 10, 64); err == nil {
			p.t.append(TagInt64, 0)
			p.t.appendRaw(uint64(v))
			return end
		}
		if text.At(0) != '-' {
			if v, err := mem.ParseUint(text, 10, 64); err == nil {
				p.t.append(TagUint64, 0)
				p.t.appendRaw(v)
				return end
			}
		}
		// Fall through and represent the integer as a float.
	}
	v, err := mem.ParseFloat(text, 64)
	if err != nil || math.IsInf(v, 0) {
		p.onError(NumberError, pos, "number %q out of range", text.StringCopy())
	}
	p.t.append(TagFloat64, 0)
	p.t.appendRaw(math.Float64bits(v))
	return end
}
