// Copyright (C) 2026 Michael J. Fromberger. All Rights Reserved.

package stage1

import (
	"encoding/binary"
	"math/bits"
)

const (
	lsb    = 0x0101010101010101
	msb    = 0x8080808080808080
	spaces = 0x2020202020202020
)

// hasZero marks the high bit of each zero byte of w. Bytes above the first
// zero byte may be marked spuriously, so only the lowest mark is exact.
func hasZero(w uint64) uint64 { return (w - lsb) &^ w & msb }

// hasByte marks bytes of w equal to b, with the same caveat as hasZero.
func hasByte(w uint64, b byte) uint64 { return hasZero(w ^ (lsb * uint64(b))) }

// hasLess marks bytes of w less than b (b <= 128), with the same caveat as
// hasZero.
func hasLess(w uint64, b byte) uint64 { return (w - lsb*uint64(b)) &^ w & msb }

// stringStop returns the offset within w of the first byte that needs
// attention inside a string: a quote, a backslash or a control character.
// It returns 8 if there is none.
func stringStop(w uint64) int {
	m := hasByte(w, '"') | hasByte(w, '\\') | hasLess(w, 0x20)
	return bits.TrailingZeros64(m) / 8
}

// SWAR scans buf eight bytes at a time and writes its structural indexes into
// out. Runs of spaces and the bodies of strings are skipped a word at a time.
// It produces the same result as Bytewise, but it reads up to WordPadding
// bytes past len(buf); cap(buf)-len(buf) must be at least WordPadding.
func SWAR(buf []byte, out []uint32, partial bool) Result {
	o := output{out: out}
	i, f := prologue(buf)
	if f != None {
		return o.finish(len(buf), Result{Fault: f})
	}
	n := len(buf)
	wide := buf[:n+WordPadding]
	sep := true
	for i < n {
		if w := binary.LittleEndian.Uint64(wide[i:]); w == spaces {
			i = min(i+8, n)
			sep = true
			continue
		}
		switch c := buf[i]; class[c] {
		case cSpace:
			sep = true
			i++
		case cPunct:
			if !o.emit(i) {
				return o.finish(n, Result{Fault: Overflow, Pos: i})
			}
			sep = true
			i++
		case cQuote:
			if !o.emit(i) {
				return o.finish(n, Result{Fault: Overflow, Pos: i})
			}
			end, f := skipStringSWAR(wide, n, i+1)
			if f == UnclosedString && partial {
				return o.finish(n, Result{InString: true})
			} else if f != None {
				return o.finish(n, Result{Fault: f, Pos: end})
			}
			i = end + 1
			sep = true
		default:
			if sep && !o.emit(i) {
				return o.finish(n, Result{Fault: Overflow, Pos: i})
			}
			sep = false
			i++
		}
	}
	return o.finish(n, Result{})
}

// skipStringSWAR is skipStringBytewise reading a word at a time from wide,
// whose logical length is n.
func skipStringSWAR(wide []byte, n, i int) (int, Fault) {
	for i < n {
		j := stringStop(binary.LittleEndian.Uint64(wide[i:]))
		if j == 8 {
			i += 8
			continue
		}
		i += j
		if i >= n {
			break
		}
		switch c := wide[i]; {
		case c == '"':
			return i, None
		case c == '\\':
			i += 2
		default:
			return i, UnescapedChars
		}
	}
	return n, UnclosedString
}
