// Copyright (C) 2023 Michael J. Fromberger. All Rights Reserved.

// Package escape handles quoting and unquoting of JSON strings.
package escape

import (
	"errors"
	"fmt"
	"unicode/utf16"
	"unicode/utf8"

	"go4.org/mem"
)

// Errors reported by Append.
var (
	ErrIncomplete = errors.New("incomplete escape sequence")
	ErrInvalid    = errors.New("invalid escape sequence")
	ErrSurrogate  = errors.New("invalid surrogate pair")
)

// Append decodes the JSON encoding of a string and appends the result to
// dst. The input must have the enclosing double quotation marks already
// removed.
//
// Escape sequences are replaced with their unescaped equivalents, and UTF-16
// surrogate pairs written as two \u escapes are combined. Unlike the lenient
// decoders used for display, Append reports an error for any escape that is
// not valid JSON, including a lone surrogate. On error, the returned slice is
// dst with an unspecified suffix; callers should discard it.
func Append(dst []byte, src mem.RO) ([]byte, error) {
	i := mem.IndexByte(src, '\\')
	if i < 0 {
		return mem.Append(dst, src), nil
	}

	putByte := func(b byte) { dst = append(dst, b) }
	for src.Len() != 0 {
		dst = mem.Append(dst, src.SliceTo(i))

		src = src.SliceFrom(i + 1)
		if src.Len() == 0 {
			return dst, ErrIncomplete
		}
		c := src.At(0)
		src = src.SliceFrom(1)
		switch c {
		case '"', '\\', '/':
			putByte(c)
		case 'b':
			putByte('\b')
		case 'f':
			putByte('\f')
		case 'n':
			putByte('\n')
		case 'r':
			putByte('\r')
		case 't':
			putByte('\t')
		case 'u':
			r, rest, err := decodeUnicode(src)
			if err != nil {
				return dst, err
			}
			dst = utf8.AppendRune(dst, r)
			src = rest
		default:
			return dst, fmt.Errorf("%w: \\%c", ErrInvalid, c)
		}

		// Look for the next escape sequence, and if one is not found we can blit
		// the rest of the input and go home.
		i = mem.IndexByte(src, '\\')
		if i < 0 {
			dst = mem.Append(dst, src)
			break
		}
	}
	return dst, nil
}

// decodeUnicode decodes the hex digits of a \u escape at the front of src,
// whose backslash and 'u' have been consumed. A high surrogate must be
// followed by a second escape holding its low surrogate.
func decodeUnicode(src mem.RO) (rune, mem.RO, error) {
	if src.Len() < 4 {
		return 0, src, ErrIncomplete
	}
	v, err := parseHex(src.SliceTo(4))
	if err != nil {
		return 0, src, err
	}
	src = src.SliceFrom(4)
	r := rune(v)
	if !utf16.IsSurrogate(r) {
		return r, src, nil
	}
	if r >= 0xDC00 || src.Len() < 6 || src.At(0) != '\\' || src.At(1) != 'u' {
		return 0, src, ErrSurrogate
	}
	lo, err := parseHex(src.Slice(2, 6))
	if err != nil {
		return 0, src, err
	}
	dec := utf16.DecodeRune(r, rune(lo))
	if dec == utf8.RuneError {
		return 0, src, ErrSurrogate
	}
	return dec, src.SliceFrom(6), nil
}

func parseHex(data mem.RO) (int64, error) {
	var v int64
	for i := 0; i < data.Len(); i++ {
		b := data.At(i)
		v <<= 4
		if '0' <= b && b <= '9' {
			v += int64(b - '0')
		} else if 'a' <= b && b <= 'f' {
			v += int64(b - 'a' + 10)
		} else if 'A' <= b && b <= 'F' {
			v += int64(b - 'A' + 10)
		} else {
			return 0, fmt.Errorf("%w: hex digit %q", ErrInvalid, b)
		}
	}
	return v, nil
}
