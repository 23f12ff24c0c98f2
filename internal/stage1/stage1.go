// Copyright (C) 2026 Michael J. Fromberger. All Rights Reserved.

// Package stage1 implements structural index discovery for JSON text.
//
// A structural index is the byte offset of a token-delimiting character: one
// of the punctuation bytes {}[],: or the first byte of a string, number or
// literal. The kernels in this package write those offsets in order into a
// caller-provided slice and append a sentinel equal to the input length.
//
// Two kernels are provided. Bytewise examines one byte at a time and never
// reads past the end of its input. SWAR examines eight bytes at a time and
// may read up to WordPadding bytes past the end of its input; the caller must
// guarantee those bytes are addressable.
package stage1

// A Fault reports why a scan failed.
type Fault byte

// Constants defining the valid Fault values.
const (
	None           Fault = iota // no error
	Empty                       // no structural content in the input
	UnclosedString              // input ends inside a string
	UnescapedChars              // raw control character inside a string
	UnsupportedBOM              // UTF-16 or UTF-32 byte order mark
	Overflow                    // output slice too small
)

var faultStr = [...]string{
	None:           "no error",
	Empty:          "no JSON found",
	UnclosedString: "unclosed string",
	UnescapedChars: "unescaped control character in string",
	UnsupportedBOM: "unsupported byte order mark",
	Overflow:       "too many structural indexes",
}

func (f Fault) String() string {
	if int(f) >= len(faultStr) {
		return "unknown fault"
	}
	return faultStr[f]
}

// Result describes the outcome of a scan.
type Result struct {
	N        int   // number of structural indexes written, excluding the sentinel
	Fault    Fault // None on success
	Pos      int   // offset of the fault, if any
	InString bool  // the input ended inside a string (partial scans only)
}

// WordPadding is the number of bytes SWAR may read past the end of its input.
const WordPadding = 8

// Byte classes for the scanners.
const (
	cOther = iota
	cSpace
	cPunct
	cQuote
)

var class = [256]byte{
	' ': cSpace, '\t': cSpace, '\n': cSpace, '\r': cSpace,
	'{': cPunct, '}': cPunct, '[': cPunct, ']': cPunct, ',': cPunct, ':': cPunct,
	'"': cQuote,
}

// IsSpace reports whether b is JSON whitespace.
func IsSpace(b byte) bool { return class[b] == cSpace }

// IsPunct reports whether b is one of the structural punctuation bytes.
func IsPunct(b byte) bool { return class[b] == cPunct }

// IsDelimiter reports whether b ends a number or literal token.
func IsDelimiter(b byte) bool { return class[b] == cSpace || class[b] == cPunct }

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// prologue reports the offset where scanning should begin, skipping a UTF-8
// byte order mark, or a fault if the input begins with some other BOM.
func prologue(buf []byte) (int, Fault) {
	if len(buf) >= 3 && buf[0] == utf8BOM[0] && buf[1] == utf8BOM[1] && buf[2] == utf8BOM[2] {
		return 3, None
	}
	if len(buf) >= 2 && (buf[0] == 0xFE && buf[1] == 0xFF || buf[0] == 0xFF && buf[1] == 0xFE) {
		return 0, UnsupportedBOM
	}
	if len(buf) >= 4 && buf[0] == 0 && buf[1] == 0 && buf[2] == 0xFE && buf[3] == 0xFF {
		return 0, UnsupportedBOM
	}
	return 0, None
}

// output accumulates structural indexes.
type output struct {
	out []uint32
	n   int
}

func (o *output) emit(pos int) bool {
	if o.n >= len(o.out)-1 { // leave room for the sentinel
		return false
	}
	o.out[o.n] = uint32(pos)
	o.n++
	return true
}

func (o *output) finish(end int, res Result) Result {
	res.N = o.n
	if res.Fault == None && o.n == 0 {
		res.Fault = Empty
		res.Pos = end
	}
	if o.n < len(o.out) {
		o.out[o.n] = uint32(end)
	}
	return res
}

// Bytewise scans buf one byte at a time and writes its structural indexes
// into out. If partial is true, input ending inside a string is reported by
// setting InString instead of a fault.
func Bytewise(buf []byte, out []uint32, partial bool) Result {
	o := output{out: out}
	i, f := prologue(buf)
	if f != None {
		return o.finish(len(buf), Result{Fault: f})
	}
	n := len(buf)
	sep := true // the previous byte ends a token
	for i < n {
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
			end, f := skipStringBytewise(buf, i+1)
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

// skipStringBytewise returns the offset of the quotation mark closing the
// string whose contents begin at i.
func skipStringBytewise(buf []byte, i int) (int, Fault) {
	for i < len(buf) {
		switch c := buf[i]; {
		case c == '"':
			return i, None
		case c == '\\':
			i += 2
		case c < 0x20:
			return i, UnescapedChars
		default:
			i++
		}
	}
	return len(buf), UnclosedString
}
