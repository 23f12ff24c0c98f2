// Copyright (C) 2026 Michael J. Fromberger. All Rights Reserved.

package jtape

import (
	"github.com/creachadair/jtape/internal/stage1"
	"go4.org/mem"
)

// closeQuote returns the offset of the quotation mark that closes the string
// whose opening quote is at pos, searching no further than n.
func (p *structuralParser) closeQuote(pos int) int {
	for i := pos + 1; i < p.n; {
		switch c := p.buf[i]; {
		case c == '"':
			return i
		case c == '\\':
			i += 2
		case c < 0x20:
			p.onError(UnescapedChars, i, "control character %q in string", c)
		default:
			i++
		}
	}
	p.onError(UnclosedString, pos, "")
	panic("unreachable")
}

// parseString appends the string whose opening quote is at pos to the tape
// and returns the offset just past its closing quote.
func (p *structuralParser) parseString(pos int) int {
	end := p.closeQuote(pos)
	if err := p.t.appendString(p.buf[pos+1 : end]); err != nil {
		p.fail(StringError, pos, err, "%v", err)
	}
	return end + 1
}

var (
	litTrue  = mem.S("true")
	litFalse = mem.S("false")
	litNull  = mem.S("null")
)

// parseAtom appends the literal at pos to the tape and returns the offset
// just past it. The literal must be followed by a delimiter or by the end of
// the input.
func (p *structuralParser) parseAtom(pos int) int {
	var want mem.RO
	var tag Tag
	var code ErrorCode
	switch p.buf[pos] {
	case 't':
		want, tag, code = litTrue, TagTrue, TAtomError
	case 'f':
		want, tag, code = litFalse, TagFalse, FAtomError
	default:
		want, tag, code = litNull, TagNull, NAtomError
	}
	end := pos + want.Len()
	if end > p.n || !mem.B(p.buf[pos:end]).Equal(want) {
		p.onError(code, pos, "")
	}
	if end < p.n && !stage1.IsDelimiter(p.buf[end]) {
		p.onError(code, end, "invalid character after %s", want.StringCopy())
	}
	p.t.append(tag, 0)
	return end
}
