// Copyright (C) 2026 Michael J. Fromberger. All Rights Reserved.

package jtape

import "github.com/sirupsen/logrus"

// A structuralParser builds a tape from an input and the structural indexes
// stage 1 found in it (stage 2 of a parse). It reports failures by panicking
// with an *Error, which runStage2 recovers.
type structuralParser struct {
	buf []byte // the input, or the current window of a stream
	n   int    // len(buf); no byte at or past n is examined
	s   *Scratch
	t   *Tape
	log *logrus.Entry

	succeed func(ErrorCode) // if set, called when a document is complete
}

func newStructuralParser(buf []byte, s *Scratch, t *Tape, log *logrus.Entry) *structuralParser {
	return &structuralParser{buf: buf, n: len(buf), s: s, t: t, log: log}
}

// A stage2Driver sequences the steps of stage 2. The plain and streaming
// parsers differ in how they start and finish.
type stage2Driver interface {
	start()
	parseRootValue() int
	finish() ErrorCode
}

// runStage2 runs d to completion. It returns the end offset of the root
// value and a success code, or an error.
func runStage2(d stage2Driver) (end int, code ErrorCode, err error) {
	defer func() {
		if x := recover(); x != nil {
			e, ok := x.(*Error)
			if !ok {
				panic(x)
			}
			end, code, err = 0, e.Code, e
		}
	}()
	d.start()
	end = d.parseRootValue()
	return end, d.finish(), nil
}

func (p *structuralParser) start() {
	if p.n > p.s.capacity {
		p.onError(Capacity, -1, "input of %d bytes exceeds capacity %d", p.n, p.s.capacity)
	}
	p.s.Next = 0
	p.begin()
}

// begin resets the tape and opens the root scope.
func (p *structuralParser) begin() {
	p.t.reset()
	p.s.scopes = p.s.scopes[:0]
	p.push(TagRoot, -1)
}

func (p *structuralParser) parseRootValue() int {
	pos, ok := p.advance()
	if !ok {
		p.onError(Empty, -1, "")
	}
	return p.parseValue(pos)
}

func (p *structuralParser) finish() ErrorCode {
	if p.s.Next > p.s.N {
		p.onError(TapeError, p.n, "structural cursor past the end")
	}
	return p.closeRoot()
}

// closeRoot pops the root scope and writes the closing root entry.
func (p *structuralParser) closeRoot() ErrorCode {
	if len(p.s.scopes) != 1 {
		p.onError(TapeError, p.n, "unclosed objects or arrays")
	}
	p.s.scopes = p.s.scopes[:0]
	p.t.append(TagRoot, 0)
	p.t.patch(0, TagRoot, uint64(p.t.Len()))
	if p.s.Next < p.s.N {
		return p.onSuccess(SuccessAndHasMore)
	}
	return p.onSuccess(Success)
}

// onSuccess is the exit for a completed document. It reports code to the
// owner of the parser and returns it.
func (p *structuralParser) onSuccess(code ErrorCode) ErrorCode {
	if p.succeed != nil {
		p.succeed(code)
	}
	return code
}

// advance returns the offset of the next structural, or false if none remain.
func (p *structuralParser) advance() (int, bool) {
	if p.s.Next >= p.s.N {
		return p.n, false
	}
	pos := int(p.s.Indexes[p.s.Next])
	p.s.Next++
	return pos, true
}

// require returns the offset of the next structural, failing if none remain
// inside the container opened at open.
func (p *structuralParser) require(open int) int {
	pos, ok := p.advance()
	if !ok {
		p.onError(TapeError, open, "unclosed %s", containerName(p.buf[open]))
	}
	return pos
}

func containerName(c byte) string {
	if c == '{' {
		return "object"
	}
	return "array"
}

// push opens a scope and writes its opening tape entry. The structural that
// opened it is at offset pos, or pos < 0 for the root.
func (p *structuralParser) push(tag Tag, pos int) {
	if len(p.s.scopes) == cap(p.s.scopes) {
		p.onError(DepthError, pos, "nesting exceeds maximum depth %d", p.s.maxDepth)
	}
	p.s.scopes = append(p.s.scopes, scope{tape: p.t.append(tag, 0), tag: tag})
}

// pop closes the innermost scope, writing its closing tape entry.
func (p *structuralParser) pop(close Tag) {
	top := p.s.scopes[len(p.s.scopes)-1]
	p.s.scopes = p.s.scopes[:len(p.s.scopes)-1]
	p.t.append(close, uint64(top.tape))
	p.t.patch(top.tape, top.tag, uint64(p.t.Len()))
}

// parseValue parses the value whose first structural is at pos and returns
// the offset just past its end.
func (p *structuralParser) parseValue(pos int) int {
	switch c := p.buf[pos]; c {
	case '{':
		p.push(TagStartObject, pos)
		end := p.parseMembers(pos)
		p.pop(TagEndObject)
		return end
	case '[':
		p.push(TagStartArray, pos)
		end := p.parseElements(pos)
		p.pop(TagEndArray)
		return end
	case '"':
		return p.parseString(pos)
	case 't', 'f', 'n':
		return p.parseAtom(pos)
	case '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		return p.parseNumber(pos)
	default:
		p.onError(TapeError, pos, "unexpected %q", c)
		panic("unreachable")
	}
}

// parseMembers consumes zero or more key:value object members.
// Precondition: buf[open] == '{'.
// It returns the offset just past the closing brace.
func (p *structuralParser) parseMembers(open int) int {
	pos := p.require(open)
	if p.buf[pos] == '}' {
		return pos + 1 // empty object
	}
	for {
		// Parse a single member: "key": value
		if p.buf[pos] != '"' {
			p.onError(TapeError, pos, "expected string key, got %q", p.buf[pos])
		}
		p.parseString(pos)
		if pos = p.require(open); p.buf[pos] != ':' {
			p.onError(TapeError, pos, "expected colon after key, got %q", p.buf[pos])
		}
		p.parseValue(p.require(open))

		// Check whether we have more members (",") or are done ("}").
		switch pos = p.require(open); p.buf[pos] {
		case '}':
			return pos + 1
		case ',':
			pos = p.require(open)
		default:
			p.onError(TapeError, pos, "expected comma or }, got %q", p.buf[pos])
		}
	}
}

// parseElements consumes zero or more comma-separated array values.
// Precondition: buf[open] == '['.
// It returns the offset just past the closing bracket.
func (p *structuralParser) parseElements(open int) int {
	pos := p.require(open)
	if p.buf[pos] == ']' {
		return pos + 1 // empty array
	}
	for {
		p.parseValue(pos)
		switch pos = p.require(open); p.buf[pos] {
		case ']':
			return pos + 1
		case ',':
			pos = p.require(open)
		default:
			p.onError(TapeError, pos, "expected comma or ], got %q", p.buf[pos])
		}
	}
}

// onError is the single failure exit of stage 2. It does not return.
func (p *structuralParser) onError(code ErrorCode, pos int, msg string, args ...any) {
	p.fail(code, pos, nil, msg, args...)
}

// fail is onError with an underlying cause.
func (p *structuralParser) fail(code ErrorCode, pos int, cause error, msg string, args ...any) {
	e := newError(code, p.buf, pos, msg, args...)
	e.err = cause
	if p.log.Logger.IsLevelEnabled(logrus.DebugLevel) {
		p.log.WithFields(logrus.Fields{
			"code":   code.String(),
			"offset": pos,
		}).Debug("stage 2 failed")
	}
	panic(e)
}

// parseTape runs stage 1 and stage 2 over buf, a complete document.
// Trailing content after the first value is an error. If succeed is not nil,
// stage 2 reports a completed value to it.
func parseTape(impl Implementation, buf []byte, s *Scratch, t *Tape, log *logrus.Entry, succeed func(ErrorCode)) error {
	if err := impl.Stage1(buf, s, false); err != nil {
		return err
	}
	p := newStructuralParser(buf, s, t, log)
	p.succeed = succeed
	end, code, err := runStage2(p)
	if err != nil {
		return err
	}
	if code == SuccessAndHasMore {
		pos := int(s.Indexes[s.Next])
		return newError(TapeError, buf, pos, "trailing content after value ending at %d", end)
	}
	if log.Logger.IsLevelEnabled(logrus.TraceLevel) {
		log.WithFields(logrus.Fields{
			"bytes":   len(buf),
			"entries": t.Len(),
		}).Trace("parsed document")
	}
	return nil
}
