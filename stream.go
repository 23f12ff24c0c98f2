// Copyright (C) 2026 Michael J. Fromberger. All Rights Reserved.

package jtape

import (
	"io"
	"iter"
	"unicode/utf8"

	"github.com/creachadair/jtape/internal/stage1"
	"github.com/sirupsen/logrus"
)

// A DocumentStream parses a sequence of JSON documents from one buffer,
// running stage 1 over a window of at most batchSize bytes at a time. Each
// call to Next parses one document into the tape of the Parser that created
// the stream:
//
//	s := p.ParseMany(data, 0)
//	for s.Next() == nil {
//	   doc := s.Doc()
//	   // ... use doc
//	}
//	if err := s.Err(); err != nil {
//	   log.Fatalf("Parse failed: %v", err)
//	}
type DocumentStream struct {
	p     *Parser
	buf   []byte // the whole input; capacity covers the padding
	total int
	batch int

	sp     streamingParser
	start  int  // offset of window in buf
	resume int  // offset in buf where the next window begins
	loaded bool // window holds unconsumed documents
	grown  bool // the parser has been sized for the batch

	doc    Element
	span   Span
	status ErrorCode
	err    error
	count  int
	done   bool
}

func newDocumentStream(p *Parser, buf []byte, batchSize int) *DocumentStream {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &DocumentStream{
		p:      p,
		buf:    buf,
		total:  len(buf),
		batch:  min(batchSize, MaxCapacity),
		status: Uninitialized,
	}
}

// Next parses the next document of the stream. It returns io.EOF when no
// documents remain. If a document fails to parse, Next returns its error and
// the stream stops: every later call returns the same error.
func (d *DocumentStream) Next() error {
	if d.err != nil {
		d.done = true
		return d.err
	} else if d.done {
		return io.EOF
	}
	s := &d.p.scratch
	if !d.loaded || s.Next >= s.N {
		if err := d.load(); err == io.EOF {
			d.done, d.status = true, Success
			return err
		} else if err != nil {
			return d.fail(err)
		}
	}

	d.p.gen++
	d.p.valid = false
	first := int(s.Indexes[s.Next])
	end, _, err := runStage2(d.sp)
	if err != nil {
		return d.fail(rebase(err, d.buf, d.start))
	}
	doc, err := d.p.handOff()
	if err != nil {
		return d.fail(err)
	}
	d.count++
	d.span = Span{Pos: d.start + first, End: d.start + end}
	d.doc = doc
	if onlySpace(d.buf[d.span.End:d.total]) {
		d.status = Success
	} else {
		d.status = SuccessAndHasMore
	}
	return nil
}

// load runs stage 1 over the next window of the input. It reports io.EOF if
// only whitespace remains.
func (d *DocumentStream) load() error {
	d.loaded = false
	start := d.resume
	for start < d.total && stage1.IsSpace(d.buf[start]) {
		start++
	}
	if start >= d.total {
		return io.EOF
	}
	if !d.grown {
		if err := d.p.EnsureCapacity(min(d.batch, d.total)); err != nil {
			return err
		}
		d.grown = true
	}

	end := min(start+d.batch, d.total)
	partial := end < d.total
	if partial {
		end = trimUTF8(d.buf, start, end)
	}
	window := d.buf[start:end]
	s := &d.p.scratch
	if err := d.p.impl.Stage1(window, s, partial); err != nil {
		return rebase(err, d.buf, start)
	}
	if partial {
		k := completeDocuments(d.buf[start:d.total], len(window), s.Indexes[:s.N])
		if k == 0 {
			return newError(Capacity, d.buf, start, "document does not fit in a batch of %d bytes", d.batch)
		}
		if k < s.N {
			end = start + int(s.Indexes[k])
		}
		s.N = k
	}
	s.Next = 0
	d.start, d.resume = start, end
	d.sp = streamingParser{newStructuralParser(window, s, &d.p.tape, d.p.log)}
	d.sp.succeed = d.p.onSuccess
	d.loaded = true

	if d.p.log.Logger.IsLevelEnabled(logrus.DebugLevel) {
		d.p.log.WithFields(logrus.Fields{
			"start":       start,
			"window":      len(window),
			"structurals": s.N,
			"partial":     partial,
		}).Debug("loaded stream window")
	}
	return nil
}

func (d *DocumentStream) fail(err error) error {
	d.err, d.done = err, true
	d.status = CodeOf(err)
	d.p.err = d.status
	d.p.valid = false
	return err
}

// Doc returns the document parsed by the most recent successful call to Next.
func (d *DocumentStream) Doc() Element { return d.doc }

// Status reports SuccessAndHasMore if non-whitespace input follows the
// current document, Success if it was the last, or the code of the error
// that stopped the stream.
func (d *DocumentStream) Status() ErrorCode { return d.status }

// Err returns the error that stopped the stream, or nil.
func (d *DocumentStream) Err() error { return d.err }

// Offset returns the offset in the input of the first byte of the current
// document.
func (d *DocumentStream) Offset() int { return d.span.Pos }

// Span returns the location of the current document in the input.
func (d *DocumentStream) Span() Span { return d.span }

// Count returns the number of documents parsed so far.
func (d *DocumentStream) Count() int { return d.count }

// All returns an iterator over the remaining documents of the stream. If a
// document fails to parse, the iterator yields its error and stops.
func (d *DocumentStream) All() iter.Seq2[Element, error] {
	return func(yield func(Element, error) bool) {
		for {
			err := d.Next()
			if err == io.EOF {
				return
			} else if err != nil {
				yield(Element{}, err)
				return
			}
			if !yield(d.doc, nil) {
				return
			}
		}
	}
}

// completeDocuments returns the number of leading entries of indexes that
// belong to documents wholly contained in buf[:n]. A document is complete when
// its outermost container closes, or, for a top-level scalar, when a
// delimiter follows it. The delimiter may be buf[n], just past the window.
func completeDocuments(buf []byte, n int, indexes []uint32) int {
	depth, done := 0, 0
	for i, pos := range indexes {
		switch buf[pos] {
		case '{', '[':
			depth++
		case '}', ']':
			depth--
			if depth == 0 {
				done = i + 1
			} else if depth < 0 {
				// Malformed; let stage 2 report it.
				return len(indexes)
			}
		case ',', ':':
		default:
			if depth == 0 && scalarComplete(buf, n, int(pos)) {
				done = i + 1
			}
		}
	}
	return done
}

// scalarComplete reports whether the scalar starting at pos ends inside
// buf[:n].
func scalarComplete(buf []byte, n, pos int) bool {
	if buf[pos] == '"' {
		for i := pos + 1; i < n; i++ {
			switch buf[i] {
			case '\\':
				i++
			case '"':
				return true
			}
		}
		return false
	}
	for i := pos + 1; i <= n && i < len(buf); i++ {
		if stage1.IsDelimiter(buf[i]) || buf[i] == '"' {
			return true
		}
	}
	return false
}

// trimUTF8 moves end back so that buf[start:end] does not end in the middle
// of a UTF-8 sequence. If no boundary is found, end is returned unchanged.
func trimUTF8(buf []byte, start, end int) int {
	for i := end; i > start && i > end-utf8.UTFMax; i-- {
		if utf8.RuneStart(buf[i]) {
			return i
		}
	}
	return end
}

func onlySpace(buf []byte) bool {
	for _, b := range buf {
		if !stage1.IsSpace(b) {
			return false
		}
	}
	return true
}
