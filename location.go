// Copyright (C) 2026 Michael J. Fromberger. All Rights Reserved.

package jtape

import (
	"bytes"
	"fmt"
)

// A Span describes a contiguous span of a source input.
type Span struct {
	Pos int // the start offset, 0-based
	End int // the end offset, 0-based (noninclusive)
}

// A LineCol describes the line number and column offset of a location in
// source text.
type LineCol struct {
	Line   int // line number, 1-based
	Column int // byte offset of column in line, 0-based
}

func (lc LineCol) String() string { return fmt.Sprintf("%d:%d", lc.Line, lc.Column) }

// locate returns the line and column of offset pos in buf. Offsets past the
// end of buf are reported relative to the end.
func locate(buf []byte, pos int) LineCol {
	pos = min(pos, len(buf))
	head := buf[:pos]
	line := bytes.Count(head, []byte{'\n'})
	col := pos - (bytes.LastIndexByte(head, '\n') + 1)
	return LineCol{Line: line + 1, Column: col}
}
