// Copyright (C) 2026 Michael J. Fromberger. All Rights Reserved.

package jtape

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/cespare/xxhash/v2"
	"github.com/creachadair/jtape/internal/escape"
	"go4.org/mem"
)

// Tag is the type of a tape entry.
type Tag byte

// Constants defining the valid Tag values.
const (
	TagRoot        Tag = 'r' // root; payload is the index past the closing root
	TagStartObject Tag = '{' // payload is the index past the matching close
	TagEndObject   Tag = '}' // payload is the index of the matching open
	TagStartArray  Tag = '[' // payload is the index past the matching close
	TagEndArray    Tag = ']' // payload is the index of the matching open
	TagString      Tag = '"' // payload is an offset into the string buffer
	TagInt64       Tag = 'l' // followed by one raw int64 entry
	TagUint64      Tag = 'u' // followed by one raw uint64 entry
	TagFloat64     Tag = 'd' // followed by one raw float64 entry
	TagTrue        Tag = 't'
	TagFalse       Tag = 'f'
	TagNull        Tag = 'n'
)

func (t Tag) String() string {
	switch t {
	case TagRoot:
		return "root"
	case TagStartObject:
		return "start object"
	case TagEndObject:
		return "end object"
	case TagStartArray:
		return "start array"
	case TagEndArray:
		return "end array"
	case TagString:
		return "string"
	case TagInt64:
		return "int64"
	case TagUint64:
		return "uint64"
	case TagFloat64:
		return "float64"
	case TagTrue:
		return "true"
	case TagFalse:
		return "false"
	case TagNull:
		return "null"
	default:
		return fmt.Sprintf("Tag(%q)", byte(t))
	}
}

const payloadMask = 1<<56 - 1

// A Tape is the parsed representation of one JSON document: a sequence of
// tagged 64-bit entries plus a buffer of unescaped string contents. A Tape is
// owned by a Parser and overwritten by each parse.
type Tape struct {
	entries  []uint64
	strings  []byte
	capacity int
}

// tapeSize reports the number of entries and string bytes needed to hold the
// tape for a document of up to capacity bytes.
func tapeSize(capacity int) (entries, strs int) {
	return (capacity+63)&^63 + 2, 5*capacity/3 + 32
}

// allocate replaces the buffers of t with buffers sized for capacity. A
// capacity of zero releases the buffers.
func (t *Tape) allocate(capacity int) error {
	if capacity < 0 || capacity > MaxCapacity {
		return Memalloc
	}
	t.capacity = capacity
	if capacity == 0 {
		t.entries, t.strings = nil, nil
		return nil
	}
	ne, ns := tapeSize(capacity)
	t.entries = make([]uint64, 0, ne)
	t.strings = make([]byte, 0, ns)
	return nil
}

// allocated reports whether t has buffers.
func (t *Tape) allocated() bool { return t.entries != nil }

func (t *Tape) reset() {
	t.entries = t.entries[:0]
	t.strings = t.strings[:0]
}

// append adds an entry and returns its index.
func (t *Tape) append(tag Tag, payload uint64) int {
	t.entries = append(t.entries, uint64(tag)<<56|payload&payloadMask)
	return len(t.entries) - 1
}

func (t *Tape) appendRaw(v uint64) { t.entries = append(t.entries, v) }

func (t *Tape) patch(i int, tag Tag, payload uint64) {
	t.entries[i] = uint64(tag)<<56 | payload&payloadMask
}

// appendString unescapes the raw contents of a JSON string (without its
// quotation marks) into the string buffer and adds an entry for it.
func (t *Tape) appendString(raw []byte) error {
	off := len(t.strings)
	t.strings = append(t.strings, 0, 0, 0, 0)
	out, err := escape.Append(t.strings, mem.B(raw))
	if err != nil {
		t.strings = t.strings[:off]
		return err
	}
	binary.LittleEndian.PutUint32(out[off:], uint32(len(out)-off-4))
	t.strings = append(out, 0)
	t.append(TagString, uint64(off))
	return nil
}

// Len reports the number of entries in t.
func (t *Tape) Len() int { return len(t.entries) }

// Entry returns the tag and payload of entry i.
func (t *Tape) Entry(i int) (Tag, uint64) {
	v := t.entries[i]
	return Tag(v >> 56), v & payloadMask
}

// Tag returns the tag of entry i.
func (t *Tape) Tag(i int) Tag { return Tag(t.entries[i] >> 56) }

// StringBytes returns the unescaped contents of the string at entry i.
// The result aliases the tape and is only valid until the next parse.
// It panics if entry i is not a string.
func (t *Tape) StringBytes(i int) []byte {
	tag, off := t.Entry(i)
	if tag != TagString {
		panic(fmt.Sprintf("jtape: entry %d is %v, not string", i, tag))
	}
	n := binary.LittleEndian.Uint32(t.strings[off:])
	return t.strings[off+4 : off+4+uint64(n)]
}

// String returns a copy of the unescaped contents of the string at entry i.
func (t *Tape) String(i int) string { return string(t.StringBytes(i)) }

// Int64 returns the value of the int64 at entry i.
func (t *Tape) Int64(i int) int64 { t.check(i, TagInt64); return int64(t.entries[i+1]) }

// Uint64 returns the value of the uint64 at entry i.
func (t *Tape) Uint64(i int) uint64 { t.check(i, TagUint64); return t.entries[i+1] }

// Float64 returns the value of the float64 at entry i.
func (t *Tape) Float64(i int) float64 {
	t.check(i, TagFloat64)
	return math.Float64frombits(t.entries[i+1])
}

func (t *Tape) check(i int, want Tag) {
	if tag := t.Tag(i); tag != want {
		panic(fmt.Sprintf("jtape: entry %d is %v, not %v", i, tag, want))
	}
}

// Skip returns the index of the entry following the value at entry i,
// skipping over the contents of containers and the payload of numbers.
func (t *Tape) Skip(i int) int {
	switch tag, v := t.Entry(i); tag {
	case TagStartObject, TagStartArray:
		return int(v)
	case TagInt64, TagUint64, TagFloat64:
		return i + 2
	default:
		return i + 1
	}
}

// Fingerprint returns a hash of the contents of t. Two tapes have the same
// fingerprint if they describe the same document.
func (t *Tape) Fingerprint() uint64 {
	d := xxhash.New()
	var buf [8]byte
	for _, v := range t.entries {
		binary.LittleEndian.PutUint64(buf[:], v)
		d.Write(buf[:])
	}
	d.Write(t.strings)
	return d.Sum64()
}

// Dump writes a human-readable listing of the entries of t to w, one entry
// per line.
func (t *Tape) Dump(w io.Writer) error {
	bw := bufio.NewWriter(w)
	for i := 0; i < len(t.entries); i++ {
		tag, v := t.Entry(i)
		fmt.Fprintf(bw, "%d : %c", i, byte(tag))
		switch tag {
		case TagRoot:
			fmt.Fprintf(bw, "\t// pointing to %d", v)
		case TagStartObject, TagStartArray:
			fmt.Fprintf(bw, "\t// pointing to next tape location %d (first node after the scope)", v)
		case TagEndObject, TagEndArray:
			fmt.Fprintf(bw, "\t// pointing to previous tape location %d (start of the scope)", v)
		case TagString:
			fmt.Fprintf(bw, "\tstring %s", escape.Quote(mem.B(t.StringBytes(i))))
		case TagInt64:
			i++
			fmt.Fprintf(bw, "\tinteger %d", int64(t.entries[i]))
		case TagUint64:
			i++
			fmt.Fprintf(bw, "\tunsigned integer %d", t.entries[i])
		case TagFloat64:
			i++
			fmt.Fprintf(bw, "\tfloat %v", math.Float64frombits(t.entries[i]))
		case TagTrue, TagFalse, TagNull:
			fmt.Fprintf(bw, "\t%v", tag)
		default:
			fmt.Fprintf(bw, "\tunknown payload %d", v)
		}
		bw.WriteByte('\n')
	}
	return bw.Flush()
}
