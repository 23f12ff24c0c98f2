// Copyright (C) 2026 Michael J. Fromberger. All Rights Reserved.

package jtape_test

import (
	"errors"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/creachadair/jtape"
	"github.com/creachadair/jtape/internal/testutil"
	"github.com/google/go-cmp/cmp"
)

// streamResult summarizes one document extracted from a stream.
type streamResult struct {
	Offset      int
	Fingerprint uint64
	Status      jtape.ErrorCode
}

func collect(t *testing.T, s *jtape.DocumentStream) []streamResult {
	t.Helper()
	var out []streamResult
	for {
		err := s.Next()
		if err == io.EOF {
			return out
		} else if err != nil {
			t.Fatalf("Next: unexpected error at document %d: %v", len(out)+1, err)
		}
		out = append(out, streamResult{
			Offset:      s.Offset(),
			Fingerprint: mustTape(t, s.Doc()).Fingerprint(),
			Status:      s.Status(),
		})
	}
}

// expected parses each of docs separately and reports the results a stream
// over their concatenation with sep should produce.
func expected(t *testing.T, docs []string, sep string) []streamResult {
	t.Helper()
	p := jtape.New()
	var out []streamResult
	var pos int
	for i, d := range docs {
		doc, err := p.ParseString(d)
		if err != nil {
			t.Fatalf("Parse %q: %v", d, err)
		}
		status := jtape.SuccessAndHasMore
		if i == len(docs)-1 {
			status = jtape.Success
		}
		out = append(out, streamResult{
			Offset:      pos,
			Fingerprint: mustTape(t, doc).Fingerprint(),
			Status:      status,
		})
		pos += len(d) + len(sep)
	}
	return out
}

func TestParseMany(t *testing.T) {
	docs := testutil.Documents(3, 100)
	var longest int
	for _, d := range docs {
		longest = max(longest, len(d))
	}
	const sep = "\n"
	input := testutil.Concat(docs, sep)
	want := expected(t, docs, sep)

	// Vary the batch size so that window boundaries fall at many different
	// points, including inside multi-byte characters.
	sizes := []int{0, len(input), len(input) + 100}
	for i := 1; i <= 16; i++ {
		sizes = append(sizes, longest+i)
	}
	for _, size := range sizes {
		for _, impl := range jtape.Available() {
			p := jtape.New(jtape.WithImplementation(impl))
			s := p.ParseMany(input, size)
			got := collect(t, s)
			if diff := cmp.Diff(want, got); diff != "" {
				t.Errorf("%s: batch %d (-want, +got):\n%s", impl.Name(), size, diff)
			}
			if s.Count() != len(docs) {
				t.Errorf("%s: batch %d: count %d, want %d", impl.Name(), size, s.Count(), len(docs))
			}
			if err := s.Err(); err != nil {
				t.Errorf("%s: batch %d: unexpected error: %v", impl.Name(), size, err)
			}
		}
	}
}

func TestParseManyScalars(t *testing.T) {
	p := jtape.New()
	s := p.ParseMany([]byte(`1 "two" 3.5 true [] {}`), 8)
	var tags []jtape.Tag
	var spans []jtape.Span
	for doc, err := range s.All() {
		if err != nil {
			t.Fatalf("Next: unexpected error: %v", err)
		}
		tags = append(tags, doc.Tag())
		spans = append(spans, s.Span())
	}
	if diff := cmp.Diff([]jtape.Tag{
		jtape.TagInt64, jtape.TagString, jtape.TagFloat64, jtape.TagTrue, jtape.TagStartArray, jtape.TagStartObject,
	}, tags); diff != "" {
		t.Errorf("Tags (-want, +got):\n%s", diff)
	}
	if diff := cmp.Diff([]jtape.Span{
		{Pos: 0, End: 1}, {Pos: 2, End: 7}, {Pos: 8, End: 11}, {Pos: 12, End: 16}, {Pos: 17, End: 19}, {Pos: 20, End: 22},
	}, spans); diff != "" {
		t.Errorf("Spans (-want, +got):\n%s", diff)
	}
	if got := s.Status(); got != jtape.Success {
		t.Errorf("Final status: got %v, want %v", got, jtape.Success)
	}
}

func TestParseManyBatchEdge(t *testing.T) {
	// Each batch is exactly as long as the longest document.
	tests := []struct {
		input string
		batch int
		want  []jtape.Tag
	}{
		{`123 456`, 3, []jtape.Tag{jtape.TagInt64, jtape.TagInt64}},
		{`null null`, 4, []jtape.Tag{jtape.TagNull, jtape.TagNull}},
		{`true false`, 5, []jtape.Tag{jtape.TagTrue, jtape.TagFalse}},
		{`false true`, 5, []jtape.Tag{jtape.TagFalse, jtape.TagTrue}},
		{"1.5\n-2.5\n3", 4, []jtape.Tag{jtape.TagFloat64, jtape.TagFloat64, jtape.TagInt64}},
		{`[1,2,3] [4,5,6]`, 7, []jtape.Tag{jtape.TagStartArray, jtape.TagStartArray}},
		{`"ab" "cd"`, 4, []jtape.Tag{jtape.TagString, jtape.TagString}},
	}
	for _, tc := range tests {
		for _, impl := range jtape.Available() {
			s := jtape.New(jtape.WithImplementation(impl)).ParseMany([]byte(tc.input), tc.batch)
			var got []jtape.Tag
			for doc, err := range s.All() {
				if err != nil {
					t.Fatalf("%s: ParseMany(%q, %d): unexpected error: %v", impl.Name(), tc.input, tc.batch, err)
				}
				got = append(got, doc.Tag())
			}
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Errorf("%s: ParseMany(%q, %d) tags (-want, +got):\n%s", impl.Name(), tc.input, tc.batch, diff)
			}
		}
	}

	// A scalar one byte longer than the batch still does not fit.
	s := jtape.New().ParseMany([]byte(`true false`), 4)
	if err := s.Next(); err != nil {
		t.Fatalf("Next: unexpected error: %v", err)
	}
	if err := s.Next(); !errors.Is(err, jtape.Capacity) {
		t.Errorf("Next: got %v, want %v", err, jtape.Capacity)
	}
}

func TestParseManyEmpty(t *testing.T) {
	for _, input := range []string{"", "   ", "\n\t\r\n"} {
		s := jtape.New().ParseMany([]byte(input), 0)
		if err := s.Next(); err != io.EOF {
			t.Errorf("Next(%q): got %v, want %v", input, err, io.EOF)
		}
		if s.Count() != 0 || s.Err() != nil {
			t.Errorf("Stream(%q): count %d, err %v; want 0, nil", input, s.Count(), s.Err())
		}
	}
}

func TestParseManyTrailingSpace(t *testing.T) {
	s := jtape.New().ParseMany([]byte("[1]\n[2]\n\n  "), 0)
	got := collect(t, s)
	if len(got) != 2 {
		t.Fatalf("Got %d documents, want 2", len(got))
	}
	if got[0].Status != jtape.SuccessAndHasMore || got[1].Status != jtape.Success {
		t.Errorf("Statuses: got %v, %v; want %v, %v", got[0].Status, got[1].Status,
			jtape.SuccessAndHasMore, jtape.Success)
	}
}

func TestParseManyBatchTooSmall(t *testing.T) {
	s := jtape.New().ParseMany([]byte(`[1,2,3] [4,5,6]`), 4)
	if err := s.Next(); !errors.Is(err, jtape.Capacity) {
		t.Errorf("Next: got %v, want %v", err, jtape.Capacity)
	}
	if got := s.Status(); got != jtape.Capacity {
		t.Errorf("Status: got %v, want %v", got, jtape.Capacity)
	}
}

func TestParseManyError(t *testing.T) {
	const input = "[1]\n[2,]\n[3]"
	p := jtape.New()
	s := p.ParseMany([]byte(input), 0)
	if err := s.Next(); err != nil {
		t.Fatalf("Next: unexpected error: %v", err)
	}
	first := s.Doc()

	err := s.Next()
	var e *jtape.Error
	if !errors.As(err, &e) {
		t.Fatalf("Next: got %v, want *Error", err)
	}
	if e.Code != jtape.TapeError || e.Offset != strings.Index(input, ",]")+1 {
		t.Errorf("Error: got %v at %d, want %v at %d", e.Code, e.Offset, jtape.TapeError, strings.Index(input, ",]")+1)
	}
	if want := (jtape.LineCol{Line: 2, Column: 3}); e.Location != want {
		t.Errorf("Location: got %v, want %v", e.Location, want)
	}
	if first.Valid() {
		t.Error("First document is still valid after a later Next")
	}

	// The stream stops at the first error.
	if err2 := s.Next(); err2 != err {
		t.Errorf("Next after error: got %v, want %v", err2, err)
	}
	if s.Err() != err {
		t.Errorf("Err: got %v, want %v", s.Err(), err)
	}
	if got := p.ErrorCode(); got != jtape.TapeError {
		t.Errorf("Parser error code: got %v, want %v", got, jtape.TapeError)
	}
}

func TestParseManyUnclosed(t *testing.T) {
	s := jtape.New().ParseMany([]byte(`{"a":1} {"b":`), 0)
	if err := s.Next(); err != nil {
		t.Fatalf("Next: unexpected error: %v", err)
	}
	if got := s.Status(); got != jtape.SuccessAndHasMore {
		t.Errorf("Status: got %v, want %v", got, jtape.SuccessAndHasMore)
	}
	if err := s.Next(); !errors.Is(err, jtape.TapeError) {
		t.Errorf("Next: got %v, want %v", err, jtape.TapeError)
	}
}

func TestParseManyAllStops(t *testing.T) {
	s := jtape.New().ParseMany([]byte(`1 2 3 4 5`), 0)
	var n int
	for _, err := range s.All() {
		if err != nil {
			t.Fatalf("All: unexpected error: %v", err)
		}
		n++
		if n == 2 {
			break
		}
	}
	if s.Count() != 2 {
		t.Errorf("Count: got %d, want 2", s.Count())
	}

	// Iteration resumes where it stopped.
	var rest []int64
	for doc := range s.All() {
		tape := mustTape(t, doc)
		rest = append(rest, tape.Int64(doc.Index()))
	}
	if diff := cmp.Diff([]int64{3, 4, 5}, rest); diff != "" {
		t.Errorf("Remaining (-want, +got):\n%s", diff)
	}
}

func TestLoadMany(t *testing.T) {
	dir := t.TempDir()
	docs := testutil.Documents(4, 40)
	want := expected(t, docs, "\n")
	var longest int
	for _, d := range docs {
		longest = max(longest, len(d))
	}

	p := jtape.New()
	for _, ext := range []string{".jsonl", ".jsonl.zst", ".jsonl.gz"} {
		path := filepath.Join(dir, "docs"+ext)
		writeFile(t, path, string(testutil.Concat(docs, "\n")))
		got := collect(t, p.LoadMany(path, longest+1))
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("LoadMany %q (-want, +got):\n%s", ext, diff)
		}
	}

	s := p.LoadMany(filepath.Join(dir, "nonesuch.jsonl"), 0)
	if err := s.Next(); !errors.Is(err, jtape.IOError) {
		t.Errorf("LoadMany missing: got %v, want %v", err, jtape.IOError)
	}
}
