// Copyright (C) 2026 Michael J. Fromberger. All Rights Reserved.

// Package jtape implements a JSON parser that produces a compact tape
// representation of each document instead of a tree of values.
//
// # Parsing
//
// A Parser owns the buffers a parse writes into. Construct one with New and
// call one of its Parse methods. The result is an Element referring to the
// root of the document in the parser's Tape:
//
//	p := jtape.New()
//	doc, err := p.Parse(input)
//	if err != nil {
//	   log.Fatalf("Parse failed: %v", err)
//	}
//	t, _ := doc.Tape()
//	t.Dump(os.Stdout)
//
// The buffers of a Parser grow to fit the largest document it has seen, up to
// its maximum capacity, and are reused by later parses. Each parse replaces
// the tape, so an Element is valid only until the next parse; after that its
// methods report Uninitialized.
//
// A parse runs in two stages. Stage 1 finds the structural indexes of the
// input: the offsets of punctuation and of the first byte of each scalar.
// Stage 2 walks those indexes to validate the grammar and build the tape.
// Stage 1 is performed by an Implementation chosen at startup according to
// the capabilities of the CPU; see Available and Active.
//
// # Padding
//
// Stage 1 may read past the end of its input. Inputs whose capacity extends
// at least padded.Padding bytes beyond their length are parsed in place;
// other inputs are first copied into a padded.Buffer. Use ParsePadded or
// allocate input buffers with the padded package to avoid the copy.
//
// # Streams
//
// To parse a buffer holding many concatenated documents, such as a file of
// JSON lines, use ParseMany or LoadMany. The resulting DocumentStream runs
// stage 1 over a bounded window at a time and yields one document per call
// to Next:
//
//	s := p.ParseMany(input, 0)
//	for s.Next() == nil {
//	   process(s.Doc())
//	}
//	if err := s.Err(); err != nil {
//	   log.Fatalf("Parse failed at offset %d: %v", s.Offset(), err)
//	}
//
// # Errors
//
// Every failure is described by an ErrorCode. Errors that refer to a
// position in the input have concrete type *Error, which reports the offset
// and line of the failure and matches its code with errors.Is:
//
//	if errors.Is(err, jtape.DepthError) { ... }
package jtape
