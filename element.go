// Copyright (C) 2026 Michael J. Fromberger. All Rights Reserved.

package jtape

// An Element is a view of a value in the tape of a Parser. It is valid until
// the next operation that modifies the Parser, after which its methods report
// Uninitialized. The zero Element is never valid.
type Element struct {
	p   *Parser
	gen uint64
	idx int
}

// Valid reports whether e still refers to the current contents of its parser.
func (e Element) Valid() bool { return e.p != nil && e.p.gen == e.gen }

// Tape returns the tape holding e. It reports Uninitialized if e is stale.
func (e Element) Tape() (*Tape, error) {
	if !e.Valid() {
		return nil, Uninitialized
	}
	return &e.p.tape, nil
}

// Index returns the index of e in its tape.
func (e Element) Index() int { return e.idx }

// Tag returns the tag of the tape entry for e, or 0 if e is stale.
func (e Element) Tag() Tag {
	if !e.Valid() {
		return 0
	}
	return e.p.tape.Tag(e.idx)
}
