// Copyright (C) 2026 Michael J. Fromberger. All Rights Reserved.

package jtape

import (
	"errors"
	"slices"

	"github.com/creachadair/jtape/internal/source"
	"github.com/creachadair/jtape/padded"
	"github.com/sirupsen/logrus"
	"github.com/tailscale/hujson"
)

const (
	// MaxCapacity is the largest document a Parser can be allocated for.
	// Tape payloads and structural indexes hold 32-bit offsets.
	MaxCapacity = 1<<32 - 1

	// DefaultMaxCapacity is the growth ceiling of a new Parser.
	DefaultMaxCapacity = MaxCapacity

	// DefaultMaxDepth is the container depth a Parser allocates for if none
	// is specified.
	DefaultMaxDepth = 1024

	// MaxDepthLimit is the largest container depth a Parser can be allocated
	// for. Larger depths report Memalloc.
	MaxDepthLimit = 1 << 20

	// DefaultBatchSize is the window size used by document streams if none
	// is specified.
	DefaultBatchSize = 1000000
)

// A Parser parses JSON documents into a Tape it owns. The buffers of a Parser
// grow on demand up to its maximum capacity and are reused by each parse, so
// a single Parser can process any number of documents without reallocating.
//
// Each parse invalidates the results of earlier ones: an Element returned by
// a previous parse reports Uninitialized once the Parser has been used again.
//
// A Parser is not safe for concurrent use.
type Parser struct {
	capacity    int
	maxCapacity int
	maxDepth    int

	valid bool
	err   ErrorCode

	tape    Tape
	scratch Scratch
	impl    Implementation
	loaded  padded.Buffer // contents of the last file loaded
	log     *logrus.Entry
	gen     uint64 // incremented by each call that changes the tape
}

// New constructs a Parser with no buffers allocated. The first parse
// allocates buffers sized for its input.
func New(opts ...Option) *Parser {
	p := &Parser{
		maxCapacity: DefaultMaxCapacity,
		err:         Uninitialized,
		impl:        Active(),
		log:         discard(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Capacity reports the size of the largest document p can parse without
// growing its buffers.
func (p *Parser) Capacity() int { return p.capacity }

// MaxCapacity reports the size beyond which p will not grow.
func (p *Parser) MaxCapacity() int { return p.maxCapacity }

// MaxDepth reports the maximum container depth p accepts.
func (p *Parser) MaxDepth() int { return p.maxDepth }

// IsValid reports whether p holds a parse result that has not been handed
// back to the caller.
func (p *Parser) IsValid() bool { return p.valid }

// ErrorCode reports the outcome of the most recent operation on p.
// After a successful parse it is Uninitialized, because the result has been
// handed off to the returned Element.
func (p *Parser) ErrorCode() ErrorCode { return p.err }

// Implementation returns the stage 1 implementation used by p.
func (p *Parser) Implementation() Implementation { return p.impl }

// SetMaxCapacity sets the size beyond which p will not grow. It does not
// change the current allocation. Values outside (0, MaxCapacity] select
// MaxCapacity.
func (p *Parser) SetMaxCapacity(n int) {
	if n <= 0 || n > MaxCapacity {
		n = MaxCapacity
	}
	p.maxCapacity = n
}

// Allocate sizes the buffers of p for documents of up to capacity bytes with
// at most maxDepth nested containers. Buffers are replaced only when the
// requested size differs from the current one. If the scratch state cannot be
// allocated, the capacity and depth of p are set to zero and Allocate reports
// Memalloc.
func (p *Parser) Allocate(capacity, maxDepth int) error {
	p.gen++
	p.valid, p.err = false, Uninitialized

	if capacity != p.capacity || !p.tape.allocated() {
		if err := p.tape.allocate(capacity); err != nil {
			p.capacity, p.maxDepth = 0, 0
			p.err = Memalloc
			return Memalloc
		}
	}
	if capacity != p.scratch.capacity || maxDepth != p.scratch.maxDepth || (capacity > 0 && p.scratch.Indexes == nil) {
		if err := p.impl.Allocate(&p.scratch, capacity, maxDepth); err != nil {
			p.capacity, p.maxDepth = 0, 0
			p.err = Memalloc
			if CodeOf(err) == UnsupportedArchitecture {
				p.err = UnsupportedArchitecture
			}
			p.log.WithError(err).WithFields(logrus.Fields{
				"capacity":  capacity,
				"max_depth": maxDepth,
			}).Warn("scratch allocation failed")
			return p.err
		}
	}
	p.capacity, p.maxDepth = capacity, maxDepth
	return nil
}

// EnsureCapacity grows the buffers of p if necessary so that a document of
// desired bytes can be parsed. It reports Capacity without changing p if
// desired exceeds the maximum capacity.
func (p *Parser) EnsureCapacity(desired int) error {
	if desired <= p.capacity && p.tape.allocated() {
		return nil
	}
	if desired > p.maxCapacity {
		p.err = Capacity
		return newError(Capacity, nil, -1, "document of %d bytes exceeds maximum capacity %d", desired, p.maxCapacity)
	}
	depth := p.maxDepth
	if depth == 0 {
		depth = DefaultMaxDepth
	}
	if p.log.Logger.IsLevelEnabled(logrus.DebugLevel) {
		p.log.WithFields(logrus.Fields{
			"from": p.capacity,
			"to":   desired,
		}).Debug("growing parser buffers")
	}
	return p.Allocate(desired, depth)
}

// Close releases the buffers held by p. The Parser remains usable and will
// reallocate on the next parse.
func (p *Parser) Close() error {
	p.loaded.Release()
	return p.Allocate(0, 0)
}

// parse parses the document in buf. If mayCopy is true, buf lacks padding and
// is copied into a padded buffer for the duration of the parse.
func (p *Parser) parse(buf []byte, mayCopy bool) (Element, error) {
	if err := p.EnsureCapacity(len(buf)); err != nil {
		return Element{}, err
	}
	p.gen++
	p.valid = false
	if mayCopy {
		buf = padded.FromBytes(buf).Bytes()
	}
	if err := parseTape(p.impl, buf, &p.scratch, &p.tape, p.log, p.onSuccess); err != nil {
		p.valid, p.err = false, CodeOf(err)
		return Element{}, err
	}
	return p.handOff()
}

// onSuccess records that stage 2 completed a document with the given code.
func (p *Parser) onSuccess(code ErrorCode) { p.valid, p.err = true, code }

// handOff transfers a completed result to the caller as an Element. The
// parser no longer reports it as valid: the Element does.
func (p *Parser) handOff() (Element, error) {
	if !p.valid {
		p.err = InternalError
		p.log.WithField("invariant", "unreported_success").Error("stage 2 finished without reporting success")
		return Element{}, &Error{Code: InternalError, Offset: -1, Message: "parse finished without a valid result"}
	}
	p.valid, p.err = false, Uninitialized
	return Element{p: p, gen: p.gen, idx: 1}, nil
}

// Parse parses a single JSON document from data and returns its root. The
// contents of data are not modified. If the capacity of data does not extend
// at least padded.Padding bytes past its length, data is copied.
func (p *Parser) Parse(data []byte) (Element, error) {
	return p.parse(data, cap(data)-len(data) < padded.Padding)
}

// ParsePadded parses a single JSON document from the contents of b without
// copying.
func (p *Parser) ParsePadded(b *padded.Buffer) (Element, error) {
	return p.parse(b.Bytes(), false)
}

// ParseString parses a single JSON document from s.
func (p *Parser) ParseString(s string) (Element, error) {
	return p.parse(padded.FromString(s).Bytes(), false)
}

// ParseJWCC parses a single JSON document that may contain comments and
// trailing commas, as accepted by github.com/tailscale/hujson. The contents
// of data are not modified.
func (p *Parser) ParseJWCC(data []byte) (Element, error) {
	std, err := hujson.Standardize(slices.Clone(data))
	if err != nil {
		p.err = TapeError
		return Element{}, &Error{Code: TapeError, Offset: -1, Message: err.Error(), err: err}
	}
	return p.parse(std, cap(std)-len(std) < padded.Padding)
}

// Load reads the file at path into a buffer owned by p and parses it as a
// single JSON document. Files with a recognized compression suffix are
// decompressed. The buffer is reused by subsequent loads.
func (p *Parser) Load(path string) (Element, error) {
	if err := p.load(path); err != nil {
		return Element{}, err
	}
	return p.parse(p.loaded.Bytes(), false)
}

func (p *Parser) load(path string) error {
	err := source.ReadFile(path, &p.loaded, p.maxCapacity)
	if err == nil {
		return nil
	}
	p.valid = false
	if errors.Is(err, padded.ErrTooLarge) {
		p.err = Capacity
	} else {
		p.err = IOError
	}
	p.log.WithError(err).WithField("path", path).Debug("load failed")
	return &Error{Code: p.err, Offset: -1, Message: err.Error(), err: err}
}

// ParseMany returns a stream of the JSON documents concatenated in data,
// separated by optional whitespace. The stream parses at most batchSize
// bytes at a time; a batchSize <= 0 selects DefaultBatchSize. Each document
// must fit within a batch. If the capacity of data does not extend at least
// padded.Padding bytes past its length, data is copied.
//
// The stream borrows p: using p for anything else invalidates it.
func (p *Parser) ParseMany(data []byte, batchSize int) *DocumentStream {
	if cap(data)-len(data) < padded.Padding {
		data = padded.FromBytes(data).Bytes()
	}
	return newDocumentStream(p, data, batchSize)
}

// LoadMany reads the file at path and returns a stream of the JSON documents
// it contains, as ParseMany. An error reading the file is reported by the
// first call to Next.
func (p *Parser) LoadMany(path string, batchSize int) *DocumentStream {
	if err := p.load(path); err != nil {
		d := newDocumentStream(p, nil, batchSize)
		d.err = err
		return d
	}
	return newDocumentStream(p, p.loaded.Bytes(), batchSize)
}
