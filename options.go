// Copyright (C) 2026 Michael J. Fromberger. All Rights Reserved.

package jtape

import (
	"io"

	"github.com/sirupsen/logrus"
)

// An Option configures a Parser constructed by New.
type Option func(*Parser)

// WithMaxCapacity sets the largest document the parser will grow to accept.
// Values outside (0, MaxCapacity] select MaxCapacity.
func WithMaxCapacity(n int) Option {
	return func(p *Parser) { p.SetMaxCapacity(n) }
}

// WithMaxDepth sets the maximum nesting depth of containers the parser
// allocates for when it grows. Zero selects DefaultMaxDepth.
func WithMaxDepth(n int) Option {
	return func(p *Parser) { p.maxDepth = max(n, 0) }
}

// WithLogger directs the diagnostics of the parser to l. By default they are
// discarded.
func WithLogger(l *logrus.Logger) Option {
	return func(p *Parser) {
		if l == nil {
			p.log = discard()
		} else {
			p.log = l.WithField("component", "jtape")
		}
	}
}

// WithImplementation selects the stage 1 implementation the parser uses,
// overriding Active.
func WithImplementation(impl Implementation) Option {
	return func(p *Parser) {
		if impl != nil {
			p.impl = impl
		}
	}
}

func discard() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	l.SetLevel(logrus.PanicLevel)
	return logrus.NewEntry(l)
}
