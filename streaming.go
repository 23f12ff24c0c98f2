// Copyright (C) 2026 Michael J. Fromberger. All Rights Reserved.

package jtape

import "github.com/sirupsen/logrus"

// A streamingParser is a structuralParser that extracts one document at a
// time from a window holding several. Each call to runStage2 parses the
// document starting at the structural Scratch.Next and leaves Next at the
// first structural of the following document.
type streamingParser struct {
	*structuralParser
}

// start begins the next document without checking the window length against
// the capacity, which the stream has already done for the whole window.
func (p streamingParser) start() { p.begin() }

func (p streamingParser) finish() ErrorCode {
	if p.s.Next > p.s.N {
		p.log.WithFields(logrus.Fields{
			"invariant": "past_end",
			"next":      p.s.Next,
			"count":     p.s.N,
		}).Error("structural cursor moved past the end of the window")
		p.onError(InternalError, p.n, "structural cursor past the end of the window")
	}
	return p.closeRoot()
}
