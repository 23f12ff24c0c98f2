// Copyright (C) 2026 Michael J. Fromberger. All Rights Reserved.

package jtape_test

import (
	"errors"
	"testing"

	"github.com/creachadair/jtape"
)

func TestUnquote(t *testing.T) {
	tests := []struct {
		input string
		want  string
		fail  bool
	}{
		{``, ``, true},                          // missing quotes
		{`"missing quote`, ``, true},            // missing quotes
		{`missing quote"`, ``, true},            // missing quotes
		{`""`, ``, false},                       // ok
		{`"ok go"`, "ok go", false},             // ok
		{`"abc\ndef"`, "abc\ndef", false},       // C escapes
		{`"\b\f\n\r\t"`, "\b\f\n\r\t", false},   // C escapes
		{`"a \u0026 b"`, "a & b", false},        // short Unicode escape
		{`"\ud83d\ude00"`, "\U0001f600", false}, // surrogate pair
		{`"\u"`, ``, true},                      // incomplete Unicode escape
		{`"\u00"`, ``, true},                    // incomplete Unicode escape
		{`"\u00x9"`, ``, true},                  // invalid Unicode escape
		{`"\ud83d"`, ``, true},                  // lone surrogate
		{`"\q"`, ``, true},                      // unknown escape
		{`"a\"b"`, `a"b`, false},                // ok
		{`"a\\b\\cd"`, `a\b\cd`, false},         // ok
	}

	for _, test := range tests {
		got, err := jtape.Unquote(test.input)
		if err != nil {
			if !test.fail {
				t.Errorf("Unquote(%#q): got %v, want no error", test.input, err)
			} else if !errors.Is(err, jtape.StringError) {
				t.Errorf("Unquote(%#q): got %v, want %v", test.input, err, jtape.StringError)
			}
		} else if test.fail {
			t.Errorf("Unquote(%#q): got nil, want error", test.input)
		}
		if got != test.want {
			t.Errorf("Unquote(%#q): got %#q, want %#q", test.input, got, test.want)
		}
	}
}

func TestQuote(t *testing.T) {
	for _, s := range []string{"", "plain", "tab\tand \"quotes\"", "\x00\x7f", "é\U0001f600", "line\u2028sep"} {
		q := jtape.Quote(s)
		got, err := jtape.Unquote(q)
		if err != nil {
			t.Errorf("Unquote(Quote(%q)): unexpected error: %v", s, err)
		} else if got != s {
			t.Errorf("Unquote(Quote(%q)): got %q", s, got)
		}

		// The quoted form must parse as a string document with the same value.
		doc, err := jtape.New().ParseString(q)
		if err != nil {
			t.Errorf("Parse %s: unexpected error: %v", q, err)
			continue
		}
		if v := mustTape(t, doc).String(doc.Index()); v != s {
			t.Errorf("Parse %s: got %q, want %q", q, v, s)
		}
	}
}
