// Copyright (C) 2026 Michael J. Fromberger. All Rights Reserved.

package escape_test

import (
	"errors"
	"testing"

	"github.com/creachadair/jtape/internal/escape"
	"github.com/google/go-cmp/cmp"
	"go4.org/mem"
)

func TestAppend(t *testing.T) {
	tests := []struct {
		input, want string
	}{
		{"", ""},
		{"plain text", "plain text"},
		{`\"\\\/\b\f\n\r\t`, "\"\\/\b\f\n\r\t"},
		{`a\u0000b`, "a\x00b"},
		{`\u01fc\uAA9C`, "Ǽꪜ"},
		{`\u00e9t\u00E9`, "été"},
		{`\ud83d\ude00!`, "😀!"},
		{`mixed \uD83D\uDE00 and \t tab`, "mixed 😀 and \t tab"},
		{"raw ünïcödé", "raw ünïcödé"},
	}
	for _, tc := range tests {
		got, err := escape.Append([]byte("pfx:"), mem.S(tc.input))
		if err != nil {
			t.Errorf("Append(%q): unexpected error: %v", tc.input, err)
			continue
		}
		if diff := cmp.Diff("pfx:"+tc.want, string(got)); diff != "" {
			t.Errorf("Append(%q) (-want, +got):\n%s", tc.input, diff)
		}
	}
}

func TestAppendErrors(t *testing.T) {
	tests := []struct {
		input string
		want  error
	}{
		{`\`, escape.ErrIncomplete},
		{`abc\`, escape.ErrIncomplete},
		{`\u12`, escape.ErrIncomplete},
		{`\x`, escape.ErrInvalid},
		{`\'`, escape.ErrInvalid},
		{`\u12g4`, escape.ErrInvalid},
		{`\ud800`, escape.ErrSurrogate},
		{`\ud800x`, escape.ErrSurrogate},
		{`\ud800\n\n\n`, escape.ErrSurrogate},
		{`\ud800A`, escape.ErrSurrogate},
		{`\udc00`, escape.ErrSurrogate},
		{`\udc00\ud800`, escape.ErrSurrogate},
		{`\ud800\uzzzz`, escape.ErrInvalid},
	}
	for _, tc := range tests {
		_, err := escape.Append(nil, mem.S(tc.input))
		if !errors.Is(err, tc.want) {
			t.Errorf("Append(%q): got %v, want %v", tc.input, err, tc.want)
		}
	}
}

func TestQuote(t *testing.T) {
	tests := []struct {
		input, want string
	}{
		{"", `""`},
		{"abc", `"abc"`},
		{"a\"b\\c", `"a\"b\\c"`},
		{"\b\f\n\r\t", `"\b\f\n\r\t"`},
		{"\x00\x1f", `"\u0000\u001f"`},
		{"é😀", `"é😀"`},
		{"\xff", "\"\ufffd\""},
		{"a b ", `"a\u2028b\u2029"`},
	}
	for _, tc := range tests {
		got := string(escape.Quote(mem.S(tc.input)))
		if got != tc.want {
			t.Errorf("Quote(%q): got %q, want %q", tc.input, got, tc.want)
		}
	}
}

func TestRoundTrip(t *testing.T) {
	for _, s := range []string{"", "simple", "tab\there", "quote\"", "😀 é \x01", " "} {
		q := escape.Quote(mem.S(s))
		got, err := escape.Append(nil, mem.B(q[1:len(q)-1]))
		if err != nil {
			t.Errorf("Append(Quote(%q)): unexpected error: %v", s, err)
		} else if string(got) != s {
			t.Errorf("Append(Quote(%q)): got %q", s, got)
		}
	}
}
