// Copyright (C) 2026 Michael J. Fromberger. All Rights Reserved.

package jtape

import (
	"strings"

	"github.com/creachadair/jtape/internal/escape"
	"go4.org/mem"
)

// Quote encodes src as a JSON string value. The contents are escaped and
// double quotation marks are added. Invalid UTF-8 is replaced by the Unicode
// replacement rune.
func Quote(src string) string { return string(escape.Quote(mem.S(src))) }

// Unquote decodes a JSON string value with the same rules the parser applies
// to string values on a tape. Double quotation marks are removed and escape
// sequences are replaced with their unescaped equivalents. A malformed input
// reports a StringError.
func Unquote(src string) (string, error) {
	if len(src) < 2 || !strings.HasPrefix(src, `"`) || !strings.HasSuffix(src, `"`) {
		return "", &Error{Code: StringError, Offset: -1, Message: "missing quotations"}
	}
	dec, err := escape.Append(nil, mem.S(src[1:len(src)-1]))
	if err != nil {
		return "", &Error{Code: StringError, Offset: -1, Message: err.Error(), err: err}
	}
	return string(dec), nil
}
