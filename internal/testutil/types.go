// Package testutil defines support code for unit tests.
package testutil

import (
	"bytes"
	"fmt"
	"math/rand/v2"
	"strings"
)

// Nested returns an array nested depth levels deep around the value 1, for
// example "[[[1]]]" for depth 3.
func Nested(depth int) string {
	return strings.Repeat("[", depth) + "1" + strings.Repeat("]", depth)
}

// NestedObjects is Nested using objects with key "k".
func NestedObjects(depth int) string {
	return strings.Repeat(`{"k":`, depth) + "1" + strings.Repeat("}", depth)
}

// Documents returns n pseudo-random JSON documents of assorted shapes. The
// same seed always yields the same documents.
func Documents(seed uint64, n int) []string {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	docs := make([]string, n)
	for i := range docs {
		var buf bytes.Buffer
		writeValue(&buf, rng, 3)
		docs[i] = buf.String()
	}
	return docs
}

// Concat joins docs with sep, which should be whitespace.
func Concat(docs []string, sep string) []byte {
	return []byte(strings.Join(docs, sep))
}

var words = []string{"alpha", "béta", "γάμμα", "del\\\"ta", "e\\u00e9", "", "tab\\t", "😀"}

func writeValue(buf *bytes.Buffer, rng *rand.Rand, depth int) {
	pick := rng.IntN(9)
	if depth == 0 && pick < 2 {
		pick += 2
	}
	switch pick {
	case 0:
		buf.WriteByte('{')
		for i := range rng.IntN(4) {
			if i > 0 {
				buf.WriteByte(',')
			}
			fmt.Fprintf(buf, `"k%d":`, i)
			writeValue(buf, rng, depth-1)
		}
		buf.WriteByte('}')
	case 1:
		buf.WriteByte('[')
		for i := range rng.IntN(4) {
			if i > 0 {
				buf.WriteString(", ")
			}
			writeValue(buf, rng, depth-1)
		}
		buf.WriteByte(']')
	case 2:
		fmt.Fprintf(buf, `"%s"`, words[rng.IntN(len(words))])
	case 3:
		fmt.Fprintf(buf, "%d", rng.Int64N(1<<40)-1<<39)
	case 4:
		fmt.Fprintf(buf, "%g", rng.Float64()*1e6)
	case 5:
		buf.WriteString("true")
	case 6:
		buf.WriteString("false")
	case 7:
		buf.WriteString("null")
	default:
		fmt.Fprintf(buf, "%d", rng.Uint64()|1<<63)
	}
}
