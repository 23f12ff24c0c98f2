// Copyright (C) 2026 Michael J. Fromberger. All Rights Reserved.

// Package source reads JSON input files into padded buffers, decompressing
// them according to their file name suffix.
package source

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/creachadair/jtape/padded"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/s2"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"github.com/pkg/errors"
)

// A Codec names a compression format recognized by ReadFile.
type Codec string

// Constants defining the recognized codecs.
const (
	None Codec = ""
	Gzip Codec = "gzip"
	Zstd Codec = "zstd"
	S2   Codec = "s2"
	LZ4  Codec = "lz4"
)

var suffixes = map[string]Codec{
	".gz":   Gzip,
	".zst":  Zstd,
	".zstd": Zstd,
	".s2":   S2,
	".sz":   S2,
	".lz4":  LZ4,
}

// CodecFor returns the codec implied by the suffix of path.
func CodecFor(path string) Codec {
	return suffixes[strings.ToLower(filepath.Ext(path))]
}

// ReadFile replaces the contents of buf with the contents of the file at
// path, decompressed if its suffix names a recognized codec. If limit > 0
// and the (decompressed) contents exceed limit bytes, ReadFile reports an
// error wrapping padded.ErrTooLarge. The allocation of buf is reused if it is
// large enough.
func ReadFile(path string, buf *padded.Buffer, limit int) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrap(err, "open input")
	}
	defer f.Close()

	codec := CodecFor(path)
	if codec == None {
		return readPlain(f, buf, limit)
	}
	r, closer, err := NewReader(codec, f)
	if err != nil {
		return errors.Wrapf(err, "open %s stream", codec)
	}
	defer closer()
	if _, err := buf.ReadFrom(r, 0, limit); err != nil {
		return errors.Wrapf(err, "read %s stream", codec)
	}
	return nil
}

// readPlain reads an uncompressed file whose size is known up front.
func readPlain(f *os.File, buf *padded.Buffer, limit int) error {
	fi, err := f.Stat()
	if err != nil {
		return errors.Wrap(err, "stat input")
	}
	size := fi.Size()
	if limit > 0 && size > int64(limit) {
		return errors.Wrapf(padded.ErrTooLarge, "file is %d bytes", size)
	}
	if !fi.Mode().IsRegular() {
		// Pipes and devices do not report a useful size.
		_, err := buf.ReadFrom(f, 0, limit)
		return errors.Wrap(err, "read input")
	}
	buf.Grow(int(size))
	if _, err := io.ReadFull(f, buf.Bytes()[:size]); err != nil {
		return errors.Wrap(err, "read input")
	}
	buf.SetLen(int(size))
	return nil
}

// NewReader returns a reader that decompresses r according to codec, and a
// function to release its resources.
func NewReader(codec Codec, r io.Reader) (io.Reader, func(), error) {
	nop := func() {}
	switch codec {
	case None:
		return r, nop, nil
	case Gzip:
		zr, err := gzip.NewReader(r)
		if err != nil {
			return nil, nil, err
		}
		return zr, func() { zr.Close() }, nil
	case Zstd:
		zr, err := zstd.NewReader(r, zstd.WithDecoderConcurrency(1))
		if err != nil {
			return nil, nil, err
		}
		return zr, zr.Close, nil
	case S2:
		return s2.NewReader(r), nop, nil
	case LZ4:
		return lz4.NewReader(r), nop, nil
	default:
		return nil, nil, errors.Errorf("unknown codec %q", codec)
	}
}

// NewWriter returns a writer that compresses to w according to codec. The
// caller must close the writer to flush its output.
func NewWriter(codec Codec, w io.Writer) (io.WriteCloser, error) {
	switch codec {
	case None:
		return nopCloser{w}, nil
	case Gzip:
		return gzip.NewWriter(w), nil
	case Zstd:
		return zstd.NewWriter(w)
	case S2:
		return s2.NewWriter(w), nil
	case LZ4:
		return lz4.NewWriter(w), nil
	default:
		return nil, errors.Errorf("unknown codec %q", codec)
	}
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }
