// Copyright (C) 2026 Michael J. Fromberger. All Rights Reserved.

package source_test

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/creachadair/jtape/internal/source"
	"github.com/creachadair/jtape/padded"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path string, data []byte) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	w, err := source.NewWriter(source.CodecFor(path), f)
	require.NoError(t, err)
	_, err = w.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	require.NoError(t, f.Close())
}

func TestCodecFor(t *testing.T) {
	tests := map[string]source.Codec{
		"data.json":        source.None,
		"data":             source.None,
		"data.json.gz":     source.Gzip,
		"data.JSON.GZ":     source.Gzip,
		"data.jsonl.zst":   source.Zstd,
		"data.jsonl.zstd":  source.Zstd,
		"data.s2":          source.S2,
		"data.sz":          source.S2,
		"dir.gz/data.lz4":  source.LZ4,
		"dir.lz4/data.txt": source.None,
	}
	for path, want := range tests {
		assert.Equalf(t, want, source.CodecFor(path), "CodecFor(%q)", path)
	}
}

func TestReadFile(t *testing.T) {
	dir := t.TempDir()
	data := []byte(strings.Repeat(`{"key": "value", "list": [1, 2, 3]}`+"\n", 500))

	var buf padded.Buffer
	for _, name := range []string{"plain.json", "a.gz", "a.zst", "a.s2", "a.lz4"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name)
			writeFile(t, path, data)

			require.NoError(t, source.ReadFile(path, &buf, 0))
			assert.Equal(t, data, buf.Bytes())
			assert.GreaterOrEqual(t, cap(buf.Bytes())-buf.Len(), padded.Padding)

			require.NoError(t, source.ReadFile(path, &buf, len(data)))
			err := source.ReadFile(path, &buf, len(data)-1)
			assert.ErrorIs(t, err, padded.ErrTooLarge)
		})
	}
}

func TestReadFileMissing(t *testing.T) {
	var buf padded.Buffer
	err := source.ReadFile(filepath.Join(t.TempDir(), "nonesuch.json"), &buf, 0)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestReadFileCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.gz")
	require.NoError(t, os.WriteFile(path, []byte("this is not gzip data"), 0600))

	var buf padded.Buffer
	assert.Error(t, source.ReadFile(path, &buf, 0))
}

func TestStreams(t *testing.T) {
	const text = "[1, 2, 3]\n"
	for _, codec := range []source.Codec{source.None, source.Gzip, source.Zstd, source.S2, source.LZ4} {
		var out bytes.Buffer
		w, err := source.NewWriter(codec, &out)
		require.NoError(t, err)
		_, err = io.WriteString(w, text)
		require.NoError(t, err)
		require.NoError(t, w.Close())

		r, done, err := source.NewReader(codec, &out)
		require.NoError(t, err)
		got, err := io.ReadAll(r)
		done()
		require.NoError(t, err)
		assert.Equalf(t, text, string(got), "codec %q", codec)
	}

	_, err := source.NewWriter("bogus", io.Discard)
	assert.Error(t, err)
	_, _, err = source.NewReader("bogus", strings.NewReader(""))
	assert.Error(t, err)
}
