package archivers

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"testing/iotest"
	"time"

	"github.com/infracollect/dirbundle/internal/engine"
	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// readZipEntries returns the entries of a zip archive keyed by name.
func readZipEntries(t *testing.T, data []byte) map[string]*zip.File {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)

	found := make(map[string]*zip.File, len(zr.File))
	for _, f := range zr.File {
		found[f.Name] = f
	}
	return found
}

func readZipFile(t *testing.T, f *zip.File) string {
	t.Helper()
	rc, err := f.Open()
	require.NoError(t, err)
	defer rc.Close()
	content, err := io.ReadAll(rc)
	require.NoError(t, err)
	return string(content)
}

func TestNewZipArchiver(t *testing.T) {
	tests := []struct {
		name    string
		method  string
		wantErr bool
	}{
		{name: "deflate", method: "deflate"},
		{name: "store", method: "store"},
		{name: "empty defaults to deflate", method: ""},
		{name: "unsupported method", method: "bzip2", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			archiver, err := NewZipArchiver(io.Discard, tt.method)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, ".zip", archiver.Extension())
		})
	}
}

func TestZipArchiver_DirAndFiles(t *testing.T) {
	var buf bytes.Buffer
	archiver, err := NewZipArchiver(&buf, "deflate")
	require.NoError(t, err)

	mtime := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	ctx := t.Context()
	require.NoError(t, archiver.AddDir(ctx, engine.EntryInfo{Name: "project"}))
	require.NoError(t, archiver.AddFile(ctx, engine.EntryInfo{Name: "a.txt", ModTime: mtime}, strings.NewReader("alpha")))
	require.NoError(t, archiver.AddFile(ctx, engine.EntryInfo{Name: "b.txt", Mode: 0o600}, strings.NewReader("bravo")))
	require.NoError(t, archiver.Close())

	found := readZipEntries(t, buf.Bytes())
	require.Len(t, found, 3)

	require.Contains(t, found, "project/")
	assert.True(t, found["project/"].FileInfo().IsDir())

	assert.Equal(t, "alpha", readZipFile(t, found["a.txt"]))
	assert.Equal(t, zip.Deflate, found["a.txt"].Method)
	assert.True(t, found["a.txt"].Modified.Equal(mtime))

	assert.Equal(t, "bravo", readZipFile(t, found["b.txt"]))
	assert.Equal(t, "-rw-------", found["b.txt"].Mode().String())
}

func TestZipArchiver_Store(t *testing.T) {
	var buf bytes.Buffer
	archiver, err := NewZipArchiver(&buf, "store")
	require.NoError(t, err)

	require.NoError(t, archiver.AddFile(t.Context(), engine.EntryInfo{Name: "plain.txt"}, strings.NewReader("stored")))
	require.NoError(t, archiver.Close())

	found := readZipEntries(t, buf.Bytes())
	require.Contains(t, found, "plain.txt")
	assert.Equal(t, zip.Store, found["plain.txt"].Method)
	assert.Equal(t, "stored", readZipFile(t, found["plain.txt"]))
}

func TestZipArchiver_EmptyArchive(t *testing.T) {
	var buf bytes.Buffer
	archiver, err := NewZipArchiver(&buf, "")
	require.NoError(t, err)
	require.NoError(t, archiver.Close())

	assert.Empty(t, readZipEntries(t, buf.Bytes()))
}

func TestZipArchiver_CancelledContext(t *testing.T) {
	archiver, err := NewZipArchiver(io.Discard, "")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	err = archiver.AddFile(ctx, engine.EntryInfo{Name: "a.txt"}, strings.NewReader("alpha"))
	require.ErrorIs(t, err, context.Canceled)
}

func TestZipArchiver_FailedReadLeavesNoEntry(t *testing.T) {
	var buf bytes.Buffer
	archiver, err := NewZipArchiver(&buf, "")
	require.NoError(t, err)

	readErr := errors.New("disk went away")
	broken := io.MultiReader(strings.NewReader("partial"), iotest.ErrReader(readErr))

	err = archiver.AddFile(t.Context(), engine.EntryInfo{Name: "broken.txt"}, broken)
	require.ErrorIs(t, err, readErr)
	require.NoError(t, archiver.AddFile(t.Context(), engine.EntryInfo{Name: "ok.txt"}, strings.NewReader("fine")))
	require.NoError(t, archiver.Close())

	entries := readZipEntries(t, buf.Bytes())
	require.Len(t, entries, 1)
	assert.Equal(t, "fine", readZipFile(t, entries["ok.txt"]))
}

func TestZipArchiver_CloseTwice(t *testing.T) {
	archiver, err := NewZipArchiver(io.Discard, "")
	require.NoError(t, err)

	require.NoError(t, archiver.Close())
	require.Error(t, archiver.Close())
	require.Error(t, archiver.AddFile(t.Context(), engine.EntryInfo{Name: "late.txt"}, strings.NewReader("x")))
}

func TestNew(t *testing.T) {
	tests := []struct {
		name        string
		format      string
		compression string
		wantExt     string
		wantErr     bool
	}{
		{name: "default is zip", wantExt: ".zip"},
		{name: "zip store", format: "zip", compression: "store", wantExt: ".zip"},
		{name: "tar zstd", format: "tar", compression: "zstd", wantExt: ".tar.zst"},
		{name: "tar default gzip", format: "tar", wantExt: ".tar.gz"},
		{name: "tar with zip method", format: "tar", compression: "deflate", wantErr: true},
		{name: "unknown format", format: "rar", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			archiver, err := New(io.Discard, tt.format, tt.compression)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantExt, archiver.Extension())
		})
	}
}
