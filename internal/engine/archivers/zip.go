package archivers

import (
	"context"
	"fmt"
	"io"
	"io/fs"

	"github.com/infracollect/dirbundle/internal/engine"
	"github.com/klauspost/compress/zip"
)

// ZipMethod selects how zip file entries are stored.
type ZipMethod string

const (
	ZipDeflate ZipMethod = "deflate"
	ZipStore   ZipMethod = "store"
)

// ZipArchiver writes zip archives.
type ZipArchiver struct {
	zipWriter *zip.Writer
	method    uint16
	closed    bool
}

// NewZipArchiver creates a new zip archiver writing to w.
// Supported methods: "deflate", "store". If method is empty, defaults to "deflate".
func NewZipArchiver(w io.Writer, method string) (engine.Archiver, error) {
	var m uint16
	switch ZipMethod(method) {
	case ZipDeflate, "":
		m = zip.Deflate
	case ZipStore:
		m = zip.Store
	default:
		return nil, fmt.Errorf("unsupported zip method: %s", method)
	}

	return &ZipArchiver{
		zipWriter: zip.NewWriter(w),
		method:    m,
	}, nil
}

// AddDir adds an empty directory entry. Zip marks directories with a trailing slash.
func (a *ZipArchiver) AddDir(ctx context.Context, info engine.EntryInfo) error {
	if a.closed {
		return fmt.Errorf("archiver is closed")
	}

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context cancelled: %w", err)
	}

	header := &zip.FileHeader{
		Name:     dirName(info.Name),
		Method:   zip.Store,
		Modified: info.Time(),
	}
	header.SetMode(fs.ModeDir | info.DirMode())

	if _, err := a.zipWriter.CreateHeader(header); err != nil {
		return fmt.Errorf("failed to create zip directory entry %s: %w", header.Name, err)
	}

	return nil
}

// AddFile adds a file entry holding everything read from data.
func (a *ZipArchiver) AddFile(ctx context.Context, info engine.EntryInfo, data io.Reader) error {
	if a.closed {
		return fmt.Errorf("archiver is closed")
	}

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context cancelled: %w", err)
	}

	// A zip entry cannot be taken back once its header is written, so a failing
	// reader must fail before CreateHeader
	content, err := io.ReadAll(data)
	if err != nil {
		return fmt.Errorf("failed to read file data: %w", err)
	}

	header := &zip.FileHeader{
		Name:     info.Name,
		Method:   a.method,
		Modified: info.Time(),
	}
	header.SetMode(info.FileMode())

	entry, err := a.zipWriter.CreateHeader(header)
	if err != nil {
		return fmt.Errorf("failed to create zip entry %s: %w", info.Name, err)
	}

	if _, err := entry.Write(content); err != nil {
		return fmt.Errorf("failed to write zip entry %s: %w", info.Name, err)
	}

	return nil
}

// Close writes the zip central directory.
func (a *ZipArchiver) Close() error {
	if a.closed {
		return fmt.Errorf("archiver already closed")
	}
	a.closed = true

	if err := a.zipWriter.Close(); err != nil {
		return fmt.Errorf("failed to close zip writer: %w", err)
	}

	return nil
}

// Extension returns the file extension for this archive type.
func (a *ZipArchiver) Extension() string {
	return ".zip"
}
