package engine

import (
	"context"
	"io"
	"io/fs"
	"time"
)

// EntryInfo describes a single archive entry.
type EntryInfo struct {
	// Name is the path of the entry inside the archive.
	Name string

	// ModTime is the modification time recorded for the entry. Zero means now.
	ModTime time.Time

	// Mode holds the permission bits. Zero means 0644 for files and 0755 for directories.
	Mode fs.FileMode
}

// Archiver writes entries in an archive format to an underlying writer.
type Archiver interface {
	// AddDir adds an empty directory entry.
	AddDir(ctx context.Context, info EntryInfo) error

	// AddFile adds a file entry with the content read from data.
	AddFile(ctx context.Context, info EntryInfo, data io.Reader) error

	// Close flushes the archive trailer. It does not close the underlying writer.
	Close() error

	// Extension returns the file extension for this archive type (e.g., ".tar.gz").
	Extension() string
}

// FileMode returns the permission bits to record for a file entry.
func (e EntryInfo) FileMode() fs.FileMode {
	if e.Mode.Perm() == 0 {
		return 0o644
	}
	return e.Mode.Perm()
}

// DirMode returns the permission bits to record for a directory entry.
func (e EntryInfo) DirMode() fs.FileMode {
	if e.Mode.Perm() == 0 {
		return 0o755
	}
	return e.Mode.Perm()
}

// Time returns the modification time to record, defaulting to now.
func (e EntryInfo) Time() time.Time {
	if e.ModTime.IsZero() {
		return time.Now()
	}
	return e.ModTime
}
