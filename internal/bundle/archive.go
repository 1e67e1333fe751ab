package bundle

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/infracollect/dirbundle/internal/engine"
	"github.com/spf13/afero"
)

// OpenError is returned when the target archive cannot be created.
type OpenError struct {
	Path string
	Err  error
}

func (e *OpenError) Error() string {
	return fmt.Sprintf("cannot open archive %s: %v", e.Path, e.Err)
}

func (e *OpenError) Unwrap() error {
	return e.Err
}

// Archive is an open archive file being written. It is owned by a single caller,
// which must call Close to make the file valid on disk.
type Archive struct {
	fs       afero.Fs
	path     string
	absPath  string
	info     os.FileInfo
	file     afero.File
	archiver engine.Archiver
	entries  []string
	closed   bool
}

// Path returns the archive's location on its filesystem.
func (a *Archive) Path() string {
	return a.path
}

// Extension returns the file extension matching the archive format.
func (a *Archive) Extension() string {
	return a.archiver.Extension()
}

// Entries returns the names of the entries written so far, in order.
func (a *Archive) Entries() []string {
	return slices.Clone(a.entries)
}

// AddDir adds an empty directory entry.
func (a *Archive) AddDir(ctx context.Context, name string) error {
	return a.addDir(ctx, engine.EntryInfo{Name: name})
}

func (a *Archive) addDir(ctx context.Context, entry engine.EntryInfo) error {
	if a.closed {
		return fmt.Errorf("archive %s is closed", a.path)
	}

	if err := a.archiver.AddDir(ctx, entry); err != nil {
		return fmt.Errorf("failed to add directory %q: %w", entry.Name, err)
	}
	a.entries = append(a.entries, entry.Name)

	return nil
}

// isTarget reports whether path refers to the archive file itself.
func (a *Archive) isTarget(path string) bool {
	if cleanAbs(path) == a.absPath {
		return true
	}
	if a.info == nil {
		return false
	}
	info, err := a.fs.Stat(path)
	return err == nil && os.SameFile(info, a.info)
}

// AddFile adds an entry called name whose content is read from srcPath.
func (a *Archive) AddFile(ctx context.Context, name, srcPath string) (err error) {
	if a.closed {
		return fmt.Errorf("archive %s is closed", a.path)
	}

	src, err := a.fs.Open(srcPath)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", srcPath, err)
	}
	defer func() {
		err = errors.Join(err, src.Close())
	}()

	info, err := src.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", srcPath, err)
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("%s is not a regular file", srcPath)
	}

	entry := engine.EntryInfo{
		Name:    name,
		ModTime: info.ModTime(),
		Mode:    info.Mode(),
	}
	if err := a.archiver.AddFile(ctx, entry, src); err != nil {
		return fmt.Errorf("failed to add %q: %w", name, err)
	}
	a.entries = append(a.entries, name)

	return nil
}

// Close finalizes the archive and closes the target file.
func (a *Archive) Close() error {
	if a.closed {
		return fmt.Errorf("archive %s already closed", a.path)
	}
	a.closed = true

	if err := errors.Join(a.archiver.Close(), a.file.Close()); err != nil {
		return fmt.Errorf("failed to finalize archive %s: %w", a.path, err)
	}

	return nil
}

func cleanAbs(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return filepath.Clean(path)
	}
	return abs
}
