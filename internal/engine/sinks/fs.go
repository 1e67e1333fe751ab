package sinks

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"github.com/infracollect/dirbundle/internal/engine"
	"github.com/spf13/afero"
)

// FolderSink copies published archives into a directory.
type FolderSink struct {
	fs afero.Fs
}

func NewFolderSink(fs afero.Fs) engine.Sink {
	return &FolderSink{fs: fs}
}

// NewFolderSinkFromPath roots a folder sink at path on the OS filesystem, creating it if needed.
func NewFolderSinkFromPath(path string) (engine.Sink, error) {
	cleanPath := filepath.Clean(path)

	osFs := afero.NewOsFs()
	if err := osFs.MkdirAll(cleanPath, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory %s: %w", cleanPath, err)
	}

	return NewFolderSink(afero.NewBasePathFs(osFs, cleanPath)), nil
}

func (s *FolderSink) Name() string {
	return fmt.Sprintf("folder(%s)", s.fs.Name())
}

func (s *FolderSink) Kind() string {
	return "folder"
}

func (s *FolderSink) Write(ctx context.Context, path string, data io.Reader) (err error) {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := s.fs.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	f, err := s.fs.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer func() {
		err = errors.Join(err, f.Close())
	}()

	if _, err = io.Copy(f, data); err != nil {
		return fmt.Errorf("failed to write to file: %w", err)
	}

	return nil
}

func (s *FolderSink) Close(ctx context.Context) error {
	return nil
}
