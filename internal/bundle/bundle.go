// Package bundle packs the files of a single directory into an archive.
//
// Only the immediate children of the source directory whose names contain a dot are
// considered, and each is stored under its base filename. An empty directory entry named
// after the source directory is written first.
package bundle

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/infracollect/dirbundle/internal/engine"
	"github.com/infracollect/dirbundle/internal/engine/archivers"
	"github.com/samber/lo"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// DefaultDirectoryName is reported when the source directory name is empty after trimming.
const DefaultDirectoryName = "thisDir"

// filePattern matches any immediate child whose name contains a dot.
const filePattern = "*.*"

// DirectoryEntryMode selects the name used for the archive's directory entry.
type DirectoryEntryMode string

const (
	// DirectoryEntryRaw uses the untrimmed final path component of the source directory.
	DirectoryEntryRaw DirectoryEntryMode = "raw"
	// DirectoryEntryTrimmed uses the name returned by DirectoryName.
	DirectoryEntryTrimmed DirectoryEntryMode = "trimmed"
)

// ContentSource selects where file content is read from.
type ContentSource string

const (
	// ContentFromPath reads each file from the path the glob matched.
	ContentFromPath ContentSource = "path"
	// ContentFromWorkDir reads each file by its base name relative to Options.WorkDir.
	// A file only succeeds if a file of the same name exists there.
	ContentFromWorkDir ContentSource = "workdir"
)

// Options configures a Bundler. The zero value writes a deflated zip, refuses to
// overwrite an existing target and reads content from the matched paths.
type Options struct {
	// Format is the archive format, "zip" or "tar".
	Format string

	// Compression is the zip method or tar compression, see archivers.New.
	Compression string

	// Overwrite truncates an existing target instead of failing.
	Overwrite bool

	DirectoryEntry DirectoryEntryMode
	ContentSource  ContentSource

	// WorkDir is the directory ContentFromWorkDir resolves names against.
	// Defaults to the process working directory.
	WorkDir string

	// Filter, when set, must accept a file for it to be added.
	Filter *Filter
}

// Bundler creates archives from directories on a filesystem.
type Bundler struct {
	fs       afero.Fs
	logger   *zap.Logger
	reporter Reporter
	opts     Options
}

// New creates a Bundler. A nil reporter discards diagnostics.
func New(fs afero.Fs, logger *zap.Logger, reporter Reporter, opts Options) (*Bundler, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if reporter == nil {
		reporter = NopReporter{}
	}

	switch opts.DirectoryEntry {
	case "":
		opts.DirectoryEntry = DirectoryEntryRaw
	case DirectoryEntryRaw, DirectoryEntryTrimmed:
	default:
		return nil, fmt.Errorf("unsupported directory entry mode: %s", opts.DirectoryEntry)
	}

	switch opts.ContentSource {
	case "":
		opts.ContentSource = ContentFromPath
	case ContentFromPath:
	case ContentFromWorkDir:
		if opts.WorkDir == "" {
			wd, err := os.Getwd()
			if err != nil {
				return nil, fmt.Errorf("failed to get working directory: %w", err)
			}
			opts.WorkDir = wd
		}
	default:
		return nil, fmt.Errorf("unsupported content source: %s", opts.ContentSource)
	}

	// Fail on a bad format/compression pair before any target is touched.
	if err := archivers.Validate(opts.Format, opts.Compression); err != nil {
		return nil, err
	}

	return &Bundler{
		fs:       fs,
		logger:   logger,
		reporter: reporter,
		opts:     opts,
	}, nil
}

// Open creates the target archive file. An existing target is an error unless
// Options.Overwrite is set. Failures are returned as *OpenError and leave no file behind.
func (b *Bundler) Open(ctx context.Context, targetPath string) (*Archive, error) {
	if err := ctx.Err(); err != nil {
		return nil, &OpenError{Path: targetPath, Err: err}
	}

	flags := os.O_RDWR | os.O_CREATE | os.O_EXCL
	if b.opts.Overwrite {
		flags = os.O_RDWR | os.O_CREATE | os.O_TRUNC
	}

	f, err := b.fs.OpenFile(targetPath, flags, 0o644)
	if err != nil {
		return nil, &OpenError{Path: targetPath, Err: err}
	}

	archiver, err := archivers.New(f, b.opts.Format, b.opts.Compression)
	if err != nil {
		return nil, &OpenError{
			Path: targetPath,
			Err:  errors.Join(err, f.Close(), b.fs.Remove(targetPath)),
		}
	}

	b.logger.Debug("opened archive", zap.String("target", targetPath), zap.String("extension", archiver.Extension()))

	// Kept so the archive can recognize itself when the target sits inside the source.
	info, err := f.Stat()
	if err != nil {
		b.logger.Debug("failed to stat archive", zap.String("target", targetPath), zap.Error(err))
		info = nil
	}

	return &Archive{
		fs:       b.fs,
		path:     targetPath,
		absPath:  cleanAbs(targetPath),
		info:     info,
		file:     f,
		archiver: archiver,
	}, nil
}

// CreateFromDirectory opens a new archive at targetPath, adds a directory entry named
// after sourceDir and then every regular file directly inside sourceDir whose name
// contains a dot. The archive never includes itself when targetPath is inside sourceDir.
// Per-file failures are reported and skipped. The returned archive is still open; the
// caller must Close it.
func (b *Bundler) CreateFromDirectory(ctx context.Context, sourceDir, targetPath string) (*Archive, error) {
	archive, err := b.Open(ctx, targetPath)
	if err != nil {
		return nil, err
	}

	logger := b.logger.With(zap.String("source", sourceDir), zap.String("target", targetPath))

	name := DirectoryName(sourceDir)
	b.reporter.Directory(name)

	entryName := filepath.Base(sourceDir)
	if b.opts.DirectoryEntry == DirectoryEntryTrimmed {
		entryName = name
	}
	dirEntry := engine.EntryInfo{Name: entryName}
	if info, err := b.fs.Stat(sourceDir); err == nil {
		dirEntry.ModTime = info.ModTime()
		dirEntry.Mode = info.Mode()
	}
	if err := archive.addDir(ctx, dirEntry); err != nil {
		logger.Warn("failed to add directory entry", zap.String("entry", entryName), zap.Error(err))
	}

	for _, match := range b.matchFiles(logger, sourceDir) {
		if err := ctx.Err(); err != nil {
			return nil, errors.Join(fmt.Errorf("bundling %s cancelled: %w", sourceDir, err), archive.Close())
		}

		info, err := b.fs.Stat(match)
		if err != nil || !info.Mode().IsRegular() {
			logger.Debug("skipping non-regular path", zap.String("path", match))
			continue
		}

		base := filepath.Base(match)
		content := b.contentPath(match)

		if archive.isTarget(match) || archive.isTarget(content) {
			logger.Debug("skipping the archive being written", zap.String("path", match))
			continue
		}

		if b.opts.Filter != nil {
			ok, err := b.opts.Filter.Match(info)
			if err != nil {
				b.reporter.FileFailed(base, err)
				continue
			}
			if !ok {
				logger.Debug("excluded by filter", zap.String("path", match), zap.String("filter", b.opts.Filter.String()))
				continue
			}
		}

		if err := archive.AddFile(ctx, base, content); err != nil {
			b.reporter.FileFailed(base, err)
			continue
		}
		b.reporter.FileAdded(base)
	}

	return archive, nil
}

// WithArchive runs CreateFromDirectory, hands the open archive to fn and always closes it
// afterwards. The close error is joined with fn's error.
func (b *Bundler) WithArchive(ctx context.Context, sourceDir, targetPath string, fn func(*Archive) error) (err error) {
	archive, err := b.CreateFromDirectory(ctx, sourceDir, targetPath)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, archive.Close())
	}()

	if fn == nil {
		return nil
	}
	return fn(archive)
}

// matchFiles lists the immediate children of dir whose names contain a dot. Hidden
// names are left out, as shell globbing does. An unreadable or missing directory yields
// no matches.
func (b *Bundler) matchFiles(logger *zap.Logger, dir string) []string {
	matches, err := afero.Glob(b.fs, filepath.Join(dir, filePattern))
	if err != nil {
		logger.Warn("failed to list source directory", zap.Error(err))
		return nil
	}
	return lo.Filter(matches, func(match string, _ int) bool {
		return !strings.HasPrefix(filepath.Base(match), ".")
	})
}

func (b *Bundler) contentPath(match string) string {
	if b.opts.ContentSource == ContentFromWorkDir {
		return filepath.Join(b.opts.WorkDir, filepath.Base(match))
	}
	return match
}

// DirectoryName returns the final path component of sourceDir with leading dots and
// spaces removed, or DefaultDirectoryName when nothing is left.
func DirectoryName(sourceDir string) string {
	name := strings.TrimLeft(filepath.Base(sourceDir), ". ")
	if name == "" {
		return DefaultDirectoryName
	}
	return name
}
