package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	v1 "github.com/infracollect/dirbundle/apis/v1"
	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
)

// parseBundleJob runs the bundle flags over args and returns the resulting job.
func parseBundleJob(t *testing.T, args ...string) v1.BundleJob {
	t.Helper()

	var job v1.BundleJob
	cmd := &cli.Command{
		Name:  "bundle",
		Flags: bundleFlags(),
		Action: func(_ context.Context, command *cli.Command) error {
			job = jobFromFlags(command, "/src", "/out/backup.zip")
			return nil
		},
	}
	require.NoError(t, cmd.Run(t.Context(), append([]string{"bundle"}, args...)))
	return job
}

func TestJobFromFlags(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		job := parseBundleJob(t)

		assert.Equal(t, v1.BundleJobKind, job.Kind)
		assert.Equal(t, "/src", job.Spec.Source.Path)
		assert.Nil(t, job.Spec.Source.Include)
		assert.Equal(t, v1.ArchiveSpec{
			Path:           "/out/backup.zip",
			Format:         "zip",
			DirectoryEntry: "raw",
			ContentFrom:    "path",
		}, job.Spec.Archive)
		assert.Nil(t, job.Spec.Publish)
	})

	t.Run("all flags", func(t *testing.T) {
		job := parseBundleJob(t,
			"--format", "tar",
			"--compression", "zstd",
			"--force",
			"--dir-entry", "trimmed",
			"--content-from", "workdir",
			"--work-dir", "/work",
			"--include", `ext == ".txt"`,
			"--publish-dir", "/mirror",
			"--stdout",
		)

		archive := job.Spec.Archive
		assert.Equal(t, "tar", archive.Format)
		assert.Equal(t, "zstd", archive.Compression)
		assert.True(t, archive.Overwrite)
		assert.Equal(t, "trimmed", archive.DirectoryEntry)
		assert.Equal(t, "workdir", archive.ContentFrom)
		require.NotNil(t, archive.WorkDir)
		assert.Equal(t, "/work", *archive.WorkDir)

		require.NotNil(t, job.Spec.Source.Include)
		assert.Equal(t, `ext == ".txt"`, *job.Spec.Source.Include)

		require.NotNil(t, job.Spec.Publish)
		require.NotNil(t, job.Spec.Publish.Folder)
		assert.Equal(t, "/mirror", job.Spec.Publish.Folder.Path)
		assert.NotNil(t, job.Spec.Publish.Stdout)
	})

	t.Run("short force alias", func(t *testing.T) {
		assert.True(t, parseBundleJob(t, "-f").Spec.Archive.Overwrite)
	})
}

func runBundleCommand(t *testing.T, args ...string) error {
	t.Helper()
	root := &cli.Command{
		Name:     "dirbundle",
		Commands: []*cli.Command{newBundleCommand()},
	}
	ctx := withLogger(t.Context(), zap.NewNop())
	return root.Run(ctx, append([]string{"dirbundle", "bundle"}, args...))
}

func zipEntryNames(t *testing.T, path string) []string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)

	names := make([]string, 0, len(zr.File))
	for _, f := range zr.File {
		names = append(names, f.Name)
	}
	return names
}

func TestBundleCommand(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, ".site")
	mirror := filepath.Join(dir, "mirror")
	require.NoError(t, os.MkdirAll(src, 0o755))
	require.NoError(t, os.MkdirAll(mirror, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(src, "index.html"), []byte("<html/>"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(src, "debug.log"), []byte("noise"), 0o644))

	target := filepath.Join(dir, "backup.zip")
	require.NoError(t, os.WriteFile(target, []byte("stale"), 0o644))

	err := runBundleCommand(t, src, target)
	require.Error(t, err, "an existing target needs --force")

	err = runBundleCommand(t,
		"--force",
		"--dir-entry", "trimmed",
		"--include", `ext != ".log"`,
		"--publish-dir", mirror,
		src, target,
	)
	require.NoError(t, err)

	assert.Equal(t, []string{"site/", "index.html"}, zipEntryNames(t, target))
	assert.Equal(t, []string{"site/", "index.html"}, zipEntryNames(t, filepath.Join(mirror, "backup.zip")))
}

func TestBundleCommand_Errors(t *testing.T) {
	dir := t.TempDir()

	require.Error(t, runBundleCommand(t, dir), "target is required")
	require.Error(t, runBundleCommand(t, "--format", "zip", "--compression", "zstd", dir, filepath.Join(dir, "x.zip")))
	assert.NoFileExists(t, filepath.Join(dir, "x.zip"))
}
