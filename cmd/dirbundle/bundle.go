package main

import (
	"context"
	"fmt"

	v1 "github.com/infracollect/dirbundle/apis/v1"
	"github.com/infracollect/dirbundle/internal/engine/archivers"
	"github.com/infracollect/dirbundle/internal/runner"
	"github.com/samber/lo"
	"github.com/spf13/afero"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
)

// newBundleCommand builds the bundle command with fresh flag state.
func newBundleCommand() *cli.Command {
	return &cli.Command{
		Name:      "bundle",
		Usage:     "Bundle the files of a directory into an archive",
		UsageText: "dirbundle bundle [options] <source-dir> <target-archive>",
		Flags:     bundleFlags(),
		Arguments: []cli.Argument{
			&cli.StringArg{
				Name:      "source",
				UsageText: "The directory to bundle",
			},
			&cli.StringArg{
				Name:      "target",
				UsageText: "The archive file to create",
			},
		},
		Action: bundleAction,
	}
}

func bundleFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "format",
			Value: string(archivers.FormatZip),
			Usage: "Archive format (zip, tar)",
		},
		&cli.StringFlag{
			Name:  "compression",
			Usage: "Zip method (deflate, store) or tar compression (gzip, zstd, none)",
		},
		&cli.BoolFlag{
			Name:    "force",
			Aliases: []string{"f"},
			Usage:   "Overwrite the target archive if it exists",
		},
		&cli.StringFlag{
			Name:  "dir-entry",
			Value: "raw",
			Usage: "Directory entry name: raw base name or trimmed (leading dots and spaces removed)",
		},
		&cli.StringFlag{
			Name:  "content-from",
			Value: "path",
			Usage: "Read file content from the matched path, or by name from the working directory (workdir)",
		},
		&cli.StringFlag{
			Name:  "work-dir",
			Usage: "Directory used with --content-from workdir (default: current directory)",
		},
		&cli.StringFlag{
			Name:  "include",
			Usage: "CEL expression a file must satisfy, e.g. 'ext != \".log\"'",
		},
		&cli.StringFlag{
			Name:  "publish-dir",
			Usage: "Copy the finished archive into this directory",
		},
		&cli.BoolFlag{
			Name:  "stdout",
			Usage: "Write the finished archive to stdout",
		},
	}
}

func bundleAction(ctx context.Context, command *cli.Command) error {
	logger := getLogger(ctx)

	source := command.StringArg("source")
	target := command.StringArg("target")
	if source == "" || target == "" {
		return fmt.Errorf("source directory and target archive are required")
	}

	if err := archivers.Validate(command.String("format"), command.String("compression")); err != nil {
		return err
	}

	job := jobFromFlags(command, source, target)

	r, err := runner.New(ctx, logger.Named("runner"), afero.NewOsFs(), newReporter(ctx, logger), job)
	if err != nil {
		return fmt.Errorf("failed to create runner: %w", err)
	}

	logger.Debug("bundling", zap.String("source", source), zap.String("target", target), zap.Strings("sinks", r.Sinks()))

	if err := r.Run(ctx); err != nil {
		return err
	}

	return nil
}

// jobFromFlags describes a one-off bundle invocation as a job.
func jobFromFlags(command *cli.Command, source, target string) v1.BundleJob {
	job := v1.BundleJob{
		Kind:     v1.BundleJobKind,
		Metadata: v1.Metadata{Name: "bundle"},
		Spec: v1.BundleJobSpec{
			Source: v1.SourceSpec{Path: source},
			Archive: v1.ArchiveSpec{
				Path:           target,
				Format:         command.String("format"),
				Compression:    command.String("compression"),
				Overwrite:      command.Bool("force"),
				DirectoryEntry: command.String("dir-entry"),
				ContentFrom:    command.String("content-from"),
			},
		},
	}

	if workDir := command.String("work-dir"); workDir != "" {
		job.Spec.Archive.WorkDir = lo.ToPtr(workDir)
	}

	if include := command.String("include"); include != "" {
		job.Spec.Source.Include = lo.ToPtr(include)
	}

	if dir := command.String("publish-dir"); dir != "" || command.Bool("stdout") {
		job.Spec.Publish = &v1.PublishSpec{}
		if dir != "" {
			job.Spec.Publish.Folder = &v1.FolderPublishSpec{Path: dir}
		}
		if command.Bool("stdout") {
			job.Spec.Publish.Stdout = &v1.StdoutPublishSpec{}
		}
	}

	return job
}
