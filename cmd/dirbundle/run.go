package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/infracollect/dirbundle/internal/runner"
	"github.com/spf13/afero"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
)

func newAllowedEnvFlag() cli.Flag {
	return &cli.StringSliceFlag{
		Name:  "allowed-env",
		Usage: "Environment variables allowed in job configuration (can be repeated)",
	}
}

var runCommand = &cli.Command{
	Name:  "run",
	Usage: "Run a bundle job file",
	Flags: []cli.Flag{
		newAllowedEnvFlag(),
	},
	Arguments: []cli.Argument{
		&cli.StringArg{
			Name:      "job",
			UsageText: "The job file to run (- for stdin)",
		},
	},
	Action: func(ctx context.Context, command *cli.Command) error {
		logger := getLogger(ctx)

		jobFilename := command.StringArg("job")
		if jobFilename == "" {
			return fmt.Errorf("no job file provided")
		}

		jobFile, err := readJobFile(jobFilename)
		if err != nil {
			return fmt.Errorf("failed to read job file '%s': %w", jobFilename, err)
		}

		job, err := runner.PrepareBundleJob(jobFile, command.StringSlice("allowed-env"))
		if err != nil {
			return fmt.Errorf("failed to prepare job: %w", formatValidationError(err))
		}

		logger = logger.With(zap.String("job_name", job.Metadata.Name))

		r, err := runner.New(ctx, logger.Named("runner"), afero.NewOsFs(), newReporter(ctx, logger), job)
		if err != nil {
			return fmt.Errorf("failed to create runner: %w", err)
		}

		if err := r.Run(ctx); err != nil {
			return fmt.Errorf("failed to run job: %w", err)
		}

		return nil
	},
}

// readJobFile reads a job file from disk, or from stdin when name is "-".
func readJobFile(name string) ([]byte, error) {
	if name == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(name)
}
