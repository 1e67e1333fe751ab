package runner

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-yaml"
	v1 "github.com/infracollect/dirbundle/apis/v1"
	"github.com/infracollect/dirbundle/internal/bundle"
	"github.com/infracollect/dirbundle/internal/engine"
	"github.com/samber/lo"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

var (
	defaultValidator = validator.New(validator.WithRequiredStructEnabled())
)

// ParseBundleJob parses a YAML or JSON job file and validates it. Templates are not
// expanded; see BuildVariables and ExpandTemplates.
func ParseBundleJob(data []byte) (v1.BundleJob, error) {
	var job v1.BundleJob
	if err := yaml.Unmarshal(data, &job); err != nil {
		return v1.BundleJob{}, fmt.Errorf("failed to unmarshal job data: %w", err)
	}

	if err := defaultValidator.Struct(job); err != nil {
		return v1.BundleJob{}, fmt.Errorf("failed to validate job: %w", err)
	}

	return job, nil
}

// Runner bundles the job's source directory and publishes the result.
type Runner struct {
	logger  *zap.Logger
	fs      afero.Fs
	job     v1.BundleJob
	bundler *bundle.Bundler
	sinks   []engine.Sink
}

// New builds a runner for an expanded job. Archives are written to fs and diagnostics go
// to reporter.
func New(ctx context.Context, logger *zap.Logger, fs afero.Fs, reporter bundle.Reporter, job v1.BundleJob) (*Runner, error) {
	logger.Info("creating runner", zap.String("job_name", job.Metadata.Name))

	bundler, err := buildBundler(fs, logger.Named("bundle"), reporter, job.Spec)
	if err != nil {
		return nil, fmt.Errorf("failed to build bundler: %w", err)
	}

	sinks, err := buildSinks(ctx, job.Spec.Publish)
	if err != nil {
		return nil, fmt.Errorf("failed to build sinks: %w", err)
	}

	return &Runner{
		logger:  logger,
		fs:      fs,
		job:     job,
		bundler: bundler,
		sinks:   sinks,
	}, nil
}

// AddSink registers an extra destination for the finished archive.
func (r *Runner) AddSink(sink engine.Sink) {
	r.sinks = append(r.sinks, sink)
}

// Sinks returns the names of the configured destinations.
func (r *Runner) Sinks() []string {
	return lo.Map(r.sinks, func(s engine.Sink, _ int) string { return s.Name() })
}

func (r *Runner) Run(ctx context.Context) error {
	source := r.job.Spec.Source.Path
	target := r.job.Spec.Archive.Path

	err := r.bundler.WithArchive(ctx, source, target, func(a *bundle.Archive) error {
		r.logger.Info("bundled directory",
			zap.String("source", source),
			zap.String("target", a.Path()),
			zap.Int("entries", len(a.Entries())),
		)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to bundle %s: %w", source, err)
	}

	if err := r.Publish(ctx, target); err != nil {
		return fmt.Errorf("failed to publish %s: %w", target, err)
	}

	return nil
}

// Publish copies the finished archive to every sink under its base name and closes the sinks.
func (r *Runner) Publish(ctx context.Context, archivePath string) error {
	name := filepath.Base(archivePath)

	for _, sink := range r.sinks {
		if err := r.publishTo(ctx, sink, archivePath, name); err != nil {
			return err
		}
		r.logger.Info("published archive", zap.String("sink", sink.Name()), zap.String("archive", name))
	}

	// Use a background context for cleanup so sinks are closed even after cancellation
	cleanupCtx := context.Background()
	var errs error
	for _, sink := range r.sinks {
		if err := sink.Close(cleanupCtx); err != nil {
			errs = errors.Join(errs, fmt.Errorf("failed to close sink %s: %w", sink.Name(), err))
		}
	}

	return errs
}

func (r *Runner) publishTo(ctx context.Context, sink engine.Sink, archivePath, name string) (err error) {
	f, err := r.fs.Open(archivePath)
	if err != nil {
		return fmt.Errorf("failed to open archive: %w", err)
	}
	defer func() {
		err = errors.Join(err, f.Close())
	}()

	if err := sink.Write(ctx, name, f); err != nil {
		return fmt.Errorf("failed to write archive to %s: %w", sink.Name(), err)
	}

	return nil
}
