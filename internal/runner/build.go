package runner

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	v1 "github.com/infracollect/dirbundle/apis/v1"
	"github.com/infracollect/dirbundle/internal/bundle"
	"github.com/infracollect/dirbundle/internal/engine"
	"github.com/infracollect/dirbundle/internal/engine/sinks"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// buildBundler translates the archive and source specs into bundler options.
func buildBundler(fs afero.Fs, logger *zap.Logger, reporter bundle.Reporter, spec v1.BundleJobSpec) (*bundle.Bundler, error) {
	opts := bundle.Options{
		Format:         spec.Archive.Format,
		Compression:    spec.Archive.Compression,
		Overwrite:      spec.Archive.Overwrite,
		DirectoryEntry: bundle.DirectoryEntryMode(spec.Archive.DirectoryEntry),
		ContentSource:  bundle.ContentSource(spec.Archive.ContentFrom),
	}

	if spec.Archive.WorkDir != nil {
		opts.WorkDir = *spec.Archive.WorkDir
	}

	if spec.Source.Include != nil && *spec.Source.Include != "" {
		filter, err := bundle.NewFilter(*spec.Source.Include)
		if err != nil {
			return nil, err
		}
		opts.Filter = filter
	}

	return bundle.New(fs, logger, reporter, opts)
}

// buildSinks creates the publish destinations. A nil spec publishes nowhere.
func buildSinks(ctx context.Context, spec *v1.PublishSpec) ([]engine.Sink, error) {
	if spec == nil {
		return nil, nil
	}

	var result []engine.Sink

	if spec.Folder != nil {
		sink, err := sinks.NewFolderSinkFromPath(spec.Folder.Path)
		if err != nil {
			return nil, err
		}
		result = append(result, sink)
	}

	if spec.S3 != nil {
		sink, err := buildS3Sink(ctx, spec.S3)
		if err != nil {
			return nil, err
		}
		result = append(result, sink)
	}

	if spec.Stdout != nil {
		result = append(result, sinks.NewStreamSink(os.Stdout))
	}

	return result, nil
}

func buildS3Sink(ctx context.Context, s3Spec *v1.S3PublishSpec) (engine.Sink, error) {
	cfg := sinks.S3Config{
		Bucket:         s3Spec.Bucket,
		ForcePathStyle: s3Spec.ForcePathStyle,
	}

	if s3Spec.Region != nil {
		cfg.Region = *s3Spec.Region
	}

	if s3Spec.Endpoint != nil {
		cfg.Endpoint = *s3Spec.Endpoint
	}

	if s3Spec.Prefix != nil {
		cfg.Prefix = *s3Spec.Prefix
	}

	if s3Spec.Credentials != nil {
		cfg.AccessKeyID = s3Spec.Credentials.AccessKeyID
		cfg.SecretAccessKey = s3Spec.Credentials.SecretAccessKey
	}

	return sinks.NewS3Sink(ctx, cfg)
}

// BuildVariables creates the variables map for template expansion.
// It includes built-in variables and reads allowed environment variables.
// If an allowed variable is not set, an error is returned.
func BuildVariables(job v1.BundleJob, allowedEnv []string) (map[string]string, error) {
	date := time.Now().UTC()
	variables := map[string]string{
		"BUNDLE_NAME":         job.Metadata.Name,
		"BUNDLE_DATE_ISO8601": date.Format(engine.ISO8601Basic),
		"BUNDLE_DATE_RFC3339": date.Format(time.RFC3339),
	}

	var errs error
	for _, envName := range allowedEnv {
		val, ok := os.LookupEnv(envName)
		if !ok {
			errs = errors.Join(errs, fmt.Errorf("environment variable %q is not set", envName))
			continue
		}
		variables[envName] = val
	}

	if errs != nil {
		return nil, errs
	}

	return variables, nil
}

// PrepareBundleJob parses, validates and expands a job file in one step.
func PrepareBundleJob(data []byte, allowedEnv []string) (v1.BundleJob, error) {
	job, err := ParseBundleJob(data)
	if err != nil {
		return v1.BundleJob{}, err
	}

	variables, err := BuildVariables(job, allowedEnv)
	if err != nil {
		return v1.BundleJob{}, fmt.Errorf("failed to build variables: %w", err)
	}

	if err := ExpandTemplates(&job, variables); err != nil {
		return v1.BundleJob{}, fmt.Errorf("failed to expand templates: %w", err)
	}

	return job, nil
}

// Check verifies the parts of an expanded job the validator tags cannot express, such as
// the format/compression pair and the include filter. It touches no files.
func Check(job v1.BundleJob) error {
	_, err := buildBundler(afero.NewMemMapFs(), zap.NewNop(), nil, job.Spec)
	return err
}
