package v1

// BundleJobKind is the only kind accepted in job files.
const BundleJobKind = "BundleJob"

type BundleJob struct {
	Kind     string        `yaml:"kind" json:"kind" validate:"required,eq=BundleJob"`
	Metadata Metadata      `yaml:"metadata" json:"metadata"`
	Spec     BundleJobSpec `yaml:"spec" json:"spec"`
}

type Metadata struct {
	// Name identifies the job. It is available to templates as ${BUNDLE_NAME}.
	Name string `yaml:"name" json:"name" validate:"required"`
}

type BundleJobSpec struct {
	Source  SourceSpec   `yaml:"source" json:"source"`
	Archive ArchiveSpec  `yaml:"archive" json:"archive"`
	Publish *PublishSpec `yaml:"publish,omitempty" json:"publish,omitempty"`
}

// SourceSpec selects the directory whose files are bundled.
type SourceSpec struct {
	// Path is the directory to bundle. Only its immediate files with a dot in their name are added.
	Path string `yaml:"path" json:"path" validate:"required" template:""`

	// Include is an optional CEL expression over name, ext, size, mode and mod_time.
	Include *string `yaml:"include,omitempty" json:"include,omitempty"`
}

// ArchiveSpec configures the archive file that is created.
type ArchiveSpec struct {
	// Path is the archive file to create. Its parent directory must exist.
	Path string `yaml:"path" json:"path" validate:"required" template:""`

	// Format is the container format (default: zip).
	Format string `yaml:"format,omitempty" json:"format,omitempty" validate:"omitempty,oneof=zip tar"`

	// Compression is the zip method (deflate, store) or tar compression (gzip, zstd, none).
	Compression string `yaml:"compression,omitempty" json:"compression,omitempty" validate:"omitempty,oneof=deflate store gzip zstd none"`

	// Overwrite replaces an existing archive instead of failing.
	Overwrite bool `yaml:"overwrite,omitempty" json:"overwrite,omitempty"`

	// DirectoryEntry names the directory entry: raw uses the source directory's base name
	// as is, trimmed strips leading dots and spaces (default: raw).
	DirectoryEntry string `yaml:"directory_entry,omitempty" json:"directory_entry,omitempty" validate:"omitempty,oneof=raw trimmed"`

	// ContentFrom selects where file content is read: path reads the matched file,
	// workdir reads the file of the same name in WorkDir (default: path).
	ContentFrom string `yaml:"content_from,omitempty" json:"content_from,omitempty" validate:"omitempty,oneof=path workdir"`

	// WorkDir is used with content_from: workdir (default: the process working directory).
	WorkDir *string `yaml:"work_dir,omitempty" json:"work_dir,omitempty" template:""`
}

// PublishSpec lists destinations the finished archive is copied to. Any combination may be set.
type PublishSpec struct {
	Folder *FolderPublishSpec `yaml:"folder,omitempty" json:"folder,omitempty"`
	S3     *S3PublishSpec     `yaml:"s3,omitempty" json:"s3,omitempty"`
	Stdout *StdoutPublishSpec `yaml:"stdout,omitempty" json:"stdout,omitempty"`
}

// FolderPublishSpec copies the archive into a directory.
type FolderPublishSpec struct {
	Path string `yaml:"path" json:"path" validate:"required" template:""`
}

// S3PublishSpec uploads the archive to S3-compatible object storage.
type S3PublishSpec struct {
	Bucket         string         `yaml:"bucket" json:"bucket" validate:"required" template:""`
	Region         *string        `yaml:"region,omitempty" json:"region,omitempty" template:""`
	Endpoint       *string        `yaml:"endpoint,omitempty" json:"endpoint,omitempty" template:""`
	Prefix         *string        `yaml:"prefix,omitempty" json:"prefix,omitempty" template:""`
	ForcePathStyle bool           `yaml:"force_path_style,omitempty" json:"force_path_style,omitempty"`
	Credentials    *S3Credentials `yaml:"credentials,omitempty" json:"credentials,omitempty"`
}

type S3Credentials struct {
	AccessKeyID     string `yaml:"access_key_id" json:"access_key_id" validate:"required" template:""`
	SecretAccessKey string `yaml:"secret_access_key" json:"secret_access_key" validate:"required" template:""`
}

// StdoutPublishSpec writes the archive bytes to stdout (no options currently).
type StdoutPublishSpec struct{}
