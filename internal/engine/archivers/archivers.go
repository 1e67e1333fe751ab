// Package archivers provides the archive formats a bundle can be written in.
package archivers

import (
	"fmt"
	"io"

	"github.com/infracollect/dirbundle/internal/engine"
)

// Format names an archive container format.
type Format string

const (
	FormatZip Format = "zip"
	FormatTar Format = "tar"
)

// New creates an archiver for format writing to w. compression is interpreted per
// format: a zip method ("deflate", "store") or a tar compression ("gzip", "zstd", "none").
// An empty format defaults to zip.
func New(w io.Writer, format, compression string) (engine.Archiver, error) {
	switch Format(format) {
	case FormatZip, "":
		return NewZipArchiver(w, compression)
	case FormatTar:
		return NewTarArchiver(w, compression)
	default:
		return nil, fmt.Errorf("unsupported archive format: %s", format)
	}
}

// Validate reports whether format and compression name a supported combination.
func Validate(format, compression string) error {
	switch Format(format) {
	case FormatZip, "":
		switch ZipMethod(compression) {
		case ZipDeflate, ZipStore, "":
			return nil
		}
		return fmt.Errorf("unsupported zip method: %s", compression)
	case FormatTar:
		switch CompressionType(compression) {
		case CompressionGzip, CompressionZstd, CompressionNone, "":
			return nil
		}
		return fmt.Errorf("unsupported compression type: %s", compression)
	default:
		return fmt.Errorf("unsupported archive format: %s", format)
	}
}
