package bundle

import (
	"fmt"
	"io"

	"go.uber.org/zap"
)

// Reporter receives progress diagnostics while a bundle is built. Calls happen
// synchronously, in processing order.
type Reporter interface {
	// Directory is called once with the computed directory name.
	Directory(name string)
	// FileAdded is called after an entry was written.
	FileAdded(name string)
	// FileFailed is called when an entry could not be written. Processing continues.
	FileFailed(name string, err error)
}

// TextReporter writes one human readable line per event.
type TextReporter struct {
	w io.Writer
}

func NewTextReporter(w io.Writer) *TextReporter {
	return &TextReporter{w: w}
}

func (r *TextReporter) Directory(name string) {
	fmt.Fprintf(r.w, "adding %s\n", name)
}

func (r *TextReporter) FileAdded(name string) {
	fmt.Fprintf(r.w, "✓ %s\n", name)
}

func (r *TextReporter) FileFailed(name string, err error) {
	fmt.Fprintf(r.w, "✗ %s: %v\n", name, err)
}

// LogReporter turns diagnostics into structured log entries.
type LogReporter struct {
	logger *zap.Logger
}

func NewLogReporter(logger *zap.Logger) *LogReporter {
	return &LogReporter{logger: logger}
}

func (r *LogReporter) Directory(name string) {
	r.logger.Info("adding directory", zap.String("directory", name))
}

func (r *LogReporter) FileAdded(name string) {
	r.logger.Info("added file", zap.String("file", name))
}

func (r *LogReporter) FileFailed(name string, err error) {
	r.logger.Warn("failed to add file", zap.String("file", name), zap.Error(err))
}

type NopReporter struct{}

func (NopReporter) Directory(string)         {}
func (NopReporter) FileAdded(string)         {}
func (NopReporter) FileFailed(string, error) {}
