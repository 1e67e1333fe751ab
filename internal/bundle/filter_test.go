package bundle

import (
	"io/fs"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFixtureFs(t *testing.T, files map[string]string) afero.Fs {
	t.Helper()
	fs := afero.NewMemMapFs()
	writeFiles(t, fs, files)
	return fs
}

func statFixture(t *testing.T, afs afero.Fs, path string) fs.FileInfo {
	t.Helper()
	info, err := afs.Stat(path)
	require.NoError(t, err)
	return info
}

func TestNewFilter_Errors(t *testing.T) {
	tests := []struct {
		name string
		expr string
	}{
		{name: "syntax error", expr: `name ==`},
		{name: "unknown variable", expr: `owner == "root"`},
		{name: "non bool result", expr: `size + 1`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewFilter(tt.expr)
			require.Error(t, err)
		})
	}
}

func TestFilter_Match(t *testing.T) {
	afs := newFixtureFs(t, map[string]string{
		"/src/report.csv": "a,b,c",
		"/src/trace.log":  "line",
	})
	old := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, afs.Chtimes("/src/trace.log", old, old))

	tests := []struct {
		name string
		expr string
		path string
		want bool
	}{
		{name: "extension match", expr: `ext == ".csv"`, path: "/src/report.csv", want: true},
		{name: "extension mismatch", expr: `ext == ".csv"`, path: "/src/trace.log", want: false},
		{name: "size", expr: `size == 5`, path: "/src/report.csv", want: true},
		{name: "name function", expr: `name.startsWith("trace")`, path: "/src/trace.log", want: true},
		{name: "mod time", expr: `mod_time < timestamp("2021-01-01T00:00:00Z")`, path: "/src/trace.log", want: true},
		{name: "mode", expr: `mode == 420`, path: "/src/report.csv", want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := NewFilter(tt.expr)
			require.NoError(t, err)
			assert.Equal(t, tt.expr, f.String())

			got, err := f.Match(statFixture(t, afs, tt.path))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
