package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"runtime/debug"

	"github.com/urfave/cli/v3"
)

const unknown = "unknown"

// buildInfo is the module and VCS metadata embedded by the Go toolchain.
type buildInfo struct {
	version   string
	goVersion string
	commit    string
	builtAt   string
	dirty     bool
}

func readBuildInfo() buildInfo {
	bi := buildInfo{version: unknown, goVersion: unknown, commit: unknown, builtAt: unknown}

	info, ok := debug.ReadBuildInfo()
	if !ok {
		return bi
	}
	bi.version = info.Main.Version
	bi.goVersion = info.GoVersion

	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			bi.commit = setting.Value
		case "vcs.time":
			bi.builtAt = setting.Value
		case "vcs.modified":
			bi.dirty = setting.Value == "true"
		}
	}
	return bi
}

// print writes one "key: value" line per known field. Unknown VCS fields are omitted.
func (bi buildInfo) print(w io.Writer) error {
	lines := [][2]string{
		{"dirbundle version", bi.version},
		{"go", bi.goVersion},
	}
	if bi.commit != unknown {
		commit := bi.commit
		if bi.dirty {
			commit += " (dirty)"
		}
		lines = append(lines, [2]string{"commit", commit})
	}
	if bi.builtAt != unknown {
		lines = append(lines, [2]string{"built", bi.builtAt})
	}

	for _, line := range lines {
		if _, err := fmt.Fprintf(w, "%s: %s\n", line[0], line[1]); err != nil {
			return err
		}
	}
	return nil
}

var versionCommand = &cli.Command{
	Name:  "version",
	Usage: "Print version information",
	Action: func(ctx context.Context, command *cli.Command) error {
		return readBuildInfo().print(os.Stdout)
	},
}
