package main

import (
	"context"
	"os"

	"github.com/infracollect/dirbundle/internal/bundle"
	"go.uber.org/zap"
	"golang.org/x/term"
)

type interactiveCtxKeyType struct{}

var interactiveCtxKey = interactiveCtxKeyType{}

func isInteractiveEnvironment() bool {
	if os.Getenv("CI") != "" {
		return false
	}
	return term.IsTerminal(int(os.Stderr.Fd()))
}

func withInteractive(ctx context.Context, interactive bool) context.Context {
	return context.WithValue(ctx, interactiveCtxKey, interactive)
}

func isInteractive(ctx context.Context) bool {
	interactive, ok := ctx.Value(interactiveCtxKey).(bool)
	if !ok {
		return false
	}
	return interactive
}

// newReporter prints progress lines on a terminal and logs them otherwise.
// Progress goes to stderr so stdout stays free for archive bytes.
func newReporter(ctx context.Context, logger *zap.Logger) bundle.Reporter {
	if isInteractive(ctx) {
		return bundle.NewTextReporter(os.Stderr)
	}
	return bundle.NewLogReporter(logger.Named("report"))
}
