package engine

import (
	"context"
	"io"
)

// Sink is a destination a finished archive is published to.
type Sink interface {
	Named
	Closer
	Write(ctx context.Context, path string, data io.Reader) error
}
