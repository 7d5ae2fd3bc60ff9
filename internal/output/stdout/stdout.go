package stdout

import (
	"context"
	"io"
	"os"

	"github.com/pkbridge/erlab/internal/output"
)

// Output renders tables to stdout.
type Output struct {
	w      io.Writer
	format output.Format
}

// New creates a stdout Output in the given format.
func New(format output.Format) *Output {
	return &Output{w: os.Stdout, format: format}
}

func (o *Output) Write(_ context.Context, tab output.Table) error {
	return output.Render(o.w, tab, o.format)
}

func (o *Output) Close() error { return nil }
