package file

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/pkbridge/erlab/internal/output"
)

const defaultBufSize = 64 * 1024 // 64KB

// Output appends rendered tables to a file with buffered I/O.
type Output struct {
	mu     sync.Mutex
	w      *bufio.Writer
	f      *os.File
	format output.Format
}

// New creates a file output that appends tables to the given path.
func New(path string, format output.Format) (*Output, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("file output: %w", err)
	}
	return &Output{
		w:      bufio.NewWriterSize(f, defaultBufSize),
		f:      f,
		format: format,
	}, nil
}

// Write renders the table and appends it to the file.
func (o *Output) Write(_ context.Context, tab output.Table) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if err := output.Render(o.w, tab, o.format); err != nil {
		return fmt.Errorf("file output: %w", err)
	}
	return nil
}

// Close flushes the buffer and closes the file.
func (o *Output) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if err := o.w.Flush(); err != nil {
		o.f.Close()
		return fmt.Errorf("file output: flush: %w", err)
	}
	return o.f.Close()
}
