package report

import (
	"io"
	"path/filepath"
	"strings"

	"github.com/pictag/autotagger/internal/model"
)

// Writer defines the interface for prediction output.
// Implementations render batches in various formats.
//
// Design decision: We write batch by batch rather than accepting the
// whole result set so output streams as processing progresses; a run
// over thousands of images starts printing after the first batch.
type Writer interface {
	// WriteBatch renders one batch of predictions to the configured
	// destination. Returns the number of bytes written and any error
	// encountered.
	WriteBatch(preds []model.Prediction) (int, error)
}

// Option configures the shared writer settings.
type Option func(*baseWriter)

// WithFlatten emits one record per (image, tag) pair instead of one
// record per image.
func WithFlatten() Option {
	return func(b *baseWriter) {
		b.flatten = true
	}
}

// WithNameOnly strips directory and extension from displayed filenames.
func WithNameOnly() Option {
	return func(b *baseWriter) {
		b.nameOnly = true
	}
}

// baseWriter provides common functionality for prediction writers.
type baseWriter struct {
	output   io.Writer
	flatten  bool
	nameOnly bool
}

// newBaseWriter creates a baseWriter with the given output destination.
func newBaseWriter(output io.Writer, opts ...Option) baseWriter {
	b := baseWriter{output: output}
	for _, opt := range opts {
		opt(&b)
	}
	return b
}

// displayName returns the filename as it should appear in output:
// the path as given, or the stem when name-only is set. The stdin
// sentinel is returned unchanged.
func (b *baseWriter) displayName(path string) string {
	if !b.nameOnly {
		return path
	}
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// countingWriter counts bytes written through it so WriteBatch can
// report sizes without each format tracking its own totals.
type countingWriter struct {
	w io.Writer
	n int
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += n
	return n, err
}
