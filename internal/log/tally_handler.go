package log

import (
	"context"
	"io"
	"log/slog"
	"sync/atomic"
)

// TallyHandler wraps an slog.Handler and counts records at warning
// level and above. The pipeline logs one warning per skipped file, so
// the tally doubles as a skipped-file count for the end-of-run summary.
//
// Design decision: We use a handler wrapper rather than a custom logger
// because:
//  1. It integrates seamlessly with standard slog APIs
//  2. It works with any underlying handler (text, JSON, etc.)
//  3. Call sites stay plain slog calls with no extra bookkeeping
type TallyHandler struct {
	// handler is the underlying slog handler that receives all records.
	handler slog.Handler

	// warnings counts records at LevelWarn and above. Shared across
	// WithAttrs/WithGroup derived handlers so the total stays global.
	warnings *atomic.Int64
}

// NewTallyHandler creates a TallyHandler wrapping the given handler.
// If handler is nil, the returned TallyHandler wraps slog.Default().Handler().
func NewTallyHandler(handler slog.Handler) *TallyHandler {
	if handler == nil {
		handler = slog.Default().Handler()
	}
	return &TallyHandler{handler: handler, warnings: &atomic.Int64{}}
}

// Warnings returns the number of records handled at LevelWarn or above.
func (h *TallyHandler) Warnings() int64 {
	return h.warnings.Load()
}

// Enabled reports whether the handler handles records at the given level.
// It delegates to the underlying handler.
func (h *TallyHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

// Handle counts the record if it is a warning or worse, then passes it
// to the underlying handler unchanged.
func (h *TallyHandler) Handle(ctx context.Context, r slog.Record) error {
	if r.Level >= slog.LevelWarn {
		h.warnings.Add(1)
	}
	return h.handler.Handle(ctx, r)
}

// WithAttrs returns a new handler with the given attributes added.
// The warning tally is shared with the parent handler.
func (h *TallyHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &TallyHandler{handler: h.handler.WithAttrs(attrs), warnings: h.warnings}
}

// WithGroup returns a new handler with the given group name.
// The warning tally is shared with the parent handler.
func (h *TallyHandler) WithGroup(name string) slog.Handler {
	return &TallyHandler{handler: h.handler.WithGroup(name), warnings: h.warnings}
}

// NewLogger creates a slog.Logger writing human-readable output to w
// with warning tallying. Returns the logger and the TallyHandler so
// callers can read the warning count after a run.
//
// Parameters:
//   - w: The io.Writer to write log output to (typically os.Stderr)
//   - verbose: If true, sets log level to Debug; otherwise Warn
func NewLogger(w io.Writer, verbose bool) (*slog.Logger, *TallyHandler) {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	textHandler := slog.NewTextHandler(w, opts)
	tally := NewTallyHandler(textHandler)

	return slog.New(tally), tally
}

// NewJSONLogger creates a slog.Logger writing JSON output to w with
// warning tallying. Useful for structured log aggregation.
func NewJSONLogger(w io.Writer, verbose bool) (*slog.Logger, *TallyHandler) {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	jsonHandler := slog.NewJSONHandler(w, opts)
	tally := NewTallyHandler(jsonHandler)

	return slog.New(tally), tally
}
