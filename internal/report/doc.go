// Package report renders predictions to their output formats.
//
// This package contains writers for the supported shapes:
//   - JSONWriter: one JSON object per line (grouped or flattened)
//   - CSVWriter: comma-separated records (grouped or flattened)
//   - MarkdownWriter: one table per batch, for documentation and sharing
//
// Writers stream batch by batch; nothing buffers the whole result set.
//
// Design decision: We separate rendering from the prediction data
// structures (which are in the model package) so new output formats can
// be added without modifying the core types. Writers implement the
// Writer interface, allowing them to be used interchangeably.
package report
