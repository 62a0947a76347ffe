// Package collector resolves CLI arguments and input files into a lazy
// sequence of candidate file paths.
//
// Explicit files pass through unchanged, directories are expanded
// recursively to all non-directory descendants, and "-" is forwarded as
// the standard-input sentinel for the loader. A newline-delimited input
// file replaces positional arguments entirely.
//
// Design decision: Paths returns an iter.Seq rather than a slice so a
// run over a large directory tree never materializes the full path list;
// the pipeline consumes it batch by batch in a single pass.
package collector
