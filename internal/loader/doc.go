// Package loader opens and decodes candidate image files for a batch.
//
// Failures are split into two recoverable kinds: files that are not
// readable as images (decode failures) and everything else (I/O,
// permissions). Both are logged as warnings and dropped from the batch
// without a placeholder; only fatal conditions further down the
// pipeline terminate a run.
package loader
