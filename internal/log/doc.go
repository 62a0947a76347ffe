// Package log provides structured logging helpers for autotagger.
//
// It wraps log/slog handlers with a TallyHandler that counts warning
// and error records, so the CLI can report how many files were skipped
// at the end of a run without every call site maintaining counters.
package log
