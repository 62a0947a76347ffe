// Package model defines the core data structures shared across the
// autotagger pipeline: tag/score pairs, ordered tag collections, and
// per-image predictions.
//
// Design decision: We keep data structures separate from the packages
// that produce (tagger) and consume (report, cache) them so that output
// formats and storage can evolve without touching inference code.
package model
