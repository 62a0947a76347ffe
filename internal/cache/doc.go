// Package cache provides SQLite-backed storage for model predictions.
//
// The cache is opt-in: when enabled, each (content digest, threshold,
// limit) triple maps to the TagMap the model returned, so re-tagging an
// unchanged file skips inference entirely. Keys are content digests
// rather than paths so renamed or copied files still hit.
package cache
