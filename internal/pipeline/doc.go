// Package pipeline drives the tagging run end to end.
//
// A run streams paths from the collector in fixed-size batches. Each
// batch is decoded, looked up in the optional prediction cache, sent to
// the model, and written out before the next batch starts, so memory
// stays bounded by the batch size regardless of input length.
package pipeline
