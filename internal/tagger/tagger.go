package tagger

import (
	"context"
	"image"

	"github.com/pictag/autotagger/internal/model"
)

// Options are the advisory filters passed to Predict. They are applied
// by the implementation; callers do not re-validate the results.
type Options struct {
	// Threshold is the minimum confidence for a tag to be returned.
	Threshold float64

	// Limit is the maximum number of tags returned per image.
	Limit int

	// BatchSize caps how many images the implementation feeds the
	// model at once. Predict accepts any number of images and chunks
	// internally.
	BatchSize int
}

// Predictor is the opaque tagging-model collaborator.
//
// Contract: Predict returns exactly one TagMap per input image, in
// input order, each ordered by descending score. An error return means
// the whole call failed; there are no partial results.
type Predictor interface {
	Predict(ctx context.Context, images []image.Image, opts Options) ([]model.TagMap, error)

	// Close releases model resources. Safe to call once after use.
	Close() error
}
