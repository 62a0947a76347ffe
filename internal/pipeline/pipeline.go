package pipeline

import (
	"context"
	"fmt"
	"image"
	"iter"
	"log/slog"

	"github.com/pictag/autotagger/internal/loader"
	"github.com/pictag/autotagger/internal/model"
	"github.com/pictag/autotagger/internal/report"
	"github.com/pictag/autotagger/internal/tagger"
)

// BatchLoader decodes a batch of paths into upright images. Failed
// entries are dropped by the implementation, so the returned slice may
// be shorter than the input.
type BatchLoader interface {
	LoadBatch(paths []string) []loader.Entry
}

// Cache is the optional prediction store consulted before inference.
type Cache interface {
	Get(ctx context.Context, digest string, threshold float64, limit int) (model.TagMap, bool, error)
	Put(ctx context.Context, digest, path string, threshold float64, limit int, tags model.TagMap) error
}

// Stats summarizes a completed run.
type Stats struct {
	// Tagged is the number of images that produced a prediction.
	Tagged int

	// CacheHits is how many of those came from the cache.
	CacheHits int

	// Batches is the number of batches processed.
	Batches int
}

// Pipeline wires the collector output through loading, inference, and
// reporting.
type Pipeline struct {
	opts      tagger.Options
	predictor tagger.Predictor
	loader    BatchLoader
	writer    report.Writer
	cache     Cache
	logger    *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// WithCache enables the prediction cache. Cache write failures are
// logged, not fatal; read failures abort the run.
func WithCache(cache Cache) Option {
	return func(p *Pipeline) {
		p.cache = cache
	}
}

// New creates a Pipeline.
func New(opts tagger.Options, predictor tagger.Predictor, batchLoader BatchLoader, writer report.Writer, pipelineOpts ...Option) *Pipeline {
	p := &Pipeline{
		opts:      opts,
		predictor: predictor,
		loader:    batchLoader,
		writer:    writer,
		logger:    slog.Default(),
	}
	for _, opt := range pipelineOpts {
		opt(p)
	}
	return p
}

// Run processes every path in the sequence, one batch at a time.
// Output order matches input order; skipped files leave no trace in the
// output beyond their warning. Predictor and writer errors abort the
// run immediately.
func (p *Pipeline) Run(ctx context.Context, paths iter.Seq[string]) (Stats, error) {
	var stats Stats

	for batch := range Chunk(paths, p.opts.BatchSize) {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		entries := p.loader.LoadBatch(batch)
		if len(entries) == 0 {
			continue
		}

		preds, hits, err := p.tagBatch(ctx, entries)
		if err != nil {
			return stats, err
		}

		if _, err := p.writer.WriteBatch(preds); err != nil {
			return stats, fmt.Errorf("write batch: %w", err)
		}

		stats.Tagged += len(preds)
		stats.CacheHits += hits
		stats.Batches++
	}

	return stats, nil
}

// tagBatch produces one Prediction per entry, in entry order, serving
// what it can from the cache and running the model for the rest.
func (p *Pipeline) tagBatch(ctx context.Context, entries []loader.Entry) ([]model.Prediction, int, error) {
	preds := make([]model.Prediction, len(entries))

	missIdx := make([]int, 0, len(entries))
	missImages := make([]image.Image, 0, len(entries))
	hits := 0

	for i, entry := range entries {
		preds[i].Filename = entry.Path

		if p.cache != nil {
			tags, ok, err := p.cache.Get(ctx, entry.Digest, p.opts.Threshold, p.opts.Limit)
			if err != nil {
				return nil, 0, fmt.Errorf("cache lookup for %s: %w", entry.Path, err)
			}
			if ok {
				preds[i].Tags = tags
				hits++
				continue
			}
		}

		missIdx = append(missIdx, i)
		missImages = append(missImages, entry.Image)
	}

	if len(missImages) > 0 {
		tagMaps, err := p.predictor.Predict(ctx, missImages, p.opts)
		if err != nil {
			return nil, 0, fmt.Errorf("predict: %w", err)
		}
		if len(tagMaps) != len(missImages) {
			return nil, 0, fmt.Errorf("predict returned %d results for %d images", len(tagMaps), len(missImages))
		}

		for j, i := range missIdx {
			preds[i].Tags = tagMaps[j]

			if p.cache != nil {
				entry := entries[i]
				if err := p.cache.Put(ctx, entry.Digest, entry.Path, p.opts.Threshold, p.opts.Limit, tagMaps[j]); err != nil {
					p.logger.Warn("failed to cache prediction", "path", entry.Path, "error", err)
				}
			}
		}
	}

	return preds, hits, nil
}
