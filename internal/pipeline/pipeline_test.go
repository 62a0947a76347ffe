package pipeline

import (
	"context"
	"errors"
	"fmt"
	"image"
	"reflect"
	"slices"
	"testing"

	"github.com/pictag/autotagger/internal/loader"
	"github.com/pictag/autotagger/internal/model"
	"github.com/pictag/autotagger/internal/tagger"
)

// stubLoader decodes nothing; every path not in the skip set becomes an
// entry with a placeholder image and a digest derived from the path.
type stubLoader struct {
	skip map[string]bool
}

func (s *stubLoader) LoadBatch(paths []string) []loader.Entry {
	entries := make([]loader.Entry, 0, len(paths))
	for _, path := range paths {
		if s.skip[path] {
			continue
		}
		entries = append(entries, loader.Entry{
			Path:   path,
			Image:  image.NewRGBA(image.Rect(0, 0, 1, 1)),
			Digest: "digest-" + path,
		})
	}
	return entries
}

// stubPredictor returns one tag per image naming its batch position.
type stubPredictor struct {
	calls   [][]int // lengths of each Predict call, for batching checks
	err     error
	counter int
}

func (s *stubPredictor) Predict(_ context.Context, images []image.Image, _ tagger.Options) ([]model.TagMap, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.calls = append(s.calls, []int{len(images)})
	out := make([]model.TagMap, len(images))
	for i := range images {
		out[i] = model.TagMap{{Name: fmt.Sprintf("tag%d", s.counter), Score: 0.9}}
		s.counter++
	}
	return out, nil
}

func (s *stubPredictor) Close() error { return nil }

// stubWriter records every batch it is handed.
type stubWriter struct {
	batches [][]model.Prediction
	err     error
}

func (s *stubWriter) WriteBatch(preds []model.Prediction) (int, error) {
	if s.err != nil {
		return 0, s.err
	}
	s.batches = append(s.batches, preds)
	return len(preds), nil
}

// stubCache is an in-memory Cache keyed like the real store.
type stubCache struct {
	entries map[string]model.TagMap
	putErr  error
	getErr  error
}

func newStubCache() *stubCache {
	return &stubCache{entries: make(map[string]model.TagMap)}
}

func (s *stubCache) key(digest string, threshold float64, limit int) string {
	return fmt.Sprintf("%s/%g/%d", digest, threshold, limit)
}

func (s *stubCache) Get(_ context.Context, digest string, threshold float64, limit int) (model.TagMap, bool, error) {
	if s.getErr != nil {
		return nil, false, s.getErr
	}
	tags, ok := s.entries[s.key(digest, threshold, limit)]
	return tags, ok, nil
}

func (s *stubCache) Put(_ context.Context, digest, _ string, threshold float64, limit int, tags model.TagMap) error {
	if s.putErr != nil {
		return s.putErr
	}
	s.entries[s.key(digest, threshold, limit)] = tags
	return nil
}

func testOptions() tagger.Options {
	return tagger.Options{Threshold: 0.01, Limit: 100, BatchSize: 2}
}

// TestPipelineRun tests the end-to-end batch loop.
func TestPipelineRun(t *testing.T) {
	t.Parallel()

	t.Run("preserves input order across batches", func(t *testing.T) {
		t.Parallel()

		ld := &stubLoader{}
		pred := &stubPredictor{}
		w := &stubWriter{}
		p := New(testOptions(), pred, ld, w)

		paths := []string{"a.jpg", "b.jpg", "c.jpg"}
		stats, err := p.Run(context.Background(), slices.Values(paths))
		if err != nil {
			t.Fatalf("run: %v", err)
		}

		if stats.Tagged != 3 || stats.Batches != 2 {
			t.Errorf("stats = %+v, want 3 tagged in 2 batches", stats)
		}

		var gotNames []string
		for _, batch := range w.batches {
			for _, pr := range batch {
				gotNames = append(gotNames, pr.Filename)
			}
		}
		if !reflect.DeepEqual(gotNames, paths) {
			t.Errorf("output order %v, want %v", gotNames, paths)
		}
	})

	t.Run("skipped files shrink the batch without stopping it", func(t *testing.T) {
		t.Parallel()

		ld := &stubLoader{skip: map[string]bool{"b.txt": true}}
		pred := &stubPredictor{}
		w := &stubWriter{}
		p := New(testOptions(), pred, ld, w)

		stats, err := p.Run(context.Background(), slices.Values([]string{"a.jpg", "b.txt", "c.jpg"}))
		if err != nil {
			t.Fatalf("run: %v", err)
		}
		if stats.Tagged != 2 {
			t.Errorf("tagged = %d, want 2", stats.Tagged)
		}

		for _, batch := range w.batches {
			for _, pr := range batch {
				if pr.Filename == "b.txt" {
					t.Error("skipped file appeared in output")
				}
			}
		}
	})

	t.Run("batch of only skipped files writes nothing", func(t *testing.T) {
		t.Parallel()

		ld := &stubLoader{skip: map[string]bool{"a.txt": true, "b.txt": true}}
		w := &stubWriter{}
		p := New(testOptions(), &stubPredictor{}, ld, w)

		stats, err := p.Run(context.Background(), slices.Values([]string{"a.txt", "b.txt"}))
		if err != nil {
			t.Fatalf("run: %v", err)
		}
		if stats.Batches != 0 || len(w.batches) != 0 {
			t.Errorf("expected no batches written, got %d", len(w.batches))
		}
	})

	t.Run("predictor error aborts the run", func(t *testing.T) {
		t.Parallel()

		wantErr := errors.New("model exploded")
		p := New(testOptions(), &stubPredictor{err: wantErr}, &stubLoader{}, &stubWriter{})

		_, err := p.Run(context.Background(), slices.Values([]string{"a.jpg"}))
		if !errors.Is(err, wantErr) {
			t.Errorf("got %v, want %v", err, wantErr)
		}
	})

	t.Run("writer error aborts the run", func(t *testing.T) {
		t.Parallel()

		wantErr := errors.New("disk full")
		p := New(testOptions(), &stubPredictor{}, &stubLoader{}, &stubWriter{err: wantErr})

		_, err := p.Run(context.Background(), slices.Values([]string{"a.jpg"}))
		if !errors.Is(err, wantErr) {
			t.Errorf("got %v, want %v", err, wantErr)
		}
	})

	t.Run("canceled context stops before the next batch", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		w := &stubWriter{}
		p := New(testOptions(), &stubPredictor{}, &stubLoader{}, w)

		_, err := p.Run(ctx, slices.Values([]string{"a.jpg"}))
		if !errors.Is(err, context.Canceled) {
			t.Errorf("got %v, want context.Canceled", err)
		}
		if len(w.batches) != 0 {
			t.Error("wrote a batch after cancellation")
		}
	})
}

// TestPipelineCache tests the cache interplay.
func TestPipelineCache(t *testing.T) {
	t.Parallel()

	t.Run("second run is served from the cache", func(t *testing.T) {
		t.Parallel()

		cache := newStubCache()
		paths := []string{"a.jpg", "b.jpg"}

		first := New(testOptions(), &stubPredictor{}, &stubLoader{}, &stubWriter{}, WithCache(cache))
		if _, err := first.Run(context.Background(), slices.Values(paths)); err != nil {
			t.Fatalf("first run: %v", err)
		}

		pred := &stubPredictor{}
		w := &stubWriter{}
		second := New(testOptions(), pred, &stubLoader{}, w, WithCache(cache))
		stats, err := second.Run(context.Background(), slices.Values(paths))
		if err != nil {
			t.Fatalf("second run: %v", err)
		}

		if stats.CacheHits != 2 {
			t.Errorf("cache hits = %d, want 2", stats.CacheHits)
		}
		if len(pred.calls) != 0 {
			t.Errorf("predictor ran %d times, want 0", len(pred.calls))
		}
		if len(w.batches) != 1 || len(w.batches[0]) != 2 {
			t.Fatalf("unexpected output shape: %v", w.batches)
		}
	})

	t.Run("mixed batch predicts only the misses in order", func(t *testing.T) {
		t.Parallel()

		cache := newStubCache()
		opts := testOptions()
		cached := model.TagMap{{Name: "cached", Score: 1}}
		if err := cache.Put(context.Background(), "digest-b.jpg", "b.jpg", opts.Threshold, opts.Limit, cached); err != nil {
			t.Fatal(err)
		}

		pred := &stubPredictor{}
		w := &stubWriter{}
		p := New(opts, pred, &stubLoader{}, w, WithCache(cache))

		stats, err := p.Run(context.Background(), slices.Values([]string{"a.jpg", "b.jpg"}))
		if err != nil {
			t.Fatalf("run: %v", err)
		}
		if stats.CacheHits != 1 {
			t.Errorf("cache hits = %d, want 1", stats.CacheHits)
		}

		batch := w.batches[0]
		if batch[0].Filename != "a.jpg" || batch[1].Filename != "b.jpg" {
			t.Fatalf("output order broken: %v", batch)
		}
		if !reflect.DeepEqual(batch[1].Tags, cached) {
			t.Errorf("cached tags not used: %v", batch[1].Tags)
		}
		if batch[0].Tags[0].Name != "tag0" {
			t.Errorf("predicted tags misplaced: %v", batch[0].Tags)
		}
	})

	t.Run("cache write failure is not fatal", func(t *testing.T) {
		t.Parallel()

		cache := newStubCache()
		cache.putErr = errors.New("readonly filesystem")

		p := New(testOptions(), &stubPredictor{}, &stubLoader{}, &stubWriter{}, WithCache(cache))
		stats, err := p.Run(context.Background(), slices.Values([]string{"a.jpg"}))
		if err != nil {
			t.Fatalf("run: %v", err)
		}
		if stats.Tagged != 1 {
			t.Errorf("tagged = %d, want 1", stats.Tagged)
		}
	})

	t.Run("cache read failure aborts the run", func(t *testing.T) {
		t.Parallel()

		cache := newStubCache()
		cache.getErr = errors.New("corrupt database")

		p := New(testOptions(), &stubPredictor{}, &stubLoader{}, &stubWriter{}, WithCache(cache))
		if _, err := p.Run(context.Background(), slices.Values([]string{"a.jpg"})); err == nil {
			t.Error("expected error from cache read failure")
		}
	})
}
