package report

import (
	"encoding/json"
	"io"

	"github.com/pictag/autotagger/internal/model"
)

// JSONWriter outputs predictions as JSON, one object per line.
// This format is designed for tool integration: each line is a
// complete document, so consumers can process output as it streams.
//
// Grouped mode emits {"filename": ..., "tags": {tag: score, ...}} per
// image; flattened mode emits {"filename": ..., "tag": ..., "score":
// ...} per (image, tag) pair. Tag order is the model's order in both.
type JSONWriter struct {
	baseWriter
}

// NewJSONWriter creates a JSONWriter that outputs to the given writer.
func NewJSONWriter(output io.Writer, opts ...Option) *JSONWriter {
	return &JSONWriter{
		baseWriter: newBaseWriter(output, opts...),
	}
}

// flatRecord is the flattened-mode line shape.
type flatRecord struct {
	Filename string  `json:"filename"`
	Tag      string  `json:"tag"`
	Score    float64 `json:"score"`
}

// WriteBatch renders one batch as JSON lines.
func (w *JSONWriter) WriteBatch(preds []model.Prediction) (int, error) {
	cw := &countingWriter{w: w.output}
	enc := json.NewEncoder(cw)

	for _, pred := range preds {
		name := w.displayName(pred.Filename)

		if !w.flatten {
			if err := enc.Encode(model.Prediction{Filename: name, Tags: pred.Tags}); err != nil {
				return cw.n, err
			}
			continue
		}

		for _, tag := range pred.Tags {
			if err := enc.Encode(flatRecord{Filename: name, Tag: tag.Name, Score: tag.Score}); err != nil {
				return cw.n, err
			}
		}
	}

	return cw.n, nil
}
