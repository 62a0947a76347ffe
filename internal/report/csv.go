package report

import (
	"encoding/csv"
	"io"
	"strconv"
	"strings"

	"github.com/pictag/autotagger/internal/model"
)

// CSVWriter outputs predictions as comma-separated records.
//
// Grouped mode emits one record per image with all tag names joined in
// a single quoted field, sorted alphabetically and with underscores
// rendered as spaces. Flattened mode emits filename,tag,score per
// (image, tag) pair in the model's order, tag names untouched.
type CSVWriter struct {
	baseWriter
}

// NewCSVWriter creates a CSVWriter that outputs to the given writer.
func NewCSVWriter(output io.Writer, opts ...Option) *CSVWriter {
	return &CSVWriter{
		baseWriter: newBaseWriter(output, opts...),
	}
}

// WriteBatch renders one batch as CSV records.
func (w *CSVWriter) WriteBatch(preds []model.Prediction) (int, error) {
	cw := &countingWriter{w: w.output}
	records := csv.NewWriter(cw)

	for _, pred := range preds {
		name := w.displayName(pred.Filename)

		if !w.flatten {
			joined := strings.Join(pred.Tags.SortedDisplayNames(), ", ")
			if err := records.Write([]string{name, joined}); err != nil {
				return cw.n, err
			}
			continue
		}

		for _, tag := range pred.Tags {
			score := strconv.FormatFloat(tag.Score, 'g', -1, 64)
			if err := records.Write([]string{name, tag.Name, score}); err != nil {
				return cw.n, err
			}
		}
	}

	records.Flush()
	return cw.n, records.Error()
}
