package report

import (
	"io"
	"strconv"
	"strings"

	"github.com/nao1215/markdown"

	"github.com/pictag/autotagger/internal/model"
)

// MarkdownWriter outputs predictions as Markdown tables, one table per
// batch. This format is designed for documentation and sharing and
// stands in for the HTML view of the original web service.
//
// Design decision: We use the nao1215/markdown library for fluent
// markdown generation which provides type-safe tables instead of
// hand-concatenated pipes.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given
// writer.
func NewMarkdownWriter(output io.Writer, opts ...Option) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output, opts...),
	}
}

// WriteBatch renders one batch as a Markdown table.
func (w *MarkdownWriter) WriteBatch(preds []model.Prediction) (int, error) {
	if len(preds) == 0 {
		return 0, nil
	}

	cw := &countingWriter{w: w.output}
	md := markdown.NewMarkdown(cw)

	if w.flatten {
		rows := make([][]string, 0, len(preds))
		for _, pred := range preds {
			name := w.displayName(pred.Filename)
			for _, tag := range pred.Tags {
				rows = append(rows, []string{
					name,
					tag.Name,
					strconv.FormatFloat(tag.Score, 'g', -1, 64),
				})
			}
		}
		md.Table(markdown.TableSet{
			Header: []string{"Filename", "Tag", "Score"},
			Rows:   rows,
		})
	} else {
		rows := make([][]string, 0, len(preds))
		for _, pred := range preds {
			rows = append(rows, []string{
				w.displayName(pred.Filename),
				strings.Join(pred.Tags.SortedDisplayNames(), ", "),
			})
		}
		md.Table(markdown.TableSet{
			Header: []string{"Filename", "Tags"},
			Rows:   rows,
		})
	}

	return cw.n, md.Build()
}
