package tagger

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"os"
	"sort"
	"sync"

	"github.com/disintegration/imaging"
	ort "github.com/yalue/onnxruntime_go"

	"github.com/pictag/autotagger/internal/model"
)

// DefaultEdgeSize is the input edge length most published tagger
// models expect.
const DefaultEdgeSize = 448

// SharedLibraryEnv names the environment variable pointing at the ONNX
// Runtime shared library when it is not on the default search path.
const SharedLibraryEnv = "ONNXRUNTIME_SHARED_LIBRARY_PATH"

// The ONNX Runtime environment is process-global and may only be
// initialized once, even when several sessions are created.
var (
	ortOnce sync.Once
	ortErr  error
)

func initRuntime() error {
	ortOnce.Do(func() {
		if path := os.Getenv(SharedLibraryEnv); path != "" {
			ort.SetSharedLibraryPath(path)
		}
		ortErr = ort.InitializeEnvironment()
	})
	return ortErr
}

// Autotagger is the ONNX Runtime implementation of Predictor. It is
// constructed from a model file path with a sibling label CSV and runs
// the model with dynamic batch dimensions.
type Autotagger struct {
	session *ort.DynamicAdvancedSession

	// labels maps output indices to tag names, in model output order.
	labels []string

	// edge is the square input size images are letterboxed to.
	edge int

	inputName  string
	outputName string
}

// AutotaggerOption configures an Autotagger.
type AutotaggerOption func(*Autotagger)

// WithEdgeSize overrides the model input edge length.
func WithEdgeSize(edge int) AutotaggerOption {
	return func(a *Autotagger) {
		if edge > 0 {
			a.edge = edge
		}
	}
}

// WithTensorNames overrides the model's input and output tensor names.
// Defaults are "input" and "output".
func WithTensorNames(input, output string) AutotaggerOption {
	return func(a *Autotagger) {
		a.inputName = input
		a.outputName = output
	}
}

// New creates an Autotagger from a model file path. The path must
// exist and a label CSV must be found next to it.
func New(modelPath string, opts ...AutotaggerOption) (*Autotagger, error) {
	if _, err := os.Stat(modelPath); err != nil {
		return nil, fmt.Errorf("model file: %w", err)
	}

	labelPath, err := findLabelFile(modelPath)
	if err != nil {
		return nil, err
	}
	labels, err := loadLabels(labelPath)
	if err != nil {
		return nil, err
	}

	if err := initRuntime(); err != nil {
		return nil, fmt.Errorf("initialize onnxruntime: %w", err)
	}

	a := &Autotagger{
		labels:     labels,
		edge:       DefaultEdgeSize,
		inputName:  "input",
		outputName: "output",
	}
	for _, opt := range opts {
		opt(a)
	}

	session, err := ort.NewDynamicAdvancedSession(
		modelPath,
		[]string{a.inputName},
		[]string{a.outputName},
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("load model %s: %w", modelPath, err)
	}
	a.session = session

	return a, nil
}

// Predict runs the model over images and returns one TagMap per input,
// in input order. Threshold and limit from opts are applied here;
// callers receive final, filtered results.
func (a *Autotagger) Predict(ctx context.Context, images []image.Image, opts Options) ([]model.TagMap, error) {
	if opts.BatchSize <= 0 {
		opts.BatchSize = len(images)
	}

	results := make([]model.TagMap, 0, len(images))
	for start := 0; start < len(images); start += opts.BatchSize {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		end := start + opts.BatchSize
		if end > len(images) {
			end = len(images)
		}

		scores, err := a.run(images[start:end])
		if err != nil {
			return nil, err
		}

		for i := range end - start {
			perImage := scores[i*len(a.labels) : (i+1)*len(a.labels)]
			results = append(results, selectTags(perImage, a.labels, opts.Threshold, opts.Limit))
		}
	}

	return results, nil
}

// run executes one model invocation over a batch of images and returns
// the flat [n * len(labels)] score tensor data.
func (a *Autotagger) run(images []image.Image) ([]float32, error) {
	n := len(images)
	if n == 0 {
		return nil, nil
	}

	data := make([]float32, n*a.edge*a.edge*3)
	for i, img := range images {
		fillTensor(data[i*a.edge*a.edge*3:], preprocess(img, a.edge))
	}

	input, err := ort.NewTensor(ort.NewShape(int64(n), int64(a.edge), int64(a.edge), 3), data)
	if err != nil {
		return nil, fmt.Errorf("create input tensor: %w", err)
	}
	defer input.Destroy()

	output, err := ort.NewEmptyTensor[float32](ort.NewShape(int64(n), int64(len(a.labels))))
	if err != nil {
		return nil, fmt.Errorf("create output tensor: %w", err)
	}
	defer output.Destroy()

	if err := a.session.Run([]ort.Value{input}, []ort.Value{output}); err != nil {
		return nil, fmt.Errorf("inference failed: %w", err)
	}

	// The tensor's backing slice is freed with the tensor; copy out.
	scores := make([]float32, n*len(a.labels))
	copy(scores, output.GetData())
	return scores, nil
}

// Close releases the ONNX session.
func (a *Autotagger) Close() error {
	if a.session == nil {
		return nil
	}
	err := a.session.Destroy()
	a.session = nil
	return err
}

// preprocess letterboxes an image onto a white square canvas of the
// model's edge size. White matches the background the original model
// was trained with and flattens any alpha channel.
func preprocess(img image.Image, edge int) *image.NRGBA {
	fitted := imaging.Fit(img, edge, edge, imaging.Lanczos)
	canvas := imaging.New(edge, edge, color.White)
	return imaging.OverlayCenter(canvas, fitted, 1.0)
}

// fillTensor writes an edge×edge NRGBA image into dst as NHWC RGB
// float32 scaled to [0, 1].
func fillTensor(dst []float32, img *image.NRGBA) {
	bounds := img.Bounds()
	i := 0
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		row := img.Pix[(y-bounds.Min.Y)*img.Stride:]
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			p := (x - bounds.Min.X) * 4
			dst[i] = float32(row[p]) / 255
			dst[i+1] = float32(row[p+1]) / 255
			dst[i+2] = float32(row[p+2]) / 255
			i += 3
		}
	}
}

// selectTags filters one image's scores by threshold, orders them by
// descending score, and truncates to limit.
func selectTags(scores []float32, labels []string, threshold float64, limit int) model.TagMap {
	tags := model.TagMap{}
	for i, score := range scores {
		if float64(score) >= threshold {
			tags = append(tags, model.TagScore{Name: labels[i], Score: float64(score)})
		}
	}

	// Stable so equal scores keep label order.
	sort.SliceStable(tags, func(i, j int) bool {
		return tags[i].Score > tags[j].Score
	})

	if limit > 0 && len(tags) > limit {
		tags = tags[:limit]
	}
	return tags
}
