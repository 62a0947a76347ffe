package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
)

// Default configuration values. These match the defaults of the
// original autotagger CLI where applicable.
const (
	// DefaultThreshold is the minimum confidence for a tag to be
	// included in output. 0.01 is intentionally permissive; the model
	// rarely produces meaningful tags below it, and users tighten it
	// via --threshold for curated output.
	DefaultThreshold = 0.01

	// DefaultLimit is the maximum number of tags returned per image.
	DefaultLimit = 100

	// DefaultBatchSize is the number of images sent to the model in one
	// inference call. 100 balances throughput against memory: the whole
	// batch of decoded images is resident while the model runs.
	DefaultBatchSize = 100

	// DefaultModelPath is where the pre-trained ONNX model is expected
	// when --model is not given.
	DefaultModelPath = "models/model.onnx"

	// DefaultServeAddr is the listen address for serve mode. Port 5000
	// matches the original web service.
	DefaultServeAddr = ":5000"

	// AppName is the application name used for XDG directory paths.
	AppName = "autotagger"
)

// Config holds all configuration options for an autotagger run.
//
// Design decision: We use a single flat struct instead of nested
// structs (e.g., TagConfig, OutputConfig) for simplicity. The number of
// options is manageable, and nesting would add complexity without
// significant benefit.
type Config struct {
	// Threshold is the minimum tag confidence to include, in [0, 1].
	// Applied by the model implementation, not re-validated downstream.
	Threshold float64

	// Limit is the maximum number of tags returned per image.
	Limit int

	// BatchSize is the number of images processed per inference call.
	// The final batch of a run may be smaller.
	BatchSize int

	// ModelPath is the path to the pre-trained model file. It must
	// exist; Validate checks this before any processing begins.
	ModelPath string

	// CSV emits CSV output instead of JSON.
	// Mutually exclusive with Markdown.
	CSV bool

	// Markdown emits Markdown tables instead of JSON.
	// Mutually exclusive with CSV.
	Markdown bool

	// Flatten emits one record per (image, tag) pair instead of one
	// record per image.
	Flatten bool

	// NameOnly strips directory and extension from displayed filenames.
	NameOnly bool

	// InputFile is a newline-delimited file of paths to process instead
	// of positional arguments. "-" reads the list from standard input.
	InputFile string

	// OutputFile is the output destination. When empty, results go to
	// stdout. Parent directories are created as needed.
	OutputFile string

	// UseCache enables the SQLite prediction cache.
	UseCache bool

	// CacheDir is the directory holding the cache database.
	// Defaults to the XDG cache directory.
	CacheDir string

	// ConfigFilePath is an explicit defaults-file path. If empty, the
	// tool searches for .autotagger in the current directory and then
	// in the user's home directory.
	ConfigFilePath string

	// Verbose enables detailed log output using slog.LevelDebug.
	// When false, only warnings and errors are logged.
	Verbose bool

	// ServeAddr is the listen address for serve mode.
	ServeAddr string

	// Targets is the list of paths given as positional arguments.
	// Entries may be files, directories, or "-" for standard input.
	Targets []string
}

// NewConfig creates a Config with default values.
//
// Design decision: We use a constructor function instead of relying on
// zero values because most defaults are non-zero. This also serves as
// documentation of what the defaults are.
func NewConfig() *Config {
	return &Config{
		Threshold: DefaultThreshold,
		Limit:     DefaultLimit,
		BatchSize: DefaultBatchSize,
		ModelPath: DefaultModelPath,
		CacheDir:  XDGCacheDir(),
		ServeAddr: DefaultServeAddr,
	}
}

// XDGCacheDir returns the XDG cache directory for autotagger.
// On Linux: ~/.cache/autotagger
// On macOS: ~/Library/Caches/autotagger
// On Windows: %LOCALAPPDATA%\autotagger\cache
func XDGCacheDir() string {
	return filepath.Join(xdg.CacheHome, AppName)
}

// HasInput reports whether the run has any input source at all.
// When false, the CLI prints usage help and exits successfully.
func (c *Config) HasInput() bool {
	return len(c.Targets) > 0 || c.InputFile != ""
}

// Validate checks if the configuration is valid, returning a specific
// error describing the first problem found.
//
// Design decision: We validate once after flag parsing rather than at
// each point of use to fail fast with a clear message before any image
// is touched. The model path existence check lives here because the
// original tool validated it before execution as well.
func (c *Config) Validate() error {
	if c.Threshold < 0 || c.Threshold > 1 {
		return ErrInvalidThreshold
	}

	if c.Limit <= 0 {
		return ErrInvalidLimit
	}

	if c.BatchSize <= 0 {
		return ErrInvalidBatchSize
	}

	if c.CSV && c.Markdown {
		return ErrConflictingFormats
	}

	if _, err := os.Stat(c.ModelPath); err != nil {
		return fmt.Errorf("%w: %s", ErrModelNotFound, c.ModelPath)
	}

	return nil
}
