package config

import "errors"

// Configuration validation errors.
// These errors are returned by Config.Validate() and provide specific
// information about what is wrong with the configuration.
//
// Design decision: We use package-level sentinel errors rather than
// creating new error instances in Validate(). This allows callers to
// use errors.Is() for programmatic error handling while still providing
// human-readable messages.
var (
	// ErrInvalidThreshold is returned when the confidence threshold is
	// outside the [0, 1] range the model produces scores in.
	ErrInvalidThreshold = errors.New("invalid threshold: must be between 0 and 1")

	// ErrInvalidLimit is returned when the per-image tag limit is not
	// positive. A limit of zero would suppress all output.
	ErrInvalidLimit = errors.New("invalid limit: must be positive")

	// ErrInvalidBatchSize is returned when the batch size is not
	// positive. A batch size of zero would mean no images are ever
	// sent to the model.
	ErrInvalidBatchSize = errors.New("invalid batch size: must be positive")

	// ErrConflictingFormats is returned when both --csv and --markdown
	// are specified. Only one output format can be used at a time.
	ErrConflictingFormats = errors.New("conflicting output formats: --csv and --markdown cannot be used together")

	// ErrModelNotFound is returned when the model file does not exist.
	// The model path is validated before any image is processed.
	ErrModelNotFound = errors.New("model file not found")
)
