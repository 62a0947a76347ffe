package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/pictag/autotagger/internal/cache"
	"github.com/pictag/autotagger/internal/collector"
	"github.com/pictag/autotagger/internal/config"
	"github.com/pictag/autotagger/internal/loader"
	"github.com/pictag/autotagger/internal/log"
	"github.com/pictag/autotagger/internal/pipeline"
	"github.com/pictag/autotagger/internal/report"
	"github.com/pictag/autotagger/internal/tagger"
)

// NewTagCmd creates the tag command.
func NewTagCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tag [files...]",
		Short: "Tag image files with the model",
		Long: `Tag runs every given image through the tagging model and prints one
prediction per image.

Inputs may be files, directories (expanded recursively to every file
inside), or "-" for an image on standard input. A newline-delimited
list of paths can be supplied with --input-file. Files that cannot be
read or decoded are skipped with a warning; the run continues.

Examples:
  # Tag a single image
  autotagger tag photo.jpg

  # Tag every file under a directory, CSV output
  autotagger tag --csv photos/

  # Tag a list of paths, one record per (image, tag) pair
  autotagger tag -i paths.txt --flatten-tags

  # Read the image itself from standard input
  cat photo.jpg | autotagger tag -

  # Cache predictions so unchanged files are not re-tagged
  autotagger tag --cache photos/

Defaults can be set in a .autotagger YAML file in the current or home
directory (threshold, limit, batch, model, cache); explicit flags win.`,
		Args: cobra.ArbitraryArgs,
		RunE: runTagCmd,
	}

	// Filter flags
	cmd.Flags().Float64P("threshold", "t", config.DefaultThreshold,
		"Minimum confidence for a tag to be included")
	cmd.Flags().IntP("limit", "n", config.DefaultLimit,
		"Maximum number of tags per image")

	// Input flags
	cmd.Flags().StringP("input-file", "i", "",
		"Newline-delimited file of paths to tag (\"-\" reads the list from stdin)")
	cmd.Flags().IntP("batch", "b", config.DefaultBatchSize,
		"Number of images per inference call")
	cmd.Flags().StringP("model", "m", config.DefaultModelPath,
		"Path to the ONNX model file")

	// Output shape flags
	cmd.Flags().BoolP("csv", "c", false,
		"Output CSV instead of JSON (mutually exclusive with --markdown)")
	cmd.Flags().Bool("markdown", false,
		"Output Markdown tables instead of JSON (mutually exclusive with --csv)")
	cmd.Flags().BoolP("group-tags", "g", false,
		"One record per image with all its tags (default)")
	cmd.Flags().BoolP("flatten-tags", "f", false,
		"One record per (image, tag) pair")
	cmd.Flags().BoolP("name-only", "N", false,
		"Display filenames without directory or extension")
	cmd.Flags().StringP("output", "o", "",
		"Write output to specified file path (creates directories if needed)")

	// Cache and configuration
	cmd.Flags().Bool("cache", false,
		"Cache predictions in the XDG cache directory")
	cmd.Flags().String("config", "",
		"Configuration file path (default: .autotagger in current or home directory)")

	cmd.MarkFlagsMutuallyExclusive("group-tags", "flatten-tags")

	return cmd
}

// runTagCmd executes the tag command.
func runTagCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildTagConfig(cmd, args)
	if err != nil {
		return err
	}

	// No input at all is not an error: print usage and exit zero, the
	// way the original tool behaved.
	if !cfg.HasInput() {
		return cmd.Help()
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	// Explicit positional paths and the list file itself must exist
	// before any work starts. Paths found by directory expansion or
	// inside the input file are handled at load time instead.
	if err := collector.ValidateExplicit(cfg.Targets); err != nil {
		return err
	}
	if err := collector.ValidateListFile(cfg.InputFile); err != nil {
		return err
	}

	logger, tally := log.NewLogger(cmd.ErrOrStderr(), cfg.Verbose)
	slog.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	return runTag(ctx, cmd, cfg, logger, tally)
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// buildTagConfig creates a Config from cobra command flags.
// Precedence: built-in defaults < configuration file < explicit flags.
func buildTagConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()

	var err error
	cfg.ConfigFilePath, err = cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	// If the user explicitly specified a config file path, error if not
	// found. Otherwise a missing defaults file is fine.
	explicitConfigPath := cfg.ConfigFilePath != ""
	configPath := config.FindConfigFile(cfg.ConfigFilePath)
	if configPath != "" {
		cf, err := config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
		cf.Apply(cfg)
	} else if explicitConfigPath {
		return nil, fmt.Errorf("%w: %s", config.ErrConfigNotFound, cfg.ConfigFilePath)
	}

	// Flags with a config-file counterpart only override when set.
	if cmd.Flags().Changed("threshold") {
		if cfg.Threshold, err = cmd.Flags().GetFloat64("threshold"); err != nil {
			return nil, err
		}
	}
	if cmd.Flags().Changed("limit") {
		if cfg.Limit, err = cmd.Flags().GetInt("limit"); err != nil {
			return nil, err
		}
	}
	if cmd.Flags().Changed("batch") {
		if cfg.BatchSize, err = cmd.Flags().GetInt("batch"); err != nil {
			return nil, err
		}
	}
	if cmd.Flags().Changed("model") {
		if cfg.ModelPath, err = cmd.Flags().GetString("model"); err != nil {
			return nil, err
		}
	}
	if cmd.Flags().Changed("cache") {
		if cfg.UseCache, err = cmd.Flags().GetBool("cache"); err != nil {
			return nil, err
		}
	}

	if cfg.CSV, err = cmd.Flags().GetBool("csv"); err != nil {
		return nil, err
	}
	if cfg.Markdown, err = cmd.Flags().GetBool("markdown"); err != nil {
		return nil, err
	}
	if cfg.Flatten, err = cmd.Flags().GetBool("flatten-tags"); err != nil {
		return nil, err
	}
	if cfg.NameOnly, err = cmd.Flags().GetBool("name-only"); err != nil {
		return nil, err
	}
	if cfg.InputFile, err = cmd.Flags().GetString("input-file"); err != nil {
		return nil, err
	}
	if cfg.OutputFile, err = cmd.Flags().GetString("output"); err != nil {
		return nil, err
	}

	cfg.Verbose = getVerboseFlag(cmd)
	cfg.Targets = args

	return cfg, nil
}

// runTag wires the collector, loader, model, and writer together and
// executes the run.
func runTag(ctx context.Context, cmd *cobra.Command, cfg *config.Config, logger *slog.Logger, tally *log.TallyHandler) error {
	output, closeOutput, err := openOutput(cmd, cfg.OutputFile)
	if err != nil {
		return err
	}
	defer closeOutput()

	writer := newWriter(output, cfg)

	predictor, err := tagger.New(cfg.ModelPath)
	if err != nil {
		return fmt.Errorf("failed to load model: %w", err)
	}
	defer func() {
		if err := predictor.Close(); err != nil {
			logger.Error("failed to release model", "error", err)
		}
	}()

	ld := loader.New(
		loader.WithLogger(logger),
		loader.WithStdin(cmd.InOrStdin()),
	)

	pipelineOpts := []pipeline.Option{pipeline.WithLogger(logger)}
	if cfg.UseCache {
		store, err := cache.Open(cfg.CacheDir, cache.DefaultOptions())
		if err != nil {
			return fmt.Errorf("failed to open prediction cache: %w", err)
		}
		defer func() {
			if err := store.Close(); err != nil {
				logger.Error("failed to close prediction cache", "error", err)
			}
		}()
		logger.Info("prediction cache enabled", "dir", cfg.CacheDir)
		pipelineOpts = append(pipelineOpts, pipeline.WithCache(store))
	}

	opts := tagger.Options{
		Threshold: cfg.Threshold,
		Limit:     cfg.Limit,
		BatchSize: cfg.BatchSize,
	}
	p := pipeline.New(opts, predictor, ld, writer, pipelineOpts...)

	paths := collector.Paths(cfg.Targets, cfg.InputFile, cmd.InOrStdin(), logger)
	stats, err := p.Run(ctx, paths)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return errors.New("interrupted")
		}
		return err
	}

	logger.Info("run complete",
		"tagged", stats.Tagged,
		"batches", stats.Batches,
		"cacheHits", stats.CacheHits,
	)
	if skipped := tally.Warnings(); skipped > 0 {
		fmt.Fprintf(cmd.ErrOrStderr(), "skipped %d file(s), see warnings above\n", skipped)
	}

	return nil
}

// openOutput returns the output writer for the run: stdout by default,
// or the --output file with parent directories created.
func openOutput(cmd *cobra.Command, path string) (io.Writer, func(), error) {
	if path == "" {
		return cmd.OutOrStdout(), func() {}, nil
	}

	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	f, err := os.Create(path) //nolint:gosec // User-provided output path is intentional
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return f, func() { _ = f.Close() }, nil
}

// newWriter selects the output format from the config.
func newWriter(output io.Writer, cfg *config.Config) report.Writer {
	var opts []report.Option
	if cfg.Flatten {
		opts = append(opts, report.WithFlatten())
	}
	if cfg.NameOnly {
		opts = append(opts, report.WithNameOnly())
	}

	switch {
	case cfg.CSV:
		return report.NewCSVWriter(output, opts...)
	case cfg.Markdown:
		return report.NewMarkdownWriter(output, opts...)
	default:
		return report.NewJSONWriter(output, opts...)
	}
}
