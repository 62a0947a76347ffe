package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/pictag/autotagger/internal/config"
	"github.com/pictag/autotagger/internal/log"
	"github.com/pictag/autotagger/internal/server"
	"github.com/pictag/autotagger/internal/tagger"
)

// NewServeCmd creates the serve command.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the tagger over HTTP",
		Long: `Serve starts an HTTP server with an upload form at / and an evaluate
endpoint at /evaluate.

POST /evaluate accepts multipart "file" fields plus optional threshold,
limit, and format (html or json) values, and responds with per-image
predictions.

Examples:
  # Serve on the default port
  autotagger serve

  # Serve on a different address with a custom model
  autotagger serve -a :8080 -m models/custom.onnx`,
		Args: cobra.NoArgs,
		RunE: runServeCmd,
	}

	cmd.Flags().StringP("model", "m", config.DefaultModelPath,
		"Path to the ONNX model file")
	cmd.Flags().StringP("addr", "a", config.DefaultServeAddr,
		"Listen address")

	return cmd
}

// runServeCmd executes the serve command.
func runServeCmd(cmd *cobra.Command, _ []string) error {
	modelPath, err := cmd.Flags().GetString("model")
	if err != nil {
		return err
	}
	addr, err := cmd.Flags().GetString("addr")
	if err != nil {
		return err
	}

	if _, err := os.Stat(modelPath); err != nil {
		return fmt.Errorf("%w: %s", config.ErrModelNotFound, modelPath)
	}

	// JSON logs: serve mode output is meant for aggregation, not a tty.
	logger, _ := log.NewJSONLogger(cmd.ErrOrStderr(), getVerboseFlag(cmd))
	slog.SetDefault(logger)

	predictor, err := tagger.New(modelPath)
	if err != nil {
		return fmt.Errorf("failed to load model: %w", err)
	}
	defer func() {
		if err := predictor.Close(); err != nil {
			logger.Error("failed to release model", "error", err)
		}
	}()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	fmt.Fprintf(cmd.OutOrStdout(), "Serving on %s (Ctrl+C to stop)\n", addr)

	srv := server.New(addr, predictor, server.WithLogger(logger))
	return srv.ListenAndServe(ctx)
}
