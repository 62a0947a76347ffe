// Package main provides the entry point for the autotagger CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for autotagger.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "autotagger",
		Short: "Tag images with a pre-trained deep learning model",
		Long: `Autotagger labels images with a pre-trained tagging model.

It accepts files, directories (expanded recursively), newline-delimited
file lists, and standard input, batches the images, and prints one
prediction per image as JSON, CSV, or Markdown.`,
		Version:       resolveBuildInfo().Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	// Add subcommands
	cmd.AddCommand(NewTagCmd())
	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
