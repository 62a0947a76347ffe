// Package main provides the entry point for the autotagger CLI.
//
// Autotagger labels images with a pre-trained tagging model and prints
// per-image tag/score results as JSON, CSV, or Markdown.
//
// Usage:
//
//	autotagger tag photo.jpg
//	autotagger tag --csv images/
//	autotagger serve
//
// See --help for all available options.
package main

// main is the entry point for autotagger.
func main() {
	Execute()
}
