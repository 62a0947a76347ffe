package collector

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"os"
	"strings"

	"github.com/karrick/godirwalk"
)

// Stdin is the path sentinel for standard input.
const Stdin = "-"

// errStop signals that the consumer stopped iterating. It never
// escapes this package.
var errStop = errors.New("collector: iteration stopped")

// Paths returns a lazy, single-pass sequence of candidate file paths.
//
// When inputFile is non-empty it is read line by line instead of using
// targets; inputFile may itself be "-" to read the list from stdin.
// Otherwise each target is emitted directly (files and the stdin
// sentinel) or expanded recursively (directories).
//
// Paths found by expansion or list reading are not validated here;
// unreadable entries are the loader's problem. Traversal errors are
// logged as warnings and the offending subtree is skipped.
func Paths(targets []string, inputFile string, stdin io.Reader, logger *slog.Logger) iter.Seq[string] {
	if logger == nil {
		logger = slog.Default()
	}

	if inputFile != "" {
		return fromList(inputFile, stdin, logger)
	}
	return fromTargets(targets, logger)
}

// fromList yields non-blank lines of a newline-delimited path list.
func fromList(inputFile string, stdin io.Reader, logger *slog.Logger) iter.Seq[string] {
	return func(yield func(string) bool) {
		var r io.Reader
		if inputFile == Stdin {
			r = stdin
		} else {
			f, err := os.Open(inputFile)
			if err != nil {
				logger.Warn("cannot open input file", "path", inputFile, "error", err)
				return
			}
			defer f.Close()
			r = f
		}

		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				continue
			}
			if !yield(line) {
				return
			}
		}
		if err := scanner.Err(); err != nil {
			logger.Warn("error reading input file", "path", inputFile, "error", err)
		}
	}
}

// fromTargets yields explicit paths, expanding directories recursively.
func fromTargets(targets []string, logger *slog.Logger) iter.Seq[string] {
	return func(yield func(string) bool) {
		for _, target := range targets {
			if target == Stdin {
				if !yield(target) {
					return
				}
				continue
			}

			info, err := os.Stat(target)
			if err != nil {
				logger.Warn("skipping unreadable path", "path", target, "error", err)
				continue
			}

			if !info.IsDir() {
				if !yield(target) {
					return
				}
				continue
			}

			if !walkDir(target, logger, yield) {
				return
			}
		}
	}
}

// walkDir expands a directory to all non-directory descendants in
// lexical order. It returns false when the consumer stopped iterating.
func walkDir(root string, logger *slog.Logger, yield func(string) bool) bool {
	err := godirwalk.Walk(root, &godirwalk.Options{
		Callback: func(path string, de *godirwalk.Dirent) error {
			if de.IsDir() {
				return nil
			}
			if !yield(path) {
				return errStop
			}
			return nil
		},
		ErrorCallback: func(path string, err error) godirwalk.ErrorAction {
			logger.Warn("skipping unreadable path", "path", path, "error", err)
			return godirwalk.SkipNode
		},
	})

	if errors.Is(err, errStop) {
		return false
	}
	if err != nil {
		logger.Warn("directory walk failed", "path", root, "error", err)
	}
	return true
}

// ValidateListFile checks that the path-list file exists before the run
// starts. A missing or unreadable list is a configuration error and
// must fail the run; only entries inside the list are deferred to the
// loader's warn-and-skip handling. The stdin sentinel is exempt.
func ValidateListFile(inputFile string) error {
	if inputFile == "" || inputFile == Stdin {
		return nil
	}
	if _, err := os.Stat(inputFile); err != nil {
		return fmt.Errorf("input file: %w", err)
	}
	return nil
}

// ValidateExplicit checks that every explicit target exists, mirroring
// the original CLI framework which rejected nonexistent positional
// arguments before the program ran. The stdin sentinel is exempt.
// Directory and list entries are deliberately not validated; the
// loader logs and skips those at open time.
func ValidateExplicit(targets []string) error {
	for _, target := range targets {
		if target == Stdin {
			continue
		}
		if _, err := os.Stat(target); err != nil {
			return err
		}
	}
	return nil
}
