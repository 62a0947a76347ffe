package main

import (
	"fmt"
	"runtime/debug"

	"github.com/spf13/cobra"
)

// Build metadata, injected with -ldflags at release time. Local and
// `go install` builds leave these empty and fall back to the module
// build info embedded by the toolchain.
var (
	version = ""
	commit  = ""
	date    = ""
)

// buildInfo is the resolved release identity shown by the version
// command and attached to the root command's --version flag.
type buildInfo struct {
	Version string
	Commit  string
	Date    string
}

// resolveBuildInfo merges the ldflags values with runtime/debug build
// info, preferring ldflags, and substitutes placeholders for anything
// still unknown.
func resolveBuildInfo() buildInfo {
	info := buildInfo{Version: version, Commit: commit, Date: date}

	if bi, ok := debug.ReadBuildInfo(); ok {
		if info.Version == "" {
			info.Version = bi.Main.Version
		}
		for _, s := range bi.Settings {
			switch s.Key {
			case "vcs.revision":
				if info.Commit == "" {
					info.Commit = shortRevision(s.Value)
				}
			case "vcs.time":
				if info.Date == "" {
					info.Date = s.Value
				}
			}
		}
	}

	if info.Version == "" {
		info.Version = "(devel)"
	}
	if info.Commit == "" {
		info.Commit = "unknown"
	}
	if info.Date == "" {
		info.Date = "unknown"
	}
	return info
}

// shortRevision abbreviates a VCS revision to the usual seven hex
// digits.
func shortRevision(rev string) string {
	if len(rev) > 7 {
		return rev[:7]
	}
	return rev
}

// NewVersionCmd creates the version command.
func NewVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Long:  `Print the version, commit hash, and build date of autotagger.`,
		Run: func(cmd *cobra.Command, _ []string) {
			info := resolveBuildInfo()
			fmt.Fprintf(cmd.OutOrStdout(), "autotagger %s (commit %s, built %s)\n",
				info.Version, info.Commit, info.Date)
		},
	}
}
