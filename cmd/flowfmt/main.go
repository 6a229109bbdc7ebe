package main

import (
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"flowfmt/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "flowfmt [flags] <path> [path...]",
	Short: "Format workflow definition files",
	Long: `flowfmt formats workflow files (*.flow, Flowfile): it normalizes block
layout, indentation and value lists, and delegates embedded host code to an
external code formatter when one is configured.

With no flags, files are rewritten in place. Pass "-" to read from stdin
and write to stdout.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runFormat,
}

func main() {
	rootCmd.Version = version.Version

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(cleanCmd)

	rootCmd.PersistentFlags().String("color", "auto", "colorize output (auto|on|off)")
	rootCmd.PersistentFlags().Bool("quiet", false, "suppress non-essential output")
	rootCmd.PersistentFlags().String("config", "", "path to flowfmt.toml (default: discovered upward from cwd)")
	rootCmd.PersistentFlags().Int("max-diagnostics", 100, "maximum number of diagnostics to show per file")
	rootCmd.PersistentFlags().Bool("timings", false, "show timing information")
	rootCmd.PersistentFlags().String("cpuprofile", "", "write a CPU profile to the given path")
	rootCmd.PersistentFlags().String("memprofile", "", "write a heap profile to the given path")

	rootCmd.PersistentPreRunE = startProfiling
	rootCmd.PersistentPostRunE = stopProfiling

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
