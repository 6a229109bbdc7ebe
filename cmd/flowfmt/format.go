package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"flowfmt/internal/config"
	"flowfmt/internal/diagfmt"
	"flowfmt/internal/driver"
	"flowfmt/internal/observ"
	"flowfmt/internal/source"
)

func init() {
	rootCmd.Flags().Bool("check", false, "report files that would change without rewriting them")
	rootCmd.Flags().Bool("diff", false, "print a diff of the changes instead of rewriting files")
	rootCmd.Flags().Bool("stdout", false, "print formatted output to stdout instead of rewriting files")
	rootCmd.Flags().Int("line-length", 0, "maximum line length (overrides flowfmt.toml)")
	rootCmd.Flags().Int("indent-width", 0, "indentation width (overrides flowfmt.toml)")
	rootCmd.Flags().String("engine", "", "host code formatter command (overrides flowfmt.toml)")
	rootCmd.Flags().Bool("no-cache", false, "disable the formatting result cache")
	rootCmd.Flags().Int("jobs", 0, "number of files formatted concurrently (default: GOMAXPROCS)")
	rootCmd.Flags().Bool("progress", false, "show interactive progress (default: on for terminals)")
	rootCmd.Flags().String("format", "text", "result output format (text|json)")
}

func runFormat(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true

	opt, err := buildDriverOptions(cmd)
	if err != nil {
		return err
	}
	quiet, err := cmd.Root().PersistentFlags().GetBool("quiet")
	if err != nil {
		return err
	}
	useColor, err := resolveColor(cmd)
	if err != nil {
		return err
	}
	color.NoColor = !useColor

	if len(args) == 1 && args[0] == "-" {
		return formatStdin(cmd, opt, useColor)
	}

	timings, err := cmd.Root().PersistentFlags().GetBool("timings")
	if err != nil {
		return err
	}
	if timings {
		opt.Timer = observ.NewTimer()
		defer func() { fmt.Fprint(os.Stderr, opt.Timer.Summary()) }()
	}

	outputFormat, err := cmd.Flags().GetString("format")
	if err != nil {
		return err
	}
	if outputFormat != "text" && outputFormat != "json" {
		return fmt.Errorf("unsupported output format %q (must be text or json)", outputFormat)
	}

	results, err := runDriver(cmd, args, opt, quiet)
	if err != nil {
		return err
	}

	var hasErrors, hasChanges bool
	for _, res := range results {
		if res.Changed {
			hasChanges = true
		}
		if res.Err != nil {
			hasErrors = true
		}
		if outputFormat == "text" {
			renderResult(res, opt.Mode, quiet, useColor)
		}
	}
	if outputFormat == "json" {
		if err := renderResultsJSON(results); err != nil {
			return err
		}
	}

	if hasErrors {
		return fmt.Errorf("failed to format some files")
	}
	if opt.Mode == driver.ModeCheck && hasChanges {
		return fmt.Errorf("formatting changes required")
	}
	return nil
}

func renderResultsJSON(results []driver.Result) error {
	type jsonResult struct {
		Path    string `json:"path"`
		Changed bool   `json:"changed"`
		Cached  bool   `json:"cached"`
		Error   string `json:"error,omitempty"`
	}

	payload := make([]jsonResult, 0, len(results))
	for _, res := range results {
		jr := jsonResult{Path: res.Path, Changed: res.Changed, Cached: res.FromCache}
		if res.Err != nil {
			jr.Error = res.Err.Error()
		}
		payload = append(payload, jr)
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(payload)
}

// buildDriverOptions resolves configuration, flag overrides and the run mode.
func buildDriverOptions(cmd *cobra.Command) (driver.Options, error) {
	var opt driver.Options

	configPath, err := cmd.Root().PersistentFlags().GetString("config")
	if err != nil {
		return opt, err
	}
	cfg, err := loadConfig(configPath)
	if err != nil {
		return opt, err
	}

	if n, ferr := cmd.Flags().GetInt("line-length"); ferr != nil {
		return opt, ferr
	} else if n > 0 {
		cfg.Format.LineLength = n
	}
	if n, ferr := cmd.Flags().GetInt("indent-width"); ferr != nil {
		return opt, ferr
	} else if n > 0 {
		cfg.Format.IndentWidth = n
	}
	if engineCmd, ferr := cmd.Flags().GetString("engine"); ferr != nil {
		return opt, ferr
	} else if engineCmd != "" {
		cfg.Engine.Command = engineCmd
	}
	opt.Config = cfg

	mode, err := resolveMode(cmd)
	if err != nil {
		return opt, err
	}
	opt.Mode = mode

	if opt.MaxDiagnostics, err = cmd.Root().PersistentFlags().GetInt("max-diagnostics"); err != nil {
		return opt, err
	}
	if opt.Jobs, err = cmd.Flags().GetInt("jobs"); err != nil {
		return opt, err
	}

	noCache, err := cmd.Flags().GetBool("no-cache")
	if err != nil {
		return opt, err
	}
	if !noCache && !cfg.Cache.Disable {
		cache, cerr := driver.OpenDiskCache(cfg.Cache.Dir)
		if cerr == nil {
			opt.Cache = cache
		}
	}
	return opt, nil
}

func loadConfig(path string) (config.Config, error) {
	if path != "" {
		return config.Load(path)
	}
	cwd, err := os.Getwd()
	if err != nil {
		return config.Default(), nil
	}
	return config.Discover(cwd)
}

func resolveMode(cmd *cobra.Command) (driver.Mode, error) {
	check, err := cmd.Flags().GetBool("check")
	if err != nil {
		return 0, err
	}
	diff, err := cmd.Flags().GetBool("diff")
	if err != nil {
		return 0, err
	}
	stdout, err := cmd.Flags().GetBool("stdout")
	if err != nil {
		return 0, err
	}

	set := 0
	for _, b := range []bool{check, diff, stdout} {
		if b {
			set++
		}
	}
	if set > 1 {
		return 0, fmt.Errorf("--check, --diff and --stdout are mutually exclusive")
	}
	switch {
	case check:
		return driver.ModeCheck, nil
	case diff:
		return driver.ModeDiff, nil
	case stdout:
		return driver.ModeStdout, nil
	}
	return driver.ModeWrite, nil
}

func resolveColor(cmd *cobra.Command) (bool, error) {
	mode, err := cmd.Root().PersistentFlags().GetString("color")
	if err != nil {
		return false, err
	}
	switch mode {
	case "on":
		return true, nil
	case "off":
		return false, nil
	case "auto":
		return isTerminal(os.Stderr), nil
	}
	return false, fmt.Errorf("unsupported color mode %q (must be auto, on or off)", mode)
}

// formatStdin reads one source from stdin and writes the result to stdout.
// Check mode exits non-zero when the input is not already formatted.
func formatStdin(cmd *cobra.Command, opt driver.Options, useColor bool) error {
	src, err := io.ReadAll(os.Stdin)
	if err != nil {
		return err
	}

	out, bag, err := driver.FormatSource(cmd.Context(), "<stdin>", src, opt)
	if bag != nil && bag.Len() > 0 {
		bag.Sort()
		fs := source.NewFileSet()
		sf := fs.Get(fs.AddVirtual("<stdin>", src))
		diagfmt.Pretty(os.Stderr, bag, sf, diagfmt.PrettyOpts{Color: useColor})
	}
	if err != nil {
		return err
	}

	switch opt.Mode {
	case driver.ModeCheck:
		if string(out) != string(src) {
			return fmt.Errorf("formatting changes required")
		}
		return nil
	default:
		_, werr := os.Stdout.Write(out)
		return werr
	}
}

// renderResult prints the per-file outcome for one result. Diagnostics are
// rendered against the file on disk, so they are skipped for files already
// rewritten in place (spans would no longer line up).
func renderResult(res driver.Result, mode driver.Mode, quiet, useColor bool) {
	rewritten := mode == driver.ModeWrite && res.Err == nil && res.Changed
	if !rewritten && res.Bag != nil && res.Bag.Len() > 0 {
		res.Bag.Sort()
		fs := source.NewFileSet()
		if _, err := fs.Load(res.Path); err == nil {
			sf, _ := fs.GetByPath(res.Path)
			diagfmt.Pretty(os.Stderr, res.Bag, sf, diagfmt.PrettyOpts{Color: useColor})
		}
	}
	if res.Err != nil {
		fmt.Fprintf(os.Stderr, "flowfmt: %s: %v\n", res.Path, res.Err)
		return
	}

	switch mode {
	case driver.ModeStdout:
		_, _ = os.Stdout.Write(res.Formatted)
	case driver.ModeDiff:
		if res.Diff != "" {
			fmt.Fprint(os.Stdout, colorizeDiff(res.Diff, useColor))
		}
	case driver.ModeCheck:
		if res.Changed && !quiet {
			fmt.Fprintln(os.Stdout, res.Path)
		}
	case driver.ModeWrite:
		if res.Changed && !quiet {
			fmt.Fprintf(os.Stdout, "reformatted %s\n", res.Path)
		}
	}
}

// colorizeDiff styles added and removed lines for terminal output.
func colorizeDiff(diff string, useColor bool) string {
	if !useColor {
		return diff
	}
	added := color.New(color.FgGreen)
	removed := color.New(color.FgRed)

	lines := strings.Split(strings.TrimSuffix(diff, "\n"), "\n")
	for i, line := range lines {
		switch {
		case strings.HasPrefix(line, "+"):
			lines[i] = added.Sprint(line)
		case strings.HasPrefix(line, "-"):
			lines[i] = removed.Sprint(line)
		}
	}
	return strings.Join(lines, "\n") + "\n"
}
