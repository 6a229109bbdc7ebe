// Package driver assembles the formatting pipeline and applies it to files:
// scan, parse, format, then write back, check, print or diff depending on
// the requested mode. Directory arguments are walked in parallel.
package driver

import (
	"context"
	"errors"
	"fmt"

	"fortio.org/safecast"

	"flowfmt/internal/config"
	"flowfmt/internal/diag"
	"flowfmt/internal/engine"
	"flowfmt/internal/format"
	"flowfmt/internal/observ"
	"flowfmt/internal/parser"
	"flowfmt/internal/scanner"
	"flowfmt/internal/source"
)

// Mode selects what FormatPaths does with formatted output.
type Mode uint8

const (
	// ModeWrite rewrites changed files in place.
	ModeWrite Mode = iota
	// ModeCheck reports whether files would change without touching them.
	ModeCheck
	// ModeStdout returns formatted content in the results.
	ModeStdout
	// ModeDiff returns a textual diff in the results.
	ModeDiff
)

// Options configures a driver run.
type Options struct {
	Mode   Mode
	Config config.Config
	// Engine overrides the engine built from Config when non-nil.
	Engine engine.Formatter
	// MaxDiagnostics caps per-file diagnostics; zero means the default.
	MaxDiagnostics int
	// Jobs caps parallelism; zero means GOMAXPROCS.
	Jobs int
	// Cache short-circuits already-formatted files. Nil disables caching.
	Cache *DiskCache
	// OnResult observes per-file completion; done counts finished files.
	// Called from worker goroutines, one call at a time.
	OnResult func(res Result, done, total int)
	// Timer, when non-nil, records run stage durations.
	Timer *observ.Timer
}

// Result captures the outcome for a single file.
type Result struct {
	Path      string
	Changed   bool
	FromCache bool
	// Formatted is populated in ModeStdout.
	Formatted []byte
	// Diff is populated in ModeDiff for changed files.
	Diff string
	Bag  *diag.Bag
	Err  error
}

// ErrNoFiles is returned when the arguments matched no source files.
var ErrNoFiles = errors.New("no source files found")

const defaultMaxDiagnostics = 256

func (o Options) maxDiagnostics() int {
	if o.MaxDiagnostics <= 0 {
		return defaultMaxDiagnostics
	}
	return o.MaxDiagnostics
}

// buildEngine constructs the host-language engine for a run.
func buildEngine(o Options) engine.Formatter {
	if o.Engine != nil {
		return o.Engine
	}
	ec := o.Config.Engine
	if ec.Command == "" {
		return engine.Nop{}
	}
	ex := engine.NewExec(ec.Command, ec.Args...)
	if ec.LineLengthFlag != "" {
		ex.LineLengthFlag = ec.LineLengthFlag
	}
	return ex
}

// FormatSource runs the full pipeline over one in-memory source. The
// returned bag holds every diagnostic; a non-nil error means no output was
// produced.
func FormatSource(ctx context.Context, name string, src []byte, opt Options) ([]byte, *diag.Bag, error) {
	bag := diag.NewBag(opt.maxDiagnostics())
	rep := &diag.BagReporter{Bag: bag}

	fs := source.NewFileSet()
	sf := fs.Get(fs.AddVirtual(name, src))

	sc := scanner.New(sf, scanner.Options{Reporter: rep})
	toks := sc.ScanAll()

	maxErrors, convErr := safecast.Conv[uint](bag.Cap())
	if convErr != nil {
		maxErrors = 0
	}
	tree := parser.Parse(sf, toks, parser.Options{Reporter: rep, MaxErrors: maxErrors})
	if bag.HasErrors() {
		return nil, bag, fmt.Errorf("%s: syntax errors present", name)
	}

	out, err := format.FormatFile(ctx, sf, tree, format.Options{
		LineLength:  opt.Config.Format.LineLength,
		IndentWidth: opt.Config.Format.IndentWidth,
		Engine:      buildEngine(opt),
		Reporter:    rep,
	})
	if err != nil {
		return nil, bag, err
	}
	return out, bag, nil
}
