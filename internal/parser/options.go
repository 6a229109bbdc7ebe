package parser

import (
	"flowfmt/internal/diag"
	"flowfmt/internal/source"
)

// Options configures a parse. A nil Reporter silently drops diagnostics; the
// parser keeps building a best-effort tree either way so callers can still
// inspect what was recognized.
type Options struct {
	Reporter diag.Reporter
	// MaxErrors stops error reporting after this many; zero means unlimited.
	MaxErrors uint
}

func (p *parser) errSyn(code diag.Code, sp source.Span, msg string) {
	if p.opts.MaxErrors > 0 && p.errs >= p.opts.MaxErrors {
		return
	}
	p.errs++
	diag.ReportError(p.opts.Reporter, code, sp, msg)
}

func (p *parser) warnSyn(code diag.Code, sp source.Span, msg string) {
	if p.opts.Reporter == nil {
		return
	}
	p.opts.Reporter.Report(code, diag.SevWarning, sp, msg, nil)
}
