package scanner

import (
	"flowfmt/internal/diag"
	"flowfmt/internal/source"
)

// Options configures a Scanner. A nil Reporter silently drops diagnostics;
// the scanner keeps going either way so the caller always gets a full token
// stream to inspect.
type Options struct {
	Reporter diag.Reporter
}

func (s *Scanner) errLex(code diag.Code, sp source.Span, msg string) {
	diag.ReportError(s.opts.Reporter, code, sp, msg)
}
