// Package diagfmt renders collected diagnostics for terminal output.
package diagfmt

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"flowfmt/internal/diag"
	"flowfmt/internal/source"
)

var (
	errorColor   = color.New(color.FgRed, color.Bold)
	warningColor = color.New(color.FgYellow, color.Bold)
	infoColor    = color.New(color.FgCyan, color.Bold)
	posColor     = color.New(color.Bold)
	noteColor    = color.New(color.FgBlue)
)

// Pretty writes every diagnostic in bag, resolved against sf, as
//
//	<path>:<line>:<col>: <SEV> [<CODE>]: <message>
//	    <source line>
//	    ^~~~
//
// followed by its notes. Expects bag.Sort() to have run already.
func Pretty(w io.Writer, bag *diag.Bag, sf *source.File, opts PrettyOpts) {
	for _, d := range bag.Items() {
		writeDiagnostic(w, d, sf, opts)
	}
}

func writeDiagnostic(w io.Writer, d diag.Diagnostic, sf *source.File, opts PrettyOpts) {
	lc := sf.PosToLineCol(d.Primary.Start)
	pos := fmt.Sprintf("%s:%d:%d", sf.Path, lc.Line, lc.Col)
	sev := d.Severity.String()
	code := d.Code.ID()
	if opts.Color {
		pos = posColor.Sprint(pos)
		sev = severityColor(d.Severity).Sprint(sev)
		code = severityColor(d.Severity).Sprint(code)
	}
	fmt.Fprintf(w, "%s: %s [%s]: %s\n", pos, sev, code, d.Message)
	writeContext(w, sf, d.Primary, lc, opts)

	for _, n := range d.Notes {
		nlc := sf.PosToLineCol(n.Span.Start)
		label := "note"
		if opts.Color {
			label = noteColor.Sprint(label)
		}
		fmt.Fprintf(w, "%s:%d:%d: %s: %s\n", sf.Path, nlc.Line, nlc.Col, label, n.Msg)
	}
}

// writeContext prints the offending source line and a caret marker under the
// span. Spans reaching past the line end are clipped to it.
func writeContext(w io.Writer, sf *source.File, sp source.Span, lc source.LineCol, opts PrettyOpts) {
	text := sf.LineContent(lc.Line)
	if text == "" && sp.Empty() {
		return
	}
	fmt.Fprintf(w, "    %s\n", text)

	col := int(lc.Col) - 1
	if col > len(text) {
		col = len(text)
	}
	pad := runewidth.StringWidth(text[:col])
	width := int(sp.Len())
	if col+width > len(text) {
		width = len(text) - col
	}
	marker := "^"
	if tail := runewidth.StringWidth(clipString(text[col:], width)) - 1; tail > 0 {
		marker += strings.Repeat("~", tail)
	}
	if opts.Color {
		marker = severityColor(diag.SevError).Sprint(marker)
	}
	fmt.Fprintf(w, "    %s%s\n", strings.Repeat(" ", pad), marker)
}

func clipString(s string, n int) string {
	if n > len(s) {
		n = len(s)
	}
	return s[:n]
}

func severityColor(s diag.Severity) *color.Color {
	switch s {
	case diag.SevError:
		return errorColor
	case diag.SevWarning:
		return warningColor
	}
	return infoColor
}
