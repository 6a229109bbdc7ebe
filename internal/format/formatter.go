// Package format turns a parsed block tree back into canonical source text.
// DSL structure is laid out by fixed rules; embedded host-language regions
// are delegated to the configured engine and re-indented into place.
package format

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"flowfmt/internal/ast"
	"flowfmt/internal/diag"
	"flowfmt/internal/engine"
	"flowfmt/internal/source"
)

// FormatError reports that a host-language region could not be formatted.
// Formatting is all-or-nothing: the caller gets no partial output.
type FormatError struct {
	Span source.Span
	Err  error
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("formatting host code at %s: %v", e.Span, e.Err)
}

func (e *FormatError) Unwrap() error {
	return e.Err
}

// FormatFile prints the tree under the layout rules and returns the final
// text, terminated by exactly one newline.
func FormatFile(ctx context.Context, sf *source.File, tree *ast.File, opt Options) ([]byte, error) {
	opt = opt.withDefaults()
	f := &formatter{sf: sf, tree: tree, opt: opt, w: NewWriter(opt)}
	if err := f.printFile(ctx); err != nil {
		return nil, err
	}
	if !f.w.Empty() {
		f.w.Newline()
	}
	return f.w.Bytes(), nil
}

type formatter struct {
	sf   *source.File
	tree *ast.File
	opt  Options
	w    *Writer
}

// hostText runs a region through the engine and returns the formatted lines,
// de-indented to column zero. depth is the nesting level the result will be
// re-indented to; it shrinks the engine's line budget accordingly.
func (f *formatter) hostText(ctx context.Context, r *ast.HostRegion, depth int) ([]string, error) {
	snippet, _ := deindent(r.Lines)
	snippet, guards := applyGuards(snippet, f.opt.IndentWidth)

	budget := f.opt.LineLength - depth*f.opt.IndentWidth
	if budget < 1 {
		budget = 1
	}

	out, err := f.opt.Engine.FormatSnippet(ctx, snippet+"\n", budget)
	if err != nil {
		return nil, f.hostError(r, err)
	}
	lines := trimBlankEdges(splitLines(out))
	lines = stripGuards(lines, guards)
	return lines, nil
}

func (f *formatter) hostError(r *ast.HostRegion, err error) error {
	if cerr := contextError(err); cerr != nil {
		return cerr
	}
	var se *engine.SyntaxError
	switch {
	case errors.As(err, &se):
		msg := se.Msg
		if se.Line > 0 {
			msg = fmt.Sprintf("%s (snippet line %d)", se.Msg, se.Line)
		}
		diag.ReportError(f.opt.Reporter, diag.FmtHostSyntax, r.Span, msg)
	case errors.Is(err, engine.ErrUnavailable):
		diag.ReportError(f.opt.Reporter, diag.FmtEngineUnavailable, r.Span, err.Error())
	default:
		diag.ReportError(f.opt.Reporter, diag.FmtHostSyntax, r.Span, err.Error())
	}
	return &FormatError{Span: r.Span, Err: err}
}

func contextError(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return nil
}

// guardState records the scaffolding wrapped around a snippet so the engine
// sees complete host syntax. A region can end on a colon line because its
// body is a nested DSL block, and it can start mid-statement ('else:',
// 'except:') because the first branch held nested blocks too.
type guardState struct {
	head bool // prepended "if True:/try:" + placeholder body
	tail bool // appended placeholder body
}

const guardLine = "pass"

func applyGuards(snippet string, indentWidth int) (string, guardState) {
	var g guardState
	lines := strings.Split(snippet, "\n")

	first := firstNonBlank(lines)
	switch leadingWord(first) {
	case "else", "elif":
		snippet = "if True:\n" + indentOf(indentWidth) + guardLine + "\n" + snippet
		g.head = true
	case "except", "finally":
		snippet = "try:\n" + indentOf(indentWidth) + guardLine + "\n" + snippet
		g.head = true
	}

	lastRaw := lastNonBlank(lines)
	last := strings.TrimSpace(lastRaw)
	if strings.HasSuffix(last, ":") && !strings.HasPrefix(last, "#") {
		snippet += "\n" + indentOf(indentWidth+indentLen(lastRaw)) + guardLine
		g.tail = true
	}
	return snippet, g
}

func stripGuards(lines []string, g guardState) []string {
	if g.head {
		for i, l := range lines {
			if strings.TrimSpace(l) == guardLine {
				lines = lines[i+1:]
				break
			}
		}
	}
	if g.tail {
		for i := len(lines) - 1; i >= 0; i-- {
			if strings.TrimSpace(lines[i]) == "" {
				continue
			}
			if strings.TrimSpace(lines[i]) == guardLine {
				lines = lines[:i]
			}
			break
		}
	}
	return trimBlankEdges(lines)
}

func firstNonBlank(lines []string) string {
	for _, l := range lines {
		if strings.TrimSpace(l) != "" {
			return strings.TrimSpace(l)
		}
	}
	return ""
}

// lastNonBlank returns the last non-blank line with its indentation intact.
// A logical line may span physical lines; only the final one matters here.
func lastNonBlank(lines []string) string {
	for i := len(lines) - 1; i >= 0; i-- {
		if strings.TrimSpace(lines[i]) != "" {
			l := lines[i]
			if j := strings.LastIndexByte(l, '\n'); j >= 0 {
				l = l[j+1:]
			}
			return l
		}
	}
	return ""
}

func leadingWord(s string) string {
	i := 0
	for i < len(s) {
		b := s[i]
		if b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (i > 0 && b >= '0' && b <= '9') {
			i++
			continue
		}
		break
	}
	return s[:i]
}

func indentOf(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.Repeat(" ", n)
}
