package format

import (
	"context"
	"strings"

	"flowfmt/internal/ast"
	"flowfmt/internal/token"
)

// inlineCommentSep separates code from a trailing comment.
const inlineCommentSep = "  "

func (f *formatter) printFile(ctx context.Context) error {
	for i, n := range f.tree.Nodes {
		if i > 0 && n.BlankBefore {
			f.w.Blank()
		}
		switch {
		case n.Block != nil:
			if err := f.printBlock(ctx, n.Block); err != nil {
				return err
			}
		case n.Host != nil:
			if err := f.printHostNode(ctx, n.Host); err != nil {
				return err
			}
		}
	}
	return nil
}

func (f *formatter) printHostNode(ctx context.Context, r *ast.HostRegion) error {
	lines, err := f.hostText(ctx, r, r.Depth)
	if err != nil {
		return err
	}
	f.writeHostLines(lines, r.Depth)
	return nil
}

func (f *formatter) printBlock(ctx context.Context, b *ast.Block) error {
	f.w.SetIndent(b.Depth)
	for _, c := range b.Leading {
		f.w.WriteLine(c.Text)
	}

	if len(b.Sections) == 0 && len(b.Values) > 0 {
		f.printKeyed(b.Depth, b.Keyword, directiveKind(b.Keyword), b.Values, b.Inline)
		return nil
	}

	header := b.Keyword
	if b.Name != "" {
		header += " " + b.Name
	}
	header += ":"
	if b.Inline != nil {
		header += inlineCommentSep + b.Inline.Text
	}
	f.w.WriteLine(header)

	if b.Host != nil && len(b.Host.Lines) > 0 {
		lines, err := f.hostText(ctx, b.Host, b.Depth+1)
		if err != nil {
			return err
		}
		f.writeHostLines(lines, b.Depth+1)
	}

	for _, sec := range b.Sections {
		if sec.BlankBefore {
			f.w.Blank()
		}
		if err := f.printSection(ctx, sec); err != nil {
			return err
		}
	}

	if len(b.Trailing) > 0 {
		f.w.SetIndent(b.Depth + 1)
		for _, c := range b.Trailing {
			f.w.WriteLine(c.Text)
		}
	}
	return nil
}

func (f *formatter) printSection(ctx context.Context, sec *ast.Section) error {
	f.w.SetIndent(sec.Depth)
	for _, c := range sec.Leading {
		f.w.WriteLine(c.Text)
	}

	if sec.Kind == ast.ContentHost {
		header := sec.Key + ":"
		if sec.Inline != nil {
			header += inlineCommentSep + sec.Inline.Text
		}
		f.w.WriteLine(header)
		if sec.Host == nil || len(sec.Host.Lines) == 0 {
			return nil
		}
		lines, err := f.hostText(ctx, sec.Host, sec.Depth+1)
		if err != nil {
			return err
		}
		f.writeHostLines(lines, sec.Depth+1)
		return nil
	}

	f.printKeyed(sec.Depth, sec.Key, sec.Kind, sec.Values, sec.Inline)
	return nil
}

// printKeyed lays out 'key: value(s)'. A lone single-line value stays on the
// key line when it fits the budget; everything else breaks the key onto its
// own line with one value per line, trailing commas on list content.
func (f *formatter) printKeyed(depth int, key string, kind ast.ContentKind, values []ast.Expr, inline *ast.Comment) {
	f.w.SetIndent(depth)

	if len(values) == 0 {
		header := key + ":"
		if inline != nil {
			header += inlineCommentSep + inline.Text
		}
		f.w.WriteLine(header)
		return
	}

	if candidate, ok := inlineCandidate(key, values, inline); ok {
		if depth*f.opt.IndentWidth+lineWidth(candidate) <= f.opt.LineLength {
			f.w.WriteLine(candidate)
			return
		}
	}

	header := key + ":"
	if inline != nil {
		header += inlineCommentSep + inline.Text
	}
	f.w.WriteLine(header)

	f.w.SetIndent(depth + 1)
	suffix := ""
	if kind == ast.ContentExprList {
		suffix = ","
	}
	for _, v := range values {
		f.writeValue(v, suffix)
	}
	f.w.SetIndent(depth)
}

// inlineCandidate builds the one-line rendering of 'key: v1, v2' when the
// values permit it: no header comment, no standalone or interior-newline
// values, and at most a trailing comment on the final value.
func inlineCandidate(key string, values []ast.Expr, inline *ast.Comment) (string, bool) {
	if inline != nil {
		return "", false
	}
	texts := make([]string, 0, len(values))
	for i, v := range values {
		if v.Text == "" || strings.Contains(v.Text, "\n") {
			return "", false
		}
		if v.Comment != "" && i != len(values)-1 {
			return "", false
		}
		texts = append(texts, v.Text)
	}
	candidate := key + ": " + strings.Join(texts, ", ")
	if last := values[len(values)-1]; last.Comment != "" {
		candidate += inlineCommentSep + last.Comment
	}
	return candidate, true
}

// writeValue emits one value line (or multi-line value with its interior
// layout intact) plus the list suffix and trailing comment.
func (f *formatter) writeValue(v ast.Expr, suffix string) {
	if v.Text == "" {
		if v.Comment != "" {
			f.w.WriteLine(v.Comment)
		}
		return
	}
	parts := strings.Split(v.Text, "\n")
	for i, part := range parts {
		if i == 0 {
			f.w.WriteString(part)
			continue
		}
		f.w.Newline()
		f.w.WriteRaw(part)
	}
	f.w.WriteRaw(suffix)
	if v.Comment != "" {
		f.w.WriteRaw(inlineCommentSep + v.Comment)
	}
	f.w.Newline()
}

func (f *formatter) writeHostLines(lines []string, depth int) {
	f.w.SetIndent(depth)
	for _, l := range lines {
		if strings.TrimSpace(l) == "" {
			f.w.WriteLine("")
			continue
		}
		f.w.WriteLine(l)
	}
}

func directiveKind(key string) ast.ContentKind {
	if token.KeyTakesList(key) {
		return ast.ContentExprList
	}
	return ast.ContentSingle
}
