// Package parser builds the block tree from the scanner's token stream.
//
// The parser owns the context-sensitive half of classification. The scanner
// tags lines by shape only; here the surrounding structure decides what a
// line actually is: a keyword-shaped line inside a 'run' body is host code,
// a parameter key at the top level is either a directive or an error, and a
// block keyword nested under a host conditional opens a real nested block.
//
// The machine keeps a stack of open blocks keyed by indentation level, at
// most one active value context (the section or directive currently
// collecting its content) and at most one active standalone host region.
// Comments and blank lines buffer as pending trivia until the next
// significant token decides whether they join a host region or attach as
// leading trivia of the next element.
package parser

import (
	"bytes"
	"strings"

	"flowfmt/internal/ast"
	"flowfmt/internal/diag"
	"flowfmt/internal/scanner"
	"flowfmt/internal/source"
	"flowfmt/internal/token"
)

// Parse builds the block tree for one scanned file. It never fails hard:
// grammar violations are reported through opts.Reporter and the tree keeps
// the offending text so output stays total.
func Parse(file *source.File, toks []token.Token, opts Options) *ast.File {
	p := &parser{
		file: file,
		toks: toks,
		opts: opts,
		out:  &ast.File{},
	}
	p.run()
	return p.out
}

// ParseSource scans and parses in one step.
func ParseSource(file *source.File, opts Options) *ast.File {
	sc := scanner.New(file, scanner.Options{Reporter: opts.Reporter})
	return Parse(file, sc.ScanAll(), opts)
}

type parser struct {
	file *source.File
	toks []token.Token
	i    int
	opts Options
	errs uint

	out   *ast.File
	level int
	open  []openBlock
	val   *valueCtx
	host  *ast.HostRegion
	pend  []trivia
}

type openBlock struct {
	block *ast.Block
	depth int
	// width is the header's indent in columns, for trailing-comment
	// ownership at end of file.
	width int
}

// valueCtx is the element currently collecting its content: a section, a
// directive, or a lifecycle hook with a direct code body. Exactly one of
// section/dir/hook is set.
type valueCtx struct {
	section *ast.Section
	dir     *ast.Block
	hook    *ast.Block
	kind    ast.ContentKind
	depth   int // indentation level of the key line
	// parts holds raw value text: the inline rest of the key line, then one
	// entry per continuation line, joined and split at close.
	parts  []string
	region *ast.HostRegion // ContentHost only
}

func (v *valueCtx) cover(sp source.Span) {
	switch {
	case v.section != nil:
		v.section.Span = v.section.Span.Cover(sp)
	case v.dir != nil:
		v.dir.Span = v.dir.Span.Cover(sp)
	case v.hook != nil:
		v.hook.Span = v.hook.Span.Cover(sp)
	}
}

// trivia is a buffered comment or blank run awaiting an owner.
type trivia struct {
	comment *ast.Comment
	blanks  int
}

func (p *parser) run() {
	for {
		t := p.next()
		switch t.Kind {
		case token.Indent:
			p.level++
		case token.Dedent:
			p.level--
		case token.Blank:
			p.pend = append(p.pend, trivia{blanks: t.Count})
		case token.Comment:
			c := ast.Comment{Text: t.Text, Span: t.Span, Width: t.Width}
			p.pend = append(p.pend, trivia{comment: &c})
		case token.HostLine:
			p.hostLine(t)
		case token.KwBlock, token.KwHook:
			p.blockHeader(t)
		case token.Key:
			p.keyHeader(t)
		case token.EOF:
			p.closeAll()
			return
		default:
			// Name/Colon/Expr/InlineComment are consumed by the header
			// handlers; a loose one is a scanner bug and is skipped.
		}
	}
}

func (p *parser) next() token.Token {
	if p.i >= len(p.toks) {
		return token.Token{Kind: token.EOF}
	}
	t := p.toks[p.i]
	p.i++
	return t
}

func (p *parser) peekKind() token.Kind {
	if p.i >= len(p.toks) {
		return token.EOF
	}
	return p.toks[p.i].Kind
}

// headerGroup is the token run following a keyword on its header line.
type headerGroup struct {
	name   *token.Token
	colon  *token.Token
	exprs  []token.Token
	inline *token.Token
	last   token.Token
}

// group consumes the header tokens queued after kw on the same line.
func (p *parser) group(kw token.Token) headerGroup {
	g := headerGroup{last: kw}
	for {
		switch p.peekKind() {
		case token.Name:
			t := p.next()
			g.name = &t
			g.last = t
		case token.Colon:
			t := p.next()
			g.colon = &t
			g.last = t
		case token.Expr:
			t := p.next()
			g.exprs = append(g.exprs, t)
			g.last = t
		case token.InlineComment:
			t := p.next()
			g.inline = &t
			g.last = t
		default:
			return g
		}
	}
}

// rawLine reconstructs the verbatim source line(s) covered by a header
// group, from the start of the keyword's physical line through the last
// group token. Used when a keyword-shaped line turns out to be host code.
func (p *parser) rawLine(first token.Token, last token.Token) string {
	start := int(first.Span.Start)
	if start > len(p.file.Content) {
		start = len(p.file.Content)
	}
	ls := bytes.LastIndexByte(p.file.Content[:start], '\n') + 1
	end := int(last.Span.End)
	if end > len(p.file.Content) {
		end = len(p.file.Content)
	}
	if end < ls {
		end = ls
	}
	return string(p.file.Content[ls:end])
}

// rawSlice returns the verbatim source between two offsets.
func (p *parser) rawSlice(start, end uint32) string {
	s, e := int(start), int(end)
	if e > len(p.file.Content) {
		e = len(p.file.Content)
	}
	if s > e {
		s = e
	}
	return string(p.file.Content[s:e])
}

// ---- trivia ----

// takeLeading consumes pending trivia as leading attachments of the next
// element: comments in order, plus whether any blank separated it from the
// previous element.
func (p *parser) takeLeading() ([]ast.Comment, bool) {
	var comments []ast.Comment
	blank := false
	for _, tr := range p.pend {
		if tr.comment != nil {
			comments = append(comments, *tr.comment)
		} else if tr.blanks > 0 {
			blank = true
		}
	}
	p.pend = p.pend[:0]
	return comments, blank
}

// flushTriviaIntoRegion replays pending comments and blank runs as verbatim
// lines of a host region. Called when the next line continues the region,
// so the trivia belongs inside the host code.
func (p *parser) flushTriviaIntoRegion(r *ast.HostRegion) {
	for _, tr := range p.pend {
		if tr.comment != nil {
			p.appendRegionLine(r, indentSpaces(tr.comment.Width)+tr.comment.Text, tr.comment.Width, tr.comment.Span)
		} else {
			for n := 0; n < tr.blanks; n++ {
				r.Lines = append(r.Lines, "")
			}
		}
	}
	p.pend = p.pend[:0]
}

// flushTriviaIntoParts replays pending comments as value-region lines; the
// list splitter turns them into standalone comment entries. Blank lines
// inside a value region carry no meaning and are dropped.
func (p *parser) flushTriviaIntoParts(v *valueCtx) {
	for _, tr := range p.pend {
		if tr.comment != nil {
			v.parts = append(v.parts, tr.comment.Text)
		}
	}
	p.pend = p.pend[:0]
}

func (p *parser) appendRegionLine(r *ast.HostRegion, line string, width int, sp source.Span) {
	if len(r.Lines) == 0 {
		r.BaseWidth = width
		r.Span = sp
	} else {
		r.Span = r.Span.Cover(sp)
	}
	r.Lines = append(r.Lines, line)
}

func indentSpaces(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.Repeat(" ", n)
}

// ---- closing ----

func (p *parser) closeVal() {
	v := p.val
	if v == nil {
		return
	}
	p.val = nil

	if v.kind == ast.ContentHost {
		if v.hook != nil {
			v.hook.Host = v.region
			return
		}
		if len(v.region.Lines) == 0 {
			p.warnSyn(diag.SynEmptyBlock, v.section.Span, "'"+v.section.Key+"' has an empty body")
		}
		v.section.Host = v.region
		return
	}

	joined := strings.Join(v.parts, "\n")
	items := scanner.SplitList(joined)
	values := make([]ast.Expr, 0, len(items))
	for _, it := range items {
		values = append(values, ast.Expr{Text: it.Text, Comment: it.Comment})
	}

	if v.dir != nil {
		v.dir.Values = values
		if len(values) == 0 {
			p.errSyn(diag.SynDirectiveNeedsBody, v.dir.Span, "'"+v.dir.Keyword+"' is missing its value")
		}
		return
	}
	v.section.Values = values
	if len(values) == 0 {
		p.warnSyn(diag.SynEmptyBlock, v.section.Span, "'"+v.section.Key+"' has no value")
	}
}

// closeBlocksAt pops open blocks whose keyword level is at or inside level.
// Returns true when anything closed.
func (p *parser) closeBlocksAt(level int) bool {
	closed := false
	for len(p.open) > 0 && p.open[len(p.open)-1].depth >= level {
		ob := p.open[len(p.open)-1]
		p.open = p.open[:len(p.open)-1]
		if len(ob.block.Sections) == 0 && len(ob.block.Values) == 0 && ob.block.Host == nil {
			p.warnSyn(diag.SynEmptyBlock, ob.block.Span, "'"+ob.block.Keyword+"' block has no sections")
		}
		closed = true
	}
	return closed
}

func (p *parser) closeAll() {
	p.closeVal()
	p.host = nil

	// Trailing comments: indented past a still-open block's header they are
	// the block's trailing attachment; otherwise they become a final host
	// region so the output keeps them verbatim.
	comments, _ := p.takeLeading()
	var loose []ast.Comment
	for _, c := range comments {
		if len(p.open) > 0 && c.Width > p.open[len(p.open)-1].width {
			inner := p.open[len(p.open)-1].block
			inner.Trailing = append(inner.Trailing, c)
			continue
		}
		loose = append(loose, c)
	}
	p.closeBlocksAt(0)
	if len(loose) > 0 {
		r := &ast.HostRegion{Depth: 0}
		for _, c := range loose {
			p.appendRegionLine(r, indentSpaces(c.Width)+c.Text, c.Width, c.Span)
		}
		p.out.Nodes = append(p.out.Nodes, ast.Node{Host: r})
	}
}

// ---- host-language lines ----

func (p *parser) hostLine(t token.Token) {
	// Feed or close the active value context first.
	if p.val != nil {
		if p.level > p.val.depth {
			if p.val.kind == ast.ContentHost {
				p.flushTriviaIntoRegion(p.val.region)
				p.appendRegionLine(p.val.region, t.Text, t.Width, t.Span)
			} else {
				p.flushTriviaIntoParts(p.val)
				p.val.parts = append(p.val.parts, t.Text)
				p.val.cover(t.Span)
			}
			return
		}
		p.closeVal()
	}

	// A contiguous host region swallows every following host line; nested
	// statement bodies live at deeper levels but belong to the same span of
	// host code.
	if p.host != nil {
		p.checkMalformedHeader(t)
		p.flushTriviaIntoRegion(p.host)
		p.appendRegionLine(p.host, t.Text, t.Width, t.Span)
		return
	}

	p.closeBlocksAt(p.level)
	if len(p.open) > 0 && p.level > p.open[len(p.open)-1].depth {
		ob := p.open[len(p.open)-1]
		if token.IsHook(ob.block.Keyword) && len(ob.block.Sections) == 0 {
			p.hookBody(ob.block, ob.depth, t)
			return
		}
		p.errSyn(diag.SynUnexpectedIndent, t.Span,
			"statement inside a block body must belong to a keyed sub-section")
	}
	p.checkMalformedHeader(t)

	r := &ast.HostRegion{Depth: p.level}
	blank := p.startRegionTrivia(r)
	p.appendRegionLine(r, t.Text, t.Width, t.Span)
	p.host = r
	p.out.Nodes = append(p.out.Nodes, ast.Node{Host: r, BlankBefore: blank})
}

// hookBody opens a lifecycle hook's direct host-language body. Hooks take
// either keyed sections or a plain code body; the first host line commits
// the block to the latter, and everything indented past the header belongs
// to it from then on.
func (p *parser) hookBody(b *ast.Block, depth int, t token.Token) {
	v := &valueCtx{
		hook:   b,
		kind:   ast.ContentHost,
		depth:  depth,
		region: &ast.HostRegion{Depth: depth + 1},
	}
	p.flushTriviaIntoRegion(v.region)
	p.appendRegionLine(v.region, t.Text, t.Width, t.Span)
	v.cover(t.Span)
	p.val = v
}

// startRegionTrivia opens a region node's leading trivia: a blank run at the
// very front separates the region from the previous element, everything
// after replays inside the region.
func (p *parser) startRegionTrivia(r *ast.HostRegion) bool {
	blank := false
	if len(p.pend) > 0 && p.pend[0].comment == nil {
		blank = p.pend[0].blanks > 0
		p.pend = p.pend[1:]
	}
	p.flushTriviaIntoRegion(r)
	return blank
}

// checkMalformedHeader reports host-classified lines that were clearly
// meant to be block headers: a block or hook keyword first word with the
// line ending in ':' but not matching the header shape.
func (p *parser) checkMalformedHeader(t token.Token) {
	text := strings.TrimSpace(t.Text)
	word := leadingWord(text)
	if word == "" || !strings.HasSuffix(text, ":") {
		return
	}
	kind, ok := token.LookupKeyword(word)
	if !ok {
		return
	}
	rest := strings.TrimSpace(strings.TrimSuffix(text[len(word):], ":"))
	switch kind {
	case token.KwHook:
		if rest != "" && leadingWord(rest) == rest {
			p.errSyn(diag.SynHookTakesNoName, t.Span, "'"+word+"' does not take a name")
			return
		}
		p.errSyn(diag.SynMalformedHeader, t.Span, "malformed '"+word+"' header")
	case token.KwBlock:
		p.errSyn(diag.SynMalformedHeader, t.Span, "malformed '"+word+"' header")
	}
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

// ---- keyword headers ----

func (p *parser) blockHeader(t token.Token) {
	if p.feedHeaderAsHost(t) {
		return
	}
	g := p.group(t)
	p.closeVal()
	p.host = nil
	p.closeBlocksAt(p.level)

	if len(p.open) > 0 {
		parent := p.open[len(p.open)-1].block
		p.errSyn(diag.SynKeyNotAllowedHere, t.Span,
			"'"+t.Text+"' cannot appear inside '"+parent.Keyword+"'")
	}
	if len(g.exprs) > 0 {
		p.errSyn(diag.SynMalformedHeader, g.exprs[0].Span,
			"unexpected value after '"+t.Text+"' header")
	}

	leading, blank := p.takeLeading()
	b := &ast.Block{
		Keyword: t.Text,
		Depth:   p.level,
		Span:    t.Span.Cover(g.last.Span),
		Leading: leading,
	}
	if g.name != nil {
		b.Name = g.name.Text
	}
	if g.inline != nil {
		b.Inline = &ast.Comment{Text: g.inline.Text, Span: g.inline.Span}
	}
	p.out.Nodes = append(p.out.Nodes, ast.Node{Block: b, BlankBefore: blank})
	p.open = append(p.open, openBlock{block: b, depth: p.level, width: t.Width})
}

func (p *parser) keyHeader(t token.Token) {
	if p.feedHeaderAsHost(t) {
		return
	}
	g := p.group(t)
	p.closeVal()
	p.host = nil
	p.closeBlocksAt(p.level)

	if len(p.open) > 0 {
		owner := p.open[len(p.open)-1]
		if p.level != owner.depth+1 {
			p.errSyn(diag.SynUnexpectedIndent, t.Span,
				"'"+t.Text+"' is indented inconsistently with its block")
		}
		p.section(owner.block, t, g)
		return
	}

	if token.KeyAllowedTopLevel(t.Text) {
		p.directive(t, g)
		return
	}
	p.errSyn(diag.SynKeyOutsideBlock, t.Span, "'"+t.Text+"' outside any block")
	// Recover as a directive-shaped node so the text survives printing.
	p.directive(t, g)
}

// feedHeaderAsHost routes keyword-shaped lines that sit inside an active
// host or value region: there they are host-language text, not structure.
func (p *parser) feedHeaderAsHost(t token.Token) bool {
	if p.val == nil || p.level <= p.val.depth {
		return false
	}
	g := p.group(t)
	line := p.rawLine(t, g.last)
	if p.val.kind == ast.ContentHost {
		p.flushTriviaIntoRegion(p.val.region)
		p.appendRegionLine(p.val.region, line, t.Width, t.Span.Cover(g.last.Span))
	} else {
		p.flushTriviaIntoParts(p.val)
		p.val.parts = append(p.val.parts, strings.TrimSpace(line))
		p.val.cover(g.last.Span)
	}
	return true
}

func (p *parser) section(owner *ast.Block, t token.Token, g headerGroup) {
	key := t.Text
	if !token.KeyAllowedInBlock(key) {
		p.errSyn(diag.SynKeyNotAllowedHere, t.Span,
			"'"+key+"' is a top-level directive, not a section key")
	}
	for _, s := range owner.Sections {
		if s.Key == key {
			p.errSyn(diag.SynDuplicateKey, t.Span, "duplicate '"+key+"' in '"+owner.Keyword+"'")
			break
		}
	}

	leading, blank := p.takeLeading()
	sec := &ast.Section{
		Key:         key,
		Kind:        contentKind(key),
		Depth:       p.level,
		Span:        t.Span.Cover(g.last.Span),
		Leading:     leading,
		BlankBefore: blank,
	}
	owner.Sections = append(owner.Sections, sec)
	owner.Span = owner.Span.Cover(sec.Span)

	v := &valueCtx{section: sec, kind: sec.Kind, depth: p.level}
	if sec.Kind == ast.ContentHost {
		v.region = &ast.HostRegion{Depth: p.level + 1}
		if len(g.exprs) > 0 {
			p.errSyn(diag.SynMalformedHeader, g.exprs[0].Span,
				"'"+key+"' takes an indented body, not an inline value")
		}
		if g.inline != nil {
			sec.Inline = &ast.Comment{Text: g.inline.Text, Span: g.inline.Span}
		}
		p.val = v
		return
	}

	p.headerValues(v, sec, nil, g)
	p.val = v
}

func (p *parser) directive(t token.Token, g headerGroup) {
	leading, blank := p.takeLeading()
	b := &ast.Block{
		Keyword: t.Text,
		Depth:   p.level,
		Span:    t.Span.Cover(g.last.Span),
		Leading: leading,
	}
	p.out.Nodes = append(p.out.Nodes, ast.Node{Block: b, BlankBefore: blank})

	kind := contentKind(t.Text)
	if kind == ast.ContentHost {
		// Only reachable through error recovery ('run' outside any block);
		// collect the body as plain value text so nothing is lost.
		kind = ast.ContentSingle
	}
	v := &valueCtx{dir: b, kind: kind, depth: p.level}
	p.headerValues(v, nil, b, g)
	p.val = v
}

// headerValues seeds a value context from the header line: the raw text
// after the colon becomes the first part, or a bare trailing comment
// becomes the element's inline comment.
func (p *parser) headerValues(v *valueCtx, sec *ast.Section, dir *ast.Block, g headerGroup) {
	if len(g.exprs) > 0 {
		start := g.last.Span.End
		if g.colon != nil {
			start = g.colon.Span.End
		}
		v.parts = append(v.parts, p.rawSlice(start, g.last.Span.End))
		return
	}
	if g.inline != nil {
		c := &ast.Comment{Text: g.inline.Text, Span: g.inline.Span}
		if sec != nil {
			sec.Inline = c
		} else {
			dir.Inline = c
		}
	}
}

func contentKind(key string) ast.ContentKind {
	switch {
	case token.KeyIsHost(key):
		return ast.ContentHost
	case token.KeyTakesList(key):
		return ast.ContentExprList
	default:
		return ast.ContentSingle
	}
}
