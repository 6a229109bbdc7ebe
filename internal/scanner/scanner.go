package scanner

import (
	"flowfmt/internal/diag"
	"flowfmt/internal/source"
	"flowfmt/internal/token"
)

// Scanner produces the classified token stream for one workflow file. It is
// logical-line oriented: physical lines joined by open brackets, trailing
// backslashes or triple-quoted strings form a single unit, and an
// indentation stack yields Indent/Dedent markers at line boundaries.
//
// The scanner never fails hard: lexical problems are reported through the
// Reporter and scanning continues, so the caller always receives a stream
// terminated by EOF.
type Scanner struct {
	file    *source.File
	cursor  Cursor
	opts    Options
	indents []int
	pending []token.Token
	pendIdx int
	// indentChar is the committed indentation byte (' ' or '\t'), 0 until
	// the first indented significant line.
	indentChar byte
	closed     bool
}

// New creates a scanner over the provided file.
func New(file *source.File, opts Options) *Scanner {
	return &Scanner{
		file:    file,
		cursor:  NewCursor(file),
		opts:    opts,
		indents: []int{0},
	}
}

// Next returns the next token. After the input is exhausted it emits the
// closing Dedent markers, then EOF forever.
func (s *Scanner) Next() token.Token {
	for {
		if s.pendIdx < len(s.pending) {
			t := s.pending[s.pendIdx]
			s.pendIdx++
			return t
		}
		s.pending = s.pending[:0]
		s.pendIdx = 0

		if s.cursor.EOF() {
			if !s.closed {
				s.closed = true
				for len(s.indents) > 1 {
					s.indents = s.indents[:len(s.indents)-1]
					s.push(token.Token{Kind: token.Dedent, Span: s.emptySpan(), Width: s.indents[len(s.indents)-1]})
				}
				s.push(token.Token{Kind: token.EOF, Span: s.emptySpan()})
				continue
			}
			return token.Token{Kind: token.EOF, Span: s.emptySpan()}
		}
		s.scanLine()
	}
}

// ScanAll drains the scanner into a slice ending with EOF.
func (s *Scanner) ScanAll() []token.Token {
	out := make([]token.Token, 0, 64)
	for {
		t := s.Next()
		out = append(out, t)
		if t.Kind == token.EOF {
			return out
		}
	}
}

func (s *Scanner) push(t token.Token) {
	s.pending = append(s.pending, t)
}

func (s *Scanner) emptySpan() source.Span {
	return source.Span{File: s.file.ID, Start: s.cursor.Off, End: s.cursor.Off}
}

// scanLine consumes one physical line (or a blank run) and queues its
// tokens.
func (s *Scanner) scanLine() {
	start := s.cursor.Mark()
	width, hasSpace, hasTab := s.scanIndent()

	switch {
	case s.cursor.EOF():
		// Trailing whitespace before EOF carries no token.
		return
	case s.cursor.Peek() == '\n':
		s.scanBlankRun(start)
		return
	case s.cursor.Peek() == '#':
		s.scanCommentLine(width)
		return
	}

	// A significant line: indentation is structural here.
	if hasSpace && hasTab {
		s.errLex(diag.LexInconsistentIndent, s.cursor.SpanFrom(start), "indentation mixes tabs and spaces")
	} else if width > 0 {
		ch := byte(' ')
		if hasTab {
			ch = '\t'
		}
		if s.indentChar == 0 {
			s.indentChar = ch
		} else if ch != s.indentChar {
			s.errLex(diag.LexInconsistentIndent, s.cursor.SpanFrom(start), "indentation character differs from the rest of the file")
		}
	}
	s.applyIndent(width, s.cursor.SpanFrom(start))
	s.scanContent(start, width)
}

// scanIndent consumes leading whitespace. Tab stops are every 8 columns.
func (s *Scanner) scanIndent() (width int, hasSpace, hasTab bool) {
	for {
		switch s.cursor.Peek() {
		case ' ':
			width++
			hasSpace = true
		case '\t':
			width += 8 - width%8
			hasTab = true
		default:
			return width, hasSpace, hasTab
		}
		s.cursor.Bump()
	}
}

// applyIndent updates the indentation stack and queues Indent/Dedent
// markers. A dedent to a width not on the stack is reported and recovered
// by opening a level at that width.
func (s *Scanner) applyIndent(width int, sp source.Span) {
	top := s.indents[len(s.indents)-1]
	if width > top {
		s.indents = append(s.indents, width)
		s.push(token.Token{Kind: token.Indent, Span: sp, Width: width})
		return
	}
	for width < s.indents[len(s.indents)-1] {
		s.indents = s.indents[:len(s.indents)-1]
		s.push(token.Token{Kind: token.Dedent, Span: sp, Width: s.indents[len(s.indents)-1]})
	}
	if width != s.indents[len(s.indents)-1] {
		s.errLex(diag.LexBadDedent, sp, "dedent does not match any outer indentation level")
		s.indents = append(s.indents, width)
		s.push(token.Token{Kind: token.Indent, Span: sp, Width: width})
	}
}

// scanBlankRun coalesces consecutive blank lines into one Blank token.
func (s *Scanner) scanBlankRun(start Mark) {
	count := 0
	for {
		s.cursor.Bump() // the newline
		count++
		probe := s.cursor.Mark()
		for s.cursor.Peek() == ' ' || s.cursor.Peek() == '\t' {
			s.cursor.Bump()
		}
		if s.cursor.Peek() != '\n' {
			if !s.cursor.EOF() {
				s.cursor.Reset(probe)
			}
			break
		}
	}
	s.push(token.Token{Kind: token.Blank, Span: s.cursor.SpanFrom(start), Count: count})
}

// scanCommentLine consumes a full-line comment. Comment lines do not touch
// the indentation stack: host-language code allows them at any offset.
func (s *Scanner) scanCommentLine(width int) {
	start := s.cursor.Mark()
	for !s.cursor.EOF() && s.cursor.Peek() != '\n' {
		s.cursor.Bump()
	}
	text := trimTrailingSpace(s.cursor.Text(start))
	s.push(token.Token{
		Kind:  token.Comment,
		Span:  s.cursor.SpanFrom(start),
		Text:  text,
		Width: width,
	})
	s.cursor.Eat('\n')
}

// scanContent classifies the significant part of a line: a DSL keyword
// header or a logical line of host-language code.
func (s *Scanner) scanContent(start Mark, width int) {
	wordStart := s.cursor.Mark()
	word := s.scanWord()
	if word != "" {
		if kind, ok := token.LookupKeyword(word); ok && s.tryHeader(wordStart, kind, word, width) {
			return
		}
	}
	s.cursor.Reset(start)
	s.scanHostLine(start, width)
}

// scanWord consumes an ASCII identifier.
func (s *Scanner) scanWord() string {
	start := s.cursor.Mark()
	if !isWordStart(s.cursor.Peek()) {
		return ""
	}
	for isWordContinue(s.cursor.Peek()) {
		s.cursor.Bump()
	}
	return s.cursor.Text(start)
}

// tryHeader parses `keyword [name] ':'` and, on success, queues the header
// tokens followed by the inline value list. Returns false when the line
// does not fit the header shape; the caller then rescans it as host code.
func (s *Scanner) tryHeader(wordStart Mark, kind token.Kind, word string, width int) bool {
	kwSpan := s.cursor.SpanFrom(wordStart)
	var nameTok *token.Token

	s.skipSpaces()
	if kind == token.KwBlock && isWordStart(s.cursor.Peek()) {
		nameStart := s.cursor.Mark()
		name := s.scanWord()
		nt := token.Token{Kind: token.Name, Span: s.cursor.SpanFrom(nameStart), Text: name}
		nameTok = &nt
		s.skipSpaces()
	}

	colonStart := s.cursor.Mark()
	if !s.cursor.Eat(':') {
		return false
	}

	s.push(token.Token{Kind: kind, Span: kwSpan, Text: word, Width: width})
	if nameTok != nil {
		s.push(*nameTok)
	}
	s.push(token.Token{Kind: token.Colon, Span: s.cursor.SpanFrom(colonStart)})
	s.scanHeaderRest()
	return true
}

// scanHeaderRest consumes the value list after a header colon: expression
// items separated by top-level commas, an optional trailing comment, and
// the line terminator.
func (s *Scanner) scanHeaderRest() {
	for {
		s.skipSpaces()
		b := s.cursor.Peek()
		switch {
		case s.cursor.EOF():
			return
		case b == '\n':
			s.cursor.Bump()
			return
		case b == '#':
			s.scanInlineComment()
			return
		}

		text, sp, term := s.scanExprItem()
		if text != "" {
			s.push(token.Token{Kind: token.Expr, Span: sp, Text: text})
		}
		switch term {
		case ',':
			// next item
		case '#':
			// loop comes back around and consumes the comment
		default:
			// '\n' (consumed) or EOF
			return
		}
	}
}

func (s *Scanner) scanInlineComment() {
	start := s.cursor.Mark()
	for !s.cursor.EOF() && s.cursor.Peek() != '\n' {
		s.cursor.Bump()
	}
	s.push(token.Token{
		Kind: token.InlineComment,
		Span: s.cursor.SpanFrom(start),
		Text: trimTrailingSpace(s.cursor.Text(start)),
	})
	s.cursor.Eat('\n')
}

// scanExprItem consumes one expression-list element. It stops at a
// top-level ',' (consumed), a top-level '#' (left for the caller), the end
// of the logical line ('\n' consumed), or EOF. Newlines inside brackets,
// after a backslash, or inside triple-quoted strings continue the item.
func (s *Scanner) scanExprItem() (text string, sp source.Span, term byte) {
	start := s.cursor.Mark()
	depth := 0
	// A comma between 'lambda' and its ':' is a parameter separator, not a
	// list separator.
	inLambda := false
	for {
		b := s.cursor.Peek()
		switch {
		case s.cursor.EOF():
			if depth > 0 {
				s.errLex(diag.LexUnclosedBracket, s.cursor.SpanFrom(start), "unclosed bracket at end of file")
			}
			return s.itemText(start), s.cursor.SpanFrom(start), 0

		case b == '\n':
			if depth > 0 {
				s.cursor.Bump()
				continue
			}
			end := s.cursor.SpanFrom(start)
			s.cursor.Bump()
			return s.itemText(start), end, '\n'

		case b == '\\':
			s.cursor.Bump()
			if s.cursor.EOF() {
				s.errLex(diag.LexDanglingContinuation, s.cursor.SpanFrom(start), "line continuation at end of file")
				return s.itemText(start), s.cursor.SpanFrom(start), 0
			}
			s.cursor.Bump()

		case b == '\'' || b == '"':
			s.scanString()

		case b == '(' || b == '[' || b == '{':
			depth++
			s.cursor.Bump()

		case b == ')' || b == ']' || b == '}':
			if depth > 0 {
				depth--
			}
			s.cursor.Bump()

		case b == ',' && depth == 0 && !inLambda:
			// Capture before consuming the comma: the separator is not part
			// of the item.
			text := s.itemText(start)
			end := s.cursor.SpanFrom(start)
			s.cursor.Bump()
			return text, end, ','

		case b == '#' && depth == 0:
			return s.itemText(start), s.cursor.SpanFrom(start), '#'

		case b == '#':
			// Comment inside brackets: part of the expression verbatim.
			for !s.cursor.EOF() && s.cursor.Peek() != '\n' {
				s.cursor.Bump()
			}

		case b == ':' && depth == 0 && inLambda:
			inLambda = false
			s.cursor.Bump()

		case isWordStart(b):
			if s.scanWord() == "lambda" && depth == 0 {
				inLambda = true
			}

		default:
			s.cursor.Bump()
		}
	}
}

func (s *Scanner) itemText(start Mark) string {
	return trimSpace(s.cursor.Text(start))
}

// scanHostLine consumes one logical line of host-language code verbatim,
// including its leading whitespace.
func (s *Scanner) scanHostLine(start Mark, width int) {
	depth := 0
	end := s.cursor.Mark()
	for {
		b := s.cursor.Peek()
		switch {
		case s.cursor.EOF():
			if depth > 0 {
				s.errLex(diag.LexUnclosedBracket, s.cursor.SpanFrom(start), "unclosed bracket at end of file")
			}
			s.pushHostLine(start, s.cursor.Mark(), width)
			return

		case b == '\n':
			if depth > 0 {
				s.cursor.Bump()
				continue
			}
			end = s.cursor.Mark()
			s.cursor.Bump()
			s.pushHostLine(start, end, width)
			return

		case b == '\\':
			s.cursor.Bump()
			if s.cursor.EOF() {
				s.errLex(diag.LexDanglingContinuation, s.cursor.SpanFrom(start), "line continuation at end of file")
				s.pushHostLine(start, s.cursor.Mark(), width)
				return
			}
			s.cursor.Bump()

		case b == '\'' || b == '"':
			s.scanString()

		case b == '(' || b == '[' || b == '{':
			depth++
			s.cursor.Bump()

		case b == ')' || b == ']' || b == '}':
			if depth > 0 {
				depth--
			}
			s.cursor.Bump()

		case b == '#':
			// Rest of the physical line is a trailing comment; the logical
			// line may still continue if brackets are open.
			for !s.cursor.EOF() && s.cursor.Peek() != '\n' {
				s.cursor.Bump()
			}

		default:
			s.cursor.Bump()
		}
	}
}

func (s *Scanner) pushHostLine(start, end Mark, width int) {
	sp := source.Span{File: s.file.ID, Start: uint32(start), End: uint32(end)}
	s.push(token.Token{
		Kind:  token.HostLine,
		Span:  sp,
		Text:  string(s.file.Content[sp.Start:sp.End]),
		Width: width,
	})
}

// scanString consumes a string literal starting at the cursor's quote
// character: single- or triple-delimited, with backslash escapes.
func (s *Scanner) scanString() {
	start := s.cursor.Mark()
	q := s.cursor.Bump()

	if s.cursor.Peek() == q && s.cursor.PeekAt(1) == q {
		s.cursor.Bump()
		s.cursor.Bump()
		for {
			if s.cursor.EOF() {
				s.errLex(diag.LexUnterminatedTriple, s.cursor.SpanFrom(start), "unterminated triple-quoted string")
				return
			}
			if s.cursor.Peek() == '\\' {
				s.cursor.Bump()
				s.cursor.Bump()
				continue
			}
			if s.cursor.Peek() == q && s.cursor.PeekAt(1) == q && s.cursor.PeekAt(2) == q {
				s.cursor.Bump()
				s.cursor.Bump()
				s.cursor.Bump()
				return
			}
			s.cursor.Bump()
		}
	}

	for {
		if s.cursor.EOF() {
			s.errLex(diag.LexUnterminatedString, s.cursor.SpanFrom(start), "unterminated string literal")
			return
		}
		b := s.cursor.Peek()
		if b == '\n' {
			s.errLex(diag.LexUnterminatedString, s.cursor.SpanFrom(start), "newline in string literal")
			return
		}
		if b == '\\' {
			s.cursor.Bump()
			if !s.cursor.EOF() {
				s.cursor.Bump()
			}
			continue
		}
		s.cursor.Bump()
		if b == q {
			return
		}
	}
}

func (s *Scanner) skipSpaces() {
	for s.cursor.Peek() == ' ' || s.cursor.Peek() == '\t' {
		s.cursor.Bump()
	}
}
