package format

// Writer accumulates formatted output and provides helpers for emitting
// canonical whitespace: indentation by level, single blank separators and
// exactly one trailing newline.
type Writer struct {
	opt         Options
	buf         []byte
	indentLevel int
	atLineStart bool
}

// NewWriter creates a formatting writer.
func NewWriter(opt Options) *Writer {
	return &Writer{
		opt:         opt.withDefaults(),
		atLineStart: true,
	}
}

// Bytes returns the accumulated output.
func (w *Writer) Bytes() []byte {
	return w.buf
}

// Empty reports whether nothing has been written yet.
func (w *Writer) Empty() bool {
	return len(w.buf) == 0
}

func (w *Writer) writeIndent() {
	if !w.atLineStart {
		return
	}
	spaceCount := w.indentLevel * w.opt.IndentWidth
	for i := 0; i < spaceCount; i++ {
		w.buf = append(w.buf, ' ')
	}
	w.atLineStart = false
}

// WriteString writes a string, emitting the pending indent first.
func (w *Writer) WriteString(s string) {
	if s == "" {
		return
	}
	w.writeIndent()
	w.buf = append(w.buf, s...)
	w.atLineStart = s[len(s)-1] == '\n'
}

// WriteLine writes one indented line terminated by a newline. An empty
// string produces a blank line with no indentation.
func (w *Writer) WriteLine(s string) {
	if s == "" {
		w.buf = append(w.buf, '\n')
		w.atLineStart = true
		return
	}
	w.WriteString(s)
	w.Newline()
}

// WriteRaw writes verbatim with no indent handling. Used for the interior
// lines of multi-line expressions, which keep their source layout.
func (w *Writer) WriteRaw(s string) {
	w.buf = append(w.buf, s...)
	w.atLineStart = len(s) > 0 && s[len(s)-1] == '\n'
}

// Newline terminates the current line if it is not already terminated.
func (w *Writer) Newline() {
	if len(w.buf) == 0 || w.buf[len(w.buf)-1] != '\n' {
		w.buf = append(w.buf, '\n')
	}
	w.atLineStart = true
}

// Blank emits one blank line between elements. Consecutive calls collapse.
func (w *Writer) Blank() {
	if len(w.buf) == 0 {
		return
	}
	w.Newline()
	if len(w.buf) >= 2 && w.buf[len(w.buf)-2] == '\n' {
		return
	}
	w.buf = append(w.buf, '\n')
	w.atLineStart = true
}

// IndentPush increases the indentation level.
func (w *Writer) IndentPush() {
	w.indentLevel++
}

// IndentPop decreases the indentation level.
func (w *Writer) IndentPop() {
	if w.indentLevel > 0 {
		w.indentLevel--
	}
}

// SetIndent jumps to an absolute indentation level.
func (w *Writer) SetIndent(level int) {
	if level < 0 {
		level = 0
	}
	w.indentLevel = level
}
