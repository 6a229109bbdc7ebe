package diagfmt

import (
	"strings"
	"testing"

	"flowfmt/internal/diag"
	"flowfmt/internal/source"
)

func testFile(t *testing.T, content string) *source.File {
	t.Helper()
	fs := source.NewFileSet()
	return fs.Get(fs.AddVirtual("wf.flow", []byte(content)))
}

func TestPrettyFormat(t *testing.T) {
	sf := testFile(t, "rule a:\n    input: \"x\"\n")
	bag := diag.NewBag(8)
	sp := source.Span{File: sf.ID, Start: 12, End: 17}
	bag.Add(diag.NewError(diag.SynDuplicateKey, sp, "duplicate key 'input'"))

	var sb strings.Builder
	Pretty(&sb, bag, sf, PrettyOpts{})
	out := sb.String()

	if !strings.Contains(out, "wf.flow:2:5: ERROR [SYN2004]: duplicate key 'input'") {
		t.Errorf("header line missing, got:\n%s", out)
	}
	if !strings.Contains(out, "    input: \"x\"") {
		t.Errorf("context line missing, got:\n%s", out)
	}
	if !strings.Contains(out, "    ^~~~~") {
		t.Errorf("marker missing, got:\n%s", out)
	}
}

func TestPrettyNotes(t *testing.T) {
	sf := testFile(t, "threads: 4\n")
	bag := diag.NewBag(8)
	d := diag.NewError(diag.SynKeyOutsideBlock, source.Span{File: sf.ID, Start: 0, End: 7}, "key outside any block")
	d = d.WithNote(source.Span{File: sf.ID, Start: 0, End: 7}, "keys must appear inside a rule or checkpoint")
	bag.Add(d)

	var sb strings.Builder
	Pretty(&sb, bag, sf, PrettyOpts{})
	out := sb.String()

	if !strings.Contains(out, "wf.flow:1:1: note: keys must appear inside a rule or checkpoint") {
		t.Errorf("note missing, got:\n%s", out)
	}
}

func TestPrettyClipsSpanAtLineEnd(t *testing.T) {
	sf := testFile(t, "rule\n")
	bag := diag.NewBag(8)
	bag.Add(diag.NewError(diag.SynMissingColon, source.Span{File: sf.ID, Start: 0, End: 40}, "header is missing ':'"))

	var sb strings.Builder
	Pretty(&sb, bag, sf, PrettyOpts{})
	out := sb.String()

	if !strings.Contains(out, "    ^~~~\n") {
		t.Errorf("marker not clipped to line, got:\n%s", out)
	}
}
