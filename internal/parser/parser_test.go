package parser_test

import (
	"strings"
	"testing"

	"flowfmt/internal/ast"
	"flowfmt/internal/diag"
	"flowfmt/internal/parser"
	"flowfmt/internal/source"
)

type testReporter struct {
	diagnostics []diag.Diagnostic
}

func (r *testReporter) Report(code diag.Code, sev diag.Severity, primary source.Span, msg string, notes []diag.Note) {
	r.diagnostics = append(r.diagnostics, diag.Diagnostic{
		Severity: sev, Code: code, Message: msg, Primary: primary, Notes: notes,
	})
}

func (r *testReporter) errorCodes() []diag.Code {
	var codes []diag.Code
	for _, d := range r.diagnostics {
		if d.Severity == diag.SevError {
			codes = append(codes, d.Code)
		}
	}
	return codes
}

func parseText(t *testing.T, input string) (*ast.File, *source.File, *testReporter) {
	t.Helper()
	fs := source.NewFileSet()
	id := fs.AddVirtual("test.flow", []byte(input))
	sf := fs.Get(id)
	rep := &testReporter{}
	tree := parser.ParseSource(sf, parser.Options{Reporter: rep})
	return tree, sf, rep
}

func onlyBlock(t *testing.T, tree *ast.File) *ast.Block {
	t.Helper()
	if len(tree.Nodes) != 1 || tree.Nodes[0].Block == nil {
		t.Fatalf("want exactly one block node, got %d nodes", len(tree.Nodes))
	}
	return tree.Nodes[0].Block
}

func valueTexts(values []ast.Expr) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		out = append(out, v.Text)
	}
	return out
}

func TestParseRuleSections(t *testing.T) {
	tree, _, rep := parseText(t, `rule align:
    input: "a.txt", "b.txt"
    threads: 8
    shell: "aligner {input}"
`)
	if got := rep.errorCodes(); len(got) != 0 {
		t.Fatalf("unexpected errors: %v", got)
	}
	b := onlyBlock(t, tree)
	if b.Keyword != "rule" || b.Name != "align" || b.Depth != 0 {
		t.Fatalf("block = %q %q depth %d", b.Keyword, b.Name, b.Depth)
	}
	if len(b.Sections) != 3 {
		t.Fatalf("sections = %d, want 3", len(b.Sections))
	}
	in := b.Sections[0]
	if in.Key != "input" || in.Kind != ast.ContentExprList {
		t.Fatalf("first section = %q kind %v", in.Key, in.Kind)
	}
	if got := valueTexts(in.Values); len(got) != 2 || got[0] != `"a.txt"` || got[1] != `"b.txt"` {
		t.Errorf("input values = %v", got)
	}
	if b.Sections[1].Kind != ast.ContentSingle || b.Sections[2].Kind != ast.ContentSingle {
		t.Errorf("threads/shell must be single-valued")
	}
	if got := valueTexts(b.Sections[1].Values); len(got) != 1 || got[0] != "8" {
		t.Errorf("threads values = %v", got)
	}
}

func TestParseContinuationValuesMerge(t *testing.T) {
	tree, _, rep := parseText(t, `rule a:
    input:
        "one.txt",
        expand("{s}.bam", s=samples),
        "three.txt"
`)
	if got := rep.errorCodes(); len(got) != 0 {
		t.Fatalf("unexpected errors: %v", got)
	}
	b := onlyBlock(t, tree)
	got := valueTexts(b.Sections[0].Values)
	want := []string{`"one.txt"`, `expand("{s}.bam", s=samples)`, `"three.txt"`}
	if len(got) != len(want) {
		t.Fatalf("values = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("value[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestParseImplicitConcatStaysOneValue(t *testing.T) {
	tree, _, _ := parseText(t, `rule a:
    input:
        "long/prefix/"
        "suffix.txt",
        "other.txt"
`)
	b := onlyBlock(t, tree)
	values := b.Sections[0].Values
	if len(values) != 2 {
		t.Fatalf("implicit concatenation must stay one value, got %v", valueTexts(values))
	}
	if !strings.Contains(values[0].Text, "\n") {
		t.Errorf("concatenated value lost its line break: %q", values[0].Text)
	}
}

func TestParseLambdaValueStaysTogether(t *testing.T) {
	tree, _, _ := parseText(t, `rule a:
    resources: mem=lambda wc, attempt: attempt * 1000
`)
	b := onlyBlock(t, tree)
	values := b.Sections[0].Values
	if len(values) != 1 || values[0].Text != "mem=lambda wc, attempt: attempt * 1000" {
		t.Fatalf("lambda value split: %v", valueTexts(values))
	}
}

func TestParseDirective(t *testing.T) {
	tree, _, rep := parseText(t, "include: \"rules/common.flow\"\nconfigfile: \"config.yaml\"\n")
	if got := rep.errorCodes(); len(got) != 0 {
		t.Fatalf("unexpected errors: %v", got)
	}
	if len(tree.Nodes) != 2 {
		t.Fatalf("nodes = %d, want 2", len(tree.Nodes))
	}
	d := tree.Nodes[0].Block
	if d == nil || !d.IsDirective() || d.Keyword != "include" {
		t.Fatalf("first node is not an include directive: %+v", d)
	}
	if got := valueTexts(d.Values); len(got) != 1 || got[0] != `"rules/common.flow"` {
		t.Errorf("include values = %v", got)
	}
}

func TestParseKeyOutsideBlockFails(t *testing.T) {
	_, sf, rep := parseText(t, "input: \"a.txt\"\n\nrule ok:\n    threads: 1\n")
	codes := rep.errorCodes()
	if len(codes) != 1 || codes[0] != diag.SynKeyOutsideBlock {
		t.Fatalf("want SynKeyOutsideBlock, got %v", codes)
	}
	lc := sf.PosToLineCol(rep.diagnostics[0].Primary.Start)
	if lc.Line != 1 || lc.Col != 1 {
		t.Errorf("error position = %d:%d, want 1:1", lc.Line, lc.Col)
	}
}

func TestParseRunBodyIsHostCode(t *testing.T) {
	tree, _, rep := parseText(t, `rule a:
    run:
        d = {}
        input: 3
        for x in range(4):
            d[x] = x
`)
	if got := rep.errorCodes(); len(got) != 0 {
		t.Fatalf("unexpected errors: %v", got)
	}
	b := onlyBlock(t, tree)
	if len(b.Sections) != 1 || b.Sections[0].Kind != ast.ContentHost {
		t.Fatalf("run section missing: %+v", b.Sections)
	}
	body := b.Sections[0].Host
	if body == nil || len(body.Lines) != 4 {
		t.Fatalf("run body lines = %+v", body)
	}
	// The annotation-shaped line stays verbatim host text.
	if strings.TrimSpace(body.Lines[1]) != "input: 3" {
		t.Errorf("keyword-shaped host line mangled: %q", body.Lines[1])
	}
	if body.Depth != 2 || body.BaseWidth != 8 {
		t.Errorf("region depth/base = %d/%d, want 2/8", body.Depth, body.BaseWidth)
	}
}

func TestParseNestedRuleUnderConditional(t *testing.T) {
	tree, _, rep := parseText(t, `if config["fast"]:

    rule quick:
        threads: 1

else:

    rule slow:
        threads: 16
`)
	if got := rep.errorCodes(); len(got) != 0 {
		t.Fatalf("unexpected errors: %v", got)
	}
	if len(tree.Nodes) != 4 {
		t.Fatalf("nodes = %d, want 4", len(tree.Nodes))
	}
	if tree.Nodes[0].Host == nil || tree.Nodes[0].Host.Depth != 0 {
		t.Fatalf("first node must be the host conditional")
	}
	q := tree.Nodes[1].Block
	if q == nil || q.Name != "quick" || q.Depth != 1 {
		t.Fatalf("nested rule wrong: %+v", q)
	}
	if tree.Nodes[2].Host == nil || strings.TrimSpace(tree.Nodes[2].Host.Lines[0]) != "else:" {
		t.Fatalf("else branch not a host region: %+v", tree.Nodes[2])
	}
	s := tree.Nodes[3].Block
	if s == nil || s.Name != "slow" || s.Depth != 1 {
		t.Fatalf("second nested rule wrong: %+v", s)
	}
}

func TestParseHostRegionSwallowsStatementBodies(t *testing.T) {
	tree, _, _ := parseText(t, `samples = []
for line in open("samples.tsv"):
    samples.append(line.strip())

count = len(samples)
`)
	if len(tree.Nodes) != 1 || tree.Nodes[0].Host == nil {
		t.Fatalf("want one host region, got %d nodes", len(tree.Nodes))
	}
	lines := tree.Nodes[0].Host.Lines
	// Blank line inside the region survives verbatim.
	if len(lines) != 5 || lines[3] != "" {
		t.Fatalf("region lines = %q", lines)
	}
}

func TestParseCommentAttachment(t *testing.T) {
	tree, _, _ := parseText(t, `# aligns reads
rule align:  # inline note
    # input files
    input: "a.txt"  # first
`)
	b := onlyBlock(t, tree)
	if len(b.Leading) != 1 || b.Leading[0].Text != "# aligns reads" {
		t.Fatalf("block leading = %+v", b.Leading)
	}
	if b.Inline == nil || b.Inline.Text != "# inline note" {
		t.Fatalf("block inline = %+v", b.Inline)
	}
	sec := b.Sections[0]
	if len(sec.Leading) != 1 || sec.Leading[0].Text != "# input files" {
		t.Fatalf("section leading = %+v", sec.Leading)
	}
	if len(sec.Values) != 1 || sec.Values[0].Comment != "# first" {
		t.Fatalf("value comment = %+v", sec.Values)
	}
}

func TestParseBlankBetweenSections(t *testing.T) {
	tree, _, _ := parseText(t, `rule a:
    input: "x"


    output: "y"
`)
	b := onlyBlock(t, tree)
	if b.Sections[0].BlankBefore {
		t.Errorf("first section must not record a blank")
	}
	if !b.Sections[1].BlankBefore {
		t.Errorf("blank run before output was lost")
	}
}

func TestParseMalformedHeader(t *testing.T) {
	_, _, rep := parseText(t, "rule a b:\n    threads: 1\n")
	codes := rep.errorCodes()
	if len(codes) == 0 || codes[0] != diag.SynMalformedHeader {
		t.Fatalf("want SynMalformedHeader, got %v", codes)
	}
}

func TestParseHookHostBody(t *testing.T) {
	tree, _, rep := parseText(t, `onsuccess:
    print("workflow finished")
    shell("notify-send done")
`)
	if len(rep.diagnostics) != 0 {
		t.Fatalf("unexpected diagnostics: %v", rep.diagnostics)
	}
	b := onlyBlock(t, tree)
	if b.Keyword != "onsuccess" || len(b.Sections) != 0 {
		t.Fatalf("block = %q with %d sections", b.Keyword, len(b.Sections))
	}
	if b.Host == nil || len(b.Host.Lines) != 2 {
		t.Fatalf("hook body = %+v", b.Host)
	}
	if b.Host.Lines[0] != `    print("workflow finished")` {
		t.Errorf("body line = %q", b.Host.Lines[0])
	}
	if b.Host.Depth != 1 {
		t.Errorf("body depth = %d, want 1", b.Host.Depth)
	}
}

func TestParseHookKeyedSectionsStillParse(t *testing.T) {
	tree, _, rep := parseText(t, "onerror:\n    run:\n        cleanup()\n")
	if got := rep.errorCodes(); len(got) != 0 {
		t.Fatalf("unexpected errors: %v", got)
	}
	b := onlyBlock(t, tree)
	if b.Host != nil {
		t.Fatalf("keyed hook must not grow a direct body: %+v", b.Host)
	}
	if len(b.Sections) != 1 || b.Sections[0].Key != "run" {
		t.Fatalf("sections = %+v", b.Sections)
	}
}

func TestParseHookWithNameFails(t *testing.T) {
	_, _, rep := parseText(t, "onsuccess cleanup:\n    run:\n        done()\n")
	codes := rep.errorCodes()
	if len(codes) == 0 || codes[0] != diag.SynHookTakesNoName {
		t.Fatalf("want SynHookTakesNoName, got %v", codes)
	}
}

func TestParseDuplicateKey(t *testing.T) {
	_, _, rep := parseText(t, "rule a:\n    threads: 1\n    threads: 2\n")
	codes := rep.errorCodes()
	if len(codes) != 1 || codes[0] != diag.SynDuplicateKey {
		t.Fatalf("want SynDuplicateKey, got %v", codes)
	}
}

func TestParseDirectiveInsideBlockFails(t *testing.T) {
	_, _, rep := parseText(t, "rule a:\n    include: \"other.flow\"\n")
	codes := rep.errorCodes()
	if len(codes) != 1 || codes[0] != diag.SynKeyNotAllowedHere {
		t.Fatalf("want SynKeyNotAllowedHere, got %v", codes)
	}
}

func TestParseDirectiveWithoutValueFails(t *testing.T) {
	_, _, rep := parseText(t, "workdir:\n")
	codes := rep.errorCodes()
	if len(codes) != 1 || codes[0] != diag.SynDirectiveNeedsBody {
		t.Fatalf("want SynDirectiveNeedsBody, got %v", codes)
	}
}

func TestParseTrailingCommentsBecomeFinalRegion(t *testing.T) {
	tree, _, _ := parseText(t, "rule a:\n    threads: 1\n# done\n")
	if len(tree.Nodes) != 2 {
		t.Fatalf("nodes = %d, want 2", len(tree.Nodes))
	}
	last := tree.Nodes[1].Host
	if last == nil || len(last.Lines) != 1 || last.Lines[0] != "# done" {
		t.Fatalf("trailing comment node = %+v", last)
	}
}

func TestParseMaxErrorsCapsReporting(t *testing.T) {
	fs := source.NewFileSet()
	id := fs.AddVirtual("test.flow", []byte("input: 1\noutput: 2\nparams: 3\n"))
	rep := &testReporter{}
	parser.ParseSource(fs.Get(id), parser.Options{Reporter: rep, MaxErrors: 2})
	if got := len(rep.errorCodes()); got != 2 {
		t.Fatalf("reported %d errors, want cap of 2", got)
	}
}
