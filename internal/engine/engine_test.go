package engine

import (
	"context"
	"testing"
)

func TestNopTrimsTrailingWhitespace(t *testing.T) {
	got, err := Nop{}.FormatSnippet(context.Background(), "x = 1   \ny = 2\t\n", 88)
	if err != nil {
		t.Fatal(err)
	}
	if got != "x = 1\ny = 2\n" {
		t.Errorf("got %q", got)
	}
}

func TestSyntaxErrorFromStderr(t *testing.T) {
	cases := []struct {
		name string
		in   string
		line int
		col  int
	}{
		{"line word", "error: cannot parse: line 3: def f(:", 3, 0},
		{"line colon col", "error at 7:12: unexpected token", 7, 12},
		{"no position", "something went wrong", 0, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			se := syntaxErrorFrom(tc.in)
			if se.Line != tc.line || se.Col != tc.col {
				t.Errorf("position = %d:%d, want %d:%d", se.Line, se.Col, tc.line, tc.col)
			}
			if se.Msg == "" {
				t.Errorf("message lost")
			}
		})
	}
}

func TestExecArgvConstruction(t *testing.T) {
	e := NewExec("black", "-", "--quiet")
	if e.LineLengthFlag != "--line-length" {
		t.Fatalf("default flag = %q", e.LineLengthFlag)
	}
	if e.Name() != "black" {
		t.Errorf("name = %q", e.Name())
	}
}
