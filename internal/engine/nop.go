package engine

import (
	"context"
	"strings"
)

// Nop passes host code through untouched, trimming only trailing line
// whitespace so output still satisfies the no-trailing-whitespace rule. It
// serves as the fallback when no external engine is configured.
type Nop struct{}

func (Nop) Name() string {
	return "none"
}

func (Nop) FormatSnippet(_ context.Context, code string, _ int) (string, error) {
	lines := strings.Split(code, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimRight(l, " \t")
	}
	return strings.Join(lines, "\n"), nil
}
