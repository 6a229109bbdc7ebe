// Package engine abstracts the external host-language formatter. The
// pipeline hands it de-indented code snippets and substitutes whatever comes
// back; everything about how the host language is actually formatted lives
// behind this boundary.
package engine

import (
	"context"
	"fmt"
)

// Formatter formats one host-language snippet. Implementations must be safe
// for concurrent use: the driver formats files in parallel.
type Formatter interface {
	// FormatSnippet formats code under the given line-length budget and
	// returns the replacement text. A *SyntaxError means the snippet itself
	// is invalid host code; any other error means the engine could not run.
	FormatSnippet(ctx context.Context, code string, lineLength int) (string, error)

	// Name identifies the engine in diagnostics and logs.
	Name() string
}

// SyntaxError reports that the engine rejected a snippet. Line and Col are
// 1-based positions inside the snippet; zero when the engine did not say.
type SyntaxError struct {
	Line int
	Col  int
	Msg  string
}

func (e *SyntaxError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("syntax error at snippet line %d: %s", e.Line, e.Msg)
	}
	return "syntax error: " + e.Msg
}
