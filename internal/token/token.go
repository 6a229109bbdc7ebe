package token

import (
	"flowfmt/internal/source"
)

// Token represents a single classified lexical unit with its location.
type Token struct {
	Kind Kind
	Span source.Span
	Text string
	// Width is the indentation width in columns for Indent, Dedent, Comment,
	// HostLine and Invalid tokens.
	Width int
	// Count is the blank-line run length for Blank tokens.
	Count int
}

// IsKeywordLine reports whether the token opens a DSL keyword header.
func (t Token) IsKeywordLine() bool {
	switch t.Kind {
	case KwBlock, KwHook, Key:
		return true
	default:
		return false
	}
}

// IsMarker reports whether the token is a synthetic indentation marker.
func (t Token) IsMarker() bool {
	return t.Kind == Indent || t.Kind == Dedent
}
