// Package ast defines the block tree built by the parser and consumed by
// the formatter. The tree is flat and ordered: nodes appear in source order
// and carry their nesting depth explicitly, so the printer never re-sorts
// anything. All nodes live for one formatting pass.
package ast

import (
	"flowfmt/internal/source"
)

// Comment is a comment attached to the element it precedes or trails.
type Comment struct {
	Text  string // "# ..." verbatim, no newline
	Span  source.Span
	Width int // original indent columns (leading comments only)
}

// ContentKind tags what a section body holds.
type ContentKind uint8

const (
	// ContentExprList is a comma-separated DSL value list.
	ContentExprList ContentKind = iota
	// ContentSingle is a single-valued DSL parameter.
	ContentSingle
	// ContentHost is embedded host-language code, opaque to the grammar.
	ContentHost
)

// Expr is one element of a section's value list.
type Expr struct {
	Text    string // verbatim, trimmed; may contain interior newlines
	Comment string // trailing "# ..." on the element's line, or ""
	Span    source.Span
}

// HostRegion is a contiguous span of embedded host-language code. Lines are
// stored verbatim, including their original leading whitespace; BaseWidth
// records the region's indent columns so the formatter can de-indent before
// delegating and re-indent after.
type HostRegion struct {
	Lines     []string
	Span      source.Span
	BaseWidth int
	Depth     int
}

// Text joins the region's lines.
func (h *HostRegion) Text() string {
	out := ""
	for i, l := range h.Lines {
		if i > 0 {
			out += "\n"
		}
		out += l
	}
	return out
}

// Section is one keyed field of a block.
type Section struct {
	Key     string
	Kind    ContentKind
	Depth   int
	Span    source.Span
	Values  []Expr      // ContentExprList, ContentSingle
	Host    *HostRegion // ContentHost
	Leading []Comment
	Inline  *Comment
	// BlankBefore records whether the source separated this section from
	// the previous one with at least one blank line.
	BlankBefore bool
}

// Block is a DSL construct: a rule-like declaration, a lifecycle hook, or a
// single-valued directive.
type Block struct {
	Keyword  string
	Name     string // "" for hooks, directives and anonymous rules
	Depth    int
	Span     source.Span
	Sections []*Section
	// Host is a lifecycle hook's direct code body; hooks take either keyed
	// sections or a plain host-language body, never both.
	Host *HostRegion
	// Values holds a directive's inline value(s) ('include: "x"').
	Values   []Expr
	Leading  []Comment
	Inline   *Comment
	Trailing []Comment // comments at the end of the body owned by no section
}

// IsDirective reports whether the block is a bodyless directive.
func (b *Block) IsDirective() bool {
	return len(b.Sections) == 0 && len(b.Values) > 0
}

// Node is one top-level (or nested, via Depth) element of a file.
type Node struct {
	Block *Block      // exactly one of Block/Host is set
	Host  *HostRegion // a host-language region between blocks
	// BlankBefore records whether the source separated this node from the
	// previous one with at least one blank line.
	BlankBefore bool
}

// File is the parsed workflow file.
type File struct {
	Nodes []Node
}
