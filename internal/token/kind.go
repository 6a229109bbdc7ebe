package token

// Kind represents the category of a scanned token.
type Kind uint8

const (
	// Invalid indicates a line the scanner could not classify. The parser
	// either folds it into a host-code region or reports a syntax error,
	// depending on context.
	Invalid Kind = iota
	// EOF marks the end of the source input.
	EOF

	// Indent is a synthetic marker: indentation grew to Width columns.
	Indent
	// Dedent is a synthetic marker: indentation shrank back to Width columns.
	Dedent
	// Blank represents a run of one or more blank lines; Count holds the run
	// length.
	Blank

	// Comment is a comment occupying its own line.
	Comment
	// InlineComment is a trailing comment on a keyword or value line.
	InlineComment

	// KwBlock is a block keyword that takes a name ('rule', 'checkpoint').
	KwBlock
	// KwHook is a lifecycle hook keyword ('onstart', 'onsuccess', 'onerror').
	KwHook
	// Key is a parameter key: a section key inside a block or a top-level
	// directive ('input', 'include', ...). The parser resolves which by
	// context.
	Key

	// Name is a block name identifier.
	Name
	// Colon is the ':' terminating a keyword header.
	Colon
	// Expr is one element of a comma-separated DSL expression list.
	Expr
	// HostLine is a logical line of embedded host-language code, verbatim.
	HostLine
)

var kindNames = [...]string{
	Invalid:       "Invalid",
	EOF:           "EOF",
	Indent:        "Indent",
	Dedent:        "Dedent",
	Blank:         "Blank",
	Comment:       "Comment",
	InlineComment: "InlineComment",
	KwBlock:       "KwBlock",
	KwHook:        "KwHook",
	Key:           "Key",
	Name:          "Name",
	Colon:         "Colon",
	Expr:          "Expr",
	HostLine:      "HostLine",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) && kindNames[k] != "" {
		return kindNames[k]
	}
	return "Unknown"
}
