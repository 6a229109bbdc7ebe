package diag

import (
	"fmt"
)

type Code uint16

const (
	// UnknownCode is the catch-all for unexpected failures.
	UnknownCode Code = 0

	// Lexical errors: the scanner could not tokenize the file.
	LexInfo                 Code = 1000
	LexUnterminatedString   Code = 1001
	LexUnterminatedTriple   Code = 1002
	LexInconsistentIndent   Code = 1003
	LexBadDedent            Code = 1004
	LexUnclosedBracket      Code = 1005
	LexDanglingContinuation Code = 1006

	// Syntax errors: the token stream violates the workflow grammar.
	SynInfo               Code = 2000
	SynKeyOutsideBlock    Code = 2001
	SynMalformedHeader    Code = 2002
	SynUnexpectedIndent   Code = 2003
	SynDuplicateKey       Code = 2004
	SynMissingColon       Code = 2005
	SynEmptyBlock         Code = 2006
	SynKeyNotAllowedHere  Code = 2007
	SynHookTakesNoName    Code = 2008
	SynDirectiveNeedsBody Code = 2009

	// Delegated-formatting errors: the external engine rejected a host span.
	FmtInfo             Code = 3000
	FmtHostSyntax       Code = 3001
	FmtEngineUnavailable Code = 3002
)

var codeDescription = map[Code]string{
	UnknownCode: "Unknown error",

	LexInfo:                 "Lexical information",
	LexUnterminatedString:   "Unterminated string literal",
	LexUnterminatedTriple:   "Unterminated triple-quoted string",
	LexInconsistentIndent:   "Inconsistent use of tabs and spaces in indentation",
	LexBadDedent:            "Dedent does not match any outer indentation level",
	LexUnclosedBracket:      "Unclosed bracket at end of file",
	LexDanglingContinuation: "Line continuation at end of file",

	SynInfo:               "Syntax information",
	SynKeyOutsideBlock:    "Parameter key outside any block",
	SynMalformedHeader:    "Malformed block header",
	SynUnexpectedIndent:   "Indentation inconsistent with declared nesting",
	SynDuplicateKey:       "Duplicate section key in block",
	SynMissingColon:       "Keyword header is missing ':'",
	SynEmptyBlock:         "Block has no sections",
	SynKeyNotAllowedHere:  "Key is not allowed in this position",
	SynHookTakesNoName:    "Lifecycle hook does not take a name",
	SynDirectiveNeedsBody: "Directive is missing its value",

	FmtInfo:              "Formatting information",
	FmtHostSyntax:        "External engine rejected embedded code",
	FmtEngineUnavailable: "External formatting engine unavailable",
}

func (c Code) ID() string {
	switch ic := int(c); {
	case ic >= 1000 && ic < 2000:
		return fmt.Sprintf("LEX%04d", ic)
	case ic >= 2000 && ic < 3000:
		return fmt.Sprintf("SYN%04d", ic)
	case ic >= 3000 && ic < 4000:
		return fmt.Sprintf("FMT%04d", ic)
	}
	return "E0000"
}

func (c Code) Title() string {
	desc, ok := codeDescription[c]
	if !ok {
		return codeDescription[UnknownCode]
	}
	return desc
}

func (c Code) String() string {
	return fmt.Sprintf("[%s]: %s", c.ID(), c.Title())
}
