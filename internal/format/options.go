package format

import (
	"flowfmt/internal/diag"
	"flowfmt/internal/engine"
)

// DefaultLineLength is the line budget handed to the layout rules and the
// external engine.
const DefaultLineLength = 88

// DefaultIndentWidth is the spaces-per-level indent unit of the output.
const DefaultIndentWidth = 4

type Options struct {
	// LineLength is the layout budget in display columns.
	LineLength int
	// IndentWidth is the output indent unit in spaces.
	IndentWidth int
	// Engine formats embedded host-language code. Nil means passthrough.
	Engine engine.Formatter
	// Reporter receives formatting diagnostics. May be nil.
	Reporter diag.Reporter
}

func (o Options) withDefaults() Options {
	if o.LineLength == 0 {
		o.LineLength = DefaultLineLength
	}
	if o.IndentWidth == 0 {
		o.IndentWidth = DefaultIndentWidth
	}
	if o.Engine == nil {
		o.Engine = engine.Nop{}
	}
	return o
}
