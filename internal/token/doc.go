// Package token defines the lexical units produced by the workflow scanner.
// Invariants:
//   - Token.Text is copied from the original source verbatim.
//   - Token.Span matches the consumed source region exactly (Begin..End).
//   - Indent/Dedent are synthetic markers with empty spans; Width carries the
//     new indentation width in columns.
//   - HostLine and Invalid tokens cover a whole logical line, including its
//     leading whitespace and any continuation lines.
//   - Comment text never includes the trailing newline.
package token
