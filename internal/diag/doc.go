// Package diag carries structured diagnostics for the formatting pipeline.
//
// Phases (scanner, parser, span formatter) report through the Reporter
// interface and never format messages for humans themselves; rendering
// belongs to diagfmt. A Bag accumulates diagnostics with a hard cap so a
// pathological input cannot balloon memory. Every diagnostic points at a
// byte span in the original source, never into intermediate snippets.
package diag
