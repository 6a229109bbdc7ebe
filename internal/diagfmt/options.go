package diagfmt

// PrettyOpts controls terminal rendering.
type PrettyOpts struct {
	// Color enables ANSI styling of positions, severities and markers.
	Color bool
}
