package diag

// Severity ranks how serious a diagnostic is. Only SevError blocks
// formatting; warnings and info never prevent output.
type Severity uint8

const (
	SevInfo Severity = iota
	SevWarning
	// SevError marks the file malformed; the formatter refuses to rewrite it.
	SevError
)

// String returns the uppercase label used in rendered diagnostics.
func (s Severity) String() string {
	switch s {
	case SevInfo:
		return "INFO"
	case SevWarning:
		return "WARNING"
	case SevError:
		return "ERROR"
	}
	return "UNKNOWN"
}
