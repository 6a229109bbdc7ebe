package format

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

// lineWidth measures a line in display columns.
func lineWidth(s string) int {
	return runewidth.StringWidth(s)
}

// deindent strips the longest common whitespace prefix of the non-blank
// physical lines and returns the stripped text plus the removed prefix.
// Region entries are logical lines and may span physical lines; the prefix
// is stripped from every physical line so the engine sees column zero.
func deindent(lines []string) (string, string) {
	phys := strings.Split(strings.Join(lines, "\n"), "\n")
	prefix := ""
	first := true
	for _, l := range phys {
		if strings.TrimSpace(l) == "" {
			continue
		}
		ind := l[:indentLen(l)]
		if first {
			prefix = ind
			first = false
			continue
		}
		prefix = commonPrefix(prefix, ind)
	}
	if prefix == "" {
		return strings.Join(phys, "\n"), ""
	}
	out := make([]string, len(phys))
	for i, l := range phys {
		if strings.TrimSpace(l) == "" {
			out[i] = ""
			continue
		}
		out[i] = strings.TrimPrefix(l, prefix)
	}
	return strings.Join(out, "\n"), prefix
}

func indentLen(s string) int {
	i := 0
	for i < len(s) && (s[i] == ' ' || s[i] == '\t') {
		i++
	}
	return i
}

func commonPrefix(a, b string) string {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	i := 0
	for i < n && a[i] == b[i] {
		i++
	}
	return a[:i]
}

// splitLines splits text dropping a single trailing newline, so an engine
// result of "x\n" round-trips to one line.
func splitLines(text string) []string {
	text = strings.TrimSuffix(text, "\n")
	if text == "" {
		return nil
	}
	return strings.Split(text, "\n")
}

// trimBlankEdges removes leading and trailing blank lines.
func trimBlankEdges(lines []string) []string {
	start := 0
	for start < len(lines) && strings.TrimSpace(lines[start]) == "" {
		start++
	}
	end := len(lines)
	for end > start && strings.TrimSpace(lines[end-1]) == "" {
		end--
	}
	return lines[start:end]
}
