package scanner

import (
	"strings"
)

// ASCII identifier classes. Keys and keywords are ASCII by construction;
// anything else falls through to host-code classification.
func isWordStart(b byte) bool {
	return b == '_' || (b >= 'A' && b <= 'Z') || (b >= 'a' && b <= 'z')
}

func isWordContinue(b byte) bool {
	return isWordStart(b) || (b >= '0' && b <= '9')
}

func trimSpace(s string) string {
	return strings.TrimSpace(s)
}

func trimTrailingSpace(s string) string {
	return strings.TrimRight(s, " \t")
}

// ListItem is one element of a comma-separated value region. A pure-comment
// entry has an empty Text.
type ListItem struct {
	Text    string
	Comment string
}

// SplitList splits a value-region text on top-level commas, honoring
// strings (including triple-quoted), brackets and backslash continuations.
// Trailing '#' comments at bracket depth zero are captured per item.
// Newlines at depth zero stay inside the current item verbatim (implicit
// string concatenation keeps its line structure).
func SplitList(text string) []ListItem {
	var items []ListItem
	var cur strings.Builder
	depth := 0
	// Commas between 'lambda' and its ':' separate parameters, not items.
	inLambda := false

	// flush closes the current item; a comment with no text becomes a
	// standalone comment entry so list order survives printing.
	flush := func(comment string) {
		t := trimSpace(cur.String())
		cur.Reset()
		if t == "" && comment == "" {
			return
		}
		items = append(items, ListItem{Text: t, Comment: comment})
	}

	i := 0
	n := len(text)
	for i < n {
		b := text[i]
		switch {
		case b == '\'' || b == '"':
			j := skipString(text, i)
			cur.WriteString(text[i:j])
			i = j

		case b == '\\' && i+1 < n:
			cur.WriteString(text[i : i+2])
			i += 2

		case b == '(' || b == '[' || b == '{':
			depth++
			cur.WriteByte(b)
			i++

		case b == ')' || b == ']' || b == '}':
			if depth > 0 {
				depth--
			}
			cur.WriteByte(b)
			i++

		case b == ',' && depth == 0 && !inLambda:
			flush("")
			i++

		case b == ':' && depth == 0 && inLambda:
			inLambda = false
			cur.WriteByte(b)
			i++

		case isWordStart(b):
			j := i + 1
			for j < n && isWordContinue(text[j]) {
				j++
			}
			if depth == 0 && text[i:j] == "lambda" {
				inLambda = true
			}
			cur.WriteString(text[i:j])
			i = j

		case b == '#' && depth == 0:
			j := strings.IndexByte(text[i:], '\n')
			var comment string
			if j < 0 {
				comment = trimTrailingSpace(text[i:])
				i = n
			} else {
				comment = trimTrailingSpace(text[i : i+j])
				i += j + 1
			}
			flush(comment)

		default:
			cur.WriteByte(b)
			i++
		}
	}
	flush("")
	return items
}

// skipString returns the index just past the string literal starting at i.
// Unterminated literals run to the end of text; the scanner has already
// reported them.
func skipString(text string, i int) int {
	n := len(text)
	q := text[i]
	if i+2 < n && text[i+1] == q && text[i+2] == q {
		j := i + 3
		for j < n {
			if text[j] == '\\' {
				j += 2
				continue
			}
			if text[j] == q && j+2 < n && text[j+1] == q && text[j+2] == q {
				return j + 3
			}
			j++
		}
		return n
	}
	j := i + 1
	for j < n {
		switch text[j] {
		case '\\':
			j += 2
		case q:
			return j + 1
		case '\n':
			return j
		default:
			j++
		}
	}
	return n
}
