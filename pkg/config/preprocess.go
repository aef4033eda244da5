package config

import "strings"

// Statement is a single semicolon-terminated configuration statement with the
// line number of its first non-whitespace character in the original file.
type Statement struct {
	Line int
	Text string
}

// StripComments removes every comment from raw configuration text. A comment
// starts at '#' and runs to the next newline; a comment with no terminating
// newline runs to end of input. The newline itself is preserved so statement
// line numbers stay aligned with the original file.
func StripComments(text string) string {
	cc := strings.IndexByte(text, '#')
	if cc < 0 {
		return text
	}

	var b strings.Builder
	b.Grow(len(text))
	for cc >= 0 {
		b.WriteString(text[:cc])
		eoc := strings.IndexByte(text[cc:], '\n')
		if eoc < 0 {
			return b.String()
		}
		text = text[cc+eoc:]
		cc = strings.IndexByte(text, '#')
	}
	b.WriteString(text)
	return b.String()
}

// Segment splits comment-free text into statements on ';'. Each statement is
// trimmed of surrounding whitespace; empty statements are dropped. Line
// numbers count the newlines consumed before the statement's first
// non-whitespace character, so diagnostics point at the right line of the
// original file even after trimming.
func Segment(text string) []Statement {
	var out []Statement
	line := 1

	for _, seg := range strings.Split(text, ";") {
		linesBefore := strings.Count(seg, "\n")
		ltrimmed := strings.TrimLeft(seg, " \t\r\n")
		linesAfter := strings.Count(ltrimmed, "\n")
		stmt := strings.TrimRight(ltrimmed, " \t\r\n")
		if stmt != "" {
			out = append(out, Statement{
				Line: line + (linesBefore - linesAfter),
				Text: stmt,
			})
		}
		line += linesBefore
	}

	return out
}
