package common

import (
	"fmt"
	"strings"
)

// DocStyle selects the comment syntax produced by FormatDocstring.
type DocStyle string

const (
	DocBlock       DocStyle = "/**"
	DocDoubleSlash DocStyle = "//"
	DocHash        DocStyle = "#"
	DocTripleQuote DocStyle = `"""`
)

// DefaultDocLimit is the column at which docstrings are wrapped.
const DefaultDocLimit = 100

func (s DocStyle) linePrefix() string {
	switch s {
	case DocDoubleSlash:
		return "// "
	case DocHash:
		return "# "
	case DocBlock:
		return " * "
	default:
		return ""
	}
}

// FormatDocstring renders text as a comment in the given style. Every input
// line is word-wrapped at limit independently so explicit newlines survive.
// Block and triple-quote styles are surrounded by a leading and trailing newline.
func FormatDocstring(text, indent string, limit int, style DocStyle) string {
	prefix := style.linePrefix()
	lines := SplitLines(text)
	wrapped := make([]string, 0, len(lines))
	for _, line := range lines {
		wrapped = append(wrapped, WrapLine(line, indent, limit, prefix))
	}
	doc := strings.Join(wrapped, "\n"+indent+prefix)

	switch style {
	case DocDoubleSlash, DocHash:
		return indent + prefix + doc
	case DocBlock:
		return fmt.Sprintf("\n%s/**\n%s * %s\n%s */\n", indent, indent, doc, indent)
	case DocTripleQuote:
		return fmt.Sprintf("\n%s\"\"\"\n%s%s\n%s\"\"\"\n", indent, indent, doc, indent)
	}
	return ""
}

// WrapLine greedily packs the words of line into lines no longer than limit,
// joining them with a newline, indent and prefix. The first line is measured
// including indent.
func WrapLine(line, indent string, limit int, prefix string) string {
	var lines []string
	current := indent
	for _, word := range strings.Fields(line) {
		if len(current)+len(word) <= limit {
			current += word + " "
		} else {
			lines = append(lines, strings.TrimSpace(current))
			current = word + " "
		}
	}
	if current != "" {
		lines = append(lines, strings.TrimSpace(current))
	}
	return strings.Join(lines, "\n"+indent+prefix)
}

// SplitLines splits on line breaks without producing a trailing empty element.
func SplitLines(s string) []string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	if s == "" {
		return nil
	}
	return strings.Split(strings.TrimSuffix(s, "\n"), "\n")
}

// TerminateCLines appends a semicolon and newline to every line of C code.
// A trailing " /* comment */" is moved after the semicolon.
func TerminateCLines(lines []string) (string, error) {
	var b strings.Builder
	for _, line := range lines {
		if strings.Contains(line, " /* ") && strings.HasSuffix(line, "*/") {
			parts := strings.Split(line, " /* ")
			if len(parts) != 2 {
				return "", fmt.Errorf("unexpected comment terminator in %q", line)
			}
			fmt.Fprintf(&b, "%s;  /* %s\n", parts[0], strings.TrimSpace(parts[1]))
			continue
		}
		b.WriteString(line)
		b.WriteString(";\n")
	}
	return b.String(), nil
}
