package common

import (
	"strings"
	"text/template"
)

// TplFuncs are the helpers shared by every emitter template. Emitters extend
// the map with their own entries.
func TplFuncs() template.FuncMap {
	return template.FuncMap{
		"join":     strings.Join,
		"upper":    strings.ToUpper,
		"lower":    strings.ToLower,
		"pascal":   SnakeToPascal,
		"snake":    func(s string) string { return PascalToSnake(s, false) },
		"indent":   IndentLines,
		"banner":   GeneratedBanner,
		"blockdoc": blockDoc,
	}
}

func blockDoc(doc, indent string) string {
	return FormatDocstring(doc, indent, DefaultDocLimit, DocBlock)
}

// IndentLines prefixes every non-empty line of s with spaces.
func IndentLines(spaces int, s string) string {
	prefix := strings.Repeat(" ", spaces)
	parts := strings.Split(s, "\n")
	for i, p := range parts {
		if p != "" {
			parts[i] = prefix + p
		}
	}
	return strings.Join(parts, "\n")
}

// CollapseBlankLines keeps at most one empty line between two non-empty lines
// and trims trailing whitespace on every line.
func CollapseBlankLines(s string) string {
	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	blank := false
	for _, l := range lines {
		l = strings.TrimRight(l, " \t")
		if l == "" {
			if blank || len(out) == 0 {
				continue
			}
			blank = true
		} else {
			blank = false
		}
		out = append(out, l)
	}
	for len(out) > 0 && out[len(out)-1] == "" {
		out = out[:len(out)-1]
	}
	return strings.Join(out, "\n") + "\n"
}
