package common

import (
	"sort"
	"strconv"
	"strings"
)

// EnumMember is one resolved enum member. Value defaults to the member's
// position unless the schema overrides it with "NAME = n".
type EnumMember struct {
	Name     string
	Value    int
	Explicit bool
	Doc      string
}

// ParseEnumMember resolves the value of the member at index. A malformed
// override keeps the raw text as the name and reports ok=false so callers
// can warn about it.
func ParseEnumMember(raw string, index int) (m EnumMember, ok bool) {
	m = EnumMember{Name: raw, Value: index}
	parts := strings.Split(raw, "=")
	if len(parts) != 2 {
		return m, true
	}
	n, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return m, false
	}
	m.Name = strings.TrimSpace(parts[0])
	m.Value = n
	m.Explicit = true
	return m, true
}

// MaxEnumValue returns the largest value among members, never below zero.
func MaxEnumValue(members []EnumMember) int {
	maxVal := 0
	for _, m := range members {
		if m.Value > maxVal {
			maxVal = m.Value
		}
	}
	return maxVal
}

// SortedUnique returns the distinct entries of in, sorted.
func SortedUnique(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// AppendUnique appends s to list unless it is already present.
func AppendUnique(list []string, s string) []string {
	for _, v := range list {
		if v == s {
			return list
		}
	}
	return append(list, s)
}
