package backend

import (
	"strings"

	"github.com/aspn-firehose/firehose/internal/codegen/common"
)

// TypeMapping maps one schema primitive to a target token.
type TypeMapping struct {
	From string
	To   string
}

// TypeTable is ordered: substring replacement uses the first match.
type TypeTable []TypeMapping

// Lookup returns the target token for an exact schema type.
func (t TypeTable) Lookup(schemaType string) (string, bool) {
	for _, m := range t {
		if m.From == schemaType {
			return m.To, true
		}
	}
	return "", false
}

// ReplaceFirst rewrites every occurrence of the first table key contained in s.
func (t TypeTable) ReplaceFirst(s string) string {
	for _, m := range t {
		if strings.Contains(s, m.From) {
			return strings.ReplaceAll(s, m.From, m.To)
		}
	}
	return s
}

// Contains reports whether token is one of the target tokens of the table.
func (t TypeTable) Contains(token string) bool {
	for _, m := range t {
		if m.To == token {
			return true
		}
	}
	return false
}

var (
	CTypes = TypeTable{
		{"bool", "bool"},
		{"float32", "float"},
		{"float64", "double"},
		{"uint8", "uint8_t"},
		{"uint16", "uint16_t"},
		{"uint32", "uint32_t"},
		{"uint64", "uint64_t"},
		{"int8", "int8_t"},
		{"int16", "int16_t"},
		{"int32", "int32_t"},
		{"int64", "int64_t"},
		{common.VersionPrefix + "MessageType", common.VersionPrefix + "MessageType"},
	}

	DDSTypes = TypeTable{
		{"bool", "boolean"},
		{"float32", "float"},
		{"float64", "double"},
		{"uint8", "uint8"},
		{"uint16", "uint16"},
		{"uint32", "uint32"},
		{"uint64", "uint64"},
		{"int8", "int8"},
		{"int16", "int16"},
		{"int32", "int32"},
		{"int64", "int64"},
	}

	// LCM has no unsigned integers; each is widened to the next signed size.
	LCMTypes = TypeTable{
		{"bool", "boolean"},
		{"float32", "float"},
		{"float64", "double"},
		{"uint8", "int16_t"},
		{"uint16", "int32_t"},
		{"uint32", "int64_t"},
		{"uint64", "int64_t"},
		{"int8", "int8_t"},
		{"int16", "int16_t"},
		{"int32", "int32_t"},
		{"int64", "int64_t"},
	}

	PythonTypes = TypeTable{
		{"bool", "bool"},
		{"float32", "float"},
		{"float64", "float"},
		{"uint8", "int"},
		{"uint16", "int"},
		{"uint32", "int"},
		{"uint64", "int"},
		{"int8", "int"},
		{"int16", "int"},
		{"int32", "int"},
		{"int64", "int"},
	}

	ROSTypes = TypeTable{
		{"bool", "bool"},
		{"float32", "float32"},
		{"float64", "float64"},
		{"uint8", "uint8"},
		{"uint16", "uint16"},
		{"uint32", "uint32"},
		{"uint64", "uint64"},
		{"int8", "int8"},
		{"int16", "int16"},
		{"int32", "int32"},
		{"int64", "int64"},
	}
)

// Struct naming functions shared by the configs.
var (
	VersionedStructName = common.StructName
	PascalStructName    = common.SnakeToPascal
	SnakeStructName     = func(s string) string { return s }
)
