package backend

import (
	"strings"

	"github.com/aspn-firehose/firehose/internal/codegen/common"
)

// EnumNaming derives enum identifiers for one target syntax. structName is
// always the snake_case schema name.
type EnumNaming interface {
	// EnumTypeName names the enum type declared for field.
	EnumTypeName(structName, field string) string
	// EnumMemberName names one member of that enum. value may carry a
	// "= n" override which is kept.
	EnumMemberName(structName, field, value string) string
}

// versionedMember builds ASPN23_<STRUCT>_<FIELD>_<VALUE>.
func versionedMember(structSnake, field, value string) string {
	return strings.ToUpper(common.VersionPrefix + "_" + structSnake + "_" + field + "_" + value)
}

// viaPascal mirrors emitters that hold Pascal struct names and convert them
// back to screaming snake case.
func viaPascal(structName string) string {
	return common.PascalToSnake(common.SnakeToPascal(structName), true)
}

// CNaming is used by the C, C++ and C marshaling emitters.
type CNaming struct{}

func (CNaming) EnumTypeName(structName, field string) string {
	return common.StructName(structName) + common.SnakeToPascal(field)
}

func (CNaming) EnumMemberName(structName, field, value string) string {
	return versionedMember(structName, field, value)
}

// DDSNaming suffixes enum types with "Value" so they never clash with the struct.
type DDSNaming struct{}

func (DDSNaming) EnumTypeName(structName, field string) string {
	return common.SnakeToPascal(structName) + common.SnakeToPascal(field) + "Value"
}

func (DDSNaming) EnumMemberName(structName, field, value string) string {
	return versionedMember(viaPascal(structName), field, value)
}

// LCMNaming keeps the field as the type and scopes members by field only,
// since LCM constants live inside the struct.
type LCMNaming struct{}

func (LCMNaming) EnumTypeName(_, field string) string { return field }

func (LCMNaming) EnumMemberName(_, field, value string) string {
	return strings.ToUpper(field + "_" + value)
}

// PyNaming produces Python Enum classes with bare member names.
type PyNaming struct{}

func (PyNaming) EnumTypeName(structName, field string) string {
	return common.SnakeToPascal(structName) + common.SnakeToPascal(field)
}

func (PyNaming) EnumMemberName(_, _, value string) string {
	return strings.ToUpper(value)
}

// ROSNaming keeps the field as the type and emits fully qualified constants.
type ROSNaming struct{}

func (ROSNaming) EnumTypeName(_, field string) string { return field }

func (ROSNaming) EnumMemberName(structName, field, value string) string {
	return versionedMember(structName, field, value)
}

// TranslationNaming is used by the Python translation emitters.
type TranslationNaming struct{}

func (TranslationNaming) EnumTypeName(_, field string) string { return field }

func (TranslationNaming) EnumMemberName(structName, field, value string) string {
	return versionedMember(viaPascal(structName), field, value)
}
