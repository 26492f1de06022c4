// Package backend defines the capability interface every target emitter
// implements, plus the per-backend configuration record the field classifier
// consults (type table, struct naming and enum naming).
package backend

import (
	"strconv"
)

// Dim is one array or matrix dimension. A fixed dimension carries Size, a
// variable one names the sibling length field in Ref.
type Dim struct {
	Size int
	Ref  string
}

// Fixed returns a literal dimension.
func Fixed(n int) Dim { return Dim{Size: n} }

// Ref returns a dimension taken from a sibling length field.
func Ref(field string) Dim { return Dim{Ref: field} }

// ParseDim converts a bracket token into a dimension.
func ParseDim(tok string) Dim {
	if n, err := strconv.Atoi(tok); err == nil {
		return Fixed(n)
	}
	return Ref(tok)
}

func (d Dim) IsFixed() bool { return d.Ref == "" }

func (d Dim) String() string {
	if d.IsFixed() {
		return strconv.Itoa(d.Size)
	}
	return d.Ref
}

// Backend is implemented by every target emitter. Process* calls only append
// to the current struct accumulator; Generate renders everything that was
// accumulated and may be called once.
type Backend interface {
	Config() Config

	// SetOutputRootFolder creates the backend's directory layout below path and
	// removes stale generated files.
	SetOutputRootFolder(path string) error
	// BeginStruct archives the struct in progress and starts a new one. name is snake_case.
	BeginStruct(name string) error

	ProcessClassDocstring(doc string) error
	ProcessSimpleField(name, typeName, doc string, nullable bool) error
	ProcessStringField(name, doc string, nullable bool) error
	ProcessEnum(name, enumType string, values []string, doc string, valueDocs []string) error
	ProcessMatrixField(name, typeName string, x, y Dim, doc string, nullable bool) error
	ProcessDataPointerField(name, typeName string, length Dim, doc string, nullable bool) error
	ProcessInheritanceField(name, typeName, doc string, nullable bool) error

	Generate() error
}

// Config is the identity record of a backend. It replaces lookups keyed by
// backend type: everything the classifier needs to know about a target lives here.
type Config struct {
	// Format is the registry key, e.g. "c" or "lcmtranslations".
	Format string
	Types  TypeTable
	// StructName maps a snake_case schema name to the identifier the target uses
	// for nested struct references.
	StructName func(snake string) string
	Naming     EnumNaming
	// UnitsInDocs makes the classifier build "Description/Units/Length" field docs.
	UnitsInDocs bool
}
