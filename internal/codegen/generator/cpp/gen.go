// Package cpp emits the ASPN C++ wrapper classes. Every class owns a pointer
// to the matching ASPN-C struct and delegates construction, copies and
// destruction to the C layer; getters and setters translate between C arrays
// and the array types of one of the matrix library variants.
package cpp

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/aspn-firehose/firehose/internal/codegen/backend"
	"github.com/aspn-firehose/firehose/internal/codegen/common"
	cgen "github.com/aspn-firehose/firehose/internal/codegen/generator/c"
)

const Format = "cpp"

// Dir is the include directory below src/, shared with the C library.
var Dir = cgen.Dir

type fieldKind int

const (
	kindSimple fieldKind = iota
	kindLength
	kindEnum
	kindString
	kindNested
	kindArray
	kindNestedArray
	kindMatrix
)

type field struct {
	kind fieldKind
	name string
	// cType is the scalar, enum or element type as ASPN-C declares it.
	cType  string
	doc    string
	length backend.Dim
	x, y   backend.Dim
	values []string
}

// class returns the unversioned wrapper class of a nested struct field.
func (f *field) class() string { return common.TrimVersionPrefix(f.cType) }

type cppStruct struct {
	snake  string
	cName  string
	name   string
	fnBase string
	doc    string
	fields []*field

	// headerPath locates the TypeHeader inside the C struct of messages that
	// derive from TypeHeader, e.g. "header" or "info.header".
	headerPath string
}

func newCppStruct(snake string) *cppStruct {
	cName := common.StructName(snake)
	return &cppStruct{
		snake:  snake,
		cName:  cName,
		name:   common.TrimVersionPrefix(cName),
		fnBase: cgen.FuncBase(cName),
		doc:    "<Missing C Docstring>",
	}
}

func (s *cppStruct) isMessage() bool {
	return strings.HasPrefix(s.snake, "measurement") || strings.HasPrefix(s.snake, "metadata") || s.snake == "image"
}

func (s *cppStruct) field(name string) *field {
	for _, f := range s.fields {
		if f.name == name {
			return f
		}
	}
	return nil
}

func isNestedType(typeName string) bool {
	return strings.HasPrefix(typeName, common.VersionPrefix+"Type")
}

// Backend emits src/aspn23/<variant>/<Class>.{hpp,cpp} for every matrix
// variant, the per-variant root header, pybind11 bindings and meson.build.
type Backend struct {
	backend.NoInheritance

	acc    backend.Accumulator[cppStruct]
	logger *slog.Logger
	w      *backend.Writer
	root   string
	outDir string
}

func New(logger *slog.Logger) *Backend {
	return &Backend{logger: logger, w: backend.NewWriter(logger)}
}

func (b *Backend) Config() backend.Config {
	return backend.Config{
		Format:     Format,
		Types:      backend.CTypes,
		StructName: backend.VersionedStructName,
		Naming:     backend.CNaming{},
	}
}

func (b *Backend) SetOutputRootFolder(path string) error {
	b.root = path
	b.outDir = filepath.Join(path, "src", Dir)
	for _, v := range Variants {
		dir := filepath.Join(b.outDir, v.Name)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
		if err := backend.RemoveStale(dir, "*.hpp", "*.cpp"); err != nil {
			return fmt.Errorf("remove stale C++ files: %w", err)
		}
	}
	return nil
}

func (b *Backend) BeginStruct(name string) error {
	b.logger.Debug("Generating ASPN-C++", "struct", name)
	return b.acc.Begin(newCppStruct(name))
}

func (b *Backend) ProcessClassDocstring(doc string) error {
	s, err := b.acc.Current()
	if err != nil {
		return err
	}
	s.doc = doc
	return nil
}

func (b *Backend) add(f *field) error {
	s, err := b.acc.Current()
	if err != nil {
		return err
	}
	s.fields = append(s.fields, f)
	return nil
}

func (b *Backend) ProcessSimpleField(name, typeName, doc string, nullable bool) error {
	if nullable {
		doc += "\nUse NaN if there is no value."
	}
	kind := kindSimple
	switch {
	case isNestedType(typeName):
		kind = kindNested
	case common.IsLengthField(name):
		kind = kindLength
	}
	return b.add(&field{kind: kind, name: name, cType: typeName, doc: doc})
}

func (b *Backend) ProcessStringField(name, doc string, nullable bool) error {
	if nullable {
		doc += "\nSet to an empty string if there is no value."
	}
	return b.add(&field{kind: kindString, name: name, cType: "char*", doc: doc})
}

func (b *Backend) ProcessEnum(name, enumType string, values []string, doc string, _ []string) error {
	return b.add(&field{kind: kindEnum, name: name, cType: enumType, doc: doc, values: values})
}

func (b *Backend) ProcessDataPointerField(name, typeName string, length backend.Dim, doc string, nullable bool) error {
	if nullable {
		doc += "\nThis array must contain all real numbers or all NaNs."
	}
	kind := kindArray
	if isNestedType(typeName) {
		kind = kindNestedArray
	}
	return b.add(&field{kind: kind, name: name, cType: typeName, doc: doc, length: length})
}

func (b *Backend) ProcessMatrixField(name, typeName string, x, y backend.Dim, doc string, nullable bool) error {
	if x.IsFixed() != y.IsFixed() {
		return backend.ErrMixedDimensions
	}
	if nullable {
		doc += "\nThis matrix must contain all real numbers or all NaNs."
	}
	return b.add(&field{kind: kindMatrix, name: name, cType: typeName, doc: doc, x: x, y: y})
}

// headerStruct is the TypeHeader schema every message class derives from.
const headerStruct = "type_header"

// linkHeaders sets headerPath on every message that embeds the TypeHeader
// directly or through a metadata header.
func linkHeaders(structs []*cppStruct) []*field {
	var header *cppStruct
	for _, s := range structs {
		if s.snake == headerStruct {
			header = s
		}
	}
	if header == nil {
		return nil
	}
	for _, s := range structs {
		if !s.isMessage() {
			continue
		}
		for _, f := range s.fields {
			if f.kind != kindNested {
				continue
			}
			if f.cType == header.cName {
				s.headerPath = f.name
				break
			}
			if f.cType == common.StructName("type_metadataheader") {
				s.headerPath = f.name + ".header"
				break
			}
		}
	}
	return header.fields
}

func (b *Backend) Generate() error {
	structs, err := b.acc.Finish()
	if err != nil {
		return err
	}
	headerFields := linkHeaders(structs)

	for _, v := range Variants {
		dir := filepath.Join(b.outDir, v.Name)
		for _, s := range structs {
			view := s.render(v, headerFields)
			if err := b.w.Render(filepath.Join(dir, s.name+".hpp"), classHeaderTemplate, view); err != nil {
				return err
			}
			if err := b.w.Render(filepath.Join(dir, s.name+".cpp"), classSourceTemplate, view); err != nil {
				return err
			}
		}
		if err := b.writeRoot(dir, v, structs, headerFields != nil); err != nil {
			return err
		}
		if v.Name == XtensorPy {
			if err := b.writeBindings(dir, v, structs, headerFields); err != nil {
				return err
			}
		}
		b.logger.Info("Generated ASPN-C++", "variant", v.Name, "classes", len(structs), "dir", dir)
	}
	return b.writeMeson(structs)
}
