package cgen

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/aspn-firehose/firehose/internal/codegen/backend"
	"github.com/aspn-firehose/firehose/internal/codegen/common"
)

const Format = "c"

// Dir is the include directory of the generated library below src/.
var Dir = strings.ToLower(common.VersionPrefix)

// cStruct collects everything rendered for one schema: header declarations
// and the bodies of the _new/_copy/_free_members functions.
type cStruct struct {
	snake  string
	name   string
	fnBase string
	doc    string

	// nullable is set once any field carries ASPN_NULLABLE.
	nullable      bool
	includes      []string
	enumDefs      []string
	enumTypes     []string
	enumValues    []string
	fields        []string
	params        []string
	pointerFields []string

	elementCounters []string
	body            []string
	copyPrep        []string
	copyParams      []string
	copyCleanup     []string
	freeMembers     []string
}

func newCStruct(snake string) *cStruct {
	return &cStruct{
		snake:  snake,
		name:   common.StructName(snake),
		fnBase: strings.ToLower(common.VersionPrefix + "_" + snake),
		doc:    "<Missing C Docstring>",
	}
}

// File is the basename shared by the .h and .c files.
func (s *cStruct) File() string { return common.TrimVersionPrefix(s.name) }

// IsMessage reports whether the struct gets an AspnMessageType entry.
func (s *cStruct) IsMessage() bool {
	return strings.HasPrefix(s.snake, "measurement") || strings.HasPrefix(s.snake, "metadata") || s.snake == "image"
}

// Backend emits the ASPN C library: one header and source per struct plus the
// aggregate headers, runtime type helpers and meson.build.
type Backend struct {
	backend.NoInheritance

	acc    backend.Accumulator[cStruct]
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

// SetOutputRootFolder prepares <path>/src/aspn23 and removes stale sources.
func (b *Backend) SetOutputRootFolder(path string) error {
	b.root = path
	b.outDir = filepath.Join(path, "src", Dir)
	if err := os.MkdirAll(b.outDir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	if err := backend.RemoveStale(b.outDir, "*.h", "*.c"); err != nil {
		return fmt.Errorf("remove stale C files: %w", err)
	}
	return nil
}

func (b *Backend) BeginStruct(name string) error {
	b.logger.Debug("Generating ASPN-C", "struct", name)
	return b.acc.Begin(newCStruct(name))
}

func (b *Backend) ProcessClassDocstring(doc string) error {
	s, err := b.acc.Current()
	if err != nil {
		return err
	}
	s.doc = doc
	return nil
}

func (b *Backend) ProcessSimpleField(name, typeName, doc string, nullable bool) error {
	s, err := b.acc.Current()
	if err != nil {
		return err
	}
	if nullable {
		doc += "\nUse NaN if there is no value."
	}
	s.addField(doc, typeName+" "+name)
	if strings.HasPrefix(typeName, common.VersionPrefix+"Type") {
		s.includes = common.AppendUnique(s.includes, common.TrimVersionPrefix(typeName))
		s.params = append(s.params, typeName+"* "+name)
		s.nestedInit(name, typeName)
		return nil
	}
	s.params = append(s.params, typeName+" "+name)
	s.assignInit(name)
	return nil
}

func (b *Backend) ProcessStringField(name, doc string, nullable bool) error {
	s, err := b.acc.Current()
	if err != nil {
		return err
	}
	if nullable {
		s.nullable = true
		s.addField(doc+"\nSet to NULL if there is no value.", "char* "+common.NullableMacro+" "+name)
		s.params = append(s.params, "char* "+common.NullableMacro+" "+name)
	} else {
		s.addField(doc, "char* "+name)
		s.params = append(s.params, "char* "+name)
	}
	s.stringInit(name, nullable)
	return nil
}

func (b *Backend) ProcessEnum(name, enumType string, values []string, doc string, valueDocs []string) error {
	s, err := b.acc.Current()
	if err != nil {
		return err
	}
	members := make([]string, len(values))
	for i, v := range values {
		members[i] = common.FormatDocstring(valueDocs[i], common.Indent, common.DefaultDocLimit, common.DocBlock) + common.Indent + v
		s.enumValues = append(s.enumValues, strings.Fields(v)[0])
	}
	def := common.FormatDocstring(doc, "", common.DefaultDocLimit, common.DocBlock) +
		"enum " + enumType + " {\n" + strings.Join(members, ",\n") + "\n};"
	s.enumDefs = append(s.enumDefs, def)
	s.enumTypes = common.AppendUnique(s.enumTypes, enumType)

	decl := "enum " + enumType + " " + name
	s.addField(doc, decl)
	s.params = append(s.params, decl)
	s.assignInit(name)
	return nil
}

func (b *Backend) ProcessMatrixField(name, typeName string, x, y backend.Dim, doc string, nullable bool) error {
	s, err := b.acc.Current()
	if err != nil {
		return err
	}
	if x.IsFixed() != y.IsFixed() {
		return backend.ErrMixedDimensions
	}
	if nullable {
		doc += "\nThis matrix must contain all real numbers or all NaNs."
	}
	if x.IsFixed() {
		decl := fmt.Sprintf("%s %s[%d][%d]", typeName, name, x.Size, y.Size)
		s.addField(doc, decl)
		s.params = append(s.params, decl)
		s.fixedMatrixInit(name, typeName, x.Size, y.Size)
		return nil
	}
	decl := typeName + "* " + name
	if nullable {
		s.nullable = true
		decl = typeName + "* " + common.NullableMacro + " " + name
	}
	s.pointerFields = append(s.pointerFields, name)
	s.addField(doc, decl)
	s.params = append(s.params, decl)
	s.matrixPointerInit(name, typeName, x.Ref, y.Ref)
	return nil
}

func (b *Backend) ProcessDataPointerField(name, typeName string, length backend.Dim, doc string, nullable bool) error {
	s, err := b.acc.Current()
	if err != nil {
		return err
	}
	if common.IsVersionedType(typeName) {
		s.includes = common.AppendUnique(s.includes, common.TrimVersionPrefix(strings.TrimRight(typeName, "*")))
	}
	if length.IsFixed() {
		if nullable {
			doc += "\nThis array must contain all real numbers or all NaNs."
		}
		decl := fmt.Sprintf("%s %s[%d]", typeName, name, length.Size)
		s.addField(doc, decl)
		s.params = append(s.params, decl)
		s.fixedArrayInit(name, typeName, length.Size)
		return nil
	}
	decl := typeName + "* " + name
	if nullable {
		s.nullable = true
		doc += "\nSet to NULL if there is no value."
		decl = typeName + "* " + common.NullableMacro + " " + name
	}
	s.pointerFields = append(s.pointerFields, name)
	s.addField(doc, decl)
	s.params = append(s.params, decl)
	s.arrayPointerInit(name, typeName, length.Ref)
	return nil
}

// Generate renders every struct and then the aggregate files.
func (b *Backend) Generate() error {
	structs, err := b.acc.Finish()
	if err != nil {
		return err
	}
	for _, s := range structs {
		if err := b.writeHeader(s); err != nil {
			return err
		}
		if err := b.writeSource(s); err != nil {
			return err
		}
	}
	b.logger.Info("Generated ASPN-C structs", "count", len(structs), "dir", b.outDir)

	steps := []func([]*cStruct) error{
		b.writeCommonHeader,
		b.writeUnversionedHeader,
		b.writeMetaHeader,
		b.writeUtils,
		b.writeTypes,
		b.writeMeson,
	}
	for _, step := range steps {
		if err := step(structs); err != nil {
			return err
		}
	}
	return nil
}

func (s *cStruct) addField(doc, decl string) {
	s.fields = append(s.fields, common.FormatDocstring(doc, common.Indent, common.DefaultDocLimit, common.DocBlock)+common.Indent+decl)
}

// FuncBase converts a versioned type name into its function prefix,
// e.g. Aspn23TypeTimestamp -> aspn23_type_timestamp.
func FuncBase(typeName string) string {
	return strings.ToLower(common.PascalToSnake(typeName, false))
}
