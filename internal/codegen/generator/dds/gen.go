// Package dds emits OMG IDL for the DDS bindings, one <Pascal>.idl per struct
// inside the aspn23_dds module.
package dds

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"text/template"
	"unicode"

	"github.com/aspn-firehose/firehose/internal/codegen/backend"
	"github.com/aspn-firehose/firehose/internal/codegen/common"
)

const Format = "dds"

// Module is the IDL module every struct is declared in.
var Module = strings.ToLower(common.VersionPrefix) + "_dds"

// placeholder fills enums without members; fastddsgen rejects empty enums.
var placeholder = strings.ToUpper(common.VersionPrefix) + "_PLACEHOLDER"

const idlTmpl = `{{banner "//"}}
#ifndef {{.Guard}}
#define {{.Guard}}

{{range .Includes}}{{.}}
{{end}}
module {{.Module}} {
{{range .Enums}}
{{.}}
{{end}}
@topic
struct {{.Name}} {
{{range .Fields}}{{.}}
{{end}}};
};

#endif
`

var idlTemplate = template.Must(template.New("idl").Funcs(common.TplFuncs()).Parse(idlTmpl))

type ddsStruct struct {
	name     string
	includes []string
	enums    []string
	fields   []string
}

type Backend struct {
	backend.NoInheritance

	acc    backend.Accumulator[ddsStruct]
	logger *slog.Logger
	w      *backend.Writer
	outDir string
}

func New(logger *slog.Logger) *Backend {
	return &Backend{logger: logger, w: backend.NewWriter(logger)}
}

func (b *Backend) Config() backend.Config {
	return backend.Config{
		Format:     Format,
		Types:      backend.DDSTypes,
		StructName: backend.PascalStructName,
		Naming:     backend.DDSNaming{},
	}
}

func (b *Backend) SetOutputRootFolder(path string) error {
	b.outDir = path
	if err := os.MkdirAll(path, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	return backend.RemoveStale(path, "*.idl")
}

func (b *Backend) BeginStruct(name string) error {
	return b.acc.Begin(&ddsStruct{name: common.SnakeToPascal(name)})
}

// ProcessClassDocstring is a no-op; the IDL output carries no comments.
func (b *Backend) ProcessClassDocstring(string) error {
	_, err := b.acc.Current()
	return err
}

// nested reports whether typeName is another generated struct. Primitive IDL
// types are lower case and enums of this struct share its name as a prefix.
func (s *ddsStruct) nested(typeName string) bool {
	r := []rune(typeName)
	return len(r) > 0 && unicode.IsUpper(r[0]) && !strings.HasPrefix(typeName, s.name)
}

func (s *ddsStruct) include(typeName string) {
	s.includes = append(s.includes, fmt.Sprintf("#include <%s/%s.idl>", Module, typeName))
}

func optional(nullable bool) string {
	if nullable {
		return "@optional "
	}
	return ""
}

func (b *Backend) ProcessSimpleField(name, typeName, _ string, nullable bool) error {
	s, err := b.acc.Current()
	if err != nil {
		return err
	}
	if s.nested(typeName) {
		s.include(typeName)
		typeName = Module + "::" + typeName
	}
	s.fields = append(s.fields, fmt.Sprintf("%s%s %s;", optional(nullable), typeName, name))
	return nil
}

func (b *Backend) ProcessStringField(name, doc string, nullable bool) error {
	return b.ProcessSimpleField(name, "string", doc, nullable)
}

// ProcessDataPointerField maps fixed lengths to IDL arrays and everything else
// to sequences.
func (b *Backend) ProcessDataPointerField(name, typeName string, length backend.Dim, _ string, nullable bool) error {
	s, err := b.acc.Current()
	if err != nil {
		return err
	}
	elem := typeName
	if s.nested(typeName) {
		s.include(typeName)
		elem = Module + "::" + typeName
	}
	field := fmt.Sprintf("%ssequence<%s> %s;", optional(nullable), elem, name)
	if length.IsFixed() && length.Size > 0 {
		field = fmt.Sprintf("%s%s %s[%d];", optional(nullable), typeName, name, length.Size)
	}
	s.fields = append(s.fields, field)
	return nil
}

// ProcessMatrixField stores matrices of any size as a row major sequence.
func (b *Backend) ProcessMatrixField(name, typeName string, _, _ backend.Dim, doc string, nullable bool) error {
	return b.ProcessDataPointerField(name, typeName, backend.Dim{}, doc, nullable)
}

func (b *Backend) ProcessEnum(name, enumType string, values []string, _ string, _ []string) error {
	s, err := b.acc.Current()
	if err != nil {
		return err
	}
	members := make([]string, 0, len(values))
	for _, v := range values {
		parts := strings.Split(v, "=")
		member := strings.TrimSpace(parts[0])
		if len(parts) > 1 {
			member = fmt.Sprintf("@value(%s) %s", strings.TrimSpace(parts[1]), member)
		}
		members = append(members, member)
	}
	if len(members) == 0 {
		members = append(members, placeholder)
	}
	s.enums = append(s.enums, fmt.Sprintf("enum %s {\n%s\n};", enumType, strings.Join(members, ",\n")))
	s.fields = append(s.fields, fmt.Sprintf("%s %s;", enumType, name))
	return nil
}

// Guard is the include guard of the IDL file declaring name.
func Guard(name string) string {
	return strings.ToUpper(fmt.Sprintf("__%s_%s__", Module, strings.Trim(name, "_")))
}

func (b *Backend) Generate() error {
	structs, err := b.acc.Finish()
	if err != nil {
		return err
	}
	for _, s := range structs {
		includes := common.SortedUnique(s.includes)
		out := filepath.Join(b.outDir, s.name+".idl")
		data := map[string]any{
			"Guard":    Guard(s.name),
			"Includes": includes,
			"Module":   Module,
			"Enums":    s.enums,
			"Name":     s.name,
			"Fields":   s.fields,
		}
		if err := b.w.Render(out, idlTemplate, data); err != nil {
			return fmt.Errorf("%s: %w", s.name, err)
		}
		b.logger.Debug("Generated IDL", "file", out)
	}
	b.logger.Info("Generated DDS IDL", "count", len(structs), "dir", b.outDir)
	return nil
}
