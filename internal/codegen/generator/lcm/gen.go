// Package lcm emits LCM message definitions, one .lcm file per struct, and
// the meson.build used to compile the lcm-gen C output.
package lcm

import (
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/aspn-firehose/firehose/internal/codegen/backend"
	"github.com/aspn-firehose/firehose/internal/codegen/common"
)

const Format = "lcm"

// Package is the LCM package every struct is declared in.
var Package = strings.ToLower(common.VersionPrefix) + "_lcm"

// docLimit keeps LCM field comments on one line.
const docLimit = 999

const structTmpl = `
{{banner "//"}}
package {{.Package}};

{{.Doc}}
struct {{.Name}} {

    // Non ASPN. Do not use. Extra field encoding the struct name to disambiguate LCM type fingerprint hashes.
    int8_t icd_{{.Name}};

{{range .Fields}}{{.}};

{{end}}}
`

const mesonTmpl = `
aspn_lcm_c_inc = include_directories('include', is_system : true)

aspn_lcm_c_srcs = [{{range .}}
	'src/{{.}}.c',{{end}}
]


override_options_lcm = []
if lcm_dep.version().version_compare('<1.5.0')
    override_options_lcm = 'warning_level=0'
endif

aspn_lcm_c_lib = static_library('aspn-lcm',
                            sources: aspn_lcm_c_srcs,
                            include_directories: aspn_lcm_c_inc,
                            dependencies: lcm_dep,
                            override_options: override_options_lcm)
aspn_lcm_c_dep = declare_dependency(include_directories: aspn_lcm_c_inc,
                                    link_with: aspn_lcm_c_lib)
meson.override_dependency('aspn23-lcm', aspn_lcm_c_dep)
`

var (
	structTemplate = template.Must(template.New("lcm struct").Funcs(common.TplFuncs()).Parse(structTmpl))
	mesonTemplate  = template.Must(template.New("lcm meson").Parse(mesonTmpl))
)

type lcmStruct struct {
	name   string
	doc    string
	fields []string
}

type Backend struct {
	backend.NoInheritance

	acc    backend.Accumulator[lcmStruct]
	logger *slog.Logger
	w      *backend.Writer
	outDir string
}

func New(logger *slog.Logger) *Backend {
	return &Backend{logger: logger, w: backend.NewWriter(logger)}
}

func (b *Backend) Config() backend.Config {
	return backend.Config{
		Format:      Format,
		Types:       backend.LCMTypes,
		StructName:  backend.SnakeStructName,
		Naming:      backend.LCMNaming{},
		UnitsInDocs: true,
	}
}

func (b *Backend) SetOutputRootFolder(path string) error {
	b.outDir = path
	if err := os.MkdirAll(path, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	return backend.RemoveStale(path, "*.lcm")
}

func (b *Backend) BeginStruct(name string) error {
	return b.acc.Begin(&lcmStruct{name: name, doc: "<Missing LCM Docstring>"})
}

func (b *Backend) ProcessClassDocstring(doc string) error {
	s, err := b.acc.Current()
	if err != nil {
		return err
	}
	s.doc = doc
	return nil
}

func (b *Backend) ProcessSimpleField(name, typeName, doc string, _ bool) error {
	return b.field(doc, typeName+" "+name)
}

func (b *Backend) ProcessStringField(name, doc string, _ bool) error {
	return b.field(doc, "string "+name)
}

func (b *Backend) ProcessDataPointerField(name, typeName string, length backend.Dim, doc string, _ bool) error {
	return b.field(doc, fmt.Sprintf("%s %s[%s]", typeName, name, length))
}

func (b *Backend) ProcessMatrixField(name, typeName string, x, y backend.Dim, doc string, _ bool) error {
	return b.field(doc, fmt.Sprintf("%s %s[%s][%s]", typeName, name, x, y))
}

// ProcessEnum declares the enum field and one constant per member. The
// storage type is int8_t unless a member value does not fit.
func (b *Backend) ProcessEnum(name, _ string, values []string, doc string, valueDocs []string) error {
	members := make([]common.EnumMember, 0, len(values))
	for i, v := range values {
		m, ok := common.ParseEnumMember(v, i)
		if !ok {
			b.logger.Warn("Malformed enum value override", "field", name, "value", v)
		}
		m.Doc = valueDocs[i]
		members = append(members, m)
	}
	enumType := EnumStorageType(common.MaxEnumValue(members))

	if err := b.field(doc, enumType+" "+name); err != nil {
		return err
	}
	for _, m := range members {
		if err := b.field(m.Doc, fmt.Sprintf("const %s %s = %d", enumType, m.Name, m.Value)); err != nil {
			return err
		}
	}
	return nil
}

// EnumStorageType picks the narrowest signed LCM integer holding maxValue.
func EnumStorageType(maxValue int) string {
	if maxValue <= math.MaxInt8 {
		return "int8_t"
	}
	return "int16_t"
}

func (b *Backend) field(doc, decl string) error {
	s, err := b.acc.Current()
	if err != nil {
		return err
	}
	comment := common.FormatDocstring(doc, common.Indent, docLimit, common.DocDoubleSlash)
	s.fields = append(s.fields, comment+"\n"+common.Indent+decl)
	return nil
}

func (b *Backend) Generate() error {
	structs, err := b.acc.Finish()
	if err != nil {
		return err
	}
	var sources []string
	for _, s := range structs {
		out := filepath.Join(b.outDir, s.name+".lcm")
		data := map[string]any{
			"Package": Package,
			"Name":    s.name,
			"Doc":     common.FormatDocstring(s.doc, "", common.DefaultDocLimit, common.DocDoubleSlash),
			"Fields":  s.fields,
		}
		if err := b.w.Render(out, structTemplate, data); err != nil {
			return err
		}
		b.logger.Debug("Generated LCM struct", "file", out)
		sources = append(sources, Package+"_"+s.name)
	}
	b.logger.Info("Generated LCM structs", "count", len(structs), "dir", b.outDir)
	return b.writeMeson(sources)
}

// writeMeson places the build file next to the lcm-gen C output in ../lcm/c.
func (b *Backend) writeMeson(sources []string) error {
	out := filepath.Join(b.outDir, "..", "lcm", "c", "meson.build")
	if err := b.w.Render(out, mesonTemplate, sources); err != nil {
		return err
	}
	b.logger.Info("Generated meson.build", "file", out)
	return nil
}
