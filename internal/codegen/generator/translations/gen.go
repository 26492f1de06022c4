// Package translations emits the Python modules that convert between the
// aspn23 dataclasses and the LCM or ROS message classes. One function pair is
// generated per struct: <snake>_to_<x> and <x>_to_<snake>.
package translations

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"text/template"

	"github.com/aspn-firehose/firehose/internal/codegen/backend"
	"github.com/aspn-firehose/firehose/internal/codegen/common"
)

const (
	FormatLCM = "lcmtranslations"
	FormatROS = "rostranslations"
)

// PyPackage is the package the dataclasses are imported from.
var PyPackage = strings.ToLower(common.VersionPrefix)

var primitives = []string{"float", "int", "bool", "str"}

const moduleTmpl = `from typing import TypeAlias, Union, Callable
import numpy as np

{{range .Imports}}{{.}}
{{end}}
{{- range .Structs}}

def {{.Snake}}_to_{{$.Suffix}}(old: {{.Name}}) -> {{$.Prefix}}{{.Name}}:
    msg = {{$.Prefix}}{{.Name}}()
{{- range .To}}
    msg.{{.}}
{{- end}}

    return msg


def {{$.Suffix}}_to_{{.Snake}}(old: {{$.Prefix}}{{.Name}}) -> {{.Name}}:
    return {{.Name}}(
{{- range .From}}
        {{.}},
{{- end}}
    )
{{end}}

AspnMsg: TypeAlias = Union[
{{- range .Messages}}
    {{.Name}},
{{- end}}
]

{{.Prefix}}Msg: TypeAlias = Union[
{{- range .Messages}}
    {{$.Prefix}}{{.Name}},
{{- end}}
]

to_{{.Suffix}}_map: dict[type[AspnMsg], Callable] = {
{{- range .Messages}}
    {{.Name}}: {{.Snake}}_to_{{$.Suffix}},
{{- end}}
}

from_{{.Suffix}}_map: dict[type[{{.Prefix}}Msg], Callable] = {
{{- range .Messages}}
    {{$.Prefix}}{{.Name}}: {{$.Suffix}}_to_{{.Snake}},
{{- end}}
}
{{- if .Decode}}

decode_{{.Suffix}}_map: dict[bytes, Callable] = {
{{- range .Messages}}
    {{$.Prefix}}{{.Name}}._get_packed_fingerprint(): {{$.Prefix}}{{.Name}}.decode,
{{- end}}
}
{{- end}}
`

const lcmInitTmpl = `# Follow Python export conventions:
# https://typing.readthedocs.io/en/latest/spec/distributing.html#import-conventions
from .lcm_translations import (
    AspnMsg as AspnMsg,
    LcmMsg as LcmMsg,
    to_lcm_map as to_lcm_map,
    from_lcm_map as from_lcm_map,
    decode_lcm_map as decode_lcm_map,
{{- range .}}
    lcm_to_{{.Snake}} as lcm_to_{{.Snake}},
    {{.Snake}}_to_lcm as {{.Snake}}_to_lcm,
{{- end}}
)
`

const rosInitTmpl = `# Follow Python export conventions:
# https://typing.readthedocs.io/en/latest/spec/distributing.html#import-conventions
from .aspn_ros_node import AspnRosNode as AspnRosNode
from .ros_translations import (
    AspnMsg, RosMsg, to_ros_map, from_ros_map
)
from .ros_translations import (
{{- range .}}
    ros_to_{{.Snake}} as ros_to_{{.Snake}},
    {{.Snake}}_to_ros as {{.Snake}}_to_ros,
{{- end}}
)
`

var moduleTemplate = template.Must(template.New("translations").Parse(moduleTmpl))

// dialect captures everything that differs between the LCM and ROS targets.
type dialect struct {
	format string
	prefix string
	suffix string
	// importForeign imports the generated message class of a struct.
	importForeign func(s *tStruct) string
	// fixedAsIs keeps fixed arrays unconverted; rospy accepts numpy arrays there.
	fixedAsIs bool
	// flatten stores matrices row major in a one dimensional sequence.
	flatten bool
	decode  bool
	init    *template.Template
}

var (
	lcmDialect = dialect{
		format: FormatLCM,
		prefix: "Lcm",
		suffix: "lcm",
		importForeign: func(s *tStruct) string {
			return fmt.Sprintf("from .%s import %s as Lcm%s", s.raw, s.raw, s.name)
		},
		decode: true,
		init:   template.Must(template.New("lcm init").Parse(lcmInitTmpl)),
	}
	rosDialect = dialect{
		format: FormatROS,
		prefix: "Ros",
		suffix: "ros",
		importForeign: func(s *tStruct) string {
			return fmt.Sprintf("from %s_ros_interfaces.msg import %s as Ros%s", PyPackage, s.name, s.name)
		},
		fixedAsIs: true,
		flatten:   true,
		init:      template.Must(template.New("ros init").Parse(rosInitTmpl)),
	}
)

// tStruct holds the assignments of one struct split in three buckets:
// statements shared by both directions, and the ones specific to each side.
type tStruct struct {
	raw      string
	name     string
	shared   []string
	to       []string
	from     []string
	assigned []string
	imports  []string
}

// Snake is the snake case name used in function and module names.
func (s *tStruct) Snake() string { return common.PascalToSnake(s.name, false) }

func (s *tStruct) addShared(field, expr string) {
	s.shared = append(s.shared, field+" = "+expr)
	s.assigned = append(s.assigned, field)
}

func (s *tStruct) addTo(field, expr string) {
	s.to = append(s.to, field+" = "+expr)
	s.assigned = append(s.assigned, field)
}

func (s *tStruct) addFrom(field, expr string) {
	s.from = append(s.from, field+" = "+expr)
}

type Backend struct {
	backend.NoInheritance

	d      dialect
	acc    backend.Accumulator[tStruct]
	logger *slog.Logger
	w      *backend.Writer
	outDir string
}

// NewLCM returns the dataclass <-> lcm-gen Python translation backend.
func NewLCM(logger *slog.Logger) *Backend {
	return &Backend{d: lcmDialect, logger: logger, w: backend.NewWriter(logger)}
}

// NewROS returns the dataclass <-> rosidl Python translation backend.
func NewROS(logger *slog.Logger) *Backend {
	return &Backend{d: rosDialect, logger: logger, w: backend.NewWriter(logger)}
}

func (b *Backend) Config() backend.Config {
	return backend.Config{
		Format:     b.d.format,
		Types:      backend.PythonTypes,
		StructName: backend.PascalStructName,
		Naming:     backend.TranslationNaming{},
	}
}

func (b *Backend) moduleFile() string { return b.d.suffix + "_translations.py" }

func (b *Backend) SetOutputRootFolder(path string) error {
	b.outDir = path
	if err := os.MkdirAll(path, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	return backend.RemoveStale(path, b.moduleFile())
}

func (b *Backend) BeginStruct(name string) error {
	return b.acc.Begin(&tStruct{raw: name, name: common.SnakeToPascal(name)})
}

func (b *Backend) ProcessClassDocstring(string) error {
	_, err := b.acc.Current()
	return err
}

func isPrimitive(typeName string) bool { return slices.Contains(primitives, typeName) }

func orElse(field, fallback string, nullable bool) string {
	if !nullable {
		return ""
	}
	return fmt.Sprintf(" if old.%s is not None else %s", field, fallback)
}

// ProcessSimpleField skips length fields; they are derived from their arrays.
func (b *Backend) ProcessSimpleField(name, typeName, _ string, nullable bool) error {
	s, err := b.acc.Current()
	if err != nil {
		return err
	}
	if common.IsLengthField(name) {
		return nil
	}
	old := "old." + name
	switch {
	case isPrimitive(typeName) && !nullable:
		s.addShared(name, old)
	case isPrimitive(typeName):
		// LCM and ROS messages have no None; default-initialize instead.
		s.addTo(name, old+orElse(name, typeName+"()", true))
		s.addFrom(name, old)
	default:
		snake := common.PascalToSnake(typeName, false)
		s.addTo(name, fmt.Sprintf("%s_to_%s(%s)%s", snake, b.d.suffix, old, orElse(name, b.d.prefix+typeName+"()", nullable)))
		s.addFrom(name, fmt.Sprintf("%s_to_%s(%s)", b.d.suffix, snake, old))
	}
	return nil
}

func (b *Backend) ProcessStringField(name, doc string, nullable bool) error {
	return b.ProcessSimpleField(name, "str", doc, nullable)
}

func (b *Backend) ProcessDataPointerField(name, typeName string, length backend.Dim, _ string, nullable bool) error {
	s, err := b.acc.Current()
	if err != nil {
		return err
	}
	old := "old." + name
	empty := orElse(name, "[]", nullable)
	switch {
	case length.IsFixed() && b.d.fixedAsIs:
		s.addTo(name, old+empty)
		s.addFrom(name, "np.array("+old+")")
	case length.IsFixed() || isPrimitive(typeName):
		s.addTo(name, old+".tolist()"+empty)
		s.addFrom(name, "np.array("+old+")")
	default:
		snake := common.PascalToSnake(typeName, false)
		s.addTo(name, fmt.Sprintf("[%s_to_%s(x) for x in %s]%s", snake, b.d.suffix, old, empty))
		s.addFrom(name, fmt.Sprintf("[%s_to_%s(x) for x in %s]", b.d.suffix, snake, old))
	}
	b.lengthField(s, length, "len("+old+")", name, nullable)
	return nil
}

// ProcessMatrixField converts between numpy matrices and nested lists, or flat
// row major lists for targets without two dimensional arrays.
func (b *Backend) ProcessMatrixField(name, typeName string, x, y backend.Dim, doc string, nullable bool) error {
	if !b.d.flatten {
		if err := b.ProcessDataPointerField(name, typeName, x, doc, nullable); err != nil {
			return err
		}
		s, _ := b.acc.Current()
		b.lengthField(s, y, fmt.Sprintf("old.%s.shape[1]", name), name, nullable)
		return nil
	}

	s, err := b.acc.Current()
	if err != nil {
		return err
	}
	old := "old." + name
	b.lengthField(s, x, fmt.Sprintf("%s.shape[0]", old), name, nullable)
	b.lengthField(s, y, fmt.Sprintf("%s.shape[1]", old), name, nullable)
	s.addTo(name, old+".flatten().tolist()"+orElse(name, "[]", nullable))
	s.addFrom(name, fmt.Sprintf("np.array(%s).reshape(%s, %s)", old, reshapeDim(x), reshapeDim(y)))
	return nil
}

func reshapeDim(d backend.Dim) string {
	if d.IsFixed() {
		return d.String()
	}
	return "old." + d.Ref
}

// lengthField adds the length counter the foreign message stores inline. A
// counter shared by several arrays is assigned once, from the first of them.
func (b *Backend) lengthField(s *tStruct, d backend.Dim, expr, field string, nullable bool) {
	if d.IsFixed() || slices.Contains(s.assigned, d.Ref) {
		return
	}
	s.addTo(d.Ref, expr+orElse(field, "0", nullable))
}

func (b *Backend) ProcessEnum(name, _ string, _ []string, _ string, _ []string) error {
	s, err := b.acc.Current()
	if err != nil {
		return err
	}
	class := backend.PyNaming{}.EnumTypeName(s.raw, name)
	s.imports = append(s.imports, fmt.Sprintf("from %s.%s import %s", PyPackage, s.Snake(), class))
	s.addTo(name, "old."+name+".value")
	s.addFrom(name, fmt.Sprintf("%s(old.%s)", class, name))
	return nil
}

type function struct {
	Name  string
	Snake string
	To    []string
	From  []string
}

func (b *Backend) Generate() error {
	structs, err := b.acc.Finish()
	if err != nil {
		return err
	}
	var aspnImports, foreignImports []string
	funcs := make([]function, 0, len(structs))
	var messages []function
	for _, s := range structs {
		aspnImports = append(aspnImports, fmt.Sprintf("from %s.%s import %s", PyPackage, s.Snake(), s.name))
		aspnImports = append(aspnImports, s.imports...)
		foreignImports = append(foreignImports, b.d.importForeign(s))

		fn := function{
			Name:  s.name,
			Snake: s.Snake(),
			To:    append(slices.Clone(s.shared), s.to...),
			From:  append(slices.Clone(s.shared), s.from...),
		}
		funcs = append(funcs, fn)
		if !strings.HasPrefix(s.name, "Type") {
			messages = append(messages, fn)
		}
	}

	out := filepath.Join(b.outDir, b.moduleFile())
	data := map[string]any{
		"Imports":  append(common.SortedUnique(aspnImports), foreignImports...),
		"Structs":  funcs,
		"Messages": messages,
		"Prefix":   b.d.prefix,
		"Suffix":   b.d.suffix,
		"Decode":   b.d.decode,
	}
	if err := b.w.Render(out, moduleTemplate, data); err != nil {
		return err
	}
	b.logger.Info("Generated translations", "format", b.d.format, "file", out, "structs", len(funcs))

	pkg := filepath.Join(b.outDir, "__init__.py")
	if err := b.w.Render(pkg, b.d.init, funcs); err != nil {
		return err
	}
	b.logger.Info("Generated __init__.py", "file", pkg)
	return nil
}
