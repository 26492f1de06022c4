// Package py emits Python dataclasses, one module per struct below
// src/aspn23, plus the package __init__.py and the AspnBase protocol.
package py

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"text/template"

	"github.com/aspn-firehose/firehose/internal/codegen/backend"
	"github.com/aspn-firehose/firehose/internal/codegen/common"
)

const Format = "py"

// Dir is the Python package directory below src/.
var Dir = strings.ToLower(common.VersionPrefix)

// lineLength matches the formatter line length used for generated Python.
const lineLength = 88

const pyBanner = `"""
This code is generated via firehose.
DO NOT hand edit code.  Make any changes required using the firehose repo instead.
"""
`

const structTmpl = pyBanner + `
from enum import Enum
from dataclasses import dataclass
from typing import List
from typing import Optional
import numpy as np

{{range .Imports}}{{.}}
{{end}}
{{range .Enums}}
{{.}}
{{end}}

@dataclass
class {{.Name}}{{if .Base}}(AspnBase){{end}}:
    """
    {{.Doc}}

    ### Attributes
{{join .AttrDocs "\n"}}
    """

{{join .Fields "\n"}}
`

const initTmpl = `# Follow Python export conventions:
# https://typing.readthedocs.io/en/latest/spec/distributing.html#import-conventions
from .aspn_base import AspnBase as AspnBase
{{range .}}from .{{.Module}} import {{.Name}} as {{.Name}}{{range .Enums}}, {{.}} as {{.}}{{end}}
{{end}}`

const baseTmpl = pyBanner + `
from typing import Protocol

class AspnBase(Protocol):
    pass
`

var (
	structTemplate = template.Must(template.New("py struct").Funcs(common.TplFuncs()).Parse(structTmpl))
	initTemplate   = template.Must(template.New("py init").Parse(initTmpl))
	baseTemplate   = template.Must(template.New("py base").Parse(baseTmpl))
)

type pyStruct struct {
	name      string
	doc       string
	imports   []string
	enums     []string
	enumNames []string
	attrDocs  []string
	fields    []string
}

// Module is the Python module name of the struct, e.g. measurement_IMU.
func (s *pyStruct) Module() string { return common.PascalToSnake(s.name, false) }

// Base reports whether the dataclass derives from AspnBase. Nested types do not.
func (s *pyStruct) Base() bool { return !strings.HasPrefix(s.name, "Type") }

func (s *pyStruct) importType(typeName string) {
	if strings.HasPrefix(typeName, "Type") {
		s.imports = append(s.imports, fmt.Sprintf("from .%s import %s", common.PascalToSnake(typeName, false), typeName))
	}
}

// attribute records the dataclass field and its entry in the Attributes section.
func (s *pyStruct) attribute(name, typehint, doc string) {
	entry := fmt.Sprintf("\n%s%s - %s:", common.Indent, name, typehint)
	if text := common.WrapLine(doc, common.Indent, lineLength-3*len(common.Indent), ""); text != "" {
		for _, line := range strings.Split(text, "\n") {
			entry += "\n" + strings.Repeat(common.Indent, 3) + strings.TrimSpace(line)
		}
	}
	s.attrDocs = append(s.attrDocs, entry)
	s.fields = append(s.fields, fmt.Sprintf("%s%s: %s", common.Indent, name, typehint))
}

type Backend struct {
	backend.NoInheritance

	acc    backend.Accumulator[pyStruct]
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
		Types:      backend.PythonTypes,
		StructName: backend.PascalStructName,
		Naming:     backend.PyNaming{},
	}
}

func (b *Backend) SetOutputRootFolder(path string) error {
	b.outDir = filepath.Join(path, "src", Dir)
	if err := os.MkdirAll(b.outDir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	return backend.RemoveStale(b.outDir, "*.py")
}

func (b *Backend) BeginStruct(name string) error {
	return b.acc.Begin(&pyStruct{name: common.SnakeToPascal(name), doc: "<Missing class docstring!>"})
}

func (b *Backend) ProcessClassDocstring(doc string) error {
	s, err := b.acc.Current()
	if err != nil {
		return err
	}
	s.doc = common.WrapLine(doc, common.Indent, common.DefaultDocLimit, "")
	return nil
}

func optional(typehint string, nullable bool) string {
	if nullable {
		return "Optional[" + typehint + "]"
	}
	return typehint
}

// ProcessSimpleField skips length fields; Python sequences carry their own length.
func (b *Backend) ProcessSimpleField(name, typeName, doc string, nullable bool) error {
	s, err := b.acc.Current()
	if err != nil {
		return err
	}
	if common.IsLengthField(name) {
		return nil
	}
	s.importType(typeName)
	s.attribute(name, optional(typeName, nullable), doc)
	return nil
}

func (b *Backend) ProcessStringField(name, doc string, nullable bool) error {
	return b.ProcessSimpleField(name, "str", doc, nullable)
}

// ProcessDataPointerField uses numpy arrays for numeric elements and lists
// for nested structs.
func (b *Backend) ProcessDataPointerField(name, typeName string, length backend.Dim, doc string, nullable bool) error {
	s, err := b.acc.Current()
	if err != nil {
		return err
	}
	typehint := "List[" + typeName + "]"
	switch {
	case length.IsFixed():
		typehint = fmt.Sprintf("np.ndarray[%s, (%d)]", typeName, length.Size)
	case typeName == "float" || typeName == "int":
		typehint = "np.ndarray[" + typeName + "]"
	}
	s.importType(typeName)
	s.attribute(name, optional(typehint, nullable), doc)
	return nil
}

func (b *Backend) ProcessMatrixField(name, typeName string, x, y backend.Dim, doc string, nullable bool) error {
	s, err := b.acc.Current()
	if err != nil {
		return err
	}
	typehint := fmt.Sprintf("np.ndarray[%s, (%s, %s)]", typeName, shape(x), shape(y))
	s.attribute(name, optional(typehint, nullable), doc)
	return nil
}

// shape renders a fixed dimension as its size and a length reference as None.
func shape(d backend.Dim) string {
	if d.IsFixed() {
		return strconv.Itoa(d.Size)
	}
	return "None"
}

func (b *Backend) ProcessEnum(name, enumType string, values []string, doc string, valueDocs []string) error {
	s, err := b.acc.Current()
	if err != nil {
		return err
	}
	var class strings.Builder
	fmt.Fprintf(&class, "class %s(Enum):", enumType)
	class.WriteString(common.FormatDocstring(doc, common.Indent, lineLength, common.DocTripleQuote))
	for i, v := range values {
		m, ok := common.ParseEnumMember(v, i)
		if !ok {
			return fmt.Errorf("enum value %q: invalid override", v)
		}
		fmt.Fprintf(&class, "%s%s = %d\n", common.Indent, m.Name, m.Value)
		if valueDocs[i] != "" {
			class.WriteString(strings.TrimPrefix(common.FormatDocstring(valueDocs[i], common.Indent, lineLength, common.DocTripleQuote), "\n"))
		}
	}
	s.enums = append(s.enums, class.String())
	s.enumNames = append(s.enumNames, enumType)
	s.attribute(name, enumType, doc)
	return nil
}

type export struct {
	Module string
	Name   string
	Enums  []string
}

func (b *Backend) Generate() error {
	structs, err := b.acc.Finish()
	if err != nil {
		return err
	}
	exports := make([]export, 0, len(structs))
	for _, s := range structs {
		imports := common.SortedUnique(s.imports)
		if s.Base() {
			imports = append([]string{"from .aspn_base import AspnBase"}, imports...)
		}
		out := filepath.Join(b.outDir, s.Module()+".py")
		data := map[string]any{
			"Imports":  imports,
			"Enums":    s.enums,
			"Name":     s.name,
			"Base":     s.Base(),
			"Doc":      s.doc,
			"AttrDocs": s.attrDocs,
			"Fields":   s.fields,
		}
		if err := b.w.Render(out, structTemplate, data); err != nil {
			return fmt.Errorf("%s: %w", s.name, err)
		}
		b.logger.Debug("Generated Python dataclass", "file", out)
		exports = append(exports, export{Module: s.Module(), Name: s.name, Enums: s.enumNames})
	}
	b.logger.Info("Generated Python dataclasses", "count", len(structs), "dir", b.outDir)

	pkg := filepath.Join(b.outDir, "__init__.py")
	if err := b.w.Render(pkg, initTemplate, exports); err != nil {
		return err
	}
	b.logger.Info("Generated __init__.py", "file", pkg)

	base := filepath.Join(b.outDir, "aspn_base.py")
	if err := b.w.Render(base, baseTemplate, nil); err != nil {
		return err
	}
	b.logger.Info("Generated aspn_base.py", "file", base)
	return nil
}
