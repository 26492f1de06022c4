// Package ros emits ROS 2 interface definitions: msg/<Pascal>.msg per struct
// plus the CMakeLists.txt and package.xml of the interface package.
package ros

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

const Format = "ros"

// Package is the ROS interface package name.
var Package = strings.ToLower(common.VersionPrefix) + "_ros_interfaces"

const msgTmpl = `{{banner "#"}}
{{.Doc}}

{{join .Fields "\n\n"}}
`

const cmakeTmpl = `cmake_minimum_required(VERSION 3.8)
project({{.Package}})

if(CMAKE_COMPILER_IS_GNUCXX OR CMAKE_CXX_COMPILER_ID MATCHES "Clang")
  add_compile_options(-Wall -Wextra -Wpedantic)
endif()

# find dependencies
find_package(ament_cmake REQUIRED)
find_package(rosidl_default_generators REQUIRED)

rosidl_generate_interfaces({{.Package}}
{{- range .Msgs}}
  "msg/{{.}}"
{{- end}}
)

if(BUILD_TESTING)
  find_package(ament_lint_auto REQUIRED)
  ament_lint_auto_find_test_dependencies()
endif()

ament_package()
`

const packageTmpl = `<?xml version="1.0"?>
<?xml-model href="http://download.ros.org/schema/package_format3.xsd" schematypens="http://www.w3.org/2001/XMLSchema"?>
<package format="3">
  <name>{{.Package}}</name>
  <version>{{.Version}}</version>
  <description>ASPN message definitions generated by firehose</description>
  <maintainer email="aspn@example.com">firehose</maintainer>
  <license>MIT</license>

  <buildtool_depend>ament_cmake</buildtool_depend>
  <buildtool_depend>rosidl_default_generators</buildtool_depend>
  <exec_depend>rosidl_default_runtime</exec_depend>
  <member_of_group>rosidl_interface_packages</member_of_group>

  <test_depend>ament_lint_auto</test_depend>
  <test_depend>ament_lint_common</test_depend>

  <export>
    <build_type>ament_cmake</build_type>
  </export>
</package>
`

var (
	msgTemplate     = template.Must(template.New("ros msg").Funcs(common.TplFuncs()).Parse(msgTmpl))
	cmakeTemplate   = template.Must(template.New("ros cmake").Parse(cmakeTmpl))
	packageTemplate = template.Must(template.New("ros package").Parse(packageTmpl))
)

type rosStruct struct {
	name   string
	doc    string
	fields []string
}

// File is the message file name, e.g. MeasurementImu.msg.
func (s *rosStruct) File() string { return common.SnakeToPascal(s.name) + ".msg" }

type Backend struct {
	backend.NoInheritance

	acc    backend.Accumulator[rosStruct]
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
		Types:       backend.ROSTypes,
		StructName:  backend.PascalStructName,
		Naming:      backend.ROSNaming{},
		UnitsInDocs: true,
	}
}

func (b *Backend) SetOutputRootFolder(path string) error {
	b.outDir = path
	msgDir := filepath.Join(path, "msg")
	if err := os.MkdirAll(msgDir, 0o755); err != nil {
		return fmt.Errorf("create msg directory: %w", err)
	}
	return backend.RemoveStale(msgDir, "*.msg")
}

func (b *Backend) BeginStruct(name string) error {
	return b.acc.Begin(&rosStruct{name: name, doc: "<Missing ROS Docstring>"})
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

// ProcessDataPointerField maps fixed lengths to bounded arrays and length
// references to unbounded ones.
func (b *Backend) ProcessDataPointerField(name, typeName string, length backend.Dim, doc string, _ bool) error {
	if !length.IsFixed() {
		return b.field(doc+"\nNote: array length is "+length.Ref, typeName+"[] "+name)
	}
	return b.field(doc, fmt.Sprintf("%s[%d] %s", typeName, length.Size, name))
}

// ProcessMatrixField flattens the matrix into a one dimensional array in row
// major order.
func (b *Backend) ProcessMatrixField(name, typeName string, x, y backend.Dim, doc string, nullable bool) error {
	doc += fmt.Sprintf("\nNote: field represents a %s x %s matrix", x, y)
	if x.IsFixed() && y.IsFixed() {
		return b.ProcessDataPointerField(name, typeName, backend.Fixed(x.Size*y.Size), doc, nullable)
	}
	return b.field(doc, typeName+"[] "+name)
}

func (b *Backend) ProcessEnum(name, _ string, values []string, doc string, valueDocs []string) error {
	members := make([]common.EnumMember, 0, len(values))
	for i, v := range values {
		m, ok := common.ParseEnumMember(v, i)
		if !ok {
			return fmt.Errorf("enum value %q: invalid override", v)
		}
		m.Doc = valueDocs[i]
		members = append(members, m)
	}
	enumType := EnumStorageType(common.MaxEnumValue(members))
	if err := b.field(doc, enumType+" "+name); err != nil {
		return err
	}
	for _, m := range members {
		if err := b.field(m.Doc, fmt.Sprintf("%s %s=%d", enumType, m.Name, m.Value)); err != nil {
			return err
		}
	}
	return nil
}

// EnumStorageType picks the narrowest unsigned ROS integer holding maxValue.
func EnumStorageType(maxValue int) string {
	if maxValue <= math.MaxUint8 {
		return "uint8"
	}
	return "uint16"
}

func (b *Backend) field(doc, decl string) error {
	s, err := b.acc.Current()
	if err != nil {
		return err
	}
	s.fields = append(s.fields, common.FormatDocstring(doc, "", common.DefaultDocLimit, common.DocHash)+"\n"+decl)
	return nil
}

func (b *Backend) Generate() error {
	structs, err := b.acc.Finish()
	if err != nil {
		return err
	}
	msgs := make([]string, 0, len(structs))
	for _, s := range structs {
		out := filepath.Join(b.outDir, "msg", s.File())
		data := map[string]any{
			"Doc":    common.FormatDocstring(s.doc, "", common.DefaultDocLimit, common.DocHash),
			"Fields": s.fields,
		}
		if err := b.w.Render(out, msgTemplate, data); err != nil {
			return err
		}
		b.logger.Debug("Generated ROS message", "file", out)
		msgs = append(msgs, s.File())
	}
	b.logger.Info("Generated ROS messages", "count", len(msgs), "dir", b.outDir)

	version, err := common.GetVersion()
	if err != nil {
		return fmt.Errorf("get version: %w", err)
	}
	// package.xml only accepts a plain x.y.z version.
	version = strings.SplitN(version, "-", 2)[0]
	pkg := map[string]any{"Package": Package, "Msgs": msgs, "Version": version}

	cmake := filepath.Join(b.outDir, "CMakeLists.txt")
	if err := b.w.Render(cmake, cmakeTemplate, pkg); err != nil {
		return err
	}
	b.logger.Info("Generated CMakeLists.txt", "file", cmake)

	manifest := filepath.Join(b.outDir, "package.xml")
	if err := b.w.Render(manifest, packageTemplate, pkg); err != nil {
		return err
	}
	b.logger.Info("Generated package.xml", "file", manifest)
	return nil
}
