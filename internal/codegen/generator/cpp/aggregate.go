package cpp

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/aspn-firehose/firehose/internal/codegen/common"
)

// message is one AspnMessageType case of the root helpers.
type message struct {
	Enum  string
	Name  string
	CName string
}

func messages(structs []*cppStruct) (all, timed []message) {
	for _, s := range structs {
		if !s.isMessage() || s.headerPath == "" {
			continue
		}
		m := message{Enum: "ASPN_" + strings.ToUpper(s.snake), Name: s.name, CName: s.cName}
		all = append(all, m)
		if f := s.field("time_of_validity"); f != nil && f.kind == kindNested && f.class() == timestampClass {
			timed = append(timed, m)
		}
	}
	return all, timed
}

func (b *Backend) writeRoot(dir string, v Variant, structs []*cppStruct, hasHeader bool) error {
	var classes []string
	for _, s := range structs {
		classes = append(classes, s.name)
	}
	all, timed := messages(structs)
	data := map[string]any{
		"Dir":       Dir,
		"Variant":   v.Name,
		"Namespace": v.Namespace(),
		"Alias":     "aspn_" + v.Name,
		"Prefix":    common.VersionPrefix,
		"Classes":   classes,
		"HasHeader": hasHeader,
		"Messages":  all,
		"Timed":     timed,
	}
	base := filepath.Join(dir, "aspn_"+v.Name)
	if err := b.w.Render(base+".hpp", rootHeaderTemplate, data); err != nil {
		return err
	}
	if err := b.w.Render(base+".cpp", rootSourceTemplate, data); err != nil {
		return err
	}
	b.logger.Debug("Generated C++ root header", "file", base+".hpp")
	return nil
}

// pyModule is the name of the Python extension built from the bindings.
var pyModule = Dir + "_xtensor"

func (b *Backend) writeBindings(dir string, v Variant, structs []*cppStruct, headerFields []*field) error {
	var enums []string
	if headerFields != nil {
		all, _ := messages(structs)
		values := []string{"ASPN_UNDEFINED"}
		for _, m := range all {
			values = append(values, m.Enum)
		}
		values = append(values, "ASPN_EXTENDED_BEGIN", "ASPN_EXTENDED_END")
		enums = append(enums, nativeEnum(common.VersionPrefix+"MessageType", "AspnMessageType", values))
	}

	var classes []classView
	hasTimestamp := false
	for _, s := range structs {
		for _, f := range s.fields {
			if f.kind != kindEnum {
				continue
			}
			var values []string
			for _, raw := range f.values {
				values = append(values, strings.Fields(raw)[0])
			}
			unversioned := "Aspn" + common.TrimVersionPrefix(f.cType)
			enums = append(enums, nativeEnum(f.cType, unversioned, values))
		}
		classes = append(classes, s.render(v, headerFields))
		if s.name == timestampClass {
			hasTimestamp = true
		}
	}

	data := map[string]any{
		"Variant":      v.Name,
		"Namespace":    v.Namespace(),
		"Enums":        enums,
		"Classes":      classes,
		"HasTimestamp": hasTimestamp,
		"Module":       pyModule,
	}
	out := filepath.Join(dir, "xtensor_bindings.cpp")
	if err := b.w.Render(out, bindingsTemplate, data); err != nil {
		return err
	}
	if err := b.w.Render(filepath.Join(dir, "xtensor_bindings_module.cpp"), bindingsModuleTemplate, data); err != nil {
		return err
	}
	b.logger.Info("Generated pybind11 bindings", "file", out, "enums", len(enums))
	return nil
}

// nativeEnum binds a C enum; Python names drop the version from the prefix.
func nativeEnum(cType, pyName string, values []string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "py::native_enum<%s>(m, %q, \"enum.Enum\")", cType, pyName)
	upper := strings.ToUpper(common.VersionPrefix)
	for _, v := range values {
		fmt.Fprintf(&sb, "\n        .value(%q, %s)", strings.Replace(v, upper, "ASPN", 1), v)
	}
	sb.WriteString("\n        .finalize();")
	return sb.String()
}

type library struct {
	Name    string
	Dash    string
	Sources []string
}

func (b *Backend) writeMeson(structs []*cppStruct) error {
	var libs []library
	for _, v := range Variants {
		lib := library{Name: v.Name, Dash: strings.ReplaceAll(v.Name, "_", "-")}
		for _, s := range structs {
			lib.Sources = append(lib.Sources, fmt.Sprintf("src/%s/%s/%s.cpp", Dir, v.Name, s.name))
		}
		lib.Sources = append(lib.Sources, fmt.Sprintf("src/%s/%s/aspn_%s.cpp", Dir, v.Name, v.Name))
		libs = append(libs, lib)
	}
	out := filepath.Join(b.root, "meson.build")
	if err := b.w.Render(out, mesonTemplate, map[string]any{
		"Libraries": libs,
		"Dir":       Dir,
		"Module":    pyModule,
	}); err != nil {
		return err
	}
	b.logger.Info("Generated meson.build", "file", out)
	return nil
}
