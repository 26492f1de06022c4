package cpp

import (
	"text/template"

	"github.com/aspn-firehose/firehose/internal/codegen/common"
)

const cppBanner = `// This code is generated via firehose.
// DO NOT hand edit code. Make any changes required using the firehose repo instead.
`

func parse(name, text string) *template.Template {
	return template.Must(template.New(name).Funcs(common.TplFuncs()).Parse(text))
}

var classHeaderTemplate = parse("class header", cppBanner+`
#pragma once

// ASPN-C struct to wrap.
#include <{{.Dir}}/{{.Name}}.h>

// {{.Variant}}
{{- range .VariantIncludes}}
#include {{.}}
{{- end}}

// ASPN-C++ includes
{{- range .Includes}}
#include "{{.}}.hpp"
{{- end}}

// System includes
{{- range .SystemIncludes}}
#include {{.}}
{{- end}}
{{- range .ExtraIncludes}}
#include {{.}}
{{- end}}

namespace {{.Namespace}} {

{{blockdoc .Doc ""}}class {{.Name}}{{if .Inherits}} : public TypeHeader{{end}} {
public:
    /**
     * The C struct must have been created using the corresponding {{.Dir}}_*_new() function in
     * ASPN-C. When this class' destructor is called, the memory will be cleaned up using the
     * corresponding {{.Dir}}_*_free() function in ASPN-C.
     */
    {{.Name}}({{.CName}}* c_struct, bool take_ownership = true);

    {{.Name}}({{.CtorParams}});

    {{if .Virtual}}virtual {{end}}~{{.Name}}();

    {{.Name}}(const {{.Name}}& other);
    {{.Name}}& operator=(const {{.Name}}& rhs);

    {{.Name}}({{.Name}}&& other);
    {{.Name}}& operator=({{.Name}}&& rhs);
{{range .Overrides}}
    {{.Type}} get_{{.Name}}() const override;
    void set_{{.Name}}({{.Type}}) override;
{{end}}
    /**
     * Returns the underlying C struct while retaining ownership of the pointer. The pointer
     * is valid so long as this object has not gone out of scope.
     */
    {{.CName}}* get_aspn_c() const;

    /**
     * Frees the underlying C struct and replaces it with \p replacement_struct.
     * Set \p take_ownership to false if this object should not free \p replacement_struct when it
     * is destroyed.
     */
    void reset_aspn_c({{.CName}}* replacement_struct, bool take_ownership = true);
{{range .Accessors}}
{{.}}
{{end}}
private:
    {{.CName}}* c_struct = nullptr;
    bool take_ownership  = true;
    void nullptr_check() const;
};
{{.ExtraDecls}}
}  // namespace {{.Namespace}}
`)

const relink = `{{define "relink"}}{{if .Inherits}}
    if (this->c_struct != nullptr) TypeHeader::reset_aspn_c(&this->c_struct->{{.HeaderPath}}, false);
{{- end}}{{end}}`

var classSourceTemplate = parse("class source", relink+cppBanner+`
#include "{{.Name}}.hpp"

#include <cstdlib>
#include <cstring>
#include <stdexcept>

namespace {{.Namespace}} {

{{.Name}}::{{.Name}}({{.CtorParams}}){{if .Inherits}} : TypeHeader(nullptr, false){{end}} {
{{- range .Prep}}
{{indent 4 .}}
{{- end}}
    this->c_struct       = {{.FnBase}}_new({{.NewArgs}});
    this->take_ownership = true;
{{- range .Cleanup}}
{{indent 4 .}}
{{- end}}
{{- template "relink" .}}
}

{{.Name}}::{{.Name}}({{.CName}}* c_struct, bool take_ownership)
    : {{if .Inherits}}TypeHeader(nullptr, false), {{end}}c_struct(c_struct), take_ownership(take_ownership) {
{{- template "relink" .}}
}

{{.Name}}::{{.Name}}(const {{.Name}}& other){{if .Inherits}} : TypeHeader(nullptr, false){{end}} {
    if (other.c_struct != nullptr) this->c_struct = {{.FnBase}}_copy(other.c_struct);
    this->take_ownership = true;
{{- template "relink" .}}
}

{{.Name}}& {{.Name}}::operator=(const {{.Name}}& rhs) {
    if (this == &rhs) return *this;
    if (this->c_struct != nullptr && this->take_ownership) {{.FnBase}}_free(this->c_struct);
    this->c_struct       = rhs.c_struct == nullptr ? nullptr : {{.FnBase}}_copy(rhs.c_struct);
    this->take_ownership = true;
{{- template "relink" .}}
    return *this;
}

{{.Name}}::{{.Name}}({{.Name}}&& other)
    : {{if .Inherits}}TypeHeader(nullptr, false), {{end}}c_struct(other.c_struct), take_ownership(other.take_ownership) {
    other.c_struct = nullptr;
{{- template "relink" .}}
}

{{.Name}}& {{.Name}}::operator=({{.Name}}&& rhs) {
    if (this == &rhs) return *this;
    if (this->c_struct != nullptr && this->take_ownership) {{.FnBase}}_free(this->c_struct);
    this->c_struct       = rhs.c_struct;
    this->take_ownership = rhs.take_ownership;
    rhs.c_struct         = nullptr;
{{- template "relink" .}}
    return *this;
}

{{.Name}}::~{{.Name}}() {
    if (c_struct != nullptr && take_ownership) {{.FnBase}}_free(c_struct);
}
{{range .Overrides}}
{{.Type}} {{$.Name}}::get_{{.Name}}() const {
    nullptr_check();
    return c_struct->{{$.HeaderPath}}.{{.Name}};
}

void {{$.Name}}::set_{{.Name}}({{.Type}} value) {
    nullptr_check();
    c_struct->{{$.HeaderPath}}.{{.Name}} = value;
}
{{end}}
{{.CName}}* {{.Name}}::get_aspn_c() const { return c_struct; }

void {{.Name}}::reset_aspn_c({{.CName}}* replacement_struct, bool take_ownership) {
    if (this->c_struct != nullptr && this->take_ownership) {{.FnBase}}_free(this->c_struct);
    this->take_ownership = take_ownership;
    this->c_struct       = replacement_struct;
{{- template "relink" .}}
}
{{range .Methods}}
{{.}}
{{end}}
void {{.Name}}::nullptr_check() const {
    if (c_struct == nullptr)
        throw std::runtime_error("{{.Name}} is holding a null pointer to ASPN-C data!");
}
{{.ExtraDefs}}
}  // namespace {{.Namespace}}
`)

var rootHeaderTemplate = parse("root header", cppBanner+`
#pragma once

#include <functional>
#include <memory>

#include <{{.Dir}}/aspn.h>
{{range .Classes}}
#include <{{$.Dir}}/{{$.Variant}}/{{.}}.hpp>
{{- end}}

namespace {{.Alias}} = {{.Namespace}};

namespace {{.Namespace}} {
{{if .HasHeader}}
// An alias for cases where the object has been up-casted and should be
// down-casted before using it.
using AspnBase = TypeHeader;

bool is_core_message(std::shared_ptr<AspnBase> base);
{{if .Timed}}
TypeTimestamp get_time(std::shared_ptr<AspnBase> parent);
void set_time(std::shared_ptr<AspnBase> parent, TypeTimestamp time);
{{end}}
/**
 * Downcasts \p parent to the type specified by parent->message_type, passes it to the matching
 * ASPN-C++ constructor, then returns the up-casted result. If \p take_ownership is true the C++
 * object frees the C object when it is destroyed.
 *
 * Only call this with a message that has been up-casted to a {{.Prefix}}TypeHeader, never an
 * actual {{.Prefix}}TypeHeader.
 */
std::shared_ptr<AspnBase> convert_message(
    {{.Prefix}}TypeHeader* parent,
    bool take_ownership                          = true,
    std::function<void(AspnBase*)> custom_deleter = std::default_delete<AspnBase>());

/**
 * Downcasts \p parent to the type specified by parent->get_message_type(), copies the data, then
 * returns the up-casted result.
 */
std::shared_ptr<AspnBase> copy_message(std::shared_ptr<AspnBase> parent);
{{end}}
}  // namespace {{.Namespace}}
`)

var rootSourceTemplate = parse("root source", cppBanner+`
#include <{{.Dir}}/{{.Variant}}/aspn_{{.Variant}}.hpp>

#include <memory>
#include <stdexcept>

namespace {{.Namespace}} {
{{if .HasHeader}}
bool is_core_message(std::shared_ptr<AspnBase> base) {
    if (base == nullptr) throw std::invalid_argument("is_core_message received a nullptr");
    return base->get_message_type() <= ASPN_LAST_MESSAGE;
}
{{if .Timed}}
TypeTimestamp get_time(std::shared_ptr<AspnBase> parent) {
    if (parent == nullptr) throw std::invalid_argument("get_time received a nullptr");
    switch (parent->get_message_type()) {
{{- range .Timed}}
    case {{.Enum}}:
        return std::dynamic_pointer_cast<{{.Name}}>(parent)->get_time_of_validity();
{{- end}}
    default:
        throw std::invalid_argument("get_time called on a non-ASPN-core message");
    }
}

void set_time(std::shared_ptr<AspnBase> parent, TypeTimestamp time) {
    if (parent == nullptr) throw std::invalid_argument("set_time received a nullptr");
    switch (parent->get_message_type()) {
{{- range .Timed}}
    case {{.Enum}}:
        std::dynamic_pointer_cast<{{.Name}}>(parent)->set_time_of_validity(time);
        return;
{{- end}}
    default:
        throw std::invalid_argument("set_time called on a non-ASPN-core message");
    }
}
{{end}}
std::shared_ptr<AspnBase> convert_message({{.Prefix}}TypeHeader* parent,
                                          bool take_ownership,
                                          std::function<void(AspnBase*)> custom_deleter) {
    if (parent == nullptr) throw std::invalid_argument("convert_message received a nullptr");
    switch (parent->message_type) {
{{- range .Messages}}
    case {{.Enum}}:
        return std::shared_ptr<{{.Name}}>(new {{.Name}}(({{.CName}}*)parent, take_ownership), custom_deleter);
{{- end}}
    default:
        throw std::invalid_argument("convert_message called on a non-ASPN-core message");
    }
}

std::shared_ptr<AspnBase> copy_message(std::shared_ptr<AspnBase> parent) {
    if (parent == nullptr) return nullptr;
    switch (parent->get_message_type()) {
{{- range .Messages}}
    case {{.Enum}}:
        return std::make_shared<{{.Name}}>(*std::dynamic_pointer_cast<{{.Name}}>(parent));
{{- end}}
    default:
        return nullptr;
    }
}
{{end}}
}  // namespace {{.Namespace}}
`)

var bindingsTemplate = parse("bindings", cppBanner+`
#include <pybind11/native_enum.h>
#include <pybind11/operators.h>
#include <pybind11/pybind11.h>
#include <pybind11/stl.h>

#include <xtensor-python/pyarray.hpp>
#include <xtensor-python/pytensor.hpp>

#include <sstream>

#include "aspn_{{.Variant}}.hpp"

// Groups a comma separated list of types into one macro argument.
#define PARAMS(...) __VA_ARGS__

using namespace {{.Namespace}};
namespace py = pybind11;

void add_bindings(pybind11::module& m) {
    m.doc() = "ASPN C++ Xtensor";
{{range .Enums}}
    {{.}}
{{end}}
{{- range .Classes}}
    py::class_<{{.Name}}{{if .Inherits}}, TypeHeader{{end}}, py::smart_holder>(m, "{{.Name}}")
        .def(py::init<PARAMS({{join .ParamTypes ", "}})>())
{{- $name := .Name}}
{{- range .Bound}}
        .def("get_{{.Name}}", &{{$name}}::get_{{.Name}})
{{- if .Setter}}
        .def("set_{{.Name}}", &{{$name}}::set_{{.Name}})
{{- end}}
{{- end}}
{{- if eq .Name "TypeTimestamp"}}` + timestampBindings + `{{end}};
{{end}}
{{- if .HasTimestamp}}
    m.def("to_type_timestamp", py::overload_cast<double>(&to_type_timestamp), py::arg("t") = 0.0);
    m.def("to_type_timestamp",
          py::overload_cast<int64_t, int64_t>(&to_type_timestamp),
          py::arg("sec"),
          py::arg("nsec"));
    m.def("to_seconds", &to_seconds, py::arg("time"));
{{- end}}
}
`)

var bindingsModuleTemplate = parse("bindings module", cppBanner+`
#include <pybind11/pybind11.h>

void add_bindings(pybind11::module& m);

PYBIND11_MODULE({{.Module}}, m) { add_bindings(m); }
`)

var mesonTemplate = parse("meson.build", `# This code is generated via firehose.
# DO NOT hand edit code. Make any changes required using the firehose repo instead.

required = get_option('aspn-cpp').enabled()

xtensor_dep = disabler()
if not get_option('aspn-cpp-xtensor').disabled() or not get_option('aspn-cpp-xtensor-py').disabled()
    xtensor_dep = dependency('xtensor',
        version: ['>=0.21.4', '<1.0.0'],
        fallback: ['xtensor', 'xtensor_dep'],
        include_type: 'system',
        method: 'pkg-config',
        required: get_option('aspn-cpp-xtensor').enabled(),
        disabler: true)
endif

xtensor_python_dep = disabler()
pybind11_dep = disabler()
if not get_option('aspn-cpp-xtensor-py').disabled()
    xtensor_python_dep = dependency('xtensor-python',
        version: ['>=0.24.1', '<1.0.0'],
        required: false,
        allow_fallback: true,
        disabler: true)

    pybind11 = subproject('pybind11', required: false)
    if pybind11.found()
        pybind11_dep = pybind11.get_variable('pybind11_dep')
    endif
endif

eigen_dep = disabler()
if not get_option('aspn-cpp-eigen').disabled()
    eigen_dep = dependency('eigen3',
        version: ['>=3.3.5'],
        include_type: 'system',
        required: get_option('aspn-cpp-eigen').enabled(),
        allow_fallback: true,
        disabler: true)
endif

aspn_stl_deps = [aspn_c_dep]
aspn_xtensor_deps = [aspn_c_dep, xtensor_dep]
aspn_xtensor_py_deps = [xtensor_dep, xtensor_python_dep, pybind11_dep]
aspn_eigen_deps = [aspn_c_dep, eigen_dep]
{{range .Libraries}}
aspn_{{.Name}}_sources = [
{{- range .Sources}}
    '{{.}}',
{{- end}}
]

aspn_{{.Name}}_dep = disabler()

if not get_option('aspn-cpp-{{.Dash}}').disabled()
{{- if eq .Name "xtensor_py"}}
    aspn_xtensor_py_include = include_directories('src')

    aspn_xtensor_py_static_lib = static_library('aspn_xtensor_py',
        sources: [aspn_xtensor_py_sources, 'src/{{$.Dir}}/xtensor_py/xtensor_bindings.cpp'],
        include_directories: aspn_xtensor_py_include,
        override_options: ['b_coverage=false', 'b_sanitize=none'],
        dependencies: [aspn_xtensor_py_deps, aspn_c_no_asan_dep])

    aspn_xtensor_py_dep = declare_dependency(
        link_whole: aspn_xtensor_py_static_lib,
        include_directories: [aspn_xtensor_py_include, aspn_c_inc_dir],
        dependencies: aspn_xtensor_py_deps)

    meson.override_dependency('{{$.Dir}}-xtensor-py', aspn_xtensor_py_dep)

    python = import('python').find_installation('python3')
    python.extension_module('{{$.Module}}',
        sources: ['src/{{$.Dir}}/xtensor_py/xtensor_bindings_module.cpp'],
        include_directories: aspn_xtensor_py_include,
        dependencies: aspn_xtensor_py_deps,
        override_options: ['b_coverage=false', 'b_sanitize=none'],
        link_whole: aspn_xtensor_py_static_lib,
        install: true)
{{- else}}
    aspn_{{.Name}}_include = include_directories('src')

    aspn_{{.Name}}_libs = both_libraries('aspn-{{.Dash}}',
        sources: aspn_{{.Name}}_sources,
        include_directories: aspn_{{.Name}}_include,
        dependencies: aspn_{{.Name}}_deps,
        soversion: meson.project_version(),
        install: true)

    aspn_{{.Name}}_dep = declare_dependency(
        link_with: aspn_{{.Name}}_libs.get_shared_lib(),
        include_directories: aspn_{{.Name}}_include,
        dependencies: aspn_{{.Name}}_deps)

    foreach source : aspn_{{.Name}}_sources
        header = source.replace('.cpp', '.hpp')
        install_headers(header, install_dir: get_option('includedir') + '/{{$.Dir}}/{{.Name}}')
    endforeach

    pkg = import('pkgconfig')
    pkg.generate(aspn_{{.Name}}_libs,
        name: '{{$.Dir}}-{{.Name}}',
        description: 'ASPN cpp with {{.Name}} matrices',
        version: meson.project_version())

    meson.override_dependency('{{$.Dir}}-{{.Name}}', aspn_{{.Name}}_dep)
{{- end}}
endif
{{end}}`)
