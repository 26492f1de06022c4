package cpp

import (
	"fmt"
	"strings"

	"github.com/aspn-firehose/firehose/internal/codegen/common"
	cgen "github.com/aspn-firehose/firehose/internal/codegen/generator/c"
)

// override is one TypeHeader accessor re-implemented by a derived message.
type override struct {
	Type string
	Name string
}

type binding struct {
	Name   string
	Setter bool
}

// classView is the template data of one class in one variant.
type classView struct {
	Name       string
	CName      string
	FnBase     string
	Doc        string
	Variant    string
	Namespace  string
	Dir        string
	HeaderPath string
	Virtual    bool

	VariantIncludes []string
	Includes        []string
	SystemIncludes  []string

	CtorParams string
	Prep       []string
	NewArgs    string
	Cleanup    []string

	Overrides []override
	Accessors []string
	Methods   []string

	// ParamTypes feed py::init in the bindings.
	ParamTypes []string
	// Bound lists the accessors exposed to Python.
	Bound []binding

	ExtraIncludes []string
	ExtraDecls    string
	ExtraDefs     string
}

// Inherits reports whether the class derives from TypeHeader.
func (c classView) Inherits() bool { return c.HeaderPath != "" }

// classBuilder accumulates the code of one class while walking its fields.
type classBuilder struct {
	v    Variant
	view classView

	params  []string
	args    []string
	lengths map[string]string
}

func (s *cppStruct) render(v Variant, headerFields []*field) classView {
	cb := &classBuilder{
		v: v,
		view: classView{
			Name:            s.name,
			CName:           s.cName,
			FnBase:          s.fnBase,
			Doc:             s.doc,
			Variant:         v.Name,
			Namespace:       v.Namespace(),
			Dir:             Dir,
			HeaderPath:      s.headerPath,
			Virtual:         s.snake == headerStruct,
			VariantIncludes: v.Includes,
			SystemIncludes:  []string{"<vector>"},
		},
	}
	cb.lengths = s.lengthSources(v)
	if s.headerPath != "" {
		cb.view.Includes = append(cb.view.Includes, common.SnakeToPascal(headerStruct))
		for _, f := range headerFields {
			if f.kind == kindSimple || f.kind == kindEnum {
				cb.view.Overrides = append(cb.view.Overrides, override{Type: f.cType, Name: f.name})
			}
		}
	}
	for _, f := range s.fields {
		cb.addField(f)
	}
	cb.view.CtorParams = strings.Join(cb.params, ", ")
	cb.view.NewArgs = strings.Join(cb.args, ", ")
	if extra, ok := extras[s.name]; ok {
		cb.view.ExtraIncludes = extra.includes
		cb.view.ExtraDecls = extra.decls
		cb.view.ExtraDefs = extra.defs
	}
	return cb.view
}

// lengthSources maps every length field to the expression deriving it from
// the first array or matrix constructor argument sized by it.
func (s *cppStruct) lengthSources(v Variant) map[string]string {
	out := map[string]string{}
	for _, f := range s.fields {
		var expr, ref string
		switch f.kind {
		case kindArray, kindNestedArray:
			ref, expr = f.length.Ref, f.name+".size()"
		case kindMatrix:
			if f.x.IsFixed() {
				continue
			}
			ref, expr = f.x.Ref, v.Rows(f.name)
			if _, ok := out[ref]; !ok && ref != "" {
				out[ref] = expr
			}
			ref, expr = f.y.Ref, v.Cols(f.name)
		}
		if ref == "" {
			continue
		}
		if _, ok := out[ref]; !ok {
			out[ref] = expr
		}
	}
	return out
}

func (cb *classBuilder) doc(f *field) string {
	return common.FormatDocstring(f.doc, common.Indent, common.DefaultDocLimit, common.DocBlock)
}

func (cb *classBuilder) virtual() string {
	if cb.view.Virtual {
		return "virtual "
	}
	return ""
}

func (cb *classBuilder) accessor(f *field, getter, setter string) {
	decl := cb.doc(f) + common.Indent + cb.virtual() + getter + ";"
	if setter != "" {
		decl += "\n" + common.Indent + cb.virtual() + setter + ";"
	}
	cb.view.Accessors = append(cb.view.Accessors, decl)
	cb.view.Bound = append(cb.view.Bound, binding{Name: f.name, Setter: setter != ""})
}

func (cb *classBuilder) method(sig, body string) {
	cb.view.Methods = append(cb.view.Methods, fmt.Sprintf("%s {\n    nullptr_check();\n%s\n}", sig, common.IndentLines(4, body)))
}

func (cb *classBuilder) param(typ, name string) {
	cb.params = append(cb.params, typ+" "+name)
	cb.view.ParamTypes = append(cb.view.ParamTypes, typ)
}

func (cb *classBuilder) include(class string) {
	cb.view.Includes = common.AppendUnique(cb.view.Includes, class)
}

func (cb *classBuilder) system(header string) {
	cb.view.SystemIncludes = common.AppendUnique(cb.view.SystemIncludes, header)
}

func (cb *classBuilder) addField(f *field) {
	cls := cb.view.Name
	switch f.kind {
	case kindLength:
		if src, ok := cb.lengths[f.name]; ok {
			cb.args = append(cb.args, fmt.Sprintf("static_cast<%s>(%s)", f.cType, src))
		} else {
			cb.param(f.cType, f.name)
			cb.args = append(cb.args, f.name)
		}
		cb.accessor(f, fmt.Sprintf("%s get_%s() const", f.cType, f.name), "")
		cb.method(fmt.Sprintf("%s %s::get_%s() const", f.cType, cls, f.name), "return c_struct->"+f.name+";")

	case kindSimple, kindEnum:
		cb.param(f.cType, f.name)
		cb.args = append(cb.args, f.name)
		cb.accessor(f, fmt.Sprintf("%s get_%s() const", f.cType, f.name), fmt.Sprintf("void set_%s(%s)", f.name, f.cType))
		cb.method(fmt.Sprintf("%s %s::get_%s() const", f.cType, cls, f.name), "return c_struct->"+f.name+";")
		cb.method(fmt.Sprintf("void %s::set_%s(%s %s)", cls, f.name, f.cType, f.name), fmt.Sprintf("c_struct->%[1]s = %[1]s;", f.name))

	case kindString:
		cb.system("<string>")
		cb.param("const std::string&", f.name)
		cb.args = append(cb.args, fmt.Sprintf("const_cast<char*>(%s.c_str())", f.name))
		cb.accessor(f, fmt.Sprintf("std::string get_%s() const", f.name), fmt.Sprintf("void set_%s(const std::string&)", f.name))
		cb.method(fmt.Sprintf("std::string %s::get_%s() const", cls, f.name),
			fmt.Sprintf("return c_struct->%[1]s == nullptr ? std::string() : std::string(c_struct->%[1]s);", f.name))
		cb.method(fmt.Sprintf("void %s::set_%s(const std::string& %s)", cls, f.name, f.name),
			fmt.Sprintf("free(c_struct->%[1]s);\nc_struct->%[1]s = strdup(%[1]s.c_str());", f.name))

	case kindNested:
		cb.addNested(f)
	case kindArray:
		cb.addArray(f)
	case kindNestedArray:
		cb.addNestedArray(f)
	case kindMatrix:
		cb.addMatrix(f)
	}
}

// observationGuard names the presence flag of an optional nested field.
func observationGuard(name string) string {
	if name == "observation_characteristics" {
		return "has_" + name
	}
	return ""
}

func (cb *classBuilder) addNested(f *field) {
	cls, k, fn := cb.view.Name, f.class(), cgen.FuncBase(f.cType)
	cb.include(k)
	cb.param(k, f.name)
	cb.args = append(cb.args, f.name+".get_aspn_c()")

	ret := k
	get := fmt.Sprintf("return %s(%s_copy(&c_struct->%s));", k, fn, f.name)
	if guard := observationGuard(f.name); guard != "" {
		cb.system("<optional>")
		ret = "std::optional<" + k + ">"
		get = fmt.Sprintf("if (!c_struct->%s) return std::nullopt;\n%s", guard, get)
	}
	cb.accessor(f, fmt.Sprintf("%s get_%s() const", ret, f.name), fmt.Sprintf("void set_%s(const %s&)", f.name, k))
	cb.method(fmt.Sprintf("%s %s::get_%s() const", ret, cls, f.name), get)
	cb.method(fmt.Sprintf("void %s::set_%s(const %s& %s)", cls, f.name, k, f.name), fmt.Sprintf(
		"%[1]s* copy = %[2]s_copy(%[3]s.get_aspn_c());\n%[2]s_free_members(&c_struct->%[3]s);\nc_struct->%[3]s = *copy;\nfree(copy);",
		f.cType, fn, f.name))
}

func sizeCheck(name, n string) string {
	return fmt.Sprintf("if (static_cast<std::size_t>(%[1]s.size()) != %[2]s)\n    throw std::invalid_argument(\"%[1]s must have %[2]s elements\");", name, n)
}

func (cb *classBuilder) addArray(f *field) {
	cls, vec := cb.view.Name, cb.v.Vector(f.cType)
	cb.param(vec, f.name)
	cb.args = append(cb.args, f.name+".data()")
	cb.accessor(f, fmt.Sprintf("%s get_%s() const", vec, f.name), fmt.Sprintf("void set_%s(%s)", f.name, vec))

	getter := fmt.Sprintf("%s %s::get_%s() const", vec, cls, f.name)
	setter := fmt.Sprintf("void %s::set_%s(%s %s)", cls, f.name, vec, f.name)
	if f.length.IsFixed() {
		n := f.length.String()
		cb.view.Prep = append(cb.view.Prep, sizeCheck(f.name, n))
		cb.method(getter, cb.v.ToVector(fmt.Sprintf("&c_struct->%s[0]", f.name), n, f.cType))
		cb.method(setter, fmt.Sprintf("%s\nmemcpy(c_struct->%s, %s.data(), %s * sizeof(%s));", sizeCheck(f.name, n), f.name, f.name, n, f.cType))
		return
	}
	n := "c_struct->" + f.length.Ref
	cb.method(getter, fmt.Sprintf("if (c_struct->%s == nullptr) return {};\n%s", f.name, cb.v.ToVector("c_struct->"+f.name, n, f.cType)))
	cb.method(setter, fmt.Sprintf(`std::size_t count = %[2]s.size();
free(c_struct->%[2]s);
c_struct->%[2]s = nullptr;
if (count > 0) {
    c_struct->%[2]s = (%[3]s*)malloc(count * sizeof(%[3]s));
    memcpy(c_struct->%[2]s, %[2]s.data(), count * sizeof(%[3]s));
}
%[1]s = count;`, n, f.name, f.cType))
}

func (cb *classBuilder) addNestedArray(f *field) {
	cls, k, fn := cb.view.Name, f.class(), cgen.FuncBase(f.cType)
	vec := "std::vector<" + k + ">"
	cb.include(k)
	cb.param(vec, f.name)

	var prep []string
	if f.length.IsFixed() {
		prep = append(prep, sizeCheck(f.name, f.length.String()))
	}
	prep = append(prep, fmt.Sprintf(`%[1]s* %[2]s_prep = new %[1]s[%[2]s.size()];
for (std::size_t ii = 0; ii < %[2]s.size(); ii++)
    %[2]s_prep[ii] = *%[2]s[ii].get_aspn_c();`, f.cType, f.name))
	cb.view.Prep = append(cb.view.Prep, prep...)
	cb.view.Cleanup = append(cb.view.Cleanup, fmt.Sprintf("delete[] %s_prep;", f.name))
	cb.args = append(cb.args, f.name+"_prep")
	cb.accessor(f, fmt.Sprintf("%s get_%s() const", vec, f.name), fmt.Sprintf("void set_%s(%s)", f.name, vec))

	n := f.length.String()
	guard := ""
	if !f.length.IsFixed() {
		n = "c_struct->" + f.length.Ref
		guard = fmt.Sprintf("if (c_struct->%s == nullptr) return out;\n", f.name)
	}
	cb.method(fmt.Sprintf("%s %s::get_%s() const", vec, cls, f.name), fmt.Sprintf(`%[1]s out;
%[2]sfor (std::size_t ii = 0; ii < %[3]s; ii++)
    out.push_back(%[4]s(%[5]s_copy(&c_struct->%[6]s[ii])));
return out;`, vec, guard, n, k, fn, f.name))

	release := fmt.Sprintf("for (std::size_t ii = 0; ii < %s; ii++)\n    %s_free_members(&c_struct->%s[ii]);", n, fn, f.name)
	copyIn := fmt.Sprintf(`for (std::size_t ii = 0; ii < %[2]s.size(); ii++) {
    %[1]s* copy = %[3]s_copy(%[2]s[ii].get_aspn_c());
    c_struct->%[2]s[ii] = *copy;
    free(copy);
}`, f.cType, f.name, fn)
	setter := fmt.Sprintf("void %s::set_%s(%s %s)", cls, f.name, vec, f.name)
	if f.length.IsFixed() {
		cb.method(setter, strings.Join([]string{sizeCheck(f.name, n), release, copyIn}, "\n"))
		return
	}
	cb.method(setter, strings.Join([]string{
		release,
		fmt.Sprintf("free(c_struct->%[1]s);\nc_struct->%[1]s = (%[2]s*)calloc(%[1]s.size(), sizeof(%[2]s));", f.name, f.cType),
		copyIn,
		fmt.Sprintf("%s = %s.size();", n, f.name),
	}, "\n"))
}

func (cb *classBuilder) addMatrix(f *field) {
	cls, mat := cb.view.Name, cb.v.Matrix(f.cType)
	cb.param(mat, f.name)
	cb.accessor(f, fmt.Sprintf("%s get_%s() const", mat, f.name), fmt.Sprintf("void set_%s(%s)", f.name, mat))
	getter := fmt.Sprintf("%s %s::get_%s() const", mat, cls, f.name)
	setter := fmt.Sprintf("void %s::set_%s(%s %s)", cls, f.name, mat, f.name)

	if f.x.IsFixed() {
		rows, cols := f.x.String(), f.y.String()
		total := fmt.Sprintf("%d", f.x.Size*f.y.Size)
		cb.view.Prep = append(cb.view.Prep, sizeCheck(f.name, total))
		cb.args = append(cb.args, fmt.Sprintf("reinterpret_cast<%s(*)[%s]>(%s.data())", f.cType, cols, f.name))
		cb.method(getter, cb.v.ToMatrix(fmt.Sprintf("&c_struct->%s[0][0]", f.name), rows, cols, f.cType))
		cb.method(setter, fmt.Sprintf("%s\nmemcpy(c_struct->%s, %s.data(), %s * sizeof(%s));", sizeCheck(f.name, total), f.name, f.name, total, f.cType))
		return
	}

	cb.args = append(cb.args, f.name+".data()")
	rows, cols := "c_struct->"+f.x.Ref, "c_struct->"+f.y.Ref
	cb.method(getter, fmt.Sprintf("if (c_struct->%s == nullptr) return {};\n%s", f.name, cb.v.ToMatrix("c_struct->"+f.name, rows, cols, f.cType)))
	lengths := fmt.Sprintf("%s = rows;\n%s = cols;", rows, cols)
	if f.x == f.y {
		lengths = rows + " = rows;"
	}
	cb.method(setter, fmt.Sprintf(`std::size_t rows = %[1]s;
std::size_t cols = %[2]s;
free(c_struct->%[3]s);
c_struct->%[3]s = nullptr;
if (rows * cols > 0) {
    c_struct->%[3]s = (%[4]s*)malloc(rows * cols * sizeof(%[4]s));
    memcpy(c_struct->%[3]s, %[3]s.data(), rows * cols * sizeof(%[4]s));
}
%[5]s`, cb.v.Rows(f.name), cb.v.Cols(f.name), f.name, f.cType, lengths))
}
