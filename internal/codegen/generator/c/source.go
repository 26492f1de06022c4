package cgen

import (
	"fmt"
	"path/filepath"
	"text/template"

	"github.com/aspn-firehose/firehose/internal/codegen/common"
)

const sourceTmpl = cBanner + `
#include "{{.File}}.h"

{{.Name}}* ` + common.NullableMacro + ` {{.FnBase}}_new({{.Params}}) {
{{- range .ElementCounters}}
    size_t {{.}}_elements;
{{- end}}
    {{.Name}}* self = ({{.Name}}*)calloc(1, sizeof({{.Name}}));
    if (NULL == self) return NULL;
{{range .Body}}
{{indent 4 .}}
{{end}}
    return self;
}

{{.Name}}* ` + common.NullableMacro + ` {{.FnBase}}_copy({{.Name}}* input) {
{{- range .CopyPrep}}
{{indent 4 .}}
{{- end}}
    {{.Name}}* out = {{.FnBase}}_new({{join .CopyParams ", "}});
{{- range .CopyCleanup}}
{{indent 4 .}}
{{- end}}
    return out;
}

void {{.FnBase}}_free(void* pointer) {
    {{.Name}}* self = ({{.Name}}*)pointer;
    if (NULL == self) return;
    {{.FnBase}}_free_members(self);
    free(self);
}

void {{.FnBase}}_free_members({{.Name}}* self) {
    if (NULL == self) return;
{{- range .FreeMembers}}
{{indent 4 .}}
{{- end}}
}
`

var sourceTemplate = template.Must(template.New("c source").Funcs(common.TplFuncs()).Parse(sourceTmpl))

type sourceData struct {
	File            string
	Name            string
	FnBase          string
	Params          string
	ElementCounters []string
	Body            []string
	CopyPrep        []string
	CopyParams      []string
	CopyCleanup     []string
	FreeMembers     []string
}

func (b *Backend) writeSource(s *cStruct) error {
	data := sourceData{
		File:            s.File(),
		Name:            s.name,
		FnBase:          s.fnBase,
		Params:          s.paramList(),
		ElementCounters: s.elementCounters,
		Body:            s.body,
		CopyPrep:        s.copyPrep,
		CopyParams:      s.copyParams,
		CopyCleanup:     s.copyCleanup,
		FreeMembers:     s.freeMembers,
	}
	out := filepath.Join(b.outDir, s.File()+".c")
	if err := b.w.Render(out, sourceTemplate, data); err != nil {
		return err
	}
	b.logger.Debug("Generated C source", "file", out)
	return nil
}

func (s *cStruct) assignInit(name string) {
	s.body = append(s.body, fmt.Sprintf("self->%[1]s = %[1]s;", name))
	s.copyParams = append(s.copyParams, "input->"+name)
}

// nestedInit deep copies a nested struct passed by pointer. A nested
// observation_characteristics is only valid when has_observation_characteristics is set.
func (s *cStruct) nestedInit(name, typeName string) {
	base := FuncBase(typeName)
	s.copyParams = append(s.copyParams, name+"_prep")

	if name == "observation_characteristics" {
		s.body = append(s.body, fmt.Sprintf(`if (has_%[1]s) {
    %[2]s* %[1]s_prep = %[3]s_copy(%[1]s);
    self->%[1]s = *%[1]s_prep;
    free(%[1]s_prep);
}`, name, typeName, base))
		s.copyPrep = append(s.copyPrep, fmt.Sprintf(`%[2]s* %[1]s_prep = NULL;
if (input->has_%[1]s)
    %[1]s_prep = %[3]s_copy(&input->%[1]s);`, name, typeName, base))
		s.copyCleanup = append(s.copyCleanup, fmt.Sprintf(`if (input->has_%[1]s)
    %[2]s_free(%[1]s_prep);`, name, base))
		s.freeMembers = append(s.freeMembers, fmt.Sprintf(`if (self->has_%[1]s)
    %[2]s_free_members(&self->%[1]s);`, name, base))
		return
	}

	s.body = append(s.body, fmt.Sprintf(`%[2]s* %[1]s_prep = %[3]s_copy(%[1]s);
self->%[1]s = *%[1]s_prep;
free(%[1]s_prep);`, name, typeName, base))
	s.copyPrep = append(s.copyPrep, fmt.Sprintf("%[2]s* %[1]s_prep = %[3]s_copy(&input->%[1]s);", name, typeName, base))
	s.copyCleanup = append(s.copyCleanup, fmt.Sprintf("%s_free(%s_prep);", base, name))
	s.freeMembers = append(s.freeMembers, fmt.Sprintf("%s_free_members(&self->%s);", base, name))
}

func (s *cStruct) stringInit(name string, nullable bool) {
	guard := fmt.Sprintf(`if (%[1]s == NULL) {
    %[2]s_free(self);
    return NULL;
}
`, name, s.fnBase)
	if nullable {
		guard = ""
	}
	s.body = append(s.body, guard+fmt.Sprintf(`if (%[1]s != NULL) {
    size_t %[1]s_len = strlen(%[1]s) + 1;
    self->%[1]s = malloc(%[1]s_len);
    memcpy(self->%[1]s, %[1]s, %[1]s_len);
}`, name))
	s.copyParams = append(s.copyParams, "input->"+name)
	s.freeMembers = append(s.freeMembers, fmt.Sprintf("free(self->%s);", name))
}

func (s *cStruct) fixedArrayInit(name, typeName string, n int) {
	fill := fmt.Sprintf("for (size_t ii = 0; ii < %d; ii++) self->%s[ii] = NAN;", n, name)
	if common.IsVersionedType(typeName) {
		fill = fmt.Sprintf("memset(self->%s, 0, %d * sizeof(%s));", name, n, typeName)
	}
	s.body = append(s.body, fmt.Sprintf(`if (%[1]s != NULL)
    memcpy(self->%[1]s, %[1]s, %[2]d * sizeof(%[3]s));
else
    %[4]s`, name, n, typeName, fill))
	s.copyParams = append(s.copyParams, "input->"+name)
}

func (s *cStruct) arrayPointerInit(name, typeName, length string) {
	copyArray := fmt.Sprintf("self->%[1]s = (%[3]s*)calloc(%[2]s, sizeof(%[3]s));\n", name, length, typeName)
	if common.IsVersionedType(typeName) {
		base := FuncBase(typeName)
		copyArray += fmt.Sprintf(`for (size_t ii = 0; ii < %[2]s; ii++) {
    %[3]s* pointer = %[4]s_copy(&%[1]s[ii]);
    self->%[1]s[ii] = *pointer;
    free(pointer);
}`, name, length, typeName, base)
		s.freeMembers = append(s.freeMembers, fmt.Sprintf(`if (self->%[1]s != NULL && self->%[2]s != 0) {
    for (size_t ii = 0; ii < self->%[2]s; ii++)
        %[3]s_free_members(&self->%[1]s[ii]);
    free(self->%[1]s);
}`, name, length, base))
	} else {
		copyArray += fmt.Sprintf("memcpy(self->%[1]s, %[1]s, sizeof(%[3]s) * %[2]s);", name, length, typeName)
		s.freeMembers = append(s.freeMembers, fmt.Sprintf(`if (self->%[1]s != NULL && self->%[2]s != 0) {
    free(self->%[1]s);
}`, name, length))
	}

	s.body = append(s.body, fmt.Sprintf(`self->%[1]s = NULL;
if (%[1]s != NULL && %[2]s != 0) {
    if (%[2]s > 0) {
%[4]s
    } else {
        fprintf(stderr, "An error occurred: '%%s' defines the length '%%s' and must be a positive integer", "%[2]s", "%[1]s");
        %[3]s_free(self);
        return NULL;
    }
}`, name, length, s.fnBase, common.IndentLines(8, copyArray)))
	s.copyParams = append(s.copyParams, "input->"+name)
}

func (s *cStruct) fixedMatrixInit(name, typeName string, x, y int) {
	s.body = append(s.body, fmt.Sprintf(`if (%[1]s != NULL)
    memcpy(self->%[1]s, %[1]s, %[4]d * sizeof(%[2]s));
else
    for (size_t ii = 0; ii < %[3]d; ii++)
        for (size_t jj = 0; jj < %[5]d; jj++)
            self->%[1]s[ii][jj] = NAN;`, name, typeName, x, x*y, y))
	s.copyParams = append(s.copyParams, "input->"+name)
}

func (s *cStruct) matrixPointerInit(name, typeName, x, y string) {
	s.elementCounters = append(s.elementCounters, name)
	s.body = append(s.body, fmt.Sprintf(`self->%[1]s = NULL;
if (%[1]s != NULL && %[2]s != 0 && %[3]s != 0) {
    %[1]s_elements = %[2]s * %[3]s;
    if (%[1]s_elements > 0) {
        self->%[1]s = (%[4]s*)calloc(%[1]s_elements, sizeof(%[4]s));
        memcpy(self->%[1]s, %[1]s, %[1]s_elements * sizeof(%[4]s));
    } else {
        fprintf(stderr, "An error occurred: (%%s * %%s) defines the row and column lengths of '%%s' and both must be a positive integer", "%[2]s", "%[3]s", "%[1]s");
        %[5]s_free(self);
        return NULL;
    }
}`, name, x, y, typeName, s.fnBase))
	s.copyParams = append(s.copyParams, "input->"+name)
	s.freeMembers = append(s.freeMembers, fmt.Sprintf("free(self->%s);", name))
}
