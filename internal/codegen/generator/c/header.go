package cgen

import (
	"fmt"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/aspn-firehose/firehose/internal/codegen/common"
)

const cBanner = `/*
 * This code is generated via firehose.
 * DO NOT hand edit code.  Make any changes required using the firehose repo instead
 */
`

const headerTmpl = cBanner + `
#pragma once
#include "common.h"
{{range .Includes}}#include "{{.}}.h"
{{end}}
#ifdef __cplusplus
extern "C" {
#endif
{{if .Nullable}}
` + common.NullabilityMacroStart + `
{{end}}
{{range .EnumDefs}}{{.}}

{{end}}{{blockdoc .Doc ""}}typedef struct {{.Name}} {
{{.Fields}}} {{.Name}};

{{.Name}}* ` + common.NullableMacro + ` {{.FnBase}}_new({{.Params}});

{{.Name}}* ` + common.NullableMacro + ` {{.FnBase}}_copy({{.Name}}*);
{{blockdoc .FreeDoc ""}}void {{.FnBase}}_free(void* pointer);
void {{.FnBase}}_free_members({{.Name}}* self);
{{if .Nullable}}
` + common.NullabilityMacroEnd + `
{{end}}
#ifdef __cplusplus
}  // extern "C"
#endif
`

var headerTemplate = template.Must(template.New("c header").Funcs(common.TplFuncs()).Parse(headerTmpl))

type headerData struct {
	Name     string
	FnBase   string
	Doc      string
	FreeDoc  string
	Includes []string
	EnumDefs []string
	Fields   string
	Params   string
	Nullable bool
}

func (s *cStruct) freeDoc() string {
	doc := fmt.Sprintf("free() all memory held by the given %s,\nincluding the struct itself.", s.name)
	if len(s.pointerFields) == 0 {
		return doc
	}
	return doc + fmt.Sprintf("\nPointer fields (%s) will be freed using free() if they are non-NULL."+
		" If any of these have been populated using non-malloc'd memory, free them manually and set them"+
		" to NULL before calling this function.", strings.Join(s.pointerFields, ", "))
}

func (s *cStruct) paramList() string {
	if len(s.params) == 0 {
		return "void"
	}
	return strings.Join(s.params, ", ")
}

func (b *Backend) writeHeader(s *cStruct) error {
	fields, err := common.TerminateCLines(s.fields)
	if err != nil {
		return fmt.Errorf("%s fields: %w", s.name, err)
	}
	data := headerData{
		Name:     s.name,
		FnBase:   s.fnBase,
		Doc:      s.doc,
		FreeDoc:  s.freeDoc(),
		Includes: s.includes,
		EnumDefs: s.enumDefs,
		Fields:   fields,
		Params:   s.paramList(),
		Nullable: s.nullable,
	}
	out := filepath.Join(b.outDir, s.File()+".h")
	if err := b.w.Render(out, headerTemplate, data); err != nil {
		return err
	}
	b.logger.Debug("Generated C header", "file", out)
	return nil
}
