package cgen

import (
	"fmt"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/aspn-firehose/firehose/internal/codegen/common"
)

var (
	prefix      = common.VersionPrefix
	prefixLower = strings.ToLower(common.VersionPrefix)
)

// message is one entry of enum Aspn23MessageType.
type message struct {
	Enum   string
	Name   string
	FnBase string
	Label  string
}

func messages(structs []*cStruct) []message {
	var out []message
	for _, s := range structs {
		if !s.IsMessage() {
			continue
		}
		out = append(out, message{
			Enum:   "ASPN_" + strings.ToUpper(s.snake),
			Name:   s.name,
			FnBase: s.fnBase,
			Label:  strings.ToUpper(prefix + "_" + s.snake),
		})
	}
	return out
}

func (b *Backend) render(name string, t *template.Template, data any) error {
	out := filepath.Join(b.outDir, name)
	if err := b.w.Render(out, t, data); err != nil {
		return err
	}
	b.logger.Info("Generated "+name, "file", out)
	return nil
}

func parse(name, text string) *template.Template {
	return template.Must(template.New(name).Funcs(common.TplFuncs()).Parse(text))
}

var commonHeaderTemplate = parse("common.h", cBanner+`
#pragma once
#include <stddef.h>
#include <stdlib.h>
#include <string.h>
#include <stdbool.h>
#include <stdio.h>
#include <math.h>

#include "types.h"

#ifdef ASPN_NO_STDINT

typedef char int8_t;
typedef short int int16_t;
typedef int int32_t;
typedef unsigned char uint8_t;
typedef unsigned short uint16_t;
typedef unsigned int uint32_t;

#	ifdef ASPN_LONG_LONG
typedef long long int64_t;
typedef unsigned long long uint64_t;
#	else
typedef long int64_t;
typedef unsigned long uint64_t;
#	endif

#else
#	include <stdint.h>
#endif

#ifndef __cplusplus
#	ifdef ASPN_NO_BOOL
#		define false 0
#		define true 1
#		define bool int
#	else
#		include <stdbool.h>
#	endif
#endif

#ifndef __has_feature
#	define __has_feature(x) 0
#endif

/**
 * Define a set of pragmas and attributes to instrument code to define whether or
 * not pointers may be null. This feature attempts to gracefully disable itself
 * if the current compiler is unable to support static analysis of nullability.
 * However, if this automatic disabling fails, the user may define {{.Disable}}
 * to force nullability checks off. In this case, the burden is
 * still on the user to not set NULL to pointers defined as not NULL.
 */
#if __has_feature(nullability) && defined(_Pragma) && !defined({{.Disable}})

/**
 * Indicates that pointers should be assumed to be not NULL unless
 * they are explicitly marked with {{.Nullable}}.
 *
 * All pointers in type and function definitions declared in the region between
 * {{.Start}} and {{.End}} in a file are by default not NULL-able.
 * Pointers explicitly annotated with {{.Nullable}} are still nullable, even
 * when within such a region.
 */
#	define {{.Start}} _Pragma("clang assume_nonnull begin")

/**
 * Ending a default not NULL region started by {{.Start}}. Definitions
 * after a {{.End}} return to ambiguous nullability unless otherwise
 * explicitly marked. */
#	define {{.End}} _Pragma("clang assume_nonnull end")

/**
 * Declare a pointer as NULL-able. This macro should follow the pointer asterisk for the
 * pointer that is being declared NULL. Thus, ` + "`int ** {{.Nullable}} foo`" + ` declares a
 * NULL-able pointer to a non-NULL pointer to int. */
#	define {{.Nullable}} _Nullable

#	pragma clang diagnostic ignored "-Wnullability-extension"

/**
 * Even with assume_nonnull, clang still warns about missing nullability attributes. */
#	pragma clang diagnostic ignored "-Wnullability-completeness"

#else

/**
 * This macro does nothing. To enable compiler non-null checking, compile using a compiler
 * that has the "nullability" feature and do not define {{.Disable}}. */
#	define {{.Start}}

/**
 * This macro does nothing. To enable compiler non-null checking, compile using a compiler
 * that has the "nullability" feature and do not define {{.Disable}}. */
#	define {{.End}}

/**
 * This macro does nothing. To enable compiler non-null checking, compile using a compiler
 * that has the "nullability" feature and do not define {{.Disable}}. */
#	define {{.Nullable}}

#endif
`)

func (b *Backend) writeCommonHeader([]*cStruct) error {
	return b.render("common.h", commonHeaderTemplate, map[string]string{
		"Disable":  common.DisableNullabilityFlag,
		"Nullable": common.NullableMacro,
		"Start":    common.NullabilityMacroStart,
		"End":      common.NullabilityMacroEnd,
	})
}

var unversionedHeaderTemplate = parse("aspn.h", cBanner+`
#pragma once

#ifdef __cplusplus
extern "C" {
#endif

#include "types.h"
typedef enum {{.Prefix}}MessageType AspnMessageType;
#define aspn_free {{.Lower}}_free
#define aspn_runtime_type_get_name {{.Lower}}_runtime_type_get_name

#include "utils.h"
#define aspn_is_core_message {{.Lower}}_is_core_message
#define aspn_get_time {{.Lower}}_get_time
#define aspn_set_time {{.Lower}}_set_time
#define aspn_copy_message {{.Lower}}_copy_message

#include "messages_and_types.h"
{{.Aliases}}
#ifdef __cplusplus
}  // extern "C"
#endif
`)

// aliases maps every versioned identifier of s to its unversioned name.
func aliases(s *cStruct) string {
	var b strings.Builder
	file := s.File()
	fn := strings.ToLower(s.snake)
	fmt.Fprintf(&b, "\ntypedef %s Aspn%s;\n", s.name, file)
	for _, suffix := range []string{"new", "copy", "free", "free_members"} {
		fmt.Fprintf(&b, "#define aspn_%s_%s %s_%s_%s\n", fn, suffix, prefixLower, fn, suffix)
	}
	for _, v := range s.enumValues {
		fmt.Fprintf(&b, "#define %s %s\n", strings.Replace(v, strings.ToUpper(prefix), "ASPN", 1), v)
	}
	for _, e := range common.SortedUnique(s.enumTypes) {
		fmt.Fprintf(&b, "typedef enum %s %s;\n", e, strings.Replace(e, prefix, "Aspn", 1))
	}
	return b.String()
}

func (b *Backend) writeUnversionedHeader(structs []*cStruct) error {
	var all strings.Builder
	for _, s := range structs {
		all.WriteString(aliases(s))
	}
	return b.render("aspn.h", unversionedHeaderTemplate, map[string]string{
		"Prefix":  prefix,
		"Lower":   prefixLower,
		"Aliases": all.String(),
	})
}

var metaHeaderTemplate = parse("messages_and_types.h", cBanner+`
#pragma once

{{range .Files}}#include <{{$.Dir}}/{{.}}.h>
{{end}}`)

func (b *Backend) writeMetaHeader(structs []*cStruct) error {
	files := make([]string, 0, len(structs))
	for _, s := range structs {
		files = append(files, s.File())
	}
	return b.render("messages_and_types.h", metaHeaderTemplate, map[string]any{
		"Dir":   Dir,
		"Files": files,
	})
}

var utilsHeaderTemplate = parse("utils.h", cBanner+`
#pragma once

#ifdef __cplusplus
extern "C" {
#endif

#include <{{.Lower}}/TypeTimestamp.h>
#include <{{.Lower}}/TypeHeader.h>

/*
 * An alias for cases where the object has been up-casted and should be
 * down-casted before using it.
 */
typedef {{.Prefix}}TypeHeader AspnBase;

bool {{.Lower}}_is_core_message(AspnBase* base);

{{.Prefix}}TypeTimestamp {{.Lower}}_get_time(const AspnBase* base);
void {{.Lower}}_set_time(AspnBase* base, {{.Prefix}}TypeTimestamp time);

AspnBase* {{.Lower}}_copy_message(AspnBase* base);

#ifdef __cplusplus
}  // extern "C"
#endif
`)

var utilsSourceTemplate = parse("utils.c", cBanner+`
#include <{{.Lower}}/utils.h>
#include <{{.Lower}}/messages_and_types.h>

bool {{.Lower}}_is_core_message(AspnBase* base) {
    if (base == NULL) {
        printf("is_core_message received a NULL pointer\n");
        return false;
    }
    return base->message_type <= ASPN_LAST_MESSAGE;
}

{{.Prefix}}TypeTimestamp {{.Lower}}_get_time(const AspnBase* base) {
    switch(base->message_type) {
{{- range .Messages}}
    case {{.Enum}}: {
        {{.Name}}* child = ({{.Name}}*) base;
        return child->time_of_validity;
    }
{{- end}}
    default: {
        printf("{{.Lower}}_get_time: cannot get time from message of type %i\n", base->message_type);
        {{.Prefix}}TypeTimestamp out = {0};
        return out;
    }
    }
}

void {{.Lower}}_set_time(AspnBase* base, {{.Prefix}}TypeTimestamp time) {
    switch(base->message_type) {
{{- range .Messages}}
    case {{.Enum}}: {
        {{.Name}}* child = ({{.Name}}*) base;
        child->time_of_validity = time;
        return;
    }
{{- end}}
    default: {
        printf("{{.Lower}}_set_time: cannot set time on message of type %i\n", base->message_type);
        return;
    }
    }
}

AspnBase* {{.Lower}}_copy_message(AspnBase* base) {
    switch(base->message_type) {
{{- range .Messages}}
    case {{.Enum}}: {
        {{.Name}}* child = ({{.Name}}*) base;
        return (AspnBase*){{.FnBase}}_copy(child);
    }
{{- end}}
    default: {
        return NULL;
    }
    }
}
`)

type aggregateData struct {
	Prefix   string
	Lower    string
	Messages []message
	Last     string
	Count    int
}

func newAggregateData(structs []*cStruct) aggregateData {
	msgs := messages(structs)
	last := "ASPN_UNDEFINED"
	if len(msgs) > 0 {
		last = msgs[len(msgs)-1].Enum
	}
	return aggregateData{
		Prefix:   prefix,
		Lower:    prefixLower,
		Messages: msgs,
		Last:     last,
		Count:    len(msgs) + 1,
	}
}

func (b *Backend) writeUtils(structs []*cStruct) error {
	data := newAggregateData(structs)
	if err := b.render("utils.h", utilsHeaderTemplate, data); err != nil {
		return err
	}
	return b.render("utils.c", utilsSourceTemplate, data)
}

var typesHeaderTemplate = parse("types.h", cBanner+`
#pragma once

#ifdef __cplusplus
extern "C" {
#endif

/**
 * An enum containing the entire set of measurements and metadata in ASPN
 */
typedef enum {{.Prefix}}MessageType {
    /* ASPN_UNDEFINED should never be used. Indicates that uninitialized memory is being used */
    ASPN_UNDEFINED,
{{- range .Messages}}
    {{.Enum}},
{{- end}}
    ASPN_LAST_MESSAGE={{.Last}},
    /*
    The values between ASPN_EXTENDED_BEGIN and ASPN_EXTENDED_END are reserved for extensions to
    ASPN. ASPN users may use these values for implementation-specific messages. Users utilizing
    these values must ensure all implementations coordinate on the interpretation of these values.
    These values should also begin with "ASPN_EXTENDED_". The types associated with these additional
    enum values should begin with "AspnExtended". For example, a new enum value might be called
    ASPN_EXTENDED_COMPASS_RESET with a corresponding struct named AspnExtendedCompassReset.

    Any values before ASPN_EXTENDED_BEGIN are reserved for usage by future ASPN revisions. Users
    must not use any value between ASPN_LAST_MESSAGE and ASPN_EXTENDED_BEGIN until those values are
    specified by a future ASPN revision.
    */
    ASPN_EXTENDED_BEGIN = 0x2000,
    ASPN_EXTENDED_END = 0xFFFF,
} {{.Prefix}}MessageType;

#define ASPN_NUM_MESSAGES {{.Count}}

void {{.Lower}}_free(void* pointer);

char* {{.Lower}}_runtime_type_get_name({{.Prefix}}MessageType type);

#ifdef __cplusplus
}
#endif
`)

var typesSourceTemplate = parse("types.c", cBanner+`
#include <{{.Lower}}/aspn.h>
#include "types.h"

void {{.Lower}}_free(void* pointer) {
    {{.Prefix}}TypeHeader* self = ({{.Prefix}}TypeHeader*)pointer;
    if (NULL == self) return;

    switch(self->message_type) {
    case ASPN_UNDEFINED:
        break;
{{- range .Messages}}
    case {{.Enum}}:
        {{.FnBase}}_free(pointer);
        break;
{{- end}}
    default: {
        printf("{{.Lower}}_free: cannot free message of type %i\n", self->message_type);
        break;
    }
    }
}

char* {{.Lower}}_runtime_type_get_name({{.Prefix}}MessageType type) {
    switch(type) {
    case ASPN_UNDEFINED:
        return "UNDEFINED";
{{- range .Messages}}
    case {{.Enum}}:
        return "{{.Label}}";
{{- end}}
    default: {
        printf("{{.Lower}}_runtime_type_get_name: cannot get name from message of type %i\n", type);
        return NULL;
    }
    }
}
`)

func (b *Backend) writeTypes(structs []*cStruct) error {
	data := newAggregateData(structs)
	if err := b.render("types.h", typesHeaderTemplate, data); err != nil {
		return err
	}
	return b.render("types.c", typesSourceTemplate, data)
}

var mesonTemplate = parse("meson.build", `# This code is generated via firehose.
# DO NOT hand edit code. Make any changes required using the firehose repo instead.

aspn_sources = [
{{- range .Sources}}
    '{{.}}',
{{- end}}
]

aspn_c_inc_dir = include_directories('src')

if not get_option('aspn-cpp-xtensor-py').disabled()
    # Used by python bindings module in ASPN-C++.
    aspn_c_static_lib_no_asan = static_library('aspn_no_asan',
                            sources: aspn_sources,
                            override_options: ['b_coverage=false',
                                            'b_sanitize=none'],
                            include_directories: aspn_c_inc_dir)

    aspn_c_no_asan_dep = declare_dependency(link_whole: aspn_c_static_lib_no_asan,
                            include_directories: aspn_c_inc_dir)

endif

if get_option('aspn-c-main-library')

    aspn_c_libs = both_libraries('aspn',
                            sources: aspn_sources,
                            include_directories: aspn_c_inc_dir,
                            soversion: meson.project_version(),
                            install: true)

    aspn_c_dep = declare_dependency(link_with: aspn_c_libs.get_shared_lib(),
                            include_directories: aspn_c_inc_dir)

    foreach source : aspn_sources
        header = source.replace('.c', '.h')
        install_headers(header, install_dir: get_option('includedir') + '/{{.Dir}}')
    endforeach
    install_headers('src/{{.Dir}}/aspn.h', install_dir: get_option('includedir') + '/{{.Dir}}')
    install_headers('src/{{.Dir}}/common.h', install_dir: get_option('includedir') + '/{{.Dir}}')
    install_headers('src/{{.Dir}}/messages_and_types.h', install_dir: get_option('includedir') + '/{{.Dir}}')

    aspn_runtime_types = [
{{- range .Types}}
    '{{.}}',
{{- end}}
    ]

    pkg = import('pkgconfig')
    pkg.generate(aspn_c_libs,
        name: '{{.Dir}}',
        description: 'ASPN c',
        unescaped_variables: 'aspn_runtime_types=' + ' '.join(aspn_runtime_types),
        version: meson.project_version())

    meson.override_dependency('{{.Dir}}', aspn_c_dep)

else # get_option('aspn-c-main-library')

    aspn_c_dep = disabler()

endif
`)

func (b *Backend) writeMeson(structs []*cStruct) error {
	var sources, types []string
	for _, s := range structs {
		sources = append(sources, fmt.Sprintf("src/%s/%s.c", Dir, s.File()))
	}
	sources = append(sources, fmt.Sprintf("src/%s/utils.c", Dir), fmt.Sprintf("src/%s/types.c", Dir))
	for _, m := range messages(structs) {
		types = append(types, m.Enum)
	}

	out := filepath.Join(b.root, "meson.build")
	if err := b.w.Render(out, mesonTemplate, map[string]any{
		"Sources": sources,
		"Types":   types,
		"Dir":     Dir,
	}); err != nil {
		return err
	}
	b.logger.Info("Generated meson.build", "file", out)
	return nil
}
