package marshal

import (
	"text/template"

	"github.com/aspn-firehose/firehose/internal/codegen/common"
)

const (
	toHeader   = "marshal_to_lcm.h"
	toSource   = "marshal_to_lcm.c"
	fromHeader = "marshal_from_lcm.h"
	fromSource = "marshal_from_lcm.c"
)

const banner = `/*
 * This code is generated via firehose.
 * DO NOT hand edit code.  Make any changes required using the firehose repo instead
 */
`

const sets = `
{{define "includes"}}
{{- range .Funcs}}
#include <{{.LCM}}.h>
{{- end}}

#include <{{.Dir}}/aspn.h>
{{end}}

{{define "marshal_to_lcm.h"}}` + banner + `
#pragma once
{{template "includes" .}}
#ifdef __cplusplus
extern "C" {
#endif
{{range .Funcs}}
void marshal_{{.Name}}({{.LCM}}* lcm_msg, const {{.Name}}* aspn);
{{end}}
#ifdef __cplusplus
}  // extern "C"
#endif
{{end}}

{{define "marshal_from_lcm.h"}}` + banner + `
#pragma once
{{template "includes" .}}
#ifdef __cplusplus
extern "C" {
#endif
{{range .Funcs}}
{{.Name}}* marshal_{{.LCM}}({{.LCM}}* lcm_msg);
{{end}}
#ifdef __cplusplus
}  // extern "C"
#endif
{{end}}

{{define "marshal_to_lcm.c"}}` + banner + `
#include <stdlib.h>
#include <string.h>

#include "marshal_to_lcm.h"

static char* copy_string(const char* in) {
    if (in == NULL) in = "";
    size_t len = strlen(in) + 1;
    char* out  = calloc(len, sizeof(char));
    memcpy(out, in, len);
    return out;
}

static double** unflatten_matrix(const double* flat, size_t rows, size_t cols) {
    if (flat == NULL || rows == 0 || cols == 0) return NULL;
    double** out = (double**)calloc(rows, sizeof(double*));
    for (size_t row = 0; row < rows; ++row) {
        out[row] = (double*)calloc(cols, sizeof(double));
        memcpy(out[row], &flat[row * cols], cols * sizeof(double));
    }
    return out;
}

static void marshal_{{.Header}}({{.LCM}}_type_header* lcm_msg, const {{.Header}}* aspn) {
    lcm_msg->vendor_id   = aspn->vendor_id;
    lcm_msg->device_id   = aspn->device_id;
    lcm_msg->context_id  = aspn->context_id;
    lcm_msg->sequence_id = aspn->sequence_id;
}

static void marshal_{{.Metadata}}({{.LCM}}_type_metadataheader* lcm_msg, const {{.Metadata}}* aspn) {
    marshal_{{.Header}}(&lcm_msg->header, &aspn->header);
    lcm_msg->sensor_description  = copy_string(aspn->sensor_description);
    lcm_msg->delta_t_nom         = aspn->delta_t_nom;
    lcm_msg->timestamp_clock_id  = aspn->timestamp_clock_id;
    lcm_msg->digits_of_precision = aspn->digits_of_precision;
}

static {{.LCM}}_type_integrity* marshal_{{.Integrity}}(const {{.Integrity}}* integrity, size_t length) {
    if (integrity == NULL || length == 0) return NULL;
    {{.LCM}}_type_integrity* out = calloc(length, sizeof({{.LCM}}_type_integrity));
    for (size_t ii = 0; ii < length; ii++) {
        out[ii].integrity_method = integrity[ii].integrity_method;
        out[ii].integrity_value  = integrity[ii].integrity_value;
    }
    return out;
}
{{range .Funcs}}
void marshal_{{.Name}}({{.LCM}}* lcm_msg, const {{.Name}}* aspn) {
{{.Assigns}}
}
{{end}}
{{- end}}

{{define "marshal_from_lcm.c"}}` + banner + `
#include <stdlib.h>
#include <string.h>

#include "marshal_from_lcm.h"

static double* flatten_matrix(double** matrix, int rows, int cols) {
    if (matrix == NULL || rows <= 0 || cols <= 0) return NULL;
    double* flat = calloc(rows * cols, sizeof(double));
    for (int ii = 0; ii < rows; ++ii) {
        memcpy(&flat[ii * cols], matrix[ii], cols * sizeof(double));
    }
    return flat;
}

static {{.Integrity}}* marshal_{{.LCM}}_type_integrity({{.LCM}}_type_integrity* integrity, int length) {
    if (integrity == NULL || length <= 0) return NULL;
    {{.Integrity}}* out = calloc(length, sizeof({{.Integrity}}));
    for (int ii = 0; ii < length; ii++) {
        out[ii].integrity_method = integrity[ii].integrity_method;
        out[ii].integrity_value  = integrity[ii].integrity_value;
    }
    return out;
}

static {{.Header}} marshal_{{.LCM}}_type_header({{.LCM}}_type_header header, {{.MsgType}} type) {
    {{.Header}} out = {type, header.vendor_id, header.device_id, header.context_id, header.sequence_id};
    return out;
}

static {{.Metadata}}* marshal_{{.LCM}}_type_metadataheader({{.LCM}}_type_metadataheader lcm_msg, {{.MsgType}} type) {
    {{.Header}} header = marshal_{{.LCM}}_type_header(lcm_msg.header, type);
    return {{.MetadataNew}}(&header,
        lcm_msg.sensor_description,
        lcm_msg.delta_t_nom,
        lcm_msg.timestamp_clock_id,
        lcm_msg.digits_of_precision);
}
{{range .Funcs}}
{{.Name}}* marshal_{{.LCM}}({{.LCM}}* lcm_msg) {
{{.Prep}}
    {{.Name}}* out = {{.New}}({{.Args}});
{{.Cleanup}}
    return out;
}
{{end}}
{{- end}}
`

var templates = template.Must(template.New("marshal").Funcs(common.TplFuncs()).Parse(sets))
