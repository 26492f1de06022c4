// Package marshal emits C functions converting between the ASPN C structs and
// the structs lcm-gen produces for the LCM definitions.
//
// marshal_to_lcm fills a caller owned LCM struct from an ASPN struct;
// marshal_from_lcm builds a new ASPN struct through its _new function.
package marshal

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/aspn-firehose/firehose/internal/codegen/backend"
	"github.com/aspn-firehose/firehose/internal/codegen/common"
	cgen "github.com/aspn-firehose/firehose/internal/codegen/generator/c"
	"github.com/aspn-firehose/firehose/internal/codegen/generator/lcm"
)

const Format = "marshal_lcm_c"

// Dir is the output directory below the root folder.
const Dir = "marshal_lcm_c"

// helperStructs are converted by hand written static helpers in both sources.
var helperStructs = []string{"type_integrity", "type_header", "type_metadataheader"}

// widened maps the unsigned C types to the signed LCM type holding them.
var widened = map[string]string{
	"uint8_t":  "int16_t",
	"uint16_t": "int32_t",
	"uint32_t": "int64_t",
	"uint64_t": "int64_t",
}

var (
	integrityType      = common.StructName("type_integrity")
	headerType         = common.StructName("type_header")
	metadataHeaderType = common.StructName("type_metadataheader")
)

type mStruct struct {
	snake string
	name  string

	// to LCM
	assigns []string

	// from LCM
	prep    []string
	args    []string
	cleanup []string
}

// LCM is the lcm-gen C type name, e.g. aspn23_lcm_measurement_IMU.
func (s *mStruct) LCM() string { return lcmTypeName(s.snake) }

// MessageEnum is the AspnMessageType entry of the struct.
func (s *mStruct) MessageEnum() string { return strings.ToUpper("ASPN_" + s.snake) }

func (s *mStruct) helper() bool { return slices.Contains(helperStructs, s.snake) }

func lcmTypeName(snake string) string { return lcm.Package + "_" + snake }

// lcmTypeOf maps a versioned ASPN type, e.g. Aspn23TypeTimestamp, to its LCM type.
func lcmTypeOf(typeName string) string {
	return lcmTypeName(common.PascalToSnake(common.TrimVersionPrefix(typeName), false))
}

func primitive(typeName string) bool {
	return !common.IsVersionedType(typeName)
}

type Backend struct {
	backend.NoInheritance

	acc    backend.Accumulator[mStruct]
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
		Types:      backend.CTypes,
		StructName: backend.VersionedStructName,
		Naming:     backend.CNaming{},
	}
}

func (b *Backend) SetOutputRootFolder(path string) error {
	b.outDir = filepath.Join(path, Dir)
	if err := os.MkdirAll(b.outDir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	return backend.RemoveStale(b.outDir, "*.h", "*.c")
}

func (b *Backend) BeginStruct(name string) error {
	return b.acc.Begin(&mStruct{snake: name, name: common.StructName(name)})
}

func (b *Backend) ProcessClassDocstring(string) error {
	_, err := b.acc.Current()
	return err
}

func (b *Backend) ProcessSimpleField(name, typeName, _ string, _ bool) error {
	s, err := b.acc.Current()
	if err != nil {
		return err
	}
	s.simpleTo(name, typeName)
	s.simpleFrom(name, typeName)
	return nil
}

// observationGuard is the presence flag of an optional nested field, if any.
func observationGuard(name string) string {
	if name == "observation_characteristics" {
		return "has_" + name
	}
	return ""
}

func (s *mStruct) simpleTo(name, typeName string) {
	switch {
	case typeName == "char*":
		s.assigns = append(s.assigns, fmt.Sprintf("lcm_msg->%s = copy_string(aspn->%s);", name, name))
	case primitive(typeName):
		s.assigns = append(s.assigns, fmt.Sprintf("lcm_msg->%s = aspn->%s;", name, name))
	default:
		call := fmt.Sprintf("marshal_%s(&lcm_msg->%s, &aspn->%s);", typeName, name, name)
		if guard := observationGuard(name); guard != "" {
			call = fmt.Sprintf("if (aspn->%s) {\n    %s\n}", guard, call)
		}
		s.assigns = append(s.assigns, call)
	}
}

func (s *mStruct) simpleFrom(name, typeName string) {
	switch {
	case primitive(typeName):
		s.args = append(s.args, "lcm_msg->"+name)
	case typeName == headerType:
		s.prep = append(s.prep, fmt.Sprintf("%s %s = marshal_%s(lcm_msg->%s, %s);", headerType, name, lcmTypeOf(typeName), name, s.MessageEnum()))
		s.args = append(s.args, "&"+name)
	case typeName == metadataHeaderType:
		s.prep = append(s.prep, fmt.Sprintf("%s* %s = marshal_%s(lcm_msg->%s, %s);", typeName, name, lcmTypeOf(typeName), name, s.MessageEnum()))
		s.args = append(s.args, name)
		s.cleanup = append(s.cleanup, fmt.Sprintf("%s_free(%s);", cgen.FuncBase(typeName), name))
	default:
		call := fmt.Sprintf("marshal_%s(&lcm_msg->%s)", lcmTypeOf(typeName), name)
		if guard := observationGuard(name); guard != "" {
			s.prep = append(s.prep, fmt.Sprintf("%s* %s = NULL;\nif (lcm_msg->%s) {\n    %s = %s;\n}", typeName, name, guard, name, call))
		} else {
			s.prep = append(s.prep, fmt.Sprintf("%s* %s = %s;", typeName, name, call))
		}
		s.args = append(s.args, name)
		s.cleanup = append(s.cleanup, fmt.Sprintf("%s_free(%s);", cgen.FuncBase(typeName), name))
	}
}

func (b *Backend) ProcessStringField(name, doc string, nullable bool) error {
	return b.ProcessSimpleField(name, "char*", doc, nullable)
}

func (b *Backend) ProcessEnum(name, _ string, _ []string, _ string, _ []string) error {
	s, err := b.acc.Current()
	if err != nil {
		return err
	}
	s.assigns = append(s.assigns, fmt.Sprintf("lcm_msg->%s = aspn->%s;", name, name))
	s.args = append(s.args, "lcm_msg->"+name)
	return nil
}

// ProcessDataPointerField copies arrays element-wise where the LCM element
// type differs from the C one (widened unsigned integers, nested structs).
func (b *Backend) ProcessDataPointerField(name, typeName string, length backend.Dim, _ string, _ bool) error {
	s, err := b.acc.Current()
	if err != nil {
		return err
	}
	s.arrayTo(name, typeName, length)
	s.arrayFrom(name, typeName, length)
	return nil
}

func (s *mStruct) arrayTo(name, typeName string, length backend.Dim) {
	n := length.String()
	if !length.IsFixed() {
		n = "aspn->" + length.Ref
	}
	var body, elem string
	switch wide, ok := widened[typeName]; {
	case typeName == integrityType:
		s.assigns = append(s.assigns, fmt.Sprintf("lcm_msg->%s = marshal_%s(aspn->%s, %s);", name, typeName, name, n))
		return
	case ok:
		elem = wide
		body = fmt.Sprintf("for (size_t ii = 0; ii < %s; ii++) {\n    lcm_msg->%s[ii] = aspn->%s[ii];\n}", n, name, name)
	case primitive(typeName):
		elem = typeName
		body = fmt.Sprintf("memcpy(lcm_msg->%s, aspn->%s, %s * sizeof(%s));", name, name, n, typeName)
	default:
		elem = lcmTypeOf(typeName)
		body = fmt.Sprintf("for (size_t ii = 0; ii < %s; ii++) {\n    marshal_%s(&lcm_msg->%s[ii], &aspn->%s[ii]);\n}", n, typeName, name, name)
	}
	if length.IsFixed() {
		s.assigns = append(s.assigns, body)
		return
	}
	s.assigns = append(s.assigns, fmt.Sprintf("if (aspn->%s != NULL && %s != 0) {\n    lcm_msg->%s = calloc(%s, sizeof(%s));\n%s\n}",
		name, n, name, n, elem, common.IndentLines(4, body)))
}

func (s *mStruct) arrayFrom(name, typeName string, length backend.Dim) {
	n := length.String()
	if !length.IsFixed() {
		n = "lcm_msg->" + length.Ref
	}
	switch {
	case typeName == integrityType:
		s.prep = append(s.prep, fmt.Sprintf("%s* %s = marshal_%s(lcm_msg->%s, %s);", typeName, name, lcmTypeOf(typeName), name, n))
		s.args = append(s.args, name)
		s.cleanup = append(s.cleanup, fmt.Sprintf("free(%s);", name))
	case widened[typeName] != "":
		s.prep = append(s.prep, fmt.Sprintf("%s* %s = calloc(%s, sizeof(%s));\nfor (int32_t ii = 0; ii < %s; ii++) {\n    %s[ii] = (%s)lcm_msg->%s[ii];\n}",
			typeName, name, n, typeName, n, name, typeName, name))
		s.args = append(s.args, name)
		s.cleanup = append(s.cleanup, fmt.Sprintf("free(%s);", name))
	case primitive(typeName):
		s.args = append(s.args, "lcm_msg->"+name)
	default:
		s.prep = append(s.prep, fmt.Sprintf(`%[1]s** %[2]s_pointers = calloc(%[3]s, sizeof(%[1]s*));
%[1]s* %[2]s = calloc(%[3]s, sizeof(%[1]s));
for (int32_t ii = 0; ii < %[3]s; ii++) {
    %[2]s_pointers[ii] = marshal_%[4]s(&lcm_msg->%[2]s[ii]);
    %[2]s[ii] = *%[2]s_pointers[ii];
}`, typeName, name, n, lcmTypeOf(typeName)))
		s.args = append(s.args, name)
		s.cleanup = append(s.cleanup, fmt.Sprintf(`for (int32_t ii = %[1]s - 1; ii >= 0; ii--) {
    %[2]s_free(%[3]s_pointers[ii]);
}
free(%[3]s_pointers);
free(%[3]s);`, n, cgen.FuncBase(typeName), name))
	}
}

// ProcessMatrixField copies fixed matrices directly; variable ones are row
// pointer arrays in LCM and flat row major arrays in ASPN C.
func (b *Backend) ProcessMatrixField(name, typeName string, x, y backend.Dim, _ string, _ bool) error {
	s, err := b.acc.Current()
	if err != nil {
		return err
	}
	if x.IsFixed() {
		s.assigns = append(s.assigns, fmt.Sprintf("memcpy(lcm_msg->%s, aspn->%s, %s * %s * sizeof(%s));", name, name, x, y, typeName))
		s.args = append(s.args, "lcm_msg->"+name)
		return nil
	}
	if typeName != "double" {
		return backend.Unsupportedf("variable "+typeName+" matrix", name)
	}
	s.assigns = append(s.assigns, fmt.Sprintf("lcm_msg->%s = unflatten_matrix(aspn->%s, aspn->%s, aspn->%s);", name, name, x.Ref, y.Ref))
	s.prep = append(s.prep, fmt.Sprintf("double* flat_%s = flatten_matrix(lcm_msg->%s, lcm_msg->%s, lcm_msg->%s);", name, name, x.Ref, y.Ref))
	s.args = append(s.args, "flat_"+name)
	s.cleanup = append(s.cleanup, fmt.Sprintf("free(flat_%s);", name))
	return nil
}

// function is the template view of one marshaled struct.
type function struct {
	Name    string
	LCM     string
	New     string
	Assigns string
	Prep    string
	Args    string
	Cleanup string
}

func (b *Backend) Generate() error {
	structs, err := b.acc.Finish()
	if err != nil {
		return err
	}
	var funcs []function
	for _, s := range structs {
		if s.helper() {
			continue
		}
		funcs = append(funcs, function{
			Name:    s.name,
			LCM:     s.LCM(),
			New:     cgen.FuncBase(s.name) + "_new",
			Assigns: common.IndentLines(4, strings.Join(s.assigns, "\n")),
			Prep:    common.IndentLines(4, strings.Join(s.prep, "\n")),
			Args:    strings.Join(s.args, ", "),
			Cleanup: common.IndentLines(4, strings.Join(s.cleanup, "\n")),
		})
	}

	data := map[string]any{
		"Funcs":       funcs,
		"Dir":         cgen.Dir,
		"Integrity":   integrityType,
		"Header":      headerType,
		"Metadata":    metadataHeaderType,
		"MetadataNew": cgen.FuncBase(metadataHeaderType) + "_new",
		"LCM":         lcm.Package,
		"MsgType":     common.VersionPrefix + "MessageType",
	}
	for _, name := range []string{toHeader, toSource, fromHeader, fromSource} {
		out := filepath.Join(b.outDir, name)
		if err := b.w.Render(out, templates.Lookup(name), data); err != nil {
			return err
		}
		b.logger.Info("Generated marshaling", "file", out, "structs", len(funcs))
	}
	return nil
}
