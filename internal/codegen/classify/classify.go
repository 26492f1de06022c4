// Package classify routes every schema field to exactly one Backend process
// call, deciding its shape (scalar, string, enum, array, matrix, nested struct).
package classify

import (
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/aspn-firehose/firehose/internal/codegen/backend"
	"github.com/aspn-firehose/firehose/internal/codegen/schema"
)

var (
	matrixSuffix = regexp.MustCompile(`\[(\w+|\d+),\s*(\w+|\d+)\]$`)
	arraySuffix  = regexp.MustCompile(`\[(\w+|\d+)]$`)
)

const nestedPrefix = "type_"

// Classifier feeds schemas into one backend.
type Classifier struct {
	b      backend.Backend
	cfg    backend.Config
	logger *slog.Logger
}

func New(b backend.Backend, logger *slog.Logger) *Classifier {
	return &Classifier{b: b, cfg: b.Config(), logger: logger}
}

// Struct starts a struct on the backend and dispatches all of its fields in order.
func (c *Classifier) Struct(s *schema.Schema) error {
	if err := c.b.BeginStruct(s.Name); err != nil {
		return fmt.Errorf("%s: begin %s: %w", c.cfg.Format, s.Name, err)
	}
	if err := c.b.ProcessClassDocstring(s.Doc()); err != nil {
		return fmt.Errorf("%s: %s docstring: %w", c.cfg.Format, s.Name, err)
	}
	for _, f := range s.Fields {
		if err := c.Field(s.Name, f); err != nil {
			return &backend.FieldError{Backend: c.cfg.Format, Struct: s.Name, Field: f.Name, Err: err}
		}
	}
	c.logger.Debug("Classified struct", "backend", c.cfg.Format, "struct", s.Name, "fields", len(s.Fields))
	return nil
}

// Field dispatches one field of structName.
func (c *Classifier) Field(structName string, f schema.Field) error {
	name := strings.ToLower(f.Name)
	isEnum := f.IsEnum()
	doc := c.docstring(f, isEnum)

	if f.Type == nil && name == "integrity_method" {
		t := "uint8"
		f.Type = &t
	}
	if f.Type == nil && isEnum && len(f.Enum) > 0 {
		return c.enum(structName, name, f.Enum, doc)
	}
	if f.Type == nil {
		return fmt.Errorf("field has neither type nor enum values: %w", backend.ErrUnrecognizedField)
	}
	return c.typed(name, *f.Type, doc)
}

func (c *Classifier) docstring(f schema.Field, isEnum bool) string {
	if !c.cfg.UnitsInDocs || isEnum {
		return f.Description
	}
	units := "none"
	if f.Units != nil {
		units = strings.Trim(*f.Units, "\n")
	}
	doc := fmt.Sprintf("Description: %s\nUnits: %s", strings.Trim(f.Description, "\n"), units)
	if f.Length != nil {
		doc += "\nLength: " + *f.Length
	}
	return doc
}

func (c *Classifier) enum(structName, field string, values schema.EnumValues, doc string) error {
	naming := c.cfg.Naming
	members := make([]string, 0, len(values))
	docs := make([]string, 0, len(values))
	for _, v := range values {
		members = append(members, naming.EnumMemberName(structName, field, v.Value))
		docs = append(docs, v.Doc)
	}
	return c.b.ProcessEnum(field, naming.EnumTypeName(structName, field), members, doc, docs)
}

// typed applies the type-string rules in priority order; the first match wins.
func (c *Classifier) typed(name, fieldType, doc string) error {
	nullable := false
	if strings.Contains(fieldType, "?") {
		fieldType = strings.Trim(strings.TrimSpace(fieldType), "?")
		nullable = true
	}

	if fieldType == "string" {
		return c.b.ProcessStringField(name, doc, nullable)
	}

	types := c.cfg.Types
	if mapped, ok := types.Lookup(fieldType); ok {
		return c.b.ProcessSimpleField(name, mapped, doc, nullable)
	}
	fieldType = types.ReplaceFirst(fieldType)

	nested := false
	if strings.HasPrefix(fieldType, nestedPrefix) {
		nested = true
		base, suffix := fieldType, ""
		if i := strings.Index(fieldType, "["); i >= 0 {
			base, suffix = fieldType[:i], fieldType[i:]
		}
		fieldType = c.cfg.StructName(base) + suffix
	}

	if m := matrixSuffix.FindStringSubmatch(fieldType); m != nil {
		x, y := backend.ParseDim(m[1]), backend.ParseDim(m[2])
		if x.IsFixed() != y.IsFixed() {
			return fmt.Errorf("[%s,%s]: %w", m[1], m[2], backend.ErrMixedDimensions)
		}
		if name == "covariance" && x == y && !x.IsFixed() {
			doc += fmt.Sprintf(" Dimensions of covariance must be %s²", x.Ref)
		}
		base := fieldType[:strings.Index(fieldType, "[")]
		return c.b.ProcessMatrixField(name, base, x, y, doc, nullable)
	}

	if m := arraySuffix.FindStringSubmatch(fieldType); m != nil {
		base := fieldType[:strings.LastIndex(fieldType, "[")]
		return c.b.ProcessDataPointerField(name, base, backend.ParseDim(m[1]), doc, nullable)
	}

	if nested {
		return c.b.ProcessSimpleField(name, fieldType, doc, nullable)
	}

	return fmt.Errorf("type %q: %w", fieldType, backend.ErrUnrecognizedField)
}
