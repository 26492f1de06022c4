// Package schema models ASPN ICD YAML message definitions and loads them from
// an ICD tree.
package schema

import (
	"fmt"

	"github.com/aspn-firehose/firehose/internal/codegen/common"
	"gopkg.in/yaml.v3"
)

// MissingDocstring stands in for an absent struct description.
const MissingDocstring = "<Missing C Docstring>"

// Schema is one message or type definition.
type Schema struct {
	Name        string  `yaml:"name"`
	Description *string `yaml:"description"`
	Fields      []Field `yaml:"fields"`

	// Path is the file the schema was read from.
	Path string `yaml:"-"`
}

// Doc returns the struct description or the missing-docstring marker.
func (s *Schema) Doc() string {
	if s.Description == nil {
		return MissingDocstring
	}
	return *s.Description
}

// Field is one entry of a schema's field list. Type is nil when the schema
// omits it, which is how enum fields are declared.
type Field struct {
	Name        string     `yaml:"name"`
	Type        *string    `yaml:"type"`
	Enum        EnumValues `yaml:"enum"`
	Description string     `yaml:"description"`
	Units       *string    `yaml:"units"`
	Length      *string    `yaml:"length"`
}

// IsEnum reports whether the field declares enum values.
func (f Field) IsEnum() bool { return f.Enum != nil }

// EnumValue is one member name with its docstring.
type EnumValue struct {
	Value string
	Doc   string
}

// EnumValues decodes the YAML form, a sequence of single-key mappings
// (- GPS: "doc"), preserving declaration order.
type EnumValues []EnumValue

func (e *EnumValues) UnmarshalYAML(node *yaml.Node) error {
	if node.Tag == "!!null" {
		*e = nil
		return nil
	}
	if node.Kind != yaml.SequenceNode {
		return fmt.Errorf("line %d: enum must be a sequence", node.Line)
	}
	out := EnumValues{}
	for _, item := range node.Content {
		if item.Kind != yaml.MappingNode {
			return fmt.Errorf("line %d: enum entry must be a mapping", item.Line)
		}
		for i := 0; i+1 < len(item.Content); i += 2 {
			key, val := item.Content[i], item.Content[i+1]
			doc := val.Value
			if val.Tag == "!!null" {
				doc = ""
			}
			out = append(out, EnumValue{Value: key.Value, Doc: doc})
		}
	}
	*e = out
	return nil
}

// Parse decodes one schema document.
func Parse(data []byte) (*Schema, error) {
	var s Schema
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	if s.Name == "" {
		return nil, fmt.Errorf("schema has no name")
	}
	return &s, nil
}

// HeaderSchema is the root schema every message header derives from.
const HeaderSchema = "type_header"

// MessageTypeField is injected as the first field of the header for the C and
// C++ formats so every message can be downcast through it.
func MessageTypeField() Field {
	t := common.VersionPrefix + "MessageType"
	return Field{
		Name:        "message_type",
		Type:        &t,
		Description: "An enum that specifies which message struct this object can be downcast to.",
	}
}

// InjectMessageType prepends MessageTypeField to the header schema unless it
// is already the first field.
func InjectMessageType(schemas []*Schema) {
	want := MessageTypeField()
	for _, s := range schemas {
		if s.Name != HeaderSchema {
			continue
		}
		if len(s.Fields) > 0 && sameField(s.Fields[0], want) {
			continue
		}
		s.Fields = append([]Field{want}, s.Fields...)
	}
}

func sameField(a, b Field) bool {
	return a.Name == b.Name && a.Description == b.Description &&
		a.Type != nil && b.Type != nil && *a.Type == *b.Type &&
		a.Enum == nil && a.Units == nil && a.Length == nil
}
