package classify_test

import (
	"fmt"
	"testing"

	"github.com/aspn-firehose/firehose/internal/codegen/backend"
	"github.com/aspn-firehose/firehose/internal/codegen/classify"
	"github.com/aspn-firehose/firehose/internal/codegen/schema"
	"github.com/aspn-firehose/firehose/internal/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recorder logs every call it receives as one line.
type recorder struct {
	backend.NoInheritance
	cfg       backend.Config
	calls     []string
	generated int
}

func (r *recorder) Config() backend.Config { return r.cfg }

func (r *recorder) SetOutputRootFolder(string) error { return nil }

func (r *recorder) BeginStruct(name string) error {
	r.calls = append(r.calls, "begin "+name)
	return nil
}

func (r *recorder) ProcessClassDocstring(doc string) error {
	r.calls = append(r.calls, "docstring "+doc)
	return nil
}

func (r *recorder) ProcessSimpleField(name, typeName, _ string, nullable bool) error {
	r.calls = append(r.calls, fmt.Sprintf("simple %s %s %v", name, typeName, nullable))
	return nil
}

func (r *recorder) ProcessStringField(name, _ string, nullable bool) error {
	r.calls = append(r.calls, fmt.Sprintf("string %s %v", name, nullable))
	return nil
}

func (r *recorder) ProcessEnum(name, enumType string, values []string, _ string, valueDocs []string) error {
	r.calls = append(r.calls, fmt.Sprintf("enum %s %s %v %v", name, enumType, values, valueDocs))
	return nil
}

func (r *recorder) ProcessMatrixField(name, typeName string, x, y backend.Dim, doc string, nullable bool) error {
	r.calls = append(r.calls, fmt.Sprintf("matrix %s %s %s %s %v", name, typeName, x, y, nullable))
	return nil
}

func (r *recorder) ProcessDataPointerField(name, typeName string, length backend.Dim, _ string, nullable bool) error {
	r.calls = append(r.calls, fmt.Sprintf("pointer %s %s %s %v", name, typeName, length, nullable))
	return nil
}

func (r *recorder) Generate() error {
	r.generated++
	return nil
}

// rawTypes passes schema primitives through unchanged.
var rawTypes = backend.TypeTable{
	{From: "float64", To: "float64"},
	{From: "uint8", To: "uint8"},
}

func newRecorder(types backend.TypeTable) *recorder {
	return &recorder{cfg: backend.Config{
		Format:     "recorder",
		Types:      types,
		StructName: backend.VersionedStructName,
		Naming:     backend.CNaming{},
	}}
}

func strPtr(s string) *string { return &s }

func TestImuScenario(t *testing.T) {
	s := &schema.Schema{
		Name:        "measurement_imu",
		Description: strPtr("IMU."),
		Fields: []schema.Field{
			{Name: "accel", Type: strPtr("float64[3]")},
			{Name: "covariance", Type: strPtr("float64[9,9]")},
		},
	}
	r := newRecorder(rawTypes)
	require.NoError(t, classify.Convert(r, []*schema.Schema{s}, log.Discard()))

	assert.Equal(t, []string{
		"begin measurement_imu",
		"docstring IMU.",
		"pointer accel float64 3 false",
		"matrix covariance float64 9 9 false",
	}, r.calls)
	assert.Equal(t, 1, r.generated)
}

func TestFieldShapes(t *testing.T) {
	testCases := []struct {
		name     string
		field    schema.Field
		expected string
	}{
		{"scalar", schema.Field{Name: "time", Type: strPtr("float64")}, "simple time double false"},
		{"nullable scalar", schema.Field{Name: "alt", Type: strPtr("float64?")}, "simple alt double true"},
		{"string", schema.Field{Name: "label", Type: strPtr("string")}, "string label false"},
		{"fixed array", schema.Field{Name: "p", Type: strPtr("float64[3]")}, "pointer p double 3 false"},
		{"variable array", schema.Field{Name: "ids", Type: strPtr("uint8[num_ids]")}, "pointer ids uint8_t num_ids false"},
		{"nullable variable array", schema.Field{Name: "ids", Type: strPtr("uint8[num_ids]?")}, "pointer ids uint8_t num_ids true"},
		{"fixed matrix", schema.Field{Name: "k", Type: strPtr("float64[3,3]")}, "matrix k double 3 3 false"},
		{"variable matrix", schema.Field{Name: "covariance", Type: strPtr("float64[num_meas,num_meas]")}, "matrix covariance double num_meas num_meas false"},
		{"nested", schema.Field{Name: "time_of_validity", Type: strPtr("type_timestamp")}, "simple time_of_validity Aspn23TypeTimestamp false"},
		{"nested array", schema.Field{Name: "sv_data", Type: strPtr("type_satnav_sv_data[num_signals_tracked]")}, "pointer sv_data Aspn23TypeSatnavSvData num_signals_tracked false"},
		{"upper case name", schema.Field{Name: "Elapsed", Type: strPtr("int64")}, "simple elapsed int64_t false"},
		{"integrity default", schema.Field{Name: "integrity_method"}, "simple integrity_method uint8_t false"},
		{
			"enum",
			schema.Field{Name: "mode", Enum: schema.EnumValues{{Value: "ON", Doc: "on"}, {Value: "OFF = 4", Doc: "off"}}},
			"enum mode Aspn23MeasurementXMode [ASPN23_MEASUREMENT_X_MODE_ON ASPN23_MEASUREMENT_X_MODE_OFF = 4] [on off]",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			r := newRecorder(backend.CTypes)
			c := classify.New(r, log.Discard())
			require.NoError(t, c.Field("measurement_x", tc.field))
			require.Len(t, r.calls, 1)
			assert.Equal(t, tc.expected, r.calls[0])
		})
	}
}

func TestFieldErrors(t *testing.T) {
	testCases := []struct {
		name  string
		field schema.Field
		err   error
	}{
		{"mixed matrix", schema.Field{Name: "m", Type: strPtr("float64[3,num_x]")}, backend.ErrMixedDimensions},
		{"unknown type", schema.Field{Name: "q", Type: strPtr("quaternion")}, backend.ErrUnrecognizedField},
		{"no type", schema.Field{Name: "q"}, backend.ErrUnrecognizedField},
		{"empty enum", schema.Field{Name: "q", Enum: schema.EnumValues{}}, backend.ErrUnrecognizedField},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			r := newRecorder(backend.CTypes)
			err := classify.New(r, log.Discard()).Field("measurement_x", tc.field)
			assert.ErrorIs(t, err, tc.err)
			assert.Empty(t, r.calls)
		})
	}
}

func TestConvertStopsOnError(t *testing.T) {
	bad := &schema.Schema{Name: "measurement_bad", Fields: []schema.Field{{Name: "q", Type: strPtr("quaternion")}}}
	r := newRecorder(backend.CTypes)
	err := classify.Convert(r, []*schema.Schema{bad}, log.Discard())

	var fe *backend.FieldError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "measurement_bad", fe.Struct)
	assert.Equal(t, "q", fe.Field)
	assert.Equal(t, 0, r.generated)
}

func TestDocstrings(t *testing.T) {
	r := newRecorder(backend.CTypes)
	r.cfg.UnitsInDocs = true
	var docs []string
	spy := &docSpy{recorder: r, docs: &docs}

	c := classify.New(spy, log.Discard())
	require.NoError(t, c.Field("measurement_x", schema.Field{
		Name: "p", Type: strPtr("float64[3]"), Description: "Position.", Units: strPtr("m"), Length: strPtr("3"),
	}))
	require.NoError(t, c.Field("measurement_x", schema.Field{Name: "t", Type: strPtr("float64"), Description: "Time."}))
	require.NoError(t, c.Field("measurement_x", schema.Field{
		Name: "covariance", Type: strPtr("float64[num_meas,num_meas]"), Description: "Cov.",
	}))

	assert.Equal(t, []string{
		"Description: Position.\nUnits: m\nLength: 3",
		"Description: Time.\nUnits: none",
		"Description: Cov.\nUnits: none Dimensions of covariance must be num_meas²",
	}, docs)
}

// docSpy records the docstrings handed to field calls.
type docSpy struct {
	*recorder
	docs *[]string
}

func (d *docSpy) ProcessSimpleField(name, typeName, doc string, nullable bool) error {
	*d.docs = append(*d.docs, doc)
	return d.recorder.ProcessSimpleField(name, typeName, doc, nullable)
}

func (d *docSpy) ProcessDataPointerField(name, typeName string, length backend.Dim, doc string, nullable bool) error {
	*d.docs = append(*d.docs, doc)
	return d.recorder.ProcessDataPointerField(name, typeName, length, doc, nullable)
}

func (d *docSpy) ProcessMatrixField(name, typeName string, x, y backend.Dim, doc string, nullable bool) error {
	*d.docs = append(*d.docs, doc)
	return d.recorder.ProcessMatrixField(name, typeName, x, y, doc, nullable)
}
