package cgen_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/aspn-firehose/firehose/internal/codegen/backend"
	"github.com/aspn-firehose/firehose/internal/codegen/classify"
	cgen "github.com/aspn-firehose/firehose/internal/codegen/generator/c"
	"github.com/aspn-firehose/firehose/internal/codegen/schema"
	"github.com/aspn-firehose/firehose/internal/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func generate(t *testing.T, schemas ...*schema.Schema) string {
	t.Helper()
	dir := t.TempDir()
	b := cgen.New(log.Discard())
	require.NoError(t, b.SetOutputRootFolder(dir))
	require.NoError(t, classify.Convert(b, schemas, log.Discard()))
	return dir
}

func read(t *testing.T, path ...string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(path...))
	require.NoError(t, err)
	return string(data)
}

func TestFixedSizeStruct(t *testing.T) {
	dir := generate(t, &schema.Schema{
		Name:        "measurement_imu",
		Description: strPtr("Inertial measurement."),
		Fields: []schema.Field{
			{Name: "accel", Type: strPtr("float64[3]"), Description: "Acceleration."},
			{Name: "covariance", Type: strPtr("float64[9,9]"), Description: "Covariance."},
		},
	})

	header := read(t, dir, "src", "aspn23", "MeasurementImu.h")
	assert.Contains(t, header, "typedef struct Aspn23MeasurementImu {")
	assert.Contains(t, header, "    double accel[3];\n")
	assert.Contains(t, header, "    double covariance[9][9];\n")
	assert.Contains(t, header, "Aspn23MeasurementImu* ASPN_NULLABLE aspn23_measurement_imu_new(double accel[3], double covariance[9][9]);")
	assert.NotContains(t, header, "ASPN_ASSUME_NONNULL_BEGIN")
	assert.NotContains(t, header, "Pointer fields")

	source := read(t, dir, "src", "aspn23", "MeasurementImu.c")
	assert.Contains(t, source, "memcpy(self->accel, accel, 3 * sizeof(double));")
	assert.Contains(t, source, "memcpy(self->covariance, covariance, 81 * sizeof(double));")
	assert.Contains(t, source, "void aspn23_measurement_imu_free_members(Aspn23MeasurementImu* self) {\n    if (NULL == self) return;\n}\n")
	assert.Contains(t, source, "aspn23_measurement_imu_new(input->accel, input->covariance);")
}

func TestPointerFields(t *testing.T) {
	dir := generate(t,
		&schema.Schema{
			Name:   "type_timestamp",
			Fields: []schema.Field{{Name: "elapsed_nsec", Type: strPtr("int64")}},
		},
		&schema.Schema{
			Name: "measurement_satnav",
			Fields: []schema.Field{
				{Name: "time_of_validity", Type: strPtr("type_timestamp")},
				{Name: "num_meas", Type: strPtr("uint8")},
				{Name: "values", Type: strPtr("float64[num_meas]?")},
				{Name: "covariance", Type: strPtr("float64[num_meas,num_meas]")},
				{Name: "label", Type: strPtr("string")},
				{Name: "mode", Enum: schema.EnumValues{{Value: "ON", Doc: "On."}, {Value: "OFF = 4", Doc: "Off."}}},
			},
		},
	)

	header := read(t, dir, "src", "aspn23", "MeasurementSatnav.h")
	assert.Contains(t, header, "#include \"TypeTimestamp.h\"")
	assert.Contains(t, header, "ASPN_ASSUME_NONNULL_BEGIN")
	assert.Contains(t, header, "    double* ASPN_NULLABLE values;\n")
	assert.Contains(t, header, "    double* covariance;\n")
	assert.Contains(t, header, "    char* label;\n")
	assert.Contains(t, header, "enum Aspn23MeasurementSatnavMode {")
	assert.Contains(t, header, "    ASPN23_MEASUREMENT_SATNAV_MODE_OFF = 4\n};")
	assert.Contains(t, header, "Pointer fields (values, covariance) will be freed")
	assert.Contains(t, header, "Aspn23TypeTimestamp* time_of_validity")

	source := read(t, dir, "src", "aspn23", "MeasurementSatnav.c")
	assert.Contains(t, source, "size_t covariance_elements;")
	assert.Contains(t, source, "Aspn23TypeTimestamp* time_of_validity_prep = aspn23_type_timestamp_copy(time_of_validity);")
	assert.Contains(t, source, "aspn23_type_timestamp_free_members(&self->time_of_validity);")
	assert.Contains(t, source, "self->values = (double*)calloc(num_meas, sizeof(double));")
	assert.Contains(t, source, "free(self->covariance);")
	assert.Contains(t, source, "free(self->label);")

	aliases := read(t, dir, "src", "aspn23", "aspn.h")
	assert.Contains(t, aliases, "typedef Aspn23MeasurementSatnav AspnMeasurementSatnav;")
	assert.Contains(t, aliases, "#define ASPN_MEASUREMENT_SATNAV_MODE_OFF ASPN23_MEASUREMENT_SATNAV_MODE_OFF")
	assert.Contains(t, aliases, "typedef enum Aspn23MeasurementSatnavMode AspnMeasurementSatnavMode;")
	assert.Contains(t, aliases, "#define aspn_type_timestamp_copy aspn23_type_timestamp_copy")

	types := read(t, dir, "src", "aspn23", "types.h")
	assert.Contains(t, types, "    ASPN_MEASUREMENT_SATNAV,\n")
	assert.Contains(t, types, "ASPN_LAST_MESSAGE=ASPN_MEASUREMENT_SATNAV,")
	assert.Contains(t, types, "#define ASPN_NUM_MESSAGES 2")
	assert.NotContains(t, types, "ASPN_TYPE_TIMESTAMP")

	typesSource := read(t, dir, "src", "aspn23", "types.c")
	assert.Contains(t, typesSource, "return \"ASPN23_MEASUREMENT_SATNAV\";")

	meta := read(t, dir, "src", "aspn23", "messages_and_types.h")
	assert.Contains(t, meta, "#include <aspn23/TypeTimestamp.h>\n#include <aspn23/MeasurementSatnav.h>\n")

	meson := read(t, dir, "meson.build")
	assert.Contains(t, meson, "    'src/aspn23/TypeTimestamp.c',\n    'src/aspn23/MeasurementSatnav.c',\n    'src/aspn23/utils.c',\n    'src/aspn23/types.c',\n]")
	assert.Contains(t, meson, "    'ASPN_MEASUREMENT_SATNAV',\n")

	assert.FileExists(t, filepath.Join(dir, "src", "aspn23", "common.h"))
	assert.FileExists(t, filepath.Join(dir, "src", "aspn23", "utils.c"))
}

func TestGenerateIsTerminal(t *testing.T) {
	b := cgen.New(log.Discard())
	require.NoError(t, b.SetOutputRootFolder(t.TempDir()))

	assert.ErrorIs(t, b.ProcessSimpleField("x", "double", "", false), backend.ErrNoStruct)

	require.NoError(t, b.BeginStruct("type_empty"))
	require.NoError(t, b.Generate())
	assert.ErrorIs(t, b.Generate(), backend.ErrAlreadyGenerated)
	assert.ErrorIs(t, b.BeginStruct("type_more"), backend.ErrAlreadyGenerated)
	assert.ErrorIs(t, b.ProcessInheritanceField("x", "y", "", false), backend.ErrUnsupported)
}

func TestStaleFilesRemoved(t *testing.T) {
	dir := t.TempDir()
	stale := filepath.Join(dir, "src", "aspn23", "Old.h")
	require.NoError(t, os.MkdirAll(filepath.Dir(stale), 0o755))
	require.NoError(t, os.WriteFile(stale, nil, 0o644))

	b := cgen.New(log.Discard())
	require.NoError(t, b.SetOutputRootFolder(dir))
	assert.NoFileExists(t, stale)
}
