package ros_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/aspn-firehose/firehose/internal/codegen/classify"
	"github.com/aspn-firehose/firehose/internal/codegen/generator/ros"
	"github.com/aspn-firehose/firehose/internal/codegen/schema"
	"github.com/aspn-firehose/firehose/internal/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestGenerate(t *testing.T) {
	dir := t.TempDir()
	b := ros.New(log.Discard())
	require.NoError(t, b.SetOutputRootFolder(dir))

	schemas := []*schema.Schema{
		{Name: "type_timestamp", Fields: []schema.Field{{Name: "elapsed_nsec", Type: strPtr("int64")}}},
		{
			Name:        "measurement_imu",
			Description: strPtr("Inertial measurement."),
			Fields: []schema.Field{
				{Name: "time_of_validity", Type: strPtr("type_timestamp"), Description: "Time."},
				{Name: "accel", Type: strPtr("float64[3]"), Description: "Accel.", Units: strPtr("m/s^2")},
				{Name: "covariance", Type: strPtr("float64[3,3]"), Description: "Cov."},
				{Name: "num_meas", Type: strPtr("uint8"), Description: "Count."},
				{Name: "noise", Type: strPtr("float64[num_meas,num_meas]"), Description: "Noise."},
				{Name: "values", Type: strPtr("float64[num_meas]"), Description: "Values."},
				{Name: "mode", Description: "Mode.", Enum: schema.EnumValues{{Value: "ON", Doc: "On."}, {Value: "OFF = 300", Doc: "Off."}}},
			},
		},
	}
	require.NoError(t, classify.Convert(b, schemas, log.Discard()))

	data, err := os.ReadFile(filepath.Join(dir, "msg", "MeasurementImu.msg"))
	require.NoError(t, err)
	got := string(data)

	assert.Contains(t, got, "# This code is generated via firehose.\n")
	assert.Contains(t, got, "\n# Inertial measurement.\n")
	assert.Contains(t, got, "# Description: Time.\n# Units: none\nTypeTimestamp time_of_validity\n")
	assert.Contains(t, got, "# Description: Accel.\n# Units: m/s^2\nfloat64[3] accel\n")
	assert.Contains(t, got, "# Note: field represents a 3 x 3 matrix\nfloat64[9] covariance\n")
	assert.Contains(t, got, "# Note: field represents a num_meas x num_meas matrix\nfloat64[] noise\n")
	assert.Contains(t, got, "# Note: array length is num_meas\nfloat64[] values\n")
	assert.Contains(t, got, "uint8 num_meas\n")
	assert.Contains(t, got, "# Mode.\nuint16 mode\n")
	assert.Contains(t, got, "# On.\nuint16 ASPN23_MEASUREMENT_IMU_MODE_ON=0\n")
	assert.Contains(t, got, "uint16 ASPN23_MEASUREMENT_IMU_MODE_OFF=300\n")

	assert.FileExists(t, filepath.Join(dir, "msg", "TypeTimestamp.msg"))

	cmake, err := os.ReadFile(filepath.Join(dir, "CMakeLists.txt"))
	require.NoError(t, err)
	assert.Contains(t, string(cmake), "rosidl_generate_interfaces(aspn23_ros_interfaces\n  \"msg/TypeTimestamp.msg\"\n  \"msg/MeasurementImu.msg\"\n)")

	manifest, err := os.ReadFile(filepath.Join(dir, "package.xml"))
	require.NoError(t, err)
	assert.Contains(t, string(manifest), "<name>aspn23_ros_interfaces</name>")
	assert.Contains(t, string(manifest), "<version>0.0.1</version>")
}

func TestEnumStorageType(t *testing.T) {
	assert.Equal(t, "uint8", ros.EnumStorageType(255))
	assert.Equal(t, "uint16", ros.EnumStorageType(256))
}
