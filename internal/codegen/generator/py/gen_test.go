package py_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/aspn-firehose/firehose/internal/codegen/classify"
	"github.com/aspn-firehose/firehose/internal/codegen/generator/py"
	"github.com/aspn-firehose/firehose/internal/codegen/schema"
	"github.com/aspn-firehose/firehose/internal/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func read(t *testing.T, path ...string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(path...))
	require.NoError(t, err)
	return string(data)
}

func TestGenerate(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "src", "aspn23")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "stale.py"), nil, 0o644))

	b := py.New(log.Discard())
	require.NoError(t, b.SetOutputRootFolder(root))
	assert.NoFileExists(t, filepath.Join(dir, "stale.py"))

	schemas := []*schema.Schema{
		{
			Name:   "type_timestamp",
			Fields: []schema.Field{{Name: "elapsed_nsec", Type: strPtr("int64"), Description: "Nanoseconds."}},
		},
		{
			Name:        "measurement_imu",
			Description: strPtr("Inertial measurement."),
			Fields: []schema.Field{
				{Name: "time_of_validity", Type: strPtr("type_timestamp"), Description: "Time."},
				{Name: "accel", Type: strPtr("float64[3]"), Description: "Acceleration."},
				{Name: "num_meas", Type: strPtr("uint8"), Description: "Count."},
				{Name: "values", Type: strPtr("float64[num_meas]?"), Description: "Values."},
				{Name: "stamps", Type: strPtr("type_timestamp[num_meas]"), Description: "Stamps."},
				{Name: "covariance", Type: strPtr("float64[num_meas,num_meas]"), Description: "Cov."},
				{Name: "p", Type: strPtr("float64[3,3]"), Description: "P."},
				{Name: "label", Type: strPtr("string?"), Description: "Label."},
				{Name: "mode", Description: "Mode.", Enum: schema.EnumValues{{Value: "on", Doc: "On."}, {Value: "off = 4", Doc: "Off."}}},
			},
		},
	}
	require.NoError(t, classify.Convert(b, schemas, log.Discard()))

	got := read(t, dir, "measurement_IMU.py")
	assert.Contains(t, got, "This code is generated via firehose.")
	assert.Contains(t, got, "from .aspn_base import AspnBase\n")
	assert.Contains(t, got, "from .type_timestamp import TypeTimestamp\n")
	assert.Contains(t, got, "import numpy as np\n")
	assert.Contains(t, got, "from typing import List\n")
	assert.Contains(t, got, "class MeasurementImuMode(Enum):\n")
	assert.Contains(t, got, "    ON = 0\n")
	assert.Contains(t, got, "    OFF = 4\n    \"\"\"\n    Off.\n    \"\"\"\n")
	assert.Contains(t, got, "@dataclass\nclass MeasurementImu(AspnBase):\n    \"\"\"\n    Inertial measurement.\n")
	assert.Contains(t, got, "    accel - np.ndarray[float, (3)]:\n            Acceleration.\n")
	assert.Contains(t, got, "    time_of_validity: TypeTimestamp\n")
	assert.Contains(t, got, "    accel: np.ndarray[float, (3)]\n")
	assert.Contains(t, got, "    values: Optional[np.ndarray[float]]\n")
	assert.Contains(t, got, "    stamps: List[TypeTimestamp]\n")
	assert.Contains(t, got, "    covariance: np.ndarray[float, (None, None)]\n")
	assert.Contains(t, got, "    p: np.ndarray[float, (3, 3)]\n")
	assert.Contains(t, got, "    label: Optional[str]\n")
	assert.Contains(t, got, "    mode: MeasurementImuMode\n")
	assert.NotContains(t, got, "num_meas:")

	nested := read(t, dir, "type_timestamp.py")
	assert.Contains(t, nested, "class TypeTimestamp:\n")
	assert.NotContains(t, nested, "AspnBase")
	assert.NotContains(t, nested, "numpy")
	assert.NotContains(t, nested, "from enum import Enum")

	pkgInit := read(t, dir, "__init__.py")
	assert.Contains(t, pkgInit, "from .aspn_base import AspnBase as AspnBase\n")
	assert.Contains(t, pkgInit, "from .type_timestamp import TypeTimestamp as TypeTimestamp\n")
	assert.Contains(t, pkgInit, "from .measurement_IMU import MeasurementImu as MeasurementImu, MeasurementImuMode as MeasurementImuMode\n")

	assert.Contains(t, read(t, dir, "aspn_base.py"), "class AspnBase(Protocol):\n    pass\n")
}
