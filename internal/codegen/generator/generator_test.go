package generator_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/aspn-firehose/firehose/internal/codegen/generator"
	"github.com/aspn-firehose/firehose/internal/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gotest.tools/v3/fs"
)

const headerYAML = `name: type_header
description: Standard message header.
fields:
  - name: vendor_id
    type: uint32
    description: Vendor.
  - name: seq_num
    type: uint16
    description: Sequence number.
`

const timestampYAML = `name: type_timestamp
description: Time since epoch.
fields:
  - name: elapsed_nsec
    type: int64
    description: Nanoseconds.
`

const positionYAML = `name: measurement_position
description: Position fix.
fields:
  - name: header
    type: type_header
    description: Header.
  - name: time_of_validity
    type: type_timestamp
    description: Validity time.
  - name: position
    type: float64[3]
    description: Position.
`

func icd(t *testing.T) string {
	t.Helper()
	dir := fs.NewDir(t, "icd",
		fs.WithDir("types",
			fs.WithFile("type_header.yaml", headerYAML),
			fs.WithFile("type_timestamp.yaml", timestampYAML),
		),
		fs.WithDir("metadata"),
		fs.WithDir("measurements",
			fs.WithFile("measurement_position.yaml", positionYAML),
		),
	)
	return dir.Path()
}

func read(t *testing.T, path ...string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(path...))
	require.NoError(t, err)
	return string(data)
}

func TestFormats(t *testing.T) {
	assert.Equal(t, []string{
		"c", "cpp", "dds", "lcm", "lcmtranslations", "marshal_lcm_c", "py", "ros", "rostranslations",
	}, generator.Formats())
}

func TestUnsupportedFormat(t *testing.T) {
	g := generator.New(icd(t), nil, "", log.Discard())
	err := g.GenerateFormat("xmi", t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported format 'xmi'")
	assert.Contains(t, err.Error(), "marshal_lcm_c")
}

func TestMessageTypeInjection(t *testing.T) {
	root := icd(t)

	cOut := t.TempDir()
	require.NoError(t, generator.New(root, nil, "", log.Discard()).GenerateFormat("c", cOut))
	assert.Contains(t, read(t, cOut, "src", "aspn23", "TypeHeader.h"), "message_type")

	pyOut := t.TempDir()
	require.NoError(t, generator.New(root, nil, "", log.Discard()).GenerateFormat("py", pyOut))
	pyHeader := read(t, pyOut, "src", "aspn23", "type_header.py")
	assert.Contains(t, pyHeader, "vendor_id")
	assert.NotContains(t, pyHeader, "message_type")
}

func TestEveryFormatRenders(t *testing.T) {
	root := icd(t)
	for _, format := range generator.Formats() {
		t.Run(format, func(t *testing.T) {
			out := t.TempDir()
			require.NoError(t, generator.New(root, nil, "", log.Discard()).GenerateFormat(format, out))

			var files int
			require.NoError(t, filepath.WalkDir(out, func(_ string, d os.DirEntry, err error) error {
				if err == nil && !d.IsDir() {
					files++
				}
				return err
			}))
			assert.Positive(t, files)
		})
	}
}

func TestMissingICD(t *testing.T) {
	g := generator.New(filepath.Join(t.TempDir(), "missing"), nil, "", log.Discard())
	err := g.GenerateFormat("lcm", t.TempDir())
	assert.ErrorContains(t, err, "load schemas")
}
