package targets_test

import (
	"bytes"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aspn-firehose/firehose/internal/codegen/targets"
	"github.com/aspn-firehose/firehose/internal/log"
	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFirehoseTargets(t *testing.T) {
	set := targets.Firehose(targets.Options{ICDDir: "icd", OutputDir: "out"}, log.Discard())
	assert.Equal(t, []string{
		"aspn_c",
		"aspn_cpp",
		"aspn_lcm",
		"aspn_dds_idl",
		"aspn_lcm_translations",
		"aspn_py",
		"aspn_dds_cpp",
		"aspn_ros",
		"aspn_ros_translations",
		"aspn_marshal_lcm_c",
	}, set.Names())

	all, err := set.Collect(set.All())
	require.NoError(t, err)
	levels, err := targets.Levels(all)
	require.NoError(t, err)
	require.Len(t, levels, 2)
	assert.ElementsMatch(t, []string{
		"aspn_dds_cpp", "aspn_lcm_translations", "aspn_marshal_lcm_c", "aspn_ros_translations",
	}, levels[1])

	lcm, ok := set.Get("aspn_lcm")
	require.True(t, ok)
	assert.Nil(t, lcm.Post, "lcm-gen is optional")

	withLCM := targets.Firehose(targets.Options{ICDDir: "icd", OutputDir: "out", LCMGen: "lcm-gen"}, log.Discard())
	lcm, _ = withLCM.Get("aspn_lcm")
	assert.NotNil(t, lcm.Post)
}

func TestOptionsValidate(t *testing.T) {
	build := t.TempDir()
	tests := []struct {
		name    string
		opts    targets.Options
		wantErr string
	}{
		{"nested output", targets.Options{ICDDir: "icd", BuildDir: build, OutputDir: filepath.Join(build, "output")}, ""},
		{"same dir", targets.Options{ICDDir: "icd", BuildDir: build, OutputDir: build}, "must be a subdirectory"},
		{"outside", targets.Options{ICDDir: "icd", BuildDir: build, OutputDir: filepath.Join(build, "..", "elsewhere")}, "must be a subdirectory"},
		{"no icd", targets.Options{BuildDir: build, OutputDir: filepath.Join(build, "o")}, "icd directory is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestFirehoseConvertTarget(t *testing.T) {
	icd := t.TempDir()
	out := t.TempDir()
	set := targets.Firehose(targets.Options{ICDDir: icd, OutputDir: out}, log.Discard())
	r := &targets.Runner{Set: set, Logger: log.Discard()}

	// An empty ICD still produces the aggregate files.
	require.NoError(t, r.Run(t.Context(), byName(set, "aspn_py")))
	assert.FileExists(t, filepath.Join(out, targets.PyDir, "src", "aspn23", "__init__.py"))
}

func TestPrompt(t *testing.T) {
	set := targets.NewSet(
		&targets.Target{Name: "aspn_c"},
		&targets.Target{Name: "aspn_cpp"},
		&targets.Target{Name: "aspn_lcm"},
		&targets.Target{Name: "aspn_py"},
	)
	in := strings.NewReader("\nmaybe\nn\nYes\nno\n")
	var out bytes.Buffer
	color.NoColor = true

	selected, err := targets.Prompt(in, &out, set)
	require.NoError(t, err)
	assert.Equal(t, []string{"aspn_c", "aspn_lcm"}, names(selected))
	assert.Contains(t, out.String(), "Please enter 'y' or 'n'.")
	assert.Contains(t, out.String(), "Do you want to generate aspn_py? [y/n] (default=yes): ")
}

func TestPromptEOF(t *testing.T) {
	set := targets.NewSet(&targets.Target{Name: "a"}, &targets.Target{Name: "b"})
	_, err := targets.Prompt(strings.NewReader("y\n"), io.Discard, set)
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

func TestList(t *testing.T) {
	color.NoColor = true
	var out bytes.Buffer
	targets.List(&out, diamond())
	assert.Contains(t, out.String(), "Available targets:\n  base\n")
	assert.Contains(t, out.String(), "  top (needs left, right)\n")
}

func names(ts []*targets.Target) []string {
	var out []string
	for _, t := range ts {
		out = append(out, t.Name)
	}
	return out
}
