package cmd

import (
	"encoding/json"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/aspn-firehose/firehose/internal/log"
	toml "github.com/pelletier/go-toml"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	yaml "gopkg.in/yaml.v3"
)

func TestConfigKey(t *testing.T) {
	field := func(name string) reflect.StructField {
		f, ok := reflect.TypeOf(Generate{}).FieldByName(name)
		require.True(t, ok, name)
		return f
	}
	assert.Equal(t, "icd_dir", configKey(field("ICDDir")))
	assert.Equal(t, "extra_icd_dir", configKey(field("ExtraICDDir")))
	assert.Equal(t, "list_targets", configKey(field("ListTargets")))
	assert.Equal(t, "lcm_gen", configKey(field("LCMGen")))
	assert.Equal(t, "fastddsgen", configKey(field("FastDDSGen")))
}

func TestBuildMapFromStruct(t *testing.T) {
	m := buildMapFromStruct(reflect.TypeOf(Convert{}))
	assert.NotContains(t, m, "icd_dir", "positional arguments are not configurable")
	assert.Equal(t, []string{}, m["extra_dir"])
	assert.Equal(t, "", m["output"])

	m = buildMapFromStruct(reflect.TypeOf(Generate{}))
	assert.Equal(t, "build/output", m["output_dir"])
	assert.Equal(t, "fastddsgen", m["fastddsgen"])
	assert.Equal(t, false, m["all"])
	assert.Equal(t, int64(0), m["jobs"])
}

func TestConfigInit(t *testing.T) {
	dir := t.TempDir()

	jsonPath := filepath.Join(dir, "generate.json")
	require.NoError(t, (&ConfigInit{Command: "generate", Format: "json", Output: jsonPath}).Run(log.Discard()))
	var fromJSON map[string]any
	data, err := os.ReadFile(jsonPath)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &fromJSON))
	assert.Equal(t, "staging", fromJSON["staging_dir"])

	yamlPath := filepath.Join(dir, "nested", "convert.yml")
	require.NoError(t, (&ConfigInit{Command: "convert", Format: "yml", Output: yamlPath}).Run(log.Discard()))
	var fromYAML map[string]any
	data, err = os.ReadFile(yamlPath)
	require.NoError(t, err)
	require.NoError(t, yaml.Unmarshal(data, &fromYAML))
	assert.Contains(t, fromYAML, "format")

	tomlPath := filepath.Join(dir, "generate.toml")
	require.NoError(t, (&ConfigInit{Command: "generate", Format: "toml", Output: tomlPath}).Run(log.Discard()))
	tree, err := toml.LoadFile(tomlPath)
	require.NoError(t, err)
	assert.Equal(t, "build", tree.Get("build_dir"))

	err = (&ConfigInit{Command: "generate", Format: "toml", Output: tomlPath}).Run(log.Discard())
	assert.ErrorContains(t, err, "use --force")
	assert.NoError(t, (&ConfigInit{Command: "generate", Format: "toml", Output: tomlPath, Force: true}).Run(log.Discard()))

	err = (&ConfigInit{Command: "generate", Format: "ini"}).Run(log.Discard())
	assert.ErrorContains(t, err, "unsupported format")
}
